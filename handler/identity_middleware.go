package handler

import (
	"context"
	"go-finance-api/common"
	"net/http"

	"github.com/google/uuid"
)

type contextKey string

const UserIDKey contextKey = "userID"

// UserIDHeader carries the authenticated user's id, injected by the upstream
// gateway. Authentication itself happens before requests reach this service.
const UserIDHeader = "X-User-ID"

// IdentityMiddleware extracts the gateway-provided user identity and places
// it on the request context. Requests without a valid identity are rejected.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get(UserIDHeader)
		if header == "" {
			err := common.NewAppError(http.StatusUnauthorized, "Missing user identity", nil)
			err.Send(w)
			return
		}

		userID, err := uuid.Parse(header)
		if err != nil {
			appErr := common.NewAppError(http.StatusUnauthorized, "Invalid user identity", err)
			appErr.Send(w)
			return
		}

		ctx := context.WithValue(r.Context(), UserIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// userIDFromContext returns the authenticated user id placed on the context
// by IdentityMiddleware.
func userIDFromContext(r *http.Request) (uuid.UUID, bool) {
	userID, ok := r.Context().Value(UserIDKey).(uuid.UUID)
	return userID, ok
}
