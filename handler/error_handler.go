package handler

import (
	"go-finance-api/common"
	"go-finance-api/service"
	"net/http"
)

func ErrorHandlingMiddleware(next func(http.ResponseWriter, *http.Request) *common.AppError) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := next(w, r); err != nil {
			err.Send(w)
		}
	}
}

// mapServiceError translates service-layer sentinels into stable HTTP
// responses. Anything unrecognized becomes a 500 with the fallback message;
// the raw error is only logged, never sent to the client.
func mapServiceError(err error, fallback string) *common.AppError {
	switch err {
	case service.ErrAccountNotFound:
		return common.NewAppError(http.StatusNotFound, "Account not found", nil)
	case service.ErrTransactionNotFound:
		return common.NewAppError(http.StatusNotFound, "Transaction not found", nil)
	case service.ErrPaymentNotFound:
		return common.NewAppError(http.StatusNotFound, "Payment not found", nil)
	case service.ErrPermissionDenied:
		return common.NewAppError(http.StatusForbidden, "Access to this resource is denied", nil)
	case service.ErrInvalidAmount, service.ErrFrequencyRequired, service.ErrFrequencyNotAllowed, service.ErrInvalidMonth:
		return common.NewAppError(http.StatusBadRequest, err.Error(), nil)
	case service.ErrInvalidPaymentState:
		return common.NewAppError(http.StatusConflict, err.Error(), nil)
	default:
		return common.NewAppError(http.StatusInternalServerError, fallback, err)
	}
}
