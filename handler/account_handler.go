package handler

import (
	"encoding/json"
	"go-finance-api/common"
	"go-finance-api/logger"
	"go-finance-api/model"
	"go-finance-api/service"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

type AccountHandler struct {
	service *service.AccountService
}

func NewAccountHandler(service *service.AccountService) *AccountHandler {
	return &AccountHandler{service: service}
}

// CreateAccount handles the request to open a new account.
func (h *AccountHandler) CreateAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	var req model.CreateAccountRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	log := logger.Log.WithFields(logrus.Fields{
		"user_id":  userID,
		"currency": req.Currency,
		"type":     req.Type,
	})
	log.Info("Create account request received")

	account, err := h.service.CreateNewAccount(userID, req)
	if err != nil {
		return mapServiceError(err, "Could not create account")
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"account": account})
	return nil
}

// ListAccounts lists all accounts of the requesting user.
func (h *AccountHandler) ListAccounts(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	accounts, err := h.service.ListAccountsForUser(userID)
	if err != nil {
		return mapServiceError(err, "Could not retrieve accounts")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"accounts": accounts})
	return nil
}

// GetAccount returns a single account by id.
func (h *AccountHandler) GetAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	accountID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account id", err)
	}

	account, err := h.service.GetAccount(userID, accountID)
	if err != nil {
		return mapServiceError(err, "Could not retrieve account")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"account": account})
	return nil
}

// UpdateAccount applies a partial account edit. Balance is not editable here.
func (h *AccountHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	accountID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account id", err)
	}

	var req model.UpdateAccountRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	account, err := h.service.UpdateAccount(userID, accountID, req)
	if err != nil {
		return mapServiceError(err, "Could not update account")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"account": account})
	return nil
}

// DeleteAccount soft-deletes an account; the record itself is kept.
func (h *AccountHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	accountID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account id", err)
	}

	if err := h.service.DeactivateAccount(userID, accountID); err != nil {
		return mapServiceError(err, "Could not delete account")
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
	return nil
}

// AdjustBalance credits or debits an account by a positive amount.
func (h *AccountHandler) AdjustBalance(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	accountID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account id", err)
	}

	var req model.AdjustBalanceRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    userID,
		"account_id": accountID,
		"amount":     req.Amount.String(),
		"type":       req.Type,
	})
	log.Info("Balance adjustment request received")

	account, err := h.service.AdjustBalance(userID, accountID, req.Amount, req.Type)
	if err != nil {
		return mapServiceError(err, "Could not adjust account balance")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"account": account})
	return nil
}

// GetTotalBalance sums the balances of the user's active accounts.
func (h *AccountHandler) GetTotalBalance(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	balance, err := h.service.GetTotalBalance(userID)
	if err != nil {
		return mapServiceError(err, "Could not retrieve total balance")
	}

	writeJSON(w, http.StatusOK, map[string]decimal.Decimal{"balance": balance})
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
