package handler

import (
	"go-finance-api/common"
	"go-finance-api/logger"
	"go-finance-api/model"
	"go-finance-api/service"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type TransactionHandler struct {
	service *service.TransactionService
}

func NewTransactionHandler(service *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{service: service}
}

// CreateTransaction records a credit or debit. A completed transaction
// adjusts the account balance as part of the same operation.
func (h *TransactionHandler) CreateTransaction(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	var req model.CreateTransactionRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    userID,
		"account_id": req.AccountID,
		"amount":     req.Amount.String(),
		"type":       req.Type,
	})
	log.Info("Create transaction request received")

	transaction, err := h.service.CreateTransaction(r.Context(), userID, req)
	if err != nil {
		return mapServiceError(err, "Could not create transaction")
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"transaction": transaction})
	return nil
}

// ListTransactions lists transactions across all of the user's accounts.
func (h *TransactionHandler) ListTransactions(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	limit, appErr := parseLimit(r)
	if appErr != nil {
		return appErr
	}

	transactions, err := h.service.ListTransactionsForUser(userID, limit)
	if err != nil {
		return mapServiceError(err, "Could not retrieve transactions")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": transactions})
	return nil
}

// GetTransaction returns a single transaction by id.
func (h *TransactionHandler) GetTransaction(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	transactionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid transaction id", err)
	}

	transaction, err := h.service.GetTransaction(userID, transactionID)
	if err != nil {
		return mapServiceError(err, "Could not retrieve transaction")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"transaction": transaction})
	return nil
}

// UpdateTransaction edits a transaction, reconciling the account balance
// when the edit touches a completed transaction's effect.
func (h *TransactionHandler) UpdateTransaction(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	transactionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid transaction id", err)
	}

	var req model.UpdateTransactionRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	transaction, err := h.service.UpdateTransaction(r.Context(), userID, transactionID, req)
	if err != nil {
		return mapServiceError(err, "Could not update transaction")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"transaction": transaction})
	return nil
}

// DeleteTransaction removes the record. An already-applied balance effect is
// left in place.
func (h *TransactionHandler) DeleteTransaction(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	transactionID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid transaction id", err)
	}

	if err := h.service.DeleteTransaction(userID, transactionID); err != nil {
		return mapServiceError(err, "Could not delete transaction")
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Transaction deleted successfully"})
	return nil
}

// ListTransactionsByAccount lists one account's transactions, newest first.
func (h *TransactionHandler) ListTransactionsByAccount(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	accountID, err := uuid.Parse(r.PathValue("accountId"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid account id", err)
	}

	limit, appErr := parseLimit(r)
	if appErr != nil {
		return appErr
	}

	transactions, err := h.service.ListTransactionsForAccount(userID, accountID, limit)
	if err != nil {
		return mapServiceError(err, "Could not retrieve transactions")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": transactions})
	return nil
}

// ListTransactionsByCategory lists the user's transactions in one category.
func (h *TransactionHandler) ListTransactionsByCategory(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	category := r.PathValue("category")
	if category == "" {
		return common.NewAppError(http.StatusBadRequest, "Category is required", nil)
	}

	transactions, err := h.service.ListTransactionsByCategory(userID, category)
	if err != nil {
		return mapServiceError(err, "Could not retrieve transactions by category")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": transactions})
	return nil
}

// GetMonthlyStats returns completed income and expense totals for one
// calendar month, with month boundaries taken in UTC.
func (h *TransactionHandler) GetMonthlyStats(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	year, err := strconv.Atoi(r.PathValue("year"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid year", err)
	}
	month, err := strconv.Atoi(r.PathValue("month"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid month", err)
	}

	stats, err := h.service.GetMonthlyStats(userID, year, month)
	if err != nil {
		return mapServiceError(err, "Could not retrieve monthly stats")
	}

	writeJSON(w, http.StatusOK, stats)
	return nil
}

func parseLimit(r *http.Request) (int, *common.AppError) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, common.NewAppError(http.StatusBadRequest, "Invalid limit parameter", err)
	}
	return limit, nil
}
