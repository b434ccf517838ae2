package handler

import (
	"go-finance-api/common"
	"go-finance-api/logger"
	"go-finance-api/model"
	"go-finance-api/service"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type PaymentHandler struct {
	service   *service.PaymentService
	scheduler *service.SchedulerService
}

func NewPaymentHandler(service *service.PaymentService, scheduler *service.SchedulerService) *PaymentHandler {
	return &PaymentHandler{service: service, scheduler: scheduler}
}

// CreatePayment issues a new payment. Without a scheduled date it is
// processed immediately; the response carries the resulting state.
func (h *PaymentHandler) CreatePayment(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	var req model.CreatePaymentRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	log := logger.Log.WithFields(logrus.Fields{
		"user_id":      userID,
		"amount":       req.Amount.String(),
		"payment_type": req.PaymentType,
	})
	log.Info("Create payment request received")

	payment, err := h.service.CreatePayment(r.Context(), userID, req)
	if err != nil {
		return mapServiceError(err, "Could not create payment")
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"payment": payment})
	return nil
}

// ListPayments lists all payments of the requesting user, newest first.
func (h *PaymentHandler) ListPayments(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	payments, err := h.service.ListPaymentsForUser(userID)
	if err != nil {
		return mapServiceError(err, "Could not retrieve payments")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"payments": payments})
	return nil
}

// GetPayment returns a single payment by id.
func (h *PaymentHandler) GetPayment(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	paymentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid payment id", err)
	}

	payment, err := h.service.GetPayment(userID, paymentID)
	if err != nil {
		return mapServiceError(err, "Could not retrieve payment")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"payment": payment})
	return nil
}

// UpdatePayment applies a general field edit without touching the state
// machine or any balance.
func (h *PaymentHandler) UpdatePayment(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	paymentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid payment id", err)
	}

	var req model.UpdatePaymentRequest
	if !common.ValidateAndDecode(w, r, &req) {
		return nil
	}

	payment, err := h.service.UpdatePayment(userID, paymentID, req)
	if err != nil {
		return mapServiceError(err, "Could not update payment")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"payment": payment})
	return nil
}

// CancelPayment cancels a pending payment.
func (h *PaymentHandler) CancelPayment(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	paymentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid payment id", err)
	}

	if err := h.service.CancelPayment(userID, paymentID); err != nil {
		return mapServiceError(err, "Could not cancel payment")
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "Payment cancelled successfully"})
	return nil
}

// ListPendingPayments lists pending and processing payments with their
// count, earliest due first.
func (h *PaymentHandler) ListPendingPayments(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	payments, count, err := h.service.ListPendingPayments(userID)
	if err != nil {
		return mapServiceError(err, "Could not retrieve pending payments")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"payments": payments, "count": count})
	return nil
}

// ListPaymentsByStatus lists the user's payments in one status.
func (h *PaymentHandler) ListPaymentsByStatus(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	status := model.PaymentStatus(r.PathValue("status"))
	switch status {
	case model.PaymentStatusPending, model.PaymentStatusProcessing, model.PaymentStatusCompleted,
		model.PaymentStatusFailed, model.PaymentStatusCancelled:
	default:
		return common.NewAppError(http.StatusBadRequest, "Invalid payment status", nil)
	}

	payments, err := h.service.ListPaymentsByStatus(userID, status)
	if err != nil {
		return mapServiceError(err, "Could not retrieve payments by status")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"payments": payments})
	return nil
}

// ProcessPayment triggers processing of one payment. Processing an
// already-terminal payment reports its current state without re-executing
// the debit.
func (h *PaymentHandler) ProcessPayment(w http.ResponseWriter, r *http.Request) *common.AppError {
	userID, ok := userIDFromContext(r)
	if !ok {
		return common.NewAppError(http.StatusUnauthorized, "Invalid user identity", nil)
	}

	paymentID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		return common.NewAppError(http.StatusBadRequest, "Invalid payment id", err)
	}

	// Ownership check: the processing path itself is also used by the
	// scheduler and carries no user scope.
	if _, err := h.service.GetPayment(userID, paymentID); err != nil {
		return mapServiceError(err, "Could not retrieve payment")
	}

	payment, _, err := h.service.ProcessPayment(r.Context(), paymentID)
	if err != nil {
		return mapServiceError(err, "Could not process payment")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"result": payment})
	return nil
}

// ProcessScheduledPayments runs a due-payment sweep on demand, mirroring
// what the background runner does on its interval.
func (h *PaymentHandler) ProcessScheduledPayments(w http.ResponseWriter, r *http.Request) *common.AppError {
	results, err := h.scheduler.RunDue(r.Context(), time.Now().UTC())
	if err != nil {
		return mapServiceError(err, "Could not process scheduled payments")
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"result": results})
	return nil
}
