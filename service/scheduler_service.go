package service

import (
	"context"
	"fmt"
	"go-finance-api/logger"
	"go-finance-api/model"
	"go-finance-api/repository"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SchedulerService sweeps due scheduled payments and hands each one to the
// payment service. One payment's failure never blocks the rest of the run,
// and overlapping sweeps are safe: processing is idempotent under the
// payment row lock.
type SchedulerService struct {
	paymentService *PaymentService
	paymentRepo    repository.IPaymentRepository
}

func NewSchedulerService(paymentService *PaymentService, paymentRepo repository.IPaymentRepository) *SchedulerService {
	return &SchedulerService{
		paymentService: paymentService,
		paymentRepo:    paymentRepo,
	}
}

// RunResult reports the outcome for a single payment in a sweep.
type RunResult struct {
	PaymentID     uuid.UUID          `json:"payment_id"`
	Status        model.PaymentStatus `json:"status"`
	NextPaymentID *uuid.UUID         `json:"next_payment_id,omitempty"`
	Error         string             `json:"error,omitempty"`
}

// RunDue processes every pending payment whose scheduled date is at or
// before now. A recurring payment that completes spawns a new pending
// payment one frequency period later; the completed record itself stays
// terminal, so the recurrence history is an append-only chain.
func (s *SchedulerService) RunDue(ctx context.Context, now time.Time) ([]RunResult, error) {
	due, err := s.paymentRepo.GetDuePayments(now)
	if err != nil {
		return nil, fmt.Errorf("could not list due payments: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"due_count": len(due),
		"run_time":  now,
	}).Info("Processing scheduled payments")

	results := make([]RunResult, 0, len(due))
	for _, payment := range due {
		result := RunResult{PaymentID: payment.ID}

		processed, transitioned, err := s.paymentService.ProcessPayment(ctx, payment.ID)
		if err != nil {
			logger.Log.WithField("payment_id", payment.ID).WithError(err).Error("Failed to process scheduled payment")
			result.Error = err.Error()
			results = append(results, result)
			continue
		}
		result.Status = processed.Status

		// Chain only when this sweep performed the completion. The due list
		// is a snapshot; an overlapping sweep may have completed the payment
		// after we read it, and that sweep already scheduled the next
		// occurrence.
		if transitioned &&
			processed.Status == model.PaymentStatusCompleted &&
			payment.PaymentType == model.PaymentTypeRecurring &&
			payment.ScheduledDate != nil {
			next, err := s.scheduleNextOccurrence(payment)
			if err != nil {
				logger.Log.WithField("payment_id", payment.ID).WithError(err).Error("Failed to schedule next occurrence")
				result.Error = err.Error()
			} else {
				result.NextPaymentID = &next.ID
			}
		}

		results = append(results, result)
	}

	return results, nil
}

// scheduleNextOccurrence creates the next link in a recurring payment chain:
// a fresh pending payment with the same recipient, amount and description,
// dated one frequency period after the occurrence just processed.
func (s *SchedulerService) scheduleNextOccurrence(payment *model.Payment) (*model.Payment, error) {
	nextDate := model.NextOccurrence(*payment.ScheduledDate, payment.Frequency)

	next := &model.Payment{
		UserID:          payment.UserID,
		FromAccountID:   payment.FromAccountID,
		ToAccountNumber: payment.ToAccountNumber,
		RecipientName:   payment.RecipientName,
		Amount:          payment.Amount,
		Currency:        payment.Currency,
		Description:     payment.Description,
		PaymentType:     model.PaymentTypeRecurring,
		Frequency:       payment.Frequency,
		ScheduledDate:   &nextDate,
		Status:          model.PaymentStatusPending,
	}

	if err := s.paymentRepo.CreatePayment(next); err != nil {
		return nil, fmt.Errorf("could not create next recurring payment: %w", err)
	}

	logger.Log.WithFields(logrus.Fields{
		"payment_id":      payment.ID,
		"next_payment_id": next.ID,
		"next_date":       nextDate,
	}).Info("Next recurring occurrence scheduled")
	return next, nil
}
