package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"go-finance-api/logger"
	"go-finance-api/model"
	"go-finance-api/repository"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrPaymentNotFound     = errors.New("payment not found")
	ErrFrequencyRequired   = errors.New("frequency is required for recurring payments")
	ErrFrequencyNotAllowed = errors.New("frequency is only allowed for recurring payments")
	ErrInvalidPaymentState = errors.New("payment cannot be cancelled in its current state")
)

// PaymentService owns the payment state machine:
//
//	pending -> processing -> completed | failed
//	pending -> cancelled
//
// Terminal states are never re-entered; processing an already-terminal
// payment is a no-op that reports the existing state. Only the sender-side
// debit is modeled; the outward transfer to the recipient institution is
// outside this system.
type PaymentService struct {
	db          *sql.DB
	paymentRepo repository.IPaymentRepository
	accountRepo repository.IAccountRepository
	now         func() time.Time
}

func NewPaymentService(db *sql.DB, paymentRepo repository.IPaymentRepository, accountRepo repository.IAccountRepository) *PaymentService {
	return &PaymentService{
		db:          db,
		paymentRepo: paymentRepo,
		accountRepo: accountRepo,
		now:         time.Now,
	}
}

// CreatePayment records a new payment. Without a scheduled date it starts in
// processing and is processed immediately; with one it starts pending and
// waits for the scheduled runner.
func (s *PaymentService) CreatePayment(ctx context.Context, userID uuid.UUID, req model.CreatePaymentRequest) (*model.Payment, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":         userID,
		"from_account_id": req.FromAccountID,
		"amount":          req.Amount.String(),
		"payment_type":    req.PaymentType,
	})
	log.Info("Starting payment creation")

	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if req.PaymentType == model.PaymentTypeRecurring && req.Frequency == "" {
		return nil, ErrFrequencyRequired
	}
	if req.PaymentType != model.PaymentTypeRecurring && req.Frequency != "" {
		return nil, ErrFrequencyNotAllowed
	}

	account, err := s.accountRepo.GetAccountByID(req.FromAccountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, err
	}
	if account.UserID != userID {
		return nil, ErrAccountNotFound
	}

	status := model.PaymentStatusProcessing
	if req.ScheduledDate != nil {
		status = model.PaymentStatusPending
	}

	payment := &model.Payment{
		UserID:          userID,
		FromAccountID:   req.FromAccountID,
		ToAccountNumber: req.ToAccountNumber,
		RecipientName:   req.RecipientName,
		Amount:          req.Amount,
		Currency:        req.Currency,
		Description:     req.Description,
		PaymentType:     req.PaymentType,
		Frequency:       req.Frequency,
		ScheduledDate:   req.ScheduledDate,
		Status:          status,
	}

	if err := s.paymentRepo.CreatePayment(payment); err != nil {
		return nil, fmt.Errorf("could not create payment record: %w", err)
	}

	// Immediate payments are processed synchronously right after creation.
	if payment.ScheduledDate == nil {
		processed, _, err := s.ProcessPayment(ctx, payment.ID)
		return processed, err
	}

	log.WithField("payment_id", payment.ID).Info("Scheduled payment created")
	return payment, nil
}

// ProcessPayment applies the payment's debit effect and moves it to a
// terminal state. The payment row is locked for the duration, so concurrent
// invocations for the same payment serialize; whichever runs second finds a
// terminal status and returns it unchanged without touching the balance.
// The returned bool reports whether this invocation performed the
// transition: callers that act on completion (like the recurring chain) must
// only act when it is true, or a concurrent processor's work gets doubled.
func (s *PaymentService) ProcessPayment(ctx context.Context, paymentID uuid.UUID) (*model.Payment, bool, error) {
	log := logger.Log.WithField("payment_id", paymentID)
	log.Info("Starting payment processing")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	payment, err := s.paymentRepo.GetPaymentForUpdate(tx, paymentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, ErrPaymentNotFound
		}
		return nil, false, err
	}

	if payment.Status.IsTerminal() {
		log.WithField("status", payment.Status).Info("Payment already in terminal state, nothing to process")
		return payment, false, nil
	}

	if err := s.accountRepo.AdjustBalanceTx(tx, payment.FromAccountID, payment.Amount.Neg()); err != nil {
		if err == sql.ErrNoRows {
			// Sender account is gone: the payment fails, no balance was touched.
			if err := s.paymentRepo.UpdatePaymentStatusTx(tx, paymentID, model.PaymentStatusFailed, nil); err != nil {
				return nil, false, fmt.Errorf("could not mark payment failed: %w", err)
			}
			if err := tx.Commit(); err != nil {
				return nil, false, fmt.Errorf("could not commit transaction: %w", err)
			}
			log.Warn("Payment failed: sender account not found")
			payment.Status = model.PaymentStatusFailed
			return payment, true, nil
		}

		// The storage error aborted the transaction, so the failed status
		// has to be written outside of it. The payment must not stay in
		// processing.
		if statusErr := s.paymentRepo.MarkPaymentFailed(paymentID); statusErr != nil {
			log.WithError(statusErr).Error("Could not mark payment failed after debit error")
		}
		return nil, false, fmt.Errorf("could not debit sender account: %w", err)
	}

	completedAt := s.now().UTC()
	if err := s.paymentRepo.UpdatePaymentStatusTx(tx, paymentID, model.PaymentStatusCompleted, &completedAt); err != nil {
		return nil, false, fmt.Errorf("could not mark payment completed: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("could not commit transaction: %w", err)
	}

	log.Info("Payment processed successfully")
	payment.Status = model.PaymentStatusCompleted
	payment.CompletedAt = &completedAt
	return payment, true, nil
}

// CancelPayment transitions a pending payment to cancelled. Any other state
// rejects the cancellation.
func (s *PaymentService) CancelPayment(userID, paymentID uuid.UUID) error {
	cancelled, err := s.paymentRepo.CancelPendingPayment(paymentID, userID)
	if err != nil {
		return err
	}
	if cancelled {
		logger.Log.WithField("payment_id", paymentID).Info("Payment cancelled")
		return nil
	}

	// The compare-and-set matched no row: either the payment does not exist
	// for this user, or it is no longer pending.
	payment, err := s.paymentRepo.GetPaymentByID(paymentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrPaymentNotFound
		}
		return err
	}
	if payment.UserID != userID {
		return ErrPaymentNotFound
	}
	return ErrInvalidPaymentState
}

// UpdatePayment applies a general field edit. It never triggers processing
// or balance changes.
func (s *PaymentService) UpdatePayment(userID, paymentID uuid.UUID, req model.UpdatePaymentRequest) (*model.Payment, error) {
	if req.Amount != nil && !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	payment, err := s.paymentRepo.UpdatePayment(paymentID, userID, req)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	return payment, nil
}

// GetPayment returns a single payment owned by the given user.
func (s *PaymentService) GetPayment(userID, paymentID uuid.UUID) (*model.Payment, error) {
	payment, err := s.paymentRepo.GetPaymentByID(paymentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrPaymentNotFound
		}
		return nil, err
	}
	if payment.UserID != userID {
		return nil, ErrPaymentNotFound
	}
	return payment, nil
}

// ListPaymentsForUser retrieves all payments for a user, newest first.
func (s *PaymentService) ListPaymentsForUser(userID uuid.UUID) ([]*model.Payment, error) {
	return s.paymentRepo.GetPaymentsByUserID(userID)
}

// ListPaymentsByStatus retrieves the user's payments in one status, newest first.
func (s *PaymentService) ListPaymentsByStatus(userID uuid.UUID, status model.PaymentStatus) ([]*model.Payment, error) {
	return s.paymentRepo.GetPaymentsByStatus(userID, status)
}

// ListPendingPayments retrieves pending and processing payments ordered by
// scheduled date, earliest due first, along with their count.
func (s *PaymentService) ListPendingPayments(userID uuid.UUID) ([]*model.Payment, int, error) {
	payments, err := s.paymentRepo.GetPendingPayments(userID)
	if err != nil {
		return nil, 0, err
	}
	return payments, len(payments), nil
}
