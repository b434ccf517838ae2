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
	ErrAccountNotFound     = errors.New("account not found")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrPermissionDenied    = errors.New("resource does not belong to the requesting user")
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidMonth        = errors.New("month must be between 1 and 12")
)

// TransactionService records credits and debits against accounts. A
// transaction's balance effect is applied at most once, at the moment its
// status is completed, and always inside the same database transaction as
// the record write.
type TransactionService struct {
	db              *sql.DB
	accountRepo     repository.IAccountRepository
	transactionRepo repository.ITransactionRepository
}

func NewTransactionService(db *sql.DB, accountRepo repository.IAccountRepository, transactionRepo repository.ITransactionRepository) *TransactionService {
	return &TransactionService{
		db:              db,
		accountRepo:     accountRepo,
		transactionRepo: transactionRepo,
	}
}

// CreateTransaction inserts the record and, when its status is completed,
// applies the balance effect. Both happen in one database transaction; a
// failed adjustment rolls the insert back.
func (s *TransactionService) CreateTransaction(ctx context.Context, userID uuid.UUID, req model.CreateTransactionRequest) (*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":    userID,
		"account_id": req.AccountID,
		"amount":     req.Amount.String(),
		"type":       req.Type,
	})
	log.Info("Starting transaction creation")

	if !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	if err := s.checkAccountOwnership(userID, req.AccountID); err != nil {
		return nil, err
	}

	status := req.Status
	if status == "" {
		status = model.TransactionStatusCompleted
	}

	transaction := &model.Transaction{
		AccountID:       req.AccountID,
		Description:     req.Description,
		Amount:          req.Amount,
		Type:            req.Type,
		Category:        req.Category,
		Status:          status,
		ReferenceNumber: req.ReferenceNumber,
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.transactionRepo.CreateTransaction(tx, transaction); err != nil {
		return nil, fmt.Errorf("could not create transaction record: %w", err)
	}

	if transaction.Status == model.TransactionStatusCompleted {
		if err := s.accountRepo.AdjustBalanceTx(tx, transaction.AccountID, transaction.SignedAmount()); err != nil {
			if err == sql.ErrNoRows {
				return nil, ErrAccountNotFound
			}
			return nil, fmt.Errorf("could not apply balance effect: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}

	log.Info("Transaction created successfully")
	return transaction, nil
}

// UpdateTransaction edits a transaction and reconciles the account balance.
// If amount, type or status change while the previous status was completed,
// the original effect is reversed first with the original amount and type;
// the new effect is then applied only when the updated status is completed.
// Reverse-then-reapply, never a diff.
func (s *TransactionService) UpdateTransaction(ctx context.Context, userID, transactionID uuid.UUID, req model.UpdateTransactionRequest) (*model.Transaction, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":        userID,
		"transaction_id": transactionID,
	})
	log.Info("Starting transaction update")

	if req.Amount != nil && !req.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}

	original, err := s.transactionRepo.GetTransactionByID(transactionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	if err := s.checkAccountOwnership(userID, original.AccountID); err != nil {
		return nil, err
	}

	effectChanged := (req.Amount != nil && !req.Amount.Equal(original.Amount)) ||
		(req.Type != nil && *req.Type != original.Type) ||
		(req.Status != nil && *req.Status != original.Status)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer tx.Rollback()

	if effectChanged && original.Status == model.TransactionStatusCompleted {
		if err := s.accountRepo.AdjustBalanceTx(tx, original.AccountID, original.SignedAmount().Neg()); err != nil {
			return nil, fmt.Errorf("could not reverse original balance effect: %w", err)
		}
	}

	updated, err := s.transactionRepo.UpdateTransaction(tx, transactionID, req)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("could not update transaction record: %w", err)
	}

	if effectChanged && updated.Status == model.TransactionStatusCompleted {
		if err := s.accountRepo.AdjustBalanceTx(tx, updated.AccountID, updated.SignedAmount()); err != nil {
			return nil, fmt.Errorf("could not apply updated balance effect: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("could not commit transaction: %w", err)
	}

	log.Info("Transaction updated successfully")
	return updated, nil
}

// DeleteTransaction removes the record only. A balance effect the
// transaction already applied stays on the account.
func (s *TransactionService) DeleteTransaction(userID, transactionID uuid.UUID) error {
	transaction, err := s.transactionRepo.GetTransactionByID(transactionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrTransactionNotFound
		}
		return err
	}

	if err := s.checkAccountOwnership(userID, transaction.AccountID); err != nil {
		return err
	}

	if err := s.transactionRepo.DeleteTransaction(transactionID); err != nil {
		if err == sql.ErrNoRows {
			return ErrTransactionNotFound
		}
		return err
	}
	return nil
}

// GetTransaction returns a single transaction owned (through its account) by
// the given user.
func (s *TransactionService) GetTransaction(userID, transactionID uuid.UUID) (*model.Transaction, error) {
	transaction, err := s.transactionRepo.GetTransactionByID(transactionID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}

	if err := s.checkAccountOwnership(userID, transaction.AccountID); err != nil {
		return nil, err
	}
	return transaction, nil
}

// ListTransactionsForAccount retrieves the transaction history for a specific account.
func (s *TransactionService) ListTransactionsForAccount(userID, accountID uuid.UUID, limit int) ([]*model.Transaction, error) {
	if err := s.checkAccountOwnership(userID, accountID); err != nil {
		return nil, err
	}
	return s.transactionRepo.GetTransactionsByAccountID(accountID, limit)
}

// ListTransactionsForUser retrieves transactions across all of the user's accounts.
func (s *TransactionService) ListTransactionsForUser(userID uuid.UUID, limit int) ([]*model.Transaction, error) {
	return s.transactionRepo.GetTransactionsByUserID(userID, limit)
}

// ListTransactionsByCategory retrieves the user's transactions in one category.
func (s *TransactionService) ListTransactionsByCategory(userID uuid.UUID, category string) ([]*model.Transaction, error) {
	return s.transactionRepo.GetTransactionsByCategory(userID, category)
}

// GetMonthlyStats aggregates completed transactions of the given calendar
// month. Month boundaries are computed in UTC.
func (s *TransactionService) GetMonthlyStats(userID uuid.UUID, year, month int) (*model.MonthlyStats, error) {
	if month < 1 || month > 12 {
		return nil, ErrInvalidMonth
	}

	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)

	return s.transactionRepo.GetMonthlyStats(userID, from, to)
}

func (s *TransactionService) checkAccountOwnership(userID, accountID uuid.UUID) error {
	account, err := s.accountRepo.GetAccountByID(accountID)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrAccountNotFound
		}
		return err
	}
	if account.UserID != userID {
		logger.Log.WithFields(logrus.Fields{
			"requesting_user_id": userID,
			"target_account_id":  accountID,
		}).Warn("Permission denied for accessing account")
		return ErrPermissionDenied
	}
	return nil
}
