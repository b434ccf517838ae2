package repository

import (
	"database/sql"
	"go-finance-api/logger"
	"go-finance-api/model"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ITransactionRepository defines the contract for transaction database operations.
// Writes run inside a *sql.Tx so the caller can pair them with a balance
// adjustment and commit or roll back the pair as one unit.
type ITransactionRepository interface {
	CreateTransaction(tx *sql.Tx, transaction *model.Transaction) error
	UpdateTransaction(tx *sql.Tx, transactionID uuid.UUID, req model.UpdateTransactionRequest) (*model.Transaction, error)
	DeleteTransaction(transactionID uuid.UUID) error
	GetTransactionByID(transactionID uuid.UUID) (*model.Transaction, error)
	GetTransactionsByAccountID(accountID uuid.UUID, limit int) ([]*model.Transaction, error)
	GetTransactionsByUserID(userID uuid.UUID, limit int) ([]*model.Transaction, error)
	GetTransactionsByCategory(userID uuid.UUID, category string) ([]*model.Transaction, error)
	GetMonthlyStats(userID uuid.UUID, from, to time.Time) (*model.MonthlyStats, error)
}

// TransactionRepository implements ITransactionRepository.
type TransactionRepository struct {
	DB *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{DB: db}
}

const transactionColumns = `id, account_id, description, amount, type, category, status, COALESCE(reference_number, ''), created_at, updated_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (*model.Transaction, error) {
	t := &model.Transaction{}
	err := row.Scan(&t.ID, &t.AccountID, &t.Description, &t.Amount, &t.Type,
		&t.Category, &t.Status, &t.ReferenceNumber, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TransactionRepository) CreateTransaction(tx *sql.Tx, transaction *model.Transaction) error {
	log := logger.Log.WithFields(logrus.Fields{
		"account_id": transaction.AccountID,
		"amount":     transaction.Amount.String(),
		"type":       transaction.Type,
		"status":     transaction.Status,
	})
	log.Info("Executing query to create a new transaction")

	query := `INSERT INTO transactions (account_id, description, amount, type, category, status, reference_number)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''))
		RETURNING id, created_at, updated_at`
	err := tx.QueryRow(query, transaction.AccountID, transaction.Description, transaction.Amount,
		transaction.Type, transaction.Category, transaction.Status, transaction.ReferenceNumber).
		Scan(&transaction.ID, &transaction.CreatedAt, &transaction.UpdatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create transaction query")
		return err
	}
	return nil
}

// UpdateTransaction applies a partial field update within an open database
// transaction, so the caller can reconcile the balance in the same unit.
func (r *TransactionRepository) UpdateTransaction(tx *sql.Tx, transactionID uuid.UUID, req model.UpdateTransactionRequest) (*model.Transaction, error) {
	var txType, status *string
	if req.Type != nil {
		s := string(*req.Type)
		txType = &s
	}
	if req.Status != nil {
		s := string(*req.Status)
		status = &s
	}

	query := `UPDATE transactions
		SET description = COALESCE($1, description),
		    amount = COALESCE($2, amount),
		    type = COALESCE($3, type),
		    category = COALESCE($4, category),
		    status = COALESCE($5, status),
		    reference_number = COALESCE($6, reference_number),
		    updated_at = now()
		WHERE id = $7
		RETURNING ` + transactionColumns
	return scanTransaction(tx.QueryRow(query, req.Description, req.Amount, txType,
		req.Category, status, req.ReferenceNumber, transactionID))
}

// DeleteTransaction removes the record only. It does not touch any balance
// effect the transaction may already have applied.
func (r *TransactionRepository) DeleteTransaction(transactionID uuid.UUID) error {
	log := logger.Log.WithField("transaction_id", transactionID)
	log.Info("Executing query to delete transaction")

	res, err := r.DB.Exec(`DELETE FROM transactions WHERE id = $1`, transactionID)
	if err != nil {
		log.WithError(err).Error("Failed to execute delete transaction query")
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *TransactionRepository) GetTransactionByID(transactionID uuid.UUID) (*model.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.DB.QueryRow(query, transactionID))
}

// GetTransactionsByAccountID retrieves transactions for one account, newest
// first. A limit of zero means no limit.
func (r *TransactionRepository) GetTransactionsByAccountID(accountID uuid.UUID, limit int) ([]*model.Transaction, error) {
	log := logger.Log.WithField("account_id", accountID)
	log.Info("Executing query to get transactions by account ID")

	query := `SELECT ` + transactionColumns + `
		FROM transactions
		WHERE account_id = $1
		ORDER BY created_at DESC`
	args := []interface{}{accountID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	return r.queryTransactions(query, args...)
}

// GetTransactionsByUserID retrieves transactions across all of the user's
// accounts, newest first. A limit of zero means no limit.
func (r *TransactionRepository) GetTransactionsByUserID(userID uuid.UUID, limit int) ([]*model.Transaction, error) {
	query := `SELECT t.id, t.account_id, t.description, t.amount, t.type, t.category, t.status, COALESCE(t.reference_number, ''), t.created_at, t.updated_at
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.user_id = $1
		ORDER BY t.created_at DESC`
	args := []interface{}{userID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	return r.queryTransactions(query, args...)
}

func (r *TransactionRepository) GetTransactionsByCategory(userID uuid.UUID, category string) ([]*model.Transaction, error) {
	query := `SELECT t.id, t.account_id, t.description, t.amount, t.type, t.category, t.status, COALESCE(t.reference_number, ''), t.created_at, t.updated_at
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.user_id = $1 AND t.category = $2
		ORDER BY t.created_at DESC`
	return r.queryTransactions(query, userID, category)
}

// GetMonthlyStats aggregates completed transactions of the user's accounts
// inside the half-open window [from, to).
func (r *TransactionRepository) GetMonthlyStats(userID uuid.UUID, from, to time.Time) (*model.MonthlyStats, error) {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id": userID,
		"from":    from,
		"to":      to,
	})
	log.Info("Executing monthly stats aggregation query")

	query := `SELECT
			COALESCE(SUM(CASE WHEN t.type = 'credit' THEN ABS(t.amount) ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN t.type = 'debit' THEN ABS(t.amount) ELSE 0 END), 0)
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.user_id = $1
		  AND t.status = 'completed'
		  AND t.created_at >= $2
		  AND t.created_at < $3`

	stats := &model.MonthlyStats{}
	if err := r.DB.QueryRow(query, userID, from, to).Scan(&stats.Income, &stats.Expenses); err != nil {
		log.WithError(err).Error("Failed to execute monthly stats query")
		return nil, err
	}
	return stats, nil
}

func (r *TransactionRepository) queryTransactions(query string, args ...interface{}) ([]*model.Transaction, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute transaction list query")
		return nil, err
	}
	defer rows.Close()

	var transactions []*model.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			logger.Log.WithError(err).Error("Failed to scan transaction row")
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}
