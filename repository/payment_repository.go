package repository

import (
	"database/sql"
	"go-finance-api/logger"
	"go-finance-api/model"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// IPaymentRepository defines the contract for payment database operations.
type IPaymentRepository interface {
	CreatePayment(payment *model.Payment) error
	GetPaymentByID(paymentID uuid.UUID) (*model.Payment, error)
	GetPaymentForUpdate(tx *sql.Tx, paymentID uuid.UUID) (*model.Payment, error)
	UpdatePaymentStatusTx(tx *sql.Tx, paymentID uuid.UUID, status model.PaymentStatus, completedAt *time.Time) error
	MarkPaymentFailed(paymentID uuid.UUID) error
	CancelPendingPayment(paymentID, userID uuid.UUID) (bool, error)
	UpdatePayment(paymentID, userID uuid.UUID, req model.UpdatePaymentRequest) (*model.Payment, error)
	GetPaymentsByUserID(userID uuid.UUID) ([]*model.Payment, error)
	GetPaymentsByStatus(userID uuid.UUID, status model.PaymentStatus) ([]*model.Payment, error)
	GetPendingPayments(userID uuid.UUID) ([]*model.Payment, error)
	GetDuePayments(now time.Time) ([]*model.Payment, error)
}

// PaymentRepository implements IPaymentRepository.
type PaymentRepository struct {
	DB *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{DB: db}
}

const paymentColumns = `id, user_id, from_account_id, to_account_number, recipient_name, amount, currency,
	COALESCE(description, ''), payment_type, COALESCE(frequency, ''), scheduled_date, status, completed_at, created_at, updated_at`

func scanPayment(row interface{ Scan(...interface{}) error }) (*model.Payment, error) {
	p := &model.Payment{}
	err := row.Scan(&p.ID, &p.UserID, &p.FromAccountID, &p.ToAccountNumber, &p.RecipientName,
		&p.Amount, &p.Currency, &p.Description, &p.PaymentType, &p.Frequency,
		&p.ScheduledDate, &p.Status, &p.CompletedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *PaymentRepository) CreatePayment(payment *model.Payment) error {
	log := logger.Log.WithFields(logrus.Fields{
		"user_id":         payment.UserID,
		"from_account_id": payment.FromAccountID,
		"amount":          payment.Amount.String(),
		"payment_type":    payment.PaymentType,
		"status":          payment.Status,
	})
	log.Info("Executing query to create a new payment")

	query := `INSERT INTO payments (user_id, from_account_id, to_account_number, recipient_name, amount,
			currency, description, payment_type, frequency, scheduled_date, status)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8, NULLIF($9, ''), $10, $11)
		RETURNING id, created_at, updated_at`
	err := r.DB.QueryRow(query, payment.UserID, payment.FromAccountID, payment.ToAccountNumber,
		payment.RecipientName, payment.Amount, payment.Currency, payment.Description,
		payment.PaymentType, payment.Frequency, payment.ScheduledDate, payment.Status).
		Scan(&payment.ID, &payment.CreatedAt, &payment.UpdatedAt)
	if err != nil {
		log.WithError(err).Error("Failed to execute create payment query")
		return err
	}
	return nil
}

func (r *PaymentRepository) GetPaymentByID(paymentID uuid.UUID) (*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.DB.QueryRow(query, paymentID))
}

// GetPaymentForUpdate loads a payment under a row lock, serializing
// concurrent processing attempts for the same payment.
func (r *PaymentRepository) GetPaymentForUpdate(tx *sql.Tx, paymentID uuid.UUID) (*model.Payment, error) {
	log := logger.Log.WithField("payment_id", paymentID)
	log.Info("Executing query to get payment for update")

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`
	payment, err := scanPayment(tx.QueryRow(query, paymentID))
	if err != nil {
		if err == sql.ErrNoRows {
			log.Info("Payment not found for update")
		} else {
			log.WithError(err).Error("Failed to execute get payment for update query")
		}
		return nil, err
	}
	return payment, nil
}

func (r *PaymentRepository) UpdatePaymentStatusTx(tx *sql.Tx, paymentID uuid.UUID, status model.PaymentStatus, completedAt *time.Time) error {
	log := logger.Log.WithFields(logrus.Fields{
		"payment_id": paymentID,
		"status":     status,
	})
	log.Info("Executing query to update payment status")

	query := `UPDATE payments SET status = $1, completed_at = $2, updated_at = now() WHERE id = $3`
	_, err := tx.Exec(query, status, completedAt, paymentID)
	if err != nil {
		log.WithError(err).Error("Failed to execute update payment status query")
		return err
	}
	return nil
}

// MarkPaymentFailed writes the failed status outside any transaction, used
// when the surrounding database transaction has already been abandoned. It is
// a compare-and-set guarded against terminal states: by the time this runs
// the row lock is released, and a concurrent processor may have completed the
// payment in the meantime. A terminal status is never overwritten.
func (r *PaymentRepository) MarkPaymentFailed(paymentID uuid.UUID) error {
	query := `UPDATE payments SET status = 'failed', updated_at = now()
		WHERE id = $1 AND status NOT IN ('completed', 'failed', 'cancelled')`
	res, err := r.DB.Exec(query, paymentID)
	if err != nil {
		logger.Log.WithField("payment_id", paymentID).WithError(err).Error("Failed to execute mark payment failed query")
		return err
	}
	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		logger.Log.WithField("payment_id", paymentID).Info("Payment already terminal, failed status not written")
	}
	return nil
}

// CancelPendingPayment transitions pending -> cancelled with a single
// compare-and-set. It reports whether a row actually changed; the caller
// distinguishes a missing payment from one in the wrong state.
func (r *PaymentRepository) CancelPendingPayment(paymentID, userID uuid.UUID) (bool, error) {
	query := `UPDATE payments SET status = 'cancelled', updated_at = now()
		WHERE id = $1 AND user_id = $2 AND status = 'pending'`
	res, err := r.DB.Exec(query, paymentID, userID)
	if err != nil {
		logger.Log.WithField("payment_id", paymentID).WithError(err).Error("Failed to execute cancel payment query")
		return false, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// UpdatePayment applies a partial field update. It never changes status or
// balance; those move only through processing and cancellation.
func (r *PaymentRepository) UpdatePayment(paymentID, userID uuid.UUID, req model.UpdatePaymentRequest) (*model.Payment, error) {
	query := `UPDATE payments
		SET to_account_number = COALESCE($1, to_account_number),
		    recipient_name = COALESCE($2, recipient_name),
		    amount = COALESCE($3, amount),
		    description = COALESCE($4, description),
		    scheduled_date = COALESCE($5, scheduled_date),
		    updated_at = now()
		WHERE id = $6 AND user_id = $7
		RETURNING ` + paymentColumns
	return scanPayment(r.DB.QueryRow(query, req.ToAccountNumber, req.RecipientName, req.Amount,
		req.Description, req.ScheduledDate, paymentID, userID))
}

// GetPaymentsByUserID retrieves all payments for a user, newest first.
func (r *PaymentRepository) GetPaymentsByUserID(userID uuid.UUID) ([]*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 ORDER BY created_at DESC`
	return r.queryPayments(query, userID)
}

func (r *PaymentRepository) GetPaymentsByStatus(userID uuid.UUID, status model.PaymentStatus) ([]*model.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE user_id = $1 AND status = $2 ORDER BY created_at DESC`
	return r.queryPayments(query, userID, status)
}

// GetPendingPayments retrieves pending and processing payments, earliest due
// first.
func (r *PaymentRepository) GetPendingPayments(userID uuid.UUID) ([]*model.Payment, error) {
	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1 AND status IN ('pending', 'processing')
		ORDER BY scheduled_date ASC`
	return r.queryPayments(query, userID)
}

// GetDuePayments retrieves every pending payment whose scheduled date has
// passed, across all users, earliest due first.
func (r *PaymentRepository) GetDuePayments(now time.Time) ([]*model.Payment, error) {
	log := logger.Log.WithField("now", now)
	log.Info("Executing query to get due scheduled payments")

	query := `SELECT ` + paymentColumns + `
		FROM payments
		WHERE status = 'pending' AND scheduled_date IS NOT NULL AND scheduled_date <= $1
		ORDER BY scheduled_date ASC`
	return r.queryPayments(query, now)
}

func (r *PaymentRepository) queryPayments(query string, args ...interface{}) ([]*model.Payment, error) {
	rows, err := r.DB.Query(query, args...)
	if err != nil {
		logger.Log.WithError(err).Error("Failed to execute payment list query")
		return nil, err
	}
	defer rows.Close()

	var payments []*model.Payment
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			logger.Log.WithError(err).Error("Failed to scan payment row")
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}
