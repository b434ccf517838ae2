// repository/payment_repository_test.go
package repository

import (
	"database/sql"
	"go-finance-api/model"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var paymentRowColumns = []string{
	"id", "user_id", "from_account_id", "to_account_number", "recipient_name",
	"amount", "currency", "description", "payment_type", "frequency",
	"scheduled_date", "status", "completed_at", "created_at", "updated_at",
}

func paymentRow(paymentID, userID, accountID uuid.UUID, status string, scheduledDate *time.Time) *sqlmock.Rows {
	var scheduled interface{}
	if scheduledDate != nil {
		scheduled = *scheduledDate
	}
	return sqlmock.NewRows(paymentRowColumns).
		AddRow(paymentID.String(), userID.String(), accountID.String(), "NL91ABNA0417164300", "Landlord",
			"900.00", "EUR", "rent", "recurring", "monthly", scheduled, status, nil, time.Now(), time.Now())
}

func TestPaymentRepository_CreatePayment(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(db)
	paymentID := uuid.New()
	now := time.Now()

	payment := &model.Payment{
		UserID:          uuid.New(),
		FromAccountID:   uuid.New(),
		ToAccountNumber: "NL91ABNA0417164300",
		RecipientName:   "Landlord",
		Amount:          decimal.NewFromInt(900),
		Currency:        "EUR",
		PaymentType:     model.PaymentTypeOneTime,
		Status:          model.PaymentStatusProcessing,
	}

	dbMock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO payments`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at", "updated_at"}).
			AddRow(paymentID.String(), now, now))

	err = repo.CreatePayment(payment)

	assert.NoError(t, err)
	assert.Equal(t, paymentID, payment.ID)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestPaymentRepository_GetPaymentForUpdate(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(db)
	paymentID := uuid.New()
	userID := uuid.New()
	accountID := uuid.New()

	t.Run("locks and returns the row", func(t *testing.T) {
		scheduledDate := time.Date(2024, time.January, 15, 0, 0, 0, 0, time.UTC)

		dbMock.ExpectBegin()
		dbMock.ExpectQuery(regexp.QuoteMeta(`FROM payments WHERE id = $1 FOR UPDATE`)).
			WithArgs(paymentID).
			WillReturnRows(paymentRow(paymentID, userID, accountID, "pending", &scheduledDate))

		tx, err := db.Begin()
		assert.NoError(t, err)

		payment, err := repo.GetPaymentForUpdate(tx, paymentID)

		assert.NoError(t, err)
		assert.Equal(t, paymentID, payment.ID)
		assert.Equal(t, model.PaymentStatusPending, payment.Status)
		assert.True(t, payment.Amount.Equal(decimal.NewFromInt(900)))
		if assert.NotNil(t, payment.ScheduledDate) {
			assert.Equal(t, scheduledDate, payment.ScheduledDate.UTC())
		}
		assert.Nil(t, payment.CompletedAt)
	})

	t.Run("missing payment surfaces sql.ErrNoRows", func(t *testing.T) {
		dbMock.ExpectBegin()
		dbMock.ExpectQuery(regexp.QuoteMeta(`FROM payments WHERE id = $1 FOR UPDATE`)).
			WithArgs(paymentID).
			WillReturnError(sql.ErrNoRows)

		tx, err := db.Begin()
		assert.NoError(t, err)

		_, err = repo.GetPaymentForUpdate(tx, paymentID)

		assert.Equal(t, sql.ErrNoRows, err)
	})
}

func TestPaymentRepository_CancelPendingPayment(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(db)
	paymentID := uuid.New()
	userID := uuid.New()

	t.Run("pending payment matches the compare-and-set", func(t *testing.T) {
		dbMock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET status = 'cancelled'`)).
			WithArgs(paymentID, userID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		cancelled, err := repo.CancelPendingPayment(paymentID, userID)

		assert.NoError(t, err)
		assert.True(t, cancelled)
	})

	t.Run("non-pending or missing payment does not match", func(t *testing.T) {
		dbMock.ExpectExec(regexp.QuoteMeta(`UPDATE payments SET status = 'cancelled'`)).
			WithArgs(paymentID, userID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		cancelled, err := repo.CancelPendingPayment(paymentID, userID)

		assert.NoError(t, err)
		assert.False(t, cancelled)
	})
}

func TestPaymentRepository_MarkPaymentFailed(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(db)
	paymentID := uuid.New()

	// The write is guarded against terminal states: a payment completed by a
	// concurrent processor after the row lock was released must keep its
	// status.
	guardedUpdate := regexp.QuoteMeta(`status NOT IN ('completed', 'failed', 'cancelled')`)

	t.Run("in-flight payment is marked failed", func(t *testing.T) {
		dbMock.ExpectExec(guardedUpdate).
			WithArgs(paymentID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.MarkPaymentFailed(paymentID))
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("terminal payment is left untouched", func(t *testing.T) {
		dbMock.ExpectExec(guardedUpdate).
			WithArgs(paymentID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.NoError(t, repo.MarkPaymentFailed(paymentID))
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})
}

func TestPaymentRepository_GetDuePayments(t *testing.T) {
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := NewPaymentRepository(db)
	now := time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)
	scheduledDate := time.Date(2024, time.January, 14, 0, 0, 0, 0, time.UTC)

	dbMock.ExpectQuery(regexp.QuoteMeta(`scheduled_date IS NOT NULL AND scheduled_date <= $1`)).
		WithArgs(now).
		WillReturnRows(paymentRow(uuid.New(), uuid.New(), uuid.New(), "pending", &scheduledDate))

	due, err := repo.GetDuePayments(now)

	assert.NoError(t, err)
	assert.Len(t, due, 1)
	assert.Equal(t, model.PaymentStatusPending, due[0].Status)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}
