// service/payment_service_test.go
package service

import (
	"context"
	"database/sql"
	"errors"
	"go-finance-api/model"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockPaymentRepository is a mock for IPaymentRepository.
type MockPaymentRepository struct{ mock.Mock }

func (m *MockPaymentRepository) CreatePayment(payment *model.Payment) error {
	args := m.Called(payment)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetPaymentByID(paymentID uuid.UUID) (*model.Payment, error) {
	args := m.Called(paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetPaymentForUpdate(tx *sql.Tx, paymentID uuid.UUID) (*model.Payment, error) {
	args := m.Called(tx, paymentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) UpdatePaymentStatusTx(tx *sql.Tx, paymentID uuid.UUID, status model.PaymentStatus, completedAt *time.Time) error {
	args := m.Called(tx, paymentID, status, completedAt)
	return args.Error(0)
}

func (m *MockPaymentRepository) MarkPaymentFailed(paymentID uuid.UUID) error {
	args := m.Called(paymentID)
	return args.Error(0)
}

func (m *MockPaymentRepository) CancelPendingPayment(paymentID, userID uuid.UUID) (bool, error) {
	args := m.Called(paymentID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockPaymentRepository) UpdatePayment(paymentID, userID uuid.UUID, req model.UpdatePaymentRequest) (*model.Payment, error) {
	args := m.Called(paymentID, userID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetPaymentsByUserID(userID uuid.UUID) ([]*model.Payment, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetPaymentsByStatus(userID uuid.UUID, status model.PaymentStatus) ([]*model.Payment, error) {
	args := m.Called(userID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetPendingPayments(userID uuid.UUID) ([]*model.Payment, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payment), args.Error(1)
}

func (m *MockPaymentRepository) GetDuePayments(now time.Time) ([]*model.Payment, error) {
	args := m.Called(now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Payment), args.Error(1)
}

func newPaymentServiceForTest(t *testing.T) (*PaymentService, *MockPaymentRepository, *MockAccountRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, dbMock, err := sqlmock.New()
	assert.NoError(t, err)

	mockPaymentRepo := new(MockPaymentRepository)
	mockAccountRepo := new(MockAccountRepository)
	svc := NewPaymentService(db, mockPaymentRepo, mockAccountRepo)
	return svc, mockPaymentRepo, mockAccountRepo, dbMock, func() { db.Close() }
}

func TestPaymentService_CreatePayment(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	accountID := uuid.New()
	account := &model.Account{ID: accountID, UserID: userID, Balance: decimal.NewFromInt(500)}

	t.Run("immediate payment is processed synchronously", func(t *testing.T) {
		svc, mockPaymentRepo, mockAccountRepo, dbMock, cleanup := newPaymentServiceForTest(t)
		defer cleanup()

		paymentID := uuid.New()
		req := model.CreatePaymentRequest{
			FromAccountID:   accountID,
			ToAccountNumber: "NL91ABNA0417164300",
			RecipientName:   "Power Co",
			Amount:          decimal.NewFromInt(120),
			Currency:        "EUR",
			PaymentType:     model.PaymentTypeOneTime,
		}

		mockAccountRepo.On("GetAccountByID", accountID).Return(account, nil).Once()
		mockPaymentRepo.On("CreatePayment", mock.AnythingOfType("*model.Payment")).Run(func(args mock.Arguments) {
			p := args.Get(0).(*model.Payment)
			assert.Equal(t, model.PaymentStatusProcessing, p.Status)
			p.ID = paymentID
		}).Return(nil).Once()

		dbMock.ExpectBegin()
		locked := &model.Payment{
			ID:            paymentID,
			UserID:        userID,
			FromAccountID: accountID,
			Amount:        decimal.NewFromInt(120),
			Status:        model.PaymentStatusProcessing,
		}
		mockPaymentRepo.On("GetPaymentForUpdate", mock.Anything, paymentID).Return(locked, nil).Once()
		mockAccountRepo.On("AdjustBalanceTx", mock.Anything, accountID, decimalEq(decimal.NewFromInt(-120))).Return(nil).Once()
		mockPaymentRepo.On("UpdatePaymentStatusTx", mock.Anything, paymentID, model.PaymentStatusCompleted, mock.AnythingOfType("*time.Time")).Return(nil).Once()
		dbMock.ExpectCommit()

		payment, err := svc.CreatePayment(ctx, userID, req)

		assert.NoError(t, err)
		assert.Equal(t, model.PaymentStatusCompleted, payment.Status)
		assert.NotNil(t, payment.CompletedAt)
		mockPaymentRepo.AssertExpectations(t)
		mockAccountRepo.AssertExpectations(t)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("scheduled payment stays pending", func(t *testing.T) {
		svc, mockPaymentRepo, mockAccountRepo, dbMock, cleanup := newPaymentServiceForTest(t)
		defer cleanup()

		scheduledDate := time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC)
		req := model.CreatePaymentRequest{
			FromAccountID:   accountID,
			ToAccountNumber: "NL91ABNA0417164300",
			RecipientName:   "Landlord",
			Amount:          decimal.NewFromInt(900),
			Currency:        "EUR",
			PaymentType:     model.PaymentTypeRecurring,
			Frequency:       model.FrequencyMonthly,
			ScheduledDate:   &scheduledDate,
		}

		mockAccountRepo.On("GetAccountByID", accountID).Return(account, nil).Once()
		mockPaymentRepo.On("CreatePayment", mock.AnythingOfType("*model.Payment")).Return(nil).Once()

		payment, err := svc.CreatePayment(ctx, userID, req)

		assert.NoError(t, err)
		assert.Equal(t, model.PaymentStatusPending, payment.Status)
		mockPaymentRepo.AssertNotCalled(t, "GetPaymentForUpdate", mock.Anything, mock.Anything)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("recurring without frequency is rejected", func(t *testing.T) {
		svc, _, _, _, cleanup := newPaymentServiceForTest(t)
		defer cleanup()

		req := model.CreatePaymentRequest{
			FromAccountID: accountID,
			Amount:        decimal.NewFromInt(10),
			PaymentType:   model.PaymentTypeRecurring,
		}

		_, err := svc.CreatePayment(ctx, userID, req)

		assert.Equal(t, ErrFrequencyRequired, err)
	})

	t.Run("one-time with frequency is rejected", func(t *testing.T) {
		svc, _, _, _, cleanup := newPaymentServiceForTest(t)
		defer cleanup()

		req := model.CreatePaymentRequest{
			FromAccountID: accountID,
			Amount:        decimal.NewFromInt(10),
			PaymentType:   model.PaymentTypeOneTime,
			Frequency:     model.FrequencyWeekly,
		}

		_, err := svc.CreatePayment(ctx, userID, req)

		assert.Equal(t, ErrFrequencyNotAllowed, err)
	})

	t.Run("foreign sender account reads as not found", func(t *testing.T) {
		svc, _, mockAccountRepo, _, cleanup := newPaymentServiceForTest(t)
		defer cleanup()

		foreign := &model.Account{ID: accountID, UserID: uuid.New()}
		req := model.CreatePaymentRequest{
			FromAccountID: accountID,
			Amount:        decimal.NewFromInt(10),
			PaymentType:   model.PaymentTypeOneTime,
		}

		mockAccountRepo.On("GetAccountByID", accountID).Return(foreign, nil).Once()

		_, err := svc.CreatePayment(ctx, userID, req)

		assert.Equal(t, ErrAccountNotFound, err)
	})
}

func TestPaymentService_ProcessPayment(t *testing.T) {
	ctx := context.Background()
	userID := uuid.New()
	accountID := uuid.New()
	paymentID := uuid.New()

	processingPayment := func() *model.Payment {
		return &model.Payment{
			ID:            paymentID,
			UserID:        userID,
			FromAccountID: accountID,
			Amount:        decimal.NewFromInt(75),
			Status:        model.PaymentStatusProcessing,
		}
	}

	t.Run("debits the sender and completes", func(t *testing.T) {
		svc, mockPaymentRepo, mockAccountRepo, dbMock, cleanup := newPaymentServiceForTest(t)
		defer cleanup()

		dbMock.ExpectBegin()
		mockPaymentRepo.On("GetPaymentForUpdate", mock.Anything, paymentID).Return(processingPayment(), nil).Once()
		mockAccountRepo.On("AdjustBalanceTx", mock.Anything, accountID, decimalEq(decimal.NewFromInt(-75))).Return(nil).Once()
		mockPaymentRepo.On("UpdatePaymentStatusTx", mock.Anything, paymentID, model.PaymentStatusCompleted, mock.AnythingOfType("*time.Time")).Return(nil).Once()
		dbMock.ExpectCommit()

		payment, transitioned, err := svc.ProcessPayment(ctx, paymentID)

		assert.NoError(t, err)
		assert.True(t, transitioned)
		assert.Equal(t, model.PaymentStatusCompleted, payment.Status)
		assert.NotNil(t, payment.CompletedAt)
		mockPaymentRepo.AssertExpectations(t)
		mockAccountRepo.AssertExpectations(t)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("terminal payment is returned unchanged", func(t *testing.T) {
		svc, mockPaymentRepo, mockAccountRepo, dbMock, cleanup := newPaymentServiceForTest(t)
		defer cleanup()

		completed := processingPayment()
		completed.Status = model.PaymentStatusCompleted

		dbMock.ExpectBegin()
		mockPaymentRepo.On("GetPaymentForUpdate", mock.Anything, paymentID).Return(completed, nil).Once()
		dbMock.ExpectRollback()

		payment, transitioned, err := svc.ProcessPayment(ctx, paymentID)

		assert.NoError(t, err)
		assert.False(t, transitioned)
		assert.Equal(t, model.PaymentStatusCompleted, payment.Status)
		mockAccountRepo.AssertNotCalled(t, "AdjustBalanceTx", mock.Anything, mock.Anything, mock.Anything)
		mockPaymentRepo.AssertNotCalled(t, "UpdatePaymentStatusTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("missing sender account fails the payment", func(t *testing.T) {
		svc, mockPaymentRepo, mockAccountRepo, dbMock, cleanup := newPaymentServiceForTest(t)
		defer cleanup()

		dbMock.ExpectBegin()
		mockPaymentRepo.On("GetPaymentForUpdate", mock.Anything, paymentID).Return(processingPayment(), nil).Once()
		mockAccountRepo.On("AdjustBalanceTx", mock.Anything, accountID, decimalEq(decimal.NewFromInt(-75))).Return(sql.ErrNoRows).Once()
		mockPaymentRepo.On("UpdatePaymentStatusTx", mock.Anything, paymentID, model.PaymentStatusFailed, (*time.Time)(nil)).Return(nil).Once()
		dbMock.ExpectCommit()

		payment, transitioned, err := svc.ProcessPayment(ctx, paymentID)

		assert.NoError(t, err)
		assert.True(t, transitioned)
		assert.Equal(t, model.PaymentStatusFailed, payment.Status)
		mockPaymentRepo.AssertExpectations(t)
		assert.NoError(t, dbMock.ExpectationsWereMet())
	})

	t.Run("storage error marks the payment failed outside the transaction", func(t *testing.T) {
		svc, mockPaymentRepo, mockAccountRepo, dbMock, cleanup := newPaymentServiceForTest(t)
		defer cleanup()

		storageErr := errors.New("connection reset")

		dbMock.ExpectBegin()
		mockPaymentRepo.On("GetPaymentForUpdate", mock.Anything, paymentID).Return(processingPayment(), nil).Once()
		mockAccountRepo.On("AdjustBalanceTx", mock.Anything, accountID, decimalEq(decimal.NewFromInt(-75))).Return(storageErr).Once()
		mockPaymentRepo.On("MarkPaymentFailed", paymentID).Return(nil).Once()
		dbMock.ExpectRollback()

		_, _, err := svc.ProcessPayment(ctx, paymentID)

		assert.ErrorIs(t, err, storageErr)
		mockPaymentRepo.AssertExpectations(t)
	})

	t.Run("unknown payment", func(t *testing.T) {
		svc, mockPaymentRepo, _, dbMock, cleanup := newPaymentServiceForTest(t)
		defer cleanup()

		dbMock.ExpectBegin()
		mockPaymentRepo.On("GetPaymentForUpdate", mock.Anything, paymentID).Return(nil, sql.ErrNoRows).Once()
		dbMock.ExpectRollback()

		_, _, err := svc.ProcessPayment(ctx, paymentID)

		assert.Equal(t, ErrPaymentNotFound, err)
	})
}

func TestPaymentService_CancelPayment(t *testing.T) {
	userID := uuid.New()
	paymentID := uuid.New()

	t.Run("pending payment cancels", func(t *testing.T) {
		svc, mockPaymentRepo, _, _, cleanup := newPaymentServiceForTest(t)
		defer cleanup()

		mockPaymentRepo.On("CancelPendingPayment", paymentID, userID).Return(true, nil).Once()

		err := svc.CancelPayment(userID, paymentID)

		assert.NoError(t, err)
		mockPaymentRepo.AssertExpectations(t)
	})

	t.Run("completed payment rejects cancellation", func(t *testing.T) {
		svc, mockPaymentRepo, _, _, cleanup := newPaymentServiceForTest(t)
		defer cleanup()

		completed := &model.Payment{ID: paymentID, UserID: userID, Status: model.PaymentStatusCompleted}

		mockPaymentRepo.On("CancelPendingPayment", paymentID, userID).Return(false, nil).Once()
		mockPaymentRepo.On("GetPaymentByID", paymentID).Return(completed, nil).Once()

		err := svc.CancelPayment(userID, paymentID)

		assert.Equal(t, ErrInvalidPaymentState, err)
	})

	t.Run("missing payment", func(t *testing.T) {
		svc, mockPaymentRepo, _, _, cleanup := newPaymentServiceForTest(t)
		defer cleanup()

		mockPaymentRepo.On("CancelPendingPayment", paymentID, userID).Return(false, nil).Once()
		mockPaymentRepo.On("GetPaymentByID", paymentID).Return(nil, sql.ErrNoRows).Once()

		err := svc.CancelPayment(userID, paymentID)

		assert.Equal(t, ErrPaymentNotFound, err)
	})

	t.Run("someone else's payment reads as not found", func(t *testing.T) {
		svc, mockPaymentRepo, _, _, cleanup := newPaymentServiceForTest(t)
		defer cleanup()

		foreign := &model.Payment{ID: paymentID, UserID: uuid.New(), Status: model.PaymentStatusPending}

		mockPaymentRepo.On("CancelPendingPayment", paymentID, userID).Return(false, nil).Once()
		mockPaymentRepo.On("GetPaymentByID", paymentID).Return(foreign, nil).Once()

		err := svc.CancelPayment(userID, paymentID)

		assert.Equal(t, ErrPaymentNotFound, err)
	})
}

func TestPaymentService_ListPendingPayments(t *testing.T) {
	svc, mockPaymentRepo, _, _, cleanup := newPaymentServiceForTest(t)
	defer cleanup()

	userID := uuid.New()
	payments := []*model.Payment{
		{ID: uuid.New(), UserID: userID, Status: model.PaymentStatusPending},
		{ID: uuid.New(), UserID: userID, Status: model.PaymentStatusProcessing},
	}

	mockPaymentRepo.On("GetPendingPayments", userID).Return(payments, nil).Once()

	result, count, err := svc.ListPendingPayments(userID)

	assert.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.Equal(t, payments, result)
}
