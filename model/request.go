// file: model/request.go

package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateAccountRequest defines the payload for opening a new account.
// It includes validation tags to ensure data integrity at the entry point.
type CreateAccountRequest struct {
	Name          string          `json:"name" validate:"required,min=1,max=100"`
	Type          AccountType     `json:"type" validate:"required,oneof=checking savings business credit"`
	Currency      string          `json:"currency" validate:"required,len=3"`
	AccountNumber string          `json:"account_number" validate:"required,min=4,max=34"`
	Balance       decimal.Decimal `json:"balance"`
}

// UpdateAccountRequest is a partial account edit. Every field is optional;
// Balance is deliberately absent, it can only change through an adjustment.
type UpdateAccountRequest struct {
	Name     *string      `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Type     *AccountType `json:"type,omitempty" validate:"omitempty,oneof=checking savings business credit"`
	Currency *string      `json:"currency,omitempty" validate:"omitempty,len=3"`
}

// AdjustBalanceRequest defines the payload for a manual balance adjustment.
type AdjustBalanceRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"required"`
	Type   TransactionType `json:"type" validate:"required,oneof=credit debit"`
}

// CreateTransactionRequest defines the payload for recording a transaction.
type CreateTransactionRequest struct {
	AccountID       uuid.UUID         `json:"account_id" validate:"required"`
	Description     string            `json:"description" validate:"required,max=255"`
	Amount          decimal.Decimal   `json:"amount" validate:"required"`
	Type            TransactionType   `json:"type" validate:"required,oneof=credit debit"`
	Category        string            `json:"category" validate:"required,max=50"`
	Status          TransactionStatus `json:"status" validate:"omitempty,oneof=pending completed failed cancelled"`
	ReferenceNumber string            `json:"reference_number" validate:"omitempty,max=50"`
}

// UpdateTransactionRequest is a partial transaction edit.
type UpdateTransactionRequest struct {
	Description     *string            `json:"description,omitempty" validate:"omitempty,max=255"`
	Amount          *decimal.Decimal   `json:"amount,omitempty"`
	Type            *TransactionType   `json:"type,omitempty" validate:"omitempty,oneof=credit debit"`
	Category        *string            `json:"category,omitempty" validate:"omitempty,max=50"`
	Status          *TransactionStatus `json:"status,omitempty" validate:"omitempty,oneof=pending completed failed cancelled"`
	ReferenceNumber *string            `json:"reference_number,omitempty" validate:"omitempty,max=50"`
}

// CreatePaymentRequest defines the payload for issuing a payment.
type CreatePaymentRequest struct {
	FromAccountID   uuid.UUID        `json:"from_account_id" validate:"required"`
	ToAccountNumber string           `json:"to_account_number" validate:"required,min=4,max=34"`
	RecipientName   string           `json:"recipient_name" validate:"required,max=100"`
	Amount          decimal.Decimal  `json:"amount" validate:"required"`
	Currency        string           `json:"currency" validate:"required,len=3"`
	Description     string           `json:"description" validate:"omitempty,max=255"`
	PaymentType     PaymentType      `json:"payment_type" validate:"required,oneof=one-time recurring"`
	Frequency       PaymentFrequency `json:"frequency" validate:"omitempty,oneof=daily weekly monthly yearly"`
	ScheduledDate   *time.Time       `json:"scheduled_date,omitempty"`
}

// UpdatePaymentRequest is a partial payment edit; it never triggers
// processing or balance changes.
type UpdatePaymentRequest struct {
	ToAccountNumber *string          `json:"to_account_number,omitempty" validate:"omitempty,min=4,max=34"`
	RecipientName   *string          `json:"recipient_name,omitempty" validate:"omitempty,max=100"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Description     *string          `json:"description,omitempty" validate:"omitempty,max=255"`
	ScheduledDate   *time.Time       `json:"scheduled_date,omitempty"`
}
