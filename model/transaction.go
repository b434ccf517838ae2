package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeCredit TransactionType = "credit"
	TransactionTypeDebit  TransactionType = "debit"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
	TransactionStatusCancelled TransactionStatus = "cancelled"
)

// Transaction is a record of a single credit or debit against one account.
// Amount is always a positive magnitude; direction is carried by Type.
type Transaction struct {
	ID              uuid.UUID         `json:"id"`
	AccountID       uuid.UUID         `json:"account_id"`
	Description     string            `json:"description"`
	Amount          decimal.Decimal   `json:"amount"`
	Type            TransactionType   `json:"type"`
	Category        string            `json:"category"`
	Status          TransactionStatus `json:"status"`
	ReferenceNumber string            `json:"reference_number,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at"`
}

// SignedAmount is the balance delta this transaction applies when completed:
// +Amount for a credit, -Amount for a debit.
func (t *Transaction) SignedAmount() decimal.Decimal {
	if t.Type == TransactionTypeDebit {
		return t.Amount.Neg()
	}
	return t.Amount
}

// MonthlyStats holds aggregated income and expense totals for one calendar month.
type MonthlyStats struct {
	Income   decimal.Decimal `json:"income"`
	Expenses decimal.Decimal `json:"expenses"`
}
