package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentTypeOneTime   PaymentType = "one-time"
	PaymentTypeRecurring PaymentType = "recurring"
)

type PaymentFrequency string

const (
	FrequencyDaily   PaymentFrequency = "daily"
	FrequencyWeekly  PaymentFrequency = "weekly"
	FrequencyMonthly PaymentFrequency = "monthly"
	FrequencyYearly  PaymentFrequency = "yearly"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusCompleted  PaymentStatus = "completed"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

// Payment is an outbound transfer request from one of the user's accounts to
// an external account number. Frequency is set if and only if PaymentType is
// recurring. A recurring payment is modeled as a chain of one-time records:
// each completed occurrence spawns a new pending payment with an advanced
// scheduled date.
type Payment struct {
	ID              uuid.UUID        `json:"id"`
	UserID          uuid.UUID        `json:"user_id"`
	FromAccountID   uuid.UUID        `json:"from_account_id"`
	ToAccountNumber string           `json:"to_account_number"`
	RecipientName   string           `json:"recipient_name"`
	Amount          decimal.Decimal  `json:"amount"`
	Currency        string           `json:"currency"`
	Description     string           `json:"description,omitempty"`
	PaymentType     PaymentType      `json:"payment_type"`
	Frequency       PaymentFrequency `json:"frequency,omitempty"`
	ScheduledDate   *time.Time       `json:"scheduled_date,omitempty"`
	Status          PaymentStatus    `json:"status"`
	CompletedAt     *time.Time       `json:"completed_at,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// IsTerminal reports whether the payment has reached a final state.
func (s PaymentStatus) IsTerminal() bool {
	return s == PaymentStatusCompleted || s == PaymentStatusFailed || s == PaymentStatusCancelled
}

// NextOccurrence advances a scheduled date by one frequency period.
func NextOccurrence(from time.Time, frequency PaymentFrequency) time.Time {
	switch frequency {
	case FrequencyDaily:
		return from.AddDate(0, 0, 1)
	case FrequencyWeekly:
		return from.AddDate(0, 0, 7)
	case FrequencyMonthly:
		return from.AddDate(0, 1, 0)
	case FrequencyYearly:
		return from.AddDate(1, 0, 0)
	default:
		return from
	}
}
