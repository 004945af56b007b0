package models

import "github.com/shopspring/decimal"

// SettlementStatus tracks the recipient's response to a recorded payment.
type SettlementStatus string

const (
	SettlementPending   SettlementStatus = "pending"
	SettlementConfirmed SettlementStatus = "confirmed"
	SettlementDisputed  SettlementStatus = "disputed"
)

// Settlement represents a payment between group members to clear debts.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// FromUserID is the user who paid (debtor settling up).
	FromUserID string

	// ToUserID is the user who received payment (creditor being paid).
	ToUserID string

	Amount   decimal.Decimal
	Currency string
	Status   SettlementStatus

	// Note is an optional description for the settlement.
	Note string

	CreatedBy   string
	CreatedAt   int64
	RespondedAt int64
}
