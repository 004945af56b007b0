package models

import (
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"
)

// BalanceStatus is the debtor-side state of a balance notification.
type BalanceStatus string

const (
	BalanceUnpaid       BalanceStatus = "unpaid"
	BalanceMarkedAsPaid BalanceStatus = "marked_as_paid"
)

// BalanceNotification records that UserID owes PayerID their share of an
// expense. At most one exists per (UserID, ExpenseID).
type BalanceNotification struct {
	ID             string
	UserID         string
	GroupID        string
	ExpenseID      string
	PayerID        string
	AmountDue      decimal.Decimal
	Currency       string
	Status         BalanceStatus
	NotificationID string
	CreatedAt      int64
	PaidAt         int64
}

// NotificationType keys the shape of a notification payload.
type NotificationType string

const (
	NotifyBalanceDue          NotificationType = "balance_due"
	NotifyExpenseApproved     NotificationType = "expense_approved"
	NotifyGroupInvite         NotificationType = "group_invite"
	NotifySettlementRecorded  NotificationType = "settlement_recorded"
	NotifySettlementResponded NotificationType = "settlement_responded"
	NotifyCreditsPurchased    NotificationType = "credits_purchased"
)

// Notification is a generic inbox entry. Payload is a loosely-typed JSON bag
// whose keys depend on Type.
type Notification struct {
	ID        string
	UserID    string
	Type      NotificationType
	Payload   *structpb.Struct
	ReadAt    int64
	CreatedAt int64
}
