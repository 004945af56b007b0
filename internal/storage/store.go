// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"

	"github.com/diviso/diviso/internal/models"
)

// Store defines every persistence operation the services need.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Lookups of missing rows return an apperr.KindNotFound error. Unique
// constraint violations surface as apperr.KindDuplicateKey.
type Store interface {
	UserStore
	GroupStore
	ExpenseStore
	NotificationStore
	SettlementStore
	PlanStore
	BillingStore

	// Close releases any resources held by the store.
	Close() error
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByPhone(ctx context.Context, phone string) (*models.User, error)
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// GroupStore persists groups and memberships.
type GroupStore interface {
	// CreateGroup persists a group together with its owner membership.
	CreateGroup(ctx context.Context, group *models.Group) error
	// GetGroup returns the group even when archived.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)
	// ListGroupsForUser returns non-archived groups where userID is an active member.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)
	ArchiveGroup(ctx context.Context, groupID string, at int64) error
	CountOwnedGroups(ctx context.Context, userID string) (int, error)

	AddMember(ctx context.Context, member *models.GroupMember) error
	GetMember(ctx context.Context, groupID, userID string) (*models.GroupMember, error)
	// ListMembers returns non-archived members (active and pending).
	ListMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error)
	UpdateMemberStatus(ctx context.Context, groupID, userID string, status models.MemberStatus, at int64) error
	CountMembers(ctx context.Context, groupID string) (int, error)
}

// ExpenseStore persists expenses, splits and approvals.
type ExpenseStore interface {
	// CreateExpense persists the expense and its splits atomically.
	CreateExpense(ctx context.Context, expense *models.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)
	// ApproveExpense moves a pending expense to approved and writes the audit
	// row in one transaction. Returns apperr.KindConflict when not pending.
	ApproveExpense(ctx context.Context, approval *models.ExpenseApproval) error
	CountExpensesCreatedSince(ctx context.Context, userID string, since int64) (int, error)
}

// NotificationStore persists balance notifications and inbox entries.
type NotificationStore interface {
	// UpsertBalanceNotification inserts unless a row for (UserID, ExpenseID)
	// already exists, in which case nothing is written and inserted is false.
	UpsertBalanceNotification(ctx context.Context, bn *models.BalanceNotification) (inserted bool, err error)
	LinkBalanceNotification(ctx context.Context, balanceID, notificationID string) error
	GetBalanceNotification(ctx context.Context, id string) (*models.BalanceNotification, error)
	ListBalanceNotifications(ctx context.Context, userID string, status models.BalanceStatus) ([]*models.BalanceNotification, error)
	MarkBalancePaid(ctx context.Context, id string, at int64) error

	CreateNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, userID, notificationID string, at int64) error
}

// SettlementStore persists settlements.
type SettlementStore interface {
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error
	GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error)
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)
	// RespondSettlement moves a pending settlement to status. Repeating the
	// current status is a no-op; any other change returns apperr.KindConflict.
	RespondSettlement(ctx context.Context, settlementID string, status models.SettlementStatus, at int64) error
}

// PlanStore persists plans.
type PlanStore interface {
	CreatePlan(ctx context.Context, plan *models.Plan) error
	GetPlan(ctx context.Context, planID string) (*models.Plan, error)
	ListPlansByOwner(ctx context.Context, ownerID string) ([]*models.Plan, error)
	// UpdatePlanStatus compare-and-sets the status; apperr.KindConflict if
	// the stored status is no longer from.
	UpdatePlanStatus(ctx context.Context, planID string, from, to models.PlanStatus, at int64) error
	// LinkPlanToGroup sets the plan's group if it has none.
	LinkPlanToGroup(ctx context.Context, planID, groupID string, at int64) error
	// ConvertPlanToGroup creates the group (with owner membership) and links
	// the plan in one transaction.
	ConvertPlanToGroup(ctx context.Context, planID string, group *models.Group) error
}

// BillingStore persists check-ins, credit purchases and receipt scans.
type BillingStore interface {
	GetLatestCheckin(ctx context.Context, userID string) (*models.Checkin, error)
	// RecordCheckin inserts the check-in and grants its reward atomically.
	// A second check-in for the same day returns apperr.KindDuplicateKey.
	RecordCheckin(ctx context.Context, checkin *models.Checkin) error

	CreatePurchase(ctx context.Context, purchase *models.CreditPurchase) error
	GetPurchase(ctx context.Context, purchaseID string) (*models.CreditPurchase, error)
	// CompletePurchase marks a pending purchase completed and grants its
	// credits atomically. completed is false when it was already completed.
	CompletePurchase(ctx context.Context, purchaseID, paymentID string, at int64) (completed bool, err error)

	CreateReceiptScan(ctx context.Context, scan *models.ReceiptScan) error
	CountReceiptScansSince(ctx context.Context, userID string, since int64) (int, error)
}
