// Package api defines the request and response messages of the Diviso
// Connect services. Messages travel as JSON; money is a decimal string.
package api

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Empty is used by RPCs that take or return nothing.
type Empty struct{}

// User is the public view of an account.
type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Phone       string `json:"phone,omitempty"`
	Tier        string `json:"tier"`
	Credits     int64  `json:"credits"`
	CreatedAt   int64  `json:"created_at"`
}

type RegisterRequest struct {
	Email       string `json:"email" validate:"required,email"`
	DisplayName string `json:"display_name" validate:"required,max=100"`
	Password    string `json:"password" validate:"required"`
	// Phone is optional, in any format the configured region parses.
	Phone string `json:"phone,omitempty"`
}

// Normalize trims the free-text fields before validation.
func (r *RegisterRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
	r.DisplayName = strings.TrimSpace(r.DisplayName)
	r.Phone = strings.TrimSpace(r.Phone)
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) Normalize() {
	r.Email = strings.TrimSpace(r.Email)
}

// AuthResponse carries the session token for Register and Login.
type AuthResponse struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}

type GetCurrentUserResponse struct {
	User *User `json:"user"`
}

// Group

type Group struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Currency   string `json:"currency"`
	OwnerID    string `json:"owner_id"`
	CreatedAt  int64  `json:"created_at"`
	ArchivedAt int64  `json:"archived_at,omitempty"`
}

type Member struct {
	UserID      string `json:"user_id"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	InvitedBy   string `json:"invited_by,omitempty"`
	JoinedAt    int64  `json:"joined_at"`
}

type CreateGroupRequest struct {
	Name     string `json:"name" validate:"required,max=100"`
	Currency string `json:"currency" validate:"omitempty,len=3"`
}

type GroupRequest struct {
	GroupID string `json:"group_id" validate:"required"`
}

// GroupResponse is a group with its non-archived members.
type GroupResponse struct {
	Group   *Group    `json:"group"`
	Members []*Member `json:"members"`
}

type ListGroupsResponse struct {
	Groups []*Group `json:"groups"`
}

type InviteMemberRequest struct {
	GroupID string `json:"group_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
	Role    string `json:"role,omitempty" validate:"omitempty,oneof=admin member"`
}

type RespondInviteRequest struct {
	GroupID string `json:"group_id" validate:"required"`
	Accept  bool   `json:"accept"`
}

type ArchiveMemberRequest struct {
	GroupID string `json:"group_id" validate:"required"`
	UserID  string `json:"user_id" validate:"required"`
}

type MemberResponse struct {
	Member *Member `json:"member"`
}

type MemberBalance struct {
	MemberID   string          `json:"member_id"`
	NetBalance decimal.Decimal `json:"net_balance"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
	TotalOwed  decimal.Decimal `json:"total_owed"`
}

type DebtEdge struct {
	From   string          `json:"from"`
	To     string          `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

type GetGroupBalancesResponse struct {
	Balances []*MemberBalance `json:"balances"`
	Debts    []*DebtEdge      `json:"debts"`
}

// Expense

type Split struct {
	MemberID string          `json:"member_id" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
}

type Expense struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	PayerID     string          `json:"payer_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Description string          `json:"description"`
	Status      string          `json:"status"`
	PlanID      string          `json:"plan_id,omitempty"`
	CreatedBy   string          `json:"created_by"`
	CreatedAt   int64           `json:"created_at"`
	ApprovedBy  string          `json:"approved_by,omitempty"`
	ApprovedAt  int64           `json:"approved_at,omitempty"`
	Splits      []*Split        `json:"splits"`
}

// CreateExpenseRequest creates an expense. Explicit Splits must sum to
// Amount. Without them the amount is split equally among SplitAmong, or
// among every active member when that is empty too.
type CreateExpenseRequest struct {
	GroupID     string          `json:"group_id" validate:"required"`
	PayerID     string          `json:"payer_id,omitempty"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	Description string          `json:"description" validate:"required,max=200"`
	Splits      []*Split        `json:"splits,omitempty" validate:"dive,required"`
	SplitAmong  []string        `json:"split_among,omitempty"`
	PlanID      string          `json:"plan_id,omitempty"`
}

type ExpenseRequest struct {
	ExpenseID string `json:"expense_id" validate:"required"`
}

type ExpenseResponse struct {
	Expense *Expense `json:"expense"`
}

type ListExpensesResponse struct {
	Expenses []*Expense `json:"expenses"`
}

// Settlement

type Settlement struct {
	ID          string          `json:"id"`
	GroupID     string          `json:"group_id"`
	FromUserID  string          `json:"from_user_id"`
	ToUserID    string          `json:"to_user_id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Status      string          `json:"status"`
	Note        string          `json:"note,omitempty"`
	CreatedAt   int64           `json:"created_at"`
	RespondedAt int64           `json:"responded_at,omitempty"`
}

type CreateSettlementRequest struct {
	GroupID  string          `json:"group_id" validate:"required"`
	ToUserID string          `json:"to_user_id" validate:"required"`
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	Note     string          `json:"note,omitempty" validate:"max=500"`
}

type RespondSettlementRequest struct {
	SettlementID string `json:"settlement_id" validate:"required"`
	Status       string `json:"status" validate:"required,oneof=confirmed disputed"`
}

type SettlementResponse struct {
	Settlement *Settlement `json:"settlement"`
}

type ListSettlementsResponse struct {
	Settlements []*Settlement `json:"settlements"`
}

// Notifications

type Notification struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"` // type-specific object
	ReadAt    int64           `json:"read_at,omitempty"`
	CreatedAt int64           `json:"created_at"`
}

type ListNotificationsRequest struct {
	UnreadOnly bool `json:"unread_only,omitempty"`
	Limit      int  `json:"limit,omitempty" validate:"min=0,max=200"`
}

type ListNotificationsResponse struct {
	Notifications []*Notification `json:"notifications"`
}

type NotificationRequest struct {
	NotificationID string `json:"notification_id" validate:"required"`
}

type BalanceNotification struct {
	ID             string          `json:"id"`
	GroupID        string          `json:"group_id"`
	ExpenseID      string          `json:"expense_id"`
	PayerID        string          `json:"payer_id"`
	AmountDue      decimal.Decimal `json:"amount_due"`
	Currency       string          `json:"currency"`
	Status         string          `json:"status"`
	NotificationID string          `json:"notification_id,omitempty"`
	CreatedAt      int64           `json:"created_at"`
	PaidAt         int64           `json:"paid_at,omitempty"`
}

type ListBalanceNotificationsRequest struct {
	Status string `json:"status,omitempty" validate:"omitempty,oneof=unpaid marked_as_paid"`
}

type ListBalanceNotificationsResponse struct {
	BalanceNotifications []*BalanceNotification `json:"balance_notifications"`
}

type MarkBalancePaidRequest struct {
	BalanceNotificationID string `json:"balance_notification_id" validate:"required"`
}

type BalanceNotificationResponse struct {
	BalanceNotification *BalanceNotification `json:"balance_notification"`
}

// Check-in

type DaySlot struct {
	Day       int   `json:"day"`
	Reward    int64 `json:"reward"`
	Completed bool  `json:"completed"`
	IsToday   bool  `json:"is_today"`
}

type CheckinStatusResponse struct {
	CurrentStreak  int        `json:"current_streak"`
	CheckedInToday bool       `json:"checked_in_today"`
	Week           []*DaySlot `json:"week"`
}

type CheckinResponse struct {
	AlreadyCheckedIn bool       `json:"already_checked_in"`
	Streak           int        `json:"streak"`
	Reward           int64      `json:"reward"`
	Credits          int64      `json:"credits"`
	Week             []*DaySlot `json:"week"`
}

// Plans

type Plan struct {
	ID          string          `json:"id"`
	OwnerID     string          `json:"owner_id"`
	Name        string          `json:"name"`
	Destination string          `json:"destination,omitempty"`
	Currency    string          `json:"currency"`
	Budget      decimal.Decimal `json:"budget"`
	StartDate   string          `json:"start_date,omitempty"`
	EndDate     string          `json:"end_date,omitempty"`
	Status      string          `json:"status"`
	GroupID     string          `json:"group_id,omitempty"`
	CreatedAt   int64           `json:"created_at"`
	UpdatedAt   int64           `json:"updated_at"`
}

type CreatePlanRequest struct {
	Name        string          `json:"name" validate:"required,max=100"`
	Destination string          `json:"destination,omitempty" validate:"max=100"`
	Currency    string          `json:"currency,omitempty" validate:"omitempty,len=3"`
	Budget      decimal.Decimal `json:"budget"`
	StartDate   string          `json:"start_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	EndDate     string          `json:"end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type PlanRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
}

type UpdatePlanStatusRequest struct {
	PlanID string `json:"plan_id" validate:"required"`
	Status string `json:"status" validate:"required,oneof=draft planning locked done canceled"`
}

type LinkPlanToGroupRequest struct {
	PlanID  string `json:"plan_id" validate:"required"`
	GroupID string `json:"group_id" validate:"required"`
}

type PlanResponse struct {
	Plan *Plan `json:"plan"`
}

type ListPlansResponse struct {
	Plans []*Plan `json:"plans"`
}

type ConvertPlanToGroupResponse struct {
	Plan  *Plan  `json:"plan"`
	Group *Group `json:"group"`
}

// Credits

type CreditPackage struct {
	Code        string `json:"code"`
	Credits     int64  `json:"credits"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
}

type ListPackagesResponse struct {
	Packages []*CreditPackage `json:"packages"`
}

type CreatePurchaseRequest struct {
	PackageCode string `json:"package_code" validate:"required"`
}

type PurchaseRequest struct {
	PurchaseID string `json:"purchase_id" validate:"required"`
}

type Purchase struct {
	ID          string `json:"id"`
	PackageCode string `json:"package_code"`
	Credits     int64  `json:"credits"`
	AmountMinor int64  `json:"amount_minor"`
	Currency    string `json:"currency"`
	Status      string `json:"status"`
	PaymentID   string `json:"payment_id,omitempty"`
	CreatedAt   int64  `json:"created_at"`
	CompletedAt int64  `json:"completed_at,omitempty"`
}

type PurchaseResponse struct {
	Purchase *Purchase `json:"purchase"`
}

// Realtime

// WatchRequest opens a change stream. GroupID scopes group tables; events
// addressed to the caller (notifications) are always delivered. Tables
// filters by table name; empty means all.
type WatchRequest struct {
	GroupID string   `json:"group_id,omitempty"`
	Tables  []string `json:"tables,omitempty" validate:"dive,oneof=expenses settlements group_members notifications balance_notifications plans"`
}

type ChangeEvent struct {
	Table   string `json:"table"`
	Op      string `json:"op"`
	GroupID string `json:"group_id,omitempty"`
	UserID  string `json:"user_id,omitempty"`
	RowID   string `json:"row_id"`
}
