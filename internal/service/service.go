// Package service implements the Diviso Connect services. Handlers return
// apperr errors; the logging interceptor maps them to Connect codes.
package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/auth"
	"github.com/diviso/diviso/internal/middleware"
	"github.com/diviso/diviso/internal/models"
	"github.com/diviso/diviso/internal/notify"
	"github.com/diviso/diviso/internal/realtime"
	"github.com/diviso/diviso/internal/storage"
)

// DefaultCurrency is used when a group or plan is created without one.
const DefaultCurrency = "SAR"

// Realtime table names.
const (
	TableExpenses             = "expenses"
	TableSettlements          = "settlements"
	TableGroupMembers         = "group_members"
	TableBalanceNotifications = "balance_notifications"
	TablePlans                = "plans"
)

// Notifier writes inbox entries.
type Notifier interface {
	SendBalanceNotifications(ctx context.Context, info notify.ExpenseInfo)
	Send(ctx context.Context, userID string, typ models.NotificationType, fields map[string]interface{})
}

// Quotas bounds per-user usage.
type Quotas interface {
	CheckCreateGroup(ctx context.Context, userID string) error
	CheckAddMember(ctx context.Context, group *models.Group) error
	CheckCreateExpense(ctx context.Context, userID string) error
}

// currentUser returns the authenticated caller.
func currentUser(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", auth.ErrMissingToken
	}
	return userID, nil
}

// activeGroup loads a non-archived group.
func activeGroup(ctx context.Context, store storage.GroupStore, groupID string) (*models.Group, error) {
	group, err := store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if group.Archived() {
		return nil, apperr.NotFound("group not found: %s", groupID)
	}
	return group, nil
}

// requireMember returns userID's active membership of groupID.
func requireMember(ctx context.Context, store storage.GroupStore, groupID, userID string) (*models.GroupMember, error) {
	member, err := store.GetMember(ctx, groupID, userID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, apperr.NotAuthorized("not a member of this group")
	}
	if err != nil {
		return nil, err
	}
	if !member.Active() {
		return nil, apperr.NotAuthorized("not a member of this group")
	}
	return member, nil
}

// requireAdmin returns userID's membership if it may administer groupID.
func requireAdmin(ctx context.Context, store storage.GroupStore, groupID, userID string) (*models.GroupMember, error) {
	member, err := requireMember(ctx, store, groupID, userID)
	if err != nil {
		return nil, err
	}
	if !member.Role.CanAdminister() {
		return nil, apperr.NotAuthorized("only group admins can do this")
	}
	return member, nil
}

func currencyOr(code, fallback string) string {
	if code = strings.ToUpper(strings.TrimSpace(code)); code != "" {
		return code
	}
	return fallback
}

// groupCurrency resolves a request currency against the group's. Balances
// are kept in a single currency, so any other code is rejected.
func groupCurrency(code string, group *models.Group) (string, error) {
	cur := currencyOr(code, group.Currency)
	if cur != group.Currency {
		return "", apperr.InvalidArgument("currency %s does not match the group currency %s", cur, group.Currency)
	}
	return cur, nil
}

// publish sends a realtime event. Delivery is best effort.
func publish(ctx context.Context, p realtime.Publisher, logger *slog.Logger, ev realtime.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		logger.Warn("failed to publish realtime event", "table", ev.Table, "row_id", ev.RowID, "error", err)
	}
}

func orDefault(logger *slog.Logger) *slog.Logger {
	if logger == nil {
		return slog.Default()
	}
	return logger
}
