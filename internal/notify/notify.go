// Package notify writes inbox notifications. Notifications are best effort:
// failures are logged and counted, never returned to the caller.
package notify

import (
	"context"
	"log/slog"

	"google.golang.org/protobuf/types/known/structpb"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/metrics"
	"github.com/diviso/diviso/internal/models"
	"github.com/diviso/diviso/internal/realtime"
)

// Store is the persistence the notifier needs.
type Store interface {
	UpsertBalanceNotification(ctx context.Context, bn *models.BalanceNotification) (inserted bool, err error)
	CreateNotification(ctx context.Context, n *models.Notification) error
	LinkBalanceNotification(ctx context.Context, balanceID, notificationID string) error
}

// Notifier fans notifications out to users.
type Notifier struct {
	store     Store
	publisher realtime.Publisher
	logger    *slog.Logger
}

// New creates a notifier. publisher may be nil.
func New(store Store, publisher realtime.Publisher, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{store: store, publisher: publisher, logger: logger}
}

// ExpenseInfo is the denormalized expense context copied into each payload.
type ExpenseInfo struct {
	ExpenseID   string
	GroupID     string
	GroupName   string
	PayerID     string
	PayerName   string
	Description string
	Currency    string
	Splits      []models.ExpenseSplit
}

// SendBalanceNotifications tells every non-payer split member what they owe.
//
// Debtors are processed one at a time. The balance row is keyed by
// (user, expense), so re-running for the same expense writes nothing new. A
// balance row whose notification insert fails is left without a link.
func (n *Notifier) SendBalanceNotifications(ctx context.Context, info ExpenseInfo) {
	var debtors []models.ExpenseSplit
	for _, s := range info.Splits {
		if s.MemberID != info.PayerID {
			debtors = append(debtors, s)
		}
	}
	if len(debtors) == 0 {
		return
	}

	for _, debtor := range debtors {
		n.notifyDebtor(ctx, info, debtor)
	}
}

func (n *Notifier) notifyDebtor(ctx context.Context, info ExpenseInfo, debtor models.ExpenseSplit) {
	log := n.logger.With("expense_id", info.ExpenseID, "user_id", debtor.MemberID)

	bn := &models.BalanceNotification{
		UserID:    debtor.MemberID,
		GroupID:   info.GroupID,
		ExpenseID: info.ExpenseID,
		PayerID:   info.PayerID,
		AmountDue: debtor.ShareAmount,
		Currency:  info.Currency,
		Status:    models.BalanceUnpaid,
	}
	inserted, err := n.store.UpsertBalanceNotification(ctx, bn)
	switch {
	case err == nil && !inserted, apperr.Is(err, apperr.KindDuplicateKey):
		metrics.BalanceNotifications.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		return
	case err != nil:
		log.Error("failed to insert balance notification", "error", err)
		metrics.BalanceNotifications.WithLabelValues(metrics.OutcomeFailed).Inc()
		return
	}

	notification, err := n.create(ctx, debtor.MemberID, models.NotifyBalanceDue, map[string]interface{}{
		"amount":                  debtor.ShareAmount.StringFixed(2),
		"currency":                info.Currency,
		"group_id":                info.GroupID,
		"group_name":              info.GroupName,
		"expense_id":              info.ExpenseID,
		"payer_name":              info.PayerName,
		"expense_description":     info.Description,
		"balance_notification_id": bn.ID,
	})
	if err != nil {
		log.Error("failed to create balance notification entry", "balance_notification_id", bn.ID, "error", err)
		metrics.BalanceNotifications.WithLabelValues(metrics.OutcomeOrphaned).Inc()
		return
	}

	if err := n.store.LinkBalanceNotification(ctx, bn.ID, notification.ID); err != nil {
		log.Warn("failed to link balance notification", "balance_notification_id", bn.ID, "error", err)
	}
	metrics.BalanceNotifications.WithLabelValues(metrics.OutcomeSent).Inc()
}

// Send creates one inbox entry for userID. Errors are logged only.
func (n *Notifier) Send(ctx context.Context, userID string, typ models.NotificationType, fields map[string]interface{}) {
	if _, err := n.create(ctx, userID, typ, fields); err != nil {
		n.logger.Error("failed to create notification", "user_id", userID, "type", typ, "error", err)
	}
}

func (n *Notifier) create(ctx context.Context, userID string, typ models.NotificationType, fields map[string]interface{}) (*models.Notification, error) {
	payload, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, err
	}
	notification := &models.Notification{UserID: userID, Type: typ, Payload: payload}
	if err := n.store.CreateNotification(ctx, notification); err != nil {
		return nil, err
	}

	if n.publisher != nil {
		ev := realtime.Event{Table: "notifications", Op: realtime.OpInsert, UserID: userID, RowID: notification.ID}
		if err := n.publisher.Publish(ctx, ev); err != nil {
			n.logger.Warn("failed to publish notification event", "user_id", userID, "error", err)
		}
	}
	return notification, nil
}
