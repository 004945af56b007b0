package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"connectrpc.com/connect"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/models"
	"github.com/diviso/diviso/internal/realtime"
	"github.com/diviso/diviso/internal/storage"
	"github.com/diviso/diviso/pkg/api"
)

// NotificationService implements the Connect NotificationService.
type NotificationService struct {
	store     storage.NotificationStore
	publisher realtime.Publisher
	logger    *slog.Logger
}

// NewNotificationService creates a NotificationService.
func NewNotificationService(store storage.NotificationStore, publisher realtime.Publisher, logger *slog.Logger) *NotificationService {
	return &NotificationService{store: store, publisher: publisher, logger: orDefault(logger)}
}

// ListNotifications returns the caller's inbox, newest first.
func (s *NotificationService) ListNotifications(ctx context.Context, req *connect.Request[api.ListNotificationsRequest]) (*connect.Response[api.ListNotificationsResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	notifications, err := s.store.ListNotifications(ctx, userID, req.Msg.UnreadOnly, req.Msg.Limit)
	if err != nil {
		return nil, err
	}

	resp := &api.ListNotificationsResponse{Notifications: make([]*api.Notification, len(notifications))}
	for i, n := range notifications {
		if resp.Notifications[i], err = toAPINotification(n); err != nil {
			return nil, fmt.Errorf("failed to encode notification %s: %w", n.ID, err)
		}
	}
	return connect.NewResponse(resp), nil
}

// MarkNotificationRead stamps read_at once.
func (s *NotificationService) MarkNotificationRead(ctx context.Context, req *connect.Request[api.NotificationRequest]) (*connect.Response[api.Empty], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.store.MarkNotificationRead(ctx, userID, req.Msg.NotificationID, time.Now().Unix()); err != nil {
		return nil, err
	}
	return connect.NewResponse(&api.Empty{}), nil
}

// ListBalanceNotifications returns what the caller owes, optionally by status.
func (s *NotificationService) ListBalanceNotifications(ctx context.Context, req *connect.Request[api.ListBalanceNotificationsRequest]) (*connect.Response[api.ListBalanceNotificationsResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	rows, err := s.store.ListBalanceNotifications(ctx, userID, models.BalanceStatus(req.Msg.Status))
	if err != nil {
		return nil, err
	}

	resp := &api.ListBalanceNotificationsResponse{BalanceNotifications: make([]*api.BalanceNotification, len(rows))}
	for i, bn := range rows {
		resp.BalanceNotifications[i] = toAPIBalanceNotification(bn)
	}
	return connect.NewResponse(resp), nil
}

// MarkBalancePaid moves the caller's balance notification from unpaid to
// marked_as_paid. Only the debtor may do this; repeating it is a no-op.
func (s *NotificationService) MarkBalancePaid(ctx context.Context, req *connect.Request[api.MarkBalancePaidRequest]) (*connect.Response[api.BalanceNotificationResponse], error) {
	userID, err := currentUser(ctx)
	if err != nil {
		return nil, err
	}
	bn, err := s.store.GetBalanceNotification(ctx, req.Msg.BalanceNotificationID)
	if err != nil {
		return nil, err
	}
	if bn.UserID != userID {
		return nil, apperr.NotAuthorized("only the debtor can mark this balance as paid")
	}

	if bn.Status != models.BalanceMarkedAsPaid {
		if err := s.store.MarkBalancePaid(ctx, bn.ID, time.Now().Unix()); err != nil {
			return nil, err
		}
		if bn, err = s.store.GetBalanceNotification(ctx, bn.ID); err != nil {
			return nil, err
		}
		s.logger.Info("Balance marked as paid", "balance_notification_id", bn.ID, "user_id", userID)
		publish(ctx, s.publisher, s.logger, realtime.Event{
			Table:   TableBalanceNotifications,
			Op:      realtime.OpUpdate,
			GroupID: bn.GroupID,
			UserID:  bn.PayerID,
			RowID:   bn.ID,
		})
	}
	return connect.NewResponse(&api.BalanceNotificationResponse{BalanceNotification: toAPIBalanceNotification(bn)}), nil
}
