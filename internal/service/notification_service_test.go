package service

import (
	"context"
	"encoding/json"
	"testing"

	"connectrpc.com/connect"

	"github.com/diviso/diviso/pkg/api"
)

func TestNotificationService_Inbox(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "Alice")
	bob := env.register(t, "Bob")
	group := env.createGroup(t, alice, bob)

	if _, err := env.expenses.CreateExpense(ctx, authed(alice, &api.CreateExpenseRequest{
		GroupID: group.ID, Amount: d("25"), Description: "Lunch", SplitAmong: []string{alice.ID, bob.ID},
	})); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	// Bob has the group invite and the balance notice.
	inbox, err := env.notifications.ListNotifications(ctx, authed(bob, &api.ListNotificationsRequest{}))
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(inbox.Msg.Notifications) != 2 {
		t.Fatalf("expected 2 notifications, got %d", len(inbox.Msg.Notifications))
	}
	var due *api.Notification
	for _, n := range inbox.Msg.Notifications {
		if n.Type == "balance_due" {
			due = n
		}
	}
	if due == nil {
		t.Fatal("expected a balance_due notification")
	}

	var payload map[string]any
	if err := json.Unmarshal(due.Payload, &payload); err != nil {
		t.Fatalf("payload is not a JSON object: %v", err)
	}
	want := map[string]string{
		"amount":              "12.50",
		"currency":            "SAR",
		"group_name":          "Riyadh trip",
		"payer_name":          "Alice",
		"expense_description": "Lunch",
	}
	for k, v := range want {
		if payload[k] != v {
			t.Errorf("payload[%s] = %v, want %q", k, payload[k], v)
		}
	}

	if _, err := env.notifications.MarkNotificationRead(ctx, authed(bob, &api.NotificationRequest{NotificationID: due.ID})); err != nil {
		t.Fatalf("MarkNotificationRead failed: %v", err)
	}
	unread, err := env.notifications.ListNotifications(ctx, authed(bob, &api.ListNotificationsRequest{UnreadOnly: true}))
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(unread.Msg.Notifications) != 1 {
		t.Errorf("expected 1 unread notification, got %d", len(unread.Msg.Notifications))
	}

	limited, err := env.notifications.ListNotifications(ctx, authed(bob, &api.ListNotificationsRequest{Limit: 1}))
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(limited.Msg.Notifications) != 1 {
		t.Errorf("expected limit to apply, got %d", len(limited.Msg.Notifications))
	}

	// Someone else's notification looks missing.
	_, err = env.notifications.MarkNotificationRead(ctx, authed(alice, &api.NotificationRequest{NotificationID: due.ID}))
	assertCode(t, err, connect.CodeNotFound)

	_, err = env.notifications.ListNotifications(ctx, authed(bob, &api.ListNotificationsRequest{Limit: 1000}))
	assertCode(t, err, connect.CodeInvalidArgument)
}

func TestNotificationService_MarkBalancePaid(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "Alice")
	bob := env.register(t, "Bob")
	group := env.createGroup(t, alice, bob)

	if _, err := env.expenses.CreateExpense(ctx, authed(alice, &api.CreateExpenseRequest{
		GroupID: group.ID, Amount: d("60"), Description: "Tickets", SplitAmong: []string{alice.ID, bob.ID},
	})); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	rows, err := env.notifications.ListBalanceNotifications(ctx, authed(bob, &api.ListBalanceNotificationsRequest{Status: "unpaid"}))
	if err != nil {
		t.Fatalf("ListBalanceNotifications failed: %v", err)
	}
	if len(rows.Msg.BalanceNotifications) != 1 {
		t.Fatalf("expected 1 unpaid row, got %d", len(rows.Msg.BalanceNotifications))
	}
	bn := rows.Msg.BalanceNotifications[0]

	_, err = env.notifications.MarkBalancePaid(ctx, authed(alice, &api.MarkBalancePaidRequest{BalanceNotificationID: bn.ID}))
	assertCode(t, err, connect.CodePermissionDenied)

	paid, err := env.notifications.MarkBalancePaid(ctx, authed(bob, &api.MarkBalancePaidRequest{BalanceNotificationID: bn.ID}))
	if err != nil {
		t.Fatalf("MarkBalancePaid failed: %v", err)
	}
	if paid.Msg.BalanceNotification.Status != "marked_as_paid" || paid.Msg.BalanceNotification.PaidAt == 0 {
		t.Errorf("unexpected row after paying: %+v", paid.Msg.BalanceNotification)
	}

	again, err := env.notifications.MarkBalancePaid(ctx, authed(bob, &api.MarkBalancePaidRequest{BalanceNotificationID: bn.ID}))
	if err != nil {
		t.Fatalf("second MarkBalancePaid failed: %v", err)
	}
	if again.Msg.BalanceNotification.PaidAt != paid.Msg.BalanceNotification.PaidAt {
		t.Errorf("paid_at changed on repeat: %d != %d", again.Msg.BalanceNotification.PaidAt, paid.Msg.BalanceNotification.PaidAt)
	}

	unpaid, err := env.notifications.ListBalanceNotifications(ctx, authed(bob, &api.ListBalanceNotificationsRequest{Status: "unpaid"}))
	if err != nil {
		t.Fatalf("ListBalanceNotifications failed: %v", err)
	}
	if len(unpaid.Msg.BalanceNotifications) != 0 {
		t.Errorf("expected no unpaid rows, got %d", len(unpaid.Msg.BalanceNotifications))
	}

	_, err = env.notifications.ListBalanceNotifications(ctx, authed(bob, &api.ListBalanceNotificationsRequest{Status: "settled"}))
	assertCode(t, err, connect.CodeInvalidArgument)
}
