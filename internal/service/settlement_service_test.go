package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"

	"github.com/diviso/diviso/pkg/api"
)

// approvedDinner creates a 100 expense paid by payer and split evenly among
// the three users, then approves it.
func approvedDinner(t *testing.T, env *testEnv, groupID string, payer testUser, among ...testUser) *api.Expense {
	t.Helper()
	ctx := context.Background()
	ids := make([]string, len(among))
	for i, u := range among {
		ids[i] = u.ID
	}
	created, err := env.expenses.CreateExpense(ctx, authed(payer, &api.CreateExpenseRequest{
		GroupID: groupID, Amount: d("100"), Description: "Dinner", SplitAmong: ids,
	}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}
	approved, err := env.expenses.ApproveExpense(ctx, authed(payer, &api.ExpenseRequest{ExpenseID: created.Msg.Expense.ID}))
	if err != nil {
		t.Fatalf("ApproveExpense failed: %v", err)
	}
	return approved.Msg.Expense
}

func TestSettlementService_ConfirmUpdatesBalances(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "Alice")
	bob := env.register(t, "Bob")
	carol := env.register(t, "Carol")
	group := env.createGroup(t, alice, bob, carol)
	approvedDinner(t, env, group.ID, alice, alice, bob, carol)

	created, err := env.settlements.CreateSettlement(ctx, authed(bob, &api.CreateSettlementRequest{
		GroupID: group.ID, ToUserID: alice.ID, Amount: d("33.33"), Note: "cash",
	}))
	if err != nil {
		t.Fatalf("CreateSettlement failed: %v", err)
	}
	settlement := created.Msg.Settlement
	if settlement.Status != "pending" || settlement.FromUserID != bob.ID || settlement.Currency != DefaultCurrency {
		t.Errorf("unexpected settlement: %+v", settlement)
	}

	// Pending settlements do not move balances.
	before, err := env.groups.GetGroupBalances(ctx, authed(bob, &api.GroupRequest{GroupID: group.ID}))
	if err != nil {
		t.Fatalf("GetGroupBalances failed: %v", err)
	}
	if got := balanceOf(t, before.Msg, bob.ID); !got.Equal(d("-33.33")) {
		t.Errorf("expected Bob at -33.33 before confirmation, got %s", got)
	}

	// Only the recipient can answer.
	_, err = env.settlements.RespondSettlement(ctx, authed(carol, &api.RespondSettlementRequest{SettlementID: settlement.ID, Status: "confirmed"}))
	assertCode(t, err, connect.CodePermissionDenied)
	_, err = env.settlements.RespondSettlement(ctx, authed(bob, &api.RespondSettlementRequest{SettlementID: settlement.ID, Status: "confirmed"}))
	assertCode(t, err, connect.CodePermissionDenied)

	confirmed, err := env.settlements.RespondSettlement(ctx, authed(alice, &api.RespondSettlementRequest{SettlementID: settlement.ID, Status: "confirmed"}))
	if err != nil {
		t.Fatalf("RespondSettlement failed: %v", err)
	}
	if confirmed.Msg.Settlement.Status != "confirmed" || confirmed.Msg.Settlement.RespondedAt == 0 {
		t.Errorf("unexpected settlement after confirm: %+v", confirmed.Msg.Settlement)
	}

	// Repeating the answer is a no-op; changing it is not allowed.
	if _, err := env.settlements.RespondSettlement(ctx, authed(alice, &api.RespondSettlementRequest{SettlementID: settlement.ID, Status: "confirmed"})); err != nil {
		t.Errorf("repeated confirm failed: %v", err)
	}
	_, err = env.settlements.RespondSettlement(ctx, authed(alice, &api.RespondSettlementRequest{SettlementID: settlement.ID, Status: "disputed"}))
	assertCode(t, err, connect.CodeFailedPrecondition)

	after, err := env.groups.GetGroupBalances(ctx, authed(bob, &api.GroupRequest{GroupID: group.ID}))
	if err != nil {
		t.Fatalf("GetGroupBalances failed: %v", err)
	}
	wantNet := map[string]string{alice.ID: "33.33", bob.ID: "0", carol.ID: "-33.33"}
	for id, want := range wantNet {
		if got := balanceOf(t, after.Msg, id); !got.Equal(d(want)) {
			t.Errorf("net balance for %s: expected %s, got %s", id, want, got)
		}
	}

	// Bob is told about the answer; Alice about the recorded payment.
	for _, tc := range []struct {
		user testUser
		typ  string
	}{
		{alice, "settlement_recorded"},
		{bob, "settlement_responded"},
	} {
		inbox, err := env.notifications.ListNotifications(ctx, authed(tc.user, &api.ListNotificationsRequest{}))
		if err != nil {
			t.Fatalf("ListNotifications failed: %v", err)
		}
		found := 0
		for _, n := range inbox.Msg.Notifications {
			if n.Type == tc.typ {
				found++
			}
		}
		if found != 1 {
			t.Errorf("%s: expected one %s notification, got %d", tc.user.Name, tc.typ, found)
		}
	}

	list, err := env.settlements.ListSettlements(ctx, authed(carol, &api.GroupRequest{GroupID: group.ID}))
	if err != nil {
		t.Fatalf("ListSettlements failed: %v", err)
	}
	if len(list.Msg.Settlements) != 1 {
		t.Errorf("expected 1 settlement, got %d", len(list.Msg.Settlements))
	}
}

func TestSettlementService_DisputedIgnored(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "Alice")
	bob := env.register(t, "Bob")
	group := env.createGroup(t, alice, bob)
	approvedDinner(t, env, group.ID, alice, alice, bob)

	created, err := env.settlements.CreateSettlement(ctx, authed(bob, &api.CreateSettlementRequest{
		GroupID: group.ID, ToUserID: alice.ID, Amount: d("50"),
	}))
	if err != nil {
		t.Fatalf("CreateSettlement failed: %v", err)
	}
	if _, err := env.settlements.RespondSettlement(ctx, authed(alice, &api.RespondSettlementRequest{
		SettlementID: created.Msg.Settlement.ID, Status: "disputed",
	})); err != nil {
		t.Fatalf("RespondSettlement failed: %v", err)
	}

	balances, err := env.groups.GetGroupBalances(ctx, authed(alice, &api.GroupRequest{GroupID: group.ID}))
	if err != nil {
		t.Fatalf("GetGroupBalances failed: %v", err)
	}
	if got := balanceOf(t, balances.Msg, bob.ID); !got.Equal(d("-50")) {
		t.Errorf("disputed settlement must not count, Bob at %s", got)
	}
}

func TestSettlementService_Errors(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	alice := env.register(t, "Alice")
	bob := env.register(t, "Bob")
	eve := env.register(t, "Eve")
	group := env.createGroup(t, alice, bob)

	tests := []struct {
		name   string
		caller testUser
		req    *api.CreateSettlementRequest
		want   connect.Code
	}{
		{"self", bob, &api.CreateSettlementRequest{GroupID: group.ID, ToUserID: bob.ID, Amount: d("5")}, connect.CodeInvalidArgument},
		{"recipient outside group", bob, &api.CreateSettlementRequest{GroupID: group.ID, ToUserID: eve.ID, Amount: d("5")}, connect.CodeInvalidArgument},
		{"caller outside group", eve, &api.CreateSettlementRequest{GroupID: group.ID, ToUserID: alice.ID, Amount: d("5")}, connect.CodePermissionDenied},
		{"zero amount", bob, &api.CreateSettlementRequest{GroupID: group.ID, ToUserID: alice.ID, Amount: d("0")}, connect.CodeInvalidArgument},
		{"foreign currency", bob, &api.CreateSettlementRequest{GroupID: group.ID, ToUserID: alice.ID, Amount: d("5"), Currency: "usd"}, connect.CodeInvalidArgument},
		{"missing recipient", bob, &api.CreateSettlementRequest{GroupID: group.ID, Amount: d("5")}, connect.CodeInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.settlements.CreateSettlement(ctx, authed(tt.caller, tt.req))
			assertCode(t, err, tt.want)
		})
	}

	t.Run("unknown status", func(t *testing.T) {
		_, err := env.settlements.RespondSettlement(ctx, authed(alice, &api.RespondSettlementRequest{SettlementID: "x", Status: "maybe"}))
		assertCode(t, err, connect.CodeInvalidArgument)
	})
	t.Run("unknown settlement", func(t *testing.T) {
		_, err := env.settlements.RespondSettlement(ctx, authed(alice, &api.RespondSettlementRequest{SettlementID: "x", Status: "confirmed"}))
		assertCode(t, err, connect.CodeNotFound)
	})
}
