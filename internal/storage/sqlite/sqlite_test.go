package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/models"
)

func setupStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func createUser(t *testing.T, store *SQLiteStore, email string) *models.User {
	t.Helper()
	user := models.NewUser(email, email, "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser(%s) failed: %v", email, err)
	}
	return user
}

func createGroup(t *testing.T, store *SQLiteStore, owner *models.User, members ...*models.User) *models.Group {
	t.Helper()
	ctx := context.Background()
	group := &models.Group{Name: "Riyadh trip", Currency: "SAR", OwnerID: owner.ID}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	for _, m := range members {
		err := store.AddMember(ctx, &models.GroupMember{
			GroupID: group.ID, UserID: m.ID, Role: models.RoleMember, Status: models.MemberActive,
		})
		if err != nil {
			t.Fatalf("AddMember failed: %v", err)
		}
	}
	return group
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestUsers(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	alice := createUser(t, store, "alice@example.com")

	t.Run("duplicate email is a duplicate key", func(t *testing.T) {
		err := store.CreateUser(ctx, models.NewUser("alice@example.com", "Other", "hash"))
		if !apperr.Is(err, apperr.KindDuplicateKey) {
			t.Fatalf("expected duplicate key, got %v", err)
		}
	})

	t.Run("lookup by phone", func(t *testing.T) {
		bob := models.NewUser("bob@example.com", "Bob", "hash")
		bob.Phone = "+966501234567"
		if err := store.CreateUser(ctx, bob); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
		got, err := store.GetUserByPhone(ctx, "+966501234567")
		if err != nil {
			t.Fatalf("GetUserByPhone failed: %v", err)
		}
		if got.ID != bob.ID {
			t.Errorf("got user %s, want %s", got.ID, bob.ID)
		}
	})

	t.Run("users without phone do not collide", func(t *testing.T) {
		createUser(t, store, "carol@example.com")
		createUser(t, store, "dave@example.com")
	})

	t.Run("missing user is not found", func(t *testing.T) {
		_, err := store.GetUserByID(ctx, "nope")
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Fatalf("expected not found, got %v", err)
		}
	})

	t.Run("batch lookup", func(t *testing.T) {
		users, err := store.GetUsersByIDs(ctx, []string{alice.ID, "nope"})
		if err != nil {
			t.Fatalf("GetUsersByIDs failed: %v", err)
		}
		if len(users) != 1 || users[alice.ID] == nil {
			t.Errorf("unexpected users: %v", users)
		}
	})
}

func TestGroupsAndMembers(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	owner := createUser(t, store, "owner@example.com")
	guest := createUser(t, store, "guest@example.com")
	group := createGroup(t, store, owner)

	owned, err := store.GetMember(ctx, group.ID, owner.ID)
	if err != nil {
		t.Fatalf("GetMember failed: %v", err)
	}
	if owned.Role != models.RoleOwner || !owned.Active() {
		t.Errorf("owner membership = %+v", owned)
	}

	invite := &models.GroupMember{GroupID: group.ID, UserID: guest.ID, Role: models.RoleMember, Status: models.MemberPending, InvitedBy: owner.ID}
	if err := store.AddMember(ctx, invite); err != nil {
		t.Fatalf("AddMember failed: %v", err)
	}
	if err := store.AddMember(ctx, invite); !apperr.Is(err, apperr.KindDuplicateKey) {
		t.Fatalf("expected duplicate member, got %v", err)
	}

	if n, _ := store.CountMembers(ctx, group.ID); n != 2 {
		t.Errorf("CountMembers = %d, want 2", n)
	}

	groups, err := store.ListGroupsForUser(ctx, guest.ID)
	if err != nil {
		t.Fatalf("ListGroupsForUser failed: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("pending member should not list the group, got %d", len(groups))
	}

	if err := store.UpdateMemberStatus(ctx, group.ID, guest.ID, models.MemberActive, time.Now().Unix()); err != nil {
		t.Fatalf("UpdateMemberStatus failed: %v", err)
	}
	groups, _ = store.ListGroupsForUser(ctx, guest.ID)
	if len(groups) != 1 {
		t.Errorf("active member should list the group, got %d", len(groups))
	}

	t.Run("archived member is filtered and can be re-invited", func(t *testing.T) {
		if err := store.UpdateMemberStatus(ctx, group.ID, guest.ID, models.MemberArchived, time.Now().Unix()); err != nil {
			t.Fatalf("UpdateMemberStatus failed: %v", err)
		}
		members, _ := store.ListMembers(ctx, group.ID)
		if len(members) != 1 {
			t.Errorf("ListMembers = %d, want 1", len(members))
		}
		if err := store.AddMember(ctx, invite); err != nil {
			t.Fatalf("re-invite failed: %v", err)
		}
		m, _ := store.GetMember(ctx, group.ID, guest.ID)
		if m.Status != models.MemberPending || m.ArchivedAt != 0 {
			t.Errorf("revived membership = %+v", m)
		}
	})

	t.Run("archived group is hidden", func(t *testing.T) {
		if err := store.ArchiveGroup(ctx, group.ID, time.Now().Unix()); err != nil {
			t.Fatalf("ArchiveGroup failed: %v", err)
		}
		groups, _ := store.ListGroupsForUser(ctx, owner.ID)
		if len(groups) != 0 {
			t.Errorf("archived group listed")
		}
		g, err := store.GetGroup(ctx, group.ID)
		if err != nil || !g.Archived() {
			t.Errorf("GetGroup = %+v, %v", g, err)
		}
		if n, _ := store.CountOwnedGroups(ctx, owner.ID); n != 0 {
			t.Errorf("CountOwnedGroups = %d, want 0", n)
		}
	})
}

func TestExpenses(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	a := createUser(t, store, "a@example.com")
	b := createUser(t, store, "b@example.com")
	group := createGroup(t, store, a, b)

	expense := &models.Expense{
		GroupID: group.ID, PayerID: a.ID, Amount: d("200.00"), Currency: "SAR",
		Description: "Dinner", CreatedBy: a.ID,
		Splits: []models.ExpenseSplit{
			{MemberID: a.ID, ShareAmount: d("100.00")},
			{MemberID: b.ID, ShareAmount: d("100.00")},
		},
	}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	got, err := store.GetExpense(ctx, expense.ID)
	if err != nil {
		t.Fatalf("GetExpense failed: %v", err)
	}
	if !got.Amount.Equal(d("200")) || got.Status != models.ExpensePending || len(got.Splits) != 2 {
		t.Errorf("GetExpense = %+v", got)
	}

	list, err := store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		t.Fatalf("ListExpensesByGroup failed: %v", err)
	}
	if len(list) != 1 || len(list[0].Splits) != 2 {
		t.Errorf("ListExpensesByGroup = %+v", list)
	}

	if n, _ := store.CountExpensesCreatedSince(ctx, a.ID, 0); n != 1 {
		t.Errorf("CountExpensesCreatedSince = %d, want 1", n)
	}

	if err := store.ApproveExpense(ctx, &models.ExpenseApproval{ExpenseID: expense.ID, ApprovedBy: a.ID}); err != nil {
		t.Fatalf("ApproveExpense failed: %v", err)
	}
	err = store.ApproveExpense(ctx, &models.ExpenseApproval{ExpenseID: expense.ID, ApprovedBy: a.ID})
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("second approval: expected conflict, got %v", err)
	}
	err = store.ApproveExpense(ctx, &models.ExpenseApproval{ExpenseID: "missing", ApprovedBy: a.ID})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("missing expense: expected not found, got %v", err)
	}

	got, _ = store.GetExpense(ctx, expense.ID)
	if got.Status != models.ExpenseApproved || got.ApprovedBy != a.ID {
		t.Errorf("approved expense = %+v", got)
	}
}

func TestBalanceNotifications(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	a := createUser(t, store, "a@example.com")
	b := createUser(t, store, "b@example.com")
	group := createGroup(t, store, a, b)
	expense := &models.Expense{GroupID: group.ID, PayerID: a.ID, Amount: d("50"), Currency: "SAR", Description: "Taxi", CreatedBy: a.ID}
	if err := store.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	bn := &models.BalanceNotification{
		UserID: b.ID, GroupID: group.ID, ExpenseID: expense.ID, PayerID: a.ID,
		AmountDue: d("25"), Currency: "SAR",
	}
	inserted, err := store.UpsertBalanceNotification(ctx, bn)
	if err != nil || !inserted {
		t.Fatalf("first upsert = %v, %v", inserted, err)
	}

	dup := *bn
	dup.ID = ""
	inserted, err = store.UpsertBalanceNotification(ctx, &dup)
	if err != nil || inserted {
		t.Fatalf("second upsert = %v, %v; want false, nil", inserted, err)
	}

	rows, _ := store.ListBalanceNotifications(ctx, b.ID, "")
	if len(rows) != 1 {
		t.Fatalf("expected one balance row, got %d", len(rows))
	}

	payload, _ := structpb.NewStruct(map[string]interface{}{"amount": "25.00", "currency": "SAR"})
	n := &models.Notification{UserID: b.ID, Type: models.NotifyBalanceDue, Payload: payload}
	if err := store.CreateNotification(ctx, n); err != nil {
		t.Fatalf("CreateNotification failed: %v", err)
	}
	if err := store.LinkBalanceNotification(ctx, bn.ID, n.ID); err != nil {
		t.Fatalf("LinkBalanceNotification failed: %v", err)
	}

	got, _ := store.GetBalanceNotification(ctx, bn.ID)
	if got.NotificationID != n.ID {
		t.Errorf("NotificationID = %q, want %q", got.NotificationID, n.ID)
	}

	inbox, err := store.ListNotifications(ctx, b.ID, true, 10)
	if err != nil {
		t.Fatalf("ListNotifications failed: %v", err)
	}
	if len(inbox) != 1 || inbox[0].Payload.Fields["currency"].GetStringValue() != "SAR" {
		t.Errorf("inbox = %+v", inbox)
	}

	t.Run("only the owner marks read", func(t *testing.T) {
		err := store.MarkNotificationRead(ctx, a.ID, n.ID, time.Now().Unix())
		if !apperr.Is(err, apperr.KindNotFound) {
			t.Errorf("expected not found for other user, got %v", err)
		}
		if err := store.MarkNotificationRead(ctx, b.ID, n.ID, time.Now().Unix()); err != nil {
			t.Fatalf("MarkNotificationRead failed: %v", err)
		}
		unread, _ := store.ListNotifications(ctx, b.ID, true, 10)
		if len(unread) != 0 {
			t.Errorf("expected no unread notifications, got %d", len(unread))
		}
	})

	t.Run("mark paid is idempotent", func(t *testing.T) {
		for i := 0; i < 2; i++ {
			if err := store.MarkBalancePaid(ctx, bn.ID, time.Now().Unix()); err != nil {
				t.Fatalf("MarkBalancePaid #%d failed: %v", i+1, err)
			}
		}
		paid, _ := store.ListBalanceNotifications(ctx, b.ID, models.BalanceMarkedAsPaid)
		if len(paid) != 1 {
			t.Errorf("expected one paid row, got %d", len(paid))
		}
	})
}

func TestSettlements(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	a := createUser(t, store, "a@example.com")
	b := createUser(t, store, "b@example.com")
	group := createGroup(t, store, a, b)

	settlement := &models.Settlement{GroupID: group.ID, FromUserID: b.ID, ToUserID: a.ID, Amount: d("100"), Currency: "SAR", CreatedBy: b.ID}
	if err := store.CreateSettlement(ctx, settlement); err != nil {
		t.Fatalf("CreateSettlement failed: %v", err)
	}
	if settlement.Status != models.SettlementPending {
		t.Errorf("Status = %s, want pending", settlement.Status)
	}

	tests := []struct {
		name     string
		status   models.SettlementStatus
		wantKind apperr.Kind
	}{
		{"confirm", models.SettlementConfirmed, apperr.KindUnknown},
		{"confirm again is a no-op", models.SettlementConfirmed, apperr.KindUnknown},
		{"dispute after confirm conflicts", models.SettlementDisputed, apperr.KindConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.RespondSettlement(ctx, settlement.ID, tt.status, time.Now().Unix())
			if tt.wantKind == apperr.KindUnknown {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !apperr.Is(err, tt.wantKind) {
				t.Fatalf("expected %s, got %v", tt.wantKind, err)
			}
		})
	}

	list, _ := store.ListSettlementsByGroup(ctx, group.ID)
	if len(list) != 1 || list[0].Status != models.SettlementConfirmed || list[0].RespondedAt == 0 {
		t.Errorf("ListSettlementsByGroup = %+v", list)
	}
}

func TestPlans(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	owner := createUser(t, store, "owner@example.com")

	plan := &models.Plan{OwnerID: owner.ID, Name: "AlUla", Currency: "SAR", Budget: d("3000")}
	if err := store.CreatePlan(ctx, plan); err != nil {
		t.Fatalf("CreatePlan failed: %v", err)
	}

	if err := store.UpdatePlanStatus(ctx, plan.ID, models.PlanDraft, models.PlanPlanning, time.Now().Unix()); err != nil {
		t.Fatalf("UpdatePlanStatus failed: %v", err)
	}
	err := store.UpdatePlanStatus(ctx, plan.ID, models.PlanDraft, models.PlanPlanning, time.Now().Unix())
	if !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("stale status: expected conflict, got %v", err)
	}

	group := &models.Group{Name: plan.Name, Currency: plan.Currency, OwnerID: owner.ID}
	if err := store.ConvertPlanToGroup(ctx, plan.ID, group); err != nil {
		t.Fatalf("ConvertPlanToGroup failed: %v", err)
	}
	got, _ := store.GetPlan(ctx, plan.ID)
	if got.GroupID != group.ID {
		t.Errorf("GroupID = %q, want %q", got.GroupID, group.ID)
	}
	if m, err := store.GetMember(ctx, group.ID, owner.ID); err != nil || m.Role != models.RoleOwner {
		t.Errorf("owner membership = %+v, %v", m, err)
	}

	again := &models.Group{Name: "again", Currency: "SAR", OwnerID: owner.ID}
	if err := store.ConvertPlanToGroup(ctx, plan.ID, again); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("second convert: expected conflict, got %v", err)
	}
	if _, err := store.GetGroup(ctx, again.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("rolled back group should not exist, got %v", err)
	}
	if err := store.LinkPlanToGroup(ctx, plan.ID, group.ID, time.Now().Unix()); !apperr.Is(err, apperr.KindConflict) {
		t.Errorf("link linked plan: expected conflict, got %v", err)
	}
}

func TestCheckinsAndPurchases(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()
	user := createUser(t, store, "user@example.com")

	if _, err := store.GetLatestCheckin(ctx, user.ID); !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found before first check-in, got %v", err)
	}

	checkin := &models.Checkin{UserID: user.ID, Date: "2026-03-01", Streak: 1, Reward: 5}
	if err := store.RecordCheckin(ctx, checkin); err != nil {
		t.Fatalf("RecordCheckin failed: %v", err)
	}
	dup := &models.Checkin{UserID: user.ID, Date: "2026-03-01", Streak: 1, Reward: 5}
	if err := store.RecordCheckin(ctx, dup); !apperr.Is(err, apperr.KindDuplicateKey) {
		t.Fatalf("duplicate check-in: expected duplicate key, got %v", err)
	}

	purchase := &models.CreditPurchase{UserID: user.ID, PackageCode: "credits_100", Credits: 100, AmountMinor: 1000, Currency: "SAR"}
	if err := store.CreatePurchase(ctx, purchase); err != nil {
		t.Fatalf("CreatePurchase failed: %v", err)
	}
	completed, err := store.CompletePurchase(ctx, purchase.ID, "pay_1", time.Now().Unix())
	if err != nil || !completed {
		t.Fatalf("CompletePurchase = %v, %v", completed, err)
	}
	completed, err = store.CompletePurchase(ctx, purchase.ID, "pay_1", time.Now().Unix())
	if err != nil || completed {
		t.Fatalf("replayed CompletePurchase = %v, %v; want false, nil", completed, err)
	}
	if _, err := store.CompletePurchase(ctx, "missing", "pay_2", time.Now().Unix()); !apperr.Is(err, apperr.KindNotFound) {
		t.Errorf("missing purchase: expected not found, got %v", err)
	}

	got, _ := store.GetUserByID(ctx, user.ID)
	if got.Credits != 105 {
		t.Errorf("Credits = %d, want 105 (check-in 5 + purchase 100)", got.Credits)
	}

	scan := &models.ReceiptScan{UserID: user.ID, FilePath: "r/1.jpg", RawText: "TOTAL 10.00",
		Total: decimal.NewNullDecimal(d("10.00"))}
	if err := store.CreateReceiptScan(ctx, scan); err != nil {
		t.Fatalf("CreateReceiptScan failed: %v", err)
	}
	if n, _ := store.CountReceiptScansSince(ctx, user.ID, 0); n != 1 {
		t.Errorf("CountReceiptScansSince = %d, want 1", n)
	}
}
