package notify

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/models"
	"github.com/diviso/diviso/internal/realtime"
	"github.com/diviso/diviso/internal/storage/sqlite"
)

// fakeStore records calls and enforces (user, expense) uniqueness like the
// real store does.
type fakeStore struct {
	upserts       int
	notifications []*models.Notification
	links         map[string]string
	rows          map[string]*models.BalanceNotification

	upsertErr       map[string]error // by user ID
	notificationErr map[string]error // by user ID
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		links:           make(map[string]string),
		rows:            make(map[string]*models.BalanceNotification),
		upsertErr:       make(map[string]error),
		notificationErr: make(map[string]error),
	}
}

func (f *fakeStore) UpsertBalanceNotification(_ context.Context, bn *models.BalanceNotification) (bool, error) {
	f.upserts++
	if err := f.upsertErr[bn.UserID]; err != nil {
		return false, err
	}
	key := bn.UserID + "/" + bn.ExpenseID
	if _, ok := f.rows[key]; ok {
		return false, nil
	}
	bn.ID = uuid.New().String()
	f.rows[key] = bn
	return true, nil
}

func (f *fakeStore) CreateNotification(_ context.Context, n *models.Notification) error {
	if err := f.notificationErr[n.UserID]; err != nil {
		return err
	}
	n.ID = uuid.New().String()
	f.notifications = append(f.notifications, n)
	return nil
}

func (f *fakeStore) LinkBalanceNotification(_ context.Context, balanceID, notificationID string) error {
	f.links[balanceID] = notificationID
	return nil
}

func (f *fakeStore) writes() int {
	return f.upserts + len(f.notifications) + len(f.links)
}

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func expense(payer string, splits ...models.ExpenseSplit) ExpenseInfo {
	return ExpenseInfo{
		ExpenseID:   "exp-1",
		GroupID:     "grp-1",
		GroupName:   "Riyadh trip",
		PayerID:     payer,
		PayerName:   "Alice",
		Description: "Dinner",
		Currency:    "SAR",
		Splits:      splits,
	}
}

func TestSendBalanceNotifications(t *testing.T) {
	ctx := context.Background()

	t.Run("one upsert per debtor", func(t *testing.T) {
		store := newFakeStore()
		n := New(store, nil, nil)
		n.SendBalanceNotifications(ctx, expense("A",
			models.ExpenseSplit{MemberID: "A", ShareAmount: d("30")},
			models.ExpenseSplit{MemberID: "B", ShareAmount: d("30")},
			models.ExpenseSplit{MemberID: "C", ShareAmount: d("30")},
		))

		if store.upserts != 2 {
			t.Errorf("upserts = %d, want 2", store.upserts)
		}
		if len(store.notifications) != 2 || len(store.links) != 2 {
			t.Errorf("notifications = %d, links = %d; want 2, 2", len(store.notifications), len(store.links))
		}
	})

	t.Run("re-invoking does not duplicate", func(t *testing.T) {
		store := newFakeStore()
		n := New(store, nil, nil)
		info := expense("A",
			models.ExpenseSplit{MemberID: "A", ShareAmount: d("50")},
			models.ExpenseSplit{MemberID: "B", ShareAmount: d("50")},
		)
		n.SendBalanceNotifications(ctx, info)
		n.SendBalanceNotifications(ctx, info)

		if len(store.rows) != 1 {
			t.Errorf("balance rows = %d, want 1", len(store.rows))
		}
		if len(store.notifications) != 1 {
			t.Errorf("notifications = %d, want 1", len(store.notifications))
		}
	})

	t.Run("no debtors means no writes", func(t *testing.T) {
		store := newFakeStore()
		n := New(store, nil, nil)
		n.SendBalanceNotifications(ctx, expense("A", models.ExpenseSplit{MemberID: "A", ShareAmount: d("80")}))
		n.SendBalanceNotifications(ctx, expense("A"))

		if store.writes() != 0 {
			t.Errorf("writes = %d, want 0", store.writes())
		}
	})

	t.Run("duplicate key error is treated as already notified", func(t *testing.T) {
		store := newFakeStore()
		store.upsertErr["B"] = apperr.New(apperr.KindDuplicateKey, "balance notification already exists")
		n := New(store, nil, nil)
		n.SendBalanceNotifications(ctx, expense("A",
			models.ExpenseSplit{MemberID: "B", ShareAmount: d("10")},
			models.ExpenseSplit{MemberID: "C", ShareAmount: d("10")},
		))

		if len(store.notifications) != 1 || store.notifications[0].UserID != "C" {
			t.Errorf("expected only C to be notified, got %+v", store.notifications)
		}
	})

	t.Run("other upsert errors skip the debtor", func(t *testing.T) {
		store := newFakeStore()
		store.upsertErr["B"] = errors.New("disk I/O error")
		n := New(store, nil, nil)
		n.SendBalanceNotifications(ctx, expense("A",
			models.ExpenseSplit{MemberID: "B", ShareAmount: d("10")},
			models.ExpenseSplit{MemberID: "C", ShareAmount: d("10")},
		))

		if store.upserts != 2 {
			t.Errorf("upserts = %d, want 2 (processing continues)", store.upserts)
		}
		if len(store.notifications) != 1 {
			t.Errorf("notifications = %d, want 1", len(store.notifications))
		}
	})

	t.Run("notification failure leaves the balance row unlinked", func(t *testing.T) {
		store := newFakeStore()
		store.notificationErr["B"] = errors.New("insert failed")
		n := New(store, nil, nil)
		n.SendBalanceNotifications(ctx, expense("A",
			models.ExpenseSplit{MemberID: "B", ShareAmount: d("10")},
			models.ExpenseSplit{MemberID: "C", ShareAmount: d("10")},
		))

		if len(store.rows) != 2 {
			t.Errorf("balance rows = %d, want 2", len(store.rows))
		}
		if len(store.links) != 1 {
			t.Errorf("links = %d, want 1", len(store.links))
		}
	})

	t.Run("payload carries the expense context", func(t *testing.T) {
		store := newFakeStore()
		n := New(store, nil, nil)
		n.SendBalanceNotifications(ctx, expense("A", models.ExpenseSplit{MemberID: "B", ShareAmount: d("12.5")}))

		if len(store.notifications) != 1 {
			t.Fatalf("notifications = %d, want 1", len(store.notifications))
		}
		fields := store.notifications[0].Payload.GetFields()
		want := map[string]string{
			"amount":              "12.50",
			"currency":            "SAR",
			"group_name":          "Riyadh trip",
			"payer_name":          "Alice",
			"expense_description": "Dinner",
		}
		for k, v := range want {
			if got := fields[k].GetStringValue(); got != v {
				t.Errorf("payload[%s] = %q, want %q", k, got, v)
			}
		}
		var balanceID string
		for _, row := range store.rows {
			balanceID = row.ID
		}
		if got := fields["balance_notification_id"].GetStringValue(); got != balanceID {
			t.Errorf("balance_notification_id = %q, want %q", got, balanceID)
		}
	})
}

// A 200 SAR expense split evenly between A (payer) and B produces exactly one
// balance notification for B, linked to its inbox entry.
func TestSendBalanceNotificationsEndToEnd(t *testing.T) {
	ctx := context.Background()
	store, err := sqlite.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer store.Close()

	a := models.NewUser("a@example.com", "A", "hash")
	b := models.NewUser("b@example.com", "B", "hash")
	for _, u := range []*models.User{a, b} {
		if err := store.CreateUser(ctx, u); err != nil {
			t.Fatalf("CreateUser failed: %v", err)
		}
	}
	group := &models.Group{Name: "Trip", Currency: "SAR", OwnerID: a.ID}
	if err := store.CreateGroup(ctx, group); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	exp := &models.Expense{
		GroupID: group.ID, PayerID: a.ID, Amount: d("200"), Currency: "SAR", Description: "Hotel", CreatedBy: a.ID,
		Splits: []models.ExpenseSplit{
			{MemberID: a.ID, ShareAmount: d("100")},
			{MemberID: b.ID, ShareAmount: d("100")},
		},
	}
	if err := store.CreateExpense(ctx, exp); err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	registry := realtime.NewRegistry(4, nil)
	inbox := registry.Acquire(realtime.Subscription{UserID: b.ID, Tables: []string{"notifications"}})
	defer registry.Release(inbox)

	n := New(store, registry, nil)
	info := ExpenseInfo{
		ExpenseID: exp.ID, GroupID: group.ID, GroupName: group.Name, PayerID: a.ID, PayerName: a.DisplayName,
		Description: exp.Description, Currency: exp.Currency, Splits: exp.Splits,
	}
	n.SendBalanceNotifications(ctx, info)
	n.SendBalanceNotifications(ctx, info)

	forA, _ := store.ListBalanceNotifications(ctx, a.ID, "")
	if len(forA) != 0 {
		t.Errorf("payer got %d balance notifications, want 0", len(forA))
	}
	forB, err := store.ListBalanceNotifications(ctx, b.ID, "")
	if err != nil {
		t.Fatalf("ListBalanceNotifications failed: %v", err)
	}
	if len(forB) != 1 {
		t.Fatalf("B has %d balance notifications, want 1", len(forB))
	}
	if !forB[0].AmountDue.Equal(d("100")) || forB[0].Status != models.BalanceUnpaid {
		t.Errorf("balance notification = %+v", forB[0])
	}

	inboxRows, _ := store.ListNotifications(ctx, b.ID, false, 10)
	if len(inboxRows) != 1 {
		t.Fatalf("B has %d notifications, want 1", len(inboxRows))
	}
	if forB[0].NotificationID != inboxRows[0].ID {
		t.Errorf("notification_id = %q, want %q", forB[0].NotificationID, inboxRows[0].ID)
	}

	select {
	case ev := <-inbox.C():
		if ev.RowID != inboxRows[0].ID {
			t.Errorf("realtime event row = %q, want %q", ev.RowID, inboxRows[0].ID)
		}
	default:
		t.Error("expected a realtime notification event")
	}
}
