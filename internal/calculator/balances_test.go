package calculator

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCalculateGroupBalances(t *testing.T) {
	t.Run("single expense", func(t *testing.T) {
		expenses := []ExpenseForBalance{{
			PayerID: "A",
			Amount:  d("200"),
			Shares:  []Share{{"A", d("100")}, {"B", d("100")}},
		}}

		balances, debts := CalculateGroupBalances(expenses, nil)

		if len(balances) != 2 {
			t.Fatalf("expected 2 balances, got %d", len(balances))
		}
		if balances[0].MemberID != "A" || !balances[0].NetBalance.Equal(d("100")) {
			t.Errorf("A balance = %+v, want net 100", balances[0])
		}
		if balances[1].MemberID != "B" || !balances[1].NetBalance.Equal(d("-100")) {
			t.Errorf("B balance = %+v, want net -100", balances[1])
		}
		if len(debts) != 1 || debts[0].From != "B" || debts[0].To != "A" || !debts[0].Amount.Equal(d("100")) {
			t.Errorf("debts = %+v, want B->A 100", debts)
		}
	})

	t.Run("settlement clears debt", func(t *testing.T) {
		expenses := []ExpenseForBalance{{
			PayerID: "A",
			Amount:  d("90"),
			Shares:  []Share{{"A", d("30")}, {"B", d("30")}, {"C", d("30")}},
		}}
		settlements := []SettlementForBalance{
			{FromUserID: "B", ToUserID: "A", Amount: d("30")},
		}

		balances, debts := CalculateGroupBalances(expenses, settlements)

		for _, b := range balances {
			if b.MemberID == "B" && !b.NetBalance.IsZero() {
				t.Errorf("B should be settled, got %s", b.NetBalance)
			}
		}
		if len(debts) != 1 || debts[0].From != "C" || !debts[0].Amount.Equal(d("30")) {
			t.Errorf("debts = %+v, want only C->A 30", debts)
		}
	})

	t.Run("debts are simplified", func(t *testing.T) {
		// A pays 60 for A,B,C; B pays 30 for B,C.
		expenses := []ExpenseForBalance{
			{PayerID: "A", Amount: d("60"), Shares: []Share{{"A", d("20")}, {"B", d("20")}, {"C", d("20")}}},
			{PayerID: "B", Amount: d("30"), Shares: []Share{{"B", d("15")}, {"C", d("15")}}},
		}

		balances, debts := CalculateGroupBalances(expenses, nil)

		total := decimal.Zero
		for _, b := range balances {
			total = total.Add(b.NetBalance)
		}
		if !total.IsZero() {
			t.Errorf("net balances must sum to zero, got %s", total)
		}
		// A +40, B -5, C -35 → C->A 35, B->A 5
		if len(debts) != 2 {
			t.Fatalf("expected 2 debts, got %+v", debts)
		}
		if debts[0].From != "C" || !debts[0].Amount.Equal(d("35")) {
			t.Errorf("first debt = %+v, want C->A 35", debts[0])
		}
		if debts[1].From != "B" || !debts[1].Amount.Equal(d("5")) {
			t.Errorf("second debt = %+v, want B->A 5", debts[1])
		}
	})

	t.Run("expense without payer is skipped", func(t *testing.T) {
		balances, debts := CalculateGroupBalances([]ExpenseForBalance{{Amount: d("10")}}, nil)
		if len(balances) != 0 || len(debts) != 0 {
			t.Errorf("expected empty result, got %+v %+v", balances, debts)
		}
	})
}
