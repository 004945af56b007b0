package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Share is one member's portion of an expense.
type Share struct {
	MemberID string
	Amount   decimal.Decimal
}

// EqualSplit divides amount among members at the currency's minor-unit
// precision. Leftover minor units go one each to the first members, so the
// shares always sum to amount exactly.
//
// Example: 100.00 among three → 33.34, 33.33, 33.33.
func EqualSplit(amount decimal.Decimal, members []string, places int32) ([]Share, error) {
	if len(members) == 0 {
		return nil, fmt.Errorf("must have at least one member")
	}
	if !amount.IsPositive() {
		return nil, fmt.Errorf("amount must be positive")
	}
	if !amount.Equal(amount.Round(places)) {
		return nil, fmt.Errorf("amount %s has more than %d decimal places", amount, places)
	}
	if err := checkUnique(members); err != nil {
		return nil, err
	}

	unit := decimal.New(1, -places)
	n := decimal.NewFromInt(int64(len(members)))
	base := amount.Div(n).RoundDown(places)
	remainder := amount.Sub(base.Mul(n))
	extra := remainder.Div(unit).IntPart()

	shares := make([]Share, len(members))
	for i, m := range members {
		share := base
		if int64(i) < extra {
			share = share.Add(unit)
		}
		shares[i] = Share{MemberID: m, Amount: share}
	}
	return shares, nil
}

// ValidateShares checks that explicit shares are positive, reference each
// member at most once, and sum to amount exactly.
func ValidateShares(amount decimal.Decimal, shares []Share) error {
	if len(shares) == 0 {
		return fmt.Errorf("must have at least one split")
	}
	ids := make([]string, len(shares))
	sum := decimal.Zero
	for i, s := range shares {
		if s.MemberID == "" {
			return fmt.Errorf("split %d has no member", i+1)
		}
		if !s.Amount.IsPositive() {
			return fmt.Errorf("split for %s must be positive", s.MemberID)
		}
		ids[i] = s.MemberID
		sum = sum.Add(s.Amount)
	}
	if err := checkUnique(ids); err != nil {
		return err
	}
	if !sum.Equal(amount) {
		return fmt.Errorf("splits sum to %s, expense amount is %s", sum, amount)
	}
	return nil
}

func checkUnique(ids []string) error {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			return fmt.Errorf("member %s listed more than once", id)
		}
		seen[id] = true
	}
	return nil
}
