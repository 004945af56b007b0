// Package quota enforces subscription-tier usage ceilings.
package quota

import (
	"context"
	"fmt"
	"time"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/models"
)

// Limits are the ceilings for one tier. Monthly limits count from the first
// day of the calendar month.
type Limits struct {
	Groups           int
	MembersPerGroup  int
	ExpensesPerMonth int
	OCRPerMonth      int
}

var tierLimits = map[models.Tier]Limits{
	models.TierFree: {Groups: 3, MembersPerGroup: 10, ExpensesPerMonth: 100, OCRPerMonth: 10},
	models.TierPro:  {Groups: 50, MembersPerGroup: 100, ExpensesPerMonth: 5000, OCRPerMonth: 500},
}

// For returns the limits of tier. Unknown tiers get the free limits.
func For(tier models.Tier) Limits {
	if l, ok := tierLimits[tier]; ok {
		return l
	}
	return tierLimits[models.TierFree]
}

// Store is the persistence the checker counts against.
type Store interface {
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	CountOwnedGroups(ctx context.Context, userID string) (int, error)
	CountMembers(ctx context.Context, groupID string) (int, error)
	CountExpensesCreatedSince(ctx context.Context, userID string, since int64) (int, error)
	CountReceiptScansSince(ctx context.Context, userID string, since int64) (int, error)
}

// Checker answers "may this user do one more X".
type Checker struct {
	store Store
	loc   *time.Location
	now   func() time.Time
}

// NewChecker creates a checker. Months are calendar months in loc.
func NewChecker(store Store, loc *time.Location) *Checker {
	if loc == nil {
		loc = time.UTC
	}
	return &Checker{store: store, loc: loc, now: time.Now}
}

func (c *Checker) limits(ctx context.Context, userID string) (Limits, error) {
	user, err := c.store.GetUserByID(ctx, userID)
	if err != nil {
		return Limits{}, err
	}
	return For(user.Tier), nil
}

func (c *Checker) monthStart() int64 {
	now := c.now().In(c.loc)
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, c.loc).Unix()
}

func exceeded(what string, limit int) error {
	return apperr.New(apperr.KindQuotaExceeded, "%s limit of %d reached for your plan", what, limit)
}

// CheckCreateGroup fails when the user already owns the maximum number of groups.
func (c *Checker) CheckCreateGroup(ctx context.Context, userID string) error {
	l, err := c.limits(ctx, userID)
	if err != nil {
		return err
	}
	n, err := c.store.CountOwnedGroups(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to count groups: %w", err)
	}
	if n >= l.Groups {
		return exceeded("group", l.Groups)
	}
	return nil
}

// CheckAddMember fails when the group is full for its owner's tier. Pending
// invites count towards the limit.
func (c *Checker) CheckAddMember(ctx context.Context, group *models.Group) error {
	l, err := c.limits(ctx, group.OwnerID)
	if err != nil {
		return err
	}
	n, err := c.store.CountMembers(ctx, group.ID)
	if err != nil {
		return fmt.Errorf("failed to count members: %w", err)
	}
	if n >= l.MembersPerGroup {
		return exceeded("member", l.MembersPerGroup)
	}
	return nil
}

// CheckCreateExpense fails when the user created the monthly maximum already.
func (c *Checker) CheckCreateExpense(ctx context.Context, userID string) error {
	l, err := c.limits(ctx, userID)
	if err != nil {
		return err
	}
	n, err := c.store.CountExpensesCreatedSince(ctx, userID, c.monthStart())
	if err != nil {
		return fmt.Errorf("failed to count expenses: %w", err)
	}
	if n >= l.ExpensesPerMonth {
		return exceeded("monthly expense", l.ExpensesPerMonth)
	}
	return nil
}

// CheckOCR fails when the user used all receipt scans for this month.
func (c *Checker) CheckOCR(ctx context.Context, userID string) error {
	l, err := c.limits(ctx, userID)
	if err != nil {
		return err
	}
	n, err := c.store.CountReceiptScansSince(ctx, userID, c.monthStart())
	if err != nil {
		return fmt.Errorf("failed to count receipt scans: %w", err)
	}
	if n >= l.OCRPerMonth {
		return exceeded("monthly receipt scan", l.OCRPerMonth)
	}
	return nil
}
