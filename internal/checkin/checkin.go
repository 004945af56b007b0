// Package checkin implements daily check-in streaks and their weekly rewards.
package checkin

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/models"
)

// Rewards are the credits granted for each day of the 7-day cycle.
var Rewards = [7]int64{5, 5, 10, 10, 15, 20, 50}

const dateLayout = "2006-01-02"

// DaySlot is one day of the weekly progress strip.
type DaySlot struct {
	Day       int   `json:"day"`
	Reward    int64 `json:"reward"`
	Completed bool  `json:"completed"`
	IsToday   bool  `json:"is_today"`
}

// DayInWeek maps a streak onto the 7-day cycle: 0 for no streak, otherwise
// 1..7, wrapping after every seventh day.
func DayInWeek(streak int) int {
	if streak <= 0 {
		return 0
	}
	return (streak-1)%7 + 1
}

// RewardForStreak is the reward earned on the day that brings the streak to
// streak.
func RewardForStreak(streak int) int64 {
	day := DayInWeek(streak)
	if day == 0 {
		return 0
	}
	return Rewards[day-1]
}

// CalculateWeekProgress builds the 7 slots for the current cycle. Exactly one
// slot is today: the slot just checked in, or the next one to claim.
func CalculateWeekProgress(currentStreak int, checkedInToday bool) []DaySlot {
	dayInWeek := DayInWeek(currentStreak)

	var today int
	if checkedInToday {
		today = max(dayInWeek, 1)
	} else {
		today = dayInWeek%7 + 1
	}

	slots := make([]DaySlot, 7)
	for i := range slots {
		day := i + 1
		completed := day < today
		if checkedInToday {
			completed = day <= dayInWeek
		}
		slots[i] = DaySlot{
			Day:       day,
			Reward:    Rewards[i],
			Completed: completed,
			IsToday:   day == today,
		}
	}
	return slots
}

// Store is the persistence the check-in service needs.
type Store interface {
	GetLatestCheckin(ctx context.Context, userID string) (*models.Checkin, error)
	RecordCheckin(ctx context.Context, checkin *models.Checkin) error
}

// Service processes check-ins against calendar days in a fixed timezone.
type Service struct {
	store  Store
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// NewService creates a check-in service. Calendar days are taken in loc.
func NewService(store Store, loc *time.Location, logger *slog.Logger) *Service {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, loc: loc, now: time.Now, logger: logger}
}

// Status is the caller's current streak state.
type Status struct {
	CurrentStreak  int       `json:"current_streak"`
	CheckedInToday bool      `json:"checked_in_today"`
	Week           []DaySlot `json:"week"`
}

// Result is the outcome of Process.
type Result struct {
	AlreadyCheckedIn bool      `json:"already_checked_in"`
	Streak           int       `json:"streak"`
	Reward           int64     `json:"reward"`
	Week             []DaySlot `json:"week"`
}

func (s *Service) days() (today, yesterday string) {
	now := s.now().In(s.loc)
	return now.Format(dateLayout), now.AddDate(0, 0, -1).Format(dateLayout)
}

func (s *Service) latest(ctx context.Context, userID string) (*models.Checkin, error) {
	last, err := s.store.GetLatestCheckin(ctx, userID)
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest check-in: %w", err)
	}
	return last, nil
}

// Status reports the live streak. A streak whose last check-in is older than
// yesterday has lapsed and reads as zero.
func (s *Service) Status(ctx context.Context, userID string) (*Status, error) {
	last, err := s.latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	today, yesterday := s.days()

	st := &Status{}
	if last != nil {
		switch last.Date {
		case today:
			st.CurrentStreak, st.CheckedInToday = last.Streak, true
		case yesterday:
			st.CurrentStreak = last.Streak
		}
	}
	st.Week = CalculateWeekProgress(st.CurrentStreak, st.CheckedInToday)
	return st, nil
}

// Process records today's check-in. Checking in on consecutive days extends
// the streak; missing a day resets it to 1. A second check-in on the same day
// writes nothing and reports AlreadyCheckedIn.
func (s *Service) Process(ctx context.Context, userID string) (*Result, error) {
	last, err := s.latest(ctx, userID)
	if err != nil {
		return nil, err
	}
	today, yesterday := s.days()

	if last != nil && last.Date == today {
		return alreadyCheckedIn(last.Streak), nil
	}

	streak := 1
	if last != nil && last.Date == yesterday {
		streak = last.Streak + 1
	}
	checkin := &models.Checkin{
		UserID: userID,
		Date:   today,
		Streak: streak,
		Reward: RewardForStreak(streak),
	}

	if err := s.store.RecordCheckin(ctx, checkin); err != nil {
		if apperr.Is(err, apperr.KindDuplicateKey) {
			// Lost a race with a concurrent check-in for the same day.
			current, err := s.latest(ctx, userID)
			if err != nil {
				return nil, err
			}
			if current != nil {
				streak = current.Streak
			}
			return alreadyCheckedIn(streak), nil
		}
		return nil, fmt.Errorf("failed to record check-in: %w", err)
	}

	s.logger.Info("daily check-in", "user_id", userID, "streak", streak, "reward", checkin.Reward)
	return &Result{
		Streak: streak,
		Reward: checkin.Reward,
		Week:   CalculateWeekProgress(streak, true),
	}, nil
}

func alreadyCheckedIn(streak int) *Result {
	return &Result{
		AlreadyCheckedIn: true,
		Streak:           streak,
		Week:             CalculateWeekProgress(streak, true),
	}
}
