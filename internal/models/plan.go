package models

import "github.com/shopspring/decimal"

// PlanStatus is the lifecycle of a trip/event plan.
type PlanStatus string

const (
	PlanDraft    PlanStatus = "draft"
	PlanPlanning PlanStatus = "planning"
	PlanLocked   PlanStatus = "locked"
	PlanDone     PlanStatus = "done"
	PlanCanceled PlanStatus = "canceled"
)

var planTransitions = map[PlanStatus][]PlanStatus{
	PlanDraft:    {PlanPlanning, PlanCanceled},
	PlanPlanning: {PlanLocked, PlanDraft, PlanCanceled},
	PlanLocked:   {PlanDone, PlanPlanning, PlanCanceled},
}

// Valid reports whether s is a known status.
func (s PlanStatus) Valid() bool {
	switch s {
	case PlanDraft, PlanPlanning, PlanLocked, PlanDone, PlanCanceled:
		return true
	}
	return false
}

// CanTransitionTo reports whether a plan may move from s to next.
// done and canceled are terminal.
func (s PlanStatus) CanTransitionTo(next PlanStatus) bool {
	for _, allowed := range planTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Plan is a pre-expense trip or event. Once expenses begin it is converted
// into (or linked to) a Group.
type Plan struct {
	ID          string
	OwnerID     string
	Name        string
	Destination string
	Currency    string
	Budget      decimal.Decimal
	StartDate   string // YYYY-MM-DD, optional
	EndDate     string // YYYY-MM-DD, optional
	Status      PlanStatus
	GroupID     string
	CreatedAt   int64
	UpdatedAt   int64
}
