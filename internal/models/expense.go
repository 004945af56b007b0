package models

import "github.com/shopspring/decimal"

// ExpenseStatus is the approval state of an expense.
type ExpenseStatus string

const (
	ExpensePending  ExpenseStatus = "pending"
	ExpenseApproved ExpenseStatus = "approved"
)

// Expense is an amount paid by one member on behalf of the group.
type Expense struct {
	ID          string
	GroupID     string
	PayerID     string
	Amount      decimal.Decimal
	Currency    string
	Description string
	Status      ExpenseStatus

	// PlanID optionally links the expense to the plan it was budgeted under.
	PlanID string

	CreatedBy  string
	CreatedAt  int64
	ApprovedBy string
	ApprovedAt int64

	Splits []ExpenseSplit
}

// ExpenseSplit is one member's allocated share of an expense.
type ExpenseSplit struct {
	ExpenseID   string
	MemberID    string
	ShareAmount decimal.Decimal
}

// ExpenseApproval is the audit row written when an expense is approved.
type ExpenseApproval struct {
	ID         string
	ExpenseID  string
	ApprovedBy string
	CreatedAt  int64
}
