package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/models"
)

// CreateExpense persists a new expense and its splits in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	// Generate IDs if not set
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt == 0 {
		expense.CreatedAt = time.Now().Unix()
	}
	if expense.Status == "" {
		expense.Status = models.ExpensePending
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (id, group_id, payer_id, amount, currency, description, status, plan_id, created_by, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.GroupID, expense.PayerID, expense.Amount, expense.Currency,
			expense.Description, expense.Status, nullString(expense.PlanID), expense.CreatedBy, expense.CreatedAt,
		)
		if err != nil {
			return insertErr(err, "expense")
		}

		for i := range expense.Splits {
			split := &expense.Splits[i]
			split.ExpenseID = expense.ID
			_, err = tx.ExecContext(ctx,
				"INSERT INTO expense_splits (expense_id, member_id, share_amount) VALUES (?, ?, ?)",
				split.ExpenseID, split.MemberID, split.ShareAmount,
			)
			if err != nil {
				return insertErr(err, "expense split")
			}
		}
		return nil
	})
}

// GetExpense retrieves an expense by ID, including its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(s.db.QueryRowContext(ctx, expenseSelect+" WHERE id = ?", expenseID))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("expense not found: %s", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	splits, err := s.listSplits(ctx, []string{expense.ID})
	if err != nil {
		return nil, err
	}
	expense.Splits = splits[expense.ID]
	return expense, nil
}

// ListExpensesByGroup retrieves a group's expenses with splits, newest first.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx, expenseSelect+" WHERE group_id = ? ORDER BY created_at DESC, id", groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}

	var expenses []*models.Expense
	var ids []string
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
		ids = append(ids, expense.ID)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	splits, err := s.listSplits(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, e := range expenses {
		e.Splits = splits[e.ID]
	}
	return expenses, nil
}

// ApproveExpense transitions pending → approved and records the audit row.
func (s *SQLiteStore) ApproveExpense(ctx context.Context, approval *models.ExpenseApproval) error {
	if approval.ID == "" {
		approval.ID = uuid.New().String()
	}
	if approval.CreatedAt == 0 {
		approval.CreatedAt = time.Now().Unix()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE expenses SET status = ?, approved_by = ?, approved_at = ? WHERE id = ? AND status = ?",
			models.ExpenseApproved, approval.ApprovedBy, approval.CreatedAt, approval.ExpenseID, models.ExpensePending,
		)
		if err != nil {
			return fmt.Errorf("failed to approve expense: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			var status string
			err := tx.QueryRowContext(ctx, "SELECT status FROM expenses WHERE id = ?", approval.ExpenseID).Scan(&status)
			if err == sql.ErrNoRows {
				return apperr.NotFound("expense not found: %s", approval.ExpenseID)
			}
			if err != nil {
				return fmt.Errorf("failed to check expense status: %w", err)
			}
			return apperr.Conflict("expense is %s, not pending", status)
		}

		_, err = tx.ExecContext(ctx,
			"INSERT INTO expense_approvals (id, expense_id, approved_by, created_at) VALUES (?, ?, ?, ?)",
			approval.ID, approval.ExpenseID, approval.ApprovedBy, approval.CreatedAt,
		)
		if err != nil {
			return insertErr(err, "expense approval")
		}
		return nil
	})
}

// CountExpensesCreatedSince counts expenses a user created at or after since.
func (s *SQLiteStore) CountExpensesCreatedSince(ctx context.Context, userID string, since int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expenses WHERE created_by = ? AND created_at >= ?",
		userID, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count expenses: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) listSplits(ctx context.Context, expenseIDs []string) (map[string][]models.ExpenseSplit, error) {
	result := make(map[string][]models.ExpenseSplit, len(expenseIDs))
	if len(expenseIDs) == 0 {
		return result, nil
	}

	args := make([]interface{}, len(expenseIDs))
	for i, id := range expenseIDs {
		args[i] = id
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT expense_id, member_id, share_amount FROM expense_splits
		 WHERE expense_id IN (`+placeholders(len(expenseIDs))+`) ORDER BY expense_id, member_id`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get expense splits: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var split models.ExpenseSplit
		if err := rows.Scan(&split.ExpenseID, &split.MemberID, &split.ShareAmount); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		result[split.ExpenseID] = append(result[split.ExpenseID], split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return result, nil
}

const expenseSelect = `
	SELECT id, group_id, payer_id, amount, currency, description, status, plan_id,
	       created_by, created_at, approved_by, approved_at
	FROM expenses`

func scanExpense(row scanner) (*models.Expense, error) {
	e := &models.Expense{}
	var planID, approvedBy sql.NullString
	var approvedAt sql.NullInt64
	if err := row.Scan(&e.ID, &e.GroupID, &e.PayerID, &e.Amount, &e.Currency, &e.Description,
		&e.Status, &planID, &e.CreatedBy, &e.CreatedAt, &approvedBy, &approvedAt); err != nil {
		return nil, err
	}
	e.PlanID = planID.String
	e.ApprovedBy = approvedBy.String
	e.ApprovedAt = approvedAt.Int64
	return e, nil
}
