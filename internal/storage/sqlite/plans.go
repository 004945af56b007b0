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

// CreatePlan persists a new plan.
func (s *SQLiteStore) CreatePlan(ctx context.Context, plan *models.Plan) error {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if plan.CreatedAt == 0 {
		plan.CreatedAt = now
	}
	plan.UpdatedAt = plan.CreatedAt
	if plan.Status == "" {
		plan.Status = models.PlanDraft
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO plans (id, owner_id, name, destination, currency, budget, start_date, end_date, status, group_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		plan.ID, plan.OwnerID, plan.Name, plan.Destination, plan.Currency, plan.Budget,
		plan.StartDate, plan.EndDate, plan.Status, nullString(plan.GroupID), plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return insertErr(err, "plan")
	}
	return nil
}

// GetPlan retrieves a plan by ID.
func (s *SQLiteStore) GetPlan(ctx context.Context, planID string) (*models.Plan, error) {
	plan, err := scanPlan(s.db.QueryRowContext(ctx, planSelect+" WHERE id = ?", planID))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("plan not found: %s", planID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return plan, nil
}

// ListPlansByOwner retrieves a user's plans, most recently updated first.
func (s *SQLiteStore) ListPlansByOwner(ctx context.Context, ownerID string) ([]*models.Plan, error) {
	rows, err := s.db.QueryContext(ctx, planSelect+" WHERE owner_id = ? ORDER BY updated_at DESC, id", ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate plans: %w", err)
	}
	return plans, nil
}

// UpdatePlanStatus compare-and-sets the plan status.
func (s *SQLiteStore) UpdatePlanStatus(ctx context.Context, planID string, from, to models.PlanStatus, at int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE plans SET status = ?, updated_at = ? WHERE id = ? AND status = ?",
		to, at, planID, from,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetPlan(ctx, planID); err != nil {
			return err
		}
		return apperr.Conflict("plan status changed concurrently")
	}
	return nil
}

// LinkPlanToGroup links a plan to an existing group.
func (s *SQLiteStore) LinkPlanToGroup(ctx context.Context, planID, groupID string, at int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE plans SET group_id = ?, updated_at = ? WHERE id = ? AND group_id IS NULL",
		groupID, at, planID,
	)
	if err != nil {
		return fmt.Errorf("failed to link plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := s.GetPlan(ctx, planID); err != nil {
			return err
		}
		return apperr.Conflict("plan is already linked to a group")
	}
	return nil
}

// ConvertPlanToGroup creates a group from the plan and links them atomically.
func (s *SQLiteStore) ConvertPlanToGroup(ctx context.Context, planID string, group *models.Group) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var groupID sql.NullString
		var status models.PlanStatus
		err := tx.QueryRowContext(ctx, "SELECT group_id, status FROM plans WHERE id = ?", planID).Scan(&groupID, &status)
		if err == sql.ErrNoRows {
			return apperr.NotFound("plan not found: %s", planID)
		}
		if err != nil {
			return fmt.Errorf("failed to get plan: %w", err)
		}
		if groupID.Valid {
			return apperr.Conflict("plan is already linked to a group")
		}
		if status == models.PlanCanceled {
			return apperr.Conflict("canceled plans cannot be converted")
		}

		if err := insertGroup(ctx, tx, group); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"UPDATE plans SET group_id = ?, updated_at = ? WHERE id = ?",
			group.ID, group.CreatedAt, planID,
		)
		if err != nil {
			return fmt.Errorf("failed to link plan: %w", err)
		}
		return nil
	})
}

const planSelect = `
	SELECT id, owner_id, name, destination, currency, budget, start_date, end_date,
	       status, group_id, created_at, updated_at
	FROM plans`

func scanPlan(row scanner) (*models.Plan, error) {
	p := &models.Plan{}
	var groupID sql.NullString
	if err := row.Scan(&p.ID, &p.OwnerID, &p.Name, &p.Destination, &p.Currency, &p.Budget,
		&p.StartDate, &p.EndDate, &p.Status, &groupID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	p.GroupID = groupID.String
	return p, nil
}
