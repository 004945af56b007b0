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

// CreateSettlement persists a new settlement to the database.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	// Generate ID if not set
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}
	if settlement.Status == "" {
		settlement.Status = models.SettlementPending
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, group_id, from_user_id, to_user_id, amount, currency, status, note, created_by, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GroupID, settlement.FromUserID, settlement.ToUserID,
		settlement.Amount, settlement.Currency, settlement.Status, nullString(settlement.Note),
		settlement.CreatedBy, settlement.CreatedAt,
	)
	if err != nil {
		return insertErr(err, "settlement")
	}

	return nil
}

// GetSettlement retrieves a settlement by ID.
func (s *SQLiteStore) GetSettlement(ctx context.Context, settlementID string) (*models.Settlement, error) {
	settlement, err := scanSettlement(s.db.QueryRowContext(ctx, settlementSelect+" WHERE id = ?", settlementID))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("settlement not found: %s", settlementID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement: %w", err)
	}
	return settlement, nil
}

// ListSettlementsByGroup retrieves all settlements for a group.
func (s *SQLiteStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		settlementSelect+" WHERE group_id = ? ORDER BY created_at DESC, id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement, err := scanSettlement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlements = append(settlements, settlement)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}

	return settlements, nil
}

// RespondSettlement records the recipient's confirmation or dispute.
func (s *SQLiteStore) RespondSettlement(ctx context.Context, settlementID string, status models.SettlementStatus, at int64) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var current models.SettlementStatus
		err := tx.QueryRowContext(ctx, "SELECT status FROM settlements WHERE id = ?", settlementID).Scan(&current)
		if err == sql.ErrNoRows {
			return apperr.NotFound("settlement not found: %s", settlementID)
		}
		if err != nil {
			return fmt.Errorf("failed to get settlement status: %w", err)
		}

		switch current {
		case status:
			return nil
		case models.SettlementPending:
		default:
			return apperr.Conflict("settlement already %s", current)
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE settlements SET status = ?, responded_at = ? WHERE id = ? AND status = ?",
			status, at, settlementID, models.SettlementPending,
		)
		if err != nil {
			return fmt.Errorf("failed to update settlement: %w", err)
		}
		return nil
	})
}

const settlementSelect = `
	SELECT id, group_id, from_user_id, to_user_id, amount, currency, status, note,
	       created_by, created_at, responded_at
	FROM settlements`

func scanSettlement(row scanner) (*models.Settlement, error) {
	settlement := &models.Settlement{}
	var note sql.NullString
	var respondedAt sql.NullInt64
	if err := row.Scan(&settlement.ID, &settlement.GroupID, &settlement.FromUserID, &settlement.ToUserID,
		&settlement.Amount, &settlement.Currency, &settlement.Status, &note,
		&settlement.CreatedBy, &settlement.CreatedAt, &respondedAt); err != nil {
		return nil, err
	}
	settlement.Note = note.String
	settlement.RespondedAt = respondedAt.Int64
	return settlement, nil
}
