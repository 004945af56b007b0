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

// GetLatestCheckin returns the user's most recent check-in.
func (s *SQLiteStore) GetLatestCheckin(ctx context.Context, userID string) (*models.Checkin, error) {
	c := &models.Checkin{}
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, checkin_date, streak, reward, created_at FROM daily_checkins
		 WHERE user_id = ? ORDER BY checkin_date DESC LIMIT 1`,
		userID,
	).Scan(&c.UserID, &c.Date, &c.Streak, &c.Reward, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("no check-ins yet")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest check-in: %w", err)
	}
	return c, nil
}

// RecordCheckin inserts the check-in and credits its reward.
func (s *SQLiteStore) RecordCheckin(ctx context.Context, checkin *models.Checkin) error {
	if checkin.CreatedAt == 0 {
		checkin.CreatedAt = time.Now().Unix()
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO daily_checkins (user_id, checkin_date, streak, reward, created_at)
			 VALUES (?, ?, ?, ?, ?)`,
			checkin.UserID, checkin.Date, checkin.Streak, checkin.Reward, checkin.CreatedAt,
		)
		if err != nil {
			return insertErr(err, "check-in")
		}
		return addCredits(ctx, tx, checkin.UserID, checkin.Reward, checkin.CreatedAt)
	})
}

// CreatePurchase persists a pending credit purchase.
func (s *SQLiteStore) CreatePurchase(ctx context.Context, p *models.CreditPurchase) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}
	if p.Status == "" {
		p.Status = models.PurchasePending
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO credit_purchases (id, user_id, package_code, credits, amount_minor, currency, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.PackageCode, p.Credits, p.AmountMinor, p.Currency, p.Status, p.CreatedAt,
	)
	if err != nil {
		return insertErr(err, "credit purchase")
	}
	return nil
}

// GetPurchase retrieves a credit purchase by ID.
func (s *SQLiteStore) GetPurchase(ctx context.Context, purchaseID string) (*models.CreditPurchase, error) {
	p := &models.CreditPurchase{}
	var paymentID sql.NullString
	var completedAt sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, package_code, credits, amount_minor, currency, status, payment_id, created_at, completed_at
		 FROM credit_purchases WHERE id = ?`,
		purchaseID,
	).Scan(&p.ID, &p.UserID, &p.PackageCode, &p.Credits, &p.AmountMinor, &p.Currency, &p.Status,
		&paymentID, &p.CreatedAt, &completedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("purchase not found: %s", purchaseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get purchase: %w", err)
	}
	p.PaymentID = paymentID.String
	p.CompletedAt = completedAt.Int64
	return p, nil
}

// CompletePurchase marks a pending purchase completed and grants its credits.
// The conditional UPDATE makes a replayed completion a no-op.
func (s *SQLiteStore) CompletePurchase(ctx context.Context, purchaseID, paymentID string, at int64) (bool, error) {
	completed := false
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE credit_purchases SET status = ?, payment_id = ?, completed_at = ?
			 WHERE id = ? AND status = ?`,
			models.PurchaseCompleted, paymentID, at, purchaseID, models.PurchasePending,
		)
		if err != nil {
			return fmt.Errorf("failed to complete purchase: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			var exists int
			err := tx.QueryRowContext(ctx, "SELECT 1 FROM credit_purchases WHERE id = ?", purchaseID).Scan(&exists)
			if err == sql.ErrNoRows {
				return apperr.NotFound("purchase not found: %s", purchaseID)
			}
			return err
		}

		var userID string
		var credits int64
		if err := tx.QueryRowContext(ctx,
			"SELECT user_id, credits FROM credit_purchases WHERE id = ?", purchaseID,
		).Scan(&userID, &credits); err != nil {
			return fmt.Errorf("failed to read purchase: %w", err)
		}
		if err := addCredits(ctx, tx, userID, credits, at); err != nil {
			return err
		}
		completed = true
		return nil
	})
	return completed, err
}

// CreateReceiptScan persists the raw OCR result and extracted fields.
func (s *SQLiteStore) CreateReceiptScan(ctx context.Context, scan *models.ReceiptScan) error {
	if scan.ID == "" {
		scan.ID = uuid.New().String()
	}
	if scan.CreatedAt == 0 {
		scan.CreatedAt = time.Now().Unix()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO receipt_scans (id, user_id, file_path, raw_text, merchant, total, vat, receipt_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		scan.ID, scan.UserID, scan.FilePath, scan.RawText, scan.Merchant, scan.Total, scan.VAT,
		scan.ReceiptDate, scan.CreatedAt,
	)
	if err != nil {
		return insertErr(err, "receipt scan")
	}
	return nil
}

// CountReceiptScansSince counts a user's OCR runs at or after since.
func (s *SQLiteStore) CountReceiptScansSince(ctx context.Context, userID string, since int64) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM receipt_scans WHERE user_id = ? AND created_at >= ?",
		userID, since,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count receipt scans: %w", err)
	}
	return n, nil
}

func addCredits(ctx context.Context, tx *sql.Tx, userID string, credits, at int64) error {
	res, err := tx.ExecContext(ctx,
		"UPDATE users SET credits = credits + ?, updated_at = ? WHERE id = ?",
		credits, at, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to add credits: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("user not found: %s", userID)
	}
	return nil
}
