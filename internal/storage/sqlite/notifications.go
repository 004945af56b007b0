package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/models"
)

// UpsertBalanceNotification inserts a balance notification unless one already
// exists for (user_id, expense_id). The existing row is left untouched.
func (s *SQLiteStore) UpsertBalanceNotification(ctx context.Context, bn *models.BalanceNotification) (bool, error) {
	if bn.ID == "" {
		bn.ID = uuid.New().String()
	}
	if bn.CreatedAt == 0 {
		bn.CreatedAt = time.Now().Unix()
	}
	if bn.Status == "" {
		bn.Status = models.BalanceUnpaid
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO balance_notifications
		     (id, user_id, group_id, expense_id, payer_id, amount_due, currency, status, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, expense_id) DO NOTHING`,
		bn.ID, bn.UserID, bn.GroupID, bn.ExpenseID, bn.PayerID, bn.AmountDue, bn.Currency, bn.Status, bn.CreatedAt,
	)
	if err != nil {
		return false, insertErr(err, "balance notification")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n == 1, nil
}

// LinkBalanceNotification stores the forward reference to the inbox entry.
func (s *SQLiteStore) LinkBalanceNotification(ctx context.Context, balanceID, notificationID string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE balance_notifications SET notification_id = ? WHERE id = ?",
		notificationID, balanceID,
	)
	if err != nil {
		return fmt.Errorf("failed to link balance notification: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("balance notification not found: %s", balanceID)
	}
	return nil
}

// GetBalanceNotification retrieves a balance notification by ID.
func (s *SQLiteStore) GetBalanceNotification(ctx context.Context, id string) (*models.BalanceNotification, error) {
	bn, err := scanBalance(s.db.QueryRowContext(ctx, balanceSelect+" WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("balance notification not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get balance notification: %w", err)
	}
	return bn, nil
}

// ListBalanceNotifications lists a user's balance notifications, optionally
// filtered by status, newest first.
func (s *SQLiteStore) ListBalanceNotifications(ctx context.Context, userID string, status models.BalanceStatus) ([]*models.BalanceNotification, error) {
	query := balanceSelect + " WHERE user_id = ?"
	args := []interface{}{userID}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC, id"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list balance notifications: %w", err)
	}
	defer rows.Close()

	var result []*models.BalanceNotification
	for rows.Next() {
		bn, err := scanBalance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan balance notification: %w", err)
		}
		result = append(result, bn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate balance notifications: %w", err)
	}
	return result, nil
}

// MarkBalancePaid moves unpaid → marked_as_paid. Marking twice is a no-op.
func (s *SQLiteStore) MarkBalancePaid(ctx context.Context, id string, at int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE balance_notifications SET status = ?, paid_at = ? WHERE id = ? AND status = ?",
		models.BalanceMarkedAsPaid, at, id, models.BalanceUnpaid,
	)
	if err != nil {
		return fmt.Errorf("failed to mark balance paid: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// Either already paid (fine) or missing.
		if _, err := s.GetBalanceNotification(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// CreateNotification persists an inbox entry. The payload is stored as JSON.
func (s *SQLiteStore) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt == 0 {
		n.CreatedAt = time.Now().Unix()
	}

	payload := []byte("{}")
	if n.Payload != nil {
		var err error
		payload, err = protojson.Marshal(n.Payload)
		if err != nil {
			return fmt.Errorf("failed to encode notification payload: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO notifications (id, user_id, type, payload, created_at) VALUES (?, ?, ?, ?, ?)",
		n.ID, n.UserID, n.Type, string(payload), n.CreatedAt,
	)
	if err != nil {
		return insertErr(err, "notification")
	}
	return nil
}

// ListNotifications lists a user's notifications, newest first.
func (s *SQLiteStore) ListNotifications(ctx context.Context, userID string, unreadOnly bool, limit int) ([]*models.Notification, error) {
	query := "SELECT id, user_id, type, payload, read_at, created_at FROM notifications WHERE user_id = ?"
	if unreadOnly {
		query += " AND read_at IS NULL"
	}
	query += " ORDER BY created_at DESC, id LIMIT ?"
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var result []*models.Notification
	for rows.Next() {
		n := &models.Notification{}
		var payload string
		var readAt sql.NullInt64
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &payload, &readAt, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.ReadAt = readAt.Int64
		n.Payload = &structpb.Struct{}
		if err := protojson.Unmarshal([]byte(payload), n.Payload); err != nil {
			return nil, fmt.Errorf("failed to decode notification payload: %w", err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate notifications: %w", err)
	}
	return result, nil
}

// MarkNotificationRead stamps read_at once. Only the owner may mark it.
func (s *SQLiteStore) MarkNotificationRead(ctx context.Context, userID, notificationID string, at int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE notifications SET read_at = COALESCE(read_at, ?) WHERE id = ? AND user_id = ?",
		at, notificationID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("notification not found: %s", notificationID)
	}
	return nil
}

const balanceSelect = `
	SELECT id, user_id, group_id, expense_id, payer_id, amount_due, currency, status,
	       notification_id, created_at, paid_at
	FROM balance_notifications`

func scanBalance(row scanner) (*models.BalanceNotification, error) {
	bn := &models.BalanceNotification{}
	var notificationID sql.NullString
	var paidAt sql.NullInt64
	if err := row.Scan(&bn.ID, &bn.UserID, &bn.GroupID, &bn.ExpenseID, &bn.PayerID, &bn.AmountDue,
		&bn.Currency, &bn.Status, &notificationID, &bn.CreatedAt, &paidAt); err != nil {
		return nil, err
	}
	bn.NotificationID = notificationID.String
	bn.PaidAt = paidAt.Int64
	return bn, nil
}
