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

// CreateGroup persists a new group and its owner membership.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertGroup(ctx, tx, group)
	})
}

func insertGroup(ctx context.Context, tx *sql.Tx, group *models.Group) error {
	// Generate ID if not set
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	_, err := tx.ExecContext(ctx,
		"INSERT INTO groups (id, name, currency, owner_id, created_at) VALUES (?, ?, ?, ?, ?)",
		group.ID, group.Name, group.Currency, group.OwnerID, group.CreatedAt,
	)
	if err != nil {
		return insertErr(err, "group")
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role, status, joined_at)
		 VALUES (?, ?, ?, ?, ?)`,
		group.ID, group.OwnerID, models.RoleOwner, models.MemberActive, group.CreatedAt,
	)
	if err != nil {
		return insertErr(err, "group owner membership")
	}
	return nil
}

// GetGroup retrieves a group by ID, archived or not.
func (s *SQLiteStore) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group := &models.Group{}
	var archivedAt sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, currency, owner_id, created_at, archived_at FROM groups WHERE id = ?",
		groupID,
	).Scan(&group.ID, &group.Name, &group.Currency, &group.OwnerID, &group.CreatedAt, &archivedAt)
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("group not found: %s", groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	group.ArchivedAt = archivedAt.Int64
	return group, nil
}

// ListGroupsForUser retrieves the active groups the user actively belongs to.
func (s *SQLiteStore) ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.currency, g.owner_id, g.created_at
		 FROM groups g
		 JOIN group_members m ON m.group_id = g.id
		 WHERE m.user_id = ? AND m.status = ? AND m.archived_at IS NULL AND g.archived_at IS NULL
		 ORDER BY g.created_at DESC`,
		userID, models.MemberActive,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	defer rows.Close()

	var groups []*models.Group
	for rows.Next() {
		group := &models.Group{}
		if err := rows.Scan(&group.ID, &group.Name, &group.Currency, &group.OwnerID, &group.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan group: %w", err)
		}
		groups = append(groups, group)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate groups: %w", err)
	}
	return groups, nil
}

// ArchiveGroup soft-deletes a group. Archiving twice keeps the first timestamp.
func (s *SQLiteStore) ArchiveGroup(ctx context.Context, groupID string, at int64) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE groups SET archived_at = COALESCE(archived_at, ?) WHERE id = ?",
		at, groupID,
	)
	if err != nil {
		return fmt.Errorf("failed to archive group: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("group not found: %s", groupID)
	}
	return nil
}

// CountOwnedGroups counts the non-archived groups a user owns.
func (s *SQLiteStore) CountOwnedGroups(ctx context.Context, userID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM groups WHERE owner_id = ? AND archived_at IS NULL",
		userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count groups: %w", err)
	}
	return n, nil
}

// AddMember inserts a membership. A previously archived membership is
// revived with the new role and status instead.
func (s *SQLiteStore) AddMember(ctx context.Context, member *models.GroupMember) error {
	if member.JoinedAt == 0 {
		member.JoinedAt = time.Now().Unix()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO group_members (group_id, user_id, role, status, invited_by, joined_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (group_id, user_id) DO UPDATE SET
		     role = excluded.role, status = excluded.status, invited_by = excluded.invited_by,
		     joined_at = excluded.joined_at, archived_at = NULL
		 WHERE group_members.archived_at IS NOT NULL`,
		member.GroupID, member.UserID, member.Role, member.Status, nullString(member.InvitedBy), member.JoinedAt,
	)
	if err != nil {
		return insertErr(err, "group member")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.New(apperr.KindDuplicateKey, "user is already a member of this group")
	}
	return nil
}

// GetMember retrieves one membership, including archived ones.
func (s *SQLiteStore) GetMember(ctx context.Context, groupID, userID string) (*models.GroupMember, error) {
	m, err := scanMember(s.db.QueryRowContext(ctx, memberSelect+" WHERE m.group_id = ? AND m.user_id = ?", groupID, userID))
	if err == sql.ErrNoRows {
		return nil, apperr.NotFound("membership not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// ListMembers retrieves the non-archived members of a group.
func (s *SQLiteStore) ListMembers(ctx context.Context, groupID string) ([]*models.GroupMember, error) {
	rows, err := s.db.QueryContext(ctx,
		memberSelect+" WHERE m.group_id = ? AND m.archived_at IS NULL ORDER BY m.joined_at, m.user_id",
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.GroupMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// UpdateMemberStatus changes a membership's status. Archiving also stamps
// archived_at.
func (s *SQLiteStore) UpdateMemberStatus(ctx context.Context, groupID, userID string, status models.MemberStatus, at int64) error {
	var archivedAt int64
	if status == models.MemberArchived {
		archivedAt = at
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE group_members SET status = ?, archived_at = ?, joined_at = CASE WHEN ? = 'active' THEN ? ELSE joined_at END
		 WHERE group_id = ? AND user_id = ?`,
		status, nullInt(archivedAt), status, at, groupID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update member status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.NotFound("membership not found")
	}
	return nil
}

// CountMembers counts active and pending members.
func (s *SQLiteStore) CountMembers(ctx context.Context, groupID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM group_members WHERE group_id = ? AND archived_at IS NULL",
		groupID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count members: %w", err)
	}
	return n, nil
}

const memberSelect = `
	SELECT m.group_id, m.user_id, COALESCE(u.display_name, ''), m.role, m.status,
	       m.invited_by, m.joined_at, m.archived_at
	FROM group_members m
	LEFT JOIN users u ON u.id = m.user_id`

func scanMember(row scanner) (*models.GroupMember, error) {
	m := &models.GroupMember{}
	var invitedBy sql.NullString
	var archivedAt sql.NullInt64
	if err := row.Scan(&m.GroupID, &m.UserID, &m.DisplayName, &m.Role, &m.Status,
		&invitedBy, &m.JoinedAt, &archivedAt); err != nil {
		return nil, err
	}
	m.InvitedBy = invitedBy.String
	m.ArchivedAt = archivedAt.Int64
	return m, nil
}
