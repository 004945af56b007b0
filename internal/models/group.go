package models

// Role is a member's permission level inside a group.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// CanAdminister reports whether the role may approve expenses and manage members.
func (r Role) CanAdminister() bool {
	return r == RoleOwner || r == RoleAdmin
}

// MemberStatus is the lifecycle state of a membership.
type MemberStatus string

const (
	MemberActive   MemberStatus = "active"
	MemberPending  MemberStatus = "pending"
	MemberArchived MemberStatus = "archived"
)

// Group represents a set of users sharing expenses (a trip, a household).
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Riyadh trip").
	Name string

	// Currency is the ISO 4217 code expenses default to.
	Currency string

	// OwnerID is the user who created the group.
	OwnerID string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64

	// ArchivedAt is the soft-delete timestamp; zero while active.
	ArchivedAt int64
}

// Archived reports whether the group has been soft-deleted.
func (g *Group) Archived() bool { return g.ArchivedAt != 0 }

// GroupMember is a (group, user) pair.
type GroupMember struct {
	GroupID     string
	UserID      string
	DisplayName string
	Role        Role
	Status      MemberStatus
	InvitedBy   string
	JoinedAt    int64
	ArchivedAt  int64
}

// Active reports whether the member currently belongs to the group.
func (m *GroupMember) Active() bool {
	return m.Status == MemberActive && m.ArchivedAt == 0
}
