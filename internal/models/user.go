package models

import (
	"time"

	"github.com/google/uuid"
)

// Tier is a subscription level; quotas are keyed by it.
type Tier string

const (
	TierFree Tier = "free"
	TierPro  Tier = "pro"
)

// User represents a registered user account.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Email is the user's email address (unique). Used for login.
	Email string

	// Phone is the E.164 phone number, empty when not provided.
	// Unique when present; used by lookup-by-phone invites.
	Phone string

	// DisplayName is the user's display name.
	DisplayName string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// Tier is the subscription tier that bounds quotas.
	Tier Tier

	// Credits is the balance of gamification/purchase credits.
	Credits int64

	CreatedAt int64
	UpdatedAt int64
}

// NewUser creates a free-tier user with a fresh ID and timestamps.
func NewUser(email, displayName, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:           uuid.New().String(),
		Email:        email,
		DisplayName:  displayName,
		PasswordHash: passwordHash,
		Tier:         TierFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
