package auth

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/diviso/diviso/internal/apperr"
	"github.com/diviso/diviso/internal/models"
)

const minPasswordLength = 8

var (
	ErrInvalidCredentials = apperr.New(apperr.KindUnauthenticated, "invalid email or password")
	ErrWeakPassword       = apperr.InvalidArgument("password must be at least %d characters", minPasswordLength)
	ErrEmailExists        = apperr.New(apperr.KindDuplicateKey, "email already registered")
)

// UserStorage defines the interface for user persistence operations.
// This allows the authenticator to be independent of the storage implementation.
type UserStorage interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

// PhoneNormalizer canonicalizes phone numbers.
type PhoneNormalizer interface {
	Normalize(raw string) (string, error)
}

// PasswordAuthenticator implements password-based authentication using bcrypt.
type PasswordAuthenticator struct {
	storage UserStorage
	phones  PhoneNormalizer
	cost    int
}

// NewPasswordAuthenticator creates a new password-based authenticator.
// phones may be nil, in which case registrations carrying a phone are rejected.
func NewPasswordAuthenticator(storage UserStorage, phones PhoneNormalizer) *PasswordAuthenticator {
	return &PasswordAuthenticator{
		storage: storage,
		phones:  phones,
		cost:    bcrypt.DefaultCost,
	}
}

// ValidateCredential checks if the password meets minimum requirements.
func (a *PasswordAuthenticator) ValidateCredential(credential string) error {
	if len(credential) < minPasswordLength {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new user account with a hashed password.
func (a *PasswordAuthenticator) Register(ctx context.Context, reg Registration) (*models.User, error) {
	if err := a.ValidateCredential(reg.Credential); err != nil {
		return nil, err
	}
	email := normalizeEmail(reg.Email)

	var phone string
	if strings.TrimSpace(reg.Phone) != "" {
		if a.phones == nil {
			return nil, apperr.InvalidArgument("phone numbers are not accepted")
		}
		var err error
		if phone, err = a.phones.Normalize(reg.Phone); err != nil {
			return nil, err
		}
	}

	// Check if email already exists
	_, err := a.storage.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, ErrEmailExists
	}
	if !apperr.Is(err, apperr.KindNotFound) {
		return nil, fmt.Errorf("failed to look up email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(reg.Credential), a.cost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.NewUser(email, strings.TrimSpace(reg.DisplayName), string(hashedPassword))
	user.Phone = phone

	// The unique index still catches a concurrent registration.
	if err := a.storage.CreateUser(ctx, user); err != nil {
		if apperr.Is(err, apperr.KindDuplicateKey) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Authenticate verifies the email and password, returning the user if valid.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, credential string) (*models.User, error) {
	user, err := a.storage.GetUserByEmail(ctx, normalizeEmail(email))
	if apperr.Is(err, apperr.KindNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(credential)); err != nil {
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
