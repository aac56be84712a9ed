package domain

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrInvalidEmail is returned when email format is invalid
	ErrInvalidEmail = errors.New("invalid email format")
	// ErrWeakPassword is returned when password doesn't meet requirements
	ErrWeakPassword = errors.New("password must be at least 8 characters long")
	// ErrUserNotFound is returned when user is not found
	ErrUserNotFound = errors.New("user not found")
	// ErrDuplicateEmail is returned when email already exists
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrPasswordMismatch is returned when a password and its confirmation differ
	ErrPasswordMismatch = errors.New("passwords do not match")
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// User represents a user account as stored by the persistence layer
type User struct {
	ID                  string
	Email               string
	Name                *string
	PasswordHash        string
	EmailValid          bool
	EmailValidationHash string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NewUser creates a new user with validation
func NewUser(email string) (*User, error) {
	email = strings.TrimSpace(strings.ToLower(email))

	if err := ValidateEmail(email); err != nil {
		return nil, err
	}

	now := time.Now()
	return &User{
		Email:     email,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	if email == "" || !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return ErrWeakPassword
	}
	return nil
}

// DisplayName returns the user's name, falling back to the local part of the email
func (u *User) DisplayName() string {
	if u.Name != nil && strings.TrimSpace(*u.Name) != "" {
		return *u.Name
	}
	if i := strings.LastIndex(u.Email, "@"); i > 0 {
		return u.Email[:i]
	}
	return u.Email
}

// EmailDomain returns the lower-cased domain part of the user's email
func (u *User) EmailDomain() string {
	i := strings.LastIndex(u.Email, "@")
	if i < 0 {
		return ""
	}
	return strings.ToLower(u.Email[i+1:])
}

// ValidationPending reports whether a verification secret is outstanding
func (u *User) ValidationPending() bool {
	return u.EmailValidationHash != ""
}

// SetEmailValidationHash records the hash of a newly issued verification secret
func (u *User) SetEmailValidationHash(hash string) {
	u.EmailValidationHash = hash
	u.UpdatedAt = time.Now()
}

// MarkEmailValid marks the email as verified and clears the pending hash.
// Both fields always change together.
func (u *User) MarkEmailValid() {
	u.EmailValid = true
	u.EmailValidationHash = ""
	u.UpdatedAt = time.Now()
}

// ProfilePatch holds the profile fields a user may change. Nil fields are left as stored.
type ProfilePatch struct {
	PasswordHash *string
	Name         *string
}

// Empty reports whether the patch changes nothing
func (p ProfilePatch) Empty() bool {
	return p.PasswordHash == nil && p.Name == nil
}

// NoticeType classifies a session notice
type NoticeType string

const (
	// NoticeInfo is used for successful outcomes
	NoticeInfo NoticeType = "info"
	// NoticeError is used for failed outcomes
	NoticeError NoticeType = "error"
)

// Notice is a transient user-facing message recorded in the caller's session
type Notice struct {
	Type    NoticeType `json:"type"`
	Message string     `json:"message"`
}
