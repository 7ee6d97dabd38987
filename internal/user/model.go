package user

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("user not found")
	ErrEmailAlreadyUsed   = errors.New("email already used")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInactiveUser       = errors.New("user is inactive")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrInvalidRole        = errors.New("role must be student or tutor")
	ErrNameRequired       = errors.New("first and last name are required")
	ErrInvalidHourlyRate  = errors.New("hourly rate must be positive")
	ErrNotATutor          = errors.New("user is not a tutor")
)

// Role determines what a user can do in the marketplace.
type Role string

const (
	RoleStudent Role = "student"
	RoleTutor   Role = "tutor"
	RoleAdmin   Role = "admin"
)

// User represents an account in the system. Tutors additionally carry an
// hourly rate, which prices their bookings.
type User struct {
	ID              string // UUID
	Email           string
	PasswordHash    string
	FirstName       string
	LastName        string
	Role            Role
	Bio             string
	HourlyRateCents *int64 // set only for tutors
	IsActive        bool
	CreatedAt       time.Time
	LastLoginAt     *time.Time
}

// FullName returns the user's display name.
func (u *User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Filter defines filter options for listing users.
type Filter struct {
	Role     Role
	Email    string
	IsActive *bool // pointer to distinguish between false and nil (not set)

	Page     int
	PageSize int
}
