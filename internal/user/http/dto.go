package http

import (
	"time"

	"github.com/lumabee/tutor-booking-backend/internal/pkg/request"
	"github.com/lumabee/tutor-booking-backend/internal/user"
)

// RegisterRequest is the payload for POST /v1/auth/register.
type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	FirstName       string `json:"first_name" binding:"required"`
	LastName        string `json:"last_name" binding:"required"`
	Role            string `json:"role" binding:"required,oneof=student tutor"`
	HourlyRateCents *int64 `json:"hourly_rate_cents"`
}

// LoginRequest is the payload for POST /v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// UpdateProfileRequest is the payload for PATCH /v1/me.
type UpdateProfileRequest struct {
	FirstName       *string `json:"first_name"`
	LastName        *string `json:"last_name"`
	Bio             *string `json:"bio"`
	HourlyRateCents *int64  `json:"hourly_rate_cents"`
}

// ListTutorsRequest defines query parameters for listing tutors.
type ListTutorsRequest struct {
	request.ListParams
}

// UserResponse is the shape of user data returned in API responses.
type UserResponse struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	FirstName       string     `json:"first_name"`
	LastName        string     `json:"last_name"`
	Role            string     `json:"role"`
	Bio             string     `json:"bio"`
	HourlyRateCents *int64     `json:"hourly_rate_cents,omitempty"`
	IsActive        bool       `json:"is_active"`
	CreatedAt       time.Time  `json:"created_at"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
}

// TutorResponse is the public view of a tutor profile.
type TutorResponse struct {
	ID              string `json:"id"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Bio             string `json:"bio"`
	HourlyRateCents *int64 `json:"hourly_rate_cents,omitempty"`
}

// LoginResponse is the response for POST /v1/auth/login.
type LoginResponse struct {
	AccessToken string       `json:"access_token"`
	User        UserResponse `json:"user"`
}

// MeResponse wraps the authenticated user's own profile.
type MeResponse struct {
	User UserResponse `json:"user"`
}

// NewUserResponse converts domain user.User to UserResponse used by the API.
func NewUserResponse(u *user.User) UserResponse {
	return UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Role:            string(u.Role),
		Bio:             u.Bio,
		HourlyRateCents: u.HourlyRateCents,
		IsActive:        u.IsActive,
		CreatedAt:       u.CreatedAt,
		LastLoginAt:     u.LastLoginAt,
	}
}

// NewTutorResponse converts a tutor to its public representation.
func NewTutorResponse(u *user.User) TutorResponse {
	return TutorResponse{
		ID:              u.ID,
		FirstName:       u.FirstName,
		LastName:        u.LastName,
		Bio:             u.Bio,
		HourlyRateCents: u.HourlyRateCents,
	}
}
