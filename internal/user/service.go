package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lumabee/tutor-booking-backend/internal/auth"
)

// RegisterRequest carries the fields needed to create an account.
type RegisterRequest struct {
	Email           string
	Password        string
	FirstName       string
	LastName        string
	Role            Role
	HourlyRateCents *int64
}

// UpdateProfileRequest carries optional profile changes.
type UpdateProfileRequest struct {
	FirstName       *string
	LastName        *string
	Bio             *string
	HourlyRateCents *int64
}

// Service defines business logic related to users.
type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*User, error)
	Login(ctx context.Context, email, password string) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*User, error)
	ListTutors(ctx context.Context, page, pageSize int) ([]*User, int, error)

	// TutorHourlyRate returns the hourly rate for an active tutor,
	// or an error if the user is not a tutor or has no rate set.
	TutorHourlyRate(ctx context.Context, tutorID string) (int64, error)
}

type service struct {
	repo   Repository
	hasher auth.PasswordHasher

	minPasswordLength int
}

// NewService creates a new user Service.
func NewService(repo Repository, hasher auth.PasswordHasher) Service {
	return &service{
		repo:              repo,
		hasher:            hasher,
		minPasswordLength: 8,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	cleanEmail := normalizeEmail(req.Email)
	if cleanEmail == "" {
		return nil, ErrEmailRequired
	}
	if len(req.Password) < s.minPasswordLength {
		return nil, ErrPasswordTooShort
	}
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.LastName) == "" {
		return nil, ErrNameRequired
	}

	// Admin accounts are provisioned out of band, never self-registered.
	if req.Role != RoleStudent && req.Role != RoleTutor {
		return nil, ErrInvalidRole
	}

	if req.HourlyRateCents != nil && *req.HourlyRateCents <= 0 {
		return nil, ErrInvalidHourlyRate
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &User{
		Email:        cleanEmail,
		PasswordHash: hash,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Role:         req.Role,
	}
	if req.Role == RoleTutor {
		u.HourlyRateCents = req.HourlyRateCents
	}

	// The unique index on email is the real guard; the repository maps the
	// violation to ErrEmailAlreadyUsed.
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *service) Login(ctx context.Context, email, password string) (*User, error) {
	cleanEmail := normalizeEmail(email)
	if cleanEmail == "" || strings.TrimSpace(password) == "" {
		return nil, ErrInvalidCredentials
	}

	u, err := s.repo.GetByEmail(ctx, cleanEmail)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to fetch user by email: %w", err)
	}

	if !u.IsActive {
		return nil, ErrInactiveUser
	}

	if err := s.hasher.Compare(u.PasswordHash, password); err != nil {
		return nil, ErrInvalidCredentials
	}

	// Best effort; do not fail login if the timestamp update fails.
	_ = s.repo.UpdateLastLogin(ctx, u.ID, time.Now().UTC())

	return u, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) UpdateProfile(ctx context.Context, id string, req UpdateProfileRequest) (*User, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FirstName != nil {
		if strings.TrimSpace(*req.FirstName) == "" {
			return nil, ErrNameRequired
		}
		u.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		if strings.TrimSpace(*req.LastName) == "" {
			return nil, ErrNameRequired
		}
		u.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Bio != nil {
		u.Bio = *req.Bio
	}
	if req.HourlyRateCents != nil {
		if u.Role != RoleTutor {
			return nil, ErrNotATutor
		}
		if *req.HourlyRateCents <= 0 {
			return nil, ErrInvalidHourlyRate
		}
		u.HourlyRateCents = req.HourlyRateCents
	}

	if err := s.repo.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *service) ListTutors(ctx context.Context, page, pageSize int) ([]*User, int, error) {
	active := true
	return s.repo.List(ctx, Filter{
		Role:     RoleTutor,
		IsActive: &active,
		Page:     page,
		PageSize: pageSize,
	})
}

func (s *service) TutorHourlyRate(ctx context.Context, tutorID string) (int64, error) {
	u, err := s.repo.GetByID(ctx, tutorID)
	if err != nil {
		return 0, err
	}
	if u.Role != RoleTutor || !u.IsActive {
		return 0, ErrNotATutor
	}
	if u.HourlyRateCents == nil || *u.HourlyRateCents <= 0 {
		return 0, ErrInvalidHourlyRate
	}
	return *u.HourlyRateCents, nil
}

// normalizeEmail trims spaces and lowercases the email.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
