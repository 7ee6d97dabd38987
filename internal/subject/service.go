package subject

import (
	"context"
	"strings"
)

type CreateRequest struct {
	Name        string
	Description string
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Subject, error)
	GetByID(ctx context.Context, id string) (*Subject, error)
	List(ctx context.Context, filter Filter) ([]*Subject, int, error)
	Delete(ctx context.Context, id string) error
}

type service struct {
	repo Repository
}

func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Subject, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, ErrNameRequired
	}

	sub := &Subject{
		Name:        name,
		Description: strings.TrimSpace(req.Description),
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

func (s *service) GetByID(ctx context.Context, id string) (*Subject, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Subject, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Delete(ctx context.Context, id string) error {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return err
	}
	return s.repo.Delete(ctx, id)
}
