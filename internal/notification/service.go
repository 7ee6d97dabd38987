package notification

import (
	"context"
)

type Service interface {
	// Notify persists a notification and pushes it to realtime delivery.
	// It never fails the calling operation over a delivery problem.
	Notify(ctx context.Context, userID, title, message, link string) error
	List(ctx context.Context, filter Filter) ([]*Notification, int, error)
	MarkRead(ctx context.Context, id, userID string) error
}

type service struct {
	repo       Repository
	dispatcher Dispatcher
}

func NewService(repo Repository, dispatcher Dispatcher) Service {
	return &service{repo: repo, dispatcher: dispatcher}
}

func (s *service) Notify(ctx context.Context, userID, title, message, link string) error {
	n := &Notification{
		UserID:  userID,
		Title:   title,
		Message: message,
		Link:    link,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return err
	}

	s.dispatcher.Dispatch(ctx, n)
	return nil
}

func (s *service) List(ctx context.Context, filter Filter) ([]*Notification, int, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) MarkRead(ctx context.Context, id, userID string) error {
	return s.repo.MarkRead(ctx, id, userID)
}
