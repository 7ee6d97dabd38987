package notification

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepository struct {
	notifications map[string]*Notification
	nextID        int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{notifications: make(map[string]*Notification)}
}

func (f *fakeRepository) Create(_ context.Context, n *Notification) error {
	f.nextID++
	n.ID = fmt.Sprintf("n-%d", f.nextID)
	n.CreatedAt = time.Now()
	copied := *n
	f.notifications[n.ID] = &copied
	return nil
}

func (f *fakeRepository) List(_ context.Context, filter Filter) ([]*Notification, int, error) {
	var out []*Notification
	for _, n := range f.notifications {
		if n.UserID != filter.UserID {
			continue
		}
		if filter.UnreadOnly && n.IsRead {
			continue
		}
		copied := *n
		out = append(out, &copied)
	}
	return out, len(out), nil
}

func (f *fakeRepository) MarkRead(_ context.Context, id, userID string) error {
	n, ok := f.notifications[id]
	if !ok || n.UserID != userID {
		return ErrNotFound
	}
	n.IsRead = true
	return nil
}

type recordingDispatcher struct {
	dispatched []*Notification
}

func (d *recordingDispatcher) Dispatch(_ context.Context, n *Notification) {
	d.dispatched = append(d.dispatched, n)
}

func TestNotifyPersistsAndDispatches(t *testing.T) {
	repo := newFakeRepository()
	dispatcher := &recordingDispatcher{}
	svc := NewService(repo, dispatcher)

	err := svc.Notify(context.Background(), "user-1", "Booking confirmed", "See you soon.", "/bookings/b-1")
	require.NoError(t, err)

	require.Len(t, dispatcher.dispatched, 1)
	assert.NotEmpty(t, dispatcher.dispatched[0].ID)

	listed, total, err := svc.List(context.Background(), Filter{UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.False(t, listed[0].IsRead)
}

func TestMarkReadChecksOwner(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, &recordingDispatcher{})

	require.NoError(t, svc.Notify(context.Background(), "user-1", "t", "m", ""))

	err := svc.MarkRead(context.Background(), "n-1", "user-2")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, svc.MarkRead(context.Background(), "n-1", "user-1"))

	_, total, err := svc.List(context.Background(), Filter{UserID: "user-1", UnreadOnly: true})
	require.NoError(t, err)
	assert.Zero(t, total)
}
