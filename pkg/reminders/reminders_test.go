package reminders

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sipeed/taskclaw/pkg/i18n"
	"github.com/sipeed/taskclaw/pkg/tasks"
)

type fakeStore struct {
	due     []tasks.Task
	askedOn time.Time
	notes   map[int64]string
	err     error
}

func (f *fakeStore) FindDueOn(_ context.Context, day time.Time) ([]tasks.Task, error) {
	f.askedOn = day
	return f.due, f.err
}

func (f *fakeStore) PostNote(_ context.Context, id int64, body string) error {
	if f.notes == nil {
		f.notes = map[int64]string{}
	}
	f.notes[id] = body
	return nil
}

func TestNew_RejectsBadSchedule(t *testing.T) {
	_, err := New(&fakeStore{}, "every morning", nil)
	assert.Error(t, err)
}

func TestNext(t *testing.T) {
	s, err := New(&fakeStore{}, "0 9 * * *", nil)
	require.NoError(t, err)

	next, err := s.Next(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC), next)
}

func TestRunOnce(t *testing.T) {
	store := &fakeStore{due: []tasks.Task{{ID: 5}, {ID: 6}}}
	s, err := New(store, "0 9 * * *", nil)
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 3, 10, 23, 30, 0, 0, time.UTC) }

	n, err := s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), store.askedOn)
	assert.Equal(t, "Deadline reminder: due 2026-03-11.", store.notes[5])
}

func TestRunOnce_Localized(t *testing.T) {
	store := &fakeStore{due: []tasks.Task{{ID: 5}}}
	s, err := New(store, "0 9 * * *", i18n.New("uk"))
	require.NoError(t, err)
	s.now = func() time.Time { return time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC) }

	_, err = s.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Нагадування: термін 2026-03-11.", store.notes[5])
}

func TestRunOnce_StoreError(t *testing.T) {
	s, err := New(&fakeStore{err: errors.New("locked")}, "0 9 * * *", nil)
	require.NoError(t, err)

	_, err = s.RunOnce(context.Background())
	assert.Error(t, err)
}

func TestRun_StopsOnCancel(t *testing.T) {
	s, err := New(&fakeStore{}, "0 9 * * *", nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop after cancel")
	}
}
