// Package reminders posts deadline reminders on tasks due tomorrow.
package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/adhocore/gronx"

	"github.com/sipeed/taskclaw/pkg/i18n"
	"github.com/sipeed/taskclaw/pkg/logger"
	"github.com/sipeed/taskclaw/pkg/tasks"
)

// Store is the subset of the task store the reminder job needs.
type Store interface {
	FindDueOn(ctx context.Context, day time.Time) ([]tasks.Task, error)
	PostNote(ctx context.Context, id int64, body string) error
}

type Service struct {
	store    Store
	schedule string
	loc      *i18n.Localizer
	now      func() time.Time
}

// New validates the cron expression and returns a reminder service.
func New(store Store, schedule string, loc *i18n.Localizer) (*Service, error) {
	if !gronx.New().IsValid(schedule) {
		return nil, fmt.Errorf("invalid reminder schedule %q", schedule)
	}
	return &Service{store: store, schedule: schedule, loc: loc, now: time.Now}, nil
}

// Next returns the first run strictly after t.
func (s *Service) Next(t time.Time) (time.Time, error) {
	return gronx.NextTickAfter(s.schedule, t, false)
}

// RunOnce posts a reminder on every open task due tomorrow and returns how
// many were posted.
func (s *Service) RunOnce(ctx context.Context) (int, error) {
	tomorrow := tasks.DateOnly(s.now()).AddDate(0, 0, 1)
	due, err := s.store.FindDueOn(ctx, tomorrow)
	if err != nil {
		return 0, fmt.Errorf("find tasks due %s: %w", tomorrow.Format("2006-01-02"), err)
	}

	posted := 0
	for _, t := range due {
		body := s.loc.T("Deadline reminder: due %s.", tomorrow.Format("2006-01-02"))
		if err := s.store.PostNote(ctx, t.ID, body); err != nil {
			return posted, fmt.Errorf("remind task %d: %w", t.ID, err)
		}
		posted++
	}
	return posted, nil
}

// Run fires RunOnce on the schedule until ctx is done.
func (s *Service) Run(ctx context.Context) {
	logger.InfoCF("reminders", "Reminder scheduler started", map[string]any{"schedule": s.schedule})
	for {
		next, err := s.Next(s.now())
		if err != nil {
			logger.ErrorCF("reminders", "Cannot compute next run", map[string]any{"error": err.Error()})
			return
		}

		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			logger.InfoC("reminders", "Reminder scheduler stopped")
			return
		case <-timer.C:
		}

		n, err := s.RunOnce(ctx)
		if err != nil {
			logger.ErrorCF("reminders", "Reminder run failed", map[string]any{"error": err.Error(), "posted": n})
			continue
		}
		logger.InfoCF("reminders", "Reminders posted", map[string]any{"posted": n})
	}
}
