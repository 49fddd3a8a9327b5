// Package scheduler implements reminder delivery for DeskClaw. Reminders
// persist in SQLite so they survive restarts; a cron-driven sweep checks
// for due reminders and announces them through a callback, deleting each
// one after it fires.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/store"
)

// sweepSchedule is how often due reminders are checked.
const sweepSchedule = "@every 30s"

// ReminderStorage is the slice of the store the scheduler needs.
type ReminderStorage interface {
	AllReminders() ([]store.Reminder, error)
	DeleteReminder(id int64) (bool, error)
}

// AnnounceFunc delivers a fired reminder to the user.
type AnnounceFunc func(userEmail, message string)

// Scheduler sweeps persisted reminders and fires the due ones.
type Scheduler struct {
	storage  ReminderStorage
	announce AnnounceFunc
	cron     *cron.Cron
	logger   *slog.Logger

	// now is swappable for due-time tests.
	now func() time.Time

	mu       sync.Mutex
	sweeping bool
	cancel   context.CancelFunc
}

// New creates a scheduler.
func New(storage ReminderStorage, announce AnnounceFunc, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		storage:  storage,
		announce: announce,
		logger:   logger.With("component", "scheduler"),
		now:      time.Now,
	}
}

// Start begins the periodic sweep.
func (s *Scheduler) Start(ctx context.Context) error {
	ctx, s.cancel = context.WithCancel(ctx)

	s.cron = cron.New(cron.WithParser(cron.NewParser(
		cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
	)))
	if _, err := s.cron.AddFunc(sweepSchedule, func() { s.Sweep(ctx) }); err != nil {
		return fmt.Errorf("register reminder sweep: %w", err)
	}
	s.cron.Start()

	s.logger.Info("scheduler started", "sweep", sweepSchedule)
	return nil
}

// Stop halts sweeping, waiting briefly for an in-flight sweep.
func (s *Scheduler) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		select {
		case <-ctx.Done():
		case <-time.After(5 * time.Second):
			s.logger.Warn("scheduler stop timed out")
		}
	}
	if s.cancel != nil {
		s.cancel()
	}
	s.logger.Info("scheduler stopped")
}

// Sweep fires every due reminder once. Overlapping sweeps are skipped so
// a slow announce cannot double-fire a reminder.
func (s *Scheduler) Sweep(ctx context.Context) {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		return
	}
	s.sweeping = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.sweeping = false
		s.mu.Unlock()

		if r := recover(); r != nil {
			s.logger.Error("reminder sweep panicked", "panic", r)
		}
	}()

	reminders, err := s.storage.AllReminders()
	if err != nil {
		s.logger.Error("failed to load reminders", "error", err)
		return
	}

	now := s.now()
	for _, reminder := range reminders {
		if ctx.Err() != nil {
			return
		}

		due, err := ParseReminderTime(reminder.RemindAt, now)
		if err != nil {
			// Unparseable reminders would otherwise be retried forever.
			s.logger.Warn("dropping reminder with invalid time",
				"id", reminder.ID, "remind_at", reminder.RemindAt, "error", err)
			s.storage.DeleteReminder(reminder.ID)
			continue
		}
		if due.After(now) {
			continue
		}

		// Delete before announcing: a reminder that fires must never
		// fire twice, even if the announce callback stalls.
		if ok, err := s.storage.DeleteReminder(reminder.ID); err != nil || !ok {
			continue
		}

		s.logger.Info("reminder fired", "id", reminder.ID, "user", reminder.UserEmail)
		if s.announce != nil {
			s.announce(reminder.UserEmail, reminder.Message)
		}
	}
}

// ParseReminderTime parses user-supplied reminder times. Supported
// formats: relative durations ("5m", "1h30m"), RFC 3339,
// "2006-01-02 15:04", and bare "15:04" meaning today or, if already
// past, tomorrow. Relative durations anchor at now.
func ParseReminderTime(text string, now time.Time) (time.Time, error) {
	if d, err := time.ParseDuration(text); err == nil && d > 0 {
		return now.Add(d), nil
	}
	if t, err := time.Parse(time.RFC3339, text); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("2006-01-02 15:04", text, now.Location()); err == nil {
		return t, nil
	}
	if t, err := time.Parse("15:04", text); err == nil {
		target := time.Date(now.Year(), now.Month(), now.Day(),
			t.Hour(), t.Minute(), 0, 0, now.Location())
		if target.Before(now) {
			target = target.Add(24 * time.Hour)
		}
		return target, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time format: %s", text)
}
