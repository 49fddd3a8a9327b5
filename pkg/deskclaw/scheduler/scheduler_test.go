package scheduler

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeStorage struct {
	mu        sync.Mutex
	reminders []store.Reminder
}

func (f *fakeStorage) AllReminders() ([]store.Reminder, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]store.Reminder, len(f.reminders))
	copy(out, f.reminders)
	return out, nil
}

func (f *fakeStorage) DeleteReminder(id int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, r := range f.reminders {
		if r.ID == id {
			f.reminders = append(f.reminders[:i], f.reminders[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func TestSweep_FiresDueReminders(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	storage := &fakeStorage{reminders: []store.Reminder{
		{ID: 1, UserEmail: "a@gmail.com", Message: "due", RemindAt: now.Add(-time.Minute).Format(time.RFC3339)},
		{ID: 2, UserEmail: "a@gmail.com", Message: "future", RemindAt: now.Add(time.Hour).Format(time.RFC3339)},
	}}

	var fired []string
	s := New(storage, func(_, message string) { fired = append(fired, message) }, testLogger())
	s.now = func() time.Time { return now }

	s.Sweep(context.Background())

	if len(fired) != 1 || fired[0] != "due" {
		t.Errorf("fired = %v, want [due]", fired)
	}
	remaining, _ := storage.AllReminders()
	if len(remaining) != 1 || remaining[0].ID != 2 {
		t.Errorf("remaining = %v, want only the future reminder", remaining)
	}
}

func TestSweep_FiresAtMostOnce(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	storage := &fakeStorage{reminders: []store.Reminder{
		{ID: 1, UserEmail: "a@gmail.com", Message: "once", RemindAt: now.Add(-time.Minute).Format(time.RFC3339)},
	}}

	count := 0
	s := New(storage, func(_, _ string) { count++ }, testLogger())
	s.now = func() time.Time { return now }

	s.Sweep(context.Background())
	s.Sweep(context.Background())

	if count != 1 {
		t.Errorf("announce count = %d, want 1", count)
	}
}

func TestSweep_DropsUnparseableReminders(t *testing.T) {
	t.Parallel()
	storage := &fakeStorage{reminders: []store.Reminder{
		{ID: 1, UserEmail: "a@gmail.com", Message: "bad", RemindAt: "whenever"},
	}}

	s := New(storage, func(_, _ string) { t.Error("unparseable reminder must not fire") }, testLogger())
	s.Sweep(context.Background())

	remaining, _ := storage.AllReminders()
	if len(remaining) != 0 {
		t.Errorf("unparseable reminder should be dropped, got %v", remaining)
	}
}

func TestParseReminderTime(t *testing.T) {
	t.Parallel()
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{"relative duration", "90m", now.Add(90 * time.Minute)},
		{"rfc3339", "2026-03-02T08:30:00Z", time.Date(2026, 3, 2, 8, 30, 0, 0, time.UTC)},
		{"date and time", "2026-03-05 14:00", time.Date(2026, 3, 5, 14, 0, 0, 0, time.UTC)},
		{"clock later today", "18:00", time.Date(2026, 3, 1, 18, 0, 0, 0, time.UTC)},
		{"clock already past rolls to tomorrow", "09:00", time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseReminderTime(tt.input, now)
			if err != nil {
				t.Fatalf("ParseReminderTime(%q): %v", tt.input, err)
			}
			if !got.Equal(tt.want) {
				t.Errorf("ParseReminderTime(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}

	if _, err := ParseReminderTime("not a time", now); err == nil {
		t.Error("expected error for unrecognized format")
	}
}
