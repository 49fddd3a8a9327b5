package store

import (
	"errors"
	"log/slog"
	"testing"
)

// openTestStore opens an in-memory store for tests.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(Config{Path: ":memory:"}, slog.Default())
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUsers_CreateAndLookup(t *testing.T) {
	s := openTestStore(t)

	id, err := s.CreateUser("Ada", "Lovelace", "ada@gmail.com", "$2a$10$hash")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if id == 0 {
		t.Error("CreateUser returned id 0")
	}

	u, err := s.GetUserByEmail("ada@gmail.com")
	if err != nil {
		t.Fatalf("GetUserByEmail: %v", err)
	}
	if u.FirstName != "Ada" || u.PasswordHash != "$2a$10$hash" {
		t.Errorf("unexpected user: %+v", u)
	}

	if _, err := s.GetUserByEmail("nobody@gmail.com"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}

	if _, err := s.CreateUser("Ada", "Again", "ada@gmail.com", "x"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("expected ErrEmailTaken, got %v", err)
	}
}

func TestSessions_DailyRollover(t *testing.T) {
	s := openTestStore(t)

	first, err := s.GetOrCreateSession("ada@gmail.com", "2026-09-01")
	if err != nil {
		t.Fatalf("GetOrCreateSession: %v", err)
	}
	same, err := s.GetOrCreateSession("ada@gmail.com", "2026-09-01")
	if err != nil {
		t.Fatalf("GetOrCreateSession (repeat): %v", err)
	}
	if first != same {
		t.Errorf("same day should reuse session: %d != %d", first, same)
	}

	next, err := s.GetOrCreateSession("ada@gmail.com", "2026-09-02")
	if err != nil {
		t.Fatalf("GetOrCreateSession (next day): %v", err)
	}
	if next == first {
		t.Error("new day should create a new session")
	}
}

func TestMessages_HistoryOrder(t *testing.T) {
	s := openTestStore(t)

	sid, _ := s.GetOrCreateSession("ada@gmail.com", "2026-09-01")
	for _, m := range []Message{
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi there"},
		{Role: "user", Content: "weather in Paris"},
	} {
		if err := s.AddMessage(sid, m.Role, m.Content); err != nil {
			t.Fatalf("AddMessage: %v", err)
		}
	}

	msgs, err := s.ChatHistory(sid)
	if err != nil {
		t.Fatalf("ChatHistory: %v", err)
	}
	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Content != "hello" || msgs[2].Content != "weather in Paris" {
		t.Errorf("history out of order: %+v", msgs)
	}
}

func TestPreferences_SetGetOverwrite(t *testing.T) {
	s := openTestStore(t)

	got, err := s.GetPreference("ada@gmail.com", "default_city")
	if err != nil {
		t.Fatalf("GetPreference (unset): %v", err)
	}
	if got != "" {
		t.Errorf("unset preference should be empty, got %q", got)
	}

	if err := s.SetPreference("ada@gmail.com", "default_city", "Paris"); err != nil {
		t.Fatalf("SetPreference: %v", err)
	}
	if err := s.SetPreference("ada@gmail.com", "default_city", "London"); err != nil {
		t.Fatalf("SetPreference (overwrite): %v", err)
	}

	got, _ = s.GetPreference("ada@gmail.com", "default_city")
	if got != "London" {
		t.Errorf("preference = %q, want London", got)
	}
}

func TestGoals_Lifecycle(t *testing.T) {
	s := openTestStore(t)

	id, err := s.AddGoal("ada@gmail.com", "learn go")
	if err != nil {
		t.Fatalf("AddGoal: %v", err)
	}

	goals, err := s.ActiveGoals("ada@gmail.com")
	if err != nil {
		t.Fatalf("ActiveGoals: %v", err)
	}
	if len(goals) != 1 || goals[0].Description != "learn go" {
		t.Fatalf("unexpected goals: %+v", goals)
	}

	ok, err := s.UpdateGoalStatus(id, GoalCompleted)
	if err != nil || !ok {
		t.Fatalf("UpdateGoalStatus: ok=%v err=%v", ok, err)
	}

	goals, _ = s.ActiveGoals("ada@gmail.com")
	if len(goals) != 0 {
		t.Errorf("completed goal still active: %+v", goals)
	}

	ok, err = s.UpdateGoalStatus(9999, GoalAbandoned)
	if err != nil {
		t.Fatalf("UpdateGoalStatus (missing): %v", err)
	}
	if ok {
		t.Error("updating a missing goal should report false")
	}
}

func TestTasks_Lifecycle(t *testing.T) {
	s := openTestStore(t)

	id, err := s.AddTask("ada@gmail.com", "buy milk", "")
	if err != nil {
		t.Fatalf("AddTask: %v", err)
	}

	tasks, err := s.PendingTasks("ada@gmail.com")
	if err != nil {
		t.Fatalf("PendingTasks: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Description != "buy milk" {
		t.Fatalf("unexpected tasks: %+v", tasks)
	}

	if ok, _ := s.UpdateTaskStatus(id, TaskCompleted); !ok {
		t.Error("UpdateTaskStatus should report true")
	}
	tasks, _ = s.PendingTasks("ada@gmail.com")
	if len(tasks) != 0 {
		t.Errorf("completed task still pending: %+v", tasks)
	}
}

func TestReminders_AddListDelete(t *testing.T) {
	s := openTestStore(t)

	id, err := s.AddReminder("ada@gmail.com", "stand up", "15:00")
	if err != nil {
		t.Fatalf("AddReminder: %v", err)
	}

	reminders, err := s.ListReminders("ada@gmail.com")
	if err != nil {
		t.Fatalf("ListReminders: %v", err)
	}
	if len(reminders) != 1 || reminders[0].Message != "stand up" {
		t.Fatalf("unexpected reminders: %+v", reminders)
	}

	if ok, _ := s.DeleteReminder(id); !ok {
		t.Error("DeleteReminder should report true")
	}
	if ok, _ := s.DeleteReminder(id); ok {
		t.Error("second delete should report false")
	}
}

func TestQueries_AppendAndRecent(t *testing.T) {
	s := openTestStore(t)

	for _, q := range []string{"first", "second", "third"} {
		if err := s.AppendQuery("ada@gmail.com", q); err != nil {
			t.Fatalf("AppendQuery: %v", err)
		}
	}

	queries, err := s.RecentQueries("ada@gmail.com", 2)
	if err != nil {
		t.Fatalf("RecentQueries: %v", err)
	}
	if len(queries) != 2 || queries[0] != "third" || queries[1] != "second" {
		t.Errorf("unexpected recent queries: %v", queries)
	}
}
