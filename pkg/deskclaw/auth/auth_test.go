package auth

import (
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/store"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	st, err := store.Open(store.Config{Path: ":memory:"}, logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return NewManager(st, filepath.Join(t.TempDir(), "session.json"), logger)
}

func TestValidateEmail(t *testing.T) {
	t.Parallel()
	tests := []struct {
		email string
		ok    bool
	}{
		{"alice@gmail.com", true},
		{"alice.b+tag@gmail.com", true},
		{"alice@yahoo.com", false},
		{"not-an-email", false},
		{"@gmail.com", false},
	}
	for _, tt := range tests {
		err := ValidateEmail(tt.email)
		if (err == nil) != tt.ok {
			t.Errorf("ValidateEmail(%q) err = %v, want ok=%v", tt.email, err, tt.ok)
		}
	}
}

func TestValidatePassword(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		password string
		ok       bool
	}{
		{"strong", "Str0ng!pass", true},
		{"too short", "S1!a", false},
		{"no uppercase", "weak1!pass", false},
		{"no digit", "Weakpass!!", false},
		{"no special", "Weakpass11", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidatePassword(tt.password)
			if (err == nil) != tt.ok {
				t.Errorf("ValidatePassword(%q) err = %v, want ok=%v", tt.password, err, tt.ok)
			}
		})
	}
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	m := testManager(t)

	if err := m.Register("Alice", "Smith", "Alice@gmail.com", "Str0ng!pass"); err != nil {
		t.Fatalf("Register: %v", err)
	}

	// Email lookup is case-insensitive via normalization.
	user, err := m.Login("ALICE@gmail.com", "Str0ng!pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if user.FirstName != "Alice" {
		t.Errorf("FirstName = %q, want Alice", user.FirstName)
	}

	// Session file now identifies the user.
	current, err := m.CurrentUser()
	if err != nil {
		t.Fatalf("CurrentUser: %v", err)
	}
	if current.Email != "alice@gmail.com" {
		t.Errorf("session email = %q", current.Email)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	t.Parallel()
	m := testManager(t)
	if err := m.Register("Bob", "Lee", "bob@gmail.com", "Str0ng!pass"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := m.Login("bob@gmail.com", "wrong"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("err = %v, want ErrBadCredentials", err)
	}
}

func TestLogin_UnknownUser(t *testing.T) {
	t.Parallel()
	m := testManager(t)
	if _, err := m.Login("ghost@gmail.com", "whatever"); !errors.Is(err, ErrBadCredentials) {
		t.Errorf("err = %v, want ErrBadCredentials", err)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	t.Parallel()
	m := testManager(t)
	if err := m.Register("A", "B", "dup@gmail.com", "Str0ng!pass"); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if err := m.Register("C", "D", "dup@gmail.com", "Str0ng!pass"); !errors.Is(err, store.ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestLogout_ClearsSession(t *testing.T) {
	t.Parallel()
	m := testManager(t)
	if err := m.Register("A", "B", "a@gmail.com", "Str0ng!pass"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := m.Login("a@gmail.com", "Str0ng!pass"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := m.Logout(); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if _, err := m.CurrentUser(); !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}
