// Package auth implements account registration and login for DeskClaw.
// Passwords hash with bcrypt; a successful login writes a local session
// file so the user stays signed in for thirty days.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/store"
)

// sessionTTL is how long a login session stays valid.
const sessionTTL = 30 * 24 * time.Hour

var (
	// ErrInvalidEmail is returned for addresses outside the gmail.com domain.
	ErrInvalidEmail = errors.New("please use a valid gmail.com address")

	// ErrWeakPassword is returned when a password fails the strength rules.
	ErrWeakPassword = errors.New("password must be at least 8 characters with an uppercase letter, a lowercase letter, a digit and one of @$!%*?&")

	// ErrBadCredentials is returned for a wrong email/password pair.
	ErrBadCredentials = errors.New("invalid email or password")

	// ErrNoSession is returned when no valid session file exists.
	ErrNoSession = errors.New("no active session")
)

var (
	emailRe   = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@gmail\.com$`)
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[@$!%*?&]`)
)

// Manager handles accounts and the local session file.
type Manager struct {
	store       *store.Store
	sessionPath string
	logger      *slog.Logger
}

// NewManager creates an auth manager. sessionPath is where the login
// session persists, e.g. ~/.deskclaw/session.json.
func NewManager(st *store.Store, sessionPath string, logger *slog.Logger) *Manager {
	return &Manager{
		store:       st,
		sessionPath: sessionPath,
		logger:      logger.With("component", "auth"),
	}
}

// ValidateEmail checks an address against the gmail.com rule.
func ValidateEmail(email string) error {
	if !emailRe.MatchString(strings.TrimSpace(email)) {
		return ErrInvalidEmail
	}
	return nil
}

// ValidatePassword checks the strength rules.
func ValidatePassword(password string) error {
	if len(password) < 8 ||
		!upperRe.MatchString(password) ||
		!lowerRe.MatchString(password) ||
		!digitRe.MatchString(password) ||
		!specialRe.MatchString(password) {
		return ErrWeakPassword
	}
	return nil
}

// Register creates a new account.
func (m *Manager) Register(firstName, lastName, email, password string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if err := ValidateEmail(email); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err := m.store.CreateUser(firstName, lastName, email, string(hash)); err != nil {
		return err
	}

	m.logger.Info("user registered", "email", email)
	return nil
}

// Login verifies credentials and writes the session file.
func (m *Manager) Login(email, password string) (*store.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	user, err := m.store.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, ErrBadCredentials
	}

	if err := m.writeSession(email); err != nil {
		return nil, err
	}
	m.logger.Info("user logged in", "email", email)
	return user, nil
}

// Logout removes the session file.
func (m *Manager) Logout() error {
	if err := os.Remove(m.sessionPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// CurrentUser returns the logged-in user from the session file, or
// ErrNoSession when the session is missing or expired.
func (m *Manager) CurrentUser() (*store.User, error) {
	data, err := os.ReadFile(m.sessionPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNoSession
		}
		return nil, fmt.Errorf("read session: %w", err)
	}

	var session sessionFile
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, ErrNoSession
	}
	if time.Now().After(session.ExpiresAt) {
		os.Remove(m.sessionPath)
		return nil, ErrNoSession
	}

	user, err := m.store.GetUserByEmail(session.Email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrNoSession
		}
		return nil, err
	}
	return user, nil
}

type sessionFile struct {
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (m *Manager) writeSession(email string) error {
	if err := os.MkdirAll(filepath.Dir(m.sessionPath), 0o700); err != nil {
		return fmt.Errorf("create session directory: %w", err)
	}
	data, err := json.Marshal(sessionFile{
		Email:     email,
		ExpiresAt: time.Now().Add(sessionTTL),
	})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(m.sessionPath, data, 0o600); err != nil {
		return fmt.Errorf("write session: %w", err)
	}
	return nil
}
