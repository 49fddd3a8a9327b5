package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// ErrUserNotFound is returned when a lookup finds no matching user.
var ErrUserNotFound = errors.New("user not found")

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = errors.New("email already registered")

// User is a registered DeskClaw user.
type User struct {
	ID           int64
	FirstName    string
	LastName     string
	Email        string
	PasswordHash string
}

// CreateUser inserts a new user. The password must already be hashed.
func (s *Store) CreateUser(firstName, lastName, email, passwordHash string) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO users (first_name, last_name, email, password_hash) VALUES (?, ?, ?, ?)",
		firstName, lastName, email, passwordHash,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return 0, ErrEmailTaken
		}
		return 0, fmt.Errorf("create user: %w", err)
	}
	id, _ := res.LastInsertId()
	s.logger.Info("user created", "email", email)
	return id, nil
}

// GetUserByEmail returns the user with the given email.
func (s *Store) GetUserByEmail(email string) (*User, error) {
	var u User
	err := s.db.QueryRow(
		"SELECT id, first_name, last_name, email, password_hash FROM users WHERE email = ?",
		email,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.PasswordHash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
