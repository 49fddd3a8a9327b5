package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetPreference returns the stored preference value for a user, or ""
// when the key has never been set.
func (s *Store) GetPreference(userEmail, key string) (string, error) {
	var value string
	err := s.db.QueryRow(
		"SELECT value FROM preferences WHERE user_email = ? AND key = ?",
		userEmail, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get preference: %w", err)
	}
	return value, nil
}

// SetPreference stores or replaces a preference value for a user.
func (s *Store) SetPreference(userEmail, key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO preferences (user_email, key, value) VALUES (?, ?, ?)
		 ON CONFLICT(user_email, key) DO UPDATE SET value = excluded.value, updated_at = CURRENT_TIMESTAMP`,
		userEmail, key, value,
	)
	if err != nil {
		return fmt.Errorf("set preference: %w", err)
	}
	return nil
}
