package store

import "fmt"

// Reminder is a scheduled one-shot reminder.
type Reminder struct {
	ID        int64
	UserEmail string
	Message   string
	RemindAt  string
}

// AddReminder stores a reminder. remindAt is the absolute due time in
// RFC3339; relative phrases are resolved before storage so the sweep
// never re-anchors them.
func (s *Store) AddReminder(userEmail, message, remindAt string) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO reminders (user_email, message, remind_at) VALUES (?, ?, ?)",
		userEmail, message, remindAt,
	)
	if err != nil {
		return 0, fmt.Errorf("add reminder: %w", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// ListReminders returns all reminders for a user in creation order.
func (s *Store) ListReminders(userEmail string) ([]Reminder, error) {
	rows, err := s.db.Query(
		"SELECT id, user_email, message, remind_at FROM reminders WHERE user_email = ? ORDER BY id",
		userEmail,
	)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.UserEmail, &r.Message, &r.RemindAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// AllReminders returns every pending reminder across users, for the
// scheduler sweep.
func (s *Store) AllReminders() ([]Reminder, error) {
	rows, err := s.db.Query("SELECT id, user_email, message, remind_at FROM reminders ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("load reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.UserEmail, &r.Message, &r.RemindAt); err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// DeleteReminder removes a reminder by id. Returns false when no reminder
// with that id exists.
func (s *Store) DeleteReminder(id int64) (bool, error) {
	res, err := s.db.Exec("DELETE FROM reminders WHERE id = ?", id)
	if err != nil {
		return false, fmt.Errorf("delete reminder: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
