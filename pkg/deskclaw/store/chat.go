// chat.go implements chat session, message and query-history persistence.
// Sessions roll over daily: the session key is the calendar date, matching
// the assistant's "one conversation per day" behavior.
package store

import (
	"database/sql"
	"errors"
	"fmt"
)

// Message is one stored chat message.
type Message struct {
	Role    string
	Content string
}

// GetOrCreateSession returns the most recent session row id for a user and
// session key, creating one if none exists.
func (s *Store) GetOrCreateSession(userEmail, sessionKey string) (int64, error) {
	var id int64
	err := s.db.QueryRow(
		"SELECT id FROM sessions WHERE user_email = ? AND session_id = ? ORDER BY created_at DESC LIMIT 1",
		userEmail, sessionKey,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("lookup session: %w", err)
	}

	res, err := s.db.Exec(
		"INSERT INTO sessions (user_email, session_id) VALUES (?, ?)",
		userEmail, sessionKey,
	)
	if err != nil {
		return 0, fmt.Errorf("create session: %w", err)
	}
	id, _ = res.LastInsertId()
	s.logger.Debug("session created", "user", userEmail, "session", sessionKey)
	return id, nil
}

// AddMessage appends a message to a session.
func (s *Store) AddMessage(sessionID int64, role, content string) error {
	_, err := s.db.Exec(
		"INSERT INTO messages (session_id, role, content) VALUES (?, ?, ?)",
		sessionID, role, content,
	)
	if err != nil {
		return fmt.Errorf("add message: %w", err)
	}
	return nil
}

// ChatHistory returns all messages of a session in insertion order.
func (s *Store) ChatHistory(sessionID int64) ([]Message, error) {
	rows, err := s.db.Query(
		"SELECT role, content FROM messages WHERE session_id = ? ORDER BY id",
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("chat history: %w", err)
	}
	defer rows.Close()

	var msgs []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.Role, &m.Content); err != nil {
			return nil, err
		}
		msgs = append(msgs, m)
	}
	return msgs, rows.Err()
}

// AppendQuery records a raw user query in the per-user query history.
func (s *Store) AppendQuery(userEmail, query string) error {
	_, err := s.db.Exec(
		"INSERT INTO last_queries (user_email, query) VALUES (?, ?)",
		userEmail, query,
	)
	if err != nil {
		return fmt.Errorf("append query: %w", err)
	}
	return nil
}

// RecentQueries returns the newest n queries for a user, newest first.
func (s *Store) RecentQueries(userEmail string, n int) ([]string, error) {
	if n <= 0 {
		n = 10
	}
	rows, err := s.db.Query(
		"SELECT query FROM last_queries WHERE user_email = ? ORDER BY id DESC LIMIT ?",
		userEmail, n,
	)
	if err != nil {
		return nil, fmt.Errorf("recent queries: %w", err)
	}
	defer rows.Close()

	var queries []string
	for rows.Next() {
		var q string
		if err := rows.Scan(&q); err != nil {
			return nil, err
		}
		queries = append(queries, q)
	}
	return queries, rows.Err()
}

// AddFeedback records a thumbs up/down rating for an assistant response,
// together with a snapshot of the conversation that produced it.
func (s *Store) AddFeedback(responseID, userEmail string, rating int, conversationJSON string) error {
	_, err := s.db.Exec(
		"INSERT INTO feedback (response_id, user_email, rating, conversation_history) VALUES (?, ?, ?, ?)",
		responseID, userEmail, rating, conversationJSON,
	)
	if err != nil {
		return fmt.Errorf("add feedback: %w", err)
	}
	return nil
}

// FeedbackEntry is one stored rating together with the conversation
// snapshot that produced it.
type FeedbackEntry struct {
	ResponseID          string
	UserEmail           string
	Rating              int
	ConversationHistory string
}

// NegativeFeedback returns thumbs-down feedback oldest first, for the
// review loop that proposes better answers.
func (s *Store) NegativeFeedback() ([]FeedbackEntry, error) {
	rows, err := s.db.Query(
		"SELECT response_id, user_email, rating, conversation_history FROM feedback WHERE rating < 0 ORDER BY created_at, id",
	)
	if err != nil {
		return nil, fmt.Errorf("negative feedback: %w", err)
	}
	defer rows.Close()

	var entries []FeedbackEntry
	for rows.Next() {
		var e FeedbackEntry
		if err := rows.Scan(&e.ResponseID, &e.UserEmail, &e.Rating, &e.ConversationHistory); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
