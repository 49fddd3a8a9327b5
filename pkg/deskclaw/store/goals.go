package store

import "fmt"

// Goal statuses. A goal moves from active to completed or abandoned.
const (
	GoalActive    = "active"
	GoalCompleted = "completed"
	GoalAbandoned = "abandoned"
)

// Goal is a long-term user goal tracked by the assistant.
type Goal struct {
	ID          int64
	Description string
	Status      string
}

// AddGoal records a new active goal for a user.
func (s *Store) AddGoal(userEmail, description string) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO goals (user_email, description, status) VALUES (?, ?, ?)",
		userEmail, description, GoalActive,
	)
	if err != nil {
		return 0, fmt.Errorf("add goal: %w", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// ActiveGoals returns all goals for a user that are still active.
func (s *Store) ActiveGoals(userEmail string) ([]Goal, error) {
	rows, err := s.db.Query(
		"SELECT id, description, status FROM goals WHERE user_email = ? AND status = ? ORDER BY id",
		userEmail, GoalActive,
	)
	if err != nil {
		return nil, fmt.Errorf("active goals: %w", err)
	}
	defer rows.Close()

	var goals []Goal
	for rows.Next() {
		var g Goal
		if err := rows.Scan(&g.ID, &g.Description, &g.Status); err != nil {
			return nil, err
		}
		goals = append(goals, g)
	}
	return goals, rows.Err()
}

// UpdateGoalStatus changes a goal's status. Returns false when no goal
// with that id exists.
func (s *Store) UpdateGoalStatus(goalID int64, status string) (bool, error) {
	res, err := s.db.Exec("UPDATE goals SET status = ? WHERE id = ?", status, goalID)
	if err != nil {
		return false, fmt.Errorf("update goal: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
