package store

import "fmt"

// Task statuses.
const (
	TaskPending   = "pending"
	TaskCompleted = "completed"
)

// Task is a short-term to-do item.
type Task struct {
	ID          int64
	Description string
	Status      string
	DueDate     string
}

// AddTask records a new pending task for a user.
func (s *Store) AddTask(userEmail, description, dueDate string) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO tasks (user_email, description, status, due_date) VALUES (?, ?, ?, ?)",
		userEmail, description, TaskPending, dueDate,
	)
	if err != nil {
		return 0, fmt.Errorf("add task: %w", err)
	}
	id, _ := res.LastInsertId()
	return id, nil
}

// PendingTasks returns all tasks for a user that are still pending.
func (s *Store) PendingTasks(userEmail string) ([]Task, error) {
	rows, err := s.db.Query(
		"SELECT id, description, status, COALESCE(due_date, '') FROM tasks WHERE user_email = ? AND status = ? ORDER BY id",
		userEmail, TaskPending,
	)
	if err != nil {
		return nil, fmt.Errorf("pending tasks: %w", err)
	}
	defer rows.Close()

	var tasks []Task
	for rows.Next() {
		var t Task
		if err := rows.Scan(&t.ID, &t.Description, &t.Status, &t.DueDate); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// UpdateTaskStatus changes a task's status. Returns false when no task
// with that id exists.
func (s *Store) UpdateTaskStatus(taskID int64, status string) (bool, error) {
	res, err := s.db.Exec("UPDATE tasks SET status = ? WHERE id = ?", status, taskID)
	if err != nil {
		return false, fmt.Errorf("update task: %w", err)
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}
