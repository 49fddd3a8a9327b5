// Package assistant – handlers.go implements the synchronous intent
// handlers. Each receives the turn's capability object and validated
// arguments and returns a single reply string; failures return errors for
// the planner to soften into an apology.
package assistant

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/features"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/scheduler"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/store"
)

// Image generation limits per process run.
const (
	imageLimitLoggedIn = 5
	imageLimitGuest    = 2
)

const loginRequired = "Please login to use this feature."

// imageQuota counts image generations per user key.
type imageQuota struct {
	mu     sync.Mutex
	counts map[string]int
}

func newImageQuota() *imageQuota {
	return &imageQuota{counts: make(map[string]int)}
}

// tryAcquire admits one generation for key under limit.
func (q *imageQuota) tryAcquire(key string, limit int) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.counts[key] >= limit {
		return false
	}
	q.counts[key]++
	return true
}

func handleGreet(_ context.Context, turn *TurnContext, _ map[string]string) (string, error) {
	name := ""
	if turn.User != nil {
		name = turn.User.FirstName
	}
	return features.Greeting(turn.Now(), name), nil
}

func handleGetTime(_ context.Context, turn *TurnContext, _ map[string]string) (string, error) {
	return "The time is " + turn.Now().Format("15:04:05"), nil
}

func handleResetChat(_ context.Context, turn *TurnContext, _ map[string]string) (string, error) {
	if turn.ResetChat != nil {
		turn.ResetChat()
	}
	return "Chat has been reset.", nil
}

func handleStopSpeech(_ context.Context, turn *TurnContext, _ map[string]string) (string, error) {
	if turn.StopSpeech != nil {
		turn.StopSpeech()
	}
	return "Speech stopped.", nil
}

func handleWeather(ctx context.Context, turn *TurnContext, args map[string]string) (string, error) {
	return turn.Caps.Weather.Current(ctx, args["city"], "")
}

func handleGetNews(ctx context.Context, turn *TurnContext, args map[string]string) (string, error) {
	return turn.Caps.News.Headlines(ctx, args["topic"])
}

func handleGetStockPrice(ctx context.Context, turn *TurnContext, args map[string]string) (string, error) {
	return turn.Caps.Stock.Price(ctx, args["symbol"])
}

func handleGenerateImage(ctx context.Context, turn *TurnContext, args map[string]string) (string, error) {
	limit := imageLimitGuest
	key := "guest"
	if turn.User != nil {
		limit = imageLimitLoggedIn
		key = turn.User.Email
	}
	if !turn.Caps.imageQuota.tryAcquire(key, limit) {
		return "You have reached the image generation limit. Please login or wait.", nil
	}

	path, err := turn.Caps.Images.Generate(ctx, args["prompt"])
	if err != nil {
		return "", fmt.Errorf("generate image: %w", err)
	}
	return "Image generated and saved to " + path, nil
}

func handleOpenWebsite(_ context.Context, _ *TurnContext, args map[string]string) (string, error) {
	url := args["url"]
	switch {
	case !strings.Contains(url, "."):
		url = "https://www." + url + ".com"
	case !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://"):
		url = "https://" + url
	}
	if err := features.OpenWebsite(url); err != nil {
		return "", err
	}
	return "Opening " + url, nil
}

func handleCloseWebsite(_ context.Context, _ *TurnContext, _ map[string]string) (string, error) {
	if err := features.CloseBrowser(); err != nil {
		return "I couldn't find any browser windows to close.", nil
	}
	return "All browser windows closed.", nil
}

func handleSetReminder(_ context.Context, turn *TurnContext, args map[string]string) (string, error) {
	due, err := scheduler.ParseReminderTime(args["time"], turn.Now())
	if err != nil {
		return fmt.Sprintf("I didn't understand the time %q. Try something like 18:00 or 30m.", args["time"]), nil
	}

	key := turn.UserEmail()
	if key == "" {
		key = "guest"
	}
	id, err := turn.Caps.Store.AddReminder(key, args["message"], due.Format(time.RFC3339))
	if err != nil {
		return "", fmt.Errorf("save reminder: %w", err)
	}
	return fmt.Sprintf("Reminder %d set for %s.", id, due.Format("Mon 15:04")), nil
}

func handleShowReminders(_ context.Context, turn *TurnContext, _ map[string]string) (string, error) {
	key := turn.UserEmail()
	if key == "" {
		key = "guest"
	}
	reminders, err := turn.Caps.Store.ListReminders(key)
	if err != nil {
		return "", fmt.Errorf("list reminders: %w", err)
	}
	if len(reminders) == 0 {
		return "You have no pending reminders.", nil
	}

	var b strings.Builder
	b.WriteString("Your reminders:\n")
	for _, r := range reminders {
		fmt.Fprintf(&b, "- ID: %d, %s at %s\n", r.ID, r.Message, r.RemindAt)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func handleDeleteReminder(_ context.Context, turn *TurnContext, args map[string]string) (string, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(args["reminder_id"]), 10, 64)
	if err != nil {
		return "Please provide a numeric reminder ID.", nil
	}
	ok, err := turn.Caps.Store.DeleteReminder(id)
	if err != nil {
		return "", fmt.Errorf("delete reminder: %w", err)
	}
	if !ok {
		return fmt.Sprintf("I couldn't find reminder %d.", id), nil
	}
	return "Reminder deleted successfully!", nil
}

func handleSetLanguage(_ context.Context, turn *TurnContext, args map[string]string) (string, error) {
	return setPreferenceReply(turn, "language", args["language"], "Your language has been set to %s.")
}

func handleSetTone(_ context.Context, turn *TurnContext, args map[string]string) (string, error) {
	return setPreferenceReply(turn, "tone", args["tone"], "Your tone has been set to %s.")
}

func handleSetDefaultCity(_ context.Context, turn *TurnContext, args map[string]string) (string, error) {
	return setPreferenceReply(turn, "default_city", args["city"], "Your default city has been set to %s.")
}

func handleSetInterests(_ context.Context, turn *TurnContext, args map[string]string) (string, error) {
	return setPreferenceReply(turn, "interests", args["interests"], "Your interests have been set to %s.")
}

func setPreferenceReply(turn *TurnContext, key, value, format string) (string, error) {
	if turn.User == nil {
		return loginRequired, nil
	}
	if err := turn.Caps.Store.SetPreference(turn.User.Email, key, value); err != nil {
		return "", fmt.Errorf("set %s: %w", key, err)
	}
	return fmt.Sprintf(format, value), nil
}

func handleSetGoal(_ context.Context, turn *TurnContext, args map[string]string) (string, error) {
	if turn.User == nil {
		return loginRequired, nil
	}
	id, err := turn.Caps.Store.AddGoal(turn.User.Email, args["goal_description"])
	if err != nil {
		return "", fmt.Errorf("add goal: %w", err)
	}
	return fmt.Sprintf("Goal %d set: %s", id, args["goal_description"]), nil
}

func handleShowGoals(_ context.Context, turn *TurnContext, _ map[string]string) (string, error) {
	if turn.User == nil {
		return loginRequired, nil
	}
	goals, err := turn.Caps.Store.ActiveGoals(turn.User.Email)
	if err != nil {
		return "", fmt.Errorf("list goals: %w", err)
	}
	if len(goals) == 0 {
		return "You have no active goals.", nil
	}

	var b strings.Builder
	b.WriteString("Your active goals:\n")
	for _, g := range goals {
		fmt.Fprintf(&b, "- ID: %d, Goal: %s\n", g.ID, g.Description)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func handleCompleteGoal(_ context.Context, turn *TurnContext, args map[string]string) (string, error) {
	return updateGoalReply(turn, args["goal_id"], store.GoalCompleted, "Goal %d marked as completed.")
}

func handleAbandonGoal(_ context.Context, turn *TurnContext, args map[string]string) (string, error) {
	return updateGoalReply(turn, args["goal_id"], store.GoalAbandoned, "Goal %d abandoned.")
}

func updateGoalReply(turn *TurnContext, rawID, status, format string) (string, error) {
	if turn.User == nil {
		return loginRequired, nil
	}
	id, err := strconv.ParseInt(strings.TrimSpace(rawID), 10, 64)
	if err != nil {
		return "Please provide a numeric goal ID.", nil
	}
	ok, err := turn.Caps.Store.UpdateGoalStatus(id, status)
	if err != nil {
		return "", fmt.Errorf("update goal: %w", err)
	}
	if !ok {
		return fmt.Sprintf("I couldn't find goal %d.", id), nil
	}
	return fmt.Sprintf(format, id), nil
}

func handleAddTask(_ context.Context, turn *TurnContext, args map[string]string) (string, error) {
	if turn.User == nil {
		return loginRequired, nil
	}
	id, err := turn.Caps.Store.AddTask(turn.User.Email, args["task_description"], args["due_date"])
	if err != nil {
		return "", fmt.Errorf("add task: %w", err)
	}
	return fmt.Sprintf("Task %d added: %s", id, args["task_description"]), nil
}

func handleShowTasks(_ context.Context, turn *TurnContext, _ map[string]string) (string, error) {
	if turn.User == nil {
		return loginRequired, nil
	}
	tasks, err := turn.Caps.Store.PendingTasks(turn.User.Email)
	if err != nil {
		return "", fmt.Errorf("list tasks: %w", err)
	}
	if len(tasks) == 0 {
		return "You have no pending tasks.", nil
	}

	var b strings.Builder
	b.WriteString("Your pending tasks:\n")
	for _, t := range tasks {
		due := t.DueDate
		if due == "" {
			due = "N/A"
		}
		fmt.Fprintf(&b, "- ID: %d, Task: %s, Due: %s\n", t.ID, t.Description, due)
	}
	return strings.TrimRight(b.String(), "\n"), nil
}

func handleCompleteTask(_ context.Context, turn *TurnContext, args map[string]string) (string, error) {
	if turn.User == nil {
		return loginRequired, nil
	}
	id, err := strconv.ParseInt(strings.TrimSpace(args["task_id"]), 10, 64)
	if err != nil {
		return "Please provide a numeric task ID.", nil
	}
	ok, err := turn.Caps.Store.UpdateTaskStatus(id, store.TaskCompleted)
	if err != nil {
		return "", fmt.Errorf("update task: %w", err)
	}
	if !ok {
		return fmt.Sprintf("I couldn't find task %d.", id), nil
	}
	return fmt.Sprintf("Task %d marked as completed.", id), nil
}

func handleGetUserDetails(_ context.Context, turn *TurnContext, _ map[string]string) (string, error) {
	if turn.User == nil {
		return "You are not logged in. Please log in to see your details.", nil
	}
	return fmt.Sprintf(
		"Here are your details:\n- First Name: %s\n- Last Name: %s\n- Email: %s",
		turn.User.FirstName, turn.User.LastName, turn.User.Email,
	), nil
}

func handleSendEmail(_ context.Context, turn *TurnContext, args map[string]string) (string, error) {
	if err := turn.Caps.Mailer.Send(args["recipient"], args["subject"], args["body"]); err != nil {
		return "", fmt.Errorf("send email: %w", err)
	}
	return "Email sent successfully.", nil
}

func handleResearchPage(ctx context.Context, turn *TurnContext, args map[string]string) (string, error) {
	return turn.Caps.Research.Ingest(ctx, args["url"])
}
