// Package assistant – keywords.go implements the deterministic keyword
// router: case-insensitive substring matching over a static phrase table,
// tried before the fallback classifier. Phrases are checked longest first
// (ties broken lexicographically) so "set a reminder" wins over "set" and
// matching order never depends on map iteration.
package assistant

import (
	"sort"
	"strings"
)

// keywordToIntent maps literal phrases to intent identifiers.
var keywordToIntent = map[string]string{
	// Time
	"time":            IntentGetTime,
	"what time is it": IntentGetTime,

	// Chat
	"reset chat":   IntentResetChat,
	"clear chat":   IntentResetChat,
	"stop talking": IntentStopSpeech,
	"shut up":      IntentStopSpeech,

	// Weather
	"weather":     IntentWeather,
	"forecast":    IntentWeather,
	"temperature": IntentWeather,

	// Image
	"image":    IntentGenerateImage,
	"picture":  IntentGenerateImage,
	"photo":    IntentGenerateImage,
	"generate": IntentGenerateImage,
	"create":   IntentGenerateImage,

	// Web
	"open":          IntentOpenWebsite,
	"go to":         IntentOpenWebsite,
	"launch":        IntentOpenWebsite,
	"close website": IntentCloseWebsite,
	"close browser": IntentCloseWebsite,
	"google":        IntentGoogleSearch,
	"search for":    IntentGoogleSearch,
	"find":          IntentGoogleSearch,
	"research":      IntentResearch,
	"summarize":     IntentResearch,
	"scrape":        IntentResearchPage,

	// News and stocks
	"news":        IntentGetNews,
	"headlines":   IntentGetNews,
	"stock price": IntentGetStockPrice,
	"stock":       IntentGetStockPrice,

	// File
	"file":     IntentFileQuery,
	"document": IntentFileQuery,
	"read":     IntentFileQuery,

	// Reminder
	"reminder":        IntentSetReminder,
	"remind me":       IntentSetReminder,
	"set a reminder":  IntentSetReminder,
	"show reminders":  IntentShowReminders,
	"list reminders":  IntentShowReminders,
	"delete reminder": IntentDeleteReminder,
	"remove reminder": IntentDeleteReminder,

	// Trip
	"trip":        IntentPlanTrip,
	"travel":      IntentPlanTrip,
	"journey":     IntentPlanTrip,
	"plan a trip": IntentPlanTrip,

	// Settings
	"city":          IntentSetDefaultCity,
	"set city":      IntentSetDefaultCity,
	"interests":     IntentSetInterests,
	"set interests": IntentSetInterests,

	// Goals
	"goal":          IntentSetGoal,
	"set goal":      IntentSetGoal,
	"my goals":      IntentShowGoals,
	"show goals":    IntentShowGoals,
	"complete goal": IntentCompleteGoal,
	"finish goal":   IntentCompleteGoal,
	"abandon goal":  IntentAbandonGoal,
	"quit goal":     IntentAbandonGoal,

	// Tasks
	"add task":      IntentAddTask,
	"new task":      IntentAddTask,
	"my tasks":      IntentShowTasks,
	"show tasks":    IntentShowTasks,
	"complete task": IntentCompleteTask,
	"finish task":   IntentCompleteTask,

	// User
	"my details": IntentGetUserDetails,
	"who am i":   IntentGetUserDetails,
	"my info":    IntentGetUserDetails,
}

// orderedKeywords holds the phrases in match-priority order.
var orderedKeywords = func() []string {
	phrases := make([]string, 0, len(keywordToIntent))
	for phrase := range keywordToIntent {
		phrases = append(phrases, phrase)
	}
	sort.Slice(phrases, func(i, j int) bool {
		if len(phrases[i]) != len(phrases[j]) {
			return len(phrases[i]) > len(phrases[j])
		}
		return phrases[i] < phrases[j]
	})
	return phrases
}()

// MatchKeyword returns the intent for the highest-priority phrase
// contained in text, or ("", false) when nothing matches.
func MatchKeyword(text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, phrase := range orderedKeywords {
		if strings.Contains(lower, phrase) {
			return keywordToIntent[phrase], true
		}
	}
	return "", false
}
