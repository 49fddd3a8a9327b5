// Package assistant – intent.go defines the closed intent catalogue: every
// capability DeskClaw can perform, with its argument slots. The catalogue
// is fixed at process start and shared by the keyword router, the fallback
// classifier and the dispatcher.
package assistant

// Intent identifiers. The set is closed; routing never produces an id
// outside this list (unknown classifier output degrades to IntentUnhandled).
const (
	IntentGreet          = "greet"
	IntentGetTime        = "get_time"
	IntentResetChat      = "reset_chat"
	IntentStopSpeech     = "stop_speech"
	IntentWeather        = "weather"
	IntentGoogleSearch   = "google_search"
	IntentGetNews        = "get_news"
	IntentGetStockPrice  = "get_stock_price"
	IntentFileQuery      = "file_query"
	IntentResearch       = "research_and_summarize"
	IntentResearchPage   = "research_webpage"
	IntentGenerateImage  = "generate_image"
	IntentOpenWebsite    = "open_website"
	IntentCloseWebsite   = "close_website"
	IntentSetReminder    = "set_reminder"
	IntentShowReminders  = "show_reminders"
	IntentDeleteReminder = "delete_reminder"
	IntentPlanTrip       = "plan_trip"
	IntentSetLanguage    = "set_language"
	IntentSetTone        = "set_tone"
	IntentSetDefaultCity = "set_default_city"
	IntentSetInterests   = "set_interests"
	IntentSetGoal        = "set_goal"
	IntentShowGoals      = "show_goals"
	IntentCompleteGoal   = "complete_goal"
	IntentAbandonGoal    = "abandon_goal"
	IntentAddTask        = "add_task"
	IntentShowTasks      = "show_tasks"
	IntentCompleteTask   = "complete_task"
	IntentGetUserDetails = "get_user_details"
	IntentSendEmail      = "send_email"
	IntentUnhandled      = "unhandled"
)

// Slot is a named argument of an intent.
type Slot struct {
	// Name identifies the slot in argument maps.
	Name string

	// Description is shown to the fallback classifier.
	Description string

	// Prompt is the clarification question asked when the slot is
	// required but missing.
	Prompt string

	// Required marks whether dispatch may proceed without it.
	Required bool
}

// Intent is one fixed capability with its argument schema. Slots are
// ordered; clarification asks for the first missing required slot.
type Intent struct {
	ID          string
	Description string
	Slots       []Slot
}

// MissingSlot returns the first required slot absent from args, or nil.
func (in Intent) MissingSlot(args map[string]string) *Slot {
	for i := range in.Slots {
		slot := &in.Slots[i]
		if slot.Required && args[slot.Name] == "" {
			return slot
		}
	}
	return nil
}

// Catalogue returns the full intent catalogue, keyed by identifier.
func Catalogue() map[string]Intent {
	intents := []Intent{
		{ID: IntentGreet, Description: "Responds to user greetings."},
		{ID: IntentGetTime, Description: "Gets the current time."},
		{ID: IntentResetChat, Description: "Resets the chat history."},
		{ID: IntentStopSpeech, Description: "Stops the text-to-speech output."},
		{
			ID:          IntentWeather,
			Description: "Gets the weather for a specified city.",
			Slots: []Slot{{
				Name:        "city",
				Description: "The city to get the weather for.",
				Prompt:      "Which city would you like the weather for?",
				Required:    true,
			}},
		},
		{
			ID:          IntentGoogleSearch,
			Description: "Performs a web search for a given query.",
			Slots: []Slot{{
				Name:        "query",
				Description: "The search query.",
				Prompt:      "What would you like me to search for?",
				Required:    true,
			}},
		},
		{
			ID:          IntentGetNews,
			Description: "Gets news about a specific topic.",
			Slots: []Slot{{
				Name:        "topic",
				Description: "The topic to get news about.",
				Prompt:      "Which topic would you like news about?",
				Required:    true,
			}},
		},
		{
			ID:          IntentGetStockPrice,
			Description: "Gets the stock price for a given symbol.",
			Slots: []Slot{{
				Name:        "symbol",
				Description: "The stock symbol.",
				Prompt:      "Which stock symbol should I look up?",
				Required:    true,
			}},
		},
		{
			ID:          IntentFileQuery,
			Description: "Queries the content of an uploaded file.",
			Slots: []Slot{{
				Name:        "query",
				Description: "The query to ask the file.",
				Prompt:      "What would you like to ask about the file?",
				Required:    true,
			}},
		},
		{
			ID:          IntentResearch,
			Description: "Researches a topic online and provides a summary.",
			Slots: []Slot{{
				Name:        "topic",
				Description: "The topic to research.",
				Prompt:      "What topic should I research?",
				Required:    true,
			}},
		},
		{
			ID:          IntentResearchPage,
			Description: "Scrapes and stores the content of a webpage.",
			Slots: []Slot{{
				Name:        "url",
				Description: "The URL of the webpage to research.",
				Prompt:      "Which URL should I research?",
				Required:    true,
			}},
		},
		{
			ID:          IntentGenerateImage,
			Description: "Generates an image based on a prompt.",
			Slots: []Slot{{
				Name:        "prompt",
				Description: "The prompt for image generation.",
				Prompt:      "What would you like me to generate?",
				Required:    true,
			}},
		},
		{
			ID:          IntentOpenWebsite,
			Description: "Opens a website in the default browser.",
			Slots: []Slot{{
				Name:        "url",
				Description: "The URL of the website to open.",
				Prompt:      "Which website should I open?",
				Required:    true,
			}},
		},
		{ID: IntentCloseWebsite, Description: "Closes the browser."},
		{
			ID:          IntentSetReminder,
			Description: "Sets a reminder for the user.",
			Slots: []Slot{
				{
					Name:        "message",
					Description: "The reminder message.",
					Prompt:      "What should I remind you about?",
					Required:    true,
				},
				{
					Name:        "time",
					Description: "The time for the reminder, e.g. 18:00 or 30m.",
					Prompt:      "When should I remind you?",
					Required:    true,
				},
			},
		},
		{ID: IntentShowReminders, Description: "Shows all active reminders."},
		{
			ID:          IntentDeleteReminder,
			Description: "Deletes a reminder by its ID.",
			Slots: []Slot{{
				Name:        "reminder_id",
				Description: "The ID of the reminder to delete.",
				Prompt:      "Which reminder ID should I delete?",
				Required:    true,
			}},
		},
		{
			ID:          IntentPlanTrip,
			Description: "Plans a trip for the user.",
			Slots: []Slot{
				{
					Name:        "destination",
					Description: "Where the trip goes.",
					Prompt:      "Where would you like to go?",
					Required:    true,
				},
				{
					Name:        "duration",
					Description: "Trip length in days.",
					Prompt:      "How many days will you be traveling?",
					Required:    true,
				},
				{
					Name:        "interests",
					Description: "The traveler's interests.",
					Prompt:      "What are your interests for this trip?",
					Required:    true,
				},
				{
					Name:        "trip_type",
					Description: "The kind of trip, e.g. relaxing or adventurous.",
					Prompt:      "What type of trip is this (relaxing, adventurous, cultural)?",
					Required:    true,
				},
			},
		},
		{
			ID:          IntentSetLanguage,
			Description: "Sets the user's preferred language.",
			Slots: []Slot{{
				Name:        "language",
				Description: "The language to set.",
				Prompt:      "Which language would you like?",
				Required:    true,
			}},
		},
		{
			ID:          IntentSetTone,
			Description: "Sets the user's preferred tone.",
			Slots: []Slot{{
				Name:        "tone",
				Description: "The tone to set.",
				Prompt:      "Which tone would you like?",
				Required:    true,
			}},
		},
		{
			ID:          IntentSetDefaultCity,
			Description: "Sets the user's default city for weather forecasts.",
			Slots: []Slot{{
				Name:        "city",
				Description: "The default city.",
				Prompt:      "Which city should be your default?",
				Required:    true,
			}},
		},
		{
			ID:          IntentSetInterests,
			Description: "Sets the user's interests.",
			Slots: []Slot{{
				Name:        "interests",
				Description: "The user's interests.",
				Prompt:      "What are your interests?",
				Required:    true,
			}},
		},
		{
			ID:          IntentSetGoal,
			Description: "Sets a new goal for the user.",
			Slots: []Slot{{
				Name:        "goal_description",
				Description: "The description of the goal.",
				Prompt:      "What goal would you like to set?",
				Required:    true,
			}},
		},
		{ID: IntentShowGoals, Description: "Shows the user's active goals."},
		{
			ID:          IntentCompleteGoal,
			Description: "Marks a goal as complete.",
			Slots: []Slot{{
				Name:        "goal_id",
				Description: "The ID of the goal to complete.",
				Prompt:      "Which goal ID did you complete?",
				Required:    true,
			}},
		},
		{
			ID:          IntentAbandonGoal,
			Description: "Abandons a goal.",
			Slots: []Slot{{
				Name:        "goal_id",
				Description: "The ID of the goal to abandon.",
				Prompt:      "Which goal ID should I abandon?",
				Required:    true,
			}},
		},
		{
			ID:          IntentAddTask,
			Description: "Adds a new task.",
			Slots: []Slot{
				{
					Name:        "task_description",
					Description: "The description of the task.",
					Prompt:      "What task would you like to add?",
					Required:    true,
				},
				{
					Name:        "due_date",
					Description: "Optional due date for the task.",
				},
			},
		},
		{ID: IntentShowTasks, Description: "Shows the user's pending tasks."},
		{
			ID:          IntentCompleteTask,
			Description: "Marks a task as complete.",
			Slots: []Slot{{
				Name:        "task_id",
				Description: "The ID of the task to complete.",
				Prompt:      "Which task ID did you complete?",
				Required:    true,
			}},
		},
		{ID: IntentGetUserDetails, Description: "Gets the current user's details."},
		{
			ID:          IntentSendEmail,
			Description: "Sends an email to a recipient.",
			Slots: []Slot{
				{
					Name:        "recipient",
					Description: "The email recipient.",
					Prompt:      "Who should I send the email to?",
					Required:    true,
				},
				{
					Name:        "subject",
					Description: "The email subject.",
					Prompt:      "What should the subject be?",
					Required:    true,
				},
				{
					Name:        "body",
					Description: "The email body.",
					Prompt:      "What should the email say?",
					Required:    true,
				},
			},
		},
		{ID: IntentUnhandled, Description: "Answers anything no other capability covers."},
	}

	catalogue := make(map[string]Intent, len(intents))
	for _, in := range intents {
		catalogue[in.ID] = in
	}
	return catalogue
}
