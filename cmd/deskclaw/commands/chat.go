// Package commands – chat.go implements the interactive conversation loop
// and the single-shot `deskclaw chat "message"` mode.
package commands

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/chzyer/readline"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/assistant"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/config"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/features"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/scheduler"
	"github.com/jholhewres/deskclaw/pkg/deskclaw/tts"
)

func newChatCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "chat [message]",
		Short: "Talk to the assistant",
		Long: `Starts a conversation with the assistant. Pass a message for a single
answer, or no arguments for interactive mode.

Examples:
  deskclaw chat "what's the weather in Paris"
  deskclaw chat`,
		Args: cobra.MaximumNArgs(1),
		RunE: runChat,
	}
	cmd.Flags().Bool("speak", false, "read replies aloud (requires tts config)")
	return cmd
}

func runChat(cmd *cobra.Command, args []string) error {
	app, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer app.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	speaker := buildSpeaker(cmd, app)
	speaker.Start(ctx)
	defer speaker.Shutdown()

	if len(args) > 0 {
		_, err := processTurn(ctx, app, speaker, args[0])
		return err
	}
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return runPiped(ctx, app, speaker)
	}
	return runInteractive(ctx, app, speaker)
}

// runPiped answers each line from stdin, for use in scripts:
// echo "what time is it" | deskclaw chat
func runPiped(ctx context.Context, app *App, speaker *tts.Speaker) error {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, err := processTurn(ctx, app, speaker, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// buildSpeaker returns a speaking or silent speaker depending on flags
// and config. A nil provider makes Say a no-op.
func buildSpeaker(cmd *cobra.Command, app *App) *tts.Speaker {
	speak, _ := cmd.Flags().GetBool("speak")
	var provider tts.Provider
	if (speak || app.Cfg.TTS.Enabled) && app.Cfg.TTS.APIKey != "" {
		provider = tts.NewOpenAIProvider(app.Cfg.TTS.APIKey, app.Cfg.TTS.BaseURL, app.Cfg.TTS.Model)
	}
	return tts.NewSpeaker(provider, app.Cfg.TTS.Voice, app.Logger)
}

func runInteractive(ctx context.Context, app *App, speaker *tts.Speaker) error {
	sched := scheduler.New(app.Store, func(_, message string) {
		fmt.Printf("\n[Reminder] %s\n> ", message)
		speaker.Say(message)
	}, app.Logger)
	if err := sched.Start(ctx); err != nil {
		app.Logger.Warn("reminder scheduler unavailable", "error", err)
	} else {
		defer sched.Stop()
	}

	user, _ := app.Auth.CurrentUser()
	name := ""
	if user != nil {
		name = user.FirstName
	}
	fmt.Println(features.Greeting(time.Now(), name))
	fmt.Println(`Type "exit" to leave, /good or /bad to rate the last answer.`)

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "> ",
		HistoryFile:     filepath.Join(config.DataDir(), "chat_history"),
		InterruptPrompt: "^C",
	})
	if err != nil {
		return fmt.Errorf("starting readline: %w", err)
	}
	defer rl.Close()

	var last *exchange
	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			return err
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			fmt.Println("Goodbye!")
			return nil
		}
		if strings.HasPrefix(line, "/") {
			runReplCommand(app, line, last)
			continue
		}

		reply, err := processTurn(ctx, app, speaker, line)
		if err != nil {
			return err
		}
		last = &exchange{user: line, reply: reply}
	}
}

// exchange is the last question/answer pair, kept for feedback ratings.
type exchange struct {
	user  string
	reply string
}

// runReplCommand handles the slash commands: /good and /bad rate the last
// answer, /history shows recent queries.
func runReplCommand(app *App, line string, last *exchange) {
	user, _ := app.Auth.CurrentUser()

	switch line {
	case "/good", "/bad":
		if last == nil {
			fmt.Println("Nothing to rate yet.")
			return
		}
		rating := 1
		if line == "/bad" {
			rating = -1
		}
		email := "guest"
		if user != nil {
			email = user.Email
		}
		snapshot, err := json.Marshal(map[string]string{"user": last.user, "assistant": last.reply})
		if err != nil {
			return
		}
		if err := app.Store.AddFeedback(uuid.NewString(), email, rating, string(snapshot)); err != nil {
			fmt.Println("Couldn't record feedback.")
			return
		}
		fmt.Println("Thanks for the feedback!")
	case "/history":
		if user == nil {
			fmt.Println("Sign in to keep a query history.")
			return
		}
		queries, err := app.Store.RecentQueries(user.Email, 10)
		if err != nil || len(queries) == 0 {
			fmt.Println("No recent queries.")
			return
		}
		for _, q := range queries {
			fmt.Println("-", q)
		}
	default:
		fmt.Println("Commands: /good /bad /history")
	}
}

// processTurn sends one utterance through the assistant and prints the
// reply chunks as they arrive. The turn ends at the sentinel chunk.
func processTurn(ctx context.Context, app *App, speaker *tts.Speaker, text string) (string, error) {
	user, _ := app.Auth.CurrentUser()
	turn := &assistant.TurnContext{
		User:       user,
		ResetChat:  func() { fmt.Print("\033[H\033[2J") },
		StopSpeech: speaker.Stop,
	}

	var reply strings.Builder
	for chunk := range app.Assistant.ProcessTurn(ctx, app.Assistant.SessionKey(), turn, text) {
		if chunk.Sentinel {
			break
		}
		fmt.Print(chunk.Text)
		reply.WriteString(chunk.Text)
	}
	fmt.Println()

	if reply.Len() > 0 {
		speaker.Say(reply.String())
	}
	return reply.String(), nil
}
