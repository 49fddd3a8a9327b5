// Package commands – feedback.go reviews recorded response ratings
// outside the chat loop.
package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/assistant"
)

func newFeedbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feedback",
		Short: "Review response feedback",
	}
	cmd.AddCommand(newFeedbackReviewCmd())
	return cmd
}

func newFeedbackReviewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "review",
		Short: "Propose better answers for thumbs-down responses",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			suggestions, err := assistant.ReviewFeedback(cmd.Context(), app.Store, app.LLM)
			if err != nil {
				return err
			}
			if len(suggestions) == 0 {
				fmt.Println("No negative feedback to review.")
				return nil
			}
			for i, s := range suggestions {
				fmt.Printf("Suggestion %d:\n", i+1)
				fmt.Printf("  Question:  %s\n", s.Query)
				fmt.Printf("  Rated bad: %s\n", s.BadReply)
				fmt.Printf("  Proposed:  %s\n\n", s.BetterReply)
			}
			return nil
		},
	}
}
