// Package commands – remember.go stores free-form facts in the retrieval
// database so the assistant can answer from them later.
package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newRememberCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remember <fact>",
		Short: "Store a fact for future conversations",
		Long: `Stores a fact the assistant should recall later. Facts are indexed
like documents; questions such as "search my files for my standup time"
retrieve them.

Examples:
  deskclaw remember "My daily standup is at 9am"
  deskclaw remember "The wifi password is on the fridge"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			fact := strings.Join(args, " ")
			docID := "fact-" + uuid.NewString()
			if err := app.Memory.IndexDocument(ctx, docID, fact); err != nil {
				return fmt.Errorf("storing fact: %w", err)
			}
			fmt.Printf("Remembered: %q\n", fact)
			return nil
		},
	}
}
