// Package commands – index.go makes local documents searchable through
// the assistant's "search my files" capability.
package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newIndexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "index <file>...",
		Short: "Index documents for retrieval",
		Long: `Splits the given text files into chunks, embeds them and stores them
in the retrieval database. Indexed content is answered through questions
like "search my files for the quarterly numbers".

Re-indexing an unchanged file is a no-op.

Examples:
  deskclaw index notes.txt reports/q3.md`,
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
			for _, path := range args {
				if err := app.Memory.IndexFile(ctx, path); err != nil {
					return fmt.Errorf("indexing %s: %w", path, err)
				}
				fmt.Printf("Indexed %s\n", path)
			}
			return nil
		},
	}
}
