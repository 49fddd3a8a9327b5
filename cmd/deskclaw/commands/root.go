// Package commands implements the DeskClaw CLI commands using cobra.
package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command with all subcommands registered.
func NewRootCmd(version string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deskclaw",
		Short: "DeskClaw - conversational desktop assistant",
		Long: `DeskClaw is a conversational desktop assistant. It answers questions,
checks the weather, reads headlines, plans trips, sets reminders and
searches your own documents, all from one chat prompt.

Examples:
  deskclaw chat "what's the weather in Paris"
  deskclaw chat              # interactive mode
  deskclaw index notes.txt   # make a document searchable
  deskclaw setup             # first-run wizard`,
		Version: version,
	}

	rootCmd.AddCommand(
		newChatCmd(),
		newSetupCmd(),
		newLoginCmd(),
		newRegisterCmd(),
		newLogoutCmd(),
		newWhoamiCmd(),
		newIndexCmd(),
		newRememberCmd(),
		newScheduleCmd(),
		newFeedbackCmd(),
		newConfigCmd(),
		newHealthCmd(),
	)

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to the configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "enable debug logging")

	return rootCmd
}
