// Package commands – schedule.go inspects and edits pending reminders
// outside the chat loop.
package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage reminders",
	}
	cmd.AddCommand(newScheduleListCmd(), newScheduleDeleteCmd())
	return cmd
}

func newScheduleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List pending reminders",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			key := "guest"
			if user, _ := app.Auth.CurrentUser(); user != nil {
				key = user.Email
			}
			reminders, err := app.Store.ListReminders(key)
			if err != nil {
				return err
			}
			if len(reminders) == 0 {
				fmt.Println("No pending reminders.")
				return nil
			}
			for _, r := range reminders {
				fmt.Printf("%d\t%s\t%s\n", r.ID, r.RemindAt, r.Message)
			}
			return nil
		},
	}
}

func newScheduleDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a reminder",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid reminder id %q", args[0])
			}

			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			ok, err := app.Store.DeleteReminder(id)
			if err != nil {
				return err
			}
			if !ok {
				fmt.Printf("No reminder with id %d.\n", id)
				return nil
			}
			fmt.Println("Reminder deleted.")
			return nil
		},
	}
}
