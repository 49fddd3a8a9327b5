// Package commands – auth.go implements register, login, logout and
// whoami. Registration enforces the same email and password rules the
// assistant's account layer does; the CLI just collects the values.
package commands

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/jholhewres/deskclaw/pkg/deskclaw/auth"
)

func newRegisterCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "register",
		Short: "Create an account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			var first, last, email, password string
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("First name").Value(&first),
				huh.NewInput().Title("Last name").Value(&last),
				huh.NewInput().
					Title("Email").
					Validate(auth.ValidateEmail).
					Value(&email),
				huh.NewInput().
					Title("Password").
					Description("At least 8 characters with upper, lower, digit and symbol").
					EchoMode(huh.EchoModePassword).
					Validate(auth.ValidatePassword).
					Value(&password),
			))
			if err := form.Run(); err != nil {
				return fmt.Errorf("registration aborted: %w", err)
			}

			if err := app.Auth.Register(first, last, email, password); err != nil {
				return err
			}
			fmt.Println("Account created. Run \"deskclaw login\" to sign in.")
			return nil
		},
	}
}

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			var email, password string
			form := huh.NewForm(huh.NewGroup(
				huh.NewInput().Title("Email").Value(&email),
				huh.NewInput().
					Title("Password").
					EchoMode(huh.EchoModePassword).
					Value(&password),
			))
			if err := form.Run(); err != nil {
				return fmt.Errorf("login aborted: %w", err)
			}

			user, err := app.Auth.Login(email, password)
			if errors.Is(err, auth.ErrBadCredentials) {
				fmt.Println("Invalid email or password.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("Welcome back, %s!\n", user.FirstName)
			return nil
		},
	}
}

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			if err := app.Auth.Logout(); err != nil {
				return err
			}
			fmt.Println("Signed out.")
			return nil
		},
	}
}

func newWhoamiCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the signed-in account",
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer app.Close()

			user, err := app.Auth.CurrentUser()
			if errors.Is(err, auth.ErrNoSession) || user == nil {
				fmt.Println("Not signed in.")
				return nil
			}
			if err != nil {
				return err
			}
			fmt.Printf("%s %s <%s>\n", user.FirstName, user.LastName, user.Email)
			return nil
		},
	}
}
