package main

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"tutor-cli/internal/app"
	"tutor-cli/internal/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const version = "1.0.0"

func buildApp() (*app.Application, error) {
	cfg, err := app.LoadConfig(app.DefaultConfigPath())
	if err != nil {
		return nil, err
	}
	creds := app.NewCredentialStore(app.DefaultCredentialPath())
	return app.NewApplication(cfg, creds, app.OpenLogFile()), nil
}

func withTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 30*time.Second)
}

func readPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	data, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func main() {
	// Local .env overrides are optional; a missing file is fine.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:     "tutor",
		Short:   "Learn anything with AI-generated presentations, live tutors and quizzes",
		Long:    "Tutor turns a prompt into an educational presentation with a rendered animation, then lets you discuss it with a live AI tutor and test yourself with an auto-generated quiz.\n\nRun without arguments for the interactive TUI.",
		Version: version,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			p := tea.NewProgram(tui.NewRootModel(application), tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}

	loginCmd := &cobra.Command{
		Use:   "login [username]",
		Short: "Log in and store credentials",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			username := ""
			if len(args) > 0 {
				username = args[0]
			} else {
				fmt.Print("username: ")
				if _, err := fmt.Scanln(&username); err != nil {
					return err
				}
			}
			password, err := readPassword("password: ")
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout()
			defer cancel()
			session, err := application.Login(ctx, username, password)
			if err != nil {
				return err
			}
			fmt.Printf("logged in as %s\n", session.DisplayName)
			return nil
		},
	}

	signupCmd := &cobra.Command{
		Use:   "signup [username] [email]",
		Short: "Create a new account",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			password, err := readPassword("password: ")
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout()
			defer cancel()
			user, err := application.Signup(ctx, args[0], args[1], password)
			if err != nil {
				return err
			}
			fmt.Printf("account %q created, run `tutor login %s` to sign in\n", user.Username, user.Username)
			return nil
		},
	}

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Log out and clear stored credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout()
			defer cancel()
			if err := application.Logout(ctx); err != nil {
				fmt.Println("local credentials cleared (remote logout failed)")
				return nil
			}
			fmt.Println("logged out")
			return nil
		},
	}

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show session and service status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			application, err := buildApp()
			if err != nil {
				return err
			}
			ctx, cancel := withTimeout()
			defer cancel()

			if session := application.Revalidate(ctx); session != nil {
				fmt.Printf("logged in as %s\n", session.DisplayName)
			} else {
				fmt.Println("not logged in")
			}
			if application.Generation.Status(ctx) {
				fmt.Println("generation service: available")
			} else {
				fmt.Println("generation service: unavailable")
			}
			fmt.Printf("api: %s\n", application.Config.APIBaseURL)
			fmt.Printf("meet: %s\n", application.Config.MeetURL)
			return nil
		},
	}

	root.AddCommand(loginCmd, signupCmd, logoutCmd, statusCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
