package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/m-troja/taskstorm/internal/auth"
	"github.com/m-troja/taskstorm/internal/config"
	"github.com/m-troja/taskstorm/internal/db"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gorm.io/gorm"
)

func newAdminCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrative utilities",
	}
	cmd.AddCommand(newCreateUserCmd())
	cmd.AddCommand(newResetPasswordCmd())
	return cmd
}

func newCreateUserCmd() *cobra.Command {
	var (
		configPath string
		firstName  string
		lastName   string
		email      string
		slackID    string
	)

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account with an interactively prompted password",
		RunE: func(cmd *cobra.Command, args []string) error {
			gdb, err := openDB(configPath)
			if err != nil {
				return err
			}
			password, err := promptPassword(cmd)
			if err != nil {
				return err
			}
			u, err := auth.Register(gdb, auth.RegisterRequest{
				FirstName:   firstName,
				LastName:    lastName,
				Email:       email,
				Password:    password,
				SlackUserID: slackID,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s)\n", u.ID, u.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskstorm.yaml", "path to config file")
	cmd.Flags().StringVar(&firstName, "first-name", "", "first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "last name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&slackID, "slack-id", "", "Slack user id (optional)")
	cmd.MarkFlagRequired("first-name")
	cmd.MarkFlagRequired("last-name")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newResetPasswordCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "reset-password <user-id>",
		Short: "Set a new password for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid user id %q", args[0])
			}
			gdb, err := openDB(configPath)
			if err != nil {
				return err
			}
			password, err := promptPassword(cmd)
			if err != nil {
				return err
			}
			u, err := auth.ResetPassword(gdb, userID, password)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password updated for user %d (%s)\n", u.ID, u.Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "taskstorm.yaml", "path to config file")
	return cmd
}

func openDB(configPath string) (*gorm.DB, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return db.Connect(cfg.Database)
}

// promptPassword reads a password twice without echo.
func promptPassword(cmd *cobra.Command) (string, error) {
	out := cmd.OutOrStdout()
	fd := int(os.Stdin.Fd())

	fmt.Fprint(out, "Password: ")
	first, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	fmt.Fprint(out, "Repeat password: ")
	second, err := term.ReadPassword(fd)
	fmt.Fprintln(out)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}

	if string(first) != string(second) {
		return "", fmt.Errorf("passwords do not match")
	}
	if len(first) == 0 {
		return "", fmt.Errorf("password cannot be empty")
	}
	return string(first), nil
}
