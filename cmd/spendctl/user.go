package main

import (
	"errors"
	"fmt"

	"spendwise/internal/auth"
	"spendwise/internal/core"

	"github.com/spf13/cobra"
)

var (
	flagUserName     string
	flagUserEmail    string
	flagUserPassword string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var userCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a user account",
	RunE:  runUserCreate,
}

var userListCmd = &cobra.Command{
	Use:   "list",
	Short: "List user accounts",
	RunE:  runUserList,
}

func init() {
	userCreateCmd.Flags().StringVar(&flagUserName, "name", "", "Display name")
	userCreateCmd.Flags().StringVar(&flagUserEmail, "email", "", "Login email")
	userCreateCmd.Flags().StringVar(&flagUserPassword, "password", "", "Initial password")
	for _, f := range []string{"name", "email", "password"} {
		_ = userCreateCmd.MarkFlagRequired(f)
	}
	userCmd.AddCommand(userCreateCmd, userListCmd)
	rootCmd.AddCommand(userCmd)
}

func runUserCreate(cmd *cobra.Command, _ []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	svc := auth.NewService(repo, cfg.SessionTTL)
	user, err := svc.Register(cmd.Context(), flagUserName, flagUserEmail, flagUserPassword)
	if errors.Is(err, core.ErrConflict) {
		return fmt.Errorf("a user with email %s already exists", flagUserEmail)
	}
	if err != nil {
		return err
	}

	if flagJSON {
		return printJSON(cmd.OutOrStdout(), user)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "  Created user %s <%s> (%s)\n", user.Name, user.Email, user.ID)
	return nil
}

func runUserList(cmd *cobra.Command, _ []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	users, err := repo.ListUsers(cmd.Context())
	if err != nil {
		return err
	}
	if flagJSON {
		return printJSON(cmd.OutOrStdout(), users)
	}
	for _, u := range users {
		fmt.Fprintf(cmd.OutOrStdout(), "  %-36s  %-30s  %s\n", u.ID, u.Email, u.Name)
	}
	return nil
}
