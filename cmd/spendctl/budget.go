package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"spendwise/internal/auth"
	"spendwise/internal/cli"
	"spendwise/internal/core"

	"github.com/spf13/cobra"
)

var flagEmail string

var budgetCmd = &cobra.Command{
	Use:   "budget",
	Short: "Budget inspection",
}

var budgetCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Show a user's spending against the monthly budget",
	RunE:  runBudgetCheck,
}

func init() {
	budgetCheckCmd.Flags().StringVar(&flagEmail, "email", "", "User email")
	_ = budgetCheckCmd.MarkFlagRequired("email")
	budgetCmd.AddCommand(budgetCheckCmd)
	rootCmd.AddCommand(budgetCmd)
}

func runBudgetCheck(cmd *cobra.Command, _ []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	user, err := repo.GetUserByEmail(cmd.Context(), auth.NormalizeEmail(flagEmail))
	if errors.Is(err, core.ErrNotFound) {
		return fmt.Errorf("no user with email %s", flagEmail)
	}
	if err != nil {
		return err
	}

	sched := cli.NewScheduler(cfg, repo, nil, logger)
	result, err := sched.CheckBudgetForUser(cmd.Context(), user.ID, time.Now())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if flagJSON {
		return printJSON(out, result)
	}
	st := result.Status
	fmt.Fprintf(out, "  User:      %s <%s>\n", result.UserName, result.UserEmail)
	fmt.Fprintf(out, "  Month:     %s\n", time.Now().In(cfg.Location()).Format("January 2006"))
	fmt.Fprintf(out, "  Spent:     %s of %s (%.1f%%)\n", st.Spent.Dollars(), st.Budget.Dollars(), st.Percentage)
	fmt.Fprintf(out, "  Status:    %s\n", strings.ToUpper(string(st.Level)))
	if result.IsOverBudget {
		fmt.Fprintf(out, "  Over by:   %s\n", st.OverBudgetAmount.Dollars())
	} else {
		fmt.Fprintf(out, "  Remaining: %s\n", st.Remaining.Dollars())
	}
	return nil
}
