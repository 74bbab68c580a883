package main

import (
	"fmt"

	"spendwise/internal/amqp"
	"spendwise/internal/cli"

	"github.com/spf13/cobra"
)

var flagPublish bool

var weeklyCmd = &cobra.Command{
	Use:   "weekly",
	Short: "Weekly budget tasks",
}

var weeklyRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Check budget alerts and generate weekly digests now",
	RunE:  runWeekly,
}

func init() {
	weeklyRunCmd.Flags().BoolVar(&flagPublish, "publish", false, "Publish created records over AMQP")
	weeklyCmd.AddCommand(weeklyRunCmd)
	rootCmd.AddCommand(weeklyCmd)
}

func runWeekly(cmd *cobra.Command, _ []string) error {
	repo, err := openRepo()
	if err != nil {
		return err
	}
	defer repo.Close()

	var amqpClient *amqp.Client
	if flagPublish {
		if amqpClient = cli.InitAMQP(logger, cfg); amqpClient != nil {
			defer amqpClient.Close()
		}
	}

	sched := cli.NewScheduler(cfg, repo, amqpClient, logger)
	report, runErr := sched.TriggerWeeklyTasks(cmd.Context())

	out := cmd.OutOrStdout()
	if flagJSON {
		if err := printJSON(out, report); err != nil {
			return err
		}
	} else {
		fmt.Fprintf(out, "  Users checked:   %d\n", report.UsersChecked)
		fmt.Fprintf(out, "  Alerts created:  %d\n", report.AlertsCreated)
		fmt.Fprintf(out, "  Digests created: %d\n", report.DigestsCreated)
		fmt.Fprintf(out, "  Duration:        %s\n", report.FinishedAt.Sub(report.StartedAt))
		for _, e := range report.Errors {
			fmt.Fprintf(out, "  ! %s\n", e)
		}
	}
	if runErr != nil {
		return fmt.Errorf("weekly run finished with %d error(s)", len(report.Errors))
	}
	return nil
}
