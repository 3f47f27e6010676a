package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"atelier/internal/api"
)

const (
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
	ansiReset  = "\x1b[0m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show daemon and roster status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			status, err := client.Status(context.Background())
			if err != nil {
				return err
			}
			printStatus(status)
			return nil
		},
	}
}

func printStatus(status *api.DaemonStatus) {
	colorize := shouldColorize(os.Stdout)

	state := "stopped"
	color := ansiYellow
	if status.Running {
		state = "running"
		color = ansiGreen
	}
	if colorize {
		state = color + state + ansiReset
	}

	fmt.Printf("Daemon:    %s (pid %d)\n", state, status.PID)
	fmt.Printf("Database:  %s\n", status.DatabasePath)
	fmt.Printf("Lock file: %s\n", status.LockFilePath)
	fmt.Println()
	fmt.Printf("Artists:   %d total, %d committed, %d active, %d inactive\n",
		status.Health.Records, status.Health.Committed, status.Health.Active, status.Health.Inactive)
	fmt.Printf("Reminders: %d pending\n", status.Health.PendingTasks)

	if scan := status.LastScan; scan != nil {
		fmt.Println()
		header := "Last scan"
		rule := strings.Repeat("-", len(header))
		if colorize {
			header = ansiBlue + header + ansiReset
			rule = ansiBlue + rule + ansiReset
		}
		fmt.Println(header)
		fmt.Println(rule)
		fmt.Printf("  %s at %s\n", scan.ScanID, scan.FinishedAt)
		fmt.Printf("  scanned %d, demoted %d, updated %d, compliant %d, skipped %d, errors %d\n",
			scan.Scanned, scan.Demoted, scan.Updated, scan.Compliant, scan.Skipped, len(scan.Errors))
	}
}
