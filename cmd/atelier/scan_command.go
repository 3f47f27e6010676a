package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Run a compliance scan pass now",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			report, err := client.RunScan(context.Background())
			if err != nil {
				return err
			}
			fmt.Printf("Scan %s finished: scanned %d, demoted %d, updated %d, compliant %d, skipped %d\n",
				report.ScanID, report.Scanned, report.Demoted, report.Updated, report.Compliant, report.Skipped)
			for _, scanErr := range report.Errors {
				fmt.Printf("  user %d: %s\n", scanErr.UserID, scanErr.Reason)
			}
			return nil
		},
	}
}
