package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"atelier/internal/api"
)

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var (
		userID   int64
		timezone string
		planID   string
	)

	cmd := &cobra.Command{
		Use:   "plan [steps.json]",
		Short: "Schedule a daily reminder plan for an artist",
		Long: `Schedule a daily reminder plan for an artist.

The optional steps file holds a JSON array of {"day": N, "payload": "..."}
entries. Days without an entry fall back to the default guidance message.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID <= 0 {
				return fmt.Errorf("--user is required")
			}
			req := api.PlanRequest{
				PlanID:   planID,
				UserID:   userID,
				Timezone: timezone,
			}
			if len(args) == 1 {
				raw, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read steps file: %w", err)
				}
				if err := json.Unmarshal(raw, &req.Steps); err != nil {
					return fmt.Errorf("parse steps file %s: %w", args[0], err)
				}
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			resp, err := client.SubmitPlan(context.Background(), req)
			if err != nil {
				return err
			}
			fmt.Printf("Scheduled plan %s for user %d: %d reminders in %s\n",
				resp.PlanID, resp.UserID, resp.Reminders, resp.Timezone)
			return nil
		},
	}

	cmd.Flags().Int64Var(&userID, "user", 0, "User ID to schedule reminders for")
	cmd.Flags().StringVar(&timezone, "timezone", "", "IANA timezone for send times (default from config)")
	cmd.Flags().StringVar(&planID, "plan-id", "", "Explicit plan identifier (default generated)")
	return cmd
}
