package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newEventCommand(ctx *commandContext) *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "event <user-id>",
		Short: "Record a qualifying upload for an artist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			var occurredAt time.Time
			if at != "" {
				occurredAt, err = time.Parse(time.RFC3339, at)
				if err != nil {
					return fmt.Errorf("invalid --at timestamp %q: %w", at, err)
				}
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			artist, err := client.SubmitEvent(context.Background(), userID, occurredAt)
			if err != nil {
				return err
			}
			fmt.Printf("Recorded upload for user %d (status %s, deficit %d)\n",
				artist.UserID, artist.Status, artist.Deficit)
			return nil
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "Event timestamp in RFC3339 (default now)")
	return cmd
}
