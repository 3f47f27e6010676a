package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newResetCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "reset <user-id>",
		Short: "Restore an artist to a clean compliant slate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUserID(args[0])
			if err != nil {
				return err
			}
			client, err := ctx.client()
			if err != nil {
				return err
			}
			artist, err := client.Reset(context.Background(), userID)
			if err != nil {
				return err
			}
			fmt.Printf("User %d reset to %s with deficit %d\n", artist.UserID, artist.Status, artist.Deficit)
			return nil
		},
	}
}
