package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

func newCommitCommand(ctx *commandContext) *cobra.Command {
	var optOut bool

	cmd := &cobra.Command{
		Use:   "commit <user-id>",
		Short: "Opt an artist in or out of the upload commitment",
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
			artist, err := client.SetCommitment(context.Background(), userID, !optOut)
			if err != nil {
				return err
			}
			if artist.Committed {
				fmt.Printf("User %d is now committed to the upload schedule\n", artist.UserID)
			} else {
				fmt.Printf("User %d has opted out of the upload schedule\n", artist.UserID)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&optOut, "opt-out", false, "Remove the commitment instead of adding it")
	return cmd
}
