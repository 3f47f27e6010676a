package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"atelier/internal/api"
)

func newArtistsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "artists [user-id]",
		Short: "List tracked artists or show one record",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := ctx.client()
			if err != nil {
				return err
			}
			if len(args) == 1 {
				userID, err := parseUserID(args[0])
				if err != nil {
					return err
				}
				artist, err := client.Artist(context.Background(), userID)
				if err != nil {
					return err
				}
				printArtist(artist)
				return nil
			}
			artists, err := client.Artists(context.Background())
			if err != nil {
				return err
			}
			printRoster(artists)
			return nil
		},
	}
}

func printRoster(artists []api.Artist) {
	if len(artists) == 0 {
		fmt.Println("No artists tracked yet.")
		return
	}

	title := cases.Title(language.English)
	rows := make([][]string, 0, len(artists))
	for _, artist := range artists {
		committed := "yes"
		if !artist.Committed {
			committed = "no"
		}
		lastEvent := artist.LastEventAt
		if lastEvent == "" {
			lastEvent = "-"
		}
		rows = append(rows, []string{
			strconv.FormatInt(artist.UserID, 10),
			title.String(artist.Status),
			strconv.Itoa(artist.Deficit),
			committed,
			lastEvent,
		})
	}

	headers := []string{"User", "Status", "Deficit", "Committed", "Last Upload"}
	aligns := []columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignLeft}
	fmt.Println(renderTable(headers, rows, aligns))
}

func printArtist(artist *api.Artist) {
	title := cases.Title(language.English)
	fmt.Printf("User:        %d\n", artist.UserID)
	fmt.Printf("Status:      %s\n", title.String(artist.Status))
	fmt.Printf("Deficit:     %d\n", artist.Deficit)
	fmt.Printf("Committed:   %t\n", artist.Committed)
	if artist.LastEventAt != "" {
		fmt.Printf("Last upload: %s\n", artist.LastEventAt)
	}
	if artist.UpdatedAt != "" {
		fmt.Printf("Updated:     %s\n", artist.UpdatedAt)
	}
}

func parseUserID(raw string) (int64, error) {
	userID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || userID <= 0 {
		return 0, fmt.Errorf("invalid user id %q", raw)
	}
	return userID, nil
}
