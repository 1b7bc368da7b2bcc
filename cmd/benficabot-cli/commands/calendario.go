package commands

import (
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"benficabot/lib/scrapers/slbenfica"
	"benficabot/lib/serviceutil"
)

var calendarCount *int

func init() {
	calendarCount = calendarCmd.Flags().IntP("count", "n", 10, "How many fixtures to list.")
	rootCmd.AddCommand(calendarCmd)
}

var calendarCmd = &cobra.Command{
	Use:   "calendario [--count <n>]",
	Short: "Lists the upcoming fixtures from the club calendar.",
	Run: func(cmd *cobra.Command, args []string) {
		client, err := slbenfica.NewClient(slbenfica.ClientOptions{})
		if err != nil {
			serviceutil.Fatal("failed to create slbenfica client", err)
		}

		events, err := client.UpcomingMatches(cmd.Context())
		if err != nil {
			serviceutil.Fatal("failed to fetch calendar", err)
		}
		if len(events) > *calendarCount {
			events = events[:*calendarCount]
		}

		t := table.NewWriter()
		t.SetStyle(table.StyleRounded)
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Kickoff", "Adversary", "Side", "Competition", "Location", "TV"})
		for _, event := range events {
			side := "Casa"
			if !event.Home {
				side = "Fora"
			}
			t.AppendRow(table.Row{
				event.Start.Format(time.DateTime),
				event.Adversary,
				side,
				event.Competition,
				event.Location,
				event.TVChannel,
			})
		}
		t.Render()
	},
}
