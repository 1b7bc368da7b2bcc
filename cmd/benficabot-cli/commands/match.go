package commands

import (
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"benficabot/lib/scrapers/espn"
	"benficabot/lib/scrapers/slbenfica"
	"benficabot/lib/serviceutil"
	"benficabot/lib/timezone"
	"benficabot/services/match"
)

var matchStore *string

func init() {
	matchCmd.AddCommand(matchFetchCmd)
	matchCmd.AddCommand(matchPreviewCmd)
	matchStore = matchFetchCmd.Flags().String("store", "match_data.json", "The cache file to write the fetched match to.")
	rootCmd.AddCommand(matchCmd)
}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Fetch and inspect the next Benfica fixture.",
}

func newMatchService(store match.Store) *match.Service {
	slbClient, err := slbenfica.NewClient(slbenfica.ClientOptions{})
	if err != nil {
		serviceutil.Fatal("failed to create slbenfica client", err)
	}
	return match.NewService(store,
		match.SLBenficaSource{Client: slbClient},
		match.ESPNSource{Client: espn.NewClient(espn.ClientOptions{})},
	)
}

var matchFetchCmd = &cobra.Command{
	Use:   "fetch [--store <path/to/match_data.json>]",
	Short: "Scrapes the next fixture and writes it to the cache file.",
	Run: func(cmd *cobra.Command, args []string) {
		service := newMatchService(match.NewStore(*matchStore))

		t1 := time.Now()
		ok := service.Update(cmd.Context())
		t2 := time.Now()

		if !ok {
			serviceutil.Fatal("fetch failed", errors.New("no source returned an upcoming match"))
		}
		slog.Info("fetched next match", "store", *matchStore, "seconds", t2.Sub(t1).Seconds())
	},
}

var matchPreviewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Scrapes the next fixture and prints the bot's messages for it.",
	Run: func(cmd *cobra.Command, args []string) {
		service := newMatchService(match.NewStore("match_data.json"))

		record, ok := service.Current(cmd.Context())
		if !ok {
			cmd.Println(match.NoMatchMessage)
			return
		}
		cmd.Println(match.FormatSchedule(record))
		cmd.Println(match.FormatCountdown(record, timezone.Now()))
	},
}
