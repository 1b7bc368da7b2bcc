package main

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"

	"benficabot/lib/restyutil"
	"benficabot/lib/scrapers/espn"
	"benficabot/lib/scrapers/sapo"
	"benficabot/lib/scrapers/slbenfica"
	"benficabot/lib/serviceutil"
	"benficabot/lib/telemetry"
	"benficabot/services/bot"
	"benficabot/services/covers"
	"benficabot/services/daily"
	"benficabot/services/match"
)

func main() {
	ctx := serviceutil.SignalContext()

	config, err := loadConfig()
	if err != nil {
		serviceutil.Fatal("failed to load configuration", err)
	}
	telemetry.InitSlog(config.Verbose)

	problems := config.Validate()
	if len(problems) > 0 {
		slog.Error("configuration is invalid", "problems", strings.Join(problems, "; "))
		return
	}

	t, err := telemetry.SetupFromEnv(ctx, "benficabot")
	if err != nil {
		serviceutil.Fatal("failed to initialize telemetry", err)
	}
	defer func() {
		err := t.Shutdown(context.Background())
		if err != nil {
			slog.Error("telemetry shutdown", "err", err)
		}
	}()
	telemetry.InstrumentPerfStats(ctx)

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}

	slbClient, err := slbenfica.NewClient(slbenfica.ClientOptions{})
	if err != nil {
		serviceutil.Fatal("failed to create slbenfica client", err)
	}
	espnClient := espn.NewClient(espn.ClientOptions{})
	sapoClient := sapo.NewClient(sapo.ClientOptions{})
	if config.Verbose {
		slbClient.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/slbenfica"))
		espnClient.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/espn"))
		sapoClient.SetRestyInstrumentOutput(restyutil.NewFilesystemOutput(".dev/resty/sapo"))
	}

	matchService := match.NewService(
		match.NewStore(filepath.Join(dataDir, "match_data.json")),
		match.SLBenficaSource{Client: slbClient},
		match.ESPNSource{Client: espnClient},
	)
	coversService := covers.NewService(covers.ServiceOptions{Client: sapoClient})
	lastRun := daily.NewLastRun(filepath.Join(dataDir, "last_run.json"))

	botService, err := bot.NewService(bot.Options{
		Token:          config.DiscordToken,
		Matches:        matchService,
		Covers:         coversService,
		Calendar:       slbClient,
		LastRun:        lastRun,
		DailyChannelId: config.ChannelId,
	})
	if err != nil {
		serviceutil.Fatal("failed to create bot service", err)
	}

	scheduler := daily.NewScheduler(daily.SchedulerOptions{
		Poster:    botService,
		LastRun:   lastRun,
		ChannelId: config.ChannelId,
		Hour:      config.ScheduleHour,
	})
	go scheduler.Run(ctx)
	go daily.NewHeartbeat(filepath.Join(dataDir, "bot_health.txt")).Run(ctx)

	slog.Info("benficabot starting",
		"channel", config.ChannelId,
		"schedule_hour", config.ScheduleHour)
	err = botService.Run(ctx)
	if err != nil {
		serviceutil.Fatal("bot terminated", err)
	}
}
