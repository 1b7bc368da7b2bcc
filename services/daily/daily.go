// Package daily runs the bot's recurring work: the morning covers post
// and the liveness heartbeat.
package daily

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"benficabot/lib/timezone"
)

var tracer = otel.Tracer("services/daily")

// Poster posts the covers collage to a channel. Implemented by the bot
// service.
type Poster interface {
	PostCovers(ctx context.Context, channelId string) error
}

// Scheduler posts the covers to one channel once per day, at the
// configured Lisbon hour. The per-channel last-run guard survives
// restarts through the LastRun file.
type Scheduler struct {
	poster    Poster
	lastRun   LastRun
	channelId string
	hour      int
	now       func() time.Time
}

type SchedulerOptions struct {
	Poster    Poster
	LastRun   LastRun
	ChannelId string
	// Hour is the Lisbon wall-clock hour to post at, 0 through 23.
	Hour int
}

func NewScheduler(opts SchedulerOptions) *Scheduler {
	return &Scheduler{
		poster:    opts.Poster,
		lastRun:   opts.LastRun,
		channelId: opts.ChannelId,
		hour:      opts.Hour,
		now:       timezone.Now,
	}
}

// Run wakes every minute and fires the daily post when due. It blocks
// until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs one scheduling decision. A post that fails is not marked
// done, so the next minute within the hour retries it.
func (s *Scheduler) Tick(ctx context.Context) {
	now := s.now().In(timezone.Location)
	if now.Hour() != s.hour {
		return
	}

	today := now.Format(time.DateOnly)
	if s.lastRun.Get(s.channelId) == today {
		return
	}

	ctx, span := tracer.Start(ctx, "daily.Post")
	defer span.End()

	slog.InfoContext(ctx, "posting daily covers", "channel", s.channelId)
	err := s.poster.PostCovers(ctx, s.channelId)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "daily covers post failed", "channel", s.channelId, "err", err)
		return
	}

	err = s.lastRun.Mark(s.channelId, today)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "failed to record last run", "channel", s.channelId, "err", err)
	}
}
