package bot

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"benficabot/lib/scrapers/slbenfica"
	"benficabot/lib/timezone"
	"benficabot/services/covers"
	"benficabot/services/match"
)

// Reply is what a command handler produces. The dispatcher takes care
// of delivering it through the interaction webhook.
type Reply struct {
	Content   string
	Files     []*discordgo.File
	Ephemeral bool
}

func (s *Service) handleCapas(ctx context.Context, channelId string) Reply {
	_, data, err := s.covers.Compose(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "capas command failed", "err", err)
		return Reply{Content: ErrorCoversFetch}
	}

	// A manual post into the daily channel counts as that day's post.
	if channelId != "" && channelId == s.dailyChannel {
		err := s.lastRun.Mark(channelId, s.now().In(timezone.Location).Format(time.DateOnly))
		if err != nil {
			slog.WarnContext(ctx, "failed to record manual covers post", "err", err)
		}
	}

	return Reply{Files: []*discordgo.File{{
		Name:        covers.FileName,
		ContentType: "image/jpeg",
		Reader:      bytes.NewReader(data),
	}}}
}

func (s *Service) handleActualizarData(ctx context.Context) Reply {
	if !s.matches.Update(ctx) {
		return Reply{Content: ErrorMatchDataUpdate}
	}
	return Reply{Content: SuccessMatchDataUpdated}
}

func (s *Service) handleQuandoJoga(ctx context.Context) Reply {
	record, ok := s.matches.Current(ctx)
	if !ok {
		return Reply{Content: match.NoMatchMessage}
	}
	return Reply{Content: match.FormatSchedule(record)}
}

func (s *Service) handleQuantoFalta(ctx context.Context) Reply {
	record, ok := s.matches.Current(ctx)
	if !ok {
		return Reply{Content: match.NoMatchMessage}
	}
	return Reply{Content: match.FormatCountdown(record, s.now())}
}

func (s *Service) handleCalendario(ctx context.Context, count int) Reply {
	count = clamp(count, 1, maxCalendarEntries)

	events, err := s.calendar.UpcomingMatches(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "calendario command failed", "err", err)
		return Reply{Content: ErrorCalendarFetch}
	}
	if len(events) == 0 {
		return Reply{Content: ErrorNoUpcoming}
	}
	if len(events) > count {
		events = events[:count]
	}
	return Reply{Content: formatUpcoming(events)}
}

func formatUpcoming(events []slbenfica.Event) string {
	var b strings.Builder
	b.WriteString("📅 **Próximos jogos:**\n")
	for _, event := range events {
		side := "🏠 Casa"
		if !event.Home {
			side = "✈️ Fora"
		}
		fmt.Fprintf(&b, "\n⚽ <t:%d:F> vs %s (%s)\n🏆 %s | 🏟️ %s",
			event.Start.Unix(), event.Adversary, side,
			event.Competition, event.Location)
		if event.TVChannel != "" {
			b.WriteString(" | 📺 " + event.TVChannel)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}

func eventName(adversary string) string {
	return "⚽ Benfica vs " + adversary
}

func eventDescription(event slbenfica.Event) string {
	description := fmt.Sprintf("🏟️ **Local:** %s\n🏆 **Competição:** %s\n",
		event.Location, event.Competition)
	if event.TVChannel != "" {
		description += fmt.Sprintf("📺 **Canal TV:** %s\n", event.TVChannel)
	}
	return description
}

func (s *Service) handleCriarEvento(ctx context.Context, guildId string, count int) Reply {
	if guildId == "" {
		return Reply{Content: ErrorGuildOnly}
	}
	count = clamp(count, 1, maxCalendarEntries)

	matches, err := s.calendar.UpcomingMatches(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "criar_evento calendar fetch failed", "err", err)
		return Reply{Content: ErrorEventCreate}
	}
	if len(matches) == 0 {
		return Reply{Content: ErrorNoUpcoming}
	}
	if len(matches) > count {
		matches = matches[:count]
	}

	existing, err := s.events.GuildScheduledEvents(guildId, false)
	if err != nil {
		slog.ErrorContext(ctx, "criar_evento event listing failed", "err", err)
		return Reply{Content: ErrorEventCreate}
	}
	byName := map[string]*discordgo.GuildScheduledEvent{}
	for _, event := range existing {
		byName[event.Name] = event
	}

	var created, updated, unchanged, failed int
	for _, m := range matches {
		name := eventName(m.Adversary)
		description := eventDescription(m)
		start := m.Start
		end := start.Add(2 * time.Hour)
		params := &discordgo.GuildScheduledEventParams{
			Name:               name,
			Description:        description,
			ScheduledStartTime: &start,
			ScheduledEndTime:   &end,
			EntityType:         discordgo.GuildScheduledEventEntityTypeExternal,
			EntityMetadata: &discordgo.GuildScheduledEventEntityMetadata{
				Location: m.Location,
			},
			PrivacyLevel: discordgo.GuildScheduledEventPrivacyLevelGuildOnly,
		}

		prior, exists := byName[name]
		if exists && !eventNeedsUpdate(prior, description, start, m.Location) {
			unchanged++
			continue
		}

		if exists {
			_, err = s.events.GuildScheduledEventEdit(guildId, prior.ID, params)
		} else {
			_, err = s.events.GuildScheduledEventCreate(guildId, params)
		}
		if err != nil {
			slog.WarnContext(ctx, "failed to sync scheduled event",
				"event", name, "err", err)
			failed++
			continue
		}
		if exists {
			updated++
		} else {
			created++
		}
	}

	return Reply{Content: eventSummary(created, updated, unchanged, failed)}
}

func eventNeedsUpdate(prior *discordgo.GuildScheduledEvent, description string, start time.Time, location string) bool {
	priorLocation := prior.EntityMetadata.Location
	drift := prior.ScheduledStartTime.Sub(start)
	if drift < 0 {
		drift = -drift
	}
	return prior.Description != description ||
		priorLocation != location ||
		drift > time.Minute
}

func eventSummary(created, updated, unchanged, failed int) string {
	lines := []string{"📅 **Resumo:**"}
	if created > 0 {
		lines = append(lines, fmt.Sprintf("✅ Criados: %d", created))
	}
	if updated > 0 {
		lines = append(lines, fmt.Sprintf("🔄 Atualizados: %d", updated))
	}
	if failed > 0 {
		lines = append(lines, fmt.Sprintf("❌ Erros: %d", failed))
	}
	if created == 0 && updated == 0 && failed == 0 && unchanged > 0 {
		lines = append(lines, "✓ Sem alterações")
	}
	return strings.Join(lines, "\n")
}

func (s *Service) handleAjuda() Reply {
	return Reply{Content: HelpMessage, Ephemeral: true}
}
