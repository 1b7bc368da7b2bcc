// Package bot is the Discord surface: slash commands plus the channel
// posting used by the daily scheduler.
package bot

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"benficabot/lib/scrapers/slbenfica"
	"benficabot/lib/timezone"
	"benficabot/services/covers"
	"benficabot/services/daily"
	"benficabot/services/match"
)

var tracer = otel.Tracer("services/bot")

const (
	defaultCalendarEntries = 5
	maxCalendarEntries     = 10
)

// Scrape-heavy commands carry a per-user cooldown. Read-only commands
// answer from the cache and stay free.
var commandCooldowns = map[string]time.Duration{
	"capas":           10 * time.Minute,
	"actualizar_data": 10 * time.Minute,
	"calendario":      time.Minute,
	"criar_evento":    5 * time.Minute,
}

type Matches interface {
	Update(ctx context.Context) bool
	Current(ctx context.Context) (match.Record, bool)
}

type Covers interface {
	Compose(ctx context.Context) (string, []byte, error)
}

type Calendar interface {
	UpcomingMatches(ctx context.Context) ([]slbenfica.Event, error)
}

// ScheduledEvents is the slice of the discordgo session the
// criar_evento command needs.
type ScheduledEvents interface {
	GuildScheduledEvents(guildID string, userCount bool, options ...discordgo.RequestOption) ([]*discordgo.GuildScheduledEvent, error)
	GuildScheduledEventCreate(guildID string, event *discordgo.GuildScheduledEventParams, options ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error)
	GuildScheduledEventEdit(guildID, eventID string, event *discordgo.GuildScheduledEventParams, options ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error)
}

type Service struct {
	session      *discordgo.Session
	matches      Matches
	covers       Covers
	calendar     Calendar
	events       ScheduledEvents
	limiter      *Limiter
	lastRun      daily.LastRun
	dailyChannel string
	now          func() time.Time
}

type Options struct {
	Token    string
	Matches  Matches
	Covers   Covers
	Calendar Calendar
	// LastRun and DailyChannelId let a manual /capas in the daily
	// channel satisfy that day's scheduled post.
	LastRun        daily.LastRun
	DailyChannelId string
}

func NewService(opts Options) (*Service, error) {
	session, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	s := &Service{
		session:      session,
		matches:      opts.Matches,
		covers:       opts.Covers,
		calendar:     opts.Calendar,
		events:       session,
		limiter:      NewLimiter(),
		lastRun:      opts.LastRun,
		dailyChannel: opts.DailyChannelId,
		now:          timezone.Now,
	}

	session.AddHandler(func(_ *discordgo.Session, ready *discordgo.Ready) {
		slog.Info("discord session ready",
			"user", ready.User.Username,
			"guilds", len(ready.Guilds))
	})
	session.AddHandler(s.onInteraction)

	return s, nil
}

var slashCommands = []*discordgo.ApplicationCommand{
	{Name: "capas", Description: "Mostrar capas dos jornais desportivos"},
	{Name: "actualizar_data", Description: "Atualizar dados do próximo jogo"},
	{Name: "quando_joga", Description: "Ver quando joga o Benfica"},
	{Name: "quanto_falta", Description: "Tempo até ao próximo jogo"},
	{
		Name:        "calendario",
		Description: "Próximos jogos do Benfica",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "quantidade",
			Description: "Quantos jogos mostrar (padrão: 5, máx: 10)",
			Required:    false,
		}},
	},
	{
		Name:        "criar_evento",
		Description: "Criar evento no Discord para o próximo jogo",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "quantidade",
			Description: "Para quantos jogos criar eventos (máx: 10)",
			Required:    false,
		}},
	},
	{Name: "ajuda", Description: "Mostrar todos os comandos disponíveis"},
}

// Run opens the gateway connection, registers the slash commands and
// blocks until the context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	err := s.session.Open()
	if err != nil {
		return fmt.Errorf("open discord gateway: %w", err)
	}
	defer s.session.Close()

	_, err = s.session.ApplicationCommandBulkOverwrite(
		s.session.State.User.ID, "", slashCommands)
	if err != nil {
		return fmt.Errorf("register slash commands: %w", err)
	}
	slog.InfoContext(ctx, "slash commands registered", "count", len(slashCommands))

	<-ctx.Done()
	return nil
}

// PostCovers composes the collage and posts it to the channel. This is
// the entry point the daily scheduler drives.
func (s *Service) PostCovers(ctx context.Context, channelId string) error {
	_, data, err := s.covers.Compose(ctx)
	if err != nil {
		return err
	}
	_, err = s.session.ChannelFileSend(channelId, covers.FileName, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("send covers to channel %s: %w", channelId, err)
	}
	return nil
}

func interactionUserId(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

func integerOption(data discordgo.ApplicationCommandInteractionData, name string, fallback int) int {
	for _, opt := range data.Options {
		if opt.Name == name {
			return int(opt.IntValue())
		}
	}
	return fallback
}

func (s *Service) onInteraction(session *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	name := i.ApplicationCommandData().Name

	ctx, span := tracer.Start(context.Background(), "bot.Command")
	defer span.End()
	span.SetAttributes(attribute.String("command", name))

	userId := interactionUserId(i)
	cooldown := commandCooldowns[name]
	key := name + ":" + userId
	if !s.limiter.Allow(key, cooldown) {
		remaining := formatRemaining(s.limiter.Remaining(key, cooldown))
		err := session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: fmt.Sprintf("%s (%s restantes)", RateLimitedMessage, remaining),
				Flags:   discordgo.MessageFlagsEphemeral,
			},
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to send rate limit notice", "err", err)
		}
		return
	}

	// Scraping takes longer than the 3 second interaction deadline, so
	// acknowledge first and deliver through the followup webhook.
	err := session.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to acknowledge interaction",
			"command", name, "err", err)
		return
	}

	slog.InfoContext(ctx, "command invoked", "command", name, "user", userId)
	reply := s.dispatch(ctx, i)

	params := &discordgo.WebhookParams{
		Content: reply.Content,
		Files:   reply.Files,
	}
	if reply.Ephemeral {
		params.Flags = discordgo.MessageFlagsEphemeral
	}
	_, err = session.FollowupMessageCreate(i.Interaction, true, params)
	if err != nil {
		slog.ErrorContext(ctx, "failed to send command reply",
			"command", name, "err", err)
	}
}

func (s *Service) dispatch(ctx context.Context, i *discordgo.InteractionCreate) Reply {
	data := i.ApplicationCommandData()
	switch data.Name {
	case "capas":
		return s.handleCapas(ctx, i.ChannelID)
	case "actualizar_data":
		return s.handleActualizarData(ctx)
	case "quando_joga":
		return s.handleQuandoJoga(ctx)
	case "quanto_falta":
		return s.handleQuantoFalta(ctx)
	case "calendario":
		return s.handleCalendario(ctx, integerOption(data, "quantidade", defaultCalendarEntries))
	case "criar_evento":
		return s.handleCriarEvento(ctx, i.GuildID, integerOption(data, "quantidade", 1))
	case "ajuda":
		return s.handleAjuda()
	default:
		return Reply{Content: HelpMessage, Ephemeral: true}
	}
}
