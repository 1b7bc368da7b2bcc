package bot

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/stretchr/testify/require"

	"benficabot/lib/scrapers/slbenfica"
	"benficabot/lib/telemetry"
	"benficabot/lib/timezone"
	"benficabot/services/daily"
	"benficabot/services/match"
)

type stubMatches struct {
	record    match.Record
	ok        bool
	updateOk  bool
	updateRan bool
}

func (s *stubMatches) Update(ctx context.Context) bool {
	s.updateRan = true
	return s.updateOk
}

func (s *stubMatches) Current(ctx context.Context) (match.Record, bool) {
	return s.record, s.ok
}

type stubCovers struct {
	data []byte
	err  error
}

func (s *stubCovers) Compose(ctx context.Context) (string, []byte, error) {
	return "/tmp/capas.jpg", s.data, s.err
}

type stubCalendar struct {
	events []slbenfica.Event
	err    error
}

func (s *stubCalendar) UpcomingMatches(ctx context.Context) ([]slbenfica.Event, error) {
	return s.events, s.err
}

type stubEvents struct {
	existing []*discordgo.GuildScheduledEvent
	listErr  error
	created  []*discordgo.GuildScheduledEventParams
	edited   map[string]*discordgo.GuildScheduledEventParams
}

func (s *stubEvents) GuildScheduledEvents(guildID string, userCount bool, options ...discordgo.RequestOption) ([]*discordgo.GuildScheduledEvent, error) {
	return s.existing, s.listErr
}

func (s *stubEvents) GuildScheduledEventCreate(guildID string, event *discordgo.GuildScheduledEventParams, options ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error) {
	s.created = append(s.created, event)
	return &discordgo.GuildScheduledEvent{ID: "new", Name: event.Name}, nil
}

func (s *stubEvents) GuildScheduledEventEdit(guildID, eventID string, event *discordgo.GuildScheduledEventParams, options ...discordgo.RequestOption) (*discordgo.GuildScheduledEvent, error) {
	if s.edited == nil {
		s.edited = map[string]*discordgo.GuildScheduledEventParams{}
	}
	s.edited[eventID] = event
	return &discordgo.GuildScheduledEvent{ID: eventID, Name: event.Name}, nil
}

func sampleEvent(daysAhead int, adversary string) slbenfica.Event {
	return slbenfica.Event{
		Start:       time.Date(2026, 9, 10+daysAhead, 20, 30, 0, 0, timezone.Location),
		Adversary:   adversary,
		Location:    "Estádio da Luz",
		Competition: "Liga Portugal",
		Home:        true,
		TVChannel:   "BTV",
	}
}

func newTestService(t *testing.T) *Service {
	telemetry.SetupForTesting(t, "bot-test")
	return &Service{
		matches:      &stubMatches{},
		covers:       &stubCovers{data: []byte("jpeg")},
		calendar:     &stubCalendar{},
		events:       &stubEvents{},
		limiter:      NewLimiter(),
		lastRun:      daily.NewLastRun(filepath.Join(t.TempDir(), "last_run.json")),
		dailyChannel: "111111111111111111",
		now:          timezone.Now,
	}
}

func TestCapasAttachesCollage(t *testing.T) {
	service := newTestService(t)

	reply := service.handleCapas(context.Background(), "222222222222222222")
	require.Empty(t, reply.Content)
	require.Len(t, reply.Files, 1)
	require.Equal(t, "capas.jpg", reply.Files[0].Name)

	data, err := io.ReadAll(reply.Files[0].Reader)
	require.NoError(t, err)
	require.Equal(t, []byte("jpeg"), data)
}

func TestCapasFailureUsesFixedMessage(t *testing.T) {
	service := newTestService(t)
	service.covers = &stubCovers{err: errors.New("listing page 503")}

	reply := service.handleCapas(context.Background(), "222222222222222222")
	require.Equal(t, ErrorCoversFetch, reply.Content)
	require.Empty(t, reply.Files)
}

func TestCapasInDailyChannelMarksScheduleDone(t *testing.T) {
	service := newTestService(t)
	service.now = func() time.Time {
		return time.Date(2026, 8, 29, 8, 0, 0, 0, timezone.Location)
	}

	service.handleCapas(context.Background(), service.dailyChannel)
	require.Equal(t, "2026-08-29", service.lastRun.Get(service.dailyChannel))
}

func TestCapasInOtherChannelLeavesScheduleAlone(t *testing.T) {
	service := newTestService(t)

	service.handleCapas(context.Background(), "222222222222222222")
	require.Empty(t, service.lastRun.Get(service.dailyChannel))
}

func TestActualizarData(t *testing.T) {
	service := newTestService(t)
	matches := &stubMatches{updateOk: true}
	service.matches = matches

	reply := service.handleActualizarData(context.Background())
	require.True(t, matches.updateRan)
	require.Equal(t, SuccessMatchDataUpdated, reply.Content)

	matches.updateOk = false
	reply = service.handleActualizarData(context.Background())
	require.Equal(t, ErrorMatchDataUpdate, reply.Content)
}

func TestQuandoJogaNoCachedMatch(t *testing.T) {
	service := newTestService(t)

	reply := service.handleQuandoJoga(context.Background())
	require.Equal(t, match.NoMatchMessage, reply.Content)
}

func TestQuandoJoga(t *testing.T) {
	service := newTestService(t)
	service.matches = &stubMatches{
		record: match.Record{
			Kickoff:     time.Date(2026, 9, 12, 20, 30, 0, 0, timezone.Location),
			Adversary:   "FC Porto",
			Location:    "Estádio da Luz",
			Competition: "Liga Portugal",
			Home:        true,
		},
		ok: true,
	}

	reply := service.handleQuandoJoga(context.Background())
	require.Contains(t, reply.Content, "FC Porto")
	require.Contains(t, reply.Content, "Sábado")
}

func TestQuantoFalta(t *testing.T) {
	service := newTestService(t)
	kickoff := time.Date(2026, 9, 12, 20, 30, 0, 0, timezone.Location)
	service.matches = &stubMatches{
		record: match.Record{Kickoff: kickoff, Adversary: "FC Porto"},
		ok:     true,
	}
	service.now = func() time.Time { return kickoff.Add(-48 * time.Hour) }

	reply := service.handleQuantoFalta(context.Background())
	require.Contains(t, reply.Content, "Falta(m) 2 dia(s)")
}

func TestCalendarioDefaultCount(t *testing.T) {
	service := newTestService(t)
	calendar := &stubCalendar{}
	for i := 0; i < 8; i++ {
		calendar.events = append(calendar.events, sampleEvent(i, "Adversário"))
	}
	service.calendar = calendar

	reply := service.handleCalendario(context.Background(), defaultCalendarEntries)
	require.Equal(t, 5, strings.Count(reply.Content, "⚽ <t:"))
	require.Contains(t, reply.Content, "🏠 Casa")
	require.Contains(t, reply.Content, "📺 BTV")
}

func TestCalendarioClampsCount(t *testing.T) {
	service := newTestService(t)
	calendar := &stubCalendar{}
	for i := 0; i < 20; i++ {
		calendar.events = append(calendar.events, sampleEvent(i, "Adversário"))
	}
	service.calendar = calendar

	reply := service.handleCalendario(context.Background(), 50)
	require.Equal(t, maxCalendarEntries, strings.Count(reply.Content, "⚽ <t:"))

	reply = service.handleCalendario(context.Background(), -3)
	require.Equal(t, 1, strings.Count(reply.Content, "⚽ <t:"))
}

func TestCalendarioEmpty(t *testing.T) {
	service := newTestService(t)

	reply := service.handleCalendario(context.Background(), 5)
	require.Equal(t, ErrorNoUpcoming, reply.Content)
}

func TestCalendarioFetchFailure(t *testing.T) {
	service := newTestService(t)
	service.calendar = &stubCalendar{err: errors.New("bot protection")}

	reply := service.handleCalendario(context.Background(), 5)
	require.Equal(t, ErrorCalendarFetch, reply.Content)
}

func TestCriarEventoGuildOnly(t *testing.T) {
	service := newTestService(t)

	reply := service.handleCriarEvento(context.Background(), "", 1)
	require.Equal(t, ErrorGuildOnly, reply.Content)
}

func TestCriarEventoCreatesEvent(t *testing.T) {
	service := newTestService(t)
	service.calendar = &stubCalendar{events: []slbenfica.Event{sampleEvent(0, "FC Porto")}}
	events := &stubEvents{}
	service.events = events

	reply := service.handleCriarEvento(context.Background(), "guild-1", 1)
	require.Contains(t, reply.Content, "✅ Criados: 1")
	require.Len(t, events.created, 1)

	created := events.created[0]
	require.Equal(t, "⚽ Benfica vs FC Porto", created.Name)
	require.Contains(t, created.Description, "Estádio da Luz")
	require.Contains(t, created.Description, "📺 **Canal TV:** BTV")
	require.Equal(t, sampleEvent(0, "FC Porto").Start, *created.ScheduledStartTime)
	require.Equal(t, sampleEvent(0, "FC Porto").Start.Add(2*time.Hour), *created.ScheduledEndTime)
	require.Equal(t, discordgo.GuildScheduledEventEntityTypeExternal, created.EntityType)
	require.Equal(t, "Estádio da Luz", created.EntityMetadata.Location)
}

func TestCriarEventoUpdatesChangedEvent(t *testing.T) {
	service := newTestService(t)
	event := sampleEvent(0, "FC Porto")
	service.calendar = &stubCalendar{events: []slbenfica.Event{event}}

	// Same name on the guild but the kickoff moved by a day.
	events := &stubEvents{existing: []*discordgo.GuildScheduledEvent{{
		ID:                 "ev-1",
		Name:               "⚽ Benfica vs FC Porto",
		Description:        eventDescription(event),
		ScheduledStartTime: event.Start.Add(24 * time.Hour),
		EntityMetadata:     discordgo.GuildScheduledEventEntityMetadata{Location: event.Location},
	}}}
	service.events = events

	reply := service.handleCriarEvento(context.Background(), "guild-1", 1)
	require.Contains(t, reply.Content, "🔄 Atualizados: 1")
	require.Empty(t, events.created)
	require.Contains(t, events.edited, "ev-1")
}

func TestCriarEventoUnchangedEvent(t *testing.T) {
	service := newTestService(t)
	event := sampleEvent(0, "FC Porto")
	service.calendar = &stubCalendar{events: []slbenfica.Event{event}}

	events := &stubEvents{existing: []*discordgo.GuildScheduledEvent{{
		ID:                 "ev-1",
		Name:               "⚽ Benfica vs FC Porto",
		Description:        eventDescription(event),
		ScheduledStartTime: event.Start,
		EntityMetadata:     discordgo.GuildScheduledEventEntityMetadata{Location: event.Location},
	}}}
	service.events = events

	reply := service.handleCriarEvento(context.Background(), "guild-1", 1)
	require.Contains(t, reply.Content, "✓ Sem alterações")
	require.Empty(t, events.created)
	require.Empty(t, events.edited)
}

func TestAjudaIsEphemeral(t *testing.T) {
	service := newTestService(t)

	reply := service.handleAjuda()
	require.True(t, reply.Ephemeral)
	require.Contains(t, reply.Content, "/quando_joga")
	require.Contains(t, reply.Content, "/capas")
}
