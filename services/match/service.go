package match

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"

	"benficabot/lib/scrapers/espn"
	"benficabot/lib/scrapers/slbenfica"
	"benficabot/lib/timezone"
)

var tracer = otel.Tracer("services/match")

// ErrNoUpcomingMatch is returned when every source agrees there is no
// future fixture to report.
var ErrNoUpcomingMatch = errors.New("no upcoming match in any source")

// Record is the bot's view of the next fixture.
type Record struct {
	Kickoff     time.Time
	Adversary   string
	Location    string
	Competition string
	Home        bool
	TVChannel   string
}

// Source produces the next future fixture, or ErrNoUpcomingMatch when
// it has none to offer.
type Source interface {
	Next(ctx context.Context) (Record, error)
}

// SLBenficaSource adapts the club calendar scraper. It is the primary
// source since the club publishes richer details (TV channel, venue
// names in Portuguese).
type SLBenficaSource struct {
	Client *slbenfica.Client
}

func (s SLBenficaSource) Next(ctx context.Context) (Record, error) {
	events, err := s.Client.UpcomingMatches(ctx)
	if err != nil {
		return Record{}, err
	}
	if len(events) == 0 {
		return Record{}, ErrNoUpcomingMatch
	}
	event := events[0]
	return Record{
		Kickoff:     event.Start,
		Adversary:   event.Adversary,
		Location:    event.Location,
		Competition: event.Competition,
		Home:        event.Home,
		TVChannel:   event.TVChannel,
	}, nil
}

// ESPNSource adapts the ESPN fixtures scraper, used as a fallback when
// the club site is unreachable.
type ESPNSource struct {
	Client *espn.Client
}

func (s ESPNSource) Next(ctx context.Context) (Record, error) {
	m, err := s.Client.NextMatch(ctx)
	if errors.Is(err, espn.ErrNoUpcomingMatch) {
		return Record{}, ErrNoUpcomingMatch
	}
	if err != nil {
		return Record{}, err
	}
	return Record{
		Kickoff:     m.Kickoff,
		Adversary:   m.Adversary,
		Location:    m.Location,
		Competition: m.Competition,
		Home:        m.Home,
		TVChannel:   m.TVChannel,
	}, nil
}

// Service keeps the fixture cache in sync with the scraper sources.
type Service struct {
	store   Store
	sources []Source
	now     func() time.Time
}

// NewService builds a service that consults sources in order and
// persists whatever the first healthy one returns.
func NewService(store Store, sources ...Source) *Service {
	return &Service{
		store:   store,
		sources: sources,
		now:     timezone.Now,
	}
}

// Update refetches the next fixture and rewrites the cache. It reports
// whether the cache now holds fresh data. Source failures are logged
// and the next source tried; only all of them failing is a miss.
func (s *Service) Update(ctx context.Context) bool {
	ctx, span := tracer.Start(ctx, "match.Update")
	defer span.End()

	record, err := s.fetch(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		slog.WarnContext(ctx, "could not fetch next match from any source", "err", err)
		return false
	}

	err = s.store.Save(record)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		slog.ErrorContext(ctx, "failed to save match cache", "err", err)
		return false
	}

	slog.InfoContext(ctx, "match cache updated",
		"adversary", record.Adversary,
		"kickoff", record.Kickoff,
		"competition", record.Competition)
	return true
}

func (s *Service) fetch(ctx context.Context) (Record, error) {
	var lastErr error = ErrNoUpcomingMatch
	for _, source := range s.sources {
		record, err := source.Next(ctx)
		if err == nil {
			return record, nil
		}
		if !errors.Is(err, ErrNoUpcomingMatch) {
			slog.WarnContext(ctx, "match source failed, trying next", "err", err)
		}
		lastErr = err
	}
	return Record{}, lastErr
}

// Current returns the cached fixture. A stale cache, one whose kickoff
// already passed, triggers a refresh first so commands never announce
// a match that is over.
func (s *Service) Current(ctx context.Context) (Record, bool) {
	ctx, span := tracer.Start(ctx, "match.Current")
	defer span.End()

	record, ok := s.store.Load()
	if ok && record.Kickoff.After(s.now()) {
		return record, true
	}

	if !s.Update(ctx) {
		return Record{}, false
	}
	record, ok = s.store.Load()
	if !ok || !record.Kickoff.After(s.now()) {
		return Record{}, false
	}
	return record, true
}
