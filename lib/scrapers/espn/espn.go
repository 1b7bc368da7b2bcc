package espn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"

	"benficabot/lib/restyutil"
	"benficabot/lib/telemetry"
	"benficabot/lib/timezone"

	browser "github.com/EDDYCJY/fake-useragent"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("scrapers/espn")

const (
	// fixtures page of the tracked team; the page embeds the full
	// fixtures feed as a JS assignment in an inline <script>
	DefaultFixturesUrl = "https://www.espn.com/soccer/team/fixtures/_/id/1929"

	// the tracked team's id inside the embedded feed (SL Benfica)
	DefaultTeamId = "1929"
)

var (
	ErrMarkerNotFound  = errors.New("espn: embedded fixtures data not found in page")
	ErrNoUpcomingMatch = errors.New("espn: no upcoming match in fixtures feed")
)

// shape mismatches are page-format changes upstream, retrying never helps
type ShapeError struct {
	Path string
}

func (e ShapeError) Error() string {
	return fmt.Sprintf("espn: fixtures data has unexpected shape at %q", e.Path)
}

// Match is one upcoming fixture as scraped from the fixtures feed.
type Match struct {
	Kickoff     time.Time
	Adversary   string
	Location    string
	Competition string
	Home        bool
	TVChannel   string
}

type Client struct {
	http   *resty.Client
	url    string
	teamId string
}

type ClientOptions struct {
	// defaults to DefaultFixturesUrl
	Url string
	// defaults to DefaultTeamId
	TeamId string
}

func NewClient(opts ClientOptions) *Client {
	if opts.Url == "" {
		opts.Url = DefaultFixturesUrl
	}
	if opts.TeamId == "" {
		opts.TeamId = DefaultTeamId
	}

	client := resty.New()
	client.SetTimeout(time.Second * 30)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(time.Second)
	client.SetRetryMaxWaitTime(time.Second * 4)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		return err != nil || res.StatusCode() >= 500
	})
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		req.SetHeader("User-Agent", browser.Random())
		return nil
	})

	telemetry.InstrumentResty(client, "scrapers/espn/http")

	return &Client{
		http:   client,
		url:    opts.Url,
		teamId: opts.TeamId,
	}
}

// NextMatch fetches the fixtures page and returns the earliest fixture
// whose kickoff is still in the future (Lisbon time). A feed with no
// future fixtures yields ErrNoUpcomingMatch, not a failure.
func (c *Client) NextMatch(ctx context.Context) (Match, error) {
	ctx, span := tracer.Start(ctx, "NextMatch")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.url)
	if err != nil {
		span.SetStatus(codes.Error, "fetch failed")
		return Match{}, fmt.Errorf("espn: fetch fixtures: %w", err)
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "bad status")
		return Match{}, fmt.Errorf("espn: fetch fixtures: status %d", res.StatusCode())
	}

	match, err := ParseFixtures(res.Body(), c.teamId, timezone.Now())
	if err != nil {
		span.RecordError(err)
		return Match{}, err
	}
	return match, nil
}

var embeddedDataRegex = regexp.MustCompile(`(?s)window\['__espnfitt__'\]\s*=\s*(\{.*?\});`)

type embeddedData struct {
	Page *struct {
		Content *struct {
			Fixtures *struct {
				Events []feedEvent `json:"events"`
			} `json:"fixtures"`
		} `json:"content"`
	} `json:"page"`
}

type feedEvent struct {
	Date        string           `json:"date"`
	League      string           `json:"league"`
	Competitors []feedCompetitor `json:"competitors"`
	Venue       *struct {
		FullName string `json:"fullName"`
	} `json:"venue"`
	Broadcasts []struct {
		Name string `json:"name"`
	} `json:"broadcasts"`
}

type feedCompetitor struct {
	Id          string `json:"id"`
	DisplayName string `json:"displayName"`
	IsHome      bool   `json:"isHome"`
}

// ParseFixtures extracts the embedded fixtures feed from the page body
// and maps the earliest future event to a Match. The shape of the feed
// is validated level by level so a format change upstream produces a
// ShapeError naming the level that broke instead of a zero-value walk.
func ParseFixtures(body []byte, teamId string, now time.Time) (Match, error) {
	groups := embeddedDataRegex.FindSubmatch(body)
	if len(groups) < 2 {
		return Match{}, ErrMarkerNotFound
	}

	var data embeddedData
	err := json.Unmarshal(groups[1], &data)
	if err != nil {
		return Match{}, fmt.Errorf("espn: decode embedded fixtures data: %w", err)
	}

	if data.Page == nil {
		return Match{}, ShapeError{Path: "page"}
	}
	if data.Page.Content == nil {
		return Match{}, ShapeError{Path: "page.content"}
	}
	if data.Page.Content.Fixtures == nil {
		return Match{}, ShapeError{Path: "page.content.fixtures"}
	}

	events := data.Page.Content.Fixtures.Events
	if len(events) == 0 {
		return Match{}, ErrNoUpcomingMatch
	}

	var next *Match
	for i, event := range events {
		kickoff, err := parseEventDate(event.Date)
		if err != nil {
			return Match{}, ShapeError{Path: fmt.Sprintf("events[%d].date", i)}
		}
		kickoff = kickoff.In(timezone.Location)
		if !kickoff.After(now) {
			continue
		}
		if next != nil && !kickoff.Before(next.Kickoff) {
			continue
		}

		match, err := mapEvent(event, i, teamId, kickoff)
		if err != nil {
			return Match{}, err
		}
		next = &match
	}

	if next == nil {
		return Match{}, ErrNoUpcomingMatch
	}
	return *next, nil
}

// the feed usually omits seconds ("2025-11-29T18:00Z") but has been
// seen with them as well
var eventDateLayouts = []string{
	"2006-01-02T15:04Z07:00",
	time.RFC3339,
}

func parseEventDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range eventDateLayouts {
		t, err := time.Parse(layout, raw)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func mapEvent(event feedEvent, index int, teamId string, kickoff time.Time) (Match, error) {
	if len(event.Competitors) != 2 {
		return Match{}, ShapeError{Path: fmt.Sprintf("events[%d].competitors", index)}
	}

	var us, them *feedCompetitor
	for i := range event.Competitors {
		if event.Competitors[i].Id == teamId {
			us = &event.Competitors[i]
		} else {
			them = &event.Competitors[i]
		}
	}
	if us == nil || them == nil {
		return Match{}, ShapeError{Path: fmt.Sprintf("events[%d].competitors.id", index)}
	}

	location := ""
	if event.Venue != nil {
		location = event.Venue.FullName
	}

	tvChannel := ""
	if len(event.Broadcasts) > 0 {
		tvChannel = event.Broadcasts[0].Name
	}

	return Match{
		Kickoff:     kickoff,
		Adversary:   them.DisplayName,
		Location:    location,
		Competition: event.League,
		Home:        us.IsHome,
		TVChannel:   tvChannel,
	}, nil
}

// SetRestyInstrumentOutput dumps every request and response this
// client makes to the filesystem. Debugging aid, not for production.
func (c *Client) SetRestyInstrumentOutput(output restyutil.FilesystemOutput) {
	output.Attach(c.http)
}
