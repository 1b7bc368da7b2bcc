// Package slbenfica talks to the club website's calendar. The site sits
// behind bot protection, so the client primes itself with a browser-like
// GET of the calendar page before calling the events endpoint: the page
// carries the anti-forgery token, the selected season, team rank and
// tournament filters that the endpoint expects back.
package slbenfica

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"time"

	"benficabot/lib/htmlutil"
	"benficabot/lib/restyutil"
	"benficabot/lib/telemetry"
	"benficabot/lib/timezone"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/time/rate"
)

var tracer = otel.Tracer("scrapers/slbenfica")

const (
	DefaultCalendarUrl = "https://www.slbenfica.pt/pt-pt/futebol/calendario"
	DefaultEventsUrl   = "https://www.slbenfica.pt/api/sitecore/Calendar/CalendarEvents"
)

// page-extraction fallbacks; only used when the calendar page stops
// carrying the checked filter controls. the season one needs a yearly
// bump if that ever happens.
const (
	fallbackSeason = "2025/26"
	fallbackRankId = "16094ecf-9e78-4e3e-bcdf-28e4f765de9f"
)

var fallbackTournamentIds = []string{
	"dp:tournament:50d243c9-fee7-4b34-bdcc-22bf446935eb", // Eusébio Cup
	"sr:tournament:7",   // UEFA Champions League
	"sr:tournament:238", // Liga Portugal
	"sr:tournament:357", // FIFA Club World Cup
	"sr:tournament:345", // Supertaça Cândido de Oliveira
	"sr:tournament:327", // Taça da Liga
	"sr:tournament:336", // Taça de Portugal
}

var ErrTokenNotFound = errors.New("slbenfica: request verification token not found in calendar page")

// Event is one calendar entry, kickoff in Lisbon time.
type Event struct {
	Start       time.Time
	Adversary   string
	Location    string
	Competition string
	Home        bool
	TVChannel   string
}

type Client struct {
	http      *resty.Client
	pageUrl   string
	eventsUrl string

	// populated by prime()
	token string
	doc   *goquery.Document
}

type ClientOptions struct {
	// defaults to DefaultCalendarUrl
	CalendarUrl string
	// defaults to DefaultEventsUrl
	EventsUrl string
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.CalendarUrl == "" {
		opts.CalendarUrl = DefaultCalendarUrl
	}
	if opts.EventsUrl == "" {
		opts.EventsUrl = DefaultEventsUrl
	}

	parsedUrl, err := url.Parse(opts.CalendarUrl)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(parsedUrl.Hostname()))
	client.SetTimeout(time.Second * 30)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(time.Second)

	// stay polite, the site already distrusts us
	rateLimiter := rate.NewLimiter(2, 2)
	client.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(client, "scrapers/slbenfica/http")

	return &Client{
		http:      client,
		pageUrl:   opts.CalendarUrl,
		eventsUrl: opts.EventsUrl,
	}, nil
}

// prime fetches the calendar page and pulls out the anti-forgery token
// plus the document the filter extractors read from.
func (c *Client) prime(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "prime")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(c.pageUrl)
	if err != nil {
		span.SetStatus(codes.Error, "fetch failed")
		return fmt.Errorf("slbenfica: fetch calendar page: %w", err)
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "bad status")
		return fmt.Errorf("slbenfica: fetch calendar page: status %d", res.StatusCode())
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return fmt.Errorf("slbenfica: parse calendar page: %w", err)
	}

	token, ok := doc.Find(`input[name="__RequestVerificationToken"][type="hidden"]`).Attr("value")
	if !ok || token == "" {
		span.SetStatus(codes.Error, "token missing")
		return ErrTokenNotFound
	}

	c.token = token
	c.doc = doc
	return nil
}

type eventFilters struct {
	Menu        string   `json:"Menu"`
	Modality    string   `json:"Modality"`
	IsMaleTeam  bool     `json:"IsMaleTeam"`
	Rank        string   `json:"Rank"`
	Tournaments []string `json:"Tournaments"`
	Seasons     []string `json:"Seasons"`
	PageNumber  int      `json:"PageNumber"`
}

type eventsPayload struct {
	Filters eventFilters `json:"filters"`
}

func (c *Client) buildPayload(ctx context.Context) eventsPayload {
	modality := c.doc.Find("div.modality").AttrOr("id", "")

	season := c.extractSeason()
	if season == "" {
		slog.WarnContext(ctx, "season not found in calendar page, using fallback")
		season = fallbackSeason
	}
	rankId := c.extractRankId()
	if rankId == "" {
		slog.WarnContext(ctx, "team rank not found in calendar page, using fallback")
		rankId = fallbackRankId
	}
	tournamentIds := c.extractTournamentIds()
	if len(tournamentIds) == 0 {
		slog.WarnContext(ctx, "tournaments not found in calendar page, using fallback")
		tournamentIds = fallbackTournamentIds
	}

	return eventsPayload{Filters: eventFilters{
		Menu:        "next",
		Modality:    modality,
		IsMaleTeam:  true,
		Rank:        rankId,
		Tournaments: tournamentIds,
		Seasons:     []string{season},
		PageNumber:  0,
	}}
}

func (c *Client) extractSeason() string {
	return c.doc.Find(`input[name="season"][type="checkbox"][checked]`).AttrOr("id", "")
}

func (c *Client) extractRankId() string {
	rankId := ""
	c.doc.Find(`input[type="radio"][checked]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		// the gender selector is literally named "radio"; the team rank
		// radio carries the team name instead
		name := s.AttrOr("name", "")
		if name == "" || name == "radio" {
			return true
		}
		rankId = s.AttrOr("id", "")
		return rankId == ""
	})
	return rankId
}

func (c *Client) extractTournamentIds() []string {
	var ids []string
	c.doc.Find(`input[name="tournament"][type="checkbox"][checked]`).Each(func(_ int, s *goquery.Selection) {
		id := s.AttrOr("id", "")
		if id != "" {
			ids = append(ids, id)
		}
	})
	return ids
}

// UpcomingMatches returns the club's future fixtures sorted by kickoff.
// An empty slice is a valid result for a team with nothing scheduled.
// Every call re-primes against the calendar page: the site rotates the
// verification token, so a cached one goes stale between fetches.
func (c *Client) UpcomingMatches(ctx context.Context) ([]Event, error) {
	ctx, span := tracer.Start(ctx, "UpcomingMatches")
	defer span.End()

	err := c.prime(ctx)
	if err != nil {
		return nil, err
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetHeaders(map[string]string{
			"Referer":                    c.pageUrl,
			"Content-Type":               "application/json",
			"__RequestVerificationToken": c.token,
			"X-Requested-With":           "XMLHttpRequest",
			"Origin":                     originOf(c.pageUrl),
		}).
		SetBody(c.buildPayload(ctx)).
		Post(c.eventsUrl)
	if err != nil {
		span.SetStatus(codes.Error, "fetch failed")
		return nil, fmt.Errorf("slbenfica: fetch calendar events: %w", err)
	}
	if res.IsError() {
		span.SetStatus(codes.Error, "bad status")
		return nil, fmt.Errorf("slbenfica: fetch calendar events: status %d", res.StatusCode())
	}

	events, err := ParseCalendarItems(res.Body(), timezone.Now())
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return events, nil
}

func originOf(pageUrl string) string {
	u, err := url.Parse(pageUrl)
	if err != nil {
		return ""
	}
	return u.Scheme + "://" + u.Host
}

// the endpoint answers with an HTML fragment, not JSON; the hidden
// "ForCalendar" divs inside each item carry the machine-readable fields
const calendarItemDateLayout = "1/2/2006 3:04:05 PM"

// ParseCalendarItems parses the events endpoint's HTML fragment and
// keeps only fixtures that are still ahead of `now`, sorted by kickoff.
// Items that fail to parse are skipped, a fragment with zero parsable
// items yields an empty slice.
func ParseCalendarItems(fragment []byte, now time.Time) ([]Event, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(fragment))
	if err != nil {
		return nil, fmt.Errorf("slbenfica: parse calendar events: %w", err)
	}

	var events []Event
	doc.Find("div.calendar-item").Each(func(_ int, item *goquery.Selection) {
		event, ok := parseCalendarItem(item)
		if !ok {
			return
		}
		if !event.Start.After(now) {
			return
		}
		events = append(events, event)
	})

	sort.Slice(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return events, nil
}

// the hidden field divs sometimes nest further markup, so read their
// text at the node level instead of trusting a flat .Text()
func fieldText(s *goquery.Selection) string {
	var b strings.Builder
	for _, node := range s.Nodes {
		b.WriteString(htmlutil.GetText(node))
	}
	return htmlutil.CleanText(b.String())
}

func parseCalendarItem(item *goquery.Selection) (Event, bool) {
	title := fieldText(item.Find("div.titleForCalendar"))
	startDate := fieldText(item.Find("div.startDateForCalendar"))
	if title == "" || startDate == "" {
		return Event{}, false
	}

	// the export date is already Lisbon wall-clock time
	start, err := time.ParseInLocation(calendarItemDateLayout, startDate, timezone.Location)
	if err != nil {
		return Event{}, false
	}

	// title reads "Home Team vs Away Team"
	adversary := title
	home := true
	if before, after, found := strings.Cut(title, " vs "); found {
		homeTeam := strings.TrimSpace(before)
		awayTeam := strings.TrimSpace(after)
		home = strings.Contains(homeTeam, "Benfica")
		if home {
			adversary = awayTeam
		} else {
			adversary = homeTeam
		}
	}

	competition := fieldText(item.Find("div.calendar-competition"))
	location := fieldText(item.Find("div.locationForCalendar"))

	tvChannel := ""
	item.Find("div.calendar-live-channels p[hidden]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		tvChannel = fieldText(s)
		return false
	})

	return Event{
		Start:       start,
		Adversary:   adversary,
		Location:    location,
		Competition: competition,
		Home:        home,
		TVChannel:   tvChannel,
	}, true
}

// SetRestyInstrumentOutput dumps every request and response this
// client makes to the filesystem. Debugging aid, not for production.
func (c *Client) SetRestyInstrumentOutput(output restyutil.FilesystemOutput) {
	output.Attach(c.http)
}
