package espn

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"benficabot/lib/timezone"

	"github.com/stretchr/testify/require"
)

func fixturesPage(events string) []byte {
	payload := fmt.Sprintf(
		`{"page":{"content":{"fixtures":{"events":[%s]}}}}`,
		events,
	)
	return []byte(fmt.Sprintf(
		"<html><head><script>window['__espnfitt__'] = %s;</script></head><body></body></html>",
		payload,
	))
}

func eventJson(date, opponentName, opponentId string, benficaHome bool) string {
	return fmt.Sprintf(`{
		"date": %q,
		"league": "Primeira Liga",
		"venue": {"fullName": "Estádio da Luz"},
		"broadcasts": [{"name": "Sport TV1"}],
		"competitors": [
			{"id": "1929", "displayName": "Benfica", "isHome": %t},
			{"id": %q, "displayName": %q, "isHome": %t}
		]
	}`, date, benficaHome, opponentId, opponentName, !benficaHome)
}

func TestParseFixturesPicksEarliestFutureEvent(t *testing.T) {
	now := time.Date(2025, 11, 1, 12, 0, 0, 0, timezone.Location)

	// deliberately out of order: past first, then far future, then near future
	body := fixturesPage(
		eventJson("2025-10-20T19:00Z", "Porto", "437", true) + "," +
			eventJson("2025-12-25T20:15Z", "Braga", "244", false) + "," +
			eventJson("2025-11-03T18:00Z", "Sporting CP", "243", true),
	)

	match, err := ParseFixtures(body, DefaultTeamId, now)
	require.NoError(t, err)

	require.Equal(t, "Sporting CP", match.Adversary)
	require.Equal(t, "Primeira Liga", match.Competition)
	require.Equal(t, "Estádio da Luz", match.Location)
	require.Equal(t, "Sport TV1", match.TVChannel)
	require.True(t, match.Home)

	expected := time.Date(2025, 11, 3, 18, 0, 0, 0, time.UTC)
	require.True(t, match.Kickoff.Equal(expected))
	require.Equal(t, timezone.Location, match.Kickoff.Location())
}

func TestParseFixturesAwayMatch(t *testing.T) {
	now := time.Date(2025, 11, 1, 12, 0, 0, 0, timezone.Location)

	body := fixturesPage(eventJson("2025-11-08T20:30Z", "Porto", "437", false))

	match, err := ParseFixtures(body, DefaultTeamId, now)
	require.NoError(t, err)
	require.Equal(t, "Porto", match.Adversary)
	require.False(t, match.Home)
}

func TestParseFixturesNoFutureEvents(t *testing.T) {
	now := time.Date(2025, 11, 1, 12, 0, 0, 0, timezone.Location)

	body := fixturesPage(eventJson("2025-10-20T19:00Z", "Porto", "437", true))
	_, err := ParseFixtures(body, DefaultTeamId, now)
	require.ErrorIs(t, err, ErrNoUpcomingMatch)

	body = fixturesPage("")
	_, err = ParseFixtures(body, DefaultTeamId, now)
	require.ErrorIs(t, err, ErrNoUpcomingMatch)
}

func TestParseFixturesMarkerMissing(t *testing.T) {
	body := []byte("<html><body><p>nothing here</p></body></html>")
	_, err := ParseFixtures(body, DefaultTeamId, timezone.Now())
	require.ErrorIs(t, err, ErrMarkerNotFound)
}

func TestParseFixturesShapeErrors(t *testing.T) {
	now := time.Date(2025, 11, 1, 12, 0, 0, 0, timezone.Location)

	testCases := []struct {
		name string
		body []byte
		path string
	}{
		{
			name: "missing content",
			body: []byte("<script>window['__espnfitt__'] = {\"page\":{}};</script>"),
			path: "page.content",
		},
		{
			name: "missing fixtures",
			body: []byte("<script>window['__espnfitt__'] = {\"page\":{\"content\":{}}};</script>"),
			path: "page.content.fixtures",
		},
		{
			name: "bad event date",
			body: fixturesPage(eventJson("29-11-2025", "Porto", "437", true)),
			path: "events[0].date",
		},
		{
			name: "missing competitors",
			body: fixturesPage(`{"date": "2025-11-29T18:00Z", "league": "Primeira Liga"}`),
			path: "events[0].competitors",
		},
		{
			name: "tracked team not in competitors",
			body: fixturesPage(`{
				"date": "2025-11-29T18:00Z",
				"league": "Primeira Liga",
				"competitors": [
					{"id": "437", "displayName": "Porto", "isHome": true},
					{"id": "244", "displayName": "Braga", "isHome": false}
				]
			}`),
			path: "events[0].competitors.id",
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			_, err := ParseFixtures(test.body, DefaultTeamId, now)
			var shapeErr ShapeError
			require.ErrorAs(t, err, &shapeErr)
			require.Equal(t, test.path, shapeErr.Path)
		})
	}
}

func TestClientNextMatch(t *testing.T) {
	kickoff := timezone.Now().Add(48 * time.Hour).UTC().Truncate(time.Minute)
	date := kickoff.Format("2006-01-02T15:04Z")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write(fixturesPage(eventJson(date, "Nacional", "2250", true)))
	}))
	defer server.Close()

	client := NewClient(ClientOptions{Url: server.URL})
	match, err := client.NextMatch(context.Background())
	require.NoError(t, err)
	require.Equal(t, "Nacional", match.Adversary)
	require.True(t, match.Kickoff.Equal(kickoff))
}

func TestClientNextMatchBadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(ClientOptions{Url: server.URL})
	_, err := client.NextMatch(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNoUpcomingMatch)
}
