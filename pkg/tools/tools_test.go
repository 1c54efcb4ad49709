package tools

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/richard-senior/footytrends/pkg/protocol"
	"github.com/richard-senior/footytrends/pkg/util/trends"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePipeline struct {
	cfg      *trends.Config
	match    *trends.MatchReport
	upcoming *trends.UpcomingReport
	team     trends.TeamStats
	err      error
	calls    []string
}

func (f *fakePipeline) MatchTrends(_ context.Context, home, away, season string) (*trends.MatchReport, error) {
	f.calls = append(f.calls, fmt.Sprintf("match:%s:%s:%s", home, away, season))
	if home == "" || away == "" {
		return nil, trends.ErrMissingTeam
	}
	return f.match, f.err
}

func (f *fakePipeline) UpcomingOdds(_ context.Context, season string, limit int, progress trends.Progress) (*trends.UpcomingReport, error) {
	f.calls = append(f.calls, fmt.Sprintf("upcoming:%s:%d", season, limit))
	if f.upcoming != nil {
		for i := range f.upcoming.Rows {
			progress(i+1, len(f.upcoming.Rows))
		}
	}
	return f.upcoming, f.err
}

func (f *fakePipeline) TeamSummary(_ context.Context, team, season string) (trends.TeamStats, error) {
	f.calls = append(f.calls, fmt.Sprintf("team:%s:%s", team, season))
	return f.team, f.err
}

func (f *fakePipeline) Config() *trends.Config {
	return f.cfg
}

func newFake() *fakePipeline {
	return &fakePipeline{
		cfg: trends.DefaultConfig(),
		match: &trends.MatchReport{
			Season: "2024",
			Home:   trends.TeamStats{Name: "Flamengo", Played: 38, LeaguePosition: 3},
			Away:   trends.TeamStats{Name: "Palmeiras", Played: 38, LeaguePosition: 1},
			Odds: []trends.OddsQuote{{
				Bookmaker: "Bet365",
				Home:      trends.PriceText(decimal.RequireFromString("2.10"), "2.10"),
				Draw:      trends.PriceText(decimal.RequireFromString("3.30"), "3.30"),
				Away:      trends.PriceText(decimal.RequireFromString("3.60"), "3.60"),
			}},
			Prediction: trends.Prediction{Label: trends.HomeWin, Probabilities: [3]float64{0.2, 0.3, 0.5}},
		},
		team: trends.TeamStats{Name: "Botafogo", Played: 10, Wins: 7, LeaguePosition: 1},
	}
}

func asResult(t *testing.T, v any) *protocol.ToolResult {
	t.Helper()
	r, ok := v.(*protocol.ToolResult)
	require.True(t, ok, "got %T", v)
	return r
}

func TestEntries(t *testing.T) {
	tb := NewToolbox(context.Background(), newFake())
	var names []string
	for _, e := range tb.Entries() {
		names = append(names, e.Tool.Name)
		assert.NotNil(t, e.Handler)
		assert.Equal(t, "object", e.Tool.InputSchema.Type)
	}
	assert.Equal(t, []string{"match_trends", "upcoming_odds", "team_stats"}, names)

	schema := MatchTrendsTool(trends.DefaultConfig()).InputSchema
	assert.Equal(t, []string{"home_team", "away_team"}, schema.Required)
	assert.Equal(t, []string{"2023-2024", "2024-2025"}, schema.Properties["season"].Enum)
}

func TestHandleMatchTrends(t *testing.T) {
	fake := newFake()
	tb := NewToolbox(context.Background(), fake)

	out, err := tb.HandleMatchTrends(map[string]any{"home_team": " Flamengo ", "away_team": "Palmeiras", "season": "2024-2025"})
	require.NoError(t, err)
	res := asResult(t, out)
	assert.False(t, res.IsError)
	assert.Equal(t, []string{"match:Flamengo:Palmeiras:2024-2025"}, fake.calls)

	require.Len(t, res.Content, 3)
	assert.Contains(t, res.Content[0].Text, "Statistics for Flamengo")
	assert.Contains(t, res.Content[0].Text, "Bet365: Home 2.10, Draw 3.30, Away 3.60")
	assert.Contains(t, res.Content[0].Text, "Prediction: Home win")
	assert.Contains(t, res.Content[1].Text, "Home")

	img := res.Content[2]
	assert.Equal(t, protocol.ContentImage, img.Type)
	assert.Equal(t, "image/svg+xml", img.MimeType)
	svg, err := base64.StdEncoding.DecodeString(img.Data)
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(svg)))
	require.NoError(t, err)
	assert.Equal(t, 3, doc.Find("rect[id^=bar_]").Length())

	b, err := json.Marshal(res)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"structuredContent"`)
}

func TestHandleMatchTrendsUserErrors(t *testing.T) {
	fake := newFake()
	tb := NewToolbox(context.Background(), fake)

	out, err := tb.HandleMatchTrends(map[string]any{"home_team": "Flamengo"})
	require.NoError(t, err)
	res := asResult(t, out)
	assert.True(t, res.IsError)
	assert.Equal(t, trends.MsgEnterBothTeams, res.Content[0].Text)

	out, err = tb.HandleMatchTrends(nil)
	require.NoError(t, err)
	assert.True(t, asResult(t, out).IsError)

	fake.err = &trends.TeamError{Team: "Nowhere", Err: trends.ErrTeamNotFound}
	out, err = tb.HandleMatchTrends(map[string]any{"home_team": "Nowhere", "away_team": "Palmeiras"})
	require.NoError(t, err)
	assert.Equal(t, `Team "Nowhere" not found. Check the name.`, asResult(t, out).Content[0].Text)

	_, err = tb.HandleMatchTrends("not a map")
	assert.Error(t, err)
}

func TestHandleUpcomingOdds(t *testing.T) {
	fake := newFake()
	fake.upcoming = &trends.UpcomingReport{
		Season: "2024",
		Rows: []trends.FixtureOddsRow{
			trends.NewFixtureOddsRow(trends.Fixture{ID: 1, HomeTeamName: "Bahia", AwayTeamName: "Vitória"}, trends.MarkerQuote(trends.MarkerKeyMissing)),
			trends.NewFixtureOddsRow(trends.Fixture{ID: 2, HomeTeamName: "Santos", AwayTeamName: "Grêmio"}, trends.MarkerQuote(trends.MarkerNA)),
		},
	}
	tb := NewToolbox(context.Background(), fake)

	// JSON numbers arrive as float64
	out, err := tb.HandleUpcomingOdds(map[string]any{"limit": float64(2)})
	require.NoError(t, err)
	res := asResult(t, out)
	assert.False(t, res.IsError)
	assert.Equal(t, []string{"upcoming::2"}, fake.calls)
	lines := strings.Split(res.Content[0].Text, "\n")
	assert.Len(t, lines, 4)
	assert.Contains(t, res.Content[0].Text, "Key Missing")

	fake.calls = nil
	_, err = tb.HandleUpcomingOdds(map[string]any{"season": "2023-2024"})
	require.NoError(t, err)
	assert.Equal(t, []string{"upcoming:2023-2024:0"}, fake.calls)
}

func TestHandleUpcomingOddsWarning(t *testing.T) {
	fake := newFake()
	fake.upcoming = &trends.UpcomingReport{Rows: []trends.FixtureOddsRow{}, Warning: trends.MsgNoFixtures}
	out, err := NewToolbox(context.Background(), fake).HandleUpcomingOdds(nil)
	require.NoError(t, err)
	res := asResult(t, out)
	assert.False(t, res.IsError)
	assert.Equal(t, trends.MsgNoFixtures, res.Content[0].Text)
}

func TestHandleUpcomingOddsBadLimit(t *testing.T) {
	fake := newFake()
	tb := NewToolbox(context.Background(), fake)
	for _, limit := range []any{"ten", float64(2.5), float64(51), float64(-1)} {
		out, err := tb.HandleUpcomingOdds(map[string]any{"limit": limit})
		require.NoError(t, err)
		assert.True(t, asResult(t, out).IsError, "limit %v", limit)
	}
	assert.Empty(t, fake.calls)

	fake.err = fmt.Errorf("%w: %q", trends.ErrInvalidSeason, "1999-2000")
	out, err := tb.HandleUpcomingOdds(map[string]any{"season": "1999-2000"})
	require.NoError(t, err)
	assert.Contains(t, asResult(t, out).Content[0].Text, "invalid season")
}

func TestHandleTeamStats(t *testing.T) {
	fake := newFake()
	tb := NewToolbox(context.Background(), fake)

	out, err := tb.HandleTeamStats(map[string]any{"team": "  "})
	require.NoError(t, err)
	assert.Equal(t, trends.MsgEnterTeam, asResult(t, out).Content[0].Text)
	assert.Empty(t, fake.calls)

	out, err = tb.HandleTeamStats(map[string]any{"team": "Botafogo", "season": "2024"})
	require.NoError(t, err)
	res := asResult(t, out)
	assert.False(t, res.IsError)
	assert.True(t, strings.HasPrefix(res.Content[0].Text, "Statistics for Botafogo\nPlayed: 10, Wins: 7"))
	assert.Equal(t, []string{"team:Botafogo:2024"}, fake.calls)
}
