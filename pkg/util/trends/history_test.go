package trends

import (
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := OpenHistory(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })

	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	h.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return h
}

func TestRecordMatch(t *testing.T) {
	h := openTestHistory(t)
	report := &MatchReport{
		ID:         "match-1",
		Season:     "2024",
		Home:       TeamStats{Name: "Flamengo", LeaguePosition: 3},
		Away:       TeamStats{Name: "Palmeiras", LeaguePosition: 1},
		Odds:       []OddsQuote{quote("Bet365", "2.1", "3.3", "3.6")},
		Prediction: Prediction{Label: AwayWin, Probabilities: [3]float64{0.5, 0.3, 0.2}},
	}
	require.NoError(t, h.RecordMatch("flamengo", "palmeiras", report))

	runs, err := h.RecentRuns(RunMatchTrends, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, "match-1", run.ID)
	assert.Equal(t, "2024", run.Season)
	assert.Equal(t, "flamengo vs palmeiras: Away win", run.Summary)
	assert.JSONEq(t, `{"home_team":"flamengo","away_team":"palmeiras"}`, run.Input)

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(run.Payload), &payload))
	assert.Equal(t, "Away win", payload["prediction"].(map[string]any)["label"])

	// saving the same report again updates in place
	report.Prediction.Label = HomeWin
	require.NoError(t, h.RecordMatch("flamengo", "palmeiras", report))
	runs, err = h.RecentRuns("", 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "flamengo vs palmeiras: Home win", runs[0].Summary)
}

func TestRecordUpcoming(t *testing.T) {
	h := openTestHistory(t)
	report := &UpcomingReport{
		ID:     "upcoming-1",
		Season: "2024",
		Rows: []FixtureOddsRow{
			NewFixtureOddsRow(Fixture{ID: 0, HomeTeamName: "Bahia", AwayTeamName: "Vitória"}, MarkerQuote(MarkerNA)),
			NewFixtureOddsRow(Fixture{ID: 0, HomeTeamName: "Santos", AwayTeamName: "Fortaleza"}, MarkerQuote(MarkerNA)),
			NewFixtureOddsRow(Fixture{ID: 7, HomeTeamName: "Flamengo", AwayTeamName: "Vasco"}, quote("Bet365", "2", "3", "4")),
		},
	}
	require.NoError(t, h.RecordUpcoming(report))

	snaps, err := h.Snapshots("upcoming-1")
	require.NoError(t, err)
	require.Len(t, snaps, 3)
	assert.Equal(t, "Bahia vs Vitória", snaps[0].Match)
	assert.Equal(t, MarkerNA, snaps[1].Home)
	assert.Equal(t, 7, snaps[2].FixtureID)
	assert.Equal(t, "2", snaps[2].Home)
	assert.Equal(t, "8.3%", snaps[2].Margin)
	assert.Equal(t, "46.2%", snaps[2].HomeProb)
	assert.Equal(t, "30.8%", snaps[2].DrawProb)
	assert.Equal(t, "23.1%", snaps[2].AwayProb)
	assert.Empty(t, snaps[0].HomeProb)

	runs, err := h.RecentRuns(RunUpcomingOdds, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "3 fixtures", runs[0].Summary)

	empty, err := h.Snapshots("no-such-run")
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRecentRunsNewestFirst(t *testing.T) {
	h := openTestHistory(t)
	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, h.RecordUpcoming(&UpcomingReport{ID: id, Season: "2024", Warning: MsgNoFixtures}))
	}
	require.NoError(t, h.RecordMatch("x", "y", &MatchReport{ID: "d", Season: "2024"}))

	runs, err := h.RecentRuns("", 3)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "d", runs[0].ID)
	assert.Equal(t, "c", runs[1].ID)
	assert.Equal(t, "b", runs[2].ID)

	upcoming, err := h.RecentRuns(RunUpcomingOdds, 10)
	require.NoError(t, err)
	assert.Len(t, upcoming, 3)
	assert.Equal(t, "0 fixtures: "+MsgNoFixtures, upcoming[0].Summary)
}

func TestHistoryOnDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	h, err := OpenHistory(path)
	require.NoError(t, err)
	require.NoError(t, h.RecordUpcoming(&UpcomingReport{ID: "disk", Season: "2024"}))
	require.NoError(t, h.Close())

	h, err = OpenHistory(path)
	require.NoError(t, err)
	defer h.Close()
	runs, err := h.RecentRuns("", 1)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "disk", runs[0].ID)
}

func TestSaveAllRollsBack(t *testing.T) {
	h := openTestHistory(t)
	run := &RunRecord{ID: "partial", Tool: RunUpcomingOdds, CreatedAt: "2024-06-01T12:00:00Z"}
	orphan := &OddsSnapshot{RunID: "no-such-run", Row: 0, Match: "Bahia vs Vitória"}

	err := h.store.SaveAll(run, &OddsSnapshot{RunID: "partial", Row: 0}, orphan)
	require.Error(t, err)

	runs, err := h.RecentRuns("", 10)
	require.NoError(t, err)
	assert.Empty(t, runs)
	snaps, err := h.Snapshots("partial")
	require.NoError(t, err)
	assert.Empty(t, snaps)

	require.NoError(t, h.store.SaveAll(run, &OddsSnapshot{RunID: "partial", Row: 0}))
	snaps, err = h.Snapshots("partial")
	require.NoError(t, err)
	assert.Len(t, snaps, 1)
}

func TestCreateTableSQL(t *testing.T) {
	sql := generateCreateTableSQL(&OddsSnapshot{})
	assert.Contains(t, sql, "PRIMARY KEY (run_id, row_num)")
	assert.Contains(t, sql, "FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE ON UPDATE RESTRICT")
	assert.Equal(t, []string{"CREATE INDEX IF NOT EXISTS idx_odds_snapshots_match_label ON odds_snapshots(match_label)"},
		generateIndexSQL(&OddsSnapshot{}))
}
