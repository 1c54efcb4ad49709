package trends

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/richard-senior/footytrends/internal/logger"
)

// Tool names recorded against runs
const (
	RunMatchTrends  = "match_trends"
	RunUpcomingOdds = "upcoming_odds"
)

// RunRecord is one pipeline run kept in the history database
type RunRecord struct {
	ID        string `json:"id" column:"id" dbtype:"TEXT NOT NULL" primary:"true"`
	Tool      string `json:"tool" column:"tool" dbtype:"TEXT NOT NULL" index:"true"`
	Season    string `json:"season" column:"season" dbtype:"TEXT"`
	Input     string `json:"input" column:"input" dbtype:"TEXT"`
	Summary   string `json:"summary" column:"summary" dbtype:"TEXT"`
	Payload   string `json:"payload" column:"payload" dbtype:"TEXT"`
	CreatedAt string `json:"createdAt" column:"created_at" dbtype:"TEXT NOT NULL" index:"true"`
}

func (r *RunRecord) GetTableName() string {
	return "runs"
}

func (r *RunRecord) GetPrimaryKey() map[string]any {
	return map[string]any{"id": r.ID}
}

// OddsSnapshot is one fixture row of an upcoming_odds run
type OddsSnapshot struct {
	RunID     string `json:"runId" column:"run_id" dbtype:"TEXT NOT NULL" primary:"true" fk:"runs.id" fk_delete:"CASCADE"`
	Row       int    `json:"row" column:"row_num" dbtype:"INTEGER NOT NULL" primary:"true"`
	FixtureID int    `json:"fixtureId" column:"fixture_id" dbtype:"INTEGER"`
	Date      string `json:"date" column:"date" dbtype:"TEXT"`
	Match     string `json:"match" column:"match_label" dbtype:"TEXT" index:"true"`
	Bookmaker string `json:"bookmaker" column:"bookmaker" dbtype:"TEXT"`
	Home      string `json:"home" column:"home" dbtype:"TEXT"`
	Draw      string `json:"draw" column:"draw" dbtype:"TEXT"`
	Away      string `json:"away" column:"away" dbtype:"TEXT"`
	Margin    string `json:"margin" column:"margin" dbtype:"TEXT"`
	HomeProb  string `json:"homeProb" column:"home_prob" dbtype:"TEXT"`
	DrawProb  string `json:"drawProb" column:"draw_prob" dbtype:"TEXT"`
	AwayProb  string `json:"awayProb" column:"away_prob" dbtype:"TEXT"`
}

func (o *OddsSnapshot) GetTableName() string {
	return "odds_snapshots"
}

func (o *OddsSnapshot) GetPrimaryKey() map[string]any {
	return map[string]any{"run_id": o.RunID, "row_num": o.Row}
}

// History records pipeline runs in SQLite
type History struct {
	store *Store
	now   func() time.Time
}

// OpenHistory opens the history database at path and creates its tables
func OpenHistory(path string) (*History, error) {
	store, err := OpenStore(path)
	if err != nil {
		return nil, err
	}
	for _, obj := range []Persistable{&RunRecord{}, &OddsSnapshot{}} {
		if err := store.CreateTable(obj); err != nil {
			store.Close()
			return nil, err
		}
	}
	return &History{store: store, now: time.Now}, nil
}

// Close closes the underlying database
func (h *History) Close() error {
	return h.store.Close()
}

func (h *History) newRun(id, tool, season string, input, payload any) (*RunRecord, error) {
	in, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run input: %w", err)
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode run payload: %w", err)
	}
	return &RunRecord{
		ID:        id,
		Tool:      tool,
		Season:    season,
		Input:     string(in),
		Payload:   string(out),
		CreatedAt: h.now().UTC().Format(time.RFC3339Nano),
	}, nil
}

// RecordMatch stores a single match report
func (h *History) RecordMatch(homeQuery, awayQuery string, r *MatchReport) error {
	run, err := h.newRun(r.ID, RunMatchTrends, r.Season,
		map[string]string{"home_team": homeQuery, "away_team": awayQuery}, r)
	if err != nil {
		return err
	}
	run.Summary = fmt.Sprintf("%s vs %s: %s", homeQuery, awayQuery, r.Prediction.Label)
	if err := h.store.Save(run); err != nil {
		return err
	}
	logger.Debug("Recorded match run", run.ID)
	return nil
}

// RecordUpcoming stores an upcoming fixtures report and one snapshot per row,
// all in one transaction
func (h *History) RecordUpcoming(r *UpcomingReport) error {
	run, err := h.newRun(r.ID, RunUpcomingOdds, r.Season, map[string]string{"season": r.Season}, r)
	if err != nil {
		return err
	}
	run.Summary = fmt.Sprintf("%d fixtures", len(r.Rows))
	if r.Warning != "" {
		run.Summary += ": " + r.Warning
	}
	objs := []Persistable{run}
	for i, row := range r.Rows {
		objs = append(objs, &OddsSnapshot{
			RunID:     r.ID,
			Row:       i,
			FixtureID: row.FixtureID,
			Date:      row.Date,
			Match:     row.Match,
			Bookmaker: row.Bookmaker,
			Home:      row.Home.String(),
			Draw:      row.Draw.String(),
			Away:      row.Away.String(),
			Margin:    row.Margin,
			HomeProb:  row.HomeProb,
			DrawProb:  row.DrawProb,
			AwayProb:  row.AwayProb,
		})
	}
	if err := h.store.SaveAll(objs...); err != nil {
		return err
	}
	logger.Debug("Recorded upcoming run", run.ID, len(r.Rows))
	return nil
}

// RecentRuns returns up to limit runs, newest first. An empty tool matches all
func (h *History) RecentRuns(tool string, limit int) ([]*RunRecord, error) {
	if tool == "" {
		return FindWhere[RunRecord](h.store, "1 = 1 ORDER BY created_at DESC LIMIT ?", limit)
	}
	return FindWhere[RunRecord](h.store, "tool = ? ORDER BY created_at DESC LIMIT ?", tool, limit)
}

// Snapshots returns the odds rows stored for a run
func (h *History) Snapshots(runID string) ([]*OddsSnapshot, error) {
	return FindWhere[OddsSnapshot](h.store, "run_id = ? ORDER BY row_num", runID)
}
