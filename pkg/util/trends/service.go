package trends

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/richard-senior/footytrends/internal/logger"
)

// Recorder keeps a record of finished runs. History implements it
type Recorder interface {
	RecordMatch(homeQuery, awayQuery string, r *MatchReport) error
	RecordUpcoming(r *UpcomingReport) error
}

// Progress is told how many of total fixtures have been processed
type Progress func(done, total int)

// Service runs the fetch, normalise, score and assemble pipeline. It holds no
// per-run state; the fetcher, scorer and recorder are shared across runs
type Service struct {
	cfg      *Config
	fetcher  Fetcher
	scorer   *Scorer
	recorder Recorder
}

// NewService wires a pipeline. recorder may be nil
func NewService(cfg *Config, fetcher Fetcher, scorer *Scorer, recorder Recorder) *Service {
	return &Service{cfg: cfg, fetcher: fetcher, scorer: scorer, recorder: recorder}
}

// Config returns the configuration the service was built with
func (s *Service) Config() *Config {
	return s.cfg
}

// teamStats resolves a team name and fetches its statistics. The statistics
// call is only made once the search has produced an id
func (s *Service) teamStats(ctx context.Context, name, season string) (TeamStats, error) {
	id, canonical, err := s.fetcher.SearchTeam(ctx, name)
	if err != nil {
		return TeamStats{}, &TeamError{Team: name, Err: err}
	}
	ts, err := s.fetcher.FetchTeamStatistics(ctx, id, s.cfg.LeagueID, season)
	if err != nil {
		return TeamStats{}, &TeamError{Team: name, Err: err}
	}
	if ts.Name == "" {
		ts.Name = canonical
	}
	return ts, nil
}

// TeamSummary fetches one team's season statistics
func (s *Service) TeamSummary(ctx context.Context, team, season string) (TeamStats, error) {
	team = strings.TrimSpace(team)
	if team == "" {
		return TeamStats{}, ErrMissingTeam
	}
	code, err := s.cfg.SeasonCode(season)
	if err != nil {
		return TeamStats{}, err
	}
	return s.teamStats(ctx, team, code)
}

// MatchTrends is the single match variant: both teams' statistics, the
// bookmaker odds for the home team's latest fixture and a scored prediction.
// A failure on the home team stops the run before the away team is fetched.
// Odds failures never fail the run; they leave Odds empty and set OddsError
func (s *Service) MatchTrends(ctx context.Context, home, away, season string) (*MatchReport, error) {
	home, away = strings.TrimSpace(home), strings.TrimSpace(away)
	if home == "" || away == "" {
		return nil, ErrMissingTeam
	}
	code, err := s.cfg.SeasonCode(season)
	if err != nil {
		return nil, err
	}

	homeStats, err := s.teamStats(ctx, home, code)
	if err != nil {
		return nil, err
	}
	awayStats, err := s.teamStats(ctx, away, code)
	if err != nil {
		return nil, err
	}

	report := &MatchReport{
		ID:     uuid.NewString(),
		Season: code,
		Home:   homeStats,
		Away:   awayStats,
	}
	report.Odds, report.OddsError = s.matchOdds(ctx, homeStats.TeamID, code)

	report.Features = Features(homeStats, awayStats)
	report.Prediction = s.scorer.Predict(report.Features)
	logger.Info("Predicted", home, away, report.Prediction.Label.String())

	if s.recorder != nil {
		if err := s.recorder.RecordMatch(home, away, report); err != nil {
			logger.Warn("Failed to record match run", err)
		}
	}
	return report, nil
}

// matchOdds looks up the home team's latest fixture and returns every
// bookmaker quote for it, or the marker describing why there are none
func (s *Service) matchOdds(ctx context.Context, homeID int, season string) ([]OddsQuote, string) {
	if !s.cfg.HasOddsKey() {
		return []OddsQuote{}, MarkerKeyMissing
	}
	fixture, err := s.fetcher.FetchLastFixture(ctx, homeID, s.cfg.LeagueID, season)
	if err != nil {
		logger.Warn("No fixture for odds lookup", homeID, err)
		return []OddsQuote{}, Marker(err)
	}
	quotes, err := s.fetcher.FetchFixtureOdds(ctx, fixture.ID)
	if err != nil {
		logger.Warn("Odds lookup failed", fixture.ID, err)
		return []OddsQuote{}, Marker(err)
	}
	if len(quotes) == 0 {
		return []OddsQuote{}, MarkerNA
	}
	return quotes, ""
}

// UpcomingOdds is the table variant: the next limit fixtures of the
// configured league, each joined with its first bookmaker's quote. Fixtures
// are processed one at a time; a failed odds fetch fills that row with the
// matching marker and the loop carries on. A failed or empty fixture list
// gives a report with a Warning and no rows, never an error
func (s *Service) UpcomingOdds(ctx context.Context, season string, limit int, progress Progress) (*UpcomingReport, error) {
	code, err := s.cfg.SeasonCode(season)
	if err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = s.cfg.UpcomingLimit
	}

	report := &UpcomingReport{ID: uuid.NewString(), Season: code, Rows: []FixtureOddsRow{}}
	fixtures, err := s.fetcher.FetchUpcomingFixtures(ctx, s.cfg.LeagueID, code, limit)
	switch {
	case err != nil:
		report.Warning = "Could not load fixtures. " + UserMessage(err)
	case len(fixtures) == 0:
		report.Warning = MsgNoFixtures
	}

	for i, f := range fixtures {
		report.Rows = append(report.Rows, NewFixtureOddsRow(f, s.firstQuote(ctx, f)))
		if progress != nil {
			progress(i+1, len(fixtures))
		}
		logger.Debug("Fixture odds progress", i+1, len(fixtures))
	}
	logger.Info("Built upcoming odds table", len(report.Rows))

	if s.recorder != nil {
		if err := s.recorder.RecordUpcoming(report); err != nil {
			logger.Warn("Failed to record upcoming run", err)
		}
	}
	return report, nil
}

// firstQuote returns the first bookmaker's quote for f, or a marker triple
func (s *Service) firstQuote(ctx context.Context, f Fixture) OddsQuote {
	if f.ID == 0 {
		return MarkerQuote(MarkerNA)
	}
	quotes, err := s.fetcher.FetchFixtureOdds(ctx, f.ID)
	if err != nil {
		return MarkerQuote(Marker(err))
	}
	if len(quotes) == 0 {
		return MarkerQuote(MarkerNA)
	}
	return quotes[0]
}
