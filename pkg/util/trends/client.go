package trends

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/richard-senior/footytrends/internal/logger"
	"github.com/richard-senior/footytrends/pkg/transport"
)

// Fetcher is the set of upstream operations the pipeline needs
type Fetcher interface {
	SearchTeam(ctx context.Context, name string) (id int, canonical string, err error)
	FetchTeamStatistics(ctx context.Context, teamID, leagueID int, season string) (TeamStats, error)
	FetchLastFixture(ctx context.Context, teamID, leagueID int, season string) (Fixture, error)
	FetchUpcomingFixtures(ctx context.Context, leagueID int, season string, limit int) ([]Fixture, error)
	FetchFixtureOdds(ctx context.Context, fixtureID int) ([]OddsQuote, error)
}

// Client talks to api-football and the odds API through RapidAPI.
// Every call is one blocking GET; there are no retries
type Client struct {
	cfg  *Config
	http *http.Client
}

// NewClient returns a client for cfg. A nil httpClient gets one built from
// the config's timeout and CA bundle
func NewClient(cfg *Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = transport.NewHTTPClient(cfg.HTTPTimeout, cfg.CABundlePath)
	}
	return &Client{cfg: cfg, http: httpClient}
}

type upstream struct {
	name    string
	baseURL string
	host    string
	key     string
}

func (c *Client) football() upstream {
	return upstream{"api-football", c.cfg.FootballBaseURL, c.cfg.FootballHost, c.cfg.FootballAPIKey}
}

func (c *Client) odds() upstream {
	return upstream{"odds", c.cfg.OddsBaseURL, c.cfg.OddsHost, c.cfg.OddsAPIKey}
}

// get performs the authenticated request. A missing key fails here, before
// anything goes on the wire
func (c *Client) get(ctx context.Context, u upstream, path string, query url.Values) (map[string]any, error) {
	if strings.TrimSpace(u.key) == "" {
		return nil, fmt.Errorf("%s: %w", u.name, ErrMissingCredential)
	}
	headers := map[string]string{
		"X-RapidAPI-Key":  u.key,
		"X-RapidAPI-Host": u.host,
	}
	endpoint := strings.TrimRight(u.baseURL, "/") + "/" + path
	body, err := transport.GetJSON(ctx, c.http, endpoint, query, headers)
	if err != nil {
		logger.Warn("Upstream request failed", u.name, path, err)
		return nil, classify(err)
	}
	return body, nil
}

// SearchTeam resolves a free text team name to an api-football team id
func (c *Client) SearchTeam(ctx context.Context, name string) (int, string, error) {
	body, err := c.get(ctx, c.football(), "teams", url.Values{"search": {name}})
	if err != nil {
		return 0, "", err
	}
	id, canonical, err := ParseTeamSearch(name, body)
	if err != nil {
		return 0, "", err
	}
	logger.Debug("Resolved team", name, id, canonical)
	return id, canonical, nil
}

// FetchTeamStatistics returns the season record of teamID in leagueID
func (c *Client) FetchTeamStatistics(ctx context.Context, teamID, leagueID int, season string) (TeamStats, error) {
	q := url.Values{
		"league": {strconv.Itoa(leagueID)},
		"season": {season},
		"team":   {strconv.Itoa(teamID)},
	}
	body, err := c.get(ctx, c.football(), "teams/statistics", q)
	if err != nil {
		return TeamStats{}, err
	}
	ts, err := ParseTeamStatistics(body)
	if err != nil {
		return TeamStats{}, err
	}
	if ts.TeamID == 0 {
		ts.TeamID = teamID
	}
	return ts, nil
}

// FetchLastFixture returns the most recent fixture played by teamID
func (c *Client) FetchLastFixture(ctx context.Context, teamID, leagueID int, season string) (Fixture, error) {
	q := url.Values{
		"league": {strconv.Itoa(leagueID)},
		"season": {season},
		"team":   {strconv.Itoa(teamID)},
		"last":   {"1"},
	}
	body, err := c.get(ctx, c.football(), "fixtures", q)
	if err != nil {
		return Fixture{}, err
	}
	fixtures := ParseFixtures(body, leagueID, season)
	if len(fixtures) == 0 || fixtures[0].ID == 0 {
		return Fixture{}, fmt.Errorf("%w: no recent fixture for team %d", ErrUnavailable, teamID)
	}
	return fixtures[0], nil
}

// FetchUpcomingFixtures returns up to limit upcoming fixtures in upstream
// order. The slice is empty when there are none, and also on failure, in
// which case err says why
func (c *Client) FetchUpcomingFixtures(ctx context.Context, leagueID int, season string, limit int) ([]Fixture, error) {
	q := url.Values{
		"league": {strconv.Itoa(leagueID)},
		"season": {season},
		"next":   {strconv.Itoa(limit)},
	}
	body, err := c.get(ctx, c.football(), "fixtures", q)
	if err != nil {
		return []Fixture{}, err
	}
	fixtures := ParseFixtures(body, leagueID, season)
	if fixtures == nil {
		fixtures = []Fixture{}
	}
	return fixtures, nil
}

// FetchFixtureOdds returns every bookmaker's quote for fixtureID. The slice is
// empty when the upstream has none or the request failed; err carries the
// failure so callers can pick the sentinel to display
func (c *Client) FetchFixtureOdds(ctx context.Context, fixtureID int) ([]OddsQuote, error) {
	q := url.Values{
		"sport":   {c.cfg.SportKey},
		"fixture": {strconv.Itoa(fixtureID)},
	}
	body, err := c.get(ctx, c.odds(), "odds", q)
	if err != nil {
		return []OddsQuote{}, err
	}
	quotes := ParseOdds(body)
	if quotes == nil {
		quotes = []OddsQuote{}
	}
	return quotes, nil
}
