package resources

import (
	"encoding/json"
	"fmt"

	"github.com/richard-senior/footytrends/internal/logger"
	"github.com/richard-senior/footytrends/pkg/protocol"
	"github.com/richard-senior/footytrends/pkg/util/trends"
)

const LeagueConfigURI = "footytrends://league_config"

// LeagueConfig is the document served for LeagueConfigURI. Key values are
// never exposed, only whether they are set
type LeagueConfig struct {
	LeagueID       int      `json:"leagueId"`
	SportKey       string   `json:"sportKey"`
	Seasons        []string `json:"seasons"`
	DefaultSeason  string   `json:"defaultSeason"`
	UpcomingLimit  int      `json:"upcomingLimit"`
	FootballAPIKey bool     `json:"footballApiKeySet"`
	OddsAPIKey     bool     `json:"oddsApiKeySet"`
	ExampleTeams   []string `json:"exampleTeams"`
	Notes          []string `json:"notes"`
}

// LeagueConfigResource describes the league configuration resource
func LeagueConfigResource() protocol.Resource {
	return protocol.Resource{
		URI:         LeagueConfigURI,
		Name:        "league_config",
		Description: "League, seasons and odds sport the tools query, and whether the API keys are configured",
		MimeType:    "application/json",
	}
}

// NewLeagueConfig summarises cfg
func NewLeagueConfig(cfg *trends.Config) LeagueConfig {
	return LeagueConfig{
		LeagueID:       cfg.LeagueID,
		SportKey:       cfg.SportKey,
		Seasons:        cfg.Seasons,
		DefaultSeason:  cfg.DefaultSeason,
		UpcomingLimit:  cfg.UpcomingLimit,
		FootballAPIKey: cfg.HasFootballKey(),
		OddsAPIKey:     cfg.HasOddsKey(),
		ExampleTeams:   []string{"Palmeiras", "Botafogo", "Flamengo", "São Paulo", "Corinthians"},
		Notes: []string{
			"Data for the current season is partial.",
			"Predictions come from a demonstration model. Use for entertainment.",
		},
	}
}

// Reader serves resources/read for the resources in this package
type Reader struct {
	cfg *trends.Config
}

func NewReader(cfg *trends.Config) *Reader {
	return &Reader{cfg: cfg}
}

// Resources lists everything Read can serve
func (r *Reader) Resources() []protocol.Resource {
	return []protocol.Resource{LeagueConfigResource()}
}

// Read returns the contents of the resource at uri
func (r *Reader) Read(uri string) (protocol.ResourceContents, error) {
	logger.Info("Reading resource", uri)
	switch uri {
	case LeagueConfigURI:
		b, err := json.MarshalIndent(NewLeagueConfig(r.cfg), "", "  ")
		if err != nil {
			return protocol.ResourceContents{}, fmt.Errorf("failed to encode league config: %w", err)
		}
		return protocol.ResourceContents{URI: uri, MimeType: "application/json", Text: string(b)}, nil
	default:
		return protocol.ResourceContents{}, fmt.Errorf("resource not found: %s", uri)
	}
}
