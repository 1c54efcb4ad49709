package trends

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Environment variables consulted by LoadConfig after the YAML file
const (
	EnvFootballKey = "FOOTBALL_API_KEY"
	EnvOddsKey     = "ODDS_API_KEY"
	EnvConfigPath  = "FOOTYTRENDS_CONFIG"
)

// Config holds everything the pipeline needs from the outside world.
// It is built once at process entry and passed by reference; nothing in
// this package reads configuration from anywhere else
type Config struct {
	// === Credentials ===
	FootballAPIKey string `yaml:"football_api_key"` // RapidAPI key for api-football
	OddsAPIKey     string `yaml:"odds_api_key"`     // RapidAPI key for the odds API

	// === Upstreams ===
	FootballBaseURL string `yaml:"football_base_url"`
	FootballHost    string `yaml:"football_host"` // X-RapidAPI-Host for api-football
	OddsBaseURL     string `yaml:"odds_base_url"`
	OddsHost        string `yaml:"odds_host"` // X-RapidAPI-Host for the odds API

	// === Competition ===
	LeagueID      int      `yaml:"league_id"`      // api-football league (71 = Brasileirão Série A)
	SportKey      string   `yaml:"sport_key"`      // odds API sport
	Seasons       []string `yaml:"seasons"`        // season labels offered to the user
	DefaultSeason string   `yaml:"default_season"` // used when a tool call gives none
	UpcomingLimit int      `yaml:"upcoming_limit"` // fixtures requested by upcoming_odds

	// === Transport ===
	HTTPTimeout  time.Duration `yaml:"http_timeout"`   // 0 keeps the transport default (no deadline)
	CABundlePath string        `yaml:"ca_bundle_path"` // extra PEM roots, optional

	// === Storage ===
	HistoryDBPath string `yaml:"history_db"` // SQLite file for run history; empty disables it

	// === Logging ===
	LogLevel  string `yaml:"log_level"`
	LogFile   string `yaml:"log_file"`
	LogOutput string `yaml:"log_output"` // c, f or b
}

// DefaultConfig returns the configuration used when no file is given
func DefaultConfig() *Config {
	return &Config{
		FootballBaseURL: "https://api-football-v1.p.rapidapi.com/v3",
		FootballHost:    "api-football-v1.p.rapidapi.com",
		OddsBaseURL:     "https://odds-api.p.rapidapi.com/v1",
		OddsHost:        "odds-api.p.rapidapi.com",

		LeagueID:      71,
		SportKey:      "soccer_brazil_campeonato",
		Seasons:       []string{"2023-2024", "2024-2025"},
		DefaultSeason: "2024-2025",
		UpcomingLimit: 10,

		LogLevel:  "info",
		LogOutput: "f",
	}
}

// LoadConfig starts from DefaultConfig, overlays the YAML file at path (if
// path is empty FOOTYTRENDS_CONFIG is tried, and no file at all is fine) and
// finally the key environment variables. The result is validated
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	if v := os.Getenv(EnvFootballKey); v != "" {
		cfg.FootballAPIKey = v
	}
	if v := os.Getenv(EnvOddsKey); v != "" {
		cfg.OddsAPIKey = v
	}

	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateConfig ensures all configuration values are within reasonable ranges.
// Missing API keys are deliberately not an error: they surface per request
func ValidateConfig(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}
	if cfg.LeagueID <= 0 {
		return fmt.Errorf("league_id must be positive, got: %d", cfg.LeagueID)
	}
	if cfg.FootballBaseURL == "" || cfg.OddsBaseURL == "" {
		return errors.New("football_base_url and odds_base_url must be set")
	}
	if cfg.SportKey == "" {
		return errors.New("sport_key must be set")
	}
	if cfg.UpcomingLimit < 1 || cfg.UpcomingLimit > 50 {
		return fmt.Errorf("upcoming_limit should be between 1 and 50, got: %d", cfg.UpcomingLimit)
	}
	if cfg.HTTPTimeout < 0 {
		return fmt.Errorf("http_timeout cannot be negative, got: %s", cfg.HTTPTimeout)
	}
	if len(cfg.Seasons) == 0 {
		return errors.New("at least one season must be configured")
	}
	for _, s := range cfg.Seasons {
		if !seasonPattern.MatchString(s) {
			return fmt.Errorf("season %q is not of the form 2024 or 2024-2025", s)
		}
	}
	if cfg.DefaultSeason != "" && !slices.Contains(cfg.Seasons, cfg.DefaultSeason) {
		return fmt.Errorf("default_season %q is not one of %v", cfg.DefaultSeason, cfg.Seasons)
	}
	if cfg.LogOutput != "" && (len(cfg.LogOutput) != 1 || !strings.Contains("cfb", cfg.LogOutput)) {
		return fmt.Errorf("log_output must be one of c, f or b, got: %q", cfg.LogOutput)
	}
	return nil
}

var seasonPattern = regexp.MustCompile(`^(\d{4})(?:[-/](\d{4}))?$`)

// SeasonCode converts a season label into the year api-football expects.
// "2024-2025" and "2024/2025" give "2024", a bare "2024" is passed through.
// Labels must either be configured or be a bare year
func (c *Config) SeasonCode(season string) (string, error) {
	season = strings.TrimSpace(season)
	if season == "" {
		season = c.DefaultSeason
	}
	m := seasonPattern.FindStringSubmatch(season)
	if m == nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidSeason, season)
	}
	if m[2] != "" && !slices.Contains(c.Seasons, season) {
		return "", fmt.Errorf("%w: %q is not one of %v", ErrInvalidSeason, season, c.Seasons)
	}
	return m[1], nil
}

// HasFootballKey reports whether the football API key is configured
func (c *Config) HasFootballKey() bool {
	return strings.TrimSpace(c.FootballAPIKey) != ""
}

// HasOddsKey reports whether the odds API key is configured
func (c *Config) HasOddsKey() bool {
	return strings.TrimSpace(c.OddsAPIKey) != ""
}
