package app

import (
	"fmt"

	"github.com/richard-senior/footytrends/internal/logger"
	"github.com/richard-senior/footytrends/pkg/transport"
	"github.com/richard-senior/footytrends/pkg/util/trends"
)

// App is the wired pipeline shared by the binaries
type App struct {
	Config  *trends.Config
	Service *trends.Service
	History *trends.History // nil unless history_db is set
}

// ConfigureLogging applies the logging section of cfg. stdioMode forces file
// output, since stdout then carries the JSON-RPC stream
func ConfigureLogging(cfg *trends.Config, stdioMode bool) error {
	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger.SetLevel(level)
	logger.SetLogFile(cfg.LogFile)

	output := 'f'
	if cfg.LogOutput != "" {
		output = rune(cfg.LogOutput[0])
	}
	if stdioMode && output != 'f' {
		output = 'f'
	}
	return logger.SetLogOutput(output)
}

// New builds the service from cfg. The caller must Close the result
func New(cfg *trends.Config) (*App, error) {
	client := trends.NewClient(cfg, transport.NewHTTPClient(cfg.HTTPTimeout, cfg.CABundlePath))
	a := &App{Config: cfg}

	var recorder trends.Recorder
	if cfg.HistoryDBPath != "" {
		h, err := trends.OpenHistory(cfg.HistoryDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open history: %w", err)
		}
		a.History = h
		recorder = h
	}
	if !cfg.HasFootballKey() {
		logger.Warn("No football API key configured, set", trends.EnvFootballKey)
	}
	if !cfg.HasOddsKey() {
		logger.Warn("No odds API key configured, set", trends.EnvOddsKey)
	}

	a.Service = trends.NewService(cfg, client, trends.SharedScorer(), recorder)
	return a, nil
}

// Close releases the history database, if open
func (a *App) Close() error {
	if a.History != nil {
		return a.History.Close()
	}
	return nil
}
