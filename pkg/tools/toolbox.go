package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/richard-senior/footytrends/pkg/protocol"
	"github.com/richard-senior/footytrends/pkg/util"
	"github.com/richard-senior/footytrends/pkg/util/trends"
)

// Pipeline is the part of trends.Service the tools drive
type Pipeline interface {
	MatchTrends(ctx context.Context, home, away, season string) (*trends.MatchReport, error)
	UpcomingOdds(ctx context.Context, season string, limit int, progress trends.Progress) (*trends.UpcomingReport, error)
	TeamSummary(ctx context.Context, team, season string) (trends.TeamStats, error)
	Config() *trends.Config
}

// Entry pairs a tool description with the function that runs it
type Entry struct {
	Tool    protocol.Tool
	Handler func(params any) (any, error)
}

// Toolbox exposes the pipeline as MCP tools. Every call runs under ctx, so
// cancelling it abandons any in-flight upstream requests
type Toolbox struct {
	ctx      context.Context
	pipeline Pipeline
}

func NewToolbox(ctx context.Context, p Pipeline) *Toolbox {
	return &Toolbox{ctx: ctx, pipeline: p}
}

// Entries lists the tools in the order tools/list reports them
func (tb *Toolbox) Entries() []Entry {
	return []Entry{
		{MatchTrendsTool(tb.pipeline.Config()), tb.HandleMatchTrends},
		{UpcomingOddsTool(tb.pipeline.Config()), tb.HandleUpcomingOdds},
		{TeamStatsTool(tb.pipeline.Config()), tb.HandleTeamStats},
	}
}

// seasonProperty describes the optional season argument shared by every tool
func seasonProperty(cfg *trends.Config) protocol.ToolProperty {
	return protocol.ToolProperty{
		Type: "string",
		Description: fmt.Sprintf("Season label, one of %s. Defaults to %s",
			strings.Join(cfg.Seasons, ", "), cfg.DefaultSeason),
		Enum: cfg.Seasons,
	}
}

// argsOf converts tools/call arguments to a map. Missing arguments are an
// empty map so that required-field checks produce the user facing message
func argsOf(params any) (map[string]any, error) {
	if params == nil {
		return map[string]any{}, nil
	}
	m, ok := params.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("couldn't read the parameters as a map, got %T", params)
	}
	return m, nil
}

// stringArg returns args[key] as a string, or "" when absent
func stringArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	s, err := util.GetAsString(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// intArg returns args[key] as an int, or def when absent
func intArg(args map[string]any, key string, def int) (int, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return def, nil
	}
	n, err := util.GetAsInteger(v)
	if err != nil {
		return 0, fmt.Errorf("%s must be a whole number: %w", key, err)
	}
	return n, nil
}
