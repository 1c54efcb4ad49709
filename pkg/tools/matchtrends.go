package tools

import (
	"github.com/richard-senior/footytrends/internal/logger"
	"github.com/richard-senior/footytrends/pkg/protocol"
	"github.com/richard-senior/footytrends/pkg/util/trends"
)

func MatchTrendsTool(cfg *trends.Config) protocol.Tool {
	return protocol.Tool{
		Name: "match_trends",
		Description: `
		Compares two Brasileirão teams for a season: each team's record (played, wins, losses,
		draws, goals, cards, league position), the bookmaker odds for the home team's most
		recent fixture and a home win / draw / away win prediction with its probabilities.
		The prediction comes from a small demonstration model and is for entertainment only.
		`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"home_team": {
					Type:        "string",
					Description: "The home team, e.g. 'Flamengo'",
				},
				"away_team": {
					Type:        "string",
					Description: "The away team, e.g. 'Palmeiras'",
				},
				"season": seasonProperty(cfg),
			},
			Required: []string{"home_team", "away_team"},
		},
	}
}

// HandleMatchTrends runs the single match pipeline. Pipeline failures come
// back as an error result carrying the user message, not as a JSON-RPC error
func (tb *Toolbox) HandleMatchTrends(params any) (any, error) {
	args, err := argsOf(params)
	if err != nil {
		return nil, err
	}
	home := stringArg(args, "home_team")
	away := stringArg(args, "away_team")
	season := stringArg(args, "season")
	logger.Info("match_trends", home, away, season)

	report, err := tb.pipeline.MatchTrends(tb.ctx, home, away, season)
	if err != nil {
		logger.Warn("match_trends failed", err)
		return protocol.NewToolError(trends.UserMessage(err)), nil
	}

	chart := trends.ProbabilityChart(report.Prediction)
	result := protocol.NewToolResult(
		trends.RenderMatchReport(home, away, report),
		chart.ToText(40),
	)
	result.Content = append(result.Content, protocol.ImageContent([]byte(chart.ToSVG()), "image/svg+xml"))
	result.StructuredContent = report
	return result, nil
}
