package tools

import (
	"fmt"

	"github.com/richard-senior/footytrends/internal/logger"
	"github.com/richard-senior/footytrends/pkg/protocol"
	"github.com/richard-senior/footytrends/pkg/util/trends"
)

func UpcomingOddsTool(cfg *trends.Config) protocol.Tool {
	return protocol.Tool{
		Name: "upcoming_odds",
		Description: fmt.Sprintf(`
		Lists the next fixtures of the configured league (league %d) with the first bookmaker's
		home / draw / away prices and the bookmaker margin. Prices that could not be fetched show
		why instead: "N/A", "Key Missing", "Invalid Key", "API Error" or "General Error".
		`, cfg.LeagueID),
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"season": seasonProperty(cfg),
				"limit": {
					Type:        "integer",
					Description: fmt.Sprintf("How many fixtures to list, 1 to 50. Defaults to %d", cfg.UpcomingLimit),
				},
			},
			Required: []string{},
		},
	}
}

// HandleUpcomingOdds builds the fixture odds table
func (tb *Toolbox) HandleUpcomingOdds(params any) (any, error) {
	args, err := argsOf(params)
	if err != nil {
		return nil, err
	}
	season := stringArg(args, "season")
	limit, err := intArg(args, "limit", 0)
	if err != nil {
		return protocol.NewToolError(err.Error()), nil
	}
	if limit < 0 || limit > 50 {
		return protocol.NewToolError(fmt.Sprintf("limit must be between 1 and 50, got %d", limit)), nil
	}
	logger.Info("upcoming_odds", season, limit)

	report, err := tb.pipeline.UpcomingOdds(tb.ctx, season, limit, func(done, total int) {
		logger.Inform("Fixture odds", done, total)
	})
	if err != nil {
		return protocol.NewToolError(trends.UserMessage(err)), nil
	}

	text, err := trends.RenderUpcoming(report)
	if err != nil {
		return nil, err
	}
	result := protocol.NewToolResult(text)
	result.StructuredContent = report
	return result, nil
}
