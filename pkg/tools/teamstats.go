package tools

import (
	"github.com/richard-senior/footytrends/internal/logger"
	"github.com/richard-senior/footytrends/pkg/protocol"
	"github.com/richard-senior/footytrends/pkg/util/trends"
)

func TeamStatsTool(cfg *trends.Config) protocol.Tool {
	return protocol.Tool{
		Name:        "team_stats",
		Description: "Season record of a single team: played, wins, losses, draws, goals, cards and league position",
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"team": {
					Type:        "string",
					Description: "The team, e.g. 'Botafogo'",
				},
				"season": seasonProperty(cfg),
			},
			Required: []string{"team"},
		},
	}
}

func (tb *Toolbox) HandleTeamStats(params any) (any, error) {
	args, err := argsOf(params)
	if err != nil {
		return nil, err
	}
	team := stringArg(args, "team")
	if team == "" {
		return protocol.NewToolError(trends.MsgEnterTeam), nil
	}
	season := stringArg(args, "season")
	logger.Info("team_stats", team, season)

	ts, err := tb.pipeline.TeamSummary(tb.ctx, team, season)
	if err != nil {
		return protocol.NewToolError(trends.UserMessage(err)), nil
	}
	result := protocol.NewToolResult("Statistics for " + team + "\n" + trends.TeamSummary(ts))
	result.StructuredContent = ts
	return result, nil
}
