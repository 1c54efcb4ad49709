package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/richard-senior/footytrends/internal/app"
	"github.com/richard-senior/footytrends/internal/logger"
	"github.com/richard-senior/footytrends/pkg/server"
	"github.com/richard-senior/footytrends/pkg/transport"
	"github.com/richard-senior/footytrends/pkg/util/trends"
)

const usage = `usage: footytrends [-config file] [command]

commands:
  serve                          run the MCP server on stdin/stdout (default)
  match [-chart file.svg] <home> <away> [season]
                                 compare two teams and predict the result
  upcoming [season] [limit]      list the next fixtures with odds
  history [limit]                show recent runs (needs history_db)
`

func main() {
	os.Exit(run())
}

// run executes one command and returns the exit code. Deferred cleanup runs
// before main exits
func run() int {
	configPath := flag.String("config", "", "YAML config file (default $"+trends.EnvConfigPath+")")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	args := flag.Args()
	command := "serve"
	if len(args) > 0 {
		command, args = args[0], args[1:]
	}

	cfg, err := trends.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "footytrends:", err)
		return 2
	}
	logger.SetShowDateTime(true)
	if err := app.ConfigureLogging(cfg, command == "serve"); err != nil {
		fmt.Fprintln(os.Stderr, "footytrends:", err)
		return 2
	}
	defer logger.Close()
	logger.Info("Starting footytrends", command)

	a, err := app.New(cfg)
	if err != nil {
		logger.Error("Startup failed", err)
		fmt.Fprintln(os.Stderr, "footytrends:", err)
		return 1
	}
	defer a.Close()

	ctx := context.Background()
	switch command {
	case "serve":
		err = serve(ctx, a)
	case "match":
		err = match(ctx, a, args)
	case "upcoming":
		err = upcoming(ctx, a, args)
	case "history":
		err = history(a, args)
	default:
		flag.Usage()
		return 2
	}
	if err != nil {
		logger.Error(command+" failed", err)
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	logger.Info("footytrends finished", command)
	return 0
}

func serve(ctx context.Context, a *app.App) error {
	s := server.NewServer(transport.NewStdioTransport())
	s.RegisterDefaults(ctx, a.Service)
	return s.Start(ctx)
}

func match(ctx context.Context, a *app.App, args []string) error {
	fs := flag.NewFlagSet("match", flag.ContinueOnError)
	chartPath := fs.String("chart", "", "also write the probability chart to this SVG file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	args = fs.Args()
	if len(args) < 2 {
		return errors.New(trends.MsgEnterBothTeams)
	}
	season := ""
	if len(args) > 2 {
		season = args[2]
	}
	report, err := a.Service.MatchTrends(ctx, args[0], args[1], season)
	if err != nil {
		return errors.New(trends.UserMessage(err))
	}
	fmt.Println(trends.RenderMatchReport(args[0], args[1], report))
	fmt.Println()
	chart := trends.ProbabilityChart(report.Prediction)
	fmt.Print(chart.ToText(40))
	if *chartPath != "" {
		if err := chart.ToSVGFile(*chartPath); err != nil {
			return fmt.Errorf("failed to write chart: %w", err)
		}
		logger.Info("Wrote chart", *chartPath)
	}
	return nil
}

func upcoming(ctx context.Context, a *app.App, args []string) error {
	season, limit := "", 0
	if len(args) > 0 {
		season = args[0]
	}
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 || n > 50 {
			return fmt.Errorf("limit must be a number between 1 and 50, got %q", args[1])
		}
		limit = n
	}
	report, err := a.Service.UpcomingOdds(ctx, season, limit, func(done, total int) {
		fmt.Fprintf(os.Stderr, "\rFetching odds %d/%d", done, total)
		if done == total {
			fmt.Fprintln(os.Stderr)
		}
	})
	if err != nil {
		return errors.New(trends.UserMessage(err))
	}
	text, err := trends.RenderUpcoming(report)
	if err != nil {
		return err
	}
	fmt.Println(text)
	return nil
}

func history(a *app.App, args []string) error {
	if a.History == nil {
		return errors.New("history is disabled, set history_db in the config file")
	}
	limit := 10
	if len(args) > 0 {
		n, err := strconv.Atoi(args[0])
		if err != nil || n < 1 {
			return fmt.Errorf("limit must be a positive number, got %q", args[0])
		}
		limit = n
	}
	runs, err := a.History.RecentRuns("", limit)
	if err != nil {
		return err
	}
	for _, r := range runs {
		fmt.Printf("%s  %-13s  %s  %s\n", r.CreatedAt, r.Tool, r.ID, r.Summary)
		if r.Tool != trends.RunUpcomingOdds {
			continue
		}
		snaps, err := a.History.Snapshots(r.ID)
		if err != nil {
			return err
		}
		for _, s := range snaps {
			fmt.Printf("    %-16s  %-36s  %s / %s / %s  %s  %s / %s / %s\n",
				s.Date, s.Match, s.Home, s.Draw, s.Away, s.Margin, s.HomeProb, s.DrawProb, s.AwayProb)
		}
	}
	return nil
}
