package trends

import (
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/richard-senior/footytrends/pkg/util"
	"github.com/shopspring/decimal"
)

// User facing messages
const (
	MsgEnterBothTeams  = "Enter both teams."
	MsgEnterTeam       = "Enter a team."
	MsgOddsUnavailable = "Odds unavailable."
	MsgNoFixtures      = "No upcoming fixtures found."
)

// Chart colours, home/draw/away
const (
	ColourHome = "blue"
	ColourDraw = "gray"
	ColourAway = "red"
)

// TeamSummary is the one line description of a team's season
func TeamSummary(ts TeamStats) string {
	return fmt.Sprintf(
		"Played: %d, Wins: %d, Losses: %d, Draws: %d, Goals for: %d, Goals against: %d, Yellow cards: %d, Red cards: %d, Position: %d",
		ts.Played, ts.Wins, ts.Losses, ts.Draws, ts.GoalsFor, ts.GoalsAgainst, ts.YellowCards, ts.RedCards, ts.LeaguePosition,
	)
}

// OddsLine renders one bookmaker's quote
func OddsLine(q OddsQuote) string {
	return fmt.Sprintf("%s: Home %s, Draw %s, Away %s", q.Bookmaker, q.Home, q.Draw, q.Away)
}

// OddsBlock renders every quote on its own line, or the unavailable message
func OddsBlock(quotes []OddsQuote) string {
	if len(quotes) == 0 {
		return MsgOddsUnavailable
	}
	lines := make([]string, len(quotes))
	for i, q := range quotes {
		lines[i] = OddsLine(q)
	}
	return strings.Join(lines, "\n")
}

// PredictionText renders the predicted outcome and the three probabilities
func PredictionText(p Prediction) string {
	return fmt.Sprintf("Prediction: %s\nProbabilities: Home %.2f, Draw %.2f, Away %.2f",
		p.Label, p.Home(), p.DrawProb(), p.Away())
}

// ProbabilityChart is the three bar home/draw/away chart
func ProbabilityChart(p Prediction) *util.BarChart {
	return util.NewBarChart("Outcome probabilities", "Probability", 1.0,
		util.Bar{Label: "Home", Value: p.Home(), Colour: ColourHome},
		util.Bar{Label: "Draw", Value: p.DrawProb(), Colour: ColourDraw},
		util.Bar{Label: "Away", Value: p.Away(), Colour: ColourAway},
	)
}

// NewFixtureOddsRow joins a fixture with the quote chosen for it
func NewFixtureOddsRow(f Fixture, q OddsQuote) FixtureOddsRow {
	row := FixtureOddsRow{
		FixtureID: f.ID,
		Date:      MarkerNA,
		Match:     f.MatchLabel(),
		Home:      q.Home,
		Draw:      q.Draw,
		Away:      q.Away,
		Bookmaker: q.Bookmaker,
	}
	if !f.Date.IsZero() {
		row.Date = f.Date.Format("2006-01-02 15:04")
	}
	if m, ok := q.Margin(); ok {
		row.Margin = percent(m)
	}
	if probs, ok := q.FairProbabilities(); ok {
		row.HomeProb, row.DrawProb, row.AwayProb = percent(probs[0]), percent(probs[1]), percent(probs[2])
	}
	return row
}

func percent(d decimal.Decimal) string {
	return d.Shift(2).StringFixed(1) + "%"
}

func orNA(s string) string {
	if s == "" {
		return MarkerNA
	}
	return s
}

var tableHeaders = []string{"Date", "Match", "Home", "Draw", "Away", "Margin", "Home %", "Draw %", "Away %"}

// FixtureTableHTML renders rows as an HTML table
func FixtureTableHTML(rows []FixtureOddsRow) string {
	var b strings.Builder
	b.WriteString("<table>\n<thead><tr>")
	for _, h := range tableHeaders {
		b.WriteString("<th>" + h + "</th>")
	}
	b.WriteString("</tr></thead>\n<tbody>\n")
	for _, r := range rows {
		b.WriteString("<tr>")
		for _, cell := range []string{r.Date, r.Match, r.Home.String(), r.Draw.String(), r.Away.String(),
			orNA(r.Margin), orNA(r.HomeProb), orNA(r.DrawProb), orNA(r.AwayProb)} {
			b.WriteString("<td>" + html.EscapeString(cell) + "</td>")
		}
		b.WriteString("</tr>\n")
	}
	b.WriteString("</tbody>\n</table>")
	return b.String()
}

var tableConverter = converter.NewConverter(
	converter.WithPlugins(
		base.NewBasePlugin(),
		commonmark.NewCommonmarkPlugin(),
		table.NewTablePlugin(),
	),
)

// FixtureTableMarkdown renders rows as a Markdown table
func FixtureTableMarkdown(rows []FixtureOddsRow) (string, error) {
	md, err := tableConverter.ConvertString(FixtureTableHTML(rows))
	if err != nil {
		return "", fmt.Errorf("failed to convert fixture table: %w", err)
	}
	return strings.TrimSpace(md), nil
}

// RenderMatchReport is the full text of the single match variant
func RenderMatchReport(homeName, awayName string, r *MatchReport) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Statistics for %s\n%s\n\n", homeName, TeamSummary(r.Home))
	fmt.Fprintf(&b, "Statistics for %s\n%s\n\n", awayName, TeamSummary(r.Away))
	odds := OddsBlock(r.Odds)
	if len(r.Odds) == 0 && r.OddsError != "" && r.OddsError != MarkerNA {
		odds += " (" + r.OddsError + ")"
	}
	fmt.Fprintf(&b, "Betting odds\n%s\n\n", odds)
	fmt.Fprintf(&b, "Machine learning prediction\n%s", PredictionText(r.Prediction))
	return b.String()
}

// RenderUpcoming is the text of the table variant: the warning, or the table
func RenderUpcoming(r *UpcomingReport) (string, error) {
	if len(r.Rows) == 0 {
		if r.Warning != "" {
			return r.Warning, nil
		}
		return MsgNoFixtures, nil
	}
	md, err := FixtureTableMarkdown(r.Rows)
	if err != nil {
		return "", err
	}
	if r.Warning != "" {
		md = r.Warning + "\n\n" + md
	}
	return md, nil
}

// UserMessage turns a pipeline error into the inline message shown instead
// of a result
func UserMessage(err error) string {
	var te *TeamError
	team := ""
	if errors.As(err, &te) {
		team = te.Team
	}
	var ue *UpstreamError
	var ne *NetworkError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingTeam):
		return MsgEnterBothTeams
	case errors.Is(err, ErrMissingCredential):
		return "API key missing. Set " + EnvFootballKey + " and " + EnvOddsKey + "."
	case errors.Is(err, ErrTeamNotFound):
		return fmt.Sprintf("Team %q not found. Check the name.", team)
	case errors.Is(err, ErrInvalidSeason):
		return err.Error()
	case errors.As(err, &ue) && ue.Unauthorized:
		return fmt.Sprintf("API key rejected by the upstream (HTTP %d).", ue.Status)
	case errors.As(err, &ue):
		return fmt.Sprintf("Upstream error (HTTP %d).", ue.Status)
	case errors.As(err, &ne):
		return "Network error: " + ne.Err.Error()
	case errors.Is(err, ErrUnavailable) && team != "":
		return fmt.Sprintf("Statistics unavailable for %q.", team)
	case errors.Is(err, ErrUnavailable):
		return "Data unavailable."
	default:
		return "Error: " + err.Error()
	}
}
