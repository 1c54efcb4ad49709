package trends

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// TeamStats is one team's season record as reported by api-football
type TeamStats struct {
	TeamID         int    `json:"teamId"`
	Name           string `json:"name"`
	Played         int    `json:"played"`
	Wins           int    `json:"wins"`
	Losses         int    `json:"losses"`
	Draws          int    `json:"draws"`
	GoalsFor       int    `json:"goalsFor"`
	GoalsAgainst   int    `json:"goalsAgainst"`
	YellowCards    int    `json:"yellowCards"`
	RedCards       int    `json:"redCards"`
	LeaguePosition int    `json:"leaguePosition"`
}

// DefaultLeaguePosition is used when the statistics response carries no position
const DefaultLeaguePosition = 10

// Fixture is one scheduled or completed match
type Fixture struct {
	ID           int       `json:"id"`
	HomeTeamName string    `json:"homeTeam"`
	AwayTeamName string    `json:"awayTeam"`
	Date         time.Time `json:"date"`
	LeagueID     int       `json:"leagueId"`
	Season       string    `json:"season"`
}

// MatchLabel is the "{home} vs {away}" string shown in tables
func (f Fixture) MatchLabel() string {
	return f.HomeTeamName + " vs " + f.AwayTeamName
}

// Price is a decimal odds price, or the reason there isn't one
type Price struct {
	Value  decimal.Decimal
	Valid  bool
	Marker string
	// Text is the price as the upstream sent it, shown in place of Value
	Text string
}

// PriceOf wraps a numeric price
func PriceOf(d decimal.Decimal) Price {
	return Price{Value: d, Valid: true}
}

// PriceText wraps a numeric price parsed from text. The text is kept for
// display, so "4.00" stays "4.00"
func PriceText(d decimal.Decimal, text string) Price {
	return Price{Value: d, Valid: true, Text: text}
}

// MarkerPrice is a price replaced by a sentinel such as "Key Missing"
func MarkerPrice(marker string) Price {
	return Price{Marker: marker}
}

// String renders the value, the sentinel, or "N/A"
func (p Price) String() string {
	if p.Valid {
		if p.Text != "" {
			return p.Text
		}
		return p.Value.String()
	}
	if p.Marker != "" {
		return p.Marker
	}
	return MarkerNA
}

func (p Price) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

// OddsQuote is one bookmaker's 1X2 prices for a fixture
type OddsQuote struct {
	Bookmaker string `json:"bookmaker"`
	Home      Price  `json:"home"`
	Draw      Price  `json:"draw"`
	Away      Price  `json:"away"`
}

// MarkerQuote returns a quote whose three prices are all the same sentinel
func MarkerQuote(marker string) OddsQuote {
	p := MarkerPrice(marker)
	return OddsQuote{Home: p, Draw: p, Away: p}
}

var one = decimal.NewFromInt(1)

func (q OddsQuote) complete() bool {
	return q.Home.Valid && q.Draw.Valid && q.Away.Valid &&
		q.Home.Value.IsPositive() && q.Draw.Value.IsPositive() && q.Away.Value.IsPositive()
}

// Margin is the bookmaker's overround, the sum of the implied probabilities
// minus one. ok is false unless all three prices are numeric and positive
func (q OddsQuote) Margin() (margin decimal.Decimal, ok bool) {
	if !q.complete() {
		return decimal.Zero, false
	}
	sum := one.Div(q.Home.Value).Add(one.Div(q.Draw.Value)).Add(one.Div(q.Away.Value))
	return sum.Sub(one), true
}

// FairProbabilities strips the overround from the three prices, returning
// home, draw and away probabilities that sum to one
func (q OddsQuote) FairProbabilities() (probs [3]decimal.Decimal, ok bool) {
	if !q.complete() {
		return probs, false
	}
	raw := [3]decimal.Decimal{one.Div(q.Home.Value), one.Div(q.Draw.Value), one.Div(q.Away.Value)}
	total := raw[0].Add(raw[1]).Add(raw[2])
	for i := range raw {
		probs[i] = raw[i].Div(total)
	}
	return probs, true
}

// Outcome is the predicted result of a match
type Outcome int

const (
	AwayWin Outcome = iota
	Draw
	HomeWin
)

func (o Outcome) String() string {
	switch o {
	case HomeWin:
		return "Home win"
	case Draw:
		return "Draw"
	case AwayWin:
		return "Away win"
	default:
		return "Unknown"
	}
}

func (o Outcome) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// Prediction is the scorer output. Probabilities are indexed by Outcome
type Prediction struct {
	Label         Outcome    `json:"label"`
	Probabilities [3]float64 `json:"probabilities"`
}

// Home, DrawProb and Away read the probability vector by outcome
func (p Prediction) Home() float64     { return p.Probabilities[HomeWin] }
func (p Prediction) DrawProb() float64 { return p.Probabilities[Draw] }
func (p Prediction) Away() float64     { return p.Probabilities[AwayWin] }

// FixtureOddsRow is one line of the upcoming fixtures table
type FixtureOddsRow struct {
	FixtureID int    `json:"fixtureId"`
	Date      string `json:"date"`
	Match     string `json:"match"`
	Home      Price  `json:"home"`
	Draw      Price  `json:"draw"`
	Away      Price  `json:"away"`
	Bookmaker string `json:"bookmaker,omitempty"`
	// Margin is the overround as a percentage string, empty when not computable
	Margin string `json:"margin,omitempty"`
	// HomeProb, DrawProb and AwayProb are the implied probabilities with the
	// overround removed, as percentage strings. Empty alongside Margin
	HomeProb string `json:"homeProb,omitempty"`
	DrawProb string `json:"drawProb,omitempty"`
	AwayProb string `json:"awayProb,omitempty"`
}

// MatchReport is everything the single match variant shows
type MatchReport struct {
	ID         string      `json:"id"`
	Season     string      `json:"season"`
	Home       TeamStats   `json:"home"`
	Away       TeamStats   `json:"away"`
	Odds       []OddsQuote `json:"odds"`
	OddsError  string      `json:"oddsError,omitempty"`
	Features   [6]float64  `json:"features"`
	Prediction Prediction  `json:"prediction"`
}

// UpcomingReport is the table variant's result. Warning is set, and Rows
// empty, when there is nothing to tabulate
type UpcomingReport struct {
	ID      string           `json:"id"`
	Season  string           `json:"season"`
	Rows    []FixtureOddsRow `json:"rows"`
	Warning string           `json:"warning,omitempty"`
}
