package trends

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/richard-senior/footytrends/pkg/util"
	"github.com/shopspring/decimal"
)

/**
* Field extraction over decoded upstream JSON. Every helper takes the
* decoded tree and a path and returns a typed value, a default or an error,
* never panics. Path elements index maps by key and slices by position.
 */

// lookup walks path through nested maps and slices
func lookup(data any, path ...string) (any, bool) {
	cur := data
	for _, p := range path {
		switch node := cur.(type) {
		case map[string]any:
			v, ok := node[p]
			if !ok {
				return nil, false
			}
			cur = v
		case []any:
			i, err := strconv.Atoi(p)
			if err != nil || i < 0 || i >= len(node) {
				return nil, false
			}
			cur = node[i]
		default:
			return nil, false
		}
	}
	return cur, cur != nil
}

// intAt coerces the value at path to an int
func intAt(data any, path ...string) (int, error) {
	v, ok := lookup(data, path...)
	if !ok {
		return 0, fmt.Errorf("%s is missing", strings.Join(path, "."))
	}
	i, err := util.GetAsInteger(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", strings.Join(path, "."), err)
	}
	return i, nil
}

// intOr is intAt with a fallback for absent or non-numeric values
func intOr(def int, data any, path ...string) int {
	if i, err := intAt(data, path...); err == nil {
		return i
	}
	return def
}

// stringAt returns the value at path as a string, or def
func stringAt(data any, def string, path ...string) string {
	v, ok := lookup(data, path...)
	if !ok {
		return def
	}
	s, err := util.GetAsString(v)
	if err != nil || strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// listAt returns the slice at path, or nil
func listAt(data any, path ...string) []any {
	v, ok := lookup(data, path...)
	if !ok {
		return nil
	}
	l, _ := v.([]any)
	return l
}

// priceAt reads an odds price that may be a number or a numeric string.
// Anything else, including zero or negative prices, is "N/A"
func priceAt(data any, path ...string) Price {
	v, ok := lookup(data, path...)
	if !ok {
		return Price{}
	}
	var s string
	switch p := v.(type) {
	case json.Number:
		s = p.String()
	case string:
		s = strings.TrimSpace(p)
	case float64:
		return positivePrice(decimal.NewFromFloat(p))
	default:
		return Price{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil || !d.IsPositive() {
		return Price{}
	}
	return PriceText(d, s)
}

func positivePrice(d decimal.Decimal) Price {
	if !d.IsPositive() {
		return Price{}
	}
	return PriceOf(d)
}

// ParseTeamSearch picks the team id from a teams?search response. When several
// teams match, the one whose name is closest to the query wins
func ParseTeamSearch(query string, body map[string]any) (id int, name string, err error) {
	results := listAt(body, "response")
	if len(results) == 0 {
		return 0, "", ErrTeamNotFound
	}

	names := make([]string, len(results))
	for i, r := range results {
		names[i] = stringAt(r, "", "team", "name")
	}
	best := util.BestNameMatch(query, names)

	id, err = intAt(results[best], "team", "id")
	if err != nil {
		return 0, "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return id, stringAt(results[best], query, "team", "name"), nil
}

// ParseTeamStatistics builds TeamStats from a teams/statistics response. The
// fixture and goal totals are required; a missing one makes the whole team
// unavailable. Cards are summed over the minute buckets, null buckets
// counting as zero. Position falls back to DefaultLeaguePosition
func ParseTeamStatistics(body map[string]any) (TeamStats, error) {
	stats, ok := lookup(body, "response")
	if !ok {
		return TeamStats{}, fmt.Errorf("%w: statistics response is empty", ErrUnavailable)
	}
	if l, isList := stats.([]any); isList {
		if len(l) == 0 {
			return TeamStats{}, fmt.Errorf("%w: statistics response is empty", ErrUnavailable)
		}
		stats = l[0]
	}

	ts := TeamStats{
		TeamID: intOr(0, stats, "team", "id"),
		Name:   stringAt(stats, "", "team", "name"),
	}
	required := []struct {
		dst  *int
		path []string
	}{
		{&ts.Played, []string{"fixtures", "played", "total"}},
		{&ts.Wins, []string{"fixtures", "wins", "total"}},
		{&ts.Losses, []string{"fixtures", "loses", "total"}},
		{&ts.Draws, []string{"fixtures", "draws", "total"}},
		{&ts.GoalsFor, []string{"goals", "for", "total", "total"}},
		{&ts.GoalsAgainst, []string{"goals", "against", "total", "total"}},
	}
	for _, r := range required {
		v, err := intAt(stats, r.path...)
		if err != nil {
			return TeamStats{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		*r.dst = v
	}

	ts.YellowCards = sumCardBuckets(stats, "yellow")
	ts.RedCards = sumCardBuckets(stats, "red")
	ts.LeaguePosition = leaguePosition(stats)
	return ts, nil
}

// sumCardBuckets adds up cards.{colour}.{"0-15", "16-30", ...}.total
func sumCardBuckets(stats any, colour string) int {
	v, ok := lookup(stats, "cards", colour)
	if !ok {
		return 0
	}
	if n, err := util.GetAsInteger(v); err == nil {
		return n
	}
	buckets, ok := v.(map[string]any)
	if !ok {
		return 0
	}
	total := 0
	for _, b := range buckets {
		total += intOr(0, b, "total")
	}
	return total
}

// leaguePosition reads league.position, then league.standings. The
// statistics endpoint reports standings as a coverage boolean, which is not
// a position and is ignored
func leaguePosition(stats any) int {
	for _, key := range []string{"position", "standings", "rank"} {
		v, ok := lookup(stats, "league", key)
		if !ok {
			continue
		}
		if _, isBool := v.(bool); isBool {
			continue
		}
		if n, err := util.GetAsInteger(v); err == nil && n > 0 {
			return n
		}
	}
	return DefaultLeaguePosition
}

// ParseFixtures converts a fixtures response into Fixtures, in upstream
// order. Records with missing fields are kept with "N/A" names, a zero date
// or a zero id rather than dropped
func ParseFixtures(body map[string]any, leagueID int, season string) []Fixture {
	var out []Fixture
	for _, r := range listAt(body, "response") {
		f := Fixture{
			ID:           intOr(0, r, "fixture", "id"),
			HomeTeamName: stringAt(r, MarkerNA, "teams", "home", "name"),
			AwayTeamName: stringAt(r, MarkerNA, "teams", "away", "name"),
			LeagueID:     intOr(leagueID, r, "league", "id"),
			Season:       stringAt(r, season, "league", "season"),
		}
		if ds := stringAt(r, "", "fixture", "date"); ds != "" {
			if d, err := time.Parse(time.RFC3339, ds); err == nil {
				f.Date = d
			}
		}
		out = append(out, f)
	}
	return out
}

// ParseOdds reads data[0].odds[] from an odds response, one quote per
// bookmaker. An empty list means the upstream had no odds for the fixture
func ParseOdds(body map[string]any) []OddsQuote {
	var out []OddsQuote
	for _, o := range listAt(body, "data", "0", "odds") {
		out = append(out, OddsQuote{
			Bookmaker: stringAt(o, MarkerNA, "bookmaker"),
			Home:      priceAt(o, "home_win"),
			Draw:      priceAt(o, "draw"),
			Away:      priceAt(o, "away_win"),
		})
	}
	return out
}
