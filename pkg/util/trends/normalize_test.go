package trends

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// decode mirrors the transport, which decodes numbers as json.Number
func decode(t *testing.T, s string) map[string]any {
	t.Helper()
	var out map[string]any
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()
	require.NoError(t, dec.Decode(&out))
	return out
}

func TestLookup(t *testing.T) {
	body := decode(t, `{"a":{"b":[{"c":1},{"c":null}]}}`)

	v, ok := lookup(body, "a", "b", "0", "c")
	assert.True(t, ok)
	assert.Equal(t, json.Number("1"), v)

	_, ok = lookup(body, "a", "b", "1", "c")
	assert.False(t, ok, "null counts as absent")
	_, ok = lookup(body, "a", "b", "2")
	assert.False(t, ok)
	_, ok = lookup(body, "a", "b", "x")
	assert.False(t, ok)
	_, ok = lookup(body, "a", "missing")
	assert.False(t, ok)
	_, ok = lookup(body, "a", "b", "0", "c", "deeper")
	assert.False(t, ok)
}

func TestParseTeamStatistics(t *testing.T) {
	ts, err := ParseTeamStatistics(decode(t, `{"response":{
		"team":{"id":121,"name":"Palmeiras"},
		"league":{"position":1},
		"fixtures":{"played":{"total":38},"wins":{"total":"22"},"draws":{"total":10},"loses":{"total":6}},
		"goals":{"for":{"total":{"total":50}},"against":{"total":{"total":25}}},
		"cards":{"yellow":{"0-15":{"total":3},"16-30":{"total":null},"31-45":{}},"red":3}
	}}`))
	require.NoError(t, err)
	assert.Equal(t, TeamStats{
		TeamID: 121, Name: "Palmeiras", Played: 38, Wins: 22, Losses: 6, Draws: 10,
		GoalsFor: 50, GoalsAgainst: 25, YellowCards: 3, RedCards: 3, LeaguePosition: 1,
	}, ts)
}

func TestParseTeamStatisticsListResponse(t *testing.T) {
	ts, err := ParseTeamStatistics(decode(t, `{"response":[{
		"fixtures":{"played":{"total":1},"wins":{"total":1},"draws":{"total":0},"loses":{"total":0}},
		"goals":{"for":{"total":{"total":2}},"against":{"total":{"total":0}}}
	}]}`))
	require.NoError(t, err)
	assert.Equal(t, 1, ts.Played)
	assert.Equal(t, 0, ts.YellowCards)
}

func TestLeaguePositionDefaults(t *testing.T) {
	base := `"fixtures":{"played":{"total":38},"wins":{"total":20},"draws":{"total":10},"loses":{"total":8}},
		"goals":{"for":{"total":{"total":55}},"against":{"total":{"total":30}}}`

	tests := []struct {
		name   string
		league string
		want   int
	}{
		{"absent", `{}`, DefaultLeaguePosition},
		{"coverage boolean", `{"standings":true}`, DefaultLeaguePosition},
		{"false boolean", `{"standings":false}`, DefaultLeaguePosition},
		{"zero", `{"position":0}`, DefaultLeaguePosition},
		{"garbage", `{"position":"top"}`, DefaultLeaguePosition},
		{"numeric standings", `{"standings":4}`, 4},
		{"rank", `{"standings":true,"rank":"7"}`, 7},
		{"position wins", `{"position":2,"rank":9}`, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts, err := ParseTeamStatistics(decode(t, `{"response":{"league":`+tt.league+`,`+base+`}}`))
			require.NoError(t, err)
			assert.Equal(t, tt.want, ts.LeaguePosition)
		})
	}
}

func TestParseTeamStatisticsMissingFields(t *testing.T) {
	tests := map[string]string{
		"no response":   `{}`,
		"empty list":    `{"response":[]}`,
		"no goals":      `{"response":{"fixtures":{"played":{"total":38},"wins":{"total":20},"draws":{"total":10},"loses":{"total":8}}}}`,
		"null played":   `{"response":{"fixtures":{"played":{"total":null},"wins":{"total":20},"draws":{"total":10},"loses":{"total":8}},"goals":{"for":{"total":{"total":1}},"against":{"total":{"total":1}}}}}`,
		"fractional":    `{"response":{"fixtures":{"played":{"total":1.5},"wins":{"total":20},"draws":{"total":10},"loses":{"total":8}},"goals":{"for":{"total":{"total":1}},"against":{"total":{"total":1}}}}}`,
		"boolean count": `{"response":{"fixtures":{"played":{"total":true},"wins":{"total":20},"draws":{"total":10},"loses":{"total":8}},"goals":{"for":{"total":{"total":1}},"against":{"total":{"total":1}}}}}`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseTeamStatistics(decode(t, body))
			assert.ErrorIs(t, err, ErrUnavailable)
		})
	}
}

func TestParseTeamSearch(t *testing.T) {
	body := decode(t, `{"response":[
		{"team":{"id":1,"name":"Sao Paulo U20"}},
		{"team":{"id":126,"name":"Sao Paulo"}},
		{"team":{"id":3,"name":"Santos"}}
	]}`)
	id, name, err := ParseTeamSearch("são paulo", body)
	require.NoError(t, err)
	assert.Equal(t, 126, id)
	assert.Equal(t, "Sao Paulo", name)

	_, _, err = ParseTeamSearch("Nobody", decode(t, `{"response":[]}`))
	assert.ErrorIs(t, err, ErrTeamNotFound)
	_, _, err = ParseTeamSearch("Nobody", decode(t, `{"errors":{"token":"bad"}}`))
	assert.ErrorIs(t, err, ErrTeamNotFound)

	_, _, err = ParseTeamSearch("Santos", decode(t, `{"response":[{"team":{"name":"Santos"}}]}`))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestParseFixtures(t *testing.T) {
	fixtures := ParseFixtures(decode(t, `{"response":[
		{"fixture":{"id":10,"date":"2024-06-01T21:30:00-03:00"},"league":{"id":71,"season":2024},
		 "teams":{"home":{"name":"Flamengo"},"away":{"name":"Vasco"}}},
		{"fixture":{"date":"not a date"},"teams":{"home":{"name":"Bahia"}}},
		"garbage"
	]}`), 71, "2024")
	require.Len(t, fixtures, 3)

	assert.Equal(t, 10, fixtures[0].ID)
	assert.Equal(t, "Flamengo vs Vasco", fixtures[0].MatchLabel())
	assert.True(t, fixtures[0].Date.Equal(time.Date(2024, 6, 2, 0, 30, 0, 0, time.UTC)))
	assert.Equal(t, "2024", fixtures[0].Season)

	assert.Equal(t, 0, fixtures[1].ID)
	assert.Equal(t, "Bahia vs N/A", fixtures[1].MatchLabel())
	assert.True(t, fixtures[1].Date.IsZero())
	assert.Equal(t, 71, fixtures[1].LeagueID)

	assert.Equal(t, "N/A vs N/A", fixtures[2].MatchLabel())
	assert.Empty(t, ParseFixtures(decode(t, `{"response":[]}`), 71, "2024"))
}

func TestParseOdds(t *testing.T) {
	quotes := ParseOdds(decode(t, `{"data":[{"odds":[
		{"bookmaker":"Bet365","home_win":1.85,"draw":"3.40","away_win":4.2},
		{"bookmaker":"Betano","home_win":0,"draw":"-","away_win":null},
		{"home_win":2}
	]}]}`))
	require.Len(t, quotes, 3)

	assert.Equal(t, "Bet365: Home 1.85, Draw 3.40, Away 4.2", OddsLine(quotes[0]))
	assert.Equal(t, "Betano: Home N/A, Draw N/A, Away N/A", OddsLine(quotes[1]))
	assert.Equal(t, MarkerNA, quotes[2].Bookmaker)
	assert.True(t, quotes[2].Home.Valid)
	assert.True(t, quotes[0].Draw.Value.Equal(decimal.RequireFromString("3.4")))

	assert.Empty(t, ParseOdds(decode(t, `{"data":[]}`)))
	assert.Empty(t, ParseOdds(decode(t, `{}`)))
}
