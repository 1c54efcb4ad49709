package util

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func probabilityChart() *BarChart {
	return NewBarChart("Outcome probabilities", "Probability", 1.0,
		Bar{Label: "Home", Value: 0.5, Colour: "blue"},
		Bar{Label: "Draw", Value: 0.25, Colour: "gray"},
		Bar{Label: "Away", Value: 0.25, Colour: "red"},
	)
}

func TestBarChartToSVG(t *testing.T) {
	svg := probabilityChart().ToSVG()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(svg))
	require.NoError(t, err)

	rects := doc.Find("rect")
	require.Equal(t, 3, rects.Length())

	fills := []string{}
	rects.Each(func(i int, s *goquery.Selection) {
		fill, _ := s.Attr("fill")
		fills = append(fills, fill)
	})
	assert.Equal(t, []string{"blue", "gray", "red"}, fills)

	// home bar is twice the height of the draw bar
	hHome, _ := rects.Eq(0).Attr("height")
	hDraw, _ := rects.Eq(1).Attr("height")
	assert.Equal(t, "123.0", hHome)
	assert.Equal(t, "61.5", hDraw)
	assert.Contains(t, svg, "Outcome probabilities")
}

func TestBarChartClampsValues(t *testing.T) {
	c := NewBarChart("", "", 1.0, Bar{Label: "over", Value: 3}, Bar{Label: "under", Value: -1})
	assert.Equal(t, 1.0, c.scaled(3))
	assert.Equal(t, 0.0, c.scaled(-1))
	// default colour
	assert.Contains(t, c.ToSVG(), `fill="gray"`)
}

func TestBarChartToText(t *testing.T) {
	text := probabilityChart().ToText(20)
	lines := strings.Split(strings.TrimRight(text, "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Outcome probabilities", lines[0])
	assert.Equal(t, "Home | ########## 0.50", lines[1])
	assert.Equal(t, "Draw | ##### 0.25", lines[2])
}

func TestBarChartToSVGFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.svg")
	require.NoError(t, probabilityChart().ToSVGFile(path))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "<svg"))
}
