package util

import (
	"fmt"
	"html"
	"math"
	"os"
	"strings"
)

///////////////////////////////////////////////////////////////////////////////
/// BarChart
///////////////////////////////////////////////////////////////////////////////

// Bar is a single labelled column of a BarChart
type Bar struct {
	Label  string  `json:"label"`
	Value  float64 `json:"value"`
	Colour string  `json:"colour"`
}

// BarChart is a minimal vertical bar chart that renders to SVG or plain text.
// Values are expected to be in the range [0, Max]
type BarChart struct {
	Title  string  `json:"title,omitempty"`
	YLabel string  `json:"yLabel,omitempty"`
	Max    float64 `json:"max"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
	Bars   []Bar   `json:"bars"`
}

const (
	chartMargin    = 40
	chartTitleArea = 30
	chartLabelArea = 24
)

// NewBarChart creates a 400x300 chart with the given y axis maximum
func NewBarChart(title, yLabel string, max float64, bars ...Bar) *BarChart {
	if max <= 0 {
		max = 1.0
	}
	return &BarChart{
		Title:  title,
		YLabel: yLabel,
		Max:    max,
		Width:  400,
		Height: 300,
		Bars:   bars,
	}
}

// scaled clamps a bar value into [0, Max] and returns it as a fraction of Max
func (c *BarChart) scaled(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > c.Max {
		return 1
	}
	return v / c.Max
}

// ToSVG renders the chart as a standalone SVG document
func (c *BarChart) ToSVG() string {
	var b strings.Builder
	fmt.Fprintf(&b, `<svg width="%d" height="%d" viewBox="0 0 %d %d" xmlns="http://www.w3.org/2000/svg" version="1.1">`,
		c.Width, c.Height, c.Width, c.Height)
	b.WriteString("\n")

	plotTop := chartTitleArea
	plotBottom := c.Height - chartLabelArea
	plotHeight := plotBottom - plotTop
	plotLeft := chartMargin
	plotWidth := c.Width - 2*chartMargin

	if c.Title != "" {
		fmt.Fprintf(&b, `<text x="%d" y="20" text-anchor="middle" font-family="sans-serif" font-size="14">%s</text>`+"\n",
			c.Width/2, html.EscapeString(c.Title))
	}
	if c.YLabel != "" {
		fmt.Fprintf(&b, `<text x="12" y="%d" transform="rotate(-90 12 %d)" text-anchor="middle" font-family="sans-serif" font-size="12">%s</text>`+"\n",
			plotTop+plotHeight/2, plotTop+plotHeight/2, html.EscapeString(c.YLabel))
	}
	// axes
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black"/>`+"\n", plotLeft, plotTop, plotLeft, plotBottom)
	fmt.Fprintf(&b, `<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="black"/>`+"\n", plotLeft, plotBottom, plotLeft+plotWidth, plotBottom)

	if n := len(c.Bars); n > 0 {
		slot := float64(plotWidth) / float64(n)
		barWidth := slot * 0.6
		for i, bar := range c.Bars {
			h := c.scaled(bar.Value) * float64(plotHeight)
			x := float64(plotLeft) + slot*float64(i) + (slot-barWidth)/2
			y := float64(plotBottom) - h
			colour := bar.Colour
			if colour == "" {
				colour = "gray"
			}
			fmt.Fprintf(&b, `<rect id="bar_%d" x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"><title>%s %.2f</title></rect>`+"\n",
				i, x, y, barWidth, h, html.EscapeString(colour), html.EscapeString(bar.Label), bar.Value)
			fmt.Fprintf(&b, `<text x="%.1f" y="%d" text-anchor="middle" font-family="sans-serif" font-size="12">%s</text>`+"\n",
				x+barWidth/2, plotBottom+16, html.EscapeString(bar.Label))
			fmt.Fprintf(&b, `<text x="%.1f" y="%.1f" text-anchor="middle" font-family="sans-serif" font-size="11">%.2f</text>`+"\n",
				x+barWidth/2, y-4, bar.Value)
		}
	}
	b.WriteString("</svg>\n")
	return b.String()
}

// ToSVGFile writes the SVG rendering to filePath
func (c *BarChart) ToSVGFile(filePath string) error {
	return os.WriteFile(filePath, []byte(c.ToSVG()), 0644)
}

// ToText renders the chart as horizontal bars of '#' characters, width being the
// number of characters representing Max
func (c *BarChart) ToText(width int) string {
	if width <= 0 {
		width = 40
	}
	labelWidth := 0
	for _, bar := range c.Bars {
		labelWidth = max(labelWidth, len([]rune(bar.Label)))
	}

	var b strings.Builder
	if c.Title != "" {
		b.WriteString(c.Title)
		b.WriteString("\n")
	}
	for _, bar := range c.Bars {
		n := int(math.Round(c.scaled(bar.Value) * float64(width)))
		pad := strings.Repeat(" ", labelWidth-len([]rune(bar.Label)))
		fmt.Fprintf(&b, "%s%s | %s %.2f\n", bar.Label, pad, strings.Repeat("#", n), bar.Value)
	}
	return b.String()
}
