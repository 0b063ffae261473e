// Package chart builds the price chart view: cropped Y domain, date ticks
// and tooltip content, rendered through go-echarts.
package chart

import (
	"index-dashboard/internal/domain"
)

// MinTickGap is the minimum horizontal gap between X tick labels, in pixels.
const MinTickGap = 20

// PricePoint is one chart sample.
type PricePoint struct {
	X Label   `json:"x"`
	Y float64 `json:"y"`
}

// Icon is shown next to tooltip values.
type Icon struct {
	Src string `json:"src"`
	Alt string `json:"alt"`
}

// Config describes one chart render. A nil Data is an empty series.
type Config struct {
	Title string       `json:"title,omitempty"`
	Icon  Icon         `json:"icon"`
	Data  []PricePoint `json:"data"`
}

// Theme holds the colors the chart is drawn with.
type Theme struct {
	Primary    string `json:"primary"`
	Background string `json:"background"`
}

// DefaultTheme is used when the caller has no theme of its own.
var DefaultTheme = Theme{
	Primary:    "#a98bff",
	Background: "#f0e9e7",
}

// Domain is the Y axis range.
type Domain struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// neutralDomain is used for an empty series.
var neutralDomain = Domain{Min: 0, Max: 1}

// YDomain crops the Y axis 20% below the smallest and above the largest
// value, each bound rounded to two decimals.
func YDomain(points []PricePoint) Domain {
	if len(points) == 0 {
		return neutralDomain
	}

	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points[1:] {
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	return Domain{
		Min: round2(minY - minY/5),
		Max: round2(maxY + maxY/5),
	}
}

// TooltipContent is the (label, value) pair shown on hover.
type TooltipContent struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Placeholder is shown when no point is hovered.
var Placeholder = TooltipContent{Label: "--", Value: "No Data"}

// Tooltip returns the hover content for p, or Placeholder when p is nil.
func Tooltip(p *PricePoint) TooltipContent {
	if p == nil {
		return Placeholder
	}
	return TooltipContent{
		Label: FormatDate(p.X),
		Value: FormatCurrency(p.Y),
	}
}

// View is the render-ready chart.
type View struct {
	Title       string           `json:"title,omitempty"`
	Icon        Icon             `json:"icon"`
	Domain      Domain           `json:"domain"`
	DomainLabel [2]string        `json:"domain_label"`
	Ticks       []string         `json:"ticks"`
	Values      []float64        `json:"values"`
	Tooltips    []TooltipContent `json:"tooltips"`
	Placeholder TooltipContent   `json:"placeholder"`
	Stroke      string           `json:"stroke"`
	Background  string           `json:"background"`
	MinTickGap  int              `json:"min_tick_gap"`
}

// Build computes the view for cfg. Empty theme colors fall back to DefaultTheme.
func Build(cfg Config, theme Theme) *View {
	if theme.Primary == "" {
		theme.Primary = DefaultTheme.Primary
	}
	if theme.Background == "" {
		theme.Background = DefaultTheme.Background
	}

	d := YDomain(cfg.Data)
	v := &View{
		Title:       cfg.Title,
		Icon:        cfg.Icon,
		Domain:      d,
		DomainLabel: [2]string{FormatNumber(d.Min), FormatNumber(d.Max)},
		Ticks:       make([]string, len(cfg.Data)),
		Values:      make([]float64, len(cfg.Data)),
		Tooltips:    make([]TooltipContent, len(cfg.Data)),
		Placeholder: Placeholder,
		Stroke:      theme.Primary,
		Background:  theme.Background,
		MinTickGap:  MinTickGap,
	}

	for i := range cfg.Data {
		p := &cfg.Data[i]
		v.Ticks[i] = FormatDate(p.X)
		v.Values[i] = p.Y
		v.Tooltips[i] = Tooltip(p)
	}
	return v
}

// FromSeries converts stored points of one series into chart points.
func FromSeries(points []*domain.PricePoint) []PricePoint {
	out := make([]PricePoint, 0, len(points))
	for _, p := range points {
		if p == nil {
			continue
		}
		out = append(out, PricePoint{X: TimeLabel(p.TimestampMs), Y: p.Value})
	}
	return out
}
