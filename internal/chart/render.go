package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// Render dimensions.
const (
	renderWidth  = 900
	renderHeight = 400
	// approximate glyph width of a tick label, in pixels
	charWidth = 7
)

// yTickFormatter abbreviates Y ticks in the browser the same way FormatNumber does.
const yTickFormatter = `function (n) {
	var u = ['', 'k', 'm', 'b', 't'], a = Math.abs(n), i = 0;
	while (a >= 1000 && i < u.length - 1) { a /= 1000; i++; }
	a = Math.round(a * 100) / 100;
	if (a >= 1000 && i < u.length - 1) { a = Math.round(a / 10) / 100; i++; }
	return '$' + (n < 0 && a !== 0 ? '-' : '') + parseFloat(a.toFixed(2)) + u[i];
}`

// Render writes view as a standalone HTML line chart.
func Render(w io.Writer, view *View) error {
	if view == nil {
		return fmt.Errorf("render chart: nil view")
	}

	formatter, err := tooltipFormatter(view)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			PageTitle:       pageTitle(view),
			Width:           fmt.Sprintf("%dpx", renderWidth),
			Height:          fmt.Sprintf("%dpx", renderHeight),
			BackgroundColor: view.Background,
		}),
		charts.WithTitleOpts(opts.Title{Title: view.Title}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "axis",
			Formatter: opts.FuncOpts(formatter),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{Show: opts.Bool(true), Color: view.Stroke},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Min: view.Domain.Min,
			Max: view.Domain.Max,
			AxisLabel: &opts.AxisLabel{
				Show:      opts.Bool(true),
				Color:     view.Stroke,
				Formatter: opts.FuncOpts(yTickFormatter),
			},
		}),
	)

	data := make([]opts.LineData, len(view.Values))
	for i, y := range view.Values {
		data[i] = opts.LineData{Value: y, Name: view.Ticks[i]}
	}

	line.SetXAxis(thinTicks(view.Ticks, renderWidth, view.MinTickGap)).
		AddSeries("value", data).
		SetSeriesOptions(
			charts.WithLineChartOpts(opts.LineChart{
				Smooth:     opts.Bool(true),
				ShowSymbol: opts.Bool(false),
			}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: view.Stroke}),
		)

	return line.Render(w)
}

func pageTitle(view *View) string {
	if view.Title == "" {
		return "Price chart"
	}
	return view.Title
}

// tooltipFormatter embeds the precomputed tooltip pairs in a JS formatter
// indexed by the hovered point.
func tooltipFormatter(view *View) (string, error) {
	pairs := make([][2]string, len(view.Tooltips))
	for i, t := range view.Tooltips {
		pairs[i] = [2]string{html.EscapeString(t.Label), html.EscapeString(t.Value)}
	}
	tips, err := marshalJS(pairs)
	if err != nil {
		return "", err
	}
	box, err := marshalJS(fmt.Sprintf(
		`<div style="background:%s;padding:8px">%s`,
		html.EscapeString(view.Background), iconHTML(view.Icon)))
	if err != nil {
		return "", err
	}
	empty, err := marshalJS([2]string{
		html.EscapeString(view.Placeholder.Label), html.EscapeString(view.Placeholder.Value),
	})
	if err != nil {
		return "", err
	}

	return fmt.Sprintf(`function (params) {
	var tips = %s, empty = %s, box = %s;
	var p = (params && params.length) ? tips[params[0].dataIndex] : null;
	var t = p || empty;
	return box + '<div>' + t[0] + '</div><strong>' + t[1] + '</strong></div>';
}`, tips, empty, box), nil
}

// marshalJS encodes v as a JS literal. Markup is kept as-is, callers
// escape user text beforehand.
func marshalJS(v interface{}) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSpace(buf.String()), nil
}

func iconHTML(icon Icon) string {
	if icon.Src == "" {
		return ""
	}
	return fmt.Sprintf(`<img src="%s" alt="%s" height="24"/>`,
		html.EscapeString(icon.Src), html.EscapeString(icon.Alt))
}

// thinTicks blanks labels so that shown ticks are at least gap pixels apart
// on a chart width pixels wide.
func thinTicks(ticks []string, width, gap int) []string {
	out := make([]string, len(ticks))
	copy(out, ticks)
	if len(ticks) < 2 || width <= 0 {
		return out
	}

	widest := 0
	for _, t := range ticks {
		if len(t) > widest {
			widest = len(t)
		}
	}
	slot := float64(width) / float64(len(ticks))
	step := int(math.Ceil(float64(widest*charWidth+gap) / slot))
	if step <= 1 {
		return out
	}

	for i := range out {
		if i%step != 0 {
			out[i] = ""
		}
	}
	return out
}
