package chart

import (
	"math"
	"strconv"
	"strings"
)

// DateLayout is the calendar date shown on X ticks and tooltips.
const DateLayout = "1/2/2006"

var abbreviations = []string{"", "k", "m", "b", "t"}

// FormatNumber abbreviates n with at most two decimals ("1.2k", "3.45m", "80").
// Values that round up to 1000 of a unit move to the next unit.
func FormatNumber(n float64) string {
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return "--"
	}

	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	unit := 0
	for n >= 1000 && unit < len(abbreviations)-1 {
		n /= 1000
		unit++
	}
	n = round2(n)
	if n >= 1000 && unit < len(abbreviations)-1 {
		n = round2(n / 1000)
		unit++
	}
	if n == 0 {
		sign = ""
	}

	s := strconv.FormatFloat(n, 'f', 2, 64)
	s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
	return sign + s + abbreviations[unit]
}

// FormatCurrency is FormatNumber with a dollar prefix.
func FormatCurrency(n float64) string {
	return "$" + FormatNumber(n)
}

// FormatDate renders a label as a calendar date. Labels that are not
// dates are returned unchanged.
func FormatDate(l Label) string {
	t, ok := l.Time()
	if !ok {
		return l.String()
	}
	return t.Format(DateLayout)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
