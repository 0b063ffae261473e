package chart

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{80, "80"},
		{240, "240"},
		{1.5, "1.5"},
		{0.125, "0.13"},
		{999.994, "999.99"},
		{999.999, "1k"},
		{1200, "1.2k"},
		{1234, "1.23k"},
		{3450000, "3.45m"},
		{999999, "1m"},
		{7.2e9, "7.2b"},
		{1.5e12, "1.5t"},
		{2.5e15, "2500t"},
		{-1200, "-1.2k"},
		{-0.001, "0"},
		{math.NaN(), "--"},
		{math.Inf(1), "--"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatNumber(tt.in), "FormatNumber(%v)", tt.in)
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "$1.2k", FormatCurrency(1200))
}

func TestFormatDate(t *testing.T) {
	assert.Equal(t, "9/13/2020", FormatDate(TimeLabel(1600000000000)))
	assert.Equal(t, "1/1/1970", FormatDate(TimeLabel(0)))
	assert.Equal(t, "9/14/2020", FormatDate(TextLabel("2020-09-14")))
	assert.Equal(t, "9/14/2020", FormatDate(TextLabel("2020-09-14T23:00:00Z")))
	assert.Equal(t, "Q3", FormatDate(TextLabel("Q3")))
}
