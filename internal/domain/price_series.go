package domain

// PricePoint is one observation of a named price series.
// Corresponds to price_series table in ClickHouse.
type PricePoint struct {
	SeriesID    string  // series identifier, e.g. "dpi-usd"
	TimestampMs int64   // Unix timestamp in milliseconds
	Value       float64 // price in quote currency
}
