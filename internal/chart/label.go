package chart

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Label is the X value of a point: a unix millisecond timestamp or free text.
// JSON accepts either a number or a string.
type Label struct {
	ms     int64
	text   string
	isTime bool
}

// TimeLabel returns a timestamp label.
func TimeLabel(ms int64) Label {
	return Label{ms: ms, isTime: true}
}

// TextLabel returns a text label.
func TextLabel(s string) Label {
	return Label{text: s}
}

// Time returns the label as a UTC time. Text labels in RFC3339 or
// 2006-01-02 form are parsed, anything else reports false.
func (l Label) Time() (time.Time, bool) {
	if l.isTime {
		return time.UnixMilli(l.ms).UTC(), true
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, l.text); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func (l Label) String() string {
	if l.isTime {
		return strconv.FormatInt(l.ms, 10)
	}
	return l.text
}

// MarshalJSON implements json.Marshaler.
func (l Label) MarshalJSON() ([]byte, error) {
	if l.isTime {
		return []byte(strconv.FormatInt(l.ms, 10)), nil
	}
	return json.Marshal(l.text)
}

// UnmarshalJSON implements json.Unmarshaler.
func (l *Label) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*l = TextLabel(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("label must be a number or a string: %w", err)
	}
	if ms, err := n.Int64(); err == nil {
		*l = TimeLabel(ms)
		return nil
	}
	// Exponent forms like 1e3 land here. float64(math.MaxInt64) rounds up
	// to 2^63, so the upper bound is exclusive.
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return fmt.Errorf("invalid timestamp %s", n)
	}
	*l = TimeLabel(int64(f))
	return nil
}
