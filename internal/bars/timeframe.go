package bars

import (
	"fmt"
	"time"
)

// Timeframe is the bucket-width enumeration used for bar aggregation
type Timeframe string

// TimeframeMeta holds the exact bucket width for a Timeframe
type TimeframeMeta struct {
	Width time.Duration
}

const (
	Timeframe1s  Timeframe = "1s"
	Timeframe1m  Timeframe = "1m"
	Timeframe5m  Timeframe = "5m"
	Timeframe15m Timeframe = "15m"
	Timeframe1h  Timeframe = "1h"
	Timeframe1d  Timeframe = "1d"
)

// validTimeframes maps each Timeframe to its bucket width
var validTimeframes = map[Timeframe]TimeframeMeta{
	Timeframe1s:  {Width: time.Second},
	Timeframe1m:  {Width: time.Minute},
	Timeframe5m:  {Width: 5 * time.Minute},
	Timeframe15m: {Width: 15 * time.Minute},
	Timeframe1h:  {Width: time.Hour},
	Timeframe1d:  {Width: 24 * time.Hour},
}

// timeframeAliases accepts the spellings older feed clients used for the same
// timeframe (e.g. "1min" for "1m").
var timeframeAliases = map[string]Timeframe{
	"1sec":    Timeframe1s,
	"1second": Timeframe1s,
	"1min":    Timeframe1m,
	"1minute": Timeframe1m,
	"1hr":     Timeframe1h,
	"1day":    Timeframe1d,
}

// IsValid checks if the Timeframe is a valid predefined timeframe
func (t Timeframe) IsValid() bool {
	_, ok := validTimeframes[t]
	return ok
}

// Width returns the bucket width for a valid Timeframe, 0 otherwise.
func (t Timeframe) Width() time.Duration {
	return validTimeframes[t].Width
}

// ParseTimeframe parses a string into a valid Timeframe. Unknown values are
// rejected rather than defaulted.
func ParseTimeframe(s string) (Timeframe, error) {
	tf := Timeframe(s)
	if tf.IsValid() {
		return tf, nil
	}
	if alias, ok := timeframeAliases[s]; ok {
		return alias, nil
	}
	return "", fmt.Errorf("invalid timeframe: %q", s)
}
