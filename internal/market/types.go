package market

import "time"

// Tick represents a single normalized price update received from the feed.
// Ticks are append-only; one record is kept per received message.
type Tick struct {
	Symbol string    `json:"symbol"` // Canonical instrument id (e.g., security id from the broker)
	TS     time.Time `json:"ts"`     // Event timestamp, or ingestion time when the feed omits one
	LTP    float64   `json:"ltp"`    // Last traded price
	Bid    float64   `json:"bid"`    // Best bid price
	Ask    float64   `json:"ask"`    // Best ask price
	Vol    int64     `json:"vol"`    // Cumulative traded volume as reported by the feed
}

// Snapshot is the latest-known tick state for one symbol, overwritten in place
// on every tick (last-write-wins).
type Snapshot struct {
	Symbol string    `json:"symbol"`
	TS     time.Time `json:"ts"`
	LTP    float64   `json:"ltp"`
	Bid    float64   `json:"bid"`
	Ask    float64   `json:"ask"`
}

// Bar is an OHLC aggregate over one fixed-width time bucket. Bars are derived
// from the tick log on read and never stored.
//
// Volume is always 0: true per-bucket volume needs differencing of the feed's
// cumulative counter between the first and last tick of the bucket, which this
// pipeline does not attempt.
type Bar struct {
	Symbol    string    `json:"symbol"`
	Timeframe string    `json:"tf"`
	Start     time.Time `json:"ts"` // Bucket start; ticks fall in [Start, Start+width)
	Open      float64   `json:"o"`
	High      float64   `json:"h"`
	Low       float64   `json:"l"`
	Close     float64   `json:"c"`
	Volume    int64     `json:"v"`
}

// Signal is one rule hit for a symbol, computed per query and never persisted.
// Score is always in [0,1]; a score of 0 means no hit.
type Signal struct {
	Rule   string         `json:"rule"`
	Symbol string         `json:"symbol"`
	TS     time.Time      `json:"ts"`
	Score  float64        `json:"score"`
	Meta   map[string]any `json:"meta,omitempty"`
}
