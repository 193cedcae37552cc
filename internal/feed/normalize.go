package feed

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"stockfeed/internal/market"
)

// ErrNoSymbol is returned when a message carries no instrument identity under
// any accepted alias. Such a tick is useless and must be discarded.
var ErrNoSymbol = errors.New("tick has no symbol")

// Field aliases across feed protocol revisions, in resolution order. The
// first present key wins.
var (
	symbolKeys = []string{"securityId", "symbol", "token"}
	tsKeys     = []string{"timestamp", "ts"}
	ltpKeys    = []string{"lastTradedPrice", "ltp", "last_price"}
	bidKeys    = []string{"bestBidPrice", "bid"}
	askKeys    = []string{"bestAskPrice", "ask"}
	volKeys    = []string{"volumeTraded", "volume", "vol"}
)

// ParseTick converts one raw inbound message into a canonical Tick. It is a
// pure function of the message and the supplied ingestion time: no I/O, no
// clock reads, so it stays unit-testable without a live connection.
//
// The payload may sit under a "data" wrapper or at the top level. A missing
// symbol discards the message; a missing timestamp falls back to now; missing
// or null price/volume fields become 0 instead of failing the message.
func ParseTick(raw []byte, now time.Time) (*market.Tick, error) {
	var pkt map[string]any
	if err := json.Unmarshal(raw, &pkt); err != nil {
		return nil, err
	}

	payload := pkt
	if inner, ok := pkt["data"].(map[string]any); ok {
		payload = inner
	}

	symbol := asString(firstValue(payload, symbolKeys))
	if symbol == "" {
		return nil, ErrNoSymbol
	}

	ts := asTime(firstValue(payload, tsKeys), now)

	return &market.Tick{
		Symbol: symbol,
		TS:     ts,
		LTP:    asFloat(firstValue(payload, ltpKeys)),
		Bid:    asFloat(firstValue(payload, bidKeys)),
		Ask:    asFloat(firstValue(payload, askKeys)),
		Vol:    int64(asFloat(firstValue(payload, volKeys))),
	}, nil
}

// firstValue returns the first non-nil value among the candidate keys.
func firstValue(m map[string]any, keys []string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case float64:
		// numeric security ids arrive as JSON numbers
		return strconv.FormatFloat(s, 'f', -1, 64)
	default:
		return ""
	}
}

func asFloat(v any) float64 {
	switch f := v.(type) {
	case float64:
		return f
	case string:
		parsed, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return 0
		}
		return parsed
	default:
		return 0
	}
}

// asTime accepts RFC 3339 strings and epoch numbers (milliseconds, or seconds
// for small magnitudes), falling back to the ingestion time.
func asTime(v any, fallback time.Time) time.Time {
	switch t := v.(type) {
	case string:
		if parsed, err := time.Parse(time.RFC3339Nano, t); err == nil {
			return parsed
		}
	case float64:
		if t > 1e11 {
			return time.UnixMilli(int64(t)).UTC()
		}
		if t > 0 {
			return time.Unix(int64(t), 0).UTC()
		}
	}
	return fallback
}
