package bars

import (
	"context"
	"fmt"
	"sort"
	"time"

	"stockfeed/internal/market"
)

// TickSource is the read path over the tick log. Implementations must return
// ticks ordered by timestamp ascending, with ties broken by insertion order.
type TickSource interface {
	TicksBetween(ctx context.Context, symbol string, start, end *time.Time) ([]market.Tick, error)
}

// Aggregator computes OHLC bars for a symbol/timeframe window by bucketing the
// tick log on read. It holds no mutable state; every call is request-scoped.
type Aggregator struct {
	src TickSource
}

func NewAggregator(src TickSource) *Aggregator {
	return &Aggregator{src: src}
}

// GetBars returns at most limit bars for the symbol in ascending chronological
// order, selecting the most recent limit populated buckets that satisfy the
// optional start/end bounds. Buckets with no ticks are omitted entirely.
func (a *Aggregator) GetBars(ctx context.Context, symbol string, tf Timeframe, start, end *time.Time, limit int) ([]market.Bar, error) {
	if !tf.IsValid() {
		return nil, fmt.Errorf("invalid timeframe: %q", tf)
	}

	ticks, err := a.src.TicksBetween(ctx, symbol, start, end)
	if err != nil {
		return nil, fmt.Errorf("read ticks for %s: %w", symbol, err)
	}

	return aggregate(symbol, tf, ticks, limit), nil
}

// RecentBars returns the most recent limit bars without time bounds. It is the
// fetch path used by signal evaluation.
func (a *Aggregator) RecentBars(ctx context.Context, symbol string, tf Timeframe, limit int) ([]market.Bar, error) {
	return a.GetBars(ctx, symbol, tf, nil, nil, limit)
}

// aggregate buckets ticks by flooring each timestamp to the timeframe width.
// Within a bucket: open is the price of the earliest tick, close the price of
// the latest, high/low the extremes. When several ticks share the extreme
// timestamp the one encountered first in scan order wins, so open/close are
// deterministic for equal-timestamp ticks.
func aggregate(symbol string, tf Timeframe, ticks []market.Tick, limit int) []market.Bar {
	width := tf.Width()

	type bucket struct {
		bar     market.Bar
		firstTS time.Time
		lastTS  time.Time
	}

	// Keyed by bucket start in Unix nanoseconds: time.Time is not a safe map
	// key across locations.
	byStart := make(map[int64]*bucket)
	var order []int64

	for _, t := range ticks {
		start := t.TS.Truncate(width)
		key := start.UnixNano()

		b, ok := byStart[key]
		if !ok {
			b = &bucket{
				bar: market.Bar{
					Symbol:    symbol,
					Timeframe: string(tf),
					Start:     start,
					Open:      t.LTP,
					High:      t.LTP,
					Low:       t.LTP,
					Close:     t.LTP,
				},
				firstTS: t.TS,
				lastTS:  t.TS,
			}
			byStart[key] = b
			order = append(order, key)
			continue
		}

		if t.TS.Before(b.firstTS) {
			b.firstTS = t.TS
			b.bar.Open = t.LTP
		}
		// strictly-after keeps the first tick at the extreme timestamp
		if t.TS.After(b.lastTS) {
			b.lastTS = t.TS
			b.bar.Close = t.LTP
		}
		if t.LTP > b.bar.High {
			b.bar.High = t.LTP
		}
		if t.LTP < b.bar.Low {
			b.bar.Low = t.LTP
		}
	}

	// Ticks arrive in timestamp order, but a reconnect can replay older data,
	// so sort bucket starts before selecting the most recent ones.
	sort.Slice(order, func(i, j int) bool { return order[i] < order[j] })

	if limit > 0 && len(order) > limit {
		order = order[len(order)-limit:]
	}

	out := make([]market.Bar, 0, len(order))
	for _, key := range order {
		out = append(out, byStart[key].bar)
	}
	return out
}
