// Package query is the read-side facade consumed by the API layer: bars,
// snapshots, and signal evaluation. All operations are request-scoped reads
// over the durable stores the ingestion pipeline writes.
package query

import (
	"context"
	"fmt"
	"time"

	"stockfeed/internal/bars"
	"stockfeed/internal/market"
	"stockfeed/internal/signals"
)

const (
	defaultBarLimit = 500
	maxBarLimit     = 5000

	defaultMaxResults = 20
	maxMaxResults     = 200
)

// SnapshotReader reads the latest-known state per symbol. A symbol that has
// never ticked returns (nil, nil).
type SnapshotReader interface {
	Snapshot(ctx context.Context, symbol string) (*market.Snapshot, error)
}

type Service struct {
	bars  *bars.Aggregator
	snaps SnapshotReader
	sigs  *signals.Evaluator
}

func NewService(agg *bars.Aggregator, snaps SnapshotReader, sigs *signals.Evaluator) *Service {
	return &Service{bars: agg, snaps: snaps, sigs: sigs}
}

// GetBars validates the request and returns at most limit bars ascending.
// Unknown timeframes and out-of-range limits are rejected, not defaulted.
func (s *Service) GetBars(ctx context.Context, symbol, timeframe string, start, end *time.Time, limit int) ([]market.Bar, error) {
	tf, err := bars.ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		limit = defaultBarLimit
	}
	if limit < 0 || limit > maxBarLimit {
		return nil, fmt.Errorf("limit out of range [1,%d]: %d", maxBarLimit, limit)
	}
	return s.bars.GetBars(ctx, symbol, tf, start, end, limit)
}

// GetSnapshot returns one entry per requested symbol, in request order.
// Symbols without a snapshot come back zero-valued so the caller can tell
// "never ticked" from "omitted".
func (s *Service) GetSnapshot(ctx context.Context, symbols []string) ([]market.Snapshot, error) {
	out := make([]market.Snapshot, 0, len(symbols))
	for _, symbol := range symbols {
		snap, err := s.snaps.Snapshot(ctx, symbol)
		if err != nil {
			return nil, err
		}
		if snap == nil {
			out = append(out, market.Snapshot{Symbol: symbol})
			continue
		}
		out = append(out, *snap)
	}
	return out, nil
}

// EvaluateSignals validates the rule and timeframe, then runs the rule over
// the universe. Results come back sorted by score descending, truncated to
// maxResults.
func (s *Service) EvaluateSignals(ctx context.Context, rule, timeframe string, universe []string, maxResults int, params signals.Params) ([]market.Signal, error) {
	r, err := signals.ParseRule(rule)
	if err != nil {
		return nil, err
	}
	tf, err := bars.ParseTimeframe(timeframe)
	if err != nil {
		return nil, err
	}
	if maxResults == 0 {
		maxResults = defaultMaxResults
	}
	if maxResults < 0 || maxResults > maxMaxResults {
		return nil, fmt.Errorf("max_results out of range [1,%d]: %d", maxMaxResults, maxResults)
	}
	return s.sigs.Evaluate(ctx, r, tf, universe, maxResults, params)
}
