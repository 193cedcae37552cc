package signals

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"stockfeed/internal/bars"
	"stockfeed/internal/market"
)

// Rule identifies one entry of the fixed rule catalog.
type Rule string

const (
	RuleBreakdown      Rule = "breakdown"       // latest close under the rolling low of the lookback window
	RuleMAFlipDown     Rule = "ma_flip_down"    // fast SMA crossed below slow SMA on the latest bar
	RuleStructureBreak Rule = "structure_break" // latest close under the swing low of the pivot window
)

// Hit scores per rule. Scores are fixed; ranking differentiates rules, not
// symbols within a rule.
const (
	scoreBreakdown      = 0.6
	scoreMAFlipDown     = 0.65
	scoreStructureBreak = 0.55
)

// minFetch is the floor on bars fetched per symbol, so a freshly widened
// window still has history to work with.
const minFetch = 200

// ParseRule validates a rule id. Unknown ids are rejected rather than
// defaulted.
func ParseRule(s string) (Rule, error) {
	switch r := Rule(s); r {
	case RuleBreakdown, RuleMAFlipDown, RuleStructureBreak:
		return r, nil
	default:
		return "", fmt.Errorf("unknown rule: %q", s)
	}
}

// Params are the rule windows. Zero values are replaced with the documented
// defaults (lookback 20, fast 20, slow 50, pivot 5).
type Params struct {
	Lookback int `json:"lookback"`
	Fast     int `json:"fast"`
	Slow     int `json:"slow"`
	Pivot    int `json:"pivot"`
}

func (p Params) withDefaults() Params {
	if p.Lookback <= 0 {
		p.Lookback = 20
	}
	if p.Fast <= 0 {
		p.Fast = 20
	}
	if p.Slow <= 0 {
		p.Slow = 50
	}
	if p.Pivot <= 0 {
		p.Pivot = 5
	}
	return p
}

// required is the minimum bar count a symbol needs before the rule can be
// evaluated at all.
func (p Params) required(rule Rule) int {
	switch rule {
	case RuleBreakdown:
		return p.Lookback + 2
	case RuleMAFlipDown:
		return max(p.Fast, p.Slow) + 2
	case RuleStructureBreak:
		return p.Pivot + 2
	}
	return 0
}

// BarSource supplies recent bar history per symbol, most commonly the
// on-read aggregator over the tick log.
type BarSource interface {
	RecentBars(ctx context.Context, symbol string, tf bars.Timeframe, limit int) ([]market.Bar, error)
}

// Evaluator runs the rule catalog over aggregated bars. It is read-only and
// request-scoped; concurrent evaluations share no state.
type Evaluator struct {
	src    BarSource
	logger *zap.Logger
}

func NewEvaluator(src BarSource, logger *zap.Logger) *Evaluator {
	return &Evaluator{src: src, logger: logger}
}

// Evaluate runs one rule over the universe and returns hits sorted by score
// descending, truncated to maxResults. Symbols with insufficient history are
// skipped, not errored; a failed bar fetch for one symbol does not abort the
// scan.
func (e *Evaluator) Evaluate(ctx context.Context, rule Rule, tf bars.Timeframe, universe []string, maxResults int, params Params) ([]market.Signal, error) {
	if _, err := ParseRule(string(rule)); err != nil {
		return nil, err
	}
	if !tf.IsValid() {
		return nil, fmt.Errorf("invalid timeframe: %q", tf)
	}
	if maxResults <= 0 {
		maxResults = 20
	}

	p := params.withDefaults()
	need := p.required(rule)
	fetch := max(minFetch, need)

	var out []market.Signal
	for _, symbol := range universe {
		history, err := e.src.RecentBars(ctx, symbol, tf, fetch)
		if err != nil {
			e.logger.Warn("failed to fetch bars for signal scan",
				zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		if len(history) < need {
			continue
		}

		if sig, ok := evaluateOne(rule, symbol, history, p); ok {
			out = append(out, sig)
		}
	}

	// Stable: symbols with equal scores keep evaluation order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if len(out) > maxResults {
		out = out[:maxResults]
	}
	return out, nil
}

// evaluateOne applies one rule to a single symbol's ascending bar history.
func evaluateOne(rule Rule, symbol string, history []market.Bar, p Params) (market.Signal, bool) {
	closes := make([]float64, len(history))
	lows := make([]float64, len(history))
	for i, b := range history {
		closes[i] = b.Close
		lows[i] = b.Low
	}

	latest := history[len(history)-1]
	lastClose := closes[len(closes)-1]

	var (
		hit   bool
		score float64
		meta  map[string]any
	)

	switch rule {
	case RuleBreakdown:
		low, ok := windowMin(lows, p.Lookback)
		if !ok {
			return market.Signal{}, false
		}
		hit = lastClose < low
		score = scoreBreakdown
		meta = map[string]any{"rolling_low": low, "lookback": p.Lookback}

	case RuleMAFlipDown:
		fastNow, ok1 := sma(closes, p.Fast, len(closes))
		slowNow, ok2 := sma(closes, p.Slow, len(closes))
		fastPrev, ok3 := sma(closes, p.Fast, len(closes)-1)
		slowPrev, ok4 := sma(closes, p.Slow, len(closes)-1)
		if !(ok1 && ok2 && ok3 && ok4) {
			return market.Signal{}, false
		}
		hit = fastPrev >= slowPrev && fastNow < slowNow
		score = scoreMAFlipDown
		meta = map[string]any{"sma_fast": fastNow, "sma_slow": slowNow, "fast": p.Fast, "slow": p.Slow}

	case RuleStructureBreak:
		low, ok := windowMin(lows, p.Pivot)
		if !ok {
			return market.Signal{}, false
		}
		hit = lastClose < low
		score = scoreStructureBreak
		meta = map[string]any{"pivot_low": low, "pivot": p.Pivot}
	}

	if !hit {
		return market.Signal{}, false
	}
	return market.Signal{
		Rule:   string(rule),
		Symbol: symbol,
		TS:     latest.Start,
		Score:  score,
		Meta:   meta,
	}, true
}

// windowMin returns the minimum of the n values immediately preceding the
// latest one (the latest itself is excluded from the window).
func windowMin(vals []float64, n int) (float64, bool) {
	if len(vals) < n+1 {
		return 0, false
	}
	window := vals[len(vals)-n-1 : len(vals)-1]
	m := window[0]
	for _, v := range window[1:] {
		if v < m {
			m = v
		}
	}
	return m, true
}

// sma is the trailing simple moving average of the n values ending just
// before index end (exclusive).
func sma(vals []float64, n, end int) (float64, bool) {
	if end > len(vals) || end-n < 0 {
		return 0, false
	}
	var sum float64
	for _, v := range vals[end-n : end] {
		sum += v
	}
	return sum / float64(n), true
}
