package signals

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	"stockfeed/internal/bars"
	"stockfeed/internal/market"
)

var barBase = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)

// fakeBarSource serves canned ascending bar history per symbol.
type fakeBarSource struct {
	histories map[string][]market.Bar
	errs      map[string]error
}

func (f *fakeBarSource) RecentBars(_ context.Context, symbol string, _ bars.Timeframe, limit int) ([]market.Bar, error) {
	if err := f.errs[symbol]; err != nil {
		return nil, err
	}
	h := f.histories[symbol]
	if limit > 0 && len(h) > limit {
		h = h[len(h)-limit:]
	}
	return h, nil
}

// makeBars builds a bar series from parallel close/low slices.
func makeBars(symbol string, closes, lows []float64) []market.Bar {
	out := make([]market.Bar, len(closes))
	for i := range closes {
		out[i] = market.Bar{
			Symbol:    symbol,
			Timeframe: "1m",
			Start:     barBase.Add(time.Duration(i) * time.Minute),
			Close:     closes[i],
			Low:       lows[i],
		}
	}
	return out
}

func newTestEvaluator(src BarSource) *Evaluator {
	return NewEvaluator(src, zap.NewNop())
}

// go test -v --run TestBreakdownHit
func TestBreakdownHit(t *testing.T) {
	// lows window (excluding latest) = [10,9,8,7]
	lows := []float64{12, 10, 9, 8, 7, 5}
	closes := []float64{12, 11, 10, 9, 8, 6} // latest close 6 < 7

	src := &fakeBarSource{histories: map[string][]market.Bar{
		"RELIANCE": makeBars("RELIANCE", closes, lows),
	}}

	got, err := newTestEvaluator(src).Evaluate(context.Background(),
		RuleBreakdown, bars.Timeframe1m, []string{"RELIANCE"}, 20, Params{Lookback: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d signals, want 1", len(got))
	}
	if got[0].Score != 0.6 {
		t.Errorf("score: got %v, want 0.6", got[0].Score)
	}
	if got[0].Meta["rolling_low"] != 7.0 {
		t.Errorf("rolling_low: got %v, want 7", got[0].Meta["rolling_low"])
	}
}

// go test -v --run TestBreakdownNoHit
func TestBreakdownNoHit(t *testing.T) {
	lows := []float64{12, 10, 9, 8, 7, 8}
	closes := []float64{12, 11, 10, 9, 8, 9} // latest close 9 >= 7

	src := &fakeBarSource{histories: map[string][]market.Bar{
		"RELIANCE": makeBars("RELIANCE", closes, lows),
	}}

	got, err := newTestEvaluator(src).Evaluate(context.Background(),
		RuleBreakdown, bars.Timeframe1m, []string{"RELIANCE"}, 20, Params{Lookback: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d signals, want none", len(got))
	}
}

// go test -v --run TestMAFlipDownCross
func TestMAFlipDownCross(t *testing.T) {
	// fast SMA(3) >= slow SMA(5) at the prior bar, < at the latest bar
	closes := []float64{10, 10, 10, 10, 10, 10, 1}
	lows := make([]float64, len(closes))

	src := &fakeBarSource{histories: map[string][]market.Bar{
		"TCS": makeBars("TCS", closes, lows),
	}}

	p := Params{Fast: 3, Slow: 5}
	got, err := newTestEvaluator(src).Evaluate(context.Background(),
		RuleMAFlipDown, bars.Timeframe1m, []string{"TCS"}, 20, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d signals, want 1", len(got))
	}
	if got[0].Score != 0.65 {
		t.Errorf("score: got %v, want 0.65", got[0].Score)
	}

	// one bar earlier there is no cross yet
	src.histories["TCS"] = makeBars("TCS", closes[:len(closes)-1], lows[:len(lows)-1])
	got, err = newTestEvaluator(src).Evaluate(context.Background(),
		RuleMAFlipDown, bars.Timeframe1m, []string{"TCS"}, 20, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("cross fired before bar k: %d signals", len(got))
	}
}

// go test -v --run TestStructureBreak
func TestStructureBreak(t *testing.T) {
	// pivot window of 3 lows before latest = [20,19,18]; latest close 17
	lows := []float64{25, 20, 19, 18, 10}
	closes := []float64{25, 24, 23, 22, 17}

	src := &fakeBarSource{histories: map[string][]market.Bar{
		"SBIN": makeBars("SBIN", closes, lows),
	}}

	got, err := newTestEvaluator(src).Evaluate(context.Background(),
		RuleStructureBreak, bars.Timeframe1m, []string{"SBIN"}, 20, Params{Pivot: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d signals, want 1", len(got))
	}
	if got[0].Score != 0.55 {
		t.Errorf("score: got %v, want 0.55", got[0].Score)
	}
}

// go test -v --run TestInsufficientHistorySkipped
func TestInsufficientHistorySkipped(t *testing.T) {
	src := &fakeBarSource{histories: map[string][]market.Bar{
		"THIN": makeBars("THIN", []float64{1, 2}, []float64{1, 2}),
	}}

	got, err := newTestEvaluator(src).Evaluate(context.Background(),
		RuleBreakdown, bars.Timeframe1m, []string{"THIN"}, 20, Params{Lookback: 4})
	if err != nil {
		t.Fatalf("insufficient history must not error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("got %d signals, want none", len(got))
	}
}

// go test -v --run TestFetchErrorSkipsSymbol
func TestFetchErrorSkipsSymbol(t *testing.T) {
	lows := []float64{12, 10, 9, 8, 7, 5}
	closes := []float64{12, 11, 10, 9, 8, 6}

	src := &fakeBarSource{
		histories: map[string][]market.Bar{
			"GOOD": makeBars("GOOD", closes, lows),
		},
		errs: map[string]error{"BAD": fmt.Errorf("store down")},
	}

	got, err := newTestEvaluator(src).Evaluate(context.Background(),
		RuleBreakdown, bars.Timeframe1m, []string{"BAD", "GOOD"}, 20, Params{Lookback: 4})
	if err != nil {
		t.Fatalf("one failed symbol must not abort the scan: %v", err)
	}
	if len(got) != 1 || got[0].Symbol != "GOOD" {
		t.Fatalf("unexpected signals: %+v", got)
	}
}

// go test -v --run TestMaxResultsTruncation
func TestMaxResultsTruncation(t *testing.T) {
	lows := []float64{12, 10, 9, 8, 7, 5}
	closes := []float64{12, 11, 10, 9, 8, 6}

	histories := make(map[string][]market.Bar)
	var universe []string
	for i := 0; i < 5; i++ {
		sym := fmt.Sprintf("SYM%d", i)
		histories[sym] = makeBars(sym, closes, lows)
		universe = append(universe, sym)
	}
	src := &fakeBarSource{histories: histories}

	got, err := newTestEvaluator(src).Evaluate(context.Background(),
		RuleBreakdown, bars.Timeframe1m, universe, 2, Params{Lookback: 4})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d signals, want 2", len(got))
	}
	// equal scores keep evaluation order
	if got[0].Symbol != "SYM0" || got[1].Symbol != "SYM1" {
		t.Errorf("tie-break order broken: %s, %s", got[0].Symbol, got[1].Symbol)
	}
}

// go test -v --run TestParseRule
func TestParseRule(t *testing.T) {
	for _, s := range []string{"breakdown", "ma_flip_down", "structure_break"} {
		if _, err := ParseRule(s); err != nil {
			t.Errorf("%q: unexpected error: %v", s, err)
		}
	}
	if _, err := ParseRule("moon_phase"); err == nil {
		t.Error("unknown rule must be rejected")
	}
}
