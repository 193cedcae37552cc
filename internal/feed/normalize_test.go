package feed

import (
	"errors"
	"testing"
	"time"
)

var ingestTime = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

// go test -v --run TestParseTickFull
func TestParseTickFull(t *testing.T) {
	raw := []byte(`{"data":{"securityId":"RELIANCE","timestamp":"2025-03-14T09:29:59Z","lastTradedPrice":2811.5,"bestBidPrice":2811.4,"bestAskPrice":2811.6,"volumeTraded":120345}}`)

	tick, err := ParseTick(raw, ingestTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tick.Symbol != "RELIANCE" {
		t.Errorf("symbol: got %q", tick.Symbol)
	}
	if !tick.TS.Equal(time.Date(2025, 3, 14, 9, 29, 59, 0, time.UTC)) {
		t.Errorf("ts: got %v", tick.TS)
	}
	if tick.LTP != 2811.5 || tick.Bid != 2811.4 || tick.Ask != 2811.6 || tick.Vol != 120345 {
		t.Errorf("prices: got %+v", tick)
	}
}

// go test -v --run TestParseTickAliases
func TestParseTickAliases(t *testing.T) {
	// older protocol revision: flat payload, short names
	raw := []byte(`{"token":"TCS","ts":1741944599000,"ltp":"4102.2","bid":4102.1,"ask":4102.3,"vol":500}`)

	tick, err := ParseTick(raw, ingestTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tick.Symbol != "TCS" {
		t.Errorf("symbol: got %q", tick.Symbol)
	}
	if tick.TS.UnixMilli() != 1741944599000 {
		t.Errorf("ts: got %v", tick.TS)
	}
	if tick.LTP != 4102.2 {
		t.Errorf("ltp from string: got %v", tick.LTP)
	}
	if tick.Vol != 500 {
		t.Errorf("vol: got %d", tick.Vol)
	}
}

// go test -v --run TestParseTickMissingFieldsDefaultToZero
func TestParseTickMissingFieldsDefaultToZero(t *testing.T) {
	raw := []byte(`{"symbol":"INFY","ltp":1520.0}`)

	tick, err := ParseTick(raw, ingestTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tick.Bid != 0 || tick.Ask != 0 || tick.Vol != 0 {
		t.Errorf("missing fields should be zero: %+v", tick)
	}
	if !tick.TS.Equal(ingestTime) {
		t.Errorf("missing timestamp should fall back to ingestion time, got %v", tick.TS)
	}
}

// go test -v --run TestParseTickNullFields
func TestParseTickNullFields(t *testing.T) {
	raw := []byte(`{"securityId":"INFY","ltp":null,"bid":null,"vol":null}`)

	tick, err := ParseTick(raw, ingestTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tick.LTP != 0 || tick.Bid != 0 || tick.Vol != 0 {
		t.Errorf("null fields should be zero: %+v", tick)
	}
}

// go test -v --run TestParseTickNoSymbol
func TestParseTickNoSymbol(t *testing.T) {
	// subscription ack: no instrument identity anywhere
	raw := []byte(`{"status":"subscribed","count":100}`)

	if _, err := ParseTick(raw, ingestTime); !errors.Is(err, ErrNoSymbol) {
		t.Fatalf("got %v, want ErrNoSymbol", err)
	}
}

// go test -v --run TestParseTickNumericSecurityID
func TestParseTickNumericSecurityID(t *testing.T) {
	raw := []byte(`{"securityId":11536,"ltp":987.4}`)

	tick, err := ParseTick(raw, ingestTime)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tick.Symbol != "11536" {
		t.Errorf("numeric id: got %q", tick.Symbol)
	}
}

// go test -v --run TestParseTickInvalidJSON
func TestParseTickInvalidJSON(t *testing.T) {
	if _, err := ParseTick([]byte("not json"), ingestTime); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
