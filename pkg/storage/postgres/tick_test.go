package postgres_test

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"stockfeed/internal/market"
	"stockfeed/pkg/storage/postgres"
)

// Round-trip against a live database. Set STOCKFEED_TEST_DSN to run, e.g.:
// STOCKFEED_TEST_DSN="host=localhost port=5432 user=postgres password=yourpw dbname=stockfeed_test sslmode=disable" go test -v --run TestTickLogRoundTrip
func TestTickLogRoundTrip(t *testing.T) {
	dsn := os.Getenv("STOCKFEED_TEST_DSN")
	if dsn == "" {
		t.Skip("STOCKFEED_TEST_DSN not set")
	}

	client, err := postgres.NewClient(dsn)
	if err != nil {
		t.Fatalf("failed to connect to DB: %v", err)
	}
	defer client.Close()

	ctx := context.Background()

	if err := client.AutoMigrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	base := time.Now().UTC().Truncate(time.Second)
	symbol := "ROUNDTRIP_" + base.Format("150405")

	ticks := []market.Tick{
		{Symbol: symbol, TS: base, LTP: 100, Bid: 99.5, Ask: 100.5, Vol: 10},
		{Symbol: symbol, TS: base.Add(time.Second), LTP: 101, Bid: 100.5, Ask: 101.5, Vol: 20},
		{Symbol: symbol, TS: base, LTP: 99, Bid: 98.5, Ask: 99.5, Vol: 30}, // same ts as first
	}
	for _, tick := range ticks {
		if err := client.AppendTick(ctx, tick); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	got, err := client.TicksBetween(ctx, symbol, nil, nil)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d ticks, want 3", len(got))
	}

	// ts ascending, serial id breaking the tie in arrival order
	if got[0].LTP != 100 || got[1].LTP != 99 || got[2].LTP != 101 {
		t.Errorf("unexpected order: %+v", got)
	}
}

// go test -v --run TestGetTokenMissingRow
func TestGetTokenMissingRow(t *testing.T) {
	dsn := os.Getenv("STOCKFEED_TEST_DSN")
	if dsn == "" {
		t.Skip("STOCKFEED_TEST_DSN not set")
	}

	client, err := postgres.NewClient(dsn)
	if err != nil {
		t.Fatalf("failed to connect to DB: %v", err)
	}
	defer client.Close()

	if err := client.AutoMigrate(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}

	_, err = client.GetToken(context.Background(), "no-such-broker")
	if !errors.Is(err, postgres.ErrNoToken) {
		t.Fatalf("got %v, want ErrNoToken", err)
	}
}
