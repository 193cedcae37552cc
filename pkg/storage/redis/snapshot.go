package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"stockfeed/internal/market"
)

const keyPrefix = "snap:"

// SnapshotStore keeps the latest-known tick state per symbol as a Redis hash
// under "snap:<symbol>". Each upsert replaces the hash fields wholesale, so
// the row always reflects the most recently processed tick for that symbol.
type SnapshotStore struct {
	client *goredis.Client
}

func NewSnapshotStore(client *goredis.Client) *SnapshotStore {
	return &SnapshotStore{client: client}
}

// UpsertSnapshot overwrites the symbol's hash with the tick's fields.
// Last-write-wins; the hash atomicity of HSET is the only guarantee relied on.
func (s *SnapshotStore) UpsertSnapshot(ctx context.Context, snap market.Snapshot) error {
	key := keyPrefix + snap.Symbol
	err := s.client.HSet(ctx, key, map[string]any{
		"ts":  snap.TS.UTC().Format(time.RFC3339Nano),
		"ltp": formatPrice(snap.LTP),
		"bid": formatPrice(snap.Bid),
		"ask": formatPrice(snap.Ask),
	}).Err()
	if err != nil {
		return fmt.Errorf("upsert snapshot for %s: %w", snap.Symbol, err)
	}
	return nil
}

// Snapshot reads the symbol's latest state. A symbol that has never ticked
// returns (nil, nil).
func (s *SnapshotStore) Snapshot(ctx context.Context, symbol string) (*market.Snapshot, error) {
	fields, err := s.client.HGetAll(ctx, keyPrefix+symbol).Result()
	if err != nil {
		return nil, fmt.Errorf("read snapshot for %s: %w", symbol, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}

	snap := &market.Snapshot{Symbol: symbol}
	if ts, err := time.Parse(time.RFC3339Nano, fields["ts"]); err == nil {
		snap.TS = ts
	}
	snap.LTP = parsePrice(fields["ltp"])
	snap.Bid = parsePrice(fields["bid"])
	snap.Ask = parsePrice(fields["ask"])
	return snap, nil
}

func (s *SnapshotStore) IsHealthy(ctx context.Context) bool {
	return s.client.Ping(ctx).Err() == nil
}

func formatPrice(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func parsePrice(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
