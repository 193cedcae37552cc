// Package memory provides in-memory implementations of the tick log and
// snapshot cache, used by tests and local runs without external stores.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"stockfeed/internal/market"
)

type TickStore struct {
	mu    sync.Mutex
	ticks []market.Tick
}

func NewTickStore() *TickStore {
	return &TickStore{}
}

func (m *TickStore) AppendTick(_ context.Context, t market.Tick) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ticks = append(m.ticks, t)
	return nil
}

// TicksBetween returns the symbol's ticks within the optional bounds in
// timestamp order, insertion order breaking ties — the same contract as the
// Postgres read path.
func (m *TickStore) TicksBetween(_ context.Context, symbol string, start, end *time.Time) ([]market.Tick, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []market.Tick
	for _, t := range m.ticks {
		if t.Symbol != symbol {
			continue
		}
		if start != nil && t.TS.Before(*start) {
			continue
		}
		if end != nil && t.TS.After(*end) {
			continue
		}
		out = append(out, t)
	}

	// Insertion order already matches (ts, arrival); a stable sort keeps
	// arrival order for equal timestamps even if ticks arrived out of order.
	sort.SliceStable(out, func(i, j int) bool { return out[i].TS.Before(out[j].TS) })
	return out, nil
}

func (m *TickStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ticks)
}

type SnapshotStore struct {
	mu    sync.Mutex
	snaps map[string]market.Snapshot
}

func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{snaps: make(map[string]market.Snapshot)}
}

func (m *SnapshotStore) UpsertSnapshot(_ context.Context, s market.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snaps[s.Symbol] = s
	return nil
}

func (m *SnapshotStore) Snapshot(_ context.Context, symbol string) (*market.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.snaps[symbol]
	if !ok {
		return nil, nil
	}
	return &s, nil
}
