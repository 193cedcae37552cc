package ingest

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stockfeed/internal/feed"
	"stockfeed/internal/market"
)

// TickLog is the append-only durable sink for normalized ticks.
type TickLog interface {
	AppendTick(ctx context.Context, t market.Tick) error
}

// SnapshotCache holds the latest-known tick state per symbol,
// overwritten wholesale on every tick.
type SnapshotCache interface {
	UpsertSnapshot(ctx context.Context, s market.Snapshot) error
}

// Pipeline normalizes inbound feed messages and performs the dual-sink write:
// append to the tick log, then upsert the snapshot. Both writes run
// synchronously on the read loop, so per-connection write order matches
// arrival order. A failure on one tick is logged and the next message
// proceeds; the pipeline itself never terminates because of a bad write.
type Pipeline struct {
	log          TickLog
	cache        SnapshotCache
	writeTimeout time.Duration
	logger       *zap.Logger
}

func NewPipeline(log TickLog, cache SnapshotCache, writeTimeout time.Duration, logger *zap.Logger) *Pipeline {
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Second
	}
	return &Pipeline{
		log:          log,
		cache:        cache,
		writeTimeout: writeTimeout,
		logger:       logger,
	}
}

// HandleMessage is the feed message handler. Unparseable messages are
// discarded at low severity; ticks without a symbol are expected noise
// (subscription acks, heartbeats).
func (p *Pipeline) HandleMessage(msg []byte) {
	tick, err := feed.ParseTick(msg, time.Now().UTC())
	if err != nil {
		p.logger.Debug("discarding unparseable message", zap.Error(err))
		return
	}
	p.persist(*tick)
}

func (p *Pipeline) persist(t market.Tick) {
	ctx, cancel := context.WithTimeout(context.Background(), p.writeTimeout)
	defer cancel()

	if err := p.log.AppendTick(ctx, t); err != nil {
		p.logger.Warn("failed to append tick",
			zap.String("symbol", t.Symbol), zap.Error(err))
	}

	snap := market.Snapshot{
		Symbol: t.Symbol,
		TS:     t.TS,
		LTP:    t.LTP,
		Bid:    t.Bid,
		Ask:    t.Ask,
	}
	if err := p.cache.UpsertSnapshot(ctx, snap); err != nil {
		p.logger.Warn("failed to upsert snapshot",
			zap.String("symbol", t.Symbol), zap.Error(err))
	}
}
