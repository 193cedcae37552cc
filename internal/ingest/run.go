package ingest

import (
	"context"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stockfeed/config"
	"stockfeed/internal/feed"
	"stockfeed/internal/tokenstore"
	"stockfeed/internal/universe"
	"stockfeed/pkg/storage/postgres"
	redisstore "stockfeed/pkg/storage/redis"
)

// Run wires the whole ingestion side and drives the feed connection until ctx
// is cancelled: universe file → connection manager → normalizer → dual-sink
// persistence (Postgres tick log + Redis snapshot cache).
func Run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	postgresClient, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Log.Environment, true)
	if err != nil {
		return fmt.Errorf("failed to connect to DB: %w", err)
	}
	defer postgresClient.Close()

	redisClient := goredis.NewClient(cfg.Redis.Options())
	defer redisClient.Close()
	snapshots := redisstore.NewSnapshotStore(redisClient)
	if !snapshots.IsHealthy(ctx) {
		return fmt.Errorf("redis not reachable at %s:%d", cfg.Redis.Host, cfg.Redis.Port)
	}

	symbols, err := universe.Load(cfg.Universe.File)
	if err != nil {
		return fmt.Errorf("failed to load universe: %w", err)
	}
	logger.Info("loaded universe",
		zap.Int("symbols", len(symbols)), zap.String("file", cfg.Universe.File))

	tokenName := cfg.Feed.TokenName
	if tokenName == "" {
		tokenName = "broker"
	}
	tokens := tokenstore.New(postgresClient, tokenName, cfg.Feed.AccessToken, logger)

	pipeline := NewPipeline(postgresClient, snapshots, 0, logger)

	manager := feed.NewManager(feed.Options{
		URL:              cfg.Feed.URL,
		ClientID:         cfg.Feed.ClientID,
		HandshakeTimeout: cfg.Feed.HandshakeTimeout,
		PingInterval:     cfg.Feed.PingInterval,
		PongTimeout:      cfg.Feed.PongTimeout,
	}, tokens, symbols, pipeline.HandleMessage, logger)

	return manager.Run(ctx)
}
