package main

import (
	"context"
	"fmt"
	"time"

	"aira/internal/config"
	"aira/internal/repository"
	"aira/internal/service"

	"go.uber.org/zap"
)

// stores bundles the backends selected by the storage driver
type stores struct {
	properties repository.PropertyStore
	vectors    repository.VectorStore
	users      repository.UserStore
	nonces     repository.NonceStore
	purge      func(ctx context.Context) (int64, error)
	close      func() error
}

func openStores(ctx context.Context, cfg *config.Config, log *zap.Logger) (*stores, error) {
	switch cfg.Storage.Driver {
	case "postgres":
		repo, err := openPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.Info("✅ Connected to PostgreSQL database",
			zap.String("host", cfg.PostgreSQL.Host),
			zap.String("database", cfg.PostgreSQL.Database))
		return &stores{
			properties: repo,
			vectors:    repo,
			users:      repo,
			nonces:     repo,
			purge:      repo.PurgeExpiredNonces,
			close:      repo.Close,
		}, nil

	default:
		file, err := repository.NewFileStore(cfg.Storage.DataFile)
		if err != nil {
			return nil, err
		}
		log.Info("✅ Using JSON file store", zap.String("path", file.Path()))
		nonces := repository.NewMemoryNonceStore()
		return &stores{
			properties: file,
			users:      repository.NewMemoryUserStore(),
			nonces:     nonces,
			purge: func(ctx context.Context) (int64, error) {
				nonces.Cleanup()
				return 0, nil
			},
			close: func() error { return nil },
		}, nil
	}
}

func openPostgres(ctx context.Context, cfg *config.Config) (*repository.PostgresRepository, error) {
	repo, err := repository.NewPostgresRepository(
		cfg.GetPostgreSQLDSN(),
		cfg.PostgreSQL.MaxConnections,
		cfg.PostgreSQL.MaxIdleConnections,
	)
	if err != nil {
		return nil, err
	}
	if err := repo.Migrate(ctx); err != nil {
		repo.Close()
		return nil, err
	}
	return repo, nil
}

// embedderFor returns the client's embedding capability when vector search
// is available
func embedderFor(llm service.LLMClient, s *stores) service.Embedder {
	if s.vectors == nil || !llm.IsEnabled() {
		return nil
	}
	embedder, ok := llm.(service.Embedder)
	if !ok {
		return nil
	}
	return embedder
}

// purgeNonces drops expired login nonces until ctx is done
func purgeNonces(ctx context.Context, s *stores, every time.Duration, log *zap.Logger) {
	if every <= 0 {
		every = 10 * time.Minute
	}
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.purge(ctx)
			if err != nil {
				log.Warn("failed to purge nonces", zap.Error(err))
				continue
			}
			if n > 0 {
				log.Debug("purged expired nonces", zap.Int64("count", n))
			}
		}
	}
}

func requirePostgres(cfg *config.Config) error {
	if cfg.Storage.Driver != "postgres" {
		return fmt.Errorf("this command needs STORAGE_DRIVER=postgres (current: %s)", cfg.Storage.Driver)
	}
	return nil
}
