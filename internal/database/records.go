package database

import (
	"context"
	"fmt"
	"path/filepath"

	"coursemarket/internal/config"
	"coursemarket/internal/records"
)

// OpenRecords returns the configured record backend and a function that
// releases its resources. Empty collections are filled from
// records.seeddir, so a fresh Postgres database starts with the catalog.
func OpenRecords(ctx context.Context, cfg *config.AppConfig) (records.Backend, func(), error) {
	backend, closeFn, err := openBackend(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	if seedDir := cfg.Records.SeedDir; seedDir != "" && !sameDir(cfg, seedDir) {
		if _, err := records.Seed(ctx, backend, seedDir); err != nil {
			closeFn()
			return nil, nil, err
		}
	}
	return backend, closeFn, nil
}

func openBackend(ctx context.Context, cfg *config.AppConfig) (records.Backend, func(), error) {
	switch cfg.Records.Backend {
	case "postgres":
		pool, err := NewPostgresPool(ctx, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		if err := Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return records.NewPostgresBackend(pool), pool.Close, nil
	case "file", "":
		backend, err := records.NewFileBackend(cfg.Records.DataDir)
		if err != nil {
			return nil, nil, err
		}
		return backend, func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown records backend %q", cfg.Records.Backend)
	}
}

// sameDir reports whether the file backend already reads from seedDir.
func sameDir(cfg *config.AppConfig, seedDir string) bool {
	if cfg.Records.Backend == "postgres" {
		return false
	}
	a, errA := filepath.Abs(seedDir)
	b, errB := filepath.Abs(cfg.Records.DataDir)
	return errA == nil && errB == nil && a == b
}
