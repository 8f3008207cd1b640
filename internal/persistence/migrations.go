package persistence

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const migrationsDir = "migrations"

// RunMigrations applies the *.sql files under migrationsDir in lexical
// order. The tickets DDL is written idempotent (CREATE ... IF NOT EXISTS)
// so reapplying on every boot is safe; there is no version bookkeeping
// table.
func RunMigrations(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	if pool == nil {
		logger.Warn("in-memory ticket store active; skipping schema migrations")
		return nil
	}

	paths, err := filepath.Glob(filepath.Join(migrationsDir, "*.sql"))
	if err != nil {
		return fmt.Errorf("scan migrations dir: %w", err)
	}
	sort.Strings(paths)

	for _, path := range paths {
		ddl, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", path, err)
		}
		if _, err := pool.Exec(ctx, string(ddl)); err != nil {
			return fmt.Errorf("apply migration %s: %w", path, err)
		}
		logger.Info("migration applied", zap.String("file", filepath.Base(path)))
	}

	logger.Info("ticket schema ready", zap.Int("migrations", len(paths)))
	return nil
}
