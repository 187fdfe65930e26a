package server

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/recipebook/internal/dbx"
	"github.com/dmitrijs2005/recipebook/internal/server/config"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/memory"
	"github.com/dmitrijs2005/recipebook/internal/server/repositories/repomanager"
)

// Storage bundles the connection, the repositories bound to it and a
// close function.
type Storage struct {
	Conn        dbx.Conn
	Repomanager repomanager.RepositoryManager
	Close       func() error
}

// openPostgres is a seam for tests.
var openPostgres = repomanager.OpenPostgres

// OpenStorage opens the backend selected by cfg.StorageBackend. The
// postgres backend is migrated before it is returned.
func OpenStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	switch cfg.StorageBackend {
	case config.StorageMemory:
		store := memory.NewStore()
		return &Storage{
			Conn:        store,
			Repomanager: repomanager.NewMemoryRepositoryManager(store),
			Close:       func() error { return nil },
		}, nil

	case config.StoragePostgres, "":
		db, err := openPostgres(ctx, cfg.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}

		rm := repomanager.NewPostgresRepositoryManager()
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("db migration error: %w", err)
		}

		return &Storage{Conn: dbx.NewSQLConn(db, nil), Repomanager: rm, Close: db.Close}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.StorageBackend)
	}
}
