package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/bryanwahyu/aura-impact/internal/config"
	mysqlp "github.com/bryanwahyu/aura-impact/internal/infra/db/mysql"
	"github.com/bryanwahyu/aura-impact/internal/infra/db/postgres"
	"github.com/bryanwahyu/aura-impact/internal/infra/db/sqlite"
	"github.com/bryanwahyu/aura-impact/internal/infra/db/sqlstore"
)

// openStore connects to the configured database.
func openStore(ctx context.Context, cfg *config.Config) (*sql.DB, *sqlstore.Store, error) {
	var (
		db      *sql.DB
		dialect sqlstore.Dialect
		err     error
	)
	switch cfg.Database.Driver {
	case "mysql":
		db, err = mysqlp.Connect(ctx, cfg.MySQLDSN())
		dialect = mysqlp.Dialect()
	case "postgres":
		db, err = postgres.Connect(ctx, cfg.PostgresDSN())
		dialect = postgres.Dialect()
	case "sqlite":
		db, err = sqlite.Connect(ctx, cfg.Database.Path)
		dialect = sqlite.Dialect()
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("%s connect: %w", cfg.Database.Driver, err)
	}
	return db, sqlstore.New(db, dialect), nil
}

func runMigrations(cfg *config.Config, steps int) error {
	switch cfg.Database.Driver {
	case "mysql":
		return mysqlp.Migrate(cfg.MySQLDSN(), steps)
	case "postgres":
		return postgres.Migrate(cfg.PostgresDSN(), steps)
	case "sqlite":
		return sqlite.Migrate(cfg.Database.Path, steps)
	}
	return fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
}
