package config

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"window-config-lab/internal/storage"
	chstore "window-config-lab/internal/storage/clickhouse"
	"window-config-lab/internal/storage/memory"
	"window-config-lab/internal/storage/migrations"
	pgstore "window-config-lab/internal/storage/postgres"
)

// Stores bundles the storage backends selected by Settings.
type Stores struct {
	Trades  storage.TradeStore
	Runs    storage.SweepRunStore
	Results storage.SweepResultStore

	// Persistent is false when every store is in memory.
	Persistent bool

	closers []func()
}

// Close releases every open connection.
func (s *Stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// OpenStores connects the configured databases.
// Without a PostgreSQL DSN every store is in memory. Sweep results go to
// ClickHouse when its DSN is set and stay in memory otherwise.
func OpenStores(ctx context.Context, s Settings, log logrus.FieldLogger) (*Stores, error) {
	stores := &Stores{
		Trades:  memory.NewTradeStore(),
		Runs:    memory.NewSweepRunStore(),
		Results: memory.NewSweepResultStore(),
	}
	if s.PostgresDSN == "" {
		log.Debug("using in-memory stores")
		return stores, nil
	}

	pool, err := pgstore.NewPool(ctx, s.PostgresDSN)
	if err != nil {
		return nil, err
	}
	stores.closers = append(stores.closers, pool.Close)

	if s.Migrate {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			stores.Close()
			return nil, fmt.Errorf("postgres migrations: %w", err)
		}
	}
	stores.Trades = pgstore.NewTradeStore(pool)
	stores.Runs = pgstore.NewSweepRunStore(pool)
	stores.Persistent = true
	log.Info("connected to postgres")

	if s.ClickhouseDSN == "" {
		log.Warn("no clickhouse dsn, sweep results are kept in memory only")
		return stores, nil
	}

	var conn *chstore.Conn
	if s.Migrate {
		conn, err = migrations.RunClickhouseMigrations(ctx, s.ClickhouseDSN)
	} else {
		conn, err = chstore.NewConn(ctx, s.ClickhouseDSN)
	}
	if err != nil {
		stores.Close()
		return nil, fmt.Errorf("clickhouse: %w", err)
	}
	stores.closers = append(stores.closers, func() { _ = conn.Close() })
	stores.Results = chstore.NewSweepResultStore(conn)
	log.Info("connected to clickhouse")

	return stores, nil
}
