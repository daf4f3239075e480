package warehouse

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/jackc/pgx/v5/stdlib"

	"salesdw/internal/config"
)

//go:embed migrations/*.sql
var migrations embed.FS

// Store is a PostgreSQL-backed warehouse.
type Store struct {
	db     *sql.DB
	cfg    config.WarehouseConfig
	logger *slog.Logger
}

// Open validates the DSN and configures the connection pool. No
// connection is established until Ping or the first load.
func Open(cfg config.WarehouseConfig, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}

	db, err := sql.Open("pgx", cfg.Dsn())
	if err != nil {
		return nil, fmt.Errorf("open warehouse: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)

	return &Store{
		db:     db,
		cfg:    cfg,
		logger: logger.With(slog.String("system", "warehouse")),
	}, nil
}

// Ping verifies the warehouse is reachable within the configured
// connection timeout.
func (s *Store) Ping(ctx context.Context) error {
	pingCtx, cancel := context.WithTimeout(ctx, s.cfg.ConnTimeout)
	defer cancel()

	if err := s.db.PingContext(pingCtx); err != nil {
		return fmt.Errorf("warehouse unreachable: %w", err)
	}
	s.logger.Info("warehouse connection established",
		slog.String("host", s.cfg.Host),
		slog.String("database", s.cfg.Name))
	return nil
}

// Migrate applies all pending schema migrations from the embedded
// migration files. Already-current schemas are not an error.
func (s *Store) Migrate() error {
	source, err := iofs.New(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	m, err := migrate.NewWithSourceInstance("iofs", source, s.cfg.URL())
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil {
		return fmt.Errorf("read migration version: %w", err)
	}
	s.logger.Info("schema migrations applied",
		slog.Uint64("version", uint64(version)),
		slog.Bool("dirty", dirty))
	return nil
}

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.db.Close()
}
