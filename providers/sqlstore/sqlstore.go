// Package sqlstore reads the cbcx secret from a key/value settings table.
//
// The sqlite3 and pgx (PostgreSQL) drivers are registered by this package. Any other
// database/sql driver works when the caller registers it.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/hengadev/cbcx"
	"github.com/hengadev/cbcx/internal/monitoring"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Config configures a Provider.
type Config struct {
	// Driver is the database/sql driver name. Default: cbcx.DefaultSQLDriver
	Driver string
	DSN    string

	// Table has a "key" and a "value" text column. Default: cbcx.DefaultSQLTable
	Table string

	// SecretKey is the row key. Default: cbcx.DefaultSecretKey
	SecretKey string

	// DB is used instead of opening Driver/DSN. The provider does not close it.
	DB *sqlx.DB

	Logger logrus.FieldLogger
}

// Provider implements cbcx.SecretProvider over a settings table.
type Provider struct {
	db        *sqlx.DB
	owned     bool
	query     string
	secretKey string
	logger    logrus.FieldLogger
}

// New opens the database (unless cfg.DB is set) and verifies connectivity.
//
// Usage:
//
//	provider, err := sqlstore.New(ctx, sqlstore.Config{Driver: "pgx", DSN: os.Getenv("DATABASE_URL")})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
func New(ctx context.Context, cfg Config) (*Provider, error) {
	if cfg.Driver == "" {
		cfg.Driver = cbcx.DefaultSQLDriver
	}
	if cfg.Table == "" {
		cfg.Table = cbcx.DefaultSQLTable
	}
	if cfg.SecretKey == "" {
		cfg.SecretKey = cbcx.DefaultSecretKey
	}
	if !identifier.MatchString(cfg.Table) {
		return nil, fmt.Errorf("%w: invalid table name %q", cbcx.ErrInvalidConfiguration, cfg.Table)
	}

	db, owned := cfg.DB, false
	if db == nil {
		if cfg.DSN == "" {
			return nil, fmt.Errorf("%w: sql dsn is required", cbcx.ErrInvalidConfiguration)
		}

		var err error
		db, err = sqlx.Open(cfg.Driver, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to open %s database: %w", cbcx.ErrInvalidConfiguration, cfg.Driver, err)
		}
		owned = true

		if err := db.PingContext(ctx); err != nil {
			db.Close()
			return nil, cbcx.NewSecretStorageError("sql", fmt.Errorf("failed to connect: %w", err))
		}
	}

	return &Provider{
		db:        db,
		owned:     owned,
		query:     db.Rebind(fmt.Sprintf(`SELECT "value" FROM "%s" WHERE "key" = ?`, cfg.Table)),
		secretKey: cfg.SecretKey,
		logger:    cfg.Logger,
	}, nil
}

// GetSecret reads the value row for the configured key.
func (p *Provider) GetSecret(ctx context.Context) (string, error) {
	var value sql.NullString
	if err := p.db.GetContext(ctx, &value, p.query, p.secretKey); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", cbcx.NewMissingSecretError(p.secretKey)
		}
		monitoring.NewLogger(p.logger, "sql", "GetSecret").WithError(err, "select").Warn("Failed to read secret from database")
		return "", cbcx.NewSecretStorageError("sql", err)
	}

	if !value.Valid || value.String == "" {
		return "", cbcx.NewMissingSecretError(p.secretKey)
	}
	return value.String, nil
}

// Close releases the database when the provider opened it.
func (p *Provider) Close() error {
	if !p.owned {
		return nil
	}
	return p.db.Close()
}
