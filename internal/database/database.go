package database

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/XSAM/otelsql"
	_ "github.com/jackc/pgx/v5/stdlib"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"translateme/internal/config"
)

var sqlOpen = sql.Open

const pingTimeout = 5 * time.Second

// Postgres is a pooled history database handle. DSN is kept for the dedicated
// LISTEN connection, which cannot come from the pool.
type Postgres struct {
	DB  *sql.DB
	DSN string
}

// Close releases the pool.
func (p *Postgres) Close() error {
	return p.DB.Close()
}

// BuildPostgresDSN renders c as a postgres:// URL, e.g.
// postgres://user:pass@db:5432/translateme?application_name=translateme&sslmode=disable
func BuildPostgresDSN(c config.DatabaseConfig) (string, error) {
	if c.Host == "" || c.Port == "" || c.User == "" || c.Name == "" {
		return "", fmt.Errorf("invalid database config: host, port, user, and name are required")
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   net.JoinHostPort(c.Host, c.Port),
		Path:   c.Name,
		User:   url.User(c.User),
	}
	if c.Password != "" {
		u.User = url.UserPassword(c.User, c.Password)
	}

	q := url.Values{}
	if c.SSLMode != "" {
		q.Set("sslmode", c.SSLMode)
	}
	if c.AppName != "" {
		q.Set("application_name", c.AppName)
	}
	if c.ConnectTimeoutSec > 0 {
		q.Set("connect_timeout", strconv.Itoa(c.ConnectTimeoutSec))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

// NewPostgres opens the traced pgx pool and checks that the server answers.
// The ping is bounded by ctx and pingTimeout, whichever ends first.
func NewPostgres(ctx context.Context, c config.DatabaseConfig) (*Postgres, error) {
	dsn, err := BuildPostgresDSN(c)
	if err != nil {
		return nil, err
	}

	driverName, err := registerDriver()
	if err != nil {
		return nil, err
	}

	db, err := sqlOpen(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	configurePool(db, c)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping %s: %w", net.JoinHostPort(c.Host, c.Port), err)
	}

	return &Postgres{DB: db, DSN: dsn}, nil
}

// configurePool applies the non-zero pool limits from c.
func configurePool(db *sql.DB, c config.DatabaseConfig) {
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetimeSec > 0 {
		db.SetConnMaxLifetime(time.Duration(c.ConnMaxLifetimeSec) * time.Second)
	}
}

var (
	registerOnce sync.Once
	driverName   string
	registerErr  error
)

// registerDriver wraps pgx with otelsql once per process.
func registerDriver() (string, error) {
	registerOnce.Do(func() {
		driverName, registerErr = otelsql.Register("pgx",
			otelsql.WithAttributes(semconv.DBSystemPostgreSQL),
			otelsql.WithSQLCommenter(true),
		)
		if registerErr != nil {
			registerErr = fmt.Errorf("failed to register otelsql: %w", registerErr)
		}
	})
	return driverName, registerErr
}
