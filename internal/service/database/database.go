// Package database opens the SQL connection pool and runs the embedded goose
// migrations. Postgres (lib/pq) is the production driver; SQLite (modernc)
// serves local runs and tests.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/lib/pq"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/kapu/gpt-discord-bot-go/internal/constants"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type Config struct {
	Driver     string
	Host       string
	Port       int
	User       string
	Password   string
	Database   string
	SSLMode    string
	SQLitePath string
}

// DSN renders the driver-specific connection string.
func (c Config) DSN() (string, error) {
	switch c.Driver {
	case DriverPostgres:
		sslMode := c.SSLMode
		if sslMode == "" {
			sslMode = "disable"
		}
		return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			c.Host, c.Port, c.User, c.Password, c.Database, sslMode), nil
	case DriverSQLite:
		if c.SQLitePath == "" {
			return "", fmt.Errorf("sqlite path is empty")
		}
		path := c.SQLitePath
		sep := "?"
		if strings.Contains(path, "?") {
			sep = "&"
		}
		return path + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)", nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", c.Driver)
	}
}

// Service owns the *sql.DB and knows which placeholder style it speaks.
type Service struct {
	db     *sql.DB
	driver string
	logger *zap.Logger
}

func Open(ctx context.Context, cfg Config, logger *zap.Logger) (*Service, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	dsn, err := cfg.DSN()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverSQLite {
		// SQLite allows one writer; a single connection also keeps ":memory:"
		// databases alive for the lifetime of the pool.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(constants.DatabaseConfig.MaxOpenConns)
		db.SetMaxIdleConns(constants.DatabaseConfig.MaxIdleConns)
		db.SetConnMaxLifetime(constants.DatabaseConfig.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, constants.DatabaseConfig.PingTimeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.Driver, err)
	}

	if cfg.Driver == DriverPostgres {
		logger.Info("PostgreSQL connected",
			zap.String("host", cfg.Host),
			zap.Int("port", cfg.Port),
			zap.String("database", cfg.Database),
		)
	} else {
		logger.Info("SQLite opened", zap.String("path", cfg.SQLitePath))
	}

	return &Service{db: db, driver: cfg.Driver, logger: logger}, nil
}

// OpenMemory opens a private in-memory SQLite database with migrations
// applied. Used by tests and by `DATABASE_DRIVER=sqlite SQLITE_PATH=:memory:`.
func OpenMemory(ctx context.Context, logger *zap.Logger) (*Service, error) {
	svc, err := Open(ctx, Config{Driver: DriverSQLite, SQLitePath: ":memory:"}, logger)
	if err != nil {
		return nil, err
	}
	if err := svc.MigrateUp(ctx); err != nil {
		svc.Close()
		return nil, err
	}
	return svc, nil
}

func (s *Service) GetDB() *sql.DB {
	return s.db
}

func (s *Service) Driver() string {
	return s.driver
}

// Rebind rewrites "?" placeholders into the driver's native form.
func (s *Service) Rebind(query string) string {
	return Rebind(s.driver, query)
}

func Rebind(driver, query string) string {
	if driver != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			b.WriteByte(ch)
		case ch == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

func (s *Service) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *Service) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}
