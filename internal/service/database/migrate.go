package database

import (
	"context"
	"embed"
	"fmt"
	"sync"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrations embed.FS

// goose keeps its base FS and dialect in package globals.
var gooseMu sync.Mutex

func (s *Service) migrationDir() (dir, dialect string) {
	if s.driver == DriverPostgres {
		return "migrations/postgres", "postgres"
	}
	return "migrations/sqlite", "sqlite3"
}

func (s *Service) withGoose(fn func(dir string) error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	dir, dialect := s.migrationDir()
	goose.SetBaseFS(migrations)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}
	return fn(dir)
}

// MigrateUp applies all pending migrations.
func (s *Service) MigrateUp(ctx context.Context) error {
	err := s.withGoose(func(dir string) error {
		if err := goose.UpContext(ctx, s.db, dir); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("Database migrations applied", zap.String("driver", s.driver))
	return nil
}

// MigrateDown rolls back the last steps migrations.
func (s *Service) MigrateDown(ctx context.Context, steps int) error {
	return s.withGoose(func(dir string) error {
		for range steps {
			if err := goose.DownContext(ctx, s.db, dir); err != nil {
				return fmt.Errorf("rollback: %w", err)
			}
		}
		return nil
	})
}

func (s *Service) MigrationVersion(ctx context.Context) (int64, error) {
	var version int64
	err := s.withGoose(func(string) error {
		v, err := goose.GetDBVersionContext(ctx, s.db)
		if err != nil {
			return fmt.Errorf("get version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}
