// Package store holds the SQL repositories behind prompt, template and
// channel management. Every write that must stay unique per key is a single
// atomic statement; lookups return an explicit (value, ok, err) triple.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kapu/gpt-discord-bot-go/internal/service/database"
	"github.com/kapu/gpt-discord-bot-go/pkg/errors"
)

// Store bundles the repositories that share one connection pool.
type Store struct {
	Prompts   *FixedPromptRepository
	Templates *TemplateRepository
	Channels  *ChannelRepository
}

func New(db *database.Service, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		Prompts:   NewFixedPromptRepository(db, logger),
		Templates: NewTemplateRepository(db, logger),
		Channels:  NewChannelRepository(db, logger),
	}
}

// querier is the subset of *sql.DB the repositories use.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type scannable interface {
	Scan(dest ...any) error
}

func storeError(logger *zap.Logger, op string, err error) error {
	logger.Warn("Store call failed", zap.String("op", op), zap.Error(err))
	return errors.NewStoreError("store "+op+" failed", op, err)
}

// timestamp scans time columns from either driver. SQLite may hand back text
// when the column type is not visible (e.g. in RETURNING clauses).
type timestamp struct {
	t *time.Time
}

var timestampLayouts = []string{
	"2006-01-02 15:04:05.999999999-07:00",
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (ts timestamp) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*ts.t = time.Time{}
		return nil
	case time.Time:
		*ts.t = v
		return nil
	case []byte:
		return ts.parse(string(v))
	case string:
		return ts.parse(v)
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (ts timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*ts.t = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognised timestamp %q", s)
}
