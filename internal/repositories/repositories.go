package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
)

// Options configure a [SQLRepo]
type Options struct {
	MaxOpenConns int
	MaxIdleConns int
	Logger       *log.Logger
}

// SQLRepo implements models.Repository on a relational database.
//
// Concurrency is left to the connection pool and the database's own transaction isolation.
type SQLRepo struct {
	db      *shared.DB
	logger  *log.Logger
	stopped atomic.Bool
}

var _ models.Repository = (*SQLRepo)(nil)

// Open connects to the database, applies pending migrations and returns the repository
func Open(ctx context.Context, dialect shared.Dialect, dsn string, opts Options) (*SQLRepo, error) {
	db, err := shared.OpenDatabase(ctx, dialect, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrIO, err)
	}
	shared.ConfigureDatabase(db, opts.MaxOpenConns, opts.MaxIdleConns)

	repo, err := NewSQLRepo(db, opts.Logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return repo, nil
}

// NewSQLRepo wraps an open database, applying pending migrations. The repository owns db from here on.
func NewSQLRepo(db *shared.DB, logger *log.Logger) (*SQLRepo, error) {
	if logger == nil {
		logger = log.Default()
	}

	if err := shared.RunMigrations(db); err != nil {
		return nil, fmt.Errorf("%w: %w", models.ErrIO, err)
	}

	logger = logger.WithPrefix("sqlrepo")
	logger.Info("Opened relational repository", "dialect", db.Dialect)
	return &SQLRepo{db: db, logger: logger}, nil
}

func (r *SQLRepo) String() string { return string(r.db.Dialect) }

// Stop closes the connection pool
func (r *SQLRepo) Stop(ctx context.Context) error {
	if !r.stopped.CompareAndSwap(false, true) {
		return models.ErrStopped
	}
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("%w: failed to close database: %w", models.ErrIO, err)
	}
	r.logger.Debug("Closed database")
	return nil
}

// ready rejects calls after Stop or with a finished context
func (r *SQLRepo) ready(ctx context.Context) error {
	if r.stopped.Load() {
		return models.ErrStopped
	}
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrCanceled, err)
	}
	return nil
}

// q rebinds a query for the connection's dialect
func (r *SQLRepo) q(query string) string { return r.db.Rebind(query) }

// inTx runs fn in a transaction, committing when fn returns nil.
//
// Every statement inside fn must use tx: in-memory SQLite allows a single connection.
func (r *SQLRepo) inTx(ctx context.Context, op string, fn func(tx *sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return r.wrap(ctx, "begin "+op, err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return r.wrap(ctx, "commit "+op, err)
	}
	return nil
}

// wrap maps a database/sql error into the repository error taxonomy
func (r *SQLRepo) wrap(ctx context.Context, op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, models.ErrNotFound), errors.Is(err, models.ErrInvalidReference),
		errors.Is(err, models.ErrMalformed), errors.Is(err, models.ErrInvalidEntity):
		return err
	case ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w: %s: %v", models.ErrCanceled, op, err)
	case r.stopped.Load() || errors.Is(err, sql.ErrConnDone):
		return fmt.Errorf("%w: %s: %v", models.ErrStopped, op, err)
	default:
		return fmt.Errorf("%w: failed to %s: %w", models.ErrIO, op, err)
	}
}

// queryer is satisfied by both the pool and a transaction
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}
