// package backend selects and opens a storage engine from a source string.
//
// Sources have the form kind:target:
//
//	file:./data                 directory of lyric and playlist files
//	sqlite:./lipl.db            SQLite database file, or sqlite::memory:
//	postgres:host=db user=lipl  PostgreSQL connection string
//
// PostgreSQL URLs (postgres://...) are accepted as they are.
package backend

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lipl/internal/fsrepo"
	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/repositories"
	"github.com/desertthunder/lipl/internal/shared"
)

// Kind is the storage engine named by a source
type Kind string

const (
	KindFile     Kind = "file"
	KindSQLite   Kind = "sqlite"
	KindPostgres Kind = "postgres"
)

// Source is a parsed source string
type Source struct {
	Kind   Kind
	Target string // Target is the directory for files and the DSN for databases
}

func (s Source) String() string { return string(s.Kind) + ":" + s.Target }

// ParseSource splits a source string into engine kind and target
func ParseSource(source string) (Source, error) {
	if strings.HasPrefix(source, "postgres://") || strings.HasPrefix(source, "postgresql://") {
		return Source{Kind: KindPostgres, Target: source}, nil
	}

	kind, target, ok := strings.Cut(source, ":")
	if !ok || target == "" {
		return Source{}, fmt.Errorf("%w: %q, expected kind:target", shared.ErrInvalidSource, source)
	}

	switch k := Kind(strings.ToLower(kind)); k {
	case KindFile, KindSQLite, KindPostgres:
		return Source{Kind: k, Target: target}, nil
	case "sqlite3":
		return Source{Kind: KindSQLite, Target: target}, nil
	case "postgresql", "pg":
		return Source{Kind: KindPostgres, Target: target}, nil
	default:
		return Source{}, fmt.Errorf("%w: unknown kind %q", shared.ErrInvalidSource, kind)
	}
}

// Open parses source and opens the engine it names, tuned by cfg
func Open(ctx context.Context, source string, cfg *shared.Config, logger *log.Logger) (models.Repository, error) {
	src, err := ParseSource(source)
	if err != nil {
		return nil, err
	}
	return OpenSource(ctx, src, cfg, logger)
}

// OpenSource opens the engine for an already parsed source
func OpenSource(ctx context.Context, src Source, cfg *shared.Config, logger *log.Logger) (models.Repository, error) {
	if cfg == nil {
		cfg = shared.DefaultConfig()
	}
	if logger == nil {
		logger = log.Default()
	}

	logger.Debug("Opening storage", "source", src)

	switch src.Kind {
	case KindFile:
		return fsrepo.New(ctx, src.Target, fsrepo.Options{
			QueueSize: cfg.Storage.QueueSize,
			NoSync:    !cfg.Storage.SyncLog,
			Logger:    logger,
		})
	case KindSQLite, KindPostgres:
		dialect, err := shared.ParseDialect(string(src.Kind))
		if err != nil {
			return nil, err
		}
		return repositories.Open(ctx, dialect, src.Target, repositories.Options{
			MaxOpenConns: cfg.Database.MaxOpenConns,
			MaxIdleConns: cfg.Database.MaxIdleConns,
			Logger:       logger,
		})
	default:
		return nil, fmt.Errorf("%w: unknown kind %q", shared.ErrInvalidSource, src.Kind)
	}
}
