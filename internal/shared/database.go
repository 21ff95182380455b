package shared

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect names a [database/sql] driver together with its SQL placeholder style.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite3"
	DialectPostgres Dialect = "postgres"
)

// ParseDialect maps a source kind ("sqlite", "sqlite3", "postgres", "postgresql") to a [Dialect].
func ParseDialect(kind string) (Dialect, error) {
	switch strings.ToLower(kind) {
	case "sqlite", "sqlite3":
		return DialectSQLite, nil
	case "postgres", "postgresql", "pg":
		return DialectPostgres, nil
	default:
		return "", fmt.Errorf("%w: unknown database kind %q", ErrInvalidSource, kind)
	}
}

// Rebind rewrites "?" placeholders into the dialect's style.
//
// Queries in this module are written with "?" and never contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if d != DialectPostgres {
		return query
	}

	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// DB is an open connection pool together with its [Dialect].
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Rebind rewrites "?" placeholders for this database's dialect
func (db *DB) Rebind(query string) string {
	return db.Dialect.Rebind(query)
}

// NewDatabase opens a connection to a SQLite database at the specified path.
// The path can be ":memory:" for an in-memory database.
// Returns an open database connection or an error if connection fails.
func NewDatabase(path string) (*DB, error) {
	return OpenDatabase(context.Background(), DialectSQLite, path)
}

// OpenDatabase opens and pings a connection pool for the given dialect and data source name.
//
// In-memory SQLite databases are limited to a single connection since every connection
// would otherwise see its own empty database.
func OpenDatabase(ctx context.Context, dialect Dialect, dsn string) (*DB, error) {
	if dialect == DialectSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(string(dialect), dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if dialect == DialectSQLite && strings.Contains(dsn, ":memory:") {
		db.SetMaxOpenConns(1)
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{DB: db, Dialect: dialect}, nil
}

// ConfigureDatabase sets connection pool settings for the database.
// Recommended for production use to limit connections and improve performance.
// Zero values keep the driver defaults; in-memory SQLite stays at one connection.
func ConfigureDatabase(db *DB, maxOpenConns, maxIdleConns int) {
	if maxOpenConns > 0 && db.Stats().MaxOpenConnections != 1 {
		db.SetMaxOpenConns(maxOpenConns)
	}
	if maxIdleConns > 0 {
		db.SetMaxIdleConns(maxIdleConns)
	}
}

// sqliteDSN enables foreign keys on every pooled connection
func sqliteDSN(dsn string) string {
	if strings.Contains(dsn, "_foreign_keys") || strings.Contains(dsn, "_fk=") {
		return dsn
	}
	if strings.Contains(dsn, "?") {
		return dsn + "&_foreign_keys=on"
	}
	if dsn == ":memory:" {
		return "file::memory:?_foreign_keys=on"
	}
	return "file:" + dsn + "?_foreign_keys=on"
}
