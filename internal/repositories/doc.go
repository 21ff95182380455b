// Package repositories implements the relational storage engine.
//
// [SQLRepo] satisfies models.Repository on SQLite or PostgreSQL. Queries are written once with "?"
// placeholders and rebound for the connection's dialect. Playlist membership lives in the
// playlist_members table, ordered by position, and every multi-statement operation runs in one transaction.
//
// The schema is created by the embedded migrations in the shared package when the repository is opened.
package repositories
