package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/lipl/internal/models"
)

// ListLyrics returns every lyric ordered by title
func (r *SQLRepo) ListLyrics(ctx context.Context) ([]models.Lyric, error) {
	if err := r.ready(ctx); err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id, title, parts FROM lyrics ORDER BY title, id`)
	if err != nil {
		return nil, r.wrap(ctx, "query lyrics", err)
	}
	defer rows.Close()

	lyrics := []models.Lyric{}
	for rows.Next() {
		lyric, err := scanLyric(rows)
		if errors.Is(err, models.ErrMalformed) {
			r.logger.Warn("Skipping unreadable lyric row", "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		lyrics = append(lyrics, lyric)
	}

	if err := rows.Err(); err != nil {
		return nil, r.wrap(ctx, "iterate lyrics", err)
	}

	return lyrics, nil
}

// ListLyricSummaries returns id and title of every lyric ordered by title
func (r *SQLRepo) ListLyricSummaries(ctx context.Context) ([]models.Summary, error) {
	if err := r.ready(ctx); err != nil {
		return nil, err
	}
	return r.summaries(ctx, `SELECT id, title FROM lyrics ORDER BY title, id`)
}

// GetLyric retrieves a lyric by id
func (r *SQLRepo) GetLyric(ctx context.Context, id models.ID) (models.Lyric, error) {
	if err := r.ready(ctx); err != nil {
		return models.Lyric{}, err
	}

	lyric, err := r.getLyric(ctx, r.db, id)
	return lyric, r.wrap(ctx, "get lyric", err)
}

func (r *SQLRepo) getLyric(ctx context.Context, q queryer, id models.ID) (models.Lyric, error) {
	row := q.QueryRowContext(ctx, r.q(`SELECT id, title, parts FROM lyrics WHERE id = ?`), id)

	lyric, err := scanLyric(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Lyric{}, fmt.Errorf("lyric %s: %w", id, models.ErrNotFound)
	}
	return lyric, err
}

// UpsertLyric inserts or replaces a lyric and returns the stored row
func (r *SQLRepo) UpsertLyric(ctx context.Context, lyric models.Lyric) (models.Lyric, error) {
	if err := r.ready(ctx); err != nil {
		return models.Lyric{}, err
	}
	if err := lyric.Validate(); err != nil {
		return models.Lyric{}, err
	}

	var stored models.Lyric
	err := r.inTx(ctx, "upsert lyric", func(tx *sql.Tx) error {
		query := `
			INSERT INTO lyrics (id, title, parts)
			VALUES (?, ?, ?)
			ON CONFLICT (id) DO UPDATE SET title = excluded.title, parts = excluded.parts
		`
		if _, err := tx.ExecContext(ctx, r.q(query), lyric.ID, lyric.Title, models.PartsToText(lyric.Parts)); err != nil {
			return r.wrap(ctx, "upsert lyric", err)
		}

		var err error
		stored, err = r.getLyric(ctx, tx, lyric.ID)
		return r.wrap(ctx, "read back lyric", err)
	})
	if err != nil {
		return models.Lyric{}, err
	}

	return stored, nil
}

// DeleteLyric removes a lyric and its playlist memberships. Deleting a missing lyric succeeds.
func (r *SQLRepo) DeleteLyric(ctx context.Context, id models.ID) error {
	if err := r.ready(ctx); err != nil {
		return err
	}

	return r.inTx(ctx, "delete lyric", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM playlist_members WHERE lyric_id = ?`), id); err != nil {
			return r.wrap(ctx, "delete lyric memberships", err)
		}
		if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM lyrics WHERE id = ?`), id); err != nil {
			return r.wrap(ctx, "delete lyric", err)
		}
		return nil
	})
}

// scanner is satisfied by [sql.Row] and [sql.Rows]
type scanner interface {
	Scan(dest ...any) error
}

// scanLyric scans id, title and parts into a [models.Lyric]
func scanLyric(s scanner) (models.Lyric, error) {
	var (
		id    models.ID
		title string
		parts string
	)

	if err := s.Scan(&id, &title, &parts); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Lyric{}, err
		}
		return models.Lyric{}, fmt.Errorf("%w: failed to scan lyric: %v", models.ErrMalformed, err)
	}

	return models.Lyric{ID: id, Title: title, Parts: models.TextToParts(parts)}, nil
}

// summaries runs a query selecting id and title
func (r *SQLRepo) summaries(ctx context.Context, query string) ([]models.Summary, error) {
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, r.wrap(ctx, "query summaries", err)
	}
	defer rows.Close()

	summaries := []models.Summary{}
	for rows.Next() {
		var s models.Summary
		if err := rows.Scan(&s.ID, &s.Title); err != nil {
			r.logger.Warn("Skipping unreadable row", "query", query, "error", err)
			continue
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, r.wrap(ctx, "iterate summaries", err)
	}

	return summaries, nil
}
