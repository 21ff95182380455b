package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/lipl/internal/models"
)

// ListPlaylists returns every playlist with its members ordered by title
func (r *SQLRepo) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	if err := r.ready(ctx); err != nil {
		return nil, err
	}

	var playlists []models.Playlist
	err := r.inTx(ctx, "list playlists", func(tx *sql.Tx) error {
		summaries, err := r.playlistSummaries(ctx, tx)
		if err != nil {
			return err
		}

		members, err := r.allMembers(ctx, tx)
		if err != nil {
			return err
		}

		playlists = make([]models.Playlist, 0, len(summaries))
		for _, s := range summaries {
			ids := members[s.ID]
			if ids == nil {
				ids = []models.ID{}
			}
			playlists = append(playlists, models.Playlist{ID: s.ID, Title: s.Title, Members: ids})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return playlists, nil
}

// ListPlaylistSummaries returns id and title of every playlist ordered by title
func (r *SQLRepo) ListPlaylistSummaries(ctx context.Context) ([]models.Summary, error) {
	if err := r.ready(ctx); err != nil {
		return nil, err
	}
	return r.summaries(ctx, `SELECT id, title FROM playlists ORDER BY title, id`)
}

// GetPlaylist retrieves a playlist and its members by id
func (r *SQLRepo) GetPlaylist(ctx context.Context, id models.ID) (models.Playlist, error) {
	if err := r.ready(ctx); err != nil {
		return models.Playlist{}, err
	}

	var playlist models.Playlist
	err := r.inTx(ctx, "get playlist", func(tx *sql.Tx) error {
		var err error
		playlist, err = r.getPlaylist(ctx, tx, id)
		return err
	})
	return playlist, err
}

func (r *SQLRepo) getPlaylist(ctx context.Context, tx *sql.Tx, id models.ID) (models.Playlist, error) {
	playlist := models.Playlist{ID: id}

	err := tx.QueryRowContext(ctx, r.q(`SELECT title FROM playlists WHERE id = ?`), id).Scan(&playlist.Title)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Playlist{}, fmt.Errorf("playlist %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return models.Playlist{}, r.wrap(ctx, "get playlist", err)
	}

	rows, err := tx.QueryContext(ctx, r.q(`SELECT lyric_id FROM playlist_members WHERE playlist_id = ? ORDER BY position`), id)
	if err != nil {
		return models.Playlist{}, r.wrap(ctx, "query playlist members", err)
	}
	defer rows.Close()

	playlist.Members = []models.ID{}
	for rows.Next() {
		var member models.ID
		if err := rows.Scan(&member); err != nil {
			return models.Playlist{}, fmt.Errorf("%w: failed to scan member: %v", models.ErrMalformed, err)
		}
		playlist.Members = append(playlist.Members, member)
	}

	if err := rows.Err(); err != nil {
		return models.Playlist{}, r.wrap(ctx, "iterate playlist members", err)
	}

	return playlist, nil
}

// UpsertPlaylist checks that every member exists, then inserts or replaces the playlist and its members
func (r *SQLRepo) UpsertPlaylist(ctx context.Context, playlist models.Playlist) (models.Playlist, error) {
	if err := r.ready(ctx); err != nil {
		return models.Playlist{}, err
	}
	if err := playlist.Validate(); err != nil {
		return models.Playlist{}, err
	}

	var stored models.Playlist
	err := r.inTx(ctx, "upsert playlist", func(tx *sql.Tx) error {
		if err := r.checkMembers(ctx, tx, playlist); err != nil {
			return err
		}

		query := `
			INSERT INTO playlists (id, title)
			VALUES (?, ?)
			ON CONFLICT (id) DO UPDATE SET title = excluded.title
		`
		if _, err := tx.ExecContext(ctx, r.q(query), playlist.ID, playlist.Title); err != nil {
			return r.wrap(ctx, "upsert playlist", err)
		}

		if err := r.setMembers(ctx, tx, playlist.ID, playlist.Members); err != nil {
			return err
		}

		var err error
		stored, err = r.getPlaylist(ctx, tx, playlist.ID)
		return err
	})
	if err != nil {
		return models.Playlist{}, err
	}

	return stored, nil
}

// DeletePlaylist removes a playlist and its memberships. Deleting a missing playlist succeeds.
func (r *SQLRepo) DeletePlaylist(ctx context.Context, id models.ID) error {
	if err := r.ready(ctx); err != nil {
		return err
	}

	return r.inTx(ctx, "delete playlist", func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM playlist_members WHERE playlist_id = ?`), id); err != nil {
			return r.wrap(ctx, "delete playlist members", err)
		}
		if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM playlists WHERE id = ?`), id); err != nil {
			return r.wrap(ctx, "delete playlist", err)
		}
		return nil
	})
}

// checkMembers returns an [models.InvalidReferenceError] for the first member without a lyric row
func (r *SQLRepo) checkMembers(ctx context.Context, tx *sql.Tx, playlist models.Playlist) error {
	checked := make(map[models.ID]struct{}, len(playlist.Members))
	for _, member := range playlist.Members {
		if _, ok := checked[member]; ok {
			continue
		}

		var exists bool
		err := tx.QueryRowContext(ctx, r.q(`SELECT EXISTS(SELECT 1 FROM lyrics WHERE id = ?)`), member).Scan(&exists)
		if err != nil {
			return r.wrap(ctx, "check playlist member", err)
		}
		if !exists {
			return models.NewInvalidReferenceError(playlist.ID, member)
		}
		checked[member] = struct{}{}
	}
	return nil
}

// setMembers replaces the membership rows of a playlist, keeping member order in position
func (r *SQLRepo) setMembers(ctx context.Context, tx *sql.Tx, id models.ID, members []models.ID) error {
	if _, err := tx.ExecContext(ctx, r.q(`DELETE FROM playlist_members WHERE playlist_id = ?`), id); err != nil {
		return r.wrap(ctx, "clear playlist members", err)
	}

	if len(members) == 0 {
		return nil
	}

	stmt, err := tx.PrepareContext(ctx, r.q(`INSERT INTO playlist_members (playlist_id, position, lyric_id) VALUES (?, ?, ?)`))
	if err != nil {
		return r.wrap(ctx, "prepare member insert", err)
	}
	defer stmt.Close()

	for position, member := range members {
		if _, err := stmt.ExecContext(ctx, id, position, member); err != nil {
			return r.wrap(ctx, "insert playlist member", err)
		}
	}
	return nil
}

// playlistSummaries selects id and title of every playlist inside tx
func (r *SQLRepo) playlistSummaries(ctx context.Context, tx *sql.Tx) ([]models.Summary, error) {
	rows, err := tx.QueryContext(ctx, `SELECT id, title FROM playlists ORDER BY title, id`)
	if err != nil {
		return nil, r.wrap(ctx, "query playlists", err)
	}
	defer rows.Close()

	summaries := []models.Summary{}
	for rows.Next() {
		var s models.Summary
		if err := rows.Scan(&s.ID, &s.Title); err != nil {
			r.logger.Warn("Skipping unreadable playlist row", "error", err)
			continue
		}
		summaries = append(summaries, s)
	}

	if err := rows.Err(); err != nil {
		return nil, r.wrap(ctx, "iterate playlists", err)
	}
	return summaries, nil
}

// allMembers returns the ordered members of every playlist keyed by playlist id
func (r *SQLRepo) allMembers(ctx context.Context, tx *sql.Tx) (map[models.ID][]models.ID, error) {
	rows, err := tx.QueryContext(ctx, `SELECT playlist_id, lyric_id FROM playlist_members ORDER BY playlist_id, position`)
	if err != nil {
		return nil, r.wrap(ctx, "query playlist members", err)
	}
	defer rows.Close()

	members := make(map[models.ID][]models.ID)
	for rows.Next() {
		var playlistID, lyricID models.ID
		if err := rows.Scan(&playlistID, &lyricID); err != nil {
			r.logger.Warn("Skipping unreadable playlist member row", "error", err)
			continue
		}
		members[playlistID] = append(members[playlistID], lyricID)
	}

	if err := rows.Err(); err != nil {
		return nil, r.wrap(ctx, "iterate playlist members", err)
	}
	return members, nil
}
