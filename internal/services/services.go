// package services defines interface LyricService for interacting with lipl HTTP APIs
package services

import (
	"context"

	"github.com/desertthunder/lipl/internal/models"
)

// LyricService is the subset of the remote API used to publish lyrics and playlists.
type LyricService interface {
	// LyricSummaries lists id and title of every remote lyric.
	LyricSummaries(ctx context.Context) ([]models.Summary, error)

	// InsertLyric creates a lyric; the server assigns its id.
	InsertLyric(ctx context.Context, lyric models.LyricPost) (models.Lyric, error)

	// DeleteLyric removes a remote lyric.
	DeleteLyric(ctx context.Context, id models.ID) error

	// PlaylistSummaries lists id and title of every remote playlist.
	PlaylistSummaries(ctx context.Context) ([]models.Summary, error)

	// InsertPlaylist creates a playlist; the server assigns its id.
	InsertPlaylist(ctx context.Context, playlist models.PlaylistPost) (models.Playlist, error)

	// DeletePlaylist removes a remote playlist.
	DeletePlaylist(ctx context.Context, id models.ID) error
}
