package models

import "context"

// Repository is the storage contract implemented by every backend.
//
// Implementations include the file engine (fsrepo.FileRepo) and the relational engine (repositories.SQLRepo).
// All methods are safe for concurrent use and return errors from the taxonomy in this package.
type Repository interface {
	ListLyrics(ctx context.Context) ([]Lyric, error)                         // ListLyrics returns every lyric
	ListLyricSummaries(ctx context.Context) ([]Summary, error)               // ListLyricSummaries returns id and title of every lyric
	GetLyric(ctx context.Context, id ID) (Lyric, error)                      // GetLyric returns one lyric or [ErrNotFound]
	UpsertLyric(ctx context.Context, lyric Lyric) (Lyric, error)             // UpsertLyric creates or overwrites a lyric and returns what was persisted
	DeleteLyric(ctx context.Context, id ID) error                            // DeleteLyric removes a lyric and its playlist memberships
	ListPlaylists(ctx context.Context) ([]Playlist, error)                   // ListPlaylists returns every playlist
	ListPlaylistSummaries(ctx context.Context) ([]Summary, error)            // ListPlaylistSummaries returns id and title of every playlist
	GetPlaylist(ctx context.Context, id ID) (Playlist, error)                // GetPlaylist returns one playlist or [ErrNotFound]
	UpsertPlaylist(ctx context.Context, playlist Playlist) (Playlist, error) // UpsertPlaylist creates or overwrites a playlist after checking its members
	DeletePlaylist(ctx context.Context, id ID) error                         // DeletePlaylist removes a playlist
	Stop(ctx context.Context) error                                          // Stop releases the backend; later calls fail with [ErrStopped]
}
