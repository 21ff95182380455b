package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lipl/internal/fsrepo"
	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/services"
	"github.com/desertthunder/lipl/internal/shared"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds parallel requests when the engine is created with a non-positive limit
const DefaultConcurrency = 4

// UploadResult contains what an upload created on the server.
type UploadResult struct {
	Lyrics           []models.Lyric  // Lyrics in file name order
	Playlist         models.Playlist // Playlist holding every uploaded lyric
	DeletedLyrics    int             // Remote lyrics removed before upload
	DeletedPlaylists int             // Remote playlists removed before upload
}

// CopyResult counts what was copied.
type CopyResult struct {
	Lyrics    int
	Playlists int
}

// Engine runs bulk operations with bounded concurrency.
type Engine struct {
	concurrency int
	logger      *log.Logger
}

// NewEngine creates an [Engine] running at most concurrency requests at once.
func NewEngine(concurrency int, logger *log.Logger) *Engine {
	if concurrency < 1 {
		concurrency = DefaultConcurrency
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{concurrency: concurrency, logger: logger.WithPrefix("tasks")}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full, skip this update
	}
}

// ReadLyricDir parses every .txt file in dir, sorted by file name.
//
// A file without a title is titled after its file name.
func ReadLyricDir(dir string) ([]models.LyricPost, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrNoPath, err)
	}

	var names []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != "."+fsrepo.LyricExtension {
			continue
		}
		names = append(names, name)
	}
	slices.Sort(names)

	posts := make([]models.LyricPost, 0, len(names))
	for _, name := range names {
		post, err := readLyricFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, nil
}

func readLyricFile(path string) (models.LyricPost, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.LyricPost{}, fmt.Errorf("%w: %v", models.ErrIO, err)
	}
	defer f.Close()

	title, parts, err := fsrepo.ParseLyric(f)
	if err != nil {
		return models.LyricPost{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return models.LyricPost{Title: title, Parts: parts}, nil
}

// Upload replaces everything on the server with the lyrics in dir and one playlist titled playlistTitle.
//
// The directory is read completely before anything remote is deleted.
func (e *Engine) Upload(
	ctx context.Context,
	progress chan<- ProgressUpdate,
	svc services.LyricService,
	dir, playlistTitle string,
) (*UploadResult, error) {
	if svc == nil {
		return nil, fmt.Errorf("%w: lyric service not initialized", shared.ErrMissingArgument)
	}
	if strings.TrimSpace(playlistTitle) == "" {
		return nil, fmt.Errorf("%w: playlist title", shared.ErrMissingArgument)
	}

	posts, err := ReadLyricDir(dir)
	if err != nil {
		return nil, err
	}
	e.sendProgress(progress, readFilesUpdate(len(posts), dir))
	e.logger.Info("Read lyric files", "dir", dir, "count", len(posts))

	result := &UploadResult{}

	playlists, err := svc.PlaylistSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote playlists: %w", err)
	}
	if err := e.each(ctx, len(playlists), func(ctx context.Context, i int) error {
		return svc.DeletePlaylist(ctx, playlists[i].ID)
	}, func(step int) {
		e.sendProgress(progress, clearRemoteUpdate(step, len(playlists), "playlist"))
	}); err != nil {
		return nil, fmt.Errorf("failed to delete remote playlists: %w", err)
	}
	result.DeletedPlaylists = len(playlists)

	lyrics, err := svc.LyricSummaries(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list remote lyrics: %w", err)
	}
	if err := e.each(ctx, len(lyrics), func(ctx context.Context, i int) error {
		return svc.DeleteLyric(ctx, lyrics[i].ID)
	}, func(step int) {
		e.sendProgress(progress, clearRemoteUpdate(step, len(lyrics), "lyric"))
	}); err != nil {
		return nil, fmt.Errorf("failed to delete remote lyrics: %w", err)
	}
	result.DeletedLyrics = len(lyrics)

	result.Lyrics = make([]models.Lyric, len(posts))
	var uploaded atomic.Int64
	if err := e.each(ctx, len(posts), func(ctx context.Context, i int) error {
		lyric, err := svc.InsertLyric(ctx, posts[i])
		if err != nil {
			return fmt.Errorf("%s: %w", posts[i].Title, err)
		}
		result.Lyrics[i] = lyric
		e.sendProgress(progress, uploadLyricUpdate(int(uploaded.Add(1)), len(posts), lyric))
		return nil
	}, nil); err != nil {
		return nil, fmt.Errorf("failed to upload lyrics: %w", err)
	}

	playlist, err := svc.InsertPlaylist(ctx, models.PlaylistPost{
		Title:   playlistTitle,
		Members: models.IDs(models.Summaries(result.Lyrics)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create playlist: %w", err)
	}
	result.Playlist = playlist
	e.sendProgress(progress, createPlaylistUpdate(playlist))
	e.logger.Info("Upload complete", "lyrics", len(result.Lyrics), "playlist", playlist.ID)

	return result, nil
}

// Copy upserts every lyric and then every playlist from src into dst.
func (e *Engine) Copy(ctx context.Context, progress chan<- ProgressUpdate, src, dst models.Repository) (*CopyResult, error) {
	if src == nil || dst == nil {
		return nil, fmt.Errorf("%w: source and target repositories", shared.ErrMissingArgument)
	}

	lyrics, err := src.ListLyrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list source lyrics: %w", err)
	}

	var copied atomic.Int64
	if err := e.each(ctx, len(lyrics), func(ctx context.Context, i int) error {
		if _, err := dst.UpsertLyric(ctx, lyrics[i]); err != nil {
			return fmt.Errorf("lyric %s: %w", lyrics[i].ID, err)
		}
		e.sendProgress(progress, copyUpdate(CopyLyrics, int(copied.Add(1)), len(lyrics), lyrics[i].Summary()))
		return nil
	}, nil); err != nil {
		return nil, fmt.Errorf("failed to copy lyrics: %w", err)
	}

	playlists, err := src.ListPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list source playlists: %w", err)
	}

	copied.Store(0)
	if err := e.each(ctx, len(playlists), func(ctx context.Context, i int) error {
		if _, err := dst.UpsertPlaylist(ctx, playlists[i]); err != nil {
			return fmt.Errorf("playlist %s: %w", playlists[i].ID, err)
		}
		e.sendProgress(progress, copyUpdate(CopyPlaylists, int(copied.Add(1)), len(playlists), playlists[i].Summary()))
		return nil
	}, nil); err != nil {
		return nil, fmt.Errorf("failed to copy playlists: %w", err)
	}

	e.logger.Info("Copy complete", "lyrics", len(lyrics), "playlists", len(playlists))
	return &CopyResult{Lyrics: len(lyrics), Playlists: len(playlists)}, nil
}

// each runs fn for indexes [0, n) with the engine's concurrency limit.
// done, when set, is called with the running count after each success.
func (e *Engine) each(ctx context.Context, n int, fn func(ctx context.Context, i int) error, done func(step int)) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)

	var finished atomic.Int64
	for i := range n {
		g.Go(func() error {
			if err := fn(ctx, i); err != nil {
				return err
			}
			if done != nil {
				done(int(finished.Add(1)))
			}
			return nil
		})
	}
	return g.Wait()
}
