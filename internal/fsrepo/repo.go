package fsrepo

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lipl/internal/models"
)

// DefaultQueueSize is the request queue capacity used when [Options.QueueSize] is not set
const DefaultQueueSize = 10

// Options configure a [FileRepo]
type Options struct {
	QueueSize int         // QueueSize bounds the number of requests waiting for the worker
	NoSync    bool        // NoSync skips the fsync after each transaction log append
	Logger    *log.Logger // Logger defaults to [log.Default]
}

// FileRepo stores lyrics and playlists as files in a single directory.
//
// Every operation is a message to one worker goroutine, which is the only code touching the directory.
// Mutations that succeed are appended to the transaction log before the caller gets its reply.
type FileRepo struct {
	dir      string
	requests chan command
	done     chan struct{}
	stopped  atomic.Bool
	journal  *journal
	logger   *log.Logger
}

var _ models.Repository = (*FileRepo)(nil)

// New opens the data directory at dir.
//
// An existing transaction log is replayed before New returns. Canceling ctx only affects the replay.
func New(ctx context.Context, dir string, opts Options) (*FileRepo, error) {
	if opts.QueueSize < 1 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	logger := opts.Logger.WithPrefix("fsrepo")

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", models.ErrNoPath, dir)
	}

	logPath := filepath.Join(dir, TransactionLogName)
	if err := replayLog(ctx, dir, logPath, opts.QueueSize, logger); err != nil {
		return nil, err
	}

	j, err := openJournal(logPath, !opts.NoSync, logger)
	if err != nil {
		return nil, err
	}

	repo := start(dir, opts.QueueSize, j, logger)
	logger.Info("Opened file repository", "dir", dir, "queue", opts.QueueSize, "sync", !opts.NoSync)
	return repo, nil
}

// replayLog applies an existing transaction log through a worker that does not record entries
func replayLog(ctx context.Context, dir, logPath string, queueSize int, logger *log.Logger) error {
	f, err := os.Open(logPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return ioError("open", logPath, err)
	}
	defer f.Close()

	replica := start(dir, queueSize, nil, logger.WithPrefix("replay"))
	stats, err := Replay(ctx, f, replica, logger)
	if stopErr := replica.Stop(context.Background()); stopErr != nil && err == nil {
		err = stopErr
	}
	if err != nil {
		return fmt.Errorf("failed to replay %s: %w", logPath, err)
	}

	logger.Info("Replayed transaction log", "applied", stats.Applied, "rejected", stats.Rejected, "torn", stats.Torn)
	return nil
}

// start launches the worker goroutine. A nil journal disables logging.
func start(dir string, queueSize int, j *journal, logger *log.Logger) *FileRepo {
	repo := &FileRepo{
		dir:      dir,
		requests: make(chan command, queueSize),
		done:     make(chan struct{}),
		journal:  j,
		logger:   logger,
	}
	go repo.run()
	return repo
}

// Dir returns the data directory
func (r *FileRepo) Dir() string { return r.dir }

func (r *FileRepo) String() string { return "file:" + r.dir }

func (r *FileRepo) run() {
	defer close(r.done)

	for cmd := range r.requests {
		if r.handle(cmd) {
			return
		}
	}
}

// handle processes one command and reports whether the worker should exit
func (r *FileRepo) handle(cmd command) bool {
	var delivered bool
	switch c := cmd.(type) {
	case listLyrics:
		delivered = c.deliver(r.lyrics())
	case listLyricSummaries:
		lyrics, err := r.lyrics()
		delivered = c.deliver(models.Summaries(lyrics), err)
	case getLyric:
		delivered = c.deliver(readLyricFile(r.lyricPath(c.id)))
	case upsertLyric:
		lyric, err := r.upsertLyric(c.lyric)
		delivered = c.deliver(lyric, r.record(cmd, err))
	case deleteLyric:
		delivered = c.deliver(struct{}{}, r.record(cmd, r.deleteLyric(c.id)))
	case listPlaylists:
		delivered = c.deliver(r.playlists())
	case listPlaylistSummaries:
		playlists, err := r.playlists()
		delivered = c.deliver(models.Summaries(playlists), err)
	case getPlaylist:
		delivered = c.deliver(readPlaylistFile(r.playlistPath(c.id)))
	case upsertPlaylist:
		playlist, err := r.upsertPlaylist(c.playlist)
		delivered = c.deliver(playlist, r.record(cmd, err))
	case deletePlaylist:
		delivered = c.deliver(struct{}{}, r.record(cmd, removeFile(r.playlistPath(c.id))))
	case stop:
		var err error
		if r.journal != nil {
			err = r.journal.Close()
		}
		r.stopped.Store(true)
		if !c.deliver(struct{}{}, err) {
			r.logger.Warn("Could not deliver reply", "command", cmd.name())
		}
		r.logger.Debug("Worker stopped", "dir", r.dir)
		return true
	default:
		delivered = cmd.fail(fmt.Errorf("unknown command %T", cmd))
	}

	if !delivered {
		r.logger.Warn("Could not deliver reply", "command", cmd.name())
	}
	return false
}

// record appends the log entry of a mutation that was applied without error, before its reply is sent.
//
// Rejected and failed mutations are never logged. When the append fails the files already hold the
// change and the caller gets ErrIO; upserts and deletes are safe to retry.
func (r *FileRepo) record(cmd command, applyErr error) error {
	if applyErr != nil || r.journal == nil {
		return applyErr
	}

	entry, ok, err := entryFor(cmd)
	if !ok {
		return nil
	}
	if err == nil {
		err = r.journal.Append(entry)
	}
	if err != nil {
		r.logger.Error("Transaction log append failed", "command", cmd.name(), "error", err)
		return fmt.Errorf("%w: transaction log: %w", models.ErrIO, err)
	}
	return nil
}

func (r *FileRepo) lyricPath(id models.ID) string    { return entityPath(r.dir, id, LyricExtension) }
func (r *FileRepo) playlistPath(id models.ID) string { return entityPath(r.dir, id, PlaylistExtension) }

// files lists the paths in the data directory with the given extension, skipping hidden files
func (r *FileRepo) files(ext string) ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, ioError("read directory", r.dir, err)
	}

	paths := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || filepath.Ext(name) != "."+ext {
			continue
		}
		paths = append(paths, filepath.Join(r.dir, name))
	}
	return paths, nil
}

func (r *FileRepo) lyrics() ([]models.Lyric, error) {
	paths, err := r.files(LyricExtension)
	if err != nil {
		return nil, err
	}

	lyrics := make([]models.Lyric, 0, len(paths))
	for _, path := range paths {
		lyric, err := readLyricFile(path)
		if errors.Is(err, models.ErrMalformed) {
			r.logger.Warn("Skipping unreadable lyric file", "file", filepath.Base(path), "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		lyrics = append(lyrics, lyric)
	}

	slices.SortFunc(lyrics, func(a, b models.Lyric) int { return models.CompareSummaries(a.Summary(), b.Summary()) })
	return lyrics, nil
}

func (r *FileRepo) playlists() ([]models.Playlist, error) {
	paths, err := r.files(PlaylistExtension)
	if err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(paths))
	for _, path := range paths {
		playlist, err := readPlaylistFile(path)
		if errors.Is(err, models.ErrMalformed) {
			r.logger.Warn("Skipping unreadable playlist file", "file", filepath.Base(path), "error", err)
			continue
		}
		if err != nil {
			return nil, err
		}
		playlists = append(playlists, playlist)
	}

	slices.SortFunc(playlists, func(a, b models.Playlist) int { return models.CompareSummaries(a.Summary(), b.Summary()) })
	return playlists, nil
}

// lyricIDs returns the identifiers of all stored lyric files
func (r *FileRepo) lyricIDs() (map[models.ID]struct{}, error) {
	paths, err := r.files(LyricExtension)
	if err != nil {
		return nil, err
	}

	ids := make(map[models.ID]struct{}, len(paths))
	for _, path := range paths {
		if id, err := idFromPath(path); err == nil {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

func (r *FileRepo) upsertLyric(lyric models.Lyric) (models.Lyric, error) {
	if err := lyric.Validate(); err != nil {
		return models.Lyric{}, err
	}

	path := r.lyricPath(lyric.ID)
	if err := writeLyricFile(path, lyric); err != nil {
		return models.Lyric{}, err
	}
	return readLyricFile(path)
}

func (r *FileRepo) upsertPlaylist(playlist models.Playlist) (models.Playlist, error) {
	if err := playlist.Validate(); err != nil {
		return models.Playlist{}, err
	}

	ids, err := r.lyricIDs()
	if err != nil {
		return models.Playlist{}, err
	}
	for _, member := range playlist.Members {
		if _, ok := ids[member]; !ok {
			return models.Playlist{}, models.NewInvalidReferenceError(playlist.ID, member)
		}
	}

	path := r.playlistPath(playlist.ID)
	if err := writePlaylistFile(path, playlist); err != nil {
		return models.Playlist{}, err
	}
	return readPlaylistFile(path)
}

// deleteLyric removes the lyric file and rewrites every playlist that referenced it
func (r *FileRepo) deleteLyric(id models.ID) error {
	if err := removeFile(r.lyricPath(id)); err != nil {
		return err
	}

	playlists, err := r.playlists()
	if err != nil {
		return err
	}
	for _, playlist := range playlists {
		if !playlist.Contains(id) {
			continue
		}
		if err := writePlaylistFile(r.playlistPath(playlist.ID), playlist.Without(id)); err != nil {
			return err
		}
		r.logger.Debug("Removed lyric from playlist", "lyric", id, "playlist", playlist.ID)
	}
	return nil
}

// send enqueues cmd and waits for its reply
func send[T any](ctx context.Context, r *FileRepo, cmd command, rep reply[T]) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, fmt.Errorf("%s: %w: %v", cmd.name(), models.ErrCanceled, err)
	}

	if r.stopped.Load() {
		return zero, fmt.Errorf("%s: %w", cmd.name(), models.ErrStopped)
	}

	select {
	case r.requests <- cmd:
	case <-r.done:
		return zero, fmt.Errorf("%s: %w", cmd.name(), models.ErrStopped)
	case <-ctx.Done():
		return zero, fmt.Errorf("%s: %w: %v", cmd.name(), models.ErrCanceled, ctx.Err())
	}

	select {
	case res := <-rep:
		return res.value, res.err
	case <-ctx.Done():
		return zero, fmt.Errorf("%s: %w: %v", cmd.name(), models.ErrCanceled, ctx.Err())
	case <-r.done:
		select {
		case res := <-rep:
			return res.value, res.err
		default:
			return zero, fmt.Errorf("%s: %w", cmd.name(), models.ErrChannelClosed)
		}
	}
}

// ListLyrics returns all lyrics sorted by title
func (r *FileRepo) ListLyrics(ctx context.Context) ([]models.Lyric, error) {
	cmd := listLyrics{newReply[[]models.Lyric]()}
	return send(ctx, r, cmd, cmd.reply)
}

// ListLyricSummaries returns id and title of all lyrics sorted by title
func (r *FileRepo) ListLyricSummaries(ctx context.Context) ([]models.Summary, error) {
	cmd := listLyricSummaries{newReply[[]models.Summary]()}
	return send(ctx, r, cmd, cmd.reply)
}

func (r *FileRepo) GetLyric(ctx context.Context, id models.ID) (models.Lyric, error) {
	cmd := getLyric{id, newReply[models.Lyric]()}
	return send(ctx, r, cmd, cmd.reply)
}

// UpsertLyric writes the lyric file and returns the lyric as read back from disk
func (r *FileRepo) UpsertLyric(ctx context.Context, lyric models.Lyric) (models.Lyric, error) {
	cmd := upsertLyric{lyric, newReply[models.Lyric]()}
	return send(ctx, r, cmd, cmd.reply)
}

// DeleteLyric removes the lyric and strips it from every playlist. Deleting a missing lyric succeeds.
func (r *FileRepo) DeleteLyric(ctx context.Context, id models.ID) error {
	cmd := deleteLyric{id, newReply[struct{}]()}
	_, err := send(ctx, r, cmd, cmd.reply)
	return err
}

func (r *FileRepo) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	cmd := listPlaylists{newReply[[]models.Playlist]()}
	return send(ctx, r, cmd, cmd.reply)
}

func (r *FileRepo) ListPlaylistSummaries(ctx context.Context) ([]models.Summary, error) {
	cmd := listPlaylistSummaries{newReply[[]models.Summary]()}
	return send(ctx, r, cmd, cmd.reply)
}

func (r *FileRepo) GetPlaylist(ctx context.Context, id models.ID) (models.Playlist, error) {
	cmd := getPlaylist{id, newReply[models.Playlist]()}
	return send(ctx, r, cmd, cmd.reply)
}

// UpsertPlaylist checks that every member is a stored lyric before writing the playlist file
func (r *FileRepo) UpsertPlaylist(ctx context.Context, playlist models.Playlist) (models.Playlist, error) {
	cmd := upsertPlaylist{playlist, newReply[models.Playlist]()}
	return send(ctx, r, cmd, cmd.reply)
}

func (r *FileRepo) DeletePlaylist(ctx context.Context, id models.ID) error {
	cmd := deletePlaylist{id, newReply[struct{}]()}
	_, err := send(ctx, r, cmd, cmd.reply)
	return err
}

// Stop closes the transaction log and ends the worker. Requests still queued fail with [models.ErrChannelClosed].
func (r *FileRepo) Stop(ctx context.Context) error {
	cmd := stop{newReply[struct{}]()}
	_, err := send(ctx, r, cmd, cmd.reply)
	return err
}
