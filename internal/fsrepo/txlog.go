package fsrepo

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lipl/internal/models"
)

// Kind names the mutation recorded by a transaction log entry
type Kind string

const (
	KindUpsertLyric    Kind = "UpsertLyric"
	KindDeleteLyric    Kind = "DeleteLyric"
	KindUpsertPlaylist Kind = "UpsertPlaylist"
	KindDeletePlaylist Kind = "DeletePlaylist"
)

// Entry is one line of the transaction log.
//
// Upserts carry the full entity as payload, deletes carry the identifier.
type Entry struct {
	Kind    Kind            `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// NewEntry encodes payload into an entry of the given kind
func NewEntry(kind Kind, payload any) (Entry, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode %s entry: %w", kind, err)
	}
	return Entry{Kind: kind, Payload: data}, nil
}

// Apply replays the entry against repo
func (e Entry) Apply(ctx context.Context, repo models.Repository) error {
	switch e.Kind {
	case KindUpsertLyric:
		var lyric models.Lyric
		if err := json.Unmarshal(e.Payload, &lyric); err != nil {
			return fmt.Errorf("%w: %s payload: %v", models.ErrMalformed, e.Kind, err)
		}
		_, err := repo.UpsertLyric(ctx, lyric)
		return err
	case KindDeleteLyric:
		var id models.ID
		if err := json.Unmarshal(e.Payload, &id); err != nil {
			return fmt.Errorf("%w: %s payload: %v", models.ErrMalformed, e.Kind, err)
		}
		return repo.DeleteLyric(ctx, id)
	case KindUpsertPlaylist:
		var playlist models.Playlist
		if err := json.Unmarshal(e.Payload, &playlist); err != nil {
			return fmt.Errorf("%w: %s payload: %v", models.ErrMalformed, e.Kind, err)
		}
		_, err := repo.UpsertPlaylist(ctx, playlist)
		return err
	case KindDeletePlaylist:
		var id models.ID
		if err := json.Unmarshal(e.Payload, &id); err != nil {
			return fmt.Errorf("%w: %s payload: %v", models.ErrMalformed, e.Kind, err)
		}
		return repo.DeletePlaylist(ctx, id)
	default:
		return fmt.Errorf("%w: unknown entry kind %q", models.ErrMalformed, e.Kind)
	}
}

// ReplayStats summarizes a replay run
type ReplayStats struct {
	Applied  int
	Rejected int
	Torn     bool
}

// Replay reads entries from r in order and applies each to repo.
//
// Entries that fail to apply are logged and skipped. A line that cannot be decoded ends the replay,
// since only the final append can be torn by a crash.
func Replay(ctx context.Context, r io.Reader, repo models.Repository, logger *log.Logger) (ReplayStats, error) {
	var stats ReplayStats
	dec := json.NewDecoder(bufio.NewReader(r))

	for line := 1; ; line++ {
		if err := ctx.Err(); err != nil {
			return stats, fmt.Errorf("%w: replay interrupted: %v", models.ErrCanceled, err)
		}

		var entry Entry
		err := dec.Decode(&entry)
		if errors.Is(err, io.EOF) {
			return stats, nil
		}
		if err != nil {
			logger.Warn("Transaction log ends with an unreadable entry, stopping replay", "entry", line, "error", err)
			stats.Torn = true
			return stats, nil
		}

		if err := entry.Apply(ctx, repo); err != nil {
			if errors.Is(err, models.ErrStopped) || errors.Is(err, models.ErrCanceled) {
				return stats, err
			}
			logger.Warn("Skipping transaction log entry", "entry", line, "kind", entry.Kind, "error", err)
			stats.Rejected++
			continue
		}
		stats.Applied++
	}
}

// pending is an entry waiting for the journal writer
type pending struct {
	entry Entry
	ack   chan error
}

// journal appends entries to the transaction log from a dedicated writer goroutine.
//
// Only the storage worker calls Append and Close.
type journal struct {
	file    *os.File
	sync    bool
	entries chan pending
	done    chan struct{}
	logger  *log.Logger
}

// openJournal opens the log at path for appending, creating it when missing
func openJournal(path string, sync bool, logger *log.Logger) (*journal, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, ioError("open transaction log", path, err)
	}

	j := &journal{
		file:    f,
		sync:    sync,
		entries: make(chan pending),
		done:    make(chan struct{}),
		logger:  logger,
	}
	go j.run()
	return j, nil
}

func (j *journal) run() {
	defer close(j.done)

	enc := json.NewEncoder(j.file)
	for p := range j.entries {
		err := enc.Encode(p.entry)
		if err == nil && j.sync {
			err = j.file.Sync()
		}
		if err != nil {
			err = ioError("append to", j.file.Name(), err)
		}
		p.ack <- err
	}
}

// Append writes entry and blocks until it is on disk
func (j *journal) Append(entry Entry) error {
	p := pending{entry: entry, ack: make(chan error, 1)}
	j.entries <- p
	return <-p.ack
}

// Close stops the writer and closes the file
func (j *journal) Close() error {
	close(j.entries)
	<-j.done

	if err := j.file.Close(); err != nil {
		return ioError("close", j.file.Name(), err)
	}
	j.logger.Debug("Closed transaction log", "path", j.file.Name())
	return nil
}
