package fsrepo

import "github.com/desertthunder/lipl/internal/models"

// result carries a command outcome back to the caller
type result[T any] struct {
	value T
	err   error
}

// reply is a single-use channel with capacity one, so the worker never blocks on delivery
type reply[T any] chan result[T]

func newReply[T any]() reply[T] { return make(reply[T], 1) }

// deliver hands the outcome to the caller and reports whether it was accepted
func (r reply[T]) deliver(value T, err error) bool {
	select {
	case r <- result[T]{value: value, err: err}:
		return true
	default:
		return false
	}
}

// fail delivers err with a zero value
func (r reply[T]) fail(err error) bool {
	var zero T
	return r.deliver(zero, err)
}

// command is a request processed by the storage worker
type command interface {
	name() string
	fail(err error) bool
}

type (
	listLyrics struct {
		reply[[]models.Lyric]
	}
	listLyricSummaries struct {
		reply[[]models.Summary]
	}
	getLyric struct {
		id models.ID
		reply[models.Lyric]
	}
	upsertLyric struct {
		lyric models.Lyric
		reply[models.Lyric]
	}
	deleteLyric struct {
		id models.ID
		reply[struct{}]
	}
	listPlaylists struct {
		reply[[]models.Playlist]
	}
	listPlaylistSummaries struct {
		reply[[]models.Summary]
	}
	getPlaylist struct {
		id models.ID
		reply[models.Playlist]
	}
	upsertPlaylist struct {
		playlist models.Playlist
		reply[models.Playlist]
	}
	deletePlaylist struct {
		id models.ID
		reply[struct{}]
	}
	stop struct {
		reply[struct{}]
	}
)

func (listLyrics) name() string            { return "list lyrics" }
func (listLyricSummaries) name() string    { return "list lyric summaries" }
func (getLyric) name() string              { return "get lyric" }
func (upsertLyric) name() string           { return "upsert lyric" }
func (deleteLyric) name() string           { return "delete lyric" }
func (listPlaylists) name() string         { return "list playlists" }
func (listPlaylistSummaries) name() string { return "list playlist summaries" }
func (getPlaylist) name() string           { return "get playlist" }
func (upsertPlaylist) name() string        { return "upsert playlist" }
func (deletePlaylist) name() string        { return "delete playlist" }
func (stop) name() string                  { return "stop" }

// entryFor returns the transaction log entry for mutating commands
func entryFor(cmd command) (Entry, bool, error) {
	var (
		entry Entry
		err   error
	)
	switch c := cmd.(type) {
	case upsertLyric:
		entry, err = NewEntry(KindUpsertLyric, c.lyric)
	case deleteLyric:
		entry, err = NewEntry(KindDeleteLyric, c.id)
	case upsertPlaylist:
		entry, err = NewEntry(KindUpsertPlaylist, c.playlist)
	case deletePlaylist:
		entry, err = NewEntry(KindDeletePlaylist, c.id)
	default:
		return Entry{}, false, nil
	}
	return entry, true, err
}
