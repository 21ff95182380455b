// package models defines the data model for the lyric and playlist store
package models

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// ID is the opaque 128-bit identifier of a [Lyric] or [Playlist].
//
// Its text form is the canonical UUID string, used as file name stem, JSON/YAML value and SQL column value.
type ID uuid.UUID

// NewID generates a new random (v4) [ID]
func NewID() ID {
	return ID(uuid.New())
}

// ParseID parses the canonical text form of an [ID]
func ParseID(s string) (ID, error) {
	u, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return ID{}, fmt.Errorf("invalid id %q: %w", s, err)
	}
	return ID(u), nil
}

// MustParseID is like [ParseID] but panics on invalid input. Intended for tests and constants.
func MustParseID(s string) ID {
	id, err := ParseID(s)
	if err != nil {
		panic(err)
	}
	return id
}

func (id ID) String() string { return uuid.UUID(id).String() }

// IsZero reports whether the identifier was never assigned.
func (id ID) IsZero() bool { return id == ID{} }

func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *ID) UnmarshalText(text []byte) error {
	parsed, err := ParseID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// Value implements [driver.Valuer] so identifiers are stored as text columns.
func (id ID) Value() (driver.Value, error) {
	return id.String(), nil
}

// Scan implements [sql.Scanner] for text and blob columns.
func (id *ID) Scan(src any) error {
	switch v := src.(type) {
	case string:
		return id.UnmarshalText([]byte(v))
	case []byte:
		return id.UnmarshalText(v)
	default:
		return fmt.Errorf("cannot scan %T into ID", src)
	}
}

// Summary is the {id, title} projection of a [Lyric] or [Playlist] used for list views.
type Summary struct {
	ID    ID     `json:"id" yaml:"id"`
	Title string `json:"title" yaml:"title"`
}

// Lyric is a song text. Each part groups consecutive lines, e.g. a verse.
type Lyric struct {
	ID    ID         `json:"id" yaml:"id"`
	Title string     `json:"title" yaml:"title"`
	Parts [][]string `json:"parts" yaml:"parts"`
}

// Summary returns the list projection of the lyric
func (l Lyric) Summary() Summary {
	return Summary{ID: l.ID, Title: l.Title}
}

// Validate checks that the lyric can be persisted
func (l Lyric) Validate() error {
	if l.ID.IsZero() {
		return fmt.Errorf("%w: lyric without id", ErrInvalidEntity)
	}
	return nil
}

// Playlist is an ordered list of lyric identifiers.
//
// Every member must reference an existing [Lyric] when the playlist is upserted.
type Playlist struct {
	ID      ID     `json:"id" yaml:"id"`
	Title   string `json:"title" yaml:"title"`
	Members []ID   `json:"members" yaml:"members"`
}

// Summary returns the list projection of the playlist
func (p Playlist) Summary() Summary {
	return Summary{ID: p.ID, Title: p.Title}
}

// Validate checks that the playlist can be persisted
func (p Playlist) Validate() error {
	if p.ID.IsZero() {
		return fmt.Errorf("%w: playlist without id", ErrInvalidEntity)
	}
	return nil
}

// Contains reports whether id is one of the playlist members
func (p Playlist) Contains(id ID) bool {
	return slices.Contains(p.Members, id)
}

// Without returns a copy of the playlist with every occurrence of id removed from the members
func (p Playlist) Without(id ID) Playlist {
	members := make([]ID, 0, len(p.Members))
	for _, member := range p.Members {
		if member != id {
			members = append(members, member)
		}
	}
	return Playlist{ID: p.ID, Title: p.Title, Members: members}
}

// LyricPost is the body of a request creating a lyric; the server assigns the identifier.
type LyricPost struct {
	Title string     `json:"title"`
	Parts [][]string `json:"parts"`
}

// WithID turns the post into a [Lyric] with the given identifier
func (p LyricPost) WithID(id ID) Lyric {
	return Lyric{ID: id, Title: p.Title, Parts: p.Parts}
}

// PlaylistPost is the body of a request creating a playlist; the server assigns the identifier.
type PlaylistPost struct {
	Title   string `json:"title"`
	Members []ID   `json:"members"`
}

// WithID turns the post into a [Playlist] with the given identifier
func (p PlaylistPost) WithID(id ID) Playlist {
	return Playlist{ID: id, Title: p.Title, Members: p.Members}
}

// Summaries projects lyrics or playlists to their summaries, keeping order.
func Summaries[T interface{ Summary() Summary }](items []T) []Summary {
	summaries := make([]Summary, 0, len(items))
	for _, item := range items {
		summaries = append(summaries, item.Summary())
	}
	return summaries
}

// IDs returns the identifiers of the given summaries
func IDs(summaries []Summary) []ID {
	ids := make([]ID, 0, len(summaries))
	for _, s := range summaries {
		ids = append(ids, s.ID)
	}
	return ids
}

// CompareSummaries orders by title, then by id for equal titles.
func CompareSummaries(a, b Summary) int {
	if c := strings.Compare(a.Title, b.Title); c != 0 {
		return c
	}
	return strings.Compare(a.ID.String(), b.ID.String())
}

// SortSummaries sorts summaries with [CompareSummaries].
func SortSummaries(summaries []Summary) {
	slices.SortFunc(summaries, CompareSummaries)
}
