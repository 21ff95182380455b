package fsrepo

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/desertthunder/lipl/internal/models"
	"gopkg.in/yaml.v3"
)

const (
	// LyricExtension is the file extension of lyric files
	LyricExtension = "txt"
	// PlaylistExtension is the file extension of playlist files
	PlaylistExtension = "yaml"
	// TransactionLogName is the name of the transaction log at the data directory root
	TransactionLogName = ".transaction.log"

	frontMatterDelimiter = "---"
)

// frontMatter is the YAML header of a lyric file
type frontMatter struct {
	Title string `yaml:"title"`
}

// playlistDocument is the on-disk YAML form of a playlist
type playlistDocument struct {
	ID      string   `yaml:"id"`
	Title   string   `yaml:"title"`
	Members []string `yaml:"members"`
}

// ParseLyric reads the text form of a lyric and returns its title and parts.
//
// A leading front matter block delimited by "---" lines supplies the title. Without front matter the
// first non-blank line is the title. The remaining text is split into parts on blank lines.
func ParseLyric(r io.Reader) (string, [][]string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, err
	}

	lines := strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n")

	start := 0
	for start < len(lines) && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	if start == len(lines) {
		return "", [][]string{}, nil
	}

	if strings.TrimSpace(lines[start]) != frontMatterDelimiter {
		title := strings.TrimSpace(lines[start])
		return title, models.TextToParts(strings.Join(lines[start+1:], "\n")), nil
	}

	end := -1
	for i := start + 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == frontMatterDelimiter {
			end = i
			break
		}
	}
	if end < 0 {
		return "", nil, fmt.Errorf("%w: unterminated front matter", models.ErrMalformed)
	}

	var fm frontMatter
	if err := yaml.Unmarshal([]byte(strings.Join(lines[start+1:end], "\n")), &fm); err != nil {
		return "", nil, fmt.Errorf("%w: front matter: %v", models.ErrMalformed, err)
	}

	return strings.TrimSpace(fm.Title), models.TextToParts(strings.Join(lines[end+1:], "\n")), nil
}

// FormatLyric renders a lyric as front matter followed by its parts.
func FormatLyric(w io.Writer, lyric models.Lyric) error {
	header, err := yaml.Marshal(frontMatter{Title: lyric.Title})
	if err != nil {
		return fmt.Errorf("failed to encode front matter: %w", err)
	}

	bw := bufio.NewWriter(w)
	bw.WriteString(frontMatterDelimiter + "\n")
	bw.Write(header)
	bw.WriteString(frontMatterDelimiter + "\n")

	if text := models.PartsToText(lyric.Parts); text != "" {
		bw.WriteString("\n")
		bw.WriteString(text)
		bw.WriteString("\n")
	}

	return bw.Flush()
}

// ParsePlaylist decodes the YAML form of a playlist.
//
// A document without id takes the id from fallback, the file name stem.
// A document whose id differs from a non-zero fallback is malformed.
func ParsePlaylist(r io.Reader, fallback models.ID) (models.Playlist, error) {
	var doc playlistDocument
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return models.Playlist{}, fmt.Errorf("%w: %v", models.ErrMalformed, err)
	}

	id := fallback
	if doc.ID != "" {
		parsed, err := models.ParseID(doc.ID)
		if err != nil {
			return models.Playlist{}, fmt.Errorf("%w: %v", models.ErrMalformed, err)
		}
		if !fallback.IsZero() && parsed != fallback {
			return models.Playlist{}, fmt.Errorf("%w: id %s does not match file name %s", models.ErrMalformed, parsed, fallback)
		}
		id = parsed
	}
	if id.IsZero() {
		return models.Playlist{}, fmt.Errorf("%w: playlist without id", models.ErrMalformed)
	}

	members := make([]models.ID, 0, len(doc.Members))
	for _, member := range doc.Members {
		memberID, err := models.ParseID(member)
		if err != nil {
			return models.Playlist{}, fmt.Errorf("%w: member: %v", models.ErrMalformed, err)
		}
		members = append(members, memberID)
	}

	return models.Playlist{ID: id, Title: doc.Title, Members: members}, nil
}

// FormatPlaylist renders a playlist as a YAML document.
func FormatPlaylist(w io.Writer, playlist models.Playlist) error {
	doc := playlistDocument{
		ID:      playlist.ID.String(),
		Title:   playlist.Title,
		Members: make([]string, 0, len(playlist.Members)),
	}
	for _, member := range playlist.Members {
		doc.Members = append(doc.Members, member.String())
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode playlist: %w", err)
	}
	return enc.Close()
}

// entityPath returns <dir>/<id>.<ext>
func entityPath(dir string, id models.ID, ext string) string {
	return filepath.Join(dir, id.String()+"."+ext)
}

// idFromPath parses the identifier from a file name stem
func idFromPath(path string) (models.ID, error) {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	id, err := models.ParseID(stem)
	if err != nil {
		return models.ID{}, fmt.Errorf("%w: file %s has invalid stem", models.ErrMalformed, filepath.Base(path))
	}
	return id, nil
}

// readLyricFile reads the lyric stored at path
func readLyricFile(path string) (models.Lyric, error) {
	id, err := idFromPath(path)
	if err != nil {
		return models.Lyric{}, err
	}

	f, err := openFile(path)
	if err != nil {
		return models.Lyric{}, err
	}
	defer f.Close()

	title, parts, err := ParseLyric(f)
	if err != nil {
		if errors.Is(err, models.ErrMalformed) {
			return models.Lyric{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
		}
		return models.Lyric{}, ioError("read", path, err)
	}

	return models.Lyric{ID: id, Title: title, Parts: parts}, nil
}

// readPlaylistFile reads the playlist stored at path
func readPlaylistFile(path string) (models.Playlist, error) {
	id, err := idFromPath(path)
	if err != nil {
		return models.Playlist{}, err
	}

	f, err := openFile(path)
	if err != nil {
		return models.Playlist{}, err
	}
	defer f.Close()

	playlist, err := ParsePlaylist(f, id)
	if err != nil {
		return models.Playlist{}, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return playlist, nil
}

// writeLyricFile persists a lyric at path, replacing any previous file atomically
func writeLyricFile(path string, lyric models.Lyric) error {
	var buf bytes.Buffer
	if err := FormatLyric(&buf, lyric); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

// writePlaylistFile persists a playlist at path, replacing any previous file atomically
func writePlaylistFile(path string, playlist models.Playlist) error {
	var buf bytes.Buffer
	if err := FormatPlaylist(&buf, playlist); err != nil {
		return err
	}
	return writeFileAtomic(path, buf.Bytes())
}

// openFile opens path for reading, mapping a missing file to [models.ErrNotFound]
func openFile(path string) (*os.File, error) {
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), models.ErrNotFound)
	}
	if err != nil {
		return nil, ioError("open", path, err)
	}
	return f, nil
}

// writeFileAtomic writes data to a hidden temporary file in the same directory, syncs it and renames it over path.
//
// Temporary files start with a dot and carry no entity extension, so listings never pick them up.
func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".tmp-*")
	if err != nil {
		return ioError("create temporary file for", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ioError("write", path, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return ioError("sync", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return ioError("close", path, err)
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return ioError("chmod", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return ioError("rename", path, err)
	}
	return nil
}

// removeFile deletes path; a missing file is not an error
func removeFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return ioError("remove", path, err)
	}
	return nil
}

// ioError wraps a filesystem failure as [models.ErrIO]
func ioError(op, path string, err error) error {
	return fmt.Errorf("%w: failed to %s %s: %w", models.ErrIO, op, path, err)
}
