// package formatter renders the contents of a repository as plain text, YAML or Markdown
package formatter

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
	"gopkg.in/yaml.v3"
)

// Format names an output format of [WriteDump]
type Format string

const (
	Text     Format = "text"
	YAML     Format = "yaml"
	Markdown Format = "markdown"
)

// Formats lists the supported format names
var Formats = []Format{Text, YAML, Markdown}

// ParseFormat accepts a format name, "md" and "yml" included. An empty name is [Text].
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "text", "txt":
		return Text, nil
	case "yaml", "yml":
		return YAML, nil
	case "markdown", "md":
		return Markdown, nil
	default:
		return "", fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, name)
	}
}

// Dump is every lyric and playlist of a repository
type Dump struct {
	Lyrics    []models.Lyric    `yaml:"lyrics"`
	Playlists []models.Playlist `yaml:"playlists"`
}

// ReadDump loads all lyrics and playlists from repo
func ReadDump(ctx context.Context, repo models.Repository) (*Dump, error) {
	lyrics, err := repo.ListLyrics(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list lyrics: %w", err)
	}

	playlists, err := repo.ListPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}

	return &Dump{Lyrics: lyrics, Playlists: playlists}, nil
}

// titles maps lyric ids to titles for playlist rendering
func (d *Dump) titles() map[models.ID]string {
	titles := make(map[models.ID]string, len(d.Lyrics))
	for _, l := range d.Lyrics {
		titles[l.ID] = l.Title
	}
	return titles
}

// memberTitle falls back to the id for members missing from the dump
func memberTitle(titles map[models.ID]string, id models.ID) string {
	if title, ok := titles[id]; ok {
		return title
	}
	return id.String()
}

// ExportToText renders the dump as a summary tree with the members under each playlist
func ExportToText(d *Dump) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Lyrics: %d\n", len(d.Lyrics)))
	for _, l := range d.Lyrics {
		buf.WriteString(fmt.Sprintf("  %s  %s (%d parts)\n", l.ID, l.Title, len(l.Parts)))
	}

	titles := d.titles()
	buf.WriteString(fmt.Sprintf("\nPlaylists: %d\n", len(d.Playlists)))
	for _, p := range d.Playlists {
		buf.WriteString(fmt.Sprintf("  %s  %s\n", p.ID, p.Title))
		for i, member := range p.Members {
			buf.WriteString(fmt.Sprintf("    %d. %s\n", i+1, memberTitle(titles, member)))
		}
	}

	return buf.Bytes(), nil
}

// ExportToYAML renders the dump as a single YAML document
func ExportToYAML(d *Dump) ([]byte, error) {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode YAML: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown renders every lyric with its text, followed by the playlists as numbered lists
func ExportToMarkdown(d *Dump) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Lyrics\n")
	for _, l := range d.Lyrics {
		buf.WriteString(fmt.Sprintf("\n## %s\n\n", l.Title))
		for i, part := range l.Parts {
			if i > 0 {
				buf.WriteString("\n")
			}
			// Trailing double spaces keep the line breaks
			buf.WriteString(strings.Join(part, "  \n"))
			buf.WriteString("\n")
		}
	}

	titles := d.titles()
	buf.WriteString("\n# Playlists\n")
	for _, p := range d.Playlists {
		buf.WriteString(fmt.Sprintf("\n## %s\n\n", p.Title))
		if len(p.Members) == 0 {
			buf.WriteString("_empty_\n")
			continue
		}
		for i, member := range p.Members {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, memberTitle(titles, member)))
		}
	}

	return buf.Bytes(), nil
}

// Export renders the dump in the given format
func Export(d *Dump, format Format) ([]byte, error) {
	switch format {
	case Text:
		return ExportToText(d)
	case YAML:
		return ExportToYAML(d)
	case Markdown:
		return ExportToMarkdown(d)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidArgument, format)
	}
}

// WriteDump renders the dump in the given format and writes it to w
func WriteDump(w io.Writer, d *Dump, format Format) error {
	data, err := Export(d, format)
	if err != nil {
		return err
	}

	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s output: %w", format, err)
	}
	return nil
}
