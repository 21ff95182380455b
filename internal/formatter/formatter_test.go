package formatter

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
	th "github.com/desertthunder/lipl/internal/testing"
	"gopkg.in/yaml.v3"
)

var (
	lyricOne = models.Lyric{
		ID:    models.MustParseID("3f8a1c52-6a0e-4d6e-9f7b-0a4c2b1e9d01"),
		Title: "Amazing Grace",
		Parts: [][]string{{"Amazing grace", "how sweet the sound"}, {"I once was lost"}},
	}
	lyricTwo = models.Lyric{
		ID:    models.MustParseID("3f8a1c52-6a0e-4d6e-9f7b-0a4c2b1e9d02"),
		Title: "Be Thou My Vision",
		Parts: [][]string{},
	}
	playlist = models.Playlist{
		ID:      models.MustParseID("3f8a1c52-6a0e-4d6e-9f7b-0a4c2b1e9d03"),
		Title:   "Sunday",
		Members: []models.ID{lyricTwo.ID, lyricOne.ID},
	}
	dump = &Dump{
		Lyrics:    []models.Lyric{lyricOne, lyricTwo},
		Playlists: []models.Playlist{playlist, {ID: models.NewID(), Title: "Empty", Members: []models.ID{}}},
	}
)

func TestExporters(t *testing.T) {
	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(dump)
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"Lyrics: 2",
			lyricOne.ID.String() + "  Amazing Grace (2 parts)",
			"Playlists: 2",
			playlist.ID.String() + "  Sunday",
			"    1. Be Thou My Vision\n    2. Amazing Grace\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("text output missing %q, got:\n%s", want, output)
			}
		}
	})

	t.Run("ExportToText with dangling member", func(t *testing.T) {
		missing := models.NewID()
		data, err := ExportToText(&Dump{Playlists: []models.Playlist{{ID: models.NewID(), Title: "P", Members: []models.ID{missing}}}})
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}
		if !strings.Contains(string(data), "1. "+missing.String()) {
			t.Errorf("expected member id fallback, got:\n%s", data)
		}
	})

	t.Run("ExportToYAML", func(t *testing.T) {
		data, err := ExportToYAML(dump)
		if err != nil {
			t.Fatalf("ExportToYAML failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "lyrics:\n") {
			t.Errorf("YAML should start with lyrics, got:\n%s", output)
		}
		if !strings.Contains(output, "id: "+lyricOne.ID.String()) {
			t.Errorf("YAML missing lyric id")
		}

		var decoded Dump
		if err := yaml.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("YAML output does not decode: %v", err)
		}
		if len(decoded.Lyrics) != 2 || len(decoded.Playlists) != 2 {
			t.Fatalf("expected 2 lyrics and 2 playlists, got %d and %d", len(decoded.Lyrics), len(decoded.Playlists))
		}
		if decoded.Lyrics[0].ID != lyricOne.ID || decoded.Lyrics[0].Parts[1][0] != "I once was lost" {
			t.Errorf("unexpected first lyric: %+v", decoded.Lyrics[0])
		}
		members := decoded.Playlists[0].Members
		if len(members) != 2 || members[0] != lyricTwo.ID || members[1] != lyricOne.ID {
			t.Errorf("playlist members out of order: %v", members)
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		data, err := ExportToMarkdown(dump)
		if err != nil {
			t.Fatalf("ExportToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Lyrics\n",
			"## Amazing Grace\n\nAmazing grace  \nhow sweet the sound\n\nI once was lost\n",
			"# Playlists\n",
			"## Sunday\n\n1. Be Thou My Vision\n2. Amazing Grace\n",
			"## Empty\n\n_empty_\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("markdown output missing %q, got:\n%s", want, output)
			}
		}
	})
}

func TestParseFormat(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  Format
		err   bool
	}{
		{name: "empty defaults to text", input: "", want: Text},
		{name: "text", input: "text", want: Text},
		{name: "yml alias", input: "yml", want: YAML},
		{name: "upper case", input: "YAML", want: YAML},
		{name: "md alias", input: "md", want: Markdown},
		{name: "unknown", input: "csv", err: true},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if tt.err {
				if !errors.Is(err, shared.ErrInvalidArgument) {
					t.Errorf("expected ErrInvalidArgument, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestWriteDump(t *testing.T) {
	t.Run("writes each format", func(t *testing.T) {
		for _, format := range Formats {
			var buf bytes.Buffer
			if err := WriteDump(&buf, dump, format); err != nil {
				t.Fatalf("WriteDump(%s) failed: %v", format, err)
			}
			if !strings.Contains(buf.String(), "Amazing Grace") {
				t.Errorf("%s output missing lyric title", format)
			}
		}
	})

	t.Run("unknown format", func(t *testing.T) {
		var buf bytes.Buffer
		if err := WriteDump(&buf, dump, Format("csv")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("write failure", func(t *testing.T) {
		if err := WriteDump(&th.FWriter{}, dump, Text); err == nil {
			t.Error("expected error from failing writer")
		}
	})
}

func TestReadDump(t *testing.T) {
	ctx := context.Background()

	t.Run("loads sorted content", func(t *testing.T) {
		repo := th.NewMockRepository()
		for _, l := range []models.Lyric{lyricTwo, lyricOne} {
			if _, err := repo.UpsertLyric(ctx, l); err != nil {
				t.Fatalf("UpsertLyric failed: %v", err)
			}
		}
		if _, err := repo.UpsertPlaylist(ctx, playlist); err != nil {
			t.Fatalf("UpsertPlaylist failed: %v", err)
		}

		d, err := ReadDump(ctx, repo)
		if err != nil {
			t.Fatalf("ReadDump failed: %v", err)
		}
		if len(d.Lyrics) != 2 || d.Lyrics[0].Title != "Amazing Grace" {
			t.Errorf("unexpected lyrics: %+v", d.Lyrics)
		}
		if len(d.Playlists) != 1 || d.Playlists[0].ID != playlist.ID {
			t.Errorf("unexpected playlists: %+v", d.Playlists)
		}
	})

	t.Run("repository failure", func(t *testing.T) {
		repo := th.NewMockRepository()
		repo.Err = models.ErrIO

		if _, err := ReadDump(ctx, repo); !errors.Is(err, models.ErrIO) {
			t.Errorf("expected ErrIO, got %v", err)
		}
	})
}
