package ui

import (
	"bytes"
	"strings"
	"testing"

	"github.com/desertthunder/lipl/internal/tasks"
)

// plain renders text without styling
type plain struct{}

func (plain) Title(s string) string { return "# " + s }
func (plain) OK(s string) string    { return s }
func (plain) Err(s string) string   { return s }
func (plain) Warn(s string) string  { return s }
func (plain) Help(s string) string  { return s }

func TestProgressPrinter(t *testing.T) {
	t.Run("prints a heading per phase", func(t *testing.T) {
		var buf bytes.Buffer
		p := NewProgressPrinter(&buf, plain{}, 10)

		p.Updates() <- tasks.ProgressUpdate{Phase: tasks.CopyLyrics, Message: "[1/2] a"}
		p.Updates() <- tasks.ProgressUpdate{Phase: tasks.CopyLyrics, Message: "[2/2] b"}
		p.Updates() <- tasks.ProgressUpdate{Phase: tasks.CopyPlaylists, Message: "[1/1] p"}
		p.Close()

		want := "# Copying lyrics\n  [1/2] a\n  [2/2] b\n# Copying playlists\n  [1/1] p\n"
		if buf.String() != want {
			t.Errorf("expected:\n%s\ngot:\n%s", want, buf.String())
		}
	})

	t.Run("close without updates", func(t *testing.T) {
		var buf bytes.Buffer
		NewProgressPrinter(&buf, nil, 0).Close()
		if buf.Len() != 0 {
			t.Errorf("expected no output, got %q", buf.String())
		}
	})
}

func TestPalette(t *testing.T) {
	p := Styles()
	for _, s := range []string{p.Title("text"), p.OK("text"), p.Err("text"), p.Warn("text"), p.Help("text")} {
		if !strings.Contains(s, "text") {
			t.Errorf("expected rendered text, got %q", s)
		}
	}
}

func TestPhaseTitle(t *testing.T) {
	tc := []struct {
		phase tasks.Phase
		want  string
	}{
		{tasks.ReadFiles, "Reading lyric files"},
		{tasks.UploadLyrics, "Uploading lyrics"},
		{tasks.CopyPlaylists, "Copying playlists"},
		{tasks.Phase(42), ""},
	}

	for _, tt := range tc {
		if got := PhaseTitle(tt.phase); got != tt.want {
			t.Errorf("PhaseTitle(%d) = %q, want %q", tt.phase, got, tt.want)
		}
	}
}
