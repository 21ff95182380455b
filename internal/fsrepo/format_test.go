package fsrepo

import (
	"bytes"
	"strings"
	"testing"

	"github.com/desertthunder/lipl/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLyric(t *testing.T) {
	tc := []struct {
		name  string
		input string
		title string
		parts [][]string
	}{
		{
			name:  "front matter",
			input: "---\ntitle: Song\n---\n\nline1\nline2\n\nline3\n",
			title: "Song",
			parts: [][]string{{"line1", "line2"}, {"line3"}},
		},
		{
			name:  "quoted title",
			input: "---\ntitle: \"Psalm 23: The Lord\"\n---\nline\n",
			title: "Psalm 23: The Lord",
			parts: [][]string{{"line"}},
		},
		{
			name:  "first line is title",
			input: "\n\nSong\nline1\n\nline2\n",
			title: "Song",
			parts: [][]string{{"line1"}, {"line2"}},
		},
		{
			name:  "empty",
			input: "",
			title: "",
			parts: [][]string{},
		},
		{
			name:  "front matter without parts",
			input: "---\ntitle: Empty\n---\n",
			title: "Empty",
			parts: [][]string{},
		},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			title, parts, err := ParseLyric(strings.NewReader(tt.input))
			require.NoError(t, err)
			assert.Equal(t, tt.title, title)
			assert.Equal(t, tt.parts, parts)
		})
	}

	t.Run("unterminated front matter", func(t *testing.T) {
		_, _, err := ParseLyric(strings.NewReader("---\ntitle: x\nline\n"))
		assert.ErrorIs(t, err, models.ErrMalformed)
	})

	t.Run("invalid yaml", func(t *testing.T) {
		_, _, err := ParseLyric(strings.NewReader("---\ntitle: [x\n---\n"))
		assert.ErrorIs(t, err, models.ErrMalformed)
	})
}

func TestFormatLyric(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		lyric := models.Lyric{ID: models.NewID(), Title: "key: value", Parts: [][]string{{"a", "b"}, {}, {"c"}}}

		var buf bytes.Buffer
		require.NoError(t, FormatLyric(&buf, lyric))

		title, parts, err := ParseLyric(&buf)
		require.NoError(t, err)
		assert.Equal(t, lyric.Title, title)
		assert.Equal(t, [][]string{{"a", "b"}, {"c"}}, parts)
	})

	t.Run("no parts", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, FormatLyric(&buf, models.Lyric{Title: "Empty"}))
		assert.Equal(t, "---\ntitle: Empty\n---\n", buf.String())
	})
}

func TestParsePlaylist(t *testing.T) {
	id := models.NewID()
	member := models.NewID()

	t.Run("id from document", func(t *testing.T) {
		input := "id: " + id.String() + "\ntitle: Mix\nmembers:\n  - " + member.String() + "\n"
		playlist, err := ParsePlaylist(strings.NewReader(input), id)
		require.NoError(t, err)
		assert.Equal(t, models.Playlist{ID: id, Title: "Mix", Members: []models.ID{member}}, playlist)
	})

	t.Run("id from file name", func(t *testing.T) {
		playlist, err := ParsePlaylist(strings.NewReader("title: Mix\n"), id)
		require.NoError(t, err)
		assert.Equal(t, id, playlist.ID)
		assert.Equal(t, []models.ID{}, playlist.Members)
	})

	tc := []struct {
		name  string
		input string
	}{
		{name: "mismatched id", input: "id: " + member.String() + "\n"},
		{name: "invalid id", input: "id: nope\n"},
		{name: "invalid member", input: "members: [nope]\n"},
		{name: "not a mapping", input: "- a\n- b\n"},
	}
	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlaylist(strings.NewReader(tt.input), id)
			assert.ErrorIs(t, err, models.ErrMalformed)
		})
	}

	t.Run("format round trip", func(t *testing.T) {
		playlist := models.Playlist{ID: id, Title: "Mix", Members: []models.ID{member, member}}

		var buf bytes.Buffer
		require.NoError(t, FormatPlaylist(&buf, playlist))

		got, err := ParsePlaylist(&buf, models.ID{})
		require.NoError(t, err)
		assert.Equal(t, playlist, got)
	})
}
