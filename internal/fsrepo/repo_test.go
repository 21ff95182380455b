package fsrepo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
	tu "github.com/desertthunder/lipl/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openRepo(t *testing.T, dir string) *FileRepo {
	t.Helper()
	repo, err := New(context.Background(), dir, Options{NoSync: true, Logger: shared.DiscardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Stop(context.Background()) })
	return repo
}

func TestFileRepo(t *testing.T) {
	tu.RunRepositoryContract(t, func(t *testing.T) models.Repository {
		return openRepo(t, t.TempDir())
	})

	t.Run("Missing Directory", func(t *testing.T) {
		_, err := New(context.Background(), filepath.Join(t.TempDir(), "nope"), Options{Logger: shared.DiscardLogger()})
		assert.ErrorIs(t, err, models.ErrNoPath)
	})

	t.Run("Path Is A File", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "file")
		tu.MustWriteFile(t, path, "")

		_, err := New(context.Background(), path, Options{Logger: shared.DiscardLogger()})
		assert.ErrorIs(t, err, models.ErrNoPath)
	})

	t.Run("Files On Disk", func(t *testing.T) {
		dir := t.TempDir()
		repo := openRepo(t, dir)
		ctx := context.Background()

		lyric := models.Lyric{ID: models.NewID(), Title: "Song", Parts: [][]string{{"line1", "line2"}}}
		_, err := repo.UpsertLyric(ctx, lyric)
		require.NoError(t, err)
		playlist := models.Playlist{ID: models.NewID(), Title: "Mix", Members: []models.ID{lyric.ID}}
		_, err = repo.UpsertPlaylist(ctx, playlist)
		require.NoError(t, err)

		assert.Equal(t, "---\ntitle: Song\n---\n\nline1\nline2\n", tu.MustReadFile(t, filepath.Join(dir, lyric.ID.String()+".txt")))
		content := tu.MustReadFile(t, filepath.Join(dir, playlist.ID.String()+".yaml"))
		assert.Contains(t, content, "id: "+playlist.ID.String()+"\n")
		assert.Contains(t, content, "title: Mix\n")
		assert.Contains(t, content, "- "+lyric.ID.String()+"\n")
	})

	t.Run("Rejected Playlist Writes No File", func(t *testing.T) {
		dir := t.TempDir()
		repo := openRepo(t, dir)

		id := models.NewID()
		_, err := repo.UpsertPlaylist(context.Background(), models.Playlist{ID: id, Title: "Bad", Members: []models.ID{models.NewID()}})
		require.ErrorIs(t, err, models.ErrInvalidReference)

		tu.AssertFileNotExists(t, filepath.Join(dir, id.String()+".yaml"))
	})

	t.Run("Hand Written Lyric Without Front Matter", func(t *testing.T) {
		dir := t.TempDir()
		id := models.NewID()
		tu.MustWriteFile(t, filepath.Join(dir, id.String()+".txt"), "Amazing Grace\r\n\r\n  How sweet the sound  \r\nThat saved a wretch\r\n\r\n\r\nI once was lost\r\n")
		repo := openRepo(t, dir)

		lyric, err := repo.GetLyric(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "Amazing Grace", lyric.Title)
		assert.Equal(t, [][]string{{"How sweet the sound", "That saved a wretch"}, {"I once was lost"}}, lyric.Parts)
	})

	t.Run("Malformed Files Are Skipped By Lists", func(t *testing.T) {
		dir := t.TempDir()
		tu.MustWriteFile(t, filepath.Join(dir, "not-an-id.txt"), "Title\n\nline\n")
		tu.MustWriteFile(t, filepath.Join(dir, models.NewID().String()+".txt"), "---\ntitle: [unterminated\n")
		tu.MustWriteFile(t, filepath.Join(dir, models.NewID().String()+".yaml"), "members: {not: a list}\n")
		tu.MustWriteFile(t, filepath.Join(dir, "notes.md"), "ignored")
		require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.txt"), 0755))

		repo := openRepo(t, dir)
		ctx := context.Background()
		good := models.Lyric{ID: models.NewID(), Title: "Good", Parts: [][]string{{"ok"}}}
		_, err := repo.UpsertLyric(ctx, good)
		require.NoError(t, err)

		lyrics, err := repo.ListLyrics(ctx)
		require.NoError(t, err)
		assert.Equal(t, []models.Lyric{good}, lyrics)

		playlists, err := repo.ListPlaylistSummaries(ctx)
		require.NoError(t, err)
		assert.Empty(t, playlists)
	})

	t.Run("Get Malformed Lyric", func(t *testing.T) {
		dir := t.TempDir()
		id := models.NewID()
		tu.MustWriteFile(t, filepath.Join(dir, id.String()+".txt"), "---\ntitle: x\n")
		repo := openRepo(t, dir)

		_, err := repo.GetLyric(context.Background(), id)
		assert.ErrorIs(t, err, models.ErrMalformed)
	})

	t.Run("Mutations Are Logged", func(t *testing.T) {
		dir := t.TempDir()
		repo := openRepo(t, dir)
		ctx := context.Background()

		lyric := models.Lyric{ID: models.NewID(), Title: "Song", Parts: [][]string{{"x"}}}
		_, err := repo.UpsertLyric(ctx, lyric)
		require.NoError(t, err)
		_, err = repo.ListLyrics(ctx)
		require.NoError(t, err)
		require.NoError(t, repo.DeleteLyric(ctx, lyric.ID))
		require.NoError(t, repo.DeletePlaylist(ctx, models.NewID()))

		lines := strings.Split(strings.TrimSpace(tu.MustReadFile(t, filepath.Join(dir, TransactionLogName))), "\n")
		require.Len(t, lines, 3)
		assert.Contains(t, lines[0], `"kind":"UpsertLyric"`)
		assert.Contains(t, lines[1], `"kind":"DeleteLyric"`)
		assert.Contains(t, lines[2], `"kind":"DeletePlaylist"`)
	})

	t.Run("Rejected Mutations Are Not Logged", func(t *testing.T) {
		dir := t.TempDir()
		repo := openRepo(t, dir)
		ctx := context.Background()

		missing := models.NewID()
		_, err := repo.UpsertPlaylist(ctx, models.Playlist{ID: models.NewID(), Title: "Bad", Members: []models.ID{missing}})
		require.ErrorIs(t, err, models.ErrInvalidReference)
		_, err = repo.UpsertLyric(ctx, models.Lyric{Title: "No ID"})
		require.ErrorIs(t, err, models.ErrInvalidEntity)

		lyric := models.Lyric{ID: models.NewID(), Title: "Song", Parts: [][]string{{"x"}}}
		_, err = repo.UpsertLyric(ctx, lyric)
		require.NoError(t, err)

		lines := strings.Split(strings.TrimSpace(tu.MustReadFile(t, filepath.Join(dir, TransactionLogName))), "\n")
		require.Len(t, lines, 1)
		assert.Contains(t, lines[0], `"kind":"UpsertLyric"`)
		assert.NotContains(t, lines[0], missing.String())
	})

	t.Run("Failed Log Append Reports IO Error", func(t *testing.T) {
		dir := t.TempDir()
		repo, err := New(context.Background(), dir, Options{Logger: shared.DiscardLogger()})
		require.NoError(t, err)
		require.NoError(t, repo.journal.file.Close())

		lyric := models.Lyric{ID: models.NewID(), Title: "Song", Parts: [][]string{{"x"}}}
		_, err = repo.UpsertLyric(context.Background(), lyric)
		assert.ErrorIs(t, err, models.ErrIO)
		tu.AssertFileExists(t, filepath.Join(dir, lyric.ID.String()+".txt"))

		_, err = repo.ListLyrics(context.Background())
		assert.NoError(t, err)

		assert.Error(t, repo.Stop(context.Background()))
	})
}

func TestRecovery(t *testing.T) {
	t.Run("Replays Log Into Empty Directory", func(t *testing.T) {
		dir := t.TempDir()
		a := models.Lyric{ID: models.NewID(), Title: "A", Parts: [][]string{{"a"}}}
		b := models.Lyric{ID: models.NewID(), Title: "B", Parts: [][]string{{"b"}}}
		p := models.Playlist{ID: models.NewID(), Title: "P", Members: []models.ID{a.ID, b.ID}}

		writeLog(t, dir,
			mustEntry(t, KindUpsertLyric, a),
			mustEntry(t, KindUpsertLyric, b),
			mustEntry(t, KindUpsertPlaylist, p),
			mustEntry(t, KindDeleteLyric, a.ID),
		)
		before := tu.MustReadFile(t, filepath.Join(dir, TransactionLogName))

		repo := openRepo(t, dir)
		ctx := context.Background()

		got, err := repo.GetPlaylist(ctx, p.ID)
		require.NoError(t, err)
		assert.Equal(t, []models.ID{b.ID}, got.Members)

		_, err = repo.GetLyric(ctx, a.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		assert.Equal(t, before, tu.MustReadFile(t, filepath.Join(dir, TransactionLogName)))
	})

	t.Run("Rejected Upsert Stays Rejected After Reopen", func(t *testing.T) {
		dir := t.TempDir()
		ctx := context.Background()
		a := models.Lyric{ID: models.NewID(), Title: "A", Parts: [][]string{{"a"}}}
		p := models.Playlist{ID: models.NewID(), Title: "P", Members: []models.ID{a.ID}}

		repo, err := New(ctx, dir, Options{NoSync: true, Logger: shared.DiscardLogger()})
		require.NoError(t, err)
		_, err = repo.UpsertPlaylist(ctx, p)
		require.ErrorIs(t, err, models.ErrInvalidReference)
		_, err = repo.UpsertLyric(ctx, a)
		require.NoError(t, err)
		require.NoError(t, repo.Stop(ctx))

		reopened := openRepo(t, dir)

		_, err = reopened.GetPlaylist(ctx, p.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
		tu.AssertFileNotExists(t, filepath.Join(dir, p.ID.String()+".yaml"))

		_, err = reopened.GetLyric(ctx, a.ID)
		assert.NoError(t, err)
	})

	t.Run("Rejected Entries Are Skipped", func(t *testing.T) {
		dir := t.TempDir()
		a := models.Lyric{ID: models.NewID(), Title: "A", Parts: [][]string{{"a"}}}
		bad := models.Playlist{ID: models.NewID(), Title: "Bad", Members: []models.ID{models.NewID()}}

		writeLog(t, dir,
			mustEntry(t, KindUpsertPlaylist, bad),
			`{"kind":"Rename","payload":{}}`,
			mustEntry(t, KindUpsertLyric, a),
		)

		repo := openRepo(t, dir)
		ctx := context.Background()

		_, err := repo.GetLyric(ctx, a.ID)
		assert.NoError(t, err)
		_, err = repo.GetPlaylist(ctx, bad.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Torn Tail Stops Replay", func(t *testing.T) {
		dir := t.TempDir()
		a := models.Lyric{ID: models.NewID(), Title: "A", Parts: [][]string{{"a"}}}

		writeLog(t, dir, mustEntry(t, KindUpsertLyric, a), `{"kind":"UpsertLy`)

		repo := openRepo(t, dir)
		_, err := repo.GetLyric(context.Background(), a.ID)
		assert.NoError(t, err)
	})

	t.Run("Reopen Restores State", func(t *testing.T) {
		dir := t.TempDir()
		ctx := context.Background()
		lyric := models.Lyric{ID: models.NewID(), Title: "Song", Parts: [][]string{{"x"}}}

		first, err := New(ctx, dir, Options{NoSync: true, Logger: shared.DiscardLogger()})
		require.NoError(t, err)
		_, err = first.UpsertLyric(ctx, lyric)
		require.NoError(t, err)
		require.NoError(t, first.Stop(ctx))

		require.NoError(t, os.Remove(filepath.Join(dir, lyric.ID.String()+".txt")))

		second := openRepo(t, dir)
		got, err := second.GetLyric(ctx, lyric.ID)
		require.NoError(t, err)
		assert.Equal(t, lyric, got)
	})

	t.Run("Canceled Replay", func(t *testing.T) {
		dir := t.TempDir()
		writeLog(t, dir, mustEntry(t, KindDeletePlaylist, models.NewID()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := New(ctx, dir, Options{Logger: shared.DiscardLogger()})
		assert.ErrorIs(t, err, models.ErrCanceled)
	})
}

func mustEntry(t *testing.T, kind Kind, payload any) string {
	t.Helper()
	entry, err := NewEntry(kind, payload)
	require.NoError(t, err)
	return `{"kind":"` + string(entry.Kind) + `","payload":` + string(entry.Payload) + `}`
}

func writeLog(t *testing.T, dir string, lines ...string) {
	t.Helper()
	tu.MustWriteFile(t, filepath.Join(dir, TransactionLogName), strings.Join(lines, "\n")+"\n")
}
