package testing

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/desertthunder/lipl/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RepositoryFactory returns an empty repository. Implementations register their own cleanup.
type RepositoryFactory func(t *testing.T) models.Repository

// RunRepositoryContract checks the behavior every [models.Repository] backend shares.
func RunRepositoryContract(t *testing.T, open RepositoryFactory) {
	t.Run("Upsert And Get Lyric", func(t *testing.T) {
		repo, ctx := open(t), context.Background()
		lyric := models.Lyric{ID: models.NewID(), Title: "Song", Parts: [][]string{{"line1", "line2"}, {"line3"}}}

		stored, err := repo.UpsertLyric(ctx, lyric)
		require.NoError(t, err)
		assert.Equal(t, lyric, stored)

		got, err := repo.GetLyric(ctx, lyric.ID)
		require.NoError(t, err)
		assert.Equal(t, stored, got)
	})

	t.Run("Upsert Lyric Overwrites", func(t *testing.T) {
		repo, ctx := open(t), context.Background()
		id := models.NewID()

		_, err := repo.UpsertLyric(ctx, models.Lyric{ID: id, Title: "First", Parts: [][]string{{"a"}}})
		require.NoError(t, err)
		_, err = repo.UpsertLyric(ctx, models.Lyric{ID: id, Title: "Second", Parts: [][]string{{"b"}}})
		require.NoError(t, err)

		lyrics, err := repo.ListLyrics(ctx)
		require.NoError(t, err)
		require.Len(t, lyrics, 1)
		assert.Equal(t, "Second", lyrics[0].Title)
	})

	t.Run("Get Missing", func(t *testing.T) {
		repo, ctx := open(t), context.Background()

		_, err := repo.GetLyric(ctx, models.NewID())
		assert.ErrorIs(t, err, models.ErrNotFound)

		_, err = repo.GetPlaylist(ctx, models.NewID())
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Reject Entity Without ID", func(t *testing.T) {
		repo, ctx := open(t), context.Background()

		_, err := repo.UpsertLyric(ctx, models.Lyric{Title: "No id"})
		assert.ErrorIs(t, err, models.ErrInvalidEntity)

		_, err = repo.UpsertPlaylist(ctx, models.Playlist{Title: "No id"})
		assert.ErrorIs(t, err, models.ErrInvalidEntity)
	})

	t.Run("Lists Are Sorted By Title", func(t *testing.T) {
		repo, ctx := open(t), context.Background()

		for _, title := range []string{"Charlie", "Alpha", "Bravo"} {
			_, err := repo.UpsertLyric(ctx, models.Lyric{ID: models.NewID(), Title: title, Parts: [][]string{}})
			require.NoError(t, err)
			_, err = repo.UpsertPlaylist(ctx, models.Playlist{ID: models.NewID(), Title: title, Members: []models.ID{}})
			require.NoError(t, err)
		}

		for name, list := range map[string]func(context.Context) ([]models.Summary, error){
			"lyrics":    repo.ListLyricSummaries,
			"playlists": repo.ListPlaylistSummaries,
		} {
			summaries, err := list(ctx)
			require.NoError(t, err, name)
			require.Len(t, summaries, 3, name)
			assert.Equal(t, "Alpha", summaries[0].Title, name)
			assert.Equal(t, "Bravo", summaries[1].Title, name)
			assert.Equal(t, "Charlie", summaries[2].Title, name)
		}
	})

	t.Run("Playlist With Missing Member Is Rejected", func(t *testing.T) {
		repo, ctx := open(t), context.Background()
		lyric := models.Lyric{ID: models.NewID(), Title: "Song", Parts: [][]string{{"x"}}}
		_, err := repo.UpsertLyric(ctx, lyric)
		require.NoError(t, err)

		missing := models.NewID()
		playlist := models.Playlist{ID: models.NewID(), Title: "Bad", Members: []models.ID{lyric.ID, missing}}
		_, err = repo.UpsertPlaylist(ctx, playlist)
		require.ErrorIs(t, err, models.ErrInvalidReference)

		var ref *models.InvalidReferenceError
		require.True(t, errors.As(err, &ref))
		assert.Equal(t, playlist.ID, ref.PlaylistID)
		assert.Equal(t, missing, ref.MemberID)

		_, err = repo.GetPlaylist(ctx, playlist.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)
	})

	t.Run("Rejected Overwrite Keeps Playlist", func(t *testing.T) {
		repo, ctx := open(t), context.Background()
		lyric := models.Lyric{ID: models.NewID(), Title: "Song", Parts: [][]string{{"x"}}}
		_, err := repo.UpsertLyric(ctx, lyric)
		require.NoError(t, err)

		playlist := models.Playlist{ID: models.NewID(), Title: "Mix", Members: []models.ID{lyric.ID}}
		_, err = repo.UpsertPlaylist(ctx, playlist)
		require.NoError(t, err)

		_, err = repo.UpsertPlaylist(ctx, models.Playlist{ID: playlist.ID, Title: "Broken", Members: []models.ID{models.NewID()}})
		require.ErrorIs(t, err, models.ErrInvalidReference)

		got, err := repo.GetPlaylist(ctx, playlist.ID)
		require.NoError(t, err)
		assert.Equal(t, playlist, got)
	})

	t.Run("Delete Lyric Removes Membership", func(t *testing.T) {
		repo, ctx := open(t), context.Background()
		a := models.Lyric{ID: models.NewID(), Title: "A", Parts: [][]string{{"a"}}}
		b := models.Lyric{ID: models.NewID(), Title: "B", Parts: [][]string{{"b"}}}
		for _, l := range []models.Lyric{a, b} {
			_, err := repo.UpsertLyric(ctx, l)
			require.NoError(t, err)
		}

		first := models.Playlist{ID: models.NewID(), Title: "First", Members: []models.ID{a.ID, b.ID, a.ID}}
		second := models.Playlist{ID: models.NewID(), Title: "Second", Members: []models.ID{b.ID}}
		for _, p := range []models.Playlist{first, second} {
			_, err := repo.UpsertPlaylist(ctx, p)
			require.NoError(t, err)
		}

		require.NoError(t, repo.DeleteLyric(ctx, a.ID))

		_, err := repo.GetLyric(ctx, a.ID)
		assert.ErrorIs(t, err, models.ErrNotFound)

		got, err := repo.GetPlaylist(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, []models.ID{b.ID}, got.Members)
		assert.Equal(t, "First", got.Title)

		got, err = repo.GetPlaylist(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, second, got)
	})

	t.Run("Deletes Are Idempotent", func(t *testing.T) {
		repo, ctx := open(t), context.Background()
		lyric := models.Lyric{ID: models.NewID(), Title: "Song", Parts: [][]string{{"x"}}}
		_, err := repo.UpsertLyric(ctx, lyric)
		require.NoError(t, err)
		playlist := models.Playlist{ID: models.NewID(), Title: "Mix", Members: []models.ID{}}
		_, err = repo.UpsertPlaylist(ctx, playlist)
		require.NoError(t, err)

		for range 2 {
			assert.NoError(t, repo.DeleteLyric(ctx, lyric.ID))
			assert.NoError(t, repo.DeletePlaylist(ctx, playlist.ID))
		}
	})

	t.Run("Concurrent Upserts", func(t *testing.T) {
		repo, ctx := open(t), context.Background()
		const n = 25

		ids := make([]models.ID, n)
		errs := make([]error, n)
		var wg sync.WaitGroup
		for i := range n {
			ids[i] = models.NewID()
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, errs[i] = repo.UpsertLyric(ctx, models.Lyric{
					ID: ids[i], Title: fmt.Sprintf("Song %02d", i), Parts: [][]string{{fmt.Sprintf("line %d", i)}},
				})
			}()
		}
		wg.Wait()

		for i, err := range errs {
			require.NoError(t, err, "upsert %d", i)
		}

		lyrics, err := repo.ListLyrics(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, ids, models.IDs(models.Summaries(lyrics)))
	})

	t.Run("Scenario", func(t *testing.T) {
		repo, ctx := open(t), context.Background()
		a1 := models.Lyric{ID: models.NewID(), Title: "Song", Parts: [][]string{{"line1", "line2"}}}

		_, err := repo.UpsertLyric(ctx, a1)
		require.NoError(t, err)
		got, err := repo.GetLyric(ctx, a1.ID)
		require.NoError(t, err)
		assert.Equal(t, a1.Title, got.Title)
		assert.Equal(t, a1.Parts, got.Parts)

		p1 := models.Playlist{ID: models.NewID(), Title: "Mix", Members: []models.ID{a1.ID}}
		_, err = repo.UpsertPlaylist(ctx, p1)
		require.NoError(t, err)

		p2 := models.Playlist{ID: models.NewID(), Title: "Bad", Members: []models.ID{models.NewID()}}
		_, err = repo.UpsertPlaylist(ctx, p2)
		require.ErrorIs(t, err, models.ErrInvalidReference)
		_, err = repo.GetPlaylist(ctx, p2.ID)
		require.ErrorIs(t, err, models.ErrNotFound)

		require.NoError(t, repo.DeleteLyric(ctx, a1.ID))
		got1, err := repo.GetPlaylist(ctx, p1.ID)
		require.NoError(t, err)
		assert.Empty(t, got1.Members)
		assert.NotNil(t, got1.Members)
	})

	t.Run("Canceled Context", func(t *testing.T) {
		repo := open(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := repo.ListLyrics(ctx)
		assert.ErrorIs(t, err, models.ErrCanceled)
	})

	t.Run("Stop", func(t *testing.T) {
		repo, ctx := open(t), context.Background()

		require.NoError(t, repo.Stop(ctx))

		_, err := repo.ListLyrics(ctx)
		assert.ErrorIs(t, err, models.ErrStopped)
		_, err = repo.UpsertLyric(ctx, models.Lyric{ID: models.NewID(), Title: "Late"})
		assert.ErrorIs(t, err, models.ErrStopped)
		assert.ErrorIs(t, repo.Stop(ctx), models.ErrStopped)
	})
}
