package testing

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/desertthunder/lipl/internal/models"
)

// MockRepository is an in-memory test double for [models.Repository].
//
// Setting Err makes every call fail with it.
type MockRepository struct {
	mu        sync.Mutex
	lyrics    map[models.ID]models.Lyric
	playlists map[models.ID]models.Playlist
	stopped   bool
	Err       error
}

var _ models.Repository = (*MockRepository)(nil)

func NewMockRepository() *MockRepository {
	return &MockRepository{
		lyrics:    make(map[models.ID]models.Lyric),
		playlists: make(map[models.ID]models.Playlist),
	}
}

func (m *MockRepository) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", models.ErrCanceled, err)
	}
	if m.stopped {
		return models.ErrStopped
	}
	return m.Err
}

func (m *MockRepository) ListLyrics(ctx context.Context) ([]models.Lyric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}

	lyrics := make([]models.Lyric, 0, len(m.lyrics))
	for _, l := range m.lyrics {
		lyrics = append(lyrics, l)
	}
	slices.SortFunc(lyrics, func(a, b models.Lyric) int { return models.CompareSummaries(a.Summary(), b.Summary()) })
	return lyrics, nil
}

func (m *MockRepository) ListLyricSummaries(ctx context.Context) ([]models.Summary, error) {
	lyrics, err := m.ListLyrics(ctx)
	return models.Summaries(lyrics), err
}

func (m *MockRepository) GetLyric(ctx context.Context, id models.ID) (models.Lyric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return models.Lyric{}, err
	}

	l, ok := m.lyrics[id]
	if !ok {
		return models.Lyric{}, models.ErrNotFound
	}
	return l, nil
}

func (m *MockRepository) UpsertLyric(ctx context.Context, lyric models.Lyric) (models.Lyric, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return models.Lyric{}, err
	}
	if err := lyric.Validate(); err != nil {
		return models.Lyric{}, err
	}

	lyric.Parts = models.TextToParts(models.PartsToText(lyric.Parts))
	m.lyrics[lyric.ID] = lyric
	return lyric, nil
}

func (m *MockRepository) DeleteLyric(ctx context.Context, id models.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}

	delete(m.lyrics, id)
	for pid, p := range m.playlists {
		if p.Contains(id) {
			m.playlists[pid] = p.Without(id)
		}
	}
	return nil
}

func (m *MockRepository) ListPlaylists(ctx context.Context) ([]models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return nil, err
	}

	playlists := make([]models.Playlist, 0, len(m.playlists))
	for _, p := range m.playlists {
		playlists = append(playlists, p)
	}
	slices.SortFunc(playlists, func(a, b models.Playlist) int { return models.CompareSummaries(a.Summary(), b.Summary()) })
	return playlists, nil
}

func (m *MockRepository) ListPlaylistSummaries(ctx context.Context) ([]models.Summary, error) {
	playlists, err := m.ListPlaylists(ctx)
	return models.Summaries(playlists), err
}

func (m *MockRepository) GetPlaylist(ctx context.Context, id models.ID) (models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return models.Playlist{}, err
	}

	p, ok := m.playlists[id]
	if !ok {
		return models.Playlist{}, models.ErrNotFound
	}
	return p, nil
}

func (m *MockRepository) UpsertPlaylist(ctx context.Context, playlist models.Playlist) (models.Playlist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return models.Playlist{}, err
	}
	if err := playlist.Validate(); err != nil {
		return models.Playlist{}, err
	}

	for _, member := range playlist.Members {
		if _, ok := m.lyrics[member]; !ok {
			return models.Playlist{}, models.NewInvalidReferenceError(playlist.ID, member)
		}
	}
	if playlist.Members == nil {
		playlist.Members = []models.ID{}
	}
	m.playlists[playlist.ID] = playlist
	return playlist, nil
}

func (m *MockRepository) DeletePlaylist(ctx context.Context, id models.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(ctx); err != nil {
		return err
	}

	delete(m.playlists, id)
	return nil
}

func (m *MockRepository) Stop(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return models.ErrStopped
	}
	m.stopped = true
	return nil
}
