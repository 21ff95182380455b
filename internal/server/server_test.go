package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/lipl/internal/fsrepo"
	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
	tu "github.com/desertthunder/lipl/internal/testing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&v), rec.Body.String())
	return v
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method Patterns", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/thing", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("get"))
		}))
		router.Handle(http.MethodPost, "/thing", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("post"))
		}))

		assert.Equal(t, "get", do(t, router, http.MethodGet, "/thing", "").Body.String())
		assert.Equal(t, "post", do(t, router, http.MethodPost, "/thing", "").Body.String())
		assert.Equal(t, http.StatusMethodNotAllowed, do(t, router, http.MethodDelete, "/thing", "").Code)
	})

	t.Run("Middleware Order", func(t *testing.T) {
		var order []string
		mark := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}

		router := NewBasicRouter()
		router.Use(mark("first"), mark("second"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			order = append(order, "handler")
		}))

		do(t, router, http.MethodGet, "/", "")
		assert.Equal(t, []string{"first", "second", "handler"}, order)
	})

	t.Run("Recover", func(t *testing.T) {
		router := NewBasicRouter()
		router.Use(Recover(shared.DiscardLogger()), Logging(shared.DiscardLogger()))
		router.Handle(http.MethodGet, "/boom", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic("boom")
		}))

		rec := do(t, router, http.MethodGet, "/boom", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "internal server error", decodeBody[errorBody](t, rec).Error)
	})
}

func TestStatusFor(t *testing.T) {
	tc := []struct {
		err      error
		expected int
	}{
		{err: models.ErrNotFound, expected: http.StatusNotFound},
		{err: models.NewInvalidReferenceError(models.NewID(), models.NewID()), expected: http.StatusUnprocessableEntity},
		{err: models.ErrInvalidEntity, expected: http.StatusBadRequest},
		{err: shared.ErrInvalidInput, expected: http.StatusBadRequest},
		{err: models.ErrStopped, expected: http.StatusServiceUnavailable},
		{err: models.ErrChannelClosed, expected: http.StatusServiceUnavailable},
		{err: models.ErrCanceled, expected: http.StatusServiceUnavailable},
		{err: models.ErrIO, expected: http.StatusInternalServerError},
		{err: errors.New("other"), expected: http.StatusInternalServerError},
	}

	for _, tt := range tc {
		t.Run(tt.err.Error(), func(t *testing.T) {
			assert.Equal(t, tt.expected, StatusFor(tt.err))
		})
	}
}

type brokenWriter struct {
	header http.Header
	status int
}

func (w *brokenWriter) Header() http.Header       { return w.header }
func (w *brokenWriter) WriteHeader(status int)    { w.status = status }
func (w *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestWriteJSON(t *testing.T) {
	t.Run("Write Failure Is Logged", func(t *testing.T) {
		var buf bytes.Buffer
		w := &brokenWriter{header: http.Header{}}

		writeJSON(w, shared.NewLogger(&buf), http.StatusOK, map[string]string{"title": "Hymn"})

		assert.Equal(t, http.StatusOK, w.status)
		assert.Equal(t, "application/json", w.header.Get("Content-Type"))
		assert.Contains(t, buf.String(), "Failed to write response")
		assert.Contains(t, buf.String(), "connection reset")
	})

	t.Run("Unencodable Value Is Logged", func(t *testing.T) {
		var buf bytes.Buffer
		rec := httptest.NewRecorder()

		writeJSON(rec, shared.NewLogger(&buf), http.StatusOK, map[string]any{"bad": make(chan int)})

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, buf.String(), "Failed to write response")
	})

	t.Run("Nil Body", func(t *testing.T) {
		var buf bytes.Buffer
		rec := httptest.NewRecorder()

		writeJSON(rec, shared.NewLogger(&buf), http.StatusNoContent, nil)

		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Body.String())
		assert.Empty(t, buf.String())
	})
}

func TestLyricRoutes(t *testing.T) {
	t.Run("Create Get List", func(t *testing.T) {
		repo := tu.NewMockRepository()
		router := NewRouter(repo, shared.DiscardLogger())

		rec := do(t, router, http.MethodPost, "/api/v1/lyric", `{"title":"Song","parts":[["line1","line2"]]}`)
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		created := decodeBody[models.Lyric](t, rec)
		assert.False(t, created.ID.IsZero())
		assert.Equal(t, "/api/v1/lyric/"+created.ID.String(), rec.Header().Get("Location"))

		rec = do(t, router, http.MethodGet, "/api/v1/lyric/"+created.ID.String(), "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, created, decodeBody[models.Lyric](t, rec))

		rec = do(t, router, http.MethodGet, "/api/v1/lyric", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []models.Summary{created.Summary()}, decodeBody[[]models.Summary](t, rec))

		rec = do(t, router, http.MethodGet, "/api/v1/lyric?full=true", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []models.Lyric{created}, decodeBody[[]models.Lyric](t, rec))
	})

	t.Run("Put", func(t *testing.T) {
		repo := tu.NewMockRepository()
		router := NewRouter(repo, shared.DiscardLogger())
		id := models.NewID()

		rec := do(t, router, http.MethodPut, "/api/v1/lyric/"+id.String(), `{"title":"Song","parts":[["a"]]}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, id, decodeBody[models.Lyric](t, rec).ID)

		rec = do(t, router, http.MethodPut, "/api/v1/lyric/"+id.String(), `{"id":"`+models.NewID().String()+`","title":"x","parts":[]}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("Errors", func(t *testing.T) {
		repo := tu.NewMockRepository()
		router := NewRouter(repo, shared.DiscardLogger())

		tc := []struct {
			name   string
			method string
			path   string
			body   string
			status int
		}{
			{name: "missing lyric", method: http.MethodGet, path: "/api/v1/lyric/" + models.NewID().String(), status: http.StatusNotFound},
			{name: "bad id", method: http.MethodGet, path: "/api/v1/lyric/nope", status: http.StatusBadRequest},
			{name: "bad json", method: http.MethodPost, path: "/api/v1/lyric", body: `{"title":`, status: http.StatusBadRequest},
			{name: "unknown field", method: http.MethodPost, path: "/api/v1/lyric", body: `{"name":"x"}`, status: http.StatusBadRequest},
			{name: "trailing data", method: http.MethodPost, path: "/api/v1/lyric", body: `{"title":"x"} {}`, status: http.StatusBadRequest},
			{name: "bad full flag", method: http.MethodGet, path: "/api/v1/lyric?full=maybe", status: http.StatusBadRequest},
			{name: "method not allowed", method: http.MethodPatch, path: "/api/v1/lyric", status: http.StatusMethodNotAllowed},
			{name: "delete missing", method: http.MethodDelete, path: "/api/v1/lyric/" + models.NewID().String(), status: http.StatusNoContent},
		}

		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				rec := do(t, router, tt.method, tt.path, tt.body)
				assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			})
		}
	})

	t.Run("Repository Failure", func(t *testing.T) {
		repo := tu.NewMockRepository()
		repo.Err = models.ErrIO
		router := NewRouter(repo, shared.DiscardLogger())

		rec := do(t, router, http.MethodGet, "/api/v1/lyric", "")
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, decodeBody[errorBody](t, rec).Error, "i/o")
	})
}

func TestPlaylistRoutes(t *testing.T) {
	dir := t.TempDir()
	repo, err := fsrepo.New(context.Background(), dir, fsrepo.Options{NoSync: true, Logger: shared.DiscardLogger()})
	require.NoError(t, err)
	t.Cleanup(func() { repo.Stop(context.Background()) })
	router := NewRouter(repo, shared.DiscardLogger())

	rec := do(t, router, http.MethodPost, "/api/v1/lyric", `{"title":"Song","parts":[["x"]]}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	lyric := decodeBody[models.Lyric](t, rec)

	var playlist models.Playlist
	t.Run("Create", func(t *testing.T) {
		body, _ := json.Marshal(models.PlaylistPost{Title: "Mix", Members: []models.ID{lyric.ID}})
		rec := do(t, router, http.MethodPost, "/api/v1/playlist", string(body))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		playlist = decodeBody[models.Playlist](t, rec)
		assert.Equal(t, []models.ID{lyric.ID}, playlist.Members)
	})

	t.Run("Invalid Member", func(t *testing.T) {
		body, _ := json.Marshal(models.PlaylistPost{Title: "Bad", Members: []models.ID{models.NewID()}})
		rec := do(t, router, http.MethodPost, "/api/v1/playlist", string(body))
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, decodeBody[errorBody](t, rec).Error, "cannot add to playlist")
	})

	t.Run("Put Without Members", func(t *testing.T) {
		rec := do(t, router, http.MethodPut, "/api/v1/playlist/"+playlist.ID.String(), `{"title":"Renamed"}`)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		got := decodeBody[models.Playlist](t, rec)
		assert.Equal(t, "Renamed", got.Title)
		assert.Empty(t, got.Members)
	})

	t.Run("List And Delete", func(t *testing.T) {
		rec := do(t, router, http.MethodGet, "/api/v1/playlist?full=1", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[[]models.Playlist](t, rec), 1)

		rec = do(t, router, http.MethodDelete, "/api/v1/playlist/"+playlist.ID.String(), "")
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = do(t, router, http.MethodGet, "/api/v1/playlist", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeBody[[]models.Summary](t, rec))
	})
}

func TestServer(t *testing.T) {
	t.Run("Serve Until Canceled", func(t *testing.T) {
		repo := tu.NewMockRepository()
		srv := New(repo, "127.0.0.1", 0, shared.DiscardLogger())

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan error, 1)
		go func() { done <- srv.Serve(ctx, ln) }()

		body := bytes.NewBufferString(`{"title":"Song","parts":[]}`)
		resp, err := http.Post("http://"+ln.Addr().String()+"/api/v1/lyric", "application/json", body)
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusCreated, resp.StatusCode)

		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not shut down")
		}

		_, err = repo.ListLyrics(context.Background())
		assert.ErrorIs(t, err, models.ErrStopped)
	})

	t.Run("Addr", func(t *testing.T) {
		srv := New(tu.NewMockRepository(), "localhost", 3000, nil)
		assert.Equal(t, "localhost:3000", srv.Addr())
	})
}
