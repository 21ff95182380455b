package server

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
)

const (
	lyricCollection    = APIPrefix + "/lyric"
	lyricItem          = APIPrefix + "/lyric/{id}"
	playlistCollection = APIPrefix + "/playlist"
	playlistItem       = APIPrefix + "/playlist/{id}"
)

// resource holds what every handler needs
type resource struct {
	repo   models.Repository
	logger *log.Logger
}

// full reports whether ?full=true was requested
func full(r *http.Request) (bool, error) {
	v := r.URL.Query().Get("full")
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%w: full must be a boolean, got %q", shared.ErrInvalidInput, v)
	}
	return b, nil
}

// LyricHandler serves the lyric routes
type LyricHandler struct {
	resource
}

func NewLyricHandler(repo models.Repository, logger *log.Logger) *LyricHandler {
	return &LyricHandler{resource{repo: repo, logger: logger}}
}

// Routes returns the lyric method patterns
func (h *LyricHandler) Routes() []string {
	return []string{
		http.MethodGet + " " + lyricCollection,
		http.MethodPost + " " + lyricCollection,
		http.MethodGet + " " + lyricItem,
		http.MethodPut + " " + lyricItem,
		http.MethodDelete + " " + lyricItem,
	}
}

func (h *LyricHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case http.MethodGet + " " + lyricCollection:
		h.list(w, r)
	case http.MethodPost + " " + lyricCollection:
		h.create(w, r)
	case http.MethodGet + " " + lyricItem:
		h.get(w, r)
	case http.MethodPut + " " + lyricItem:
		h.put(w, r)
	case http.MethodDelete + " " + lyricItem:
		h.delete(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *LyricHandler) list(w http.ResponseWriter, r *http.Request) {
	wantFull, err := full(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if wantFull {
		lyrics, err := h.repo.ListLyrics(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, lyrics)
		return
	}

	summaries, err := h.repo.ListLyricSummaries(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, summaries)
}

func (h *LyricHandler) create(w http.ResponseWriter, r *http.Request) {
	var post models.LyricPost
	if err := decode(w, r, &post); err != nil {
		h.fail(w, r, err)
		return
	}

	lyric, err := h.repo.UpsertLyric(r.Context(), post.WithID(models.NewID()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Location", lyricCollection+"/"+lyric.ID.String())
	writeJSON(w, h.logger, http.StatusCreated, lyric)
}

func (h *LyricHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	lyric, err := h.repo.GetLyric(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, lyric)
}

func (h *LyricHandler) put(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var lyric models.Lyric
	if err := decode(w, r, &lyric); err != nil {
		h.fail(w, r, err)
		return
	}
	if !lyric.ID.IsZero() && lyric.ID != id {
		h.fail(w, r, fmt.Errorf("%w: body id %s does not match path id %s", shared.ErrInvalidInput, lyric.ID, id))
		return
	}
	lyric.ID = id

	stored, err := h.repo.UpsertLyric(r.Context(), lyric)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, stored)
}

func (h *LyricHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.repo.DeleteLyric(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PlaylistHandler serves the playlist routes
type PlaylistHandler struct {
	resource
}

func NewPlaylistHandler(repo models.Repository, logger *log.Logger) *PlaylistHandler {
	return &PlaylistHandler{resource{repo: repo, logger: logger}}
}

// Routes returns the playlist method patterns
func (h *PlaylistHandler) Routes() []string {
	return []string{
		http.MethodGet + " " + playlistCollection,
		http.MethodPost + " " + playlistCollection,
		http.MethodGet + " " + playlistItem,
		http.MethodPut + " " + playlistItem,
		http.MethodDelete + " " + playlistItem,
	}
}

func (h *PlaylistHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Pattern {
	case http.MethodGet + " " + playlistCollection:
		h.list(w, r)
	case http.MethodPost + " " + playlistCollection:
		h.create(w, r)
	case http.MethodGet + " " + playlistItem:
		h.get(w, r)
	case http.MethodPut + " " + playlistItem:
		h.put(w, r)
	case http.MethodDelete + " " + playlistItem:
		h.delete(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *PlaylistHandler) list(w http.ResponseWriter, r *http.Request) {
	wantFull, err := full(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if wantFull {
		playlists, err := h.repo.ListPlaylists(r.Context())
		if err != nil {
			h.fail(w, r, err)
			return
		}
		writeJSON(w, h.logger, http.StatusOK, playlists)
		return
	}

	summaries, err := h.repo.ListPlaylistSummaries(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, summaries)
}

func (h *PlaylistHandler) create(w http.ResponseWriter, r *http.Request) {
	var post models.PlaylistPost
	if err := decode(w, r, &post); err != nil {
		h.fail(w, r, err)
		return
	}
	if post.Members == nil {
		post.Members = []models.ID{}
	}

	playlist, err := h.repo.UpsertPlaylist(r.Context(), post.WithID(models.NewID()))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	w.Header().Set("Location", playlistCollection+"/"+playlist.ID.String())
	writeJSON(w, h.logger, http.StatusCreated, playlist)
}

func (h *PlaylistHandler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	playlist, err := h.repo.GetPlaylist(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, playlist)
}

func (h *PlaylistHandler) put(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	var playlist models.Playlist
	if err := decode(w, r, &playlist); err != nil {
		h.fail(w, r, err)
		return
	}
	if !playlist.ID.IsZero() && playlist.ID != id {
		h.fail(w, r, fmt.Errorf("%w: body id %s does not match path id %s", shared.ErrInvalidInput, playlist.ID, id))
		return
	}
	playlist.ID = id
	if playlist.Members == nil {
		playlist.Members = []models.ID{}
	}

	stored, err := h.repo.UpsertPlaylist(r.Context(), playlist)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, h.logger, http.StatusOK, stored)
}

func (h *PlaylistHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	if err := h.repo.DeletePlaylist(r.Context(), id); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
