package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/desertthunder/lipl/internal/models"
	"github.com/desertthunder/lipl/internal/shared"
	"golang.org/x/time/rate"
)

// APIError is a non-2xx response from the server
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Message)
}

// Unwrap maps the status to a sentinel error
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return models.ErrNotFound
	case http.StatusUnprocessableEntity:
		return models.ErrInvalidReference
	case http.StatusBadRequest:
		return shared.ErrInvalidInput
	default:
		return shared.ErrAPIRequest
	}
}

// Client implements [LyricService] against a lipl server
type Client struct {
	*APIService
}

var _ LyricService = (*Client)(nil)

// NewClient creates a client for the API rooted at baseURL, e.g. http://host:3000/api/v1
func NewClient(baseURL string, client *http.Client, limiter *rate.Limiter) *Client {
	return &Client{APIService: NewAPIService(baseURL, client, limiter)}
}

func (c *Client) LyricSummaries(ctx context.Context) ([]models.Summary, error) {
	var summaries []models.Summary
	err := c.call(ctx, http.MethodGet, "/lyric", nil, &summaries)
	return summaries, err
}

func (c *Client) GetLyric(ctx context.Context, id models.ID) (models.Lyric, error) {
	var lyric models.Lyric
	err := c.call(ctx, http.MethodGet, "/lyric/"+id.String(), nil, &lyric)
	return lyric, err
}

func (c *Client) InsertLyric(ctx context.Context, lyric models.LyricPost) (models.Lyric, error) {
	var created models.Lyric
	err := c.call(ctx, http.MethodPost, "/lyric", lyric, &created)
	return created, err
}

func (c *Client) DeleteLyric(ctx context.Context, id models.ID) error {
	return c.call(ctx, http.MethodDelete, "/lyric/"+id.String(), nil, nil)
}

func (c *Client) PlaylistSummaries(ctx context.Context) ([]models.Summary, error) {
	var summaries []models.Summary
	err := c.call(ctx, http.MethodGet, "/playlist", nil, &summaries)
	return summaries, err
}

func (c *Client) GetPlaylist(ctx context.Context, id models.ID) (models.Playlist, error) {
	var playlist models.Playlist
	err := c.call(ctx, http.MethodGet, "/playlist/"+id.String(), nil, &playlist)
	return playlist, err
}

func (c *Client) InsertPlaylist(ctx context.Context, playlist models.PlaylistPost) (models.Playlist, error) {
	if playlist.Members == nil {
		playlist.Members = []models.ID{}
	}
	var created models.Playlist
	err := c.call(ctx, http.MethodPost, "/playlist", playlist, &created)
	return created, err
}

func (c *Client) DeletePlaylist(ctx context.Context, id models.ID) error {
	return c.call(ctx, http.MethodDelete, "/playlist/"+id.String(), nil, nil)
}

// call sends in as JSON when set and decodes a 2xx body into out when set
func (c *Client) call(ctx context.Context, method, path string, in, out any) error {
	var data []byte
	if in != nil {
		var err error
		if data, err = json.Marshal(in); err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
	}

	resp, err := c.do(ctx, method, path, data)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("%w: %s %s: %v", models.ErrCanceled, method, path, err)
		}
		return fmt.Errorf("%w: %s %s: %w", shared.ErrAPIRequest, method, path, err)
	}

	if !resp.OK() {
		apiErr := &APIError{Method: method, Path: path, StatusCode: resp.StatusCode}
		var body struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(resp.Body, &body) == nil {
			apiErr.Message = body.Error
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return errors.Join(shared.ErrAPIRequest, fmt.Errorf("failed to decode %s %s response: %w", method, path, err))
	}
	return nil
}
