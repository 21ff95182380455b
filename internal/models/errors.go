package models

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every [Repository] implementation.
var (
	// ErrNotFound indicates that no file or row exists for the identifier.
	ErrNotFound = errors.New("not found")

	// ErrInvalidReference indicates that a playlist member does not reference an existing lyric.
	// Returned errors are [*InvalidReferenceError] values that match this sentinel.
	ErrInvalidReference = errors.New("invalid reference")

	// ErrMalformed indicates that a stored file or row could not be parsed.
	ErrMalformed = errors.New("malformed entity")

	// ErrInvalidEntity indicates that an entity cannot be persisted, e.g. it has no identifier.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrIO indicates a filesystem or database access failure.
	ErrIO = errors.New("storage i/o failure")

	// ErrChannelClosed indicates that the storage worker went away before replying.
	ErrChannelClosed = errors.New("channel closed")

	// ErrCanceled indicates that the caller stopped waiting for the result.
	ErrCanceled = errors.New("canceled")

	// ErrStopped indicates an operation attempted after Stop.
	ErrStopped = errors.New("repository stopped")

	// ErrNoPath indicates that a file repository was opened on something that is not a directory.
	ErrNoPath = errors.New("no such directory")
)

// InvalidReferenceError names the playlist that was rejected and the first member that does not exist.
type InvalidReferenceError struct {
	PlaylistID ID
	MemberID   ID
}

// NewInvalidReferenceError creates an [*InvalidReferenceError] for the given playlist and member
func NewInvalidReferenceError(playlistID, memberID ID) *InvalidReferenceError {
	return &InvalidReferenceError{PlaylistID: playlistID, MemberID: memberID}
}

func (e *InvalidReferenceError) Error() string {
	return fmt.Sprintf("lyric with id %s not found, cannot add to playlist with id %s", e.MemberID, e.PlaylistID)
}

func (e *InvalidReferenceError) Unwrap() error {
	return ErrInvalidReference
}
