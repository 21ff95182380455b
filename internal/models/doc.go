// Package models defines the entities and the storage contract shared by every lipl backend.
//
// The package contains three categories of types:
//
// 1. Entities persisted by a backend
//   - [Lyric] : a song text split into parts (verses, choruses)
//   - [Playlist] : an ordered list of lyric identifiers
//
// 2. Projections and request bodies
//   - [Summary] : id and title of either entity, used for list views
//   - [LyricPost], [PlaylistPost] : entities without an identifier, as posted by clients
//
// 3. The storage contract
//   - [Repository] : the operation set implemented by the file engine and the relational engine
//   - the error taxonomy ([ErrNotFound], [ErrInvalidReference], [ErrMalformed], ...)
//
// Callers depend on [Repository] only and never on the backend behind it.
package models
