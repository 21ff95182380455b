// Package tasks runs bulk operations over repositories and remote servers with real-time progress reporting.
//
// # Core Operations
//
//  1. [Engine.Upload] : publish a directory of lyric files to a server
//     - Parses every .txt file in the directory, in file name order
//     - Deletes all remote playlists, then all remote lyrics
//     - Posts the lyrics concurrently and one playlist holding them in file name order
//
//  2. [Engine.Copy] : copy everything from one repository to another
//     - Upserts all lyrics first so playlist members always resolve
//     - Then upserts all playlists
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
//
// # Concurrency
//
// Fan-out uses errgroup with a limit; the first error cancels the remaining work.
package tasks
