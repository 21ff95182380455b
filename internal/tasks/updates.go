package tasks

import (
	"fmt"

	"github.com/desertthunder/lipl/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ReadFiles Phase = iota
	ClearRemote
	UploadLyrics
	CreatePlaylist
	CopyLyrics
	CopyPlaylists
)

func (p Phase) String() string {
	switch p {
	case ReadFiles:
		return "read_files"
	case ClearRemote:
		return "clear_remote"
	case UploadLyrics:
		return "upload_lyrics"
	case CreatePlaylist:
		return "create_playlist"
	case CopyLyrics:
		return "copy_lyrics"
	case CopyPlaylists:
		return "copy_playlists"
	default:
		return ""
	}
}

func readFilesUpdate(total int, dir string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReadFiles,
		Step:    total,
		Total:   total,
		Message: fmt.Sprintf("Read %d lyric files from %s", total, dir),
	}
}

func clearRemoteUpdate(step, total int, kind string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ClearRemote,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Deleted remote %s", step, total, kind),
	}
}

func uploadLyricUpdate(step, total int, lyric models.Lyric) ProgressUpdate {
	return ProgressUpdate{
		Phase:   UploadLyrics,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Uploaded %s", step, total, lyric.Title),
		Data:    lyric.Summary(),
	}
}

func createPlaylistUpdate(playlist models.Playlist) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CreatePlaylist,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Playlist created: %s (%d lyrics)", playlist.Title, len(playlist.Members)),
		Data:    playlist.Summary(),
	}
}

func copyUpdate(phase Phase, step, total int, summary models.Summary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   phase,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Copied %s", step, total, summary.Title),
		Data:    summary,
	}
}
