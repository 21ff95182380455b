package ui

import (
	"fmt"
	"io"
	"sync"

	"github.com/desertthunder/lipl/internal/tasks"
)

// ProgressPrinter writes progress updates to an output as they arrive.
type ProgressPrinter struct {
	out     io.Writer
	painter Painter
	updates chan tasks.ProgressUpdate
	wg      sync.WaitGroup
}

// NewProgressPrinter starts a printer with a buffer of size updates. Close must be called to flush it.
func NewProgressPrinter(out io.Writer, painter Painter, size int) *ProgressPrinter {
	if painter == nil {
		painter = styles
	}
	p := &ProgressPrinter{out: out, painter: painter, updates: make(chan tasks.ProgressUpdate, size)}
	p.wg.Add(1)
	go p.run()
	return p
}

// Updates is the channel handed to [tasks.Engine] operations
func (p *ProgressPrinter) Updates() chan<- tasks.ProgressUpdate {
	return p.updates
}

// Close stops accepting updates and waits until the buffered ones are printed
func (p *ProgressPrinter) Close() {
	close(p.updates)
	p.wg.Wait()
}

func (p *ProgressPrinter) run() {
	defer p.wg.Done()

	phase := tasks.Phase(-1)
	for update := range p.updates {
		if update.Phase != phase {
			phase = update.Phase
			fmt.Fprintln(p.out, p.painter.Title(PhaseTitle(phase)))
		}
		fmt.Fprintf(p.out, "  %s\n", update.Message)
	}
}

// PhaseTitle is the heading printed when an operation enters phase
func PhaseTitle(phase tasks.Phase) string {
	switch phase {
	case tasks.ReadFiles:
		return "Reading lyric files"
	case tasks.ClearRemote:
		return "Clearing remote server"
	case tasks.UploadLyrics:
		return "Uploading lyrics"
	case tasks.CreatePlaylist:
		return "Creating playlist"
	case tasks.CopyLyrics:
		return "Copying lyrics"
	case tasks.CopyPlaylists:
		return "Copying playlists"
	default:
		return phase.String()
	}
}
