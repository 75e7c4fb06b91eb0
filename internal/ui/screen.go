// Package ui provides the terminal control used by watch mode.
package ui

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

const (
	hideCursor = "\033[?25l"
	showCursor = "\033[?25h"
	clearAll   = "\033[2J"
	homeCursor = "\033[H"
)

// Screen drives the redraw cycle of the refreshing display. Control
// sequences are only emitted when the writer is a terminal, so piping watch
// output to a file stays clean.
type Screen struct {
	w   io.Writer
	tty bool
}

func NewScreen(w io.Writer) *Screen {
	tty := false
	if f, ok := w.(*os.File); ok {
		tty = term.IsTerminal(int(f.Fd()))
	}
	return &Screen{w: w, tty: tty}
}

// Setup hides the cursor and clears the screen before the first frame.
func (s *Screen) Setup() {
	if !s.tty {
		return
	}
	fmt.Fprint(s.w, hideCursor, clearAll)
}

// BeginFrame repositions the cursor to the top-left corner and clears the
// previous frame.
func (s *Screen) BeginFrame() {
	if !s.tty {
		return
	}
	fmt.Fprint(s.w, homeCursor, clearAll)
}

// Restore makes the cursor visible again on exit.
func (s *Screen) Restore() {
	if !s.tty {
		return
	}
	fmt.Fprint(s.w, showCursor)
}
