package main

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// progress rewrites a single status line, but only on a terminal.
type progress struct {
	w       io.Writer
	enabled bool
	dirty   bool
}

func newProgress(w io.Writer) *progress {
	enabled := false
	if f, ok := w.(*os.File); ok {
		enabled = term.IsTerminal(int(f.Fd()))
	}
	return &progress{w: w, enabled: enabled}
}

func (p *progress) Update(format string, args ...any) {
	if !p.enabled {
		return
	}
	fmt.Fprintf(p.w, "\r\033[K"+format, args...)
	p.dirty = true
}

func (p *progress) Done() {
	if p.dirty {
		fmt.Fprintln(p.w)
		p.dirty = false
	}
}
