// Package shell is the interactive album picker. It is a thin I/O wrapper
// over the engine's query results and performs no mutations itself.
package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"par-go/internal/par"

	"golang.org/x/term"
)

// Selector prompts a human to pick one album out of the classified
// deleted albums. Reader and writer are injected so tests can script the
// dialogue.
type Selector struct {
	In  io.Reader
	Out io.Writer
}

// New creates a Selector on stdin/stdout.
func New() *Selector {
	return &Selector{In: os.Stdin, Out: os.Stdout}
}

// IsInteractive reports whether the input is a terminal a human can type
// into. Non-interactive callers must select albums by UUID instead.
func (s *Selector) IsInteractive() bool {
	f, ok := s.In.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Choose prints the numbered album list and reads a selection.
// ok is false when the user aborts; nothing has been mutated at that point.
func (s *Selector) Choose(albums []par.AlbumRecord) (chosen par.AlbumRecord, ok bool, err error) {
	for i, a := range albums {
		fmt.Fprintf(s.Out, "%3d) %s\n", i+1, describe(a))
	}

	reader := bufio.NewScanner(s.In)
	for {
		fmt.Fprintf(s.Out, "Select an album to restore (1-%d, or q to quit): ", len(albums))
		if !reader.Scan() {
			if err := reader.Err(); err != nil {
				return par.AlbumRecord{}, false, fmt.Errorf("reading selection: %w", err)
			}
			return par.AlbumRecord{}, false, nil // EOF counts as abort
		}

		input := strings.TrimSpace(reader.Text())
		switch input {
		case "q", "Q", "quit", "exit":
			return par.AlbumRecord{}, false, nil
		}

		n, convErr := strconv.Atoi(input)
		if convErr != nil || n < 1 || n > len(albums) {
			fmt.Fprintf(s.Out, "Invalid selection %q.\n", input)
			continue
		}
		return albums[n-1], true, nil
	}
}

// Confirm asks a yes/no question, defaulting to no.
func (s *Selector) Confirm(prompt string) (bool, error) {
	fmt.Fprintf(s.Out, "%s [y/N]: ", prompt)

	reader := bufio.NewScanner(s.In)
	if !reader.Scan() {
		if err := reader.Err(); err != nil {
			return false, fmt.Errorf("reading confirmation: %w", err)
		}
		return false, nil
	}

	answer := strings.ToLower(strings.TrimSpace(reader.Text()))
	return answer == "y" || answer == "yes", nil
}

// describe renders one album line for the picker.
func describe(a par.AlbumRecord) string {
	title := a.Title
	if title == "" {
		title = "(untitled)"
	}

	deleted := ""
	if !a.TrashedAt.IsZero() {
		deleted = fmt.Sprintf(", deleted on %s", a.TrashedAt.Format("2006-01-02"))
	}

	noun := "photos"
	if a.AssetCount == 1 {
		noun = "photo"
	}
	return fmt.Sprintf("%s%s, contains %d %s", title, deleted, a.AssetCount, noun)
}
