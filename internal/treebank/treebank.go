// Package treebank reads line-oriented corpora: one bracketed tree or one
// sentence per line.
package treebank

import (
	"bufio"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"os"
	"strings"

	"github.com/happyhackingspace/pcfg/internal/tree"
)

// maxLineSize bounds a single tree line.
const maxLineSize = 16 * 1024 * 1024

// IterOptions controls line selection.
type IterOptions struct {
	Start     int  // 1-based number of the first selected line, 0 for the beginning
	Limit     int  // maximum number of selected lines, 0 for all
	SkipBlank bool // drop lines that are empty after trimming
}

// DefaultIterOptions returns the options used for treebanks.
func DefaultIterOptions() IterOptions {
	return IterOptions{SkipBlank: true}
}

// Line is a selected line with its 1-based number in the source.
type Line struct {
	Number int
	Text   string
}

// Treebank wraps a corpus file or stream.
type Treebank struct {
	Path string

	r   io.Reader
	err error
}

// Open returns a Treebank reading the file at path. The file is opened on
// iteration.
func Open(path string) *Treebank {
	return &Treebank{Path: path}
}

// FromReader returns a Treebank reading r once.
func FromReader(r io.Reader) *Treebank {
	return &Treebank{r: r}
}

// Err returns the first error met by the last iteration.
func (t *Treebank) Err() error {
	return t.err
}

// Lines iterates over the selected lines. Check Err after the loop.
func (t *Treebank) Lines(opts IterOptions) iter.Seq[Line] {
	return func(yield func(Line) bool) {
		t.err = nil
		r := t.r
		if r == nil {
			f, err := os.Open(t.Path)
			if err != nil {
				t.err = fmt.Errorf("open treebank: %w", err)
				return
			}
			defer func() { _ = f.Close() }()
			r = f
		}

		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 64*1024), maxLineSize)
		number, selected := 0, 0
		for sc.Scan() {
			number++
			if opts.Start > 0 && number < opts.Start {
				continue
			}
			text := strings.TrimRight(sc.Text(), "\r")
			if opts.SkipBlank && strings.TrimSpace(text) == "" {
				continue
			}
			if opts.Limit > 0 && selected >= opts.Limit {
				return
			}
			selected++
			if !yield(Line{Number: number, Text: text}) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			t.err = fmt.Errorf("read treebank line %d: %w", number+1, err)
		}
	}
}

// Texts iterates over the text of the selected lines.
func (t *Treebank) Texts(opts IterOptions) iter.Seq[string] {
	return func(yield func(string) bool) {
		for l := range t.Lines(opts) {
			if !yield(l.Text) {
				return
			}
		}
	}
}

// ReadAll returns the text of every selected line.
func (t *Treebank) ReadAll(opts IterOptions) ([]string, error) {
	var out []string
	for text := range t.Texts(opts) {
		out = append(out, text)
	}
	return out, t.Err()
}

// Trees parses every selected line as a bracketed tree. Lines that do not
// parse are logged and skipped.
func (t *Treebank) Trees(opts IterOptions) ([]*tree.Node, error) {
	var trees []*tree.Node
	for l := range t.Lines(opts) {
		n, err := tree.Parse(l.Text)
		if err != nil {
			slog.Warn("Cannot parse tree", "line", l.Number, "error", err)
			continue
		}
		trees = append(trees, n)
	}
	return trees, t.Err()
}
