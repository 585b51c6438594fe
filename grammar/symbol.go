// Package grammar induces a probabilistic context-free grammar from a
// pre-binarized, parent-annotated treebank and stores the estimated model.
package grammar

import (
	"strings"

	"github.com/pkg/errors"
)

// Markers used by the treebank pre-processing.
const (
	ParentSep       = "^"
	BinarizedMarker = "@"
	UnaryMarker     = "%%%%%"
)

// Reserved lexical codes.
const (
	UnknownWord = "%%UNKNOWN%%"
	NumeralWord = "%%NUMBER%%"
)

// ErrAmbiguousSymbol is returned for labels that carry both the binarization
// marker and a collapsed unary chain.
var ErrAmbiguousSymbol = errors.New("symbol is both binarized and a collapsed unary chain")

// Symbol is a decoded nonterminal label.
type Symbol struct {
	Label     string
	Parent    string
	Binarized bool
	Collapsed string
}

// ParseSymbol decodes text of the form Label[@|%%%%%Collapsed][^Parent].
func ParseSymbol(text string) (Symbol, error) {
	var s Symbol
	head := text
	if i := strings.Index(text, ParentSep); i > 0 {
		head, s.Parent = text[:i], text[i+len(ParentSep):]
	}
	if i := strings.Index(head, UnaryMarker); i > 0 {
		s.Collapsed = head[i+len(UnaryMarker):]
		head = head[:i]
	}
	if len(head) > 1 && strings.HasSuffix(head, BinarizedMarker) {
		s.Binarized = true
		head = strings.TrimSuffix(head, BinarizedMarker)
	}
	if s.Binarized && s.Collapsed != "" {
		return Symbol{}, errors.Wrapf(ErrAmbiguousSymbol, "%q", text)
	}
	if head == "" {
		return Symbol{}, errors.Errorf("empty label in %q", text)
	}
	s.Label = head
	return s, nil
}

// MustSymbol is like ParseSymbol but panics on error. Intended for tests and
// constants.
func MustSymbol(text string) Symbol {
	s, err := ParseSymbol(text)
	if err != nil {
		panic(err)
	}
	return s
}

// Bare returns the label with its markers but without parent annotation.
func (s Symbol) Bare() string {
	switch {
	case s.Binarized:
		return s.Label + BinarizedMarker
	case s.Collapsed != "":
		return s.Label + UnaryMarker + s.Collapsed
	}
	return s.Label
}

// String encodes the symbol back to its treebank text.
func (s Symbol) String() string {
	if s.Parent == "" {
		return s.Bare()
	}
	return s.Bare() + ParentSep + s.Parent
}

// WithoutParent returns a copy of s with the parent annotation removed.
func (s Symbol) WithoutParent() Symbol {
	s.Parent = ""
	return s
}

// IsZero reports whether s is the zero Symbol.
func (s Symbol) IsZero() bool {
	return s == Symbol{}
}

// MarshalText implements encoding.TextMarshaler.
func (s Symbol) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Symbol) UnmarshalText(data []byte) error {
	parsed, err := ParseSymbol(string(data))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
