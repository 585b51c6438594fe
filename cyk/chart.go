// Package cyk fills a CYK chart for a tokenised sentence under a binarized
// PCFG and reconstructs the Viterbi parse from it.
package cyk

import (
	"log/slog"
	"strings"

	"github.com/pkg/errors"

	"github.com/happyhackingspace/pcfg/grammar"
	"github.com/happyhackingspace/pcfg/internal/textutil"
)

// DefaultStart is the start symbol of the treebank.
const DefaultStart = "TOP"

// NotInGrammarMessage is printed in place of a parse for uncovered sentences.
const NotInGrammarMessage = "ERROR sentence not in the grammar"

var (
	// ErrNotInGrammar is returned when the start symbol does not cover the
	// whole sentence.
	ErrNotInGrammar = errors.New("sentence not in the grammar")
	// ErrEmptySentence is returned for sentences without tokens.
	ErrEmptySentence = errors.New("empty sentence")
)

// Options controls chart construction.
type Options struct {
	Start    string // start symbol, DefaultStart when empty
	Lower    bool   // case-fold tokens before lookup
	Numerate bool   // map numerals to the numeral code
}

// DefaultOptions returns options with the default start symbol.
func DefaultOptions() Options {
	return Options{Start: DefaultStart}
}

// DerivationKind tags how a chart entry was derived.
type DerivationKind uint8

const (
	Lexical DerivationKind = iota
	Unary
	Binary
)

func (k DerivationKind) String() string {
	switch k {
	case Lexical:
		return "lexical"
	case Unary:
		return "unary"
	case Binary:
		return "binary"
	}
	return "unknown"
}

// Derivation is the backpointer of the best entry for a symbol in a cell.
type Derivation struct {
	Kind  DerivationKind
	Word  string         // Lexical token
	Left  grammar.Symbol // Unary child or Binary left child
	Right grammar.Symbol
	Split int // end of Left, start of Right
}

type cell struct {
	syms     []grammar.Symbol // admission order
	best     map[grammar.Symbol]float64
	back     map[grammar.Symbol]Derivation
	covering []grammar.RHS
}

func newCell() *cell {
	return &cell{
		best: make(map[grammar.Symbol]float64),
		back: make(map[grammar.Symbol]Derivation),
	}
}

// Chart is a filled CYK chart. A chart is owned by a single goroutine.
type Chart struct {
	g      *grammar.Grammar
	start  grammar.Symbol
	tokens []string // case-folded when configured
	codes  []string // lexicon entries actually looked up
	cells  [][]*cell
}

// NewChart fills the chart for tokens under g.
func NewChart(g *grammar.Grammar, tokens []string, opts Options) (*Chart, error) {
	if len(tokens) == 0 {
		return nil, ErrEmptySentence
	}
	if opts.Start == "" {
		opts.Start = DefaultStart
	}
	start, err := grammar.ParseSymbol(opts.Start)
	if err != nil {
		return nil, errors.Wrap(err, "start symbol")
	}

	n := len(tokens)
	c := &Chart{
		g:      g,
		start:  start,
		tokens: make([]string, n),
		codes:  make([]string, n),
		cells:  make([][]*cell, n+1),
	}
	for i := range c.cells {
		c.cells[i] = make([]*cell, n+1)
		for j := i + 1; j <= n; j++ {
			c.cells[i][j] = newCell()
		}
	}

	for i, tok := range tokens {
		if opts.Lower {
			tok = strings.ToLower(tok)
		}
		c.tokens[i] = tok
		c.codes[i] = c.lookup(tok, opts.Numerate)
		rhs := grammar.Word(c.codes[i])
		for _, a := range g.Parents(rhs) {
			c.admit(i, i+1, a, g.Prob(a, rhs), Derivation{Kind: Lexical, Word: tok}, grammar.Word(tok))
		}
		if i+1 == n {
			c.closeUnary(i, n)
		}
	}

	for span := 2; span <= n; span++ {
		for begin := 0; begin+span <= n; begin++ {
			end := begin + span
			for split := begin + 1; split < end; split++ {
				left, right := c.cells[begin][split], c.cells[split][end]
				for _, b := range left.syms {
					for _, cc := range right.syms {
						rhs := grammar.Binary(b, cc)
						for _, a := range g.Parents(rhs) {
							p := g.Prob(a, rhs) * left.best[b] * right.best[cc]
							c.admit(begin, end, a, p, Derivation{Kind: Binary, Left: b, Right: cc, Split: split}, rhs)
						}
					}
				}
			}
			if end == n {
				c.closeUnary(begin, end)
			}
		}
	}

	slog.Debug("Chart filled", "words", n, "covered", c.Covered())
	return c, nil
}

// lookup selects the lexicon entry for a token: the numeral code, the
// unknown-word code, or the token itself.
func (c *Chart) lookup(tok string, numerate bool) string {
	switch {
	case numerate && textutil.IsNumeral(tok):
		return grammar.NumeralWord
	case !c.g.Knows(tok):
		return grammar.UnknownWord
	}
	return tok
}

// admit records a derivation of a with probability p over [begin, end). It
// reports whether the best entry for a changed.
func (c *Chart) admit(begin, end int, a grammar.Symbol, p float64, d Derivation, rhs grammar.RHS) bool {
	ce := c.cells[begin][end]
	if p > 0 {
		if _, ok := ce.best[a]; !ok {
			ce.syms = append(ce.syms, a)
			ce.best[a] = 0
		}
		if a == c.start {
			ce.addCovering(rhs)
		}
	}
	if p > ce.best[a] {
		ce.best[a] = p
		ce.back[a] = d
		return true
	}
	return false
}

func (ce *cell) addCovering(rhs grammar.RHS) {
	for _, r := range ce.covering {
		if r == rhs {
			return
		}
	}
	ce.covering = append(ce.covering, rhs)
}

// closeUnary applies start -> B unary rules over [begin, end) until no best
// entry changes.
func (c *Chart) closeUnary(begin, end int) {
	ce := c.cells[begin][end]
	for added := true; added; {
		added = false
		syms := append([]grammar.Symbol(nil), ce.syms...)
		for _, b := range syms {
			rhs := grammar.Unary(b)
			p := c.g.Prob(c.start, rhs)
			if p == 0 {
				continue
			}
			if c.admit(begin, end, c.start, p*ce.best[b], Derivation{Kind: Unary, Left: b}, rhs) {
				added = true
			}
		}
	}
}

func (c *Chart) cell(begin, end int) *cell {
	if begin < 0 || end > len(c.tokens) || begin >= end {
		return nil
	}
	return c.cells[begin][end]
}

// Tokens returns the tokens the chart was built from, case-folded when
// configured.
func (c *Chart) Tokens() []string {
	return append([]string(nil), c.tokens...)
}

// Cell returns the symbols reachable over [begin, end) in admission order.
func (c *Chart) Cell(begin, end int) []grammar.Symbol {
	ce := c.cell(begin, end)
	if ce == nil {
		return nil
	}
	return append([]grammar.Symbol(nil), ce.syms...)
}

// Best returns the Viterbi probability of sym over [begin, end).
func (c *Chart) Best(begin, end int, sym grammar.Symbol) float64 {
	ce := c.cell(begin, end)
	if ce == nil {
		return 0
	}
	return ce.best[sym]
}

// Backpointer returns the derivation of the best entry of sym over
// [begin, end).
func (c *Chart) Backpointer(begin, end int, sym grammar.Symbol) (Derivation, bool) {
	ce := c.cell(begin, end)
	if ce == nil {
		return Derivation{}, false
	}
	d, ok := ce.back[sym]
	return d, ok
}

// Covering returns the distinct right-hand sides through which the start
// symbol was reached over the whole sentence. Lexical entries carry the
// token.
func (c *Chart) Covering() []grammar.RHS {
	ce := c.cell(0, len(c.tokens))
	return append([]grammar.RHS(nil), ce.covering...)
}

// CoveringString formats Covering as "B C#D#...".
func (c *Chart) CoveringString() string {
	parts := make([]string, 0, len(c.Covering()))
	for _, rhs := range c.Covering() {
		if rhs.IsLexical() {
			parts = append(parts, rhs.Word)
			continue
		}
		names := make([]string, 0, 2)
		for _, s := range rhs.Symbols() {
			names = append(names, s.String())
		}
		parts = append(parts, strings.Join(names, " "))
	}
	return strings.Join(parts, "#")
}

// Covered reports whether the start symbol spans the whole sentence.
func (c *Chart) Covered() bool {
	_, ok := c.Backpointer(0, len(c.tokens), c.start)
	return ok
}

// Probability returns the Viterbi probability of the sentence, 0 when it is
// not covered.
func (c *Chart) Probability() float64 {
	return c.Best(0, len(c.tokens), c.start)
}

// UsedRules returns the rules of the Viterbi derivation in pre-order. The
// lexical rules name the lexicon entry that was looked up.
func (c *Chart) UsedRules() ([]grammar.Rule, error) {
	var rules []grammar.Rule
	var walk func(sym grammar.Symbol, begin, end int) error
	walk = func(sym grammar.Symbol, begin, end int) error {
		d, ok := c.Backpointer(begin, end, sym)
		if !ok {
			return errors.Wrapf(ErrNotInGrammar, "no %s over [%d,%d)", sym, begin, end)
		}
		switch d.Kind {
		case Lexical:
			rules = append(rules, grammar.Rule{LHS: sym, RHS: grammar.Word(c.codes[begin])})
			return nil
		case Unary:
			rules = append(rules, grammar.Rule{LHS: sym, RHS: grammar.Unary(d.Left)})
			return walk(d.Left, begin, end)
		}
		rules = append(rules, grammar.Rule{LHS: sym, RHS: grammar.Binary(d.Left, d.Right)})
		if err := walk(d.Left, begin, d.Split); err != nil {
			return err
		}
		return walk(d.Right, d.Split, end)
	}
	if err := walk(c.start, 0, len(c.tokens)); err != nil {
		return nil, err
	}
	return rules, nil
}
