package grammar

import (
	"sort"

	"github.com/pkg/errors"
)

// probTolerance absorbs rounding in normalised probabilities.
const probTolerance = 1e-9

// Grammar is an estimated PCFG. It is immutable once built and may be shared
// between goroutines.
type Grammar struct {
	l2r  map[Symbol][]RHS
	r2l  map[RHS][]Symbol
	prob map[Rule]float64

	lower    bool
	numerate bool
}

// newGrammar indexes prob in both directions. Index slices are sorted so
// lookups iterate in a stable order.
func newGrammar(prob map[Rule]float64, lower, numerate bool) *Grammar {
	g := &Grammar{
		l2r:      make(map[Symbol][]RHS),
		r2l:      make(map[RHS][]Symbol),
		prob:     prob,
		lower:    lower,
		numerate: numerate,
	}
	for rule := range prob {
		g.l2r[rule.LHS] = append(g.l2r[rule.LHS], rule.RHS)
		g.r2l[rule.RHS] = append(g.r2l[rule.RHS], rule.LHS)
	}
	for _, rhss := range g.l2r {
		sort.Slice(rhss, func(i, j int) bool { return rhss[i].sortKey() < rhss[j].sortKey() })
	}
	for _, lhss := range g.r2l {
		sortSymbols(lhss)
	}
	return g
}

func sortSymbols(syms []Symbol) {
	sort.Slice(syms, func(i, j int) bool { return syms[i].String() < syms[j].String() })
}

// Prob returns P(lhs -> rhs), or 0 when the rule does not exist.
func (g *Grammar) Prob(lhs Symbol, rhs RHS) float64 {
	return g.prob[Rule{LHS: lhs, RHS: rhs}]
}

// Parents returns every left-hand symbol that rewrites to rhs.
func (g *Grammar) Parents(rhs RHS) []Symbol {
	return g.r2l[rhs]
}

// Expansions returns every right-hand side of lhs.
func (g *Grammar) Expansions(lhs Symbol) []RHS {
	return g.l2r[lhs]
}

// Knows reports whether word was observed as a lexical right-hand side.
func (g *Grammar) Knows(word string) bool {
	return len(g.r2l[Word(word)]) > 0
}

// Lowercased reports whether words were lower-cased during training.
func (g *Grammar) Lowercased() bool {
	return g.lower
}

// Numerated reports whether numerals were mapped to NumeralWord during training.
func (g *Grammar) Numerated() bool {
	return g.numerate
}

// NumRules returns the number of weighted rules, unknown-word rules included.
func (g *Grammar) NumRules() int {
	return len(g.prob)
}

// Symbols returns all left-hand symbols in sorted order.
func (g *Grammar) Symbols() []Symbol {
	syms := make([]Symbol, 0, len(g.l2r))
	for s := range g.l2r {
		syms = append(syms, s)
	}
	sortSymbols(syms)
	return syms
}

// Rules returns all rules ordered by left-hand symbol and right-hand side.
func (g *Grammar) Rules() []Rule {
	rules := make([]Rule, 0, len(g.prob))
	for _, lhs := range g.Symbols() {
		for _, rhs := range g.l2r[lhs] {
			rules = append(rules, Rule{LHS: lhs, RHS: rhs})
		}
	}
	return rules
}

// FromRules builds a grammar from already normalised rule probabilities.
// Every probability must lie in (0,1].
func FromRules(prob map[Rule]float64, lower, numerate bool) (*Grammar, error) {
	own := make(map[Rule]float64, len(prob))
	for rule, p := range prob {
		if !(p > 0 && p <= 1+probTolerance) {
			return nil, errors.Errorf("probability %v of %s outside (0,1]", p, rule)
		}
		if rule.LHS.IsZero() {
			return nil, errors.Errorf("rule %s has no left-hand symbol", rule)
		}
		own[rule] = p
	}
	return newGrammar(own, lower, numerate), nil
}
