package grammar

import (
	"math"
	"sort"
)

// Sums returns, per left-hand symbol, the total probability of its
// right-hand sides. Every value should be 1.
func (g *Grammar) Sums() map[Symbol]float64 {
	sums := make(map[Symbol]float64, len(g.l2r))
	for _, lhs := range g.Symbols() {
		for _, rhs := range g.l2r[lhs] {
			sums[lhs] += g.Prob(lhs, rhs)
		}
	}
	return sums
}

// MaxDivergence returns the largest |1 - sum| over all left-hand symbols.
func (g *Grammar) MaxDivergence() float64 {
	worst := 0.0
	for _, s := range g.Sums() {
		worst = math.Max(worst, math.Abs(1-s))
	}
	return worst
}

// Candidate is one reading of an ambiguous word.
type Candidate struct {
	Symbol Symbol  `json:"symbol"`
	Prob   float64 `json:"prob"`
}

// Ambiguity lists the readings of a word with more than one left-hand symbol.
type Ambiguity struct {
	Word       string      `json:"word"`
	Candidates []Candidate `json:"candidates"`
}

// Ambiguous returns every observed word with more than one possible
// left-hand symbol, sorted by word. Candidates are ordered by descending
// probability.
func (g *Grammar) Ambiguous() []Ambiguity {
	var out []Ambiguity
	for rhs, lhss := range g.r2l {
		if !rhs.IsLexical() || rhs.Word == UnknownWord || len(lhss) < 2 {
			continue
		}
		out = append(out, g.ambiguity(rhs.Word, lhss))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Word < out[j].Word })
	return out
}

// AmbiguousWord returns the readings of word if it is ambiguous.
func (g *Grammar) AmbiguousWord(word string) (Ambiguity, bool) {
	lhss := g.r2l[Word(word)]
	if word == UnknownWord || len(lhss) < 2 {
		return Ambiguity{}, false
	}
	return g.ambiguity(word, lhss), true
}

func (g *Grammar) ambiguity(word string, lhss []Symbol) Ambiguity {
	a := Ambiguity{Word: word, Candidates: make([]Candidate, len(lhss))}
	for i, lhs := range lhss {
		a.Candidates[i] = Candidate{Symbol: lhs, Prob: g.Prob(lhs, Word(word))}
	}
	sort.SliceStable(a.Candidates, func(i, j int) bool { return a.Candidates[i].Prob > a.Candidates[j].Prob })
	return a
}

// Production is the most likely expansion found for a queried symbol.
type Production struct {
	Query string  `json:"query"`
	Found bool    `json:"found"`
	Rule  Rule    `json:"-"`
	Text  string  `json:"rule,omitempty"`
	Prob  float64 `json:"prob,omitempty"`
}

// MostLikely returns, for every queried symbol, its highest-probability
// rule. A query without parent annotation (e.g. "NP") matches every
// parent-annotated variant ("NP^S", "NP^VP", ...).
func (g *Grammar) MostLikely(queries []string) []Production {
	out := make([]Production, len(queries))
	for i, q := range queries {
		out[i] = Production{Query: q}
		sym, err := ParseSymbol(q)
		if err != nil {
			continue
		}
		var lhss []Symbol
		if _, ok := g.l2r[sym]; ok {
			lhss = []Symbol{sym}
		} else if sym.Parent == "" {
			for _, lhs := range g.Symbols() {
				if lhs.WithoutParent() == sym {
					lhss = append(lhss, lhs)
				}
			}
		}
		for _, lhs := range lhss {
			for _, rhs := range g.l2r[lhs] {
				if p := g.Prob(lhs, rhs); p > out[i].Prob {
					rule := Rule{LHS: lhs, RHS: rhs}
					out[i] = Production{Query: q, Found: true, Rule: rule, Text: rule.String(), Prob: p}
				}
			}
		}
	}
	return out
}
