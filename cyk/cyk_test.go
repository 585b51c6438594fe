package cyk

import (
	"math"
	"reflect"
	"slices"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"github.com/happyhackingspace/pcfg/grammar"
	"github.com/happyhackingspace/pcfg/internal/tree"
)

type ruleProb struct {
	lhs string
	rhs []string // one word, or one or two symbols
	p   float64
}

func lex(lhs, word string, p float64) ruleProb { return ruleProb{lhs, []string{word}, p} }

func un(lhs, child string, p float64) ruleProb { return ruleProb{lhs, []string{"", child}, p} }

func bin(lhs, l, r string, p float64) ruleProb { return ruleProb{lhs, []string{l, r}, p} }

func buildGrammar(t *testing.T, rules ...ruleProb) *grammar.Grammar {
	t.Helper()
	prob := make(map[grammar.Rule]float64, len(rules))
	for _, r := range rules {
		var rhs grammar.RHS
		switch {
		case len(r.rhs) == 1:
			rhs = grammar.Word(r.rhs[0])
		case r.rhs[0] == "":
			rhs = grammar.Unary(grammar.MustSymbol(r.rhs[1]))
		default:
			rhs = grammar.Binary(grammar.MustSymbol(r.rhs[0]), grammar.MustSymbol(r.rhs[1]))
		}
		prob[grammar.Rule{LHS: grammar.MustSymbol(r.lhs), RHS: rhs}] = r.p
	}
	g, err := grammar.FromRules(prob, false, false)
	if err != nil {
		t.Fatalf("FromRules() error: %v", err)
	}
	return g
}

var treebank = []string{
	"(TOP (S (NP (DT the) (NN dog)) (VP barks)))",
	"(TOP (S (NP (DT a) (NN cat)) (VP sleeps)))",
	"(TOP (S (NP (DT the) (NN cat)) (VP (VBZ sees) (NP (DT a) (NN dog)))))",
}

func induce(t *testing.T, config grammar.BuildConfig) *grammar.Grammar {
	t.Helper()
	g, err := grammar.Induce(slices.Values(treebank), config)
	if err != nil {
		t.Fatalf("Induce() error: %v", err)
	}
	return g
}

func TestParseDogBarks(t *testing.T) {
	g := buildGrammar(t,
		bin("S", "NP", "VP", 1),
		lex("NP", "dog", 1),
		lex("VP", "barks", 1),
	)
	got, err := Parse(g, "dog barks", Options{Start: "S"})
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if want := "(S (NP dog) (VP barks))"; got != want {
		t.Errorf("Parse() = %q, want %q", got, want)
	}
}

func TestParseInduced(t *testing.T) {
	g := induce(t, grammar.DefaultBuildConfig())
	tests := []struct {
		sentence string
		want     string
	}{
		{"the dog barks", "(TOP (S (NP (DT the) (NN dog)) (VP barks)))"},
		{"the dog sleeps", "(TOP (S (NP (DT the) (NN dog)) (VP sleeps)))"},
		{"a dog sees the cat", "(TOP (S (NP (DT a) (NN dog)) (VP (VBZ sees) (NP (DT the) (NN cat)))))"},
		{"the bird barks", "(TOP (S (NP (DT the) (NN bird)) (VP barks)))"},
	}
	for _, tt := range tests {
		got, err := Parse(g, tt.sentence, DefaultOptions())
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.sentence, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.sentence, got, tt.want)
		}
	}
}

func TestParseUnknownWordsDisabled(t *testing.T) {
	config := grammar.DefaultBuildConfig()
	config.UnknownWords = false
	g := induce(t, config)

	if _, err := Parse(g, "the dog barks", DefaultOptions()); err != nil {
		t.Errorf("Parse(known sentence) error: %v", err)
	}
	_, err := Parse(g, "the bird barks", DefaultOptions())
	if !errors.Is(err, ErrNotInGrammar) {
		t.Errorf("Parse(unknown word) error = %v, want ErrNotInGrammar", err)
	}
}

func TestUnaryClosureOnlyAtSentenceEnd(t *testing.T) {
	g := buildGrammar(t,
		un("TOP", "NP", 0.5),
		un("TOP", "Z", 0.5),
		bin("Z", "TOP", "C", 1),
		lex("NP", "a", 1),
		lex("C", "c", 1),
	)
	c, err := NewChart(g, []string{"a", "c"}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if got, want := c.Cell(0, 1), []grammar.Symbol{grammar.MustSymbol("NP")}; !reflect.DeepEqual(got, want) {
		t.Errorf("Cell(0,1) = %v, want %v", got, want)
	}
	if c.Covered() {
		t.Error("sentence covered through an interior unary closure")
	}

	got, err := Parse(g, "a", DefaultOptions())
	if err != nil {
		t.Fatalf("Parse(single word) error: %v", err)
	}
	if want := "(TOP (NP a))"; got != want {
		t.Errorf("Parse(single word) = %q, want %q", got, want)
	}
}

func TestTieKeepsFirstSplit(t *testing.T) {
	g := buildGrammar(t,
		bin("S", "S", "S", 0.5),
		lex("S", "a", 0.5),
	)
	c, err := NewChart(g, []string{"a", "a", "a"}, Options{Start: "S"})
	if err != nil {
		t.Fatal(err)
	}
	d, ok := c.Backpointer(0, 3, grammar.MustSymbol("S"))
	if !ok {
		t.Fatal("no backpointer for S over the sentence")
	}
	if d.Kind != Binary || d.Split != 1 {
		t.Errorf("Backpointer = %+v, want binary split at 1", d)
	}
	got, err := c.Viterbi()
	if err != nil {
		t.Fatal(err)
	}
	if want := "(S (S a) (S (S a) (S a)))"; got != want {
		t.Errorf("Viterbi() = %q, want %q", got, want)
	}
	if want := 0.03125; c.Probability() != want {
		t.Errorf("Probability() = %v, want %v", c.Probability(), want)
	}
}

func TestCovering(t *testing.T) {
	g := buildGrammar(t,
		bin("S", "NP", "VP", 0.5),
		bin("S", "X", "VP", 0.5),
		lex("NP", "dog", 1),
		lex("X", "dog", 1),
		lex("VP", "barks", 1),
	)
	c, err := NewChart(g, []string{"dog", "barks"}, Options{Start: "S"})
	if err != nil {
		t.Fatal(err)
	}
	if got, want := c.CoveringString(), "NP VP#X VP"; got != want {
		t.Errorf("CoveringString() = %q, want %q", got, want)
	}
	got, err := c.Viterbi()
	if err != nil {
		t.Fatal(err)
	}
	if want := "(S (NP dog) (VP barks))"; got != want {
		t.Errorf("Viterbi() = %q, want %q", got, want)
	}
}

func TestReconstructMarkers(t *testing.T) {
	g := buildGrammar(t,
		un("TOP", "S%%%%%VP^TOP", 1),
		bin("S%%%%%VP^TOP", "VB^VP", "NP@^VP", 1),
		bin("NP@^VP", "DT^NP", "NN^NP", 1),
		lex("VB^VP", "go", 1),
		lex("DT^NP", "the", 1),
		lex("NN^NP", "park", 1),
	)
	c, err := NewChart(g, []string{"go", "the", "park"}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Viterbi()
	if err != nil {
		t.Fatal(err)
	}
	if want := "(TOP (S (VP (VB go) (DT the) (NN park))))"; got != want {
		t.Errorf("Viterbi() = %q, want %q", got, want)
	}

	raw, err := c.Annotated()
	if err != nil {
		t.Fatal(err)
	}
	if want := "(TOP (S%%%%%VP^TOP (VB^VP go) (NP@^VP (DT^NP the) (NN^NP park))))"; raw.String() != want {
		t.Errorf("Annotated() = %q, want %q", raw.String(), want)
	}
	if raw.Debinarize().String() != got {
		t.Errorf("Annotated().Debinarize() = %q, want %q", raw.Debinarize().String(), got)
	}
}

func TestBinarizedSingleChild(t *testing.T) {
	g := buildGrammar(t,
		un("TOP", "S^TOP", 1),
		bin("S^TOP", "NP@^S", "VP^S", 1),
		lex("NP@^S", "dogs", 1),
		lex("VP^S", "bark", 1),
	)
	c, err := NewChart(g, []string{"dogs", "bark"}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	got, err := c.Viterbi()
	if err != nil {
		t.Fatal(err)
	}
	if want := "(TOP (S (NP@ dogs) (VP bark)))"; got != want {
		t.Errorf("Viterbi() = %q, want %q", got, want)
	}
	raw, err := c.Annotated()
	if err != nil {
		t.Fatal(err)
	}
	if raw.Debinarize().String() != got {
		t.Errorf("Annotated().Debinarize() = %q, want %q", raw.Debinarize().String(), got)
	}
}

func TestCollapsedLexical(t *testing.T) {
	g := buildGrammar(t,
		un("TOP", "NP%%%%%NN^TOP", 1),
		lex("NP%%%%%NN^TOP", "dogs", 1),
	)
	got, err := Parse(g, "dogs", DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if want := "(TOP (NP (NN dogs)))"; got != want {
		t.Errorf("Parse() = %q, want %q", got, want)
	}
}

func TestLookupCodes(t *testing.T) {
	g := buildGrammar(t,
		lex("CD", grammar.NumeralWord, 1),
		lex("NN", "dog", 1),
	)
	got, err := Parse(g, "42", Options{Start: "CD", Numerate: true})
	if err != nil {
		t.Fatalf("Parse(numeral) error: %v", err)
	}
	if want := "(CD 42)"; got != want {
		t.Errorf("Parse(numeral) = %q, want %q", got, want)
	}
	if _, err := Parse(g, "42", Options{Start: "CD"}); !errors.Is(err, ErrNotInGrammar) {
		t.Errorf("Parse(numeral without numerate) error = %v, want ErrNotInGrammar", err)
	}

	got, err = Parse(g, "DOG", Options{Start: "NN", Lower: true})
	if err != nil {
		t.Fatalf("Parse(upper case) error: %v", err)
	}
	if want := "(NN dog)"; got != want {
		t.Errorf("Parse(upper case) = %q, want %q", got, want)
	}
}

func TestNotInGrammar(t *testing.T) {
	g := induce(t, grammar.DefaultBuildConfig())
	c, err := NewChart(g, []string{"barks", "the"}, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if c.Covered() {
		t.Fatal("Covered() = true, want false")
	}
	if c.Probability() != 0 {
		t.Errorf("Probability() = %v, want 0", c.Probability())
	}
	if _, err := c.Viterbi(); !errors.Is(err, ErrNotInGrammar) {
		t.Errorf("Viterbi() error = %v, want ErrNotInGrammar", err)
	}
	if _, err := c.UsedRules(); !errors.Is(err, ErrNotInGrammar) {
		t.Errorf("UsedRules() error = %v, want ErrNotInGrammar", err)
	}
	if c.CoveringString() != "" {
		t.Errorf("CoveringString() = %q, want empty", c.CoveringString())
	}
}

func TestEmptySentence(t *testing.T) {
	g := induce(t, grammar.DefaultBuildConfig())
	if _, err := NewChart(g, nil, DefaultOptions()); !errors.Is(err, ErrEmptySentence) {
		t.Errorf("NewChart(nil) error = %v, want ErrEmptySentence", err)
	}
	if _, err := Parse(g, "  \t ", DefaultOptions()); !errors.Is(err, ErrEmptySentence) {
		t.Errorf("Parse(blank) error = %v, want ErrEmptySentence", err)
	}
}

func TestUsedRulesProbability(t *testing.T) {
	g := induce(t, grammar.DefaultBuildConfig())
	for _, sentence := range []string{"the dog barks", "a cat sees the dog", "the bird sleeps"} {
		tokens := strings.Fields(sentence)
		c, err := NewChart(g, tokens, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		rules, err := c.UsedRules()
		if err != nil {
			t.Fatalf("UsedRules(%q) error: %v", sentence, err)
		}
		if rules[0].LHS != grammar.MustSymbol(DefaultStart) {
			t.Errorf("first rule of %q = %s, want a %s rule", sentence, rules[0], DefaultStart)
		}
		p := 1.0
		for _, r := range rules {
			p *= g.Prob(r.LHS, r.RHS)
		}
		if math.Abs(p-c.Probability()) > 1e-12*c.Probability() {
			t.Errorf("product of used rules for %q = %v, want %v", sentence, p, c.Probability())
		}

		raw, err := c.Annotated()
		if err != nil {
			t.Fatal(err)
		}
		viterbi, err := c.Viterbi()
		if err != nil {
			t.Fatal(err)
		}
		if raw.Debinarize().String() != viterbi {
			t.Errorf("Annotated().Debinarize() = %q, want %q", raw.Debinarize().String(), viterbi)
		}
		tr, err := c.Tree()
		if err != nil {
			t.Fatal(err)
		}
		if got := tr.Leaves(); !reflect.DeepEqual(got, tokens) {
			t.Errorf("Leaves() = %v, want %v", got, tokens)
		}
	}
}

func TestChartDeterministic(t *testing.T) {
	tokens := []string{"a", "dog", "sees", "the", "cat"}
	first, err := NewChart(induce(t, grammar.DefaultBuildConfig()), tokens, DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	firstTree, err := first.Viterbi()
	if err != nil {
		t.Fatal(err)
	}
	for range 3 {
		c, err := NewChart(induce(t, grammar.DefaultBuildConfig()), tokens, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		for span := 1; span <= len(tokens); span++ {
			for begin := 0; begin+span <= len(tokens); begin++ {
				end := begin + span
				if !reflect.DeepEqual(c.Cell(begin, end), first.Cell(begin, end)) {
					t.Errorf("Cell(%d,%d) = %v, want %v", begin, end, c.Cell(begin, end), first.Cell(begin, end))
				}
				for _, sym := range first.Cell(begin, end) {
					if got, want := c.Best(begin, end, sym), first.Best(begin, end, sym); got != want {
						t.Errorf("Best(%d,%d,%s) = %v, want %v", begin, end, sym, got, want)
					}
					got, _ := c.Backpointer(begin, end, sym)
					want, _ := first.Backpointer(begin, end, sym)
					if got != want {
						t.Errorf("Backpointer(%d,%d,%s) = %+v, want %+v", begin, end, sym, got, want)
					}
				}
			}
		}
		got, err := c.Viterbi()
		if err != nil {
			t.Fatal(err)
		}
		if got != firstTree || c.Probability() != first.Probability() {
			t.Errorf("Viterbi() = %q (%v), want %q (%v)", got, c.Probability(), firstTree, first.Probability())
		}
		if c.CoveringString() != first.CoveringString() {
			t.Errorf("CoveringString() = %q, want %q", c.CoveringString(), first.CoveringString())
		}
	}
}

func TestUsedRulesMatchExtractedRules(t *testing.T) {
	g := induce(t, grammar.DefaultBuildConfig())
	b := grammar.NewBuilder(grammar.DefaultBuildConfig())
	for _, sentence := range []string{"the dog barks", "a cat sees the dog", "the cat sleeps"} {
		c, err := NewChart(g, strings.Fields(sentence), DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		used, err := c.UsedRules()
		if err != nil {
			t.Fatalf("UsedRules(%q) error: %v", sentence, err)
		}
		raw, err := c.Annotated()
		if err != nil {
			t.Fatal(err)
		}
		stripParents(raw)
		extracted, err := b.ExtractLine(raw.String())
		if err != nil {
			t.Fatalf("ExtractLine(%q) error: %v", raw.String(), err)
		}

		byText := func(a, b grammar.Rule) int { return strings.Compare(a.String(), b.String()) }
		slices.SortFunc(used, byText)
		slices.SortFunc(extracted, byText)
		if !reflect.DeepEqual(used, extracted) {
			t.Errorf("%q: UsedRules() = %v, extracted %v", sentence, used, extracted)
		}
	}
}

func stripParents(n *tree.Node) {
	if n.IsLeaf() {
		return
	}
	n.Label = grammar.MustSymbol(n.Label).WithoutParent().String()
	for _, c := range n.Children {
		stripParents(c)
	}
}
