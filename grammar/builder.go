package grammar

import (
	"fmt"
	"iter"
	"log/slog"
	"sort"
	"strings"

	"github.com/pkg/errors"

	"github.com/happyhackingspace/pcfg/internal/textutil"
)

var (
	// ErrFormat marks a malformed treebank line.
	ErrFormat = errors.New("malformed tree")
	// ErrNotBinarized is returned for nodes with more than two children.
	ErrNotBinarized = errors.New("node has more than two children")
	// ErrEmptyCorpus is returned when no production was extracted.
	ErrEmptyCorpus = errors.New("no productions extracted")
)

// logEvery is the progress logging interval in lines.
const logEvery = 1000

// FormatError describes where a treebank line is malformed. It matches
// ErrFormat under errors.Is.
type FormatError struct {
	Line   int
	Column int
	Err    error
}

func (e *FormatError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d, column %d: %v", e.Line, e.Column, e.Err)
	}
	return fmt.Sprintf("column %d: %v", e.Column, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Is makes every FormatError match ErrFormat.
func (e *FormatError) Is(target error) bool { return target == ErrFormat }

// BuildConfig controls grammar induction.
type BuildConfig struct {
	Lower         bool
	Numerate      bool
	UnknownWords  bool
	ConfidenceZ   float64
	MaxLines      int
	SkipMalformed bool
}

// DefaultBuildConfig returns the default induction settings.
func DefaultBuildConfig() BuildConfig {
	return BuildConfig{
		UnknownWords: true,
		ConfidenceZ:  DefaultConfidenceZ,
	}
}

// Builder accumulates production counts from treebank lines.
type Builder struct {
	config  BuildConfig
	counts  map[Rule]int
	lines   int
	skipped int
}

// NewBuilder creates an empty builder.
func NewBuilder(config BuildConfig) *Builder {
	if config.ConfidenceZ <= 0 {
		config.ConfidenceZ = DefaultConfidenceZ
	}
	return &Builder{
		config: config,
		counts: make(map[Rule]int),
	}
}

// Lines returns the number of lines passed to AddLine.
func (b *Builder) Lines() int { return b.lines }

// Skipped returns the number of malformed lines dropped by Induce.
func (b *Builder) Skipped() int { return b.skipped }

// Count returns the raw count of rule.
func (b *Builder) Count(rule Rule) int { return b.counts[rule] }

// AddLine extracts the productions of one bracketed tree and adds them to
// the counts. A malformed line leaves the counts untouched.
func (b *Builder) AddLine(line string) error {
	b.lines++
	rules, err := b.ExtractLine(line)
	if err != nil {
		var fe *FormatError
		if errors.As(err, &fe) {
			fe.Line = b.lines
		}
		return err
	}
	for _, r := range rules {
		b.counts[r]++
	}
	return nil
}

// ExtractLine returns the parent-annotated productions of one bracketed
// tree, in the order their nodes close.
func (b *Builder) ExtractLine(line string) ([]Rule, error) {
	var open []int
	children := make(map[int][]Symbol)
	var rules []Rule

	for i := 0; i < len(line); i++ {
		switch line[i] {
		case '(':
			open = append(open, i)
		case ')':
			if len(open) == 0 {
				return nil, &FormatError{Column: i, Err: errors.New("unmatched ')'")}
			}
			start := open[len(open)-1]
			open = open[:len(open)-1]

			label, rest := splitLabel(line[start+1 : i])
			if label == "" {
				return nil, &FormatError{Column: start, Err: errors.New("node without label")}
			}
			text := label
			parent := -1
			if len(open) > 0 {
				parent = open[len(open)-1]
				parentLabel, _ := splitLabel(line[parent+1:])
				text = label + ParentSep + parentLabel
			}
			lhs, err := ParseSymbol(text)
			if err != nil {
				return nil, &FormatError{Column: start, Err: err}
			}
			if parent >= 0 {
				children[parent] = append(children[parent], lhs)
			}

			kids := children[start]
			delete(children, start)
			switch len(kids) {
			case 0:
				word := strings.TrimSpace(rest)
				if word == "" {
					return nil, &FormatError{Column: start, Err: errors.Errorf("empty leaf under %s", label)}
				}
				word = textutil.Normalize(word, b.config.Lower, b.config.Numerate, NumeralWord)
				rules = append(rules, Rule{LHS: lhs, RHS: Word(word)})
			case 1:
				rules = append(rules, Rule{LHS: lhs, RHS: Unary(kids[0])})
			case 2:
				rules = append(rules, Rule{LHS: lhs, RHS: Binary(kids[0], kids[1])})
			default:
				return nil, &FormatError{Column: start, Err: errors.Wrapf(ErrNotBinarized, "%s has %d", label, len(kids))}
			}
		}
	}
	if len(open) > 0 {
		return nil, &FormatError{Column: open[len(open)-1], Err: errors.New("unmatched '('")}
	}
	return rules, nil
}

// splitLabel splits the text following an opening bracket into the node
// label and the remainder.
func splitLabel(s string) (label, rest string) {
	end := strings.IndexAny(s, " \t\r\n()")
	if end < 0 {
		return s, ""
	}
	return s[:end], s[end:]
}

// Build estimates the grammar from the accumulated counts.
func (b *Builder) Build() (*Grammar, error) {
	if len(b.counts) == 0 {
		return nil, ErrEmptyCorpus
	}
	rules := sortedRules(b.counts)
	counts := make([]int, len(rules))
	for i, r := range rules {
		counts[i] = b.counts[r]
	}

	slog.Debug("Computing normalized frequency counts", "productions", len(rules))
	weights, err := EstimateGoodTuring(counts, b.config.ConfidenceZ)
	if err != nil {
		return nil, errors.Wrap(err, "good-turing")
	}

	slog.Debug("Normalizing PCFG", "p0", weights.PZero, "slope", weights.Slope)
	prob := normalize(rules, b.counts, weights, b.config.UnknownWords)
	return newGrammar(prob, b.config.Lower, b.config.Numerate), nil
}

// Induce reads bracketed trees from lines and returns the estimated grammar.
// Malformed lines abort induction unless config.SkipMalformed is set.
func Induce(lines iter.Seq[string], config BuildConfig) (*Grammar, error) {
	b := NewBuilder(config)
	for line := range lines {
		if config.MaxLines > 0 && b.Lines() >= config.MaxLines {
			break
		}
		if err := b.AddLine(line); err != nil {
			if config.SkipMalformed && errors.Is(err, ErrFormat) {
				b.skipped++
				slog.Warn("Skipping malformed tree", "error", err)
				continue
			}
			return nil, err
		}
		if b.Lines()%logEvery == 0 {
			slog.Debug("Grammar lines parsed", "lines", b.Lines())
		}
	}
	return b.Build()
}

func sortedRules(counts map[Rule]int) []Rule {
	rules := make([]Rule, 0, len(counts))
	for r := range counts {
		rules = append(rules, r)
	}
	sort.Slice(rules, func(i, j int) bool {
		li, lj := rules[i].LHS.String(), rules[j].LHS.String()
		if li != lj {
			return li < lj
		}
		return rules[i].RHS.sortKey() < rules[j].RHS.sortKey()
	})
	return rules
}
