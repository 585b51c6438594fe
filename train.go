package pcfg

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/happyhackingspace/pcfg/grammar"
	"github.com/happyhackingspace/pcfg/internal/tree"
	"github.com/happyhackingspace/pcfg/internal/treebank"
)

// TrainConfig holds configuration for grammar induction.
type TrainConfig struct {
	Lower         bool
	Numerate      bool
	UnknownWords  bool
	ConfidenceZ   float64
	MaxLines      int
	SkipMalformed bool
}

// DefaultTrainConfig returns the default induction configuration.
func DefaultTrainConfig() TrainConfig {
	return TrainConfig{
		UnknownWords: true,
		ConfidenceZ:  grammar.DefaultConfidenceZ,
	}
}

func (c TrainConfig) build() grammar.BuildConfig {
	return grammar.BuildConfig{
		Lower:         c.Lower,
		Numerate:      c.Numerate,
		UnknownWords:  c.UnknownWords,
		ConfidenceZ:   c.ConfidenceZ,
		MaxLines:      c.MaxLines,
		SkipMalformed: c.SkipMalformed,
	}
}

// EvalConfig holds configuration for evaluation against gold trees.
type EvalConfig struct {
	Limit    int // number of gold trees, 0 for all
	MaxWords int // longer sentences count as not covered, 0 for no limit
}

// EvalResult holds PARSEVAL-style scores. Bracket scores are computed over
// covered sentences only.
type EvalResult struct {
	Sentences    int
	Covered      int
	Exact        int
	GoldBrackets int
	TestBrackets int
	Matched      int

	Coverage   float64
	ExactMatch float64
	Precision  float64
	Recall     float64
	F1         float64
}

// Train induces a grammar from the treebank file at treebankPath.
func Train(treebankPath string, config *TrainConfig) (*Parser, error) {
	cfg := DefaultTrainConfig()
	if config != nil {
		cfg = *config
	}

	start := time.Now()
	tb := treebank.Open(treebankPath)
	g, err := grammar.Induce(tb.Texts(treebank.DefaultIterOptions()), cfg.build())
	if err != nil {
		return nil, fmt.Errorf("pcfg: %w", err)
	}
	if err := tb.Err(); err != nil {
		return nil, fmt.Errorf("pcfg: %w", err)
	}
	slog.Info("Grammar induced", "rules", g.NumRules(), "symbols", len(g.Symbols()), "duration", time.Since(start))
	return FromGrammar(g), nil
}

// Evaluate parses the leaves of every gold tree in goldPath and compares
// the Viterbi parses with the debinarized gold trees.
func (p *Parser) Evaluate(ctx context.Context, goldPath string, config *EvalConfig) (*EvalResult, error) {
	var cfg EvalConfig
	if config != nil {
		cfg = *config
	}
	opts := treebank.DefaultIterOptions()
	opts.Limit = cfg.Limit
	trees, err := treebank.Open(goldPath).Trees(opts)
	if err != nil {
		return nil, fmt.Errorf("pcfg: %w", err)
	}
	if len(trees) == 0 {
		return nil, fmt.Errorf("pcfg: no gold trees found in %s", goldPath)
	}

	gold := make([]*tree.Node, len(trees))
	sentences := make([]string, len(trees))
	for i, t := range trees {
		gold[i] = t.Debinarize()
		sentences[i] = strings.Join(gold[i].Leaves(), " ")
	}

	batch := *p
	batch.config.MaxWords = cfg.MaxWords
	results, err := batch.ParseBatch(ctx, sentences)
	if err != nil {
		return nil, fmt.Errorf("pcfg: %w", err)
	}

	res := &EvalResult{Sentences: len(trees)}
	for i, r := range results {
		if !r.Covered {
			slog.Debug("Sentence not covered", "sentence", i+1, "error", r.Error)
			continue
		}
		test, err := tree.Parse(r.Tree)
		if err != nil {
			return nil, fmt.Errorf("pcfg: parse output %d: %w", i+1, err)
		}
		res.Covered++
		if p.g.Lowercased() {
			lowerLeaves(gold[i])
		}
		if test.String() == gold[i].String() {
			res.Exact++
		}
		gb, tb := gold[i].Brackets(), test.Brackets()
		res.GoldBrackets += len(gb)
		res.TestBrackets += len(tb)
		res.Matched += tree.Match(gb, tb)
	}
	res.score()
	return res, nil
}

func (r *EvalResult) score() {
	r.Coverage = ratio(r.Covered, r.Sentences)
	r.ExactMatch = ratio(r.Exact, r.Covered)
	r.Precision = ratio(r.Matched, r.TestBrackets)
	r.Recall = ratio(r.Matched, r.GoldBrackets)
	if r.Precision+r.Recall > 0 {
		r.F1 = 2 * r.Precision * r.Recall / (r.Precision + r.Recall)
	}
}

func ratio(a, b int) float64 {
	if b == 0 {
		return 0
	}
	return float64(a) / float64(b)
}

func lowerLeaves(n *tree.Node) {
	if n.IsLeaf() {
		n.Label = strings.ToLower(n.Label)
		return
	}
	for _, c := range n.Children {
		lowerLeaves(c)
	}
}
