// Package pcfg induces a probabilistic context-free grammar from a binarized,
// parent-annotated treebank and parses sentences with the CYK algorithm.
//
//	p, _ := pcfg.Train("treebank.txt", nil)
//	r, _ := p.Parse("the dog barks")
//	fmt.Println(r.Tree) // "(TOP (S (NP (DT the) (NN dog)) (VP barks)))"
package pcfg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"github.com/happyhackingspace/pcfg/cyk"
	"github.com/happyhackingspace/pcfg/grammar"
	"github.com/happyhackingspace/pcfg/internal/textutil"
)

// ModelFile is the file name New looks for.
const ModelFile = "grammar.json"

// DefaultMostLikely are the symbols of the most-likely report.
var DefaultMostLikely = []string{"VP", "S", "NP", "SBAR", "PP"}

// DefaultAmbiguousLimit is the number of ambiguous words reported by default.
const DefaultAmbiguousLimit = 4

// ErrTooLong is returned for sentences longer than ParseConfig.MaxWords.
var ErrTooLong = errors.New("sentence too long")

// ParseConfig holds configuration for parsing.
type ParseConfig struct {
	StartSymbol string
	MaxWords    int // 0 means no limit
	Workers     int // ParseBatch pool size
	Covering    bool
}

// DefaultParseConfig returns the default parsing configuration.
func DefaultParseConfig() ParseConfig {
	return ParseConfig{
		StartSymbol: cyk.DefaultStart,
		Workers:     runtime.NumCPU(),
	}
}

// Parser wraps an estimated grammar.
type Parser struct {
	g      *grammar.Grammar
	config ParseConfig
}

// Result holds the parse of a single sentence.
type Result struct {
	Sentence    string  `json:"sentence"`
	Tree        string  `json:"tree,omitempty"`
	Covered     bool    `json:"covered"`
	Probability float64 `json:"probability"`
	Covering    string  `json:"covering,omitempty"`
	Error       string  `json:"error,omitempty"`
}

// New loads the parser from "grammar.json", searching the current directory
// and parent directories up to the module root (where go.mod lives).
func New() (*Parser, error) {
	path, err := findModel(ModelFile)
	if err != nil {
		return nil, fmt.Errorf("pcfg: %w", err)
	}
	return Load(path)
}

func findModel(name string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		// Stop at module root
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return "", fmt.Errorf("%s not found", name)
}

// ModelDir returns the per-user directory for cached grammars.
func ModelDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "pcfg")
	}
	return filepath.Join(dir, "pcfg")
}

// CachedModelPath returns the path Install writes to.
func CachedModelPath() string {
	return filepath.Join(ModelDir(), ModelFile)
}

// Load loads an induced grammar from a model file.
func Load(path string) (*Parser, error) {
	g, err := grammar.LoadModel(path)
	if err != nil {
		return nil, fmt.Errorf("pcfg: %w", err)
	}
	return FromGrammar(g), nil
}

// FromGrammar wraps g with the default parsing configuration.
func FromGrammar(g *grammar.Grammar) *Parser {
	return &Parser{g: g, config: DefaultParseConfig()}
}

// Save writes the grammar to a model file.
func (p *Parser) Save(path string) error {
	if p.g == nil {
		return fmt.Errorf("pcfg: parser not initialized")
	}
	if err := grammar.SaveModel(p.g, path); err != nil {
		return fmt.Errorf("pcfg: %w", err)
	}
	return nil
}

// Install saves the grammar under ModelDir, where the CLI finds it when no
// grammar file is given.
func (p *Parser) Install() (string, error) {
	path := CachedModelPath()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("pcfg: %w", err)
	}
	if err := p.Save(path); err != nil {
		return "", err
	}
	return path, nil
}

// Grammar returns the underlying grammar.
func (p *Parser) Grammar() *grammar.Grammar {
	return p.g
}

// Config returns the parsing configuration.
func (p *Parser) Config() ParseConfig {
	return p.config
}

// SetConfig replaces the parsing configuration. Zero fields take their
// defaults.
func (p *Parser) SetConfig(config ParseConfig) {
	def := DefaultParseConfig()
	if config.StartSymbol == "" {
		config.StartSymbol = def.StartSymbol
	}
	if config.Workers < 1 {
		config.Workers = def.Workers
	}
	p.config = config
}

func (p *Parser) options() cyk.Options {
	return cyk.Options{
		Start:    p.config.StartSymbol,
		Lower:    p.g.Lowercased(),
		Numerate: p.g.Numerated(),
	}
}

// Parse returns the Viterbi parse of sentence. A sentence the grammar does
// not cover is not an error: the result has Covered unset.
func (p *Parser) Parse(sentence string) (*Result, error) {
	if p.g == nil {
		return nil, fmt.Errorf("pcfg: parser not initialized")
	}
	tokens := textutil.Tokenize(sentence)
	if p.config.MaxWords > 0 && len(tokens) > p.config.MaxWords {
		return nil, fmt.Errorf("pcfg: %w: %d words", ErrTooLong, len(tokens))
	}
	chart, err := cyk.NewChart(p.g, tokens, p.options())
	if err != nil {
		return nil, fmt.Errorf("pcfg: %w", err)
	}

	r := &Result{Sentence: sentence}
	if p.config.Covering {
		r.Covering = chart.CoveringString()
	}
	tree, err := chart.Viterbi()
	if errors.Is(err, cyk.ErrNotInGrammar) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pcfg: %w", err)
	}
	r.Tree = tree
	r.Covered = true
	r.Probability = chart.Probability()
	return r, nil
}

// ParseBatch parses sentences on a pool of Workers goroutines. Results are
// in input order; a sentence that fails carries its error in Result.Error.
// Cancelling ctx stops dispatching and returns the context error.
func (p *Parser) ParseBatch(ctx context.Context, sentences []string) ([]Result, error) {
	results := make([]Result, len(sentences))
	workers := max(1, min(p.config.Workers, len(sentences)))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = p.parseOne(sentences[i])
			}
		}()
	}

	var err error
dispatch:
	for i := range sentences {
		if err = ctx.Err(); err != nil {
			break
		}
		select {
		case <-ctx.Done():
			err = ctx.Err()
			break dispatch
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	return results, err
}

func (p *Parser) parseOne(sentence string) Result {
	r, err := p.Parse(sentence)
	if err != nil {
		return Result{Sentence: sentence, Error: err.Error()}
	}
	return *r
}

// CheckReport summarizes the consistency of the grammar.
type CheckReport struct {
	MaxDivergence float64 `json:"max_divergence"`
	Symbols       int     `json:"symbols"`
	Rules         int     `json:"rules"`
	Lower         bool    `json:"lower"`
	Numerate      bool    `json:"numerate"`
}

// Check reports the greatest divergence from unity of any per-symbol sum.
func (p *Parser) Check() CheckReport {
	return CheckReport{
		MaxDivergence: p.g.MaxDivergence(),
		Symbols:       len(p.g.Symbols()),
		Rules:         p.g.NumRules(),
		Lower:         p.g.Lowercased(),
		Numerate:      p.g.Numerated(),
	}
}

// Ambiguous returns the readings of the given words. Words that are not
// ambiguous are left out. Without words it returns the first limit
// ambiguous words, all of them when limit is 0.
func (p *Parser) Ambiguous(words []string, limit int) []grammar.Ambiguity {
	if len(words) == 0 {
		all := p.g.Ambiguous()
		if limit > 0 && len(all) > limit {
			all = all[:limit]
		}
		return all
	}
	var out []grammar.Ambiguity
	for _, w := range words {
		if a, ok := p.g.AmbiguousWord(w); ok {
			out = append(out, a)
		}
	}
	return out
}

// MostLikely returns the most probable production of every symbol.
func (p *Parser) MostLikely(symbols []string) []grammar.Production {
	return p.g.MostLikely(symbols)
}
