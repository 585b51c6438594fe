package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/happyhackingspace/pcfg"
	"github.com/happyhackingspace/pcfg/cyk"
	"github.com/happyhackingspace/pcfg/internal/treebank"
	"github.com/spf13/cobra"
)

func (c *CLI) newParseCommand() *cobra.Command {
	var grammarPath, startSymbol string
	var from, limit, maxWords, workers int
	var covering, prob bool

	cmd := &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse sentences with the CYK algorithm",
		Args:  cobra.MaximumNArgs(1),
		Example: `  # Interactive mode, an empty line exits
  pcfg parse --grammar grammar.json

  # Parse a file of sentences, one per line
  pcfg parse test.sentences --grammar grammar.json

  # Parse lines 100-199 and print covering productions
  pcfg parse test.sentences --from 100 --limit 100 --covering

  # Pipe sentences from stdin
  echo "the dog barks" | pcfg parse --grammar grammar.json --prob`,
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			pc := c.config.Parser
			cfg := pcfg.ParseConfig{
				StartSymbol: pick(flags.Changed("start-symbol"), startSymbol, pc.StartSymbol),
				MaxWords:    pick(flags.Changed("max-words"), maxWords, pc.MaxWords),
				Workers:     pick(flags.Changed("workers"), workers, pc.Workers),
				Covering:    covering,
			}

			start := time.Now()
			p, err := loadParser(grammarPath)
			if err != nil {
				return err
			}
			slog.Debug("Grammar loaded", "rules", p.Grammar().NumRules(), "duration", time.Since(start))

			if len(args) == 0 && isStdinTerminal() {
				cfg.MaxWords = 0
				p.SetConfig(cfg)
				return interactive(p, os.Stdin, os.Stdout, prob)
			}
			p.SetConfig(cfg)

			tb := treebank.FromReader(os.Stdin)
			if len(args) == 1 {
				tb = treebank.Open(args[0])
			}
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			return batch(ctx, p, tb, treebank.IterOptions{Start: from, Limit: limit}, os.Stdout, prob)
		},
	}

	cmd.Flags().StringVar(&grammarPath, "grammar", "", "Path to grammar file (default: auto-detect)")
	cmd.Flags().StringVar(&startSymbol, "start-symbol", cyk.DefaultStart, "Start symbol")
	cmd.Flags().IntVar(&from, "from", 0, "First line to parse (1-based)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of lines to parse (0 for all)")
	cmd.Flags().IntVar(&maxWords, "max-words", 15, "Print an empty line for longer sentences (0 for no limit)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of parsing goroutines (default: number of CPUs)")
	cmd.Flags().BoolVar(&covering, "covering", false, "Print covering productions instead of parses")
	cmd.Flags().BoolVar(&prob, "prob", false, "Print the Viterbi probability after each parse")
	return cmd
}

func isStdinTerminal() bool {
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

// loadParser loads path. Without a path it searches for grammar.json and
// then falls back to the grammar installed by train --install.
func loadParser(path string) (*pcfg.Parser, error) {
	if path != "" {
		slog.Debug("Loading grammar", "path", path)
		return pcfg.Load(path)
	}
	p, err := pcfg.New()
	if err == nil {
		return p, nil
	}
	cached := pcfg.CachedModelPath()
	if _, statErr := os.Stat(cached); statErr != nil {
		return nil, err
	}
	slog.Debug("Loading cached grammar", "path", cached)
	return pcfg.Load(cached)
}

// interactive parses one sentence per line until an empty line.
func interactive(p *pcfg.Parser, in io.Reader, out io.Writer, prob bool) error {
	slog.Info("Enter an empty line to exit")
	sc := bufio.NewScanner(in)
	for {
		fmt.Fprint(os.Stderr, "Enter a sentence to parse: ")
		if !sc.Scan() {
			return sc.Err()
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			return nil
		}
		r, err := p.Parse(line)
		if err != nil {
			return err
		}
		if p.Config().Covering {
			fmt.Fprintf(out, "Covering productions: %s\n", r.Covering)
		}
		if !r.Covered {
			fmt.Fprintln(out, cyk.NotInGrammarMessage)
			continue
		}
		fmt.Fprintln(out, formatResult(r.Tree, r.Probability, prob))
	}
}

// batch parses the selected lines and writes one output line per input
// line. Uncovered and skipped sentences produce an empty line.
func batch(ctx context.Context, p *pcfg.Parser, tb *treebank.Treebank, opts treebank.IterOptions, out io.Writer, prob bool) error {
	sentences, err := tb.ReadAll(opts)
	if err != nil {
		return err
	}
	slog.Info("Parsing sentences", "count", len(sentences), "workers", p.Config().Workers)
	start := time.Now()
	results, err := p.ParseBatch(ctx, sentences)
	if err != nil {
		return err
	}

	w := bufio.NewWriter(out)
	covered := 0
	for i, r := range results {
		if r.Error != "" {
			slog.Debug("Sentence skipped", "line", i+1, "error", r.Error)
		}
		if r.Covered {
			covered++
		}
		switch {
		case p.Config().Covering:
			fmt.Fprintln(w, r.Covering)
		case r.Covered:
			fmt.Fprintln(w, formatResult(r.Tree, r.Probability, prob))
		default:
			fmt.Fprintln(w)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	slog.Info("Parsing completed", "sentences", len(results), "covered", covered, "duration", time.Since(start))
	return nil
}

func formatResult(tree string, probability float64, prob bool) string {
	if !prob {
		return tree
	}
	return fmt.Sprintf("%s\t%g", tree, probability)
}
