package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/happyhackingspace/pcfg"
	"github.com/spf13/cobra"
)

func (c *CLI) newEvaluateCommand() *cobra.Command {
	var grammarPath, goldPath string
	var limit, maxWords, workers int

	cmd := &cobra.Command{
		Use:     "evaluate",
		Short:   "Evaluate parses against gold trees",
		Example: `  pcfg evaluate --grammar grammar.json --gold test.trees --max-words 15`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadParser(grammarPath)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			cfg := p.Config()
			cfg.StartSymbol = c.config.Parser.StartSymbol
			cfg.Workers = pick(flags.Changed("workers"), workers, c.config.Parser.Workers)
			p.SetConfig(cfg)

			slog.Info("Evaluating", "gold", goldPath, "limit", limit)
			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
			defer stop()
			start := time.Now()
			result, err := p.Evaluate(ctx, goldPath, &pcfg.EvalConfig{
				Limit:    limit,
				MaxWords: pick(flags.Changed("max-words"), maxWords, c.config.Parser.MaxWords),
			})
			if err != nil {
				return err
			}
			slog.Debug("Evaluation completed", "duration", time.Since(start))

			fmt.Printf("Coverage: %.1f%% (%d/%d)\n",
				result.Coverage*100, result.Covered, result.Sentences)
			fmt.Printf("Exact match: %.1f%% (%d/%d)\n",
				result.ExactMatch*100, result.Exact, result.Covered)
			fmt.Printf("Bracket precision: %.1f%% (%d/%d)\n",
				result.Precision*100, result.Matched, result.TestBrackets)
			fmt.Printf("Bracket recall: %.1f%% (%d/%d)\n",
				result.Recall*100, result.Matched, result.GoldBrackets)
			fmt.Printf("Bracket F1: %.1f%%\n", result.F1*100)
			return nil
		},
	}

	cmd.Flags().StringVar(&grammarPath, "grammar", "", "Path to grammar file (default: auto-detect)")
	cmd.Flags().StringVar(&goldPath, "gold", "", "Path to gold trees, one per line")
	cmd.Flags().IntVar(&limit, "limit", 0, "Number of gold trees (0 for all)")
	cmd.Flags().IntVar(&maxWords, "max-words", 15, "Skip longer sentences (0 for no limit)")
	cmd.Flags().IntVar(&workers, "workers", 0, "Number of parsing goroutines (default: number of CPUs)")
	_ = cmd.MarkFlagRequired("gold")
	return cmd
}
