package cli

import (
	"log/slog"
	"time"

	"github.com/happyhackingspace/pcfg"
	"github.com/spf13/cobra"
)

func (c *CLI) newTrainCommand() *cobra.Command {
	var treebankPath string
	var limit int
	var lower, numerate, noUnknown, skipMalformed, install bool
	var confidence float64

	cmd := &cobra.Command{
		Use:   "train <grammarfile>",
		Short: "Induce a grammar from a binarized treebank",
		Args:  cobra.ExactArgs(1),
		Example: `  pcfg train grammar.json --treebank train.trees
  pcfg train grammar.json --treebank train.trees --limit 5000 --lower
  pcfg train grammar.json --treebank train.trees --skip-malformed -v
  pcfg train grammar.json --treebank train.trees --install`,
		RunE: func(cmd *cobra.Command, args []string) error {
			grammarPath := args[0]
			g := c.config.Grammar
			flags := cmd.Flags()
			cfg := pcfg.TrainConfig{
				Lower:         pick(flags.Changed("lower"), lower, g.Lower),
				Numerate:      pick(flags.Changed("numerate"), numerate, g.Numerate),
				UnknownWords:  pick(flags.Changed("no-unknown"), !noUnknown, g.UnknownWords),
				ConfidenceZ:   pick(flags.Changed("confidence"), confidence, g.ConfidenceZ),
				MaxLines:      pick(flags.Changed("limit"), limit, g.MaxLines),
				SkipMalformed: pick(flags.Changed("skip-malformed"), skipMalformed, g.SkipMalformed),
			}

			slog.Info("Inducing grammar", "treebank", treebankPath, "output", grammarPath, "limit", cfg.MaxLines)
			start := time.Now()
			p, err := pcfg.Train(treebankPath, &cfg)
			if err != nil {
				return err
			}
			slog.Debug("Induction completed", "duration", time.Since(start))
			if err := p.Save(grammarPath); err != nil {
				return err
			}
			slog.Info("Grammar saved", "path", grammarPath)
			if install {
				path, err := p.Install()
				if err != nil {
					return err
				}
				slog.Info("Grammar installed", "path", path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&treebankPath, "treebank", "", "Path to binarized treebank, one tree per line")
	cmd.Flags().IntVar(&limit, "limit", 0, "Use only the first N treebank lines (0 for all)")
	cmd.Flags().BoolVar(&lower, "lower", false, "Lower-case words")
	cmd.Flags().BoolVar(&numerate, "numerate", false, "Replace numerals with a shared code")
	cmd.Flags().BoolVar(&noUnknown, "no-unknown", false, "Do not reserve probability mass for unknown words")
	cmd.Flags().BoolVar(&skipMalformed, "skip-malformed", false, "Skip malformed trees instead of failing")
	cmd.Flags().Float64Var(&confidence, "confidence", 1.96, "Confidence factor of the Good-Turing switch")
	cmd.Flags().BoolVar(&install, "install", false, "Also install the grammar as the default for parse, check and serve")
	_ = cmd.MarkFlagRequired("treebank")
	return cmd
}

// pick returns flag when the flag was set on the command line, else the
// configured value.
func pick[T any](changed bool, flag, configured T) T {
	if changed {
		return flag
	}
	return configured
}
