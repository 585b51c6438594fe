package cli

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/happyhackingspace/pcfg"
	"github.com/spf13/cobra"
)

func (c *CLI) newCheckCommand() *cobra.Command {
	var grammarPath, ambiguous, mostLikely string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Report grammar consistency, ambiguous words and most likely productions",
		Example: `  pcfg check --grammar grammar.json
  pcfg check --ambiguous "saw like"
  pcfg check --most-likely "NP VP"`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadParser(grammarPath)
			if err != nil {
				return err
			}

			report := p.Check()
			slog.Info("Testing probability consistencies")
			fmt.Printf("Greatest divergence from unity: %0.20f\n", report.MaxDivergence)
			fmt.Printf("Symbols: %d  Rules: %d\n", report.Symbols, report.Rules)

			words := strings.Fields(ambiguous)
			amb := p.Ambiguous(words, pcfg.DefaultAmbiguousLimit)
			if len(words) == 0 {
				fmt.Printf("\n%d syntactically ambiguous terminals:\n", len(amb))
			} else {
				found := make(map[string]bool, len(amb))
				for _, a := range amb {
					found[a.Word] = true
				}
				fmt.Println()
				for _, w := range words {
					if found[w] {
						fmt.Printf("'%s' is ambiguous.\n", w)
					} else {
						fmt.Printf("'%s' is not ambiguous.\n", w)
					}
				}
			}
			if err := printJSON(amb); err != nil {
				return err
			}

			symbols := strings.Fields(mostLikely)
			if len(symbols) == 0 {
				symbols = pcfg.DefaultMostLikely
			}
			fmt.Printf("\nMost likely production for non-terminals %v:\n", symbols)
			return printJSON(p.MostLikely(symbols))
		},
	}

	cmd.Flags().StringVar(&grammarPath, "grammar", "", "Path to grammar file (default: auto-detect)")
	cmd.Flags().StringVar(&ambiguous, "ambiguous", "", "Space-separated words to test for ambiguity")
	cmd.Flags().StringVar(&mostLikely, "most-likely", "", "Space-separated symbols (default: VP S NP SBAR PP)")
	return cmd
}

func printJSON(v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}
