package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/happyhackingspace/pcfg/internal/server"
	"github.com/spf13/cobra"
)

func (c *CLI) newServeCommand() *cobra.Command {
	var grammarPath, addr string
	var maxConnections int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the parser over an HTTP JSON API",
		Example: `  pcfg serve --grammar grammar.json --addr :8080
  curl -s localhost:8080/api/v1/parse -d '{"sentence":"the dog barks"}'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := loadParser(grammarPath)
			if err != nil {
				return err
			}
			pc := c.config.Parser
			cfg := p.Config()
			cfg.StartSymbol = pc.StartSymbol
			cfg.MaxWords = pc.MaxWords
			cfg.Workers = pc.Workers
			p.SetConfig(cfg)

			flags := cmd.Flags()
			sc := c.config.Server
			srv := server.New(p, server.Config{
				Addr:           pick(flags.Changed("addr"), addr, sc.Addr),
				MaxConnections: pick(flags.Changed("max-connections"), maxConnections, sc.MaxConnections),
				MaxBatch:       sc.MaxBatch,
			})

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&grammarPath, "grammar", "", "Path to grammar file (default: auto-detect)")
	cmd.Flags().StringVar(&addr, "addr", ":8080", "Listen address")
	cmd.Flags().IntVar(&maxConnections, "max-connections", 256, "Maximum simultaneous connections (0 for unlimited)")
	return cmd
}
