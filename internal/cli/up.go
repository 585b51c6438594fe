package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/creativeprojects/go-selfupdate"
	"github.com/happyhackingspace/pcfg"
	"github.com/spf13/cobra"
)

func (c *CLI) newUpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Self-update to the latest version and refresh the installed grammar",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.selfUpdate(cmd.Context()); err != nil {
				return err
			}
			path, err := refreshCachedGrammar()
			if err != nil {
				return err
			}
			if path != "" {
				slog.Info("Installed grammar refreshed", "path", path)
			}
			return nil
		},
	}
}

func (c *CLI) selfUpdate(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	v := c.version
	if v == "dev" {
		v = "0.0.0"
	}

	updater, err := selfupdate.NewUpdater(selfupdate.Config{})
	if err != nil {
		return err
	}

	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug("happyhackingspace/pcfg"))
	if err != nil {
		return fmt.Errorf("detect latest version: %w", err)
	}
	if !found {
		return fmt.Errorf("no release found")
	}

	if latest.LessOrEqual(v) {
		fmt.Printf("Already up to date (%s)\n", c.version)
		return nil
	}

	slog.Info("Updating", "from", c.version, "to", latest.Version())

	exe, err := os.Executable()
	if err != nil {
		return err
	}
	if err := updater.UpdateTo(ctx, latest, exe); err != nil {
		return fmt.Errorf("update: %w", err)
	}

	fmt.Printf("Updated to %s\n", latest.Version())
	return nil
}

// refreshCachedGrammar loads the grammar installed by train --install and
// rewrites it in the current model layout. It returns an empty path when no
// grammar is installed.
func refreshCachedGrammar() (string, error) {
	path := pcfg.CachedModelPath()
	if _, err := os.Stat(path); err != nil {
		return "", nil
	}
	p, err := pcfg.Load(path)
	if err != nil {
		return "", fmt.Errorf("installed grammar %s cannot be loaded, run train --install again: %w", path, err)
	}
	if _, err := p.Install(); err != nil {
		return "", err
	}
	return path, nil
}
