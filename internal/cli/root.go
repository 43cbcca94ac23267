// Package cli wires the cobra command tree around the application facade.
package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studentorg/dashsync/internal/app"
	"github.com/studentorg/dashsync/internal/config"
)

// CLI owns the command tree and the lazily constructed application.
type CLI struct {
	cfg  *config.Config
	app  *app.App
	root *cobra.Command
}

func New(cfg *config.Config) *CLI {
	c := &CLI{cfg: cfg}

	c.root = &cobra.Command{
		Use:           "dashsync",
		Short:         "Local replica sync for the org dashboard",
		Long:          "Keeps a local SQLite replica of the dashboard's PocketBase collections in sync and replays offline changes.",
		SilenceUsage:  true,
		SilenceErrors: true,
		// Config flags (-a, -d, -config, ...) are parsed separately by the
		// config package, so cobra must tolerate them.
		FParseErrWhitelist: cobra.FParseErrWhitelist{UnknownFlags: true},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.NewApp(cmd.Context(), cfg)
			if err != nil {
				return fmt.Errorf("startup failed: %w", err)
			}
			c.app = a
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			return c.app.Close()
		},
	}

	c.root.AddCommand(
		c.syncCmd(),
		c.watchCmd(),
		c.statusCmd(),
		c.clearCmd(),
		c.purgeCmd(),
	)
	return c
}

// Run executes the command tree.
func (c *CLI) Run(ctx context.Context) error {
	return c.root.ExecuteContext(ctx)
}
