package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/studentorg/dashsync/internal/models"
)

func (c *CLI) syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [collection]",
		Short: "Pull one collection, or all of them, into the local replica",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 1 {
				recs, err := c.app.Sync(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %d records\n", args[0], len(recs))
				return nil
			}
			if err := c.app.SyncAll(ctx); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "all collections synced")
			return nil
		},
	}
}

func (c *CLI) watchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Monitor connectivity and replay queued changes on reconnect",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if err := c.app.SyncAll(ctx); err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "initial sync incomplete: %v\n", err)
			}
			c.app.Watch(ctx)
			return nil
		},
	}
}

func (c *CLI) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show connectivity and the offline change queue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			out := cmd.OutOrStdout()

			if c.app.IsOffline() {
				fmt.Fprintln(out, "connectivity: offline")
			} else {
				fmt.Fprintln(out, "connectivity: online")
			}

			changes, err := c.app.PendingChanges(ctx)
			if err != nil {
				return err
			}

			pending := 0
			perColl := map[string]int{}
			for _, ch := range changes {
				if ch.Synced {
					continue
				}
				pending++
				perColl[ch.Collection]++
			}
			fmt.Fprintf(out, "queued changes: %d pending, %d total\n", pending, len(changes))
			for _, coll := range models.Collections() {
				if n := perColl[coll.Name]; n > 0 {
					fmt.Fprintf(out, "  %s: %d\n", coll.Name, n)
				}
			}
			for _, ch := range changes {
				if !ch.Synced && ch.SyncAttempts > 0 {
					fmt.Fprintf(out, "  %s %s/%s attempts=%d\n", ch.Op, ch.Collection, ch.RecordID, ch.SyncAttempts)
				}
			}
			return nil
		},
	}
}

func (c *CLI) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop all replica rows, sync metadata and queued changes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := c.app.ClearCache(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "local replica cleared")
			return nil
		},
	}
}

func (c *CLI) purgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge-codes",
		Short: "Strip event check-in codes from already cached rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.app.PurgeEventCodes(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rewrote %d rows\n", n)
			return nil
		},
	}
}
