package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pders01/gazette/internal/debuglog"
	"github.com/pders01/gazette/internal/feed"
)

var (
	importCategory   string
	importPermissive bool
	importTimeout    time.Duration
)

// importCmd publishes the items of one or more feeds as articles, through the
// functions or, with --offline, straight into the cache.
var importCmd = &cobra.Command{
	Use:   "import <feed-url>...",
	Short: "Import RSS, Atom or JSON feed items as articles",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		defer debuglog.Close()

		store, err := openStore(cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		backend, err := openBackend(cfg, store)
		if err != nil {
			return err
		}

		manager := feed.NewManager(backend, cfg)
		manager.SetPermissiveValidation(importPermissive)

		ctx := cmd.Context()
		if importTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, importTimeout)
			defer cancel()
		}

		results, err := manager.ImportAll(ctx, args, importCategory)
		out := cmd.OutOrStdout()
		imported := 0
		for i, res := range results {
			if res == nil {
				fmt.Fprintf(out, "✗ %s\n", args[i])
				continue
			}
			imported += len(res.Imported)
			fmt.Fprintf(out, "✓ %s: %d imported", res.Title, len(res.Imported))
			if len(res.Failed) > 0 {
				fmt.Fprintf(out, ", %d failed", len(res.Failed))
			}
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "Imported %d articles into %s\n", imported, backend.Name())
		return err
	},
}

func init() {
	importCmd.Flags().StringVar(&importCategory, "category", "", "Category for items that carry none")
	importCmd.Flags().BoolVar(&importPermissive, "allow-local", false, "Allow feeds on local or private hosts")
	importCmd.Flags().DurationVar(&importTimeout, "timeout", 2*time.Minute, "Overall import timeout")
}
