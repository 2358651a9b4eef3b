package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/gazette/internal/debuglog"
)

var searchLimit int

// searchCmd queries the cached articles, the same index the admin console
// uses.
var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search cached articles",
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

		searcher, closeSearch := openSearcher(cfg, store)
		defer closeSearch()

		results, err := searcher.Search(strings.Join(args, " "), searchLimit)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(results) == 0 {
			fmt.Fprintln(out, "No results")
			return nil
		}
		for _, r := range results {
			fmt.Fprintf(out, "%-12s %s  [%s]\n", r.Article.ID, r.Article.Title, r.Article.Category)
			for _, m := range r.Matches {
				if m.Field == "content" || m.Field == "excerpt" {
					fmt.Fprintf(out, "             %s\n", m.Text)
					break
				}
			}
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().IntVar(&searchLimit, "limit", 10, "Maximum number of results")
}
