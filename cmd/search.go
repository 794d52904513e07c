package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/kamusis/cinerec/internal/catalog"
)

var (
	flagSearchLimit  int
	flagSearchPrefix bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Find catalog titles by keyword or prefix",
	Long: `Search the catalog by title. Every word of the query must appear in the
title. With --prefix, list titles starting with the query instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVar(&flagSearchLimit, "limit", 20, "Maximum number of results")
	searchCmd.Flags().BoolVar(&flagSearchPrefix, "prefix", false, "Match titles by prefix")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := catalog.Load(cfg.CatalogPath())
	if err != nil {
		return err
	}
	query := strings.Join(args, " ")

	if flagSearchPrefix {
		titles := cat.Suggest(query, flagSearchLimit)
		fmt.Fprintf(stdout, "\ncinerec search --prefix %q\n\nResults (%d found):\n", query, len(titles))
		for _, t := range titles {
			fmt.Fprintf(stdout, "  %s\n", t)
		}
		return nil
	}

	movies := cat.Search(query, flagSearchLimit)
	fmt.Fprintf(stdout, "\ncinerec search %q\n\nResults (%d found):\n", query, len(movies))
	if len(movies) == 0 {
		return nil
	}
	tw := tabwriter.NewWriter(stdout, 0, 0, 2, ' ', 0)
	for _, m := range movies {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", catalog.DisplayTitle(m.Title), m.Director, m.Genres)
	}
	return tw.Flush()
}
