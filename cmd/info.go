package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kamusis/cinerec/internal/catalog"
	"github.com/kamusis/cinerec/internal/similarity/index"
)

var flagInfoSample int

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show catalog statistics",
	Args:  cobra.NoArgs,
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().IntVar(&flagInfoSample, "sample", 5, "Number of sample titles to list")
	rootCmd.AddCommand(infoCmd)
}

func runInfo(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	cat, err := catalog.Load(cfg.CatalogPath())
	if err != nil {
		return err
	}
	info := cat.Info(flagInfoSample)

	printSection("Catalog")
	printOK("", fmt.Sprintf("%d movies in %s", info.Total, cfg.CatalogPath()))
	printInfo("", "sha256 "+cat.Hash())
	if _, err := index.LoadFor(cfg.IndexDir, cat.Hash()); err == nil {
		printOK("", "similarity index is up to date")
	} else {
		printSkip("", "no current similarity index; run 'cinerec index'")
	}
	if len(info.Sample) > 0 {
		printBullet("Sample")
		for _, t := range info.Sample {
			fmt.Fprintf(stdout, "  %s\n", t)
		}
	}
	return nil
}
