package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kamusis/cinerec/internal/importer"
)

var setupCmd = &cobra.Command{
	Use:   "setup <source-dir>",
	Short: "Copy the catalog and sentiment artifacts into the data directory",
	Long: `Copy main_data.csv and the sentiment model artifacts from a project
checkout into the cinerec data directory.

Files are looked up at the top of <source-dir> and under static/model/.
Identical files are skipped. A file that differs from the one already in
the data directory is stored next to it as <name>.conflict-setup.<ext>.`,
	Args: cobra.ExactArgs(1),
	RunE: runSetup,
}

func init() {
	rootCmd.AddCommand(setupCmd)
}

func runSetup(_ *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	src, err := filepath.Abs(args[0])
	if err != nil {
		return err
	}
	names := []string{cfg.CatalogFile, cfg.ModelFile, cfg.VectorizerFile}

	printSection("Setup")
	res, err := importer.ImportFiles(src, cfg.DataDir, names, "setup")
	if err != nil {
		return err
	}
	for _, o := range res.Outcomes {
		switch o.Status {
		case importer.StatusCopied:
			printOK(o.Name, fmt.Sprintf("copied from %s", o.Source))
		case importer.StatusIdentical:
			printSkip(o.Name, "already up to date")
		case importer.StatusConflict:
			printWarn(o.Name, fmt.Sprintf("differs from existing file, saved as %s", filepath.Base(o.Dest)))
		case importer.StatusMissing:
			printMiss(o.Name, "not found")
		}
	}

	fmt.Fprintln(stdout)
	if len(res.Conflicts) > 0 {
		printInfo("", "review the .conflict-setup files and replace the originals if they are newer")
	}
	fmt.Fprintf(stdout, "Setup complete! Run: cinerec recommend <title>\n")
	return nil
}
