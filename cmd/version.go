package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
)

// Overridden with -ldflags "-X github.com/kamusis/cinerec/cmd.version=...".
var (
	version   = "dev"
	commit    = ""
	buildDate = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show cinerec version and build information",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		fmt.Fprint(stdout, versionText())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func versionText() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cinerec %s\n", version)
	for _, row := range [][2]string{
		{"commit", orNA(commit)},
		{"built", orNA(buildDate)},
		{"go", fmt.Sprintf("%s %s/%s", runtime.Version(), runtime.GOOS, runtime.GOARCH)},
	} {
		fmt.Fprintf(&b, "  %-8s %s\n", row[0]+":", row[1])
	}
	return b.String()
}

func orNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}
