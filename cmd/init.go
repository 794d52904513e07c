package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kamusis/cinerec/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create ~/.cinerec with a default config and .env template",
	Long: `Create the cinerec home directory at ~/.cinerec/.

Writes cinerec.yaml with defaults and a .env template for TMDB_API_KEY.
Existing files are left untouched.`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(_ *cobra.Command, _ []string) error {
	dir, err := config.CinerecDir()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("cannot create %s: %w", dir, err)
	}
	printOK("", fmt.Sprintf("cinerec directory ready: %s", dir))

	cfgPath := flagConfig
	if cfgPath == "" {
		if cfgPath, err = config.ConfigPath(); err != nil {
			return err
		}
	}
	if _, err := config.Load(cfgPath); errors.Is(err, config.ErrNoConfig) {
		cfg, err := config.DefaultConfig()
		if err != nil {
			return err
		}
		if err := config.Save(cfg, cfgPath); err != nil {
			return err
		}
		printOK("", fmt.Sprintf("config written: %s", cfgPath))
	} else if err != nil {
		printWarn("", fmt.Sprintf("existing config is invalid: %v", err))
	} else {
		printSkip("", fmt.Sprintf("config already exists: %s", cfgPath))
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	for _, d := range []string{cfg.DataDir, cfg.IndexDir} {
		if d == "" {
			continue
		}
		if err := os.MkdirAll(d, 0o755); err != nil {
			return fmt.Errorf("cannot create %s: %w", d, err)
		}
	}
	printOK("", fmt.Sprintf("data directory: %s", cfg.DataDir))

	envPath, err := config.DotEnvPath()
	if err != nil {
		return err
	}
	_, statErr := os.Stat(envPath)
	if err := config.EnsureDotEnvTemplate(); err != nil {
		return err
	}
	if os.IsNotExist(statErr) {
		printOK("", fmt.Sprintf(".env template written: %s", envPath))
	} else {
		printSkip("", fmt.Sprintf(".env already exists: %s", envPath))
	}

	fmt.Fprintln(stdout)
	fmt.Fprintln(stdout, "Next steps:")
	fmt.Fprintln(stdout, "  cinerec setup <project-dir>   copy main_data.csv and the sentiment model")
	fmt.Fprintln(stdout, "  cinerec index                 precompute the similarity matrix")
	fmt.Fprintln(stdout, "  cinerec recommend \"avatar\"")
	return nil
}
