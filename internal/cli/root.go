// Package cli implements the espsel command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/YuminosukeSato/espsel/config"
	"github.com/YuminosukeSato/espsel/pkg/log"
)

var (
	cfgFile  string
	logLevel string
	modelDir string
	jsonOut  bool

	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "espsel",
	Short: "Electric submersible pump selection predictions",
	Long: `espsel trains production, total head and gas-liquid ratio models from
well records and combines their predictions with empirical correlations.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// SetVersion sets the version reported by --version.
func SetVersion(v string) {
	rootCmd.Version = v
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&modelDir, "model-dir", "", "model directory, overrides the config file")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "output in JSON format")
}

func setup(cmd *cobra.Command, args []string) error {
	if cfgFile == "" {
		cfg = config.Default()
	} else {
		loaded, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if modelDir != "" {
		cfg.ModelDir = modelDir
	}
	return log.SetupLogger(cfg.LogLevel)
}
