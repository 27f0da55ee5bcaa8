package cmd

import (
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/msto63/etlap/pkg/core/config"
	apperrors "github.com/msto63/etlap/pkg/core/errors"
	"github.com/msto63/etlap/pkg/core/logging"
)

var (
	cfgFile string
	verbose bool

	cfg    *config.Config
	logger *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "etlap",
	Short: "etlap - menu nutrition export",
	Long: `etlap reads weekly menus from Word documents and exports the
foods, allergens and nutrient values of every meal.

Commands:
  convert  - convert a menu document to CSV, JSON or YAML
  inspect  - show how a cell text is parsed
  watch    - convert again whenever the document changes
  history  - list, show, search and delete archived runs`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		printError(err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $ETLAP_CONFIG, ./config.toml, ./configs/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// setup loads the configuration and creates the logger. Without an explicit
// --config, a missing config file falls back to the defaults.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfgFile != "" {
		cfg, err = config.Load(cfgFile)
	} else {
		cfg, err = config.LoadFromEnv()
		if apperrors.HasCode(err, apperrors.CodeMissingConfig) && os.Getenv(config.EnvConfigPath) == "" {
			cfg, err = config.Default(), nil
		}
	}
	if err != nil {
		return err
	}

	level := cfg.General.LogLevel
	if verbose {
		level = "debug"
	}
	logger = logging.NewLogger(logging.LoggerConfig{
		Name:   "etlap",
		Level:  level,
		Format: cfg.General.LogFormat,
		Output: os.Stderr,
	}).WithCorrelationID(uuid.New().String())

	if cfg.Source != "" {
		logger.Debug("config loaded", "path", cfg.Source)
	}
	return nil
}

func printError(err error) {
	fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
	if verbose && logger != nil {
		logger.LogError("command failed", err)
	}
}
