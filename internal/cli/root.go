// Package cli implements the spotbridge command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/llehouerou/spotbridge/internal/config"
	"github.com/llehouerou/spotbridge/internal/errmsg"
	"github.com/llehouerou/spotbridge/internal/logging"
)

var (
	cfgFile  string
	logLevel string
	keyFlag  string

	cfg    *config.Config
	logger logging.KVLogger = logging.Noop()
)

var rootCmd = &cobra.Command{
	Use:   "spotbridge",
	Short: "Drive a streaming session and player from the command line",
	Long: `Spotbridge logs in, keeps one session and one player alive and streams
player events as JSON lines.`,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initConfig()
	},
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: $XDG_CONFIG_HOME/spotbridge/config.toml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (overrides the config)")
	rootCmd.PersistentFlags().StringVarP(&keyFlag, "key", "k", "", "credentials key (default: credentials.default_key)")
}

func initConfig() error {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		return fail(errmsg.OpConfig, err)
	}

	level := cfg.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	logger, err = logging.New(logging.Options{
		Level:       level,
		Development: cfg.Log.Development,
		OutputPaths: cfg.Log.Output,
	})
	if err != nil {
		return fail(errmsg.OpConfig, err)
	}
	return nil
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		if hint := errmsg.Hint(err); hint != "" {
			fmt.Fprintln(os.Stderr, "hint:", hint)
		}
		os.Exit(1)
	}
}
