// Package cmd is the pcb-lookup command tree.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/config"
	"github.com/ekaya-inc/pcb-lookup/pkg/logging"
)

// Exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitUsage    = 2
	ExitNotFound = 3
)

var (
	configPath string
	envFile    string
	version    = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "pcb-lookup",
	Short: "Look up PCB repair records by serial number",
	Long: `pcb-lookup serves and queries PCB repair records keyed by serial number.

Records come from exactly one configured source: a PostgreSQL, SQL Server or
SQLite table, or a folder of .xlsx/.csv exports scanned on every lookup.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// exitError carries a process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// Execute runs the command tree and returns the process exit code.
func Execute(buildVersion string) int {
	version = buildVersion
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		var ee *exitError
		if errors.As(err, &ee) {
			return ee.code
		}
		return ExitFailure
	}
	return ExitOK
}

func init() {
	cobra.OnInitialize(initEnv)
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "YAML config file (missing file means env and defaults only)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before configuration")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(lookupCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(formCmd)
	rootCmd.AddCommand(benchCmd)
	rootCmd.AddCommand(versionCmd)
}

// initEnv loads the dotenv file; variables already set in the environment win.
func initEnv() {
	if envFile == "" {
		return
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		fmt.Fprintf(os.Stderr, "Warning: failed to load %s: %v\n", envFile, err)
	}
}

// loadConfig reads configuration and builds the logger for cfg.Env.
func loadConfig() (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(configPath, version)
	if err != nil {
		return nil, nil, withExitCode(ExitUsage, err)
	}
	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}
