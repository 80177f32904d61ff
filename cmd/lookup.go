package cmd

import (
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
)

var lookupCmd = &cobra.Command{
	Use:   "lookup <serial>",
	Short: "Look up one serial number against the configured source",
	Long: `Look up one serial number and print the repair record as JSON.

Exit status is 0 when found, 3 when no record matches, 2 for a blank serial
or bad configuration, and 1 when the source fails.`,
	Args: cobra.ExactArgs(1),
	RunE: runLookup,
}

func runLookup(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	svc, src, err := openService(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = src.Close() }()

	res, err := svc.Lookup(cmd.Context(), args[0])
	switch {
	case err == nil:
	case apperrors.IsValidation(err):
		return withExitCode(ExitUsage, err)
	case apperrors.IsNotFound(err):
		return withExitCode(ExitNotFound, err)
	default:
		return withExitCode(ExitFailure, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res.Record)
}
