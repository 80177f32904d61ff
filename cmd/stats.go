package cmd

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"

	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Print row and distinct-value counts of the configured source",
	Args:  cobra.NoArgs,
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
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

	st, err := svc.Stats(cmd.Context())
	switch {
	case err == nil:
	case errors.Is(err, apperrors.ErrStatsUnsupported):
		return withExitCode(ExitUsage, err)
	default:
		return withExitCode(ExitFailure, err)
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(st)
}
