package cmd

import (
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/client"
	"github.com/ekaya-inc/pcb-lookup/pkg/config"
	"github.com/ekaya-inc/pcb-lookup/pkg/tui"
)

var formBaseURL string

var formCmd = &cobra.Command{
	Use:   "form",
	Short: "Open the record form in the terminal",
	Long: `Open the record form against a running pcb-lookup server.

A lookup is sent once the serial number reaches the configured minimum length
(client.min_serial_length, default 10).`,
	Args: cobra.NoArgs,
	RunE: runForm,
}

func init() {
	formCmd.Flags().StringVar(&formBaseURL, "url", "", "server base URL (overrides client.base_url)")
}

func runForm(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configPath, version)
	if err != nil {
		return withExitCode(ExitUsage, err)
	}
	if formBaseURL != "" {
		cfg.Client.BaseURL = formBaseURL
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	// The terminal belongs to the form; client logs are discarded.
	c := client.New(cfg.Client.BaseURL, cfg.Client.Timeout, zap.NewNop())
	return tui.Run(ctx, c, cfg.Client.MinSerialLength)
}
