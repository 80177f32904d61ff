package cmd

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/adapters/lookupsource"
	_ "github.com/ekaya-inc/pcb-lookup/pkg/adapters/lookupsource/mssql"
	_ "github.com/ekaya-inc/pcb-lookup/pkg/adapters/lookupsource/postgres"
	_ "github.com/ekaya-inc/pcb-lookup/pkg/adapters/lookupsource/spreadsheet"
	_ "github.com/ekaya-inc/pcb-lookup/pkg/adapters/lookupsource/sqlite"
	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
	"github.com/ekaya-inc/pcb-lookup/pkg/config"
	"github.com/ekaya-inc/pcb-lookup/pkg/logging"
	"github.com/ekaya-inc/pcb-lookup/pkg/retry"
	"github.com/ekaya-inc/pcb-lookup/pkg/services"
)

// openService opens the configured source and wraps it in a LookupService.
// The caller owns the returned source and must close it.
func openService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (services.LookupService, lookupsource.LookupSource, error) {
	if !lookupsource.IsRegistered(cfg.Source.Type) {
		return nil, nil, withExitCode(ExitUsage, fmt.Errorf("%w: %s", apperrors.ErrUnknownSource, cfg.Source.Type))
	}
	src, err := lookupsource.Open(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return services.NewLookupService(src, cfg.Source.QueryTimeout, logger), src, nil
}

// awaitSource pings src with backoff. A source that stays unreachable is
// logged and left in place: lookups report a service failure until it recovers.
func awaitSource(ctx context.Context, src lookupsource.LookupSource, timeout time.Duration, logger *zap.Logger) {
	err := retry.Do(ctx, retry.DefaultConfig(), func() error {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		return src.Ping(pctx)
	})
	if err != nil {
		logger.Warn("Lookup source not reachable at startup",
			zap.String("source", src.Name()),
			zap.String("error", logging.SanitizeError(err)))
	}
}
