package sqlite

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/adapters/lookupsource"
	"github.com/ekaya-inc/pcb-lookup/pkg/config"
)

func init() {
	lookupsource.Register(lookupsource.Registration{
		Info: lookupsource.SourceInfo{
			Type:        config.SourceSQLite,
			DisplayName: "SQLite",
			Description: "Indexed lookup on a local database file, for offline benches",
			Indexed:     true,
		},
		Factory: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (lookupsource.LookupSource, error) {
			return New(ctx, cfg.SQLite.Path, cfg.Source.Table, logger)
		},
	})
}
