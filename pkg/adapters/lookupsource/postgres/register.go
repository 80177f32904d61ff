package postgres

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/adapters/lookupsource"
	"github.com/ekaya-inc/pcb-lookup/pkg/config"
)

func init() {
	lookupsource.Register(lookupsource.Registration{
		Info: lookupsource.SourceInfo{
			Type:        config.SourcePostgres,
			DisplayName: "PostgreSQL",
			Description: "Indexed lookup on the manufacturing_data primary key",
			Indexed:     true,
		},
		Factory: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (lookupsource.LookupSource, error) {
			return New(ctx, &cfg.Database, cfg.Source.Table, logger)
		},
	})
}
