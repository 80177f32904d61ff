package mssql

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/adapters/lookupsource"
	"github.com/ekaya-inc/pcb-lookup/pkg/config"
)

func init() {
	lookupsource.Register(lookupsource.Registration{
		Info: lookupsource.SourceInfo{
			Type:        config.SourceMSSQL,
			DisplayName: "Microsoft SQL Server",
			Description: "Indexed lookup on a SQL Server copy of manufacturing_data",
			Indexed:     true,
		},
		Factory: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (lookupsource.LookupSource, error) {
			return New(ctx, &cfg.MSSQL, cfg.Source.Table, logger)
		},
	})
}
