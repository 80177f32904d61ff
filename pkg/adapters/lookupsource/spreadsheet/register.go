package spreadsheet

import (
	"context"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/adapters/lookupsource"
	"github.com/ekaya-inc/pcb-lookup/pkg/config"
)

func init() {
	lookupsource.Register(lookupsource.Registration{
		Info: lookupsource.SourceInfo{
			Type:        config.SourceSpreadsheet,
			DisplayName: "Spreadsheet folder",
			Description: "Sequential scan of .xlsx and .csv exports, first match wins",
			Indexed:     false,
		},
		Factory: func(ctx context.Context, cfg *config.Config, logger *zap.Logger) (lookupsource.LookupSource, error) {
			return New(cfg.Spreadsheet.Dir, cfg.Spreadsheet.SerialHeader, logger), nil
		},
	})
}
