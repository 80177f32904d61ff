package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/adapters/lookupsource"
	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
	"github.com/ekaya-inc/pcb-lookup/pkg/config"
	"github.com/ekaya-inc/pcb-lookup/pkg/logging"
	"github.com/ekaya-inc/pcb-lookup/pkg/models"
)

const sourceName = config.SourcePostgres

var dialect = lookupsource.Dialect{
	QuoteIdent:  func(ident string) string { return pgx.Identifier{ident}.Sanitize() },
	Placeholder: "$1",
}

// Source answers lookups from a PostgreSQL table through a pgx pool.
type Source struct {
	pool       *pgxpool.Pool
	query      string
	statsQuery string
	logger     *zap.Logger
}

// New creates the pool. The pool connects lazily, so an unreachable server is
// reported by Ping and by lookups rather than here.
func New(ctx context.Context, cfg *config.DatabaseConfig, table string, logger *zap.Logger) (*Source, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse database config: %s", logging.SanitizeError(err))
	}

	if cfg.MaxConnections > 0 {
		poolCfg.MaxConns = cfg.MaxConnections
	}
	if cfg.MaxConnIdle > 0 {
		poolCfg.MaxConnIdleTime = cfg.MaxConnIdle
	}
	if cfg.ConnectTimeout > 0 {
		poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %s", logging.SanitizeError(err))
	}

	logger.Info("PostgreSQL source ready",
		zap.String("database", logging.SanitizeConnectionString(cfg.ConnectionString())),
		zap.String("table", table),
		zap.Int32("max_conns", poolCfg.MaxConns),
	)

	return NewFromPool(pool, table, logger), nil
}

// NewFromPool wraps an existing pool. The Source takes ownership and closes it.
func NewFromPool(pool *pgxpool.Pool, table string, logger *zap.Logger) *Source {
	return &Source{
		pool:       pool,
		query:      lookupsource.SelectBySerialQuery(dialect, table, lookupsource.DuplicateProbeLimit),
		statsQuery: lookupsource.StatsQuery(dialect, table),
		logger:     logger,
	}
}

func (s *Source) Name() string { return sourceName }

func (s *Source) FindBySerial(ctx context.Context, serial string) (models.SourceRecord, error) {
	rows, err := s.pool.Query(ctx, s.query, serial)
	if err != nil {
		return nil, apperrors.NewSourceError(sourceName, "query", err)
	}

	maps, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, apperrors.NewSourceError(sourceName, "read rows", err)
	}

	records := make([]models.SourceRecord, len(maps))
	for i, m := range maps {
		records[i] = models.SourceRecord(m)
	}
	return lookupsource.FirstMatch(sourceName, serial, records, s.logger)
}

// Stats aggregates the table in one query.
func (s *Source) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	if err := s.pool.QueryRow(ctx, s.statsQuery).Scan(lookupsource.StatsDest(&st)...); err != nil {
		return models.Stats{}, apperrors.NewSourceError(sourceName, "stats", err)
	}
	return st, nil
}

func (s *Source) Ping(ctx context.Context) error {
	if err := s.pool.Ping(ctx); err != nil {
		return apperrors.NewSourceError(sourceName, "ping", err)
	}
	return nil
}

func (s *Source) Close() error {
	s.pool.Close()
	return nil
}

var (
	_ lookupsource.LookupSource = (*Source)(nil)
	_ lookupsource.StatsSource  = (*Source)(nil)
)
