package mssql

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/microsoft/go-mssqldb" // registers the "sqlserver" driver
	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/adapters/lookupsource"
	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
	"github.com/ekaya-inc/pcb-lookup/pkg/config"
	"github.com/ekaya-inc/pcb-lookup/pkg/logging"
	"github.com/ekaya-inc/pcb-lookup/pkg/models"
)

const sourceName = config.SourceMSSQL

var dialect = lookupsource.Dialect{
	QuoteIdent:  lookupsource.QuoteBracket,
	Placeholder: "@p1",
	TopN:        true,
}

// Source answers lookups from a SQL Server table.
type Source struct {
	db         *sql.DB
	query      string
	statsQuery string
	logger     *zap.Logger
}

// New opens a database/sql handle. Like the postgres source it does not dial
// until the first Ping or lookup.
func New(ctx context.Context, cfg *config.MSSQLConfig, table string, logger *zap.Logger) (*Source, error) {
	connStr := cfg.ConnectionString()

	db, err := sql.Open("sqlserver", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlserver: %s", logging.SanitizeError(err))
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
		db.SetMaxIdleConns(cfg.MaxOpenConns)
	}

	logger.Info("SQL Server source ready",
		zap.String("database", logging.SanitizeConnectionString(connStr)),
		zap.String("table", table),
	)

	return NewFromDB(db, table, logger), nil
}

// NewFromDB wraps an open handle. The Source takes ownership and closes it.
func NewFromDB(db *sql.DB, table string, logger *zap.Logger) *Source {
	return &Source{
		db:         db,
		query:      lookupsource.SelectBySerialQuery(dialect, table, lookupsource.DuplicateProbeLimit),
		statsQuery: lookupsource.StatsQuery(dialect, table),
		logger:     logger,
	}
}

func (s *Source) Name() string { return sourceName }

func (s *Source) FindBySerial(ctx context.Context, serial string) (models.SourceRecord, error) {
	rows, err := s.db.QueryContext(ctx, s.query, serial)
	if err != nil {
		return nil, apperrors.NewSourceError(sourceName, "query", err)
	}
	defer rows.Close()

	records, err := lookupsource.ScanRows(rows)
	if err != nil {
		return nil, apperrors.NewSourceError(sourceName, "read rows", err)
	}
	return lookupsource.FirstMatch(sourceName, serial, records, s.logger)
}

// Stats aggregates the table in one query.
func (s *Source) Stats(ctx context.Context) (models.Stats, error) {
	var st models.Stats
	if err := s.db.QueryRowContext(ctx, s.statsQuery).Scan(lookupsource.StatsDest(&st)...); err != nil {
		return models.Stats{}, apperrors.NewSourceError(sourceName, "stats", err)
	}
	return st, nil
}

func (s *Source) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return apperrors.NewSourceError(sourceName, "ping", err)
	}
	return nil
}

func (s *Source) Close() error {
	return s.db.Close()
}

var (
	_ lookupsource.LookupSource = (*Source)(nil)
	_ lookupsource.StatsSource  = (*Source)(nil)
)
