package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"go.uber.org/zap"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/ekaya-inc/pcb-lookup/pkg/adapters/lookupsource"
	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
	"github.com/ekaya-inc/pcb-lookup/pkg/config"
	"github.com/ekaya-inc/pcb-lookup/pkg/models"
)

const sourceName = config.SourceSQLite

var dialect = lookupsource.Dialect{
	QuoteIdent:  lookupsource.QuoteDouble,
	Placeholder: "?",
}

// Source answers lookups from a read-only SQLite file.
type Source struct {
	db         *sql.DB
	path       string
	query      string
	statsQuery string
	logger     *zap.Logger
}

// New opens path read-only. The file must already exist; SQLite would otherwise
// create an empty database and every lookup would report not-found.
func New(ctx context.Context, path, table string, logger *zap.Logger) (*Source, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("sqlite database %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=query_only(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	logger.Info("SQLite source ready", zap.String("path", path), zap.String("table", table))

	return &Source{
		db:         db,
		path:       path,
		query:      lookupsource.SelectBySerialQuery(dialect, table, lookupsource.DuplicateProbeLimit),
		statsQuery: lookupsource.StatsQuery(dialect, table),
		logger:     logger,
	}, nil
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
	if _, err := os.Stat(s.path); err != nil {
		return apperrors.NewSourceError(sourceName, "ping", err)
	}
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
