package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/adapters/lookupsource"
	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
	"github.com/ekaya-inc/pcb-lookup/pkg/logging"
	"github.com/ekaya-inc/pcb-lookup/pkg/models"
)

// LookupResult is a resolved lookup.
type LookupResult struct {
	Record    models.RepairRecord
	Source    string
	QueryTime time.Duration
}

// SourceHealth reports whether the backing source answered a ping.
type SourceHealth struct {
	Source    string        `json:"source"`
	Reachable bool          `json:"reachable"`
	Error     string        `json:"error,omitempty"`
	Latency   time.Duration `json:"-"`
}

// LookupService resolves serial numbers against the configured source.
type LookupService interface {
	// Lookup trims serialNumber and returns the matching record.
	// Errors are apperrors.ErrSerialRequired, *apperrors.NotFoundError or
	// *apperrors.SourceError, and nothing else.
	Lookup(ctx context.Context, serialNumber string) (*LookupResult, error)

	// CheckSource pings the source within the query timeout.
	CheckSource(ctx context.Context) SourceHealth

	// Stats aggregates the source's rows. apperrors.ErrStatsUnsupported when the
	// source cannot, *apperrors.SourceError on failure.
	Stats(ctx context.Context) (*models.Stats, error)

	// SourceName names the active source.
	SourceName() string
}

type lookupService struct {
	source       lookupsource.LookupSource
	queryTimeout time.Duration
	logger       *zap.Logger
}

// NewLookupService creates a lookup service over source. queryTimeout bounds
// each backing query; zero leaves only the caller's context.
func NewLookupService(source lookupsource.LookupSource, queryTimeout time.Duration, logger *zap.Logger) LookupService {
	return &lookupService{
		source:       source,
		queryTimeout: queryTimeout,
		logger:       logger.Named("lookup"),
	}
}

var _ LookupService = (*lookupService)(nil)

func (s *lookupService) SourceName() string {
	return s.source.Name()
}

func (s *lookupService) Lookup(ctx context.Context, serialNumber string) (*LookupResult, error) {
	serial := strings.TrimSpace(serialNumber)
	if serial == "" {
		return nil, apperrors.ErrSerialRequired
	}

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	raw, err := s.source.FindBySerial(qctx, serial)
	elapsed := time.Since(start)

	fields := []zap.Field{
		zap.String("serial", logging.TruncateValue(serial)),
		zap.String("source", s.source.Name()),
		zap.Duration("query_time", elapsed),
	}

	if err != nil {
		if apperrors.IsNotFound(err) {
			s.logger.Info("No record found", fields...)
			return nil, &apperrors.NotFoundError{Serial: serial, QueryTime: elapsed}
		}

		var srcErr *apperrors.SourceError
		if !errors.As(err, &srcErr) {
			err = apperrors.NewSourceError(s.source.Name(), "lookup", err)
		}
		s.logger.Error("Lookup failed", append(fields, zap.String("error", logging.SanitizeError(err)))...)
		return nil, err
	}

	rec := models.ToRepairRecord(raw)
	// Case-insensitive collations (SQL Server's default) match keys that differ in case.
	if got := rec[models.LabelSerialNumber]; got != serial {
		s.logger.Warn("Source matched a different serial, treating as not found",
			append(fields, zap.String("matched", logging.TruncateValue(got)))...)
		return nil, &apperrors.NotFoundError{Serial: serial, QueryTime: elapsed}
	}

	s.logger.Info("Record found", fields...)

	return &LookupResult{
		Record:    rec,
		Source:    s.source.Name(),
		QueryTime: elapsed,
	}, nil
}

func (s *lookupService) Stats(ctx context.Context) (*models.Stats, error) {
	ss, ok := s.source.(lookupsource.StatsSource)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrStatsUnsupported, s.source.Name())
	}

	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	st, err := ss.Stats(qctx)
	if err != nil {
		var srcErr *apperrors.SourceError
		if !errors.As(err, &srcErr) {
			err = apperrors.NewSourceError(s.source.Name(), "stats", err)
		}
		s.logger.Error("Stats failed",
			zap.String("source", s.source.Name()),
			zap.String("error", logging.SanitizeError(err)))
		return nil, err
	}

	s.logger.Info("Stats computed",
		zap.String("source", s.source.Name()),
		zap.Int64("total_records", st.TotalRecords),
		zap.Duration("query_time", time.Since(start)))
	return &st, nil
}

func (s *lookupService) CheckSource(ctx context.Context) SourceHealth {
	qctx, cancel := s.withTimeout(ctx)
	defer cancel()

	start := time.Now()
	err := s.source.Ping(qctx)
	health := SourceHealth{
		Source:    s.source.Name(),
		Reachable: err == nil,
		Latency:   time.Since(start),
	}
	if err != nil {
		health.Error = logging.SanitizeError(err)
		s.logger.Warn("Source ping failed",
			zap.String("source", health.Source),
			zap.String("error", health.Error),
		)
	}
	return health
}

func (s *lookupService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.queryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.queryTimeout)
}
