// Package spreadsheet answers lookups by scanning a folder of repair exports.
//
// Files are visited in name order. A workbook contributes one row group per
// worksheet, in workbook order; a CSV file is a single group. The first row of
// each group is its header. The first data row whose serial cell equals the
// requested serial ends the scan, so later duplicates are never seen.
package spreadsheet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/adapters/lookupsource"
	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
	"github.com/ekaya-inc/pcb-lookup/pkg/config"
	"github.com/ekaya-inc/pcb-lookup/pkg/logging"
	"github.com/ekaya-inc/pcb-lookup/pkg/models"
)

const sourceName = config.SourceSpreadsheet

// ctxCheckEvery is how many rows are scanned between context checks.
const ctxCheckEvery = 256

// Source scans spreadsheet files on every lookup.
type Source struct {
	dir     string
	aliases *models.AliasTable
	logger  *zap.Logger
}

// New returns a source over dir. serialHeader, when set, is an extra header
// name to treat as the serial-number column.
func New(dir, serialHeader string, logger *zap.Logger) *Source {
	aliases := models.DefaultAliases()
	if serialHeader != "" {
		aliases = aliases.With(serialHeader, models.ColumnPCBSrNo)
	}
	logger.Info("Spreadsheet source ready", zap.String("dir", dir))
	return &Source{dir: dir, aliases: aliases, logger: logger}
}

func (s *Source) Name() string { return sourceName }

func (s *Source) FindBySerial(ctx context.Context, serial string) (models.SourceRecord, error) {
	var (
		rec     models.SourceRecord
		matched string
	)
	err := s.walk(ctx, func(file string, row dataRow) (bool, error) {
		if row.Serial() != serial {
			return false, nil
		}
		r, err := row.Record()
		if err != nil {
			return false, err
		}
		rec, matched = r, file
		return true, nil
	})
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, &apperrors.NotFoundError{Serial: serial}
	}

	s.logger.Debug("Serial matched",
		zap.String("serial", logging.TruncateValue(serial)),
		zap.String("file", matched),
	)
	return rec, nil
}

// Stats scans every file. Rows without a serial are not counted.
func (s *Source) Stats(ctx context.Context) (models.Stats, error) {
	distinct := make([]map[string]struct{}, len(models.StatsColumns))
	for i := range distinct {
		distinct[i] = make(map[string]struct{})
	}

	var st models.Stats
	err := s.walk(ctx, func(_ string, row dataRow) (bool, error) {
		st.TotalRecords++
		for i, col := range models.StatsColumns {
			if v := row.Value(col); v != "" {
				distinct[i][v] = struct{}{}
			}
		}
		return false, nil
	})
	if err != nil {
		return models.Stats{}, err
	}

	st.UniqueLotNumbers = int64(len(distinct[0]))
	st.UniqueModels = int64(len(distinct[1]))
	st.UniquePartCodes = int64(len(distinct[2]))
	st.UniqueTickets = int64(len(distinct[3]))
	return st, nil
}

// dataRow is one data row of a group that has a serial column.
type dataRow interface {
	// Serial is the trimmed serial cell.
	Serial() string
	// Value is the trimmed text of a canonical column, "" when absent.
	Value(column string) string
	// Record builds the full row, resolving typed cells.
	Record() (models.SourceRecord, error)
}

// visitFunc is called for every data row with a non-blank serial, in scan
// order. Returning true stops the walk.
type visitFunc func(file string, row dataRow) (bool, error)

// walk visits the rows of every file in name order. Failures come back as
// *apperrors.SourceError.
func (s *Source) walk(ctx context.Context, visit visitFunc) error {
	files, err := s.listFiles()
	if err != nil {
		return apperrors.NewSourceError(sourceName, "list", err)
	}

	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return apperrors.NewSourceError(sourceName, "scan", err)
		}

		name := filepath.Base(path)
		fileVisit := func(row dataRow) (bool, error) { return visit(name, row) }

		var stop bool
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			stop, err = s.walkCSV(ctx, path, fileVisit)
		default:
			stop, err = s.walkXLSX(ctx, path, fileVisit)
		}
		if err != nil {
			return apperrors.NewSourceError(sourceName, "read "+name, err)
		}
		if stop {
			return nil
		}
	}
	return nil
}

// Ping checks the folder is readable.
func (s *Source) Ping(ctx context.Context) error {
	if _, err := s.listFiles(); err != nil {
		return apperrors.NewSourceError(sourceName, "ping", err)
	}
	return nil
}

func (s *Source) Close() error { return nil }

// listFiles returns the scannable files in dir, sorted by name.
func (s *Source) listFiles() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		switch {
		case strings.HasPrefix(name, "~$"):
			s.logger.Debug("Skipping office lock file", zap.String("file", name))
			continue
		case strings.HasPrefix(name, "."):
			continue
		}

		switch strings.ToLower(filepath.Ext(name)) {
		case ".xlsx", ".csv":
			files = append(files, filepath.Join(s.dir, name))
		case ".xls":
			s.logger.Warn("Skipping legacy .xls workbook; re-save it as .xlsx", zap.String("file", name))
		}
	}
	return files, nil
}

// headerIndex maps canonical columns to their position in a raw header row.
// The first header that resolves to a column wins.
type headerIndex map[string]int

func (s *Source) indexHeader(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		col, ok := s.aliases.Canonical(h)
		if !ok {
			continue
		}
		if _, seen := idx[col]; !seen {
			idx[col] = i
		}
	}
	return idx
}

func (idx headerIndex) hasSerial() bool {
	_, ok := idx[models.ColumnPCBSrNo]
	return ok
}

// record builds a SourceRecord from a raw row using idx.
func (idx headerIndex) record(cells []string) models.SourceRecord {
	rec := make(models.SourceRecord, len(idx))
	for col, i := range idx {
		if i < len(cells) {
			rec[col] = cells[i]
		}
	}
	return rec
}

func (idx headerIndex) valueOf(cells []string, column string) string {
	i, ok := idx[column]
	if !ok || i >= len(cells) {
		return ""
	}
	return strings.TrimSpace(cells[i])
}

func errGroup(file, group string, err error) error {
	return fmt.Errorf("%s [%s]: %w", file, group, err)
}

var (
	_ lookupsource.LookupSource = (*Source)(nil)
	_ lookupsource.StatsSource  = (*Source)(nil)
)
