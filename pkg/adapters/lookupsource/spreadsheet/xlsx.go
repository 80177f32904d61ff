package spreadsheet

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/models"
)

// sheetRow is one worksheet row. cells hold formatted text; Record re-reads the
// repair date cell raw.
type sheetRow struct {
	f     *excelize.File
	sheet string
	num   int
	idx   headerIndex
	cells []string
}

func (r *sheetRow) Serial() string { return r.idx.valueOf(r.cells, models.ColumnPCBSrNo) }

func (r *sheetRow) Value(column string) string { return r.idx.valueOf(r.cells, column) }

func (r *sheetRow) Record() (models.SourceRecord, error) {
	rec := r.idx.record(r.cells)
	col, ok := r.idx[models.ColumnCreatedAt]
	if !ok {
		return rec, nil
	}
	date, err := repairDateCell(r.f, r.sheet, col+1, r.num)
	if err != nil {
		return nil, err
	}
	if date != nil {
		rec[models.ColumnCreatedAt] = date
	}
	return rec, nil
}

// walkXLSX streams each worksheet of a workbook in order.
func (s *Source) walkXLSX(ctx context.Context, path string, visit func(dataRow) (bool, error)) (bool, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	name := filepath.Base(path)
	for _, sheet := range f.GetSheetList() {
		stop, err := s.walkSheet(ctx, f, sheet, visit)
		if err != nil {
			return false, errGroup(name, sheet, err)
		}
		if stop {
			return true, nil
		}
	}
	return false, nil
}

func (s *Source) walkSheet(ctx context.Context, f *excelize.File, sheet string, visit func(dataRow) (bool, error)) (bool, error) {
	rows, err := f.Rows(sheet)
	if err != nil {
		return false, err
	}
	defer rows.Close()

	if !rows.Next() {
		return false, rows.Error()
	}
	header, err := rows.Columns()
	if err != nil {
		return false, err
	}

	idx := s.indexHeader(header)
	if !idx.hasSerial() {
		s.logger.Debug("Worksheet has no serial column, skipping",
			zap.String("file", filepath.Base(f.Path)),
			zap.String("sheet", sheet),
		)
		return false, nil
	}

	// Rows.Next visits blank rows too, so the header is row 1 and data row n is row n+1.
	for n := 1; rows.Next(); n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return false, err
			}
		}
		cells, err := rows.Columns()
		if err != nil {
			return false, err
		}
		if idx.valueOf(cells, models.ColumnPCBSrNo) == "" {
			continue
		}
		stop, err := visit(&sheetRow{f: f, sheet: sheet, num: n + 1, idx: idx, cells: cells})
		if err != nil || stop {
			return stop, err
		}
	}
	return false, rows.Error()
}

// repairDateCell reads the repair date cell without its number format. Numeric
// cells are Excel serial dates and come back as time.Time, so the rendering
// never depends on the workbook's locale format. Text cells return nil and keep
// their formatted value.
func repairDateCell(f *excelize.File, sheet string, col, row int) (any, error) {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return nil, err
	}
	typ, err := f.GetCellType(sheet, cell)
	if err != nil {
		return nil, err
	}

	switch typ {
	case excelize.CellTypeUnset, excelize.CellTypeNumber:
		raw, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, err
		}
		serial, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, nil
		}
		props, err := f.GetWorkbookProps()
		if err != nil {
			return nil, err
		}
		date1904 := props.Date1904 != nil && *props.Date1904
		t, err := excelize.ExcelDateToTime(serial, date1904)
		if err != nil {
			return nil, nil
		}
		return t, nil
	case excelize.CellTypeDate:
		// ISO 8601 text, which formatDate parses.
		raw, err := f.GetCellValue(sheet, cell, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, err
		}
		return strings.TrimSpace(raw), nil
	}
	return nil, nil
}
