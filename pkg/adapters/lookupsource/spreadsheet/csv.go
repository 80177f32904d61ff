package spreadsheet

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jszwec/csvutil"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/models"
)

// csvRow is one CSV record decoded by canonical column name.
type csvRow struct {
	SrNo              string `csv:"sr_no"`
	LotNo             string `csv:"lot_no"`
	RFNo              string `csv:"rf_no"`
	PCBSrNo           string `csv:"pcb_sr_no"`
	FanSrNo           string `csv:"fan_sr_no"`
	TicketNo          string `csv:"ticket_no"`
	LineItemNo        string `csv:"line_item_no"`
	Version           string `csv:"version"`
	Model             string `csv:"model"`
	PartCode          string `csv:"part_code"`
	CustomerComplaint string `csv:"customer_complaint"`
	Symptom           string `csv:"symptom"`
	Defect            string `csv:"defect"`
	RFObservation     string `csv:"rf_observation"`
	CreatedAt         string `csv:"created_at"`
}

func (r *csvRow) record() models.SourceRecord {
	return models.SourceRecord{
		models.ColumnSrNo:              r.SrNo,
		models.ColumnLotNo:             r.LotNo,
		models.ColumnRFNo:              r.RFNo,
		models.ColumnPCBSrNo:           r.PCBSrNo,
		models.ColumnFanSrNo:           r.FanSrNo,
		models.ColumnTicketNo:          r.TicketNo,
		models.ColumnLineItemNo:        r.LineItemNo,
		models.ColumnVersion:           r.Version,
		models.ColumnModel:             r.Model,
		models.ColumnPartCode:          r.PartCode,
		models.ColumnCustomerComplaint: r.CustomerComplaint,
		models.ColumnSymptom:           r.Symptom,
		models.ColumnDefect:            r.Defect,
		models.ColumnRFObservation:     r.RFObservation,
		models.ColumnCreatedAt:         r.CreatedAt,
	}
}

// fixedWidthReader pads or truncates records to the header width so ragged
// exports decode instead of failing the field count check.
type fixedWidthReader struct {
	r     *csv.Reader
	width int
}

func (f *fixedWidthReader) Read() ([]string, error) {
	rec, err := f.r.Read()
	if err != nil {
		return nil, err
	}
	if len(rec) < f.width {
		rec = append(rec, make([]string, f.width-len(rec))...)
	}
	return rec[:f.width], nil
}

// csvDataRow adapts a decoded record to dataRow. The SourceRecord is built on
// first use.
type csvDataRow struct {
	row *csvRow
	rec models.SourceRecord
}

func (r *csvDataRow) Serial() string { return strings.TrimSpace(r.row.PCBSrNo) }

func (r *csvDataRow) Value(column string) string {
	if r.rec == nil {
		r.rec = r.row.record()
	}
	v, _ := r.rec[column].(string)
	return strings.TrimSpace(v)
}

func (r *csvDataRow) Record() (models.SourceRecord, error) {
	if r.rec == nil {
		r.rec = r.row.record()
	}
	return r.rec, nil
}

// walkCSV streams a CSV export as a single row group.
func (s *Source) walkCSV(ctx context.Context, path string, visit func(dataRow) (bool, error)) (bool, error) {
	file, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer file.Close()

	name := filepath.Base(path)

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	raw, err := r.Read()
	if errors.Is(err, io.EOF) {
		return false, nil
	}
	if err != nil {
		return false, errGroup(name, "header", err)
	}

	header, hasSerial := s.canonicalHeader(raw)
	if !hasSerial {
		s.logger.Debug("CSV file has no serial column, skipping", zap.String("file", name))
		return false, nil
	}

	dec, err := csvutil.NewDecoder(&fixedWidthReader{r: r, width: len(header)}, header...)
	if err != nil {
		return false, errGroup(name, "header", err)
	}

	for n := 1; ; n++ {
		if n%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return false, err
			}
		}

		var row csvRow
		err := dec.Decode(&row)
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, errGroup(name, fmt.Sprintf("row %d", n+1), err)
		}
		if strings.TrimSpace(row.PCBSrNo) == "" {
			continue
		}
		stop, err := visit(&csvDataRow{row: &row})
		if err != nil || stop {
			return stop, err
		}
	}
}

// canonicalHeader rewrites a raw header row into canonical column names.
// Columns that do not resolve, and repeats of a column already seen, get a
// unique placeholder name so the decoder ignores them.
func (s *Source) canonicalHeader(raw []string) ([]string, bool) {
	idx := s.indexHeader(raw)

	header := make([]string, len(raw))
	for i := range raw {
		header[i] = fmt.Sprintf("_unmapped_%d", i)
	}
	for col, i := range idx {
		header[i] = col
	}
	return header, idx.hasSerial()
}
