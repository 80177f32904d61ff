package testhelpers

import (
	"database/sql"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"
	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/ekaya-inc/pcb-lookup/pkg/models"
)

// RepairRow is one fixture row of manufacturing_data.
type RepairRow struct {
	SrNo              int
	LotNo             string
	RFNo              string
	PCBSrNo           string
	FanSrNo           string
	TicketNo          string
	LineItemNo        string
	Version           string
	Model             string
	PartCode          string
	CustomerComplaint string
	Symptom           string
	Defect            string
	RFObservation     string
	CreatedAt         time.Time
}

// Values returns the row in models.SourceColumns order.
func (r RepairRow) Values() []any {
	return []any{
		r.SrNo, r.LotNo, r.RFNo, r.PCBSrNo, r.FanSrNo, r.TicketNo, r.LineItemNo, r.Version,
		r.Model, r.PartCode, r.CustomerComplaint, r.Symptom, r.Defect, r.RFObservation, r.CreatedAt,
	}
}

// Cells renders the row the way a spreadsheet export would: text cells plus a
// dd/mm/yyyy repair date.
func (r RepairRow) Cells() []string {
	return []string{
		fmt.Sprint(r.SrNo), r.LotNo, r.RFNo, r.PCBSrNo, r.FanSrNo, r.TicketNo, r.LineItemNo, r.Version,
		r.Model, r.PartCode, r.CustomerComplaint, r.Symptom, r.Defect, r.RFObservation,
		r.CreatedAt.Format(models.DateLayout),
	}
}

// ExportHeader is the header row the repair team's workbooks carry, in the same
// column order as RepairRow.Cells.
var ExportHeader = []string{
	"Sr No", "Lot No.", "RF No.", "PCB Sr No.", "Fan Sr No.", "Ticket No.", "Line Item No.", "Version",
	"Model", "Part Code", "Customer Complaint", "Symptom", "Defect", "RF Observation", "Repair Date",
}

// SampleRows returns the shared fixture set. The first row is the canonical
// round-trip example: serial AB1234567890, lot L99, fan FanX, repaired 5 March 2024.
func SampleRows() []RepairRow {
	return []RepairRow{
		{
			SrNo: 1, LotNo: "L99", RFNo: "RF-001", PCBSrNo: "AB1234567890", FanSrNo: "FanX",
			TicketNo: "TCK-100", LineItemNo: "LI-1", Version: "v2", Model: "Renesa",
			PartCode: "PC-77", CustomerComplaint: "Fan not starting", Symptom: "No power",
			Defect: "Capacitor C12 blown", RFObservation: "Replaced C12",
			CreatedAt: time.Date(2024, time.March, 5, 10, 30, 0, 0, time.UTC),
		},
		{
			SrNo: 2, LotNo: "L100", RFNo: "RF-002", PCBSrNo: "CD0987654321", FanSrNo: "FanY",
			TicketNo: "TCK-101", LineItemNo: "LI-2", Version: "v3", Model: "Efficio",
			PartCode: "PC-78", CustomerComplaint: "Noise at high speed", Symptom: "Humming",
			Defect: "Loose choke", RFObservation: "Resoldered L1",
			CreatedAt: time.Date(2024, time.November, 20, 8, 0, 0, 0, time.UTC),
		},
		{
			SrNo: 3, LotNo: "L101", RFNo: "RF-003", PCBSrNo: "EF5555555555", FanSrNo: "FanZ",
			TicketNo: "TCK-102", LineItemNo: "LI-3", Version: "v2", Model: "Aris",
			PartCode: "PC-79", CustomerComplaint: "Remote not working", Symptom: "IR dead",
			Defect: "IR receiver open", RFObservation: "Replaced U4",
			CreatedAt: time.Date(2025, time.January, 2, 16, 45, 0, 0, time.UTC),
		},
	}
}

// CreateTableSQL is the manufacturing_data schema shared by the relational fixtures.
const CreateTableSQL = `CREATE TABLE IF NOT EXISTS manufacturing_data (
	sr_no INTEGER,
	lot_no VARCHAR(100),
	rf_no VARCHAR(100),
	pcb_sr_no VARCHAR(100) PRIMARY KEY,
	fan_sr_no VARCHAR(100),
	ticket_no VARCHAR(100),
	line_item_no VARCHAR(100),
	version VARCHAR(50),
	model VARCHAR(100),
	part_code VARCHAR(100),
	customer_complaint TEXT,
	symptom TEXT,
	defect TEXT,
	rf_observation TEXT,
	created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`

// WriteSQLiteDB creates a SQLite database at path holding rows and returns path.
func WriteSQLiteDB(t *testing.T, path string, rows []RepairRow) string {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open sqlite fixture: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(CreateTableSQL); err != nil {
		t.Fatalf("create sqlite fixture table: %v", err)
	}

	stmt, err := db.Prepare(`INSERT INTO manufacturing_data (
		sr_no, lot_no, rf_no, pcb_sr_no, fan_sr_no, ticket_no, line_item_no, version,
		model, part_code, customer_complaint, symptom, defect, rf_observation, created_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		t.Fatalf("prepare sqlite fixture insert: %v", err)
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.Exec(r.Values()...); err != nil {
			t.Fatalf("insert sqlite fixture row %s: %v", r.PCBSrNo, err)
		}
	}
	return path
}

// WriteCSV writes header and records to dir/name and returns the file path.
func WriteCSV(t *testing.T, dir, name string, header []string, records [][]string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create csv fixture: %v", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		t.Fatalf("write csv fixture header: %v", err)
	}
	if err := w.WriteAll(records); err != nil {
		t.Fatalf("write csv fixture rows: %v", err)
	}
	return path
}

// Sheet is one worksheet of an XLSX fixture. Rows[0] is the header.
type Sheet struct {
	Name string
	Rows [][]string
}

// WriteXLSX writes sheets, in order, to dir/name and returns the file path.
func WriteXLSX(t *testing.T, dir, name string, sheets ...Sheet) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, sheet := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sheet.Name); err != nil {
				t.Fatalf("rename first sheet: %v", err)
			}
		} else if _, err := f.NewSheet(sheet.Name); err != nil {
			t.Fatalf("add sheet %s: %v", sheet.Name, err)
		}

		for r, row := range sheet.Rows {
			cells := make([]any, len(row))
			for c, v := range row {
				cells[c] = v
			}
			cell, err := excelize.CoordinatesToCellName(1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetSheetRow(sheet.Name, cell, &cells); err != nil {
				t.Fatalf("write sheet %s row %d: %v", sheet.Name, r+1, err)
			}
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save xlsx fixture: %v", err)
	}
	return path
}

// TypedCell is an XLSX fixture cell written with its Go type, the way a workbook
// saved by Excel stores numbers and dates. NumFmt, when set, is a built-in
// number format id applied to the cell (14 d/m/y, 15 d-mmm-yy, 22 date time).
type TypedCell struct {
	Value  any
	NumFmt int
}

// WriteTypedXLSX writes one worksheet of typed cells to dir/name and returns the
// file path. rows[0] is the header.
func WriteTypedXLSX(t *testing.T, dir, name, sheet string, rows [][]TypedCell) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		t.Fatalf("rename first sheet: %v", err)
	}

	styles := make(map[int]int)
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				t.Fatalf("cell name: %v", err)
			}
			if err := f.SetCellValue(sheet, cell, v.Value); err != nil {
				t.Fatalf("write cell %s: %v", cell, err)
			}
			if v.NumFmt == 0 {
				continue
			}
			style, ok := styles[v.NumFmt]
			if !ok {
				if style, err = f.NewStyle(&excelize.Style{NumFmt: v.NumFmt}); err != nil {
					t.Fatalf("number format %d: %v", v.NumFmt, err)
				}
				styles[v.NumFmt] = style
			}
			if err := f.SetCellStyle(sheet, cell, cell, style); err != nil {
				t.Fatalf("style cell %s: %v", cell, err)
			}
		}
	}

	path := filepath.Join(dir, name)
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save xlsx fixture: %v", err)
	}
	return path
}

// ExportRecords renders rows as spreadsheet records (without header).
func ExportRecords(rows []RepairRow) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = r.Cells()
	}
	return out
}

// ExportSheet is a worksheet holding ExportHeader followed by rows.
func ExportSheet(name string, rows []RepairRow) Sheet {
	return Sheet{Name: name, Rows: append([][]string{ExportHeader}, ExportRecords(rows)...)}
}
