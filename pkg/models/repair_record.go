package models

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ekaya-inc/pcb-lookup/pkg/jsonutil"
)

// Canonical column names of a PCB repair row. Every backing source is translated
// to these names before a row leaves its adapter.
const (
	ColumnSrNo              = "sr_no"
	ColumnLotNo             = "lot_no"
	ColumnRFNo              = "rf_no"
	ColumnPCBSrNo           = "pcb_sr_no"
	ColumnFanSrNo           = "fan_sr_no"
	ColumnTicketNo          = "ticket_no"
	ColumnLineItemNo        = "line_item_no"
	ColumnVersion           = "version"
	ColumnModel             = "model"
	ColumnPartCode          = "part_code"
	ColumnCustomerComplaint = "customer_complaint"
	ColumnSymptom           = "symptom"
	ColumnDefect            = "defect"
	ColumnRFObservation     = "rf_observation"
	ColumnCreatedAt         = "created_at"
)

// SourceColumns lists the columns selected from relational sources, in table order.
var SourceColumns = []string{
	ColumnSrNo, ColumnLotNo, ColumnRFNo, ColumnPCBSrNo, ColumnFanSrNo, ColumnTicketNo,
	ColumnLineItemNo, ColumnVersion, ColumnModel, ColumnPartCode, ColumnCustomerComplaint,
	ColumnSymptom, ColumnDefect, ColumnRFObservation, ColumnCreatedAt,
}

// DateLayout is the day/month/year rendering used for the repair date.
const DateLayout = "02/01/2006"

// FieldKind controls how a source value is rendered into a response label.
type FieldKind string

const (
	FieldText FieldKind = "text"
	FieldDate FieldKind = "date"
)

// Field binds a canonical source column to its display label.
type Field struct {
	Column string
	Label  string
	Kind   FieldKind
}

// Fields is the fixed, source-independent response shape in display order.
var Fields = []Field{
	{Column: ColumnCreatedAt, Label: "Repair Date", Kind: FieldDate},
	{Column: ColumnFanSrNo, Label: "Fan Sr No", Kind: FieldText},
	{Column: ColumnTicketNo, Label: "Ticket No", Kind: FieldText},
	{Column: ColumnLineItemNo, Label: "Linen Item No", Kind: FieldText},
	{Column: ColumnVersion, Label: "Version", Kind: FieldText},
	{Column: ColumnModel, Label: "Model Type", Kind: FieldText},
	{Column: ColumnCustomerComplaint, Label: "Customer Complaint", Kind: FieldText},
	{Column: ColumnSymptom, Label: "Symp. Defe.", Kind: FieldText},
	{Column: ColumnDefect, Label: "Defect Description", Kind: FieldText},
	{Column: ColumnRFObservation, Label: "RF Observation", Kind: FieldText},
	{Column: ColumnLotNo, Label: "Lot No", Kind: FieldText},
	{Column: ColumnPCBSrNo, Label: "PCB Sr No", Kind: FieldText},
	{Column: ColumnRFNo, Label: "RF No", Kind: FieldText},
	{Column: ColumnPartCode, Label: "Part Code", Kind: FieldText},
}

// Labels returns the response labels in display order.
func Labels() []string {
	labels := make([]string, len(Fields))
	for i, f := range Fields {
		labels[i] = f.Label
	}
	return labels
}

// LabelSerialNumber is the response label carrying the matched serial number.
const LabelSerialNumber = "PCB Sr No"

// SourceRecord is a raw row from a backing source keyed by canonical column name.
// Values are scalars as the driver returned them (string, []byte, integers, floats, time.Time, nil).
type SourceRecord map[string]any

// RepairRecord is the normalised response handed to clients. It always carries
// every label in Fields; missing values are empty strings.
type RepairRecord map[string]string

// NewRepairRecord returns a record with every label present and empty.
func NewRepairRecord() RepairRecord {
	r := make(RepairRecord, len(Fields))
	for _, f := range Fields {
		r[f.Label] = ""
	}
	return r
}

// UnmarshalJSON decodes a response body and back-fills any label the body omitted,
// so a decoded record has the same key set as one built on the server.
func (r *RepairRecord) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	rec := NewRepairRecord()
	for _, f := range Fields {
		if v, ok := raw[f.Label]; ok {
			rec[f.Label] = strings.TrimSpace(jsonutil.FlexibleStringValue(v))
		}
	}
	*r = rec
	return nil
}

// ToRepairRecord translates a source row into the fixed response shape.
func ToRepairRecord(src SourceRecord) RepairRecord {
	rec := NewRepairRecord()
	for _, f := range Fields {
		v, ok := src[f.Column]
		if !ok || v == nil {
			continue
		}
		switch f.Kind {
		case FieldDate:
			rec[f.Label] = formatDate(v)
		default:
			rec[f.Label] = formatValue(v)
		}
	}
	return rec
}

// dateInputLayouts are the textual date forms accepted from sources that hand back strings
// (spreadsheets, SQLite). Slash and dash dates are read day first; month-first text is
// never guessed.
var dateInputLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 -0700 MST",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	"2/1/2006 15:04:05",
	"2/1/2006 15:04",
	"2/1/2006",
	"2-1-2006",
	"2/1/06",
	"2-1-06",
	"2-Jan-2006",
	"2-Jan-06",
	"2 Jan 2006",
	"2 Jan 06",
}

func formatDate(v any) string {
	switch t := v.(type) {
	case time.Time:
		if t.IsZero() {
			return ""
		}
		return t.Format(DateLayout)
	case *time.Time:
		if t == nil || t.IsZero() {
			return ""
		}
		return t.Format(DateLayout)
	}

	s := formatValue(v)
	if s == "" {
		return ""
	}
	for _, layout := range dateInputLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout)
		}
	}
	return s
}

func formatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case []byte:
		return strings.TrimSpace(string(t))
	case int:
		return strconv.Itoa(t)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case float32:
		return formatFloat(float64(t))
	case float64:
		return formatFloat(t)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.RFC3339)
	case fmt.Stringer:
		return strings.TrimSpace(t.String())
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// formatFloat renders integral floats without a fraction so numeric spreadsheet
// cells like 1234 do not come back as "1234.0".
func formatFloat(f float64) string {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return ""
	}
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}
