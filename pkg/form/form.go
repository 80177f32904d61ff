// Package form holds the state of the record form: the bound serial number,
// the displayed repair fields and the fetch status banner.
//
// Form is not safe for concurrent use. Callers run lookups elsewhere and hand
// the outcome back through Apply, which drops any result that is not for the
// latest issued request.
package form

import (
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
	"github.com/ekaya-inc/pcb-lookup/pkg/logging"
	"github.com/ekaya-inc/pcb-lookup/pkg/models"
)

// DefaultMinSerialLength is the input length that triggers a lookup.
const DefaultMinSerialLength = 10

// Status is the fetch status shown in the banner.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Request is a lookup the caller must run.
type Request struct {
	ID     uint64
	Serial string
}

// Result is the outcome of running a Request.
type Result struct {
	RequestID uint64
	Serial    string
	Record    models.RepairRecord
	Err       error
}

// Lookuper fetches a record. *client.Client satisfies it.
type Lookuper interface {
	Lookup(ctx context.Context, serial string) (models.RepairRecord, error)
}

// Fetch runs req against l and packages the outcome for Apply.
func Fetch(ctx context.Context, l Lookuper, req Request) Result {
	rec, err := l.Lookup(ctx, req.Serial)
	return Result{RequestID: req.ID, Serial: req.Serial, Record: rec, Err: err}
}

// Form is the record form state.
type Form struct {
	minLength int

	serial  string
	fields  models.RepairRecord
	status  Status
	message string
	loading bool

	lastIssued uint64
}

// New creates an empty form. minLength <= 0 selects DefaultMinSerialLength.
func New(minLength int) *Form {
	if minLength <= 0 {
		minLength = DefaultMinSerialLength
	}
	return &Form{
		minLength: minLength,
		fields:    models.NewRepairRecord(),
		status:    StatusIdle,
	}
}

// SetSerial binds value as the serial number. Any edit clears an error banner;
// displayed fields stay until a newer result lands. When value is at least
// the minimum length in runes, SetSerial issues a new request and returns it.
func (f *Form) SetSerial(value string) (Request, bool) {
	f.serial = value
	if f.status == StatusError {
		f.status = StatusIdle
		f.message = ""
	}

	if utf8.RuneCountInString(value) < f.minLength {
		return Request{}, false
	}

	f.lastIssued++
	f.loading = true
	return Request{ID: f.lastIssued, Serial: value}, true
}

// Apply records the outcome of a request. Results for any request other than
// the latest issued one are discarded and Apply returns false.
func (f *Form) Apply(res Result) bool {
	if res.RequestID != f.lastIssued {
		return false
	}
	f.loading = false

	if res.Err != nil {
		f.fields = models.NewRepairRecord()
		f.status = StatusError
		f.message = errorMessage(res.Serial, res.Err)
		return true
	}

	f.fields = models.NewRepairRecord()
	for label, v := range res.Record {
		if _, ok := f.fields[label]; ok {
			f.fields[label] = v
		}
	}
	f.status = StatusSuccess
	f.message = fmt.Sprintf("Record found for Serial Number: %s", res.Serial)
	return true
}

func errorMessage(serial string, err error) string {
	switch {
	case apperrors.IsValidation(err):
		return apperrors.ErrSerialRequired.Error()
	case apperrors.IsNotFound(err):
		return fmt.Sprintf("No record found for Serial Number: %s", serial)
	default:
		return fmt.Sprintf("Failed to fetch data for Serial Number: %s (%s)", serial, logging.SanitizeError(err))
	}
}

// MinSerialLength is the rune count that triggers a lookup.
func (f *Form) MinSerialLength() int { return f.minLength }

// Serial returns the bound serial number.
func (f *Form) Serial() string { return f.serial }

// Status returns the banner status.
func (f *Form) Status() Status { return f.status }

// Message returns the banner text; empty while idle.
func (f *Form) Message() string { return f.message }

// Loading reports whether the latest request is still outstanding.
func (f *Form) Loading() bool { return f.loading }

// Field returns the displayed value of label.
func (f *Form) Field(label string) string { return f.fields[label] }

// Fields returns a copy of every displayed field keyed by label.
func (f *Form) Fields() models.RepairRecord {
	out := make(models.RepairRecord, len(f.fields))
	for k, v := range f.fields {
		out[k] = v
	}
	return out
}
