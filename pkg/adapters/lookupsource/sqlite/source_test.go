package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
	"github.com/ekaya-inc/pcb-lookup/pkg/models"
	"github.com/ekaya-inc/pcb-lookup/pkg/testhelpers"
)

func newTestSource(t *testing.T, logger *zap.Logger) *Source {
	t.Helper()
	path := testhelpers.WriteSQLiteDB(t, filepath.Join(t.TempDir(), "repairs.db"), testhelpers.SampleRows())
	src, err := New(context.Background(), path, "manufacturing_data", logger)
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	return src
}

func TestSource_FindBySerial_RoundTrip(t *testing.T) {
	src := newTestSource(t, zap.NewNop())

	raw, err := src.FindBySerial(context.Background(), "AB1234567890")
	require.NoError(t, err)

	rec := models.ToRepairRecord(raw)
	assert.Equal(t, "AB1234567890", rec["PCB Sr No"])
	assert.Equal(t, "L99", rec["Lot No"])
	assert.Equal(t, "FanX", rec["Fan Sr No"])
	assert.Equal(t, "05/03/2024", rec["Repair Date"])
	assert.Len(t, rec, len(models.Fields))
}

func TestSource_FindBySerial_NotFound(t *testing.T) {
	src := newTestSource(t, zap.NewNop())

	_, err := src.FindBySerial(context.Background(), "ZZ0000000000")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, "No record found for Serial Number: ZZ0000000000", err.Error())
}

func TestSource_FindBySerial_QuoteIsLiteral(t *testing.T) {
	src := newTestSource(t, zap.NewNop())

	_, err := src.FindBySerial(context.Background(), "' OR '1'='1")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSource_DuplicateSerialWarns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "dupes.db")

	// Same schema without the primary key, as a hand-built export might have.
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE manufacturing_data (
		sr_no INTEGER, lot_no TEXT, rf_no TEXT, pcb_sr_no TEXT, fan_sr_no TEXT, ticket_no TEXT,
		line_item_no TEXT, version TEXT, model TEXT, part_code TEXT, customer_complaint TEXT,
		symptom TEXT, defect TEXT, rf_observation TEXT, created_at TIMESTAMP)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO manufacturing_data (sr_no, lot_no, pcb_sr_no) VALUES
		(1, 'FIRST', 'DUP0000000001'), (2, 'SECOND', 'DUP0000000001')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	core, logs := observer.New(zapcore.DebugLevel)
	src, err := New(context.Background(), path, "manufacturing_data", zap.New(core))
	require.NoError(t, err)
	defer src.Close()

	rec, err := src.FindBySerial(context.Background(), "DUP0000000001")
	require.NoError(t, err)
	assert.Equal(t, "FIRST", rec[models.ColumnLotNo])
	assert.Equal(t, 1, logs.FilterLevelExact(zapcore.WarnLevel).Len())
}

func TestNew_MissingFile(t *testing.T) {
	_, err := New(context.Background(), filepath.Join(t.TempDir(), "absent.db"), "manufacturing_data", zap.NewNop())
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSource_MissingTableIsSourceError(t *testing.T) {
	src := newTestSource(t, zap.NewNop())
	src.query = "SELECT * FROM no_such_table WHERE pcb_sr_no = ?"

	_, err := src.FindBySerial(context.Background(), "AB1234567890")
	require.Error(t, err)

	var srcErr *apperrors.SourceError
	assert.True(t, errors.As(err, &srcErr))
	assert.False(t, apperrors.IsNotFound(err))
}

func TestSource_PingAfterFileRemoved(t *testing.T) {
	src := newTestSource(t, zap.NewNop())
	require.NoError(t, src.Ping(context.Background()))

	require.NoError(t, os.Remove(src.path))
	assert.Error(t, src.Ping(context.Background()))
}

func TestSource_Stats(t *testing.T) {
	rows := testhelpers.SampleRows()
	extra := rows[2]
	extra.PCBSrNo = "GH7777777777"
	extra.LotNo = "  "
	extra.PartCode = "PC-77"
	extra.TicketNo = "TCK-103"
	rows = append(rows, extra)

	path := testhelpers.WriteSQLiteDB(t, filepath.Join(t.TempDir(), "repairs.db"), rows)
	src, err := New(context.Background(), path, "manufacturing_data", zap.NewNop())
	require.NoError(t, err)
	defer src.Close()

	st, err := src.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.Stats{
		TotalRecords:     4,
		UniqueLotNumbers: 3,
		UniqueModels:     3,
		UniquePartCodes:  3,
		UniqueTickets:    4,
	}, st)
}

func TestSource_StatsMissingTableIsSourceError(t *testing.T) {
	path := testhelpers.WriteSQLiteDB(t, filepath.Join(t.TempDir(), "repairs.db"), testhelpers.SampleRows())
	src, err := New(context.Background(), path, "no_such_table", zap.NewNop())
	require.NoError(t, err)
	defer src.Close()

	_, err = src.Stats(context.Background())
	var srcErr *apperrors.SourceError
	require.True(t, errors.As(err, &srcErr))
	assert.Equal(t, "stats", srcErr.Op)
}
