//go:build integration

package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
	"github.com/ekaya-inc/pcb-lookup/pkg/config"
	"github.com/ekaya-inc/pcb-lookup/pkg/models"
	"github.com/ekaya-inc/pcb-lookup/pkg/testhelpers"
)

func newTestSource(t *testing.T) *Source {
	t.Helper()
	testDB := testhelpers.GetTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cfg := testDB.Config
	src, err := New(ctx, &cfg, "manufacturing_data", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { src.Close() })
	return src
}

func TestSource_FindBySerial_Found(t *testing.T) {
	src := newTestSource(t)

	rec, err := src.FindBySerial(context.Background(), "AB1234567890")
	require.NoError(t, err)

	assert.Equal(t, "L99", rec[models.ColumnLotNo])
	assert.Equal(t, "FanX", rec[models.ColumnFanSrNo])

	created, ok := rec[models.ColumnCreatedAt].(time.Time)
	require.True(t, ok, "created_at should decode as time.Time, got %T", rec[models.ColumnCreatedAt])
	assert.Equal(t, "05/03/2024", created.Format(models.DateLayout))
}

func TestSource_FindBySerial_NotFound(t *testing.T) {
	src := newTestSource(t)

	_, err := src.FindBySerial(context.Background(), "ZZ0000000000")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestSource_FindBySerial_ExactMatchOnly(t *testing.T) {
	src := newTestSource(t)

	_, err := src.FindBySerial(context.Background(), "ab1234567890")
	assert.True(t, apperrors.IsNotFound(err), "lookup must be case-sensitive")

	_, err = src.FindBySerial(context.Background(), "AB123456789%")
	assert.True(t, apperrors.IsNotFound(err), "wildcards must not match")
}

func TestSource_Stats(t *testing.T) {
	src := newTestSource(t)

	st, err := src.Stats(context.Background())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, st.TotalRecords, int64(len(testhelpers.SampleRows())))
	assert.GreaterOrEqual(t, st.UniqueLotNumbers, int64(3))
	assert.LessOrEqual(t, st.UniqueModels, st.TotalRecords)
}

func TestSource_Ping(t *testing.T) {
	src := newTestSource(t)
	require.NoError(t, src.Ping(context.Background()))
}

func TestSource_UnreachableIsSourceError(t *testing.T) {
	cfg := &config.DatabaseConfig{
		Host:           "127.0.0.1",
		Port:           1,
		User:           "nobody",
		Database:       "none",
		SSLMode:        "disable",
		ConnectTimeout: time.Second,
	}
	src, err := New(context.Background(), cfg, "manufacturing_data", zap.NewNop())
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	_, err = src.FindBySerial(ctx, "AB1234567890")
	require.Error(t, err)

	var srcErr *apperrors.SourceError
	assert.True(t, errors.As(err, &srcErr))
	assert.False(t, apperrors.IsNotFound(err))
}
