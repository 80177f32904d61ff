package mssql

import (
	"context"
	"errors"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
	"github.com/ekaya-inc/pcb-lookup/pkg/config"
	"github.com/ekaya-inc/pcb-lookup/pkg/models"
)

func TestNew_BuildsTopQuery(t *testing.T) {
	src, err := New(context.Background(), &config.MSSQLConfig{
		Host: "localhost", Port: 1433, User: "sa", Password: "x", Database: "repairs",
	}, "dbo.manufacturing_data", zap.NewNop())
	require.NoError(t, err)
	defer src.Close()

	assert.Equal(t, config.SourceMSSQL, src.Name())
	assert.True(t, strings.HasPrefix(src.query, "SELECT TOP (2) [sr_no]"), src.query)
	assert.True(t, strings.HasSuffix(src.query, "FROM [dbo].[manufacturing_data] WHERE [pcb_sr_no] = @p1"), src.query)
}

func TestSource_UnreachableIsSourceError(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping network test in short mode")
	}

	src, err := New(context.Background(), &config.MSSQLConfig{
		Host: "127.0.0.1", Port: 1, User: "sa", Password: "x", Database: "repairs",
		ConnectTimeout: time.Second,
	}, "manufacturing_data", zap.NewNop())
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

// TestSource_FindBySerial_Live runs against a real server seeded with the
// manufacturing_data fixture rows.
func TestSource_FindBySerial_Live(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	host := os.Getenv("MSSQL_HOST")
	user := os.Getenv("MSSQL_USER")
	password := os.Getenv("MSSQL_PASSWORD")
	database := os.Getenv("MSSQL_DATABASE")
	if host == "" || user == "" || password == "" || database == "" {
		t.Skip("skipping integration test: MSSQL_HOST, MSSQL_USER, MSSQL_PASSWORD, or MSSQL_DATABASE not set")
	}

	port := 1433
	if p := os.Getenv("MSSQL_PORT"); p != "" {
		var err error
		port, err = strconv.Atoi(p)
		require.NoError(t, err, "invalid MSSQL_PORT")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	src, err := New(ctx, &config.MSSQLConfig{
		Host: host, Port: port, User: user, Password: password, Database: database,
		TrustServerCertificate: true, ConnectTimeout: 10 * time.Second,
	}, "manufacturing_data", zap.NewNop())
	require.NoError(t, err)
	defer src.Close()

	require.NoError(t, src.Ping(ctx))

	rec, err := src.FindBySerial(ctx, "AB1234567890")
	require.NoError(t, err)
	assert.Equal(t, "L99", rec[models.ColumnLotNo])

	_, err = src.FindBySerial(ctx, "ZZ0000000000")
	assert.True(t, apperrors.IsNotFound(err))
}
