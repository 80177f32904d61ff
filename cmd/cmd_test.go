package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/pcb-lookup/pkg/adapters/lookupsource/sqlite"
	"github.com/ekaya-inc/pcb-lookup/pkg/apperrors"
	"github.com/ekaya-inc/pcb-lookup/pkg/config"
	"github.com/ekaya-inc/pcb-lookup/pkg/models"
	"github.com/ekaya-inc/pcb-lookup/pkg/services"
	"github.com/ekaya-inc/pcb-lookup/pkg/testhelpers"
)

// useSQLiteSource points configuration at a fresh fixture database.
func useSQLiteSource(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := testhelpers.WriteSQLiteDB(t, filepath.Join(dir, "repairs.db"), testhelpers.SampleRows())
	t.Setenv("LOOKUP_SOURCE", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("ENVIRONMENT", "test")
	return filepath.Join(dir, "absent.yaml")
}

func run(t *testing.T, args ...string) (int, string) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
		benchJSON = false
		benchIterations = 100
	})
	return Execute("test"), out.String()
}

func TestLookupCommand_ExitCodes(t *testing.T) {
	cfgPath := useSQLiteSource(t)

	code, out := run(t, "lookup", "--config", cfgPath, "--env-file", "", "AB1234567890")
	require.Equal(t, ExitOK, code)

	var rec map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, "AB1234567890", rec["PCB Sr No"])
	assert.Equal(t, "05/03/2024", rec["Repair Date"])

	code, _ = run(t, "lookup", "--config", cfgPath, "--env-file", "", "ZZ0000000000")
	assert.Equal(t, ExitNotFound, code)

	code, _ = run(t, "lookup", "--config", cfgPath, "--env-file", "", "   ")
	assert.Equal(t, ExitUsage, code)
}

func TestLookupCommand_SourceFailure(t *testing.T) {
	cfgPath := useSQLiteSource(t)
	t.Setenv("LOOKUP_TABLE", "no_such_table")

	code, _ := run(t, "lookup", "--config", cfgPath, "--env-file", "", "AB1234567890")
	assert.Equal(t, ExitFailure, code)
}

func TestLookupCommand_BadConfig(t *testing.T) {
	t.Setenv("LOOKUP_SOURCE", "oracle")

	code, _ := run(t, "lookup", "--config", filepath.Join(t.TempDir(), "absent.yaml"), "--env-file", "", "AB1234567890")
	assert.Equal(t, ExitUsage, code)
}

func TestBenchCommand_JSON(t *testing.T) {
	cfgPath := useSQLiteSource(t)

	code, out := run(t, "bench", "--config", cfgPath, "--env-file", "", "-n", "5", "--json", "AB1234567890", "ZZ0000000000")
	require.Equal(t, ExitOK, code)

	var results []BenchResult
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 2)

	assert.True(t, results[0].Found)
	assert.Equal(t, 5, results[0].Iterations)
	assert.Zero(t, results[0].Failures)
	assert.False(t, results[1].Found)
	assert.LessOrEqual(t, results[0].MinMS, results[0].MedianMS)
	assert.LessOrEqual(t, results[0].MedianMS, results[0].MaxMS)
}

func TestVersionCommand(t *testing.T) {
	code, out := run(t, "version")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "pcb-lookup test")
	for _, name := range []string{"postgres", "mssql", "sqlite", "spreadsheet"} {
		assert.Contains(t, out, name)
	}
}

func TestSummarize(t *testing.T) {
	var res BenchResult
	summarize(&res, []time.Duration{
		2 * time.Millisecond, 4 * time.Millisecond, 4 * time.Millisecond, 4 * time.Millisecond,
		5 * time.Millisecond, 5 * time.Millisecond, 7 * time.Millisecond, 9 * time.Millisecond,
	})

	assert.InDelta(t, 5.0, res.AvgMS, 1e-9)
	assert.InDelta(t, 4.5, res.MedianMS, 1e-9)
	assert.InDelta(t, 2.0, res.MinMS, 1e-9)
	assert.InDelta(t, 9.0, res.MaxMS, 1e-9)
	assert.InDelta(t, 2.138, res.StdDevMS, 1e-3)
	assert.Equal(t, 200.0, res.QPS)
	assert.Equal(t, "okay", res.Rating)
}

func TestSummarize_SingleSample(t *testing.T) {
	var res BenchResult
	summarize(&res, []time.Duration{500 * time.Microsecond})

	assert.InDelta(t, 0.5, res.MedianMS, 1e-9)
	assert.Zero(t, res.StdDevMS)
	assert.Equal(t, "excellent", res.Rating)
}

func TestRouter_MiddlewareChain(t *testing.T) {
	path := testhelpers.WriteSQLiteDB(t, filepath.Join(t.TempDir(), "repairs.db"), testhelpers.SampleRows())
	src, err := sqlite.New(t.Context(), path, "manufacturing_data", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	cfg := &config.Config{
		Version: "test",
		Source:  config.SourceConfig{Type: config.SourceSQLite},
		CORS:    config.CORSConfig{AllowedOrigins: []string{"http://localhost:5173"}},
	}
	h := newRouter(cfg, services.NewLookupService(src, time.Second, zap.NewNop()), zap.NewNop())

	req := httptest.NewRequest(http.MethodGet, "/api/data?serialNumber=CD0987654321", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "FanY", body["Fan Sr No"])

	preflight := httptest.NewRequest(http.MethodOptions, "/api/data", nil)
	preflight.Header.Set("Origin", "http://localhost:5173")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, preflight)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestStatsCommand(t *testing.T) {
	cfgPath := useSQLiteSource(t)

	code, out := run(t, "stats", "--config", cfgPath, "--env-file", "")
	require.Equal(t, ExitOK, code)

	var st models.Stats
	require.NoError(t, json.Unmarshal([]byte(out), &st))
	assert.Equal(t, int64(3), st.TotalRecords)
	assert.Equal(t, int64(3), st.UniqueModels)
}

func TestRouter_Stats(t *testing.T) {
	path := testhelpers.WriteSQLiteDB(t, filepath.Join(t.TempDir(), "repairs.db"), testhelpers.SampleRows())
	src, err := sqlite.New(t.Context(), path, "manufacturing_data", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Close() })

	cfg := &config.Config{Version: "test", Source: config.SourceConfig{Type: config.SourceSQLite}}
	h := newRouter(cfg, services.NewLookupService(src, time.Second, zap.NewNop()), zap.NewNop())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Success bool         `json:"success"`
		Stats   models.Stats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.True(t, body.Success)
	assert.Equal(t, int64(3), body.Stats.TotalRecords)
}

func TestOpenService_UnregisteredSourceIsUsageError(t *testing.T) {
	cfg := &config.Config{Source: config.SourceConfig{Type: "oracle"}}

	_, _, err := openService(t.Context(), cfg, zap.NewNop())

	var ee *exitError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, ExitUsage, ee.code)
	assert.ErrorIs(t, err, apperrors.ErrUnknownSource)
}
