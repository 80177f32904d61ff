package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// unsetEnv clears variables that would leak from the developer shell into Load.
func unsetEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, key := range keys {
		if old, ok := os.LookupEnv(key); ok {
			os.Unsetenv(key)
			t.Cleanup(func() { os.Setenv(key, old) })
		}
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return path
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	unsetEnv(t, "PGHOST", "LOOKUP_SOURCE", "LOOKUP_TABLE")

	configPath := writeConfig(t, `
port: "5050"
env: "test"
source:
  type: "postgres"
  table: "repairs"
database:
  host: "db.example.com"
  port: 5432
  user: "testuser"
  database: "testdb"
`)

	t.Setenv("PORT", "6060")
	t.Setenv("ENVIRONMENT", "production")

	cfg, err := Load(configPath, "test-version")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "6060" {
		t.Errorf("expected Port=6060 (from env), got %s", cfg.Port)
	}
	if cfg.Env != "production" {
		t.Errorf("expected Env=production (from env), got %s", cfg.Env)
	}
	if cfg.Version != "test-version" {
		t.Errorf("expected Version=test-version, got %s", cfg.Version)
	}
	if cfg.Database.Host != "db.example.com" {
		t.Errorf("expected Database.Host=db.example.com (from yaml), got %s", cfg.Database.Host)
	}
	if cfg.Source.Table != "repairs" {
		t.Errorf("expected Source.Table=repairs (from yaml), got %s", cfg.Source.Table)
	}
}

func TestLoad_MissingConfigFileUsesDefaults(t *testing.T) {
	unsetEnv(t, "PORT", "BIND_ADDR", "ENVIRONMENT", "LOOKUP_SOURCE", "LOOKUP_TABLE",
		"LOOKUP_QUERY_TIMEOUT", "PGCONNECT_TIMEOUT", "CORS_ALLOWED_ORIGINS",
		"LOOKUP_API_URL", "LOOKUP_MIN_SERIAL_LENGTH")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "v1")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Addr() != "0.0.0.0:5000" {
		t.Errorf("expected Addr=0.0.0.0:5000, got %s", cfg.Addr())
	}
	if cfg.Source.Type != SourcePostgres {
		t.Errorf("expected Source.Type=postgres, got %s", cfg.Source.Type)
	}
	if cfg.Source.Table != "manufacturing_data" {
		t.Errorf("expected Source.Table=manufacturing_data, got %s", cfg.Source.Table)
	}
	if cfg.Source.QueryTimeout != 5*time.Second {
		t.Errorf("expected Source.QueryTimeout=5s, got %s", cfg.Source.QueryTimeout)
	}
	if cfg.Database.ConnectTimeout != 2*time.Second {
		t.Errorf("expected Database.ConnectTimeout=2s, got %s", cfg.Database.ConnectTimeout)
	}
	if cfg.Client.MinSerialLength != 10 {
		t.Errorf("expected Client.MinSerialLength=10, got %d", cfg.Client.MinSerialLength)
	}
	if cfg.Client.BaseURL != "http://localhost:5000" {
		t.Errorf("expected Client.BaseURL=http://localhost:5000, got %s", cfg.Client.BaseURL)
	}
	if len(cfg.CORS.AllowedOrigins) != 4 {
		t.Errorf("expected 4 default CORS origins, got %v", cfg.CORS.AllowedOrigins)
	}
}

func TestLoad_SpreadsheetFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("LOOKUP_SOURCE", " Spreadsheet ")
	t.Setenv("SPREADSHEET_DIR", dir)
	t.Setenv("SPREADSHEET_SERIAL_HEADER", "Board ID")

	cfg, err := Load(filepath.Join(dir, "absent.yaml"), "v1")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Source.Type != SourceSpreadsheet {
		t.Errorf("expected Source.Type normalised to spreadsheet, got %q", cfg.Source.Type)
	}
	if cfg.Spreadsheet.Dir != dir {
		t.Errorf("expected Spreadsheet.Dir=%s, got %s", dir, cfg.Spreadsheet.Dir)
	}
	if cfg.Spreadsheet.SerialHeader != "Board ID" {
		t.Errorf("expected Spreadsheet.SerialHeader=Board ID, got %s", cfg.Spreadsheet.SerialHeader)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown source",
			env:     map[string]string{"LOOKUP_SOURCE": "oracle"},
			wantErr: "unsupported source type",
		},
		{
			name:    "spreadsheet without dir",
			env:     map[string]string{"LOOKUP_SOURCE": "spreadsheet", "SPREADSHEET_DIR": ""},
			wantErr: "spreadsheet.dir is required",
		},
		{
			name:    "zero query timeout",
			env:     map[string]string{"LOOKUP_SOURCE": "postgres", "LOOKUP_QUERY_TIMEOUT": "0s"},
			wantErr: "query_timeout must be positive",
		},
		{
			name:    "zero min serial length",
			env:     map[string]string{"LOOKUP_SOURCE": "postgres", "LOOKUP_MIN_SERIAL_LENGTH": "0"},
			wantErr: "min_serial_length must be positive",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			unsetEnv(t, "LOOKUP_QUERY_TIMEOUT", "LOOKUP_MIN_SERIAL_LENGTH", "LOOKUP_TABLE", "LOOKUP_API_URL")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), "v1")
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoad_CORSOriginsFromYAML(t *testing.T) {
	unsetEnv(t, "CORS_ALLOWED_ORIGINS", "LOOKUP_SOURCE", "LOOKUP_TABLE")

	configPath := writeConfig(t, `
cors:
  allowed_origins: "https://repairs.example.com, ,http://localhost:8080"
`)

	cfg, err := Load(configPath, "v1")
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	want := []string{"https://repairs.example.com", "http://localhost:8080"}
	if len(cfg.CORS.AllowedOrigins) != len(want) {
		t.Fatalf("expected origins %v, got %v", want, cfg.CORS.AllowedOrigins)
	}
	for i := range want {
		if cfg.CORS.AllowedOrigins[i] != want[i] {
			t.Errorf("origin[%d]: expected %s, got %s", i, want[i], cfg.CORS.AllowedOrigins[i])
		}
	}
}

func TestDatabaseConfig_ConnectionStringEscapesPassword(t *testing.T) {
	c := DatabaseConfig{
		Host:           "db.example.com",
		Port:           5432,
		User:           "reader",
		Password:       "p@ss/w#rd",
		Database:       "Atomberg_Electrolyte",
		SSLMode:        "require",
		ConnectTimeout: 2 * time.Second,
	}

	u, err := url.Parse(c.ConnectionString())
	if err != nil {
		t.Fatalf("connection string does not parse: %v", err)
	}
	if pw, _ := u.User.Password(); pw != "p@ss/w#rd" {
		t.Errorf("expected password to round-trip, got %q", pw)
	}
	if u.Host != "db.example.com:5432" {
		t.Errorf("expected host db.example.com:5432, got %s", u.Host)
	}
	if u.Path != "/Atomberg_Electrolyte" {
		t.Errorf("expected path /Atomberg_Electrolyte, got %s", u.Path)
	}
	if got := u.Query().Get("sslmode"); got != "require" {
		t.Errorf("expected sslmode=require, got %s", got)
	}
	if got := u.Query().Get("connect_timeout"); got != "2" {
		t.Errorf("expected connect_timeout=2, got %s", got)
	}
}

func TestMSSQLConfig_ConnectionString(t *testing.T) {
	c := MSSQLConfig{
		Host:                   "sql.example.com",
		Port:                   1433,
		User:                   "sa",
		Password:               "secret",
		Database:               "repairs",
		Encrypt:                true,
		TrustServerCertificate: true,
		ConnectTimeout:         5 * time.Second,
	}

	u, err := url.Parse(c.ConnectionString())
	if err != nil {
		t.Fatalf("connection string does not parse: %v", err)
	}
	if u.Scheme != "sqlserver" {
		t.Errorf("expected scheme sqlserver, got %s", u.Scheme)
	}
	q := u.Query()
	if q.Get("database") != "repairs" {
		t.Errorf("expected database=repairs, got %s", q.Get("database"))
	}
	if q.Get("encrypt") != "true" {
		t.Errorf("expected encrypt=true, got %s", q.Get("encrypt"))
	}
	if q.Get("TrustServerCertificate") != "true" {
		t.Errorf("expected TrustServerCertificate=true, got %s", q.Get("TrustServerCertificate"))
	}
	if q.Get("connection timeout") != "5" {
		t.Errorf("expected connection timeout=5, got %s", q.Get("connection timeout"))
	}
}
