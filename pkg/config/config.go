package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Source types understood by the lookup source registry.
const (
	SourcePostgres    = "postgres"
	SourceMSSQL       = "mssql"
	SourceSQLite      = "sqlite"
	SourceSpreadsheet = "spreadsheet"
)

// DefaultConfigPath is read when no --config flag is given.
const DefaultConfigPath = "config.yaml"

// Config holds all configuration for pcb-lookup.
// Configuration can come from a YAML file or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"0.0.0.0"`
	Port     string `yaml:"port" env:"PORT" env-default:"5000"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	ReadTimeout     time.Duration `yaml:"read_timeout" env:"READ_TIMEOUT" env-default:"5s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"WRITE_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT" env-default:"10s"`

	// Which backing source answers lookups, and how.
	Source SourceConfig `yaml:"source"`

	// Per-source connection settings. Only the section matching Source.Type is used.
	Database    DatabaseConfig    `yaml:"database"`
	MSSQL       MSSQLConfig       `yaml:"mssql"`
	SQLite      SQLiteConfig      `yaml:"sqlite"`
	Spreadsheet SpreadsheetConfig `yaml:"spreadsheet"`

	CORS   CORSConfig   `yaml:"cors"`
	Client ClientConfig `yaml:"client"`
}

// SourceConfig selects the lookup strategy.
type SourceConfig struct {
	Type string `yaml:"type" env:"LOOKUP_SOURCE" env-default:"postgres"`
	// Table is the relational table holding repair rows (indexed sources only).
	Table string `yaml:"table" env:"LOOKUP_TABLE" env-default:"manufacturing_data"`
	// QueryTimeout bounds every backing query or scan.
	QueryTimeout time.Duration `yaml:"query_timeout" env:"LOOKUP_QUERY_TIMEOUT" env-default:"5s"`
}

// DatabaseConfig holds PostgreSQL connection configuration.
type DatabaseConfig struct {
	Host           string        `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int           `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string        `yaml:"user" env:"PGUSER" env-default:"postgres"`
	Password       string        `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string        `yaml:"database" env:"PGDATABASE" env-default:"Atomberg_Electrolyte"`
	SSLMode        string        `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32         `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"20"`
	MaxConnIdle    time.Duration `yaml:"max_conn_idle" env:"PGMAX_CONN_IDLE" env-default:"30s"`
	ConnectTimeout time.Duration `yaml:"connect_timeout" env:"PGCONNECT_TIMEOUT" env-default:"2s"`
}

// MSSQLConfig holds SQL Server connection configuration.
type MSSQLConfig struct {
	Host                   string        `yaml:"host" env:"MSSQL_HOST" env-default:"localhost"`
	Port                   int           `yaml:"port" env:"MSSQL_PORT" env-default:"1433"`
	User                   string        `yaml:"user" env:"MSSQL_USER" env-default:"sa"`
	Password               string        `yaml:"-" env:"MSSQL_PASSWORD"` // Secret - not in YAML
	Database               string        `yaml:"database" env:"MSSQL_DATABASE" env-default:"Atomberg_Electrolyte"`
	Encrypt                bool          `yaml:"encrypt" env:"MSSQL_ENCRYPT" env-default:"true"`
	TrustServerCertificate bool          `yaml:"trust_server_certificate" env:"MSSQL_TRUST_SERVER_CERTIFICATE" env-default:"false"`
	ConnectTimeout         time.Duration `yaml:"connect_timeout" env:"MSSQL_CONNECT_TIMEOUT" env-default:"5s"`
	MaxOpenConns           int           `yaml:"max_open_conns" env:"MSSQL_MAX_OPEN_CONNS" env-default:"20"`
}

// SQLiteConfig points at an embedded database file.
type SQLiteConfig struct {
	Path string `yaml:"path" env:"SQLITE_PATH" env-default:"manufacturing.db"`
}

// SpreadsheetConfig holds the scan source settings.
type SpreadsheetConfig struct {
	// Dir is scanned for *.xlsx and *.csv files on every lookup.
	Dir string `yaml:"dir" env:"SPREADSHEET_DIR" env-default:""`
	// SerialHeader forces a header to be read as the serial-number column,
	// in addition to the built-in aliases.
	SerialHeader string `yaml:"serial_header" env:"SPREADSHEET_SERIAL_HEADER" env-default:""`
}

// CORSConfig lists browser origins allowed to call the API.
type CORSConfig struct {
	AllowedOriginsStr string   `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173,http://127.0.0.1:3000"`
	AllowedOrigins    []string `yaml:"-"`
}

// ClientConfig configures the form client.
type ClientConfig struct {
	BaseURL         string        `yaml:"base_url" env:"LOOKUP_API_URL" env-default:"http://localhost:5000"`
	MinSerialLength int           `yaml:"min_serial_length" env:"LOOKUP_MIN_SERIAL_LENGTH" env-default:"10"`
	Timeout         time.Duration `yaml:"timeout" env:"LOOKUP_CLIENT_TIMEOUT" env-default:"5s"`
}

// Load reads configuration from path with environment variable overrides.
// A missing file is not an error: defaults and environment variables apply.
// The version parameter is injected at build time and set on the returned Config.
func Load(path, version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if path == "" {
		path = DefaultConfigPath
	}

	if _, err := os.Stat(path); err == nil {
		if err := cleanenv.ReadConfig(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
	} else if errors.Is(err, os.ErrNotExist) {
		if err := cleanenv.ReadEnv(cfg); err != nil {
			return nil, fmt.Errorf("failed to read environment: %w", err)
		}
	} else {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	cfg.CORS.AllowedOrigins = splitList(cfg.CORS.AllowedOriginsStr)
	cfg.Source.Type = strings.ToLower(strings.TrimSpace(cfg.Source.Type))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks cross-field constraints cleanenv cannot express.
func (c *Config) Validate() error {
	switch c.Source.Type {
	case SourcePostgres, SourceMSSQL:
		if c.Source.Table == "" {
			return fmt.Errorf("source.table is required for %s", c.Source.Type)
		}
	case SourceSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite.path is required")
		}
		if c.Source.Table == "" {
			return fmt.Errorf("source.table is required for %s", c.Source.Type)
		}
	case SourceSpreadsheet:
		if c.Spreadsheet.Dir == "" {
			return fmt.Errorf("spreadsheet.dir is required")
		}
	default:
		return fmt.Errorf("unsupported source type %q (want postgres, mssql, sqlite or spreadsheet)", c.Source.Type)
	}

	if c.Source.QueryTimeout <= 0 {
		return fmt.Errorf("source.query_timeout must be positive")
	}
	if c.Client.MinSerialLength <= 0 {
		return fmt.Errorf("client.min_serial_length must be positive")
	}
	if c.Client.Timeout <= 0 {
		return fmt.Errorf("client.timeout must be positive")
	}
	if c.Client.BaseURL != "" {
		if _, err := url.ParseRequestURI(c.Client.BaseURL); err != nil {
			return fmt.Errorf("client.base_url: %w", err)
		}
	}
	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return c.BindAddr + ":" + c.Port
}

// ConnectionString returns a PostgreSQL connection URL.
// User-provided fields are escaped so passwords containing @, / or # survive parsing.
func (c *DatabaseConfig) ConnectionString() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", ResolveHostForDocker(c.Host), c.Port),
		Path:   "/" + c.Database,
	}
	q := url.Values{}
	q.Set("sslmode", c.SSLMode)
	if c.ConnectTimeout > 0 {
		q.Set("connect_timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds()+0.5)))
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// ConnectionString returns a sqlserver:// URL for go-mssqldb.
func (c *MSSQLConfig) ConnectionString() string {
	q := url.Values{}
	q.Set("database", c.Database)
	q.Set("encrypt", fmt.Sprintf("%t", c.Encrypt))
	if c.TrustServerCertificate {
		q.Set("TrustServerCertificate", "true")
	}
	if c.ConnectTimeout > 0 {
		q.Set("connection timeout", fmt.Sprintf("%d", int(c.ConnectTimeout.Seconds()+0.5)))
	}
	u := url.URL{
		Scheme:   "sqlserver",
		User:     url.UserPassword(c.User, c.Password),
		Host:     fmt.Sprintf("%s:%d", ResolveHostForDocker(c.Host), c.Port),
		RawQuery: q.Encode(),
	}
	return u.String()
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
