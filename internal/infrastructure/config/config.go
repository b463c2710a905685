// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml), with ${VAR} expansion
//  2. Environment variables (fallback)
//
// .env and .env.local are loaded into the environment first, so both
// sources can read values kept out of the config file.
//
// Example usage:
//
//	config.LoadDotEnv()
//	cfg := config.LoadOrEnv()
//	dbPath := cfg.Storage.DatabasePath
//	token := cfg.Panel.Token
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Queue backends
const (
	BackendSheets   = "sheets"
	BackendWorkbook = "workbook"
	BackendRemote   = "remote"
)

// Config represents the entire application configuration
type Config struct {
	Tenant        string              `yaml:"tenant"`
	Banks         []string            `yaml:"banks"`
	Panel         PanelConfig         `yaml:"panel"`
	Queue         QueueConfig         `yaml:"queue"`
	Reconcile     ReconcileConfig     `yaml:"reconcile"`
	Storage       StorageConfig       `yaml:"storage"`
	API           APIConfig           `yaml:"api"`
	Gateway       GatewayConfig       `yaml:"gateway"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PanelConfig holds the panel backend connection
type PanelConfig struct {
	BaseURL string        `yaml:"base_url"`
	Token   string        `yaml:"token"`
	Timeout time.Duration `yaml:"timeout"`
}

// QueueConfig selects and configures the queue backend
type QueueConfig struct {
	Backend        string         `yaml:"backend"` // sheets | workbook | remote
	CredentialsDir string         `yaml:"credentials_dir"`
	HeaderRow      int            `yaml:"header_row"`
	DataOffset     *int           `yaml:"data_offset"` // nil means 10; 0 is a valid offset
	RegistryTTL    time.Duration  `yaml:"registry_ttl"`
	Sheets         SheetsConfig   `yaml:"sheets"`
	Workbook       WorkbookConfig `yaml:"workbook"`
	Remote         RemoteConfig   `yaml:"remote"`
}

// SheetsConfig holds Google Sheets settings
type SheetsConfig struct {
	RegistryDocumentID string            `yaml:"registry_document_id"`
	RegistryDocuments  map[string]string `yaml:"registry_documents"` // tenant -> document, for the gateway
}

// WorkbookConfig holds local .xlsx settings
type WorkbookConfig struct {
	Files      map[string]string `yaml:"files"` // bank -> path
	SheetIndex int               `yaml:"sheet_index"`
}

// RemoteConfig holds queue gateway client settings
type RemoteConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// ReconcileConfig holds reconcile loop settings
type ReconcileConfig struct {
	MinCoin        int64         `yaml:"min_coin"`
	ApprovedStatus int           `yaml:"approved_status"`
	CallTimeout    time.Duration `yaml:"call_timeout"`
	FailureBackoff time.Duration `yaml:"failure_backoff"`
	MaxBackoff     time.Duration `yaml:"max_backoff"`
	IdleDelay      time.Duration `yaml:"idle_delay"`
}

// StorageConfig holds database configuration. An empty path disables the
// audit trail.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
}

// APIConfig holds operations API settings
type APIConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// GatewayConfig holds queue gateway settings
type GatewayConfig struct {
	Port           int      `yaml:"port"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // text | json
}

// LoadDotEnv loads .env.local and .env into the environment. Variables
// already set win; .env.local wins over .env. Missing files are ignored.
func LoadDotEnv() {
	for _, file := range []string{".env.local", ".env"} {
		if _, err := os.Stat(file); err == nil {
			_ = godotenv.Load(file)
		}
	}
}

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${TOKEN})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	cfg.applyEnvFallbacks()
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := &Config{}
	cfg.applyEnvFallbacks()
	cfg.applyDefaults()
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables
func LoadOrEnv_WithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// applyEnvFallbacks fills fields the file left empty
func (c *Config) applyEnvFallbacks() {
	setString(&c.Tenant, "TENANT")
	if len(c.Banks) == 0 {
		if v := os.Getenv("BANKS"); v != "" {
			c.Banks = splitList(v)
		}
	}
	setString(&c.Panel.BaseURL, "HOST_URL")
	setString(&c.Panel.Token, "TOKEN")
	setString(&c.Queue.Backend, "QUEUE_BACKEND")
	setString(&c.Queue.CredentialsDir, "CREDENTIALS_DIR")
	setString(&c.Queue.Sheets.RegistryDocumentID, "REGISTRY_DOCUMENT_ID")
	setString(&c.Queue.Remote.BaseURL, "GATEWAY_URL")
	setString(&c.Storage.DatabasePath, "DB_PATH")
	setInt(&c.API.Port, "API_PORT")
	setInt(&c.Gateway.Port, "APP_PORT")
	setString(&c.Observability.Logging.Level, "LOG_LEVEL")
	setString(&c.Observability.Logging.Format, "LOG_FORMAT")
}

func (c *Config) applyDefaults() {
	if c.Panel.Timeout == 0 {
		c.Panel.Timeout = 20 * time.Second
	}
	if c.Queue.Backend == "" {
		c.Queue.Backend = BackendSheets
	}
	if c.Queue.CredentialsDir == "" {
		c.Queue.CredentialsDir = "wl"
	}
	if c.Queue.HeaderRow == 0 {
		c.Queue.HeaderRow = 1
	}
	if c.Queue.DataOffset == nil {
		offset := 10
		c.Queue.DataOffset = &offset
	}
	if c.Queue.RegistryTTL == 0 {
		c.Queue.RegistryTTL = 10 * time.Minute
	}
	if c.Queue.Workbook.SheetIndex == 0 {
		c.Queue.Workbook.SheetIndex = 1
	}
	if c.Queue.Remote.Timeout == 0 {
		c.Queue.Remote.Timeout = 20 * time.Second
	}
	if c.Reconcile.MinCoin == 0 {
		c.Reconcile.MinCoin = 20
	}
	if c.Reconcile.ApprovedStatus == 0 {
		c.Reconcile.ApprovedStatus = 2
	}
	if c.Reconcile.CallTimeout == 0 {
		c.Reconcile.CallTimeout = 20 * time.Second
	}
	if c.Reconcile.FailureBackoff == 0 {
		c.Reconcile.FailureBackoff = time.Second
	}
	if c.Reconcile.MaxBackoff == 0 {
		c.Reconcile.MaxBackoff = 30 * time.Second
	}
	if c.API.Port == 0 {
		c.API.Port = 8080
	}
	if c.Gateway.Port == 0 {
		c.Gateway.Port = 3000
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// Validate checks the settings needed to run the reconcile loop
func (c *Config) Validate() error {
	var errs []error
	if c.Tenant == "" {
		errs = append(errs, errors.New("tenant is required"))
	}
	if c.Panel.BaseURL == "" {
		errs = append(errs, errors.New("panel.base_url is required"))
	}
	if c.Panel.Token == "" {
		errs = append(errs, errors.New("panel.token is required"))
	}
	if err := c.ValidateQueue(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ValidateQueue checks the settings of the selected queue backend
func (c *Config) ValidateQueue() error {
	switch c.Queue.Backend {
	case BackendSheets:
		if c.Queue.Sheets.RegistryDocumentID == "" && len(c.Queue.Sheets.RegistryDocuments) == 0 {
			return errors.New("queue.sheets.registry_document_id is required")
		}
	case BackendWorkbook:
		if len(c.Queue.Workbook.Files) == 0 {
			return errors.New("queue.workbook.files is required")
		}
	case BackendRemote:
		if c.Queue.Remote.BaseURL == "" {
			return errors.New("queue.remote.base_url is required")
		}
	default:
		return fmt.Errorf("unknown queue backend %q", c.Queue.Backend)
	}
	return nil
}

// RegistryDocuments returns every tenant's registry document, including
// the configured tenant's
func (c *Config) RegistryDocuments() map[string]string {
	out := make(map[string]string, len(c.Queue.Sheets.RegistryDocuments)+1)
	for tenant, id := range c.Queue.Sheets.RegistryDocuments {
		out[tenant] = id
	}
	if c.Tenant != "" && c.Queue.Sheets.RegistryDocumentID != "" {
		out[c.Tenant] = c.Queue.Sheets.RegistryDocumentID
	}
	return out
}

// setString sets *dst from the environment when it is empty
func setString(dst *string, key string) {
	if *dst == "" {
		*dst = os.Getenv(key)
	}
}

// setInt sets *dst from the environment when it is zero
func setInt(dst *int, key string) {
	if *dst != 0 {
		return
	}
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			*dst = n
		}
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
