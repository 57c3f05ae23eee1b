// Package config provides configuration loading and management for catalog-sync.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/stacklok/catalog-sync/internal/telemetry"
)

// EnvPrefix is the prefix of environment variables read by catalog-sync
const EnvPrefix = "CATALOG_SYNC"

const (
	// SourceTypeFile reads the ERP export from a local file
	SourceTypeFile = "file"

	// SourceTypeS3 reads the ERP export from an S3 object
	SourceTypeS3 = "s3"
)

const (
	// StorageTypeFile keeps sync state in JSON files under a data directory
	StorageTypeFile = "file"

	// StorageTypeDatabase keeps sync state in PostgreSQL
	StorageTypeDatabase = "database"
)

const (
	// DefaultRateLimit is the number of e-shop requests allowed per second
	DefaultRateLimit = 5

	// DefaultMaxAttempts is the number of attempts per e-shop request
	DefaultMaxAttempts = 3

	// DefaultTimeout is the timeout of a single e-shop request
	DefaultTimeout = 30 * time.Second

	// DefaultSyncInterval is the time between scheduled sync runs
	DefaultSyncInterval = 15 * time.Minute

	// DefaultDataDir is where file storage keeps its state
	DefaultDataDir = "./data"
)

// Option defines the interface for configuration options
type Option func(*loaderConfig) error

type loaderConfig struct {
	path string
}

// WithConfigPath loads configuration from a YAML file
func WithConfigPath(path string) Option {
	return func(cfg *loaderConfig) error {
		if path == "" {
			return fmt.Errorf("path is required")
		}

		// Resolve symlinks to prevent symlink attacks, this also cleans the path
		realPath, err := filepath.EvalSymlinks(path)
		if err != nil {
			return fmt.Errorf("failed to evaluate symlinks: %w", err)
		}

		if !filepath.IsAbs(realPath) && !filepath.IsLocal(realPath) {
			return fmt.Errorf("path is not local or contains invalid traversal: %s", path)
		}

		cfg.path = realPath
		return nil
	}
}

// Config represents the root configuration structure
type Config struct {
	Eshop      EshopConfig       `yaml:"eshop"`
	Source     SourceConfig      `yaml:"source"`
	Transform  *TransformConfig  `yaml:"transform,omitempty"`
	SyncPolicy *SyncPolicyConfig `yaml:"syncPolicy,omitempty"`
	Storage    *StorageConfig    `yaml:"storage,omitempty"`
	Database   *DatabaseConfig   `yaml:"database,omitempty"`
	Telemetry  *telemetry.Config `yaml:"telemetry,omitempty"`
}

// EshopConfig defines how to reach the e-shop API
type EshopConfig struct {
	// BaseURL is the API root, e.g. https://shop.example.com/api
	BaseURL string `yaml:"baseURL"`

	// APIKeyFile is the path to a file containing the API key.
	// When empty the key is read from CATALOG_SYNC_ESHOP_API_KEY.
	APIKeyFile string `yaml:"apiKeyFile,omitempty"`

	// RateLimit is the maximum number of requests per second
	RateLimit int `yaml:"rateLimit,omitempty"`

	// MaxAttempts is the number of attempts made for a throttled request
	MaxAttempts int `yaml:"maxAttempts,omitempty"`

	// Timeout bounds a single request (e.g., "30s")
	Timeout string `yaml:"timeout,omitempty"`
}

// SourceConfig defines where the ERP export is read from. Exactly one of File or S3 must be set.
type SourceConfig struct {
	File *FileConfig `yaml:"file,omitempty"`
	S3   *S3Config   `yaml:"s3,omitempty"`

	// Watch triggers a sync when a file source changes on disk
	Watch bool `yaml:"watch,omitempty"`
}

// FileConfig defines a local file source
type FileConfig struct {
	Path string `yaml:"path"`
}

// S3Config defines an S3 object source
type S3Config struct {
	Bucket string `yaml:"bucket"`
	Key    string `yaml:"key"`
	Region string `yaml:"region,omitempty"`

	// Endpoint overrides the S3 endpoint, e.g. for MinIO
	Endpoint     string `yaml:"endpoint,omitempty"`
	UsePathStyle bool   `yaml:"usePathStyle,omitempty"`
}

// TransformConfig defines how raw records are normalized
type TransformConfig struct {
	// VATRate is a decimal string such as "0.21"
	VATRate      string `yaml:"vatRate,omitempty"`
	DefaultColor string `yaml:"defaultColor,omitempty"`
}

// SyncPolicyConfig defines synchronization settings
type SyncPolicyConfig struct {
	Interval string `yaml:"interval"`
}

// StorageConfig selects the state backend
type StorageConfig struct {
	Type string             `yaml:"type"`
	File *FileStorageConfig `yaml:"file,omitempty"`
}

// FileStorageConfig defines file based storage settings
type FileStorageConfig struct {
	DataDir string `yaml:"dataDir"`
}

// DatabaseConfig defines database connection settings
type DatabaseConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	User string `yaml:"user"`

	// PasswordFile is the path to a file containing the database password.
	// When empty the password is read from CATALOG_SYNC_DATABASE_PASSWORD.
	PasswordFile string `yaml:"passwordFile,omitempty"`

	Database string `yaml:"database"`

	// SSLMode is one of disable, require, verify-ca, verify-full
	SSLMode string `yaml:"sslMode,omitempty"`

	MaxOpenConns int32 `yaml:"maxOpenConns,omitempty"`

	// ConnMaxLifetime is the maximum lifetime of a connection (e.g., "1h", "30m")
	ConnMaxLifetime string `yaml:"connMaxLifetime,omitempty"`
}

// LoadConfig loads and parses configuration from a YAML file. Values can be
// overridden through CATALOG_SYNC_* environment variables.
func LoadConfig(opts ...Option) (*Config, error) {
	loaderCfg := &loaderConfig{}
	for _, opt := range opts {
		if err := opt(loaderCfg); err != nil {
			return nil, err
		}
	}

	if loaderCfg.path == "" {
		return nil, fmt.Errorf("path is required")
	}

	data, err := os.ReadFile(loaderCfg.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML config: %w", err)
	}

	config.applyEnvOverrides(newEnv())

	if err := config.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// newEnv returns a viper instance reading CATALOG_SYNC_* variables, with
// dots in keys mapped to underscores
func newEnv() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

func (c *Config) applyEnvOverrides(v *viper.Viper) {
	if s := v.GetString("eshop.baseurl"); s != "" {
		c.Eshop.BaseURL = s
	}
	if n := v.GetInt("eshop.ratelimit"); n > 0 {
		c.Eshop.RateLimit = n
	}
	if s := v.GetString("sync.interval"); s != "" {
		if c.SyncPolicy == nil {
			c.SyncPolicy = &SyncPolicyConfig{}
		}
		c.SyncPolicy.Interval = s
	}
	if s := v.GetString("storage.type"); s != "" {
		if c.Storage == nil {
			c.Storage = &StorageConfig{}
		}
		c.Storage.Type = s
	}
	if c.Database != nil {
		if s := v.GetString("database.host"); s != "" {
			c.Database.Host = s
		}
		if n := v.GetInt("database.port"); n > 0 {
			c.Database.Port = n
		}
	}
}

func (c *Config) validate() error {
	if c == nil {
		return fmt.Errorf("config cannot be nil")
	}

	var errs []error

	if err := c.Eshop.validate(); err != nil {
		errs = append(errs, err)
	}
	if err := c.Source.validate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.GetVATRate(); err != nil {
		errs = append(errs, err)
	}
	if _, err := c.GetSyncInterval(); err != nil {
		errs = append(errs, err)
	}

	switch c.GetStorageType() {
	case StorageTypeFile:
	case StorageTypeDatabase:
		if c.Database == nil {
			errs = append(errs, fmt.Errorf("database configuration is required when storage.type is %s", StorageTypeDatabase))
		} else if err := c.Database.validate(); err != nil {
			errs = append(errs, err)
		}
	default:
		errs = append(errs, fmt.Errorf("storage.type must be %s or %s, got %s",
			StorageTypeFile, StorageTypeDatabase, c.GetStorageType()))
	}

	if err := c.Telemetry.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("telemetry: %w", err))
	}

	return errors.Join(errs...)
}

func (e *EshopConfig) validate() error {
	if e.BaseURL == "" {
		return fmt.Errorf("eshop.baseURL is required")
	}
	u, err := url.Parse(e.BaseURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("eshop.baseURL must be an absolute http(s) URL, got %q", e.BaseURL)
	}
	if e.RateLimit < 0 {
		return fmt.Errorf("eshop.rateLimit must not be negative")
	}
	if e.MaxAttempts < 0 {
		return fmt.Errorf("eshop.maxAttempts must not be negative")
	}
	if _, err := e.GetTimeout(); err != nil {
		return err
	}
	return nil
}

func (s *SourceConfig) validate() error {
	switch {
	case s.File == nil && s.S3 == nil:
		return fmt.Errorf("one of source.file or source.s3 must be specified")
	case s.File != nil && s.S3 != nil:
		return fmt.Errorf("only one of source.file or source.s3 may be specified")
	case s.File != nil:
		if s.File.Path == "" {
			return fmt.Errorf("source.file.path is required")
		}
	case s.S3 != nil:
		if s.S3.Bucket == "" {
			return fmt.Errorf("source.s3.bucket is required")
		}
		if s.S3.Key == "" {
			return fmt.Errorf("source.s3.key is required")
		}
		if s.Watch {
			return fmt.Errorf("source.watch is only supported for file sources")
		}
	}
	return nil
}

func (d *DatabaseConfig) validate() error {
	switch {
	case d.Host == "":
		return fmt.Errorf("database.host is required")
	case d.Port == 0:
		return fmt.Errorf("database.port is required")
	case d.User == "":
		return fmt.Errorf("database.user is required")
	case d.Database == "":
		return fmt.Errorf("database.database is required")
	}
	if _, err := d.GetConnMaxLifetime(); err != nil {
		return err
	}
	return nil
}

// GetType returns the configured source type
func (s *SourceConfig) GetType() string {
	if s.S3 != nil {
		return SourceTypeS3
	}
	if s.File != nil {
		return SourceTypeFile
	}
	return ""
}

// GetRateLimit returns the requests per second, using default if not specified
func (e *EshopConfig) GetRateLimit() int {
	if e.RateLimit == 0 {
		return DefaultRateLimit
	}
	return e.RateLimit
}

// GetMaxAttempts returns the attempts per request, using default if not specified
func (e *EshopConfig) GetMaxAttempts() int {
	if e.MaxAttempts == 0 {
		return DefaultMaxAttempts
	}
	return e.MaxAttempts
}

// GetTimeout returns the per-request timeout, using default if not specified
func (e *EshopConfig) GetTimeout() (time.Duration, error) {
	if e.Timeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(e.Timeout)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("eshop.timeout must be a positive duration (e.g., '30s'), got %q", e.Timeout)
	}
	return d, nil
}

// GetAPIKey returns the e-shop API key using the following priority:
// 1. Read from APIKeyFile if specified
// 2. Read from CATALOG_SYNC_ESHOP_API_KEY environment variable
func (e *EshopConfig) GetAPIKey() (string, error) {
	return readSecret(e.APIKeyFile, "ESHOP_API_KEY", "e-shop API key", "apiKeyFile")
}

// GetVATRate returns the configured tax rate, 0.21 when unset
func (c *Config) GetVATRate() (decimal.Decimal, error) {
	if c.Transform == nil || c.Transform.VATRate == "" {
		return decimal.RequireFromString("0.21"), nil
	}
	rate, err := decimal.NewFromString(c.Transform.VATRate)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("transform.vatRate must be a decimal number: %w", err)
	}
	if rate.IsNegative() {
		return decimal.Decimal{}, fmt.Errorf("transform.vatRate must not be negative, got %s", rate)
	}
	return rate, nil
}

// GetDefaultColor returns the color sentinel, empty when unset
func (c *Config) GetDefaultColor() string {
	if c.Transform == nil {
		return ""
	}
	return c.Transform.DefaultColor
}

// GetSyncInterval returns the scheduled sync interval, using default if not specified
func (c *Config) GetSyncInterval() (time.Duration, error) {
	if c.SyncPolicy == nil || c.SyncPolicy.Interval == "" {
		return DefaultSyncInterval, nil
	}
	d, err := time.ParseDuration(c.SyncPolicy.Interval)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("syncPolicy.interval must be a positive duration (e.g., '30m', '1h'), got %q",
			c.SyncPolicy.Interval)
	}
	return d, nil
}

// GetStorageType returns the storage backend, file when unset
func (c *Config) GetStorageType() string {
	if c.Storage == nil || c.Storage.Type == "" {
		return StorageTypeFile
	}
	return c.Storage.Type
}

// GetDataDir returns the file storage directory, using default if not specified
func (c *Config) GetDataDir() string {
	if c.Storage == nil || c.Storage.File == nil || c.Storage.File.DataDir == "" {
		return DefaultDataDir
	}
	return c.Storage.File.DataDir
}

// GetPassword returns the database password using the following priority:
// 1. Read from PasswordFile if specified
// 2. Read from CATALOG_SYNC_DATABASE_PASSWORD environment variable
func (d *DatabaseConfig) GetPassword() (string, error) {
	return readSecret(d.PasswordFile, "DATABASE_PASSWORD", "database password", "passwordFile")
}

// GetConnMaxLifetime returns the connection lifetime, zero when unset
func (d *DatabaseConfig) GetConnMaxLifetime() (time.Duration, error) {
	if d.ConnMaxLifetime == "" {
		return 0, nil
	}
	lifetime, err := time.ParseDuration(d.ConnMaxLifetime)
	if err != nil {
		return 0, fmt.Errorf("database.connMaxLifetime must be a valid duration: %w", err)
	}
	return lifetime, nil
}

// GetConnectionString builds a PostgreSQL URL. The password is URL-escaped to
// handle special characters safely.
func (d *DatabaseConfig) GetConnectionString() (string, error) {
	password, err := d.GetPassword()
	if err != nil {
		return "", err
	}

	sslMode := d.SSLMode
	if sslMode == "" {
		sslMode = "require"
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Database,
		RawQuery: url.Values{"sslmode": []string{sslMode}}.Encode(),
	}

	return u.String(), nil
}

// readSecret reads a secret from file, falling back to CATALOG_SYNC_<envKey>.
// File content has leading and trailing whitespace trimmed.
func readSecret(path, envKey, what, fileKey string) (string, error) {
	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return "", fmt.Errorf("failed to read %s from file %s: %w", what, path, err)
		}
		return strings.TrimSpace(string(data)), nil
	}

	envName := EnvPrefix + "_" + envKey
	if value := os.Getenv(envName); value != "" {
		return value, nil
	}

	return "", fmt.Errorf("no %s configured: set %s or %s environment variable", what, fileKey, envName)
}
