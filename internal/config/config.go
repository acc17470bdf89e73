package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// AppName is used for the config file name and the env prefix
	AppName = "cvaudit"
	// EnvPrefix prefixes every environment override, e.g. CVAUDIT_STORE_BACKEND
	EnvPrefix = "CVAUDIT"

	BackendCSV      = "csv"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// Config holds application configuration
type Config struct {
	Store      StoreConfig      `mapstructure:"store" json:"store"`
	Categories CategoriesConfig `mapstructure:"categories" json:"categories"`
	Summary    SummaryConfig    `mapstructure:"summary" json:"summary"`
	Ingestion  IngestionConfig  `mapstructure:"ingestion" json:"ingestion"`
	Batch      BatchConfig      `mapstructure:"batch" json:"batch"`
	Server     ServerConfig     `mapstructure:"server" json:"server"`
}

// StoreConfig selects and configures the record store
type StoreConfig struct {
	Backend string `mapstructure:"backend" json:"backend"`
	Path    string `mapstructure:"path" json:"path"`
	DSN     string `mapstructure:"dsn" json:"-"`
	Table   string `mapstructure:"table" json:"table"`
}

// CategoriesConfig points at the keyword table
type CategoriesConfig struct {
	Preset            string `mapstructure:"preset" json:"preset"`
	File              string `mapstructure:"file" json:"file"`
	ApprovalThreshold int    `mapstructure:"approval-threshold" json:"approval_threshold"`
}

// SummaryConfig controls how verdicts are rendered for storage
type SummaryConfig struct {
	Delimiter string `mapstructure:"delimiter" json:"delimiter"`
}

// IngestionConfig controls where submissions live and how much text extraction must yield
type IngestionConfig struct {
	SubmissionsDir string `mapstructure:"submissions-dir" json:"submissions_dir"`
	MinTextLength  int    `mapstructure:"min-text-length" json:"min_text_length"`
}

// BatchConfig controls directory processing
type BatchConfig struct {
	Workers int `mapstructure:"workers" json:"workers"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr string `mapstructure:"addr" json:"addr"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Backend: BackendCSV,
			Path:    "cv_database.csv",
			Table:   "audit_records",
		},
		Categories: CategoriesConfig{
			Preset: "detailed",
		},
		Summary: SummaryConfig{
			Delimiter: " | ",
		},
		Ingestion: IngestionConfig{
			SubmissionsDir: "cv_files",
			MinTextLength:  50,
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		Server: ServerConfig{
			Addr: ":8080",
		},
	}
}

// SetDefaults registers every key with viper so env overrides apply to all of them
func SetDefaults(v *viper.Viper) {
	d := DefaultConfig()
	v.SetDefault("store.backend", d.Store.Backend)
	v.SetDefault("store.path", d.Store.Path)
	v.SetDefault("store.dsn", d.Store.DSN)
	v.SetDefault("store.table", d.Store.Table)
	v.SetDefault("categories.preset", d.Categories.Preset)
	v.SetDefault("categories.file", d.Categories.File)
	v.SetDefault("categories.approval-threshold", d.Categories.ApprovalThreshold)
	v.SetDefault("summary.delimiter", d.Summary.Delimiter)
	v.SetDefault("ingestion.submissions-dir", d.Ingestion.SubmissionsDir)
	v.SetDefault("ingestion.min-text-length", d.Ingestion.MinTextLength)
	v.SetDefault("batch.workers", d.Batch.Workers)
	v.SetDefault("server.addr", d.Server.Addr)
}

// GetConfigDir returns the per-user configuration directory.
// On Windows: %APPDATA%/cvaudit
// On Unix: ~/.config/cvaudit
func GetConfigDir() (string, error) {
	if appData := os.Getenv("APPDATA"); appData != "" {
		return filepath.Join(appData, AppName), nil
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", AppName), nil
}

// NewViper prepares a viper instance with env overrides and, when present, a config file.
// An explicitly named file must exist; the default cvaudit.yaml is optional.
func NewViper(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		return v, nil
	}

	v.SetConfigName(AppName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if dir, err := GetConfigDir(); err == nil {
		v.AddConfigPath(dir)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	return v, nil
}

// Load decodes and validates the configuration held by v
func Load(v *viper.Viper) (*Config, error) {
	cfg := DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadEnvFiles loads KEY=VALUE files into the process environment without overriding set variables.
// Missing files are ignored.
func LoadEnvFiles(files ...string) error {
	for _, file := range files {
		if _, err := os.Stat(file); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return fmt.Errorf("failed to stat env file %s: %w", file, err)
		}
		if err := godotenv.Load(file); err != nil {
			return fmt.Errorf("failed to load env file %s: %w", file, err)
		}
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendCSV:
		if strings.TrimSpace(c.Store.Path) == "" {
			return fmt.Errorf("store.path is required for the csv backend")
		}
	case BackendPostgres:
		if strings.TrimSpace(c.Store.DSN) == "" {
			return fmt.Errorf("store.dsn is required for the postgres backend")
		}
		if strings.TrimSpace(c.Store.Table) == "" {
			return fmt.Errorf("store.table is required for the postgres backend")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unsupported store backend: %q", c.Store.Backend)
	}

	if c.Summary.Delimiter == "" {
		return fmt.Errorf("summary.delimiter must not be empty")
	}

	if c.Batch.Workers < 1 {
		return fmt.Errorf("batch.workers must be at least 1, got %d", c.Batch.Workers)
	}

	if c.Ingestion.MinTextLength < 0 {
		return fmt.Errorf("ingestion.min-text-length must not be negative")
	}

	if c.Categories.ApprovalThreshold < 0 {
		return fmt.Errorf("categories.approval-threshold must not be negative")
	}

	if c.Categories.File != "" {
		if _, err := os.Stat(c.Categories.File); err != nil {
			return fmt.Errorf("categories file not found: %w", err)
		}
	}

	return nil
}
