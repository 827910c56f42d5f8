// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"taxform-scan/internal/efile"
	"taxform-scan/internal/ingest"
	"taxform-scan/internal/observability"
	"taxform-scan/internal/storage"

	"gopkg.in/yaml.v3"
)

// Database types
const (
	DatabaseSQLite   = "sqlite"
	DatabasePostgres = "postgres"
	DatabaseNone     = "none"
)

// Config represents the application configuration
type Config struct {
	// Default settings
	Defaults struct {
		Format    string `yaml:"format"`
		Workers   int    `yaml:"workers"`
		LogLevel  string `yaml:"log_level"`
		LogFormat string `yaml:"log_format"`
		OutputDir string `yaml:"output_dir"`
		NoColor   bool   `yaml:"no_color"`
		Verbose   bool   `yaml:"verbose"`
	} `yaml:"defaults"`

	// Entity extraction switches
	Extraction struct {
		Statistical     bool `yaml:"statistical"`
		Labels          bool `yaml:"labels"`
		HeaderDetection bool `yaml:"header_detection"`
	} `yaml:"extraction"`

	OCR struct {
		Tesseract     string `yaml:"tesseract"`
		Pdftoppm      string `yaml:"pdftoppm"`
		Language      string `yaml:"language"`
		TessdataDir   string `yaml:"tessdata_dir"`
		PSM           int    `yaml:"psm"`
		OEM           int    `yaml:"oem"`
		DPI           int    `yaml:"dpi"`
		MaxPages      int    `yaml:"max_pages"`
		TSVConfidence bool   `yaml:"tsv_confidence"`
	} `yaml:"ocr"`

	Database struct {
		Type       string `yaml:"type"`
		Connection string `yaml:"connection"`
		MaxConns   int32  `yaml:"max_conns"`
	} `yaml:"database"`

	EFiling struct {
		Enabled     bool   `yaml:"enabled"`
		AutoEFile   bool   `yaml:"auto_efile"`
		Provider    string `yaml:"provider"`
		Environment string `yaml:"environment"`
		Endpoint    string `yaml:"endpoint"`
		Username    string `yaml:"username"`
		Password    string `yaml:"password"`
		Timeout     string `yaml:"timeout"`
	} `yaml:"efiling"`

	Web struct {
		Port int `yaml:"port"`
	} `yaml:"web"`

	// Optional YAML file with form catalog overrides
	RulesFile string `yaml:"rules_file"`
}

// Default returns the built-in configuration
func Default() *Config {
	config := &Config{}

	config.Defaults.Format = "text"
	config.Defaults.Workers = 4
	config.Defaults.LogLevel = "info"
	config.Defaults.LogFormat = "text"
	config.Defaults.OutputDir = "output"

	config.Extraction.Statistical = true
	config.Extraction.Labels = true

	config.OCR.Tesseract = "tesseract"
	config.OCR.Language = "eng"
	config.OCR.PSM = 6
	config.OCR.OEM = 3
	config.OCR.DPI = 300

	config.Database.Type = DatabaseSQLite
	config.Database.Connection = "taxforms.db"
	config.Database.MaxConns = 4

	config.EFiling.Provider = "irs_mef"
	config.EFiling.Environment = "test"
	config.EFiling.Timeout = "30s"

	config.Web.Port = 8080
	return config
}

// LoadConfig loads configuration from the specified file path. An empty path
// yields the defaults. Environment overrides are applied last.
func LoadConfig(configPath string) (*Config, error) {
	config := Default()

	if configPath != "" {
		data, err := os.ReadFile(filepath.Clean(configPath))
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}

		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}

		// Boolean fields that default to true survive a file that omits them
		if !containsField(data, "extraction", "statistical") {
			config.Extraction.Statistical = true
		}
		if !containsField(data, "extraction", "labels") {
			config.Extraction.Labels = true
		}
	}

	ApplyEnv(config, os.LookupEnv)

	if err := ValidateConfig(config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return config, nil
}

// ApplyEnv overrides settings from environment variables
func ApplyEnv(config *Config, lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			if b, err := strconv.ParseBool(v); err == nil {
				*dst = b
			}
		}
	}

	str("DB_TYPE", &config.Database.Type)
	str("DATABASE_URL", &config.Database.Connection)
	str("TESSERACT_PATH", &config.OCR.Tesseract)
	flag("ENABLE_EFILING", &config.EFiling.Enabled)
	flag("AUTO_EFILE", &config.EFiling.AutoEFile)
	str("EFILING_PROVIDER", &config.EFiling.Provider)
	str("EFILING_ENV", &config.EFiling.Environment)
	str("EFILING_ENDPOINT", &config.EFiling.Endpoint)
	str("EFILING_USERNAME", &config.EFiling.Username)
	str("EFILING_PASSWORD", &config.EFiling.Password)
	str("OUTPUT_DIR", &config.Defaults.OutputDir)
	str("LOG_LEVEL", &config.Defaults.LogLevel)

	config.Database.Type = strings.ToLower(config.Database.Type)
}

// ValidateConfig checks value ranges and enumerations
func ValidateConfig(config *Config) error {
	if config == nil {
		return fmt.Errorf("configuration cannot be nil")
	}

	switch config.Database.Type {
	case DatabaseSQLite, DatabasePostgres, DatabaseNone:
	default:
		return fmt.Errorf("unsupported database type %q", config.Database.Type)
	}
	if config.Database.Type == DatabasePostgres && config.Database.Connection == "" {
		return fmt.Errorf("database.connection is required for postgres")
	}

	if _, err := observability.ParseLevel(config.Defaults.LogLevel); err != nil {
		return err
	}
	if config.Defaults.Workers < 0 {
		return fmt.Errorf("defaults.workers must not be negative")
	}
	if config.Web.Port < 0 || config.Web.Port > 65535 {
		return fmt.Errorf("web.port %d out of range", config.Web.Port)
	}
	if config.OCR.MaxPages < 0 {
		return fmt.Errorf("ocr.max_pages must not be negative")
	}

	switch config.EFiling.Environment {
	case "test", "production":
	default:
		return fmt.Errorf("efiling.environment must be test or production, got %q", config.EFiling.Environment)
	}
	if _, err := config.efileTimeout(); err != nil {
		return err
	}
	return nil
}

// FindConfigFile looks for a configuration file in standard locations
func FindConfigFile() string {
	for _, name := range []string{"taxform.yaml", "taxform.yml", ".taxform-scan.yaml", ".taxform-scan.yml"} {
		if fileExists(name) {
			return name
		}
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		xdgConfig = filepath.Join(home, ".config")
	}
	for _, name := range []string{"config.yaml", "config.yml"} {
		candidate := filepath.Join(xdgConfig, "taxform-scan", name)
		if fileExists(candidate) {
			return candidate
		}
	}
	return ""
}

// LoadConfigOrDefault loads configFile (or searches standard locations when it
// is empty) and falls back to defaults when loading fails.
func LoadConfigOrDefault(configFile string) *Config {
	configPath := configFile
	if configPath == "" {
		configPath = FindConfigFile()
	}

	cfg, err := LoadConfig(configPath)
	if err != nil {
		cfg = Default()
	}
	return cfg
}

// Ingest returns the OCR settings for the ingest extractor
func (c *Config) Ingest() ingest.Config {
	return ingest.Config{
		Tesseract:     c.OCR.Tesseract,
		Pdftoppm:      c.OCR.Pdftoppm,
		Language:      c.OCR.Language,
		TessdataDir:   c.OCR.TessdataDir,
		PSM:           c.OCR.PSM,
		OEM:           c.OCR.OEM,
		DPI:           c.OCR.DPI,
		MaxPages:      c.OCR.MaxPages,
		TSVConfidence: c.OCR.TSVConfidence,
	}
}

// Storage returns the database settings. ok is false when persistence is disabled.
func (c *Config) Storage() (cfg storage.Config, ok bool) {
	if c.Database.Type == DatabaseNone {
		return storage.Config{}, false
	}
	return storage.Config{
		Type:     c.Database.Type,
		DSN:      c.Database.Connection,
		MaxConns: c.Database.MaxConns,
	}, true
}

// EFile returns the e-filing client settings
func (c *Config) EFile() efile.Config {
	timeout, _ := c.efileTimeout()
	return efile.Config{
		Provider:    c.EFiling.Provider,
		Environment: c.EFiling.Environment,
		Endpoint:    c.EFiling.Endpoint,
		Username:    c.EFiling.Username,
		Password:    c.EFiling.Password,
		Timeout:     timeout,
	}
}

func (c *Config) efileTimeout() (time.Duration, error) {
	if c.EFiling.Timeout == "" {
		return 30 * time.Second, nil
	}
	d, err := time.ParseDuration(c.EFiling.Timeout)
	if err != nil {
		return 0, fmt.Errorf("invalid efiling.timeout: %w", err)
	}
	return d, nil
}

// fileExists checks if a file exists and is not a directory
func fileExists(filename string) bool {
	info, err := os.Stat(filename)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

// containsField checks if a nested field exists in the YAML data
func containsField(data []byte, path ...string) bool {
	var yamlData map[string]interface{}
	if err := yaml.Unmarshal(data, &yamlData); err != nil {
		return false
	}

	current := yamlData
	for i, key := range path {
		if i == len(path)-1 {
			_, exists := current[key]
			return exists
		}
		next, ok := current[key].(map[string]interface{})
		if !ok {
			return false
		}
		current = next
	}
	return false
}
