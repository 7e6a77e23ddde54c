// Package config loads the service configuration: a YAML file with
// environment overrides. The loaded Config is passed explicitly into
// constructors; nothing in the core reads the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Workflow names understood by the ingestion service.
var WorkflowNames = []string{"self-isolation", "contact-tracing", "cev", "spl"}

// Config holds all configuration for the ingestion service.
type Config struct {
	Server     ServerConfig              `yaml:"server"`
	HereToHelp HereToHelpConfig          `yaml:"here_to_help"`
	Database   DatabaseConfig            `yaml:"database"`
	Redis      RedisConfig               `yaml:"redis"`
	Sheets     SheetsConfig              `yaml:"sheets"`
	Workflows  map[string]WorkflowConfig `yaml:"workflows"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// GetHost returns the server host, listening on all interfaces when
// running in a container environment.
func (c ServerConfig) GetHost() string {
	if os.Getenv("ECS_CONTAINER_METADATA_URI") != "" || os.Getenv("AWS_EXECUTION_ENV") != "" {
		return "0.0.0.0"
	}
	if host := os.Getenv("SERVER_HOST"); host != "" {
		return host
	}
	return c.Host
}

// HereToHelpConfig holds the case-management backend connection settings.
type HereToHelpConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKey         string `yaml:"api_key"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Timeout returns the configured timeout as a duration.
func (c HereToHelpConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// DatabaseConfig holds the run-history database settings.
type DatabaseConfig struct {
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// RedisConfig holds the run-lock Redis settings.
type RedisConfig struct {
	Addr    string `yaml:"addr"`
	Enabled bool   `yaml:"enabled"`
}

// SheetsConfig holds the sheet store settings. Type is "s3" or "local".
type SheetsConfig struct {
	Type      string `yaml:"type"`
	S3Bucket  string `yaml:"s3_bucket"`
	S3Region  string `yaml:"s3_region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// WorkflowConfig holds the folder ids for one ingestion workflow. Folder
// ids are S3 prefixes or local directory paths depending on the sheet
// store type.
type WorkflowConfig struct {
	Enabled          bool   `yaml:"enabled"`
	InboundFolderID  string `yaml:"inbound_folder_id"`
	OutboundFolderID string `yaml:"outbound_folder_id"`
}

// Load reads the YAML config file and applies defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

// LoadFromEnv loads the YAML config (if present) and applies .env and
// environment overrides. A missing file is not an error when the
// environment carries the required settings.
func LoadFromEnv(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if v := os.Getenv("CV_19_RES_SUPPORT_V3_HELP_REQUESTS_URL"); v != "" {
		cfg.HereToHelp.BaseURL = v
	}
	if v := os.Getenv("HERE_TO_HELP_API_KEY"); v != "" {
		cfg.HereToHelp.APIKey = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
		cfg.Database.Enabled = true
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
		cfg.Redis.Enabled = true
	}
	if v := os.Getenv("SHEETS_S3_BUCKET"); v != "" {
		cfg.Sheets.Type = "s3"
		cfg.Sheets.S3Bucket = v
	}
	if v := os.Getenv("SHEETS_S3_REGION"); v != "" {
		cfg.Sheets.S3Region = v
	}

	if cfg.Workflows == nil {
		cfg.Workflows = map[string]WorkflowConfig{}
	}
	envFolders := map[string]string{
		"self-isolation":  "SI",
		"contact-tracing": "CT",
		"cev":             "CEV",
		"spl":             "SPL",
	}
	for name, prefix := range envFolders {
		wf := cfg.Workflows[name]
		if v := os.Getenv(prefix + "_INBOUND_FOLDER_ID"); v != "" {
			wf.InboundFolderID = v
			wf.Enabled = true
		}
		if v := os.Getenv(prefix + "_OUTBOUND_FOLDER_ID"); v != "" {
			wf.OutboundFolderID = v
		}
		cfg.Workflows[name] = wf
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}
	if c.HereToHelp.TimeoutSeconds == 0 {
		c.HereToHelp.TimeoutSeconds = 30
	}
	if c.Sheets.Type == "" {
		c.Sheets.Type = "local"
	}
	if c.Sheets.S3Region == "" {
		c.Sheets.S3Region = "eu-west-2"
	}
	if c.Workflows == nil {
		c.Workflows = map[string]WorkflowConfig{}
	}
}

// Validate checks the settings that must be present before any run can
// start. These are the only errors allowed to abort the process.
func (c *Config) Validate() error {
	if c.HereToHelp.BaseURL == "" {
		return fmt.Errorf("here_to_help.base_url is required (or CV_19_RES_SUPPORT_V3_HELP_REQUESTS_URL)")
	}
	if c.Sheets.Type != "local" && c.Sheets.Type != "s3" {
		return fmt.Errorf("sheets.type must be \"local\" or \"s3\", got %q", c.Sheets.Type)
	}
	if c.Sheets.Type == "s3" && c.Sheets.S3Bucket == "" {
		return fmt.Errorf("sheets.s3_bucket is required when sheets.type is s3")
	}
	for name, wf := range c.Workflows {
		if !wf.Enabled {
			continue
		}
		if wf.InboundFolderID == "" || wf.OutboundFolderID == "" {
			return fmt.Errorf("workflow %s is enabled but missing inbound/outbound folder ids", name)
		}
	}
	return nil
}
