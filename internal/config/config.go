package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the top-level bookkeep.yaml configuration.
type Config struct {
	Storage    StorageConfig    `yaml:"storage"`
	Pagination PaginationConfig `yaml:"pagination"`
}

// StorageConfig locates the database.
type StorageConfig struct {
	Path string `yaml:"path"`
}

// PaginationConfig fixes the page size of each listing.
type PaginationConfig struct {
	Accounts int `yaml:"accounts"`
	Entries  int `yaml:"entries"`
	AuditLog int `yaml:"audit_log"`
}

// Load reads a bookkeep.yaml file from disk. A .env file in the working
// directory is loaded first, and BOOKKEEP_DB overrides the configured
// database path.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if dbPath := os.Getenv("BOOKKEEP_DB"); dbPath != "" {
		cfg.Storage.Path = dbPath
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new book.
func Default() *Config {
	cfg := &Config{
		Storage: StorageConfig{Path: "bookkeep.db"},
	}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Storage.Path == "" {
		c.Storage.Path = "bookkeep.db"
	}
	if c.Pagination.Accounts <= 0 {
		c.Pagination.Accounts = 10
	}
	if c.Pagination.Entries <= 0 {
		c.Pagination.Entries = 10
	}
	if c.Pagination.AuditLog <= 0 {
		c.Pagination.AuditLog = 20
	}
}
