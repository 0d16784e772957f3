package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Port                   string        `yaml:"port"`
	DBDriver               string        `yaml:"db_driver"`
	DBDSN                  string        `yaml:"db_dsn"`
	Secret                 string        `yaml:"secret"`
	UploadsDir             string        `yaml:"uploads_dir"`
	PublicBaseURL          string        `yaml:"public_base_url"`
	MaxUploadBytes         int64         `yaml:"max_upload_bytes"`
	SessionTTL             time.Duration `yaml:"session_ttl"`
	SessionCleanupInterval time.Duration `yaml:"session_cleanup_interval"`
	LogoutClearsSession    bool          `yaml:"logout_clears_session"`
}

// Default returns the settings the server runs with when no config file exists.
func Default() *Config {
	return &Config{
		Port:                   "3000",
		DBDriver:               "sqlite3",
		DBDSN:                  "filedrop.db",
		Secret:                 "change-me",
		UploadsDir:             "public/uploads",
		MaxUploadBytes:         50 << 20,
		SessionTTL:             24 * time.Hour,
		SessionCleanupInterval: 15 * time.Minute,
	}
}

// Load reads filename on top of Default. Keys absent from the file keep their default.
func Load(filename string) (*Config, error) {
	config := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, err
	}

	return config, nil
}

// ApplyEnv overrides fields from the environment.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("PORT"); v != "" {
		c.Port = v
	}
	if v := getenv("FILEDROP_DB_DRIVER"); v != "" {
		c.DBDriver = v
	}
	if v := getenv("FILEDROP_DB_DSN"); v != "" {
		c.DBDSN = v
	}
	if v := getenv("FILEDROP_SECRET"); v != "" {
		c.Secret = v
	}
	if v := getenv("FILEDROP_UPLOADS_DIR"); v != "" {
		c.UploadsDir = v
	}
	if v := getenv("FILEDROP_PUBLIC_BASE_URL"); v != "" {
		c.PublicBaseURL = v
	}
	if v := getenv("FILEDROP_MAX_UPLOAD_BYTES"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("FILEDROP_MAX_UPLOAD_BYTES: %w", err)
		}
		c.MaxUploadBytes = n
	}
	if v := getenv("FILEDROP_LOGOUT_CLEARS_SESSION"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("FILEDROP_LOGOUT_CLEARS_SESSION: %w", err)
		}
		c.LogoutClearsSession = b
	}
	return nil
}

func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite3", "postgres":
	default:
		return fmt.Errorf("unsupported db_driver %q", c.DBDriver)
	}
	if c.DBDSN == "" {
		return errors.New("db_dsn is required")
	}
	if c.Secret == "" {
		return errors.New("secret is required")
	}
	if c.UploadsDir == "" {
		return errors.New("uploads_dir is required")
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("max_upload_bytes must be positive")
	}
	if c.SessionTTL <= 0 {
		return errors.New("session_ttl must be positive")
	}
	if c.SessionCleanupInterval <= 0 {
		return errors.New("session_cleanup_interval must be positive")
	}
	return nil
}
