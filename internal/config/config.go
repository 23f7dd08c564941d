// Package config builds the server's runtime settings.
//
// Sources are applied in order, later ones winning:
//
//	defaults → YAML file named by CONFIG_FILE → environment variables
//
// A .env file in the working directory is loaded into the environment first
// (see LoadDotEnv). Missing credentials for the vision model or the image host
// are not errors: the matching endpoints report "not configured" instead.
package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"

	BackendCloudinary = "cloudinary"
	BackendS3         = "s3"
)

// Config holds runtime settings for the marketplace server.
type Config struct {
	Port     int    `yaml:"port"`
	LogLevel string `yaml:"log_level"`

	DBDriver    string `yaml:"db_driver"`
	DBPath      string `yaml:"db_path"`
	DatabaseDSN string `yaml:"database_dsn"`

	// Redis is optional; an empty address disables the user cache.
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	UserCacheTTL  time.Duration `yaml:"user_cache_ttl"`

	JWTSecret    string        `yaml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
	CookieSecure bool          `yaml:"cookie_secure"`

	GeminiAPIKey string `yaml:"gemini_api_key"`
	GeminiModel  string `yaml:"gemini_model"`

	CDNBackend             string `yaml:"cdn_backend"`
	CDNFolder              string `yaml:"cdn_folder"`
	CloudinaryCloudName    string `yaml:"cloudinary_cloud_name"`
	CloudinaryUploadPreset string `yaml:"cloudinary_upload_preset"`
	S3Bucket               string `yaml:"s3_bucket"`
	S3Region               string `yaml:"s3_region"`
	S3Endpoint             string `yaml:"s3_endpoint"`
	S3AccessKey            string `yaml:"s3_access_key"`
	S3SecretKey            string `yaml:"s3_secret_key"`
	S3PublicURL            string `yaml:"s3_public_url"`

	EmailDomain    string `yaml:"email_domain"`
	PasswordPolicy string `yaml:"password_policy"`
	BcryptCost     int    `yaml:"bcrypt_cost"`
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.Port = 8080
	c.LogLevel = "info"
	c.DBDriver = DriverSQLite
	c.DBPath = "data/marketplace.db"
	c.UserCacheTTL = 10 * time.Minute
	c.TokenTTL = 24 * time.Hour
	c.CDNBackend = BackendCloudinary
	c.CDNFolder = "madison-marketplace"
	c.S3Region = "us-east-1"
	c.EmailDomain = "wisc.edu"
	c.PasswordPolicy = "strong"
	c.BcryptCost = 10
}

// Load applies defaults, the optional YAML file and then the environment.
// lookup is usually os.LookupEnv.
func Load(lookup func(string) (string, bool)) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if path, ok := lookup("CONFIG_FILE"); ok && path != "" {
		if err := cfg.loadYAML(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.loadEnv(lookup); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: invalid port %d", c.Port)
	}
	switch c.DBDriver {
	case DriverSQLite:
		if c.DBPath == "" {
			return fmt.Errorf("config: DB_PATH is required for sqlite")
		}
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			return fmt.Errorf("config: DATABASE_DSN is required for postgres")
		}
	default:
		return fmt.Errorf("config: unknown DB_DRIVER %q", c.DBDriver)
	}
	switch c.CDNBackend {
	case BackendCloudinary, BackendS3:
	default:
		return fmt.Errorf("config: unknown CDN_BACKEND %q", c.CDNBackend)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LogLevel ("debug", "info", "warn", "error").
func (c *Config) SlogLevel() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return 0, fmt.Errorf("config: invalid LOG_LEVEL %q", c.LogLevel)
	}
	return lvl, nil
}

// TaggingEnabled reports whether a vision model key is present.
func (c *Config) TaggingEnabled() bool {
	return c.GeminiAPIKey != ""
}

// UploadEnabled reports whether the selected image host has what it needs.
func (c *Config) UploadEnabled() bool {
	switch c.CDNBackend {
	case BackendCloudinary:
		return c.CloudinaryCloudName != "" && c.CloudinaryUploadPreset != ""
	case BackendS3:
		return c.S3Bucket != "" && c.S3PublicURL != ""
	}
	return false
}
