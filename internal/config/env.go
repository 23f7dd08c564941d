package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from the given files (".env" when none
// are named) into the process environment. Variables already set are kept,
// and a missing file is not an error.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: loading %s: %w", p, err)
		}
	}
	return nil
}

func (c *Config) loadEnv(lookup func(string) (string, bool)) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}

	var errs []error
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s must be an integer, got %q", key, v))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s must be a duration, got %q", key, v))
				return
			}
			*dst = d
		}
	}

	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("config: %s must be a boolean, got %q", key, v))
				return
			}
			*dst = b
		}
	}

	num("PORT", &c.Port)
	str("LOG_LEVEL", &c.LogLevel)

	str("DB_DRIVER", &c.DBDriver)
	str("DB_PATH", &c.DBPath)
	str("DATABASE_DSN", &c.DatabaseDSN)

	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	num("REDIS_DB", &c.RedisDB)
	dur("USER_CACHE_TTL", &c.UserCacheTTL)

	str("JWT_SECRET", &c.JWTSecret)
	dur("TOKEN_TTL", &c.TokenTTL)
	flag("COOKIE_SECURE", &c.CookieSecure)

	str("GEMINI_API_KEY", &c.GeminiAPIKey)
	str("GEMINI_MODEL", &c.GeminiModel)

	str("CDN_BACKEND", &c.CDNBackend)
	str("CDN_FOLDER", &c.CDNFolder)
	str("CLOUDINARY_CLOUD_NAME", &c.CloudinaryCloudName)
	str("CLOUDINARY_UPLOAD_PRESET", &c.CloudinaryUploadPreset)
	str("S3_BUCKET", &c.S3Bucket)
	str("S3_REGION", &c.S3Region)
	str("S3_ENDPOINT", &c.S3Endpoint)
	str("S3_ACCESS_KEY", &c.S3AccessKey)
	str("S3_SECRET_KEY", &c.S3SecretKey)
	str("S3_PUBLIC_URL", &c.S3PublicURL)

	str("EMAIL_DOMAIN", &c.EmailDomain)
	str("PASSWORD_POLICY", &c.PasswordPolicy)
	num("BCRYPT_COST", &c.BcryptCost)

	return errors.Join(errs...)
}
