package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/inhausmakers/avatar-manager/internal/models"
)

// DefaultAvatarSize is the pixel size rendered when a caller does not ask for
// a specific one.
const DefaultAvatarSize = 96

type Config struct {
	DatabaseURL string
	RedisURL    string
	JWTSecret   string
	ServerAddr  string
	LogLevel    slog.Level

	// UploadsDir is the root of locally stored avatar files; BaseURL is the
	// public prefix the same files are served under.
	UploadsDir string
	BaseURL    string

	// Avatar policy.
	ShowAvatars   bool
	AvatarUploads bool
	DefaultSize   int
	RatingCeiling models.Rating

	// ScopeID partitions storage in multi-tenant deployments. Nil means the
	// deployment is single-scope.
	ScopeID *int64

	// Optional object-storage archive for original uploads.
	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
}

func Load() *Config {
	cfg := &Config{
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		RedisURL:       envOrDefault("REDIS_URL", "redis://localhost:6379"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		ServerAddr:     envOrDefault("SERVER_ADDR", ":8080"),
		LogLevel:       parseLogLevel(os.Getenv("LOG_LEVEL")),
		UploadsDir:     envOrDefault("UPLOADS_DIR", "uploads"),
		BaseURL:        envOrDefault("BASE_URL", "http://localhost:8080/uploads"),
		ShowAvatars:    parseBool(envOrDefault("SHOW_AVATARS", "true")),
		AvatarUploads:  parseBool(os.Getenv("AVATAR_UPLOADS")),
		DefaultSize:    clampSize(os.Getenv("AVATAR_DEFAULT_SIZE")),
		RatingCeiling:  parseRating(os.Getenv("AVATAR_RATING")),
		ScopeID:        parseScopeID(os.Getenv("SCOPE_ID")),
		MinIOEndpoint:  os.Getenv("MINIO_ENDPOINT"),
		MinIOAccessKey: os.Getenv("MINIO_ACCESS_KEY"),
		MinIOSecretKey: os.Getenv("MINIO_SECRET_KEY"),
		MinIOBucket:    envOrDefault("MINIO_BUCKET", "avatar-archive"),
	}

	var missing []string
	if cfg.DatabaseURL == "" {
		missing = append(missing, "DATABASE_URL")
	}
	if cfg.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}
	if len(missing) > 0 {
		panic(fmt.Sprintf("required environment variables not set: %s", strings.Join(missing, ", ")))
	}

	return cfg
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func parseBool(s string) bool {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// clampSize parses the default avatar size, falling back to
// DefaultAvatarSize and clamping into [1, 512].
func clampSize(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultAvatarSize
	}
	if n < 1 {
		return 1
	}
	if n > 512 {
		return 512
	}
	return n
}

// parseRating reads the site-wide rating ceiling, defaulting to G (only
// all-audiences avatars shown).
func parseRating(s string) models.Rating {
	r, err := models.ParseRating(strings.TrimSpace(s))
	if err != nil {
		return models.RatingG
	}
	return r
}

func parseScopeID(s string) *int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	return &id
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
