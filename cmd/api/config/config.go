package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL    string
	MigrationsPath string

	HTTPPort       int
	RequestTimeout time.Duration

	JWTSecret   string
	JWTIssuer   string
	JWTDuration time.Duration

	NotificationsEnabled bool
	NotificationsBaseURL string
	NotificationsTimeout time.Duration

	DeleteOnReturn bool
	CacheSize      int

	RateLimitRPS   float64
	RateLimitBurst int

	LiveAllowedOrigins []string
}

var ErrMissingSecret = errors.New("JWT_SECRET must be set")

/*
Loads the configuration from the environment. Files are read first with godotenv, which
never overrides a variable that is already set; a missing file is not an error.
*/
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("loading %s: %w", f, err)
		}
	}

	cfg := Config{
		DatabaseURL:          os.Getenv("DATABASE_URL"),
		MigrationsPath:       getString("DATABASE_MIGRATIONS_PATH", "migrations"),
		JWTSecret:            os.Getenv("JWT_SECRET"),
		JWTIssuer:            getString("JWT_ISSUER", "lending-service"),
		NotificationsBaseURL: getString("NOTIFICATIONS_BASE_URL", "https://ntfy.sh/"),
		LiveAllowedOrigins:   getList("LIVE_ALLOWED_ORIGINS"),
	}

	var err error
	if cfg.HTTPPort, err = getInt("HTTP_PORT", 8080); err != nil {
		return Config{}, err
	}
	if cfg.RequestTimeout, err = getDuration("HTTP_REQUEST_TIMEOUT", 5*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.JWTDuration, err = getDuration("JWT_DURATION", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.NotificationsEnabled, err = getBool("NOTIFICATIONS_ENABLED", false); err != nil {
		return Config{}, err
	}
	if cfg.NotificationsTimeout, err = getDuration("NOTIFICATIONS_TIMEOUT", 2*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.DeleteOnReturn, err = getBool("LOANS_DELETE_ON_RETURN", false); err != nil {
		return Config{}, err
	}
	if cfg.CacheSize, err = getInt("CACHE_SIZE", 1024); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitRPS, err = getFloat("RATE_LIMIT_RPS", 20); err != nil {
		return Config{}, err
	}
	if cfg.RateLimitBurst, err = getInt("RATE_LIMIT_BURST", 40); err != nil {
		return Config{}, err
	}

	if cfg.CacheSize <= 0 {
		return Config{}, fmt.Errorf("CACHE_SIZE must be positive, got %d", cfg.CacheSize)
	}
	if cfg.DatabaseURL == "" {
		log.Println("DATABASE_URL is empty: using the in-memory store")
	}
	return cfg, nil
}

// Tokens returns the secret and issuer settings, failing when no secret is configured.
func (c Config) Tokens() (secret []byte, issuer string, duration time.Duration, err error) {
	if c.JWTSecret == "" {
		return nil, "", 0, ErrMissingSecret
	}
	return []byte(c.JWTSecret), c.JWTIssuer, c.JWTDuration, nil
}

func getString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// getList splits a comma separated variable, skipping blank entries.
func getList(key string) []string {
	var list []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			list = append(list, v)
		}
	}
	return list
}

func getInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return n, nil
}

func getFloat(key string, def float64) (float64, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return f, nil
}

func getBool(key string, def bool) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("parsing %s: %w", key, err)
	}
	return b, nil
}

func getDuration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}
