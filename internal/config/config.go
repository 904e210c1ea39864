package config

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config carries all process configuration, loaded once in main and passed
// explicitly to the components that need it.
type Config struct {
	Port          string
	DatabaseURL   string
	SessionSecret string
	SiteURL       string

	// Cache: Redis when RedisAddr is set, in-process LRU otherwise.
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Google OAuth. When ClientID is empty the service falls back to the
	// static dev identity (DevUserID / DevUserName).
	GoogleClientID     string
	GoogleClientSecret string
	DevUserID          string
	DevUserName        string

	// External image-resize service.
	ResizeURL string
}

// Load reads .env (when present) and the process environment.
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		logrus.Info("no .env file found, reading env vars from system")
	}

	return &Config{
		Port:          getenv("PORT", "8080"),
		DatabaseURL:   getenv("DATABASE_URL", "host=localhost user=postgres password=postgres dbname=voteboard port=5432 sslmode=disable"),
		SessionSecret: getenv("SESSION_SECRET", "secret_key_change_me"),
		SiteURL:       getenv("SITE_URL", "http://localhost:8080"),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),

		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		DevUserID:          os.Getenv("DEV_USER_ID"),
		DevUserName:        getenv("DEV_USER_NAME", "dev"),

		ResizeURL: getenv("RESIZE_URL", "http://localhost:8081"),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
