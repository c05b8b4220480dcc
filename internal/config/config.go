package config

import (
	"os"
	"strconv"
	"time"
)

// Config collects every environment knob in one place. Callers load .env
// (godotenv) before calling Load.
type Config struct {
	Port      string
	JWTSecret string

	// Document store (bill uploads)
	CloudinaryURL    string
	CloudinaryFolder string

	// Mail delivery: "brevo" (HTTP API) or "smtp" (relay)
	MailProvider  string
	BrevoAPIKey   string
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	EmailFrom     string
	EmailFromName string

	FrontendURL string

	// Staleness bound for the deferred daily_sales_avg recompute
	SalesAvgInterval time.Duration
}

func Load() *Config {
	return &Config{
		Port:             getEnv("PORT", "3000"),
		JWTSecret:        os.Getenv("JWT_SECRET"),
		CloudinaryURL:    os.Getenv("CLOUDINARY_URL"),
		CloudinaryFolder: getEnv("CLOUDINARY_FOLDER", "stockflow_bills"),
		MailProvider:     getEnv("MAIL_PROVIDER", "smtp"),
		BrevoAPIKey:      os.Getenv("BREVO_API_KEY"),
		SMTPHost:         getEnv("SMTP_HOST", "smtp-relay.brevo.com"),
		SMTPPort:         getEnvInt("SMTP_PORT", 587),
		SMTPUser:         os.Getenv("SMTP_USER"),
		SMTPPass:         os.Getenv("SMTP_PASS"),
		EmailFrom:        getEnv("EMAIL_FROM", "stockflow.erp@gmail.com"),
		EmailFromName:    getEnv("EMAIL_FROM_NAME", "StockFlow ERP"),
		FrontendURL:      getEnv("FRONTEND_URL", "http://localhost:5173"),
		SalesAvgInterval: getEnvDuration("SALES_AVG_INTERVAL", time.Hour),
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
