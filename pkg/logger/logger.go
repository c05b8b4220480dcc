package logger

import (
	"os"

	"go.uber.org/zap"
)

// New builds the application logger. Production gets JSON output,
// anything else gets the human-readable development encoder.
func New() *zap.Logger {
	var cfg zap.Config
	if os.Getenv("APP_ENV") == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	log, err := cfg.Build()
	if err != nil {
		// Logging must not take the process down; fall back to a no-op.
		return zap.NewNop()
	}
	return log
}
