package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

// NewLogger builds the process logger. JSON goes to stdout unless LOG_FORMAT=text.
// Unknown LOG_LEVEL or LOG_FORMAT values are reported once and replaced by
// the defaults.
func NewLogger(cfg *Config) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	switch cfg.LogFormat {
	case "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		log.SetFormatter(&logrus.JSONFormatter{})
	}

	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)

	if err != nil {
		log.WithField("log_level", cfg.LogLevel).Warn("Unknown LOG_LEVEL, using info")
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		log.WithField("log_format", cfg.LogFormat).Warn("Unknown LOG_FORMAT, using json")
	}

	return log
}
