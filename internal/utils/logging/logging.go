package logging

import (
	"os"
	"strings"

	"CaseSync/internal/config"

	"github.com/sirupsen/logrus"
)

// New builds the process logger from the log section of the config. An
// unknown level falls back to info.
func New(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{})
	}
	if err != nil && cfg.Level != "" {
		logger.WithField("level", cfg.Level).Warn("unknown log level, using info")
	}
	return logger
}
