// Package logging configures the process-wide logrus logger and adapts it
// for the libraries that accept their own logger interfaces.
package logging

import (
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"gorm.io/gorm/logger"

	"github.com/mrlokans/bookshelf/internal/config"
)

// Setup applies level and format from configuration to the standard logger.
func Setup(cfg config.Logging) {
	log.SetOutput(os.Stdout)

	if strings.EqualFold(cfg.Format, "json") {
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: time.RFC3339})
	} else {
		log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	}

	level, err := log.ParseLevel(cfg.Level)
	if err != nil {
		log.WithField("level", cfg.Level).Warn("Unknown log level, falling back to info")
		level = log.InfoLevel
	}
	log.SetLevel(level)
}

// GormLogger returns a gorm logger writing through logrus at a verbosity
// derived from the configured log level.
func GormLogger(cfg config.Logging) logger.Interface {
	return logger.New(log.StandardLogger(), logger.Config{
		SlowThreshold:             500 * time.Millisecond,
		LogLevel:                  gormLevel(cfg.Level),
		IgnoreRecordNotFoundError: true,
	})
}

func gormLevel(level string) logger.LogLevel {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return logger.Info
	case "warn", "warning", "info":
		return logger.Warn
	case "error", "fatal", "panic":
		return logger.Error
	default:
		return logger.Warn
	}
}

// TaskLogger implements backlite.Logger on top of logrus.
type TaskLogger struct{}

func (TaskLogger) Info(message string, params ...any) {
	log.WithFields(fieldsFromParams(params)).Info("[TASK] " + message)
}

func (TaskLogger) Error(message string, params ...any) {
	log.WithFields(fieldsFromParams(params)).Error("[TASK] " + message)
}

// fieldsFromParams turns backlite's alternating key/value params into fields.
func fieldsFromParams(params []any) log.Fields {
	fields := log.Fields{}
	for i := 0; i+1 < len(params); i += 2 {
		key, ok := params[i].(string)
		if !ok {
			continue
		}
		fields[key] = params[i+1]
	}
	return fields
}
