package contract

import (
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// logTimestampFormat adds millisecond precision to log timestamps.
const logTimestampFormat = "2006-01-02T15:04:05.999Z07:00"

// osExit is swapped in tests.
var osExit = os.Exit

// ConfigureLogging sets the global logrus level and formatter. Logs go to stderr
// so stdout stays clean for table, CSV and JSON output.
func ConfigureLogging(level, format string) error {
	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid --log-level: %w", err)
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stderr)

	switch strings.ToLower(format) {
	case "", "text":
		formatter := new(log.TextFormatter)
		formatter.TimestampFormat = logTimestampFormat
		formatter.FullTimestamp = true
		log.SetFormatter(formatter)
	case "json":
		log.SetFormatter(&log.JSONFormatter{TimestampFormat: logTimestampFormat})
	default:
		return fmt.Errorf("invalid --log-format '%s'. must be text or json", format)
	}
	log.Debug("debug logging enabled")
	return nil
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	log.WithError(err).Error(msg)
	osExit(1)
}

// LogWarn logs a warning message.
func LogWarn(msg string, err error) {
	if err == nil {
		log.Warn(msg)
		return
	}
	log.WithError(err).Warn(msg)
}
