package tool

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

var DefaultLogger = log.NewWithOptions(os.Stderr, log.Options{
	Prefix:          "fbxcast",
	ReportTimestamp: true,
	TimeFormat:      "2006-01-02 15:04:05",
})

// InitLogger tees log output to a daily file under logDir. An empty logDir keeps stderr only.
func InitLogger(logDir string) error {
	if logDir == "" {
		return nil
	}
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	logFile := filepath.Join(logDir, time.Now().Format("2006-01-02.log"))
	f, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	DefaultLogger.SetOutput(io.MultiWriter(os.Stderr, f))
	DefaultLogger.SetReportCaller(true)
	return nil
}

// SetLogLevel maps the log mode flag: dev|prod|none.
func SetLogLevel(mode string) {
	switch strings.ToLower(mode) {
	case "", "dev":
		DefaultLogger.SetLevel(log.DebugLevel)
	case "prod":
		DefaultLogger.SetLevel(log.InfoLevel)
	case "none":
		DefaultLogger.SetLevel(log.FatalLevel)
	default:
		DefaultLogger.Warnf("Unknown log mode %q, using debug level", mode)
		DefaultLogger.SetLevel(log.DebugLevel)
	}
}

// Redact keeps the first characters of a secret so logs can correlate without leaking it.
func Redact(secret string) string {
	if len(secret) <= 4 {
		return strings.Repeat("*", len(secret))
	}
	return secret[:4] + strings.Repeat("*", 8)
}
