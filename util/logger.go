package util

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	appLogger   = zerolog.New(os.Stdout).With().Timestamp().Logger()
	appLoggerMu sync.RWMutex
)

// InitLogger configures the process-wide zerolog logger. Development
// environments get the human readable console writer.
func InitLogger(level, env string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	var out io.Writer = os.Stdout
	if env == "development" || env == "" {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}

	l := zerolog.New(out).Level(lvl).With().Timestamp().Logger()
	SetLogger(l)
	return l
}

// Logger returns the current application logger.
func Logger() *zerolog.Logger {
	appLoggerMu.RLock()
	defer appLoggerMu.RUnlock()
	l := appLogger
	return &l
}

// SetLogger swaps the application logger. Tests use it to capture output.
func SetLogger(l zerolog.Logger) {
	appLoggerMu.Lock()
	defer appLoggerMu.Unlock()
	appLogger = l
}
