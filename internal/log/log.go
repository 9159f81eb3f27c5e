package log

import (
	"strings"

	"go.uber.org/zap"
)

// Logger is the process-wide structured logger. It starts as a production
// JSON logger and can be rebuilt with Init once configuration is loaded.
var Logger = mustBuild("json")

// Init replaces Logger with one built for the given format ("json" or "console").
func Init(format string) error {
	l, err := build(format)
	if err != nil {
		return err
	}
	Logger = l
	return nil
}

// Sync flushes buffered log entries.
func Sync() {
	_ = Logger.Sync()
}

// Truncate shortens payloads before they are written to the log.
func Truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func build(format string) (*zap.SugaredLogger, error) {
	var (
		base *zap.Logger
		err  error
	)
	switch strings.ToLower(format) {
	case "console", "dev", "development":
		base, err = zap.NewDevelopment()
	default:
		base, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return base.Sugar(), nil
}

func mustBuild(format string) *zap.SugaredLogger {
	l, err := build(format)
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l
}
