// Package logger builds the hclog loggers used across the scanner.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/reshiftsecurity/reshift-scanner/internal/config"
)

// EnvLogLevel overrides the configured log level.
const EnvLogLevel = "RESHIFT_LOG_LEVEL"

// NewLogger returns a named logger configured from the logger section of cfg.
// Logs go to stderr, stdout is reserved for the report.
func NewLogger(cfg *config.Config, name string) hclog.Logger {
	return newLogger(cfg, name, os.Stderr, os.Getenv)
}

func newLogger(cfg *config.Config, name string, out io.Writer, lookup func(string) string) hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:            name,
		Output:          out,
		Level:           level(cfg, lookup),
		DisableTime:     config.GetBoolValue(cfg, "Logger.DisableTime", true),
		JSONFormat:      config.GetBoolValue(cfg, "Logger.JSONFormat", false),
		IncludeLocation: config.GetBoolValue(cfg, "Logger.IncludeLocation", false),
	})
}

// ProcessOutput returns a writer for the stderr of external tools. Lines are
// logged at debug level unless they carry a level prefix.
func ProcessOutput(logger hclog.Logger) io.Writer {
	return logger.StandardWriter(&hclog.StandardLoggerOptions{
		InferLevels: true,
		ForceLevel:  hclog.Debug,
	})
}

// level picks the environment value first, then the config, then info.
func level(cfg *config.Config, lookup func(string) string) hclog.Level {
	name := strings.TrimSpace(lookup(EnvLogLevel))
	if name == "" && cfg != nil {
		name = strings.TrimSpace(cfg.Logger.Level)
	}
	if name == "" {
		return hclog.Info
	}

	lvl := hclog.LevelFromString(name)
	if lvl == hclog.NoLevel {
		return hclog.Info
	}
	return lvl
}
