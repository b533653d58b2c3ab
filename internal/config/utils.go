package config

import (
	"reflect"
	"strings"
	"time"
)

// GetBoolValue retrieves a boolean value from a nested struct based on a dot-separated path.
// It returns the provided defaultValue if the specified field is not explicitly set or is nil.
func GetBoolValue(config interface{}, fieldPath string, defaultValue bool) bool {
	if config == nil {
		return defaultValue
	}

	fields := strings.Split(fieldPath, ".")
	val := reflect.ValueOf(config)

	for _, field := range fields {
		if val.Kind() == reflect.Ptr {
			if val.IsNil() {
				return defaultValue
			}
			val = val.Elem()
		}

		val = val.FieldByName(field)
		if !val.IsValid() {
			return defaultValue
		}
	}

	if val.Kind() == reflect.Ptr && !val.IsNil() {
		return val.Elem().Bool()
	} else if val.Kind() == reflect.Bool {
		return val.Bool()
	}

	return defaultValue
}

// SetThen returns value if it is set, otherwise defaultValue.
func SetThen[T any](value T, defaultValue T) T {
	if reflect.ValueOf(value).IsZero() {
		return defaultValue
	}
	return value
}

// ESLintPath returns the ESLint binary to run.
func ESLintPath(cfg *Config) string {
	if cfg == nil {
		return DefaultESLintPath
	}
	return SetThen(cfg.Analyzer.ESLintPath, DefaultESLintPath)
}

// NpmPath returns the npm binary to run.
func NpmPath(cfg *Config) string {
	if cfg == nil {
		return DefaultNpmPath
	}
	return SetThen(cfg.Audit.NpmPath, DefaultNpmPath)
}

// Concurrency returns the number of files processed in parallel.
func Concurrency(cfg *Config) int {
	if cfg == nil {
		return DefaultConcurrency
	}
	return SetThen(cfg.Scan.Concurrency, DefaultConcurrency)
}

// IgnorePatterns returns the configured ignore globs merged with the defaults.
func IgnorePatterns(cfg *Config) []string {
	patterns := append([]string{}, DefaultIgnore...)
	if cfg != nil {
		patterns = append(patterns, cfg.Scan.Ignore...)
	}
	return patterns
}

// Extensions returns the analysed file extensions.
func Extensions(cfg *Config) []string {
	if cfg == nil || len(cfg.Scan.Extensions) == 0 {
		return DefaultExtensions
	}
	return cfg.Scan.Extensions
}

// ASTMaxDepth returns the depth at which syntax trees are truncated.
func ASTMaxDepth(cfg *Config) int {
	if cfg == nil {
		return DefaultASTMaxDepth
	}
	return SetThen(cfg.Scan.ASTMaxDepth, DefaultASTMaxDepth)
}

// ParseTimeout returns the time limit for parsing one file.
func ParseTimeout(cfg *Config) time.Duration {
	if cfg == nil {
		return DefaultParseTimeout
	}
	return SetThen(cfg.Analyzer.ParseTimeout, DefaultParseTimeout)
}
