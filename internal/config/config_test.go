package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	content := `logger:
  level: debug
  json_format: true
scan:
  ignore: ["**/dist/**"]
  concurrency: 2
analyzer:
  eslint_path: /opt/bin/eslint
  timeout: 30s
git:
  blame: false
identity:
  scheme: legacy
upload:
  endpoint: https://scan.example.com/api/report
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Logger.Level)
	assert.True(t, GetBoolValue(cfg, "Logger.JSONFormat", false))
	assert.False(t, GetBoolValue(cfg, "Git.Blame", true))
	assert.True(t, GetBoolValue(cfg, "Git.FailOnAhead", true))
	assert.Equal(t, 30*time.Second, cfg.Analyzer.Timeout)
	assert.Equal(t, "/opt/bin/eslint", ESLintPath(cfg))
	assert.Equal(t, 2, Concurrency(cfg))
	assert.Equal(t, []string{"**/node_modules/**", "**/.git/**", "**/dist/**"}, IgnorePatterns(cfg))
	assert.NoError(t, ValidateConfig(cfg))
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)

	assert.Equal(t, DefaultESLintPath, ESLintPath(cfg))
	assert.Equal(t, DefaultNpmPath, NpmPath(cfg))
	assert.Equal(t, DefaultExtensions, Extensions(cfg))
	assert.NoError(t, ValidateConfig(cfg))
}

func TestApplyEnv(t *testing.T) {
	cfg := &Config{Upload: Upload{Endpoint: "https://a.example.com", Token: "file-token"}}
	env := map[string]string{"RESHIFT_TOKEN": "env-token"}

	applyEnv(cfg, func(key string) string { return env[key] })

	assert.Equal(t, "env-token", cfg.Upload.Token)
	assert.Equal(t, "https://a.example.com", cfg.Upload.Endpoint)
}

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{
			name:    "negative retry count",
			cfg:     Config{HTTPClient: HTTPClient{RetryCount: -1}},
			wantErr: "YAML global config: http_client directive is invalid: retry_count must be between 0 and 20: -1",
		},
		{
			name:    "extension without dot",
			cfg:     Config{Scan: Scan{Extensions: []string{"js"}}},
			wantErr: `YAML global config: scan directive is invalid: extension "js" must start with a dot`,
		},
		{
			name:    "unknown identity scheme",
			cfg:     Config{Identity: Identity{Scheme: "v2"}},
			wantErr: `YAML global config: identity directive is invalid: unknown identity scheme "v2"`,
		},
		{
			name:    "endpoint with unsupported scheme",
			cfg:     Config{Upload: Upload{Endpoint: "ftp://scan.example.com"}},
			wantErr: `YAML global config: upload directive is invalid: endpoint must use http or https scheme: "ftp://scan.example.com"`,
		},
		{
			name:    "analyzer timeout too long",
			cfg:     Config{Analyzer: Analyzer{Timeout: 2 * time.Hour}},
			wantErr: "YAML global config: analyzer directive is invalid: timeout duration is too long: 2h0m0s exceeds maximum of 1h0m0s",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig(&tt.cfg)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestSetThen(t *testing.T) {
	assert.Equal(t, 5, SetThen(0, 5))
	assert.Equal(t, 3, SetThen(3, 5))
	assert.Equal(t, "x", SetThen("", "x"))
}

func TestDefaultsWithNilConfig(t *testing.T) {
	assert.Equal(t, DefaultESLintPath, ESLintPath(nil))
	assert.Equal(t, DefaultNpmPath, NpmPath(nil))
	assert.Equal(t, DefaultConcurrency, Concurrency(nil))
	assert.Equal(t, DefaultASTMaxDepth, ASTMaxDepth(nil))
	assert.Equal(t, DefaultParseTimeout, ParseTimeout(nil))
	assert.Equal(t, DefaultExtensions, Extensions(nil))
	assert.Equal(t, DefaultIgnore, IgnorePatterns(nil))
	assert.True(t, GetBoolValue((*Config)(nil), "Git.Blame", true))

	cfg := &Config{Scan: Scan{Ignore: []string{"dist/**"}, ASTMaxDepth: 32}}
	assert.Equal(t, []string{"**/node_modules/**", "**/.git/**", "dist/**"}, IgnorePatterns(cfg))
	assert.Equal(t, 32, ASTMaxDepth(cfg))
}
