package config

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v2"
)

// Config is the global YAML configuration of the scanner.
type Config struct {
	Logger     Logger     `yaml:"logger"`
	HTTPClient HTTPClient `yaml:"http_client"`
	Scan       Scan       `yaml:"scan"`
	Analyzer   Analyzer   `yaml:"analyzer"`
	Audit      Audit      `yaml:"audit"`
	Git        Git        `yaml:"git"`
	Identity   Identity   `yaml:"identity"`
	Upload     Upload     `yaml:"upload"`
}

// Logger holds logging settings.
type Logger struct {
	Level           string `yaml:"level"`
	DisableTime     *bool  `yaml:"disable_time"`
	JSONFormat      *bool  `yaml:"json_format"`
	IncludeLocation *bool  `yaml:"include_location"`
}

// HTTPClient holds settings of the upload HTTP client.
type HTTPClient struct {
	Debug            *bool           `yaml:"debug"`
	RetryCount       int             `yaml:"retry_count"`
	RetryWaitTime    time.Duration   `yaml:"retry_wait_time"`
	RetryMaxWaitTime time.Duration   `yaml:"retry_max_wait_time"`
	Timeout          time.Duration   `yaml:"timeout"`
	TLSClientConfig  TLSClientConfig `yaml:"tls_client_config"`
	Proxy            Proxy           `yaml:"proxy"`
}

// TLSClientConfig holds TLS verification settings.
type TLSClientConfig struct {
	Verify *bool `yaml:"verify"`
}

// Proxy holds proxy settings.
type Proxy struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Scan holds settings for building the file listing.
type Scan struct {
	Extensions  []string `yaml:"extensions"`
	Ignore      []string `yaml:"ignore"`
	Concurrency int      `yaml:"concurrency"`
	ASTMaxDepth int      `yaml:"ast_max_depth"`
}

// Analyzer holds settings for the ESLint run.
type Analyzer struct {
	ESLintPath          string        `yaml:"eslint_path"`
	ResolvePluginsDir   string        `yaml:"resolve_plugins_dir"`
	ChunkSize           int           `yaml:"chunk_size"`
	Timeout             time.Duration `yaml:"timeout"`
	ParseTimeout        time.Duration `yaml:"parse_timeout"`
	AdditionalArguments []string      `yaml:"additional_arguments"`
}

// Audit holds settings for the npm audit run.
type Audit struct {
	NpmPath          string        `yaml:"npm_path"`
	Timeout          time.Duration `yaml:"timeout"`
	GenerateLockfile *bool         `yaml:"generate_lockfile"`
}

// Git holds settings for repository inspection.
type Git struct {
	Blame       *bool `yaml:"blame"`
	FailOnAhead *bool `yaml:"fail_on_ahead"`
}

// Identity holds settings for finding identity computation.
type Identity struct {
	Scheme string `yaml:"scheme"`
}

// Upload holds settings of the report submission endpoint.
type Upload struct {
	Endpoint string `yaml:"endpoint"`
	Token    string `yaml:"token"`
}

// ValidateConfigPath checks that path exists and is a regular file.
func ValidateConfigPath(path string) error {
	s, err := os.Stat(path)
	if err != nil {
		return err
	}
	if s.IsDir() {
		return fmt.Errorf("'%s' is a directory, not a file", path)
	}
	return nil
}

// LoadYAML decodes the YAML file at configPath into data.
func LoadYAML(configPath string, data interface{}) error {
	if err := ValidateConfigPath(configPath); err != nil {
		return err
	}

	file, err := os.Open(configPath)
	if err != nil {
		return err
	}
	defer file.Close()

	d := yaml.NewDecoder(file)
	if err := d.Decode(data); err != nil {
		return err
	}

	return nil
}

// LoadConfig reads the configuration file and applies environment overrides.
// A missing file is not an error: the scanner runs on defaults.
func LoadConfig(configPath string) (*Config, error) {
	cfg := &Config{}

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			if err := LoadYAML(configPath, cfg); err != nil {
				return nil, fmt.Errorf("failed to load config %q: %w", configPath, err)
			}
		} else if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to stat config %q: %w", configPath, err)
		}
	}

	applyEnv(cfg, os.Getenv)
	return cfg, nil
}

// applyEnv overrides upload credentials from the environment.
func applyEnv(cfg *Config, lookup func(string) string) {
	if token := lookup("RESHIFT_TOKEN"); token != "" {
		cfg.Upload.Token = token
	}
	if endpoint := lookup("RESHIFT_ENDPOINT"); endpoint != "" {
		cfg.Upload.Endpoint = endpoint
	}
}
