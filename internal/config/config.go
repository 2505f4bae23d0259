// Package config loads gateway configuration from YAML with environment
// variable expansion. Missing file means defaults plus environment.
package config

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level gateway configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Anthropic  AnthropicConfig  `yaml:"anthropic"`
	Quota      QuotaConfig      `yaml:"quota"`
	Auth       AuthConfig       `yaml:"auth"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// AnthropicConfig holds upstream model API settings.
type AnthropicConfig struct {
	APIKey string `yaml:"api_key"`
	// Endpoint overrides the Messages API URL (tests, regional proxies).
	Endpoint string `yaml:"endpoint"`
	// RequestTimeout bounds one streaming call end to end.
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

// QuotaConfig holds daily rate-limit settings.
type QuotaConfig struct {
	DailyLimit int `yaml:"daily_limit"`
}

// AuthConfig holds session verification settings.
type AuthConfig struct {
	// TokenSecret signs/verifies session tokens (HS256).
	TokenSecret string `yaml:"token_secret"`
}

// MonitoringConfig holds usage-log settings.
type MonitoringConfig struct {
	Enabled     bool   `yaml:"enabled"`
	UsageDBPath string `yaml:"usage_db_path"`
}

// envVarPattern matches ${VAR} and ${VAR:-default}.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:-([^}]*))?\}`)

// ExpandEnvWithDefaults expands ${VAR} and ${VAR:-default} references.
// Unset variables without a default expand to the empty string.
func ExpandEnvWithDefaults(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if v, ok := os.LookupEnv(groups[1]); ok {
			return v
		}
		return groups[3]
	})
}

// Load reads the config file at path, expands environment references, and
// applies defaults. An empty path or missing file yields default config.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied config path
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else {
			expanded := ExpandEnvWithDefaults(string(data))
			if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config: %w", err)
			}
		}
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = DefaultServerPort
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if c.Anthropic.APIKey == "" {
		c.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if c.Anthropic.Endpoint == "" {
		c.Anthropic.Endpoint = DefaultAnthropicEndpoint
	}
	if c.Anthropic.RequestTimeout == 0 {
		c.Anthropic.RequestTimeout = DefaultUpstreamTimeout
	}
	if c.Quota.DailyLimit == 0 {
		c.Quota.DailyLimit = DefaultDailyRequestLimit
	}
	if c.Auth.TokenSecret == "" {
		c.Auth.TokenSecret = os.Getenv("SESSION_TOKEN_SECRET")
	}
	if c.Monitoring.UsageDBPath == "" {
		c.Monitoring.UsageDBPath = DefaultUsageDBPath
	}
}

// Validate checks settings that have no sane default.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Anthropic.APIKey) == "" {
		return fmt.Errorf("anthropic.api_key is required (or set ANTHROPIC_API_KEY)")
	}
	if strings.TrimSpace(c.Auth.TokenSecret) == "" {
		return fmt.Errorf("auth.token_secret is required (or set SESSION_TOKEN_SECRET)")
	}
	return nil
}
