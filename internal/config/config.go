// Package config provides configuration loading and defaults for gqlops.
package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ServerConfig holds network and authentication settings for gqlops serve.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	AuthToken string `yaml:"auth_token"`
	// MCPPath is the HTTP path the MCP streamable endpoint is mounted on.
	MCPPath string `yaml:"mcp_path"`
}

// GraphQLConfig holds the pieces the GraphQL endpoint URL is assembled from.
// When URL is set it is used verbatim and the other location fields are
// ignored.
type GraphQLConfig struct {
	Scheme string `yaml:"scheme"`
	Host   string `yaml:"host"`
	Port   string `yaml:"port"`
	Chain  string `yaml:"chain"`
	Path   string `yaml:"path"`
	URL    string `yaml:"url"`
	APIKey string `yaml:"api_key"`
	// Timeout is the HTTP request timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// GenerateConfig controls operation synthesis.
type GenerateConfig struct {
	Out   string `yaml:"out"`
	Depth int    `yaml:"depth"`
}

// OperationsConfig controls which operations are loaded and exposed.
type OperationsConfig struct {
	// Document is the operation document the catalog is built from.
	Document         string   `yaml:"document"`
	Allowlist        []string `yaml:"allowlist"`
	Denylist         []string `yaml:"denylist"`
	ConfirmMutations bool     `yaml:"confirm_mutations"`
}

// AuditConfig controls audit logging behaviour.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	LogPath string `yaml:"log_path"`
}

// LogConfig controls the operational logger.
type LogConfig struct {
	Level       string `yaml:"level"`
	Development bool   `yaml:"development"`
}

// Config is the top-level configuration structure for gqlops.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	GraphQL    GraphQLConfig    `yaml:"graphql"`
	Generate   GenerateConfig   `yaml:"generate"`
	Operations OperationsConfig `yaml:"operations"`
	Audit      AuditConfig      `yaml:"audit"`
	Log        LogConfig        `yaml:"log"`
}

// LoadConfig reads and parses a YAML configuration file from the given path.
// Fields missing from the file keep their DefaultConfig values. On error, nil
// is returned for the config pointer.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

// DefaultConfig returns a new Config populated with sensible default values.
// Each call returns a distinct instance.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:    8080,
			MCPPath: "/mcp",
		},
		GraphQL: GraphQLConfig{
			Scheme:  "http",
			Timeout: 30,
		},
		Generate: GenerateConfig{
			Out:   "graphql/auto.graphql",
			Depth: 1,
		},
		Operations: OperationsConfig{
			Document: "graphql/auto.graphql",
		},
		Audit: AuditConfig{
			Enabled: false,
			LogPath: "audit.log",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given .env file into the process
// environment. Variables that are already set are left untouched. A missing
// file is not an error.
func LoadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// ApplyEnvOverrides updates cfg in place with values from environment variables.
// Recognized variables:
//   - GQLOPS_AUTH_TOKEN overrides cfg.Server.AuthToken
//   - GRAPHQL_SCHEME, GRAPHQL_HOST, GRAPHQL_PORT, GRAPHQL_CHAIN, GRAPHQL_PATH
//     override the matching cfg.GraphQL location fields
//   - GRAPHQL_URL overrides cfg.GraphQL.URL
//   - GRAPHQL_API_KEY overrides cfg.GraphQL.APIKey
//
// Empty values never override.
func ApplyEnvOverrides(cfg *Config) {
	overrides := []struct {
		env string
		dst *string
	}{
		{"GQLOPS_AUTH_TOKEN", &cfg.Server.AuthToken},
		{"GRAPHQL_SCHEME", &cfg.GraphQL.Scheme},
		{"GRAPHQL_HOST", &cfg.GraphQL.Host},
		{"GRAPHQL_PORT", &cfg.GraphQL.Port},
		{"GRAPHQL_CHAIN", &cfg.GraphQL.Chain},
		{"GRAPHQL_PATH", &cfg.GraphQL.Path},
		{"GRAPHQL_URL", &cfg.GraphQL.URL},
		{"GRAPHQL_API_KEY", &cfg.GraphQL.APIKey},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.env); v != "" {
			*o.dst = v
		}
	}
}

// EnsureAuthToken generates a random auth token and sets it on cfg if
// cfg.Server.AuthToken is empty. It returns the token (existing or generated)
// and any error encountered during generation.
func EnsureAuthToken(cfg *Config) (string, error) {
	if cfg.Server.AuthToken != "" {
		return cfg.Server.AuthToken, nil
	}
	token, err := GenerateRandomToken()
	if err != nil {
		return "", fmt.Errorf("generate auth token: %w", err)
	}
	cfg.Server.AuthToken = token
	return token, nil
}

// GenerateRandomToken returns a 32-character hex-encoded cryptographically
// random token string.
func GenerateRandomToken() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("rand.Read: %w", err)
	}
	return hex.EncodeToString(b), nil
}
