// ABOUTME: Configuration loading and parsing for fitlife-api
// ABOUTME: Supports YAML or TOML files with environment variable expansion and duration parsing

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted while loading
const (
	EnvConfigPath = "FITLIFE_CONFIG"
	EnvDBPath     = "FITLIFE_DB_PATH"
	EnvJWTSecret  = "FITLIFE_JWT_SECRET"
)

// MinJWTSecretLength mirrors auth.MinSecretLength so misconfiguration is caught at load time.
const MinJWTSecretLength = 32

// Config represents the complete fitlife-api configuration
type Config struct {
	Server    ServerConfig    `yaml:"server" toml:"server"`
	Tailscale TailscaleConfig `yaml:"tailscale" toml:"tailscale"`
	Database  DatabaseConfig  `yaml:"database" toml:"database"`
	Auth      AuthConfig      `yaml:"auth" toml:"auth"`
	Mail      MailConfig      `yaml:"mail" toml:"mail"`
	Seed      SeedConfig      `yaml:"seed" toml:"seed"`
	Logging   LoggingConfig   `yaml:"logging" toml:"logging"`
}

// ServerConfig holds server address configuration
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr" toml:"http_addr"`
	// GRPCAddr exposes the gRPC health service when set.
	GRPCAddr string `yaml:"grpc_addr" toml:"grpc_addr"`
}

// TailscaleConfig holds Tailscale tsnet configuration
type TailscaleConfig struct {
	Enabled   bool   `yaml:"enabled" toml:"enabled"`
	Hostname  string `yaml:"hostname" toml:"hostname"`
	AuthKey   string `yaml:"auth_key" toml:"auth_key"`
	StateDir  string `yaml:"state_dir" toml:"state_dir"`
	Ephemeral bool   `yaml:"ephemeral" toml:"ephemeral"`
	Funnel    bool   `yaml:"funnel" toml:"funnel"` // public Funnel, implies HTTPS on :443
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// AuthConfig holds authentication configuration
type AuthConfig struct {
	JWTSecret  string `yaml:"jwt_secret" toml:"jwt_secret"`
	BcryptCost int    `yaml:"bcrypt_cost" toml:"bcrypt_cost"`
	// ExposeResetToken returns the reset token in the forgot-password
	// response. Only for development without a mail provider.
	ExposeResetToken bool `yaml:"expose_reset_token" toml:"expose_reset_token"`

	TokenTTL      time.Duration `yaml:"-" toml:"-"`
	ResetTokenTTL time.Duration `yaml:"-" toml:"-"`
	// ResetCooldown is the minimum gap between reset emails to one address. 0 disables it.
	ResetCooldown time.Duration `yaml:"-" toml:"-"`

	// Raw string values for unmarshaling
	TokenTTLRaw      string `yaml:"token_ttl" toml:"token_ttl"`
	ResetTokenTTLRaw string `yaml:"reset_token_ttl" toml:"reset_token_ttl"`
	ResetCooldownRaw string `yaml:"reset_cooldown" toml:"reset_cooldown"`
}

// MailConfig selects how password reset emails are delivered
type MailConfig struct {
	Provider string `yaml:"provider" toml:"provider"` // "log" or "ses"
	From     string `yaml:"from" toml:"from"`
	Region   string `yaml:"region" toml:"region"`
	// ResetURL is prefixed to the token in reset emails, e.g. "https://app.fitlife.com/reset?token=".
	ResetURL string `yaml:"reset_url" toml:"reset_url"`
}

// SeedConfig controls first-start data
type SeedConfig struct {
	AdminEmail       string `yaml:"admin_email" toml:"admin_email"`
	AdminPassword    string `yaml:"admin_password" toml:"admin_password"`
	SampleActivities bool   `yaml:"sample_activities" toml:"sample_activities"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"`
}

// Default returns the configuration used when no file is present.
// The JWT secret is left empty and must come from a file or FITLIFE_JWT_SECRET.
func Default() *Config {
	return &Config{
		Server:   ServerConfig{HTTPAddr: "0.0.0.0:3000"},
		Database: DatabaseConfig{Path: "fitlife.db"},
		Auth: AuthConfig{
			TokenTTLRaw:      "720h",
			ResetTokenTTLRaw: "1h",
			ResetCooldownRaw: "1m",
		},
		Mail: MailConfig{Provider: "log", From: "no-reply@fitlife.com"},
		Seed: SeedConfig{
			AdminEmail:       "admin@fitlife.com",
			AdminPassword:    "123456",
			SampleActivities: true,
		},
		Logging: LoggingConfig{Level: "info", Format: "text"},
	}
}

// Load reads a configuration file from the given path and returns a parsed Config.
// Files ending in .toml are decoded as TOML, everything else as YAML. Keys
// missing from the file keep their Default values. A .env file next to the
// config is loaded first; it never overrides variables already set.
// Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(filepath.Dir(path), ".env")); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if _, err := toml.Decode(expandedData, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expandedData), cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	return finish(cfg)
}

// LoadOrDefault loads path if it exists. A missing file yields Default
// with environment overrides applied; any other read error is returned.
func LoadOrDefault(path string) (*Config, bool, error) {
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			cfg, err := Load(path)
			return cfg, true, err
		} else if !errors.Is(err, fs.ErrNotExist) {
			return nil, false, fmt.Errorf("checking config file: %w", err)
		}
	}

	if err := loadDotEnv(".env"); err != nil {
		return nil, false, err
	}
	cfg, err := finish(Default())
	return cfg, false, err
}

// finish applies environment overrides, parses durations and validates.
func finish(cfg *Config) (*Config, error) {
	applyEnvOverrides(cfg)

	if err := parseDurations(cfg); err != nil {
		return nil, fmt.Errorf("parsing durations: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if err == nil || errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("loading %s: %w", path, err)
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv(EnvDBPath); v != "" {
		cfg.Database.Path = v
	}
	if cfg.Auth.JWTSecret == "" {
		cfg.Auth.JWTSecret = os.Getenv(EnvJWTSecret)
	}
}

var envVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding environment variable values.
// If the environment variable is not set, it is replaced with an empty string.
func expandEnvVars(s string) string {
	return envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// Validate checks that all required configuration fields are present and valid.
// Returns an error describing the first validation failure encountered.
func (c *Config) Validate() error {
	// HTTP address is required unless Tailscale is enabled
	if !c.Tailscale.Enabled && c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required (or enable tailscale)")
	}

	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database.path is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required (or set %s)", EnvJWTSecret)
	}
	if len(c.Auth.JWTSecret) < MinJWTSecretLength {
		return fmt.Errorf("auth.jwt_secret must be at least %d bytes", MinJWTSecretLength)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	if c.Auth.ResetTokenTTL <= 0 {
		return fmt.Errorf("auth.reset_token_ttl must be positive")
	}
	if c.Auth.ResetCooldown < 0 {
		return fmt.Errorf("auth.reset_cooldown must not be negative")
	}
	if c.Auth.BcryptCost != 0 && (c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31) {
		return fmt.Errorf("auth.bcrypt_cost must be between 4 and 31")
	}

	switch c.Mail.Provider {
	case "", "log":
	case "ses":
		if c.Mail.From == "" {
			return fmt.Errorf("mail.from is required for the ses provider")
		}
		if c.Mail.Region == "" {
			return fmt.Errorf("mail.region is required for the ses provider")
		}
	default:
		return fmt.Errorf("mail.provider must be \"log\" or \"ses\", got %q", c.Mail.Provider)
	}

	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format)
	}

	return nil
}

// parseDurations converts the raw duration strings into time.Duration values
func parseDurations(cfg *Config) error {
	var err error

	if cfg.Auth.TokenTTLRaw != "" {
		cfg.Auth.TokenTTL, err = time.ParseDuration(cfg.Auth.TokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing token_ttl %q: %w", cfg.Auth.TokenTTLRaw, err)
		}
	}

	if cfg.Auth.ResetTokenTTLRaw != "" {
		cfg.Auth.ResetTokenTTL, err = time.ParseDuration(cfg.Auth.ResetTokenTTLRaw)
		if err != nil {
			return fmt.Errorf("parsing reset_token_ttl %q: %w", cfg.Auth.ResetTokenTTLRaw, err)
		}
	}

	if cfg.Auth.ResetCooldownRaw != "" {
		cfg.Auth.ResetCooldown, err = time.ParseDuration(cfg.Auth.ResetCooldownRaw)
		if err != nil {
			return fmt.Errorf("parsing reset_cooldown %q: %w", cfg.Auth.ResetCooldownRaw, err)
		}
	}

	return nil
}

// DefaultPath returns where the config file is looked up.
// Priority: FITLIFE_CONFIG env var > XDG_CONFIG_HOME/fitlife/config.yaml > ~/.config/fitlife/config.yaml
func DefaultPath() string {
	if envPath := os.Getenv(EnvConfigPath); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "config.yaml"
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "fitlife", "config.yaml")
}
