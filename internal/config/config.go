// Package config loads the TOML configuration shared by the sandbox server and the
// checkout CLI. Values from the environment, or from a .env file, override the file.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/Masterminds/semver/v3"
	"github.com/joho/godotenv"

	"github.com/adyen/checkout-sessions-go/internal/common/validation"
	"github.com/adyen/checkout-sessions-go/internal/sandbox"
	"github.com/adyen/checkout-sessions-go/internal/sessions/savedstate"
)

// ConfigFormatVersion is the current version of the configuration file format.
const ConfigFormatVersion = "0.1.0"

// Environment overrides.
const (
	EnvClientKey = "CHECKOUT_CLIENT_KEY"
	EnvServerURL = "CHECKOUT_SERVER_URL"
	EnvStateDSN  = "CHECKOUT_STATE_DSN"
	EnvLogLevel  = "CHECKOUT_LOG_LEVEL"
)

// ServerConfig holds sandbox server settings.
type ServerConfig struct {
	HostName   string `toml:"hostname" validate:"required"`
	Port       string `toml:"port" validate:"required,numeric"`
	HandleCORS bool   `toml:"handle_cors"`
}

// Addr returns host:port to listen on.
func (s *ServerConfig) Addr() string {
	return net.JoinHostPort(s.HostName, s.Port)
}

// ClientConfig holds settings for reaching the sessions API.
type ClientConfig struct {
	ServerURL      string `toml:"server_url" validate:"required,url"`
	ClientKey      string `toml:"client_key" validate:"clientKey"`
	RequestTimeout string `toml:"request_timeout"`
	SetupRetries   uint   `toml:"setup_retries" validate:"gte=1"`

	requestTimeout time.Duration
}

func (c *ClientConfig) GetServerURL() string {
	return c.ServerURL
}

func (c *ClientConfig) GetClientKey() string {
	return c.ClientKey
}

func (c *ClientConfig) GetRequestTimeout() time.Duration {
	return c.requestTimeout
}

// SandboxConfig tunes the sandbox backend.
type SandboxConfig struct {
	GiftCardBalance  int64  `toml:"gift_card_balance" validate:"gte=0"`
	TransactionLimit int64  `toml:"transaction_limit" validate:"gte=0"`
	SessionTTL       string `toml:"session_ttl"`
	RequestTimeout   string `toml:"request_timeout"`
}

// StateConfig selects where session state is saved.
type StateConfig struct {
	Driver string `toml:"driver" validate:"oneof=memory file postgres"`
	Path   string `toml:"path"`
	DSN    string `toml:"dsn"`
	Table  string `toml:"table"`
}

// Config is the whole configuration file.
type Config struct {
	FormatVersion string `toml:"format_version" validate:"required"`
	LogLevel      string `toml:"log_level"`

	Server  ServerConfig  `toml:"server"`
	Client  ClientConfig  `toml:"client"`
	Sandbox SandboxConfig `toml:"sandbox"`
	State   StateConfig   `toml:"state"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		FormatVersion: ConfigFormatVersion,
		LogLevel:      "info",
		Server: ServerConfig{
			HostName: "127.0.0.1",
			Port:     "8680",
		},
		Client: ClientConfig{
			ServerURL:      "http://127.0.0.1:8680",
			RequestTimeout: "30s",
			SetupRetries:   3,
		},
		Sandbox: SandboxConfig{
			GiftCardBalance: sandbox.DefaultOptions().GiftCardBalance,
			SessionTTL:      "1h",
		},
		State: StateConfig{
			Driver: savedstate.DriverFile,
		},
	}
}

// Load reads filename on top of the defaults, applies environment overrides and
// validates the result. An empty filename uses the defaults alone.
func Load(filename string) (*Config, error) {
	cfg := Default()
	if filename != "" {
		content, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if _, err := toml.Decode(string(content), cfg); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := loadDotEnv(); err != nil {
		return nil, err
	}
	cfg.applyEnv()

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads .env from the working directory if there is one. Variables that are
// already set win.
func loadDotEnv() error {
	err := godotenv.Load()
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("error loading .env: %w", err)
	}
	return nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvClientKey); v != "" {
		c.Client.ClientKey = v
	}
	if v := os.Getenv(EnvServerURL); v != "" {
		c.Client.ServerURL = v
	}
	if v := os.Getenv(EnvStateDSN); v != "" {
		c.State.DSN = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = v
	}
}

var formatConstraint = mustConstraint("~" + ConfigFormatVersion)

func mustConstraint(c string) *semver.Constraints {
	constraint, err := semver.NewConstraint(c)
	if err != nil {
		panic(err)
	}
	return constraint
}

// Validate checks cfg and fills in derived values.
func Validate(cfg *Config) error {
	v, err := semver.NewVersion(cfg.FormatVersion)
	if err != nil || !formatConstraint.Check(v) {
		return fmt.Errorf("unsupported config file format version: %s", cfg.FormatVersion)
	}

	if err := validation.Struct(cfg); err != nil {
		return err
	}

	if cfg.Client.requestTimeout, err = parseOptionalDuration(cfg.Client.RequestTimeout); err != nil {
		return fmt.Errorf("invalid client.request_timeout: %v", err)
	}
	if _, err := parseOptionalDuration(cfg.Sandbox.SessionTTL); err != nil {
		return fmt.Errorf("invalid sandbox.session_ttl: %v", err)
	}
	if _, err := parseOptionalDuration(cfg.Sandbox.RequestTimeout); err != nil {
		return fmt.Errorf("invalid sandbox.request_timeout: %v", err)
	}

	switch cfg.State.Driver {
	case savedstate.DriverFile:
		if cfg.State.Path == "" {
			homeDir, err := os.UserHomeDir()
			if err != nil {
				return fmt.Errorf("error getting user home directory: %v", err)
			}
			cfg.State.Path = filepath.Join(homeDir, ".checkout", "state")
		}
	case savedstate.DriverPostgres:
		if cfg.State.DSN == "" {
			return fmt.Errorf("state.dsn is required for the postgres driver")
		}
	}
	return nil
}

// SandboxOptions converts the server and sandbox sections to sandbox options.
func (c *Config) SandboxOptions() sandbox.Options {
	opts := sandbox.DefaultOptions()
	opts.ClientKey = c.Client.ClientKey
	opts.GiftCardBalance = c.Sandbox.GiftCardBalance
	opts.TransactionLimit = c.Sandbox.TransactionLimit
	opts.HandleCORS = c.Server.HandleCORS
	if d, _ := parseOptionalDuration(c.Sandbox.SessionTTL); d > 0 {
		opts.SessionTTL = d
	}
	opts.RequestTimeout, _ = parseOptionalDuration(c.Sandbox.RequestTimeout)
	return opts
}

// SavedState returns the saved state settings.
func (c *Config) SavedState() savedstate.Config {
	return savedstate.Config{
		Driver: c.State.Driver,
		Path:   c.State.Path,
		DSN:    c.State.DSN,
		Table:  c.State.Table,
	}
}

func parseOptionalDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	return ParseDuration(s)
}

// ParseDuration accepts Go durations such as "90s" or "1h30m", and whole days as "<n>d".
func ParseDuration(input string) (time.Duration, error) {
	if days, ok := strings.CutSuffix(input, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("invalid number: %s", days)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(input)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration: %s", input)
	}
	return d, nil
}
