package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adyen/checkout-sessions-go/internal/common/httpclient"
	"github.com/adyen/checkout-sessions-go/internal/sessions/savedstate"
)

var _ httpclient.Configurator = (*ClientConfig)(nil)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "checkout.conf")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const sampleConfig = `
format_version = "0.1.0"
log_level = "debug"

[server]
hostname = "0.0.0.0"
port = "9000"
handle_cors = true

[client]
server_url = "http://localhost:9000"
client_key = "test_ABC123"
request_timeout = "5s"
setup_retries = 2

[sandbox]
gift_card_balance = 2500
transaction_limit = 1000
session_ttl = "2d"
request_timeout = "10s"

[state]
driver = "memory"
`

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "0.0.0.0:9000", cfg.Server.Addr())
	assert.Equal(t, "http://localhost:9000", cfg.Client.GetServerURL())
	assert.Equal(t, "test_ABC123", cfg.Client.GetClientKey())
	assert.Equal(t, 5*time.Second, cfg.Client.GetRequestTimeout())
	assert.Equal(t, uint(2), cfg.Client.SetupRetries)

	opts := cfg.SandboxOptions()
	assert.Equal(t, int64(2500), opts.GiftCardBalance)
	assert.Equal(t, int64(1000), opts.TransactionLimit)
	assert.Equal(t, 48*time.Hour, opts.SessionTTL)
	assert.Equal(t, 10*time.Second, opts.RequestTimeout)
	assert.Equal(t, "test_ABC123", opts.ClientKey)
	assert.True(t, opts.HandleCORS)

	assert.Equal(t, savedstate.Config{Driver: savedstate.DriverMemory}, cfg.SavedState())
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8680", cfg.Server.Addr())
	assert.Equal(t, 30*time.Second, cfg.Client.GetRequestTimeout())
	assert.Equal(t, savedstate.DriverFile, cfg.State.Driver)
	assert.Equal(t, filepath.Join(os.Getenv("HOME"), ".checkout", "state"), cfg.State.Path)
	assert.Equal(t, time.Hour, cfg.SandboxOptions().SessionTTL)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv(EnvClientKey, "test_FROMENV")
	t.Setenv(EnvServerURL, "http://sandbox.internal:8680")
	t.Setenv(EnvLogLevel, "warn")

	cfg, err := Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)
	assert.Equal(t, "test_FROMENV", cfg.Client.ClientKey)
	assert.Equal(t, "http://sandbox.internal:8680", cfg.Client.ServerURL)
	assert.Equal(t, "warn", cfg.LogLevel)
}

func TestInvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
		errMsg  string
	}{
		{
			name:    "unsupported format version",
			content: "format_version = \"1.0.0\"",
			errMsg:  "unsupported config file format version: 1.0.0",
		},
		{
			name:    "bad client key",
			content: "format_version = \"0.1.0\"\n[client]\nclient_key = \"secret\"",
			errMsg:  "client.client_key must look like test_XXX or live_XXX",
		},
		{
			name:    "unknown driver",
			content: "format_version = \"0.1.0\"\n[state]\ndriver = \"redis\"",
			errMsg:  "state.driver must be one of [memory file postgres]",
		},
		{
			name:    "postgres without dsn",
			content: "format_version = \"0.1.0\"\n[state]\ndriver = \"postgres\"",
			errMsg:  "state.dsn is required for the postgres driver",
		},
		{
			name:    "bad timeout",
			content: "format_version = \"0.1.0\"\n[client]\nrequest_timeout = \"soon\"",
			errMsg:  "invalid client.request_timeout",
		},
		{
			name:    "not toml",
			content: "format_version = ",
			errMsg:  "error parsing config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.conf"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "90s", want: 90 * time.Second},
		{in: "1h30m", want: 90 * time.Minute},
		{in: "3d", want: 72 * time.Hour},
		{in: "xd", wantErr: true},
		{in: "-1d", wantErr: true},
		{in: "-5s", wantErr: true},
		{in: "5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDuration(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
