package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte("server: irc.example.net\nnick: gopher\n"))
	require.NoError(t, err)

	assert.Equal(t, 6667, cfg.Port)
	assert.Equal(t, "guest", cfg.Username)
	assert.Equal(t, "Guest", cfg.IRCName)
	assert.True(t, cfg.Reconnects())
	assert.Equal(t, time.Second, cfg.Reconnect.InitialDelay)
	assert.Equal(t, time.Minute, cfg.Reconnect.MaxDelay)
	assert.Equal(t, 2.0, cfg.Reconnect.Multiplier)
	assert.Equal(t, 10, *cfg.Reconnect.MaxAttempts)
	assert.True(t, *cfg.Reconnect.Jitter)
	assert.Zero(t, cfg.SendRate)
	assert.Zero(t, cfg.SendBurst)
	assert.Equal(t, 30*time.Second, cfg.DialTimeout)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "irc.example.net:6667", cfg.Addr())
	assert.NoError(t, cfg.Validate())
}

func TestParseTLSDefaultPort(t *testing.T) {
	cfg, err := Parse([]byte("server: irc.example.net\nnick: gopher\ntls: true\n"))
	require.NoError(t, err)
	assert.Equal(t, 6697, cfg.Port)
}

func TestParseExplicitValues(t *testing.T) {
	data := []byte(`
server: "2001:db8::1"
port: 7000
nick: gopher
alternate: gopher_
channels: ["#go", "#dalnet"]
auto_reconnect: false
reconnect:
  initial_delay: 250ms
  max_delay: 5s
  max_attempts: 0
  jitter: false
send_rate: 2
dial_timeout: 10s
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.False(t, cfg.Reconnects())
	assert.Equal(t, []string{"#go", "#dalnet"}, cfg.Channels)
	assert.Equal(t, 250*time.Millisecond, cfg.Reconnect.InitialDelay)
	assert.Equal(t, 5*time.Second, cfg.Reconnect.MaxDelay)
	assert.Equal(t, 0, *cfg.Reconnect.MaxAttempts)
	assert.False(t, *cfg.Reconnect.Jitter)
	assert.Equal(t, 4, cfg.SendBurst)
	assert.Equal(t, 10*time.Second, cfg.DialTimeout)
	assert.Equal(t, "[2001:db8::1]:7000", cfg.Addr())
}

func TestValidateCollectsErrors(t *testing.T) {
	cfg := &Config{Port: 70000, SendRate: -1}
	err := cfg.Validate()
	require.Error(t, err)

	for _, want := range []string{"server is required", "nick is required", "port 70000 out of range", "send_rate"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ircc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: irc.example.net\nnick: gopher\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "gopher", cfg.Nick)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, os.WriteFile(path, []byte("server: [unclosed\n"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ircc.toml")
	data := `server = "irc.example.net"
nick = "gopher"
tls = true
channels = ["#go"]

[reconnect]
initial_delay = "2s"
max_attempts = 3
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "irc.example.net", cfg.Server)
	assert.Equal(t, 6697, cfg.Port)
	assert.Equal(t, []string{"#go"}, cfg.Channels)
	assert.Equal(t, 2*time.Second, cfg.Reconnect.InitialDelay)
	assert.Equal(t, 3, *cfg.Reconnect.MaxAttempts)
	assert.Equal(t, time.Minute, cfg.Reconnect.MaxDelay)
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("IRCC_SERVER_PASS", "sekrit")
	t.Setenv("IRCC_NICK", "envnick")
	t.Setenv("IRCC_PORT", "7000")
	t.Setenv("IRCC_TLS", "true")
	t.Setenv("IRCC_CHANNELS", "#a, #b")

	cfg, err := Parse([]byte("server: irc.example.net\nnick: gopher\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.ApplyEnv())

	assert.Equal(t, "sekrit", cfg.ServerPass)
	assert.Equal(t, "envnick", cfg.Nick)
	assert.Equal(t, 7000, cfg.Port)
	assert.True(t, cfg.TLS)
	assert.Equal(t, []string{"#a", "#b"}, cfg.Channels)
	assert.Equal(t, "irc.example.net", cfg.Server)
}

func TestApplyEnvRejectsBadPort(t *testing.T) {
	t.Setenv("IRCC_PORT", "sixsixsixseven")

	cfg := &Config{}
	assert.ErrorContains(t, cfg.ApplyEnv(), "IRCC_PORT")
}
