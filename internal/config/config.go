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
	"gopkg.in/yaml.v3"
)

// EnvPrefix prefixes the environment variables read by ApplyEnv.
const EnvPrefix = "IRCC_"

// Config holds all client configuration
type Config struct {
	Server      string `yaml:"server" toml:"server"`
	Port        int    `yaml:"port" toml:"port"`
	TLS         bool   `yaml:"tls" toml:"tls"`
	TLSInsecure bool   `yaml:"tls_insecure" toml:"tls_insecure"`
	ServerPass  string `yaml:"server_pass" toml:"server_pass"`

	Nick      string `yaml:"nick" toml:"nick"`
	Alternate string `yaml:"alternate" toml:"alternate"`
	Username  string `yaml:"username" toml:"username"`
	IRCName   string `yaml:"irc_name" toml:"irc_name"`

	Channels []string `yaml:"channels" toml:"channels"`

	AutoReconnect *bool     `yaml:"auto_reconnect" toml:"auto_reconnect"`
	Reconnect     Reconnect `yaml:"reconnect" toml:"reconnect"`

	// SendRate is the outbound line budget per second, 0 for unthrottled.
	SendRate    float64       `yaml:"send_rate" toml:"send_rate"`
	SendBurst   int           `yaml:"send_burst" toml:"send_burst"`
	DialTimeout time.Duration `yaml:"dial_timeout" toml:"dial_timeout"`

	LogLevel    string `yaml:"log_level" toml:"log_level"`
	LogFile     string `yaml:"log_file" toml:"log_file"`
	MetricsAddr string `yaml:"metrics_addr" toml:"metrics_addr"`
}

// Reconnect bounds the reconnect loop
type Reconnect struct {
	InitialDelay time.Duration `yaml:"initial_delay" toml:"initial_delay"`
	MaxDelay     time.Duration `yaml:"max_delay" toml:"max_delay"`
	Multiplier   float64       `yaml:"multiplier" toml:"multiplier"`
	MaxAttempts  *int          `yaml:"max_attempts" toml:"max_attempts"`
	Jitter       *bool         `yaml:"jitter" toml:"jitter"`
}

// Load reads a configuration file. Files ending in .toml are decoded as
// TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		return ParseTOML(data)
	}
	return Parse(data)
}

// ParseTOML is Parse for TOML input.
func ParseTOML(data []byte) (*Config, error) {
	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// Parse decodes YAML and applies defaults. Validation is left to the
// caller so command line overrides can fill required fields first.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.SetDefaults()
	return &cfg, nil
}

// ApplyEnv overrides connection settings from IRCC_* variables, so
// secrets such as the server password can stay out of the file.
func (c *Config) ApplyEnv() error {
	strs := map[string]*string{
		"SERVER":      &c.Server,
		"SERVER_PASS": &c.ServerPass,
		"NICK":        &c.Nick,
		"ALTERNATE":   &c.Alternate,
		"USERNAME":    &c.Username,
		"IRC_NAME":    &c.IRCName,
		"LOG_LEVEL":   &c.LogLevel,
		"LOG_FILE":    &c.LogFile,
	}
	for key, dst := range strs {
		if v, ok := os.LookupEnv(EnvPrefix + key); ok {
			*dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvPrefix + "PORT"); ok {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sPORT: %w", EnvPrefix, err)
		}
		c.Port = port
	}
	if v, ok := os.LookupEnv(EnvPrefix + "TLS"); ok {
		on, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sTLS: %w", EnvPrefix, err)
		}
		c.TLS = on
	}
	if v, ok := os.LookupEnv(EnvPrefix + "CHANNELS"); ok {
		c.Channels = strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ' ' })
	}
	return nil
}

// SetDefaults fills every unset field
func (c *Config) SetDefaults() {
	if c.Port == 0 {
		c.Port = 6667
		if c.TLS {
			c.Port = 6697
		}
	}
	if c.Username == "" {
		c.Username = "guest"
	}
	if c.IRCName == "" {
		c.IRCName = "Guest"
	}
	if c.AutoReconnect == nil {
		on := true
		c.AutoReconnect = &on
	}
	if c.Reconnect.InitialDelay == 0 {
		c.Reconnect.InitialDelay = time.Second
	}
	if c.Reconnect.MaxDelay == 0 {
		c.Reconnect.MaxDelay = time.Minute
	}
	if c.Reconnect.Multiplier == 0 {
		c.Reconnect.Multiplier = 2.0
	}
	if c.Reconnect.MaxAttempts == nil {
		n := 10
		c.Reconnect.MaxAttempts = &n
	}
	if c.Reconnect.Jitter == nil {
		on := true
		c.Reconnect.Jitter = &on
	}
	if c.SendRate > 0 && c.SendBurst <= 0 {
		c.SendBurst = 4
	}
	if c.DialTimeout == 0 {
		c.DialTimeout = 30 * time.Second
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}

// Validate reports every invalid setting at once
func (c *Config) Validate() error {
	var errs []error
	if c.Server == "" {
		errs = append(errs, errors.New("server is required"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if c.Nick == "" {
		errs = append(errs, errors.New("nick is required"))
	}
	if c.SendRate < 0 {
		errs = append(errs, errors.New("send_rate must not be negative"))
	}
	if c.Reconnect.MaxAttempts != nil && *c.Reconnect.MaxAttempts < 0 {
		errs = append(errs, errors.New("reconnect.max_attempts must not be negative"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// Addr returns host:port
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Server, strconv.Itoa(c.Port))
}

// Reconnects reports whether auto-reconnect is on
func (c *Config) Reconnects() bool {
	return c.AutoReconnect == nil || *c.AutoReconnect
}
