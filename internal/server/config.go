package server

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Default listen settings.
const (
	DefaultHost = ""
	DefaultPort = 8080
)

// Account is the single login the server accepts.
type Account struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"` // bcrypt, see `assetdesk-server hash-password`
}

// Config holds the server configuration
type Config struct {
	Host         string  `yaml:"host"`
	Port         int     `yaml:"port"`
	CertPath     string  `yaml:"cert"` // TLS is enabled when both cert and key are set
	KeyPath      string  `yaml:"key"`
	LogLevel     string  `yaml:"log_level"`
	Account      Account `yaml:"account"`
	CSRFToken    string  `yaml:"csrf_token"` // rendered into the login page and required on POST /login
	DatabaseURL  string  `yaml:"database_url"`
	Advertise    bool    `yaml:"advertise"` // announce the server over mDNS
	InstanceName string  `yaml:"instance_name"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Host: DefaultHost,
		Port: DefaultPort,
	}
}

// LoadConfig reads a YAML configuration file over the defaults.
// Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(config); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", path, err)
	}
	return config, nil
}

// Validate checks the settings that cannot be fixed up later.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("port must be 0-65535, got %d", c.Port)
	}
	if (c.CertPath == "") != (c.KeyPath == "") {
		return errors.New("cert and key must be set together")
	}
	if c.Account.Username != "" && c.Account.PasswordHash == "" {
		return fmt.Errorf("account %q has no password_hash", c.Account.Username)
	}
	return nil
}

// TLSEnabled reports whether the server should serve HTTPS.
func (c *Config) TLSEnabled() bool {
	return c.CertPath != "" && c.KeyPath != ""
}

// Addr returns the listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
