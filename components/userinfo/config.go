package userinfo

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigVersion is the current configuration document version.
const ConfigVersion = "1"

const defaultPollInterval = time.Second

// Config is the widget configuration document (YAML or JSON).
type Config struct {
	Version     string       `json:"version" yaml:"version"`
	SearchID    string       `json:"search_id" yaml:"search_id"`
	ContainerID string       `json:"container_id" yaml:"container_id"`
	Query       string       `json:"query,omitempty" yaml:"query,omitempty"`
	Locale      string       `json:"locale,omitempty" yaml:"locale,omitempty"`
	Messages    Messages     `json:"messages,omitzero" yaml:"messages,omitempty"`
	Splunk      SplunkConfig `json:"splunk,omitzero" yaml:"splunk,omitempty"`
	Source      string       `json:"-" yaml:"-"`
}

// SplunkConfig points the search runner at a Splunk management endpoint.
type SplunkConfig struct {
	BaseURL      string `json:"base_url,omitempty" yaml:"base_url,omitempty"`
	Token        string `json:"token,omitempty" yaml:"token,omitempty"`
	Username     string `json:"username,omitempty" yaml:"username,omitempty"`
	Password     string `json:"password,omitempty" yaml:"password,omitempty"`
	App          string `json:"app,omitempty" yaml:"app,omitempty"`
	Owner        string `json:"owner,omitempty" yaml:"owner,omitempty"`
	PollInterval string `json:"poll_interval,omitempty" yaml:"poll_interval,omitempty"`
}

// Enabled reports whether a Splunk endpoint is configured.
func (c SplunkConfig) Enabled() bool {
	return c.BaseURL != ""
}

// Interval parses PollInterval, defaulting to one second.
func (c SplunkConfig) Interval() (time.Duration, error) {
	if c.PollInterval == "" {
		return defaultPollInterval, nil
	}
	d, err := time.ParseDuration(c.PollInterval)
	if err != nil {
		return 0, fmt.Errorf("userinfo: parse splunk.poll_interval: %w", err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("userinfo: splunk.poll_interval must be positive")
	}
	return d, nil
}

// DefaultConfig returns a configuration with every default applied.
func DefaultConfig() Config {
	cfg := Config{}
	cfg.applyDefaults()
	return cfg
}

// LoadConfigFile reads, decodes, and validates a configuration file.
func LoadConfigFile(path string, validator ConfigValidator) (Config, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return Config{}, fmt.Errorf("userinfo: open config %s: %w", path, err)
	}
	defer f.Close()
	cfg, err := DecodeConfig(f, validator)
	if err != nil {
		return Config{}, fmt.Errorf("userinfo: decode config %s: %w", path, err)
	}
	cfg.Source = path
	return cfg, nil
}

// DecodeConfig reads a configuration document from any reader. Unknown keys are rejected.
func DecodeConfig(r io.Reader, validator ConfigValidator) (Config, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var cfg Config
	if err := decoder.Decode(&cfg); err != nil {
		if errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("userinfo: config is empty")
		}
		return Config{}, fmt.Errorf("userinfo: parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(validator); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the document against the widget schema.
func (c Config) Validate(validator ConfigValidator) error {
	if validator == nil {
		validator = NewJSONSchemaValidator()
	}
	payload, err := normalizeJSON(c)
	if err != nil {
		return fmt.Errorf("userinfo: normalize config: %w", err)
	}
	if err := validator.Validate(DefaultWidgetDefinition(), payload); err != nil {
		return err
	}
	if _, err := c.Splunk.Interval(); err != nil {
		return err
	}
	return nil
}

func (c *Config) applyDefaults() {
	if c.Version == "" {
		c.Version = ConfigVersion
	}
	if c.SearchID == "" {
		c.SearchID = DefaultSearchID
	}
	if c.ContainerID == "" {
		c.ContainerID = DefaultContainerID
	}
	if c.Query == "" {
		c.Query = DefaultQuery
	}
	c.Messages = c.Messages.withDefaults()
}
