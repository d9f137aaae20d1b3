package gokafka

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// Config is the single typed configuration object this client reads —
// collapsed from gollum's "plugin config keyed by an arbitrary YAML map"
// idiom to one struct with yaml tags, since there is exactly one
// configurable component here rather than an open plugin registry
// (spec.md §6 "Client configuration").
type Config struct {
	Host        string   `yaml:"host"`
	Port        int      `yaml:"port"`
	BrokerList  []string `yaml:"broker_list"`
	IPVersion   int      `yaml:"ip_version"` // 0 = auto, 4 or 6 to force

	TimeoutSeconds  float64 `yaml:"timeout"`
	SendMaxAttempts int     `yaml:"send_max_attempts"`
	RetryBackoffMs  int     `yaml:"retry_backoff_ms"`

	AutoCreateTopics     bool `yaml:"auto_create_topics"`
	MaxLoggedErrors      int  `yaml:"max_logged_errors"`
	DontLoadAPIVersions  bool `yaml:"dont_load_api_versions"`

	// RewriteInnerOffsets and LegacyWrapperKey correspond to the two Open
	// Questions recorded in DESIGN.md. RewriteInnerOffsets is applied by
	// Consumer.Fetch. LegacyWrapperKey is not read anywhere: the produce
	// encoder always copies the batch's last key into a compressed
	// batch's wrapper message, whatever this field says.
	RewriteInnerOffsets bool `yaml:"rewrite_inner_offsets"`
	LegacyWrapperKey    bool `yaml:"legacy_wrapper_key"`

	ClientID string `yaml:"client_id"`
}

// Timeout returns TimeoutSeconds as a time.Duration.
func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}

// RetryBackoff returns RetryBackoffMs as a time.Duration.
func (c *Config) RetryBackoff() time.Duration {
	return time.Duration(c.RetryBackoffMs) * time.Millisecond
}

// network returns the net.Dialer network name matching IPVersion.
func (c *Config) network() string {
	switch c.IPVersion {
	case 4:
		return "tcp4"
	case 6:
		return "tcp6"
	default:
		return "tcp"
	}
}

// DefaultConfig returns a Config with every default from spec.md §6
// applied; the caller still must set Host/Port or BrokerList.
func DefaultConfig() *Config {
	return &Config{
		TimeoutSeconds:      1.5,
		SendMaxAttempts:     4,
		RetryBackoffMs:      100,
		MaxLoggedErrors:     100,
		RewriteInnerOffsets: true,
		LegacyWrapperKey:    false,
		ClientID:            "gokafka",
	}
}

// bootstrapServers resolves Host/Port and BrokerList into one "host:port"
// list, preferring BrokerList when both are set.
func (c *Config) bootstrapServers() ([]string, *Error) {
	if len(c.BrokerList) > 0 {
		return c.BrokerList, nil
	}
	if c.Host != "" {
		port := c.Port
		if port == 0 {
			port = 9092
		}
		return []string{formatServerKey(c.Host, port)}, nil
	}
	return nil, newArgumentError("config must set host/port or broker_list")
}

func (c *Config) validate() *Error {
	if _, err := c.bootstrapServers(); err != nil {
		return err
	}
	if c.SendMaxAttempts < 1 {
		return newArgumentError("send_max_attempts must be >= 1, got %d", c.SendMaxAttempts)
	}
	return nil
}

// LoadConfig reads and unmarshals a YAML config file into a Config seeded
// with DefaultConfig's values: unmarshal into a typed struct, defaults
// applied before the file's overlay.
func LoadConfig(path string) (*Config, *Error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, wrapError(ErrArgument, fmt.Errorf("reading config %s: %w", path, err))
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return nil, wrapError(ErrArgument, fmt.Errorf("parsing config %s: %w", path, err))
	}
	if verr := cfg.validate(); verr != nil {
		return nil, verr
	}
	return cfg, nil
}
