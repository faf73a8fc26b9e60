package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/sfsbridge/core/factory"
	"github.com/kilianp07/sfsbridge/core/metrics"
	coremqtt "github.com/kilianp07/sfsbridge/core/mqtt"
	"github.com/kilianp07/sfsbridge/infra/logger"
	"github.com/kilianp07/sfsbridge/infra/mqtt"
)

// EnvPrefix prefixes environment overrides; SFS_MQTT__HOST sets mqtt.host.
const EnvPrefix = "SFS_"

const (
	DefaultPort        = 1883
	DefaultTopicPrefix = "homeassistant"
	clientIDPrefix     = "cc_sfs_"
	redacted           = "********"
)

type Config struct {
	MQTT    coremqtt.Settings    `json:"mqtt" yaml:"mqtt"`
	Session mqtt.Config          `json:"session" yaml:"session"`
	Bridge  BridgeConfig         `json:"bridge" yaml:"bridge"`
	Logging logger.Config        `json:"logging" yaml:"logging"`
	Metrics metrics.Config       `json:"metrics" yaml:"metrics"`
	Sentry  SentryConfig         `json:"sentry" yaml:"sentry"`
	Link    factory.ModuleConfig `json:"link" yaml:"link"`
}

// Load reads the configuration file at path, applies environment overrides
// and defaults, then validates the result. An empty path loads from the
// environment only.
func Load(path string) (*Config, error) {
	k, err := load(path)
	if err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parserFor(path string) (koanf.Parser, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Parser(), nil
	case ".json":
		return json.Parser(), nil
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
}

func load(path string) (*koanf.Koanf, error) {
	k := koanf.New(".")
	if path != "" {
		parser, err := parserFor(path)
		if err != nil {
			return nil, err
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	return k, nil
}

// SetDefaults fills unset fields.
func (c *Config) SetDefaults() {
	setMQTTDefaults(&c.MQTT)
	c.Bridge.SetDefaults()
	c.Logging.SetDefaults()
}

func setMQTTDefaults(s *coremqtt.Settings) {
	if s.Port == 0 {
		s.Port = DefaultPort
	}
	if s.TopicPrefix == "" {
		s.TopicPrefix = DefaultTopicPrefix
	}
	if s.ClientID == "" {
		s.ClientID = DefaultClientID()
	}
}

// DefaultClientID returns a fresh client identifier of the form cc_sfs_xxxxxxxx.
func DefaultClientID() string {
	return clientIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.MQTT.Validate(); err != nil {
		return err
	}
	if err := c.Bridge.Validate(); err != nil {
		return err
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return c.Sentry.Validate()
}

// Redacted returns a copy with secrets masked, suitable for printing.
func (c Config) Redacted() Config {
	c.MQTT = c.MQTT.Redacted()
	if c.Sentry.DSN != "" {
		c.Sentry.DSN = redacted
	}
	sinks := make([]factory.ModuleConfig, len(c.Metrics.Sinks))
	for i, s := range c.Metrics.Sinks {
		sinks[i] = factory.ModuleConfig{Type: s.Type, Conf: redactConf(s.Conf)}
	}
	c.Metrics.Sinks = sinks
	return c
}

func redactConf(conf map[string]any) map[string]any {
	if conf == nil {
		return nil
	}
	out := make(map[string]any, len(conf))
	for k, v := range conf {
		switch strings.ToLower(k) {
		case "token", "password", "secret":
			out[k] = redacted
		default:
			out[k] = v
		}
	}
	return out
}
