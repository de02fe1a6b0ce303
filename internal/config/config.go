// Package config wraps Viper behind a small read-only interface and loads
// procinfo settings from file and environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes environment overrides, e.g. PROCINFO_PROCINFO_TIMEOUT.
const EnvPrefix = "PROCINFO"

// Config is read access to a configuration tree.
type Config interface {
	GetString(key string) string
	GetInt(key string) int
	GetDuration(key string) time.Duration
	GetStringMap(key string) map[string]any
	Sub(key string) Config
	Unmarshal(target any) error
}

// ViperConfig implements Config on top of a Viper instance.
type ViperConfig struct {
	v *viper.Viper
}

// Compile-time guard.
var _ Config = (*ViperConfig)(nil)

// New wraps v. A nil v behaves as an empty configuration.
func New(v *viper.Viper) *ViperConfig {
	if v == nil {
		v = viper.New()
	}
	return &ViperConfig{v: v}
}

func (c *ViperConfig) GetString(key string) string            { return c.v.GetString(key) }
func (c *ViperConfig) GetInt(key string) int                  { return c.v.GetInt(key) }
func (c *ViperConfig) GetDuration(key string) time.Duration   { return c.v.GetDuration(key) }
func (c *ViperConfig) GetStringMap(key string) map[string]any { return c.v.GetStringMap(key) }

// Sub returns the subtree at key, or an empty Config when key is absent.
func (c *ViperConfig) Sub(key string) Config {
	return New(c.v.Sub(key))
}

// Unmarshal decodes the whole tree into target using mapstructure tags.
func (c *ViperConfig) Unmarshal(target any) error {
	return c.v.Unmarshal(target)
}

// Load reads the config file at path (any format Viper understands) and
// applies PROCINFO_ environment overrides. An empty path loads defaults and
// environment only.
func Load(path string) (*viper.Viper, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path == "" {
		return v, nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("config file %s not found: %w", path, err)
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	return v, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log.level", "info")
	v.SetDefault("metlog.logger", "procinfo")
	v.SetDefault("metlog.sender", "zap")
	v.SetDefault("metlog.mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("metlog.mqtt.topic", "metlog/procinfo")
	v.SetDefault("metlog.mqtt.qos", 1)
	v.SetDefault("metlog.mqtt.timeout", "5s")
	v.SetDefault("procinfo.timeout", "30s")
	v.SetDefault("procinfo.spawn_rate", 0)
	v.SetDefault("procinfo.spawn_burst", 1)
}
