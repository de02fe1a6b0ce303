package procinfo

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/HerbHall/procinfo/internal/collector"
	"github.com/HerbHall/procinfo/internal/config"
)

// Settings is the procinfo section of the configuration.
type Settings struct {
	// Enabled is kept undecoded so NewPlugin reports non-boolean values.
	Enabled    map[string]any `mapstructure:"-"`
	Timeout    time.Duration  `mapstructure:"timeout"`
	SpawnRate  float64        `mapstructure:"spawn_rate"`
	SpawnBurst int            `mapstructure:"spawn_burst"`
}

// LoadSettings decodes the "procinfo" subtree of cfg.
func LoadSettings(cfg config.Config) (Settings, error) {
	sub := cfg.Sub("procinfo")
	var s Settings
	if err := sub.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode procinfo settings: %w", err)
	}
	s.Enabled = sub.GetStringMap("enabled")
	return s, nil
}

// Policy returns the static category policy in the form NewPlugin accepts.
func (s Settings) Policy() map[string]any {
	policy := make(map[string]any, len(s.Enabled))
	for k, v := range s.Enabled {
		policy[k] = v
	}
	return policy
}

// CollectorOptions translates the settings into collector options.
func (s Settings) CollectorOptions() []collector.Option {
	opts := []collector.Option{collector.WithTimeout(s.Timeout)}
	if s.SpawnRate > 0 {
		burst := s.SpawnBurst
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, collector.WithSpawnLimit(rate.Limit(s.SpawnRate), burst))
	}
	return opts
}

// NewFromConfig builds a Plugin and its collector from cfg. extra options
// are applied after the configured ones.
func NewFromConfig(cfg config.Config, logger *zap.Logger, extra ...collector.Option) (*Plugin, error) {
	s, err := LoadSettings(cfg)
	if err != nil {
		return nil, err
	}
	opts := append(s.CollectorOptions(), extra...)
	c := collector.New(logger.Named("collector"), opts...)
	return NewPlugin(s.Policy(), c, logger.Named(MethodName))
}
