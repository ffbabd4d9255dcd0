package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Connection  ConnectionConfig            `mapstructure:"connection"`
	Connections map[string]ConnectionConfig `mapstructure:"connections"`
	Sampling    SamplingConfig              `mapstructure:"sampling"`
	Watch       WatchConfig                 `mapstructure:"watch"`
	Timeouts    TimeoutsConfig              `mapstructure:"timeouts"`
	Thresholds  ThresholdsConfig            `mapstructure:"thresholds"`
}

type ConnectionConfig struct {
	Addr     string `mapstructure:"addr"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	TLS      bool   `mapstructure:"tls"`
}

type SamplingConfig struct {
	SampleSize int  `mapstructure:"sample_size"`
	Skip       bool `mapstructure:"skip"`
}

type WatchConfig struct {
	Interval    time.Duration `mapstructure:"interval"`
	MetricsAddr string        `mapstructure:"metrics_addr"`
}

type TimeoutsConfig struct {
	Dial    time.Duration `mapstructure:"dial"`
	Command time.Duration `mapstructure:"command"`
}

// ThresholdsConfig mirrors checks.Thresholds; zero fields keep the
// built-in defaults.
type ThresholdsConfig struct {
	MemoryUtilizationWarnPct float64 `mapstructure:"memory_utilization_warn_pct"`
	MemoryUtilizationCritPct float64 `mapstructure:"memory_utilization_crit_pct"`
	FragmentationWarn        float64 `mapstructure:"fragmentation_warn"`
	FragmentationCrit        float64 `mapstructure:"fragmentation_crit"`
	HitRateWarnPct           float64 `mapstructure:"hit_rate_warn_pct"`
	HitRateCritPct           float64 `mapstructure:"hit_rate_crit_pct"`
	SlowlogWarn              int64   `mapstructure:"slowlog_warn"`
	SlowlogCrit              int64   `mapstructure:"slowlog_crit"`
	ClientUsageWarnPct       float64 `mapstructure:"client_usage_warn_pct"`
	ClientUsageCritPct       float64 `mapstructure:"client_usage_crit_pct"`
	NoTTLWarnPct             float64 `mapstructure:"no_ttl_warn_pct"`
}

func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("redisdoctor")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/redisdoctor")
	}

	v.SetEnvPrefix("REDISDOCTOR")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return defaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("connection.addr", "localhost:6379")
	v.SetDefault("sampling.sample_size", 1000)
	v.SetDefault("watch.interval", "5s")
	v.SetDefault("timeouts.dial", "10s")
	v.SetDefault("timeouts.command", "5s")
}

func defaultConfig() *Config {
	return &Config{
		Connection: ConnectionConfig{Addr: "localhost:6379"},
		Sampling:   SamplingConfig{SampleSize: 1000},
		Watch:      WatchConfig{Interval: 5 * time.Second},
		Timeouts: TimeoutsConfig{
			Dial:    10 * time.Second,
			Command: 5 * time.Second,
		},
	}
}

func (c *Config) Validate() error {
	if c.Connection.Addr == "" && len(c.Connections) == 0 {
		return fmt.Errorf("connection.addr is required")
	}
	if c.Sampling.SampleSize < 0 {
		return fmt.Errorf("sampling.sample_size must not be negative")
	}
	if c.Watch.Interval < 0 {
		return fmt.Errorf("watch.interval must not be negative")
	}
	return nil
}

// Resolve picks a named connection, or the default one when name is
// empty.
func (c *Config) Resolve(name string) (ConnectionConfig, error) {
	if name == "" {
		return c.Connection, nil
	}
	conn, ok := c.Connections[name]
	if !ok {
		return ConnectionConfig{}, fmt.Errorf("unknown connection %q", name)
	}
	return conn, nil
}
