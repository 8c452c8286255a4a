// Package config loads acsim settings from a YAML file, ACSIM_* environment
// variables and built-in defaults, in that order of precedence after flags.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. ACSIM_SIMULATION_POWER_KW.
const EnvPrefix = "ACSIM"

type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Simulation SimulationConfig `mapstructure:"simulation" yaml:"simulation"`
	MQTT       MQTTConfig       `mapstructure:"mqtt" yaml:"mqtt"`
	HA         HAConfig         `mapstructure:"homeassistant" yaml:"homeassistant"`
	Log        LogConfig        `mapstructure:"log" yaml:"log"`
}

type ServerConfig struct {
	Addr        string  `mapstructure:"addr" yaml:"addr"`
	FrontendDir string  `mapstructure:"frontend_dir" yaml:"frontend_dir"`
	MetricsPath string  `mapstructure:"metrics_path" yaml:"metrics_path"`
	RunsPerSec  float64 `mapstructure:"runs_per_sec" yaml:"runs_per_sec"`
	RunBurst    int     `mapstructure:"run_burst" yaml:"run_burst"`
}

// SimulationConfig holds the defaults offered to interactive clients and used
// by the CLI when a flag is not given.
type SimulationConfig struct {
	PowerKW   float64 `mapstructure:"power_kw" yaml:"power_kw"`
	StartHour int     `mapstructure:"start_hour" yaml:"start_hour"`
	EndHour   int     `mapstructure:"end_hour" yaml:"end_hour"`
	SetpointC float64 `mapstructure:"setpoint_c" yaml:"setpoint_c"`
	OutdoorC  float64 `mapstructure:"outdoor_c" yaml:"outdoor_c"`
}

type MQTTConfig struct {
	Broker   string `mapstructure:"broker" yaml:"broker"`
	ClientID string `mapstructure:"client_id" yaml:"client_id"`
	Topic    string `mapstructure:"topic" yaml:"topic"`
	Username string `mapstructure:"username" yaml:"username"`
	Password string `mapstructure:"password" yaml:"password"`
}

// HAConfig points at a Home Assistant instance used as an outdoor temperature source.
type HAConfig struct {
	URL      string `mapstructure:"url" yaml:"url"`
	Token    string `mapstructure:"token" yaml:"token"`
	EntityID string `mapstructure:"entity_id" yaml:"entity_id"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// SetDefaults registers every key with its default so that env overrides and
// AllSettings see the full key set.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.frontend_dir", "")
	v.SetDefault("server.metrics_path", "/metrics")
	v.SetDefault("server.runs_per_sec", 5.0)
	v.SetDefault("server.run_burst", 10)

	v.SetDefault("simulation.power_kw", 3.52)
	v.SetDefault("simulation.start_hour", 8)
	v.SetDefault("simulation.end_hour", 20)
	v.SetDefault("simulation.setpoint_c", 24.0)
	v.SetDefault("simulation.outdoor_c", 30.0)

	v.SetDefault("mqtt.broker", "")
	v.SetDefault("mqtt.client_id", "acsim")
	v.SetDefault("mqtt.topic", "acsim")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")

	v.SetDefault("homeassistant.url", "")
	v.SetDefault("homeassistant.token", "")
	v.SetDefault("homeassistant.entity_id", "sensor.outdoor_temperature")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// NewViper returns a viper instance with defaults and env binding set up.
// When path is non-empty the file is read; a missing file is an error.
// When path is empty, acsim.yaml is looked up in the working directory and
// silently skipped if absent.
func NewViper(path string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		return v, nil
	}

	v.SetConfigName("acsim")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return v, nil
}

// Decode unmarshals v into a Config.
func Decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	return &cfg, nil
}

// Load is NewViper followed by Decode.
func Load(path string) (*Config, error) {
	v, err := NewViper(path)
	if err != nil {
		return nil, err
	}
	return Decode(v)
}
