// Package config loads the panel's own runtime settings (listen address,
// unit name, file paths, ...). The camera stream parameters are not here;
// they live in the stream config file managed by internal/repo.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/edirooss/picam-panel/pkg/hostutil"
	"github.com/spf13/viper"
)

// Config holds all runtime settings of the panel.
type Config struct {
	Env string `mapstructure:"env" yaml:"env"` // "prod" | "dev"

	HTTP struct {
		Address string `mapstructure:"address" yaml:"address"`
		Port    int    `mapstructure:"port" yaml:"port"`
	} `mapstructure:"http" yaml:"http"`

	Log struct {
		Level string `mapstructure:"level" yaml:"level"` // zap level name
	} `mapstructure:"log" yaml:"log"`

	Stream struct {
		Unit       string `mapstructure:"unit" yaml:"unit"`               // systemd unit of the streamer
		ConfigPath string `mapstructure:"config_path" yaml:"config_path"` // stream config JSON file
		Watch      bool   `mapstructure:"watch" yaml:"watch"`             // watch the file for changes
	} `mapstructure:"stream" yaml:"stream"`

	Telemetry struct {
		SampleWindow  time.Duration `mapstructure:"sample_window" yaml:"sample_window"`
		ThermalPath   string        `mapstructure:"thermal_path" yaml:"thermal_path"`
		MaxConcurrent int           `mapstructure:"max_concurrent" yaml:"max_concurrent"` // in-flight /api/system/stats requests
	} `mapstructure:"telemetry" yaml:"telemetry"`

	Process struct {
		Backend string `mapstructure:"backend" yaml:"backend"` // "systemctl" | "dbus"
	} `mapstructure:"process" yaml:"process"`

	System struct {
		RebootDelay time.Duration `mapstructure:"reboot_delay" yaml:"reboot_delay"`
	} `mapstructure:"system" yaml:"system"`

	Session struct {
		Secret string `mapstructure:"secret" yaml:"secret"` // cookie signing key
	} `mapstructure:"session" yaml:"session"`

	Redis struct {
		Address string `mapstructure:"address" yaml:"address"` // empty disables config-change events
		DB      int    `mapstructure:"db" yaml:"db"`
		Channel string `mapstructure:"channel" yaml:"channel"`
	} `mapstructure:"redis" yaml:"redis"`
}

// IsDev reports whether the panel runs in development mode.
func (c *Config) IsDev() bool { return c.Env == "dev" }

// ListenAddr returns host:port for the HTTP server.
func (c *Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.HTTP.Address, c.HTTP.Port)
}

// Validate rejects settings the panel cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if err := hostutil.ValidateHost(c.HTTP.Address); err != nil {
		errs = append(errs, fmt.Errorf("http.address: %w", err))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	if c.Stream.Unit == "" {
		errs = append(errs, errors.New("stream.unit is required"))
	}
	if c.Stream.ConfigPath == "" {
		errs = append(errs, errors.New("stream.config_path is required"))
	}
	switch c.Process.Backend {
	case "systemctl", "dbus":
	default:
		errs = append(errs, fmt.Errorf("process.backend %q: want systemctl or dbus", c.Process.Backend))
	}
	if c.Redis.Address != "" {
		if err := hostutil.ValidateHostPort(c.Redis.Address); err != nil {
			errs = append(errs, fmt.Errorf("redis.address: %w", err))
		}
	}
	if c.Telemetry.SampleWindow <= 0 {
		errs = append(errs, errors.New("telemetry.sample_window must be positive"))
	}
	return errors.Join(errs...)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("env", "prod")
	v.SetDefault("http.address", "0.0.0.0")
	v.SetDefault("http.port", 8080)
	v.SetDefault("log.level", "info")

	v.SetDefault("stream.unit", "pi_camera_stream")
	v.SetDefault("stream.config_path", "stream_config.json")
	v.SetDefault("stream.watch", true)

	v.SetDefault("telemetry.sample_window", 300*time.Millisecond)
	v.SetDefault("telemetry.thermal_path", "/sys/class/thermal/thermal_zone0/temp")
	v.SetDefault("telemetry.max_concurrent", 8)

	v.SetDefault("process.backend", "systemctl")
	v.SetDefault("system.reboot_delay", 2*time.Second)

	v.SetDefault("session.secret", "picam-panel-local-session") // TODO(security): generate per device on first start
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.channel", "picam:stream-config")
}

// Load reads settings from file (picam-panel.yaml in . or /etc/picam-panel,
// or the explicit path when non-empty) over built-in defaults. Environment
// variables prefixed PICAM_ override both, e.g. PICAM_HTTP_PORT=9090.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("picam-panel")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/picam-panel")
	}
	if err := v.ReadInConfig(); err != nil {
		// config file is optional unless given explicitly
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	v.SetEnvPrefix("PICAM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}
