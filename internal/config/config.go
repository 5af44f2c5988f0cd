// Package config loads service configuration from defaults, an optional YAML
// file, a .env file and TEAMREG_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/Shivanand-hulikatti/team-registration/internal/model"
)

// EnvPrefix prefixes every environment variable read by Load.
const EnvPrefix = "TEAMREG"

// Config is the full service configuration.
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Database DatabaseConfig `mapstructure:"database"`
	Event    EventConfig    `mapstructure:"event"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Security SecurityConfig `mapstructure:"security"`
	Log      LogConfig      `mapstructure:"log"`
}

type HTTPConfig struct {
	Port         string        `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig points at PostgreSQL. An empty URL keeps all state in memory.
type DatabaseConfig struct {
	URL     string `mapstructure:"url"`
	Migrate bool   `mapstructure:"migrate"`
}

// EventConfig seeds the event configuration on first start.
type EventConfig struct {
	MaxCapacity int    `mapstructure:"max_capacity"`
	Name        string `mapstructure:"name"`
	ServerID    string `mapstructure:"server_id"`
	ServerLabel string `mapstructure:"server_label"`
}

type AuthConfig struct {
	Admins []string `mapstructure:"admins"`
}

type SecurityConfig struct {
	TokenTTL      time.Duration `mapstructure:"token_ttl"`
	ClientVersion string        `mapstructure:"client_version"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Port:         "8080",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Database: DatabaseConfig{Migrate: true},
		Event: EventConfig{
			MaxCapacity: 96,
			Name:        "Gaming Event",
			ServerLabel: "Discord Server",
		},
		Security: SecurityConfig{
			TokenTTL:      24 * time.Hour,
			ClientVersion: "1.0.0",
		},
		Log: LogConfig{Level: "info", Format: "text"},
	}
}

// SetDefaults registers Defaults() on v so file and env values layer over them.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("http.port", d.HTTP.Port)
	v.SetDefault("http.read_timeout", d.HTTP.ReadTimeout)
	v.SetDefault("http.write_timeout", d.HTTP.WriteTimeout)
	v.SetDefault("http.idle_timeout", d.HTTP.IdleTimeout)
	v.SetDefault("database.url", d.Database.URL)
	v.SetDefault("database.migrate", d.Database.Migrate)
	v.SetDefault("event.max_capacity", d.Event.MaxCapacity)
	v.SetDefault("event.name", d.Event.Name)
	v.SetDefault("event.server_id", d.Event.ServerID)
	v.SetDefault("event.server_label", d.Event.ServerLabel)
	v.SetDefault("auth.admins", []string{})
	v.SetDefault("security.token_ttl", d.Security.TokenTTL)
	v.SetDefault("security.client_version", d.Security.ClientVersion)
	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
}

// Load reads configuration into a Config. cfgFile may be empty, in which
// case ./teamreg.yaml is used when present. A .env file in the working
// directory is loaded into the environment first.
func Load(v *viper.Viper, cfgFile string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("teamreg")
		v.SetConfigType("yaml")
	}
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.Auth.Admins = splitList(strings.Join(cfg.Auth.Admins, ","))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values a running service cannot do without.
func (c Config) Validate() error {
	if c.HTTP.Port == "" {
		return errors.New("config: http.port is required")
	}
	if c.Event.MaxCapacity <= 0 {
		return fmt.Errorf("config: event.max_capacity must be positive, got %d", c.Event.MaxCapacity)
	}
	if c.Security.TokenTTL <= 0 {
		return errors.New("config: security.token_ttl must be positive")
	}
	return nil
}

// InitialEventConfig is the event configuration used when none is persisted.
func (c Config) InitialEventConfig() model.EventConfig {
	return model.EventConfig{
		MaxCapacity: c.Event.MaxCapacity,
		EventName:   c.Event.Name,
		ServerID:    c.Event.ServerID,
		ServerLabel: c.Event.ServerLabel,
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
