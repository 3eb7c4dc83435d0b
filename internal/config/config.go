package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dgallion1/navflat/internal/flatten"
	"github.com/dgallion1/navflat/internal/menutree"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override: server.api_key is read
// from NAVFLAT_SERVER_API_KEY.
const EnvPrefix = "NAVFLAT"

type Config struct {
	Server  ServerConfig    `mapstructure:"server"`
	Store   StoreConfig     `mapstructure:"store"`
	Flatten FlattenSettings `mapstructure:"flatten"`
	Log     LogConfig       `mapstructure:"log"`
}

type ServerConfig struct {
	Port   string `mapstructure:"port" validate:"required,numeric"`
	APIKey string `mapstructure:"api_key"`

	// Upload limits
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes" validate:"gt=0"`

	// Parse+flatten jobs run at once by the batch endpoint.
	BatchConcurrency int `mapstructure:"batch_concurrency" validate:"gte=1,lte=64"`
}

type StoreConfig struct {
	TTL             time.Duration `mapstructure:"ttl" validate:"gt=0"`
	MaxMenus        int           `mapstructure:"max_menus" validate:"gte=1"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval" validate:"gt=0"`
}

// FlattenSettings are the textual flatten options shared by config files,
// CLI flags and query parameters.
type FlattenSettings struct {
	KeyField string `mapstructure:"key_field" validate:"oneof=id label"`
	OnCycle  string `mapstructure:"on_cycle" validate:"oneof=fail skip"`
	Strategy string `mapstructure:"strategy" validate:"oneof=stack worklist recursive"`
}

type LogConfig struct {
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`
}

var validate = validator.New()

// Load reads defaults, then the YAML file at path (if path is non-empty),
// then NAVFLAT_* environment variables.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8090")
	v.SetDefault("server.api_key", "")
	v.SetDefault("server.max_upload_bytes", 5<<20)
	v.SetDefault("server.batch_concurrency", 4)

	v.SetDefault("store.ttl", time.Hour)
	v.SetDefault("store.max_menus", 1000)
	v.SetDefault("store.cleanup_interval", 5*time.Minute)

	v.SetDefault("flatten.key_field", "id")
	v.SetDefault("flatten.on_cycle", "fail")
	v.SetDefault("flatten.strategy", "stack")

	v.SetDefault("log.level", "info")
}

// Validate checks every field against its constraints.
func (c Config) Validate() error {
	return validate.Struct(c)
}

// ValidateServer is Validate plus the settings only the HTTP server needs.
func (c Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.Server.APIKey == "" {
		return errors.New("NAVFLAT_SERVER_API_KEY is required")
	}
	return nil
}

// Override returns s with every non-empty argument replacing its field.
func (s FlattenSettings) Override(keyField, onCycle, strategy string) FlattenSettings {
	if keyField != "" {
		s.KeyField = keyField
	}
	if onCycle != "" {
		s.OnCycle = onCycle
	}
	if strategy != "" {
		s.Strategy = strategy
	}
	return s
}

// String renders s as key/strategy/on_cycle, the form stored alongside
// flattened menus.
func (s FlattenSettings) String() string {
	return s.KeyField + "/" + s.Strategy + "/" + s.OnCycle
}

// Build converts s into a flatten.Config. With on_cycle=skip every dropped
// branch is appended to report, which may be nil.
func (s FlattenSettings) Build(report *[]*menutree.CyclicStructureError) (flatten.Config, error) {
	key, err := menutree.ParseKeyField(s.KeyField)
	if err != nil {
		return flatten.Config{}, err
	}
	strategy, err := flatten.ParseStrategy(s.Strategy)
	if err != nil {
		return flatten.Config{}, err
	}
	cfg := flatten.Config{KeyField: key, Strategy: strategy}
	switch s.OnCycle {
	case "", "fail":
	case "skip":
		cfg.OnCycle = flatten.SkipCycles(report)
	default:
		return flatten.Config{}, fmt.Errorf("unknown on_cycle %q (want fail or skip)", s.OnCycle)
	}
	return cfg, nil
}

// SlogLevel maps the configured level name to a slog.Level.
func (l LogConfig) SlogLevel() slog.Level {
	switch l.Level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
