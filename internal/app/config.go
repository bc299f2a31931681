package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"
)

// EnvPrefix selects environment overrides: NFG_DATA_KIND sets data.kind.
const EnvPrefix = "NFG_"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Registry    RegistryConfig    `koanf:"registry"`
	Data        DataConfig        `koanf:"data"`
	Fetch       FetchConfig       `koanf:"fetch"`
	Log         LogConfig         `koanf:"log"`
	Healthcheck HealthcheckConfig `koanf:"healthcheck"`
}

type RegistryConfig struct {
	Paths []string `koanf:"paths" validate:"required,min=1,dive,required"`
	Watch bool     `koanf:"watch"`
}

type DataConfig struct {
	Kind string `koanf:"kind" validate:"oneof=memory sqlite remote"`
	// Path is a YAML fixture for memory and a DSN for sqlite.
	Path      string        `koanf:"path" validate:"required_if=Kind sqlite"`
	URL       string        `koanf:"url" validate:"required_if=Kind remote"`
	Namespace string        `koanf:"namespace"`
	Timeout   time.Duration `koanf:"timeout" validate:"min=0"`
}

type FetchConfig struct {
	Concurrency int  `koanf:"concurrency" validate:"min=1"`
	Prefetch    bool `koanf:"prefetch"`
}

type LogConfig struct {
	Level  string `koanf:"level" validate:"oneof=debug info warn error"`
	Format string `koanf:"format" validate:"oneof=text json"`
}

type HealthcheckConfig struct {
	// Port 0 disables the health check server.
	Port int `koanf:"port" validate:"min=0,max=65535"`
}

func defaults() map[string]any {
	return map[string]any{
		"registry.paths":    []string{"registry"},
		"registry.watch":    false,
		"data.kind":         "memory",
		"data.timeout":      "10s",
		"fetch.concurrency": 8,
		"fetch.prefetch":    true,
		"log.level":         "info",
		"log.format":        "text",
		"healthcheck.port":  0,
	}
}

// flagKeys maps CLI flag names to config keys. Unlisted flags are not
// configuration.
var flagKeys = map[string]string{
	"registry":         "registry.paths",
	"watch":            "registry.watch",
	"data-kind":        "data.kind",
	"data-path":        "data.path",
	"data-url":         "data.url",
	"data-namespace":   "data.namespace",
	"data-timeout":     "data.timeout",
	"concurrency":      "fetch.concurrency",
	"prefetch":         "fetch.prefetch",
	"log-level":        "log.level",
	"log-format":       "log.format",
	"healthcheck-port": "healthcheck.port",
}

// LoadConfig layers defaults, the optional YAML file, NFG_ environment
// variables and explicitly set flags, in increasing priority, then
// validates the result.
func LoadConfig(cfgFile string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if cfgFile != "" {
		if err := k.Load(file.Provider(cfgFile), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok || !f.Changed {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		}), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed '%s' (got %v)", configKey(fe.Namespace()), fe.Tag(), fe.Value()))
	}
	return fmt.Errorf("invalid configuration:\n- %s", strings.Join(msgs, "\n- "))
}

// configKey turns "Config.Data.Kind" into "data.kind".
func configKey(ns string) string {
	ns = strings.TrimPrefix(ns, "Config.")
	return strings.ToLower(ns)
}
