// Package config loads the configuration of the clerkjwt command from
// flags, CLERK_* environment variables and an optional clerkjwt.yaml file,
// in that order of precedence.
package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. CLERK_SECRET_KEY.
const EnvPrefix = "CLERK"

// Crypto backends.
const (
	BackendStd = "std"
	BackendJWX = "jwx"
)

// Config holds the command configuration.
type Config struct {
	SecretKey      string `mapstructure:"secret_key" secret:"true"`
	PublishableKey string `mapstructure:"publishable_key"`
	// JWTKey is the PEM public key of the instance. When set, tokens are
	// verified without fetching the JWKS.
	JWTKey     string `mapstructure:"jwt_key"`
	APIURL     string `mapstructure:"api_url" default:"https://api.clerk.com" validate:"required,url"`
	APIVersion string `mapstructure:"api_version" default:"v1" validate:"required"`

	AuthorizedParties []string      `mapstructure:"authorized_parties" validate:"dive,url"`
	ClockSkew         time.Duration `mapstructure:"clock_skew" default:"5s" validate:"gte=0"`

	Backend  string `mapstructure:"backend" default:"std" validate:"oneof=std jwx"`
	LogLevel string `mapstructure:"log_level" default:"info" validate:"oneof=debug info warn error"`
}

// Load reads the configuration. Flags of fs that were set on the command
// line and whose name, with dashes replaced by underscores, matches a key
// override every other source. fs may be nil.
func Load(fs *pflag.FlagSet, configFile string) (*Config, error) {
	cfg := Config{}

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("clerkjwt")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/clerkjwt")
	}

	if err := defaults.Set(&cfg); err != nil {
		return nil, fmt.Errorf("config: defaults: %w", err)
	}

	typeOfCfg := reflect.TypeOf(cfg)
	for i := 0; i < typeOfCfg.NumField(); i++ {
		field := typeOfCfg.Field(i)
		key := field.Tag.Get("mapstructure")
		if key == "" {
			key = toSnakeCase(field.Name)
		}

		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}

		if fs == nil {
			continue
		}

		// Unchanged flags would shadow the file and the environment
		// with their zero defaults.
		if flag := fs.Lookup(strings.ReplaceAll(key, "_", "-")); flag != nil && flag.Changed {
			if err := v.BindPFlag(key, flag); err != nil {
				return nil, fmt.Errorf("config: bind flag %s: %w", flag.Name, err)
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("config: read: %w", err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &cfg, nil
}

// Validate checks the struct tags of cfg.
func Validate(cfg *Config) error {
	validate := validator.New()
	return validate.Struct(cfg)
}

// String returns a string representation of the config with secret fields redacted.
func (c *Config) String() string {
	v := reflect.ValueOf(*c)
	t := reflect.TypeOf(*c)
	var sb strings.Builder
	sb.WriteString("Config{")
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		value := fmt.Sprintf("%v", v.Field(i).Interface())
		if field.Tag.Get("secret") == "true" && value != "" {
			value = "***REDACTED***"
		}
		sb.WriteString(field.Name + ": " + value)
		if i < t.NumField()-1 {
			sb.WriteString(", ")
		}
	}
	sb.WriteString("}")
	return sb.String()
}

// toSnakeCase converts CamelCase to snake_case
func toSnakeCase(str string) string {
	runes := []rune(str)
	var out []rune
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if !unicode.IsUpper(prev) || nextLower {
				out = append(out, '_')
			}
		}
		out = append(out, unicode.ToLower(r))
	}
	return string(out)
}
