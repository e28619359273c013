package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"golang.org/x/text/language"

	"github.com/toyz/fnbridge/pkg/authn"
	"github.com/toyz/fnbridge/pkg/binding"
)

// Config is the fnhost configuration file
type Config struct {
	DefaultScheme string                  `yaml:"default_scheme" validate:"required"`
	TokenTTL      time.Duration           `yaml:"token_ttl"`
	LogLevel      string                  `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
	Schemes       map[string]SchemeConfig `yaml:"schemes" validate:"required,dive"`
	Policies      map[string]PolicyConfig `yaml:"policies" validate:"dive"`
	Binding       BindingConfig           `yaml:"binding"`
}

// SchemeConfig configures one JWT bearer scheme
type SchemeConfig struct {
	DisplayName   string        `yaml:"display_name"`
	SigningMethod string        `yaml:"signing_method" validate:"required,oneof=hs256 ed25519"`
	Secret        string        `yaml:"secret"`
	PublicKey     string        `yaml:"public_key"`
	Issuer        string        `yaml:"issuer"`
	Audience      string        `yaml:"audience"`
	Leeway        time.Duration `yaml:"leeway"`
}

// PolicyConfig configures a named authorization policy
type PolicyConfig struct {
	Schemes []string            `yaml:"schemes"`
	Roles   []string            `yaml:"roles"`
	Claims  map[string][]string `yaml:"claims"`
}

// BindingConfig configures parameter binding
type BindingConfig struct {
	FailurePolicy string   `yaml:"failure_policy" validate:"omitempty,oneof=halt default"`
	Cultures      []string `yaml:"cultures"`
	Form          struct {
		ValueCountLimit          int   `yaml:"value_count_limit" validate:"gte=0"`
		KeyLengthLimit           int   `yaml:"key_length_limit" validate:"gte=0"`
		ValueLengthLimit         int   `yaml:"value_length_limit" validate:"gte=0"`
		MultipartBodyLengthLimit int64 `yaml:"multipart_body_length_limit" validate:"gte=0"`
	} `yaml:"form"`
}

// DefaultConfig is a development setup: one HS256 scheme named B2C and an
// Email policy. The secret comes from FNHOST_JWT_SECRET or is generated per
// process.
func DefaultConfig() *Config {
	secret := os.Getenv("FNHOST_JWT_SECRET")
	if secret == "" {
		secret = uuid.NewString()
	}
	return &Config{
		DefaultScheme: "B2C",
		TokenTTL:      time.Hour,
		LogLevel:      "info",
		Schemes: map[string]SchemeConfig{
			"B2C": {DisplayName: "Accounts", SigningMethod: "hs256", Secret: secret, Issuer: "fnhost"},
		},
		Policies: map[string]PolicyConfig{
			"Email": {Claims: map[string][]string{"email": nil}},
		},
	}
}

// LoadConfig reads path over the defaults; an empty path returns the defaults
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return parseConfig(cfg, data)
}

func parseConfig(cfg *Config, data []byte) (*Config, error) {
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	if _, ok := cfg.Schemes[cfg.DefaultScheme]; !ok {
		return nil, fmt.Errorf("invalid config: default scheme %q is not configured", cfg.DefaultScheme)
	}
	return cfg, nil
}

func (c *Config) slogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

func (s SchemeConfig) jwtConfig() authn.JWTBearerConfig {
	cfg := authn.JWTBearerConfig{
		DisplayName:   s.DisplayName,
		SigningMethod: authn.SigningMethod(s.SigningMethod),
		Issuer:        s.Issuer,
		Audience:      s.Audience,
		Leeway:        s.Leeway,
	}
	if s.Secret != "" {
		cfg.PrivateKey = []byte(s.Secret)
	}
	if s.PublicKey != "" {
		cfg.PublicKey = []byte(s.PublicKey)
	}
	return cfg
}

func (b BindingConfig) options() (binding.Options, error) {
	opts := binding.Options{
		Form: binding.FormOptions{
			ValueCountLimit:          b.Form.ValueCountLimit,
			KeyLengthLimit:           b.Form.KeyLengthLimit,
			ValueLengthLimit:         b.Form.ValueLengthLimit,
			MultipartBodyLengthLimit: b.Form.MultipartBodyLengthLimit,
		},
	}
	if opts.Form != (binding.FormOptions{}) {
		// unset limits keep their defaults
		defaults := binding.DefaultFormOptions()
		if opts.Form.ValueCountLimit == 0 {
			opts.Form.ValueCountLimit = defaults.ValueCountLimit
		}
		if opts.Form.KeyLengthLimit == 0 {
			opts.Form.KeyLengthLimit = defaults.KeyLengthLimit
		}
		if opts.Form.ValueLengthLimit == 0 {
			opts.Form.ValueLengthLimit = defaults.ValueLengthLimit
		}
		if opts.Form.MultipartBodyLengthLimit == 0 {
			opts.Form.MultipartBodyLengthLimit = defaults.MultipartBodyLengthLimit
		}
	}
	if b.FailurePolicy == "default" {
		opts.FailurePolicy = binding.ContinueWithDefault
	}
	for _, c := range b.Cultures {
		tag, err := language.Parse(c)
		if err != nil {
			return opts, fmt.Errorf("invalid culture %q: %w", c, err)
		}
		opts.Cultures = append(opts.Cultures, tag)
	}
	return opts, nil
}
