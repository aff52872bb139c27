// Package config loads the solareyes settings from a file (yaml or
// .env), the environment (SOLAREYES_ prefix) and defaults.
package config

import (
	"errors"
	"fmt"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigdotenv"
	"github.com/cristalhq/aconfig/aconfigyaml"
)

const envPrefix = "SOLAREYES"

// Multi-word field names carry explicit env/yaml tags; aconfig would
// otherwise split them (solar_winds, SOLAR_WINDS) and the documented
// names would not resolve.
type Settings struct {
	SolarWinds struct {
		Host           string `usage:"SolarWinds hostname (SWIS API)"`
		Username       string
		Password       string
		CustomProperty string `env:"CUSTOM_PROPERTY" yaml:"custom_property" default:"TE_Monitor" usage:"Custom node property that flags a node for synchronisation"`
		InsecureTLS    bool   `env:"INSECURE_TLS" yaml:"insecure_tls" default:"true" usage:"Skip certificate verification for the SWIS API"`
	} `env:"SOLARWINDS" yaml:"solarwinds"`
	ThousandEyes struct {
		URL   string `default:"https://api.thousandeyes.com/v6" usage:"API base URL"`
		Email string `usage:"Account email for API authentication"`
		Token string `usage:"API token"`
	} `env:"THOUSANDEYES" yaml:"thousandeyes"`
	Test struct {
		Prefix   string `default:"SE_" usage:"Name prefix for managed tests; only tests with this prefix are ever deleted"`
		Protocol string `default:"TCP" usage:"Test protocol, TCP or ICMP"`
		Port     int    `default:"80" usage:"Target port for TCP tests"`
		Interval int    `default:"300" usage:"Test interval in seconds"`
		Alerts   bool   `default:"false" usage:"Enable alerting on created tests"`
	} `env:"TEST" yaml:"test"`
}

// Load reads settings from the given files, then the environment.
// Missing files are skipped so a fresh install can run on environment
// variables alone.
func Load(files ...string) (*Settings, error) {
	cfg := &Settings{}

	loader := aconfig.LoaderFor(cfg, aconfig.Config{
		EnvPrefix: envPrefix,
		SkipFlags: true,
		// SOLAREYES_CONFIG (the kong flag) and SOLAREYES_LOG_LEVEL
		// (the logger) share the prefix but are not settings
		AllowUnknownEnvs:   true,
		AllowUnknownFields: true,
		MergeFiles:         true,
		Files:              files,
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
			".yml":  aconfigyaml.New(),
			".env":  aconfigdotenv.New(),
		},
	})

	if err := loader.Load(); err != nil {
		return nil, fmt.Errorf("loading configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate reports every problem at once so the operator doesn't fix
// them one error message at a time.
func (cfg *Settings) Validate() error {
	var errs []error

	if cfg.SolarWinds.Host == "" {
		errs = append(errs, errors.New("solarwinds.host required"))
	}
	if cfg.SolarWinds.Username == "" {
		errs = append(errs, errors.New("solarwinds.username required"))
	}
	if cfg.SolarWinds.Password == "" {
		errs = append(errs, errors.New("solarwinds.password required"))
	}
	if cfg.SolarWinds.CustomProperty == "" {
		errs = append(errs, errors.New("solarwinds.custom_property required"))
	}
	if cfg.ThousandEyes.URL == "" {
		errs = append(errs, errors.New("thousandeyes.url required"))
	}
	if cfg.ThousandEyes.Email == "" {
		errs = append(errs, errors.New("thousandeyes.email required"))
	}
	if cfg.ThousandEyes.Token == "" {
		errs = append(errs, errors.New("thousandeyes.token required"))
	}
	if cfg.Test.Prefix == "" {
		// an empty prefix would put every test in the account in scope
		errs = append(errs, errors.New("test.prefix required"))
	}
	if cfg.Test.Port < 1 || cfg.Test.Port > 65535 {
		errs = append(errs, fmt.Errorf("test.port %d out of range", cfg.Test.Port))
	}
	if cfg.Test.Interval < 1 {
		errs = append(errs, fmt.Errorf("test.interval %d out of range", cfg.Test.Interval))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
