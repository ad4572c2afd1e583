// Package config resolves runtime settings. Later sources win:
// built-in defaults, then an optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	DriverMemory = "memory"
	DriverMySQL  = "mysql"

	EnvProduction = "production"

	defaultHTMXSrc       = "https://unpkg.com/htmx.org@2.0.4"
	defaultHTMXIntegrity = "sha384-HGfztofotfshcF7+8n44JQL2oJmowVChPTg48S+jvZoztPfvwD79OC/LTtG6dMp+"
)

type Config struct {
	Addr            string          `yaml:"addr"`
	Env             string          `yaml:"env"`
	ShutdownTimeout time.Duration   `yaml:"shutdown_timeout"`
	Log             LogConfig       `yaml:"log"`
	Templates       TemplatesConfig `yaml:"templates"`
	Storage         StorageConfig   `yaml:"storage"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type TemplatesConfig struct {
	// Dir overrides the embedded templates file by file when set.
	Dir string `yaml:"dir"`
	// HTMXSrc is the script URL included on full pages. Empty disables it.
	HTMXSrc string `yaml:"htmx_src"`
	// HTMXIntegrity is the subresource integrity hash for HTMXSrc.
	HTMXIntegrity string `yaml:"htmx_integrity"`
}

type StorageConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

func Default() Config {
	return Config{
		Addr:            ":8080",
		Env:             "development",
		ShutdownTimeout: 5 * time.Second,
		Log:             LogConfig{Level: "info"},
		Templates:       TemplatesConfig{HTMXSrc: defaultHTMXSrc, HTMXIntegrity: defaultHTMXIntegrity},
		Storage:         StorageConfig{Driver: DriverMemory},
	}
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load builds the configuration. path may be empty, in which case only
// defaults and the environment are consulted.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return Config{}, err
	}

	cfg.Storage.Driver = strings.ToLower(strings.TrimSpace(cfg.Storage.Driver))
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	strs := []struct {
		key string
		dst *string
	}{
		{"APP_ADDR", &c.Addr},
		{"APP_ENV", &c.Env},
		{"LOG_LEVEL", &c.Log.Level},
		{"TEMPLATES_DIR", &c.Templates.Dir},
		{"HTMX_SRC", &c.Templates.HTMXSrc},
		{"HTMX_INTEGRITY", &c.Templates.HTMXIntegrity},
		{"STORE_DRIVER", &c.Storage.Driver},
		{"STORE_DSN", &c.Storage.DSN},
	}
	for _, s := range strs {
		if v, ok := lookup(s.key); ok {
			*s.dst = v
		}
	}

	if v, ok := lookup("SHUTDOWN_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SHUTDOWN_TIMEOUT: %w", err)
		}
		c.ShutdownTimeout = d
	}
	return nil
}

func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Addr) == "" {
		errs = append(errs, errors.New("addr is required"))
	}
	if c.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("shutdown_timeout must be positive"))
	}
	if sri := c.Templates.HTMXIntegrity; sri != "" && !validIntegrity(sri) {
		errs = append(errs, fmt.Errorf("templates.htmx_integrity %q must start with sha256-, sha384- or sha512-", sri))
	}
	switch c.Storage.Driver {
	case DriverMemory:
	case DriverMySQL:
		if strings.TrimSpace(c.Storage.DSN) == "" {
			errs = append(errs, errors.New("storage.dsn is required for the mysql driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage driver %q", c.Storage.Driver))
	}
	return errors.Join(errs...)
}

func validIntegrity(sri string) bool {
	for _, alg := range []string{"sha256-", "sha384-", "sha512-"} {
		if strings.HasPrefix(sri, alg) && len(sri) > len(alg) {
			return true
		}
	}
	return false
}
