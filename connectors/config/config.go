package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"
)

// Config models config.yml. Everything has a default; the file itself is
// optional so the tool works out of the box against an `az login` session.
type Config struct {
	Auth struct {
		// "cli" (default) uses the Azure CLI token; "service_principal"
		// uses the client-credentials grant with the fields below.
		Mode         string `yaml:"mode"`
		TenantID     string `yaml:"tenant_id"`
		ClientID     string `yaml:"client_id"`
		ClientSecret string `yaml:"client_secret"`
	} `yaml:"auth"`

	// Seconds to wait between consecutive API calls.
	CourtesyDelaySeconds int `yaml:"courtesy_delay_seconds"`
	// Default analysis period in days when --period is not given.
	DefaultPeriodDays int `yaml:"default_period_days"`
	// Directory for CSV and spreadsheet outputs.
	DataDir string `yaml:"data_dir"`
}

// Path returns the config file location: CONFIG_PATH or ./config.yml.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config.yml"
}

// Load parses the YAML configuration at path. A missing file yields the
// defaults; anything else that goes wrong is an error.
func Load(path string) (*Config, error) {
	c := defaults()
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return c, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if c.Auth.Mode == "service_principal" && (c.Auth.TenantID == "" || c.Auth.ClientID == "" || c.Auth.ClientSecret == "") {
		return nil, fmt.Errorf("%s: service_principal auth requires tenant_id, client_id and client_secret", path)
	}
	slog.Info(fmt.Sprintf("Loaded config: %s", path))
	return c, nil
}

func defaults() *Config {
	c := &Config{
		CourtesyDelaySeconds: 1,
		DefaultPeriodDays:    31,
		DataDir:              "data",
	}
	c.Auth.Mode = "cli"
	return c
}
