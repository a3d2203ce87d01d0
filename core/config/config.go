// Package config loads the optional YAML settings file of the command line tools.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/veupathdb/redmine-client/core/insdc"
	"github.com/veupathdb/redmine-client/core/redmine"
)

// DefaultTeam is the VEuPathDB team whose handover issues are checked.
const DefaultTeam = "Data Processing (EBI)"

// DefaultKeyEnvVar holds the Redmine API key when no key is given on the command line.
const DefaultKeyEnvVar = "VEUPATH_REDMINE_KEY"

// Config is the content of the settings file.
type Config struct {
	RedmineURL   string            `yaml:"redmine_url"`
	ProjectID    int               `yaml:"project_id"`
	Team         string            `yaml:"team"`
	KeyEnvVar    string            `yaml:"key_env_var"`
	EntrezEmail  string            `yaml:"entrez_email"`
	EntrezURL    string            `yaml:"entrez_url"`
	FilterFields map[string]string `yaml:"filter_fields"`
}

// Default returns the settings used when no file is present.
func Default() *Config {
	return &Config{
		RedmineURL:   redmine.DefaultURL,
		ProjectID:    redmine.DefaultProjectID,
		Team:         DefaultTeam,
		KeyEnvVar:    DefaultKeyEnvVar,
		EntrezURL:    insdc.DefaultURL,
		FilterFields: maps.Clone(redmine.DefaultFieldMap),
	}
}

// DefaultPath returns $HOME/.config/veupath-redmine/config.yaml.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "veupath-redmine", "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error.
// Filter fields from the file are added to the default ones.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}

	if file.RedmineURL != "" {
		cfg.RedmineURL = file.RedmineURL
	}
	if file.ProjectID != 0 {
		cfg.ProjectID = file.ProjectID
	}
	if file.Team != "" {
		cfg.Team = file.Team
	}
	if file.KeyEnvVar != "" {
		cfg.KeyEnvVar = file.KeyEnvVar
	}
	if file.EntrezEmail != "" {
		cfg.EntrezEmail = file.EntrezEmail
	}
	if file.EntrezURL != "" {
		cfg.EntrezURL = file.EntrezURL
	}
	maps.Copy(cfg.FilterFields, file.FilterFields)
	return cfg, nil
}

// ResolveKey returns flagKey if set, otherwise the content of the key
// environment variable.
func (c *Config) ResolveKey(flagKey string) (string, error) {
	if key := strings.TrimSpace(flagKey); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(os.Getenv(c.KeyEnvVar)); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("no Redmine key: use --key or set %s", c.KeyEnvVar)
}
