package config

import (
	"errors"
	"fmt"

	"github.com/spf13/viper"
)

// Config holds the settings that are not secret. Every key can be overridden
// with a MINDFUL_ prefixed environment variable, e.g. MINDFUL_GITHUB_ORG.
type Config struct {
	GitHubOrg      string `mapstructure:"github_org"`
	TemplateDir    string `mapstructure:"template_dir"`
	SeedFile       string `mapstructure:"seed_file"`
	GCloudLocation string `mapstructure:"gcloud_location"`
	MaxIDAttempts  int    `mapstructure:"max_id_attempts"`
	SeedDatabase   bool   `mapstructure:"seed_database"`
	EnableDirenv   bool   `mapstructure:"enable_direnv"`
	RefreshSecrets bool   `mapstructure:"refresh_secrets"`
	DefaultDomain  string `mapstructure:"default_domain"`
}

var defaults = map[string]interface{}{
	"github_org":      "mindful-studio",
	"template_dir":    "template",
	"seed_file":       "cms.data",
	"gcloud_location": "asia-south1",
	"max_id_attempts": 3,
	"seed_database":   true,
	"enable_direnv":   true,
	"refresh_secrets": false,
	"default_domain":  "mindfulstudio.io",
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	cfg, err := load(viper.New())
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadConfig reads configPath, or config.yaml from the working directory or
// ~/.mindful when configPath is empty. A missing config.yaml is not an error
// unless configPath names it.
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.mindful")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configPath != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix("MINDFUL")
	v.AutomaticEnv()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if cfg.MaxIDAttempts < 1 {
		return nil, fmt.Errorf("max_id_attempts must be at least 1, got %d", cfg.MaxIDAttempts)
	}
	return cfg, nil
}
