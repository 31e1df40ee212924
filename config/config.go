package config

import (
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Workers is the number of concurrent compactions, 0 means one per CPU.
	Workers     int           `yaml:"workers"`
	Aggressive  bool          `yaml:"aggressive"`
	BusyTimeout time.Duration `yaml:"busy_timeout"`
	LogFile     string        `yaml:"log_file"`
	LogLevel    string        `yaml:"log_level"`
	MetricsFile string        `yaml:"metrics_file"`

	TUI                  bool   `yaml:"tui"`
	Theme                string `yaml:"theme"`
	ReplaceHomeWithTilde bool   `yaml:"replace_home_with_tilde"`
}

func Default() Config {
	return Config{
		BusyTimeout:          5 * time.Second,
		LogLevel:             "info",
		Theme:                "nord",
		ReplaceHomeWithTilde: true,
	}
}

// Load reads a YAML file on top of the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrap(err, "read config")
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parse config %s", path)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if c.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", c.Workers)
	}
	if c.BusyTimeout < 0 {
		return errors.Errorf("busy_timeout must not be negative, got %s", c.BusyTimeout)
	}
	return nil
}
