// Package config loads testfloctl settings from .testflo.yaml.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/robotomize/go-testflo/internal/logging"
	"github.com/robotomize/go-testflo/internal/parser"
	"github.com/robotomize/go-testflo/internal/status"
)

// DefaultFileName is looked up in the working directory when no path is given.
const DefaultFileName = ".testflo.yaml"

const (
	DefaultInputDir  = ".reports/cucumberjs-json"
	DefaultLogLevel  = "info"
	DefaultLogFormat = logging.FormatText
)

type Config struct {
	InputDir    string `yaml:"input_dir"`
	OutputDir   string `yaml:"output_dir"`
	Mode        string `yaml:"mode"`
	Skipped     string `yaml:"skipped"`
	Concurrency int    `yaml:"concurrency"`
	LogLevel    string `yaml:"log_level"`
	LogFormat   string `yaml:"log_format"`
}

func Default() Config {
	return Config{
		InputDir:  DefaultInputDir,
		Mode:      string(parser.ModeScenario),
		Skipped:   status.DefaultSkippedPolicy.String(),
		LogLevel:  DefaultLogLevel,
		LogFormat: DefaultLogFormat,
	}
}

// Load reads path on top of Default. A missing file is not an error when
// path is the default file name.
func Load(path string) (Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFileName
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}

		return cfg, fmt.Errorf("os.ReadFile: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("yaml.Unmarshal %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}

	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	if _, err := parser.ParseMode(c.Mode); err != nil {
		errs = append(errs, err)
	}

	if _, err := status.ParseSkippedPolicy(c.Skipped); err != nil {
		errs = append(errs, err)
	}

	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	switch c.LogFormat {
	case "", logging.FormatText, logging.FormatJSON:
	default:
		errs = append(errs, fmt.Errorf("unknown log format %q", c.LogFormat))
	}

	if c.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("concurrency must not be negative, got %d", c.Concurrency))
	}

	return errors.Join(errs...)
}
