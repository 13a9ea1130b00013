package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultStartURL is the eScribe listing for the 2025 regular meetings.
	DefaultStartURL = "https://pub-bouldercounty.escribemeetings.com/?Year=2025&Expanded=Board%20of%20County%20Commissioners%20-%20Regular%20Meeting"

	DefaultOutputFile  = "~/boulder_meetings.csv"
	DefaultWaitTimeout = 20 * time.Second
	DefaultTimeout     = 2 * time.Minute
	DefaultLogLevel    = "info"
)

// Configuration holds all the settings for the scraper
type Configuration struct {
	StartURL     string        `yaml:"start_url"`
	OutputFile   string        `yaml:"output_file"`
	WaitTimeout  time.Duration `yaml:"wait_timeout"`
	SettleTime   time.Duration `yaml:"settle_time"`
	Timeout      time.Duration `yaml:"timeout"`
	Headless     bool          `yaml:"headless"`
	ChromePath   string        `yaml:"chrome_path"`
	UserAgent    string        `yaml:"user_agent"`
	WindowWidth  int           `yaml:"window_width"`
	WindowHeight int           `yaml:"window_height"`
	LogLevel     string        `yaml:"log_level"`
	LogFormat    string        `yaml:"log_format"`
	LogFile      string        `yaml:"log_file"`
	MetricsFile  string        `yaml:"metrics_file"`
	Progress     bool          `yaml:"progress"`
}

// Default returns the configuration the scraper runs with when nothing is
// overridden.
func Default() *Configuration {
	return &Configuration{
		StartURL:     DefaultStartURL,
		OutputFile:   DefaultOutputFile,
		WaitTimeout:  DefaultWaitTimeout,
		Timeout:      DefaultTimeout,
		Headless:     true,
		WindowWidth:  1920,
		WindowHeight: 1080,
		LogLevel:     DefaultLogLevel,
		Progress:     true,
	}
}

// Load reads a YAML file on top of the defaults. A missing file is not an
// error unless required is set.
func Load(path string, required bool) (*Configuration, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	expanded, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}
	b, err := os.ReadFile(expanded)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", expanded, err)
	}
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", expanded, err)
	}
	return cfg, nil
}

// Validate checks the configuration and expands ~ in file paths.
func (c *Configuration) Validate() error {
	u, err := url.Parse(c.StartURL)
	if err != nil {
		return fmt.Errorf("invalid start URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" && u.Scheme != "file" {
		return fmt.Errorf("invalid start URL %q: unsupported scheme", c.StartURL)
	}
	if strings.TrimSpace(c.OutputFile) == "" {
		return fmt.Errorf("output file is required")
	}
	if c.WaitTimeout <= 0 {
		return fmt.Errorf("wait timeout must be positive")
	}
	if c.SettleTime < 0 {
		return fmt.Errorf("settle time must not be negative")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.Timeout < c.WaitTimeout+c.SettleTime {
		return fmt.Errorf("timeout %s is shorter than wait timeout plus settle time", c.Timeout)
	}
	if c.WindowWidth <= 0 || c.WindowHeight <= 0 {
		return fmt.Errorf("window size must be positive")
	}

	for _, p := range []*string{&c.OutputFile, &c.LogFile, &c.MetricsFile, &c.ChromePath} {
		if *p == "" {
			continue
		}
		expanded, err := ExpandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

// ExpandHome replaces a leading ~ with the current user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, `~\`) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}
