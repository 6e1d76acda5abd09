// Package config loads converter configuration from YAML files.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/metalmind/md2doc/internal/dateutil"
	"github.com/metalmind/md2doc/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
)

// Config holds converter defaults. Request fields always win over config
// values; config values win over built-in defaults.
type Config struct {
	Style    StyleConfig  `yaml:"style"`
	Assets   AssetsConfig `yaml:"assets"`
	Header   HeaderConfig `yaml:"header"`
	Emoji    EmojiConfig  `yaml:"emoji"`
	TimeoutS int          `yaml:"timeoutSeconds"` // per-conversion budget, 0 = default
}

// StyleConfig selects the default style and theme keys.
type StyleConfig struct {
	Default string `yaml:"default"` // style key (empty = "technical")
	Theme   string `yaml:"theme"`   // theme key (empty = "default")
}

// AssetsConfig points at an overlay directory holding styles/ and themes/
// subdirectories. Empty means embedded assets only.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"`
}

// HeaderConfig locates the page header content directory.
type HeaderConfig struct {
	Dir        string `yaml:"dir"`
	DateFormat string `yaml:"dateFormat"` // #date# rendering, empty = "DD MMM YYYY"
}

// EmojiConfig controls emoji image substitution.
type EmojiConfig struct {
	Disabled bool   `yaml:"disabled"`
	AssetDir string `yaml:"assetDir"`    // local SVG directory, empty = CDN only
	CDN      string `yaml:"cdnTemplate"` // URL template with one %s verb
}

// Validate checks value sanity.
func (c *Config) Validate() error {
	if c.TimeoutS < 0 {
		return fmt.Errorf("timeoutSeconds: must not be negative, got %d", c.TimeoutS)
	}
	if c.Emoji.CDN != "" && strings.Count(c.Emoji.CDN, "%s") != 1 {
		return fmt.Errorf("emoji.cdnTemplate: must contain exactly one %%s verb, got %q", c.Emoji.CDN)
	}
	if c.Header.DateFormat != "" {
		if _, err := dateutil.Format(c.Header.DateFormat, time.Now()); err != nil {
			return fmt.Errorf("header.dateFormat: %w", err)
		}
	}
	return nil
}

// DefaultConfig returns a neutral configuration.
func DefaultConfig() *Config {
	return &Config{}
}

// LoadConfig loads configuration from a file path or config name. A value
// containing a path separator is treated as a path; otherwise it is
// searched as <name>.yaml / <name>.yml in the current directory and the
// user config directory. Returns an error if the file is not found, no
// silent fallback.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	configPath := nameOrPath
	if !strings.ContainsAny(nameOrPath, "/\\") {
		resolved, err := resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
		configPath = resolved
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yamlutil.UnmarshalStrict(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveConfigPath searches for a config by name, trying .yaml then .yml
// in the current directory, then in ~/.config/md2doc/.
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	var tried []string

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		tried = append(tried, localPath)
	}

	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "md2doc", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			tried = append(tried, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
