// BYZRA ⸻ internal/config/config.go
// config loading & management

package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// EnvConfig overrides the search paths when set
const EnvConfig = "EXIFCLEANER_CONFIG"

// Duration reads "2s" / "500ms" style values
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(strings.TrimSpace(string(text)))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

type Config struct {
	Output struct {
		// in-place, suffix or directory
		Mode   string `toml:"mode"`
		Dir    string `toml:"dir"`
		Suffix string `toml:"suffix"`
		Backup bool   `toml:"backup"`
		Secure bool   `toml:"secure"`
	} `toml:"output"`
	Watch struct {
		Paths     []string `toml:"paths"`
		Recursive bool     `toml:"recursive"`
		MinAge    Duration `toml:"min_age"`
	} `toml:"watch"`
	Filter struct {
		Extensions []string `toml:"extensions"`
	} `toml:"filter"`
	Update struct {
		// owner/name or a github.com url; empty uses the version descriptor
		Repository string `toml:"repository"`
		// release API base, for GitHub Enterprise or mirrors
		API     string   `toml:"api"`
		Timeout Duration `toml:"timeout"`
	} `toml:"update"`
	Log struct {
		Level string `toml:"level"`
		Path  string `toml:"path"`
	} `toml:"log"`

	// file the values came from; empty for defaults
	Source string `toml:"-"`
}

// returns default config values
func GetDefaultConfig() *Config {
	config := &Config{}
	config.Output.Mode = "suffix"
	config.Output.Suffix = ".clean"
	config.Watch.Paths = []string{filepath.Join(homeDir(), "Downloads")}
	config.Watch.MinAge = Duration{2 * time.Second}
	config.Filter.Extensions = []string{".jpg", ".jpeg", ".png", ".webp"}
	config.Update.Timeout = Duration{10 * time.Second}
	config.Log.Level = "info"
	config.Log.Path = filepath.Join(ConfigDir(), "logs", "exifcleaner.log")
	return config
}

// SearchPaths lists candidate config files, first match wins
func SearchPaths() []string {
	if p := os.Getenv(EnvConfig); p != "" {
		return []string{p}
	}
	return []string{
		"./exifcleaner.toml",
		"config/exifcleaner.toml",
		filepath.Join(ConfigDir(), "config.toml"),
	}
}

// loads the first config found, defaults when there is none.
// a file named by EXIFCLEANER_CONFIG must exist
func LoadConfig() (*Config, error) {
	paths := SearchPaths()
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	if os.Getenv(EnvConfig) != "" {
		return nil, fmt.Errorf("config file %s not found", paths[0])
	}
	return GetDefaultConfig(), nil
}

// decodes path over the defaults
func LoadFile(path string) (*Config, error) {
	config := GetDefaultConfig()
	if _, err := toml.DecodeFile(path, config); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	config.Source = path

	// filter out commented paths
	var activePaths []string
	for _, p := range config.Watch.Paths {
		if p = strings.TrimSpace(p); p != "" && p[0] != '#' {
			activePaths = append(activePaths, expandHome(p))
		}
	}
	config.Watch.Paths = activePaths
	config.Output.Dir = expandHome(config.Output.Dir)
	config.Log.Path = expandHome(config.Log.Path)

	if _, err := config.LogLevel(); err != nil {
		return nil, err
	}
	return config, nil
}

// saves the current configuration to a file
func SaveConfig(config *Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(config)
}

func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if c.Log.Level == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid log level %q", c.Log.Level)
	}
	return level, nil
}

// ConfigDir is $HOME/.exifcleaner
func ConfigDir() string {
	return filepath.Join(homeDir(), ".exifcleaner")
}

// config directory exists
func SetupConfigDir() (string, error) {
	configDir := ConfigDir()
	err := os.MkdirAll(configDir, 0755)
	return configDir, err
}

func homeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

func expandHome(p string) string {
	if p == "~" {
		return homeDir()
	}
	if strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), p[2:])
	}
	return p
}
