// BYZRA ⸻ internal/config/version.go
// version descriptor, embedded with an optional on-disk override

package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed version.toml
var embeddedVersion string

type Version struct {
	AppName     string `toml:"app_name"`
	Version     string `toml:"version"`
	Description string `toml:"description"`
	Repository  string `toml:"repository"`
}

// the embedded descriptor
func DefaultVersion() Version {
	var v Version
	if _, err := toml.Decode(embeddedVersion, &v); err != nil {
		panic(fmt.Sprintf("config: embedded version.toml: %v", err))
	}
	return v
}

// embedded values overlaid with $HOME/.exifcleaner/version.toml when present
func LoadVersion() (Version, error) {
	return loadVersionFrom(filepath.Join(ConfigDir(), "version.toml"))
}

func loadVersionFrom(path string) (Version, error) {
	v := DefaultVersion()
	if _, err := os.Stat(path); err != nil {
		return v, nil
	}
	if _, err := toml.DecodeFile(path, &v); err != nil {
		return DefaultVersion(), fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return v, nil
}

func (v Version) String() string {
	return fmt.Sprintf("%s v%s", v.AppName, v.Version)
}
