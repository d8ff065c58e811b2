package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"exifcleaner/internal/tags"
)

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exifcleaner.toml")
	content := `
[output]
mode = "directory"
dir = "/tmp/clean"
backup = true

[watch]
paths = ["/srv/drop", "# /srv/old", ""]
recursive = true
min_age = "750ms"

[update]
repository = "someone/fork"
timeout = "3s"

[log]
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.Output.Mode != "directory" || cfg.Output.Dir != "/tmp/clean" || !cfg.Output.Backup {
		t.Errorf("output = %+v", cfg.Output)
	}
	// untouched keys keep defaults
	if cfg.Output.Suffix != ".clean" {
		t.Errorf("suffix = %q", cfg.Output.Suffix)
	}
	if len(cfg.Filter.Extensions) != 4 {
		t.Errorf("extensions = %v", cfg.Filter.Extensions)
	}
	if len(cfg.Watch.Paths) != 1 || cfg.Watch.Paths[0] != "/srv/drop" {
		t.Errorf("watch paths = %v", cfg.Watch.Paths)
	}
	if cfg.Watch.MinAge.Duration != 750*time.Millisecond || cfg.Update.Timeout.Duration != 3*time.Second {
		t.Errorf("durations = %v %v", cfg.Watch.MinAge, cfg.Update.Timeout)
	}
	if lvl, _ := cfg.LogLevel(); lvl != slog.LevelDebug {
		t.Errorf("level = %v", lvl)
	}
	if cfg.Source != path {
		t.Errorf("source = %q", cfg.Source)
	}
}

func TestLoadFileErrors(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"syntax", "[output\nmode = 1"},
		{"duration", "[watch]\nmin_age = \"soon\""},
		{"level", "[log]\nlevel = \"loud\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "c.toml")
			if err := os.WriteFile(path, []byte(tt.content), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := LoadFile(path); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadConfigEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.toml")
	if err := os.WriteFile(path, []byte("[output]\nsuffix = \"-x\"\n"), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv(EnvConfig, path)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Output.Suffix != "-x" {
		t.Errorf("suffix = %q", cfg.Output.Suffix)
	}

	t.Setenv(EnvConfig, filepath.Join(dir, "missing.toml"))
	if _, err := LoadConfig(); err == nil {
		t.Error("expected error for missing EXIFCLEANER_CONFIG file")
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Watch.Paths = []string{"/a", "/b"}
	cfg.Watch.MinAge = Duration{5 * time.Second}

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := SaveConfig(cfg, path); err != nil {
		t.Fatal(err)
	}
	back, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Join(back.Watch.Paths, ",") != "/a,/b" || back.Watch.MinAge.Duration != 5*time.Second {
		t.Errorf("watch = %+v", back.Watch)
	}
}

func TestDefaultPresets(t *testing.T) {
	p := DefaultPresets()
	for _, name := range []string{"sensitive", "gps", "camera", "dates", "author", "thumbnail"} {
		refs, err := p.Refs(name)
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if len(refs) == 0 {
			t.Errorf("%s: empty", name)
		}
	}

	refs, _ := p.Refs("GPS")
	for _, r := range refs {
		if r.Directory != tags.GPSIFD {
			t.Errorf("gps preset holds %s", r)
		}
	}

	thumb, _ := p.Refs("thumbnail")
	found := false
	for _, r := range thumb {
		found = found || r == tags.ThumbnailRef
	}
	if !found {
		t.Error("thumbnail preset does not drop the thumbnail")
	}

	if _, err := p.Refs("nope"); err == nil {
		t.Error("expected unknown preset error")
	}
}

func TestParsePresets(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		want    map[string]int
		wantErr string
	}{
		{
			name: "valid",
			source: `
local base = {"Make", "Model"}
table.insert(base, "gpslatitude")
return { Social = base, only_gps = {"GPSLatitude", "GPSLongitude"} }`,
			want: map[string]int{"social": 3, "only_gps": 2},
		},
		{name: "not a table", source: `return "x"`, wantErr: "must return a table"},
		{name: "unknown tag", source: `return { a = {"Make", "Colour"} }`, wantErr: "Colour"},
		{name: "not a list", source: `return { a = "Make" }`, wantErr: "list of tag names"},
		{name: "bad entry", source: `return { a = {"Make", 3} }`, wantErr: "not a string"},
		{name: "syntax", source: `return {`, wantErr: "failed to execute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePresets(tt.source)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("err = %v, want %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if len(p) != len(tt.want) {
				t.Fatalf("presets = %v", p)
			}
			for name, n := range tt.want {
				if len(p[name]) != n {
					t.Errorf("%s = %v", name, p[name])
				}
			}
		})
	}
}

func TestPresetMerge(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.lua")
	if err := os.WriteFile(path, []byte(`return { gps = {"GPSLatitude"}, mine = {"Artist"} }`), 0644); err != nil {
		t.Fatal(err)
	}
	user, err := LoadPresetFile(path)
	if err != nil {
		t.Fatal(err)
	}

	p := DefaultPresets()
	p.Merge(user)
	if len(p["gps"]) != 1 {
		t.Errorf("gps not replaced: %v", p["gps"])
	}
	if _, ok := p["sensitive"]; !ok {
		t.Error("built-in preset lost")
	}
	names := p.Names()
	for i := 1; i < len(names); i++ {
		if names[i-1] > names[i] {
			t.Fatalf("names not sorted: %v", names)
		}
	}
}

func TestVersion(t *testing.T) {
	v := DefaultVersion()
	if v.AppName != "EXIF Cleaner" || v.Version == "" || v.Repository == "" {
		t.Errorf("embedded version = %+v", v)
	}

	path := filepath.Join(t.TempDir(), "version.toml")
	if err := os.WriteFile(path, []byte(`version = "2.1.0"`), 0644); err != nil {
		t.Fatal(err)
	}
	over, err := loadVersionFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if over.Version != "2.1.0" || over.AppName != v.AppName {
		t.Errorf("override = %+v", over)
	}
	if over.String() != "EXIF Cleaner v2.1.0" {
		t.Errorf("String() = %q", over.String())
	}

	missing, err := loadVersionFrom(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil || missing != v {
		t.Errorf("missing override = %+v, %v", missing, err)
	}
}

func TestSampleFiles(t *testing.T) {
	cfg, err := LoadFile(filepath.Join("..", "..", "config", "exifcleaner.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Watch.Paths) != 1 || strings.HasPrefix(cfg.Watch.Paths[0], "~") {
		t.Errorf("watch paths = %v", cfg.Watch.Paths)
	}

	p, err := LoadPresetFile(filepath.Join("..", "..", "config", "presets.lua"))
	if err != nil {
		t.Fatal(err)
	}
	if len(p["location"]) != 5 || len(p["social"]) != 10 {
		t.Errorf("presets = %v", p)
	}
}
