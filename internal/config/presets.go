// BYZRA ⸻ internal/config/presets.go
// named tag selections, built-in and from presets.lua

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"exifcleaner/internal/tags"
)

// Presets maps a preset name to catalog tag names
type Presets map[string][]string

// built-in selections; presets.lua entries replace these by name
func DefaultPresets() Presets {
	p := Presets{
		"camera": {
			"Make", "Model", "Software", "LensMake", "LensModel",
			"LensSerialNumber", "BodySerialNumber", "CameraOwnerName", "MakerNote",
		},
		"dates": {
			"DateTime", "DateTimeOriginal", "DateTimeDigitized",
			"OffsetTime", "OffsetTimeOriginal",
			"SubSecTime", "SubSecTimeOriginal", "SubSecTimeDigitized",
			"GPSTimeStamp", "GPSDateStamp",
		},
		"author": {"Artist", "Copyright", "XPAuthor", "HostComputer", "CameraOwnerName"},
		"thumbnail": {
			"ThumbJPEGInterchangeFormat", "ThumbCompression",
			"ThumbXResolution", "ThumbYResolution", "ThumbResolutionUnit",
		},
	}
	for _, tag := range tags.InDirectory(tags.GPSIFD) {
		p["gps"] = append(p["gps"], tag.Name)
	}
	for _, tag := range tags.Sensitive() {
		p["sensitive"] = append(p["sensitive"], tag.Name)
	}
	return p
}

func PresetSearchPaths() []string {
	return []string{
		"./presets.lua",
		"config/presets.lua",
		filepath.Join(ConfigDir(), "presets.lua"),
	}
}

// built-ins merged with the first presets.lua found
func LoadPresets() (Presets, string, error) {
	presets := DefaultPresets()
	for _, path := range PresetSearchPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		user, err := LoadPresetFile(path)
		if err != nil {
			return nil, path, err
		}
		presets.Merge(user)
		return presets, path, nil
	}
	return presets, "", nil
}

// runs a Lua file that returns { name = {"Tag", ...}, ... }.
// every tag name is checked against the catalog
func LoadPresetFile(path string) (Presets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets: %w", err)
	}
	return ParsePresets(string(data))
}

func ParsePresets(source string) (Presets, error) {
	L := lua.NewState()
	defer L.Close()

	if err := L.DoString(source); err != nil {
		return nil, fmt.Errorf("failed to execute presets Lua: %w", err)
	}

	result := L.Get(-1)
	if result.Type() != lua.LTTable {
		return nil, fmt.Errorf("presets Lua must return a table")
	}

	presets := make(Presets)
	var bad error
	result.(*lua.LTable).ForEach(func(k, v lua.LValue) {
		if bad != nil {
			return
		}
		if k.Type() != lua.LTString {
			bad = fmt.Errorf("preset keys must be strings, got %s", k.Type())
			return
		}
		name := strings.ToLower(k.String())
		list, ok := v.(*lua.LTable)
		if !ok {
			bad = fmt.Errorf("preset %q must be a list of tag names", name)
			return
		}
		var names []string
		for i := 1; i <= list.Len(); i++ {
			item := list.RawGetInt(i)
			if item.Type() != lua.LTString {
				bad = fmt.Errorf("preset %q: entry %d is not a string", name, i)
				return
			}
			names = append(names, item.String())
		}
		if _, err := tags.ResolveAll(names); err != nil {
			bad = fmt.Errorf("preset %q: %w", name, err)
			return
		}
		presets[name] = names
	})
	if bad != nil {
		return nil, bad
	}
	return presets, nil
}

// user entries replace built-ins of the same name
func (p Presets) Merge(other Presets) {
	for name, names := range other {
		p[name] = slices.Clone(names)
	}
}

func (p Presets) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Refs resolves a preset to catalog refs
func (p Presets) Refs(name string) ([]tags.Ref, error) {
	names, ok := p[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (have %s)", name, strings.Join(p.Names(), ", "))
	}
	return tags.ResolveAll(names)
}
