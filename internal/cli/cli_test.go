package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"exifcleaner/internal/analyse"
	"exifcleaner/internal/batch"
	"exifcleaner/internal/fixture"
	"exifcleaner/internal/formats"
	"exifcleaner/internal/tags"
	"exifcleaner/internal/wipe"
)

// run executes the command tree with an isolated home and config
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Setenv("EXIFCLEANER_CONFIG", "")

	root := NewRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func images(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	fixture.Write(t, dir, "a.jpg", fixture.Image(t, formats.JPEG))
	fixture.Write(t, dir, "b.png", fixture.Image(t, formats.PNG))
	fixture.Write(t, filepath.Join(dir, "sub"), "c.webp", fixture.Image(t, formats.WEBP))
	return dir
}

func hasExif(t *testing.T, path string) bool {
	t.Helper()
	snap, err := wipe.ReadMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	return !snap.IsEmpty()
}

func TestStripFolderSuffix(t *testing.T) {
	dir := images(t)

	out, _, err := run(t, "strip", "-r", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "3 succeeded") {
		t.Errorf("summary:\n%s", out)
	}
	for _, name := range []string{"a.clean.jpg", "b.clean.png", "sub/c.clean.webp"} {
		if hasExif(t, filepath.Join(dir, name)) {
			t.Errorf("%s still has EXIF", name)
		}
	}
	if !hasExif(t, filepath.Join(dir, "a.jpg")) {
		t.Error("original modified")
	}

	// outputs of the first run are not stripped again
	out, _, err = run(t, "strip", "-r", dir)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "3 succeeded") {
		t.Errorf("second summary:\n%s", out)
	}
	for _, name := range []string{"a.clean.clean.jpg", "b.clean.clean.png", "sub/c.clean.clean.webp"} {
		if _, err := os.Stat(filepath.Join(dir, name)); !os.IsNotExist(err) {
			t.Errorf("%s written", name)
		}
	}
}

func TestStripOutDirJSON(t *testing.T) {
	dir := images(t)
	outDir := filepath.Join(t.TempDir(), "clean")

	out, _, err := run(t, "strip", "-r", "--out-dir", outDir, "--format", "json", dir)
	if err != nil {
		t.Fatal(err)
	}
	var doc batch.SummaryDoc
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("%v\n%s", err, out)
	}
	if doc.Succeeded != 3 || len(doc.Results) != 3 {
		t.Errorf("doc = %+v", doc)
	}
	if _, err := os.Stat(filepath.Join(outDir, "sub", "c.webp")); err != nil {
		t.Errorf("layout not mirrored: %v", err)
	}
}

func TestStripSelectedInPlace(t *testing.T) {
	dir := t.TempDir()
	path := fixture.Write(t, dir, "a.png", fixture.Image(t, formats.PNG))

	if _, _, err := run(t, "strip", "--in-place", "--tags", "GPSLatitude,gpslongitude", path); err != nil {
		t.Fatal(err)
	}
	snap, err := wipe.ReadMetadata(path)
	if err != nil {
		t.Fatal(err)
	}
	if snap.Len() != fixture.PayloadEntries-2 {
		t.Errorf("entries = %d", snap.Len())
	}
	lat, _ := tags.Resolve("GPSLatitude")
	if snap.Has(lat) {
		t.Error("GPSLatitude still present")
	}
	if _, err := os.Stat(path + ".bak"); !os.IsNotExist(err) {
		t.Error("backup kept without --backup")
	}
}

func TestStripPresetAndBackup(t *testing.T) {
	dir := t.TempDir()
	path := fixture.Write(t, dir, "a.jpg", fixture.Image(t, formats.JPEG))

	if _, _, err := run(t, "strip", "-i", "--backup", "--preset", "gps", path); err != nil {
		t.Fatal(err)
	}
	snap, _ := wipe.ReadMetadata(path)
	for _, e := range snap.Entries() {
		if e.Ref.Directory == tags.GPSIFD {
			t.Errorf("%s left behind", e.Name)
		}
	}
	if !hasExif(t, path+".bak") {
		t.Error("backup missing or stripped")
	}
}

func TestStripErrors(t *testing.T) {
	dir := t.TempDir()
	good := fixture.Write(t, dir, "a.jpg", fixture.Image(t, formats.JPEG))
	broken := fixture.Write(t, dir, "broken.png", []byte("\x89PNG\r\n\x1a\n\x00"))

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"unknown tag", []string{"strip", "--tags", "Colour", good}, "Colour"},
		{"unknown preset", []string{"strip", "--preset", "nope", good}, "unknown preset"},
		{"bad format", []string{"strip", "--format", "xml", good}, "output format"},
		{"exclusive flags", []string{"strip", "--in-place", "--suffix", "-x", good}, "in-place"},
		{"failed file", []string{"strip", good, broken}, "1 file(s) failed"},
		{"missing path", []string{"strip", good, filepath.Join(dir, "none.jpg")}, "could not be read"},
		{"no args", []string{"strip"}, "arg"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestStripUnsupportedSkipped(t *testing.T) {
	dir := t.TempDir()
	txt := fixture.Write(t, dir, "notes.txt", []byte("hello"))

	out, _, err := run(t, "strip", "--format", "yaml", txt)
	if err != nil {
		t.Fatal(err)
	}
	var doc batch.SummaryDoc
	if err := yaml.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatal(err)
	}
	if doc.Skipped != 1 || doc.Results[0].Status != batch.Skipped {
		t.Errorf("doc = %+v", doc)
	}
	data, _ := os.ReadFile(txt)
	if string(data) != "hello" {
		t.Error("unsupported file modified")
	}
}

func TestView(t *testing.T) {
	dir := t.TempDir()
	path := fixture.Write(t, dir, "a.jpg", fixture.Image(t, formats.JPEG))

	out, _, err := run(t, "view", "--format", "yaml", path)
	if err != nil {
		t.Fatal(err)
	}
	var docs []analyse.ReportDoc
	if err := yaml.Unmarshal([]byte(out), &docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || len(docs[0].Entries) != fixture.PayloadEntries || docs[0].Location == nil {
		t.Errorf("docs = %+v", docs)
	}

	out, _, err = run(t, "view", path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Canon") {
		t.Errorf("text report:\n%s", out)
	}

	_, _, err = run(t, "view", path, filepath.Join(dir, "none.jpg"))
	if err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTags(t *testing.T) {
	out, _, err := run(t, "tags", "--dir", "GPS", "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var docs []tagDoc
	if err := json.Unmarshal([]byte(out), &docs); err != nil {
		t.Fatal(err)
	}
	if len(docs) != len(tags.InDirectory(tags.GPSIFD)) {
		t.Errorf("got %d GPS tags", len(docs))
	}
	for _, d := range docs {
		if d.Directory != "GPS" {
			t.Errorf("tag %s in %s", d.Name, d.Directory)
		}
	}

	out, _, err = run(t, "tags", "--sensitive")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "GPSLatitude") || strings.Contains(out, "Orientation") {
		t.Errorf("sensitive listing:\n%s", out)
	}

	if _, _, err := run(t, "tags", "--dir", "Maker"); err == nil {
		t.Error("expected error for unknown directory")
	}
}

func TestPresets(t *testing.T) {
	out, _, err := run(t, "presets", "--format", "yaml")
	if err != nil {
		t.Fatal(err)
	}
	var presets map[string][]string
	if err := yaml.Unmarshal([]byte(out), &presets); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"sensitive", "gps", "camera"} {
		if len(presets[name]) == 0 {
			t.Errorf("preset %s missing", name)
		}
	}
}

func TestUpdate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/releases/latest") {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `{"tag_name":"v99.0.0","html_url":"https://example.test/release"}`)
	}))
	defer srv.Close()

	cfgPath := filepath.Join(t.TempDir(), "exifcleaner.toml")
	content := fmt.Sprintf("[update]\nrepository = \"someone/tool\"\napi = %q\ntimeout = \"2s\"\n", srv.URL)
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	out, _, err := run(t, "update", "--config", cfgPath, "--format", "json")
	if err != nil {
		t.Fatal(err)
	}
	var info struct {
		UpdateAvailable bool   `json:"update_available"`
		LatestVersion   string `json:"latest_version"`
	}
	if err := json.Unmarshal([]byte(out), &info); err != nil {
		t.Fatal(err)
	}
	if !info.UpdateAvailable || info.LatestVersion != "99.0.0" {
		t.Errorf("info = %+v", info)
	}
}

func TestUpdateHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusForbidden)
	}))
	defer srv.Close()

	cfgPath := filepath.Join(t.TempDir(), "exifcleaner.toml")
	content := fmt.Sprintf("[update]\nrepository = \"someone/tool\"\napi = %q\n", srv.URL)
	if err := os.WriteFile(cfgPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	_, _, err := run(t, "update", "--config", cfgPath)
	if err == nil || !strings.Contains(err.Error(), "403") {
		t.Errorf("err = %v", err)
	}
}

func TestSelection(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	a := &app{}

	mode, refs, err := a.selection(nil, "", false)
	if err != nil || mode != wipe.ModeAll || refs != nil {
		t.Errorf("empty selection = %v %v %v", mode, refs, err)
	}

	mode, refs, err = a.selection([]string{"Make", "Model,Make"}, "", false)
	if err != nil || mode != wipe.ModeSelected || len(refs) != 2 {
		t.Errorf("tags = %v %v %v", mode, refs, err)
	}

	_, refs, err = a.selection(nil, "", true)
	if err != nil || len(refs) != len(tags.Sensitive()) {
		t.Errorf("sensitive = %d refs, %v", len(refs), err)
	}

	_, _, err = a.selection([]string{"Nope"}, "", false)
	var unknown *tags.UnknownTagError
	if !errors.As(err, &unknown) {
		t.Errorf("err = %v", err)
	}
}
