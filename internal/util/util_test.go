package util

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestGenerateOutputPath(t *testing.T) {
	tests := []struct {
		path, suffix, want string
	}{
		{"/a/photo.jpg", ".clean", "/a/photo.clean.jpg"},
		{"/a/photo", ".clean", "/a/photo.clean"},
		{"/a/b.c/photo.PNG", "_x", "/a/b.c/photo_x.PNG"},
	}
	for _, tt := range tests {
		if got := GenerateOutputPath(tt.path, tt.suffix); got != tt.want {
			t.Errorf("GenerateOutputPath(%q, %q) = %q, want %q", tt.path, tt.suffix, got, tt.want)
		}
	}
}

func TestMirrorPath(t *testing.T) {
	tests := []struct {
		root, path, want string
	}{
		{"/in", "/in/sub/a.jpg", "/out/sub/a.jpg"},
		{"/in", "/elsewhere/a.jpg", "/out/a.jpg"},
		{"", "/in/a.jpg", "/out/a.jpg"},
	}
	for _, tt := range tests {
		if got := MirrorPath(tt.root, tt.path, "/out"); got != tt.want {
			t.Errorf("MirrorPath(%q, %q) = %q, want %q", tt.root, tt.path, got, tt.want)
		}
	}
}

func TestAtomicWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "file.bin")

	if err := AtomicWrite(path, []byte("one"), 0o640); err != nil {
		t.Fatalf("AtomicWrite: %v", err)
	}
	if err := AtomicWrite(path, []byte("two"), 0o640); err != nil {
		t.Fatalf("AtomicWrite overwrite: %v", err)
	}

	got, err := os.ReadFile(path)
	if err != nil || !bytes.Equal(got, []byte("two")) {
		t.Errorf("content = %q, %v", got, err)
	}
	info, _ := os.Stat(path)
	if info.Mode().Perm() != 0o640 {
		t.Errorf("mode = %v", info.Mode().Perm())
	}

	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Errorf("temp files left behind: %d entries", len(entries))
	}
}

func TestBackupAndRestore(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "a.jpg")
	os.WriteFile(path, []byte("original"), 0o644)

	backup, err := CreateBackup(path)
	if err != nil {
		t.Fatal(err)
	}
	if backup != path+BackupSuffix {
		t.Errorf("backup = %q", backup)
	}

	os.WriteFile(path, []byte("changed"), 0o644)
	if err := RestoreBackup(backup); err != nil {
		t.Fatal(err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "original" {
		t.Errorf("restored = %q", got)
	}

	if err := RestoreBackup(path); err == nil {
		t.Error("expected error for non-.bak path")
	}
}

func TestRemoveFile(t *testing.T) {
	for _, secure := range []bool{false, true} {
		path := filepath.Join(t.TempDir(), "victim")
		os.WriteFile(path, bytes.Repeat([]byte("x"), 4096), 0o644)
		if err := RemoveFile(path, secure); err != nil {
			t.Fatalf("RemoveFile(secure=%v): %v", secure, err)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Errorf("file still exists (secure=%v)", secure)
		}
	}
}

func TestValidatePath(t *testing.T) {
	dir := t.TempDir()
	if err := ValidatePath(dir); err == nil {
		t.Error("directory accepted")
	}
	if err := ValidatePath(filepath.Join(dir, "missing")); err == nil {
		t.Error("missing file accepted")
	}
	path := filepath.Join(dir, "ok")
	os.WriteFile(path, nil, 0o644)
	if err := ValidatePath(path); err != nil {
		t.Errorf("ValidatePath: %v", err)
	}
	if !IsWritable(path) {
		t.Error("IsWritable = false")
	}
}

func TestProgressBar(t *testing.T) {
	var buf bytes.Buffer
	bar := NewProgressBar(&buf, "stripping")
	bar.Update(1, 4)
	bar.Update(4, 4)
	bar.Done()
	if !bytes.Contains(buf.Bytes(), []byte("4/4")) {
		t.Errorf("progress output missing counter: %q", buf.String())
	}
}
