package wipe

import (
	"bytes"
	"encoding/binary"
	"errors"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"

	"exifcleaner/internal/analyse"
	"exifcleaner/internal/exifdata"
	"exifcleaner/internal/fixture"
	"exifcleaner/internal/formats"
	"exifcleaner/internal/tags"
)

var allFormats = []formats.Format{formats.JPEG, formats.PNG, formats.WEBP}

func refs(t *testing.T, names ...string) []tags.Ref {
	t.Helper()
	out, err := tags.ResolveAll(names)
	if err != nil {
		t.Fatal(err)
	}
	return out
}

func imageData(t *testing.T, path string) []byte {
	t.Helper()
	in, err := analyse.Inspect(path)
	if err != nil {
		t.Fatal(err)
	}
	data, err := in.Handler.ImageData(in.Data)
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestStripAll(t *testing.T) {
	for _, f := range allFormats {
		t.Run(string(f), func(t *testing.T) {
			dir := t.TempDir()
			src := fixture.Write(t, dir, "in."+string(f), fixture.Image(t, f))
			dst := filepath.Join(dir, "out."+string(f))
			original, _ := os.ReadFile(src)

			if err := StripAll(src, dst); err != nil {
				t.Fatalf("StripAll: %v", err)
			}

			snap, err := ReadMetadata(dst)
			if err != nil {
				t.Fatal(err)
			}
			if !snap.IsEmpty() {
				t.Errorf("%d entries left", snap.Len())
			}
			if !bytes.Equal(imageData(t, src), imageData(t, dst)) {
				t.Error("image data changed")
			}
			if now, _ := os.ReadFile(src); !bytes.Equal(now, original) {
				t.Error("source modified")
			}

			// idempotent
			first, _ := os.ReadFile(dst)
			if err := StripAll(dst, dst); err != nil {
				t.Fatal(err)
			}
			second, _ := os.ReadFile(dst)
			if !bytes.Equal(first, second) {
				t.Error("second StripAll changed the file")
			}
		})
	}
}

func TestStripSelected(t *testing.T) {
	tests := []struct {
		name      string
		tags      []string
		removed   int
		thumbnail bool
	}{
		{name: "nothing", tags: nil, removed: 0, thumbnail: true},
		{name: "gps", tags: []string{"GPSLatitude", "GPSLatitudeRef", "GPSLongitude", "GPSLongitudeRef"}, removed: 4, thumbnail: true},
		{name: "absent tags ignored", tags: []string{"Artist", "LensModel"}, removed: 0, thumbnail: true},
		{name: "present and absent", tags: []string{"Make", "Artist"}, removed: 1, thumbnail: true},
		{name: "thumbnail", tags: []string{"ThumbJPEGInterchangeFormat"}, removed: 0, thumbnail: false},
		{name: "interop", tags: []string{"InteroperabilityIndex"}, removed: 1, thumbnail: true},
	}

	for _, f := range allFormats {
		for _, tt := range tests {
			t.Run(string(f)+"/"+tt.name, func(t *testing.T) {
				dir := t.TempDir()
				src := fixture.Write(t, dir, "in."+string(f), fixture.Image(t, f))
				dst := filepath.Join(dir, "out."+string(f))

				if err := StripSelected(src, dst, refs(t, tt.tags...)); err != nil {
					t.Fatalf("StripSelected: %v", err)
				}

				snap, err := ReadMetadata(dst)
				if err != nil {
					t.Fatal(err)
				}
				if want := fixture.PayloadEntries - tt.removed; snap.Len() != want {
					t.Errorf("entries = %d, want %d", snap.Len(), want)
				}
				if got := len(snap.Thumbnail()) > 0; got != tt.thumbnail {
					t.Errorf("thumbnail present = %v, want %v", got, tt.thumbnail)
				}
				for _, ref := range refs(t, tt.tags...) {
					if ref != tags.ThumbnailRef && snap.Has(ref) {
						t.Errorf("%s still present", tags.NameOf(ref))
					}
				}
				if !bytes.Equal(imageData(t, src), imageData(t, dst)) {
					t.Error("image data changed")
				}
			})
		}
	}
}

func TestStripSelectedEmptyIsRoundTrip(t *testing.T) {
	dir := t.TempDir()
	img := fixture.Image(t, formats.JPEG)
	src := fixture.Write(t, dir, "in.jpg", img)
	dst := filepath.Join(dir, "out.jpg")

	if err := StripSelected(src, dst, nil); err != nil {
		t.Fatal(err)
	}
	out, _ := os.ReadFile(dst)
	if !bytes.Equal(out, img) {
		t.Error("empty selection changed the file")
	}
}

func TestStripSelectedEverythingDropsPayload(t *testing.T) {
	dir := t.TempDir()
	src := fixture.Write(t, dir, "in.png", fixture.Image(t, formats.PNG))

	snap, err := ReadMetadata(src)
	if err != nil {
		t.Fatal(err)
	}
	if err := StripSelected(src, src, append(snap.Refs(), tags.ThumbnailRef)); err != nil {
		t.Fatal(err)
	}

	in, err := analyse.Inspect(src)
	if err != nil {
		t.Fatal(err)
	}
	if payload, _ := in.Handler.ExtractExif(in.Data); payload != nil {
		t.Errorf("payload of %d bytes kept after removing every entry", len(payload))
	}
}

func TestStripSelectedKeepsThumbnail(t *testing.T) {
	thumb := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x02, 0xFF, 0xD9}
	maker := refs(t, "Make")
	payload, err := exifdata.NewBuilder(binary.BigEndian).ASCII(maker[0], "Canon").Thumbnail(thumb).Encode()
	if err != nil {
		t.Fatal(err)
	}

	for _, f := range allFormats {
		t.Run(string(f), func(t *testing.T) {
			dir := t.TempDir()
			src := fixture.Write(t, dir, "in."+string(f), fixture.WithExif(t, f, fixture.Image(t, f), payload))

			if err := StripSelected(src, src, maker); err != nil {
				t.Fatal(err)
			}
			snap, err := ReadMetadata(src)
			if err != nil {
				t.Fatal(err)
			}
			if snap.Len() != 0 {
				t.Errorf("%d entries left", snap.Len())
			}
			if !bytes.Equal(snap.Thumbnail(), thumb) {
				t.Errorf("thumbnail = %x", snap.Thumbnail())
			}
		})
	}
}

func TestUnsupportedFormat(t *testing.T) {
	dir := t.TempDir()
	src := fixture.Write(t, dir, "notes.txt", []byte("just text"))
	dst := filepath.Join(dir, "out.txt")

	for name, op := range map[string]func() error{
		"StripAll":      func() error { return StripAll(src, dst) },
		"StripSelected": func() error { return StripSelected(src, dst, refs(t, "Make")) },
		"ReadMetadata":  func() error { _, err := ReadMetadata(src); return err },
	} {
		err := op()
		var ue *formats.UnsupportedFormatError
		if !errors.As(err, &ue) {
			t.Errorf("%s: err = %v, want UnsupportedFormatError", name, err)
		}
	}

	if got, _ := os.ReadFile(src); string(got) != "just text" {
		t.Error("unsupported file modified")
	}
	if _, err := os.Stat(dst); !os.IsNotExist(err) {
		t.Error("output created for unsupported file")
	}
}

func TestCorruptPayload(t *testing.T) {
	dir := t.TempDir()
	img := fixture.WithExif(t, formats.JPEG, fixture.JPEG(t), []byte("MM\x00\x2a\x00\x00\xff\xff"))
	src := fixture.Write(t, dir, "bad.jpg", img)

	var ce *formats.CorruptContainerError
	if _, err := ReadMetadata(src); !errors.As(err, &ce) {
		t.Errorf("ReadMetadata err = %v", err)
	}
	if err := StripSelected(src, src, refs(t, "Make")); !errors.As(err, &ce) {
		t.Errorf("StripSelected err = %v", err)
	}

	// damaged EXIF can still be dropped as a whole
	if err := StripAll(src, src); err != nil {
		t.Fatalf("StripAll: %v", err)
	}
	snap, err := ReadMetadata(src)
	if err != nil || !snap.IsEmpty() {
		t.Errorf("after StripAll: %v, %v", snap, err)
	}
}

func TestStripAllDamagedRawProfile(t *testing.T) {
	// legacy PNG text profile whose hex body does not decode
	data := []byte("Raw profile type exif\x00\nexif\n      10\nzzzzzzzzzzzzzzzzzzzz\n")
	chunk := make([]byte, 8, 12+len(data))
	binary.BigEndian.PutUint32(chunk, uint32(len(data)))
	copy(chunk[4:], "tEXt")
	chunk = append(chunk, data...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(chunk[4:]))

	png := fixture.PNG(t)
	at := 8 + 12 + 13
	img := append(append(append([]byte(nil), png[:at]...), chunk...), png[at:]...)

	tests := []struct {
		name string
		dst  string
	}{
		{"sibling", "out.png"},
		{"in place", "in.png"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := fixture.Write(t, dir, "in.png", img)
			dst := filepath.Join(dir, tt.dst)

			var ce *formats.CorruptContainerError
			if _, err := ReadMetadata(src); !errors.As(err, &ce) {
				t.Fatalf("ReadMetadata err = %v, want CorruptContainerError", err)
			}
			if err := StripAll(src, dst); err != nil {
				t.Fatalf("StripAll: %v", err)
			}
			out, _ := os.ReadFile(dst)
			if bytes.Contains(out, []byte("Raw profile type")) {
				t.Error("damaged profile survived")
			}
			if snap, err := ReadMetadata(dst); err != nil || !snap.IsEmpty() {
				t.Errorf("after StripAll: %v, %v", snap, err)
			}
		})
	}
}

func TestWriteError(t *testing.T) {
	dir := t.TempDir()
	src := fixture.Write(t, dir, "in.jpg", fixture.Image(t, formats.JPEG))
	blocker := fixture.Write(t, dir, "blocker", []byte("file"))
	dst := filepath.Join(blocker, "out.jpg")

	err := StripAll(src, dst)
	var we *WriteError
	if !errors.As(err, &we) {
		t.Fatalf("err = %v, want WriteError", err)
	}
	if we.Path != dst {
		t.Errorf("WriteError.Path = %q", we.Path)
	}
}

func TestWipeFilePlacement(t *testing.T) {
	tests := []struct {
		name       string
		options    WipeOptions
		wantOutput func(dir, src string) string
		wantBackup bool
	}{
		{
			name:       "sibling",
			options:    WipeOptions{Placement: Sibling, Suffix: ".clean", Verify: true},
			wantOutput: func(dir, src string) string { return filepath.Join(dir, "sub", "in.clean.jpg") },
		},
		{
			name:       "directory",
			options:    WipeOptions{Placement: Directory, Verify: true},
			wantOutput: func(dir, src string) string { return filepath.Join(dir, "out", "sub", "in.jpg") },
		},
		{
			name:       "in place, backup removed",
			options:    WipeOptions{Placement: InPlace, Verify: true},
			wantOutput: func(dir, src string) string { return src },
		},
		{
			name:       "in place, backup kept",
			options:    WipeOptions{Placement: InPlace, KeepBackup: true, Verify: true},
			wantOutput: func(dir, src string) string { return src },
			wantBackup: true,
		},
		{
			name:       "in place, secure",
			options:    WipeOptions{Placement: InPlace, SecureDelete: true, Verify: true},
			wantOutput: func(dir, src string) string { return src },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := fixture.Write(t, dir, "sub/in.jpg", fixture.Image(t, formats.JPEG))
			opts := tt.options
			opts.OutputDir = filepath.Join(dir, "out")
			opts.Root = dir

			result, err := WipeFile(src, &opts)
			if err != nil {
				t.Fatalf("WipeFile: %v", err)
			}
			if !result.Success || !result.Changed {
				t.Errorf("result = %+v", result)
			}
			if want := tt.wantOutput(dir, src); result.OutputPath != want {
				t.Errorf("output = %q, want %q", result.OutputPath, want)
			}
			if len(result.Removed) != fixture.PayloadEntries+1 {
				t.Errorf("removed = %v", result.Removed)
			}

			backup := src + ".bak"
			_, statErr := os.Stat(backup)
			if tt.wantBackup != (statErr == nil) {
				t.Errorf("backup exists = %v, want %v", statErr == nil, tt.wantBackup)
			}
			if tt.wantBackup && result.BackupPath != backup {
				t.Errorf("BackupPath = %q", result.BackupPath)
			}

			if result.Verification == nil || !result.Verification.Success {
				t.Errorf("verification = %+v", result.Verification)
			}
		})
	}
}

func TestWipeFileSelected(t *testing.T) {
	dir := t.TempDir()
	src := fixture.Write(t, dir, "in.webp", fixture.Image(t, formats.WEBP))

	result, err := WipeFile(src, &WipeOptions{
		Mode:      ModeSelected,
		Tags:      refs(t, "GPSLatitude", "GPSLongitude", "Artist"),
		Placement: InPlace,
		Verify:    true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Removed) != 2 {
		t.Errorf("removed = %v", result.Removed)
	}
	if !result.Verification.Success {
		t.Errorf("verification = %+v", result.Verification)
	}
	data, _ := os.ReadFile(src)
	if !formats.HasEXIFFlag(data) {
		t.Error("EXIF flag cleared although entries remain")
	}
}

func TestWipeFileUnchanged(t *testing.T) {
	dir := t.TempDir()
	src := fixture.Write(t, dir, "plain.png", fixture.PNG(t))

	result, err := WipeFile(src, &WipeOptions{Placement: InPlace, Verify: true})
	if err != nil {
		t.Fatal(err)
	}
	if result.Changed || result.BackupPath != "" {
		t.Errorf("result = %+v", result)
	}
	if _, err := os.Stat(src + ".bak"); !os.IsNotExist(err) {
		t.Error("backup made for an unchanged file")
	}
}

func TestVerifyFileDetectsLeftovers(t *testing.T) {
	dir := t.TempDir()
	src := fixture.Write(t, dir, "a.jpg", fixture.Image(t, formats.JPEG))

	result, err := VerifyFile(src, src, nil)
	if err != nil {
		t.Fatal(err)
	}
	if result.Success || result.MetadataRemoved || !result.ImageIntact {
		t.Errorf("result = %+v", result)
	}
	if len(result.RemainingFields) != fixture.PayloadEntries+1 {
		t.Errorf("remaining = %v", result.RemainingFields)
	}
}

func TestParsePlacement(t *testing.T) {
	for in, want := range map[string]Placement{"": Sibling, "in-place": InPlace, "Directory": Directory, "suffix": Sibling} {
		got, err := ParsePlacement(in)
		if err != nil || got != want {
			t.Errorf("ParsePlacement(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParsePlacement("sideways"); err == nil {
		t.Error("expected error")
	}
}
