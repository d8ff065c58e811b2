// BYZRA ⸻ internal/analyse/detector.go
// image format detection system

package analyse

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"exifcleaner/internal/formats"
	"exifcleaner/internal/util"
)

type FileType struct {
	Format    formats.Format
	Extension string // "jpg", "png", etc
	MimeType  string
	// true when the signature was not recognised and the extension decided
	ByExtension bool
}

// signature first, extension second
func DetectFile(path string) (FileType, error) {
	file, err := os.Open(path)
	if err != nil {
		return FileType{}, err
	}
	defer file.Close()

	// 12 bytes cover RIFF....WEBP
	header := make([]byte, 12)
	n, err := io.ReadFull(file, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return FileType{}, err
	}
	return DetectBytes(path, header[:n])
}

// detection over an already-read header
func DetectBytes(path string, header []byte) (FileType, error) {
	ext := filepath.Ext(path)
	if len(ext) > 0 {
		ext = ext[1:]
	}

	if f, ok := detectByMagicNumbers(header); ok {
		return FileType{Format: f, Extension: ext, MimeType: f.MimeType()}, nil
	}

	if f, err := formats.FormatForExtension(ext); err == nil {
		return FileType{Format: f, Extension: ext, MimeType: f.MimeType(), ByExtension: true}, nil
	}

	return FileType{}, &formats.UnsupportedFormatError{Path: path, Format: ext}
}

func detectByMagicNumbers(header []byte) (formats.Format, bool) {
	switch {
	// JPEG: FF D8 FF
	case bytes.HasPrefix(header, []byte{0xFF, 0xD8, 0xFF}):
		return formats.JPEG, true

	// PNG: 89 50 4E 47 0D 0A 1A 0A
	case bytes.HasPrefix(header, []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}):
		return formats.PNG, true

	// WEBP: RIFF .... WEBP
	case len(header) >= 12 && bytes.Equal(header[0:4], []byte("RIFF")) && bytes.Equal(header[8:12], []byte("WEBP")):
		return formats.WEBP, true
	}
	return "", false
}

// ImageHandle is a validated input file for one run.
type ImageHandle struct {
	Path     string
	Format   formats.Format
	Writable bool
}

func (h ImageHandle) String() string {
	return fmt.Sprintf("%s (%s)", h.Path, h.Format)
}

// NewImageHandle resolves path to an absolute, readable, supported image.
func NewImageHandle(path string) (ImageHandle, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return ImageHandle{}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if err := util.ValidatePath(abs); err != nil {
		return ImageHandle{}, err
	}

	ft, err := DetectFile(abs)
	if err != nil {
		return ImageHandle{}, err
	}

	return ImageHandle{
		Path:     abs,
		Format:   ft.Format,
		Writable: util.IsWritable(abs),
	}, nil
}
