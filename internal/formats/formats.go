// BYZRA ⸻ internal/formats/formats.go
// container handler interface and common functionality

package formats

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

type Format string

const (
	JPEG Format = "jpeg"
	PNG  Format = "png"
	WEBP Format = "webp"
)

func (f Format) MimeType() string {
	return "image/" + string(f)
}

// defines container-level operations on the EXIF payload
// payloads are raw TIFF, without the "Exif\0\0" prefix
type FormatHandler interface {
	// the EXIF payload, nil when the container carries none
	ExtractExif(data []byte) ([]byte, error)

	// swap the payload; nil removes it
	ReplaceExif(data, payload []byte) ([]byte, error)

	// bytes that carry the picture itself, for fidelity checks
	ImageData(data []byte) ([]byte, error)
}

// appropriate handler for a container format
func GetHandler(format Format) (FormatHandler, error) {
	switch format {
	case JPEG:
		return &JPEGHandler{}, nil
	case PNG:
		return &PNGHandler{}, nil
	case WEBP:
		return &WEBPHandler{}, nil
	default:
		return nil, &UnsupportedFormatError{Format: string(format)}
	}
}

var (
	JPEGExtensions = []string{"jpg", "jpeg"}
	PNGExtensions  = []string{"png"}
	WEBPExtensions = []string{"webp"}
)

// list of all supported file extensions
func SupportedFormats() []string {
	all := []string{}
	all = append(all, JPEGExtensions...)
	all = append(all, PNGExtensions...)
	all = append(all, WEBPExtensions...)
	return all
}

func normalizeExt(extension string) string {
	return strings.ToLower(strings.TrimPrefix(extension, "."))
}

// checks if a file extension is supported
func IsSupported(extension string) bool {
	return slices.Contains(SupportedFormats(), normalizeExt(extension))
}

// container format for a given extension
func FormatForExtension(extension string) (Format, error) {
	extension = normalizeExt(extension)

	switch {
	case slices.Contains(JPEGExtensions, extension):
		return JPEG, nil
	case slices.Contains(PNGExtensions, extension):
		return PNG, nil
	case slices.Contains(WEBPExtensions, extension):
		return WEBP, nil
	}
	return "", &UnsupportedFormatError{Format: extension}
}

// UnsupportedFormatError is returned for files that are neither JPEG, PNG nor WEBP.
type UnsupportedFormatError struct {
	Path   string
	Format string
}

func (e *UnsupportedFormatError) Error() string {
	switch {
	case e.Path != "" && e.Format != "":
		return fmt.Sprintf("unsupported format %q: %s", e.Format, e.Path)
	case e.Path != "":
		return fmt.Sprintf("unsupported format: %s", e.Path)
	default:
		return fmt.Sprintf("unsupported format: %q", e.Format)
	}
}

// CorruptContainerError is returned when a container or its EXIF payload is malformed.
type CorruptContainerError struct {
	Format Format
	Reason string
	Err    error
}

func (e *CorruptContainerError) Error() string {
	msg := fmt.Sprintf("corrupt %s: %s", e.Format, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CorruptContainerError) Unwrap() error { return e.Err }

func corrupt(f Format, format string, args ...any) error {
	return &CorruptContainerError{Format: f, Reason: fmt.Sprintf(format, args...)}
}

// ErrPayloadTooLarge is returned when a payload does not fit the container's segment limit.
var ErrPayloadTooLarge = errors.New("EXIF payload too large for container")
