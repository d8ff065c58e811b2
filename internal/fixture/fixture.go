// BYZRA ⸻ internal/fixture/fixture.go
// in-memory test images with and without EXIF

package fixture

import (
	"bytes"
	"encoding/binary"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"exifcleaner/internal/exifdata"
	"exifcleaner/internal/formats"
	"exifcleaner/internal/tags"
)

func gradient() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 16), uint8(y * 16), 128, 255})
		}
	}
	return img
}

// JPEG without any APPn segment
func JPEG(tb testing.TB) []byte {
	tb.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, gradient(), &jpeg.Options{Quality: 80}); err != nil {
		tb.Fatalf("encode jpeg: %v", err)
	}
	return buf.Bytes()
}

func PNG(tb testing.TB) []byte {
	tb.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, gradient()); err != nil {
		tb.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// WEBP builds a lossless container around a placeholder bitstream.
// Extended files carry a VP8X header and an XMP chunk.
func WEBP(tb testing.TB, extended bool) []byte {
	tb.Helper()
	type chunk struct {
		id   string
		data []byte
	}
	var chunks []chunk
	if extended {
		vp8x := make([]byte, 10)
		vp8x[0] = 0x04 // xmp
		vp8x[4], vp8x[7] = 15, 15
		chunks = append(chunks, chunk{"VP8X", vp8x})
	}
	chunks = append(chunks, chunk{"VP8L", []byte{0x2F, 0x0F, 0xC0, 0x03, 0x00}})
	if extended {
		chunks = append(chunks, chunk{"XMP ", []byte("<x:xmpmeta/>")})
	}

	var body bytes.Buffer
	for _, c := range chunks {
		body.WriteString(c.id)
		binary.Write(&body, binary.LittleEndian, uint32(len(c.data)))
		body.Write(c.data)
		if len(c.data)%2 == 1 {
			body.WriteByte(0)
		}
	}
	var out bytes.Buffer
	out.WriteString("RIFF")
	binary.Write(&out, binary.LittleEndian, uint32(body.Len()+4))
	out.WriteString("WEBP")
	out.Write(body.Bytes())
	return out.Bytes()
}

func mustRef(tb testing.TB, name string) tags.Ref {
	tb.Helper()
	ref, err := tags.Resolve(name)
	if err != nil {
		tb.Fatal(err)
	}
	return ref
}

// PayloadEntries is the number of entries in Payload.
const PayloadEntries = 10

// Payload returns an EXIF payload touching every directory, with a thumbnail.
func Payload(tb testing.TB) []byte {
	tb.Helper()
	payload, err := exifdata.NewBuilder(binary.BigEndian).
		ASCII(mustRef(tb, "Make"), "Canon").
		ASCII(mustRef(tb, "Model"), "EOS R5").
		Short(mustRef(tb, "Orientation"), 1).
		ASCII(mustRef(tb, "DateTimeOriginal"), "2022:03:14 15:09:26").
		ASCII(mustRef(tb, "GPSLatitudeRef"), "N").
		Rational(mustRef(tb, "GPSLatitude"), 48, 1, 51, 1, 30, 1).
		ASCII(mustRef(tb, "GPSLongitudeRef"), "E").
		Rational(mustRef(tb, "GPSLongitude"), 2, 1, 17, 1, 40, 1).
		ASCII(mustRef(tb, "InteroperabilityIndex"), "R98").
		Short(mustRef(tb, "ThumbCompression"), 6).
		Thumbnail([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x02, 0xFF, 0xD9}).
		Encode()
	if err != nil {
		tb.Fatalf("encode payload: %v", err)
	}
	return payload
}

// WithExif embeds payload into img through the container handler.
func WithExif(tb testing.TB, format formats.Format, img, payload []byte) []byte {
	tb.Helper()
	h, err := formats.GetHandler(format)
	if err != nil {
		tb.Fatal(err)
	}
	out, err := h.ReplaceExif(img, payload)
	if err != nil {
		tb.Fatalf("embed exif in %s: %v", format, err)
	}
	return out
}

// Image returns a container of the given format carrying Payload.
func Image(tb testing.TB, format formats.Format) []byte {
	tb.Helper()
	switch format {
	case formats.JPEG:
		return WithExif(tb, format, JPEG(tb), Payload(tb))
	case formats.PNG:
		return WithExif(tb, format, PNG(tb), Payload(tb))
	default:
		return WithExif(tb, format, WEBP(tb, true), Payload(tb))
	}
}

// Write stores data under dir and returns the path.
func Write(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		tb.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatal(err)
	}
	return path
}
