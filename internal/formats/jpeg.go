// BYZRA ⸻ internal/formats/jpeg.go
// JPEG APP1 segment handling

package formats

import (
	"bytes"
	"encoding/binary"
)

const (
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerSOS  = 0xDA
	markerAPP0 = 0xE0
	markerAPP1 = 0xE1
	markerCOM  = 0xFE

	// 2 length bytes + 6 prefix bytes share the 16-bit segment length
	maxAPP1Payload = 0xFFFF - 2 - 6
)

var exifPrefix = []byte("Exif\x00\x00")

// implements FormatHandler for JPEG files
type JPEGHandler struct{}

type jpegSegment struct {
	marker byte
	data   []byte // payload after the length field
}

func (s jpegSegment) isExif() bool {
	return s.marker == markerAPP1 && bytes.HasPrefix(s.data, exifPrefix)
}

func standalone(marker byte) bool {
	return marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) || marker == markerEOI
}

// splits everything up to SOS into segments; the scan and anything after stay in tail
func parseJPEG(data []byte) (segs []jpegSegment, tail []byte, err error) {
	if len(data) < 2 || data[0] != 0xFF || data[1] != markerSOI {
		return nil, nil, corrupt(JPEG, "missing SOI marker")
	}

	i := 2
	for i < len(data) {
		if data[i] != 0xFF {
			return nil, nil, corrupt(JPEG, "expected marker at offset %d", i)
		}
		// fill bytes
		for i < len(data) && data[i] == 0xFF {
			i++
		}
		if i >= len(data) {
			return nil, nil, corrupt(JPEG, "truncated marker")
		}
		marker := data[i]
		start := i - 1
		i++

		if marker == markerSOS {
			return segs, data[start:], nil
		}
		if standalone(marker) {
			segs = append(segs, jpegSegment{marker: marker})
			if marker == markerEOI {
				return segs, data[i:], nil
			}
			continue
		}

		if i+2 > len(data) {
			return nil, nil, corrupt(JPEG, "truncated segment length for marker 0x%02X", marker)
		}
		n := int(binary.BigEndian.Uint16(data[i:])) - 2
		i += 2
		if n < 0 || i+n > len(data) {
			return nil, nil, corrupt(JPEG, "segment 0x%02X runs past end of file", marker)
		}
		segs = append(segs, jpegSegment{marker: marker, data: data[i : i+n]})
		i += n
	}
	return nil, nil, corrupt(JPEG, "no image scan found")
}

func writeJPEG(segs []jpegSegment, tail []byte) []byte {
	var buf bytes.Buffer
	buf.Write([]byte{0xFF, markerSOI})
	for _, s := range segs {
		buf.Write([]byte{0xFF, s.marker})
		if standalone(s.marker) {
			continue
		}
		var n [2]byte
		binary.BigEndian.PutUint16(n[:], uint16(len(s.data)+2))
		buf.Write(n[:])
		buf.Write(s.data)
	}
	buf.Write(tail)
	return buf.Bytes()
}

func (h *JPEGHandler) ExtractExif(data []byte) ([]byte, error) {
	segs, _, err := parseJPEG(data)
	if err != nil {
		return nil, err
	}
	for _, s := range segs {
		if s.isExif() {
			return bytes.Clone(s.data[len(exifPrefix):]), nil
		}
	}
	return nil, nil
}

// drops every Exif APP1 and, for a non-nil payload, puts one back where the first was
func (h *JPEGHandler) ReplaceExif(data, payload []byte) ([]byte, error) {
	if len(payload) > maxAPP1Payload {
		return nil, ErrPayloadTooLarge
	}
	segs, tail, err := parseJPEG(data)
	if err != nil {
		return nil, err
	}

	insertAt := -1
	kept := make([]jpegSegment, 0, len(segs))
	for _, s := range segs {
		if s.isExif() {
			if insertAt < 0 {
				insertAt = len(kept)
			}
			continue
		}
		kept = append(kept, s)
	}

	if payload != nil {
		if insertAt < 0 {
			// after a leading JFIF APP0, else right after SOI
			insertAt = 0
			if len(kept) > 0 && kept[0].marker == markerAPP0 {
				insertAt = 1
			}
		}
		app1 := jpegSegment{marker: markerAPP1, data: append(bytes.Clone(exifPrefix), payload...)}
		kept = append(kept[:insertAt], append([]jpegSegment{app1}, kept[insertAt:]...)...)
	}

	return writeJPEG(kept, tail), nil
}

// tables, frame header and scan, without APPn or COM segments
func (h *JPEGHandler) ImageData(data []byte) ([]byte, error) {
	segs, tail, err := parseJPEG(data)
	if err != nil {
		return nil, err
	}
	var picture []jpegSegment
	for _, s := range segs {
		if (s.marker >= markerAPP0 && s.marker <= 0xEF) || s.marker == markerCOM {
			continue
		}
		picture = append(picture, s)
	}
	return writeJPEG(picture, tail), nil
}
