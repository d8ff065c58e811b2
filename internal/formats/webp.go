// BYZRA ⸻ internal/formats/webp.go
// WEBP RIFF container EXIF chunk handling

package formats

import (
	"bytes"
	"encoding/binary"
)

// VP8X feature flags
const (
	vp8xAnimation = 0x02
	vp8xXMP       = 0x04
	vp8xEXIF      = 0x08
	vp8xAlpha     = 0x10
	vp8xICC       = 0x20
)

// implements FormatHandler for WEBP files
type WEBPHandler struct{}

type riffChunk struct {
	id   string
	data []byte
}

func parseWEBP(data []byte) ([]riffChunk, error) {
	if len(data) < 12 || string(data[0:4]) != "RIFF" || string(data[8:12]) != "WEBP" {
		return nil, corrupt(WEBP, "missing RIFF/WEBP header")
	}
	size := uint64(binary.LittleEndian.Uint32(data[4:8]))
	if size+8 > uint64(len(data)) {
		return nil, corrupt(WEBP, "RIFF size %d exceeds file", size)
	}
	end := int(size + 8)

	var chunks []riffChunk
	i := 12
	for i < end {
		if i+8 > end {
			return nil, corrupt(WEBP, "truncated chunk header at offset %d", i)
		}
		id := string(data[i : i+4])
		n := uint64(binary.LittleEndian.Uint32(data[i+4:]))
		body := uint64(i + 8)
		if body+n > uint64(end) {
			return nil, corrupt(WEBP, "chunk %q runs past end of RIFF", id)
		}
		chunks = append(chunks, riffChunk{id: id, data: data[body : body+n]})
		i = int(body + n + n&1)
	}
	if len(chunks) == 0 {
		return nil, corrupt(WEBP, "no chunks")
	}
	return chunks, nil
}

func writeWEBP(chunks []riffChunk) []byte {
	var body bytes.Buffer
	for _, c := range chunks {
		var n [4]byte
		binary.LittleEndian.PutUint32(n[:], uint32(len(c.data)))
		body.WriteString(c.id)
		body.Write(n[:])
		body.Write(c.data)
		if len(c.data)%2 == 1 {
			body.WriteByte(0)
		}
	}

	var out bytes.Buffer
	var size [4]byte
	binary.LittleEndian.PutUint32(size[:], uint32(body.Len()+4))
	out.WriteString("RIFF")
	out.Write(size[:])
	out.WriteString("WEBP")
	out.Write(body.Bytes())
	return out.Bytes()
}

func (h *WEBPHandler) ExtractExif(data []byte) ([]byte, error) {
	chunks, err := parseWEBP(data)
	if err != nil {
		return nil, err
	}
	for _, c := range chunks {
		if c.id == "EXIF" {
			// some writers keep the JPEG-style prefix
			return bytes.Clone(bytes.TrimPrefix(c.data, exifPrefix)), nil
		}
	}
	return nil, nil
}

// EXIF lives only in extended (VP8X) files; the VP8X flag tracks its presence
func (h *WEBPHandler) ReplaceExif(data, payload []byte) ([]byte, error) {
	if uint64(len(payload)) > 1<<32-64 {
		return nil, ErrPayloadTooLarge
	}
	chunks, err := parseWEBP(data)
	if err != nil {
		return nil, err
	}

	kept := make([]riffChunk, 0, len(chunks)+1)
	for _, c := range chunks {
		if c.id != "EXIF" {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		return nil, corrupt(WEBP, "no image chunk")
	}

	extended := kept[0].id == "VP8X" && len(kept[0].data) >= 10
	if payload != nil {
		if !extended {
			return nil, corrupt(WEBP, "EXIF requires an extended (VP8X) file")
		}
		// EXIF precedes XMP, both after image data
		at := len(kept)
		for i, c := range kept {
			if c.id == "XMP " {
				at = i
				break
			}
		}
		exif := riffChunk{id: "EXIF", data: payload}
		kept = append(kept[:at], append([]riffChunk{exif}, kept[at:]...)...)
	}

	if extended {
		vp8x := bytes.Clone(kept[0].data)
		if payload != nil {
			vp8x[0] |= vp8xEXIF
		} else {
			vp8x[0] &^= vp8xEXIF
		}
		kept[0].data = vp8x
	}

	return writeWEBP(kept), nil
}

// bitstream, alpha and animation chunks
func (h *WEBPHandler) ImageData(data []byte) ([]byte, error) {
	chunks, err := parseWEBP(data)
	if err != nil {
		return nil, err
	}
	var picture []riffChunk
	for _, c := range chunks {
		switch c.id {
		case "VP8 ", "VP8L", "ALPH", "ANIM", "ANMF":
			picture = append(picture, c)
		}
	}
	return writeWEBP(picture), nil
}

// reports VP8X feature flags, zero for simple files
func WEBPFlags(data []byte) (byte, error) {
	chunks, err := parseWEBP(data)
	if err != nil {
		return 0, err
	}
	if chunks[0].id != "VP8X" || len(chunks[0].data) < 1 {
		return 0, nil
	}
	return chunks[0].data[0], nil
}

// HasEXIFFlag reports whether VP8X advertises an EXIF chunk
func HasEXIFFlag(data []byte) bool {
	flags, err := WEBPFlags(data)
	return err == nil && flags&vp8xEXIF != 0
}

// names of the set VP8X features
func DescribeWEBPFlags(flags byte) []string {
	var out []string
	for _, f := range []struct {
		bit  byte
		name string
	}{
		{vp8xICC, "icc"},
		{vp8xAlpha, "alpha"},
		{vp8xEXIF, "exif"},
		{vp8xXMP, "xmp"},
		{vp8xAnimation, "animation"},
	} {
		if flags&f.bit != 0 {
			out = append(out, f.name)
		}
	}
	return out
}
