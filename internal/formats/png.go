// BYZRA ⸻ internal/formats/png.go
// PNG eXIf and legacy raw-profile chunk handling

package formats

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"encoding/hex"
	"hash/crc32"
	"io"
	"strconv"
	"strings"
)

var pngSignature = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

// ImageMagick and older exiftool store EXIF as hex text under these keywords
var rawProfileKeywords = []string{"Raw profile type exif", "Raw profile type APP1"}

// implements FormatHandler for PNG files
type PNGHandler struct{}

type pngChunk struct {
	typ  string
	data []byte
}

// critical chunks start with an uppercase letter
func (c pngChunk) critical() bool {
	return c.typ[0] >= 'A' && c.typ[0] <= 'Z'
}

func (c pngChunk) isExif() bool {
	if c.typ == "eXIf" {
		return true
	}
	_, ok := rawProfile(c)
	return ok
}

func chunkCRC(typ string, data []byte) uint32 {
	crc := crc32.NewIEEE()
	crc.Write([]byte(typ))
	crc.Write(data)
	return crc.Sum32()
}

// reads chunks through IEND; bytes after IEND are returned as tail
func parsePNG(data []byte) (chunks []pngChunk, tail []byte, err error) {
	if !bytes.HasPrefix(data, pngSignature) {
		return nil, nil, corrupt(PNG, "bad signature")
	}

	i := len(pngSignature)
	for i < len(data) {
		if i+8 > len(data) {
			return nil, nil, corrupt(PNG, "truncated chunk header at offset %d", i)
		}
		n := uint64(binary.BigEndian.Uint32(data[i:]))
		typ := string(data[i+4 : i+8])
		body := uint64(i + 8)
		if body+n+4 > uint64(len(data)) {
			return nil, nil, corrupt(PNG, "chunk %q runs past end of file", typ)
		}
		chunk := pngChunk{typ: typ, data: data[body : body+n]}
		if got := binary.BigEndian.Uint32(data[body+n:]); got != chunkCRC(typ, chunk.data) {
			return nil, nil, corrupt(PNG, "CRC mismatch in chunk %q", typ)
		}
		chunks = append(chunks, chunk)
		i = int(body + n + 4)

		if typ == "IEND" {
			return chunks, data[i:], nil
		}
	}
	return nil, nil, corrupt(PNG, "missing IEND chunk")
}

func writePNG(chunks []pngChunk, tail []byte) []byte {
	var buf bytes.Buffer
	buf.Write(pngSignature)
	for _, c := range chunks {
		writePNGChunk(&buf, c.typ, c.data)
	}
	buf.Write(tail)
	return buf.Bytes()
}

func writePNGChunk(w *bytes.Buffer, typ string, data []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(data)))
	w.Write(n[:])
	w.WriteString(typ)
	w.Write(data)
	binary.BigEndian.PutUint32(n[:], chunkCRC(typ, data))
	w.Write(n[:])
}

// text of a tEXt, zTXt or iTXt chunk whose keyword names a raw EXIF profile
func rawProfile(c pngChunk) (string, bool) {
	if c.typ != "tEXt" && c.typ != "zTXt" && c.typ != "iTXt" {
		return "", false
	}
	keyword, rest, ok := bytes.Cut(c.data, []byte{0})
	if !ok {
		return "", false
	}
	matched := false
	for _, k := range rawProfileKeywords {
		if string(keyword) == k {
			matched = true
			break
		}
	}
	if !matched {
		return "", false
	}

	switch c.typ {
	case "tEXt":
		return string(rest), true
	case "zTXt":
		if len(rest) < 1 {
			return "", true
		}
		text, err := inflate(rest[1:])
		return text, err == nil
	default:
		// compression flag, method, language\0, translated keyword\0, text
		if len(rest) < 2 {
			return "", true
		}
		compressed := rest[0] == 1
		_, rest, _ = bytes.Cut(rest[2:], []byte{0})
		_, rest, _ = bytes.Cut(rest, []byte{0})
		if !compressed {
			return string(rest), true
		}
		text, err := inflate(rest)
		return text, err == nil
	}
}

func inflate(b []byte) (string, error) {
	r, err := zlib.NewReader(bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	return string(out), err
}

// "\nexif\n    <len>\n<hex lines>"
func decodeRawProfile(text string) ([]byte, error) {
	fields := strings.Fields(text)
	if len(fields) < 3 {
		return nil, corrupt(PNG, "short raw profile")
	}
	size, err := strconv.Atoi(fields[1])
	if err != nil || size < 0 {
		return nil, corrupt(PNG, "bad raw profile length %q", fields[1])
	}
	raw, err := hex.DecodeString(strings.Join(fields[2:], ""))
	if err != nil {
		return nil, &CorruptContainerError{Format: PNG, Reason: "bad raw profile hex", Err: err}
	}
	if len(raw) < size {
		return nil, corrupt(PNG, "raw profile shorter than declared")
	}
	return bytes.TrimPrefix(raw[:size], exifPrefix), nil
}

// eXIf wins over legacy text chunks
func (h *PNGHandler) ExtractExif(data []byte) ([]byte, error) {
	chunks, _, err := parsePNG(data)
	if err != nil {
		return nil, err
	}

	for _, c := range chunks {
		if c.typ == "eXIf" {
			return bytes.Clone(bytes.TrimPrefix(c.data, exifPrefix)), nil
		}
	}
	for _, c := range chunks {
		if text, ok := rawProfile(c); ok {
			return decodeRawProfile(text)
		}
	}
	return nil, nil
}

// removes eXIf and raw-profile chunks; a non-nil payload goes back as one eXIf before IDAT
func (h *PNGHandler) ReplaceExif(data, payload []byte) ([]byte, error) {
	if uint64(len(payload)) > 1<<31-1 {
		return nil, ErrPayloadTooLarge
	}
	chunks, tail, err := parsePNG(data)
	if err != nil {
		return nil, err
	}

	kept := make([]pngChunk, 0, len(chunks)+1)
	for _, c := range chunks {
		if c.isExif() {
			continue
		}
		kept = append(kept, c)
	}

	if payload != nil {
		at := len(kept) - 1 // before IEND at worst
		for i, c := range kept {
			if c.typ == "IDAT" {
				at = i
				break
			}
		}
		if at < 1 {
			return nil, corrupt(PNG, "no IHDR before image data")
		}
		exif := pngChunk{typ: "eXIf", data: payload}
		kept = append(kept[:at], append([]pngChunk{exif}, kept[at:]...)...)
	}

	return writePNG(kept, tail), nil
}

// critical chunks only: IHDR, PLTE, IDAT, IEND
func (h *PNGHandler) ImageData(data []byte) ([]byte, error) {
	chunks, _, err := parsePNG(data)
	if err != nil {
		return nil, err
	}
	var picture []pngChunk
	for _, c := range chunks {
		if c.critical() {
			picture = append(picture, c)
		}
	}
	return writePNG(picture, nil), nil
}
