// BYZRA ⸻ internal/exifdata/decode.go
// TIFF-structured payload walker

package exifdata

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"strings"

	"github.com/rwcarlsen/goexif/tiff"

	"exifcleaner/internal/tags"
)

// FormatError reports a payload that does not follow the TIFF layout.
type FormatError struct {
	Offset int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("malformed EXIF payload at offset %d: %s", e.Offset, e.Reason)
}

func corrupt(off int, format string, args ...any) error {
	return &FormatError{Offset: off, Reason: fmt.Sprintf(format, args...)}
}

// Prefix precedes the TIFF header in JPEG APP1 segments and some WEBP chunks.
var Prefix = []byte("Exif\x00\x00")

const (
	headerSize = 8
	entrySize  = 12
	// sanity cap; real files stay far below
	maxEntries = 4096
)

var typeSize = map[tiff.DataType]uint32{
	tiff.DTByte:      1,
	tiff.DTAscii:     1,
	tiff.DTShort:     2,
	tiff.DTLong:      4,
	tiff.DTRational:  8,
	tiff.DTSByte:     1,
	tiff.DTUndefined: 1,
	tiff.DTSShort:    2,
	tiff.DTSLong:     4,
	tiff.DTSRational: 8,
	tiff.DTFloat:     4,
	tiff.DTDouble:    8,
}

// ByteOrder parses the TIFF header mark.
func ByteOrder(payload []byte) (binary.ByteOrder, error) {
	if len(payload) < headerSize {
		return nil, corrupt(0, "payload shorter than TIFF header")
	}
	var order binary.ByteOrder
	switch string(payload[:2]) {
	case "II":
		order = binary.LittleEndian
	case "MM":
		order = binary.BigEndian
	default:
		return nil, corrupt(0, "bad byte order mark %q", payload[:2])
	}
	if order.Uint16(payload[2:4]) != 42 {
		return nil, corrupt(2, "bad TIFF magic")
	}
	return order, nil
}

type decoder struct {
	payload []byte
	order   binary.ByteOrder
	visited map[uint32]bool
	snap    *Snapshot
}

// Decode parses a TIFF-structured payload. A leading "Exif\0\0" is tolerated.
// An empty payload yields an empty snapshot.
func Decode(payload []byte) (*Snapshot, error) {
	payload = bytes.TrimPrefix(payload, Prefix)
	if len(payload) == 0 {
		return Empty(), nil
	}

	order, err := ByteOrder(payload)
	if err != nil {
		return nil, err
	}

	d := &decoder{
		payload: payload,
		order:   order,
		visited: make(map[uint32]bool),
		snap: &Snapshot{
			order:   order,
			dirs:    make(map[tags.Directory][]Entry),
			payload: bytes.Clone(payload),
		},
	}

	ifd0 := order.Uint32(payload[4:8])
	next, err := d.walk(tags.IFD0, ifd0)
	if err != nil {
		return nil, err
	}
	if next != 0 {
		if _, err := d.walk(tags.IFD1, next); err != nil {
			return nil, err
		}
	}
	return d.snap, nil
}

type rawEntry struct {
	pos   int
	id    uint16
	typ   tiff.DataType
	count uint32
	field []byte
}

// walk reads the IFD at off into its directory and follows sub-IFD pointers.
func (d *decoder) walk(dir tags.Directory, off uint32) (uint32, error) {
	if d.visited[off] {
		return 0, corrupt(int(off), "IFD loop")
	}
	d.visited[off] = true

	start := int(off)
	if off < headerSize || start+2 > len(d.payload) {
		return 0, corrupt(start, "%s IFD offset out of bounds", dir)
	}
	n := int(d.order.Uint16(d.payload[start:]))
	if n > maxEntries {
		return 0, corrupt(start, "%s IFD claims %d entries", dir, n)
	}
	end := start + 2 + n*entrySize
	if end+4 > len(d.payload) {
		return 0, corrupt(start, "%s IFD truncated", dir)
	}

	var thumbOff, thumbLen uint32
	var hasThumbOff, hasThumbLen bool

	for i := 0; i < n; i++ {
		pos := start + 2 + i*entrySize
		raw := rawEntry{
			pos:   pos,
			id:    d.order.Uint16(d.payload[pos:]),
			typ:   tiff.DataType(d.order.Uint16(d.payload[pos+2:])),
			count: d.order.Uint32(d.payload[pos+4:]),
			field: d.payload[pos+8 : pos+12],
		}
		ref := tags.Ref{Directory: dir, ID: raw.id}

		if tags.IsStructural(ref) {
			v := d.order.Uint32(raw.field)
			if raw.typ == tiff.DTShort {
				v = uint32(d.order.Uint16(raw.field))
			}
			switch {
			case dir == tags.IFD0 && raw.id == tags.ExifPointerID:
				if _, err := d.walk(tags.ExifIFD, v); err != nil {
					return 0, err
				}
			case dir == tags.IFD0 && raw.id == tags.GPSPointerID:
				if _, err := d.walk(tags.GPSIFD, v); err != nil {
					return 0, err
				}
			case dir == tags.ExifIFD && raw.id == tags.InteropPointerID:
				if _, err := d.walk(tags.InteropIFD, v); err != nil {
					return 0, err
				}
			case raw.id == tags.ThumbOffsetID:
				thumbOff, hasThumbOff = v, true
			case raw.id == tags.ThumbLengthID:
				thumbLen, hasThumbLen = v, true
			}
			continue
		}

		entry, err := d.entry(ref, raw)
		if err != nil {
			return 0, err
		}
		d.snap.dirs[dir] = append(d.snap.dirs[dir], entry)
	}

	if hasThumbOff && hasThumbLen && thumbLen > 0 {
		// broken thumbnail pointers are dropped, not fatal
		if e := uint64(thumbOff) + uint64(thumbLen); e <= uint64(len(d.payload)) {
			d.snap.thumbnail = bytes.Clone(d.payload[thumbOff:e])
		}
	}

	return d.order.Uint32(d.payload[end:]), nil
}

func (d *decoder) entry(ref tags.Ref, raw rawEntry) (Entry, error) {
	e := Entry{
		Ref:   ref,
		Name:  tags.NameOf(ref),
		Type:  raw.typ,
		Count: raw.count,
	}

	size, known := typeSize[raw.typ]
	if !known {
		e.Raw = bytes.Clone(raw.field)
		return e, nil
	}

	total := uint64(size) * uint64(raw.count)
	if total <= 4 {
		e.Raw = bytes.Clone(raw.field[:total])
	} else {
		off := uint64(d.order.Uint32(raw.field))
		if off+total > uint64(len(d.payload)) {
			return Entry{}, corrupt(raw.pos, "value of %s runs past end of payload", e.Name)
		}
		e.Raw = bytes.Clone(d.payload[off : off+total])
	}

	e.Value = display(d.payload, raw.pos, d.order)
	return e, nil
}

// display renders a value through goexif. Undecodable values render empty.
func display(payload []byte, pos int, order binary.ByteOrder) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = ""
		}
	}()

	r := bytes.NewReader(payload)
	if _, err := r.Seek(int64(pos), io.SeekStart); err != nil {
		return ""
	}
	tag, err := tiff.DecodeTag(r, order)
	if err != nil || tag == nil {
		return ""
	}

	switch {
	case tag.Format() == tiff.StringVal:
		s, _ := tag.StringVal()
		return strings.TrimRight(s, "\x00 ")
	case tag.Type == tiff.DTUndefined && tag.Count > 64:
		return fmt.Sprintf("<%d bytes>", tag.Count)
	}
	return tag.String()
}
