// BYZRA ⸻ internal/exifdata/builder.go
// assembles payloads from typed values

package exifdata

import (
	"encoding/binary"
	"math"

	"github.com/rwcarlsen/goexif/tiff"

	"exifcleaner/internal/tags"
)

// Builder collects entries for Encode. Later values for the same ref replace earlier ones.
type Builder struct {
	order     binary.ByteOrder
	entries   []Entry
	thumbnail []byte
}

func NewBuilder(order binary.ByteOrder) *Builder {
	return &Builder{order: order}
}

func (b *Builder) add(ref tags.Ref, typ tiff.DataType, count uint32, raw []byte) *Builder {
	e := Entry{Ref: ref, Name: tags.NameOf(ref), Type: typ, Count: count, Raw: raw}
	for i := range b.entries {
		if b.entries[i].Ref == ref {
			b.entries[i] = e
			return b
		}
	}
	b.entries = append(b.entries, e)
	return b
}

// ASCII stores s NUL-terminated.
func (b *Builder) ASCII(ref tags.Ref, s string) *Builder {
	raw := append([]byte(s), 0)
	return b.add(ref, tiff.DTAscii, uint32(len(raw)), raw)
}

func (b *Builder) Short(ref tags.Ref, vals ...uint16) *Builder {
	raw := make([]byte, 2*len(vals))
	for i, v := range vals {
		b.order.PutUint16(raw[2*i:], v)
	}
	return b.add(ref, tiff.DTShort, uint32(len(vals)), raw)
}

func (b *Builder) Long(ref tags.Ref, vals ...uint32) *Builder {
	raw := make([]byte, 4*len(vals))
	for i, v := range vals {
		b.order.PutUint32(raw[4*i:], v)
	}
	return b.add(ref, tiff.DTLong, uint32(len(vals)), raw)
}

// Rational takes numerator, denominator pairs.
func (b *Builder) Rational(ref tags.Ref, pairs ...uint32) *Builder {
	n := len(pairs) / 2
	raw := make([]byte, 8*n)
	for i := 0; i < n; i++ {
		b.order.PutUint32(raw[8*i:], pairs[2*i])
		b.order.PutUint32(raw[8*i+4:], pairs[2*i+1])
	}
	return b.add(ref, tiff.DTRational, uint32(n), raw)
}

func (b *Builder) Byte(ref tags.Ref, vals ...byte) *Builder {
	return b.add(ref, tiff.DTByte, uint32(len(vals)), append([]byte(nil), vals...))
}

func (b *Builder) Undefined(ref tags.Ref, raw []byte) *Builder {
	return b.add(ref, tiff.DTUndefined, uint32(len(raw)), append([]byte(nil), raw...))
}

func (b *Builder) Double(ref tags.Ref, v float64) *Builder {
	raw := make([]byte, 8)
	b.order.PutUint64(raw, math.Float64bits(v))
	return b.add(ref, tiff.DTDouble, 1, raw)
}

// Thumbnail embeds a JPEG thumbnail behind IFD1.
func (b *Builder) Thumbnail(jpeg []byte) *Builder {
	b.thumbnail = append([]byte(nil), jpeg...)
	return b
}

func (b *Builder) Encode() ([]byte, error) {
	return Encode(b.order, b.entries, b.thumbnail)
}
