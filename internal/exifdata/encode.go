// BYZRA ⸻ internal/exifdata/encode.go
// payload writer on go-exif's IFD builder, recomputes every offset

package exifdata

import (
	"encoding/binary"
	"fmt"
	"slices"

	exif "github.com/dsoprea/go-exif/v3"
	exifcommon "github.com/dsoprea/go-exif/v3/common"
	"github.com/rwcarlsen/goexif/tiff"

	"exifcleaner/internal/tags"
)

var identities = map[tags.Directory]*exifcommon.IfdIdentity{
	tags.IFD0:       exifcommon.IfdStandardIfdIdentity,
	tags.ExifIFD:    exifcommon.IfdExifStandardIfdIdentity,
	tags.InteropIFD: exifcommon.IfdExifIopStandardIfdIdentity,
	tags.GPSIFD:     exifcommon.IfdGpsInfoStandardIfdIdentity,
	tags.IFD1:       exifcommon.Ifd1StandardIfdIdentity,
}

// go-exif has no signed byte or signed short; those and unknown types are written as undefined bytes
var primitives = map[tiff.DataType]exifcommon.TagTypePrimitive{
	tiff.DTByte:      exifcommon.TypeByte,
	tiff.DTAscii:     exifcommon.TypeAscii,
	tiff.DTShort:     exifcommon.TypeShort,
	tiff.DTLong:      exifcommon.TypeLong,
	tiff.DTRational:  exifcommon.TypeRational,
	tiff.DTUndefined: exifcommon.TypeUndefined,
	tiff.DTSLong:     exifcommon.TypeSignedLong,
	tiff.DTSRational: exifcommon.TypeSignedRational,
	tiff.DTFloat:     exifcommon.TypeFloat,
	tiff.DTDouble:    exifcommon.TypeDouble,
}

// Encode builds IFD0, Exif, Interop, GPS, IFD1 and the thumbnail. Pointer tags are
// regenerated by the builder. It returns nil when there is neither an entry nor a
// thumbnail left, meaning the payload should be dropped.
func Encode(order binary.ByteOrder, entries []Entry, thumbnail []byte) (payload []byte, err error) {
	if len(entries) == 0 && len(thumbnail) == 0 {
		return nil, nil
	}
	// the byte encoder inlines values of four bytes or less, which would lose the thumbnail pointer
	if len(thumbnail) > 0 && len(thumbnail) <= 4 {
		return nil, fmt.Errorf("thumbnail of %d bytes is too short to embed", len(thumbnail))
	}

	byDir := make(map[tags.Directory][]Entry)
	for _, e := range entries {
		if tags.IsStructural(e.Ref) {
			return nil, fmt.Errorf("entry %s is structural and cannot be encoded", e.Ref)
		}
		size, known := typeSize[e.Type]
		if !known && len(e.Raw) != 4 {
			return nil, fmt.Errorf("entry %s has unknown type %d and no raw field", e.Ref, e.Type)
		}
		if known && uint64(len(e.Raw)) != uint64(size)*uint64(e.Count) {
			return nil, fmt.Errorf("entry %s: %d value bytes for count %d", e.Ref, len(e.Raw), e.Count)
		}
		byDir[e.Ref.Directory] = append(byDir[e.Ref.Directory], e.clone())
	}

	// go-exif reports most failures by panicking internally
	defer func() {
		if r := recover(); r != nil {
			payload, err = nil, fmt.Errorf("encode EXIF: %v", r)
		}
	}()

	im, err := exifcommon.NewIfdMappingWithStandard()
	if err != nil {
		return nil, fmt.Errorf("IFD mapping: %w", err)
	}
	ti := exif.NewTagIndex()
	if err := exif.LoadStandardTags(ti); err != nil {
		return nil, fmt.Errorf("tag index: %w", err)
	}

	root := exif.NewIfdBuilder(im, ti, exifcommon.IfdStandardIfdIdentity, order)
	if err := add(root, tags.IFD0, order, byDir[tags.IFD0]); err != nil {
		return nil, err
	}

	// creating a child builder adds its pointer tag to the parent
	for _, dir := range []tags.Directory{tags.ExifIFD, tags.InteropIFD, tags.GPSIFD} {
		if len(byDir[dir]) == 0 {
			continue
		}
		ib, err := exif.GetOrCreateIbFromRootIb(root, identities[dir].UnindexedString())
		if err != nil {
			return nil, fmt.Errorf("%s IFD: %w", dir, err)
		}
		if err := add(ib, dir, order, byDir[dir]); err != nil {
			return nil, err
		}
	}

	if len(byDir[tags.IFD1]) > 0 || len(thumbnail) > 0 {
		next := exif.NewIfdBuilder(im, ti, exifcommon.Ifd1StandardIfdIdentity, order)
		if err := add(next, tags.IFD1, order, byDir[tags.IFD1]); err != nil {
			return nil, err
		}
		if len(thumbnail) > 0 {
			if err := next.SetThumbnail(slices.Clone(thumbnail)); err != nil {
				return nil, fmt.Errorf("thumbnail: %w", err)
			}
		}
		if err := root.SetNextIb(next); err != nil {
			return nil, fmt.Errorf("IFD1: %w", err)
		}
	}

	payload, err = exif.NewIfdByteEncoder().EncodeToExif(root)
	if err != nil {
		return nil, fmt.Errorf("encode EXIF: %w", err)
	}
	return payload, nil
}

// add appends entries to ib in ascending id order.
func add(ib *exif.IfdBuilder, dir tags.Directory, order binary.ByteOrder, entries []Entry) error {
	slices.SortStableFunc(entries, func(x, y Entry) int { return x.Ref.Compare(y.Ref) })

	path := identities[dir].UnindexedString()
	for _, e := range entries {
		typ, ok := primitives[e.Type]
		if !ok {
			typ = exifcommon.TypeUndefined
		}
		bt := exif.NewBuilderTag(path, e.Ref.ID, typ, exif.NewIfdBuilderTagValueFromBytes(e.Raw), order)
		if err := ib.Add(bt); err != nil {
			return fmt.Errorf("entry %s: %w", e.Ref, err)
		}
	}
	return nil
}
