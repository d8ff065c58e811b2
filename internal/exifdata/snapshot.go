// BYZRA ⸻ internal/exifdata/snapshot.go
// immutable view over a decoded EXIF payload

package exifdata

import (
	"bytes"
	"encoding/binary"
	"slices"

	"github.com/rwcarlsen/goexif/exif"
	"github.com/rwcarlsen/goexif/tiff"

	"exifcleaner/internal/tags"
)

// Entry is one IFD record, pointers excluded.
type Entry struct {
	Ref   tags.Ref
	Name  string
	Type  tiff.DataType
	Count uint32
	// value bytes in the payload's byte order. for unknown types this is the raw 4-byte field
	Raw   []byte
	Value string
}

func (e Entry) clone() Entry {
	e.Raw = slices.Clone(e.Raw)
	return e
}

// Snapshot holds every entry of one payload grouped by directory.
// The zero value is an empty snapshot.
type Snapshot struct {
	order     binary.ByteOrder
	dirs      map[tags.Directory][]Entry
	thumbnail []byte
	payload   []byte
}

// Empty returns a snapshot with no entries, used for containers without EXIF.
func Empty() *Snapshot {
	return &Snapshot{order: binary.BigEndian}
}

func (s *Snapshot) ByteOrder() binary.ByteOrder {
	if s.order == nil {
		return binary.BigEndian
	}
	return s.order
}

// Len counts entries across all directories. The thumbnail is not an entry.
func (s *Snapshot) Len() int {
	n := 0
	for _, entries := range s.dirs {
		n += len(entries)
	}
	return n
}

// IsEmpty reports a snapshot with neither entries nor thumbnail.
func (s *Snapshot) IsEmpty() bool {
	return s.Len() == 0 && len(s.thumbnail) == 0
}

// Entries returns copies of all entries, directory by directory in payload order.
func (s *Snapshot) Entries() []Entry {
	var out []Entry
	for _, d := range tags.Directories {
		for _, e := range s.dirs[d] {
			out = append(out, e.clone())
		}
	}
	return out
}

// Directory returns copies of the entries of d.
func (s *Snapshot) Directory(d tags.Directory) []Entry {
	out := make([]Entry, 0, len(s.dirs[d]))
	for _, e := range s.dirs[d] {
		out = append(out, e.clone())
	}
	return out
}

func (s *Snapshot) Lookup(ref tags.Ref) (Entry, bool) {
	for _, e := range s.dirs[ref.Directory] {
		if e.Ref.ID == ref.ID {
			return e.clone(), true
		}
	}
	return Entry{}, false
}

// Has reports whether ref is present. The thumbnail ref matches when a thumbnail is embedded.
func (s *Snapshot) Has(ref tags.Ref) bool {
	if ref == tags.ThumbnailRef {
		return len(s.thumbnail) > 0
	}
	_, ok := s.Lookup(ref)
	return ok
}

// Refs lists the refs of all entries in Entries order.
func (s *Snapshot) Refs() []tags.Ref {
	var refs []tags.Ref
	for _, d := range tags.Directories {
		for _, e := range s.dirs[d] {
			refs = append(refs, e.Ref)
		}
	}
	return refs
}

// Thumbnail returns a copy of the embedded thumbnail, nil if none.
func (s *Snapshot) Thumbnail() []byte {
	return slices.Clone(s.thumbnail)
}

// Without returns a new snapshot minus the given refs. Absent refs are ignored.
func (s *Snapshot) Without(refs []tags.Ref) *Snapshot {
	drop := make(map[tags.Ref]bool, len(refs))
	for _, r := range refs {
		drop[r] = true
	}

	out := &Snapshot{order: s.order, dirs: make(map[tags.Directory][]Entry)}
	for d, entries := range s.dirs {
		for _, e := range entries {
			if drop[e.Ref] {
				continue
			}
			out.dirs[d] = append(out.dirs[d], e.clone())
		}
	}
	if !drop[tags.ThumbnailRef] {
		out.thumbnail = slices.Clone(s.thumbnail)
	}
	return out
}

// Encode serializes the snapshot. An empty snapshot, thumbnail included, encodes to nil.
func (s *Snapshot) Encode() ([]byte, error) {
	return Encode(s.ByteOrder(), s.Entries(), s.thumbnail)
}

// LatLong extracts decimal coordinates from the GPS directory.
func (s *Snapshot) LatLong() (lat, long float64, ok bool) {
	if len(s.dirs[tags.GPSIFD]) == 0 {
		return 0, 0, false
	}
	payload := s.payload
	if payload == nil {
		var err error
		if payload, err = s.Encode(); err != nil || payload == nil {
			return 0, 0, false
		}
	}

	// goexif hands back a usable value alongside non-fatal tiff errors
	x, err := exif.Decode(bytes.NewReader(payload))
	if x == nil {
		return 0, 0, false
	}
	lat, long, err = x.LatLong()
	if err != nil {
		return 0, 0, false
	}
	return lat, long, true
}
