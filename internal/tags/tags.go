// BYZRA ⸻ internal/tags/tags.go
// static EXIF tag catalog, name <-> (directory, id)

package tags

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"github.com/rwcarlsen/goexif/exif"
)

// Directory names one Image File Directory of an EXIF payload.
type Directory int

const (
	IFD0 Directory = iota
	ExifIFD
	GPSIFD
	InteropIFD
	IFD1
)

// Directories in catalog and encoding order.
var Directories = []Directory{IFD0, ExifIFD, GPSIFD, InteropIFD, IFD1}

func (d Directory) String() string {
	switch d {
	case IFD0:
		return "0th"
	case ExifIFD:
		return "Exif"
	case GPSIFD:
		return "GPS"
	case InteropIFD:
		return "Interop"
	case IFD1:
		return "1st"
	default:
		return fmt.Sprintf("Directory(%d)", int(d))
	}
}

// ParseDirectory accepts the short names printed by String plus a few aliases.
func ParseDirectory(s string) (Directory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "0th", "ifd0", "image", "main":
		return IFD0, nil
	case "exif":
		return ExifIFD, nil
	case "gps", "gpsinfo":
		return GPSIFD, nil
	case "interop", "interoperability":
		return InteropIFD, nil
	case "1st", "ifd1", "thumbnail":
		return IFD1, nil
	}
	return 0, fmt.Errorf("unknown directory: %q", s)
}

// Ref identifies a tag. Ids are only meaningful inside their directory.
type Ref struct {
	Directory Directory
	ID        uint16
}

func (r Ref) String() string {
	return fmt.Sprintf("%s/0x%04X", r.Directory, r.ID)
}

// Compare orders refs by directory, then id.
func (r Ref) Compare(o Ref) int {
	if c := cmp.Compare(r.Directory, o.Directory); c != 0 {
		return c
	}
	return cmp.Compare(r.ID, o.ID)
}

// Tag is one catalog row.
type Tag struct {
	Ref
	Name string
	// flagged by the default privacy selection
	Sensitive bool
}

// UnknownTagError is returned when a name is not in the catalog.
type UnknownTagError struct {
	Name string
}

func (e *UnknownTagError) Error() string {
	return fmt.Sprintf("unknown EXIF tag: %q", e.Name)
}

// Structural tags. They are rebuilt on every encode and never listed as entries.
const (
	ExifPointerID    uint16 = 0x8769
	GPSPointerID     uint16 = 0x8825
	InteropPointerID uint16 = 0xA005
	ThumbOffsetID    uint16 = 0x0201
	ThumbLengthID    uint16 = 0x0202
)

// ThumbnailRef removes the embedded thumbnail when selected.
var ThumbnailRef = Ref{IFD1, ThumbOffsetID}

func t(d Directory, id uint16, name exif.FieldName) Tag {
	return Tag{Ref: Ref{d, id}, Name: string(name)}
}

func s(d Directory, id uint16, name exif.FieldName) Tag {
	return Tag{Ref: Ref{d, id}, Name: string(name), Sensitive: true}
}

var table = []Tag{
	// 0th
	s(IFD0, 0x010E, exif.ImageDescription),
	s(IFD0, 0x010F, exif.Make),
	s(IFD0, 0x0110, exif.Model),
	t(IFD0, 0x0112, exif.Orientation),
	t(IFD0, 0x011A, exif.XResolution),
	t(IFD0, 0x011B, exif.YResolution),
	t(IFD0, 0x0128, exif.ResolutionUnit),
	s(IFD0, 0x0131, exif.Software),
	t(IFD0, 0x0132, exif.DateTime),
	s(IFD0, 0x013B, exif.Artist),
	s(IFD0, 0x013C, "HostComputer"),
	t(IFD0, 0x0213, exif.YCbCrPositioning),
	s(IFD0, 0x8298, exif.Copyright),
	t(IFD0, 0x9C9B, exif.XPTitle),
	t(IFD0, 0x9C9C, exif.XPComment),
	t(IFD0, 0x9C9D, exif.XPAuthor),
	t(IFD0, 0x9C9E, exif.XPKeywords),
	t(IFD0, 0x9C9F, exif.XPSubject),

	// Exif
	t(ExifIFD, 0x829A, exif.ExposureTime),
	t(ExifIFD, 0x829D, exif.FNumber),
	t(ExifIFD, 0x8822, exif.ExposureProgram),
	t(ExifIFD, 0x8827, exif.ISOSpeedRatings),
	t(ExifIFD, 0x9000, exif.ExifVersion),
	s(ExifIFD, 0x9003, exif.DateTimeOriginal),
	s(ExifIFD, 0x9004, exif.DateTimeDigitized),
	t(ExifIFD, 0x9010, "OffsetTime"),
	t(ExifIFD, 0x9011, "OffsetTimeOriginal"),
	t(ExifIFD, 0x9101, exif.ComponentsConfiguration),
	t(ExifIFD, 0x9201, exif.ShutterSpeedValue),
	t(ExifIFD, 0x9202, exif.ApertureValue),
	t(ExifIFD, 0x9204, exif.ExposureBiasValue),
	t(ExifIFD, 0x9207, exif.MeteringMode),
	t(ExifIFD, 0x9209, exif.Flash),
	t(ExifIFD, 0x920A, exif.FocalLength),
	t(ExifIFD, 0x927C, exif.MakerNote),
	s(ExifIFD, 0x9286, exif.UserComment),
	t(ExifIFD, 0x9290, exif.SubSecTime),
	t(ExifIFD, 0x9291, exif.SubSecTimeOriginal),
	t(ExifIFD, 0x9292, exif.SubSecTimeDigitized),
	t(ExifIFD, 0xA000, exif.FlashpixVersion),
	t(ExifIFD, 0xA001, exif.ColorSpace),
	t(ExifIFD, 0xA002, exif.PixelXDimension),
	t(ExifIFD, 0xA003, exif.PixelYDimension),
	t(ExifIFD, 0xA402, exif.ExposureMode),
	t(ExifIFD, 0xA403, exif.WhiteBalance),
	t(ExifIFD, 0xA405, exif.FocalLengthIn35mmFilm),
	t(ExifIFD, 0xA406, exif.SceneCaptureType),
	t(ExifIFD, 0xA420, exif.ImageUniqueID),
	s(ExifIFD, 0xA430, "CameraOwnerName"),
	s(ExifIFD, 0xA431, "BodySerialNumber"),
	t(ExifIFD, 0xA432, "LensSpecification"),
	s(ExifIFD, 0xA433, exif.LensMake),
	s(ExifIFD, 0xA434, exif.LensModel),
	t(ExifIFD, 0xA435, "LensSerialNumber"),

	// GPS
	t(GPSIFD, 0x0000, exif.GPSVersionID),
	t(GPSIFD, 0x0001, exif.GPSLatitudeRef),
	s(GPSIFD, 0x0002, exif.GPSLatitude),
	t(GPSIFD, 0x0003, exif.GPSLongitudeRef),
	s(GPSIFD, 0x0004, exif.GPSLongitude),
	t(GPSIFD, 0x0005, exif.GPSAltitudeRef),
	s(GPSIFD, 0x0006, exif.GPSAltitude),
	s(GPSIFD, 0x0007, exif.GPSTimeStamp),
	t(GPSIFD, 0x0008, exif.GPSSatelites),
	t(GPSIFD, 0x0009, exif.GPSStatus),
	t(GPSIFD, 0x000A, exif.GPSMeasureMode),
	t(GPSIFD, 0x000B, exif.GPSDOP),
	t(GPSIFD, 0x000C, exif.GPSSpeedRef),
	t(GPSIFD, 0x000D, exif.GPSSpeed),
	t(GPSIFD, 0x000E, exif.GPSTrackRef),
	t(GPSIFD, 0x000F, exif.GPSTrack),
	t(GPSIFD, 0x0010, exif.GPSImgDirectionRef),
	t(GPSIFD, 0x0011, exif.GPSImgDirection),
	t(GPSIFD, 0x0012, exif.GPSMapDatum),
	t(GPSIFD, 0x0013, exif.GPSDestLatitudeRef),
	t(GPSIFD, 0x0014, exif.GPSDestLatitude),
	t(GPSIFD, 0x0015, exif.GPSDestLongitudeRef),
	t(GPSIFD, 0x0016, exif.GPSDestLongitude),
	t(GPSIFD, 0x0017, exif.GPSDestBearingRef),
	t(GPSIFD, 0x0018, exif.GPSDestBearing),
	t(GPSIFD, 0x0019, exif.GPSDestDistanceRef),
	t(GPSIFD, 0x001A, exif.GPSDestDistance),
	t(GPSIFD, 0x001B, exif.GPSProcessingMethod),
	t(GPSIFD, 0x001C, exif.GPSAreaInformation),
	s(GPSIFD, 0x001D, exif.GPSDateStamp),
	t(GPSIFD, 0x001E, exif.GPSDifferential),

	// Interop
	t(InteropIFD, 0x0001, exif.InteroperabilityIndex),
	t(InteropIFD, 0x0002, "InteroperabilityVersion"),

	// 1st
	t(IFD1, 0x0103, "ThumbCompression"),
	t(IFD1, 0x011A, "ThumbXResolution"),
	t(IFD1, 0x011B, "ThumbYResolution"),
	t(IFD1, 0x0128, "ThumbResolutionUnit"),
	t(IFD1, ThumbOffsetID, exif.ThumbJPEGInterchangeFormat),
}

var (
	byName  map[string]Tag
	byLower map[string]Tag
	byRef   map[Ref]Tag
)

func init() {
	slices.SortStableFunc(table, func(a, b Tag) int { return a.Ref.Compare(b.Ref) })

	byName = make(map[string]Tag, len(table))
	byLower = make(map[string]Tag, len(table))
	byRef = make(map[Ref]Tag, len(table))
	for _, tag := range table {
		if _, dup := byName[tag.Name]; dup {
			panic("tags: duplicate catalog name " + tag.Name)
		}
		if _, dup := byRef[tag.Ref]; dup {
			panic("tags: duplicate catalog ref " + tag.Ref.String())
		}
		byName[tag.Name] = tag
		byLower[strings.ToLower(tag.Name)] = tag
		byRef[tag.Ref] = tag
	}
}

// ListAll returns every catalog row ordered by directory, then id.
func ListAll() []Tag {
	return slices.Clone(table)
}

// InDirectory returns the rows of one directory, in id order.
func InDirectory(d Directory) []Tag {
	var out []Tag
	for _, tag := range table {
		if tag.Directory == d {
			out = append(out, tag)
		}
	}
	return out
}

// Sensitive returns the default privacy selection.
func Sensitive() []Tag {
	var out []Tag
	for _, tag := range table {
		if tag.Sensitive {
			out = append(out, tag)
		}
	}
	return out
}

// Resolve maps a catalog name to its ref. Exact match wins over case-insensitive.
func Resolve(name string) (Ref, error) {
	name = strings.TrimSpace(name)
	if tag, ok := byName[name]; ok {
		return tag.Ref, nil
	}
	if tag, ok := byLower[strings.ToLower(name)]; ok {
		return tag.Ref, nil
	}
	return Ref{}, &UnknownTagError{Name: name}
}

// ResolveAll resolves every name, failing on the first unknown one.
// Duplicates collapse; the result is sorted.
func ResolveAll(names []string) ([]Ref, error) {
	seen := make(map[Ref]bool, len(names))
	refs := make([]Ref, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		ref, err := Resolve(name)
		if err != nil {
			return nil, err
		}
		if !seen[ref] {
			seen[ref] = true
			refs = append(refs, ref)
		}
	}
	slices.SortFunc(refs, Ref.Compare)
	return refs, nil
}

// Lookup returns the catalog row for ref, if any.
func Lookup(ref Ref) (Tag, bool) {
	tag, ok := byRef[ref]
	return tag, ok
}

// NameOf returns the catalog name, or a hex placeholder for tags the catalog does not list.
func NameOf(ref Ref) string {
	if tag, ok := byRef[ref]; ok {
		return tag.Name
	}
	return fmt.Sprintf("0x%04X", ref.ID)
}

// IsStructural reports tags that are regenerated on encode rather than carried as entries.
func IsStructural(ref Ref) bool {
	switch ref.Directory {
	case IFD0:
		return ref.ID == ExifPointerID || ref.ID == GPSPointerID
	case ExifIFD:
		return ref.ID == InteropPointerID
	case IFD1:
		return ref.ID == ThumbOffsetID || ref.ID == ThumbLengthID
	}
	return false
}
