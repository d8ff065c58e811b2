// BYZRA ⸻ internal/analyse/report.go
// format analysis reports

package analyse

import (
	"fmt"
	"slices"
	"strings"

	"exifcleaner/internal/exifdata"
	"exifcleaner/internal/tags"
	"exifcleaner/internal/util"
)

type Location struct {
	Latitude  float64 `yaml:"latitude" json:"latitude"`
	Longitude float64 `yaml:"longitude" json:"longitude"`
}

// result of file metadata analysis
type AnalysisReport struct {
	Path            string
	FileType        FileType
	Snapshot        *exifdata.Snapshot
	SensitiveFields []string
	Location        *Location
	ThumbnailSize   int
	// VP8X features, WEBP only
	Features []string
	Err      error
}

func (r *AnalysisReport) isSensitive(name string) bool {
	return slices.Contains(r.SensitiveFields, name)
}

func GenerateReport(report *AnalysisReport) string {
	var sb strings.Builder

	sb.WriteString(util.NSH.Render(fmt.Sprintf("File: %s", report.Path)))
	sb.WriteString("\n")

	if report.Err != nil {
		sb.WriteString(util.BRH.Render(fmt.Sprintf("[X] %s", report.Err)))
		sb.WriteString("\n")
		return sb.String()
	}

	sb.WriteString(util.NSH.Render(fmt.Sprintf("Type: %s (%s)", report.FileType.Format, report.FileType.MimeType)))
	sb.WriteString("\n")
	if len(report.Features) > 0 {
		sb.WriteString(util.SUB.Render("Features: " + strings.Join(report.Features, ", ")))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if report.Snapshot == nil || report.Snapshot.IsEmpty() {
		sb.WriteString(util.LBL.Render("✓ No EXIF metadata detected"))
		sb.WriteString("\n")
		return sb.String()
	}

	for _, dir := range tags.Directories {
		entries := report.Snapshot.Directory(dir)
		if len(entries) == 0 {
			continue
		}
		sb.WriteString(util.LBL.Render(fmt.Sprintf("[%s]", dir)))
		sb.WriteString("\n")

		for _, e := range entries {
			value := formatValue(e)
			if report.isSensitive(e.Name) {
				sb.WriteString(fmt.Sprintf(" %s %s: %s\n",
					util.ORN.Render("!"),
					util.NSH.Render(e.Name),
					util.NSH.Render(value)))
			} else {
				sb.WriteString(fmt.Sprintf(" %s %s: %s\n",
					util.ORN.Render("•"),
					util.NSH.Render(e.Name),
					value))
			}
		}
	}

	if report.ThumbnailSize > 0 {
		sb.WriteString(util.LBL.Render("[thumbnail]"))
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf(" %s embedded JPEG, %d bytes\n", util.ORN.Render("•"), report.ThumbnailSize))
	}

	if report.Location != nil {
		sb.WriteString("\n")
		sb.WriteString(util.BRH.Render(fmt.Sprintf("[!] GPS position: %.6f, %.6f",
			report.Location.Latitude, report.Location.Longitude)))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	if n := len(report.SensitiveFields); n > 0 {
		sb.WriteString(util.BRH.Render(fmt.Sprintf("[!] Found %d potentially sensitive EXIF fields.", n)))
		sb.WriteString("\n")
		sb.WriteString(util.BRH.Render("[!] Consider using 'exifcleaner strip' to remove them."))
		sb.WriteString("\n")
	} else {
		sb.WriteString(util.LBL.Render("✓ No sensitive metadata detected"))
		sb.WriteString("\n")
	}

	return sb.String()
}

// creates a machine-readable report
func GenerateSimplifiedReport(report *AnalysisReport) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("file: %s\n", report.Path))
	if report.Err != nil {
		sb.WriteString(fmt.Sprintf("error: %s\n", report.Err))
		return sb.String()
	}
	sb.WriteString(fmt.Sprintf("format: %s\n", report.FileType.Format))
	sb.WriteString(fmt.Sprintf("mimetype: %s\n", report.FileType.MimeType))

	if report.Snapshot != nil {
		for _, e := range report.Snapshot.Entries() {
			kind := "metadata"
			if report.isSensitive(e.Name) {
				kind = "sensitive"
			}
			sb.WriteString(fmt.Sprintf("%s:%s:%s: %s\n", kind, e.Ref.Directory, e.Name, formatValue(e)))
		}
	}
	sb.WriteString(fmt.Sprintf("sensitive_count: %d\n", len(report.SensitiveFields)))

	return sb.String()
}

// EntryDoc and ReportDoc are the yaml/json shapes of a report.
type EntryDoc struct {
	Directory string `yaml:"directory" json:"directory"`
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Type      string `yaml:"type" json:"type"`
	Count     uint32 `yaml:"count" json:"count"`
	Value     string `yaml:"value" json:"value"`
	Sensitive bool   `yaml:"sensitive,omitempty" json:"sensitive,omitempty"`
}

type ReportDoc struct {
	Path      string     `yaml:"path" json:"path"`
	Format    string     `yaml:"format,omitempty" json:"format,omitempty"`
	Entries   []EntryDoc `yaml:"entries,omitempty" json:"entries,omitempty"`
	Thumbnail int        `yaml:"thumbnail_bytes,omitempty" json:"thumbnail_bytes,omitempty"`
	Location  *Location  `yaml:"location,omitempty" json:"location,omitempty"`
	Features  []string   `yaml:"features,omitempty" json:"features,omitempty"`
	Error     string     `yaml:"error,omitempty" json:"error,omitempty"`
}

func (r *AnalysisReport) Document() ReportDoc {
	doc := ReportDoc{Path: r.Path}
	if r.Err != nil {
		doc.Error = r.Err.Error()
		return doc
	}
	doc.Format = string(r.FileType.Format)
	doc.Thumbnail = r.ThumbnailSize
	doc.Location = r.Location
	doc.Features = r.Features

	if r.Snapshot != nil {
		for _, e := range r.Snapshot.Entries() {
			doc.Entries = append(doc.Entries, EntryDoc{
				Directory: e.Ref.Directory.String(),
				ID:        fmt.Sprintf("0x%04X", e.Ref.ID),
				Name:      e.Name,
				Type:      typeName(e),
				Count:     e.Count,
				Value:     formatValue(e),
				Sensitive: r.isSensitive(e.Name),
			})
		}
	}
	return doc
}

func typeName(e exifdata.Entry) string {
	names := []string{"", "byte", "ascii", "short", "long", "rational", "sbyte",
		"undefined", "sshort", "slong", "srational", "float", "double"}
	if int(e.Type) < len(names) && e.Type > 0 {
		return names[e.Type]
	}
	return fmt.Sprintf("type(%d)", e.Type)
}

// display value, falling back to hex for values goexif could not render
func formatValue(e exifdata.Entry) string {
	if e.Value != "" {
		return e.Value
	}
	if len(e.Raw) > 16 {
		return fmt.Sprintf("<%d bytes>", len(e.Raw))
	}
	return fmt.Sprintf("% X", e.Raw)
}
