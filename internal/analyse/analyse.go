// BYZRA ⸻ internal/analyse/analyse.go
// core analysis logic

package analyse

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"exifcleaner/internal/exifdata"
	"exifcleaner/internal/formats"
	"exifcleaner/internal/tags"
)

// Inspection is one file read into memory with its EXIF decoded.
type Inspection struct {
	Path     string
	FileType FileType
	Data     []byte
	Handler  formats.FormatHandler
	Snapshot *exifdata.Snapshot
}

// reads path, detects its container and decodes the EXIF payload
func Inspect(path string) (*Inspection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return InspectBytes(path, data)
}

// Inspect over an in-memory file
func InspectBytes(path string, data []byte) (*Inspection, error) {
	fileType, err := DetectBytes(path, data[:min(len(data), 12)])
	if err != nil {
		return nil, err
	}

	handler, err := formats.GetHandler(fileType.Format)
	if err != nil {
		return nil, err
	}

	payload, err := handler.ExtractExif(data)
	if err != nil {
		return nil, err
	}

	snap, err := exifdata.Decode(payload)
	if err != nil {
		var fe *exifdata.FormatError
		if errors.As(err, &fe) {
			return nil, &formats.CorruptContainerError{Format: fileType.Format, Reason: "EXIF payload", Err: err}
		}
		return nil, err
	}

	return &Inspection{
		Path:     path,
		FileType: fileType,
		Data:     data,
		Handler:  handler,
		Snapshot: snap,
	}, nil
}

// examines a file and returns metadata info
func Analyze(path string) (*AnalysisReport, error) {
	in, err := Inspect(path)
	if err != nil {
		return nil, err
	}
	return newReport(in), nil
}

func newReport(in *Inspection) *AnalysisReport {
	report := &AnalysisReport{
		Path:          in.Path,
		FileType:      in.FileType,
		Snapshot:      in.Snapshot,
		ThumbnailSize: len(in.Snapshot.Thumbnail()),
	}

	for _, e := range in.Snapshot.Entries() {
		if IsSensitive(e) {
			report.SensitiveFields = append(report.SensitiveFields, e.Name)
		}
	}

	if lat, long, ok := in.Snapshot.LatLong(); ok {
		report.Location = &Location{Latitude: lat, Longitude: long}
	}

	if in.FileType.Format == formats.WEBP {
		if flags, err := formats.WEBPFlags(in.Data); err == nil {
			report.Features = formats.DescribeWEBPFlags(flags)
		}
	}

	return report
}

var sensitiveRefs = func() map[tags.Ref]bool {
	m := make(map[tags.Ref]bool)
	for _, t := range tags.Sensitive() {
		m[t.Ref] = true
	}
	return m
}()

// catalog flag, then name heuristics for everything else
func IsSensitive(e exifdata.Entry) bool {
	if sensitiveRefs[e.Ref] || e.Ref.Directory == tags.GPSIFD {
		return true
	}

	name := strings.ToLower(e.Name)
	for _, term := range []string{"owner", "serial", "artist", "copyright", "author", "comment", "computer", "uniqueid"} {
		if strings.Contains(name, term) {
			return true
		}
	}
	return false
}

// analyzes multiple files; failures become error reports
func AnalyzeFiles(paths []string) []*AnalysisReport {
	results := make([]*AnalysisReport, 0, len(paths))

	for _, path := range paths {
		report, err := Analyze(path)
		if err != nil {
			results = append(results, &AnalysisReport{Path: path, Err: err})
			continue
		}
		results = append(results, report)
	}
	return results
}
