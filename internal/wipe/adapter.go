// BYZRA ⸻ internal/wipe/adapter.go
// read, strip-all and selective strip over any supported container

package wipe

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"exifcleaner/internal/analyse"
	"exifcleaner/internal/exifdata"
	"exifcleaner/internal/formats"
	"exifcleaner/internal/tags"
	"exifcleaner/internal/util"
)

// WriteError wraps I/O failures while producing the output file.
type WriteError struct {
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write %s: %v", e.Path, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// decoded EXIF of path; empty snapshot when the container has none
func ReadMetadata(path string) (*exifdata.Snapshot, error) {
	in, err := analyse.Inspect(path)
	if err != nil {
		return nil, err
	}
	return in.Snapshot, nil
}

// Outcome describes what a strip changed.
type Outcome struct {
	Original []byte
	Output   []byte
	Removed  []exifdata.Entry
	// thumbnail dropped along with the entries
	ThumbnailRemoved bool
}

func (o *Outcome) Changed() bool {
	return !bytes.Equal(o.Original, o.Output)
}

// removes the whole EXIF payload. outputPath may equal path
func StripAll(path, outputPath string) error {
	out, err := stripAll(path)
	if err != nil {
		return err
	}
	return commit(path, outputPath, out)
}

// removes only refs; refs not present are ignored
func StripSelected(path, outputPath string, refs []tags.Ref) error {
	out, err := stripSelected(path, refs)
	if err != nil {
		return err
	}
	return commit(path, outputPath, out)
}

func readContainer(path string) ([]byte, analyse.FileType, formats.FormatHandler, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, analyse.FileType{}, nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	ft, err := analyse.DetectBytes(path, data[:min(len(data), 12)])
	if err != nil {
		return nil, ft, nil, err
	}
	handler, err := formats.GetHandler(ft.Format)
	if err != nil {
		return nil, ft, nil, err
	}
	return data, ft, handler, nil
}

// the payload is dropped without being decoded, so damaged EXIF can still be removed
func stripAll(path string) (*Outcome, error) {
	data, _, handler, err := readContainer(path)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Original: data}
	payload, err := handler.ExtractExif(data)
	var ce *formats.CorruptContainerError
	switch {
	case errors.As(err, &ce):
		// an unreadable payload is still removable; a broken container fails in ReplaceExif
	case err != nil:
		return nil, err
	case payload == nil:
		out.Output = data
		return out, nil
	}

	if payload != nil {
		if snap, err := exifdata.Decode(payload); err == nil {
			out.Removed = snap.Entries()
			out.ThumbnailRemoved = len(snap.Thumbnail()) > 0
		}
	}

	if out.Output, err = handler.ReplaceExif(data, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func stripSelected(path string, refs []tags.Ref) (*Outcome, error) {
	in, err := analyse.Inspect(path)
	if err != nil {
		return nil, err
	}

	out := &Outcome{Original: in.Data, Output: in.Data}
	snap := in.Snapshot

	present := false
	for _, ref := range refs {
		if !snap.Has(ref) {
			continue
		}
		present = true
		if e, ok := snap.Lookup(ref); ok {
			out.Removed = append(out.Removed, e)
		}
		if ref == tags.ThumbnailRef {
			out.ThumbnailRemoved = true
		}
	}
	if !present {
		return out, nil
	}

	payload, err := snap.Without(refs).Encode()
	if err != nil {
		return nil, &formats.CorruptContainerError{Format: in.FileType.Format, Reason: "re-encoding EXIF", Err: err}
	}
	if out.Output, err = in.Handler.ReplaceExif(in.Data, payload); err != nil {
		return nil, err
	}
	return out, nil
}

// writes the outcome; an unchanged in-place file is not rewritten
func commit(path, outputPath string, out *Outcome) error {
	if outputPath == "" {
		outputPath = path
	}
	if outputPath == path && !out.Changed() {
		return nil
	}

	perm := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		perm = info.Mode().Perm()
	}
	if err := util.AtomicWrite(outputPath, out.Output, perm); err != nil {
		return &WriteError{Path: outputPath, Err: err}
	}
	return nil
}
