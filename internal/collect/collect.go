// BYZRA ⸻ internal/collect/collect.go
// expands file and folder arguments into image handles

package collect

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"exifcleaner/internal/analyse"
	"exifcleaner/internal/formats"
	"exifcleaner/internal/util"
)

type Options struct {
	// descend into subfolders of folder arguments
	Recursive bool

	// extensions picked up while expanding folders ("jpg", ".png");
	// empty means every supported extension
	Extensions []string

	// folder names never entered
	ExcludeDirs []string

	// stem suffix of sibling outputs ("photo.clean.jpg"), never picked up again
	OutputSuffix string
}

// PathError records an argument or folder entry that could not become a handle.
type PathError struct {
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *PathError) Unwrap() error { return e.Err }

// Collect turns paths into handles in argument order, folders expanded in
// lexical order. Files named directly are kept even when unsupported, so the
// batch can report them as skipped. Duplicates are dropped.
func Collect(paths []string, options Options) ([]analyse.ImageHandle, []error) {
	var (
		handles []analyse.ImageHandle
		errs    []error
		seen    = make(map[string]bool)
	)

	add := func(path string, explicit bool) {
		abs, err := filepath.Abs(path)
		if err != nil {
			errs = append(errs, &PathError{Path: path, Err: err})
			return
		}
		if seen[abs] {
			return
		}
		seen[abs] = true

		h, err := analyse.NewImageHandle(abs)
		var unsupported *formats.UnsupportedFormatError
		switch {
		case err == nil:
			handles = append(handles, h)
		case explicit && errors.As(err, &unsupported):
			handles = append(handles, analyse.ImageHandle{Path: abs, Writable: util.IsWritable(abs)})
		default:
			errs = append(errs, &PathError{Path: path, Err: err})
		}
	}

	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			errs = append(errs, &PathError{Path: p, Err: err})
			continue
		}
		if !info.IsDir() {
			add(p, true)
			continue
		}
		if err := options.walk(p, func(path string) { add(path, false) }); err != nil {
			errs = append(errs, &PathError{Path: p, Err: err})
		}
	}

	return handles, errs
}

func (o Options) walk(root string, visit func(string)) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// unreadable entries below the root are skipped
			return nil
		}
		if d.IsDir() {
			if path == root {
				return nil
			}
			if !o.Recursive || hidden(d.Name()) || slices.Contains(o.ExcludeDirs, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && o.Wants(path) {
			visit(path)
		}
		return nil
	})
}

// Wants reports whether a file found while expanding a folder is picked up.
func (o Options) Wants(path string) bool {
	name := filepath.Base(path)
	if hidden(name) || strings.HasSuffix(name, util.BackupSuffix) {
		return false
	}
	if o.OutputSuffix != "" && strings.HasSuffix(strings.TrimSuffix(name, filepath.Ext(name)), o.OutputSuffix) {
		return false
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if ext == "" {
		return false
	}
	if len(o.Extensions) == 0 {
		return formats.IsSupported(ext)
	}
	for _, allowed := range o.Extensions {
		if strings.ToLower(strings.TrimPrefix(allowed, ".")) == ext {
			return formats.IsSupported(ext)
		}
	}
	return false
}

func hidden(name string) bool {
	return strings.HasPrefix(name, ".") && name != "." && name != ".."
}
