// BYZRA ⸻ internal/wipe/wipe.go
// main wipe orchestration

package wipe

import (
	"fmt"
	"path/filepath"
	"strings"

	"exifcleaner/internal/tags"
	"exifcleaner/internal/util"
)

type Mode int

const (
	// drop the whole payload
	ModeAll Mode = iota
	// drop only WipeOptions.Tags
	ModeSelected
)

func (m Mode) String() string {
	if m == ModeSelected {
		return "selected"
	}
	return "all"
}

type Placement string

const (
	InPlace   Placement = "in-place"
	Sibling   Placement = "suffix"
	Directory Placement = "directory"
)

func ParsePlacement(s string) (Placement, error) {
	switch p := Placement(strings.ToLower(strings.TrimSpace(s))); p {
	case InPlace, Sibling, Directory:
		return p, nil
	case "":
		return Sibling, nil
	}
	return "", fmt.Errorf("unknown output mode %q (want in-place, suffix or directory)", s)
}

type WipeOptions struct {
	Mode Mode
	Tags []tags.Ref

	Placement Placement
	// Directory placement target; Root keeps subfolders relative to it
	OutputDir string
	Root      string
	// Sibling placement: photo.jpg -> photo<Suffix>.jpg
	Suffix string

	// keep the .bak made before an in-place rewrite?
	KeepBackup bool

	// overwrite backups before removing them?
	SecureDelete bool

	// re-read the output and check it
	Verify bool
}

func DefaultWipeOptions() *WipeOptions {
	return &WipeOptions{
		Mode:      ModeAll,
		Placement: Sibling,
		Suffix:    ".clean",
		Verify:    true,
	}
}

type WipeResult struct {
	Success      bool
	OriginalPath string
	OutputPath   string
	BackupPath   string
	Removed      []string
	Changed      bool
	Verification *VerificationResult
}

func outputPath(path string, options *WipeOptions) (string, error) {
	switch options.Placement {
	case InPlace:
		return path, nil
	case Directory:
		if options.OutputDir == "" {
			return "", fmt.Errorf("output directory not set")
		}
		return util.MirrorPath(options.Root, path, options.OutputDir), nil
	default:
		return util.GenerateOutputPath(path, options.SiblingSuffix()), nil
	}
}

// SiblingSuffix is the stem suffix sibling outputs carry; empty for other placements.
func (o *WipeOptions) SiblingSuffix() string {
	switch {
	case o.Placement == InPlace || o.Placement == Directory:
		return ""
	case o.Suffix == "":
		return ".clean"
	}
	return o.Suffix
}

// removes metadata from a file and places the result per options.
// typed errors from the adapter are returned as-is
func WipeFile(path string, options *WipeOptions) (*WipeResult, error) {
	if options == nil {
		options = DefaultWipeOptions()
	}

	result := &WipeResult{OriginalPath: path}

	if err := util.ValidatePath(path); err != nil {
		return result, fmt.Errorf("invalid input file: %w", err)
	}

	out, err := options.strip(path)
	if err != nil {
		return result, err
	}
	result.Changed = out.Changed()
	for _, e := range out.Removed {
		result.Removed = append(result.Removed, e.Name)
	}
	if out.ThumbnailRemoved {
		result.Removed = append(result.Removed, "thumbnail")
	}

	dst, err := outputPath(path, options)
	if err != nil {
		return result, err
	}
	result.OutputPath = dst

	if dst == path && result.Changed {
		backupPath, err := util.CreateBackup(path)
		if err != nil {
			return result, &WriteError{Path: path + util.BackupSuffix, Err: err}
		}
		result.BackupPath = backupPath
	}

	if err := commit(path, dst, out); err != nil {
		return result, err
	}

	if options.Verify {
		var refs []tags.Ref
		if options.Mode == ModeSelected {
			refs = append([]tags.Ref{}, options.Tags...)
		}
		result.Verification = verifyBytes(out.Original, dst, refs)
	}

	result.Success = result.Verification == nil || result.Verification.Success

	// option-based clean up
	if result.BackupPath != "" && !options.KeepBackup && result.Success {
		if err := util.RemoveFile(result.BackupPath, options.SecureDelete); err == nil {
			result.BackupPath = ""
		}
	}

	return result, nil
}

func (o *WipeOptions) strip(path string) (*Outcome, error) {
	if o.Mode == ModeSelected {
		return stripSelected(path, o.Tags)
	}
	return stripAll(path)
}

// report of the wipe operation
func FormatWipeResult(result *WipeResult) string {
	var sb strings.Builder

	name := filepath.Base(result.OriginalPath)
	switch {
	case !result.Changed:
		sb.WriteString(util.SEC.Render(fmt.Sprintf("[i] %s: no matching EXIF metadata", name)))
	case result.Success:
		sb.WriteString(util.SEC.Render(fmt.Sprintf("✓ %s: removed %d field(s)", name, len(result.Removed))))
	default:
		sb.WriteString(util.BRH.Render(fmt.Sprintf("[!] %s: processed with issues", name)))
	}
	sb.WriteString("\n")

	if result.OutputPath != "" && result.OutputPath != result.OriginalPath {
		sb.WriteString(util.NSH.Render(fmt.Sprintf("[i] Output saved to: %s", result.OutputPath)))
		sb.WriteString("\n")
	}
	if result.BackupPath != "" {
		sb.WriteString(util.NSH.Render(fmt.Sprintf("[i] Backup kept at: %s", result.BackupPath)))
		sb.WriteString("\n")
	}

	if result.Verification != nil && !result.Verification.Success {
		sb.WriteString(FormatVerificationResult(result.Verification))
	}

	return sb.String()
}
