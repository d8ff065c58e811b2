// BYZRA ⸻ internal/wipe/verify.go
// integrity verification for processed files

package wipe

import (
	"bytes"
	"fmt"
	"os"
	"strings"

	"exifcleaner/internal/analyse"
	"exifcleaner/internal/tags"
	"exifcleaner/internal/util"
)

// results of a file verification
type VerificationResult struct {
	Success          bool
	ImageIntact      bool
	MetadataRemoved  bool
	RemainingFields  []string
	ValidationErrors []string
}

// checks that output carries the same picture as original and none of refs.
// nil refs means no EXIF may remain at all
func VerifyFile(originalPath, outputPath string, refs []tags.Ref) (*VerificationResult, error) {
	original, err := os.ReadFile(originalPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read original: %w", err)
	}
	return verifyBytes(original, outputPath, refs), nil
}

func verifyBytes(original []byte, outputPath string, refs []tags.Ref) *VerificationResult {
	result := &VerificationResult{}
	fail := func(format string, args ...any) *VerificationResult {
		result.ValidationErrors = append(result.ValidationErrors, fmt.Sprintf(format, args...))
		return result
	}

	out, err := analyse.Inspect(outputPath)
	if err != nil {
		return fail("output unreadable: %s", err)
	}

	before, err := out.Handler.ImageData(original)
	if err != nil {
		return fail("original unreadable: %s", err)
	}
	after, err := out.Handler.ImageData(out.Data)
	if err != nil {
		return fail("output image data unreadable: %s", err)
	}
	result.ImageIntact = bytes.Equal(before, after)
	if !result.ImageIntact {
		fail("image data changed")
	}

	if refs == nil {
		for _, e := range out.Snapshot.Entries() {
			result.RemainingFields = append(result.RemainingFields, e.Name)
		}
		if len(out.Snapshot.Thumbnail()) > 0 {
			result.RemainingFields = append(result.RemainingFields, "thumbnail")
		}
	} else {
		for _, ref := range refs {
			if out.Snapshot.Has(ref) {
				result.RemainingFields = append(result.RemainingFields, tags.NameOf(ref))
			}
		}
	}
	result.MetadataRemoved = len(result.RemainingFields) == 0
	if !result.MetadataRemoved {
		fail("%d field(s) still present", len(result.RemainingFields))
	}

	result.Success = result.ImageIntact && result.MetadataRemoved
	return result
}

// user-friendly report of the verification
func FormatVerificationResult(result *VerificationResult) string {
	var sb strings.Builder

	if result.Success {
		sb.WriteString(util.NSH.Render("✓ Output verified"))
		sb.WriteString("\n")
		return sb.String()
	}

	if !result.ImageIntact {
		sb.WriteString(util.LBL.Render("[!] Image data differs from the original."))
		sb.WriteString("\n")
	}

	if len(result.RemainingFields) > 0 {
		sb.WriteString(util.LBL.Render(fmt.Sprintf("[!] %d field(s) were not removed.", len(result.RemainingFields))))
		sb.WriteString("\n")
		for _, field := range result.RemainingFields {
			sb.WriteString("  ")
			sb.WriteString(util.NSH.Render("• " + field))
			sb.WriteString("\n")
		}
	}

	for _, msg := range result.ValidationErrors {
		if strings.HasPrefix(msg, "output") || strings.HasPrefix(msg, "original") {
			sb.WriteString(util.NSH.Render("  • " + msg))
			sb.WriteString("\n")
		}
	}

	return sb.String()
}
