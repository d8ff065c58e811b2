// BYZRA ⸻ internal/batch/summary.go
// text, yaml and json renderings of a batch summary

package batch

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"exifcleaner/internal/util"
)

type ResultDoc struct {
	Path    string   `yaml:"path" json:"path"`
	Format  string   `yaml:"format,omitempty" json:"format,omitempty"`
	Status  Status   `yaml:"status" json:"status"`
	Output  string   `yaml:"output,omitempty" json:"output,omitempty"`
	Backup  string   `yaml:"backup,omitempty" json:"backup,omitempty"`
	Removed []string `yaml:"removed,omitempty" json:"removed,omitempty"`
	Error   string   `yaml:"error,omitempty" json:"error,omitempty"`
}

type SummaryDoc struct {
	Run       string      `yaml:"run" json:"run"`
	Duration  string      `yaml:"duration" json:"duration"`
	Succeeded int         `yaml:"succeeded" json:"succeeded"`
	Failed    int         `yaml:"failed" json:"failed"`
	Skipped   int         `yaml:"skipped" json:"skipped"`
	Results   []ResultDoc `yaml:"results" json:"results"`
}

func (s Summary) Document() SummaryDoc {
	doc := SummaryDoc{
		Run:       s.RunID,
		Duration:  s.Finished.Sub(s.Started).Round(time.Millisecond).String(),
		Succeeded: s.Succeeded,
		Failed:    s.Failed,
		Skipped:   s.Skipped,
		Results:   make([]ResultDoc, 0, len(s.Results)),
	}
	for _, r := range s.Results {
		doc.Results = append(doc.Results, ResultDoc{
			Path:    r.Handle.Path,
			Format:  string(r.Handle.Format),
			Status:  r.Status,
			Output:  r.OutputPath,
			Backup:  r.BackupPath,
			Removed: r.Removed,
			Error:   r.Detail(),
		})
	}
	return doc
}

// Render formats the summary as "text", "yaml" or "json".
func (s Summary) Render(format string) (string, error) {
	switch strings.ToLower(format) {
	case "", "text":
		return FormatSummary(s), nil
	case "yaml", "yml":
		out, err := yaml.Marshal(s.Document())
		if err != nil {
			return "", fmt.Errorf("failed to marshal summary: %w", err)
		}
		return string(out), nil
	case "json":
		out, err := json.MarshalIndent(s.Document(), "", "  ")
		if err != nil {
			return "", fmt.Errorf("failed to marshal summary: %w", err)
		}
		return string(out) + "\n", nil
	}
	return "", fmt.Errorf("unknown output format %q", format)
}

func FormatSummary(s Summary) string {
	var sb strings.Builder

	for _, r := range s.Results {
		name := filepath.Base(r.Handle.Path)
		switch r.Status {
		case Succeeded:
			line := fmt.Sprintf("%s %s", util.SuccessSymbol(), util.NSH.Render(name))
			if len(r.Removed) > 0 {
				line += util.SUB.Render(fmt.Sprintf("  %d field(s) removed", len(r.Removed)))
			} else {
				line += util.SUB.Render("  nothing to remove")
			}
			if r.OutputPath != "" && r.OutputPath != r.Handle.Path {
				line += util.SUB.Render("  → " + r.OutputPath)
			}
			sb.WriteString(line)
		case Failed:
			sb.WriteString(fmt.Sprintf("%s %s  %s", util.ErrorSymbol(), util.NSH.Render(name), util.BRH.Render(r.Detail())))
		default:
			sb.WriteString(fmt.Sprintf("%s %s  %s", util.WarningSymbol(), util.NSH.Render(name), util.SUB.Render(r.Detail())))
		}
		sb.WriteString("\n")
	}

	if len(s.Results) > 0 {
		sb.WriteString(util.Divider)
		sb.WriteString("\n")
	}
	sb.WriteString(fmt.Sprintf("%s %s  %s  %s\n",
		util.Ornament,
		util.LBL.Render(fmt.Sprintf("%d succeeded", s.Succeeded)),
		util.BRH.Render(fmt.Sprintf("%d failed", s.Failed)),
		util.SEC.Render(fmt.Sprintf("%d skipped", s.Skipped))))

	return sb.String()
}
