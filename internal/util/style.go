// BYZRA ⸻ internal/util/style.go
// defines CLI visual style, color roles, ornaments, and motion

package util

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/lipgloss"
)

type ColorConfig struct {
	Colors struct {
		CHRM string
		HEAT string
		HOTP string
		GUNM string
		VBLK string
		CSTL string
	}
}

// ╭─ COLOR ROLES ───────────────────────────────╮
var (
	CHRM lipgloss.Color
	HEAT lipgloss.Color
	HOTP lipgloss.Color
	GUNM lipgloss.Color
	VBLK lipgloss.Color
	CSTL lipgloss.Color
)

// ╭─ STYLE DEFINITIONS ─────────────────────────╮
var (
	BRH lipgloss.Style
	LBL lipgloss.Style
	SUB lipgloss.Style
	NSH lipgloss.Style
	SHE lipgloss.Style
	SEC lipgloss.Style
	NLL lipgloss.Style
	ORN lipgloss.Style
)

func init() {
	ApplyColors(loadColorConfig())
}

// rebuilds every style from a palette
func ApplyColors(config ColorConfig) {
	CHRM = lipgloss.Color(config.Colors.CHRM)
	HEAT = lipgloss.Color(config.Colors.HEAT)
	HOTP = lipgloss.Color(config.Colors.HOTP)
	GUNM = lipgloss.Color(config.Colors.GUNM)
	VBLK = lipgloss.Color(config.Colors.VBLK)
	CSTL = lipgloss.Color(config.Colors.CSTL)

	BRH = lipgloss.NewStyle().Foreground(HOTP).Bold(true)
	LBL = lipgloss.NewStyle().Foreground(HEAT).Bold(true)
	SUB = lipgloss.NewStyle().Foreground(GUNM)
	NSH = lipgloss.NewStyle().Foreground(CHRM).Bold(true)
	SHE = lipgloss.NewStyle().Foreground(CHRM).Bold(true).Underline(true)
	SEC = lipgloss.NewStyle().Foreground(CSTL).Bold(true)
	NLL = lipgloss.NewStyle().Foreground(VBLK).Faint(true)
	ORN = lipgloss.NewStyle().Foreground(GUNM).Bold(true)

	Ornament = ORN.Render("›")
	Divider = SUB.Render(strings.Repeat("─", 48))
}

func DefaultColors() ColorConfig {
	var config ColorConfig
	config.Colors.CHRM = "#C0C0C0"
	config.Colors.HEAT = "#FF5C00"
	config.Colors.HOTP = "#FF007F"
	config.Colors.GUNM = "#444444"
	config.Colors.VBLK = "#121212"
	config.Colors.CSTL = "#88AABB"
	return config
}

func loadColorConfig() ColorConfig {
	paths := []string{
		"theme.toml",
		"config/theme.toml",
		filepath.Join(os.Getenv("HOME"), ".exifcleaner", "theme.toml"),
	}

	for _, path := range paths {
		config := DefaultColors()
		if _, err := toml.DecodeFile(path, &config); err == nil {
			return config
		}
	}
	return DefaultColors()
}

// ╭─ ORNAMENT ──────────────────────────────────╮
var (
	Ornament string // prefix UX lines
	Divider  string
)

// ╭─ SPINNER ───────────────────────────────────╮
// spinner frames go to stderr so stdout stays clean for yaml/json
func SpinWhile(label string, fn func() (string, error)) (string, error) {
	s := spinner.New(spinner.WithSpinner(spinner.Meter))
	ticker := time.NewTicker(s.Spinner.FPS)
	defer ticker.Stop()

	done := make(chan struct{})
	result := make(chan struct {
		out string
		err error
	})

	go func() {
		frame := 0
		frames := s.Spinner.Frames
		for {
			select {
			case <-ticker.C:
				fmt.Fprintf(os.Stderr, "\r%s %s", ORN.Render(frames[frame]), LBL.Render(label))
				frame = (frame + 1) % len(frames)
			case <-done:
				return
			}
		}
	}()

	go func() {
		out, err := fn()
		result <- struct {
			out string
			err error
		}{out, err}
	}()

	res := <-result
	close(done)
	ClearLine(os.Stderr)
	return res.out, res.err
}

// ╭─ PROGRESS ──────────────────────────────────╮
type ProgressBar struct {
	w     io.Writer
	bar   progress.Model
	label string
}

func NewProgressBar(w io.Writer, label string) *ProgressBar {
	return &ProgressBar{
		w:     w,
		bar:   progress.New(progress.WithDefaultGradient(), progress.WithWidth(32)),
		label: label,
	}
}

// redraws the bar in place
func (p *ProgressBar) Update(done, total int) {
	percent := 1.0
	if total > 0 {
		percent = float64(done) / float64(total)
	}
	fmt.Fprintf(p.w, "\r%s %s %s",
		LBL.Render(p.label),
		p.bar.ViewAs(percent),
		SUB.Render(fmt.Sprintf("%d/%d", done, total)))
}

func (p *ProgressBar) Done() {
	ClearLine(p.w)
}

func SuccessSymbol() string {
	return LBL.Render("[✓]")
}

func WarningSymbol() string {
	return SEC.Render("[!]")
}

func InfoSymbol() string {
	return NSH.Render("[i]")
}

func ErrorSymbol() string {
	return BRH.Render("[X]")
}

// ╭─ CLEAR ─────────────────────────────────────╮
func ClearLine(w io.Writer) {
	fmt.Fprint(w, "\r\033[K")
}
