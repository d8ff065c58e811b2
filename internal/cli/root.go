// BYZRA ⸻ internal/cli/root.go
// command tree and shared flags

package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"exifcleaner/internal/config"
	"exifcleaner/internal/tags"
	"exifcleaner/internal/util"
	"exifcleaner/internal/wipe"
)

// state shared by every command of one invocation
type app struct {
	configPath string
	verbose    bool

	cfg     *config.Config
	version config.Version
}

func NewRootCmd() *cobra.Command {
	a := &app{version: config.DefaultVersion()}

	cmd := &cobra.Command{
		Use:   "exifcleaner",
		Short: "Strip or selectively remove EXIF metadata from JPEG, PNG and WEBP images",
		Long: util.LBL.Render(a.version.AppName) + "\n" + util.SUB.Render(a.version.Description) + `

Metadata is removed at the container level: pixel data is never re-encoded.
Folders are expanded to the images they contain, and a drop folder can be
watched so that arriving images are cleaned automatically.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional
			_ = godotenv.Load()
			return a.setup(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "config file (default: search exifcleaner.toml)")
	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging on stderr")

	cmd.AddCommand(
		newViewCmd(a),
		newStripCmd(a),
		newTagsCmd(),
		newPresetsCmd(a),
		newWatchCmd(a),
		newUpdateCmd(a),
	)
	return cmd
}

func (a *app) setup(stderr io.Writer) error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFile(a.configPath)
	} else {
		a.cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}

	level, err := a.cfg.LogLevel()
	if err != nil {
		return err
	}
	// the default is quiet on the terminal
	if level < slog.LevelWarn {
		level = slog.LevelWarn
	}
	if a.verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))
	if a.cfg.Source != "" {
		slog.Debug("config loaded", "path", a.cfg.Source)
	}

	if v, err := config.LoadVersion(); err == nil {
		a.version = v
	}
	return nil
}

// resolves --tags, --preset and --sensitive into a selection.
// none of them means strip everything
func (a *app) selection(names []string, preset string, sensitive bool) (wipe.Mode, []tags.Ref, error) {
	var all []string
	for _, n := range names {
		all = append(all, strings.Split(n, ",")...)
	}
	if sensitive {
		for _, t := range tags.Sensitive() {
			all = append(all, t.Name)
		}
	}
	if preset != "" {
		presets, _, err := config.LoadPresets()
		if err != nil {
			return 0, nil, err
		}
		if _, ok := presets[strings.ToLower(preset)]; !ok {
			return 0, nil, fmt.Errorf("unknown preset %q (have %s)", preset, strings.Join(presets.Names(), ", "))
		}
		all = append(all, presets[strings.ToLower(preset)]...)
	}

	if len(names) == 0 && preset == "" && !sensitive {
		return wipe.ModeAll, nil, nil
	}
	refs, err := tags.ResolveAll(all)
	if err != nil {
		return 0, nil, err
	}
	if len(refs) == 0 {
		return 0, nil, fmt.Errorf("empty tag selection")
	}
	return wipe.ModeSelected, refs, nil
}

func addSelectionFlags(cmd *cobra.Command, names *[]string, preset *string, sensitive *bool) {
	cmd.Flags().StringSliceVarP(names, "tags", "t", nil, "remove only these tags (comma separated catalog names)")
	cmd.Flags().StringVarP(preset, "preset", "p", "", "remove the tags of a named preset")
	cmd.Flags().BoolVar(sensitive, "sensitive", false, "remove the privacy-relevant tags (GPS, camera, owner, dates)")
}

func checkFormat(format string) error {
	switch strings.ToLower(format) {
	case "", "text", "yaml", "yml", "json":
		return nil
	}
	return fmt.Errorf("unknown output format %q (want text, yaml or json)", format)
}

// writes v as yaml or json
func encode(w io.Writer, format string, v any) error {
	switch strings.ToLower(format) {
	case "yaml", "yml":
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("failed to encode yaml: %w", err)
		}
		return enc.Close()
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	return fmt.Errorf("unknown output format %q", format)
}

func isText(format string) bool {
	return format == "" || strings.EqualFold(format, "text")
}
