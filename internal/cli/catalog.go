// BYZRA ⸻ internal/cli/catalog.go
// tag catalog and preset listings

package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"exifcleaner/internal/config"
	"exifcleaner/internal/tags"
	"exifcleaner/internal/util"
)

type tagDoc struct {
	Directory string `yaml:"directory" json:"directory"`
	ID        string `yaml:"id" json:"id"`
	Name      string `yaml:"name" json:"name"`
	Sensitive bool   `yaml:"sensitive,omitempty" json:"sensitive,omitempty"`
}

func newTagsCmd() *cobra.Command {
	var (
		dir       string
		sensitive bool
		format    string
	)

	cmd := &cobra.Command{
		Use:   "tags",
		Short: "List the tags that can be removed selectively",
		Example: `  exifcleaner tags
  exifcleaner tags --dir GPS
  exifcleaner tags --sensitive --format yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			list := tags.ListAll()
			if dir != "" {
				d, err := tags.ParseDirectory(dir)
				if err != nil {
					return err
				}
				list = tags.InDirectory(d)
			}
			if sensitive {
				var only []tags.Tag
				for _, t := range list {
					if t.Sensitive {
						only = append(only, t)
					}
				}
				list = only
			}

			if !isText(format) {
				docs := make([]tagDoc, 0, len(list))
				for _, t := range list {
					docs = append(docs, tagDoc{
						Directory: t.Directory.String(),
						ID:        fmt.Sprintf("0x%04X", t.ID),
						Name:      t.Name,
						Sensitive: t.Sensitive,
					})
				}
				return encode(cmd.OutOrStdout(), format, docs)
			}
			writeTags(cmd.OutOrStdout(), list)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dir, "dir", "d", "", "only one directory: 0th, Exif, GPS, Interop or 1st")
	cmd.Flags().BoolVar(&sensitive, "sensitive", false, "only the privacy-relevant tags")
	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, yaml or json")
	return cmd
}

func writeTags(w io.Writer, list []tags.Tag) {
	var current tags.Directory = -1
	for _, t := range list {
		if t.Directory != current {
			current = t.Directory
			fmt.Fprintf(w, "\n%s %s\n", util.Ornament, util.LBL.Render(current.String()))
		}
		mark := "  "
		if t.Sensitive {
			mark = util.BRH.Render("● ")
		}
		fmt.Fprintf(w, "  %s%s  %s\n", mark, util.SUB.Render(fmt.Sprintf("0x%04X", t.ID)), util.NSH.Render(t.Name))
	}
	fmt.Fprintf(w, "\n%s\n", util.SUB.Render(fmt.Sprintf("%d tag(s); ● marks the --sensitive selection", len(list))))
}

func newPresetsCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "presets",
		Short: "List named tag selections for --preset",
		Long: `Lists the built-in presets merged with presets.lua.

presets.lua is searched in ./, config/ and ~/.exifcleaner/ and must return
a table of lists, e.g.

  return {
    social = { "GPSLatitude", "GPSLongitude", "Make", "Model" },
  }`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			presets, source, err := config.LoadPresets()
			if err != nil {
				return err
			}
			if !isText(format) {
				return encode(cmd.OutOrStdout(), format, presets)
			}

			out := cmd.OutOrStdout()
			if source != "" {
				fmt.Fprintf(out, "%s %s\n", util.InfoSymbol(), util.SUB.Render("loaded "+source))
			}
			for _, name := range presets.Names() {
				fmt.Fprintf(out, "%s %s\n    %s\n", util.Ornament, util.LBL.Render(name),
					util.NSH.Render(strings.Join(presets[name], ", ")))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, yaml or json")
	return cmd
}
