// BYZRA ⸻ internal/cli/view.go
// metadata preview

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"exifcleaner/internal/analyse"
	"exifcleaner/internal/util"
)

func newViewCmd(a *app) *cobra.Command {
	var (
		format string
		simple bool
	)

	cmd := &cobra.Command{
		Use:     "view <file>...",
		Aliases: []string{"analyse", "analyze"},
		Short:   "Show the EXIF metadata of images",
		Example: `  exifcleaner view photo.jpg
  exifcleaner view --format json *.png`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			var reports []*analyse.AnalysisReport
			failed := 0
			for _, path := range args {
				report, err := analyse.Analyze(path)
				if err != nil {
					report = &analyse.AnalysisReport{Path: path, Err: err}
					failed++
				}
				reports = append(reports, report)
			}

			switch {
			case !isText(format):
				docs := make([]analyse.ReportDoc, 0, len(reports))
				for _, r := range reports {
					docs = append(docs, r.Document())
				}
				if err := encode(out, format, docs); err != nil {
					return err
				}
			case simple:
				for _, r := range reports {
					fmt.Fprintln(out, analyse.GenerateSimplifiedReport(r))
				}
			default:
				for _, r := range reports {
					fmt.Fprintln(out, util.Divider)
					fmt.Fprint(out, analyse.GenerateReport(r))
				}
			}

			if failed > 0 {
				return fmt.Errorf("%d of %d file(s) could not be read", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, yaml or json")
	cmd.Flags().BoolVar(&simple, "simple", false, "plain key: value listing")
	return cmd
}
