// BYZRA ⸻ internal/cli/update.go
// manual update check

package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"exifcleaner/internal/update"
	"exifcleaner/internal/util"
)

func newUpdateCmd(a *app) *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Check whether a newer release is available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format); err != nil {
				return err
			}

			repo := a.cfg.Update.Repository
			if repo == "" {
				repo = a.version.Repository
			}
			checker, err := update.NewChecker(repo, a.version.Version, a.cfg.Update.Timeout.Duration)
			if err != nil {
				return err
			}
			if a.cfg.Update.API != "" {
				checker.APIBase = a.cfg.Update.API
			}

			var info *update.Info
			_, err = util.SpinWhile("checking for updates", func() (string, error) {
				var err error
				info, err = checker.Check(cmd.Context())
				return "", err
			})
			if err != nil {
				return fmt.Errorf("update check failed: %w", err)
			}

			out := cmd.OutOrStdout()
			if !isText(format) {
				return encode(out, format, info)
			}

			if !info.UpdateAvailable {
				fmt.Fprintf(out, "%s %s\n", util.SuccessSymbol(),
					util.NSH.Render(fmt.Sprintf("%s is up to date (latest %s)", a.version, info.LatestVersion)))
				return nil
			}
			fmt.Fprintf(out, "%s %s\n", util.InfoSymbol(),
				util.LBL.Render(fmt.Sprintf("version %s is available (you have %s)", info.LatestVersion, info.CurrentVersion)))
			if info.ReleaseURL != "" {
				fmt.Fprintf(out, "  %s\n", util.SHE.Render(info.ReleaseURL))
			}
			if info.ReleaseNotes != "" {
				fmt.Fprintf(out, "\n%s\n", util.SUB.Render(info.ReleaseNotes))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "text", "output format: text, yaml or json")
	return cmd
}
