// BYZRA ⸻ internal/cli/watch.go
// drop folder mode

package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"exifcleaner/internal/daemon"
	"exifcleaner/internal/util"
)

func newWatchCmd(a *app) *cobra.Command {
	var (
		names     []string
		preset    string
		sensitive bool
		recursive bool
	)

	cmd := &cobra.Command{
		Use:   "watch [dir]...",
		Short: "Clean images as they arrive in watched folders",
		Long: `Watches folders (default: [watch] paths from the config) and strips every
image that lands in them, using the [output] settings for placement.
Runs until interrupted. Activity goes to the [log] path.`,
		Example: `  exifcleaner watch ~/Downloads
  exifcleaner watch --preset gps -r ~/Drop`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := daemon.RequestFromConfig(a.cfg)
			if err != nil {
				return err
			}
			if req.Mode, req.Tags, err = a.selection(names, preset, sensitive); err != nil {
				return err
			}
			if cmd.Flags().Changed("recursive") {
				a.cfg.Watch.Recursive = recursive
			}

			d, err := daemon.NewDaemon(a.cfg, req, args)
			if err != nil {
				return err
			}
			if err := d.Start(); err != nil {
				return err
			}

			st := d.Status()
			out := cmd.ErrOrStderr()
			fmt.Fprintf(out, "%s %s %s\n", util.SuccessSymbol(), util.LBL.Render("watching"), util.NSH.Render(strings.Join(st.WatchedDirs, ", ")))
			fmt.Fprintf(out, "%s %s\n", util.InfoSymbol(), util.SUB.Render("log: "+d.Logger().Path()))

			<-cmd.Context().Done()

			st = d.Status()
			if err := d.Stop(); err != nil {
				return err
			}
			fmt.Fprintf(out, "%s %s\n", util.Ornament, util.SUB.Render(fmt.Sprintf(
				"stopped: %d cleaned, %d failed, %d skipped", st.ProcessedFiles, st.ErrorCount, st.SkippedFiles)))
			return nil
		},
	}

	addSelectionFlags(cmd, &names, &preset, &sensitive)
	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "watch subfolders too")
	return cmd
}
