// BYZRA ⸻ internal/cli/strip.go
// batch removal over files and folders

package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"exifcleaner/internal/batch"
	"exifcleaner/internal/collect"
	"exifcleaner/internal/util"
	"exifcleaner/internal/wipe"
)

type stripFlags struct {
	tags      []string
	preset    string
	sensitive bool

	inPlace bool
	outDir  string
	suffix  string

	recursive bool
	backup    bool
	secure    bool
	noVerify  bool
	format    string
}

func newStripCmd(a *app) *cobra.Command {
	var f stripFlags

	cmd := &cobra.Command{
		Use:   "strip <path>...",
		Short: "Remove EXIF metadata from images and folders",
		Long: `Removes the whole EXIF payload, or only the selected tags, from every image
given. Folders are expanded to the images they contain.

Without an output flag the [output] section of the config decides where
cleaned files go (default: photo.jpg -> photo.clean.jpg).`,
		Example: `  exifcleaner strip photo.jpg
  exifcleaner strip --in-place --backup ~/Pictures/trip
  exifcleaner strip --sensitive --out-dir clean -r ~/Pictures
  exifcleaner strip --tags GPSLatitude,GPSLongitude --format json a.png b.webp`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(f.format); err != nil {
				return err
			}
			req, err := a.stripRequest(cmd, f, args)
			if err != nil {
				return err
			}

			handles, errs := collect.Collect(args, collect.Options{
				Recursive:    f.recursive,
				Extensions:   a.cfg.Filter.Extensions,
				OutputSuffix: req.Output.SiblingSuffix(),
			})
			for _, err := range errs {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s %v\n", util.WarningSymbol(), err)
			}
			if len(handles) == 0 {
				return fmt.Errorf("no images found")
			}

			var runner batch.Runner
			progress, done, err := runner.Start(cmd.Context(), handles, req)
			if err != nil {
				return err
			}

			var bar *util.ProgressBar
			if isText(f.format) && len(handles) > 1 {
				bar = util.NewProgressBar(cmd.ErrOrStderr(), "stripping")
			}
			for p := range progress {
				if bar != nil {
					bar.Update(p.Done, p.Total)
				}
			}
			if bar != nil {
				bar.Done()
			}
			summary := <-done

			out, err := summary.Render(f.format)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)

			switch {
			case summary.Failed > 0:
				return fmt.Errorf("%d file(s) failed", summary.Failed)
			case len(errs) > 0:
				return fmt.Errorf("%d path(s) could not be read", len(errs))
			}
			return nil
		},
	}

	addSelectionFlags(cmd, &f.tags, &f.preset, &f.sensitive)
	cmd.Flags().BoolVarP(&f.inPlace, "in-place", "i", false, "rewrite files in place")
	cmd.Flags().StringVarP(&f.outDir, "out-dir", "o", "", "write cleaned files under this directory")
	cmd.Flags().StringVarP(&f.suffix, "suffix", "s", "", "write cleaned files next to the originals with this suffix")
	cmd.MarkFlagsMutuallyExclusive("in-place", "out-dir", "suffix")
	cmd.Flags().BoolVarP(&f.recursive, "recursive", "r", false, "descend into subfolders")
	cmd.Flags().BoolVar(&f.backup, "backup", false, "keep a .bak of files rewritten in place")
	cmd.Flags().BoolVar(&f.secure, "secure", false, "overwrite discarded backups before removing them")
	cmd.Flags().BoolVar(&f.noVerify, "no-verify", false, "skip re-reading outputs")
	cmd.Flags().StringVarP(&f.format, "format", "f", "text", "summary format: text, yaml or json")
	return cmd
}

func (a *app) stripRequest(cmd *cobra.Command, f stripFlags, args []string) (batch.Request, error) {
	mode, refs, err := a.selection(f.tags, f.preset, f.sensitive)
	if err != nil {
		return batch.Request{}, err
	}

	placement, err := wipe.ParsePlacement(a.cfg.Output.Mode)
	if err != nil {
		return batch.Request{}, err
	}
	opts := wipe.WipeOptions{
		Placement:    placement,
		OutputDir:    a.cfg.Output.Dir,
		Suffix:       a.cfg.Output.Suffix,
		KeepBackup:   a.cfg.Output.Backup,
		SecureDelete: a.cfg.Output.Secure,
		Verify:       !f.noVerify,
	}

	switch {
	case f.inPlace:
		opts.Placement = wipe.InPlace
	case f.outDir != "":
		opts.Placement = wipe.Directory
		opts.OutputDir = f.outDir
	case f.suffix != "":
		opts.Placement = wipe.Sibling
		opts.Suffix = f.suffix
	}
	if cmd.Flags().Changed("backup") {
		opts.KeepBackup = f.backup
	}
	if cmd.Flags().Changed("secure") {
		opts.SecureDelete = f.secure
	}

	if opts.Placement == wipe.Directory {
		if opts.OutputDir == "" {
			return batch.Request{}, fmt.Errorf("output mode is directory but no output dir is set")
		}
		if opts.OutputDir, err = filepath.Abs(opts.OutputDir); err != nil {
			return batch.Request{}, err
		}
		// a single folder argument keeps its layout under the output dir
		if len(args) == 1 {
			if info, err := os.Stat(args[0]); err == nil && info.IsDir() {
				opts.Root, _ = filepath.Abs(args[0])
			}
		}
	}

	return batch.Request{Mode: mode, Tags: refs, Output: opts}, nil
}
