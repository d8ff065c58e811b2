//  BYZRA ⸻ cmd/exifcleaner/main.go <>
// +-----------------------------------------------------------+
//  EXIF Cleaner                                               |
//  strip or selectively remove EXIF from JPEG, PNG and WEBP   |____________________________
//                                                              .go <--| CLI entrypoint +

package main

import (
	"context"
	"os"
	"syscall"

	"github.com/charmbracelet/fang"

	"exifcleaner/internal/cli"
	"exifcleaner/internal/config"
)

// signals that cancel the command context; SIGKILL cannot be caught
var signals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	root := cli.NewRootCmd()

	if err := fang.Execute(
		context.Background(),
		root,
		fang.WithVersion(config.DefaultVersion().Version),
		fang.WithNotifySignal(signals...),
	); err != nil {
		os.Exit(1)
	}
}
