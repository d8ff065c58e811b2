// BYZRA ⸻ internal/daemon/daemon.go
// watch mode: strips images as they land in the watched folders

package daemon

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"exifcleaner/internal/analyse"
	"exifcleaner/internal/batch"
	"exifcleaner/internal/collect"
	"exifcleaner/internal/config"
	"exifcleaner/internal/wipe"
)

// rotate the watch log past 5MB
const maxLogSize = 5 << 20

// background service that monitors folders
type Daemon struct {
	config  *config.Config
	request batch.Request
	dirs    []string
	logger  *Logger
	watcher *Watcher

	mu      sync.Mutex
	running bool
	started time.Time

	processed atomic.Int64
	failed    atomic.Int64
	skipped   atomic.Int64
}

// current state of the daemon
type DaemonStatus struct {
	Running        bool
	WatchedDirs    []string
	FileTypes      []string
	ProcessedFiles int
	ErrorCount     int
	SkippedFiles   int
	StartTime      time.Time
}

// new daemon instance. dirs overrides [watch] paths when non-empty
func NewDaemon(cfg *config.Config, req batch.Request, dirs []string) (*Daemon, error) {
	if cfg == nil {
		cfg = config.GetDefaultConfig()
	}
	if len(dirs) == 0 {
		dirs = cfg.Watch.Paths
	}

	level, err := cfg.LogLevel()
	if err != nil {
		return nil, err
	}
	logger, err := NewLogger(cfg.Log.Path, level, maxLogSize)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return &Daemon{
		config:  cfg,
		request: req,
		dirs:    dirs,
		logger:  logger,
	}, nil
}

// RequestFromConfig builds the strip request watch mode applies to every file
func RequestFromConfig(cfg *config.Config) (batch.Request, error) {
	placement, err := wipe.ParsePlacement(cfg.Output.Mode)
	if err != nil {
		return batch.Request{}, err
	}
	return batch.Request{
		Mode: wipe.ModeAll,
		Output: wipe.WipeOptions{
			Placement:    placement,
			OutputDir:    cfg.Output.Dir,
			Suffix:       cfg.Output.Suffix,
			KeepBackup:   cfg.Output.Backup,
			SecureDelete: cfg.Output.Secure,
			Verify:       true,
		},
	}, nil
}

func (d *Daemon) Logger() *Logger {
	return d.logger
}

func (d *Daemon) Start() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running {
		return fmt.Errorf("daemon already running")
	}

	d.logger.Info("starting daemon", "mode", d.request.Mode, "placement", d.request.Output.Placement)

	filter := collect.Options{Extensions: d.config.Filter.Extensions, OutputSuffix: d.request.Output.SiblingSuffix()}
	options := WatchOptions{
		Accept:      filter.Wants,
		ExcludeDirs: []string{".git", "node_modules", ".venv"},
		MinFileAge:  d.config.Watch.MinAge.Duration,
		Settle:      500 * time.Millisecond,
		Recursive:   d.config.Watch.Recursive,
	}
	if d.request.Output.Placement == wipe.Directory && d.request.Output.OutputDir != "" {
		options.ExcludeDirs = append(options.ExcludeDirs, filepath.Base(d.request.Output.OutputDir))
	}

	watcher, err := NewWatcher(d.dirs, options, d.handleFile, d.logger)
	if err != nil {
		d.logger.Error("failed to create watcher", "err", err)
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	if err := watcher.Start(); err != nil {
		d.logger.Error("failed to start watcher", "err", err)
		return fmt.Errorf("failed to start watcher: %w", err)
	}

	d.watcher = watcher
	d.running = true
	d.started = time.Now()
	d.logger.Info("daemon started", "dirs", strings.Join(watcher.Dirs(), ","))
	return nil
}

// Run starts the daemon and blocks until ctx is done
func (d *Daemon) Run(ctx context.Context) error {
	if err := d.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return d.Stop()
}

func (d *Daemon) handleFile(path string) error {
	h, err := analyse.NewImageHandle(path)
	if err != nil {
		d.skipped.Add(1)
		d.logger.Debug("not an image, skipping", "path", path, "err", err)
		return nil
	}

	summary := batch.Process(context.Background(), []analyse.ImageHandle{h}, d.request, nil)
	r := summary.Results[0]
	switch r.Status {
	case batch.Succeeded:
		d.processed.Add(1)
		d.logger.Info("processed", "path", path, "output", r.OutputPath, "removed", len(r.Removed))
	case batch.Skipped:
		d.skipped.Add(1)
		d.logger.Info("skipped", "path", path, "reason", r.Detail())
	default:
		d.failed.Add(1)
		return r.Err
	}
	return nil
}

// halts the daemon
func (d *Daemon) Stop() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return nil
	}

	d.logger.Info("stopping daemon")
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			d.logger.Warn("error stopping watcher", "err", err)
		}
	}
	d.logger.Info("daemon stopped",
		"processed", d.processed.Load(), "failed", d.failed.Load(), "skipped", d.skipped.Load())

	d.running = false
	if err := d.logger.Close(); err != nil {
		return fmt.Errorf("error closing logger: %w", err)
	}
	return nil
}

// current daemon status
func (d *Daemon) Status() *DaemonStatus {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running {
		return &DaemonStatus{Running: false}
	}

	return &DaemonStatus{
		Running:        true,
		WatchedDirs:    d.watcher.Dirs(),
		FileTypes:      d.config.Filter.Extensions,
		ProcessedFiles: int(d.processed.Load()),
		ErrorCount:     int(d.failed.Load()),
		SkippedFiles:   int(d.skipped.Load()),
		StartTime:      d.started,
	}
}

// is daemon currently running?
func (d *Daemon) IsRunning() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.running
}
