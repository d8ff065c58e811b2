// BYZRA ⸻ internal/batch/batch.go
// ordered per-file processing with progress and cancellation

package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"exifcleaner/internal/analyse"
	"exifcleaner/internal/formats"
	"exifcleaner/internal/tags"
	"exifcleaner/internal/util"
	"exifcleaner/internal/wipe"
)

type Status string

const (
	Succeeded Status = "succeeded"
	Failed    Status = "failed"
	Skipped   Status = "skipped"
)

// Request selects what to remove and where outputs go.
type Request struct {
	Mode wipe.Mode
	Tags []tags.Ref
	// placement, backup and verification; Mode and Tags above override its own
	Output wipe.WipeOptions
}

type Result struct {
	Handle     analyse.ImageHandle
	Status     Status
	Err        error
	OutputPath string
	BackupPath string
	Removed    []string
}

// Detail is the human-readable reason behind a failed or skipped result.
func (r Result) Detail() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

type Summary struct {
	RunID     string
	Results   []Result
	Succeeded int
	Failed    int
	Skipped   int
	Started   time.Time
	Finished  time.Time
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	switch r.Status {
	case Succeeded:
		s.Succeeded++
	case Failed:
		s.Failed++
	default:
		s.Skipped++
	}
}

// ErrCancelled marks files left unprocessed after cancellation.
var ErrCancelled = errors.New("batch cancelled before this file")

// Process runs the request over handles in order. Per-file errors become
// results; the batch itself never fails. progress, if set, is called after
// every file on the calling goroutine.
func Process(ctx context.Context, handles []analyse.ImageHandle, req Request, progress func(done, total int)) Summary {
	summary := Summary{RunID: util.GenerateRunID(), Started: time.Now()}
	total := len(handles)

	log := slog.With("run", summary.RunID)
	log.Debug("batch started", "files", total, "mode", req.Mode)

	for i, h := range handles {
		if err := ctx.Err(); err != nil {
			for _, rest := range handles[i:] {
				summary.add(Result{Handle: rest, Status: Skipped, Err: ErrCancelled})
			}
			log.Info("batch cancelled", "processed", i, "remaining", total-i)
			if progress != nil {
				progress(total, total)
			}
			break
		}

		r := processOne(h, req)
		summary.add(r)
		log.Debug("file processed", "path", h.Path, "status", r.Status, "err", r.Err)

		if progress != nil {
			progress(i+1, total)
		}
	}

	summary.Finished = time.Now()
	log.Debug("batch finished", "succeeded", summary.Succeeded, "failed", summary.Failed, "skipped", summary.Skipped)
	return summary
}

// replaced in tests
var wipeFile = wipe.WipeFile

func processOne(h analyse.ImageHandle, req Request) (r Result) {
	r = Result{Handle: h}

	// a codec panic costs one file, not the batch
	defer func() {
		if p := recover(); p != nil {
			slog.Error("panic while processing file", "path", h.Path, "panic", p)
			r = Result{Handle: h, Status: Failed, Err: fmt.Errorf("panic: %v", p)}
		}
	}()

	opts := req.Output
	opts.Mode = req.Mode
	opts.Tags = req.Tags

	// unsupported files are left to WipeFile so they come back skipped
	if opts.Placement == wipe.InPlace && !h.Writable && h.Format != "" {
		r.Status = Failed
		r.Err = &wipe.WriteError{Path: h.Path, Err: errors.New("file is not writable")}
		return r
	}

	res, err := wipeFile(h.Path, &opts)
	if res != nil {
		r.OutputPath = res.OutputPath
		r.BackupPath = res.BackupPath
		r.Removed = res.Removed
	}

	var unsupported *formats.UnsupportedFormatError
	switch {
	case errors.As(err, &unsupported):
		r.Status = Skipped
		r.Err = err
	case err != nil:
		r.Status = Failed
		r.Err = err
	case !res.Success:
		r.Status = Failed
		r.Err = fmt.Errorf("verification failed: %v", res.Verification.ValidationErrors)
	default:
		r.Status = Succeeded
	}
	return r
}

// ErrBusy is returned when a Runner is asked to start while a batch is running.
var ErrBusy = errors.New("a batch is already running")

type Progress struct {
	Done  int
	Total int
}

// Runner allows one batch at a time.
type Runner struct {
	busy atomic.Bool
}

func (r *Runner) Busy() bool {
	return r.busy.Load()
}

// Run processes synchronously, failing fast with ErrBusy.
func (r *Runner) Run(ctx context.Context, handles []analyse.ImageHandle, req Request, progress func(done, total int)) (Summary, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return Summary{}, ErrBusy
	}
	defer r.busy.Store(false)
	return Process(ctx, handles, req, progress), nil
}

// Start processes on a worker goroutine. Progress events arrive on the first
// channel, which is closed before the summary is delivered on the second.
func (r *Runner) Start(ctx context.Context, handles []analyse.ImageHandle, req Request) (<-chan Progress, <-chan Summary, error) {
	if !r.busy.CompareAndSwap(false, true) {
		return nil, nil, ErrBusy
	}

	progress := make(chan Progress, len(handles)+1)
	done := make(chan Summary, 1)

	go func() {
		summary := Process(ctx, handles, req, func(d, t int) {
			progress <- Progress{Done: d, Total: t}
		})
		close(progress)
		r.busy.Store(false)
		done <- summary
		close(done)
	}()

	return progress, done, nil
}
