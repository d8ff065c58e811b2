// BYZRA ⸻ internal/daemon/logger.go
// watch mode logging to a rotating file

package daemon

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Logger is a slog logger writing to a file that can be rotated underneath it
type Logger struct {
	*slog.Logger

	mu   sync.Mutex
	file *os.File
	path string
	// rotate before a write that would grow the file past this; 0 disables
	maxSize int64
}

func NewLogger(logPath string, level slog.Level, maxSize int64) (*Logger, error) {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	logFile, err := openLog(logPath)
	if err != nil {
		return nil, err
	}

	l := &Logger{file: logFile, path: logPath, maxSize: maxSize}
	l.Logger = slog.New(slog.NewTextHandler(l, &slog.HandlerOptions{Level: level}))
	return l, nil
}

func openLog(path string) (*os.File, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

func (l *Logger) Path() string {
	return l.path
}

// Write implements io.Writer for the slog handler
func (l *Logger) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return 0, fmt.Errorf("logger closed")
	}
	if l.maxSize > 0 {
		if info, err := l.file.Stat(); err == nil && info.Size() > 0 && info.Size()+int64(len(p)) > l.maxSize {
			if _, err := l.rotate(); err != nil {
				return 0, err
			}
		}
	}
	return l.file.Write(p)
}

// close properly
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}

// new log file and archives the old one
func (l *Logger) Rotate() error {
	l.mu.Lock()
	archived, err := l.rotate()
	l.mu.Unlock()
	if err != nil {
		return err
	}
	l.Info("log rotated", "previous", archived)
	return nil
}

func (l *Logger) rotate() (string, error) {
	if l.file == nil {
		return "", fmt.Errorf("logger closed")
	}
	if err := l.file.Close(); err != nil {
		return "", fmt.Errorf("failed to close log file: %w", err)
	}
	l.file = nil

	archived := fmt.Sprintf("%s.%s", l.path, time.Now().Format("20060102-150405.000"))
	if err := os.Rename(l.path, archived); err != nil {
		return "", fmt.Errorf("failed to rotate log file: %w", err)
	}

	f, err := openLog(l.path)
	if err != nil {
		return "", err
	}
	l.file = f
	return archived, nil
}
