// BYZRA ⸻ internal/util/security.go
// secure removal of backups and temp files

package util

import (
	"crypto/rand"
	"fmt"
	"io"
	"os"
	"time"
)

// pass schedule for SecureOverwriteFile; -1 means random bytes
var overwritePasses = []int{0x00, 0xFF, -1}

// overwrites a file in place, then unlinks it
func SecureOverwriteFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file for secure overwrite: %w", err)
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("refusing to overwrite non-regular file: %s", path)
	}

	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return fmt.Errorf("failed to open file for secure overwrite: %w", err)
	}

	for _, pass := range overwritePasses {
		if err := overwritePass(file, info.Size(), pass); err != nil {
			file.Close()
			return err
		}
		if err := file.Sync(); err != nil {
			file.Close()
			return fmt.Errorf("failed to sync during secure overwrite: %w", err)
		}
	}

	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to close file after secure overwrite: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove file after secure overwrite: %w", err)
	}
	return nil
}

// removes path, overwriting first when secure is set
func RemoveFile(path string, secure bool) error {
	if secure {
		return SecureOverwriteFile(path)
	}
	return os.Remove(path)
}

func overwritePass(file *os.File, size int64, pattern int) error {
	if _, err := file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek to beginning: %w", err)
	}

	// 1MB chunks
	const maxBufSize int64 = 1 << 20
	buf := make([]byte, min(size, maxBufSize))
	if pattern >= 0 {
		for i := range buf {
			buf[i] = byte(pattern)
		}
	}

	for remaining := size; remaining > 0; {
		n := min(remaining, int64(len(buf)))
		if pattern < 0 {
			if _, err := io.ReadFull(rand.Reader, buf[:n]); err != nil {
				return fmt.Errorf("failed to generate random data: %w", err)
			}
		}
		if _, err := file.Write(buf[:n]); err != nil {
			return fmt.Errorf("failed to overwrite: %w", err)
		}
		remaining -= n
	}
	return nil
}

// short random id for batch runs
func GenerateRunID() string {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("run-%x", b)
}
