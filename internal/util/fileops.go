// BYZRA ⸻ internal/util/fileops.go
// file operation utilities

package util

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const BackupSuffix = ".bak"

// copies a file with integrity verification
func SafeCopy(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat source file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("failed to create destination directory: %w", err)
	}

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return fmt.Errorf("failed to create destination file: %w", err)
	}
	defer dstFile.Close()

	if _, err = io.Copy(dstFile, srcFile); err != nil {
		return fmt.Errorf("failed to copy file contents: %w", err)
	}
	if err = dstFile.Sync(); err != nil {
		return fmt.Errorf("failed to sync destination file: %w", err)
	}

	return verifyFileIntegrity(src, dst)
}

// copies path to path.bak unless a backup already exists
func CreateBackup(path string) (string, error) {
	backupPath := path + BackupSuffix

	if _, err := os.Stat(backupPath); err == nil {
		return backupPath, nil
	}

	if err := SafeCopy(path, backupPath); err != nil {
		return "", fmt.Errorf("failed to create backup: %w", err)
	}
	return backupPath, nil
}

// copies a .bak file back over its original
func RestoreBackup(backupPath string) error {
	if !strings.HasSuffix(backupPath, BackupSuffix) {
		return fmt.Errorf("invalid backup path: %s", backupPath)
	}
	if err := SafeCopy(backupPath, strings.TrimSuffix(backupPath, BackupSuffix)); err != nil {
		return fmt.Errorf("failed to restore backup: %w", err)
	}
	return nil
}

// photo.jpg + ".clean" -> photo.clean.jpg
func GenerateOutputPath(path, suffix string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + suffix + ext
}

// places path under outDir, keeping its position relative to root.
// files outside root land flat in outDir
func MirrorPath(root, path, outDir string) string {
	if root != "" {
		if rel, err := filepath.Rel(root, path); err == nil && !strings.HasPrefix(rel, "..") {
			return filepath.Join(outDir, rel)
		}
	}
	return filepath.Join(outDir, filepath.Base(path))
}

// readable regular file
func ValidatePath(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("path validation failed: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("path is a directory, expected a file: %s", path)
	}

	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("file is not readable: %w", err)
	}
	return file.Close()
}

// can the file be opened for writing
func IsWritable(path string) bool {
	file, err := os.OpenFile(path, os.O_WRONLY, 0)
	if err != nil {
		return false
	}
	file.Close()
	return true
}

// writes data to a temp file next to path, then renames it over path.
// path is left untouched on any failure
func AtomicWrite(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpPath) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		cleanup()
		return fmt.Errorf("failed to set permissions: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		cleanup()
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

func verifyFileIntegrity(file1, file2 string) error {
	hash1, err := FileSHA256(file1)
	if err != nil {
		return err
	}
	hash2, err := FileSHA256(file2)
	if err != nil {
		return err
	}
	if hash1 != hash2 {
		return fmt.Errorf("integrity verification failed: file checksums don't match")
	}
	return nil
}

// hex SHA-256 of a file's contents
func FileSHA256(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer file.Close()

	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to calculate file hash: %w", err)
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
