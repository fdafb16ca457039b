// Package atomicwrite provides helpers for crash-safe file writes.
// Windows-safe: if the final rename fails, it retries with
// remove+rename, which preserves the old file when the retry fails.
package atomicwrite

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// AtomicWriteFile writes data to path atomically:
// write tmp -> Sync -> Close -> Chmod -> Rename (with Windows fallback).
func AtomicWriteFile(path string, data []byte, perm fs.FileMode) error {
	return AtomicWriteReader(path, bytes.NewReader(data), perm)
}

// AtomicWriteReader streams r to path atomically. Used for uploads so
// a partially written blob is never visible under its final name.
func AtomicWriteReader(path string, r io.Reader, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()

	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := io.Copy(tmp, r); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}

	// Set perms before the rename so the file never exists with temp perms.
	_ = os.Chmod(tmpPath, perm)

	// os.Rename can fail on Windows when the target exists and is locked.
	// Remove-then-retry preserves the old file if the retry also fails.
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return fmt.Errorf("rename: %v (after remove: %v)", err, err2)
		}
	}

	return nil
}
