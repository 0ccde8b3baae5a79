// Package fileutil provides the filesystem primitives the sync pipeline is
// built on: copy, link-with-fallback, idempotent delete, and directory
// management. Failures not explained by "already absent" surface as
// *OperationError so the orchestrator can abort with the paths involved.
package fileutil

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// OperationError describes a failed filesystem operation.
type OperationError struct {
	Op   string
	Path string
	Dest string
	Err  error
}

func (e *OperationError) Error() string {
	if e.Dest != "" {
		return fmt.Sprintf("%s %s -> %s: %v", e.Op, e.Path, e.Dest, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *OperationError) Unwrap() error { return e.Err }

// CopyFile copies src to dst, truncating dst if it exists.
func CopyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return &OperationError{Op: "copy", Path: src, Dest: dst, Err: err}
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return &OperationError{Op: "copy", Path: src, Dest: dst, Err: err}
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode().Perm())
	if err != nil {
		return &OperationError{Op: "copy", Path: src, Dest: dst, Err: err}
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return &OperationError{Op: "copy", Path: src, Dest: dst, Err: err}
	}
	if err := out.Close(); err != nil {
		return &OperationError{Op: "copy", Path: src, Dest: dst, Err: err}
	}
	return nil
}

// LinkOrCopy attempts to hard-link dst to src, falling back to a symlink
// and finally to a full copy. Filesystems refuse hard links across devices
// and symlinks on some mounts, so each step tolerates failure.
func LinkOrCopy(src, dst string) error {
	_ = os.Remove(dst)
	if err := os.Link(src, dst); err == nil {
		return nil
	}
	if err := os.Symlink(src, dst); err == nil {
		return nil
	}
	return CopyFile(src, dst)
}

// SameFilesystem reports whether both paths live on the same device, which
// decides whether a hard link can work at all.
func SameFilesystem(a, b string) bool {
	var statA, statB unix.Stat_t
	if err := unix.Stat(a, &statA); err != nil {
		return false
	}
	if err := unix.Stat(b, &statB); err != nil {
		return false
	}
	return statA.Dev == statB.Dev
}

// RemoveFile deletes a file, treating "already absent" as success.
func RemoveFile(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return &OperationError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// RemoveTree deletes a file or directory tree, treating "already absent"
// as success.
func RemoveTree(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &OperationError{Op: "remove", Path: path, Err: err}
	}
	if !info.IsDir() {
		return RemoveFile(path)
	}
	if err := os.RemoveAll(path); err != nil {
		return &OperationError{Op: "remove", Path: path, Err: err}
	}
	return nil
}

// RemoveTreeContents empties a directory without deleting the directory
// itself. A missing directory is not an error.
func RemoveTreeContents(path string) error {
	entries, err := os.ReadDir(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return &OperationError{Op: "list", Path: path, Err: err}
	}
	for _, entry := range entries {
		if err := RemoveTree(filepath.Join(path, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// MkdirAll creates path and any missing parents.
func MkdirAll(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return &OperationError{Op: "mkdir", Path: path, Err: err}
	}
	return nil
}

// WriteFile writes data to path, creating parent directories as needed and
// fully overwriting any existing file.
func WriteFile(path string, data []byte) error {
	if err := MkdirAll(filepath.Dir(path)); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return &OperationError{Op: "write", Path: path, Err: err}
	}
	return nil
}
