package storage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// FileOption configures a FileBackend.
type FileOption func(*FileBackend)

// WithAtomicWrites toggles writing through a temporary file and rename.
// Enabled by default.
func WithAtomicWrites(enabled bool) FileOption {
	return func(b *FileBackend) {
		b.atomic = enabled
	}
}

// WithFileMode sets the permission bits used when creating the file. An
// existing file keeps its own permissions.
func WithFileMode(mode fs.FileMode) FileOption {
	return func(b *FileBackend) {
		b.mode = mode
	}
}

// FileBackend stores the document in a single file.
type FileBackend struct {
	path   string
	atomic bool
	mode   fs.FileMode
}

// NewFileBackend returns a backend for path. The file is not touched until
// Load or Save.
func NewFileBackend(path string, opts ...FileOption) *FileBackend {
	b := &FileBackend{path: path, atomic: true, mode: 0o644}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Location implements Locator.
func (b *FileBackend) Location() string {
	return b.path
}

func (b *FileBackend) Load(ctx context.Context) ([]byte, Meta, error) {
	if err := ctx.Err(); err != nil {
		return nil, Meta{}, err
	}
	payload, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, Meta{}, fmt.Errorf("%w: %s", ErrNotFound, b.path)
		}
		return nil, Meta{}, fmt.Errorf("storage: read %s: %w", b.path, err)
	}
	meta := Meta{Location: b.path, Size: len(payload)}
	if info, err := os.Stat(b.path); err == nil {
		meta.UpdatedAt = info.ModTime()
	}
	return payload, meta, nil
}

func (b *FileBackend) Save(ctx context.Context, payload []byte) (Meta, error) {
	if err := ctx.Err(); err != nil {
		return Meta{}, err
	}
	target, mode := b.target()
	if !b.atomic {
		if err := os.WriteFile(target, payload, mode); err != nil {
			return Meta{}, fmt.Errorf("storage: write %s: %w", b.path, err)
		}
		return Meta{Location: b.path, Size: len(payload), UpdatedAt: time.Now()}, nil
	}

	dir := filepath.Dir(target)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return Meta{}, fmt.Errorf("storage: create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		_ = os.Remove(tmpPath)
	}
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		cleanup()
		return Meta{}, fmt.Errorf("storage: write %s: %w", tmpPath, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		_ = tmp.Close()
		cleanup()
		return Meta{}, fmt.Errorf("storage: chmod %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return Meta{}, fmt.Errorf("storage: close %s: %w", tmpPath, err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		cleanup()
		return Meta{}, fmt.Errorf("storage: rename %s: %w", target, err)
	}
	return Meta{Location: b.path, Size: len(payload), UpdatedAt: time.Now()}, nil
}

// target resolves symlinks so a save replaces the file they point to, and
// returns the permissions of the existing file, or the configured mode when
// there is none yet.
func (b *FileBackend) target() (string, fs.FileMode) {
	target := b.path
	if resolved, err := filepath.EvalSymlinks(b.path); err == nil {
		target = resolved
	}
	if info, err := os.Stat(target); err == nil {
		return target, info.Mode().Perm()
	}
	return target, b.mode
}
