package workbook

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/kisekinoumi/mzzbscore-edit/internal/contract"
)

// backupSuffix names the copy of the destination kept while the new file moves in.
const backupSuffix = ".backup"

// lockSuffix names the advisory lock file next to the destination.
const lockSuffix = ".lock"

// fileOps holds the filesystem calls used by commit so tests can make them fail.
type fileOps struct {
	rename func(oldpath, newpath string) error
	remove func(name string) error
}

func osFileOps() fileOps {
	return fileOps{rename: os.Rename, remove: os.Remove}
}

// copyToTemp copies src byte for byte into a new temp file in dir and returns its path.
func copyToTemp(src, dir string) (string, error) {
	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("%w: opening %s: %w", contract.ErrFileOperation, src, err)
	}
	defer func() { _ = in.Close() }()

	out, err := os.CreateTemp(dir, ".mzzbscore-*"+filepath.Ext(src))
	if err != nil {
		return "", fmt.Errorf("%w: creating temp file in %s: %w", contract.ErrFileOperation, dir, err)
	}
	name := out.Name()

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		_ = os.Remove(name)
		return "", fmt.Errorf("%w: copying %s: %w", contract.ErrFileOperation, src, err)
	}
	if err := out.Close(); err != nil {
		_ = os.Remove(name)
		return "", fmt.Errorf("%w: closing temp file: %w", contract.ErrFileOperation, err)
	}
	return name, nil
}

// commit moves tmp onto dest. An existing dest is kept as a backup until the
// move succeeds and is restored if it fails.
func commit(tmp, dest string, ops fileOps, logger *slog.Logger) error {
	if _, err := os.Stat(dest); errors.Is(err, os.ErrNotExist) {
		if err := ops.rename(tmp, dest); err != nil {
			return fmt.Errorf("%w: moving result to %s: %w", contract.ErrFileOperation, dest, err)
		}
		return nil
	} else if err != nil {
		return fmt.Errorf("%w: checking %s: %w", contract.ErrFileOperation, dest, err)
	}

	backup := dest + backupSuffix
	if err := ops.rename(dest, backup); err != nil {
		return fmt.Errorf("%w: backing up %s: %w", contract.ErrFileOperation, dest, err)
	}

	if err := ops.rename(tmp, dest); err != nil {
		moveErr := fmt.Errorf("%w: moving result to %s: %w", contract.ErrFileOperation, dest, err)
		if restoreErr := ops.rename(backup, dest); restoreErr != nil {
			return errors.Join(moveErr, fmt.Errorf("restoring %s from %s: %w", dest, backup, restoreErr))
		}
		return moveErr
	}

	if err := ops.remove(backup); err != nil && !errors.Is(err, os.ErrNotExist) {
		logger.Warn("backup not removed", "path", backup, "error", err)
	}
	return nil
}

// lockDestination takes the advisory lock for dest. The returned func releases
// the lock and removes the lock file.
func lockDestination(dest string) (func(), error) {
	path := dest + lockSuffix
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("%w: locking %s: %w", contract.ErrFileOperation, dest, err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s is being written by another process", contract.ErrFileOperation, dest)
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(path)
	}, nil
}
