package lock

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nightlyone/lockfile"
	"github.com/rs/zerolog"
)

// File is the lock file name inside the history directory.
const File = ".zzz.lck"

var (
	ErrAlreadyRunning = errors.New("zzz is already running")
	ErrNoDirectory    = errors.New("cannot create lock directory")
)

// Acquire takes the daemon lock in dir. Two daemons writing the same
// history would hand out the same sequence numbers.
func Acquire(dir string) (lockfile.Lockfile, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", fmt.Errorf("%w: %w", ErrNoDirectory, err)
	}

	path, err := filepath.Abs(filepath.Join(dir, File))
	if err != nil {
		return "", err
	}
	lock, err := lockfile.New(path)
	if err != nil {
		return "", fmt.Errorf("lock file: %w", err)
	}

	if lockErr := lock.TryLock(); lockErr != nil {
		owner, err := lock.GetOwner()
		if err != nil {
			return "", fmt.Errorf("cannot get locked process: %w", errors.Join(lockErr, err))
		}
		return "", fmt.Errorf("%w: pid %d", ErrAlreadyRunning, owner.Pid)
	}
	return lock, nil
}

// AcquireOr takes the lock in dir, or in fallback when dir cannot be
// created. A lock held by another process is never bypassed.
func AcquireOr(dir, fallback string, logger zerolog.Logger) (lockfile.Lockfile, error) {
	lock, err := Acquire(dir)
	if !errors.Is(err, ErrNoDirectory) {
		return lock, err
	}

	logger.Warn().
		Err(err).
		Str("fallback", fallback).
		Msg("history directory unavailable, locking elsewhere")
	return Acquire(fallback)
}

// Must is AcquireOr with os.TempDir as the fallback that exits the process
// on failure. The returned function releases the lock.
func Must(dir string, logger zerolog.Logger) func() {
	lock, err := AcquireOr(dir, os.TempDir(), logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to lock")
	}

	return func() {
		Unlock(lock, logger)
	}
}

func Unlock(lock lockfile.Lockfile, l zerolog.Logger) {
	if err := lock.Unlock(); err != nil {
		l.Error().Err(err).Msg("cannot unlock process")
	}
}
