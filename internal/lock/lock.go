// Package lock serializes installs into a shared vendor directory with an
// advisory file lock.
package lock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the lock file created inside the vendor directory.
const FileName = ".prelaunch.lock"

// pollInterval is how often a blocked Acquire retries.
const pollInterval = 50 * time.Millisecond

// ErrBusy is returned by TryAcquire when another process holds the lock.
var ErrBusy = errors.New("lock is held by another process")

// Metadata describes the lock holder. It is written into the lock file for
// diagnostics only; the lock itself is the OS-level file lock.
type Metadata struct {
	PID        int       `json:"pid"`
	Purpose    string    `json:"purpose"`
	AcquiredAt time.Time `json:"acquired_at"`
}

// Lock is an acquired lock. Release must be called exactly once.
type Lock struct {
	file *os.File
	path string
}

// PathFor returns the lock file path for a vendor directory.
func PathFor(vendorDir string) string {
	return filepath.Join(vendorDir, FileName)
}

// TryAcquire takes the lock at path without waiting. It returns ErrBusy when
// the lock is held elsewhere. A non-empty purpose is recorded in the lock
// file together with the process ID.
func TryAcquire(path, purpose string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}

	if err := tryLock(file); err != nil {
		file.Close()
		if errors.Is(err, errWouldBlock) {
			return nil, ErrBusy
		}
		return nil, fmt.Errorf("failed to acquire lock: %w", err)
	}

	l := &Lock{file: file, path: path}
	if purpose != "" {
		if err := l.writeMetadata(purpose); err != nil {
			_ = l.Release()
			return nil, err
		}
	}
	return l, nil
}

// Acquire takes the lock at path, waiting until it is free or ctx is done.
func Acquire(ctx context.Context, path, purpose string) (*Lock, error) {
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		l, err := TryAcquire(path, purpose)
		if err == nil {
			return l, nil
		}
		if !errors.Is(err, ErrBusy) {
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for lock %s: %w", path, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Release unlocks and closes the lock file. The file itself is left in place;
// removing it would let a waiter lock an unlinked inode.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}

	unlockErr := unlock(l.file)
	closeErr := l.file.Close()
	l.file = nil

	if unlockErr != nil {
		return fmt.Errorf("failed to release lock: %w", unlockErr)
	}
	if closeErr != nil {
		return fmt.Errorf("failed to close lock file: %w", closeErr)
	}
	return nil
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

func (l *Lock) writeMetadata(purpose string) error {
	if err := l.file.Truncate(0); err != nil {
		return fmt.Errorf("failed to truncate lock file: %w", err)
	}
	if _, err := l.file.Seek(0, 0); err != nil {
		return fmt.Errorf("failed to seek lock file: %w", err)
	}

	enc := json.NewEncoder(l.file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(Metadata{PID: os.Getpid(), Purpose: purpose, AcquiredAt: time.Now()}); err != nil {
		return fmt.Errorf("failed to write lock metadata: %w", err)
	}
	return nil
}

// ReadMetadata reads the holder information last written to the lock file.
// The lock file persists after release, so the result describes the most
// recent holder, not necessarily a current one.
func ReadMetadata(path string) (Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Metadata{}, err
	}
	var md Metadata
	if err := json.Unmarshal(data, &md); err != nil {
		return Metadata{}, fmt.Errorf("failed to parse lock metadata: %w", err)
	}
	return md, nil
}

// IsHeld reports whether some process currently holds the lock at path.
func IsHeld(path string) bool {
	if _, err := os.Stat(path); err != nil {
		return false
	}
	l, err := TryAcquire(path, "")
	if err != nil {
		return errors.Is(err, ErrBusy)
	}
	_ = l.Release()
	return false
}
