// Package filelock provides advisory file locks that coordinate taskdeck
// processes sharing the session file.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	lockFileMode = 0o600
	lockSuffix   = ".lock"
)

// Lock acquires an exclusive advisory lock on the file at path, creating it
// if it does not exist. Other callers block until the returned unlock runs.
func Lock(path string) (unlock func() error, err error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, lockFileMode) //nolint:gosec // lock path under the config dir
	if err != nil {
		return nil, err
	}

	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, err
	}

	return func() error {
		unlockErr := unlockFile(f)
		closeErr := f.Close()
		if unlockErr != nil {
			return unlockErr
		}
		return closeErr
	}, nil
}

// PathFor returns the lock file guarding target.
func PathFor(target string) string {
	return target + lockSuffix
}

// With runs fn while holding the lock that guards target. The lock file is
// created next to target; its directory must exist.
func With(target string, fn func() error) (err error) {
	if err := os.MkdirAll(filepath.Dir(target), 0o750); err != nil { //nolint:mnd // owner+group dir
		return fmt.Errorf("creating lock directory: %w", err)
	}
	unlock, err := Lock(PathFor(target))
	if err != nil {
		return fmt.Errorf("locking %s: %w", filepath.Base(target), err)
	}
	defer func() {
		if uerr := unlock(); err == nil && uerr != nil {
			err = fmt.Errorf("unlocking %s: %w", filepath.Base(target), uerr)
		}
	}()
	return fn()
}
