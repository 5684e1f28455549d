// Copyright (c) 2024 Fantom Foundation
//
// Use of this software is governed by the Business Source License included
// in the LICENSE file and at fantom.foundation/bsl11.
//
// Change Date: 2028-4-16
//
// On the date above, in accordance with the Business Source License, use of
// this software will be governed by the GNU Lesser General Public License v3.

package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDirectoryLock_DefaultLockIsInvalid(t *testing.T) {
	lock := DirectoryLock{}
	if lock.Valid() {
		t.Errorf("default lock should be invalid")
	}
	if err := lock.Release(); err == nil {
		t.Errorf("releasing an invalid lock should fail")
	}
}

func TestDirectoryLock_CanBeAcquiredAndReleased(t *testing.T) {
	exists := func(path string) bool {
		_, err := os.Stat(path)
		return !errors.Is(err, os.ErrNotExist)
	}

	dir := filepath.Join(t.TempDir(), "nested", "dir")
	path := filepath.Join(dir, lockFileName)
	lock, err := LockDirectory(dir)
	if err != nil {
		t.Fatalf("failed to acquire lock: %v", err)
	}
	if !lock.Valid() {
		t.Errorf("acquired lock is not valid")
	}
	if !exists(path) {
		t.Errorf("lock file should exist while acquired")
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("failed to release lock: %v", err)
	}
	if lock.Valid() {
		t.Errorf("released lock is still valid")
	}
	if exists(path) {
		t.Errorf("lock file should no longer exist after releasing it")
	}
	if err := lock.Release(); err == nil {
		t.Errorf("a lock should only be released once")
	}
}

func TestDirectoryLock_LocksAreExclusive(t *testing.T) {
	dir := t.TempDir()

	lockA, err := LockDirectory(dir)
	if err != nil {
		t.Fatalf("failed to acquire lock: %v", err)
	}
	if _, err := LockDirectory(dir); !errors.Is(err, ErrDirectoryLocked) {
		t.Errorf("should not be able to acquire an occupied lock, got %v", err)
	}
	if err := lockA.Release(); err != nil {
		t.Errorf("failed to release acquired lock: %v", err)
	}

	lockB, err := LockDirectory(dir)
	if err != nil {
		t.Fatalf("should be able to acquire a released lock: %v", err)
	}
	if err := lockB.Release(); err != nil {
		t.Errorf("failed to release acquired lock: %v", err)
	}
}
