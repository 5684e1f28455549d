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
	"fmt"
	"os"
	"path/filepath"
)

const ErrDirectoryLocked = ConstError("directory is locked by another process")

// lockFileName is the name of the file marking a directory as in use.
const lockFileName = "~lock"

// DirectoryLock grants exclusive use of a directory among processes
// honoring the lock. The lock is represented by a file in the directory
// which is deleted on release.
type DirectoryLock struct {
	path string
	file *os.File
}

// LockDirectory acquires the lock of the given directory, creating the
// directory if needed.
func LockDirectory(directory string) (*DirectoryLock, error) {
	if err := os.MkdirAll(directory, 0700); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", directory, err)
	}
	path := filepath.Join(directory, lockFileName)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_RDWR, 0600)
	if errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("%w: %s", ErrDirectoryLocked, directory)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock of %s: %w", directory, err)
	}
	return &DirectoryLock{path: path, file: file}, nil
}

// Valid checks whether this lock still owns the directory.
func (l *DirectoryLock) Valid() bool {
	return l.file != nil
}

// Release gives up the ownership of the directory. A lock may only be
// released once.
func (l *DirectoryLock) Release() error {
	if l.file == nil {
		return fmt.Errorf("unable to release invalid lock")
	}
	err := errors.Join(l.file.Close(), os.Remove(l.path))
	l.file = nil
	if err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.path, err)
	}
	return nil
}
