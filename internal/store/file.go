package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/spigell/hh-interviewer/internal/common"
)

const (
	filePermissions = 0o644
	dirPermissions  = 0o755
)

// FileStore keeps the snapshot as a single JSON document.
type FileStore struct {
	fs   afero.Fs
	path string
}

func NewFileStore(fs afero.Fs, path string) *FileStore {
	return &FileStore{fs: fs, path: path}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) Load(_ context.Context) (*Snapshot, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("%w: reading %s: %v", common.ErrStorage, s.path, err)
	}

	snapshot, err := decodeSnapshot(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", common.ErrStorage, s.path, err)
	}

	return snapshot, nil
}

// Save writes the snapshot to a temporary file next to the target and renames it into place,
// so a failed write never leaves a half-written snapshot behind.
func (s *FileStore) Save(_ context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return fmt.Errorf("%w: nil snapshot", common.ErrStorage)
	}
	if err := validateSnapshot(snapshot); err != nil {
		return fmt.Errorf("%w: %s: %v", common.ErrStorage, s.path, err)
	}

	data, err := encodeSnapshot(snapshot)
	if err != nil {
		return fmt.Errorf("%w: %v", common.ErrStorage, err)
	}

	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, dirPermissions); err != nil {
		return fmt.Errorf("%w: creating %s: %v", common.ErrStorage, dir, err)
	}

	tmp, err := afero.TempFile(s.fs, dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file in %s: %v", common.ErrStorage, dir, err)
	}
	tmpName := tmp.Name()

	cleanup := func() { _ = s.fs.Remove(tmpName) }

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("%w: writing %s: %v", common.ErrStorage, tmpName, err)
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("%w: syncing %s: %v", common.ErrStorage, tmpName, err)
	}

	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("%w: closing %s: %v", common.ErrStorage, tmpName, err)
	}

	if err := s.fs.Chmod(tmpName, filePermissions); err != nil {
		cleanup()
		return fmt.Errorf("%w: chmod %s: %v", common.ErrStorage, tmpName, err)
	}

	if err := s.fs.Rename(tmpName, s.path); err != nil {
		cleanup()
		return fmt.Errorf("%w: replacing %s: %v", common.ErrStorage, s.path, err)
	}

	return nil
}
