package state

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrCorrupt indicates the state file exists but does not hold a valid
// mod-time index. Callers recover by continuing with the empty store that is
// returned alongside the error.
var ErrCorrupt = errors.New("state file is corrupt")

// fileIndex maps source entry name -> filename -> last observed modification
// time in unix seconds.
type fileIndex map[string]map[string]int64

type diskState struct {
	Files fileIndex `json:"files"`
}

// Store tracks the last-observed modification time of every save file that
// has been backed up at least once. Entries are keyed by (source entry name,
// filename) so same-named save files from different games never collide.
type Store struct {
	path  string
	files fileIndex
}

// Load reads the store from path. A missing file is not an error and yields
// an empty store. A file that cannot be parsed or has the wrong shape yields
// ErrCorrupt together with an empty store.
func Load(path string) (*Store, error) {
	s := &Store{path: path, files: make(fileIndex)}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("failed to read state file: %w", err)
	}

	var disk diskState
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&disk); err != nil {
		return s, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	for source, files := range disk.Files {
		for name, modTime := range files {
			if modTime < 0 {
				return s, fmt.Errorf("%w: negative mod time for %s/%s", ErrCorrupt, source, name)
			}
		}
	}

	if disk.Files != nil {
		s.files = disk.Files
	}
	return s, nil
}

// ModTime returns the recorded modification time for a file, if any.
func (s *Store) ModTime(source, file string) (int64, bool) {
	files, ok := s.files[source]
	if !ok {
		return 0, false
	}
	modTime, ok := files[file]
	return modTime, ok
}

// Record stores the modification time for a file.
func (s *Store) Record(source, file string, modTime int64) {
	files, ok := s.files[source]
	if !ok {
		files = make(map[string]int64)
		s.files[source] = files
	}
	files[file] = modTime
}

// Len returns the number of tracked files across all sources.
func (s *Store) Len() int {
	n := 0
	for _, files := range s.files {
		n += len(files)
	}
	return n
}

// Save rewrites the state file in full. The data goes to a temp file in the
// target directory followed by a rename, so a failed run never leaves a
// half-written state file behind.
func (s *Store) Save() error {
	data, err := json.MarshalIndent(diskState{Files: s.files}, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".saveguard-state-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Chmod(0644); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmpPath, s.path)
}
