// Package statestore persists the monotonic signing index of each
// keyed signer across restarts, as a small JSON map keyed by caller
// identifier. Unlike the implementation this package is modelled on,
// every save is guarded by an advisory file lock, a monotonicity
// check, and a durable write-temp-then-rename-then-fsync sequence, so
// a crash or a racing process cannot re-expose an older index.
package statestore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/go-multierror"
	"github.com/nightlyone/lockfile"
	"github.com/rs/zerolog"

	"github.com/wintersig/xmss-go/internal/xerrors"
)

// Record is one signer's persisted state.
type Record struct {
	Identifier string `json:"identifier"`
	Index      uint64 `json:"index"`
	Height     int    `json:"height"`
}

// Store is a JSON-file-backed state map guarded by an advisory lock.
type Store struct {
	path     string
	lockPath string
	log      zerolog.Logger
}

// Open returns a Store backed by path. path need not exist yet; Load
// treats a missing or empty file as an empty map, matching the source
// behaviour the spec requires us to keep. logger receives warnings
// about skipped malformed records; the zero zerolog.Logger discards
// them.
func Open(path string, logger zerolog.Logger) *Store {
	return &Store{path: path, lockPath: path + ".lock", log: logger}
}

// Load reads the whole state map. A missing or blank file yields an
// empty map and no error. Individual malformed entries are skipped
// (logged, and reported as a non-nil *multierror.Error) rather than
// failing the whole load; a structurally invalid file (not a JSON
// object at all) is a hard MalformedInput error.
func (s *Store) Load() (map[string]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Record{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading state file: %v", xerrors.PersistenceFailure, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return map[string]Record{}, nil
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: state file is not a JSON object: %v", xerrors.MalformedInput, err)
	}

	records := make(map[string]Record, len(raw))
	var errs *multierror.Error
	for id, msg := range raw {
		var rec Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			s.log.Warn().Str("identifier", id).Err(err).Msg("skipping malformed state record")
			errs = multierror.Append(errs, fmt.Errorf("entry %q: %w", id, err))
			continue
		}
		records[id] = rec
	}
	return records, errs.ErrorOrNil()
}

// Get returns the record for identifier, if any. A partial-load error
// for other entries does not prevent returning this one.
func (s *Store) Get(identifier string) (Record, bool, error) {
	records, err := s.Load()
	if records == nil {
		return Record{}, false, err
	}
	rec, ok := records[identifier]
	return rec, ok, nil
}

// Save persists index and height for identifier, refusing to move the
// index backward. It acquires the advisory lock for the duration of
// the read-modify-write.
func (s *Store) Save(identifier string, index uint64, height int) error {
	lock, err := s.acquireLock()
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	records, loadErr := s.Load()
	if records == nil {
		return fmt.Errorf("%w: loading state before save: %v", xerrors.PersistenceFailure, loadErr)
	}
	if loadErr != nil {
		s.log.Warn().Err(loadErr).Msg("saving over a partially malformed state file")
	}

	if existing, ok := records[identifier]; ok && index < existing.Index {
		return fmt.Errorf("%w: refusing to move %s index backward from %d to %d",
			xerrors.PersistenceFailure, identifier, existing.Index, index)
	}

	records[identifier] = Record{Identifier: identifier, Index: index, Height: height}
	return s.writeDurable(records)
}

// Delete removes identifier's record, if present.
func (s *Store) Delete(identifier string) error {
	lock, err := s.acquireLock()
	if err != nil {
		return err
	}
	defer s.releaseLock(lock)

	records, loadErr := s.Load()
	if records == nil {
		return fmt.Errorf("%w: loading state before delete: %v", xerrors.PersistenceFailure, loadErr)
	}
	delete(records, identifier)
	return s.writeDurable(records)
}

func (s *Store) acquireLock() (lockfile.Lockfile, error) {
	lock, err := lockfile.New(s.lockPath)
	if err != nil {
		return "", fmt.Errorf("%w: creating lock file %s: %v", xerrors.PersistenceFailure, s.lockPath, err)
	}
	if err := lock.TryLock(); err != nil {
		return "", fmt.Errorf("%w: acquiring lock on %s: %v", xerrors.PersistenceFailure, s.lockPath, err)
	}
	return lock, nil
}

func (s *Store) releaseLock(lock lockfile.Lockfile) {
	if err := lock.Unlock(); err != nil {
		s.log.Warn().Err(err).Str("lock", s.lockPath).Msg("failed to release state store lock")
	}
}

// writeDurable replaces the state file's content with records via
// write-temp-then-rename, fsyncing both the temp file and the
// containing directory so a crash between writes cannot resurrect the
// previous (older) index.
func (s *Store) writeDurable(records map[string]Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding state: %v", xerrors.MalformedInput, err)
	}

	dir := filepath.Dir(s.path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, ".statestore-*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp state file: %v", xerrors.PersistenceFailure, err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: writing temp state file: %v", xerrors.PersistenceFailure, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("%w: fsyncing temp state file: %v", xerrors.PersistenceFailure, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("%w: closing temp state file: %v", xerrors.PersistenceFailure, err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		return fmt.Errorf("%w: renaming temp state file into place: %v", xerrors.PersistenceFailure, err)
	}

	dirHandle, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("%w: opening state directory for fsync: %v", xerrors.PersistenceFailure, err)
	}
	defer dirHandle.Close()
	if err := dirHandle.Sync(); err != nil {
		return fmt.Errorf("%w: fsyncing state directory: %v", xerrors.PersistenceFailure, err)
	}
	return nil
}
