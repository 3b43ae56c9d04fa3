// Package store persists quote lists, one JSON file per list.
//
// A save always rewrites the whole file. There is no locking and no version
// stamp: two processes writing the same file race, and the later rename wins.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/kingrea/retro-wall/internal/quote"
)

// ID names one of the three lists.
type ID string

const (
	Pending  ID = "pending"
	Approved ID = "approved"
	Removed  ID = "removed"
)

// ParseError reports a store file whose content is not a quote list.
type ParseError struct {
	Store ID
	Path  string
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("store: %s quotes in %s are malformed: %v", e.Store, e.Path, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// Store reads and writes a single quote list.
type Store struct {
	id   ID
	path string
}

// New returns a store for list id backed by path.
func New(id ID, path string) *Store {
	return &Store{id: id, path: path}
}

// ID returns which list this store holds.
func (s *Store) ID() ID {
	return s.id
}

// Path returns the file backing the store.
func (s *Store) Path() string {
	return s.path
}

// Load reads the list. A missing or blank file is an empty list.
func (s *Store) Load() ([]quote.Quote, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return []quote.Quote{}, nil
		}
		return nil, fmt.Errorf("store: read %s: %w", s.path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []quote.Quote{}, nil
	}
	var quotes []quote.Quote
	if err := json.Unmarshal(data, &quotes); err != nil {
		return nil, &ParseError{Store: s.id, Path: s.path, Err: err}
	}
	if quotes == nil {
		quotes = []quote.Quote{}
	}
	return quotes, nil
}

// Save replaces the file with quotes, indented for people reading it by hand.
func (s *Store) Save(quotes []quote.Quote) error {
	if quotes == nil {
		quotes = []quote.Quote{}
	}
	encoded, err := json.MarshalIndent(quotes, "", "  ")
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", s.id, err)
	}
	if err := writeFileAtomic(s.path, append(encoded, '\n'), 0o644); err != nil {
		return fmt.Errorf("store: write %s: %w", s.path, err)
	}
	return nil
}

// Ensure creates the file holding an empty list if it does not exist yet.
func (s *Store) Ensure() error {
	if _, err := os.Stat(s.path); err == nil {
		return nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("store: stat %s: %w", s.path, err)
	}
	return s.Save(nil)
}

// writeFileAtomic writes data next to path and renames it into place so a
// reader never observes a half-written list.
func writeFileAtomic(path string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		cleanup()
		return err
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return err
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		cleanup()
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return err
	}
	return nil
}
