package store

import (
	"path/filepath"

	"github.com/kingrea/retro-wall/internal/quote"
)

// Default file names, matching what earlier kiosk builds wrote.
const (
	DefaultPendingFile  = "pending_quotes.json"
	DefaultApprovedFile = "quotes.json"
	DefaultRemovedFile  = "removed_quotes.json"
)

// FileNames picks the file for each list inside the data directory.
type FileNames struct {
	Pending  string
	Approved string
	Removed  string
}

// DefaultFileNames returns the names used when configuration is silent.
func DefaultFileNames() FileNames {
	return FileNames{
		Pending:  DefaultPendingFile,
		Approved: DefaultApprovedFile,
		Removed:  DefaultRemovedFile,
	}
}

// Set groups the three independent stores. Nothing spans them: moving a
// quote is two separate saves.
type Set struct {
	Pending  *Store
	Approved *Store
	Removed  *Store
}

// Snapshot is one read of all three lists.
type Snapshot struct {
	Pending  []quote.Quote
	Approved []quote.Quote
	Removed  []quote.Quote
}

// NewSet builds the stores rooted at dir.
func NewSet(dir string, names FileNames) *Set {
	if names.Pending == "" {
		names.Pending = DefaultPendingFile
	}
	if names.Approved == "" {
		names.Approved = DefaultApprovedFile
	}
	if names.Removed == "" {
		names.Removed = DefaultRemovedFile
	}
	return &Set{
		Pending:  New(Pending, filepath.Join(dir, names.Pending)),
		Approved: New(Approved, filepath.Join(dir, names.Approved)),
		Removed:  New(Removed, filepath.Join(dir, names.Removed)),
	}
}

// Get returns the store for id, or nil for an unknown id.
func (s *Set) Get(id ID) *Store {
	switch id {
	case Pending:
		return s.Pending
	case Approved:
		return s.Approved
	case Removed:
		return s.Removed
	default:
		return nil
	}
}

// Ensure creates any of the three files that are missing.
func (s *Set) Ensure() error {
	for _, st := range s.all() {
		if err := st.Ensure(); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll reads the three lists, stopping at the first failure.
func (s *Set) LoadAll() (Snapshot, error) {
	var snap Snapshot
	var err error
	if snap.Pending, err = s.Pending.Load(); err != nil {
		return Snapshot{}, err
	}
	if snap.Approved, err = s.Approved.Load(); err != nil {
		return Snapshot{}, err
	}
	if snap.Removed, err = s.Removed.Load(); err != nil {
		return Snapshot{}, err
	}
	return snap, nil
}

func (s *Set) all() []*Store {
	return []*Store{s.Pending, s.Approved, s.Removed}
}
