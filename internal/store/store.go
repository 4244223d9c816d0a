// package store persists the found and not-found result sets as JSON files.
//
// Each set is an ordered sequence of entries with at most one entry per
// identity key. On disk a set is a pretty-printed JSON array so the found file
// can be handed to Lidarr as-is; in memory it is a keyed set so merge and
// recheck semantics stay O(1) per item. Conversion happens only at the
// load/persist boundary.
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"lidarrify/internal/library"
	"lidarrify/internal/shared"
)

// Entry is one persisted record. Found entries carry the matched MBID plus
// the originating fields for traceability; not-found entries omit the MBID.
// Album mode uses the album field as the subject, track mode the title.
type Entry struct {
	MBID   string `json:"MusicBrainzId,omitempty"`
	Artist string `json:"artist"`
	Title  string `json:"title,omitempty"`
	Album  string `json:"album,omitempty"`
}

func (e Entry) key(mode library.Mode) string {
	subject := e.Title
	if mode == library.ModeAlbums {
		subject = e.Album
	}
	return strings.TrimSpace(e.Artist) + "\x1f" + strings.TrimSpace(subject)
}

// Set is an ordered, uniquely-keyed sequence of entries.
type Set struct {
	mode    library.Mode
	entries []Entry
	index   map[string]struct{}
}

// NewSet creates an empty set for the given mode.
func NewSet(mode library.Mode) *Set {
	return &Set{
		mode:    mode,
		entries: make([]Entry, 0),
		index:   make(map[string]struct{}),
	}
}

// LoadSet reads a set from path. A missing file yields an empty set;
// unreadable or malformed content yields [shared.ErrCorruptStore] so prior
// history is never silently discarded.
func LoadSet(path string, mode library.Mode) (*Set, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSet(mode), nil
		}
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrCorruptStore, path, err)
	}

	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrCorruptStore, path, err)
	}

	s := NewSet(mode)
	for _, e := range entries {
		s.Add(e)
	}
	return s, nil
}

// Add appends an entry unless its key is already present. Reports whether the
// entry was added; the first entry for a key always wins.
func (s *Set) Add(e Entry) bool {
	k := e.key(s.mode)
	if _, ok := s.index[k]; ok {
		return false
	}
	s.index[k] = struct{}{}
	s.entries = append(s.entries, e)
	return true
}

// Remove deletes the entry with the given key, preserving the order of the
// remaining entries. Reports whether anything was removed.
func (s *Set) Remove(key string) bool {
	if _, ok := s.index[key]; !ok {
		return false
	}
	delete(s.index, key)
	for i, e := range s.entries {
		if e.key(s.mode) == key {
			s.entries = append(s.entries[:i], s.entries[i+1:]...)
			break
		}
	}
	return true
}

// Has reports whether the key is present.
func (s *Set) Has(key string) bool {
	_, ok := s.index[key]
	return ok
}

// Len returns the number of entries.
func (s *Set) Len() int {
	return len(s.entries)
}

// Entries returns the entries in insertion order. The slice is shared; callers
// must not mutate it.
func (s *Set) Entries() []Entry {
	return s.entries
}

// Items converts the entries into work items for a recheck pass.
func (s *Set) Items() []library.WorkItem {
	items := make([]library.WorkItem, 0, len(s.entries))
	for _, e := range s.entries {
		items = append(items, library.WorkItem{
			Artist: strings.TrimSpace(e.Artist),
			Title:  strings.TrimSpace(e.Title),
			Album:  strings.TrimSpace(e.Album),
			Mode:   s.mode,
		})
	}
	return items
}

// Persist writes the set to path as pretty-printed UTF-8 JSON. The write goes
// to a temp file in the same directory and is renamed into place, so an
// interrupted persist never corrupts the previously-good file.
func (s *Set) Persist(path string) error {
	data, err := shared.MarshalJSON(s.entries, true)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrOutputWrite, path, err)
	}
	data = append(data, '\n')

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".lidarrify-*.json")
	if err != nil {
		return fmt.Errorf("%w: %s: %v", shared.ErrOutputWrite, path, err)
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %s: %v", shared.ErrOutputWrite, path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %s: %v", shared.ErrOutputWrite, path, err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %s: %v", shared.ErrOutputWrite, path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: %s: %v", shared.ErrOutputWrite, path, err)
	}
	return nil
}

// Store owns the found/not-found pair for one run. It enforces the cross-set
// invariant: a key is never simultaneously in both sets.
type Store struct {
	mode         library.Mode
	found        *Set
	notFound     *Set
	foundPath    string
	notFoundPath string
}

// Open loads both sets from their paths (missing files yield empty sets) and
// binds the store to those paths for subsequent persists.
func Open(mode library.Mode, foundPath, notFoundPath string) (*Store, error) {
	found, err := LoadSet(foundPath, mode)
	if err != nil {
		return nil, err
	}
	notFound, err := LoadSet(notFoundPath, mode)
	if err != nil {
		return nil, err
	}
	return &Store{
		mode:         mode,
		found:        found,
		notFound:     notFound,
		foundPath:    foundPath,
		notFoundPath: notFoundPath,
	}, nil
}

// Mode returns the entity mode the store was opened for.
func (st *Store) Mode() library.Mode {
	return st.mode
}

// Found returns the found set.
func (st *Store) Found() *Set {
	return st.found
}

// NotFound returns the not-found set.
func (st *Store) NotFound() *Set {
	return st.notFound
}

// Apply merges one resolution outcome. An empty mbid means not found.
//
// Found: append to the found set if the key is new (first match wins) and
// evict the key from the not-found set. Not found: append to the not-found
// set only when the key is in neither set. Both modes of the orchestrator use
// this single rule, which keeps the set intersection empty.
func (st *Store) Apply(item library.WorkItem, mbid string) {
	e := Entry{
		MBID:   mbid,
		Artist: item.Artist,
		Album:  item.Album,
	}
	if st.mode == library.ModeTracks {
		e.Title = item.Title
	} else {
		e.Title = ""
	}

	key := item.Key()
	if mbid != "" {
		st.found.Add(e)
		st.notFound.Remove(key)
		return
	}
	if !st.found.Has(key) {
		st.notFound.Add(e)
	}
}

// Persist writes both sets to their bound paths.
func (st *Store) Persist() error {
	if err := st.found.Persist(st.foundPath); err != nil {
		return err
	}
	return st.notFound.Persist(st.notFoundPath)
}
