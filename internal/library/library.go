// package library parses Apple Music library exports and extracts lookup work items.
//
// The export file (Library.xml) is an Apple property list whose Tracks
// dictionary maps numeric track IDs to per-track metadata dictionaries.
package library

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"howett.net/plist"

	"lidarrify/internal/shared"
)

// Mode selects the entity kind a run resolves: track recordings or album release-groups.
type Mode int

const (
	ModeTracks Mode = iota
	ModeAlbums
)

func (m Mode) String() string {
	switch m {
	case ModeTracks:
		return "tracks"
	case ModeAlbums:
		return "albums"
	default:
		return ""
	}
}

// Entry is one raw track row from the library export. Fields may be empty.
type Entry struct {
	Artist string `plist:"Artist"`
	Title  string `plist:"Name"`
	Album  string `plist:"Album"`
}

type libraryFile struct {
	Tracks map[string]Entry `plist:"Tracks"`
}

// WorkItem is the unit of lookup: a track or album identity extracted from the
// library. Identity is the trimmed, case-preserved (artist, title) pair in
// track mode, or (artist, album) in album mode. Immutable once created.
type WorkItem struct {
	Artist string
	Title  string
	Album  string
	Mode   Mode
}

// Subject returns the title or album the item is keyed on, depending on mode.
func (w WorkItem) Subject() string {
	if w.Mode == ModeAlbums {
		return w.Album
	}
	return w.Title
}

// Key returns the identity key for deduplication and store membership.
// The separator is a control character that cannot appear in tag text.
func (w WorkItem) Key() string {
	return w.Artist + "\x1f" + w.Subject()
}

func (w WorkItem) String() string {
	return w.Artist + " - " + w.Subject()
}

// Parse decodes a Library.xml export into its raw track entries.
//
// Entries are returned in track-ID order so repeated runs see the library in a
// stable sequence regardless of plist dictionary ordering.
func Parse(data []byte) ([]Entry, error) {
	var lib libraryFile
	if _, err := plist.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInputParse, err)
	}

	ids := make([]string, 0, len(lib.Tracks))
	for id := range lib.Tracks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		a, aerr := strconv.Atoi(ids[i])
		b, berr := strconv.Atoi(ids[j])
		if aerr != nil || berr != nil {
			return ids[i] < ids[j]
		}
		return a < b
	})

	entries := make([]Entry, 0, len(ids))
	for _, id := range ids {
		entries = append(entries, lib.Tracks[id])
	}
	return entries, nil
}

// ExtractTracks converts raw entries into deduplicated track work items.
//
// Entries missing artist or title are dropped. The first entry for a given
// (artist, title) key wins; its album field is carried along so the resolver
// can include it in the primary query.
func ExtractTracks(entries []Entry) []WorkItem {
	items := make([]WorkItem, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))

	for _, e := range entries {
		item := WorkItem{
			Artist: strings.TrimSpace(e.Artist),
			Title:  strings.TrimSpace(e.Title),
			Album:  strings.TrimSpace(e.Album),
			Mode:   ModeTracks,
		}
		if item.Artist == "" || item.Title == "" {
			continue
		}
		if _, dup := seen[item.Key()]; dup {
			continue
		}
		seen[item.Key()] = struct{}{}
		items = append(items, item)
	}
	return items
}

// ExtractAlbums groups entries by (artist, album) and emits one work item per
// unique pair in first-seen order. Entries missing either field are dropped.
func ExtractAlbums(entries []Entry) []WorkItem {
	items := make([]WorkItem, 0, len(entries))
	seen := make(map[string]struct{}, len(entries))

	for _, e := range entries {
		item := WorkItem{
			Artist: strings.TrimSpace(e.Artist),
			Album:  strings.TrimSpace(e.Album),
			Mode:   ModeAlbums,
		}
		if item.Artist == "" || item.Album == "" {
			continue
		}
		if _, dup := seen[item.Key()]; dup {
			continue
		}
		seen[item.Key()] = struct{}{}
		items = append(items, item)
	}
	return items
}

// Extract dispatches to the extractor for the given mode.
func Extract(entries []Entry, mode Mode) []WorkItem {
	if mode == ModeAlbums {
		return ExtractAlbums(entries)
	}
	return ExtractTracks(entries)
}
