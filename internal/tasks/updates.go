package tasks

import (
	"fmt"

	"lidarrify/internal/library"
)

// ProgressUpdate represents a progress event during a run.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
}

// Operation phase enumeration
type Phase int

const (
	ParseLibrary Phase = iota
	ResolveItems
	PersistStores
)

func (p Phase) String() string {
	switch p {
	case ParseLibrary:
		return "parse_library"
	case ResolveItems:
		return "resolve_items"
	case PersistStores:
		return "persist_stores"
	default:
		return ""
	}
}

func parseLibraryUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ParseLibrary,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Parsing library export %s...", path),
	}
}

func extractedUpdate(count int, mode library.Mode) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ParseLibrary,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Extracted %d %s to look up", count, mode),
	}
}

func resolvingUpdate(step, total int, item library.WorkItem) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolveItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, item.String()),
	}
}

func resolvedUpdate(step, total int, item library.WorkItem, mbid string, cacheHit bool) ProgressUpdate {
	outcome := "NOT FOUND"
	if mbid != "" {
		outcome = mbid
		if cacheHit {
			outcome += " (cached)"
		}
	}
	return ProgressUpdate{
		Phase:   ResolveItems,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s => %s", step, total, item.String(), outcome),
	}
}

func persistUpdate(foundCount, notFoundCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PersistStores,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Writing stores (%d found, %d not found)...", foundCount, notFoundCount),
	}
}
