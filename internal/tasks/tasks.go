// package tasks drives the two run modes over the library export and the
// result stores.
//
// The core abstraction is Engine, which extracts or loads work items, resolves
// them strictly sequentially through the rate-limited resolver, and merges
// each outcome into the store. Operations emit progress updates via channels
// for non-blocking status reporting to the CLI layer.
//
// Resolution is deliberately single-threaded: the bottleneck is the external
// service's rate limit, so one lookup is outstanding at a time.
package tasks

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"

	"lidarrify/internal/library"
	"lidarrify/internal/resolver"
	"lidarrify/internal/shared"
	"lidarrify/internal/store"
)

// RunResult summarizes one completed run.
type RunResult struct {
	RunID     string             // Unique ID stamped on the run's log entries
	Mode      library.Mode       // Entity kind resolved
	Total     int                // Work items processed
	Found     int                // Items that resolved to an MBID this run
	NotFound  int                // Items left unmatched this run
	CacheHits int                // Found results served from the local cache
	Unmatched []library.WorkItem // The unmatched items, in processing order
}

// Engine orchestrates initial and recheck passes.
type Engine struct {
	resolver *resolver.Resolver
	logger   *log.Logger

	// persistEach rewrites both stores after every resolved item, bounding
	// data loss on interruption to the in-flight item.
	persistEach bool
}

// NewEngine creates an Engine around the given resolver.
func NewEngine(res *resolver.Resolver, logger *log.Logger, persistEach bool) *Engine {
	return &Engine{
		resolver:    res,
		logger:      logger,
		persistEach: persistEach,
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default so progress reporting never stalls resolution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// RunInitial performs an initial pass: parse the library export, extract work
// items for the store's mode, resolve each, and merge into the store. Existing
// store content at the target paths is merged with, never overwritten, so
// rerunning over a grown library keeps earlier results.
func (e *Engine) RunInitial(ctx context.Context, progress chan<- ProgressUpdate, libraryPath string, st *store.Store) (*RunResult, error) {
	e.sendProgress(progress, parseLibraryUpdate(libraryPath))

	data, err := os.ReadFile(libraryPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrInputParse, err)
	}
	entries, err := library.Parse(data)
	if err != nil {
		return nil, err
	}

	items := library.Extract(entries, st.Mode())
	e.sendProgress(progress, extractedUpdate(len(items), st.Mode()))

	return e.run(ctx, progress, items, st)
}

// RunRecheck performs a recheck pass over the store's not-found set. Items
// that now resolve move to the found set; the rest stay put.
func (e *Engine) RunRecheck(ctx context.Context, progress chan<- ProgressUpdate, st *store.Store) (*RunResult, error) {
	items := st.NotFound().Items()
	e.sendProgress(progress, extractedUpdate(len(items), st.Mode()))
	return e.run(ctx, progress, items, st)
}

func (e *Engine) run(ctx context.Context, progress chan<- ProgressUpdate, items []library.WorkItem, st *store.Store) (*RunResult, error) {
	result := &RunResult{
		RunID: shared.GenerateRunID(),
		Mode:  st.Mode(),
		Total: len(items),
	}
	logger := shared.WithLogger(e.logger, "run", result.RunID, "mode", st.Mode().String())
	logger.Info("starting run", "items", len(items))

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		e.sendProgress(progress, resolvingUpdate(i+1, len(items), item))

		res := e.resolver.Resolve(ctx, item)
		st.Apply(res.Item, res.MBID)

		if res.Found() {
			result.Found++
			if res.CacheHit {
				result.CacheHits++
			}
		} else {
			result.NotFound++
			result.Unmatched = append(result.Unmatched, item)
		}

		e.sendProgress(progress, resolvedUpdate(i+1, len(items), item, res.MBID, res.CacheHit))

		if e.persistEach {
			if err := st.Persist(); err != nil {
				return nil, err
			}
		}
	}

	e.sendProgress(progress, persistUpdate(st.Found().Len(), st.NotFound().Len()))
	if err := st.Persist(); err != nil {
		return nil, err
	}

	logger.Info("run complete",
		"total", result.Total,
		"found", result.Found,
		"not_found", result.NotFound,
		"cache_hits", result.CacheHits,
	)
	return result, nil
}
