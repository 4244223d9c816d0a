// package resolver matches library work items against the MusicBrainz search API.
//
// Each item gets at most two queries: a primary query over the full identity
// key, then one relaxed fallback over the cleaned title or album alone. The
// first candidate returned wins; no local re-ranking. Transient lookup
// failures are folded into not-found for the current run, so retrying is the
// recheck workflow's job rather than the resolver's.
package resolver

import (
	"context"
	"regexp"
	"strings"

	"github.com/charmbracelet/log"
	"golang.org/x/time/rate"

	"lidarrify/internal/library"
	"lidarrify/internal/musicbrainz"
)

// Searcher is the external lookup collaborator, implemented by
// [musicbrainz.Client]. Candidates come back in the service's ranking order.
type Searcher interface {
	SearchRecordings(ctx context.Context, query string) ([]musicbrainz.Candidate, error)
	SearchReleaseGroups(ctx context.Context, query string) ([]musicbrainz.Candidate, error)
}

// Cache is an optional local store of previously resolved keys. Lookups are
// best-effort; a miss or failure just means the network gets asked.
type Cache interface {
	Get(mode, key string) (string, bool)
	Put(mode, key, mbid string) error
}

// MatchResult is the outcome of resolving one work item. MBID is empty when
// the item could not be matched this run.
type MatchResult struct {
	Item     library.WorkItem
	MBID     string
	CacheHit bool
}

// Found reports whether the item was matched.
func (r MatchResult) Found() bool {
	return r.MBID != ""
}

// Resolver issues rate-limited lookups with a two-tier query strategy.
type Resolver struct {
	searcher Searcher
	cache    Cache
	limiter  *rate.Limiter
	logger   *log.Logger
}

// New creates a Resolver. cache may be nil to disable local caching; limiter
// may be nil to issue requests unpaced (tests do this).
func New(searcher Searcher, cache Cache, limiter *rate.Limiter, logger *log.Logger) *Resolver {
	return &Resolver{
		searcher: searcher,
		cache:    cache,
		limiter:  limiter,
		logger:   logger,
	}
}

// Resolve looks up one work item and always produces exactly one of
// found/not-found. The limiter is awaited before every outbound request,
// primary and fallback alike, so the actual request rate never exceeds the
// configured limit.
func (r *Resolver) Resolve(ctx context.Context, item library.WorkItem) MatchResult {
	if r.cache != nil {
		if id, ok := r.cache.Get(item.Mode.String(), item.Key()); ok {
			return MatchResult{Item: item, MBID: id, CacheHit: true}
		}
	}

	id := r.lookup(ctx, item)
	if id != "" && r.cache != nil {
		if err := r.cache.Put(item.Mode.String(), item.Key(), id); err != nil {
			r.logger.Warn("failed to cache lookup result", "item", item.String(), "err", err)
		}
	}
	return MatchResult{Item: item, MBID: id}
}

func (r *Resolver) lookup(ctx context.Context, item library.WorkItem) string {
	if id := r.query(ctx, item, primaryQuery(item)); id != "" {
		return id
	}

	fallback := fallbackQuery(item)
	if fallback == "" {
		return ""
	}
	return r.query(ctx, item, fallback)
}

// query issues a single search and returns the best-ranked candidate ID, or
// empty on no candidates. A transient service error degrades to empty as well.
func (r *Resolver) query(ctx context.Context, item library.WorkItem, query string) string {
	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return ""
		}
	}

	var candidates []musicbrainz.Candidate
	var err error
	if item.Mode == library.ModeAlbums {
		candidates, err = r.searcher.SearchReleaseGroups(ctx, query)
	} else {
		candidates, err = r.searcher.SearchRecordings(ctx, query)
	}
	if err != nil {
		r.logger.Warn("lookup failed", "item", item.String(), "err", err)
		return ""
	}
	if len(candidates) == 0 {
		return ""
	}
	return candidates[0].ID
}

func primaryQuery(item library.WorkItem) string {
	if item.Mode == library.ModeAlbums {
		return musicbrainz.ReleaseGroupQuery(item.Artist, item.Album)
	}
	return musicbrainz.RecordingQuery(item.Artist, item.Title, item.Album)
}

// fallbackQuery relaxes the search to the cleaned title/album alone, trading
// precision for recall. Returns empty when cleaning leaves nothing to search.
func fallbackQuery(item library.WorkItem) string {
	subject := CleanName(item.Subject())
	if subject == "" {
		return ""
	}
	if item.Mode == library.ModeAlbums {
		return musicbrainz.ReleaseGroupFallbackQuery(subject)
	}
	return musicbrainz.RecordingFallbackQuery(subject)
}

var editionSuffix = regexp.MustCompile(`(?i)\s*-\s*(single|ep)\s*$`)

// CleanName strips the noise Apple Music appends to names before they go into
// a relaxed query: parenthetical chunks (nested included) and trailing
// "- Single" / "- EP" markers. Whitespace is collapsed and trimmed.
func CleanName(name string) string {
	var b strings.Builder
	depth := 0
	for _, r := range name {
		switch r {
		case '(':
			depth++
		case ')':
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteRune(r)
			}
		}
	}

	cleaned := editionSuffix.ReplaceAllString(b.String(), "")
	return strings.Join(strings.Fields(cleaned), " ")
}
