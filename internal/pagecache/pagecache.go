// Package pagecache holds the two LRU caches — PDF backdrop renders and
// note-tile rasters — that serve page content as the user navigates, with
// debounced background prefetch of adjacent pages.
//
// See SPEC_FULL.md §4.F. Grounded on the access/prefetch protocol in
// spec.md §4.F; the worker-pool shape is modeled on the teacher's
// daemon.Daemon/sync.Orchestrator ticker-driven background loop, and the
// LRU itself is hashicorp/golang-lru/v2 (a direct dependency this module
// adds over the teacher's go.mod — see DESIGN.md).
package pagecache

import (
	"context"
	"image"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Capacity is the default max-cost K per cache (§4.F: "max-cost K (6
// entries)").
const Capacity = 6

// PrefetchDebounce is the default delay before scheduling adjacent-page
// prefetch after a page change (§4.F).
const PrefetchDebounce = time.Second

// Renderer renders the combined image for a page index. Implementations
// wrap the PDF provider (pdfprovider) or the note-tile compositor
// (a page's strokes stacked over the next page's strokes).
type Renderer func(ctx context.Context, pageIndex int) (*image.NRGBA, error)

// Cache is one LRU cache of combined page images with debounced prefetch.
// PDF-cache and Note-cache are each one Cache instance (§4.F "Structure").
type Cache struct {
	mu       sync.Mutex
	lru      *lru.Cache[int, *image.NRGBA]
	cap      int
	debounce time.Duration

	render Renderer

	currentPage int
	generation  int // bumped on every page change; cancels stale debounce/prefetch

	inFlight map[int]context.CancelFunc

	now func() time.Time
}

// New creates a Cache of the given capacity that uses render to produce
// missing entries.
func New(capacity int, debounce time.Duration, render Renderer) *Cache {
	if capacity <= 0 {
		capacity = Capacity
	}
	if debounce <= 0 {
		debounce = PrefetchDebounce
	}
	l, _ := lru.New[int, *image.NRGBA](capacity)
	return &Cache{
		lru:      l,
		cap:      capacity,
		debounce: debounce,
		render:   render,
		inFlight: make(map[int]context.CancelFunc),
		now:      time.Now,
	}
}

// Get serves page N: immediately if cached, otherwise by rendering
// synchronously on the caller's goroutine (§4.F step 3: "the user is
// waiting"). It always sets the current-page marker.
func (c *Cache) Get(ctx context.Context, n int) (*image.NRGBA, error) {
	c.mu.Lock()
	c.currentPage = n
	c.generation++
	gen := c.generation
	if img, ok := c.lru.Get(n); ok {
		c.mu.Unlock()
		return img, nil
	}
	c.mu.Unlock()

	img, err := c.render(ctx, n)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	// Only insert if this is still the generation that requested it; a
	// newer Get may have already moved the marker on.
	if gen == c.generation {
		c.lru.Add(n, img)
	}
	c.mu.Unlock()
	return img, nil
}

// Invalidate removes n's cache entry, used on every edit to the current
// page (§4.F "Invalidation").
func (c *Cache) Invalidate(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Remove(n)
}

// Reinsert writes img as n's cache entry directly, used after a save to
// avoid a re-read (§4.F "Invalidation": "reinserted as the cache entry").
func (c *Cache) Reinsert(n int, img *image.NRGBA) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lru.Add(n, img)
}

// Contains reports whether n is currently cached, without affecting
// recency.
func (c *Cache) Contains(n int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Contains(n)
}

// SchedulePrefetch starts the debounce timer for the current page marker.
// When it fires, if the marker has not moved on (§4.F step 4), it launches
// background renders for pageCount(N-1, N+1, N+2) that are not already
// cached (§4.F "Prefetch-2-ahead rationale"). It returns a cancel func the
// caller can use to abort early (e.g. on document close).
func (c *Cache) SchedulePrefetch(ctx context.Context, maxPage int) context.CancelFunc {
	c.mu.Lock()
	n := c.currentPage
	gen := c.generation
	c.mu.Unlock()

	prefetchCtx, cancel := context.WithCancel(ctx)
	timer := time.AfterFunc(c.debounce, func() {
		c.mu.Lock()
		stillCurrent := gen == c.generation
		c.mu.Unlock()
		if !stillCurrent {
			return
		}
		c.runPrefetch(prefetchCtx, n, maxPage)
	})

	return func() {
		timer.Stop()
		cancel()
	}
}

// runPrefetch launches one worker goroutine per uncached target page.
func (c *Cache) runPrefetch(ctx context.Context, current, maxPage int) {
	targets := []int{current - 1, current + 1, current + 2}
	for _, n := range targets {
		if n < 0 || n > maxPage {
			continue
		}
		if c.Contains(n) {
			continue
		}
		c.startWorker(ctx, n)
	}
}

// startWorker renders page n in the background, storing a cancel handle so
// CancelInFlight/document-close can abort it (§4.F "Thread safety":
// "Workers may be cancelled; a cancelled worker's result is discarded
// without insertion.").
func (c *Cache) startWorker(ctx context.Context, n int) {
	workerCtx, cancel := context.WithCancel(ctx)

	c.mu.Lock()
	if existing, ok := c.inFlight[n]; ok {
		existing()
	}
	c.inFlight[n] = cancel
	c.mu.Unlock()

	go func() {
		defer func() {
			c.mu.Lock()
			delete(c.inFlight, n)
			c.mu.Unlock()
		}()

		img, err := c.render(workerCtx, n)
		if err != nil {
			return
		}
		if workerCtx.Err() != nil {
			return // cancelled: discard without insertion
		}

		c.mu.Lock()
		c.lru.Add(n, img)
		c.mu.Unlock()
	}()
}

// CancelInFlight cancels every outstanding prefetch worker, used on
// document close or when a new prefetch burst supersedes the old one.
func (c *Cache) CancelInFlight() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for n, cancel := range c.inFlight {
		cancel()
		delete(c.inFlight, n)
	}
}

// Len reports the number of entries currently cached.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lru.Len()
}
