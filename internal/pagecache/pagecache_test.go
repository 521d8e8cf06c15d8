package pagecache

import (
	"context"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func countingRenderer(calls *int32) Renderer {
	return func(ctx context.Context, n int) (*image.NRGBA, error) {
		atomic.AddInt32(calls, 1)
		return image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil
	}
}

func TestGet_RendersSynchronouslyOnMiss(t *testing.T) {
	var calls int32
	c := New(Capacity, PrefetchDebounce, countingRenderer(&calls))

	img, err := c.Get(context.Background(), 3)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if img == nil {
		t.Fatal("expected a rendered image")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected exactly 1 render call, got %d", calls)
	}
}

func TestGet_ServesCachedWithoutRerendering(t *testing.T) {
	var calls int32
	c := New(Capacity, PrefetchDebounce, countingRenderer(&calls))

	c.Get(context.Background(), 3)
	c.Get(context.Background(), 3)

	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected the second Get to hit cache, got %d render calls", calls)
	}
}

func TestInvalidate_ForcesRerender(t *testing.T) {
	var calls int32
	c := New(Capacity, PrefetchDebounce, countingRenderer(&calls))

	c.Get(context.Background(), 3)
	c.Invalidate(3)
	c.Get(context.Background(), 3)

	if atomic.LoadInt32(&calls) != 2 {
		t.Errorf("expected 2 render calls after invalidation, got %d", calls)
	}
}

func TestReinsert_AvoidsRerenderAfterSave(t *testing.T) {
	var calls int32
	c := New(Capacity, PrefetchDebounce, countingRenderer(&calls))

	c.Invalidate(5) // no-op, not yet cached
	c.Reinsert(5, image.NewNRGBA(image.Rect(0, 0, 2, 2)))

	if !c.Contains(5) {
		t.Fatal("expected page 5 to be cached after Reinsert")
	}
	c.Get(context.Background(), 5)
	if atomic.LoadInt32(&calls) != 0 {
		t.Errorf("expected no render call after Reinsert, got %d", calls)
	}
}

func TestEviction_RespectsCapacity(t *testing.T) {
	var calls int32
	c := New(2, PrefetchDebounce, countingRenderer(&calls))

	c.Get(context.Background(), 1)
	c.Get(context.Background(), 2)
	c.Get(context.Background(), 3) // evicts page 1 (least recently used)

	if c.Len() != 2 {
		t.Errorf("expected cache len 2, got %d", c.Len())
	}
	if c.Contains(1) {
		t.Error("expected page 1 to have been evicted")
	}
}

func TestSchedulePrefetch_FetchesAdjacentUncachedPages(t *testing.T) {
	var calls int32
	var mu sync.Mutex
	rendered := make(map[int]bool)

	render := func(ctx context.Context, n int) (*image.NRGBA, error) {
		atomic.AddInt32(&calls, 1)
		mu.Lock()
		rendered[n] = true
		mu.Unlock()
		return image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil
	}

	c := New(Capacity, 10*time.Millisecond, render)
	c.Get(context.Background(), 5)

	cancel := c.SchedulePrefetch(context.Background(), 10)
	defer cancel()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		got := rendered[4] && rendered[6] && rendered[7]
		mu.Unlock()
		if got {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if !rendered[4] || !rendered[6] || !rendered[7] {
		t.Errorf("expected pages 4, 6, 7 prefetched, got %v", rendered)
	}
	if rendered[5] {
		t.Error("expected page 5 (already cached) to not be re-rendered by prefetch")
	}
}

func TestSchedulePrefetch_AbortsIfPageMovedOn(t *testing.T) {
	var calls int32
	c := New(Capacity, 10*time.Millisecond, countingRenderer(&calls))

	c.Get(context.Background(), 5)
	c.SchedulePrefetch(context.Background(), 10)
	c.Get(context.Background(), 9) // marker moves on before debounce fires

	time.Sleep(50 * time.Millisecond)

	// Only the two synchronous Get calls should have rendered; no stale
	// prefetch for page 5's neighbors should have landed.
	if c.Contains(4) || c.Contains(6) || c.Contains(7) {
		t.Error("expected stale prefetch for the abandoned page to be aborted")
	}
}

func TestCancelInFlight_DiscardsPendingResults(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	render := func(ctx context.Context, n int) (*image.NRGBA, error) {
		close(started)
		select {
		case <-release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return image.NewNRGBA(image.Rect(0, 0, 1, 1)), nil
	}

	c := New(Capacity, time.Millisecond, render)
	c.Reinsert(1, image.NewNRGBA(image.Rect(0, 0, 1, 1))) // seed an entry without going through render's blocking path

	c.startWorker(context.Background(), 99)
	<-started
	c.CancelInFlight()
	close(release)

	time.Sleep(20 * time.Millisecond)
	if c.Contains(99) {
		t.Error("expected cancelled worker's result to be discarded")
	}
}

func TestCache_ConcurrentAccessIsSafe(t *testing.T) {
	var calls int32
	c := New(Capacity, PrefetchDebounce, countingRenderer(&calls))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			c.Get(context.Background(), n%4)
		}(i)
	}
	wg.Wait()
	if c.Len() > Capacity {
		t.Errorf("expected cache len to never exceed capacity %d, got %d", Capacity, c.Len())
	}
}
