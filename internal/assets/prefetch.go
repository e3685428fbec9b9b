package assets

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	defaultWorkers = 3
	queueCapacity  = 256
	pausePoll      = 200 * time.Millisecond
)

// Prefetcher resolves queued refs into the cache with a small worker pool,
// so a freshly opened project warms up while the user is already editing.
// Each ref is fetched at most once; the cache's populate-once rule makes a
// duplicate enqueue harmless even if it slips past the dedupe.
type Prefetcher struct {
	cache   *Cache
	fetcher Fetcher
	prober  Prober
	logger  *slog.Logger
	workers int

	queue  chan string
	mu     sync.Mutex
	queued map[string]bool

	paused  atomic.Bool
	running atomic.Bool
}

func NewPrefetcher(cache *Cache, fetcher Fetcher, prober Prober, logger *slog.Logger) *Prefetcher {
	return &Prefetcher{
		cache:   cache,
		fetcher: fetcher,
		prober:  prober,
		logger:  logger,
		workers: defaultWorkers,
		queue:   make(chan string, queueCapacity),
		queued:  make(map[string]bool),
	}
}

// SetWorkers adjusts pool size before Run.
func (p *Prefetcher) SetWorkers(n int) {
	if n > 0 {
		p.workers = n
	}
}

// Enqueue schedules refs that are not already resolved or queued and
// reports how many it actually accepted. Empty refs are skipped. A full
// queue drops the ref with a warning; it will be re-enqueued the next time
// the timeline is warmed.
func (p *Prefetcher) Enqueue(refs ...string) int {
	accepted := 0
	for _, ref := range refs {
		if ref == "" {
			continue
		}
		if _, resolved := p.cache.Lookup(ref); resolved {
			continue
		}

		p.mu.Lock()
		if p.queued[ref] {
			p.mu.Unlock()
			continue
		}
		p.queued[ref] = true
		p.mu.Unlock()

		select {
		case p.queue <- ref:
			accepted++
		default:
			p.mu.Lock()
			delete(p.queued, ref)
			p.mu.Unlock()
			p.logger.Warn("prefetch queue full, dropping ref", "ref", ref)
		}
	}
	return accepted
}

// Pause stops workers from starting new fetches; in-flight ones finish.
func (p *Prefetcher) Pause() {
	p.paused.Store(true)
	p.logger.Info("prefetcher paused")
}

func (p *Prefetcher) Resume() {
	p.paused.Store(false)
	p.logger.Info("prefetcher resumed")
}

func (p *Prefetcher) IsPaused() bool {
	return p.paused.Load()
}

func (p *Prefetcher) IsRunning() bool {
	return p.running.Load()
}

// QueueLen reports how many refs wait for a worker.
func (p *Prefetcher) QueueLen() int {
	return len(p.queue)
}

// Run blocks until ctx is cancelled, resolving queued refs with the worker
// pool.
func (p *Prefetcher) Run(ctx context.Context) {
	if p.running.Swap(true) {
		return
	}
	defer p.running.Store(false)

	p.logger.Info("prefetcher started", "workers", p.workers)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx)
		}()
	}
	wg.Wait()
	p.logger.Info("prefetcher stopped")
}

func (p *Prefetcher) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ref := <-p.queue:
			if !p.waitWhilePaused(ctx) {
				return
			}
			p.resolve(ctx, ref)
		}
	}
}

func (p *Prefetcher) waitWhilePaused(ctx context.Context) bool {
	for p.paused.Load() {
		select {
		case <-ctx.Done():
			return false
		case <-time.After(pausePoll):
		}
	}
	return true
}

func (p *Prefetcher) resolve(ctx context.Context, ref string) {
	defer func() {
		p.mu.Lock()
		delete(p.queued, ref)
		p.mu.Unlock()
	}()

	if _, resolved := p.cache.Lookup(ref); resolved {
		return
	}

	fetched, err := p.fetcher.Fetch(ctx, ref)
	if err != nil {
		p.cache.StoreFailed(ref, err)
		p.logger.Warn("asset fetch failed", "ref", ref, "error", err)
		return
	}

	var duration float64
	if p.prober != nil {
		if d, err := p.prober.ProbeDuration(ctx, fetched.Path); err == nil {
			duration = d
		} else {
			p.logger.Debug("duration probe failed", "ref", ref, "error", err)
		}
	}

	p.cache.StoreReady(ref, fetched.Path, fetched.Size, duration)
	p.logger.Debug("asset ready", "ref", ref, "bytes", fetched.Size, "duration", duration)
}
