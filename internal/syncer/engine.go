// Package syncer implements the tiered synchronization engine: it
// reconciles what the client already holds against the authoritative
// store, fetches the gap in adaptively sized concurrent batches, and
// keeps the memory and local cache tiers coherent.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lebnicolas/cvelistV5/internal/cache"
	"github.com/lebnicolas/cvelistV5/internal/discovery"
	"github.com/lebnicolas/cvelistV5/model"
	"go.uber.org/zap"
)

// ErrNoDiscoverySource is returned when neither the query service nor
// any local discovery artifact can name the candidate id set. The run
// still hands back whatever the caches held, but the caller must treat
// the condition as "no known source" and arrange an operator resync.
var ErrNoDiscoverySource = discovery.ErrNoSource

// ErrNoFallbackFetcher is returned when the query service is
// unreachable and the engine has no per-id fallback source configured.
var ErrNoFallbackFetcher = errors.New("query service unreachable and no fallback fetcher configured")

// Config carries the engine's tuning knobs. The adaptive thresholds are
// heuristics, not invariants; override them freely.
type Config struct {
	InitialBatchSize int
	MinBatchSize     int
	MaxBatchSize     int
	BatchSizeStep    int

	// Average per-record latency classifying a batch window.
	FastThreshold time.Duration
	SlowThreshold time.Duration
	// Consecutive fast/slow windows before the size moves.
	FastStreak int
	SlowStreak int

	// Records accumulated before an intermediate flush to the local
	// cache, and the chunk size of the batch-capable path.
	FlushEvery int
	ChunkSize  int
}

// DefaultConfig returns the tuning the engine ships with.
func DefaultConfig() Config {
	return Config{
		InitialBatchSize: 50,
		MinBatchSize:     10,
		MaxBatchSize:     100,
		BatchSizeStep:    10,
		FastThreshold:    50 * time.Millisecond,
		SlowThreshold:    200 * time.Millisecond,
		FastStreak:       3,
		SlowStreak:       2,
		FlushEvery:       200,
		ChunkSize:        1000,
	}
}

// QueryService is the engine's view of the batch-capable record source.
type QueryService interface {
	Alive(ctx context.Context) bool
	AllIDs(ctx context.Context) ([]string, error)
	BatchGet(ctx context.Context, ids []string) ([]model.Advisory, error)
}

// DurableCache is the engine's view of the local cache tier. Writes are
// an optimization: failures are logged and never abort a run.
type DurableCache interface {
	GetAll() ([]model.Advisory, error)
	UpsertMany(advisories []model.Advisory) error
}

// CandidateSource names the candidate id set when the service is down.
type CandidateSource interface {
	ResolveCandidateIDs() ([]string, error)
}

// Engine orchestrates the cache tiers. All collaborators are injected;
// any of service, source, fetcher and local may be nil, degrading the
// corresponding capability.
type Engine struct {
	service QueryService
	source  CandidateSource
	fetcher discovery.Fetcher
	local   DurableCache
	mem     *cache.MemoryCache
	cfg     Config
	log     *zap.Logger

	mu      sync.Mutex
	current *Run
}

// Options configures a discovery run.
type Options struct {
	// FullRefresh treats every candidate id as missing, bypassing both
	// cache tiers.
	FullRefresh bool
}

// New creates an Engine. Zero-valued tuning fields fall back to the
// defaults.
func New(service QueryService, source CandidateSource, fetcher discovery.Fetcher, local DurableCache, mem *cache.MemoryCache, cfg Config, log *zap.Logger) *Engine {
	if mem == nil {
		mem = cache.NewMemoryCache()
	}
	if log == nil {
		log = zap.NewNop()
	}
	def := DefaultConfig()
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.FlushEvery <= 0 {
		cfg.FlushEvery = def.FlushEvery
	}
	if cfg.MinBatchSize <= 0 {
		cfg.MinBatchSize = def.MinBatchSize
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = def.MaxBatchSize
	}
	if cfg.InitialBatchSize <= 0 {
		cfg.InitialBatchSize = def.InitialBatchSize
	}
	if cfg.BatchSizeStep <= 0 {
		cfg.BatchSizeStep = def.BatchSizeStep
	}
	return &Engine{
		service: service,
		source:  source,
		fetcher: fetcher,
		local:   local,
		mem:     mem,
		cfg:     cfg,
		log:     log,
	}
}

// MemoryCache exposes the engine's front-line tier.
func (e *Engine) MemoryCache() *cache.MemoryCache {
	return e.mem
}

// Discover starts (or joins) a discovery run. If a run is already in
// flight the in-progress handle is returned: concurrent requests share
// one accumulator and observe the same completion. There is no
// cancellation primitive; callers wait for DONE.
func (e *Engine) Discover(ctx context.Context, opts Options) *Run {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.current != nil {
		select {
		case <-e.current.done:
			// prior run finished, start a fresh one
		default:
			return e.current
		}
	}

	run := newRun()
	e.current = run
	go e.execute(ctx, run, opts)
	return run
}

// run-local accumulation state
type runState struct {
	seen    map[string]bool
	records []model.Advisory
	pending []model.Advisory // accumulated since the last flush
	total   int              // expected total for progress reporting
}

// add appends an advisory unless this run already holds its id, and
// opportunistically updates the memory cache.
func (s *runState) add(e *Engine, adv model.Advisory) bool {
	e.mem.Set(adv)
	if s.seen[adv.ID] {
		return false
	}
	s.seen[adv.ID] = true
	s.records = append(s.records, adv)
	s.pending = append(s.pending, adv)
	return true
}

func (e *Engine) execute(ctx context.Context, run *Run, opts Options) {
	state := &runState{seen: make(map[string]bool)}

	// Seed from the durable tier unless a full refresh bypasses it.
	if !opts.FullRefresh && e.local != nil {
		cached, err := e.local.GetAll()
		if err != nil {
			e.log.Warn("local cache unreadable, degrading to direct fetch", zap.Error(err))
		} else {
			for _, adv := range cached {
				e.mem.Set(adv)
				if !state.seen[adv.ID] {
					state.seen[adv.ID] = true
					state.records = append(state.records, adv)
				}
			}
			if len(cached) > 0 {
				run.emit(Progress{
					Loaded: len(state.records),
					Status: fmt.Sprintf("loaded %d from local cache", len(cached)),
				})
			}
		}
	}

	// RESOLVING: probe the service and name the candidate set.
	alive := e.service != nil && e.service.Alive(ctx)

	var candidates []string
	if alive {
		ids, err := e.service.AllIDs(ctx)
		if err != nil {
			e.log.Warn("id resolution via query service failed", zap.Error(err))
			alive = false
		} else {
			candidates = ids
		}
	}
	if !alive {
		if e.source == nil {
			run.finish(state.records, ErrNoDiscoverySource)
			return
		}
		ids, err := e.source.ResolveCandidateIDs()
		if err != nil {
			e.log.Warn("no discovery source available", zap.Error(err))
			run.finish(state.records, ErrNoDiscoverySource)
			return
		}
		candidates = ids
	}

	// Compute the gap. Memory-cache hits that did not come from the
	// durable tier still count as held.
	var missing []string
	for _, id := range candidates {
		if state.seen[id] {
			continue
		}
		if !opts.FullRefresh {
			if adv, ok := e.mem.Get(id); ok {
				state.seen[id] = true
				state.records = append(state.records, adv)
				continue
			}
		}
		missing = append(missing, id)
	}
	if opts.FullRefresh {
		missing = candidates
		state.seen = make(map[string]bool)
		state.records = nil
	}
	state.total = len(state.records) + len(missing)

	// FETCHING
	var err error
	if alive {
		e.fetchChunked(ctx, run, state, missing)
	} else {
		err = e.fetchAdaptive(ctx, run, state, missing)
	}

	// DONE: flush whatever has not reached the durable tier yet.
	e.flush(state, true)
	run.finish(state.records, err)
}

// fetchChunked is the batch-capable path: fixed chunks against the
// query service's batch endpoint, in sequence.
func (e *Engine) fetchChunked(ctx context.Context, run *Run, state *runState, missing []string) {
	for i, batchIdx := 0, 0; i < len(missing); batchIdx++ {
		end := i + e.cfg.ChunkSize
		if end > len(missing) {
			end = len(missing)
		}
		chunk := missing[i:end]

		advisories, err := e.service.BatchGet(ctx, chunk)
		if err != nil {
			e.log.Warn("batch fetch failed, retrying chunk per id",
				zap.Int("batch", batchIdx+1), zap.Error(err))
			advisories = e.fetchChunkPerID(ctx, chunk)
		}

		for _, adv := range advisories {
			state.add(e, adv)
		}
		e.flush(state, false)

		run.emit(Progress{
			Loaded: len(state.records),
			Total:  state.total,
			Status: fmt.Sprintf("loading %d/%d (%s) - batch %d",
				len(state.records), state.total, chunk[len(chunk)-1], batchIdx+1),
		})
		i = end
	}
}

// fetchChunkPerID recovers a failed chunk one id at a time through the
// fallback fetcher. Individual failures leave the id missing.
func (e *Engine) fetchChunkPerID(ctx context.Context, ids []string) []model.Advisory {
	if e.fetcher == nil {
		return nil
	}
	advisories := make([]model.Advisory, 0, len(ids))
	for _, id := range ids {
		adv, err := e.fetcher.FetchAdvisory(ctx, id)
		if err != nil {
			e.log.Debug("advisory still missing", zap.String("id", id), zap.Error(err))
			continue
		}
		advisories = append(advisories, *adv)
	}
	return advisories
}

// fetchAdaptive is the fallback path: per-id fetches issued
// concurrently in adaptively sized batch windows.
func (e *Engine) fetchAdaptive(ctx context.Context, run *Run, state *runState, missing []string) error {
	if len(missing) == 0 {
		return nil
	}
	if e.fetcher == nil {
		return ErrNoFallbackFetcher
	}

	ctrl := newBatchController(e.cfg)
	for i, batchIdx := 0, 0; i < len(missing); batchIdx++ {
		end := i + ctrl.Size()
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[i:end]

		results := make([]*model.Advisory, len(batch))
		start := time.Now()
		var wg sync.WaitGroup
		for j, id := range batch {
			wg.Add(1)
			go func(j int, id string) {
				defer wg.Done()
				adv, err := e.fetcher.FetchAdvisory(ctx, id)
				if err != nil {
					e.log.Debug("advisory still missing", zap.String("id", id), zap.Error(err))
					return
				}
				results[j] = adv
			}(j, id)
		}
		wg.Wait()
		ctrl.Observe(time.Since(start) / time.Duration(len(batch)))

		for _, adv := range results {
			if adv != nil {
				state.add(e, *adv)
			}
		}
		e.flush(state, false)

		run.emit(Progress{
			Loaded: len(state.records),
			Total:  state.total,
			Status: fmt.Sprintf("loading %d/%d (%s) - batch %d",
				len(state.records), state.total, batch[len(batch)-1], batchIdx+1),
		})
		i = end
	}
	return nil
}

// flush writes pending records to the durable tier, every FlushEvery
// records or unconditionally at the end of a run. Failures are logged
// and the pending set is kept for the next attempt.
func (e *Engine) flush(state *runState, force bool) {
	if e.local == nil || len(state.pending) == 0 {
		return
	}
	if !force && len(state.pending) < e.cfg.FlushEvery {
		return
	}
	if err := e.local.UpsertMany(state.pending); err != nil {
		e.log.Warn("local cache flush failed", zap.Int("records", len(state.pending)), zap.Error(err))
		return
	}
	state.pending = state.pending[:0]
}
