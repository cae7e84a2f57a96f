package refdata

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/kurlclub/kurlclub-forms/pkg/schema"
)

// Status is the load state of one gym's reference data.
type Status string

const (
	// StatusLoading means no fetch has completed yet. SELECT fields bound to
	// reference data do not validate in this state and the UI keeps
	// submission disabled.
	StatusLoading Status = "loading"
	// StatusReady means the data is cached and option sets are available.
	StatusReady Status = "ready"
	// StatusFailed means the last fetch errored and nothing is cached.
	StatusFailed Status = "failed"
)

// Fetcher retrieves a gym's form reference data.
type Fetcher interface {
	FormOptions(ctx context.Context, gymID int64) (*FormOptions, error)
}

const (
	defaultTTL             = 10 * time.Minute
	defaultCleanupInterval = 30 * time.Minute
)

// StoreOption customises a Store.
type StoreOption func(*Store)

// WithTTL overrides how long fetched reference data stays cached.
func WithTTL(ttl time.Duration) StoreOption {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithStoreLogger attaches a structured logger.
func WithStoreLogger(logger *slog.Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// Store caches reference data per gym. Concurrent loads for the same gym are
// collapsed into one upstream fetch; cached data expires on a TTL so a
// long-lived form eventually revalidates selections against fresh sets.
type Store struct {
	fetcher Fetcher
	cache   *gocache.Cache
	group   singleflight.Group
	logger  *slog.Logger
	ttl     time.Duration

	mu       sync.Mutex
	failures map[int64]error
}

// NewStore constructs a Store around the fetcher.
func NewStore(fetcher Fetcher, options ...StoreOption) (*Store, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("refdata: fetcher is required")
	}
	s := &Store{
		fetcher:  fetcher,
		cache:    gocache.New(defaultTTL, defaultCleanupInterval),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		ttl:      defaultTTL,
		failures: make(map[int64]error),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	return s, nil
}

func cacheKey(gymID int64) string {
	return strconv.FormatInt(gymID, 10)
}

// Load returns the gym's reference data, fetching on a cold or expired cache.
// Concurrent callers for the same gym share a single fetch.
func (s *Store) Load(ctx context.Context, gymID int64) (*FormOptions, error) {
	key := cacheKey(gymID)
	if cached, ok := s.cache.Get(key); ok {
		return cached.(*FormOptions), nil
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		if cached, ok := s.cache.Get(key); ok {
			return cached.(*FormOptions), nil
		}
		opts, err := s.fetcher.FormOptions(ctx, gymID)
		s.mu.Lock()
		if err != nil {
			s.failures[gymID] = err
		} else {
			delete(s.failures, gymID)
		}
		s.mu.Unlock()
		if err != nil {
			s.logger.ErrorContext(ctx, "reference data fetch failed", "gym_id", gymID, "error", err)
			return nil, fmt.Errorf("refdata: fetch gym %d: %w", gymID, err)
		}
		s.cache.Set(key, opts, s.ttl)
		s.logger.DebugContext(ctx, "reference data cached",
			"gym_id", gymID,
			"membership_plans", len(opts.MembershipPlans),
			"trainers", len(opts.Trainers))
		return opts, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*FormOptions), nil
}

// Status reports the gym's load state without triggering a fetch.
func (s *Store) Status(gymID int64) Status {
	if _, ok := s.cache.Get(cacheKey(gymID)); ok {
		return StatusReady
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, failed := s.failures[gymID]; failed {
		return StatusFailed
	}
	return StatusLoading
}

// Invalidate drops the gym's cached reference data so the next Load fetches a
// fresh set.
func (s *Store) Invalidate(gymID int64) {
	s.cache.Delete(cacheKey(gymID))
	s.mu.Lock()
	delete(s.failures, gymID)
	s.mu.Unlock()
}

// View returns an option source over the gym's currently cached data. It
// reads the cache at validation time, so a selection made against a set that
// has since been refreshed is re-validated against the latest one; while
// nothing is cached every lookup reports unavailable.
func (s *Store) View(gymID int64) OptionView {
	return OptionView{store: s, gymID: gymID}
}

// OptionView adapts one gym's cached reference data to the validator's
// OptionSource contract.
type OptionView struct {
	store *Store
	gymID int64
}

// Options returns the named option set when the gym's data is cached.
func (v OptionView) Options(name string) ([]schema.Option, bool) {
	cached, ok := v.store.cache.Get(cacheKey(v.gymID))
	if !ok {
		return nil, false
	}
	sets := cached.(*FormOptions).OptionSets()
	opts, ok := sets[name]
	return opts, ok
}
