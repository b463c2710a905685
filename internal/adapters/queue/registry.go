package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/eshaffer321/deposit-autoapprove/internal/domain/bank"
)

// StaticRegistry serves locations from configuration, keyed by tenant
type StaticRegistry map[string]map[bank.Bank]Location

// Lookup implements Registry
func (r StaticRegistry) Lookup(_ context.Context, tenant string) (map[bank.Bank]Location, error) {
	locations, ok := r[tenant]
	if !ok {
		return nil, fmt.Errorf("no queue locations configured for tenant %q", tenant)
	}
	out := make(map[bank.Bank]Location, len(locations))
	for b, loc := range locations {
		out[b] = loc
	}
	return out, nil
}

// CachedRegistry memoizes another registry's lookups for a fixed TTL.
// Failed lookups are not cached.
type CachedRegistry struct {
	next Registry
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cachedLocations
}

type cachedLocations struct {
	locations map[bank.Bank]Location
	expires   time.Time
}

// NewCachedRegistry wraps next. A non-positive ttl disables caching.
func NewCachedRegistry(next Registry, ttl time.Duration) *CachedRegistry {
	return &CachedRegistry{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cachedLocations),
	}
}

// Lookup implements Registry
func (r *CachedRegistry) Lookup(ctx context.Context, tenant string) (map[bank.Bank]Location, error) {
	if r.ttl <= 0 {
		return r.next.Lookup(ctx, tenant)
	}

	r.mu.Lock()
	entry, ok := r.entries[tenant]
	r.mu.Unlock()
	if ok && r.now().Before(entry.expires) {
		return entry.locations, nil
	}

	locations, err := r.next.Lookup(ctx, tenant)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.entries[tenant] = cachedLocations{locations: locations, expires: r.now().Add(r.ttl)}
	r.mu.Unlock()

	return locations, nil
}

// Resolve looks up a single bank's location
func Resolve(ctx context.Context, r Registry, tenant string, b bank.Bank) (Location, error) {
	locations, err := r.Lookup(ctx, tenant)
	if err != nil {
		return Location{}, fmt.Errorf("registry lookup: %w", err)
	}
	loc, ok := locations[b]
	if !ok || loc.DocumentID == "" {
		return Location{}, fmt.Errorf("no queue document registered for tenant %q bank %s", tenant, b)
	}
	return loc, nil
}
