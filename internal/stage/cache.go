package stage

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/emunsing/webscenarios/internal/fingerprint"
	"github.com/emunsing/webscenarios/internal/settings"
)

// DefaultCacheSize is the performance cache capacity used when the caller
// does not configure one.
const DefaultCacheSize = 256

// NewCachedPerformance wraps a performance function with an LRU cache keyed
// by the design fingerprint. Repeated runs over a previously seen design skip
// the wrapped stage entirely. Errors are returned to the caller and never
// cached.
func NewCachedPerformance(fn PerformanceFunc, size int) (PerformanceFunc, error) {
	if fn == nil {
		fn = Performance
	}
	if size <= 0 {
		size = DefaultCacheSize
	}

	cache, err := lru.New[string, float64](size)
	if err != nil {
		return nil, err
	}

	return func(ctx context.Context, d settings.Design) (float64, error) {
		key := fingerprint.SumDesign(d)
		if v, ok := cache.Get(key); ok {
			return v, nil
		}
		v, err := fn(ctx, d)
		if err != nil {
			return 0, err
		}
		cache.Add(key, v)
		return v, nil
	}, nil
}
