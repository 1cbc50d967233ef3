package transit

import (
	"context"
	"fmt"
	"time"

	"github.com/bluele/gcache"
	"github.com/mmcloughlin/geohash"
)

const (
	// poiCacheTTL is how long a cached POI lookup remains valid.
	poiCacheTTL = 120 * time.Second

	// poiCacheSize is the LRU capacity of the POI cache.
	poiCacheSize = 512

	// geohashPrecision controls the spatial resolution of the cache key.
	// Precision 7 ≈ ±76m latitude / ±152m longitude cell, well below the
	// 1000m nearby-search radius the service uses.
	geohashPrecision = 7
)

// Logger is a printf-style logging function injected into CachedClient.
// A function type keeps the dependency minimal and test doubles trivial.
type Logger func(format string, args ...any)

// CachedClient wraps another Client and transparently caches nearby-POI
// lookups, the only upstream call the guide search repeats for the same
// coordinates. All other methods delegate to the inner client unchanged.
type CachedClient struct {
	Client
	cache  gcache.Cache
	logger Logger // called when a cache write fails; nil = silent
}

// CachedClientOption configures a CachedClient.
type CachedClientOption func(*CachedClient)

// WithLogger sets a logger that is called when a cache write fails.
// In production, pass a log.Printf-compatible function.
func WithLogger(l Logger) CachedClientOption {
	return func(c *CachedClient) { c.logger = l }
}

// NewCachedClient wraps inner with an LRU+TTL cache over NearbyPOIs.
func NewCachedClient(inner Client, opts ...CachedClientOption) *CachedClient {
	c := &CachedClient{
		Client: inner,
		cache: gcache.New(poiCacheSize).
			LRU().
			Expiration(poiCacheTTL).
			Build(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// NearbyPOIs satisfies Client. It checks the cache first; on a miss it
// delegates to the inner client and stores the result.
func (c *CachedClient) NearbyPOIs(ctx context.Context, lat, lon float64, maxResults, maxDistanceM int) ([]POI, error) {
	key := poiCacheKey(lat, lon, maxResults, maxDistanceM)

	if v, err := c.cache.Get(key); err == nil {
		if pois, ok := v.([]POI); ok {
			return pois, nil
		}
	}

	pois, err := c.Client.NearbyPOIs(ctx, lat, lon, maxResults, maxDistanceM)
	if err != nil {
		return nil, err
	}

	if err := c.cache.Set(key, pois); err != nil && c.logger != nil {
		c.logger("transit: POI cache write for %s failed: %v", key, err)
	}
	return pois, nil
}

// poiCacheKey builds a cache key from a geohash of the coordinates plus the
// search parameters.
func poiCacheKey(lat, lon float64, maxResults, maxDistanceM int) string {
	return fmt.Sprintf("%s:%d:%d",
		geohash.EncodeWithPrecision(lat, lon, geohashPrecision), maxResults, maxDistanceM)
}
