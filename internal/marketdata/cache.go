package marketdata

import (
	"context"
	"time"

	"github.com/alphaduel/arena/pkg/types"
	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

// CachedProvider wraps a Provider with a TTL snapshot cache so that
// bursts of debates on the same symbol reuse one upstream fetch.
// Snapshots are cached by symbol and returned as copies; a cached
// snapshot is immutable from the caller's point of view.
type CachedProvider struct {
	inner  Provider
	cache  *ristretto.Cache
	ttl    time.Duration
	logger *zap.Logger
}

// NewCachedProvider creates a ristretto-backed caching provider.
func NewCachedProvider(inner Provider, ttl time.Duration, logger *zap.Logger) (*CachedProvider, error) {
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1000,
		MaxCost:     100,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}

	return &CachedProvider{
		inner:  inner,
		cache:  cache,
		ttl:    ttl,
		logger: logger,
	}, nil
}

// Fetch implements Provider.
func (p *CachedProvider) Fetch(ctx context.Context, symbol string) (*types.MarketSnapshot, error) {
	if value, found := p.cache.Get(symbol); found {
		if snap, ok := value.(*types.MarketSnapshot); ok {
			CacheHitsTotal.Inc()
			p.logger.Debug("snapshot-cache-hit", zap.String("symbol", symbol))

			copied := *snap
			return &copied, nil
		}
	}

	CacheMissesTotal.Inc()

	snap, err := p.inner.Fetch(ctx, symbol)
	if err != nil {
		return nil, err
	}

	p.cache.SetWithTTL(symbol, snap, 1, p.ttl)

	copied := *snap
	return &copied, nil
}

// Wait blocks until pending cache writes are applied. Test hook.
func (p *CachedProvider) Wait() {
	p.cache.Wait()
}

// Close releases cache resources.
func (p *CachedProvider) Close() {
	p.cache.Close()
}
