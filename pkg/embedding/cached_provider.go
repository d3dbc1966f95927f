package embedding

import (
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/prometheus/client_golang/prometheus"
)

// CachedProvider memoizes embeddings per (taskType, text) pair. Useful on
// the query path where the same question is often retried while documents
// are still ingesting.
type CachedProvider struct {
	inner  EmbeddingProvider
	cache  *gocache.Cache
	hits   prometheus.Counter
	misses prometheus.Counter
}

func NewCachedProvider(inner EmbeddingProvider, ttl time.Duration) *CachedProvider {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &CachedProvider{
		inner: inner,
		cache: gocache.New(ttl, 2*ttl),
	}
}

// WithCounters attaches hit/miss counters. Optional; without them the cache
// just works silently.
func (p *CachedProvider) WithCounters(hits, misses prometheus.Counter) *CachedProvider {
	p.hits = hits
	p.misses = misses
	return p
}

func (p *CachedProvider) Generate(text string, taskType string) (*EmbeddingResponse, error) {
	key := taskType + "\x00" + text
	if hit, found := p.cache.Get(key); found {
		if p.hits != nil {
			p.hits.Inc()
		}
		return hit.(*EmbeddingResponse), nil
	}
	if p.misses != nil {
		p.misses.Inc()
	}

	res, err := p.inner.Generate(text, taskType)
	if err != nil {
		return nil, err
	}
	p.cache.SetDefault(key, res)
	return res, nil
}
