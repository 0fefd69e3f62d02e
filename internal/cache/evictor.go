package cache

import (
	"time"
	"weak"

	"github.com/Juliapixel/twitch-emote-api/internal/logger"
	"go.uber.org/zap"
)

// SpawnEvictor starts a background goroutine holding only a weak reference
// to a and b. On each tick of its own interval, if the cache is still
// reachable by some other owner it evicts stale entries; once a cache has
// been garbage collected the weak pointer resolves to nil and that half of
// the evictor ignores its further ticks. The goroutine exits once both
// halves have gone away.
//
// This mirrors the original's single evictor task per cache pair,
// multiplexing two independent timers, rather than one task per cache:
// provider clients hold a user-catalog cache and an emote-image cache of
// different value types but want exactly one evictor between them.
func SpawnEvictor[K1 comparable, V1 any, K2 comparable, V2 any](
	a *Cache[K1, V1], aInterval time.Duration,
	b *Cache[K2, V2], bInterval time.Duration,
) {
	wa := weak.Make(a)
	wb := weak.Make(b)
	go runEvictor(wa, aInterval, wb, bInterval)
}

// SpawnSingleEvictor starts a background goroutine holding only a weak
// reference to c, evicting stale entries on each tick until c is
// garbage collected. Used by owners that only have one cache to watch.
func SpawnSingleEvictor[K comparable, V any](c *Cache[K, V], interval time.Duration) {
	w := weak.Make(c)
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for range t.C {
			cache := w.Value()
			if cache == nil {
				logger.Debug("cache evictor terminated, owner collected", zap.Duration("interval", interval))
				return
			}
			cache.EvictStale()
		}
	}()
}

func runEvictor[K1 comparable, V1 any, K2 comparable, V2 any](
	wa weak.Pointer[Cache[K1, V1]], aInterval time.Duration,
	wb weak.Pointer[Cache[K2, V2]], bInterval time.Duration,
) {
	ta := time.NewTicker(aInterval)
	tb := time.NewTicker(bInterval)
	defer ta.Stop()
	defer tb.Stop()

	aAlive, bAlive := true, true
	for aAlive || bAlive {
		select {
		case <-ta.C:
			if !aAlive {
				continue
			}
			if c := wa.Value(); c != nil {
				c.EvictStale()
			} else {
				aAlive = false
			}
		case <-tb.C:
			if !bAlive {
				continue
			}
			if c := wb.Value(); c != nil {
				c.EvictStale()
			} else {
				bAlive = false
			}
		}
	}
	logger.Debug("cache evictor terminated, both owners collected",
		zap.Duration("a_interval", aInterval), zap.Duration("b_interval", bInterval))
}
