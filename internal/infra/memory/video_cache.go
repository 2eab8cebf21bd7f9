package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"video-training-service/internal/app"
	"video-training-service/internal/domain"
)

// VideoCache caches videos with TTL to avoid repeated catalog reads.
// Each video has a generation bumped by Invalidate; a load only fills the
// cache if the generation it started with is still current.
type VideoCache struct {
	loader app.VideoReader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu    sync.RWMutex
	cache map[string]cachedVideo
	gens  map[string]uint64
}

type cachedVideo struct {
	video     domain.Video
	expiresAt time.Time
}

func NewVideoCache(loader app.VideoReader, ttl time.Duration) *VideoCache {
	return &VideoCache{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedVideo),
		gens:   make(map[string]uint64),
	}
}

func (c *VideoCache) GetVideo(ctx context.Context, videoID string) (domain.Video, error) {
	if v, ok := c.lookup(videoID); ok {
		return v, nil
	}

	result, err, _ := c.sf.Do(videoID, func() (interface{}, error) {
		if v, ok := c.lookup(videoID); ok {
			return v, nil
		}

		c.mu.RLock()
		gen := c.gens[videoID]
		c.mu.RUnlock()

		video, err := c.loader.GetVideo(ctx, videoID)
		if err != nil {
			return domain.Video{}, err
		}

		c.mu.Lock()
		if c.gens[videoID] == gen {
			c.cache[videoID] = cachedVideo{
				video:     video,
				expiresAt: c.clock().Add(c.ttlWithJitter()),
			}
		}
		c.mu.Unlock()
		return video, nil
	})
	if err != nil {
		return domain.Video{}, err
	}
	return result.(domain.Video).Clone(), nil
}

// Invalidate drops the cached entry and discards any load already in
// flight, so the next read goes to the loader.
func (c *VideoCache) Invalidate(_ context.Context, videoID string) {
	c.mu.Lock()
	delete(c.cache, videoID)
	c.gens[videoID]++
	c.mu.Unlock()
	c.sf.Forget(videoID)
}

func (c *VideoCache) lookup(videoID string) (domain.Video, bool) {
	now := c.clock()
	c.mu.RLock()
	defer c.mu.RUnlock()
	if entry, ok := c.cache[videoID]; ok && entry.expiresAt.After(now) {
		return entry.video.Clone(), true
	}
	return domain.Video{}, false
}

func (c *VideoCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
