package redis

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"video-training-service/internal/app"
	"video-training-service/internal/domain"
)

// VideoCache caches catalog videos in Redis as JSON and falls back to a
// loader on cache miss. Keys: quiz:video:{videoID}, plus a generation
// counter quiz:video:{videoID}:gen that Invalidate increments. A load only
// writes back if the generation is unchanged (WATCH/MULTI).
type VideoCache struct {
	client *redis.Client
	loader app.VideoReader
	ttl    time.Duration
	sf     singleflight.Group
	log    *slog.Logger

	rndMu sync.Mutex
	rnd   *rand.Rand
}

func NewVideoCache(client *redis.Client, loader app.VideoReader, ttl time.Duration, log *slog.Logger) *VideoCache {
	if log == nil {
		log = slog.Default()
	}
	return &VideoCache{
		client: client,
		loader: loader,
		ttl:    ttl,
		log:    log,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *VideoCache) GetVideo(ctx context.Context, videoID string) (domain.Video, error) {
	if video, ok := c.cached(ctx, videoID); ok {
		return video, nil
	}

	result, err, _ := c.sf.Do(videoID, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if video, ok := c.cached(ctx, videoID); ok {
			return video, nil
		}

		gen, err := c.generation(ctx, c.client, videoID)
		if err != nil {
			c.log.Warn("read video generation", "video", videoID, "err", err)
		}

		video, err := c.loader.GetVideo(ctx, videoID)
		if err != nil {
			return domain.Video{}, err
		}
		c.store(ctx, videoID, video, gen)
		return video, nil
	})
	if err != nil {
		return domain.Video{}, err
	}
	return result.(domain.Video).Clone(), nil
}

// Invalidate removes the cached copy and bumps the generation so loads
// already in flight do not write back; errors only cost a stale read until TTL.
func (c *VideoCache) Invalidate(ctx context.Context, videoID string) {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, c.genKey(videoID))
		pipe.Del(ctx, c.key(videoID))
		return nil
	})
	if err != nil {
		c.log.Warn("invalidate cached video", "video", videoID, "err", err)
	}
	c.sf.Forget(videoID)
}

// store caches video if the generation still equals gen.
func (c *VideoCache) store(ctx context.Context, videoID string, video domain.Video, gen int64) {
	ttl := c.ttlWithJitter()
	if ttl <= 0 {
		return
	}
	data, err := json.Marshal(video)
	if err != nil {
		return
	}
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := c.generation(ctx, tx, videoID)
		if err != nil {
			return err
		}
		if current != gen {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.key(videoID), data, ttl)
			return nil
		})
		return err
	}, c.genKey(videoID))
	switch {
	case errors.Is(err, redis.TxFailedErr):
		c.log.Debug("video changed during load, not cached", "video", videoID)
	case err != nil:
		c.log.Warn("cache video", "video", videoID, "err", err)
	}
}

func (c *VideoCache) generation(ctx context.Context, cmd redis.Cmdable, videoID string) (int64, error) {
	gen, err := cmd.Get(ctx, c.genKey(videoID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *VideoCache) cached(ctx context.Context, videoID string) (domain.Video, bool) {
	raw, err := c.client.Get(ctx, c.key(videoID)).Bytes()
	if err != nil {
		return domain.Video{}, false
	}
	var video domain.Video
	if err := json.Unmarshal(raw, &video); err != nil {
		return domain.Video{}, false
	}
	return video, true
}

func (c *VideoCache) key(videoID string) string {
	return "quiz:video:" + videoID
}

func (c *VideoCache) genKey(videoID string) string {
	return c.key(videoID) + ":gen"
}

func (c *VideoCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
