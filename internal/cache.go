package internal

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/patrickmn/go-cache"
	"github.com/zeebo/xxh3"
	"go.uber.org/zap"
)

var rdb *redis.Client
var cacheCtx = context.Background()
var memCache *cache.Cache

var redisDataExpiration time.Duration
var memoryDataExpiration time.Duration

var redisInitialized bool

// InitCache initializes the tiered cache: a short-lived in-memory tier in front
// of a redis sentinel tier. DRY_RUN skips redis entirely.
func InitCache(redisURI string, redisURI2 string, redisURI3 string, redisPassword string, redisDB int, dryRun string) {

	if dryRun == "True" || dryRun == "true" {
		zap.S().Infof("Running cache in DRY_RUN mode, only the in-memory tier is used")
		InitMemcache()
		return
	}

	failOverOptions := redis.FailoverOptions{
		MasterName:       "mymaster",
		SentinelAddrs:    []string{redisURI, redisURI2, redisURI3},
		SentinelPassword: redisPassword,
		Password:         redisPassword,
		DB:               redisDB,
	}

	rdb = redis.NewFailoverClient(&failOverOptions)

	redisDataExpiration = 1 * time.Hour
	memoryDataExpiration = 10 * time.Second

	memCache = cache.New(memoryDataExpiration, 20*time.Second)
	redisInitialized = true
}

// InitMemcache sets up the in-memory tier only. Used in tests and DRY_RUN mode.
func InitMemcache() {
	memoryDataExpiration = 10 * time.Second
	redisDataExpiration = 1 * time.Hour
	memCache = cache.New(memoryDataExpiration, 20*time.Second)
	redisInitialized = false
}

// RecordCacheKey builds the cache key for a record's rendered views. The
// record version is part of the key, so any write naturally invalidates.
func RecordCacheKey(prefix string, plantCode string, materialCode string, version int) string {
	h := xxh3.New()
	// Write on xxh3 never fails
	_, _ = h.Write([]byte(plantCode))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(materialCode))
	return fmt.Sprintf("%s-%x-%d", prefix, h.Sum64(), version)
}

// GetTiered attempts to get a key from the in-memory tier, falling back to redis
func GetTiered(key string) (cached bool, value interface{}) {
	if memCache == nil {
		return false, nil
	}

	value, cached = memCache.Get(key)
	if cached {
		return
	}

	if !redisInitialized {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(cacheCtx, memoryDataExpiration)
	defer cancel()

	var err error
	value, err = rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false, nil
	}
	cached = true

	// Write back to the in-memory tier
	memCache.SetDefault(key, value)
	return
}

// SetTiered sets both tiers with the given redis expiration
func SetTiered(key string, value interface{}, redisExpiration time.Duration) {
	if memCache == nil {
		return
	}
	memCache.SetDefault(key, value)
	if redisInitialized {
		rdb.Set(cacheCtx, key, value, redisExpiration)
	}
}

// SetTieredShortTerm is a helper that calls SetTiered with the memory expiration
func SetTieredShortTerm(key string, value interface{}) {
	SetTiered(key, value, memoryDataExpiration)
}

// DeleteTiered removes a key from both tiers. Used to invalidate cached reads
// immediately after a write instead of waiting out the expiration.
func DeleteTiered(key string) {
	if memCache == nil {
		return
	}
	memCache.Delete(key)
	if redisInitialized {
		rdb.Del(cacheCtx, key)
	}
}
