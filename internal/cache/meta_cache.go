package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"nft-engine-sol/internal/metaplex"
	"nft-engine-sol/pkg/logger"
	"nft-engine-sol/pkg/types"

	"github.com/redis/go-redis/v9"
)

// Redis key 前缀
const metaPrefix = "meta:mint"

// RedisMetaCache Redis 读穿缓存，减少重复的 metadata 账户与链下 JSON 拉取。
// 缓存仅作加速，读写失败只记日志，不影响主流程。
type RedisMetaCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisMetaCache 创建元数据缓存。
func NewRedisMetaCache(rdb *redis.Client, ttl time.Duration) *RedisMetaCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisMetaCache{rdb: rdb, ttl: ttl}
}

func (c *RedisMetaCache) getKey(mint types.Pubkey) string {
	return fmt.Sprintf("%s:%s", metaPrefix, mint)
}

// Get 读取缓存，未命中或读取失败返回 (nil, false)。
func (c *RedisMetaCache) Get(ctx context.Context, mint types.Pubkey) (*metaplex.TokenMetadata, bool) {
	raw, err := c.rdb.Get(ctx, c.getKey(mint)).Bytes()
	switch {
	case err == redis.Nil:
		return nil, false
	case err != nil:
		logger.Warnf("[cache] redis get 失败（忽略）: mint=%s err=%v", mint, err)
		return nil, false
	}

	var meta metaplex.TokenMetadata
	if err := json.Unmarshal(raw, &meta); err != nil {
		logger.Warnf("[cache] 缓存记录解析失败（忽略）: mint=%s err=%v", mint, err)
		return nil, false
	}
	return &meta, true
}

// Set 写入缓存，失败只记日志。
func (c *RedisMetaCache) Set(ctx context.Context, mint types.Pubkey, meta *metaplex.TokenMetadata) {
	if meta == nil {
		return
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		logger.Warnf("[cache] 缓存记录序列化失败（忽略）: mint=%s err=%v", mint, err)
		return
	}
	if err := c.rdb.Set(ctx, c.getKey(mint), raw, c.ttl).Err(); err != nil {
		logger.Warnf("[cache] redis set 失败（忽略）: mint=%s err=%v", mint, err)
	}
}
