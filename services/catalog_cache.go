package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"battle-pass-service/models"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// CatalogCache holds read-mostly season and reward lists between admin writes.
// It is a read-through cache only: claims always read the authoritative store.
type CatalogCache interface {
	Seasons(ctx context.Context, realmID uint64) ([]models.Season, bool)
	StoreSeasons(ctx context.Context, realmID uint64, seasons []models.Season)
	InvalidateSeasons(ctx context.Context, realmID uint64)

	Rewards(ctx context.Context, seasonID uint64) ([]models.BattlePassReward, bool)
	StoreRewards(ctx context.Context, seasonID uint64, rewards []models.BattlePassReward)
	InvalidateRewards(ctx context.Context, seasonID uint64)
}

// NopCatalogCache never hits; used when no redis is configured.
type NopCatalogCache struct{}

func (NopCatalogCache) Seasons(context.Context, uint64) ([]models.Season, bool) {
	return nil, false
}

func (NopCatalogCache) StoreSeasons(context.Context, uint64, []models.Season) {}

func (NopCatalogCache) InvalidateSeasons(context.Context, uint64) {}

func (NopCatalogCache) Rewards(context.Context, uint64) ([]models.BattlePassReward, bool) {
	return nil, false
}

func (NopCatalogCache) StoreRewards(context.Context, uint64, []models.BattlePassReward) {}

func (NopCatalogCache) InvalidateRewards(context.Context, uint64) {}

// RedisCatalogCache stores catalog lists as JSON blobs with a TTL.
// Redis failures are logged and treated as misses.
type RedisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logrus.Entry
}

func NewRedisCatalogCache(client *redis.Client, ttl time.Duration, log *logrus.Entry) *RedisCatalogCache {
	return &RedisCatalogCache{client: client, ttl: ttl, log: log}
}

func seasonsKey(realmID uint64) string  { return fmt.Sprintf("battlepass:seasons:%d", realmID) }
func rewardsKey(seasonID uint64) string { return fmt.Sprintf("battlepass:rewards:%d", seasonID) }

func (c *RedisCatalogCache) Seasons(ctx context.Context, realmID uint64) ([]models.Season, bool) {
	var seasons []models.Season
	return seasons, c.get(ctx, seasonsKey(realmID), &seasons)
}

func (c *RedisCatalogCache) StoreSeasons(ctx context.Context, realmID uint64, seasons []models.Season) {
	c.set(ctx, seasonsKey(realmID), seasons)
}

func (c *RedisCatalogCache) InvalidateSeasons(ctx context.Context, realmID uint64) {
	c.del(ctx, seasonsKey(realmID))
}

func (c *RedisCatalogCache) Rewards(ctx context.Context, seasonID uint64) ([]models.BattlePassReward, bool) {
	var rewards []models.BattlePassReward
	return rewards, c.get(ctx, rewardsKey(seasonID), &rewards)
}

func (c *RedisCatalogCache) StoreRewards(ctx context.Context, seasonID uint64, rewards []models.BattlePassReward) {
	c.set(ctx, rewardsKey(seasonID), rewards)
}

func (c *RedisCatalogCache) InvalidateRewards(ctx context.Context, seasonID uint64) {
	c.del(ctx, rewardsKey(seasonID))
}

func (c *RedisCatalogCache) get(ctx context.Context, key string, dst any) bool {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.log.WithError(err).WithField("key", key).Warn("[CACHE] read failed, falling back to store")
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("[CACHE] corrupt entry, dropping")
		c.del(ctx, key)
		return false
	}
	return true
}

func (c *RedisCatalogCache) set(ctx context.Context, key string, value any) {
	payload, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("[CACHE] write failed")
	}
}

func (c *RedisCatalogCache) del(ctx context.Context, key string) {
	if err := c.client.Del(ctx, key).Err(); err != nil {
		c.log.WithError(err).WithField("key", key).Warn("[CACHE] invalidate failed")
	}
}
