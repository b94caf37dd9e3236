package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jimlawless/whereami"
	r "github.com/redis/go-redis/v9"
	"github.com/zapeame/nostr-market/internal/cfg"
	"github.com/zapeame/nostr-market/internal/domain"
	"github.com/zapeame/nostr-market/internal/repository/redis/converter"
	"github.com/zapeame/nostr-market/pkg/clients"
	"github.com/zapeame/nostr-market/pkg/e"
	"github.com/zapeame/nostr-market/pkg/logger"
)

const (
	browseKey        = "listings:browse"
	followsKeyPrefix = "follows:"
)

// CacheRepo — короткоживущий кэш результатов браузинга и контакт-листа.
// Кэш эфемерный и TTL-ограниченный: единственный источник истины — реле.
type CacheRepo struct {
	client *clients.RedisClient
	cfg    *cfg.RedisCfg
	logger logger.Logger
}

func NewCacheRepo(client *clients.RedisClient, cfg *cfg.RedisCfg, logger logger.Logger) *CacheRepo {
	return &CacheRepo{
		client: client,
		cfg:    cfg,
		logger: logger,
	}
}

// GetBrowseListings возвращает закэшированный результат браузинга.
// Промах — пустой срез без ошибки.
func (c *CacheRepo) GetBrowseListings(ctx context.Context) ([]domain.Product, error) {
	data, err := c.client.Client.Get(ctx, browseKey).Bytes()
	if err != nil {
		if err == r.Nil {
			return nil, nil // cache miss
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var models []converter.ProductRedisModel
	if err := json.Unmarshal(data, &models); err != nil {
		c.logger.Warnf("Browse cache unmarshal failed, dropping key: %v", e.Wrap(whereami.WhereAmI(), err))
		if err := c.client.Client.Del(context.Background(), browseKey).Err(); err != nil {
			c.logger.Warnf("Redis DEL failed: %v", e.Wrap(whereami.WhereAmI(), err))
		}

		return nil, nil // считаем промахом
	}

	return converter.ToArrDomain(models), nil
}

// SetBrowseListings кэширует результат браузинга с заданным TTL
func (c *CacheRepo) SetBrowseListings(ctx context.Context, products []domain.Product) error {
	data, err := json.Marshal(converter.ToArrRedisModel(products))
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Client.Set(ctx, browseKey, data, c.cfg.BrowseTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeleteBrowseListings инвалидирует кэш браузинга
func (c *CacheRepo) DeleteBrowseListings(ctx context.Context) error {
	if err := c.client.Client.Del(ctx, browseKey).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// GetFollows возвращает закэшированный набор продавцов пользователя
func (c *CacheRepo) GetFollows(ctx context.Context, pubkey string) ([]string, error) {
	data, err := c.client.Client.Get(ctx, c.followsKey(pubkey)).Bytes()
	if err != nil {
		if err == r.Nil {
			return nil, nil // cache miss
		}

		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	var follows []string
	if err := json.Unmarshal(data, &follows); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return follows, nil
}

// SetFollows кэширует набор продавцов пользователя
func (c *CacheRepo) SetFollows(ctx context.Context, pubkey string, sellers []string) error {
	data, err := json.Marshal(sellers)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	if err := c.client.Client.Set(ctx, c.followsKey(pubkey), data, c.cfg.FollowsTTL).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// DeleteFollows инвалидирует кэш подписок пользователя
func (c *CacheRepo) DeleteFollows(ctx context.Context, pubkey string) error {
	if err := c.client.Client.Del(ctx, c.followsKey(pubkey)).Err(); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// followsKey возвращает Redis-ключ контакт-листа пользователя
func (c *CacheRepo) followsKey(pubkey string) string {
	return fmt.Sprintf("%s%s", followsKeyPrefix, pubkey)
}
