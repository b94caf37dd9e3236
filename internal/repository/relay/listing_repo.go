package relay

import (
	"context"

	"github.com/jimlawless/whereami"
	"github.com/nbd-wtf/go-nostr"
	"github.com/zapeame/nostr-market/internal/domain"
	"github.com/zapeame/nostr-market/internal/repository/relay/converter"
	"github.com/zapeame/nostr-market/internal/usecase"
	"github.com/zapeame/nostr-market/pkg/e"
	"github.com/zapeame/nostr-market/pkg/logger"
)

// defaultSearchLimit — лимит запроса, если вызывающая сторона его не задала
const defaultSearchLimit = 100

// ListingRepo — репозиторий объявлений поверх пула реле.
// Вся достоверность данных — на стороне реле; локально ничего не хранится.
type ListingRepo struct {
	pool   *Pool
	logger logger.Logger
}

func NewListingRepo(pool *Pool, logger logger.Logger) *ListingRepo {
	return &ListingRepo{
		pool:   pool,
		logger: logger,
	}
}

// Connect подключает пул с политикой кворума
func (r *ListingRepo) Connect(ctx context.Context) error {
	return r.pool.Connect(ctx)
}

// PublishEvent рассылает подписанное событие на активные реле
func (r *ListingRepo) PublishEvent(ctx context.Context, ev nostr.Event) error {
	if err := r.pool.Publish(ctx, ev); err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	return nil
}

// SearchListings запрашивает у активных реле события объявлений,
// отфильтровывает чужие и искаженные и декодирует остальные.
// Невалидные события отбрасываются молча: реле легитимно несут посторонние данные.
func (r *ListingRepo) SearchListings(ctx context.Context, req *usecase.SearchListingsReq) ([]domain.Product, error) {
	filter := nostr.Filter{
		Kinds: []int{converter.KindListing},
		Tags:  nostr.TagMap{converter.TopicTag: []string{converter.Topic}},
		Limit: defaultSearchLimit,
	}

	if req != nil {
		if len(req.Authors) > 0 {
			filter.Authors = req.Authors
		}
		if req.Since != nil {
			since := nostr.Timestamp(*req.Since)
			filter.Since = &since
		}
		if req.Until != nil {
			until := nostr.Timestamp(*req.Until)
			filter.Until = &until
		}
		if req.Limit > 0 {
			filter.Limit = req.Limit
		}
	}

	evs, err := r.pool.Query(ctx, filter)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	products := make([]domain.Product, 0, len(evs))
	for _, ev := range evs {
		if !IsListing(ev) {
			continue
		}

		product := converter.Decode(ev)
		if product == nil {
			continue
		}

		products = append(products, *product)
	}

	return products, nil
}

// FollowedSellers возвращает продавцов из контакт-листов пользователя
func (r *ListingRepo) FollowedSellers(ctx context.Context, pubkey string) ([]string, error) {
	filter := nostr.Filter{
		Kinds:   []int{converter.KindContacts},
		Authors: []string{pubkey},
	}

	evs, err := r.pool.Query(ctx, filter)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return converter.DecodeContacts(evs), nil
}
