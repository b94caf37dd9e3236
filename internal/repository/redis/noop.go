package redis

import (
	"context"

	"github.com/zapeame/nostr-market/internal/domain"
)

// NoopCache используется, когда Redis не сконфигурирован:
// все чтения — промахи, все записи — успешные пустышки.
type NoopCache struct{}

func NewNoopCache() *NoopCache {
	return &NoopCache{}
}

func (NoopCache) GetBrowseListings(_ context.Context) ([]domain.Product, error) {
	return nil, nil
}

func (NoopCache) SetBrowseListings(_ context.Context, _ []domain.Product) error {
	return nil
}

func (NoopCache) DeleteBrowseListings(_ context.Context) error {
	return nil
}

func (NoopCache) GetFollows(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

func (NoopCache) SetFollows(_ context.Context, _ string, _ []string) error {
	return nil
}

func (NoopCache) DeleteFollows(_ context.Context, _ string) error {
	return nil
}
