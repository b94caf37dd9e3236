package usecase

import (
	"context"

	"github.com/nbd-wtf/go-nostr"
	"github.com/zapeame/nostr-market/internal/domain"
)

type ListingRepository interface {
	Connect(ctx context.Context) error
	PublishEvent(ctx context.Context, ev nostr.Event) error
	SearchListings(ctx context.Context, req *SearchListingsReq) ([]domain.Product, error)
	FollowedSellers(ctx context.Context, pubkey string) ([]string, error)
}

type CacheRepository interface {
	GetBrowseListings(ctx context.Context) ([]domain.Product, error)
	SetBrowseListings(ctx context.Context, products []domain.Product) error
	DeleteBrowseListings(ctx context.Context) error
	GetFollows(ctx context.Context, pubkey string) ([]string, error)
	SetFollows(ctx context.Context, pubkey string, sellers []string) error
	DeleteFollows(ctx context.Context, pubkey string) error
}
