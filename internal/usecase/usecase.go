package usecase

import (
	"context"

	"github.com/zapeame/nostr-market/internal/domain"
)

type MarketUC interface {
	PublishListing(ctx context.Context, req *PublishListingReq) (*PublishListingRes, error)
	SearchListings(ctx context.Context, req *SearchListingsReq) ([]domain.Product, error)
	FollowSeller(ctx context.Context, pubkey string) error
	GetFollowedSellers(ctx context.Context) ([]string, error)
}
