package usecase

import (
	"context"

	"github.com/nbd-wtf/go-nostr"
)

// Signer — внешняя подписывающая способность. Ядро никогда не хранит
// и не выводит приватные ключи; подпись может быть отклонена пользователем.
type Signer interface {
	GetPublicKey(ctx context.Context) (string, error)
	SignEvent(ctx context.Context, ev *nostr.Event) error
}

// FeedProducer публикует сообщение фида о состоявшейся публикации объявления
type FeedProducer interface {
	PublishListingEvent(ctx context.Context, req *ListingFeedReq) error
}
