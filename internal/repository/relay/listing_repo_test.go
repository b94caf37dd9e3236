package relay

import (
	"context"
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapeame/nostr-market/internal/repository/relay/converter"
	"github.com/zapeame/nostr-market/internal/usecase"
)

func TestSearchListingsFiltersForeignEvents(t *testing.T) {
	dialer := newStubDialer()
	pool := newTestPool(dialer, []string{"wss://one"}, 1)
	repo := NewListingRepo(pool, noopLogger{})

	require.NoError(t, repo.Connect(context.Background()))

	ours := &nostr.Event{
		ID:   "ours",
		Kind: converter.KindListing,
		Tags: nostr.Tags{
			{"title", "Miel"},
			{converter.AppTag, converter.AppDiscriminator},
			{converter.TopicTag, converter.Topic},
		},
		Content: "# Miel\n\nMiel local\n\n📞 Contacto: alice@example.com",
	}
	foreign := &nostr.Event{
		ID:      "foreign",
		Kind:    converter.KindListing,
		Tags:    nostr.Tags{{"d", "some-nip15-stall"}},
		Content: `{"name": "stall"}`,
	}
	deleted := &nostr.Event{
		ID:   "deleted",
		Kind: converter.KindListing,
		Tags: nostr.Tags{
			{"deleted"},
			{converter.AppTag, converter.AppDiscriminator},
			{converter.TopicTag, converter.Topic},
		},
		Content: "# Viejo\n\ntexto",
	}

	dialer.conns["wss://one"].queryEvs = []*nostr.Event{ours, foreign, deleted}

	products, err := repo.SearchListings(context.Background(), &usecase.SearchListingsReq{Limit: 10})
	require.NoError(t, err)

	require.Len(t, products, 1)
	assert.Equal(t, "ours", products[0].ID)
	assert.Equal(t, "Miel", products[0].Title)
	assert.Equal(t, "alice@example.com", products[0].ContactInfo)
}

func TestFollowedSellersMergesContactLists(t *testing.T) {
	dialer := newStubDialer()
	pool := newTestPool(dialer, []string{"wss://one"}, 1)
	repo := NewListingRepo(pool, noopLogger{})

	require.NoError(t, repo.Connect(context.Background()))

	dialer.conns["wss://one"].queryEvs = []*nostr.Event{
		{ID: "c1", Kind: converter.KindContacts, Tags: nostr.Tags{{"p", "s1"}, {"p", "s2"}}},
		{ID: "c2", Kind: converter.KindContacts, Tags: nostr.Tags{{"p", "s2"}, {"p", "s3"}}},
	}

	sellers, err := repo.FollowedSellers(context.Background(), "self")
	require.NoError(t, err)
	assert.Equal(t, []string{"s1", "s2", "s3"}, sellers)
}
