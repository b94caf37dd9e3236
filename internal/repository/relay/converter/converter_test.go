package converter

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zapeame/nostr-market/internal/domain"
)

func sampleProduct() domain.Product {
	return domain.Product{
		Title:           "Miel organica",
		Summary:         "Miel de abeja pura",
		Description:     "Miel de produccion local, cosecha 2026.",
		Notes:           "Entrego los sabados por la manana.",
		Price:           "15000",
		Currency:        domain.CurrencySATS,
		Location:        "San Salvador",
		PaymentMethods:  []domain.PaymentMethod{domain.PaymentLightning},
		DeliveryMethods: []domain.DeliveryMethod{domain.DeliveryInPerson},
		Images:          []string{"https://img.example.com/miel.jpg"},
		Website:         "example.com/tienda",
		ContactInfo:     "alice@example.com",
		Categories:      []string{"comida", "organico"},
		CreatedAt:       1756700000,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	p := sampleProduct()

	ev := Encode(&p)
	ev.ID = "event-id"
	ev.PubKey = "seller-pubkey"

	got := Decode(&ev)
	require.NotNil(t, got)

	assert.Equal(t, "event-id", got.ID)
	assert.Equal(t, "seller-pubkey", got.AuthorKey)
	assert.Equal(t, p.Title, got.Title)
	assert.Equal(t, p.Summary, got.Summary)
	assert.Equal(t, p.Description, got.Description)
	assert.Equal(t, p.Notes, got.Notes)
	assert.Equal(t, p.Price, got.Price)
	assert.Equal(t, p.Currency, got.Currency)
	assert.Equal(t, p.Location, got.Location)
	assert.Equal(t, p.PaymentMethods, got.PaymentMethods)
	assert.Equal(t, p.DeliveryMethods, got.DeliveryMethods)
	assert.Equal(t, p.Images, got.Images)
	assert.Equal(t, "https://example.com/tienda", got.Website)
	assert.Equal(t, p.ContactInfo, got.ContactInfo)
	assert.Equal(t, p.Categories, got.Categories)
	assert.Equal(t, p.CreatedAt, got.CreatedAt)
}

func TestEncodeRequiredMarkers(t *testing.T) {
	p := sampleProduct()

	ev := Encode(&p)

	assert.Equal(t, KindListing, ev.Kind)
	assert.True(t, HasMarker(&ev, AppTag, AppDiscriminator))
	assert.True(t, HasMarker(&ev, TopicTag, Topic))

	dTag := ev.Tags.GetFirst([]string{"d"})
	require.NotNil(t, dTag)
	assert.Equal(t, "miel-organica", dTag.Value())
}

func TestEncodeOmitsEmptyOptionals(t *testing.T) {
	p := sampleProduct()
	p.Summary = ""
	p.Location = ""
	p.Website = ""
	p.Images = nil
	p.Notes = ""

	ev := Encode(&p)

	assert.Nil(t, ev.Tags.GetFirst([]string{"summary"}))
	assert.Nil(t, ev.Tags.GetFirst([]string{"location"}))
	assert.Nil(t, ev.Tags.GetFirst([]string{"website"}))
	assert.Nil(t, ev.Tags.GetFirst([]string{"image"}))
	assert.NotContains(t, ev.Content, notesHeader)
}

func TestEncodeDeduplicatesPaymentMethods(t *testing.T) {
	p := sampleProduct()
	p.PaymentMethods = []domain.PaymentMethod{domain.PaymentLightning, domain.PaymentLightning}

	ev := Encode(&p)

	count := 0
	for _, tag := range ev.Tags {
		if len(tag) >= 2 && tag[0] == "payment" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestEncodeDropsInvalidImagesAndCaps(t *testing.T) {
	p := sampleProduct()
	p.Images = []string{
		"not a url",
		"https://img.example.com/a.jpg",
		"https://img.example.com/b.pdf",
		"https://img.example.com/c.png",
		"https://img.example.com/d.gif",
		"https://img.example.com/e.webp",
	}

	ev := Encode(&p)

	var images []string
	for _, tag := range ev.Tags {
		if len(tag) >= 2 && tag[0] == "image" {
			images = append(images, tag[1])
		}
	}
	assert.Equal(t, []string{
		"https://img.example.com/a.jpg",
		"https://img.example.com/c.png",
		"https://img.example.com/d.gif",
	}, images)
}

func TestEncodeSkipsTopicCollidingCategory(t *testing.T) {
	p := sampleProduct()
	p.Categories = []string{Topic, "comida"}

	ev := Encode(&p)

	topicTags := 0
	for _, tag := range ev.Tags {
		if len(tag) >= 2 && tag[0] == TopicTag && tag[1] == Topic {
			topicTags++
		}
	}
	assert.Equal(t, 1, topicTags)

	got := Decode(&ev)
	require.NotNil(t, got)
	assert.Equal(t, []string{"comida"}, got.Categories)
}

func TestDecodeRejectsForeignEvents(t *testing.T) {
	tests := []struct {
		name string
		tags nostr.Tags
	}{
		{
			name: "no markers at all",
			tags: nostr.Tags{{"d", "something"}},
		},
		{
			name: "topic without discriminator",
			tags: nostr.Tags{{TopicTag, Topic}},
		},
		{
			name: "discriminator without topic",
			tags: nostr.Tags{{AppTag, AppDiscriminator}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := &nostr.Event{
				Kind:    KindListing,
				Tags:    tt.tags,
				Content: "# Foo\n\nbar",
			}

			assert.Nil(t, Decode(ev))
		})
	}

	assert.Nil(t, Decode(nil))
}

func TestDecodeFirstTitleWins(t *testing.T) {
	ev := &nostr.Event{
		Kind: KindListing,
		Tags: nostr.Tags{
			{"title", "First"},
			{"title", "Second"},
			{AppTag, AppDiscriminator},
			{TopicTag, Topic},
		},
		Content: "# First\n\ndesc\n\n📞 Contacto: x",
	}

	got := Decode(ev)
	require.NotNil(t, got)
	assert.Equal(t, "First", got.Title)
}

func TestDecodePublishedAtFallsBackToCreatedAt(t *testing.T) {
	ev := &nostr.Event{
		Kind:      KindListing,
		CreatedAt: nostr.Timestamp(1756700123),
		Tags: nostr.Tags{
			{AppTag, AppDiscriminator},
			{TopicTag, Topic},
		},
		Content: "desc",
	}

	got := Decode(ev)
	require.NotNil(t, got)
	assert.Equal(t, int64(1756700123), got.CreatedAt)
}

func TestParseContentExtractsContact(t *testing.T) {
	content := "# Queso artesanal\n\nQueso de cabra madurado.\n\n📞 Contacto: alice@example.com"

	desc, notes, contact := parseContent(content)

	assert.Equal(t, "Queso de cabra madurado.", desc)
	assert.Empty(t, notes)
	assert.Equal(t, "alice@example.com", contact)
}

func TestParseContentSplitsNotesSection(t *testing.T) {
	content := "# T\n\ndescripcion\n\n## Notas adicionales\n\nnotas extra\n\n[https://example.com](https://example.com)\n\n📞 Contacto: tel 555"

	desc, notes, contact := parseContent(content)

	assert.Equal(t, "descripcion", desc)
	assert.Equal(t, "notas extra", notes)
	assert.Equal(t, "tel 555", contact)
}

func TestParseContentStripsInlineLinks(t *testing.T) {
	content := "# T\n\nver [catalogo](https://example.com/cat) completo\n\n📞 Contacto: x"

	desc, _, _ := parseContent(content)

	assert.Equal(t, "ver catalogo completo", desc)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Miel organica", "miel-organica"},
		{"  Varios   espacios\tseguidos ", "varios-espacios-seguidos"},
		{"YA-MINUSCULO", "ya-minusculo"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Slugify(tt.in))
	}
}

func TestCleanImageURL(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain jpg", "https://img.example.com/a.jpg", "https://img.example.com/a.jpg"},
		{"strips query and fragment", "https://img.example.com/a.png?x=1#y", "https://img.example.com/a.png"},
		{"uppercase extension", "https://img.example.com/A.JPG", "https://img.example.com/A.JPG"},
		{"not an image", "https://img.example.com/a.pdf", ""},
		{"relative url", "/a.jpg", ""},
		{"not a url", "not a url", ""},
		{"wrong scheme", "ftp://img.example.com/a.jpg", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanImageURL(tt.in))
		})
	}
}

func TestEnsureScheme(t *testing.T) {
	assert.Equal(t, "https://example.com", EnsureScheme("example.com"))
	assert.Equal(t, "http://example.com", EnsureScheme("http://example.com"))
	assert.Equal(t, "https://example.com", EnsureScheme("https://example.com"))
}

func TestEncodeContactsDeduplicates(t *testing.T) {
	ev := EncodeContacts([]string{"aa", "bb", "aa"}, 1756700000)

	assert.Equal(t, KindContacts, ev.Kind)
	require.Len(t, ev.Tags, 2)
	assert.Equal(t, nostr.Tag{"p", "aa"}, ev.Tags[0])
	assert.Equal(t, nostr.Tag{"p", "bb"}, ev.Tags[1])
}

func TestDecodeContactsMergesLists(t *testing.T) {
	evs := []*nostr.Event{
		{Kind: KindContacts, Tags: nostr.Tags{{"p", "aa"}, {"p", "bb"}}},
		nil,
		{Kind: KindContacts, Tags: nostr.Tags{{"p", "bb"}, {"p", "cc"}, {"p", ""}}},
	}

	assert.Equal(t, []string{"aa", "bb", "cc"}, DecodeContacts(evs))
}
