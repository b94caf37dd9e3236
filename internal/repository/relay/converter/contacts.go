package converter

import "github.com/nbd-wtf/go-nostr"

// EncodeContacts собирает kind-3 контакт-лист: по одному `p`-тегу
// на каждого продавца. Лист заменяемый, публикуется всегда целиком.
func EncodeContacts(sellers []string, createdAt int64) nostr.Event {
	deduped := dedupStrings(sellers)

	tags := make(nostr.Tags, 0, len(deduped))
	for _, pk := range deduped {
		tags = append(tags, nostr.Tag{"p", pk})
	}

	return nostr.Event{
		Kind:      KindContacts,
		CreatedAt: nostr.Timestamp(createdAt),
		Tags:      tags,
		Content:   "",
	}
}

// DecodeContacts собирает всех продавцов из `p`-тегов контакт-листов,
// сохраняя порядок и убирая дубликаты.
func DecodeContacts(evs []*nostr.Event) []string {
	var sellers []string
	for _, ev := range evs {
		if ev == nil {
			continue
		}
		for _, tag := range ev.Tags {
			if len(tag) >= 2 && tag[0] == "p" && tag[1] != "" {
				sellers = append(sellers, tag[1])
			}
		}
	}

	return dedupStrings(sellers)
}
