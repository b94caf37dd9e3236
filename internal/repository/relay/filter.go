package relay

import (
	"github.com/nbd-wtf/go-nostr"
	"github.com/zapeame/nostr-market/internal/repository/relay/converter"
)

// IsListing решает, является ли сырое событие реле кандидатом в объявления.
// Требуются непустой контент, маркет-топик и дискриминатор приложения;
// события с маркером deleted отбрасываются. Фильтр настроен на точность:
// пропустить чужое событие хуже, чем потерять искаженное свое.
func IsListing(ev *nostr.Event) bool {
	if ev == nil || ev.Content == "" {
		return false
	}

	for _, tag := range ev.Tags {
		if len(tag) >= 1 && tag[0] == "deleted" {
			return false
		}
	}

	return converter.HasMarker(ev, converter.TopicTag, converter.Topic) &&
		converter.HasMarker(ev, converter.AppTag, converter.AppDiscriminator)
}
