// Package converter кодирует объявление маркетплейса в теги и контент
// Nostr-события и восстанавливает его обратно. Схема тегов и формат контента —
// часть wire-протокола: менять их можно только синхронно с уже
// опубликованными событиями.
package converter

import (
	"net/url"
	"path"
	"regexp"
	"strconv"
	"strings"

	"github.com/nbd-wtf/go-nostr"
	"github.com/zapeame/nostr-market/internal/domain"
)

const (
	// KindListing — kind событий объявлений. Единственное согласованное
	// значение протокола, см. DESIGN.md.
	KindListing = 30017
	// KindContacts — kind контакт-листа (NIP-02)
	KindContacts = 3

	// AppTag и AppDiscriminator отличают наши объявления от чужих
	// NIP-совместимых событий того же kind на тех же реле.
	AppTag           = "c"
	AppDiscriminator = "marketplace"

	// TopicTag и Topic — обязательный маркет-топик объявления
	TopicTag = "t"
	Topic    = "nostrmarketplace"

	// contactPrefix — фиксированный префикс контактной строки в контенте.
	// По нему Decode вытаскивает contactInfo обратно, менять нельзя.
	contactPrefix = "📞 Contacto:"

	// notesHeader — заголовок секции дополнительных заметок в контенте
	notesHeader = "## Notas adicionales"
)

var (
	whitespaceRe    = regexp.MustCompile(`\s+`)
	contactLineRe   = regexp.MustCompile(`(?m)^` + contactPrefix + `[ \t]*(.*)$`)
	linkLineRe      = regexp.MustCompile(`(?m)^\[[^\]]*\]\([^)]*\)[ \t]*\n?`)
	inlineLinkRe    = regexp.MustCompile(`\[([^\]]*)\]\(([^)]*)\)`)
	imageExtensions = map[string]struct{}{
		".jpg":  {},
		".jpeg": {},
		".png":  {},
		".gif":  {},
		".webp": {},
	}
)

// Encode собирает черновик события объявления: kind, упорядоченные теги
// и сгенерированный контент. PubKey и подпись проставляются дальше по
// конвейеру публикации.
func Encode(p *domain.Product) nostr.Event {
	tags := nostr.Tags{
		nostr.Tag{"d", Slugify(p.Title)},
		nostr.Tag{"title", p.Title},
	}

	if p.Summary != "" {
		tags = append(tags, nostr.Tag{"summary", p.Summary})
	}

	tags = append(tags, nostr.Tag{"published_at", strconv.FormatInt(p.CreatedAt, 10)})

	if p.Location != "" {
		tags = append(tags, nostr.Tag{"location", p.Location})
	}

	tags = append(tags,
		nostr.Tag{"price", p.Price, string(p.Currency)},
		nostr.Tag{AppTag, AppDiscriminator},
		nostr.Tag{TopicTag, Topic},
	)

	for _, m := range dedupPayments(p.PaymentMethods) {
		tags = append(tags, nostr.Tag{"payment", string(m)})
	}

	for _, m := range dedupDeliveries(p.DeliveryMethods) {
		tags = append(tags, nostr.Tag{"delivery", string(m)})
	}

	for _, c := range dedupStrings(p.Categories) {
		if c == Topic {
			continue // топик уже стоит отдельным тегом
		}
		tags = append(tags, nostr.Tag{TopicTag, c})
	}

	// На публикации невалидные URL отбрасываются, действует кап;
	// на декодировании оба ограничения не применяются
	images := 0
	for _, img := range p.Images {
		cleaned := CleanImageURL(img)
		if cleaned == "" {
			continue
		}
		if images == domain.MaxListingImages {
			break
		}
		tags = append(tags, nostr.Tag{"image", cleaned})
		images++
	}

	if p.Website != "" {
		tags = append(tags, nostr.Tag{"website", EnsureScheme(p.Website)})
	}

	return nostr.Event{
		Kind:      KindListing,
		CreatedAt: nostr.Timestamp(p.CreatedAt),
		Tags:      tags,
		Content:   buildContent(p),
	}
}

// Decode восстанавливает объявление из сырого события реле.
// Возвращает nil, если событие не несет дискриминатор приложения
// или маркет-топик: такие события — не наши объявления.
func Decode(ev *nostr.Event) *domain.Product {
	if ev == nil || !HasMarker(ev, AppTag, AppDiscriminator) || !HasMarker(ev, TopicTag, Topic) {
		return nil
	}

	p := &domain.Product{
		ID:        ev.ID,
		AuthorKey: ev.PubKey,
		Title:     firstTagValue(ev, "title"),
		Summary:   firstTagValue(ev, "summary"),
		Location:  firstTagValue(ev, "location"),
		Website:   firstTagValue(ev, "website"),
		CreatedAt: int64(ev.CreatedAt),
		RawTags:   rawTags(ev.Tags),
	}

	if ts, err := strconv.ParseInt(firstTagValue(ev, "published_at"), 10, 64); err == nil && ts > 0 {
		p.CreatedAt = ts
	}

	// price — позиционный тег: значение и валюта
	if tag := ev.Tags.GetFirst([]string{"price"}); tag != nil {
		p.Price = tag.Value()
		if len(*tag) >= 3 {
			p.Currency = domain.Currency((*tag)[2])
		}
	}

	for _, v := range dedupStrings(tagValues(ev, "payment")) {
		p.PaymentMethods = append(p.PaymentMethods, domain.PaymentMethod(v))
	}

	for _, v := range dedupStrings(tagValues(ev, "delivery")) {
		p.DeliveryMethods = append(p.DeliveryMethods, domain.DeliveryMethod(v))
	}

	for _, v := range dedupStrings(tagValues(ev, TopicTag)) {
		if v != Topic {
			p.Categories = append(p.Categories, v)
		}
	}

	// Кап на количество изображений действует только при публикации:
	// уже опубликованные события могут нести больше.
	for _, v := range tagValues(ev, "image") {
		p.Images = append(p.Images, normalizeImageURL(v))
	}

	p.Description, p.Notes, p.ContactInfo = parseContent(ev.Content)

	return p
}

// HasMarker проверяет наличие тега key со значением value
func HasMarker(ev *nostr.Event, key, value string) bool {
	for _, tag := range ev.Tags {
		if len(tag) >= 2 && tag[0] == key && tag[1] == value {
			return true
		}
	}

	return false
}

// Slugify превращает заголовок в детерминированный `d`-идентификатор:
// нижний регистр, последовательности пробельных символов — в один дефис.
func Slugify(title string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(title)), "-")
}

// EnsureScheme дополняет URL схемой https://, если схема не указана
func EnsureScheme(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}

	return "https://" + raw
}

// CleanImageURL нормализует URL изображения: отбрасывает query и fragment,
// требует абсолютный http(s)-адрес и известное растровое расширение.
// Возвращает пустую строку, если URL не прошел проверку.
func CleanImageURL(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() || u.Host == "" {
		return ""
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}

	u.RawQuery = ""
	u.Fragment = ""

	if _, ok := imageExtensions[strings.ToLower(path.Ext(u.Path))]; !ok {
		return ""
	}

	return u.String()
}

// normalizeImageURL возвращает очищенный URL, а при неудаче — исходную
// строку: правдоподобный, но не распарсившийся адрес молча не теряем.
func normalizeImageURL(raw string) string {
	if cleaned := CleanImageURL(raw); cleaned != "" {
		return cleaned
	}

	return strings.TrimSpace(raw)
}

// buildContent генерирует контент объявления: H1 заголовка, описание,
// опциональная секция заметок, опциональная markdown-ссылка на сайт
// и контактная строка с фиксированным префиксом.
func buildContent(p *domain.Product) string {
	var b strings.Builder

	b.WriteString("# ")
	b.WriteString(p.Title)
	b.WriteString("\n\n")
	b.WriteString(p.Description)

	if p.Notes != "" {
		b.WriteString("\n\n")
		b.WriteString(notesHeader)
		b.WriteString("\n\n")
		b.WriteString(p.Notes)
	}

	if p.Website != "" {
		w := EnsureScheme(p.Website)
		b.WriteString("\n\n[")
		b.WriteString(w)
		b.WriteString("](")
		b.WriteString(w)
		b.WriteString(")")
	}

	b.WriteString("\n\n")
	b.WriteString(contactPrefix)
	b.WriteString(" ")
	b.WriteString(p.ContactInfo)

	return b.String()
}

// parseContent разбирает сгенерированный контент обратно на описание,
// заметки и контакт. Контакт ищется по фиксированному префиксу,
// декоративный markdown-синтаксис ссылок убирается из описания.
func parseContent(content string) (description, notes, contact string) {
	if m := contactLineRe.FindStringSubmatch(content); m != nil {
		contact = strings.TrimSpace(m[1])
	}

	rest := contactLineRe.ReplaceAllString(content, "")

	// H1 заголовка в описание не входит
	if strings.HasPrefix(rest, "# ") {
		if idx := strings.Index(rest, "\n"); idx >= 0 {
			rest = rest[idx+1:]
		} else {
			rest = ""
		}
	}

	// Секция заметок отделяется фиксированным заголовком
	if idx := strings.Index(rest, "\n"+notesHeader); idx >= 0 {
		notes = rest[idx+1+len(notesHeader):]
		rest = rest[:idx]
	} else if strings.HasPrefix(rest, notesHeader) {
		notes = rest[len(notesHeader):]
		rest = ""
	}

	// Строки, состоящие из одной markdown-ссылки (сайт), убираем целиком;
	// ссылки внутри текста заменяем на их текст.
	rest = linkLineRe.ReplaceAllString(rest, "")
	rest = inlineLinkRe.ReplaceAllString(rest, "$1")
	notes = linkLineRe.ReplaceAllString(notes, "")
	notes = inlineLinkRe.ReplaceAllString(notes, "$1")

	return strings.TrimSpace(rest), strings.TrimSpace(notes), contact
}

// firstTagValue возвращает значение первого тега с данным ключом.
// Повторные теги скалярных полей сознательно игнорируются (first-wins).
func firstTagValue(ev *nostr.Event, key string) string {
	if tag := ev.Tags.GetFirst([]string{key}); tag != nil {
		return tag.Value()
	}

	return ""
}

// tagValues собирает значения всех тегов с данным ключом, сохраняя порядок
func tagValues(ev *nostr.Event, key string) []string {
	var values []string
	for _, tag := range ev.Tags {
		if len(tag) >= 2 && tag[0] == key {
			values = append(values, tag[1])
		}
	}

	return values
}

func dedupStrings(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	result := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		result = append(result, v)
	}

	return result
}

func dedupPayments(methods []domain.PaymentMethod) []domain.PaymentMethod {
	seen := make(map[domain.PaymentMethod]struct{}, len(methods))
	result := make([]domain.PaymentMethod, 0, len(methods))
	for _, m := range methods {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		result = append(result, m)
	}

	return result
}

func dedupDeliveries(methods []domain.DeliveryMethod) []domain.DeliveryMethod {
	seen := make(map[domain.DeliveryMethod]struct{}, len(methods))
	result := make([]domain.DeliveryMethod, 0, len(methods))
	for _, m := range methods {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		result = append(result, m)
	}

	return result
}

func rawTags(tags nostr.Tags) [][]string {
	result := make([][]string, 0, len(tags))
	for _, tag := range tags {
		result = append(result, []string(tag))
	}

	return result
}
