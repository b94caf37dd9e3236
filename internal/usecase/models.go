package usecase

import "github.com/zapeame/nostr-market/internal/domain"

// MARKET USECASE

// PublishListingReq — запрос на публикацию объявления.
type PublishListingReq struct {
	Title           string
	Summary         string
	Description     string
	Notes           string
	Price           string
	Currency        domain.Currency
	Location        string
	PaymentMethods  []domain.PaymentMethod
	DeliveryMethods []domain.DeliveryMethod
	Images          []string
	Website         string
	ContactInfo     string
	Categories      []string
}

// PublishListingRes — результат публикации: идентификатор подписанного
// события плюс структурированные поля, чтобы UI мог отрисовать объявление
// оптимистично, без обратного запроса к реле.
type PublishListingRes struct {
	EventID string
	Product domain.Product
}

// SearchListingsReq — ограничения поиска, задаваемые вызывающей стороной.
// Обязательные фильтры (kind, маркет-топик) добавляет репозиторий.
type SearchListingsReq struct {
	Authors []string
	Since   *int64 // unix-секунды, включительно
	Until   *int64
	Limit   int
}

// INFRASTRUCTURE

// ListingFeedReq — сообщение фида об опубликованном объявлении.
type ListingFeedReq struct {
	EventID   string
	AuthorKey string
	Title     string
	Price     string
	Currency  string
	CreatedAt int64
}

// MAPPERS

func NewPublishListingRes(eventID string, product domain.Product) *PublishListingRes {
	return &PublishListingRes{
		EventID: eventID,
		Product: product,
	}
}

func NewSearchListingsReq(authors []string, since, until *int64, limit int) *SearchListingsReq {
	return &SearchListingsReq{
		Authors: authors,
		Since:   since,
		Until:   until,
		Limit:   limit,
	}
}

func NewListingFeedReq(product *domain.Product) *ListingFeedReq {
	return &ListingFeedReq{
		EventID:   product.ID,
		AuthorKey: product.AuthorKey,
		Title:     product.Title,
		Price:     product.Price,
		Currency:  string(product.Currency),
		CreatedAt: product.CreatedAt,
	}
}
