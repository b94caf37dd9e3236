package http

import "github.com/zapeame/nostr-market/internal/domain"

// ListingResponse — представление объявления в JSON API
type ListingResponse struct {
	ID              string   `json:"id"`
	AuthorKey       string   `json:"author_key"`
	Title           string   `json:"title"`
	Summary         string   `json:"summary,omitempty"`
	Description     string   `json:"description"`
	Notes           string   `json:"notes,omitempty"`
	Price           string   `json:"price"`
	Currency        string   `json:"currency"`
	Location        string   `json:"location,omitempty"`
	PaymentMethods  []string `json:"payment_methods,omitempty"`
	DeliveryMethods []string `json:"delivery_methods,omitempty"`
	Images          []string `json:"images,omitempty"`
	Website         string   `json:"website,omitempty"`
	Contact         string   `json:"contact"`
	Categories      []string `json:"categories,omitempty"`
	CreatedAt       int64    `json:"created_at"`
}

func NewListingResponse(p domain.Product) ListingResponse {
	payments := make([]string, 0, len(p.PaymentMethods))
	for _, m := range p.PaymentMethods {
		payments = append(payments, string(m))
	}

	deliveries := make([]string, 0, len(p.DeliveryMethods))
	for _, m := range p.DeliveryMethods {
		deliveries = append(deliveries, string(m))
	}

	return ListingResponse{
		ID:              p.ID,
		AuthorKey:       p.AuthorKey,
		Title:           p.Title,
		Summary:         p.Summary,
		Description:     p.Description,
		Notes:           p.Notes,
		Price:           p.Price,
		Currency:        string(p.Currency),
		Location:        p.Location,
		PaymentMethods:  payments,
		DeliveryMethods: deliveries,
		Images:          p.Images,
		Website:         p.Website,
		Contact:         p.ContactInfo,
		Categories:      p.Categories,
		CreatedAt:       p.CreatedAt,
	}
}
