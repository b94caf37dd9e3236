// Package converter переводит доменные объявления в модели кэша и обратно
package converter

import "github.com/zapeame/nostr-market/internal/domain"

func ToRedisModel(p domain.Product) ProductRedisModel {
	payments := make([]string, 0, len(p.PaymentMethods))
	for _, m := range p.PaymentMethods {
		payments = append(payments, string(m))
	}

	deliveries := make([]string, 0, len(p.DeliveryMethods))
	for _, m := range p.DeliveryMethods {
		deliveries = append(deliveries, string(m))
	}

	return ProductRedisModel{
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
		ContactInfo:     p.ContactInfo,
		Categories:      p.Categories,
		CreatedAt:       p.CreatedAt,
		RawTags:         p.RawTags,
	}
}

func ToDomain(m ProductRedisModel) domain.Product {
	payments := make([]domain.PaymentMethod, 0, len(m.PaymentMethods))
	for _, v := range m.PaymentMethods {
		payments = append(payments, domain.PaymentMethod(v))
	}

	deliveries := make([]domain.DeliveryMethod, 0, len(m.DeliveryMethods))
	for _, v := range m.DeliveryMethods {
		deliveries = append(deliveries, domain.DeliveryMethod(v))
	}

	return domain.Product{
		ID:              m.ID,
		AuthorKey:       m.AuthorKey,
		Title:           m.Title,
		Summary:         m.Summary,
		Description:     m.Description,
		Notes:           m.Notes,
		Price:           m.Price,
		Currency:        domain.Currency(m.Currency),
		Location:        m.Location,
		PaymentMethods:  payments,
		DeliveryMethods: deliveries,
		Images:          m.Images,
		Website:         m.Website,
		ContactInfo:     m.ContactInfo,
		Categories:      m.Categories,
		CreatedAt:       m.CreatedAt,
		RawTags:         m.RawTags,
	}
}

func ToArrRedisModel(products []domain.Product) []ProductRedisModel {
	models := make([]ProductRedisModel, 0, len(products))
	for _, p := range products {
		models = append(models, ToRedisModel(p))
	}

	return models
}

func ToArrDomain(models []ProductRedisModel) []domain.Product {
	products := make([]domain.Product, 0, len(models))
	for _, m := range models {
		products = append(products, ToDomain(m))
	}

	return products
}
