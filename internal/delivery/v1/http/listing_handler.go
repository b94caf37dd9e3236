package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/zapeame/nostr-market/internal/domain"
	"github.com/zapeame/nostr-market/internal/usecase"
	"github.com/zapeame/nostr-market/pkg/e"
	"github.com/zapeame/nostr-market/pkg/logger"
)

type ListingHandler struct {
	marketUsecase usecase.MarketUC
	logger        logger.Logger
}

func NewListingHandler(marketUsecase usecase.MarketUC, logger logger.Logger) *ListingHandler {
	return &ListingHandler{marketUsecase: marketUsecase, logger: logger}
}

// publishListingBody — JSON-тело запроса на публикацию объявления
type publishListingBody struct {
	Title           string   `json:"title"`
	Summary         string   `json:"summary"`
	Description     string   `json:"description"`
	Notes           string   `json:"notes"`
	Price           string   `json:"price"`
	Currency        string   `json:"currency"`
	Location        string   `json:"location"`
	PaymentMethods  []string `json:"payment_methods"`
	DeliveryMethods []string `json:"delivery_methods"`
	Images          []string `json:"images"`
	Website         string   `json:"website"`
	Contact         string   `json:"contact"`
	Categories      []string `json:"categories"`
}

// publishListing принимает объявление, подписывает его через внешнего
// подписанта и рассылает на активные реле
func (h *ListingHandler) publishListing(w http.ResponseWriter, r *http.Request) {
	const maxBodySize = 1 << 20

	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)

	var body publishListingBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, e.ErrStatusBadRequest)
		return
	}

	req, err := parseListingBody(&body)
	if err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	res, err := h.marketUsecase.PublishListing(r.Context(), req)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusCreated, map[string]interface{}{
		"event_id": res.EventID,
		"listing":  NewListingResponse(res.Product),
	})
}

// searchListings возвращает объявления с реле.
// Параметры: authors (pubkey через запятую), since, until (unix-секунды), limit.
func (h *ListingHandler) searchListings(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchQuery(r)
	if err != nil {
		h.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	products, err := h.marketUsecase.SearchListings(r.Context(), req)
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	listings := make([]ListingResponse, 0, len(products))
	for _, p := range products {
		listings = append(listings, NewListingResponse(p))
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"listings": listings,
		"count":    len(listings),
	})
}

// followSeller добавляет продавца в контакт-лист пользователя
func (h *ListingHandler) followSeller(w http.ResponseWriter, r *http.Request) {
	pubkey := chi.URLParam(r, "pubkey")

	if err := h.marketUsecase.FollowSeller(r.Context(), pubkey); err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"followed": pubkey,
	})
}

// listFollowedSellers возвращает контакт-лист пользователя
func (h *ListingHandler) listFollowedSellers(w http.ResponseWriter, r *http.Request) {
	sellers, err := h.marketUsecase.GetFollowedSellers(r.Context())
	if err != nil {
		h.logger.Warnf("%s", err.Error())
		WriteError(w, err)
		return
	}

	WriteSuccess(w, http.StatusOK, map[string]interface{}{
		"sellers": sellers,
		"count":   len(sellers),
	})
}

// parseListingBody валидирует тело запроса и собирает usecase-запрос.
// Цена нормализуется здесь, чтобы дальше по конвейеру шла каноничная строка.
func parseListingBody(body *publishListingBody) (*usecase.PublishListingReq, error) {
	if strings.TrimSpace(body.Title) == "" ||
		strings.TrimSpace(body.Description) == "" ||
		strings.TrimSpace(body.Contact) == "" {
		return nil, e.ErrMissingFields
	}

	currency := domain.Currency(strings.ToUpper(strings.TrimSpace(body.Currency)))
	if !currency.Valid() {
		return nil, e.ErrInvalidCurrency
	}

	price, err := validatePrice(body.Price, currency)
	if err != nil {
		return nil, err
	}

	payments := make([]domain.PaymentMethod, 0, len(body.PaymentMethods))
	for _, m := range body.PaymentMethods {
		payments = append(payments, domain.PaymentMethod(m))
	}

	deliveries := make([]domain.DeliveryMethod, 0, len(body.DeliveryMethods))
	for _, m := range body.DeliveryMethods {
		deliveries = append(deliveries, domain.DeliveryMethod(m))
	}

	return &usecase.PublishListingReq{
		Title:           body.Title,
		Summary:         body.Summary,
		Description:     body.Description,
		Notes:           body.Notes,
		Price:           price,
		Currency:        currency,
		Location:        body.Location,
		PaymentMethods:  payments,
		DeliveryMethods: deliveries,
		Images:          body.Images,
		Website:         body.Website,
		ContactInfo:     body.Contact,
		Categories:      body.Categories,
	}, nil
}

// parseSearchQuery читает параметры поиска из query string
func parseSearchQuery(r *http.Request) (*usecase.SearchListingsReq, error) {
	q := r.URL.Query()

	var authors []string
	if raw := q.Get("authors"); raw != "" {
		for _, a := range strings.Split(raw, ",") {
			a = strings.TrimSpace(a)
			if a != "" {
				authors = append(authors, a)
			}
		}
	}

	since, err := parseUnixParam(q.Get("since"))
	if err != nil {
		return nil, e.ErrStatusBadRequest
	}

	until, err := parseUnixParam(q.Get("until"))
	if err != nil {
		return nil, e.ErrStatusBadRequest
	}

	limit := 0
	if raw := q.Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return nil, e.ErrStatusBadRequest
		}
	}

	return usecase.NewSearchListingsReq(authors, since, until, limit), nil
}

func parseUnixParam(raw string) (*int64, error) {
	if raw == "" {
		return nil, nil
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return nil, err
	}

	return &v, nil
}
