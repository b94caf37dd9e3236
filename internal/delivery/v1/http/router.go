package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/zapeame/nostr-market/internal/usecase"
	"github.com/zapeame/nostr-market/pkg/logger"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(marketUC usecase.MarketUC) {
	r.router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.router.Route("/api/v1", func(v1 chi.Router) {
		handler := NewListingHandler(marketUC, r.logger)
		registerListingRoutes(v1, handler)
	})
}

func registerListingRoutes(router chi.Router, handler *ListingHandler) {
	router.Route("/listings", func(ls chi.Router) {
		ls.Post("/", handler.publishListing)
		ls.Get("/", handler.searchListings)
	})

	router.Route("/sellers", func(sl chi.Router) {
		sl.Post("/{pubkey}/follow", handler.followSeller)
		sl.Get("/followed", handler.listFollowedSellers)
	})
}
