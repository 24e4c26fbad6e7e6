package api

import (
	"fxhub/internal/metrics"
	ratehandler "fxhub/internal/rate/handler"
	tradehandler "fxhub/internal/trade/handler"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(rateHandler *ratehandler.Handler, tradeHandler *tradehandler.Handler) *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.Heartbeat("/healthz"))

	router.Handle("/metrics", metrics.Handler())

	router.Route("/api/v1/rates", func(r chi.Router) {
		r.Get("/supported-currencies", rateHandler.GetSupportedCodes)
		r.Get("/currencies/{code}", rateHandler.GetCurrency)
		r.Get("/history", rateHandler.GetHistory)
		r.Post("/updates", rateHandler.TriggerUpdate)
		r.Get("/{from}/{to}", rateHandler.GetRate)
	})

	router.Route("/api/v1/wallets/{user}", func(r chi.Router) {
		r.Post("/buy", tradeHandler.Buy)
		r.Post("/sell", tradeHandler.Sell)
		r.Get("/portfolio", tradeHandler.Portfolio)
	})
	return router
}
