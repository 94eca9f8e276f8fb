package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/api/handlers"
	custommiddleware "github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/api/middleware"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/config"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/metrics"
	"github.com/ndewijer/Paper-Trading-Dashboard-Backend/internal/service"
)

// Services are the services the router dispatches to.
type Services struct {
	System    *service.SystemService
	Sessions  *service.SessionService
	Portfolio *service.PortfolioService
	Funds     *service.FundsService
	Orders    *service.OrderService
}

// NewRouter creates and configures the HTTP router
func NewRouter(svc Services, m *metrics.Metrics, log zerolog.Logger, cfg *config.Config) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.RequestLogger(log, m))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	r.Method(http.MethodGet, "/metrics", m.Handler())

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			systemHandler := handlers.NewSystemHandler(svc.System)
			r.Get("/health", systemHandler.Health)
			r.Get("/version", systemHandler.Version)
		})

		r.Route("/session", func(r chi.Router) {
			sessionHandler := handlers.NewSessionHandler(svc.Sessions, svc.Portfolio)
			portfolioHandler := handlers.NewPortfolioHandler(svc.Sessions, svc.Portfolio)
			fundsHandler := handlers.NewFundsHandler(svc.Sessions, svc.Funds)
			selectionHandler := handlers.NewSelectionHandler(svc.Sessions, svc.Orders)
			orderHandler := handlers.NewOrderHandler(svc.Sessions, svc.Orders)

			r.Post("/", sessionHandler.CreateSession)

			r.Route("/{uuid}", func(r chi.Router) {
				r.Use(custommiddleware.ValidateUUIDMiddleware)

				r.Get("/", sessionHandler.GetSession)
				r.Delete("/", sessionHandler.EndSession)

				r.Get("/holdings", portfolioHandler.Holdings)
				r.Get("/positions", portfolioHandler.Positions)
				r.Get("/orders", portfolioHandler.Orders)
				r.Get("/summary", portfolioHandler.Summary)

				r.Get("/funds", fundsHandler.Overview)
				r.Post("/funds/add", fundsHandler.AddFunds)
				r.Post("/funds/withdraw", fundsHandler.WithdrawFunds)

				r.Get("/selection", selectionHandler.Selection)
				r.Delete("/selection", selectionHandler.Close)
				r.Post("/selection/buy", selectionHandler.OpenBuy)
				r.Post("/selection/sell", selectionHandler.OpenSell)
				r.Put("/selection/draft", selectionHandler.UpdateDraft)
				r.Post("/selection/submit", selectionHandler.Submit)

				r.Post("/order", orderHandler.PlaceOrder)
			})
		})
	})

	return r
}
