package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/ndewijer/portfolio-ledger/internal/api/handlers"
	custommiddleware "github.com/ndewijer/portfolio-ledger/internal/api/middleware"
	"github.com/ndewijer/portfolio-ledger/internal/config"
	"github.com/ndewijer/portfolio-ledger/internal/service"
)

// NewRouter creates and configures the HTTP router
func NewRouter(systemService *service.SystemService, ledgerService *service.LedgerService, cfg *config.Config, logger zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(custommiddleware.Logger(logger))
	r.Use(middleware.Recoverer)

	// CORS middleware
	corsMiddleware := custommiddleware.NewCORS(cfg.CORS.AllowedOrigins)
	r.Use(corsMiddleware.Handler)

	systemHandler := handlers.NewSystemHandler(systemService)
	settingsHandler := handlers.NewSettingsHandler(ledgerService)
	feeProfileHandler := handlers.NewFeeProfileHandler(ledgerService)
	transactionHandler := handlers.NewTransactionHandler(ledgerService)
	corporateActionHandler := handlers.NewCorporateActionHandler(ledgerService)
	recomputeHandler := handlers.NewRecomputeHandler(ledgerService)

	// API routes
	r.Route("/api", func(r chi.Router) {
		// System namespace
		r.Route("/system", func(r chi.Router) {
			r.Get("/health", systemHandler.Health)
		})

		// Everything below acts on behalf of a user
		r.Group(func(r chi.Router) {
			r.Use(custommiddleware.UserID(cfg.Auth.DefaultUserID))

			r.Route("/settings", func(r chi.Router) {
				r.Get("/", settingsHandler.GetSettings)
				r.Patch("/", settingsHandler.UpdateSettings)
				r.Put("/full", settingsHandler.ReplaceSettingsFull)
				r.Get("/fee-config", settingsHandler.GetFeeConfig)
				r.Put("/fee-config", settingsHandler.ReplaceFeeConfig)
			})

			r.Route("/accounts", func(r chi.Router) {
				r.Get("/", feeProfileHandler.ListAccounts)
				r.With(custommiddleware.ValidateIDParam("id")).Patch("/{id}", feeProfileHandler.UpdateAccount)
			})

			r.Route("/fee-profiles", func(r chi.Router) {
				r.Get("/", feeProfileHandler.ListFeeProfiles)
				r.Post("/", feeProfileHandler.CreateFeeProfile)
				r.Route("/{id}", func(r chi.Router) {
					r.Use(custommiddleware.ValidateIDParam("id"))
					r.Patch("/", feeProfileHandler.UpdateFeeProfile)
					r.Delete("/", feeProfileHandler.DeleteFeeProfile)
				})
			})

			r.Route("/fee-profile-bindings", func(r chi.Router) {
				r.Get("/", feeProfileHandler.ListBindings)
				r.Put("/", feeProfileHandler.ReplaceBindings)
			})

			r.Route("/portfolio", func(r chi.Router) {
				r.Get("/transactions", transactionHandler.ListTransactions)
				r.Post("/transactions", transactionHandler.CreateTransaction)
				r.Post("/transactions/batch", transactionHandler.CreateTransactionsBatch)
				r.Post("/transactions/parse", transactionHandler.ParseTransactions)
				r.Get("/holdings", transactionHandler.Holdings)

				r.Route("/recompute", func(r chi.Router) {
					r.Post("/preview", recomputeHandler.Preview)
					r.Post("/confirm", recomputeHandler.Confirm)
					r.Get("/jobs", recomputeHandler.ListJobs)
				})
			})

			r.Route("/corporate-actions", func(r chi.Router) {
				r.Get("/", corporateActionHandler.ListCorporateActions)
				r.Post("/", corporateActionHandler.ApplyCorporateAction)
			})
		})
	})

	return r
}
