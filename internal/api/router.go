package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mshami/kwikship-backend/internal/api/handlers"
	"github.com/mshami/kwikship-backend/internal/auth"
	"github.com/mshami/kwikship-backend/internal/config"
	"github.com/mshami/kwikship-backend/internal/middleware"
	"github.com/mshami/kwikship-backend/internal/models"
	"github.com/mshami/kwikship-backend/internal/services"
)

type RouterDeps struct {
	Cfg       config.Config
	TM        *auth.TokenManager
	UserSvc   *services.UserService
	LedgerSvc *services.LedgerService
	ShipSvc   *services.ShipmentService
	ReportSvc *services.ReportService
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(d.Cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	authMW := middleware.NewAuthMiddleware(d.TM)
	ah := handlers.NewAuthHandler(d.UserSvc)
	wh := handlers.NewWalletHandler(d.LedgerSvc)
	sh := handlers.NewShipmentHandler(d.ShipSvc)
	adm := handlers.NewAdminHandler(d.ShipSvc, d.LedgerSvc, d.UserSvc, d.ReportSvc)

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.Post("/auth/register", ah.Register)
		r.Post("/auth/login", ah.Login)
		r.Post("/auth/refresh", ah.Refresh)

		// ---------- public tracking ----------
		r.Get("/shipments/track/{trackingNumber}", sh.Track)

		// ---------- authenticated ----------
		r.Group(func(r chi.Router) {
			r.Use(authMW.Auth)

			// wallet
			r.Get("/wallet/balance", wh.Balance)
			r.Post("/wallet/deposit", wh.Deposit)
			r.Post("/wallet/withdraw", wh.Withdraw)
			r.Get("/wallet/transactions", wh.Transactions)
			r.Get("/wallet/transactions/{id}", wh.TransactionByID)

			// shipments
			r.Post("/shipments", sh.Create)
			r.Get("/shipments", sh.List)
			r.Get("/shipments/{id}", sh.Get)
			r.Put("/shipments/{id}/cancel", sh.Cancel)

			// admin
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleSuperAdmin))

				r.Get("/admin/stats", adm.Stats)
				r.Get("/admin/users", adm.ListUsers)
				r.Get("/admin/shipments", adm.AllShipments)
				r.Put("/admin/shipments/{id}/status", adm.UpdateShipmentStatus)
				r.Get("/admin/transactions", adm.Transactions)
				r.Get("/admin/activity-logs", adm.ActivityLogs)
			})
		})
	})

	return r
}
