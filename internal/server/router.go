package server

import (
	"net/http"
	"time"

	"github.com/EmielEDW/chiro-sub000/internal/config"
	"github.com/EmielEDW/chiro-sub000/internal/domain"
	"github.com/EmielEDW/chiro-sub000/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"log/slog"
)

// NewRouter wires HTTP routes and middleware.
func NewRouter(cfg config.Config,
	logger *slog.Logger,
	health handler.HealthHandler,
	auth handler.AuthHandler,
	accounts handler.AccountHandler,
	items handler.ItemHandler,
	itemsAdmin handler.ItemAdminHandler,
	orders handler.OrderHandler,
	topups handler.TopUpHandler,
	adjustments handler.AdjustmentHandler,
	reversals handler.ReversalHandler,
	stocks handler.StockHandler,
	export handler.ExportHandler,
	notifications handler.NotificationHandler,
	dashboard handler.DashboardHandler,
	webhooks handler.WebhookHandler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(200, 1*time.Minute))

	health.RegisterRoutes(r)
	auth.RegisterRoutes(r)
	webhooks.RegisterRoutes(r)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(AuthMiddleware(cfg.JWTSecret))
		// member-level (any authenticated account)
		pr.Group(func(mr chi.Router) {
			accounts.RegisterSelfRoutes(mr)
			items.RegisterRoutes(mr)
			orders.RegisterRoutes(mr)
			topups.RegisterSelfRoutes(mr)
			reversals.RegisterRoutes(mr)
			notifications.RegisterRoutes(mr)
		})
		// treasurer-level (treasurer/admin)
		pr.Group(func(tr chi.Router) {
			tr.Use(RequireRole(domain.RoleAdmin, domain.RoleTreasurer))
			accounts.RegisterAdminRoutes(tr)
			itemsAdmin.RegisterRoutes(tr)
			topups.RegisterAdminRoutes(tr)
			adjustments.RegisterRoutes(tr)
			stocks.RegisterRoutes(tr)
			export.RegisterRoutes(tr)
			dashboard.RegisterRoutes(tr)
		})
	})

	return r
}
