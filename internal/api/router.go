package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/baharkarakas/wallet-ledger/internal/api/handlers"
	"github.com/baharkarakas/wallet-ledger/internal/auth"
	"github.com/baharkarakas/wallet-ledger/internal/config"
	"github.com/baharkarakas/wallet-ledger/internal/metrics"
	"github.com/baharkarakas/wallet-ledger/internal/middleware"
	"github.com/baharkarakas/wallet-ledger/internal/models"
	"github.com/baharkarakas/wallet-ledger/internal/notify"
	"github.com/baharkarakas/wallet-ledger/internal/services"
)

type RouterDeps struct {
	Cfg       config.Config
	Tokens    *auth.TokenManager
	UserSvc   *services.UserService
	TxnSvc    *services.TransactionService
	WalletSvc *services.WalletService
	ReportSvc *services.ReportService
	Hub       *notify.Hub
	// Ready reports whether backing stores are reachable; nil means always ready.
	Ready func(r *http.Request) error
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover, middleware.HTTPMetrics, middleware.RateLimit(d.Cfg.RateRPS))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type", "Idempotency-Key", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader, "Idempotent-Replayed"},
	}))

	// health & metrics
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if d.Ready != nil {
			if err := d.Ready(r); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", metrics.Handler())

	authH := handlers.NewAuthHandler(d.UserSvc)
	txnH := handlers.NewTransactionHandler(d.TxnSvc)
	walletH := handlers.NewWalletHandler(d.WalletSvc)
	reportH := handlers.NewReportHandler(d.ReportSvc, d.Cfg.Location)
	authMW := middleware.NewAuthMiddleware(d.Tokens)

	r.Route("/api/v1", func(r chi.Router) {
		// ---------- auth ----------
		r.Post("/auth/register", authH.Register)
		r.Post("/auth/login", authH.Login)
		r.Post("/auth/refresh", authH.Refresh)

		r.Group(func(r chi.Router) {
			r.Use(authMW.Auth)

			r.Get("/auth/me", authH.Me)

			// ---------- users ----------
			r.With(middleware.RequireRole(models.RoleAdmin)).Get("/users", authH.ListUsers)
			r.With(middleware.RequireRole(models.RoleAdmin)).Post("/users", authH.CreateUser)

			// ---------- transactions ----------
			r.Route("/transactions", func(r chi.Router) {
				r.Get("/", txnH.List)
				r.Post("/", txnH.Create)
				r.Get("/reference/{ref}", txnH.GetByReference)
				r.Get("/user/{id}", txnH.ListByUser)

				r.With(middleware.RequireRole(models.RoleApprover, models.RoleAdmin)).Put("/approve/{id}", txnH.Approve)
				r.With(middleware.RequireRole(models.RoleApprover, models.RoleAdmin)).Put("/reject/{id}", txnH.Reject)
				r.With(middleware.RequireRole(models.RoleOperator, models.RoleAdmin)).Put("/complete/{id}", txnH.Complete)
				r.Put("/confirm/{id}", txnH.Confirm)

				r.Get("/{id}", txnH.Get)
				r.Get("/{id}/history", txnH.History)
			})

			// ---------- wallet ----------
			r.Get("/wallet/stats", walletH.Stats)

			// ---------- reports ----------
			r.Route("/reports", func(r chi.Router) {
				r.Use(middleware.RequireStaff)
				r.Get("/summary", reportH.Summary)
				r.Get("/weekly", reportH.Weekly)
				r.Get("/monthly", reportH.Monthly)
			})
		})
	})

	// live updates; the token may travel as ?token= on the upgrade request
	if d.Hub != nil {
		wsH := handlers.NewWSHandler(d.Hub)
		r.With(authMW.Auth).Get("/ws", wsH.Serve)
	}

	return r
}
