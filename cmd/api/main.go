package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/baharkarakas/wallet-ledger/internal/api"
	"github.com/baharkarakas/wallet-ledger/internal/auth"
	"github.com/baharkarakas/wallet-ledger/internal/cache"
	"github.com/baharkarakas/wallet-ledger/internal/config"
	"github.com/baharkarakas/wallet-ledger/internal/db"
	"github.com/baharkarakas/wallet-ledger/internal/events"
	"github.com/baharkarakas/wallet-ledger/internal/logger"
	"github.com/baharkarakas/wallet-ledger/internal/metrics"
	"github.com/baharkarakas/wallet-ledger/internal/notify"
	repo "github.com/baharkarakas/wallet-ledger/internal/repository"
	"github.com/baharkarakas/wallet-ledger/internal/repository/memory"
	"github.com/baharkarakas/wallet-ledger/internal/repository/postgres"
	"github.com/baharkarakas/wallet-ledger/internal/services"
	"github.com/baharkarakas/wallet-ledger/internal/worker"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("fatal", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	var (
		repos repo.Repositories
		ready func(*http.Request) error
	)
	switch cfg.Store {
	case "memory":
		log.Warn("using in-memory store; data is lost on restart")
		repos = memory.NewRepositories(memory.New())
	default:
		pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns)
		if err != nil {
			return err
		}
		defer pool.Close()
		if cfg.Migrate {
			if err := db.RunMigrations(ctx, pool); err != nil {
				return err
			}
		}
		repos = postgres.NewRepositories(pool)
		ready = func(r *http.Request) error { return pool.Ping(r.Context()) }
	}

	var kv cache.Store = cache.NewMemory()
	if cfg.RedisAddr != "" {
		rdb := cache.NewRedis(cfg.RedisAddr, cfg.RedisPassword, "ledger")
		if err := rdb.Ping(ctx); err != nil {
			return err
		}
		defer rdb.Close()
		kv = rdb
		log.Info("redis cache enabled", "addr", cfg.RedisAddr)
	}

	var pub events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		pub = events.NewKafka(cfg.KafkaBrokers, cfg.KafkaTopic, log)
		log.Info("kafka events enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}
	defer pub.Close()

	wp := worker.NewPool(cfg.Workers)
	// runs before pub.Close so queued events still go out
	defer wp.Stop()

	metrics.Init()
	tm := auth.NewTokenManager(cfg.JWTAccessSecret, cfg.JWTRefreshSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL)
	hub := notify.NewHub(log)

	userSvc := services.NewUserService(repos.Users, tm)
	if err := userSvc.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		return err
	}
	walletSvc := services.NewWalletService(repos.Transactions, repos.Users, kv, cfg.StatsCacheTTL)
	txnSvc := services.NewTransactionService(services.Deps{
		Repos:  repos,
		Wallet: walletSvc,
		Pool:   wp,
		Cache:  kv,
		Pub:    pub,
		Hub:    hub,
	}, cfg)
	reportSvc := services.NewReportService(repos.Transactions, cfg.Location)

	r := api.NewRouter(api.RouterDeps{
		Cfg:       cfg,
		Tokens:    tm,
		UserSvc:   userSvc,
		TxnSvc:    txnSvc,
		WalletSvc: walletSvc,
		ReportSvc: reportSvc,
		Hub:       hub,
		Ready:     ready,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("server starting", "port", cfg.HTTPPort, "env", cfg.Env, "store", cfg.Store, "tz", cfg.Location.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	log.Info("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
