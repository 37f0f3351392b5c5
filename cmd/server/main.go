package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/EmielEDW/chiro-sub000/internal/config"
	"github.com/EmielEDW/chiro-sub000/internal/db"
	"github.com/EmielEDW/chiro-sub000/internal/handler"
	"github.com/EmielEDW/chiro-sub000/internal/repository"
	"github.com/EmielEDW/chiro-sub000/internal/server"
	"github.com/EmielEDW/chiro-sub000/internal/service"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("config load failed", "err", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.New(ctx, cfg)
	if err != nil {
		logger.Error("database connect failed", "err", err)
		os.Exit(1)
	}
	defer database.Close()

	if err := database.EnsureSchema(ctx); err != nil {
		logger.Error("schema migration failed", "err", err)
		os.Exit(1)
	}

	accountRepo := repository.AccountRepository{DB: database}
	itemRepo := repository.ItemRepository{DB: database}
	ledgerRepo := repository.LedgerRepository{DB: database}
	topUpRepo := repository.TopUpRepository{DB: database}
	reversalRepo := repository.ReversalRepository{DB: database}
	stockRepo := repository.StockRepository{DB: database}
	notificationRepo := repository.NotificationRepository{DB: database}
	dashboardRepo := repository.DashboardRepository{DB: database}

	authService := service.AuthService{Config: cfg, Accounts: accountRepo, Logger: logger}
	orderService := service.OrderService{
		Accounts:          accountRepo,
		Items:             itemRepo,
		Ledger:            ledgerRepo,
		Notifications:     notificationRepo,
		EnforceStockFloor: cfg.EnforceStockFloor,
		Logger:            logger,
	}
	topUpService := service.TopUpService{
		Accounts:      accountRepo,
		TopUps:        topUpRepo,
		WebhookSecret: cfg.StripeWebhookSecret,
		Logger:        logger,
	}
	reversalService := service.ReversalService{
		Accounts:     accountRepo,
		Items:        itemRepo,
		Consumptions: ledgerRepo,
		TopUps:       topUpRepo,
		Reversals:    reversalRepo,
		SelfWindow:   cfg.SelfReversalWindow,
		Logger:       logger,
	}
	stockService := service.StockService{
		Stock:             stockRepo,
		EnforceStockFloor: cfg.EnforceStockFloor,
	}

	router := server.NewRouter(cfg, logger,
		handler.HealthHandler{DB: database},
		handler.AuthHandler{Service: &authService},
		handler.AccountHandler{Accounts: accountRepo, Ledger: ledgerRepo, TopUps: topUpRepo, Currency: cfg.CurrencyCode},
		handler.ItemHandler{Items: itemRepo},
		handler.ItemAdminHandler{Items: itemRepo},
		handler.OrderHandler{Orders: orderService, Ledger: ledgerRepo},
		handler.TopUpHandler{Service: topUpService, TopUps: topUpRepo},
		handler.AdjustmentHandler{Ledger: ledgerRepo, Accounts: accountRepo},
		handler.ReversalHandler{Service: reversalService, Reversals: reversalRepo},
		handler.StockHandler{Service: stockService, Stock: stockRepo},
		handler.ExportHandler{Accounts: accountRepo, Ledger: ledgerRepo, TopUps: topUpRepo},
		handler.NotificationHandler{Notifications: notificationRepo},
		handler.DashboardHandler{Dashboard: dashboardRepo},
		handler.WebhookHandler{TopUps: topUpService, Logger: logger},
	)

	if err := server.Start(ctx, cfg, router, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}
