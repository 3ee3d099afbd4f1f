package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/skhokho/linkup-backend/internal/config"
	"github.com/skhokho/linkup-backend/internal/db"
	"github.com/skhokho/linkup-backend/internal/goroutine"
	httpHandlers "github.com/skhokho/linkup-backend/internal/http/handlers"
	httpRouter "github.com/skhokho/linkup-backend/internal/http/router"
	"github.com/skhokho/linkup-backend/internal/logger"
	"github.com/skhokho/linkup-backend/internal/repository"
	"github.com/skhokho/linkup-backend/internal/service"
	"github.com/skhokho/linkup-backend/internal/ws"
)

func main() {
	// Готовим контекст для graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("main: ошибка загрузки конфигурации: %v", err)
	}

	// Инициализация логгера
	logLevel := "info"
	if cfg.Env == "development" {
		logLevel = "debug"
		logger.Init(logLevel)
		logger.SetTextFormatter()
	} else {
		logger.Init(logLevel)
	}

	// Подключение к базе и миграции.
	dbConn, err := db.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("main: ошибка подключения к базе: %v", err)
	}
	defer safeClose(dbConn)

	if err := db.RunMigrations(ctx, dbConn, cfg.MigrationsPath); err != nil {
		log.Fatalf("main: ошибка миграций: %v", err)
	}

	tokenManager := service.NewTokenManager(cfg.JWTSecret, cfg.RefreshSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)

	// Репозитории.
	userRepo := repository.NewUserRepository(dbConn)
	walletRepo := repository.NewWalletRepository(dbConn)
	catalogRepo := repository.NewCatalogRepository(dbConn)
	jobRepo := repository.NewJobRepository(dbConn)
	escrowRepo := repository.NewEscrowRepository(dbConn)
	disputeRepo := repository.NewDisputeRepository(dbConn)
	reviewRepo := repository.NewReviewRepository(dbConn)

	// Сервисы.
	authService := service.NewAuthService(userRepo, tokenManager)
	walletService := service.NewWalletService(walletRepo, cfg.EscrowRetryAttempts, cfg.ReputationRate)
	catalogService := service.NewCatalogService(catalogRepo)
	escrowService := service.NewEscrowService(escrowRepo, jobRepo, catalogRepo, cfg.EscrowRetryAttempts)
	disputeService := service.NewDisputeService(disputeRepo, jobRepo, cfg.EscrowRetryAttempts)
	reviewService := service.NewReviewService(reviewRepo, jobRepo, cfg.EscrowRetryAttempts)
	seedService := service.NewSeedService(userRepo, walletRepo, catalogRepo, logger.Log)

	// Вебсокеты.
	hub := ws.NewHub()
	goroutine.SafeGoWithContext(ctx, hub.Run)

	// Фоновая чистка истёкших refresh-сессий.
	goroutine.SafeGoWithContext(ctx, func(ctx context.Context) {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if n, err := userRepo.DeleteExpiredSessions(ctx); err != nil {
					logger.Log.WithError(err).Error("main: чистка сессий не удалась")
				} else if n > 0 {
					logger.Log.WithField("deleted", n).Debug("main: истёкшие сессии удалены")
				}
			}
		}
	})

	// HTTP хэндлеры.
	authHandler := httpHandlers.NewAuthHandler(authService, reviewService)
	walletHandler := httpHandlers.NewWalletHandler(walletService)
	catalogHandler := httpHandlers.NewCatalogHandler(catalogService)
	jobHandler := httpHandlers.NewJobHandler(escrowService, hub)
	disputeHandler := httpHandlers.NewDisputeHandler(disputeService, escrowService, hub)
	reviewHandler := httpHandlers.NewReviewHandler(reviewService)
	wsHandler := httpHandlers.NewWSHandler(hub, tokenManager)
	healthHandler := httpHandlers.NewHealthHandler(dbConn)
	seedHandler := httpHandlers.NewSeedHandler(seedService)

	// Роутер.
	engine := httpRouter.SetupRouter(cfg, authHandler, walletHandler, catalogHandler, jobHandler, disputeHandler, reviewHandler, wsHandler, healthHandler, seedHandler, tokenManager)

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: engine,
	}

	// Завершаем сервер при получении сигнала.
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("main: ошибка остановки http сервера: %v", err)
		}
	}()

	log.Printf("main: HTTP сервер запущен на порту %s", cfg.HTTPPort)

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("main: сервер завершился с ошибкой: %v", err)
	}
}

// safeClose закрывает соединение с базой.
func safeClose(db *sqlx.DB) {
	if err := db.Close(); err != nil {
		log.Printf("main: ошибка закрытия базы: %v", err)
	}
}
