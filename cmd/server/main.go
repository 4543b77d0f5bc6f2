package main // Entry point package

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/room-booking/internal/booking"
	"github.com/iliyamo/room-booking/internal/config"
	"github.com/iliyamo/room-booking/internal/database"
	"github.com/iliyamo/room-booking/internal/handler"
	"github.com/iliyamo/room-booking/internal/identity"
	"github.com/iliyamo/room-booking/internal/logger"
	"github.com/iliyamo/room-booking/internal/middleware"
	"github.com/iliyamo/room-booking/internal/queue"
	"github.com/iliyamo/room-booking/internal/repository"
	"github.com/iliyamo/room-booking/internal/router"
)

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Printf("warning: .env not loaded: %v", err)
	}
	cfg := config.Load()

	zl, err := logger.New(cfg.LogLevel, cfg.LogFormat, "room-booking")
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		zl.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()
	if cfg.DBMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := database.Migrate(ctx, db)
		cancel()
		if err != nil {
			zl.Fatal("schema migration failed", zap.Error(err))
		}
		zl.Info("schema migrated")
	}

	rdb := config.NewRedisClient(config.LoadRedisConfig(), zl)
	if rdb != nil {
		defer rdb.Close()
	}
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()

	roomRepo := repository.NewRoomRepo(db)
	categoryRepo := repository.NewCategoryRepo(db)
	reservationRepo := repository.NewReservationRepo(db, roomRepo)

	var opts []booking.Option
	if cfg.Queue.URL != "" {
		opts = append(opts, booking.WithPublisher(queue.NewPublisher(cfg.Queue.URL, cfg.Queue.Name, zl.Named("publisher"))))
	} else {
		zl.Info("RABBITMQ_URL not set, reservation events are not published")
	}
	svc := booking.NewService(reservationRepo, identity.RoleAuthority{}, zl.Named("booking"), opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Queue.ConsumerEnabled && cfg.Queue.URL != "" {
		consumer := queue.NewConsumer(cfg.Queue.URL, cfg.Queue.Name, cfg.Queue.AuditLogDir, zl.Named("audit"))
		go func() { _ = consumer.Run(ctx) }()
	}

	purger := middleware.NewCachePurger(rdb, cacheCfg.Prefix, zl)
	roomHandler := handler.NewRoomHandler(roomRepo, purger, zl)
	categoryHandler := handler.NewCategoryHandler(categoryRepo, purger, zl)
	reservationHandler := handler.NewReservationHandler(svc, zl)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(middleware.RequestLogger(zl.Named("http")))

	router.RegisterRoutes(e, handler.Health(db, rdb))
	router.RegisterPublic(e, roomHandler, categoryHandler, middleware.NewRedisCache(cacheCfg, rdb, zl))
	router.RegisterReservations(e, reservationHandler, cfg.JWTSecret, middleware.NewTokenBucket(rateCfg, rdb, zl))
	router.RegisterAdmin(e, roomHandler, categoryHandler, reservationHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	go func() {
		zl.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	zl.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
	}
}
