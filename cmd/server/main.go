package main // Entry point package

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // venue zone resolves on hosts without a zoneinfo database

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/venue-admin/internal/cache"
	"github.com/iliyamo/venue-admin/internal/config"
	"github.com/iliyamo/venue-admin/internal/database"
	"github.com/iliyamo/venue-admin/internal/handler"
	"github.com/iliyamo/venue-admin/internal/logger"
	"github.com/iliyamo/venue-admin/internal/middleware"
	"github.com/iliyamo/venue-admin/internal/model"
	"github.com/iliyamo/venue-admin/internal/queue"
	"github.com/iliyamo/venue-admin/internal/repository"
	"github.com/iliyamo/venue-admin/internal/router"
	"github.com/iliyamo/venue-admin/internal/scheduler"
	"github.com/iliyamo/venue-admin/internal/service"
	"github.com/iliyamo/venue-admin/internal/storage"
)

// refresh tokens stay in the table this long after they stop being usable.
const tokenRetention = 7 * 24 * time.Hour

func main() {
	_ = godotenv.Load() // .env is optional; real env vars win

	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.Env)

	loc, err := cfg.Location()
	if err != nil {
		log.WithError(err).Fatalf("unknown APP_TIMEZONE %q", cfg.Timezone)
	}

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.WithError(err).Fatal("open database")
	}
	defer db.Close()
	if cfg.DBAutoMigrate {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := database.Migrate(ctx, db); err != nil {
			cancel()
			log.WithError(err).Fatal("migrate schema")
		}
		cancel()
		log.Info("schema migrated")
	}

	rdb := config.NewRedisClient(log)
	var store cache.Store = cache.NewMemoryStore(config.LoadRoomsCacheTTL())
	if rdb != nil {
		defer rdb.Close()
		store = cache.NewRedisStore(rdb, "venue")
	}

	// Repositories
	users := repository.NewUserRepo(db)
	tokens := repository.NewTokenRepo(db)
	matches := repository.NewMatchRepo(db)
	predictions := repository.NewPredictionRepo(db)
	rooms := repository.NewRoomRepo(db)
	bookings := repository.NewBookingRepo(db)
	products := repository.NewProductRepo(db)

	seedAdmin(cfg, users, log)

	// Services
	disk := storage.NewDisk(cfg.UploadDir)
	publisher := service.NewAMQPPublisher(queue.BrokerURL(), log)
	matchSvc := service.NewMatchService(matches, predictions, publisher, disk, loc, log)
	roomSvc := service.NewRoomService(rooms, bookings, store, disk, config.LoadRoomsCacheTTL(), log)

	// HTTP
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(log))

	authH := handler.NewAuthHandler(cfg, users, tokens, log)
	matchH := handler.NewMatchHandler(matchSvc, disk, log)
	roomH := handler.NewRoomHandler(roomSvc, disk, log)
	productH := handler.NewProductHandler(products, disk, log)

	router.RegisterRoutes(e, db, cfg.UploadDir)
	router.RegisterAuth(e, authH, cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig("auth"), rdb, log))
	router.RegisterPublic(e, matchH, roomH, productH,
		middleware.NewRedisCache(config.LoadCacheConfig(), rdb, log))
	router.RegisterCustomer(e, matchH, cfg.JWTSecret,
		middleware.NewTokenBucket(config.LoadRateLimitConfig("predictions"), rdb, log))
	router.RegisterAdmin(e, matchH, roomH, productH, cfg.JWTSecret)

	// Background work
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(loc, log)
	if cfg.StatusSweepCron != "" {
		if err := sched.ScheduleStatusSweep(cfg.StatusSweepCron, matchSvc); err != nil {
			log.WithError(err).Fatal("schedule status sweep")
		}
	}
	if cfg.TokenPurgeCron != "" {
		if err := sched.ScheduleTokenPurge(cfg.TokenPurgeCron, tokenRetention, tokens); err != nil {
			log.WithError(err).Fatal("schedule token purge")
		}
	}
	sched.Start()

	go queue.StartMatchConsumer(ctx, log)

	addr := ":" + cfg.Port
	go func() {
		log.WithFields(logrus.Fields{"addr": addr, "env": cfg.Env, "tz": loc.String()}).Info("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server stopped")
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("http shutdown")
	}
	sched.Stop(shutdownCtx)
}

// seedAdmin creates the ADMIN account named by ADMIN_EMAIL once.
func seedAdmin(cfg config.Config, users *repository.UserRepo, log logrus.FieldLogger) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := users.Create(ctx, cfg.AdminEmail, "Admin", cfg.AdminPassword, model.RoleAdmin, cfg.BcryptCost)
	switch {
	case errors.Is(err, repository.ErrEmailExists):
	case err != nil:
		log.WithError(err).Warn("seed admin failed")
	default:
		log.WithField("email", cfg.AdminEmail).Info("admin account created")
	}
}
