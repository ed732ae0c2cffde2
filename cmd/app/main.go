package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/roombooking/api"
	"github.com/Domenick1991/roombooking/config"
	reservationsapi "github.com/Domenick1991/roombooking/internal/api/reservations_service_api"
	"github.com/Domenick1991/roombooking/internal/audit"
	"github.com/Domenick1991/roombooking/internal/auth"
	"github.com/Domenick1991/roombooking/internal/bootstrap"
	"github.com/Domenick1991/roombooking/internal/cache"
	"github.com/Domenick1991/roombooking/internal/kafka"
	"github.com/Domenick1991/roombooking/internal/logging"
	"github.com/Domenick1991/roombooking/internal/repository"
	"github.com/Domenick1991/roombooking/internal/repository/memory"
	"github.com/Domenick1991/roombooking/internal/seed"
	"github.com/Domenick1991/roombooking/internal/service/account"
	"github.com/Domenick1991/roombooking/internal/service/activity"
	"github.com/Domenick1991/roombooking/internal/service/booking"
	"github.com/Domenick1991/roombooking/internal/service/catalog"
	"github.com/Domenick1991/roombooking/internal/service/revision"
	"github.com/Domenick1991/roombooking/internal/service/session"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type stores struct {
	catalog   repository.CatalogRepository
	bookings  repository.BookingRepository
	revisions repository.RevisionRepository
	activity  repository.ActivityRepository
	users     repository.UserRepository
	health    map[string]api.HealthCheck
	close     func()
}

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}

	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}
	log := logging.New(cfg.Log)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	st, err := openStores(ctx, cfg, log)
	if err != nil {
		log.Fatalf("open storage: %v", err)
	}
	defer st.close()

	var sink audit.Sink = audit.NewRepositorySink(st.activity)
	if cfg.Kafka.Enabled() {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, log)
		defer producer.Close()
		if err := producer.CheckConnection(ctx); err != nil {
			log.WithError(err).Warn("kafka not reachable yet, audit publishes will retry")
		}
		sink = audit.NewKafkaSink(producer, cfg.Kafka.AuditTopic)
	}
	recorder := audit.NewDispatcher(sink, cfg.Audit.BufferSize, log.WithField("component", "audit"))
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := recorder.Close(closeCtx); err != nil {
			log.WithError(err).Warn("audit queue not fully drained")
		}
	}()

	catalogOpts := []catalog.CatalogServiceOption{catalog.WithLogger(log)}
	bookingOpts := []booking.BookingServiceOption{
		booking.WithLogger(log),
		booking.WithAudit(recorder),
		booking.WithRequestTimeout(cfg.Booking.RequestTimeoutDuration()),
	}
	if cfg.Redis.Enabled() {
		redisCache := cache.NewRedisCache(cfg.Redis, cfg.Booking.CatalogCacheTTLDuration())
		defer redisCache.Close()
		st.health["redis"] = redisCache.Ping
		catalogOpts = append(catalogOpts, catalog.WithCache(redisCache))
		bookingOpts = append(bookingOpts, booking.WithSlotLocker(redisCache, cfg.Booking.SlotLockTTLDuration()))
	}

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	catalogService := catalog.NewCatalogService(st.catalog, catalogOpts...)
	bookingService := booking.NewBookingService(st.bookings, catalogService, bookingOpts...)
	revisionService := revision.NewRevisionService(st.revisions, bookingService.Guard(),
		revision.WithLogger(log),
		revision.WithAudit(recorder),
		revision.WithRequestTimeout(cfg.Booking.RequestTimeoutDuration()),
	)
	sessionService := session.NewSessionService(st.users, tokens,
		session.WithLogger(log), session.WithAudit(recorder))
	accountService := account.NewAccountService(st.users,
		account.WithLogger(log),
		account.WithAudit(recorder),
		account.WithRequestTimeout(cfg.Booking.RequestTimeoutDuration()),
	)
	activityService := activity.NewActivityService(st.activity, log)

	gin.SetMode(gin.ReleaseMode)
	var limiter *api.RateLimiter
	if cfg.HTTP.RateLimitRPS > 0 {
		limiter = api.NewRateLimiter(cfg.HTTP.RateLimitRPS, cfg.HTTP.RateLimitBurst)
	}
	router := api.NewRouter(api.RouterConfig{
		Tokens:      tokens,
		Logger:      log,
		RateLimiter: limiter,
		SwaggerDir:  cfg.HTTP.SwaggerDir,
		Health:      st.health,
		Catalog:     api.NewCatalogHandler(catalogService, bookingService),
		Bookings:    api.NewBookingHandler(bookingService),
		Revisions:   api.NewRevisionHandler(revisionService),
		Activity:    api.NewActivityHandler(activityService),
		Sessions:    api.NewSessionHandler(sessionService),
		Users:       api.NewUserHandler(accountService),
	})

	if err := bootstrap.Run(ctx, cfg, bootstrap.Deps{
		Router:      router,
		Reservation: reservationsapi.NewServer(bookingService, revisionService),
		Tokens:      tokens,
		Logger:      log,
	}); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func openStores(ctx context.Context, cfg *config.Config, log logrus.FieldLogger) (*stores, error) {
	if cfg.Storage.Driver == config.StorageMemory {
		data, err := seed.Default()
		if err != nil {
			return nil, err
		}
		log.Warn("using in-memory storage, data is lost on restart")
		return &stores{
			catalog:   memory.NewCatalogRepository(data),
			bookings:  memory.NewBookingRepository(),
			revisions: memory.NewRevisionRepository(),
			activity:  memory.NewActivityRepository(),
			users:     memory.NewUserRepository(data.Users),
			health:    map[string]api.HealthCheck{},
			close:     func() {},
		}, nil
	}

	pool, err := repository.NewPool(ctx, cfg.Database.DSN(), cfg.Database.MaxConns)
	if err != nil {
		return nil, err
	}
	if err := repository.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &stores{
		catalog:   repository.NewCatalogRepository(pool),
		bookings:  repository.NewBookingRepository(pool),
		revisions: repository.NewRevisionRepository(pool),
		activity:  repository.NewActivityRepository(pool),
		users:     repository.NewUserRepository(pool),
		health:    map[string]api.HealthCheck{"postgres": pool.Ping},
		close:     pool.Close,
	}, nil
}
