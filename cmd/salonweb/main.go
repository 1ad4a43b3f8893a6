package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	gomongo "go.mongodb.org/mongo-driver/mongo"

	"github.com/salonbook/webapp/internal/api"
	"github.com/salonbook/webapp/internal/api/middleware"
	"github.com/salonbook/webapp/internal/apiclient"
	"github.com/salonbook/webapp/internal/core/ports"
	"github.com/salonbook/webapp/internal/core/service"
	"github.com/salonbook/webapp/internal/infrastructure/broadcast"
	"github.com/salonbook/webapp/internal/infrastructure/db/memory"
	"github.com/salonbook/webapp/internal/infrastructure/db/mongo"
	"github.com/salonbook/webapp/internal/infrastructure/db/redis"
	"github.com/salonbook/webapp/internal/infrastructure/queue"
	"github.com/salonbook/webapp/internal/navigation"
	"github.com/salonbook/webapp/internal/pkg/config"
	"github.com/salonbook/webapp/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// @title        Salon Booking Web API
// @version      1.0
// @description  Browser-facing session and auth layer for the salon booking frontend.
// @BasePath     /
func main() {
	cfg := config.Load()

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  !cfg.Production(),
		Service: "salonweb",
		Env:     cfg.Env,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := apiclient.New(apiclient.Config{BaseURL: cfg.API.BaseURL, Timeout: cfg.API.Timeout})
	if err != nil {
		log.Fatal().Err(err).Msg("api client")
	}

	// --- Redis (storage + theme bus) ---
	var rdb *goredis.Client
	if cfg.UsesRedis() {
		rdb, err = redis.Connect(ctx, redis.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("redis connect")
		}
		defer rdb.Close()
		log.Info().Str("addr", cfg.Redis.Addr).Msg("redis connected")
	}

	var (
		storage ports.StorageBackend
		themes  ports.ThemeBroadcaster
	)
	if rdb != nil {
		storage = redis.NewStorageBackend(rdb, cfg.Redis.Prefix, cfg.Session.StorageTTL)
		themes = redis.NewThemeBus(rdb, cfg.Redis.Prefix, log)
	} else {
		storage = memory.NewStorageBackend(cfg.Session.StorageTTL)
		themes = broadcast.NewHub()
	}

	// --- Audit trail ---
	var (
		db      *gomongo.Database
		auditor ports.SessionAuditor = queue.NewLogAuditor(log)
	)
	workerCtx, cancelWorkers := context.WithCancel(context.Background())
	defer cancelWorkers()

	var dispatcher *queue.Dispatcher
	if cfg.Audit.Enabled {
		var disconnect func(context.Context) error
		db, disconnect, err = mongo.Connect(ctx, mongo.Config{
			URI:      cfg.Mongo.URI,
			Database: cfg.Mongo.Database,
			AppName:  "salonweb",
		})
		if err != nil {
			log.Fatal().Err(err).Msg("mongo connect")
		}
		defer func() {
			dctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			_ = disconnect(dctx)
		}()
		log.Info().Str("database", cfg.Mongo.Database).Msg("mongo connected")

		repo := mongo.NewAuditRepository(db, cfg.Audit.Retention)
		if err := repo.EnsureIndexes(ctx); err != nil {
			log.Fatal().Err(err).Msg("audit indexes")
		}

		dispatcher = queue.NewDispatcher(cfg.Audit.Workers, repo, log)
		dispatcher.Start(workerCtx)
		auditor = dispatcher
		log.Info().Int("workers", cfg.Audit.Workers).Msg("audit dispatcher started")
	}

	// --- Sessions ---
	sessions := service.NewSessionManager(func(sessionID string) *service.SessionStore {
		scoped := storage.Scope(sessionID)
		return service.NewSessionStore(service.SessionStoreDeps{
			SessionID: sessionID,
			API:       client.WithTokenSource(apiclient.TokenFunc(scoped.Token)),
			Storage:   scoped,
			Themes:    themes,
			Navigator: navigation.Navigator{},
			Auditor:   auditor,
			Logger:    log,
		})
	}, cfg.Session.IdleTTL)

	e := api.NewRouter(api.Deps{
		Sessions: sessions,
		Storage:  storage,
		Themes:   themes,
		Session: middleware.SessionOptions{
			CookieName:    cfg.Session.CookieName,
			Secure:        cfg.Production(),
			BootstrapWait: cfg.Session.BootstrapWait,
		},
		Mongo: db,
		Redis: rdb,
		Log:   log,
	})

	go func() {
		log.Info().Str("port", cfg.Port).Str("api", cfg.API.BaseURL).Msg("server starting")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown")
	}

	drainAudit(dispatcher, cancelWorkers, log)
	log.Info().Msg("stopped")
}

// drainAudit stops the audit workers and waits for in-flight inserts.
func drainAudit(d *queue.Dispatcher, cancel context.CancelFunc, log zerolog.Logger) {
	cancel()
	if d == nil {
		return
	}
	done := make(chan struct{})
	go func() {
		d.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(shutdownTimeout):
		log.Warn().Msg("audit workers did not stop in time")
	}
}
