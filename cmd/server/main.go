package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/Skotchmaster/contacts_api/internal/cache"
	"github.com/Skotchmaster/contacts_api/internal/config"
	"github.com/Skotchmaster/contacts_api/internal/db"
	"github.com/Skotchmaster/contacts_api/internal/httpserver"
	"github.com/Skotchmaster/contacts_api/internal/logging"
	"github.com/Skotchmaster/contacts_api/internal/mailer"
	"github.com/Skotchmaster/contacts_api/internal/metrics"
	"github.com/Skotchmaster/contacts_api/internal/repo"
	"github.com/Skotchmaster/contacts_api/internal/search"
	"github.com/Skotchmaster/contacts_api/internal/service"
	"github.com/Skotchmaster/contacts_api/internal/storage"
	"github.com/Skotchmaster/contacts_api/internal/tokens"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	if err := db.Migrate(ctx, gdb); err != nil {
		log.Fatalf("db migrate: %v", err)
	}

	m := metrics.New()
	store := &repo.GormRepo{DB: gdb}

	userCache, err := newUserCache(ctx, cfg)
	if err != nil {
		log.Fatalf("cache: %v", err)
	}

	tok, err := tokens.NewService(cfg.JWTSecret, cfg.JWTAlgorithm, cfg.JWTExpiration)
	if err != nil {
		log.Fatalf("tokens: %v", err)
	}

	sender, closeSender, err := newSender(cfg)
	if err != nil {
		log.Fatalf("mailer: %v", err)
	}
	dispatcher := mailer.NewAsync(sender, m)

	contactSvc := &service.ContactService{Contacts: store}
	if cfg.ESURL != "" {
		es, err := search.NewClient(ctx, cfg.ESURL, cfg.ESUser, cfg.ESPassword)
		if err != nil {
			log.Fatalf("elasticsearch: %v", err)
		}
		ix := search.NewContactIndex(es, cfg.ESIndex)
		if err := ix.EnsureIndex(ctx); err != nil {
			log.Fatalf("elasticsearch index: %v", err)
		}
		contactSvc.Index = ix
	}

	userSvc := &service.UserService{Users: store, Cache: userCache, InvalidateOnWrite: cfg.CacheInvalidateOnWrite}
	if cfg.S3Enabled() {
		avatars, err := storage.NewS3Avatars(ctx, cfg.S3)
		if err != nil {
			log.Fatalf("s3: %v", err)
		}
		userSvc.Avatars = avatars
	}

	e := httpserver.New(&httpserver.Deps{
		AuthHandler: &httpserver.AuthHTTP{Svc: &service.AuthService{
			Users:             store,
			Tokens:            tok,
			Mail:              dispatcher,
			Metrics:           m,
			Cache:             userCache,
			InvalidateOnWrite: cfg.CacheInvalidateOnWrite,
			AdminEmails:       cfg.AdminEmails,
		}},
		UsersHandler:    &httpserver.UsersHTTP{Svc: userSvc},
		ContactsHandler: &httpserver.ContactsHTTP{Svc: contactSvc},
		UtilsHandler:    &httpserver.UtilsHTTP{DB: store},
		Resolver: &service.Resolver{
			Tokens:   tok,
			Cache:    userCache,
			Users:    store,
			CacheTTL: cfg.CacheTTL,
			Metrics:  m,
		},
		Metrics:     m,
		MePerMinute: cfg.RateLimitMePerMinute,
	}, logger, cfg.CORSOrigins)

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("server_started", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown_failed", "error", err)
	}
	dispatcher.Close()
	if err := closeSender(); err != nil {
		logger.Warn("mailer_close_failed", "error", err)
	}
	if err := userCache.Close(); err != nil {
		logger.Warn("cache_close_failed", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		logger.Warn("db_close_failed", "error", err)
	}
	logger.Info("server_stopped")
}

func newUserCache(ctx context.Context, cfg *config.Config) (cache.UserCache, error) {
	if cfg.RedisURL != "" {
		return cache.NewRedis(ctx, cfg.RedisURL, cfg.CacheTTL)
	}
	return cache.NewMemory(cfg.CacheSize, cfg.CacheTTL)
}

func newSender(cfg *config.Config) (mailer.Sender, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Mail.Transport {
	case "smtp":
		return mailer.NewSMTPSender(cfg.Mail), noop, nil
	case "kafka":
		k, err := mailer.NewKafkaSender(cfg.KafkaBrokers, cfg.KafkaEmailTopic)
		if err != nil {
			return nil, nil, err
		}
		return k, k.Close, nil
	default:
		return mailer.LogSender{}, noop, nil
	}
}
