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

	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"

	"github.com/brightside-studio/backend/internal/config"
	"github.com/brightside-studio/backend/internal/handler"
	"github.com/brightside-studio/backend/internal/logging"
	"github.com/brightside-studio/backend/internal/metrics"
	"github.com/brightside-studio/backend/internal/notify"
	"github.com/brightside-studio/backend/internal/ratelimit"
	"github.com/brightside-studio/backend/internal/repository"
	"github.com/brightside-studio/backend/internal/service"
	"github.com/brightside-studio/backend/pkg/auth"
)

func main() {
	cfg, err := config.Load()
	logging.Setup(cfg.LogLevel)
	if err != nil {
		logging.Fatal("invalid configuration", "error", err)
	}

	ctx := context.Background()
	clock := clockwork.NewRealClock()

	pool, err := repository.NewPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logging.Fatal("failed to connect to database", "error", err)
	}
	defer pool.Close()

	// Rate-limit windows live in Redis when configured so every instance
	// shares them; otherwise in process memory.
	var (
		store ratelimit.Store
		cache handler.Pinger
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			logging.Fatal("invalid REDIS_URL", "error", err)
		}
		rdb := redis.NewClient(opts)
		defer rdb.Close()
		redisStore := ratelimit.NewRedisStore(rdb)
		if err := redisStore.Ping(ctx); err != nil {
			logging.Fatal("failed to connect to redis", "error", err)
		}
		store, cache = redisStore, redisStore
		slog.Info("rate limiter using redis")
	} else {
		mem := ratelimit.NewMemoryStore(clock, ratelimit.DefaultSweepInterval)
		defer mem.Close()
		store = mem
		slog.Info("rate limiter using process memory")
	}
	limiter := ratelimit.NewLimiter(store, clock)

	var notifiers notify.Multi
	if cfg.NotifyWebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhookNotifier(cfg.NotifyWebhookURL, cfg.NotifyWebhookToken, nil))
	}
	if cfg.NATSURL != "" {
		natsCfg := notify.DefaultNATSConfig()
		natsCfg.URL = cfg.NATSURL
		nn, err := notify.NewNATSNotifier(natsCfg)
		if err != nil {
			// Notifications are best effort; the form keeps working without them.
			slog.Error("nats unavailable, contact events will not be published", "error", err)
		} else {
			defer nn.Close()
			notifiers = append(notifiers, nn)
		}
	}
	if len(notifiers) == 0 {
		slog.Warn("no notifier configured; submissions are stored only")
	}

	contactRepo := repository.NewPgContactRepository(pool)
	contactService := service.NewContactService(contactRepo, notifiers, limiter, clock)

	h := handler.New(pool, cache, cfg.FrontendURL)
	contactHandler := handler.NewContactHandler(contactService)
	ipLimiter := handler.NewRateLimiter(limiter, ratelimit.RuleAPIPerIP)

	wrapAdmin := func(next http.Handler) http.Handler {
		next = auth.AdminMiddleware(cfg.AdminUserIDs)(next)
		if cfg.AuthRequired {
			return auth.RequireAuth(auth.SessionSecretBytes(cfg.SessionSecret))(next)
		}
		return auth.DevAuth(next)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/health", h.Health)
	mux.Handle("GET /metrics", metrics.Handler())

	// Public forms (per-IP throttle in front of the per-email one)
	mux.Handle("POST /api/contact", ipLimiter.Middleware(http.HandlerFunc(contactHandler.Submit)))
	mux.Handle("POST /api/contact/quick", ipLimiter.Middleware(http.HandlerFunc(contactHandler.SubmitQuick)))

	// Admin inbox
	mux.Handle("GET /api/admin/contacts", wrapAdmin(http.HandlerFunc(contactHandler.AdminList)))
	mux.Handle("PATCH /api/admin/contacts/{id}/status", wrapAdmin(http.HandlerFunc(contactHandler.UpdateStatus)))

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      handler.RequestLogger(handler.SecurityHeaders(h.CORS(mux))),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		slog.Info("server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal("server error", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
