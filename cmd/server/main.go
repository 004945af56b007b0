package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/diviso/diviso/internal/auth"
	"github.com/diviso/diviso/internal/checkin"
	"github.com/diviso/diviso/internal/config"
	"github.com/diviso/diviso/internal/edge"
	"github.com/diviso/diviso/internal/lock"
	"github.com/diviso/diviso/internal/middleware"
	"github.com/diviso/diviso/internal/notify"
	"github.com/diviso/diviso/internal/payment"
	"github.com/diviso/diviso/internal/phone"
	"github.com/diviso/diviso/internal/quota"
	"github.com/diviso/diviso/internal/ratelimit"
	"github.com/diviso/diviso/internal/realtime"
	"github.com/diviso/diviso/internal/receipt"
	"github.com/diviso/diviso/internal/service"
	"github.com/diviso/diviso/internal/storage/sqlite"
	"github.com/diviso/diviso/pkg/api/apiconnect"
	"github.com/diviso/diviso/pkg/logging"
)

const lockTTL = 10 * time.Second

func main() {
	logging.Setup()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	loc, _ := time.LoadLocation(cfg.CheckinTimezone) // checked by config.Validate

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			slog.Error("Failed to create database directory", "error", err)
			os.Exit(1)
		}
	}
	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		slog.Error("Failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.DBPath)

	// Redis shares rate limits, locks and realtime events between
	// instances. Without it everything stays in-process.
	registry := realtime.NewRegistry(32, slog.Default())
	var (
		publisher realtime.Publisher = registry
		locker    lock.Locker        = lock.NewLocal()
		limiter   ratelimit.Limiter  = ratelimit.NewMemory(cfg.LookupRateLimit, cfg.LookupRateWindow)
	)
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Error("Failed to connect to Redis", "address", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		defer rdb.Close()

		bridge := realtime.NewRedisBridge(rdb, registry, slog.Default())
		go func() {
			if err := bridge.Run(ctx); err != nil {
				slog.Error("Realtime bridge stopped", "error", err)
			}
		}()
		publisher = bridge
		locker = lock.NewRedis(rdb, lockTTL)
		limiter = ratelimit.NewRedis(rdb, "diviso:ratelimit", cfg.LookupRateLimit, cfg.LookupRateWindow)
		slog.Info("Redis enabled", "address", cfg.RedisAddr)
	}

	jwtManager := auth.NewJWTManager(cfg.JWTSecret, cfg.TokenTTL)
	phones := phone.NewNormalizer(cfg.PhoneRegion)
	authenticator := auth.NewPasswordAuthenticator(store, phones)
	quotas := quota.NewChecker(store, loc)
	notifier := notify.New(store, publisher, slog.Default())

	interceptors := connect.WithInterceptors(
		middleware.NewLoggingInterceptor(slog.Default()),
		middleware.RequireAuth(jwtManager, apiconnect.AuthServiceRegisterProcedure, apiconnect.AuthServiceLoginProcedure),
		middleware.ValidationInterceptor(),
	)

	mux := http.NewServeMux()

	// Register Connect services
	expenses := service.NewExpenseService(store, quotas, notifier, publisher, locker, slog.Default())
	mux.Handle(apiconnect.NewAuthServiceHandler(service.NewAuthService(authenticator, jwtManager, store, slog.Default()), interceptors))
	mux.Handle(apiconnect.NewGroupServiceHandler(service.NewGroupService(store, quotas, notifier, publisher, slog.Default()), interceptors))
	mux.Handle(apiconnect.NewExpenseServiceHandler(expenses, interceptors))
	mux.Handle(apiconnect.NewSettlementServiceHandler(service.NewSettlementService(store, notifier, publisher, slog.Default()), interceptors))
	mux.Handle(apiconnect.NewNotificationServiceHandler(service.NewNotificationService(store, publisher, slog.Default()), interceptors))
	mux.Handle(apiconnect.NewCheckinServiceHandler(service.NewCheckinService(checkin.NewService(store, loc, slog.Default()), store), interceptors))
	mux.Handle(apiconnect.NewPlanServiceHandler(service.NewPlanService(store, quotas, publisher, slog.Default()), interceptors))
	mux.Handle(apiconnect.NewCreditServiceHandler(service.NewCreditService(store, slog.Default()), interceptors))
	mux.Handle(apiconnect.NewRealtimeServiceHandler(service.NewRealtimeService(registry, store, slog.Default()), interceptors))

	// Edge functions
	edgeCfg := edge.Config{
		JWT:          jwtManager,
		Logger:       slog.Default(),
		Expenses:     expenses,
		Lookup:       store,
		Phones:       phones,
		LookupLimits: limiter,
	}
	if cfg.MoyasarSecretKey != "" {
		gateway := payment.NewMoyasarClient(cfg.MoyasarBaseURL, cfg.MoyasarSecretKey, nil)
		edgeCfg.Payments = payment.NewProcessor(store, gateway, locker, notifier, slog.Default())
		edgeCfg.WebhookSecret = cfg.MoyasarWebhookSecret
	} else {
		slog.Warn("MOYASAR_SECRET_KEY not set, payment webhook disabled")
	}
	if receipts, err := newReceiptProcessor(ctx, cfg, store, quotas); err != nil {
		slog.Warn("Receipt scanning disabled", "error", err)
	} else {
		edgeCfg.Receipts = receipts
	}
	edge.New(edgeCfg).Register(mux)

	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	if cfg.StaticPath != "" {
		mountStatic(mux, cfg.StaticPath)
	}

	// Add logging and CORS middleware
	loggedHandler := loggingMiddleware(corsMiddleware(mux))

	// Wrap with h2c for HTTP/2 without TLS (required for Connect streaming)
	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           h2c.NewHandler(loggedHandler, &http2.Server{}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Graceful shutdown failed", "error", err)
	}
	slog.Info("Server stopped")
}

// newReceiptProcessor reads receipts from GCS when a bucket is configured,
// otherwise from the local receipt directory.
func newReceiptProcessor(ctx context.Context, cfg *config.Config, store *sqlite.SQLiteStore, quotas *quota.Checker) (*receipt.Processor, error) {
	var objects receipt.ObjectStore
	if cfg.ReceiptBucket != "" {
		gcs, err := receipt.NewGCSStore(ctx, cfg.ReceiptBucket, cfg.GCSCredentialsJSON)
		if err != nil {
			return nil, err
		}
		objects = gcs
		slog.Info("Receipts stored in GCS", "bucket", cfg.ReceiptBucket)
	} else {
		objects = receipt.NewDirStore(cfg.ReceiptDir)
		slog.Info("Receipts stored on disk", "path", cfg.ReceiptDir)
	}

	engine, err := receipt.NewVisionEngine(ctx, cfg.VisionCredentialsJSON)
	if err != nil {
		return nil, err
	}
	return receipt.NewProcessor(store, objects, engine, quotas, slog.Default()), nil
}

// mountStatic serves the web client, falling back to index.html for
// client-side routes.
func mountStatic(mux *http.ServeMux, staticPath string) {
	staticDir, err := filepath.Abs(staticPath)
	if err != nil {
		slog.Error("Failed to resolve static path", "error", err)
		os.Exit(1)
	}
	slog.Info("Serving static files", "path", staticDir)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		// Connect RPCs and edge functions never fall through to the SPA.
		if strings.HasPrefix(r.URL.Path, "/diviso.v1.") || strings.HasPrefix(r.URL.Path, edge.Prefix) {
			http.NotFound(w, r)
			return
		}

		urlPath := r.URL.Path
		if urlPath == "/" {
			urlPath = "/index.html"
		}
		filePath := filepath.Join(staticDir, filepath.Clean(urlPath))
		if _, err := os.Stat(filePath); os.IsNotExist(err) {
			http.ServeFile(w, r, filepath.Join(staticDir, "index.html"))
			return
		}
		http.ServeFile(w, r, filePath)
	})
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		slog.Debug("Request received",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)

		next.ServeHTTP(w, r)

		slog.Info("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Connect-Protocol-Version, Connect-Timeout-Ms, "+edge.WebhookSecretHeader)
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, Retry-After")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
