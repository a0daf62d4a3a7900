package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/popopopopo1155/manga-reach/internal/config"
	"github.com/popopopopo1155/manga-reach/internal/kv"
	kvBadger "github.com/popopopopo1155/manga-reach/internal/kv/badger"
	kvRedis "github.com/popopopopo1155/manga-reach/internal/kv/redis"
	logpkg "github.com/popopopopo1155/manga-reach/internal/logger"
	"github.com/popopopopo1155/manga-reach/internal/metrics"
	catalogrepo "github.com/popopopopo1155/manga-reach/internal/repository/catalog"
	userstaterepo "github.com/popopopopo1155/manga-reach/internal/repository/userstate"
	chiTransport "github.com/popopopopo1155/manga-reach/internal/transport/chi"
	curateuc "github.com/popopopopo1155/manga-reach/internal/usecase/curate"
	healthuc "github.com/popopopopo1155/manga-reach/internal/usecase/health"
	recommenduc "github.com/popopopopo1155/manga-reach/internal/usecase/recommend"
	searchuc "github.com/popopopopo1155/manga-reach/internal/usecase/search"
	sessionuc "github.com/popopopopo1155/manga-reach/internal/usecase/session"
	"github.com/popopopopo1155/manga-reach/internal/version"
)

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting manga-reach API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("store_driver", cfg.Store.Driver),
		zap.String("catalog_path", cfg.Catalog.Path),
	)

	// Create the persisted key-value store based on driver
	var store kv.Store
	switch cfg.Store.Driver {
	case "badger":
		store, err = kvBadger.NewStore(kvBadger.Config{Path: cfg.Store.Path})
	case "redis":
		store, err = kvRedis.NewStore(kvRedis.Config{
			Addrs:    cfg.Store.Addrs,
			Password: cfg.Store.Password,
		})
	default:
		logger.Fatal("Unknown store driver", zap.String("driver", cfg.Store.Driver))
	}
	if err != nil {
		logger.Fatal("Failed to create key-value store", zap.Error(err))
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.WaitForReady(ctx, time.Duration(cfg.Store.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Key-value store not ready", zap.Error(err))
	}
	logger.Info("Key-value store ready")

	// The catalog is loaded once; a missing or malformed source is fatal.
	catalog, err := catalogrepo.Load(cfg.Catalog.Path, logger)
	if err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}

	// Register engine metrics explicitly (no init())
	metrics.RegisterEngineMetrics()
	metrics.CatalogWorks.Set(float64(catalog.Len()))

	// Create use case services
	matcher := searchuc.NewMatcher(searchuc.MatcherConfig{
		Threshold:         cfg.Search.Threshold,
		Distance:          cfg.Search.Distance,
		IgnoreLocation:    *cfg.Search.IgnoreLocation,
		TitleWeight:       cfg.Search.TitleWeight,
		TagsWeight:        cfg.Search.TagsWeight,
		DescriptionWeight: cfg.Search.DescriptionWeight,
		AuthorWeight:      cfg.Search.AuthorWeight,
	})
	searchSvc := searchuc.New(catalog, matcher, cfg.Search.QuickLimit)

	recommendSvc := recommenduc.New(catalog, recommenduc.Config{
		MaxRelated:   cfg.Recommend.MaxRelated,
		AuthorWeight: cfg.Recommend.AuthorWeight,
		TagWeight:    cfg.Recommend.TagWeight,
		RatingWeight: cfg.Recommend.RatingWeight,
	})

	curateSvc := curateuc.New(catalog, curateuc.Config{
		TrendingOffset: cfg.Curation.TrendingOffset,
		TrendingSize:   cfg.Curation.TrendingSize,
		HallOfFameSize: cfg.Curation.HallOfFameSize,
		FeaturedTag:    cfg.Curation.FeaturedTag,
		FeaturedSize:   cfg.Curation.FeaturedSize,
	})

	stateRepo := userstaterepo.New(store, cfg.Store.KeyPrefix)
	sessionSvc := sessionuc.New(stateRepo, sessionuc.Config{
		HistoryMax:       cfg.Session.HistoryMax,
		ExperimentLabels: cfg.Session.ExperimentLabels,
	}, logger)

	healthSvc := healthuc.New(store, catalog)

	// Create chi server
	server := chiTransport.NewServer(
		catalog, searchSvc,
		cfg.Search.InitialWindow, cfg.Search.WindowIncrement,
		recommendSvc, sessionSvc, curateSvc, healthSvc, logger,
	)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	server.Routes(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(map[string]string{
						"code":    "internal_error",
						"message": "internal error",
					})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			// chi.middleware.RequestID already placed request_id in context
			requestID := chiMiddleware.GetReqID(r.Context())

			// Set X-Request-ID in response header
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			// Per-request logger with request_id
			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			// Canonical log line — one line per request
			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
