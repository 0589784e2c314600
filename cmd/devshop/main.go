package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"net/http/pprof"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/matst80/slask-theme/pkg/cart"
	"github.com/matst80/slask-theme/pkg/common"
	"github.com/matst80/slask-theme/pkg/config"
)

var enableProfiling = flag.Bool("profiling", false, "enable profiling endpoints")
var assetDir = flag.String("assets", "", "serve theme files from this folder")

func main() {
	flag.Parse()

	cfg, err := config.LoadDevshop()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := common.NewLogger(cfg.LogMode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	catalog := sampleCatalog()
	if cfg.Catalog != "" {
		if catalog, err = cart.LoadCatalog(cfg.Catalog); err != nil {
			logger.Fatal("load catalog", zap.Error(err))
		}
	}

	var hooks []common.ShutdownHook
	var storage cart.CartStorage = cart.NewMemoryCartStorage()
	if cfg.Redis.Enabled() {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := rdb.Ping(context.Background()).Err(); err != nil {
			logger.Fatal("redis ping", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		storage = cart.NewRedisCartStorage(rdb, cfg.CartTTL)
		hooks = append(hooks, func(ctx context.Context) error { return rdb.Close() })
		logger.Info("carts stored in redis", zap.String("addr", cfg.Redis.Addr))
	}

	shop := &cart.CartServer{
		Storage: storage,
		Catalog: catalog,
		Log:     logger.Named("devshop"),
		TTL:     cfg.CartTTL,
	}

	api := common.NewServerWithTimeouts(&http.Server{
		Addr:    cfg.ListenAddress,
		Handler: router(shop, *assetDir, logger),
	}, cfg.Timeouts)
	debug := common.NewServerWithTimeouts(&http.Server{
		Addr:    cfg.DebugAddress,
		Handler: debugMux(*enableProfiling),
	}, cfg.Timeouts)

	if err := common.RunServerWithShutdown(logger, cfg.Timeouts, []*http.Server{api, debug}, hooks...); err != nil {
		logger.Fatal("devshop stopped", zap.Error(err))
	}
}

func router(shop *cart.CartServer, assets string, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(common.CORS)
	r.Use(requestLogger(logger))
	r.Mount("/", shop.Handler())
	if assets != "" {
		r.Handle("/assets/*", http.StripPrefix("/assets/", http.FileServer(http.Dir(assets))))
	}
	return r
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Debug("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.String("request_id", chimw.GetReqID(r.Context())))
		})
	}
}

func debugMux(profiling bool) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("/metrics", promhttp.Handler())
	if profiling {
		mux.HandleFunc("/debug/pprof/", pprof.Index)
		mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
		mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	return mux
}
