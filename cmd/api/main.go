package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"net/http"
	"net/http/pprof"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/supermarket/internal/app"
	"github.com/noah-isme/supermarket/internal/catalog"
	"github.com/noah-isme/supermarket/internal/checkout"
	"github.com/noah-isme/supermarket/internal/config"
	"github.com/noah-isme/supermarket/internal/health"
	"github.com/noah-isme/supermarket/internal/obs"
	"github.com/noah-isme/supermarket/internal/offer"
	"github.com/noah-isme/supermarket/internal/queue"
	"github.com/noah-isme/supermarket/internal/ratelimit"
	"github.com/noah-isme/supermarket/internal/receipt"
	"github.com/noah-isme/supermarket/internal/resilience"
	"github.com/noah-isme/supermarket/internal/security"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logFormat := envOrDefault("OBS_LOG_FORMAT", "json")
	logLevel := envOrDefault("OBS_LOG_LEVEL", "info")
	logger := obs.NewLogger(logFormat, logLevel).With().Str("env", cfg.AppEnv).Logger()

	metricsNamespace := envOrDefault("OBS_METRICS_NAMESPACE", "supermarket")
	metricsEnabled := envBool("OBS_ENABLE_PROMETHEUS", true)
	obs.MustRegisterDomainMetrics(metricsNamespace, nil)
	resilience.MustRegisterMetrics(metricsNamespace, nil)

	tracingEnabled := envBool("OBS_ENABLE_TRACING", true)
	if tracingEnabled {
		shutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
			ServiceName:   "supermarket-api",
			Endpoint:      envOrDefault("OBS_OTLP_ENDPOINT", ""),
			Exporter:      envOrDefault("OBS_TRACING_EXPORTER", "otlp"),
			SamplingRatio: envFloat("OBS_TRACING_SAMPLING_RATIO", 1.0),
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	deps, err := app.Build(startCtx, cfg, logger, app.Options{ApplicationName: "supermarket-api", RedisMetrics: metricsEnabled})
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise dependencies")
	}
	defer deps.Close()

	var httpMetrics *obs.HTTPMetrics
	if metricsEnabled {
		buckets := obs.ParseBucketsCSV(envOrDefault("OBS_METRICS_BUCKETS_MS", ""))
		httpMetrics = obs.NewHTTPMetrics(metricsNamespace, buckets, nil)
	}

	r := newRouter(deps, routerOptions{
		Tracing:      tracingEnabled,
		HTTPMetrics:  httpMetrics,
		Metrics:      metricsEnabled,
		Pprof:        envBool("OBS_ENABLE_PPROF", false),
		PprofUser:    envOrDefault("SECURE_PPROF_BASIC_AUTH_USER", ""),
		PprofPass:    envOrDefault("SECURE_PPROF_BASIC_AUTH_PASS", ""),
		ReadyTimeout: envDurationMillis("HEALTH_READY_TIMEOUT_MS", 500),
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go func() {
		<-ctx.Done()
		health.SetReady(false)
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("shutdown server")
		}
	}()

	logger.Info().Str("addr", srv.Addr).Bool("database", deps.DB != nil).Bool("redis", deps.Redis != nil).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal().Err(err).Msg("server exited unexpectedly")
	}
	logger.Info().Msg("server stopped")
}

type routerOptions struct {
	Tracing      bool
	HTTPMetrics  *obs.HTTPMetrics
	Metrics      bool
	Pprof        bool
	PprofUser    string
	PprofPass    string
	ReadyTimeout time.Duration
}

func newRouter(deps *app.Dependencies, opts routerOptions) http.Handler {
	cfg := deps.Config

	teller := &checkout.Teller{Catalog: deps.Catalog, Offers: deps.Offers}
	checkoutHandler := &checkout.Handler{
		Teller:  teller,
		Printer: receipt.Printer{Columns: cfg.ReceiptColumns},
	}
	if deps.Tasks != nil {
		checkoutHandler.Queue = queue.Publisher{Client: deps.Tasks, Queue: cfg.ReceiptQueue, MaxRetry: cfg.ReceiptMaxRetry}
	}
	catalogHandler := &catalog.Handler{Products: deps.Products}
	offerHandler := &offer.Handler{Registry: deps.Offers}
	if deps.OfferStore != nil {
		offerHandler.Store = deps.OfferStore
	}
	queueAdmin := &queue.AdminHandler{Queue: cfg.ReceiptQueue}
	if deps.Inspector != nil {
		queueAdmin.Inspector = deps.Inspector
	}
	limit := ratelimit.Handler{
		Limiter: deps.Limiter,
		OnError: func(err error) {
			deps.Logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	if opts.Tracing {
		r.Use(obs.Tracing("http.server"))
	}
	if opts.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: opts.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: deps.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", security.AdminKeyHeader},
		ExposedHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))

	if opts.Metrics {
		r.Handle("/metrics", promhttp.Handler())
	}
	if opts.Pprof {
		r.Mount("/debug/pprof", protectPprof(newPprofMux(), opts.PprofUser, opts.PprofPass))
	}

	healthHandler := health.Handler{Probes: deps.Probes(), Timeout: opts.ReadyTimeout}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Use(security.Headers{HSTS: cfg.AppEnv == "production"}.Middleware)
		v.Use(security.BodyLimit{Max: 1 << 20}.Middleware)

		v.Get("/products", catalogHandler.List)
		v.Get("/offers", offerHandler.List)
		v.With(limit.Middleware).Post("/checkout", checkoutHandler.Checkout)

		v.Route("/admin", func(a chi.Router) {
			a.Use(security.AdminKey{Hash: cfg.AdminAPIKeyHash}.Middleware)
			a.Put("/offers", offerHandler.Set)
			a.Get("/queue/archived", queueAdmin.ListArchived)
			a.Post("/queue/archived/{id}/run", queueAdmin.Replay)
		})
	})
	return r
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

func envOrDefault(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		trimmed := strings.TrimSpace(val)
		if trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if val, ok := os.LookupEnv(key); ok {
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "1", "t", "true", "yes", "on":
			return true
		case "0", "f", "false", "no", "off":
			return false
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
			return parsed
		}
	}
	return fallback
}

func envDurationMillis(key string, fallback int) time.Duration {
	return time.Duration(envInt(key, fallback)) * time.Millisecond
}

func newPprofMux() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", pprof.Index)
	mux.HandleFunc("/cmdline", pprof.Cmdline)
	mux.HandleFunc("/profile", pprof.Profile)
	mux.HandleFunc("/symbol", pprof.Symbol)
	mux.HandleFunc("/trace", pprof.Trace)
	mux.Handle("/heap", pprof.Handler("heap"))
	mux.Handle("/goroutine", pprof.Handler("goroutine"))
	return mux
}

func protectPprof(handler http.Handler, user, pass string) http.Handler {
	if user == "" {
		return handler
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, p, ok := r.BasicAuth()
		if !ok || subtle.ConstantTimeCompare([]byte(u), []byte(user)) != 1 || subtle.ConstantTimeCompare([]byte(p), []byte(pass)) != 1 {
			w.Header().Set("WWW-Authenticate", "Basic realm=restricted")
			http.Error(w, "unauthorised", http.StatusUnauthorized)
			return
		}
		handler.ServeHTTP(w, r)
	})
}
