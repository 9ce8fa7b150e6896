package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	alertrepo "telematics-cloud/internal/alerts/infrastructure/postgres"
	alerthttp "telematics-cloud/internal/alerts/interfaces/http"
	apihttp "telematics-cloud/internal/api/http"
	"telematics-cloud/internal/auth"
	enrichment "telematics-cloud/internal/enrichment/application"
	"telematics-cloud/internal/observability/metrics"
	ingest "telematics-cloud/internal/telemetry/application"
	telemetryrepo "telematics-cloud/internal/telemetry/infrastructure/postgres"
	stateredis "telematics-cloud/internal/telemetry/infrastructure/redis"
	triprepo "telematics-cloud/internal/trips/infrastructure/postgres"
	triphttp "telematics-cloud/internal/trips/interfaces/http"
	vehicleapp "telematics-cloud/internal/vehicles/application"
	vehiclerepo "telematics-cloud/internal/vehicles/infrastructure/postgres"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init()

	vehicleRepo := vehiclerepo.NewVehicleRepository(db)
	eventRepo := telemetryrepo.NewEventRepository(db)
	alertRepo := alertrepo.NewAlertRepository(db)
	tripRepo := triprepo.NewTripRepository(db)

	vehicleService, err := vehicleapp.NewService(vehicleRepo, logger)
	if err != nil {
		logger.Fatalf("vehicle service error: %v", err)
	}

	ingestOpts := []ingest.Option{}
	if cfg.RedisAddr != "" {
		cache, err := stateredis.NewStateCache(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Fatalf("state cache error: %v", err)
		}
		defer cache.Close()
		ingestOpts = append(ingestOpts, ingest.WithStateCache(cache))
	}
	ingestService, err := ingest.NewIngestService(vehicleService, eventRepo, logger, ingestOpts...)
	if err != nil {
		logger.Fatalf("ingest service error: %v", err)
	}

	segmenter, err := enrichment.NewTripSegmenter(eventRepo, tripRepo, systemClock{})
	if err != nil {
		logger.Fatalf("trip segmenter error: %v", err)
	}
	enrichService, err := enrichment.NewService(alertRepo, segmenter, logger)
	if err != nil {
		logger.Fatalf("enrichment service error: %v", err)
	}
	enrichCfg, err := enrichment.LoadConfig()
	if err != nil {
		logger.Fatalf("enrichment config error: %v", err)
	}
	reprocessor, err := enrichment.NewReprocessor(eventRepo, enrichService, enrichCfg, logger)
	if err != nil {
		logger.Fatalf("reprocessor error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go reprocessor.Run(ctx)

	eventsHandler, err := apihttp.NewEventsHandler(ingestService, logger)
	if err != nil {
		logger.Fatalf("events handler error: %v", err)
	}
	vehiclesHandler, err := apihttp.NewVehiclesHandler(vehicleService, eventRepo, logger)
	if err != nil {
		logger.Fatalf("vehicles handler error: %v", err)
	}
	exportsHandler, err := apihttp.NewExportsHandler(alertRepo, tripRepo, logger)
	if err != nil {
		logger.Fatalf("exports handler error: %v", err)
	}
	alertsHandler, err := alerthttp.NewHandler(alertRepo, vehicleRepo)
	if err != nil {
		logger.Fatalf("alerts handler error: %v", err)
	}
	tripsHandler, err := triphttp.NewHandler(tripRepo, vehicleRepo)
	if err != nil {
		logger.Fatalf("trips handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy([]string{"/healthz", "/metrics"}, nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/telematics/events", eventsHandler)
	mux.Handle("/api/v1/telematics/events/batch", eventsHandler)
	mux.Handle("/api/v1/vehicles", vehiclesHandler)
	mux.Handle("/api/v1/vehicles/", vehiclesHandler)
	mux.Handle("/api/v1/alerts", alertsHandler)
	mux.Handle("/api/v1/alerts/", alertsHandler)
	mux.Handle("/api/v1/trips", tripsHandler)
	mux.Handle("/api/v1/exports/", exportsHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", apihttp.NewHealthHandler(db))

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL   string
	HTTPAddr      string
	JWTSecret     string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func loadConfig() config {
	cfg := config{
		DatabaseURL:   getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:      getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:     getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		RedisAddr:     getenvDefault("REDIS_ADDR", ""),
		RedisPassword: getenvDefault("REDIS_PASSWORD", ""),
		RedisDB:       getenvIntDefault("REDIS_DB", 0),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvIntDefault(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
