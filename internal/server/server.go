package server

import (
	"context"
	"log"
	"net/http"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mmiyara/naim-hub-go/internal/api"
	"github.com/mmiyara/naim-hub-go/internal/apperrors"
	"github.com/mmiyara/naim-hub-go/internal/auth"
	"github.com/mmiyara/naim-hub-go/internal/config"
	"github.com/mmiyara/naim-hub-go/internal/db"
	"github.com/mmiyara/naim-hub-go/internal/history"
	"github.com/mmiyara/naim-hub-go/internal/host"
	"github.com/mmiyara/naim-hub-go/internal/poller"
	"github.com/mmiyara/naim-hub-go/internal/registry"
	"github.com/mmiyara/naim-hub-go/internal/standby"
	"github.com/mmiyara/naim-hub-go/internal/state"
)

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestLoggerMiddleware logs all incoming HTTP requests
func requestLoggerMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)
		log.Printf("%s %s %d %s", r.Method, r.URL.Path, wrapped.status, time.Since(start).Round(time.Millisecond))
	})
}

// Options controls server wiring.
type Options struct {
	Logger *log.Logger
}

// NewHandler builds the HTTP handler and returns a shutdown function. The
// registry is started before this returns, so persisted devices are already
// being polled by the time the first request arrives.
func NewHandler(cfg config.Config, options Options) (http.Handler, func(context.Context) error, error) {
	logger := options.Logger
	if logger == nil {
		logger = log.Default()
	}

	logger.Printf("Using database: %s", cfg.SQLiteDBPath)
	dbPair, err := db.Init(cfg.SQLiteDBPath)
	if err != nil {
		return nil, nil, err
	}

	sources := state.DefaultSourceNames()
	if cfg.SourceNamesPath != "" {
		sources, err = state.LoadSourceNames(cfg.SourceNamesPath)
		if err != nil {
			dbPair.Close()
			return nil, nil, err
		}
	}

	router := chi.NewRouter()
	router.Use(middleware.StripSlashes)
	router.Use(requestLoggerMiddleware)
	router.Use(api.RequestIDMiddleware)
	router.Use(api.RecovererMiddleware)
	router.Use(auth.Middleware(cfg))
	router.NotFound(api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return apperrors.NewNotFoundResource("Route", r.URL.Path)
	}).ServeHTTP)

	auth.RegisterRoutes(router, cfg)

	historyService := history.NewService(history.NewRepository(dbPair), cfg.HistoryRetentionDays, logger)
	history.RegisterRoutes(router, historyService)
	historyService.StartPruneJob()

	eventHub := host.NewHub(logger)
	host.RegisterRoutes(router, eventHub)

	scheduler := standby.NewScheduler(logger)

	reg := registry.New(registry.NewRepository(dbPair), sources, registry.Options{
		MaxDevices:       cfg.MaxDevices,
		Timeout:          time.Duration(cfg.NaimTimeoutMs) * time.Millisecond,
		PollInterval:     time.Duration(cfg.PollIntervalMs) * time.Millisecond,
		FailureThreshold: cfg.PollFailureThreshold,
		Scheduler:        scheduler,
		Logger:           logger,
	})
	reg.AddListener(func(update poller.Update) {
		historyService.Record(update.DeviceID, update.Previous, update.Current, update.Current.LastUpdated)
	})
	reg.AddListener(func(update poller.Update) {
		entities, err := reg.EntitiesFor(update.DeviceID)
		if err != nil {
			return
		}
		for _, ent := range entities {
			eventHub.Broadcast(host.EntityChange(ent.ID(), update.DeviceID, ent.Attributes(update.Current)))
		}
	})
	registry.RegisterRoutes(router, reg)
	registry.RegisterEntityRoutes(router, reg)

	registerHealthRoutes(router, reg, eventHub)

	if err := reg.Start(context.Background()); err != nil {
		historyService.StopPruneJob()
		dbPair.Close()
		return nil, nil, err
	}
	scheduler.Start()

	shutdown := func(ctx context.Context) error {
		reg.Close()
		scheduler.Stop()
		historyService.StopPruneJob()
		eventHub.Close()
		return dbPair.Close()
	}

	return router, shutdown, nil
}

func registerHealthRoutes(router chi.Router, reg *registry.Registry, hub *host.Hub) {
	router.Method(http.MethodGet, "/v1/health", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		response := map[string]any{
			"status":    "healthy",
			"service":   "naim-hub",
			"devices":   reg.Count(),
			"hosts":     hub.ClientCount(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}
		return api.WriteJSON(w, http.StatusOK, response)
	}))
	router.Method(http.MethodGet, "/v1/health/live", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	}))
	router.Method(http.MethodGet, "/v1/health/ready", api.Handler(func(w http.ResponseWriter, r *http.Request) error {
		return api.WriteJSON(w, http.StatusOK, map[string]any{"status": "ready"})
	}))
}
