package router

import (
	"database/sql"
	"net/http"
	"os"
	"time"

	_ "github.com/locthdzev/fmcs-fe-sub005/docs"
	mem "github.com/locthdzev/fmcs-fe-sub005/internal/adapters/source/memory"
	pg "github.com/locthdzev/fmcs-fe-sub005/internal/adapters/source/postgres"
	"github.com/locthdzev/fmcs-fe-sub005/internal/adapters/source/remote"
	"github.com/locthdzev/fmcs-fe-sub005/internal/domain/history"
	"github.com/locthdzev/fmcs-fe-sub005/internal/middleware"
	"github.com/locthdzev/fmcs-fe-sub005/internal/platform/logger"
	"github.com/locthdzev/fmcs-fe-sub005/internal/platform/metrics"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger"
)

type Options struct {
	Log logger.Logger

	// Opcional: source explícito (tests). Si viene, gana sobre todo.
	Source history.EventSource

	// Opcional: si viene DB (o DSN), lectura directa de las tablas de
	// auditoría (camino eager-grouped). Si no, API del core; si tampoco,
	// memoria.
	DB  *sql.DB
	DSN string

	APIBaseURL   string
	APIKey       string
	APIKeyHeader string
	APITimeout   time.Duration
	APIRetries   uint64

	WindowSize int
}

func NewRouter(opts Options) http.Handler {
	r := chi.NewRouter()

	log := opts.Log
	if log == nil {
		log = logger.NewFromEnv()
	}

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	r.Use(middleware.RequestLog(log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	source := opts.Source
	if source == nil {
		source = buildSource(opts, log)
	}

	svc := history.NewService(source, log, opts.WindowSize)
	history.RegisterRoutes(r, svc)

	return r
}

// buildSource elige el EventSource con la precedencia DB > API core > memoria.
// Igual que con los repos del resto del sistema: si no te pasan nada
// explícito, intenta por env (dev/handoff).
func buildSource(opts Options, log logger.Logger) history.EventSource {
	db := opts.DB
	if db == nil {
		dsn := opts.DSN
		if dsn == "" {
			dsn = os.Getenv("DB_DSN")
		}
		if dsn != "" {
			opened, err := pg.Open(dsn)
			if err == nil {
				db = opened
			} else {
				log.Warn("db open failed, falling back", map[string]any{"err": err.Error()})
			}
		}
	}
	if db != nil {
		log.Info("using direct audit-table source", nil)
		return pg.NewSource(db)
	}

	baseURL := opts.APIBaseURL
	if baseURL == "" {
		baseURL = os.Getenv("FMCS_API_BASE_URL")
	}
	if baseURL != "" {
		client, err := remote.New(remote.Config{
			BaseURL:      baseURL,
			APIKey:       opts.APIKey,
			APIKeyHeader: opts.APIKeyHeader,
			Timeout:      opts.APITimeout,
			MaxRetries:   opts.APIRetries,
		})
		if err == nil {
			log.Info("using fmcs core api source", map[string]any{"base_url": baseURL})
			return client
		}
		log.Warn("fmcs api client init failed, falling back", map[string]any{"err": err.Error()})
	}

	log.Info("using in-memory source (dev mode)", nil)
	return mem.NewSource()
}
