// Package server exposes the claim pipeline over HTTP.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/sells-group/claims-cli/internal/config"
	"github.com/sells-group/claims-cli/internal/model"
)

// Ingester turns one uploaded file into a raw document.
type Ingester interface {
	Ingest(ctx context.Context, fileName string, data []byte) model.RawDocument
}

// Processor runs a claim through the pipeline.
type Processor interface {
	Process(ctx context.Context, docs []model.RawDocument) (*model.ClaimResult, error)
}

// Server holds the HTTP handlers and their collaborators.
type Server struct {
	cfg       *config.Config
	ingester  Ingester
	processor Processor
	now       func() time.Time
}

// New returns a Server. cfg supplies upload limits and CORS origins.
func New(cfg *config.Config, ingester Ingester, processor Processor) *Server {
	return &Server{
		cfg:       cfg,
		ingester:  ingester,
		processor: processor,
		now:       time.Now,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Get("/supported-documents", s.handleSupportedDocuments)
	r.Post("/process-claim", s.handleProcessClaim)

	return r
}

// requestLogger logs one line per request through the global zap logger.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		defer func() {
			zap.L().Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		}()
		next.ServeHTTP(ww, r)
	})
}
