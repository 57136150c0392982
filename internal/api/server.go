// Package api exposes the pipeline over HTTP: /search, /analyze and the
// /export family. The dashboard consuming these endpoints lives outside
// this repository.
package api

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog/log"

	"github.com/haneulsoft/newslens/internal/app"
	"github.com/haneulsoft/newslens/internal/news"
)

// Server holds the wired services plus the session's processed articles
// for export.
type Server struct {
	services *app.Services

	mu        sync.Mutex
	processed []news.Article
}

func NewServer(services *app.Services) *Server {
	return &Server{services: services}
}

// Router assembles the chi router with CORS for local dashboard
// development, request logging and panic recovery.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(120 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost", "http://localhost:3000", "http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", s.handleRoot)
	r.Get("/search", s.handleSearch)
	r.Post("/analyze", s.handleAnalyze)
	r.Route("/export", func(r chi.Router) {
		r.Get("/json", s.handleExportJSON)
		r.Get("/csv", s.handleExportCSV)
		r.Get("/pdf", s.handleExportPDF)
	})
	return r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "newslens backend is running"})
}

// record appends processed articles to the session collection backing the
// export endpoints.
func (s *Server) record(articles ...news.Article) {
	s.mu.Lock()
	s.processed = append(s.processed, articles...)
	s.mu.Unlock()
}

func (s *Server) snapshot() []news.Article {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]news.Article, len(s.processed))
	copy(out, s.processed)
	return out
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Warn().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
