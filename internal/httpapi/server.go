// Package httpapi exposes the catalog over HTTP/JSON: public gallery reads
// and an admin-token-gated write path.
package httpapi

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Jerowaree/photospage/internal/catalog"
	"github.com/Jerowaree/photospage/internal/config"
	"github.com/Jerowaree/photospage/internal/store"
	"github.com/Jerowaree/photospage/internal/swaggerui"
)

// Pinger is the readiness probe surface; *store.Store satisfies it.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	cfg     *config.Config
	svc     *catalog.Service
	db      Pinger
	logger  *slog.Logger
	started time.Time
}

var (
	openapiOnce sync.Once
	openapiData []byte
	openapiErr  error
)

func loadOpenAPI() ([]byte, error) {
	openapiOnce.Do(func() {
		path := filepath.Clean("openapi.yaml")
		openapiData, openapiErr = os.ReadFile(path)
	})
	return openapiData, openapiErr
}

func NewRouter(cfg *config.Config, svc *catalog.Service, db Pinger, logger *slog.Logger) http.Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(os.Stdout, nil))
	}
	s := &Server{cfg: cfg, svc: svc, db: db, logger: logger, started: time.Now()}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(loggingMiddleware(logger))

	if len(cfg.CORSAllowedOrigins) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "X-Admin-Token", "Content-Type", "Accept"},
			AllowCredentials: true,
		})
		r.Use(c.Handler)
	}

	r.Get("/readyz", s.GetReadyz)
	r.Get(cfg.OpenAPIPath, s.serveOpenAPI)
	r.Mount(cfg.SwaggerUIPath, swaggerui.Handler(cfg.OpenAPIPath))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.GetHealth)
		r.Get("/photos", s.ListPhotos)
		r.Get("/photos/categories", s.GetCategories)
		r.Get("/photos/{id}", s.GetPhoto)

		r.Group(func(r chi.Router) {
			r.Use(s.requireAdmin)
			r.Post("/upload", s.UploadPhoto)
			r.Patch("/photos/{id}", s.UpdatePhoto)
			r.Delete("/photos/{id}", s.DeletePhoto)
		})
	})

	return r
}

func (s *Server) serveOpenAPI(w http.ResponseWriter, _ *http.Request) {
	data, err := loadOpenAPI()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "unable to load openapi.yaml")
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) GetHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"uptime":    time.Since(s.started).Seconds(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) GetReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.Ping(ctx); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unreachable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

func (s *Server) ListPhotos(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	res, err := s.svc.List(r.Context(), catalog.ListInput{
		Category:     q.Get("category"),
		FeaturedOnly: q.Get("featured") == "true",
		Page:         intQuery(q.Get("page"), 1),
		Limit:        intQuery(q.Get("limit"), store.DefaultPageSize),
	})
	if err != nil {
		s.fail(w, r, "list photos", err)
		return
	}
	writeData(w, http.StatusOK, map[string]any{
		"photos": res.Photos,
		"total":  res.Total,
		"page":   res.Page,
		"pages":  res.Pages,
	})
}

func (s *Server) GetPhoto(w http.ResponseWriter, r *http.Request) {
	photo, err := s.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if catalog.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "photo not found")
			return
		}
		s.fail(w, r, "get photo", err)
		return
	}
	writeData(w, http.StatusOK, photo)
}

func (s *Server) GetCategories(w http.ResponseWriter, r *http.Request) {
	cats, err := s.svc.Categories(r.Context())
	if err != nil {
		s.fail(w, r, "list categories", err)
		return
	}
	writeData(w, http.StatusOK, cats)
}

func (s *Server) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes+1024)
	if err := r.ParseMultipartForm(s.cfg.MaxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "failed to parse multipart form")
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "no file provided")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read file")
		return
	}

	photo, err := s.svc.Upload(r.Context(), catalog.UploadInput{
		Title:       r.FormValue("title"),
		Category:    r.FormValue("category"),
		Description: r.FormValue("description"),
		Tags:        r.FormValue("tags"),
		Featured:    r.FormValue("featured"),
		File:        data,
	})
	if err != nil {
		if v, ok := catalog.AsValidation(err); ok {
			writeValidation(w, v)
			return
		}
		s.fail(w, r, "upload photo", err)
		return
	}
	writeData(w, http.StatusCreated, photo)
}

type updateRequest struct {
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	Tags        *[]string `json:"tags"`
	Featured    *bool     `json:"featured"`
}

func (s *Server) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	var payload updateRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	photo, err := s.svc.Update(r.Context(), chi.URLParam(r, "id"), catalog.UpdateInput{
		Title:       payload.Title,
		Description: payload.Description,
		Category:    payload.Category,
		Tags:        payload.Tags,
		Featured:    payload.Featured,
	})
	if err != nil {
		if v, ok := catalog.AsValidation(err); ok {
			writeValidation(w, v)
			return
		}
		if catalog.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "photo not found")
			return
		}
		s.fail(w, r, "update photo", err)
		return
	}
	writeData(w, http.StatusOK, photo)
}

func (s *Server) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		if catalog.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "photo not found")
			return
		}
		s.fail(w, r, "delete photo", err)
		return
	}
	writeData(w, http.StatusOK, nil)
}

// fail logs the underlying fault and answers with a generic 500. Not-found
// and validation outcomes never travel through here.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	s.logger.Error(op+" failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, map[string]any{"success": true, "data": data})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"success": false, "message": message})
}

func writeValidation(w http.ResponseWriter, v *catalog.ValidationError) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"success": false,
		"message": "invalid payload",
		"errors":  v.Fields,
	})
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			logger.Info("request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start).String(),
			)
		})
	}
}

func intQuery(raw string, def int) int {
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}
