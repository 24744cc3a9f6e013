// internal/routes/routes.go
package routes

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/redis/go-redis/v9"

	"blogapi/internal/config"
)

// SetupRoutes builds the API router. s3Config without a client disables
// image uploads; a nil rdb disables rate limiting.
func SetupRoutes(db *sql.DB, cfg *config.Config, s3Config *config.S3Config, rdb *redis.Client) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"message": "Blog API is running"})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		dbStatus := map[string]any{"status": "ok"}
		status, code := "ok", http.StatusOK
		if err := db.PingContext(ctx); err != nil {
			dbStatus = map[string]any{"status": "down", "error": err.Error()}
			status, code = "degraded", http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]any{"status": status, "db": dbStatus})
	})

	RegisterSwaggerRoutes(r)

	r.Route("/api", func(r chi.Router) {
		RegisterUserRoutes(r, db, cfg, rdb)
		RegisterBlogRoutes(r, db, cfg, s3Config)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
