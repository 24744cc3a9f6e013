package routes

import (
	"database/sql"

	"github.com/go-chi/chi/v5"

	"blogapi/internal/config"
	"blogapi/internal/handlers"
	"blogapi/internal/middleware"
	"blogapi/internal/repository"
	"blogapi/internal/services"
)

func RegisterBlogRoutes(router chi.Router, db *sql.DB, cfg *config.Config, s3Config *config.S3Config) {
	var images services.ImageStore
	if s3Config != nil && s3Config.Client != nil {
		images = services.NewS3ImageStore(s3Config)
	}
	blogHandler := handlers.NewBlogHandler(services.NewBlogService(repository.NewPostRepository(db), images))

	router.Route("/blog", func(r chi.Router) {
		r.Get("/", blogHandler.ListPosts)
		r.Get("/user/{userId}", blogHandler.ListPostsByAuthor)
		r.Get("/{id}", blogHandler.GetPost)

		r.Group(func(r chi.Router) {
			r.Use(middleware.JWTAuth(cfg.JWTSecret))
			r.Post("/", blogHandler.CreatePost)
			r.Put("/{id}", blogHandler.UpdatePost)
			r.Delete("/{id}", blogHandler.DeletePost)
			r.Post("/{id}/comments", blogHandler.AddComment)
			r.Post("/{id}/like", blogHandler.AddLike)
		})
	})
}
