package routes

import (
	"database/sql"
	"log"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"blogapi/internal/config"
	"blogapi/internal/handlers"
	"blogapi/internal/middleware"
	"blogapi/internal/repository"
	"blogapi/internal/services"
)

// newMailer picks the outbound mail transport configured by MAIL_TRANSPORT.
func newMailer(cfg *config.Config) services.EmailSender {
	if cfg.MailTransport == "amqp" {
		return services.NewQueueEmailSender(cfg.RabbitMQURL, cfg.MailQueue)
	}
	if cfg.MailTransport != "" && cfg.MailTransport != "smtp" {
		log.Printf("unknown MAIL_TRANSPORT %q, using smtp", cfg.MailTransport)
	}
	return &services.SMTPSender{
		Host:   cfg.SMTPHost,
		Port:   cfg.SMTPPort,
		User:   cfg.SMTPUser,
		Pass:   cfg.SMTPPassword,
		From:   cfg.SMTPFrom,
		UseTLS: cfg.SMTPUseTLS,
	}
}

func RegisterUserRoutes(router chi.Router, db *sql.DB, cfg *config.Config, rdb *redis.Client) {
	users := repository.NewUserRepository(db)
	authService := services.NewAuthService(
		users,
		repository.NewPasswordResetRepository(db),
		newMailer(cfg),
		services.AuthOptions{
			JWTSecret:            cfg.JWTSecret,
			ResetTokenTTL:        cfg.ResetTokenTTL,
			SupersedePriorTokens: cfg.ResetTokenSupersede,
		},
	)
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(users)

	limit := middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:  cfg.RateLimitEnabled,
		Requests: cfg.RateLimitRequests,
		Window:   cfg.RateLimitWindow,
		Prefix:   "blogapi:ratelimit",
	}, rdb)

	router.Route("/user", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)

		r.Group(func(r chi.Router) {
			r.Use(limit)
			r.Post("/forget-password", authHandler.ForgotPassword)
			r.Post("/reset-password", authHandler.ResetPassword)
		})

		r.With(middleware.JWTAuth(cfg.JWTSecret)).Get("/me", userHandler.Me)
		r.Get("/{id}", userHandler.GetUser)
	})
}
