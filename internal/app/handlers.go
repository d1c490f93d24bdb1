package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/vici-backend/internal/http"
	httpH "github.com/yungbote/vici-backend/internal/http/handlers"
	httpMW "github.com/yungbote/vici-backend/internal/http/middleware"
	"github.com/yungbote/vici-backend/internal/observability"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

type Middleware struct {
	Auth *httpMW.AuthMiddleware
}

type Handlers struct {
	Health   *httpH.HealthHandler
	Auth     *httpH.AuthHandler
	User     *httpH.UserHandler
	Social   *httpH.SocialHandler
	Post     *httpH.PostHandler
	Course   *httpH.CourseHandler
	Quiz     *httpH.QuizHandler
	Activity *httpH.ActivityHandler
	Vault    *httpH.VaultHandler
}

func wireHandlers(log *logger.Logger, cfg Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:   httpH.NewHealthHandler(),
		Auth:     httpH.NewAuthHandler(services.Auth),
		User:     httpH.NewUserHandler(log, services.User, services.Progress, services.Social),
		Social:   httpH.NewSocialHandler(services.Social),
		Post:     httpH.NewPostHandler(services.Forum),
		Course:   httpH.NewCourseHandler(services.Catalog),
		Quiz:     httpH.NewQuizHandler(services.Catalog),
		Activity: httpH.NewActivityHandler(services.Activity),
		Vault:    httpH.NewVaultHandler(log, services.Vault, cfg.Vault.MaxUploadBytes),
	}
}

func wireMiddleware(log *logger.Logger, services Services) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth: httpMW.NewAuthMiddleware(log, services.Auth),
	}
}

func routerConfig(log *logger.Logger, cfg Config, metrics *observability.Metrics, handlers Handlers, middleware Middleware) http.RouterConfig {
	rc := http.RouterConfig{
		Log:             log,
		Metrics:         metrics,
		AllowedOrigins:  cfg.CORSOrigins,
		RequestTimeout:  cfg.RequestTimeout,
		AuthMiddleware:  middleware.Auth,
		HealthHandler:   handlers.Health,
		AuthHandler:     handlers.Auth,
		UserHandler:     handlers.User,
		SocialHandler:   handlers.Social,
		PostHandler:     handlers.Post,
		CourseHandler:   handlers.Course,
		QuizHandler:     handlers.Quiz,
		ActivityHandler: handlers.Activity,
		VaultHandler:    handlers.Vault,
	}
	if cfg.Otel.Enabled {
		rc.TracingService = cfg.Otel.ServiceName
	}
	return rc
}

func wireRouter(rc http.RouterConfig) *gin.Engine {
	return http.NewRouter(rc)
}
