package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/yungbote/vici-backend/internal/domain"
	httpH "github.com/yungbote/vici-backend/internal/http/handlers"
	httpMW "github.com/yungbote/vici-backend/internal/http/middleware"
	"github.com/yungbote/vici-backend/internal/observability"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	AllowedOrigins []string
	RequestTimeout time.Duration
	// TracingService names the otelgin spans; empty disables tracing middleware.
	TracingService string

	AuthMiddleware *httpMW.AuthMiddleware

	AuthHandler     *httpH.AuthHandler
	UserHandler     *httpH.UserHandler
	SocialHandler   *httpH.SocialHandler
	PostHandler     *httpH.PostHandler
	CourseHandler   *httpH.CourseHandler
	QuizHandler     *httpH.QuizHandler
	ActivityHandler *httpH.ActivityHandler
	VaultHandler    *httpH.VaultHandler
	HealthHandler   *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingService != "" {
		r.Use(otelgin.Middleware(cfg.TracingService))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.AllowedOrigins))
	r.Use(httpMW.RequestTimeout(cfg.RequestTimeout))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/status", cfg.HealthHandler.Status)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))
	}

	am := cfg.AuthMiddleware
	requireAuth := am.RequireAuth()
	optionalAuth := am.OptionalAuth()
	self := httpMW.RequireSelf("username")
	staff := httpMW.RequireRole(types.RoleInstructor, types.RoleAdmin)
	admin := httpMW.RequireRole(types.RoleAdmin)

	api := r.Group("/api")

	// Auth (public)
	if cfg.AuthHandler != nil {
		auth := api.Group("/auth")
		auth.POST("/register", cfg.AuthHandler.Register)
		auth.POST("/login", cfg.AuthHandler.Login)
		auth.POST("/forgot-password", cfg.AuthHandler.ForgotPassword)
		auth.POST("/reset-password/:token", cfg.AuthHandler.ResetPassword)
	}

	// Users
	if cfg.UserHandler != nil {
		users := api.Group("/users")
		users.GET("/leaderboard", cfg.UserHandler.Leaderboard)
		users.GET("/:username", optionalAuth, cfg.UserHandler.GetProfile)
		users.GET("/:username/friends-leaderboard", cfg.UserHandler.FriendsLeaderboard)
		users.PUT("/:username", requireAuth, self, cfg.UserHandler.UpdateProfile)
		users.PUT("/:username/progress", requireAuth, self, cfg.UserHandler.UpdateProgress)
		users.PUT("/:username/enroll", requireAuth, self, cfg.UserHandler.Enroll)
		users.GET("/:username/requests", requireAuth, self, cfg.UserHandler.PendingRequests)
		users.POST("/:username/request", requireAuth, cfg.UserHandler.SendRequest)
		users.POST("/:username/accept", requireAuth, self, cfg.UserHandler.RespondRequest)
		users.PUT("/:username/ban", requireAuth, admin, cfg.UserHandler.SetBanned)
	}

	// Forum
	if cfg.PostHandler != nil {
		posts := api.Group("/posts")
		posts.GET("", cfg.PostHandler.List)
		posts.POST("", requireAuth, cfg.PostHandler.Create)
		posts.PUT("/:id", requireAuth, cfg.PostHandler.Update)
		posts.DELETE("/:id", requireAuth, cfg.PostHandler.Delete)
		posts.PUT("/:id/like", requireAuth, cfg.PostHandler.ToggleLike)
		posts.POST("/:id/comments", requireAuth, cfg.PostHandler.Comment)
		posts.PUT("/:id/flag", requireAuth, cfg.PostHandler.Flag)
	}

	// Social
	if cfg.SocialHandler != nil {
		social := api.Group("/social", requireAuth)
		social.POST("/request", cfg.SocialHandler.SendRequest)
		social.POST("/respond", cfg.SocialHandler.Respond)
		social.POST("/messages/send", cfg.SocialHandler.SendMessage)
		social.GET("/messages/:a/:b", cfg.SocialHandler.Conversation)
	}

	// Study vault
	if cfg.VaultHandler != nil {
		vault := api.Group("/study-vault", requireAuth)
		vault.POST("/upload", cfg.VaultHandler.Upload)
		vault.POST("/generate-study-material", cfg.VaultHandler.Generate)
		vault.POST("/repair-extraction/:id", cfg.VaultHandler.Repair)
		vault.GET("/user/:userId", cfg.VaultHandler.ListByUser)
		vault.GET("/:id/artifacts", cfg.VaultHandler.ListArtifacts)
		vault.DELETE("/:id", cfg.VaultHandler.Delete)
	}

	// Catalog
	if cfg.CourseHandler != nil {
		api.GET("/courses", cfg.CourseHandler.List)
		api.POST("/courses", requireAuth, staff, cfg.CourseHandler.Create)
		api.DELETE("/courses/:id", requireAuth, staff, cfg.CourseHandler.Delete)
	}
	if cfg.QuizHandler != nil {
		api.GET("/quizzes/:lessonId", cfg.QuizHandler.GetByLesson)
		api.POST("/quizzes", requireAuth, staff, cfg.QuizHandler.Create)
		api.DELETE("/quizzes/:id", requireAuth, staff, cfg.QuizHandler.Delete)
	}

	// Activity feed
	if cfg.ActivityHandler != nil {
		api.GET("/activities", cfg.ActivityHandler.List)
	}

	return r
}
