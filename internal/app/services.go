package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/vici-backend/internal/platform/logger"
	"github.com/yungbote/vici-backend/internal/services"
)

type Services struct {
	Auth     services.AuthService
	User     services.UserService
	Progress services.ProgressService
	Social   services.SocialService
	Forum    services.ForumService
	Catalog  services.CatalogService
	Activity services.ActivityService
	Vault    services.VaultService
}

func wireServices(db *gorm.DB, log *logger.Logger, cfg Config, r Repos, c *Clients) Services {
	log.Info("Wiring services...")
	mailer := services.NewMailer(log, c.Mail)
	activity := services.NewActivityService(db, log, r.Activity)
	progress := services.NewProgressService(db, log, r.User, r.Badge, r.Enrollment, r.Course, activity, c.Leaderboard, c.Metrics)

	return Services{
		Auth: services.NewAuthService(db, log, r.User, mailer, services.AuthConfig{
			JWTSecret: cfg.JWTSecret,
			AccessTTL: cfg.AccessTTL,
			ResetTTL:  cfg.ResetTTL,
			ClientURL: cfg.ClientURL,
		}),
		User:     services.NewUserService(db, log, r.User, r.Badge, r.Friend, r.Enrollment, c.Leaderboard),
		Progress: progress,
		Social:   services.NewSocialService(db, log, r.User, r.Friend, r.Message, activity),
		Forum:    services.NewForumService(db, log, r.User, r.Post, activity),
		Catalog:  services.NewCatalogService(db, log, r.Course, r.Quiz),
		Activity: activity,
		Vault: services.NewVaultService(
			db, log,
			r.Material, r.Artifact,
			c.Storage, c.Extractor, c.AI,
			progress, c.Metrics,
			cfg.Vault,
		),
	}
}
