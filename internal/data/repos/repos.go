package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/vici-backend/internal/data/repos/activity"
	"github.com/yungbote/vici-backend/internal/data/repos/catalog"
	"github.com/yungbote/vici-backend/internal/data/repos/forum"
	"github.com/yungbote/vici-backend/internal/data/repos/social"
	"github.com/yungbote/vici-backend/internal/data/repos/user"
	"github.com/yungbote/vici-backend/internal/data/repos/vault"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo
type BadgeRepo = user.BadgeRepo
type FriendRepo = user.FriendRepo
type EnrollmentRepo = user.EnrollmentRepo

type MessageRepo = social.MessageRepo

type PostRepo = forum.PostRepo

type CourseRepo = catalog.CourseRepo
type QuizRepo = catalog.QuizRepo

type MaterialRepo = vault.MaterialRepo
type ArtifactRepo = vault.ArtifactRepo

type ActivityRepo = activity.ActivityRepo

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo { return user.NewUserRepo(db, baseLog) }
func NewBadgeRepo(db *gorm.DB, baseLog *logger.Logger) BadgeRepo {
	return user.NewBadgeRepo(db, baseLog)
}
func NewFriendRepo(db *gorm.DB, baseLog *logger.Logger) FriendRepo {
	return user.NewFriendRepo(db, baseLog)
}
func NewEnrollmentRepo(db *gorm.DB, baseLog *logger.Logger) EnrollmentRepo {
	return user.NewEnrollmentRepo(db, baseLog)
}

func NewMessageRepo(db *gorm.DB, baseLog *logger.Logger) MessageRepo {
	return social.NewMessageRepo(db, baseLog)
}

func NewPostRepo(db *gorm.DB, baseLog *logger.Logger) PostRepo {
	return forum.NewPostRepo(db, baseLog)
}

func NewCourseRepo(db *gorm.DB, baseLog *logger.Logger) CourseRepo {
	return catalog.NewCourseRepo(db, baseLog)
}
func NewQuizRepo(db *gorm.DB, baseLog *logger.Logger) QuizRepo {
	return catalog.NewQuizRepo(db, baseLog)
}

func NewMaterialRepo(db *gorm.DB, baseLog *logger.Logger) MaterialRepo {
	return vault.NewMaterialRepo(db, baseLog)
}
func NewArtifactRepo(db *gorm.DB, baseLog *logger.Logger) ArtifactRepo {
	return vault.NewArtifactRepo(db, baseLog)
}

func NewActivityRepo(db *gorm.DB, baseLog *logger.Logger) ActivityRepo {
	return activity.NewActivityRepo(db, baseLog)
}
