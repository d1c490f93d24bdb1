package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/vici-backend/internal/data/repos"
	"github.com/yungbote/vici-backend/internal/platform/logger"
)

type Repos struct {
	User       repos.UserRepo
	Badge      repos.BadgeRepo
	Friend     repos.FriendRepo
	Enrollment repos.EnrollmentRepo
	Message    repos.MessageRepo
	Post       repos.PostRepo
	Course     repos.CourseRepo
	Quiz       repos.QuizRepo
	Material   repos.MaterialRepo
	Artifact   repos.ArtifactRepo
	Activity   repos.ActivityRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:       repos.NewUserRepo(db, log),
		Badge:      repos.NewBadgeRepo(db, log),
		Friend:     repos.NewFriendRepo(db, log),
		Enrollment: repos.NewEnrollmentRepo(db, log),
		Message:    repos.NewMessageRepo(db, log),
		Post:       repos.NewPostRepo(db, log),
		Course:     repos.NewCourseRepo(db, log),
		Quiz:       repos.NewQuizRepo(db, log),
		Material:   repos.NewMaterialRepo(db, log),
		Artifact:   repos.NewArtifactRepo(db, log),
		Activity:   repos.NewActivityRepo(db, log),
	}
}
