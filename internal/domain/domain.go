package domain

import (
	"gorm.io/datatypes"

	"github.com/yungbote/vici-backend/internal/domain/activity"
	"github.com/yungbote/vici-backend/internal/domain/catalog"
	"github.com/yungbote/vici-backend/internal/domain/forum"
	"github.com/yungbote/vici-backend/internal/domain/social"
	"github.com/yungbote/vici-backend/internal/domain/user"
	"github.com/yungbote/vici-backend/internal/domain/vault"
)

const (
	RoleStudent    = user.RoleStudent
	RoleScholar    = user.RoleScholar
	RoleInstructor = user.RoleInstructor
	RoleAdmin      = user.RoleAdmin

	FriendRequestPending  = user.FriendRequestPending
	FriendRequestAccepted = user.FriendRequestAccepted
	FriendRequestRejected = user.FriendRequestRejected

	MaterialStored           = vault.StatusStored
	MaterialTextExtracted    = vault.StatusTextExtracted
	MaterialExtractionFailed = vault.StatusExtractionFailed

	ArtifactSummary    = vault.ArtifactSummary
	ArtifactFlashcards = vault.ArtifactFlashcards
)

type User = user.User
type DayXP = user.DayXP
type UserBadge = user.UserBadge
type Friendship = user.Friendship
type FriendRequest = user.FriendRequest
type CourseEnrollment = user.CourseEnrollment

// EmptyWeek returns a zeroed Mon..Sun activity series.
func EmptyWeek() datatypes.JSONSlice[DayXP] { return user.EmptyWeek() }

type Message = social.Message

type Post = forum.Post
type PostComment = forum.PostComment
type PostLike = forum.PostLike

type Course = catalog.Course
type Quiz = catalog.Quiz
type QuizQuestion = catalog.QuizQuestion
type QuizOption = catalog.QuizOption

type StudyMaterial = vault.StudyMaterial
type StudyArtifact = vault.StudyArtifact

type Activity = activity.Activity

// Models lists every table in migration order.
func Models() []any {
	return []any{
		&User{},
		&UserBadge{},
		&Friendship{},
		&FriendRequest{},
		&CourseEnrollment{},
		&Message{},
		&Post{},
		&PostComment{},
		&PostLike{},
		&Course{},
		&Quiz{},
		&StudyMaterial{},
		&StudyArtifact{},
		&Activity{},
	}
}
