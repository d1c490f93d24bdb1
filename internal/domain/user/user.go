package user

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	RoleStudent    = "student"
	RoleScholar    = "scholar"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

func IsValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleScholar, RoleInstructor, RoleAdmin:
		return true
	default:
		return false
	}
}

// DayXP is one bar of the weekly activity chart.
type DayXP struct {
	Day string `json:"day"`
	XP  int    `json:"xp"`
}

var Weekdays = []string{"Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun"}

func EmptyWeek() datatypes.JSONSlice[DayXP] {
	out := make(datatypes.JSONSlice[DayXP], 0, len(Weekdays))
	for _, d := range Weekdays {
		out = append(out, DayXP{Day: d})
	}
	return out
}

type User struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username      string    `gorm:"uniqueIndex;not null;column:username" json:"username"`
	UsernameLower string    `gorm:"uniqueIndex;not null;column:username_lower" json:"-"`
	Email         string    `gorm:"uniqueIndex;not null;column:email" json:"email"`
	Password      string    `gorm:"not null;column:password" json:"-"`
	Role          string    `gorm:"not null;default:scholar;column:role" json:"role"`

	Avatar        string `gorm:"column:avatar" json:"avatar"`
	Major         string `gorm:"column:major" json:"major"`
	AcademicLevel string `gorm:"column:academic_level" json:"academicLevel"`

	XP             int                         `gorm:"not null;default:0;column:xp" json:"xp"`
	Level          int                         `gorm:"not null;default:1;column:level" json:"level"`
	CurrentStreak  int                         `gorm:"not null;default:0;column:current_streak" json:"currentStreak"`
	LastActiveDate string                      `gorm:"column:last_active_date" json:"lastActiveDate"`
	WeeklyActivity datatypes.JSONSlice[DayXP] `gorm:"column:weekly_activity" json:"weeklyActivity"`

	Banned bool `gorm:"not null;default:false;column:banned" json:"isBanned"`

	ResetTokenHash *string    `gorm:"index;column:reset_token_hash" json:"-"`
	ResetExpiresAt *time.Time `gorm:"column:reset_expires_at" json:"-"`

	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`
}

func (User) TableName() string { return "user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = RoleScholar
	}
	if u.Level == 0 {
		u.Level = 1
	}
	if len(u.WeeklyActivity) == 0 {
		u.WeeklyActivity = EmptyWeek()
	}
	return nil
}

type UserBadge struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"-"`
	UserID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge" json:"-"`
	Name     string    `gorm:"not null;uniqueIndex:idx_user_badge" json:"name"`
	EarnedAt time.Time `gorm:"not null" json:"earnedAt"`
}

func (UserBadge) TableName() string { return "user_badge" }

func (b *UserBadge) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.EarnedAt.IsZero() {
		b.EarnedAt = time.Now().UTC()
	}
	return nil
}

// Friendship is stored once per direction so "friends of X" is a single lookup.
type Friendship struct {
	UserID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"userId"`
	FriendID  uuid.UUID `gorm:"type:uuid;primaryKey;index" json:"friendId"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (Friendship) TableName() string { return "friendship" }

const (
	FriendRequestPending  = "pending"
	FriendRequestAccepted = "accepted"
	FriendRequestRejected = "rejected"
)

type FriendRequest struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	FromUserID  uuid.UUID  `gorm:"type:uuid;not null;index" json:"fromUserId"`
	ToUserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"toUserId"`
	Status      string     `gorm:"not null;default:pending;index" json:"status"`
	RespondedAt *time.Time `json:"respondedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"createdAt"`
	UpdatedAt   time.Time  `gorm:"not null" json:"updatedAt"`

	FromUsername string `gorm:"-" json:"fromUsername,omitempty"`
}

func (FriendRequest) TableName() string { return "friend_request" }

func (r *FriendRequest) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.Status == "" {
		r.Status = FriendRequestPending
	}
	return nil
}

type CourseEnrollment struct {
	UserID      uuid.UUID  `gorm:"type:uuid;primaryKey" json:"userId"`
	CourseID    uuid.UUID  `gorm:"type:uuid;primaryKey" json:"courseId"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
	CreatedAt   time.Time  `gorm:"not null" json:"enrolledAt"`
}

func (CourseEnrollment) TableName() string { return "course_enrollment" }
