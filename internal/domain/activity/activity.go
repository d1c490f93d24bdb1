package activity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Activity is one line of the public feed. Rows are never updated.
type Activity struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"not null;index" json:"username"`
	Avatar    string    `json:"avatar"`
	Action    string    `gorm:"not null" json:"action"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `gorm:"not null;index" json:"timestamp"`
}

func (Activity) TableName() string { return "activity" }

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
