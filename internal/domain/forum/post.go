package forum

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Post struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"not null;index" json:"username"`
	Avatar    string    `json:"avatar"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	Category  string    `gorm:"not null;default:General" json:"category"`
	Flagged   bool      `gorm:"not null;default:false" json:"flagged"`
	CreatedAt time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt time.Time `gorm:"not null" json:"updatedAt"`

	Comments []*PostComment `gorm:"foreignKey:PostID" json:"comments"`
	Likes    []*PostLike    `gorm:"foreignKey:PostID" json:"-"`
}

func (Post) TableName() string { return "post" }

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if p.Category == "" {
		p.Category = "General"
	}
	return nil
}

// LikedBy lists the usernames that currently like the post.
func (p *Post) LikedBy() []string {
	out := make([]string, 0, len(p.Likes))
	for _, l := range p.Likes {
		out = append(out, l.Username)
	}
	return out
}

type PostComment struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PostID    uuid.UUID `gorm:"type:uuid;not null;index" json:"postId"`
	Username  string    `gorm:"not null" json:"username"`
	Content   string    `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (PostComment) TableName() string { return "post_comment" }

func (c *PostComment) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

type PostLike struct {
	PostID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"postId"`
	Username  string    `gorm:"primaryKey" json:"username"`
	CreatedAt time.Time `gorm:"not null" json:"createdAt"`
}

func (PostLike) TableName() string { return "post_like" }
