package catalog

import (
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Course struct {
	ID      uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title   string    `gorm:"not null" json:"title"`
	Module  string    `json:"module"`
	XP      int       `gorm:"not null;default:100" json:"xp"`
	VideoID string    `json:"videoId"`
}

func (Course) TableName() string { return "course" }

func (c *Course) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	if c.XP == 0 {
		c.XP = 100
	}
	return nil
}

const (
	QuestionSingle   = "single"
	QuestionMultiple = "multiple"
	QuestionFill     = "fill"
	QuestionMatch    = "match"
)

type QuizOption struct {
	Text       string `json:"text,omitempty"`
	IsCorrect  bool   `json:"isCorrect"`
	MatchLeft  string `json:"matchLeft,omitempty"`
	MatchRight string `json:"matchRight,omitempty"`
}

type QuizQuestion struct {
	Text              string       `json:"questionText"`
	Type              string       `json:"type"`
	Difficulty        int          `json:"difficulty"`
	Options           []QuizOption `json:"options"`
	CorrectAnswerText string       `json:"correctAnswerText,omitempty"`
	Explanation       string       `json:"explanation,omitempty"`
}

// Quiz belongs to a lesson by loose identifier; lessons are not modelled.
type Quiz struct {
	ID        uuid.UUID                         `gorm:"type:uuid;primaryKey" json:"id"`
	LessonID  string                            `gorm:"not null;index" json:"lessonId"`
	Questions datatypes.JSONSlice[QuizQuestion] `gorm:"not null" json:"questions"`
}

func (Quiz) TableName() string { return "quiz" }

func (q *Quiz) BeforeCreate(tx *gorm.DB) error {
	if q.ID == uuid.Nil {
		q.ID = uuid.New()
	}
	return nil
}
