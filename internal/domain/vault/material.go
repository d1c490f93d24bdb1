package vault

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	StatusStored           = "stored"
	StatusTextExtracted    = "text_extracted"
	StatusExtractionFailed = "extraction_failed"

	ArtifactSummary    = "summary"
	ArtifactFlashcards = "flashcards"

	DefaultCategory = "General Study"
)

// StudyMaterial is an uploaded document. Extraction outcome lives in Status
// and ExtractionError; ExtractedText only ever holds document text.
type StudyMaterial struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID          uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	Title           string    `gorm:"not null" json:"title"`
	FileURL         string    `gorm:"not null" json:"fileUrl"`
	FileType        string    `json:"fileType"`
	StorageKey      string    `gorm:"not null" json:"-"`
	Category        string    `gorm:"not null;default:'General Study'" json:"category"`
	SizeBytes       int64     `json:"sizeBytes"`
	Status          string    `gorm:"not null;index" json:"status"`
	ExtractedText   string    `gorm:"type:text" json:"extractedText"`
	ExtractionError string    `json:"extractionError,omitempty"`
	CreatedAt       time.Time `gorm:"not null;index" json:"createdAt"`
	UpdatedAt       time.Time `gorm:"not null" json:"updatedAt"`
}

func (StudyMaterial) TableName() string { return "study_material" }

func (m *StudyMaterial) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	if m.Category == "" {
		m.Category = DefaultCategory
	}
	if m.Status == "" {
		m.Status = StatusStored
	}
	return nil
}

func (m *StudyMaterial) HasText() bool {
	return m != nil && m.Status == StatusTextExtracted
}

// StudyArtifact is a generated summary or flashcard set.
type StudyArtifact struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	MaterialID uuid.UUID `gorm:"type:uuid;not null;index" json:"materialId"`
	UserID     uuid.UUID `gorm:"type:uuid;not null;index" json:"userId"`
	Type       string    `gorm:"not null" json:"type"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	CreatedAt  time.Time `gorm:"not null" json:"createdAt"`
}

func (StudyArtifact) TableName() string { return "study_artifact" }

func (a *StudyArtifact) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
