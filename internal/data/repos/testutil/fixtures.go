package testutil

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/vici-backend/internal/domain"
)

// SeedUser inserts a scholar with a unique username derived from name.
func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, name string, xp int) *types.User {
	tb.Helper()
	username := Unique(name)
	u := &types.User{
		ID:            uuid.New(),
		Username:      username,
		UsernameLower: strings.ToLower(username),
		Email:         strings.ToLower(username) + "@example.com",
		Password:      "pw",
		XP:            xp,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCourse(tb testing.TB, ctx context.Context, tx *gorm.DB, title string, xp int) *types.Course {
	tb.Helper()
	c := &types.Course{ID: uuid.New(), Title: title, Module: "Module 1", XP: xp}
	if err := tx.WithContext(ctx).Create(c).Error; err != nil {
		tb.Fatalf("seed course: %v", err)
	}
	return c
}

func SeedMaterial(tb testing.TB, ctx context.Context, tx *gorm.DB, userID uuid.UUID, status, text string) *types.StudyMaterial {
	tb.Helper()
	m := &types.StudyMaterial{
		ID:            uuid.New(),
		UserID:        userID,
		Title:         "notes",
		FileURL:       "https://storage.example.com/notes.pdf",
		FileType:      "application/pdf",
		StorageKey:    "vici_study_vault/" + userID.String() + "/notes.pdf",
		Status:        status,
		ExtractedText: text,
	}
	if err := tx.WithContext(ctx).Create(m).Error; err != nil {
		tb.Fatalf("seed material: %v", err)
	}
	return m
}

func PtrUUID(v uuid.UUID) *uuid.UUID { return &v }
