package models

import (
	"time"
)

// User mirrors the account table owned by the identity service.
// Only the learning preferences and profile fields are read here.
type User struct {
	ID     uint    `json:"id" gorm:"primaryKey"`
	Name   string  `json:"name" gorm:"not null;size:100"`
	Email  string  `json:"email" gorm:"uniqueIndex;not null;size:255"`
	Avatar *string `json:"avatar" gorm:"size:500"`

	// Learning preferences
	LearningLanguageID *uint   `json:"learning_language_id"`
	LanguageVariant    *string `json:"language_variant" gorm:"size:50"`
	Level              *string `json:"level" gorm:"size:50"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}

// LanguagePreferences is the subset of User used to contextualize grading.
type LanguagePreferences struct {
	LanguageID *uint   `json:"language_id"`
	Variant    *string `json:"variant"`
	Level      *string `json:"level"`
}
