package models

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// MandarinLanguageID identifies Mandarin in the languages table. Its
// learners pick a script variant that changes how the language is described.
const MandarinLanguageID uint = 2

type Language struct {
	ID   uint   `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"not null;size:100"`
}

func (Language) TableName() string {
	return "languages"
}

type Podcast struct {
	ID               uint           `json:"id" gorm:"primaryKey"`
	Title            string         `json:"title" gorm:"size:255"`
	Levels           datatypes.JSON `json:"levels" gorm:"type:json"` // []string
	TargetLanguageID uint           `json:"target_language_id" gorm:"not null"`
	UploadedByUserID uint           `json:"uploaded_by_user_id" gorm:"not null;index"`

	TargetLanguage Language `json:"-" gorm:"foreignKey:TargetLanguageID"`
}

func (Podcast) TableName() string {
	return "podcasts"
}

// LevelList decodes Levels, treating malformed data as no levels.
func (p *Podcast) LevelList() []string {
	var levels []string
	if len(p.Levels) == 0 {
		return levels
	}
	if err := json.Unmarshal(p.Levels, &levels); err != nil {
		return nil
	}
	return levels
}

type Episode struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	PodcastID uint   `json:"podcast_id" gorm:"not null;index"`
	Title     string `json:"title" gorm:"size:255"`

	Podcast Podcast `json:"-" gorm:"foreignKey:PodcastID"`
}

func (Episode) TableName() string {
	return "episodes"
}

// EpisodeLanguage is the language context of an episode's podcast.
type EpisodeLanguage struct {
	EpisodeID    uint     `json:"episode_id"`
	PodcastID    uint     `json:"podcast_id"`
	LanguageID   uint     `json:"language_id"`
	LanguageName string   `json:"language_name"`
	Levels       []string `json:"levels"`
}
