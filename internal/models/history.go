package models

import (
	"time"

	"gorm.io/gorm"
)

// HistoryEntry records one finalized generation.
type HistoryEntry struct {
	ID         uint           `gorm:"primarykey" json:"id"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`
	RequestID  string         `gorm:"index" json:"request_id,omitempty"`
	Pattern    string         `gorm:"type:text;not null" json:"pattern"`
	Type       string         `gorm:"index" json:"type"`
	Style      string         `gorm:"index" json:"style"`
	Mode       string         `json:"mode"` // "markov" or "rules"
	Density    float64        `json:"density"`
	Complexity float64        `json:"complexity"`
	Tempo      int            `json:"tempo"`
	Valid      bool           `gorm:"default:true" json:"valid"`
	Issues     []string       `gorm:"serializer:json" json:"issues,omitempty"`
	Thoughts   []Thought      `gorm:"serializer:json" json:"thoughts,omitempty"`
	IsFavorite bool           `gorm:"default:false;index" json:"is_favorite"`
}

// Favorite is a pattern the user chose to keep. Favorites feed retraining.
type Favorite struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
	Pattern   string         `gorm:"type:text;not null" json:"pattern"`
	Name      string         `json:"name"`
	Style     string         `gorm:"index" json:"style"`
	Tags      []string       `gorm:"serializer:json" json:"tags,omitempty"`
	HistoryID *uint          `gorm:"index" json:"history_id,omitempty"`
}
