package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MediaAsset struct {
	ID          string    `json:"id" gorm:"type:uuid;primary_key"`
	Filename    string    `json:"filename" gorm:"not null"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Data        []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}

func (a *MediaAsset) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	return nil
}
