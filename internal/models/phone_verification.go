package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PhoneVerification is one out-of-band verification session. The storefront
// polls its status until the code is confirmed, then trades it for a bearer
// token that unlocks prices.
type PhoneVerification struct {
	ID        string    `json:"id" gorm:"type:uuid;primary_key"`
	Phone     string    `json:"phone" gorm:"index;not null"`
	Code      string    `json:"-" gorm:"not null"`
	Verified  bool      `json:"verified"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *PhoneVerification) BeforeCreate(tx *gorm.DB) error {
	if v.ID == "" {
		v.ID = uuid.New().String()
	}
	return nil
}
