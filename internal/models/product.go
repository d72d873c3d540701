package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID            string     `json:"id" gorm:"type:uuid;primary_key"`
	ExternalID    string     `json:"external_id" gorm:"index"`
	SKU           string     `json:"sku" gorm:"uniqueIndex;not null"`
	Name          string     `json:"name" gorm:"not null"`
	Description   *string    `json:"description"`
	Price         *string    `json:"price" gorm:"type:decimal(10,2)"`
	ManageStock   bool       `json:"manage_stock"`
	StockQuantity *float64   `json:"stock_quantity"`
	StockStatus   string     `json:"stock_status" gorm:"default:instock"`
	Visibility    string     `json:"visibility" gorm:"default:visible"`
	CategoryID    *string    `json:"category_id" gorm:"type:uuid;index"`
	FeaturedAsset *string    `json:"featured_asset" gorm:"type:uuid"`
	GalleryAssets []string   `json:"gallery_assets" gorm:"serializer:json"`
	LastSyncedAt  *time.Time `json:"last_synced_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

const (
	StockStatusInStock    = "instock"
	StockStatusOutOfStock = "outofstock"
)

const (
	VisibilityVisible = "visible"
	VisibilityHidden  = "hidden"
)

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	return nil
}
