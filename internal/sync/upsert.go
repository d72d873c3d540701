package sync

import (
	"errors"
	"fmt"

	"bcsync/internal/logger"
	"bcsync/internal/models"
	"bcsync/internal/services/bc"

	"gorm.io/gorm"
)

// ProductUpsert is the idempotent create-or-update of one catalog record.
// Identity resolution order: SKU, then stored external id, then create.
// The unique index on SKU means a repeated upsert can never duplicate one.
type ProductUpsert struct {
	db         *gorm.DB
	categories *CategoryMapper
	overrides  map[string]string
	logger     *logger.Logger
}

type UpsertOutcome struct {
	ProductID string
	Created   bool
	Skipped   bool
}

func NewProductUpsert(db *gorm.DB, categories *CategoryMapper, overrides map[string]string, logger *logger.Logger) *ProductUpsert {
	return &ProductUpsert{
		db:         db,
		categories: categories,
		overrides:  overrides,
		logger:     logger,
	}
}

// Upsert writes a mapped item into the local catalog. Items without an
// external number are skipped, not failed. A nil price or quantity never
// clears the existing local value.
func (u *ProductUpsert) Upsert(item *bc.MappedItem) (*UpsertOutcome, error) {
	if item.SKU == "" {
		u.logger.Debug("Skipping item %s: no number", item.ExternalID)
		return &UpsertOutcome{Skipped: true}, nil
	}

	product, err := u.resolve(item)
	if err != nil {
		return nil, err
	}
	created := product == nil
	if created {
		product = &models.Product{SKU: item.SKU}
	}

	product.ExternalID = item.ExternalID
	product.SKU = item.SKU
	product.Name = item.Name
	product.Description = item.Description
	if item.Price != nil {
		product.Price = item.Price
	}
	if item.Quantity != nil {
		product.ManageStock = true
		product.StockQuantity = item.Quantity
	}
	product.StockStatus = bc.StockStatus(item.Blocked, product.StockQuantity)
	product.Visibility = bc.Visibility(item.Blocked)
	lastModified := item.LastModified
	product.LastSyncedAt = &lastModified

	if created {
		err = u.db.Create(product).Error
	} else {
		err = u.db.Save(product).Error
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save product %s: %w", item.SKU, err)
	}

	// Category assignment happens after save, with the textual override map
	// taking precedence over id-based mapping.
	if err := u.assignCategory(product, item); err != nil {
		return nil, err
	}

	return &UpsertOutcome{ProductID: product.ID, Created: created}, nil
}

// SetImages replaces (not merges) the product's image set. The first asset
// becomes the featured image, the rest the gallery, in download order.
func (u *ProductUpsert) SetImages(productID string, assetIDs []string) error {
	var product models.Product
	if err := u.db.First(&product, "id = ?", productID).Error; err != nil {
		return fmt.Errorf("failed to load product %s: %w", productID, err)
	}

	product.FeaturedAsset = nil
	product.GalleryAssets = nil
	if len(assetIDs) > 0 {
		product.FeaturedAsset = &assetIDs[0]
		product.GalleryAssets = assetIDs[1:]
	}

	if err := u.db.Save(&product).Error; err != nil {
		return fmt.Errorf("failed to save product images for %s: %w", productID, err)
	}
	return nil
}

func (u *ProductUpsert) resolve(item *bc.MappedItem) (*models.Product, error) {
	var product models.Product

	err := u.db.First(&product, "sku = ?", item.SKU).Error
	if err == nil {
		return &product, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to look up product by sku %s: %w", item.SKU, err)
	}

	if item.ExternalID != "" {
		err = u.db.First(&product, "external_id = ?", item.ExternalID).Error
		if err == nil {
			return &product, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("failed to look up product by external id %s: %w", item.ExternalID, err)
		}
	}

	return nil, nil
}

func (u *ProductUpsert) assignCategory(product *models.Product, item *bc.MappedItem) error {
	var categoryID string
	var err error

	code := ""
	if item.CategoryCode != nil {
		code = *item.CategoryCode
	}

	switch {
	case code != "" && u.overrides[code] != "":
		categoryID, err = u.categories.FindOrCreateByName(u.overrides[code])
	case item.CategoryID != nil && *item.CategoryID != "", code != "":
		externalID := ""
		if item.CategoryID != nil {
			externalID = *item.CategoryID
		}
		name := code
		if name == "" {
			name = externalID
		}
		categoryID, err = u.categories.Resolve(externalID, code, name, "")
	default:
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to map category for %s: %w", item.SKU, err)
	}

	if product.CategoryID != nil && *product.CategoryID == categoryID {
		return nil
	}
	product.CategoryID = &categoryID
	if err := u.db.Save(product).Error; err != nil {
		return fmt.Errorf("failed to save category assignment for %s: %w", item.SKU, err)
	}
	return nil
}
