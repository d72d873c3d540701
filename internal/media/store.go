package media

import (
	"context"
	"fmt"
	"strings"

	"bcsync/internal/logger"
	"bcsync/internal/models"

	"gorm.io/gorm"
)

// Store keeps imported binaries as durable media assets addressed by id.
type Store struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewStore(db *gorm.DB, logger *logger.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Import persists one binary and returns its asset id.
func (s *Store) Import(ctx context.Context, data []byte, contentType, filenameHint string) (string, error) {
	asset := models.MediaAsset{
		Filename:    filename(filenameHint, contentType),
		ContentType: contentType,
		Size:        int64(len(data)),
		Data:        data,
	}

	if err := s.db.WithContext(ctx).Create(&asset).Error; err != nil {
		return "", fmt.Errorf("failed to store asset: %w", err)
	}

	s.logger.Debug("Imported asset %s (%s, %d bytes)", asset.ID, asset.ContentType, asset.Size)
	return asset.ID, nil
}

func (s *Store) Delete(ctx context.Context, assetID string) error {
	err := s.db.WithContext(ctx).Delete(&models.MediaAsset{}, "id = ?", assetID).Error
	if err != nil {
		return fmt.Errorf("failed to delete asset %s: %w", assetID, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, assetID string) (*models.MediaAsset, error) {
	var asset models.MediaAsset
	if err := s.db.WithContext(ctx).First(&asset, "id = ?", assetID).Error; err != nil {
		return nil, fmt.Errorf("failed to load asset %s: %w", assetID, err)
	}
	return &asset, nil
}

var extensions = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/gif":  ".gif",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

func filename(hint, contentType string) string {
	name := strings.TrimSpace(hint)
	if name == "" {
		name = "asset"
	}
	if ext := extensions[strings.ToLower(contentType)]; ext != "" && !strings.HasSuffix(strings.ToLower(name), ext) {
		name += ext
	}
	return name
}
