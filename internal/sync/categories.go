package sync

import (
	"errors"
	"fmt"
	"strings"

	"bcsync/internal/logger"
	"bcsync/internal/models"

	"gorm.io/gorm"
)

// CategoryMapper resolves external category identifiers to local category
// records, creating missing ones on demand. Lookup goes through the stored
// external id first so renames on either side stay stable.
type CategoryMapper struct {
	db     *gorm.DB
	logger *logger.Logger
}

func NewCategoryMapper(db *gorm.DB, logger *logger.Logger) *CategoryMapper {
	return &CategoryMapper{db: db, logger: logger}
}

// Resolve returns the local category id for an external category, creating
// the category (and, one level deep, its parent) when nothing matches.
// Parent chains are taken as the ERP sends them; there is no cycle guard.
func (m *CategoryMapper) Resolve(externalID, externalCode, displayName, parentExternalID string) (string, error) {
	if externalID != "" {
		id, err := m.findByExternalID(externalID)
		if err != nil {
			return "", err
		}
		if id != "" {
			return id, nil
		}
	}

	var parentID *string
	if parentExternalID != "" {
		pid, err := m.Resolve(parentExternalID, "", parentExternalID, "")
		if err != nil {
			return "", fmt.Errorf("failed to resolve parent category %s: %w", parentExternalID, err)
		}
		parentID = &pid
	}

	slugSource := externalCode
	if slugSource == "" {
		slugSource = displayName
	}

	category := models.Category{
		Name:     displayName,
		Slug:     Slugify(slugSource),
		ParentID: parentID,
	}
	if externalID != "" {
		category.ExternalID = &externalID
	}
	if externalCode != "" {
		category.ExternalCode = &externalCode
	}

	if err := m.db.Create(&category).Error; err != nil {
		return "", fmt.Errorf("failed to create category %q: %w", displayName, err)
	}

	m.logger.Debug("Created category %q (%s)", category.Name, category.ID)
	return category.ID, nil
}

// FindOrCreateByName backs the override map: overrides address categories by
// their local display name, not by external id.
func (m *CategoryMapper) FindOrCreateByName(name string) (string, error) {
	var category models.Category
	err := m.db.First(&category, "name = ?", name).Error
	if err == nil {
		return category.ID, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to look up category %q: %w", name, err)
	}

	category = models.Category{
		Name: name,
		Slug: Slugify(name),
	}
	if err := m.db.Create(&category).Error; err != nil {
		return "", fmt.Errorf("failed to create category %q: %w", name, err)
	}
	return category.ID, nil
}

func (m *CategoryMapper) findByExternalID(externalID string) (string, error) {
	var category models.Category
	err := m.db.First(&category, "external_id = ?", externalID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to look up category by external id %s: %w", externalID, err)
	}
	return category.ID, nil
}

// Slugify lowercases and collapses everything that is not a letter or digit
// into single dashes.
func Slugify(s string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimRight(b.String(), "-")
}
