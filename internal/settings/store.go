package settings

import (
	"errors"
	"fmt"
	"time"

	"bcsync/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// KeyLastSync holds the sync watermark as an RFC 3339 timestamp.
const KeyLastSync = "last_sync_time"

// Store reads and writes the flat key/value settings table.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Get(key string) (string, error) {
	var setting models.Setting
	if err := s.db.First(&setting, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read setting %q: %w", key, err)
	}
	return setting.Value, nil
}

func (s *Store) Set(key, value string) error {
	setting := models.Setting{Key: key, Value: value}
	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value"}),
	}).Create(&setting).Error
	if err != nil {
		return fmt.Errorf("failed to write setting %q: %w", key, err)
	}
	return nil
}

// Watermark returns the last-sync timestamp, or the zero time when no sync
// has completed yet.
func (s *Store) Watermark() (time.Time, error) {
	raw, err := s.Get(KeyLastSync)
	if err != nil || raw == "" {
		return time.Time{}, err
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid watermark %q: %w", raw, err)
	}
	return ts, nil
}

func (s *Store) SetWatermark(ts time.Time) error {
	return s.Set(KeyLastSync, ts.UTC().Format(time.RFC3339))
}
