package sync

import (
	"testing"

	"bcsync/internal/models"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Product{},
		&models.Category{},
		&models.MediaAsset{},
		&models.SyncRun{},
		&models.Setting{},
	))

	return db
}

func strPtr(s string) *string { return &s }

func floatPtr(f float64) *float64 { return &f }
