package settings

import (
	"testing"
	"time"

	"bcsync/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Setting{}))

	return New(db)
}

func TestGet_MissingKeyIsEmpty(t *testing.T) {
	s := newTestStore(t)

	value, err := s.Get("nope")
	require.NoError(t, err)
	assert.Empty(t, value)
}

func TestSet_Upserts(t *testing.T) {
	s := newTestStore(t)

	require.NoError(t, s.Set("k", "v1"))
	require.NoError(t, s.Set("k", "v2"))

	value, err := s.Get("k")
	require.NoError(t, err)
	assert.Equal(t, "v2", value)
}

func TestWatermark_RoundTrip(t *testing.T) {
	s := newTestStore(t)

	watermark, err := s.Watermark()
	require.NoError(t, err)
	assert.True(t, watermark.IsZero())

	ts := time.Date(2026, 3, 1, 15, 4, 5, 0, time.UTC)
	require.NoError(t, s.SetWatermark(ts))

	watermark, err = s.Watermark()
	require.NoError(t, err)
	assert.True(t, watermark.Equal(ts))
}
