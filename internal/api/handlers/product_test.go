package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"bcsync/internal/api/middleware"
	"bcsync/internal/auth"
	"bcsync/internal/logger"
	"bcsync/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

const testSecret = "test-secret"

func newProductRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Product{}))

	handler := NewProductHandler(db, logger.New("error"))

	router := gin.New()
	router.Use(middleware.PriceGate(testSecret))
	router.GET("/products", handler.List)
	router.GET("/products/:id", handler.Get)

	return router, db
}

func seedProduct(t *testing.T, db *gorm.DB) models.Product {
	t.Helper()
	price := "19.99"
	product := models.Product{
		SKU:        "A100",
		Name:       "Widget",
		Price:      &price,
		Visibility: models.VisibilityVisible,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func TestList_HidesPricesForAnonymousVisitors(t *testing.T) {
	router, db := newProductRouter(t)
	seedProduct(t, db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data []models.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Data, 1)
	assert.Nil(t, response.Data[0].Price)
}

func TestList_ShowsPricesForVerifiedVisitors(t *testing.T) {
	router, db := newProductRouter(t)
	seedProduct(t, db)

	token, err := auth.GenerateToken("+15551234567", []byte(testSecret), time.Hour)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data []models.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Data, 1)
	require.NotNil(t, response.Data[0].Price)
	assert.Equal(t, "19.99", *response.Data[0].Price)
}

func TestGet_InvalidTokenStillHidesPrices(t *testing.T) {
	router, db := newProductRouter(t)
	product := seedProduct(t, db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/products/"+product.ID, nil)
	req.Header.Set("Authorization", "Bearer garbage")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Data models.Product `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	assert.Nil(t, response.Data.Price)
}
