package handlers

import (
	"errors"
	"net/http"

	"bcsync/internal/logger"
	"bcsync/internal/models"
	"bcsync/internal/services/bc"
	"bcsync/internal/sync"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type SyncHandler struct {
	engine *sync.Engine
	db     *gorm.DB
	logger *logger.Logger
}

func NewSyncHandler(engine *sync.Engine, db *gorm.DB, logger *logger.Logger) *SyncHandler {
	return &SyncHandler{
		engine: engine,
		db:     db,
		logger: logger,
	}
}

// Run triggers a sync pass. Mode defaults to incremental.
func (h *SyncHandler) Run(c *gin.Context) {
	var request struct {
		Mode string `json:"mode"`
	}
	c.ShouldBindJSON(&request)

	mode := sync.ModeIncremental
	switch request.Mode {
	case "", "incremental":
	case "full":
		mode = sync.ModeFull
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be full or incremental"})
		return
	}

	result, err := h.engine.Run(c.Request.Context(), mode)
	if err != nil {
		h.respondSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}

// DryRun previews what a sync would do. Read-only.
func (h *SyncHandler) DryRun(c *gin.Context) {
	rows, err := h.engine.DryRun(c.Request.Context())
	if err != nil {
		h.respondSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": rows})
}

// RebuildImages re-imports pictures for one SKU, or for every product with a
// SKU when none is given.
func (h *SyncHandler) RebuildImages(c *gin.Context) {
	var request struct {
		SKU string `json:"sku"`
	}
	c.ShouldBindJSON(&request)

	count, err := h.engine.RebuildImages(c.Request.Context(), request.SKU)
	if err != nil {
		h.respondSyncError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"rebuilt": count}})
}

// Runs lists recent sync runs, newest first.
func (h *SyncHandler) Runs(c *gin.Context) {
	var runs []models.SyncRun
	if err := h.db.Order("started_at desc").Limit(50).Find(&runs).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch sync runs"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": runs})
}

func (h *SyncHandler) respondSyncError(c *gin.Context, err error) {
	h.logger.Error("Sync request failed: %v", err)

	var configErr *sync.ConfigError
	var authErr *bc.AuthError
	var apiErr *bc.ApiError

	switch {
	case errors.As(err, &configErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": configErr.Error()})
	case errors.As(err, &authErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": authErr.Error()})
	case errors.As(err, &apiErr):
		c.JSON(http.StatusBadGateway, gin.H{"error": apiErr.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Sync failed"})
	}
}
