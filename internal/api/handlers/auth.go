package handlers

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"bcsync/internal/auth"
	"bcsync/internal/config"
	"bcsync/internal/logger"
	"bcsync/internal/models"
	"bcsync/internal/sms"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const (
	verificationTTL = 10 * time.Minute
	tokenTTL        = 24 * time.Hour
)

// AuthHandler runs the phone verification flow that unlocks prices for
// storefront visitors. The code travels out of band; the storefront polls
// the session until it is confirmed, then fetches a bearer token.
type AuthHandler struct {
	db     *gorm.DB
	logger *logger.Logger
	config *config.Config
	sender sms.Sender
}

func NewAuthHandler(db *gorm.DB, logger *logger.Logger, cfg *config.Config, sender sms.Sender) *AuthHandler {
	return &AuthHandler{
		db:     db,
		logger: logger,
		config: cfg,
		sender: sender,
	}
}

// Start creates a verification session and sends the code.
func (h *AuthHandler) Start(c *gin.Context) {
	var request struct {
		Phone string `json:"phone" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	code, err := generateCode()
	if err != nil {
		h.logger.Error("Failed to generate verification code: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start verification"})
		return
	}

	verification := models.PhoneVerification{
		Phone:     request.Phone,
		Code:      code,
		ExpiresAt: time.Now().Add(verificationTTL),
	}
	if err := h.db.Create(&verification).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to start verification"})
		return
	}

	if err := h.sender.Send(request.Phone, code); err != nil {
		h.logger.Error("Failed to send verification code: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to send verification code"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": gin.H{"verification_id": verification.ID}})
}

// Confirm checks the submitted code against the session.
func (h *AuthHandler) Confirm(c *gin.Context) {
	var request struct {
		VerificationID string `json:"verification_id" binding:"required"`
		Code           string `json:"code" binding:"required"`
	}
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var verification models.PhoneVerification
	if err := h.db.First(&verification, "id = ?", request.VerificationID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Verification not found"})
		return
	}

	if time.Now().After(verification.ExpiresAt) {
		c.JSON(http.StatusGone, gin.H{"error": "Verification expired"})
		return
	}
	if verification.Code != request.Code {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid code"})
		return
	}

	verification.Verified = true
	if err := h.db.Save(&verification).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to confirm verification"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"verified": true}})
}

// Status is the polling endpoint for the storefront.
func (h *AuthHandler) Status(c *gin.Context) {
	var verification models.PhoneVerification
	if err := h.db.First(&verification, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Verification not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"verified": verification.Verified}})
}

// Token trades a confirmed verification for a bearer token.
func (h *AuthHandler) Token(c *gin.Context) {
	var verification models.PhoneVerification
	if err := h.db.First(&verification, "id = ?", c.Param("id")).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Verification not found"})
		return
	}

	if !verification.Verified {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Verification not confirmed"})
		return
	}

	token, err := auth.GenerateToken(verification.Phone, []byte(h.config.JWTSecret), tokenTTL)
	if err != nil {
		h.logger.Error("Failed to issue token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": gin.H{"token": token}})
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
