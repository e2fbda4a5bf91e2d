package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/roofline/backend/internal/models"
)

// LocationSettingHandler handles per-(location, user) commission overrides
type LocationSettingHandler struct {
	db *gorm.DB
}

// NewLocationSettingHandler creates a new location setting handler
func NewLocationSettingHandler(db *gorm.DB) *LocationSettingHandler {
	return &LocationSettingHandler{db: db}
}

// LocationSettingRequest represents an upsert of a location override.
// Omitted override fields fall through to the user's plan.
type LocationSettingRequest struct {
	LocationID          uuid.UUID        `json:"location_id" binding:"required"`
	UserID              uuid.UUID        `json:"user_id" binding:"required"`
	CommissionEnabled   *bool            `json:"commission_enabled"`
	CommissionType      *string          `json:"commission_type"`
	CommissionRate      *decimal.Decimal `json:"commission_rate"`
	FlatAmount          *decimal.Decimal `json:"flat_amount"`
	PaidWhen            *string          `json:"paid_when"`
	TeamLeadForLocation *bool            `json:"team_lead_for_location"`
	IncludeOwnSales     *bool            `json:"include_own_sales"`
}

// UpsertSetting creates or updates the override for (location, user)
func (h *LocationSettingHandler) UpsertSetting(c *gin.Context) {
	var req LocationSettingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var commissionType *models.CommissionType
	if req.CommissionType != nil {
		parsed, err := models.ParseCommissionType(*req.CommissionType)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		commissionType = &parsed
	}
	var paidWhen *models.PaidWhen
	if req.PaidWhen != nil {
		parsed, err := models.ParsePaidWhen(*req.PaidWhen)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		paidWhen = &parsed
	}

	var setting models.LocationCommissionSetting
	err := h.db.Where("location_id = ? AND user_id = ?", req.LocationID, req.UserID).First(&setting).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		setting = models.LocationCommissionSetting{
			ID:                uuid.New(),
			LocationID:        req.LocationID,
			UserID:            req.UserID,
			CommissionEnabled: true,
		}
	} else if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if req.CommissionEnabled != nil {
		setting.CommissionEnabled = *req.CommissionEnabled
	}
	setting.CommissionType = commissionType
	setting.CommissionRate = req.CommissionRate
	setting.FlatAmount = req.FlatAmount
	setting.PaidWhen = paidWhen
	if req.TeamLeadForLocation != nil {
		setting.TeamLeadForLocation = *req.TeamLeadForLocation
	}
	if req.IncludeOwnSales != nil {
		setting.IncludeOwnSales = *req.IncludeOwnSales
	}

	if err := h.db.Save(&setting).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "setting": setting})
}

// ListSettings lists overrides for a location
func (h *LocationSettingHandler) ListSettings(c *gin.Context) {
	locationID, err := uuid.Parse(c.Param("locationId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location id"})
		return
	}

	var settings []models.LocationCommissionSetting
	if err := h.db.Where("location_id = ?", locationID).Find(&settings).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "settings": settings})
}
