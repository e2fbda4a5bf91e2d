package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roofline/backend/internal/database"
	"github.com/roofline/backend/internal/models"
	"github.com/roofline/backend/internal/services/commission"
)

// TeamLeadHandler handles team lead aggregate commission endpoints
type TeamLeadHandler struct {
	db *gorm.DB
}

// NewTeamLeadHandler creates a new team lead handler
func NewTeamLeadHandler(db *gorm.DB) *TeamLeadHandler {
	return &TeamLeadHandler{db: db}
}

// ComputeRequest triggers a team lead aggregate computation
type ComputeRequest struct {
	LocationID uuid.UUID  `json:"location_id" binding:"required"`
	UserID     *uuid.UUID `json:"user_id"`
	Period     string     `json:"period" binding:"required"`
}

// Compute upserts aggregate rows for a period. With a user_id it computes
// one team lead; without, every team lead at the location.
func (h *TeamLeadHandler) Compute(c *gin.Context) {
	var req ComputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	period, err := commission.ParsePeriod(req.Period)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	aggregator := commission.NewTeamLeadAggregator(database.NewCommissionStore(h.db))
	ctx := c.Request.Context()

	if req.UserID != nil {
		row, err := aggregator.Compute(ctx, req.LocationID, *req.UserID, period)
		if err != nil {
			if errors.Is(err, commission.ErrConfigurationMissing) {
				c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "user is not an enabled team lead for this location"})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "commissions": []models.TeamLeadCommission{*row}})
		return
	}

	rows, err := aggregator.ComputeForLocation(ctx, req.LocationID, period)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "commissions": rows})
}

func (h *TeamLeadHandler) aggregator() *commission.TeamLeadAggregator {
	return commission.NewTeamLeadAggregator(database.NewCommissionStore(h.db))
}

// ApproveTeamLeadCommission moves an eligible aggregate row to approved
func (h *TeamLeadHandler) ApproveTeamLeadCommission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid commission id"})
		return
	}
	row, err := h.aggregator().Transition(c.Request.Context(), id, models.CommissionStatusApproved)
	if err != nil {
		c.JSON(commissionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "commission": row})
}

// CancelTeamLeadCommission cancels a pending or eligible aggregate row
func (h *TeamLeadHandler) CancelTeamLeadCommission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid commission id"})
		return
	}
	row, err := h.aggregator().Transition(c.Request.Context(), id, models.CommissionStatusCancelled)
	if err != nil {
		c.JSON(commissionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "commission": row})
}

// RecordTeamLeadPayout records a payout against an approved aggregate row
func (h *TeamLeadHandler) RecordTeamLeadPayout(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid commission id"})
		return
	}
	var req PayoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}

	row, err := h.aggregator().RecordPayout(c.Request.Context(), id, req.Amount)
	if err != nil {
		c.JSON(commissionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "commission": row})
}

// ListTeamLeadCommissions lists aggregate rows filtered by location, user
// and period. Filters are validated before any query is built.
func (h *TeamLeadHandler) ListTeamLeadCommissions(c *gin.Context) {
	var locationID, userID *uuid.UUID
	if raw := c.Query("location_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location id"})
			return
		}
		locationID = &id
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		userID = &id
	}
	period := c.Query("period")
	if period != "" {
		if _, err := commission.ParsePeriod(period); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	query := h.db.Order("period DESC")
	if locationID != nil {
		query = query.Where("location_id = ?", *locationID)
	}
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if period != "" {
		query = query.Where("period = ?", period)
	}

	var rows []models.TeamLeadCommission
	if err := query.Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "commissions": rows})
}
