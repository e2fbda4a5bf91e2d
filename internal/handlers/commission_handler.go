package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/roofline/backend/internal/database"
	"github.com/roofline/backend/internal/models"
	"github.com/roofline/backend/internal/services/commission"
)

// CommissionHandler handles the commission ledger endpoints
type CommissionHandler struct {
	db     *gorm.DB
	engine *commission.Engine
}

// NewCommissionHandler creates a new commission handler
func NewCommissionHandler(db *gorm.DB, engine *commission.Engine) *CommissionHandler {
	return &CommissionHandler{db: db, engine: engine}
}

func (h *CommissionHandler) ledger() *commission.Ledger {
	return commission.NewLedger(database.NewCommissionStore(h.db))
}

// commissionErrorStatus maps ledger errors to HTTP statuses
func commissionErrorStatus(err error) int {
	switch {
	case errors.Is(err, commission.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, commission.ErrLockedAfterApproval), commission.IsInvalidTransition(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// ListCommissions lists ledger rows filtered by lead, user and status.
// Filters are validated before any query is built.
func (h *CommissionHandler) ListCommissions(c *gin.Context) {
	var leadID, userID *uuid.UUID
	if raw := c.Query("lead_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead id"})
			return
		}
		leadID = &id
	}
	if raw := c.Query("user_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		userID = &id
	}
	var status *models.CommissionStatus
	if raw := c.Query("status"); raw != "" {
		s := models.CommissionStatus(raw)
		if !s.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
			return
		}
		status = &s
	}

	query := h.db.Order("created_at DESC")
	if leadID != nil {
		query = query.Where("lead_id = ?", *leadID)
	}
	if userID != nil {
		query = query.Where("user_id = ?", *userID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var rows []models.LeadCommission
	if err := query.Find(&rows).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "commissions": rows})
}

// GetCommission returns a single ledger row
func (h *CommissionHandler) GetCommission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid commission id"})
		return
	}
	var row models.LeadCommission
	if err := h.db.First(&row, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "commission not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "commission": row})
}

// ApproveCommission moves an eligible row to approved
func (h *CommissionHandler) ApproveCommission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid commission id"})
		return
	}
	row, err := h.ledger().Transition(c.Request.Context(), id, models.CommissionStatusApproved, nil)
	if err != nil {
		c.JSON(commissionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "commission": row})
}

// CancelCommission cancels a pending or eligible row
func (h *CommissionHandler) CancelCommission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid commission id"})
		return
	}
	row, err := h.ledger().Transition(c.Request.Context(), id, models.CommissionStatusCancelled, nil)
	if err != nil {
		c.JSON(commissionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "commission": row})
}

// PayoutRequest records an amount paid out against an approved row
type PayoutRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
}

// RecordPayout records a payout against an approved row
func (h *CommissionHandler) RecordPayout(c *gin.Context) {
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

	row, err := h.ledger().RecordPayout(c.Request.Context(), id, req.Amount)
	if err != nil {
		c.JSON(commissionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "commission": row})
}

// RecalculateCommission re-derives a row's amount from the lead's current
// invoice total. Locked rows are not mutated; the recorded discrepancy is
// returned alongside a conflict status.
func (h *CommissionHandler) RecalculateCommission(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid commission id"})
		return
	}
	row, err := h.engine.Recalculate(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, commission.ErrLockedAfterApproval) {
			c.JSON(http.StatusConflict, gin.H{"error": "commission is locked after approval", "commission": row})
			return
		}
		c.JSON(commissionErrorStatus(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "commission": row})
}

// ListDiscrepancies lists recorded discrepancies, optionally unresolved only
func (h *CommissionHandler) ListDiscrepancies(c *gin.Context) {
	query := h.db.Order("created_at DESC")
	if c.Query("unresolved") == "true" {
		query = query.Where("resolved = false")
	}
	var discrepancies []models.CommissionDiscrepancy
	if err := query.Find(&discrepancies).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "discrepancies": discrepancies})
}

// ResolveDiscrepancy marks a discrepancy as reviewed
func (h *CommissionHandler) ResolveDiscrepancy(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid discrepancy id"})
		return
	}
	var d models.CommissionDiscrepancy
	if err := h.db.First(&d, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "discrepancy not found"})
		return
	}
	if err := h.db.Model(&d).Updates(map[string]interface{}{
		"resolved":    true,
		"resolved_at": gorm.Expr("CURRENT_TIMESTAMP"),
	}).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "discrepancy resolved"})
}
