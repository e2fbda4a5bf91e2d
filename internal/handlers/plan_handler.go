package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/roofline/backend/internal/models"
)

// PlanHandler handles commission plan administration
type PlanHandler struct {
	db *gorm.DB
}

// NewPlanHandler creates a new plan handler
func NewPlanHandler(db *gorm.DB) *PlanHandler {
	return &PlanHandler{db: db}
}

// PlanRequest represents a request to create or update a commission plan
type PlanRequest struct {
	Name           string           `json:"name" binding:"required"`
	CommissionType string           `json:"commission_type" binding:"required"`
	CommissionRate *decimal.Decimal `json:"commission_rate"`
	FlatAmount     *decimal.Decimal `json:"flat_amount"`
	PaidWhen       string           `json:"paid_when" binding:"required"`
	Description    string           `json:"description"`
}

func (r *PlanRequest) toPlan(plan *models.CommissionPlan) error {
	commissionType, err := models.ParseCommissionType(r.CommissionType)
	if err != nil {
		return err
	}
	paidWhen, err := models.ParsePaidWhen(r.PaidWhen)
	if err != nil {
		return err
	}
	plan.Name = r.Name
	plan.CommissionType = commissionType
	plan.CommissionRate = r.CommissionRate
	plan.FlatAmount = r.FlatAmount
	plan.PaidWhen = paidWhen
	plan.Description = r.Description
	return plan.Validate()
}

// CreatePlan creates a commission plan
func (h *PlanHandler) CreatePlan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	plan := models.CommissionPlan{ID: uuid.New(), IsActive: true}
	if err := req.toPlan(&plan); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.Create(&plan).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "plan": plan})
}

// ListPlans lists commission plans, optionally including archived ones
func (h *PlanHandler) ListPlans(c *gin.Context) {
	query := h.db.Order("name")
	if c.Query("include_archived") != "true" {
		query = query.Where("is_active = ?", true)
	}

	var plans []models.CommissionPlan
	if err := query.Find(&plans).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "plans": plans})
}

// UpdatePlan edits a plan. Edits never retroactively change ledger rows:
// rows snapshot plan values at creation.
func (h *PlanHandler) UpdatePlan(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan id"})
		return
	}

	var plan models.CommissionPlan
	if err := h.db.First(&plan, "id = ?", planID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		return
	}

	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := req.toPlan(&plan); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.db.Save(&plan).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "plan": plan})
}

// ArchivePlan deactivates a plan. Plans are never physically deleted.
func (h *PlanHandler) ArchivePlan(c *gin.Context) {
	planID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid plan id"})
		return
	}

	var plan models.CommissionPlan
	if err := h.db.First(&plan, "id = ?", planID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "plan not found"})
		return
	}

	plan.IsActive = false
	if err := h.db.Save(&plan).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "plan": plan})
}
