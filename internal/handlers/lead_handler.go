package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/roofline/backend/internal/models"
	"github.com/roofline/backend/internal/services/lead"
)

// LeadHandler handles lead endpoints
type LeadHandler struct {
	leadService *lead.LeadService
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(leadService *lead.LeadService) *LeadHandler {
	return &LeadHandler{leadService: leadService}
}

// CreateLeadRequest represents a new lead
type CreateLeadRequest struct {
	LocationID    uuid.UUID   `json:"location_id" binding:"required"`
	CustomerName  string      `json:"customer_name" binding:"required"`
	CustomerEmail string      `json:"customer_email"`
	CustomerPhone string      `json:"customer_phone"`
	Address       string      `json:"address"`
	Source        string      `json:"source"`
	Notes         string      `json:"notes"`
	CustomFields  models.JSON `json:"custom_fields"`
}

// CreateLead creates a new lead
func (h *LeadHandler) CreateLead(c *gin.Context) {
	var req CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.leadService.CreateLead(c.Request.Context(), &models.Lead{
		LocationID:    req.LocationID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		CustomerPhone: req.CustomerPhone,
		Address:       req.Address,
		Source:        req.Source,
		Notes:         req.Notes,
		CustomFields:  req.CustomFields,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "lead": created})
}

// GetLead returns a single lead
func (h *LeadHandler) GetLead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead id"})
		return
	}
	found, err := h.leadService.GetLead(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "lead not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "lead": found})
}

// ListLeads lists leads, optionally scoped to a location
func (h *LeadHandler) ListLeads(c *gin.Context) {
	var locationID *uuid.UUID
	if raw := c.Query("location_id"); raw != "" {
		parsed, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid location id"})
			return
		}
		locationID = &parsed
	}

	leads, err := h.leadService.ListLeads(c.Request.Context(), locationID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "leads": leads})
}

// UpdateAssignmentsRequest sets the commission-bearing participants on a lead
type UpdateAssignmentsRequest struct {
	SalesRepID          *uuid.UUID `json:"sales_rep_id"`
	MarketingRepID      *uuid.UUID `json:"marketing_rep_id"`
	SalesManagerID      *uuid.UUID `json:"sales_manager_id"`
	ProductionManagerID *uuid.UUID `json:"production_manager_id"`
}

// UpdateAssignments changes who works the lead
func (h *LeadHandler) UpdateAssignments(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead id"})
		return
	}
	var req UpdateAssignmentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := h.leadService.UpdateAssignments(c.Request.Context(), id, req.SalesRepID, req.MarketingRepID, req.SalesManagerID, req.ProductionManagerID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "lead": updated})
}

// UpdateStatusRequest moves a lead through the pipeline
type UpdateStatusRequest struct {
	Status    models.LeadStatus          `json:"status" binding:"required"`
	SubStatus models.ProductionSubStatus `json:"sub_status"`
}

// UpdateStatus changes the lead's status and production sub-status
func (h *LeadHandler) UpdateStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead id"})
		return
	}
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.SubStatus == "" {
		req.SubStatus = models.SubStatusNotScheduled
	}

	updated, err := h.leadService.UpdateStatus(c.Request.Context(), id, req.Status, req.SubStatus)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "lead": updated})
}

// DeleteLead soft-deletes a lead and cancels its open commissions
func (h *LeadHandler) DeleteLead(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead id"})
		return
	}
	if err := h.leadService.DeleteLead(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "lead deleted"})
}
