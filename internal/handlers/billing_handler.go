package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/roofline/backend/internal/models"
	"github.com/roofline/backend/internal/services/billing"
)

// BillingHandler handles invoice and payment endpoints
type BillingHandler struct {
	billingService *billing.BillingService
}

// NewBillingHandler creates a new billing handler
func NewBillingHandler(billingService *billing.BillingService) *BillingHandler {
	return &BillingHandler{billingService: billingService}
}

// CreateInvoiceRequest represents a new invoice for a lead
type CreateInvoiceRequest struct {
	LeadID uuid.UUID       `json:"lead_id" binding:"required"`
	Total  decimal.Decimal `json:"total" binding:"required"`
}

// CreateInvoice creates an invoice for a lead
func (h *BillingHandler) CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Total.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "total cannot be negative"})
		return
	}

	invoice, err := h.billingService.CreateInvoice(c.Request.Context(), req.LeadID, req.Total)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "invoice": invoice})
}

// UpdateInvoiceRequest changes an invoice total
type UpdateInvoiceRequest struct {
	Total decimal.Decimal `json:"total" binding:"required"`
}

// UpdateInvoice changes an invoice's total and re-bases commissions
func (h *BillingHandler) UpdateInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return
	}
	var req UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Total.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "total cannot be negative"})
		return
	}

	invoice, err := h.billingService.UpdateInvoiceTotal(c.Request.Context(), id, req.Total)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "invoice": invoice})
}

// DeleteInvoice soft-deletes an invoice and cancels open commissions
func (h *BillingHandler) DeleteInvoice(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice id"})
		return
	}
	if err := h.billingService.DeleteInvoice(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "message": "invoice deleted"})
}

// ListInvoices lists a lead's invoices
func (h *BillingHandler) ListInvoices(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead id"})
		return
	}
	invoices, err := h.billingService.GetInvoices(c.Request.Context(), leadID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "invoices": invoices})
}

// RecordPaymentRequest records a payment received against a lead
type RecordPaymentRequest struct {
	LeadID    uuid.UUID       `json:"lead_id" binding:"required"`
	InvoiceID *uuid.UUID      `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount" binding:"required"`
	Method    string          `json:"method" binding:"required"`
}

// RecordPayment records an uncleared payment
func (h *BillingHandler) RecordPayment(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}

	payment, err := h.billingService.RecordPayment(c.Request.Context(), req.LeadID, req.InvoiceID, req.Amount, models.PaymentMethod(req.Method))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "payment": payment})
}

// MarkPaymentCleared marks a payment as cleared and triggers commission
// processing for the lead
func (h *BillingHandler) MarkPaymentCleared(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payment id"})
		return
	}
	payment, err := h.billingService.MarkPaymentCleared(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payment": payment})
}

// ListPayments lists a lead's payments
func (h *BillingHandler) ListPayments(c *gin.Context) {
	leadID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid lead id"})
		return
	}
	payments, err := h.billingService.GetPayments(c.Request.Context(), leadID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "payments": payments})
}
