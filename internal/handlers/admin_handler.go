package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/roofline/backend/internal/models"
	"github.com/roofline/backend/internal/utils"
)

// AdminHandler handles user and location administration
type AdminHandler struct {
	db *gorm.DB
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

// CreateUserRequest represents a new team member
type CreateUserRequest struct {
	Email            string      `json:"email" binding:"required,email"`
	Password         string      `json:"password" binding:"required,min=8"`
	FirstName        string      `json:"first_name" binding:"required"`
	LastName         string      `json:"last_name" binding:"required"`
	Role             models.Role `json:"role" binding:"required"`
	CommissionPlanID *uuid.UUID  `json:"commission_plan_id"`
	PhoneNumber      *string     `json:"phone_number"`
}

// CreateUser creates a team member
func (h *AdminHandler) CreateUser(c *gin.Context) {
	var req CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Role.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process password"})
		return
	}

	user := models.User{
		ID:               uuid.New(),
		Email:            req.Email,
		FirstName:        req.FirstName,
		LastName:         req.LastName,
		PasswordHash:     hash,
		Role:             req.Role,
		CommissionPlanID: req.CommissionPlanID,
		PhoneNumber:      req.PhoneNumber,
		IsActive:         true,
	}
	if err := h.db.Create(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "user": user})
}

// ListUsers lists team members, optionally by role
func (h *AdminHandler) ListUsers(c *gin.Context) {
	query := h.db.Order("created_at DESC")
	if raw := c.Query("role"); raw != "" {
		role := models.Role(raw)
		if !role.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		query = query.Where("role = ?", role)
	}
	var users []models.User
	if err := query.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "users": users})
}

// AssignPlanRequest sets a user's commission plan
type AssignPlanRequest struct {
	CommissionPlanID *uuid.UUID `json:"commission_plan_id"`
}

// AssignPlan attaches or detaches a commission plan on a user. Existing
// ledger rows keep their snapshots; only future rows resolve the new plan.
func (h *AdminHandler) AssignPlan(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
		return
	}
	var req AssignPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	user.CommissionPlanID = req.CommissionPlanID
	if err := h.db.Save(&user).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "user": user})
}

// CreateLocationRequest represents a new branch office
type CreateLocationRequest struct {
	Name  string `json:"name" binding:"required"`
	City  string `json:"city"`
	State string `json:"state"`
}

// CreateLocation creates a branch office
func (h *AdminHandler) CreateLocation(c *gin.Context) {
	var req CreateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	location := models.Location{
		Name:     req.Name,
		City:     req.City,
		State:    req.State,
		IsActive: true,
	}
	if err := h.db.Create(&location).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "location": location})
}

// ListLocations lists branch offices
func (h *AdminHandler) ListLocations(c *gin.Context) {
	var locations []models.Location
	if err := h.db.Order("name ASC").Find(&locations).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success", "locations": locations})
}
