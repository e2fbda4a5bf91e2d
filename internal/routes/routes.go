package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/roofline/backend/internal/config"
	"github.com/roofline/backend/internal/handlers"
	"github.com/roofline/backend/internal/middleware"
	"github.com/roofline/backend/internal/services/billing"
	"github.com/roofline/backend/internal/services/commission"
	"github.com/roofline/backend/internal/services/lead"
)

// RegisterRoutes configures all API routes
func RegisterRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config, engine *commission.Engine) {
	// 60 requests per second per IP with a burst of 120
	rateLimiter := middleware.NewRateLimiter(60, 120)
	router.Use(rateLimiter.Middleware())

	leadService := lead.NewLeadService(db, engine)
	billingService := billing.NewBillingService(db, engine)

	authHandler := handlers.NewAuthHandler(db, cfg)
	adminHandler := handlers.NewAdminHandler(db)
	planHandler := handlers.NewPlanHandler(db)
	settingHandler := handlers.NewLocationSettingHandler(db)
	leadHandler := handlers.NewLeadHandler(leadService)
	billingHandler := handlers.NewBillingHandler(billingService)
	commissionHandler := handlers.NewCommissionHandler(db, engine)
	teamLeadHandler := handlers.NewTeamLeadHandler(db)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/login", authHandler.Login)
		authGroup.GET("/me", middleware.AuthMiddleware(), authHandler.Me)
	}

	// Admin-only configuration surface
	adminGroup := router.Group("/api/admin")
	adminGroup.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		adminGroup.POST("/users", adminHandler.CreateUser)
		adminGroup.GET("/users", adminHandler.ListUsers)
		adminGroup.PUT("/users/:id/plan", adminHandler.AssignPlan)
		adminGroup.POST("/locations", adminHandler.CreateLocation)
		adminGroup.GET("/locations", adminHandler.ListLocations)

		adminGroup.POST("/plans", planHandler.CreatePlan)
		adminGroup.GET("/plans", planHandler.ListPlans)
		adminGroup.PUT("/plans/:id", planHandler.UpdatePlan)
		adminGroup.DELETE("/plans/:id", planHandler.ArchivePlan)

		adminGroup.PUT("/location-settings", settingHandler.UpsertSetting)
		adminGroup.GET("/locations/:locationId/settings", settingHandler.ListSettings)
	}

	// Lead and billing surface for office staff and managers
	leadGroup := router.Group("/api/leads")
	leadGroup.Use(middleware.AuthMiddleware(), middleware.ManagerMiddleware())
	{
		leadGroup.POST("", leadHandler.CreateLead)
		leadGroup.GET("", leadHandler.ListLeads)
		leadGroup.GET("/:id", leadHandler.GetLead)
		leadGroup.PUT("/:id/assignments", leadHandler.UpdateAssignments)
		leadGroup.PUT("/:id/status", leadHandler.UpdateStatus)
		leadGroup.DELETE("/:id", leadHandler.DeleteLead)

		leadGroup.GET("/:id/invoices", billingHandler.ListInvoices)
		leadGroup.GET("/:id/payments", billingHandler.ListPayments)
	}

	billingGroup := router.Group("/api/billing")
	billingGroup.Use(middleware.AuthMiddleware(), middleware.ManagerMiddleware())
	{
		billingGroup.POST("/invoices", billingHandler.CreateInvoice)
		billingGroup.PUT("/invoices/:id", billingHandler.UpdateInvoice)
		billingGroup.DELETE("/invoices/:id", billingHandler.DeleteInvoice)
		billingGroup.POST("/payments", billingHandler.RecordPayment)
		billingGroup.POST("/payments/:id/clear", billingHandler.MarkPaymentCleared)
	}

	// Ledger reads for any authenticated user; mutations for admins
	commissionGroup := router.Group("/api/commissions")
	commissionGroup.Use(middleware.AuthMiddleware())
	{
		commissionGroup.GET("", commissionHandler.ListCommissions)
		commissionGroup.GET("/:id", commissionHandler.GetCommission)

		adminOnly := commissionGroup.Group("")
		adminOnly.Use(middleware.AdminMiddleware())
		{
			adminOnly.POST("/:id/approve", commissionHandler.ApproveCommission)
			adminOnly.POST("/:id/cancel", commissionHandler.CancelCommission)
			adminOnly.POST("/:id/payout", commissionHandler.RecordPayout)
			adminOnly.POST("/:id/recalculate", commissionHandler.RecalculateCommission)
		}
	}

	discrepancyGroup := router.Group("/api/discrepancies")
	discrepancyGroup.Use(middleware.AuthMiddleware(), middleware.AdminMiddleware())
	{
		discrepancyGroup.GET("", commissionHandler.ListDiscrepancies)
		discrepancyGroup.POST("/:id/resolve", commissionHandler.ResolveDiscrepancy)
	}

	teamLeadGroup := router.Group("/api/team-lead-commissions")
	teamLeadGroup.Use(middleware.AuthMiddleware())
	{
		teamLeadGroup.GET("", teamLeadHandler.ListTeamLeadCommissions)
		teamLeadGroup.POST("/compute", middleware.AdminMiddleware(), teamLeadHandler.Compute)

		adminOnly := teamLeadGroup.Group("")
		adminOnly.Use(middleware.AdminMiddleware())
		{
			adminOnly.POST("/:id/approve", teamLeadHandler.ApproveTeamLeadCommission)
			adminOnly.POST("/:id/cancel", teamLeadHandler.CancelTeamLeadCommission)
			adminOnly.POST("/:id/payout", teamLeadHandler.RecordTeamLeadPayout)
		}
	}
}
