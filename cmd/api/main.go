package main

import (
	"fmt"
	"log"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/roofline/backend/internal/config"
	"github.com/roofline/backend/internal/database"
	"github.com/roofline/backend/internal/database/migrations"
	"github.com/roofline/backend/internal/jobs"
	"github.com/roofline/backend/internal/notify"
	"github.com/roofline/backend/internal/queue"
	"github.com/roofline/backend/internal/routes"
	"github.com/roofline/backend/internal/services/commission"
)

func main() {
	cfg := config.LoadConfig()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if err := migrations.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Notification jobs run on the database queue by default; Redis is
	// available for deployments that already run one.
	var jobQueue queue.QueueInterface
	switch cfg.QueueBackend {
	case "redis":
		redisQueue, err := queue.NewRedisQueue(cfg.Redis.URL, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatalf("Failed to connect to redis queue: %v", err)
		}
		jobQueue = redisQueue
	default:
		jobQueue = queue.NewQueue(db)
	}

	jobs.RegisterJobHandlers(jobQueue, db, jobs.LogSender{})
	jobQueue.StartProcessing()
	defer jobQueue.StopProcessing()

	store := database.NewCommissionStore(db)
	engine := commission.NewEngine(store, notify.NewQueueNotifier(jobQueue))

	periodClose := jobs.NewPeriodCloseJob(db, store)
	if err := periodClose.Start(); err != nil {
		log.Fatalf("Failed to start period close job: %v", err)
	}
	defer periodClose.Stop()

	router := gin.Default()
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.FrontendURL},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	routes.RegisterRoutes(router, db, cfg, engine)

	fmt.Printf("Roofline API server running on port %s\n", cfg.Server.Port)
	if err := router.Run(":" + cfg.Server.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
