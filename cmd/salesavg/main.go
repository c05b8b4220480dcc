package main

import (
	"log"

	"stockflow-backend/internal/repository"
	"stockflow-backend/internal/service"
	"stockflow-backend/pkg/database"
	"stockflow-backend/pkg/logger"

	"github.com/joho/godotenv"
)

// One-shot run of the daily_sales_avg recompute, for cron or manual use.
func main() {
	// 1. Load env
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, relying on system env")
	}

	zlog := logger.New()
	defer zlog.Sync()

	// 2. Setup database
	db := database.ConnectDB()

	// 3. Recompute
	statsService := service.NewStatsService(
		repository.NewProductRepo(db),
		repository.NewSaleRepo(db),
		zlog,
	)

	updated, err := statsService.RecalculateSalesAverages()
	if err != nil {
		log.Fatalf("Failed to recompute sales averages: %v", err)
	}

	log.Printf("Success! Recomputed daily sales averages for %d products", updated)
}
