package main

import (
	"context"
	"log"

	"pdf-rag-be/internal/bootstrap"
	"pdf-rag-be/internal/config"
	"pdf-rag-be/internal/server"
	"pdf-rag-be/internal/tracer"
	"pdf-rag-be/pkg/database"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Initialize Database
	gormDB, err := database.NewGormDBFromDSN(cfg.Database.Connection)
	if err != nil {
		log.Panicf("Unable to connect to GORM DB: %v", err)
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Logger.Sync()
	defer container.JobQueue.Close()

	// 4. Start Background Services
	log.Println("Background: Starting Ingestion Consumer...")
	if err := container.JobQueue.Consume(context.Background(), container.IngestionService.HandleJob); err != nil {
		log.Fatalf("Failed to start ingestion consumer: %v", err)
	}

	go func() {
		log.Println("Background: Starting Cleanup Sweep...")
		container.CleanupService.Start(context.Background())
	}()

	// 5. Initialize Server
	srv := server.New(cfg, container)

	// 6. Run Server
	log.Fatal(srv.Run())
}
