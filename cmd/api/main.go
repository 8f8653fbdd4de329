package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/kujifair/kuji-backend/api/routes"
	"github.com/kujifair/kuji-backend/internal/config"
	"github.com/kujifair/kuji-backend/internal/handlers"
	mongorepo "github.com/kujifair/kuji-backend/internal/repositories/mongodb"
	"github.com/kujifair/kuji-backend/internal/services"
	mongodb "github.com/kujifair/kuji-backend/pkg/mongodb"
)

func main() {
	// .env is optional; real deployments configure through the environment
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer func() {
		if err = mongoClient.Disconnect(context.Background()); err != nil {
			log.Printf("Error disconnecting from MongoDB: %v", err)
		}
	}()

	db := mongoClient.Database(cfg.MongoDB.Database)

	// The unique indexes are part of the draw engine's correctness contract,
	// so index bootstrap failure is fatal.
	if err := mongorepo.EnsureIndexes(context.Background(), db); err != nil {
		log.Fatalf("Failed to ensure indexes: %v", err)
	}

	// Initialize repositories
	productRepo := mongorepo.NewProductRepository(db)
	ticketRepo := mongorepo.NewTicketRepository(db)
	tierRepo := mongorepo.NewPrizeTierRepository(db)
	drawRepo := mongorepo.NewDrawRecordRepository(db)
	rateRepo := mongorepo.NewRateConfigRepository(db)
	adminRepo := mongorepo.NewAdminUserRepository(db)

	// Initialize services
	rateService := services.NewRateService(rateRepo, cfg)
	productService := services.NewProductService(productRepo, tierRepo, ticketRepo, rateService)
	drawService := services.NewDrawService(productRepo, ticketRepo, tierRepo, drawRepo, cfg)
	reconciler := services.NewReconciler(productRepo, tierRepo, drawRepo)
	verificationService := services.NewVerificationService()
	authService := services.NewAuthService(adminRepo, cfg)

	// Initialize handlers
	handlerDeps := routes.HandlerDependencies{
		AuthHandler:    handlers.NewAuthHandler(authService),
		ProductHandler: handlers.NewProductHandler(productService),
		DrawHandler:    handlers.NewDrawHandler(drawService, reconciler),
		VerifyHandler:  handlers.NewVerifyHandler(verificationService),
		RateHandler:    handlers.NewRateHandler(rateService),
	}

	router := routes.SetupRouter(cfg, handlerDeps)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	log.Printf("Server starting on port %s", cfg.Server.Port)

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
