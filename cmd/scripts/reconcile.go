package main

import (
	"context"
	"log"
	"os"

	"github.com/joho/godotenv"
	mongorepo "github.com/kujifair/kuji-backend/internal/repositories/mongodb"
	"github.com/kujifair/kuji-backend/internal/services"
	"github.com/kujifair/kuji-backend/pkg/mongodb"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Recomputes the cached remaining counters of one pool (or every pool) from
// the draw ledger. Run it after a crash mid-draw or whenever counter drift is
// suspected. Usage: reconcile [productID]
func main() {
	// Load .env file
	err := godotenv.Load()
	if err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	// Get MongoDB connection string from environment
	mongoURI := os.Getenv("MONGODB_URI")
	if mongoURI == "" {
		log.Fatal("MONGODB_URI environment variable is required")
	}

	// Get database name from environment
	dbName := os.Getenv("MONGODB_DATABASE")
	if dbName == "" {
		dbName = "kujifair"
	}

	// Connect to MongoDB
	client, err := mongodb.NewClient(mongoURI)
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(context.Background())

	db := client.Database(dbName)

	productRepo := mongorepo.NewProductRepository(db)
	tierRepo := mongorepo.NewPrizeTierRepository(db)
	drawRepo := mongorepo.NewDrawRecordRepository(db)
	reconciler := services.NewReconciler(productRepo, tierRepo, drawRepo)

	ctx := context.Background()

	if len(os.Args) > 1 {
		productID, err := primitive.ObjectIDFromHex(os.Args[1])
		if err != nil {
			log.Fatalf("Invalid product ID %q: %v", os.Args[1], err)
		}
		report, err := reconciler.ReconcileProduct(ctx, productID)
		if err != nil {
			log.Fatalf("Reconciliation failed: %v", err)
		}
		printReport(report)
		return
	}

	reports, err := reconciler.ReconcileAll(ctx)
	if err != nil {
		log.Fatalf("Reconciliation failed: %v", err)
	}
	for _, report := range reports {
		printReport(report)
	}
	log.Printf("Reconciled %d products", len(reports))
}

func printReport(report *services.ReconcileReport) {
	if report.Clean() {
		log.Printf("Product %s: counters consistent with ledger", report.ProductID.Hex())
		return
	}
	if report.ProductRepaired {
		log.Printf("Product %s: remaining repaired %d -> %d",
			report.ProductID.Hex(), report.ObservedRemaining, report.ExpectedRemaining)
	}
	for _, fix := range report.TierFixes {
		log.Printf("Product %s: tier %s (%s) repaired %d -> %d",
			report.ProductID.Hex(), fix.TierID.Hex(), fix.Level, fix.Observed, fix.Expected)
	}
}
