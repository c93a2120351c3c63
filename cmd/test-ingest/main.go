package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/jmcgrail/riskindex-engine/internal/database"
	"github.com/jmcgrail/riskindex-engine/internal/ingest"
	"github.com/jmcgrail/riskindex-engine/internal/services"
	"github.com/jmcgrail/riskindex-engine/pkg/config"
)

func main() {
	// Command line flags
	source := flag.String("source", "", "Fetch a single source URL instead of the configured list")
	store := flag.Bool("store", false, "Insert fetched signals into the database")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Initialize configuration
	cfg := config.New()

	if *source != "" {
		cfg.SignalSourceURLs = *source
	}
	if !cfg.HasSignalSources() {
		log.Fatal("No commentary sources configured. Set SIGNAL_SOURCE_URLS or pass -source")
	}

	fmt.Printf("Testing commentary ingestion against %d source(s)\n", len(cfg.GetSignalSourceURLs()))
	if cfg.HasRenderAPI() {
		fmt.Printf("Rendering API endpoint: %s\n", cfg.RenderAPIEndpoint)
	}

	// Initialize ingestion service
	service, err := ingest.NewService(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize ingestion service: %v", err)
	}
	defer service.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	startTime := time.Now()
	signals, err := service.FetchSignals(ctx)
	duration := time.Since(startTime)

	if err != nil {
		log.Fatalf("Failed to fetch signals: %v", err)
	}

	fmt.Printf("✅ Fetched %d signals in %v\n", len(signals), duration)

	if *verbose {
		// Pretty print the full signal payloads
		signalJSON, err := json.MarshalIndent(signals, "", "  ")
		if err != nil {
			log.Printf("Failed to marshal signals: %v", err)
		} else {
			fmt.Println("\nFetched signals:")
			fmt.Println(string(signalJSON))
		}
	} else {
		// Print summary
		for _, signal := range signals {
			fmt.Printf("  [%s] %s (%s, %s)\n",
				signal.SignalType, signal.Title, signal.Source, signal.ObservedAt.Format("2006-01-02"))
		}
	}

	// Report per-source health after the run
	health := service.HealthStatus()
	if !health.IsHealthy {
		fmt.Println("\n⚠️  Ingestion health issues:")
		for _, issue := range health.HealthIssues {
			fmt.Printf("  - %s\n", issue)
		}
	}

	if *store {
		db, err := database.New(cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		fmt.Println("\nDatabase connection established")

		svcs := services.NewServices(db.DB, cfg)
		inserted, err := svcs.Signal.CreateBatch(signals)
		if err != nil {
			log.Fatalf("Failed to store signals: %v", err)
		}
		fmt.Printf("Stored %d new signals (%d duplicates skipped)\n", inserted, len(signals)-inserted)
	}

	fmt.Println("\n🎉 Test completed successfully!")
}

func init() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [options]\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Test the macro signal commentary ingestion\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExample usage:\n")
		fmt.Fprintf(os.Stderr, "  %s -source=https://example.com/cre-commentary -v\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -store\n", os.Args[0])
	}
}
