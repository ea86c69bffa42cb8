package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/config"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/database"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/logger"
	"github.com/gramtop961/frontend-repo-h3cay28k-qxicje/internal/storage"
)

func main() {
	var (
		statusFlag = flag.Bool("status", false, "Show migration status")
		upFlag     = flag.Bool("up", false, "Run pending migrations")
	)
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log.Level, cfg.IsProduction())

	if cfg.Store.Driver != "sqlite" && cfg.Store.Driver != "postgres" {
		log.Fatalf("STORE_DRIVER=%s has no schema to migrate", cfg.Store.Driver)
	}

	db, err := database.NewConnection(storage.NewFactory(cfg, log).DatabaseConfig(), log)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	switch {
	case *statusFlag:
		statuses, err := db.GetMigrationStatus()
		if err != nil {
			log.Fatalf("Failed to get migration status: %v", err)
		}
		for _, s := range statuses {
			state := "pending"
			if s.Applied {
				state = "applied"
			}
			fmt.Printf("%03d %-40s %s\n", s.Version, s.Name, state)
		}
	case *upFlag:
		if err := db.RunMigrations(); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		fmt.Println("All migrations completed successfully!")
	default:
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/migrate -status   # Show migration status")
		fmt.Println("  go run ./cmd/migrate -up       # Run pending migrations")
		os.Exit(1)
	}
}
