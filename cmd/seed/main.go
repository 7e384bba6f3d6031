// Command main runs the database seeder for jobfinder.
package main

import (
	"flag"
	"log"

	"jobfinder/internal/config"
	"jobfinder/internal/database"
	"jobfinder/internal/seed"
)

func main() {
	numUsers := flag.Int("users", 20, "Number of demo users to create")
	formsPerUser := flag.Int("forms", 3, "Number of listings per demo user")
	shouldClean := flag.Bool("clean", false, "Clear demo data before seeding")
	adminEmail := flag.String("admin-email", "admin@jobfinder.local", "Bootstrap admin email")
	adminPassword := flag.String("admin-password", "change-me-now", "Bootstrap admin password")
	fixturesOnly := flag.Bool("fixtures-only", false, "Seed fixtures (roles, statuses, lookups) and exit")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *shouldClean {
		if err := seed.ClearAll(db); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	if err := seed.Fixtures(db); err != nil {
		log.Fatalf("❌ Fixture seeding failed: %v", err)
	}
	log.Println("✓ Fixtures in place")

	if _, err := seed.Admin(db, *adminEmail, *adminPassword); err != nil {
		log.Fatalf("❌ Admin seeding failed: %v", err)
	}

	if *fixturesOnly {
		log.Println("Done (fixtures only).")
		return
	}

	if err := seed.DemoData(db, *numUsers, *formsPerUser); err != nil {
		log.Fatalf("❌ Demo data seeding failed: %v", err)
	}

	log.Println("Done.")
}
