// Command main runs the database seeder for Putevoditel.
package main

import (
	"context"
	"flag"
	"log"
	"strings"

	"putevoditel/internal/config"
	"putevoditel/internal/database"
	"putevoditel/internal/seed"
)

func main() {
	preset := flag.String("preset", "demo", "Seeder preset to apply")
	presetsFile := flag.String("presets-file", "", "YAML file with additional presets")
	shouldClean := flag.Bool("clean", false, "Clean database before seeding")
	users := flag.Int("users", 0, "Override the number of regular users")
	inspirers := flag.Int("inspirers", 0, "Override the number of inspirers")
	flag.Parse()

	log.Println("🌱 Database Seeder")
	log.Println("==================")

	presets, err := seed.LoadPresets(*presetsFile)
	if err != nil {
		log.Fatalf("Failed to load presets: %v", err)
	}
	opts, ok := presets[*preset]
	if !ok {
		log.Fatalf("Unknown preset %q (available: %s)", *preset, strings.Join(seed.PresetNames(presets), ", "))
	}
	if *users > 0 {
		opts.Users = *users
	}
	if *inspirers > 0 {
		opts.Inspirers = *inspirers
	}
	log.Printf("Applying preset %s: %d inspirers, %d users, clean=%v\n", *preset, opts.Inspirers, opts.Users, *shouldClean)

	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	s := seed.NewSeeder(db, opts)

	if *shouldClean {
		if err := s.ClearAll(); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
	}

	summary, err := s.Run(context.Background())
	if err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Printf("✨ Created %d inspirers, %d users, %d subscriptions, %d dreams, %d aims, %d posts\n",
		summary.Inspirers, summary.Users, summary.Subscriptions, summary.Dreams, summary.Aims, summary.Posts)
	if opts.SkipBcrypt {
		log.Println("⚠️  Passwords were stored unhashed; seeded users cannot log in")
		return
	}
	log.Printf("📧 All seeded users have the password: %s\n", seed.DefaultPassword)
}
