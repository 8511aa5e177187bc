// Package main provides inspirer management utilities for Putevoditel.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"

	"putevoditel/internal/config"
	"putevoditel/internal/database"
	"putevoditel/internal/models"
	"putevoditel/internal/repository"
	"putevoditel/internal/service"
	"putevoditel/internal/storage"
)

type tools struct {
	users         *service.UserService
	subscriptions *service.SubscriptionService
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage:")
		fmt.Println("  go run ./cmd/admin grant <user_id|slug>     - Make user an inspirer")
		fmt.Println("  go run ./cmd/admin revoke <user_id|slug>    - Remove the inspirer capability")
		fmt.Println("  go run ./cmd/admin list-inspirers           - List all inspirers")
		fmt.Println("  go run ./cmd/admin recount [user_id|slug]   - Rebuild subscriber counters")
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	media := service.NewMediaService(repository.NewMediaRepository(db), storage.NewStore(cfg))
	t := &tools{
		users:         service.NewUserService(userRepo, media),
		subscriptions: service.NewSubscriptionService(repository.NewSubscriberRepository(db), userRepo, nil),
	}
	ctx := context.Background()

	command := os.Args[1]

	switch command {
	case "grant", "revoke":
		if len(os.Args) < 3 {
			fmt.Printf("Usage: go run ./cmd/admin %s <user_id|slug>\n", command)
			os.Exit(1)
		}
		t.setInspirer(ctx, os.Args[2], command == "grant")

	case "list-inspirers":
		t.listInspirers(ctx)

	case "recount":
		if len(os.Args) >= 3 {
			t.recountOne(ctx, os.Args[2])
		} else {
			t.recountAll(ctx)
		}

	default:
		fmt.Printf("Unknown command: %s\n", command)
		os.Exit(1)
	}
}

// resolve accepts a numeric id or a slug.
func (t *tools) resolve(ctx context.Context, ref string) *models.User {
	var (
		user *models.User
		err  error
	)
	if id, convErr := strconv.ParseUint(ref, 10, 64); convErr == nil && len(ref) < models.SlugLength {
		user, err = t.users.GetUserByID(ctx, uint(id))
	} else {
		user, err = t.users.GetBySlug(ctx, ref)
	}
	if err != nil {
		if models.ErrorCode(err) == models.CodeNotFound {
			fmt.Printf("User %s not found\n", ref)
			os.Exit(1)
		}
		log.Fatalf("Database error: %v", err)
	}
	return user
}

func (t *tools) setInspirer(ctx context.Context, ref string, granted bool) {
	user := t.resolve(ctx, ref)

	user, changed, err := t.users.SetCapability(ctx, user.ID, models.CapabilityInspirer, granted)
	if err != nil {
		log.Fatalf("Failed to update user: %v", err)
	}

	switch {
	case !changed && granted:
		fmt.Printf("User %s (ID: %d) is already an inspirer\n", user.Email, user.ID)
	case !changed:
		fmt.Printf("User %s (ID: %d) is not an inspirer\n", user.Email, user.ID)
	case granted:
		fmt.Printf("✅ %s (ID: %d) is now an inspirer\n", user.Email, user.ID)
	default:
		fmt.Printf("✅ %s (ID: %d) is no longer an inspirer\n", user.Email, user.ID)
	}
}

func (t *tools) listInspirers(ctx context.Context) {
	inspirers, err := t.users.ListWithCapability(ctx, models.CapabilityInspirer)
	if err != nil {
		log.Fatalf("Failed to fetch inspirers: %v", err)
	}

	if len(inspirers) == 0 {
		fmt.Println("No inspirers found")
		return
	}

	fmt.Println("\n📋 Inspirers:")
	fmt.Println("─────────────────────────────────────")
	for _, u := range inspirers {
		fmt.Printf("ID: %d | Slug: %s | Email: %s | Subscribers: %d\n", u.ID, u.Slug, u.Email, u.SubscriberCount)
	}
	fmt.Println("─────────────────────────────────────")
}

func (t *tools) recountOne(ctx context.Context, ref string) {
	user := t.resolve(ctx, ref)
	n, err := t.subscriptions.Recount(ctx, user.ID)
	if err != nil {
		log.Fatalf("Failed to recount: %v", err)
	}
	fmt.Printf("✅ %s (ID: %d): %d -> %d subscribers\n", user.Email, user.ID, user.SubscriberCount, n)
}

func (t *tools) recountAll(ctx context.Context) {
	results, err := t.subscriptions.RecountAll(ctx)
	if err != nil {
		log.Fatalf("Failed to recount (%d users done): %v", len(results), err)
	}
	total := 0
	for _, r := range results {
		total += r.Count
	}
	fmt.Printf("✅ Recounted %d users, %d subscriptions in total\n", len(results), total)
}
