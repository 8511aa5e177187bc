// Package seed provides database seeding utilities for development and testing.
package seed

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"time"

	"putevoditel/internal/models"
	"putevoditel/internal/repository"

	"github.com/brianvoe/gofakeit/v6"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "Putevoditel#2024"

// Options configures a seeding run.
type Options struct {
	Inspirers            int  `yaml:"inspirers"`
	Users                int  `yaml:"users"`
	SubscriptionsPerUser int  `yaml:"subscriptions_per_user"`
	DreamsPerUser        int  `yaml:"dreams_per_user"`
	AimsPerUser          int  `yaml:"aims_per_user"`
	PostsPerInspirer     int  `yaml:"posts_per_inspirer"`
	MaxDays              int  `yaml:"max_days"`
	SkipBcrypt           bool `yaml:"skip_bcrypt"`
}

// Summary counts what a run created.
type Summary struct {
	Inspirers     int
	Users         int
	Subscriptions int
	Dreams        int
	Aims          int
	Posts         int
}

// Seeder writes demo data through the repositories so that slugs and
// subscriber counters are maintained exactly as in production.
type Seeder struct {
	db    *gorm.DB
	opts  Options
	users repository.UserRepository
	subs  repository.SubscriberRepository
	goals repository.GoalRepository
	posts repository.PostRepository
	rnd   *rand.Rand
}

// NewSeeder creates a Seeder bound to db.
func NewSeeder(db *gorm.DB, opts Options) *Seeder {
	if opts.MaxDays <= 0 {
		opts.MaxDays = 90
	}
	//nolint:gosec // Weak random number generator is fine for seeding
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Seeder{
		db:    db,
		opts:  opts,
		users: repository.NewUserRepository(db),
		subs:  repository.NewSubscriberRepository(db),
		goals: repository.NewGoalRepository(db),
		posts: repository.NewPostRepository(db),
		rnd:   rnd,
	}
}

// Run seeds inspirers, regular users, subscriptions, goals and posts.
func (s *Seeder) Run(ctx context.Context) (*Summary, error) {
	log.Printf("🌱 Seeding %d inspirers and %d users...", s.opts.Inspirers, s.opts.Users)

	password, err := s.passwordHash()
	if err != nil {
		return nil, err
	}

	sum := &Summary{}
	inspirers := make([]*models.User, 0, s.opts.Inspirers)
	for i := 0; i < s.opts.Inspirers; i++ {
		u, err := s.createUser(ctx, password, true)
		if err != nil {
			return nil, fmt.Errorf("failed to create inspirer: %w", err)
		}
		inspirers = append(inspirers, u)
	}
	sum.Inspirers = len(inspirers)

	everyone := append([]*models.User{}, inspirers...)
	for i := 0; i < s.opts.Users; i++ {
		u, err := s.createUser(ctx, password, false)
		if err != nil {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		everyone = append(everyone, u)
	}
	sum.Users = len(everyone) - len(inspirers)
	log.Printf("✓ %d accounts created", len(everyone))

	if len(inspirers) > 0 {
		for _, u := range everyone {
			n, err := s.subscribe(ctx, u, inspirers)
			if err != nil {
				return nil, err
			}
			sum.Subscriptions += n
		}
		log.Printf("✓ %d subscriptions created", sum.Subscriptions)
	}

	for _, u := range everyone {
		dreams, aims, err := s.createGoals(ctx, u)
		if err != nil {
			return nil, err
		}
		sum.Dreams += dreams
		sum.Aims += aims
	}
	log.Printf("✓ %d dreams and %d aims created", sum.Dreams, sum.Aims)

	for _, u := range inspirers {
		n, err := s.createPosts(ctx, u)
		if err != nil {
			return nil, err
		}
		sum.Posts += n
	}
	log.Printf("✓ %d posts created", sum.Posts)

	log.Println("🎉 Database seeding completed successfully!")
	return sum, nil
}

// ClearAll deletes every row written by the application, children first.
func (s *Seeder) ClearAll() error {
	log.Println("🗑️  Clearing existing data...")
	tx := s.db.Session(&gorm.Session{AllowGlobalUpdate: true})
	for _, model := range []any{
		&models.Post{},
		&models.DreamAssociation{},
		&models.Aim{},
		&models.Dream{},
		&models.Subscriber{},
		&models.User{},
	} {
		if err := tx.Delete(model).Error; err != nil {
			return fmt.Errorf("clear %T: %w", model, err)
		}
	}
	return nil
}

func (s *Seeder) passwordHash() (string, error) {
	if s.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash seed password: %w", err)
	}
	return string(hashed), nil
}

func (s *Seeder) createUser(ctx context.Context, password string, inspirer bool) (*models.User, error) {
	first, last := gofakeit.FirstName(), gofakeit.LastName()
	email := fmt.Sprintf("%s.%s@example.com", first, gofakeit.UUID()[:8])
	user := &models.User{
		Email:     normalizeEmail(email),
		FirstName: first,
		LastName:  last,
		Password:  password,
		Profile:   randomProfile(s.rnd),
	}
	user.Username = user.Email
	if inspirer {
		user.Grant(models.CapabilityInspirer)
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *Seeder) subscribe(ctx context.Context, user *models.User, inspirers []*models.User) (int, error) {
	n := s.opts.SubscriptionsPerUser
	if n > len(inspirers) {
		n = len(inspirers)
	}
	created := 0
	for _, idx := range s.rnd.Perm(len(inspirers))[:n] {
		_, ok, err := s.subs.Subscribe(ctx, inspirers[idx].ID, user.ID)
		if err != nil {
			return created, fmt.Errorf("failed to subscribe %d to %d: %w", user.ID, inspirers[idx].ID, err)
		}
		if ok {
			created++
		}
	}
	return created, nil
}

func (s *Seeder) createGoals(ctx context.Context, user *models.User) (int, int, error) {
	for i := 0; i < s.opts.DreamsPerUser; i++ {
		dream := &models.Dream{
			UserID:      user.ID,
			Name:        gofakeit.HipsterSentence(4),
			Description: gofakeit.Paragraph(1, 2, 8, " "),
			CreatedAt:   s.pastTime(),
		}
		if err := s.goals.CreateDream(ctx, dream); err != nil {
			return 0, 0, fmt.Errorf("failed to create dream: %w", err)
		}
	}
	for i := 0; i < s.opts.AimsPerUser; i++ {
		aim := &models.Aim{
			UserID:      user.ID,
			Name:        gofakeit.HipsterSentence(4),
			Description: gofakeit.Paragraph(1, 2, 8, " "),
			CreatedAt:   s.pastTime(),
			Deadline:    time.Now().AddDate(0, 0, 7+s.rnd.Intn(365)).UTC(),
		}
		if err := s.goals.CreateAim(ctx, aim); err != nil {
			return 0, 0, fmt.Errorf("failed to create aim: %w", err)
		}
	}
	return s.opts.DreamsPerUser, s.opts.AimsPerUser, nil
}

// Seeded posts reference a placeholder video path; no file is written.
func (s *Seeder) createPosts(ctx context.Context, creator *models.User) (int, error) {
	for i := 0; i < s.opts.PostsPerInspirer; i++ {
		post := &models.Post{
			Name:        gofakeit.Sentence(5),
			CreatorID:   creator.ID,
			Video:       fmt.Sprintf("videos/seed-%s.mp4", gofakeit.UUID()),
			Description: gofakeit.Paragraph(1, 3, 10, " "),
			CreatedAt:   s.pastTime(),
		}
		if err := s.posts.Create(ctx, post); err != nil {
			return i, fmt.Errorf("failed to create post: %w", err)
		}
	}
	return s.opts.PostsPerInspirer, nil
}

// pastTime returns a realistic created_at spread over the last MaxDays.
func (s *Seeder) pastTime() time.Time {
	back := time.Duration(s.rnd.Intn(s.opts.MaxDays))*24*time.Hour +
		time.Duration(s.rnd.Intn(24*60))*time.Minute
	return time.Now().Add(-back).UTC()
}
