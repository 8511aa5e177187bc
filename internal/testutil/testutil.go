// Package testutil provides shared test doubles and fixtures for backend tests.
package testutil

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"putevoditel/internal/database"
	"putevoditel/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// T is the subset of testing.TB the helpers need.
type T interface {
	Helper()
	Name() string
	Fatalf(string, ...any)
	Cleanup(func())
}

var dbSeq atomic.Int64

// NewSQLiteDB opens a private in-memory SQLite database with the full schema.
// A single connection keeps every goroutine on the same database and
// serializes concurrent transactions.
func NewSQLiteDB(t T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_fk=1&_busy_timeout=5000", name, dbSeq.Add(1))

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: database.NewGormLogger(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// CreateUser inserts a user with fake personal data and a unique slug.
func CreateUser(t T, db *gorm.DB, capabilities ...string) *models.User {
	t.Helper()
	seq := dbSeq.Add(1)
	user := &models.User{
		Email:        fmt.Sprintf("%d.%s", seq, strings.ToLower(gofakeit.Email())),
		FirstName:    gofakeit.FirstName(),
		LastName:     gofakeit.LastName(),
		Slug:         fmt.Sprintf("%020d", seq),
		Password:     "$2a$10$fixturehashfixturehashfixturehashfixturehashfixtureha",
		Capabilities: capabilities,
	}
	user.Username = user.Email
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user: %v", err)
	}
	return user
}

// TinyPNG returns an in-memory PNG byte slice with the requested dimensions.
func TinyPNG(t interface {
	Helper()
	Fatalf(string, ...any)
}, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

// MediaRepoStub is an in-memory media repository for tests.
type MediaRepoStub struct {
	mu     sync.Mutex
	items  []models.DreamAssociation
	nextID uint
}

// NewMediaRepoStub creates an empty MediaRepoStub.
func NewMediaRepoStub() *MediaRepoStub {
	return &MediaRepoStub{nextID: 1}
}

func (s *MediaRepoStub) Create(_ context.Context, assoc *models.DreamAssociation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	assoc.ID = s.nextID
	s.nextID++
	assoc.CreatedAt = time.Now().UTC()
	s.items = append(s.items, *assoc)
	return nil
}

func (s *MediaRepoStub) ListByUser(_ context.Context, userID uint) ([]models.DreamAssociation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.DreamAssociation
	for _, item := range s.items {
		if item.UserID == userID {
			out = append(out, item)
		}
	}
	return out, nil
}
