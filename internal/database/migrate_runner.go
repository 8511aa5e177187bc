package database

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"time"

	"putevoditel/internal/middleware"

	"gorm.io/gorm"
)

// migrationLockKey serializes concurrent migrators on PostgreSQL.
const migrationLockKey = 0x70757465 // "pute"

// AppliedMigration is a row of schema_migrations.
type AppliedMigration struct {
	Version   int       `gorm:"primaryKey;autoIncrement:false"`
	Name      string    `gorm:"size:255;not null"`
	Checksum  string    `gorm:"size:64;not null"`
	AppliedAt time.Time `gorm:"autoCreateTime"`
}

func (AppliedMigration) TableName() string {
	return "schema_migrations"
}

func checksum(script string) string {
	sum := sha256.Sum256([]byte(script))
	return hex.EncodeToString(sum[:])
}

// Migrator applies the versioned SQL scripts in order. Applied scripts are
// recorded with a checksum; an edited script or a version unknown to this
// build stops the run.
type Migrator struct {
	db  *gorm.DB
	set []Migration
}

// NewMigrator returns a Migrator over the embedded migrations.
func NewMigrator(db *gorm.DB) *Migrator {
	return &Migrator{db: db, set: migrations}
}

func (m *Migrator) ensureTable(ctx context.Context) error {
	if err := m.db.WithContext(ctx).AutoMigrate(&AppliedMigration{}); err != nil {
		return fmt.Errorf("failed to ensure schema_migrations table: %w", err)
	}
	return nil
}

func (m *Migrator) applied(tx *gorm.DB) (map[int]AppliedMigration, error) {
	var rows []AppliedMigration
	if err := tx.Order("version ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to read schema_migrations: %w", err)
	}
	out := make(map[int]AppliedMigration, len(rows))
	for _, r := range rows {
		out[r.Version] = r
	}
	return out, nil
}

// verify checks every applied row against the scripts of this build.
func (m *Migrator) verify(applied map[int]AppliedMigration) error {
	known := make(map[int]Migration, len(m.set))
	for _, mig := range m.set {
		known[mig.Version] = mig
	}
	for version, row := range applied {
		mig, ok := known[version]
		if !ok {
			return fmt.Errorf("schema_migrations has version %06d which this build does not know", version)
		}
		if row.Checksum != checksum(mig.UpScript) {
			return fmt.Errorf("migration %s was edited after it was applied", mig.String())
		}
	}
	return nil
}

func (m *Migrator) lock(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", migrationLockKey).Error
}

// Up applies every pending migration in one transaction and returns them.
func (m *Migrator) Up(ctx context.Context) ([]Migration, error) {
	if err := m.ensureTable(ctx); err != nil {
		return nil, err
	}

	var done []Migration
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := m.lock(tx); err != nil {
			return fmt.Errorf("failed to take migration lock: %w", err)
		}
		applied, err := m.applied(tx)
		if err != nil {
			return err
		}
		if err := m.verify(applied); err != nil {
			return err
		}

		for _, mig := range m.set {
			if _, ok := applied[mig.Version]; ok {
				continue
			}
			if err := tx.Exec(mig.UpScript).Error; err != nil {
				return fmt.Errorf("failed to apply migration %s: %w", mig.String(), err)
			}
			row := AppliedMigration{Version: mig.Version, Name: mig.Name, Checksum: checksum(mig.UpScript)}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("failed to record migration %s: %w", mig.String(), err)
			}
			done = append(done, mig)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, mig := range done {
		middleware.Logger.Info("Migration applied", slog.Int("version", mig.Version), slog.String("name", mig.Name))
	}
	return done, nil
}

// Pending lists the migrations Up would apply, and the applied versions.
func (m *Migrator) Pending(ctx context.Context) (pending []Migration, applied []int, err error) {
	if !m.db.Migrator().HasTable(&AppliedMigration{}) {
		return append([]Migration(nil), m.set...), nil, nil
	}
	rows, err := m.applied(m.db.WithContext(ctx))
	if err != nil {
		return nil, nil, err
	}
	if err := m.verify(rows); err != nil {
		return nil, nil, err
	}
	for _, mig := range m.set {
		if _, ok := rows[mig.Version]; ok {
			applied = append(applied, mig.Version)
		} else {
			pending = append(pending, mig)
		}
	}
	return pending, applied, nil
}

// Down reverts version, which must be the newest applied migration: later
// tables reference earlier ones, so rolling back out of order would leave
// dangling foreign keys.
func (m *Migrator) Down(ctx context.Context, version int) error {
	var target *Migration
	for i := range m.set {
		if m.set[i].Version == version {
			target = &m.set[i]
		}
	}
	if target == nil {
		return fmt.Errorf("migration version %d not found", version)
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := m.lock(tx); err != nil {
			return fmt.Errorf("failed to take migration lock: %w", err)
		}
		var newest AppliedMigration
		if err := tx.Order("version DESC").Limit(1).Find(&newest).Error; err != nil {
			return fmt.Errorf("failed to read schema_migrations: %w", err)
		}
		switch {
		case newest.Version == 0:
			return fmt.Errorf("no migrations have been applied")
		case newest.Version != version:
			return fmt.Errorf("migration %d is not the newest applied (%06d); roll that back first", version, newest.Version)
		}

		if err := tx.Exec(target.DownScript).Error; err != nil {
			return fmt.Errorf("failed to run rollback SQL for %s: %w", target.String(), err)
		}
		return tx.Delete(&AppliedMigration{}, version).Error
	})
	if err != nil {
		return err
	}
	middleware.Logger.Info("Migration rolled back", slog.Int("version", version), slog.String("name", target.Name))
	return nil
}
