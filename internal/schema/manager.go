// Package schema owns table definitions, additive migrations and the
// one-time demonstration seed.
package schema

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"academic-records-core/internal/domain"
)

// Manager runs the full store setup. Safe to run against a store that
// already has some or all of the schema.
type Manager struct {
	db  *gorm.DB
	log *zap.Logger
}

func NewManager(db *gorm.DB, log *zap.Logger) *Manager {
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{db: db, log: log}
}

// Setup is the gate's setup function: schema, migrations, seed.
func (m *Manager) Setup(ctx context.Context) error {
	if err := m.CreateSchema(ctx); err != nil {
		return err
	}
	if err := m.ApplyMigrations(ctx); err != nil {
		return err
	}
	return m.SeedIfEmpty(ctx)
}

// CreateSchema creates missing tables with their relations. Existing
// tables are left alone.
func (m *Manager) CreateSchema(ctx context.Context) error {
	err := m.db.WithContext(ctx).AutoMigrate(
		&domain.User{},
		&domain.Student{},
		&domain.Alert{},
		&domain.Resource{},
	)
	if err != nil {
		return domain.WrapStorage("schema.CreateSchema", "automigrate failed", err)
	}
	return nil
}

// migration is one additive column change. Columns introduced after
// the initial release; stores created by older builds gain them here.
type migration struct {
	table  string
	column string
	ddl    string
}

var migrations = []migration{
	{"users", "phone", "ALTER TABLE users ADD COLUMN phone VARCHAR(32)"},
	{"users", "recovery_email", "ALTER TABLE users ADD COLUMN recovery_email VARCHAR(191)"},
	{"resources", "file_size", "ALTER TABLE resources ADD COLUMN file_size INTEGER NOT NULL DEFAULT 0"},
}

// ApplyMigrations attempts each additive change independently. A
// column that already exists is not an error; anything else aborts
// initialization.
func (m *Manager) ApplyMigrations(ctx context.Context) error {
	for _, mig := range migrations {
		if err := m.db.WithContext(ctx).Exec(mig.ddl).Error; err != nil {
			if isDuplicateColumn(err) {
				continue
			}
			return domain.WrapStorage("schema.ApplyMigrations",
				fmt.Sprintf("adding %s.%s failed", mig.table, mig.column), err)
		}
		m.log.Info("migration applied",
			zap.String("table", mig.table), zap.String("column", mig.column))
	}
	return nil
}

func isDuplicateColumn(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "duplicate column") || // sqlite, mysql
		strings.Contains(s, "already exists") // postgres
}

// SeedIfEmpty inserts the demonstration dataset when the user table is
// empty. A non-empty table is a no-op; a failed seed surfaces as a
// storage error so it is never mistaken for "already seeded".
func (m *Manager) SeedIfEmpty(ctx context.Context) error {
	var count int64
	if err := m.db.WithContext(ctx).Model(&domain.User{}).Count(&count).Error; err != nil {
		return domain.WrapStorage("schema.SeedIfEmpty", "user count failed", err)
	}
	if count > 0 {
		return nil
	}
	if err := m.db.WithContext(ctx).Transaction(m.seed); err != nil {
		return domain.WrapStorage("schema.SeedIfEmpty", "seed failed", err)
	}
	m.log.Info("demonstration data seeded")
	return nil
}
