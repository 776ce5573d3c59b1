package repo

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"academic-records-core/internal/core/cache"
	"academic-records-core/internal/core/database"
	"academic-records-core/internal/core/ready"
	"academic-records-core/internal/domain"
	"academic-records-core/internal/schema"
)

var testOpts = Options{TTL: time.Minute, ReadyTimeout: 2 * time.Second}

// testEnv is one open store with an initialized gate. Tests seed their
// own rows; the demonstration seed is not run.
type testEnv struct {
	db   *gorm.DB
	gate *ready.Gate
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.New(database.Opts{
		Driver:   "sqlite",
		DSN:      filepath.Join(t.TempDir(), "test.db"),
		LogLevel: "silent",
	})
	require.NoError(t, err)

	mgr := schema.NewManager(db, nil)
	gate := ready.New(func(ctx context.Context) error {
		if err := mgr.CreateSchema(ctx); err != nil {
			return err
		}
		return mgr.ApplyMigrations(ctx)
	}, nil)
	require.NoError(t, gate.Initialize(context.Background()))
	return &testEnv{db: db, gate: gate}
}

func (e *testEnv) userRepo() *UserRepo {
	return NewUserRepo(e.db, e.gate, cache.New("users", cache.NewMemory()), nil, testOpts)
}

func (e *testEnv) studentRepo() *StudentRepo {
	return NewStudentRepo(e.db, e.gate, cache.New("students", cache.NewMemory()), nil, testOpts)
}

func (e *testEnv) alertRepo() *AlertRepo {
	return NewAlertRepo(e.db, e.gate, cache.New("alerts", cache.NewMemory()), nil, testOpts)
}

func (e *testEnv) resourceRepo() *ResourceRepo {
	return NewResourceRepo(e.db, e.gate, cache.New("resources", cache.NewMemory()), nil, testOpts)
}

func (e *testEnv) mustUser(t *testing.T, name, email string) *domain.User {
	t.Helper()
	u := &domain.User{Name: name, Email: email, Password: "x", Role: domain.RoleStudent}
	require.NoError(t, e.db.Create(u).Error)
	return u
}

func (e *testEnv) mustStudent(t *testing.T, code string, gpa float64, failed, absences int) *domain.Student {
	t.Helper()
	u := e.mustUser(t, "Owner "+code, fmt.Sprintf("%s@demo.edu", code))
	s := &domain.Student{
		UserID: u.ID, StudentCode: code, Career: "Systems Engineering",
		Semester: 1, GPA: gpa, FailedSubjects: failed, Absences: absences,
		Status: domain.StudentActive,
	}
	require.NoError(t, e.db.Create(s).Error)
	return s
}

func ptr[T any](v T) *T { return &v }
