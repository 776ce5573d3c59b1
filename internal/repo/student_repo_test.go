package repo

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academic-records-core/internal/domain"
	"academic-records-core/internal/risk"
)

func TestStudentCreateClassifiesRisk(t *testing.T) {
	env := newTestEnv(t)
	r := env.studentRepo()
	ctx := context.Background()

	u := env.mustUser(t, "Nuevo", "nuevo@demo.edu")
	s := &domain.Student{
		UserID: u.ID, StudentCode: "ST-2024-0001", Career: "Systems Engineering",
		Semester: 2, GPA: 2.0, FailedSubjects: 5, Absences: 12,
		RiskLevel: domain.RiskLow, // caller-supplied level is ignored
	}
	require.NoError(t, r.Create(ctx, s))
	assert.Equal(t, domain.RiskCritical, s.RiskLevel)
	assert.Equal(t, domain.StudentActive, s.Status)

	stored, err := r.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RiskCritical, stored.RiskLevel)
}

func TestStudentCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	r := env.studentRepo()
	ctx := context.Background()
	u := env.mustUser(t, "V", "v@demo.edu")

	err := r.Create(ctx, &domain.Student{UserID: u.ID, StudentCode: "  "})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = r.Create(ctx, &domain.Student{UserID: u.ID, StudentCode: "ST-X", GPA: 5.5, Semester: 1})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = r.Create(ctx, &domain.Student{UserID: u.ID, StudentCode: "ST-X", Semester: 1, Absences: -1})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestStudentDuplicateCodeConflict(t *testing.T) {
	env := newTestEnv(t)
	r := env.studentRepo()
	ctx := context.Background()

	u1 := env.mustUser(t, "A", "a@demo.edu")
	u2 := env.mustUser(t, "B", "b@demo.edu")
	require.NoError(t, r.Create(ctx, &domain.Student{UserID: u1.ID, StudentCode: "ST-DUP", Semester: 1}))
	err := r.Create(ctx, &domain.Student{UserID: u2.ID, StudentCode: "ST-DUP", Semester: 1})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestStudentFinders(t *testing.T) {
	env := newTestEnv(t)
	r := env.studentRepo()
	ctx := context.Background()

	s := env.mustStudent(t, "ST-2024-0002", 3.6, 0, 0)

	byCode, err := r.FindByCode(ctx, "ST-2024-0002")
	require.NoError(t, err)
	assert.Equal(t, s.ID, byCode.ID)

	byUser, err := r.FindByUserID(ctx, s.UserID)
	require.NoError(t, err)
	assert.Equal(t, s.ID, byUser.ID)

	_, err = r.FindByCode(ctx, "ST-NOPE")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStudentUpdateAppliesZeroValues(t *testing.T) {
	env := newTestEnv(t)
	r := env.studentRepo()
	ctx := context.Background()

	s := env.mustStudent(t, "ST-2024-0003", 3.2, 1, 7)

	// gpa 0.0 and absences 0 are real assignments, not absent fields.
	updated, err := r.Update(ctx, s.ID, domain.StudentPatch{
		GPA:      ptr(0.0),
		Absences: ptr(0),
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, updated.GPA)
	assert.Equal(t, 0, updated.Absences)
	assert.Equal(t, 1, updated.FailedSubjects) // untouched
}

func TestStudentUpdateRecomputesRiskInline(t *testing.T) {
	env := newTestEnv(t)
	r := env.studentRepo()
	ctx := context.Background()

	s := env.mustStudent(t, "ST-2024-0004", 4.2, 0, 0)
	require.NoError(t, r.SetRiskLevel(ctx, s.ID, risk.Classify(4.2, 0, 0)))

	updated, err := r.Update(ctx, s.ID, domain.StudentPatch{Absences: ptr(12)})
	require.NoError(t, err)
	assert.Equal(t, 12, updated.Absences)
	assert.Equal(t, domain.RiskMedium, updated.RiskLevel)

	// A patch that does not touch classifier inputs leaves the level.
	updated, err = r.Update(ctx, s.ID, domain.StudentPatch{Career: ptr("Mathematics")})
	require.NoError(t, err)
	assert.Equal(t, domain.RiskMedium, updated.RiskLevel)
	assert.Equal(t, "Mathematics", updated.Career)
}

func TestStudentUpdateValidation(t *testing.T) {
	env := newTestEnv(t)
	r := env.studentRepo()
	ctx := context.Background()
	s := env.mustStudent(t, "ST-2024-0005", 3.0, 0, 0)

	_, err := r.Update(ctx, s.ID, domain.StudentPatch{GPA: ptr(-0.1)})
	assert.ErrorIs(t, err, domain.ErrValidation)

	bad := domain.StudentStatus("expelled")
	_, err = r.Update(ctx, s.ID, domain.StudentPatch{Status: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = r.Update(ctx, 9999, domain.StudentPatch{Career: ptr("X")})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestStudentCacheConsistencyAfterUpdate(t *testing.T) {
	env := newTestEnv(t)
	r := env.studentRepo()
	ctx := context.Background()

	s := env.mustStudent(t, "ST-2024-0006", 3.9, 0, 0)

	// Warm every read path for this student.
	_, err := r.FindByID(ctx, s.ID)
	require.NoError(t, err)
	_, err = r.FindByCode(ctx, s.StudentCode)
	require.NoError(t, err)

	_, err = r.Update(ctx, s.ID, domain.StudentPatch{GPA: ptr(2.2), Absences: ptr(12)})
	require.NoError(t, err)

	// Every cached view now reflects the write.
	byID, err := r.FindByID(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, 2.2, byID.GPA)
	assert.Equal(t, risk.Classify(2.2, 0, 12), byID.RiskLevel)

	byCode, err := r.FindByCode(ctx, s.StudentCode)
	require.NoError(t, err)
	assert.Equal(t, byID.RiskLevel, byCode.RiskLevel)
	assert.Equal(t, 12, byCode.Absences)
}

func TestStudentListJoinsUser(t *testing.T) {
	env := newTestEnv(t)
	r := env.studentRepo()
	ctx := context.Background()

	s := env.mustStudent(t, "ST-2024-0007", 3.0, 0, 0)

	rows, err := r.FindAllWithUser(ctx, StudentFilter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, s.ID, rows[0].ID)
	assert.Equal(t, "Owner ST-2024-0007", rows[0].UserName)
	assert.Equal(t, "ST-2024-0007@demo.edu", rows[0].UserEmail)
}

func TestStudentSearch(t *testing.T) {
	env := newTestEnv(t)
	r := env.studentRepo()
	ctx := context.Background()

	env.mustStudent(t, "ST-2024-0008", 3.0, 0, 0)
	env.mustStudent(t, "ST-2024-0009", 3.0, 0, 0)

	rows, err := r.Search(ctx, "0008", 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ST-2024-0008", rows[0].StudentCode)

	byCareer, err := r.Search(ctx, "Systems", 0, 0)
	require.NoError(t, err)
	assert.Len(t, byCareer, 2)
}

func TestStudentFindAllFilters(t *testing.T) {
	env := newTestEnv(t)
	r := env.studentRepo()
	ctx := context.Background()

	a := env.mustStudent(t, "ST-2024-0010", 3.9, 0, 0)
	env.mustStudent(t, "ST-2024-0011", 2.0, 5, 12)
	_, err := r.Update(ctx, a.ID, domain.StudentPatch{Status: ptr(domain.StudentInactive)})
	require.NoError(t, err)

	active, err := r.FindAll(ctx, StudentFilter{Status: domain.StudentActive}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	assert.Equal(t, "ST-2024-0011", active[0].StudentCode)
}

func TestStudentFindActiveBypassesCache(t *testing.T) {
	env := newTestEnv(t)
	r := env.studentRepo()
	ctx := context.Background()

	s := env.mustStudent(t, "ST-2024-0012", 3.9, 0, 0)

	// Mutate the row behind the repository's back; FindActive must see
	// the store, not a cached snapshot.
	_, err := r.FindAll(ctx, StudentFilter{}, 0, 0)
	require.NoError(t, err)
	require.NoError(t, env.db.Model(&domain.Student{}).Where("id = ?", s.ID).
		Update("absences", 99).Error)

	active, err := r.FindActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, 99, active[0].Absences)
}

func TestStudentDelete(t *testing.T) {
	env := newTestEnv(t)
	r := env.studentRepo()
	ctx := context.Background()

	s := env.mustStudent(t, "ST-2024-0013", 3.0, 0, 0)
	_, err := r.FindByID(ctx, s.ID)
	require.NoError(t, err)

	require.NoError(t, r.Delete(ctx, s.ID))
	_, err = r.FindByID(ctx, s.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, s.ID), domain.ErrNotFound)
}
