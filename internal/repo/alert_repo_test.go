package repo

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"academic-records-core/internal/domain"
)

func TestAlertCreateForcesActiveState(t *testing.T) {
	env := newTestEnv(t)
	r := env.alertRepo()
	ctx := context.Background()

	s := env.mustStudent(t, "ST-A-0001", 2.5, 2, 6)
	resolved := time.Now()
	a := &domain.Alert{
		StudentID: s.ID, Type: "academic", Title: "GPA warning",
		Severity: domain.SeverityHigh,
		// Caller-supplied resolution state is discarded on create.
		Status: domain.AlertResolved, ResolvedAt: &resolved,
	}
	require.NoError(t, r.Create(ctx, a))
	assert.Equal(t, domain.AlertActive, a.Status)
	assert.Nil(t, a.ResolvedAt)
}

func TestAlertCreateValidation(t *testing.T) {
	env := newTestEnv(t)
	r := env.alertRepo()
	ctx := context.Background()
	s := env.mustStudent(t, "ST-A-0002", 3.0, 0, 0)

	err := r.Create(ctx, &domain.Alert{StudentID: s.ID, Type: "", Title: "x"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	err = r.Create(ctx, &domain.Alert{StudentID: s.ID, Type: "academic", Title: "x", Severity: "catastrophic"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAlertCreateMissingStudentConflict(t *testing.T) {
	env := newTestEnv(t)
	r := env.alertRepo()
	err := r.Create(context.Background(), &domain.Alert{StudentID: 9999, Type: "academic", Title: "orphan"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestAlertResolveIdempotent(t *testing.T) {
	env := newTestEnv(t)
	r := env.alertRepo()
	ctx := context.Background()

	s := env.mustStudent(t, "ST-A-0003", 3.0, 0, 0)
	a := &domain.Alert{StudentID: s.ID, Type: "attendance", Title: "Absences"}
	require.NoError(t, r.Create(ctx, a))

	first := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return first }

	resolved, err := r.Resolve(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.AlertResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)
	assert.WithinDuration(t, first, *resolved.ResolvedAt, time.Second)

	// A second resolve keeps the original timestamp.
	r.now = func() time.Time { return first.Add(time.Hour) }
	again, err := r.Resolve(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, again.ResolvedAt)
	assert.WithinDuration(t, first, *again.ResolvedAt, time.Second)
}

func TestAlertUpdateMaintainsResolutionInvariant(t *testing.T) {
	env := newTestEnv(t)
	r := env.alertRepo()
	ctx := context.Background()

	s := env.mustStudent(t, "ST-A-0004", 3.0, 0, 0)
	a := &domain.Alert{StudentID: s.ID, Type: "academic", Title: "Watch"}
	require.NoError(t, r.Create(ctx, a))

	resolved, err := r.Update(ctx, a.ID, domain.AlertPatch{Status: ptr(domain.AlertResolved)})
	require.NoError(t, err)
	assert.NotNil(t, resolved.ResolvedAt)

	// Reopening clears the timestamp again.
	reopened, err := r.Update(ctx, a.ID, domain.AlertPatch{Status: ptr(domain.AlertActive)})
	require.NoError(t, err)
	assert.Equal(t, domain.AlertActive, reopened.Status)
	assert.Nil(t, reopened.ResolvedAt)

	bad := domain.AlertStatus("snoozed")
	_, err = r.Update(ctx, a.ID, domain.AlertPatch{Status: &bad})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAlertInvalidationScopedToStudent(t *testing.T) {
	env := newTestEnv(t)
	r := env.alertRepo()
	ctx := context.Background()

	sa := env.mustStudent(t, "ST-A-0005", 3.0, 0, 0)
	sb := env.mustStudent(t, "ST-A-0006", 3.0, 0, 0)
	require.NoError(t, r.Create(ctx, &domain.Alert{StudentID: sa.ID, Type: "academic", Title: "A1"}))
	b1 := &domain.Alert{StudentID: sb.ID, Type: "academic", Title: "B1"}
	require.NoError(t, r.Create(ctx, b1))

	// Warm both per-student listings.
	_, err := r.FindByStudent(ctx, sa.ID, AlertFilter{}, 0, 0)
	require.NoError(t, err)
	listB, err := r.FindByStudent(ctx, sb.ID, AlertFilter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, listB, 1)

	// A write for student A must not evict B's cached listing: remove
	// B's row behind the cache and check the stale copy is still served.
	require.NoError(t, env.db.Delete(&domain.Alert{}, b1.ID).Error)
	require.NoError(t, r.Create(ctx, &domain.Alert{StudentID: sa.ID, Type: "academic", Title: "A2"}))

	listA, err := r.FindByStudent(ctx, sa.ID, AlertFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, listA, 2)

	listB, err = r.FindByStudent(ctx, sb.ID, AlertFilter{}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, listB, 1, "student B's listing should still come from cache")
}

func TestAlertFindAllWithStudent(t *testing.T) {
	env := newTestEnv(t)
	r := env.alertRepo()
	ctx := context.Background()

	s := env.mustStudent(t, "ST-A-0007", 3.0, 0, 0)
	require.NoError(t, r.Create(ctx, &domain.Alert{StudentID: s.ID, Type: "academic", Title: "Joined"}))

	rows, err := r.FindAllWithStudent(ctx, AlertFilter{}, 0, 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "ST-A-0007", rows[0].StudentCode)
	assert.Equal(t, "Owner ST-A-0007", rows[0].StudentName)
}

func TestAlertFindAllFilters(t *testing.T) {
	env := newTestEnv(t)
	r := env.alertRepo()
	ctx := context.Background()

	s := env.mustStudent(t, "ST-A-0008", 3.0, 0, 0)
	require.NoError(t, r.Create(ctx, &domain.Alert{StudentID: s.ID, Type: "academic", Title: "High", Severity: domain.SeverityHigh}))
	require.NoError(t, r.Create(ctx, &domain.Alert{StudentID: s.ID, Type: "attendance", Title: "Low"}))

	high, err := r.FindAll(ctx, AlertFilter{Severity: domain.SeverityHigh}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, high, 1)

	attendance, err := r.FindAll(ctx, AlertFilter{Type: "attendance"}, 0, 0)
	require.NoError(t, err)
	assert.Len(t, attendance, 1)
	assert.Equal(t, "Low", attendance[0].Title)
}

func TestAlertDelete(t *testing.T) {
	env := newTestEnv(t)
	r := env.alertRepo()
	ctx := context.Background()

	s := env.mustStudent(t, "ST-A-0009", 3.0, 0, 0)
	a := &domain.Alert{StudentID: s.ID, Type: "academic", Title: "Bye"}
	require.NoError(t, r.Create(ctx, a))

	require.NoError(t, r.Delete(ctx, a.ID))
	_, err := r.FindByID(ctx, a.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, r.Delete(ctx, a.ID), domain.ErrNotFound)
}
