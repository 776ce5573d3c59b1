package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"academic-records-core/internal/core/cache"
	"academic-records-core/internal/core/ready"
	"academic-records-core/internal/domain"
)

type AlertRepo struct {
	base
	now func() time.Time
}

func NewAlertRepo(db *gorm.DB, gate *ready.Gate, c *cache.Cache, log *zap.Logger, opts Options) *AlertRepo {
	return &AlertRepo{base: newBase(db, gate, c, log, opts), now: time.Now}
}

// AlertFilter narrows FindAll.
type AlertFilter struct {
	Severity domain.Severity
	Status   domain.AlertStatus
	Type     string
}

func validSeverity(s domain.Severity) bool {
	switch s {
	case domain.SeverityLow, domain.SeverityMedium, domain.SeverityHigh, domain.SeverityCritical:
		return true
	}
	return false
}

// Create inserts a new alert in the active state. A missing student
// surfaces as a conflict from the foreign key.
func (r *AlertRepo) Create(ctx context.Context, a *domain.Alert) error {
	const op = "alert.Create"
	if err := r.ensureReady(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(a.Title) == "" || strings.TrimSpace(a.Type) == "" {
		return domain.NewValidation(op, "type and title are required")
	}
	if a.Severity == "" {
		a.Severity = domain.SeverityLow
	}
	if !validSeverity(a.Severity) {
		return domain.NewValidation(op, fmt.Sprintf("unknown severity %q", a.Severity))
	}
	a.Status = domain.AlertActive
	a.ResolvedAt = nil
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return storeErr(op, "insert alert", err)
	}
	return r.invalidateAlert(ctx, a)
}

func (r *AlertRepo) FindByID(ctx context.Context, id uint) (*domain.Alert, error) {
	const op = "alert.FindByID"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	a, err := cache.GetOrLoadJSON(r.c, ctx, idKey(id), r.opts.TTL, func(ctx context.Context) (domain.Alert, error) {
		return r.load(ctx, op, id)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AlertRepo) load(ctx context.Context, op string, id uint) (domain.Alert, error) {
	var a domain.Alert
	err := r.db.WithContext(ctx).First(&a, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return a, domain.NewNotFound(op, fmt.Sprintf("alert %d does not exist", id))
	}
	if err != nil {
		return a, storeErr(op, "select alert", err)
	}
	return a, nil
}

// FindByStudent lists a student's alerts, newest first.
func (r *AlertRepo) FindByStudent(ctx context.Context, studentID uint, f AlertFilter, limit, offset int) ([]domain.Alert, error) {
	const op = "alert.FindByStudent"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	key := cache.Key("student", fmt.Sprint(studentID),
		fmt.Sprintf("severity=%s:status=%s:type=%s", f.Severity, f.Status, f.Type),
		pageKey(limit, offset))
	return cache.GetOrLoadJSON(r.c, ctx, key, r.opts.TTL, func(ctx context.Context) ([]domain.Alert, error) {
		q := r.filtered(r.db.WithContext(ctx).Model(&domain.Alert{}), f).
			Where("student_id = ?", studentID)
		var alerts []domain.Alert
		if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&alerts).Error; err != nil {
			return nil, storeErr(op, "list alerts for student", err)
		}
		return alerts, nil
	})
}

func (r *AlertRepo) FindAll(ctx context.Context, f AlertFilter, limit, offset int) ([]domain.Alert, error) {
	const op = "alert.FindAll"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	key := cache.Key("all",
		fmt.Sprintf("severity=%s:status=%s:type=%s", f.Severity, f.Status, f.Type),
		pageKey(limit, offset))
	return cache.GetOrLoadJSON(r.c, ctx, key, r.opts.TTL, func(ctx context.Context) ([]domain.Alert, error) {
		var alerts []domain.Alert
		q := r.filtered(r.db.WithContext(ctx).Model(&domain.Alert{}), f)
		if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&alerts).Error; err != nil {
			return nil, storeErr(op, "list alerts", err)
		}
		return alerts, nil
	})
}

// FindAllWithStudent embeds the student's code and account name into
// each row.
func (r *AlertRepo) FindAllWithStudent(ctx context.Context, f AlertFilter, limit, offset int) ([]domain.AlertWithStudent, error) {
	const op = "alert.FindAllWithStudent"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	key := cache.Key("withstudent",
		fmt.Sprintf("severity=%s:status=%s:type=%s", f.Severity, f.Status, f.Type),
		pageKey(limit, offset))
	return cache.GetOrLoadJSON(r.c, ctx, key, r.opts.TTL, func(ctx context.Context) ([]domain.AlertWithStudent, error) {
		q := r.filtered(r.db.WithContext(ctx).Model(&domain.Alert{}), f).
			Select("alerts.*, students.student_code AS student_code, users.name AS student_name").
			Joins("JOIN students ON students.id = alerts.student_id").
			Joins("JOIN users ON users.id = students.user_id")
		var rows []domain.AlertWithStudent
		if err := q.Order("alerts.created_at DESC").Limit(limit).Offset(offset).Scan(&rows).Error; err != nil {
			return nil, storeErr(op, "list alerts with students", err)
		}
		return rows, nil
	})
}

func (r *AlertRepo) filtered(q *gorm.DB, f AlertFilter) *gorm.DB {
	if f.Severity != "" {
		q = q.Where("alerts.severity = ?", f.Severity)
	}
	if f.Status != "" {
		q = q.Where("alerts.status = ?", f.Status)
	}
	if f.Type != "" {
		q = q.Where("alerts.type = ?", f.Type)
	}
	return q
}

// Update applies a merge patch while holding the resolution
// invariant: resolved_at is set exactly when status is resolved.
func (r *AlertRepo) Update(ctx context.Context, id uint, p domain.AlertPatch) (*domain.Alert, error) {
	const op = "alert.Update"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	if p.Severity != nil && !validSeverity(*p.Severity) {
		return nil, domain.NewValidation(op, fmt.Sprintf("unknown severity %q", *p.Severity))
	}
	changes := p.Changes()
	if p.Status != nil {
		switch *p.Status {
		case domain.AlertResolved:
			changes["resolved_at"] = r.now()
		case domain.AlertActive:
			changes["resolved_at"] = nil
		default:
			return nil, domain.NewValidation(op, fmt.Sprintf("unknown status %q", *p.Status))
		}
	}
	if len(changes) > 0 {
		res := r.db.WithContext(ctx).Model(&domain.Alert{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, storeErr(op, "update alert", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, domain.NewNotFound(op, fmt.Sprintf("alert %d does not exist", id))
		}
	}
	a, err := r.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if err := r.invalidateAlert(ctx, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Resolve marks the alert resolved. Resolving an already-resolved
// alert is a no-op that keeps the original resolution time.
func (r *AlertRepo) Resolve(ctx context.Context, id uint) (*domain.Alert, error) {
	const op = "alert.Resolve"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	a, err := r.load(ctx, op, id)
	if err != nil {
		return nil, err
	}
	if a.Status == domain.AlertResolved {
		return &a, nil
	}
	status := domain.AlertResolved
	return r.Update(ctx, id, domain.AlertPatch{Status: &status})
}

func (r *AlertRepo) Delete(ctx context.Context, id uint) error {
	const op = "alert.Delete"
	if err := r.ensureReady(ctx); err != nil {
		return err
	}
	a, err := r.load(ctx, op, id)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Delete(&domain.Alert{}, id)
	if res.Error != nil {
		return storeErr(op, "delete alert", res.Error)
	}
	return r.invalidateAlert(ctx, &a)
}

// ClearCache drops every cached alert entry.
func (r *AlertRepo) ClearCache(ctx context.Context) error { return r.c.Clear(ctx) }

// invalidateAlert evicts the alert's own key, the owning student's
// listings and the global aggregates. Other students' cached listings
// stay untouched.
func (r *AlertRepo) invalidateAlert(ctx context.Context, a *domain.Alert) error {
	for _, prefix := range []string{
		idKey(a.ID),
		cache.Key("student", fmt.Sprint(a.StudentID)),
		"all",
		"withstudent",
	} {
		if err := r.c.InvalidatePrefix(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}
