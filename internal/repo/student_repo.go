package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"academic-records-core/internal/core/cache"
	"academic-records-core/internal/core/ready"
	"academic-records-core/internal/domain"
	"academic-records-core/internal/risk"
)

type StudentRepo struct {
	base
}

func NewStudentRepo(db *gorm.DB, gate *ready.Gate, c *cache.Cache, log *zap.Logger, opts Options) *StudentRepo {
	return &StudentRepo{base: newBase(db, gate, c, log, opts)}
}

// StudentFilter narrows FindAll.
type StudentFilter struct {
	Status    domain.StudentStatus
	Career    string
	RiskLevel domain.RiskLevel
}

func validateStudentAttrs(op string, gpa *float64, semester, credits, failed, absences *int) error {
	if gpa != nil && (*gpa < 0 || *gpa > 5) {
		return domain.NewValidation(op, "gpa must be between 0.0 and 5.0")
	}
	if semester != nil && *semester < 1 {
		return domain.NewValidation(op, "semester must be positive")
	}
	for name, v := range map[string]*int{"academic_credits": credits, "failed_subjects": failed, "absences": absences} {
		if v != nil && *v < 0 {
			return domain.NewValidation(op, name+" cannot be negative")
		}
	}
	return nil
}

// Create inserts the student with a risk level classified from its
// attributes, never the caller-supplied one.
func (r *StudentRepo) Create(ctx context.Context, s *domain.Student) error {
	const op = "student.Create"
	if err := r.ensureReady(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(s.StudentCode) == "" {
		return domain.NewValidation(op, "student_code is required")
	}
	if err := validateStudentAttrs(op, &s.GPA, &s.Semester, &s.AcademicCredits, &s.FailedSubjects, &s.Absences); err != nil {
		return err
	}
	if s.Status == "" {
		s.Status = domain.StudentActive
	}
	s.RiskLevel = risk.ClassifyStudent(s)
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		return storeErr(op, "insert student", err)
	}
	return r.invalidateStudent(ctx, s)
}

func (r *StudentRepo) FindByID(ctx context.Context, id uint) (*domain.Student, error) {
	const op = "student.FindByID"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	s, err := cache.GetOrLoadJSON(r.c, ctx, idKey(id), r.opts.TTL, func(ctx context.Context) (domain.Student, error) {
		return r.load(ctx, op, "id = ?", id)
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StudentRepo) FindByCode(ctx context.Context, code string) (*domain.Student, error) {
	const op = "student.FindByCode"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	s, err := cache.GetOrLoadJSON(r.c, ctx, cache.Key("code", code), r.opts.TTL, func(ctx context.Context) (domain.Student, error) {
		return r.load(ctx, op, "student_code = ?", code)
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StudentRepo) FindByUserID(ctx context.Context, userID uint) (*domain.Student, error) {
	const op = "student.FindByUserID"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	s, err := cache.GetOrLoadJSON(r.c, ctx, cache.Key("user", fmt.Sprint(userID)), r.opts.TTL, func(ctx context.Context) (domain.Student, error) {
		return r.load(ctx, op, "user_id = ?", userID)
	})
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *StudentRepo) load(ctx context.Context, op, cond string, arg any) (domain.Student, error) {
	var s domain.Student
	err := r.db.WithContext(ctx).Where(cond, arg).First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return s, domain.NewNotFound(op, fmt.Sprintf("no student matching %s %v", cond, arg))
	}
	if err != nil {
		return s, storeErr(op, "select student", err)
	}
	return s, nil
}

func (r *StudentRepo) FindAll(ctx context.Context, f StudentFilter, limit, offset int) ([]domain.Student, error) {
	const op = "student.FindAll"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	key := cache.Key("all",
		fmt.Sprintf("status=%s:career=%s:risk=%s", f.Status, f.Career, f.RiskLevel),
		pageKey(limit, offset))
	return cache.GetOrLoadJSON(r.c, ctx, key, r.opts.TTL, func(ctx context.Context) ([]domain.Student, error) {
		q := r.db.WithContext(ctx).Model(&domain.Student{})
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if f.Career != "" {
			q = q.Where("career = ?", f.Career)
		}
		if f.RiskLevel != "" {
			q = q.Where("risk_level = ?", f.RiskLevel)
		}
		var students []domain.Student
		if err := q.Order("student_code").Limit(limit).Offset(offset).Find(&students).Error; err != nil {
			return nil, storeErr(op, "list students", err)
		}
		return students, nil
	})
}

// FindAllWithUser embeds the owning account's display fields so list
// views need no second round trip.
func (r *StudentRepo) FindAllWithUser(ctx context.Context, f StudentFilter, limit, offset int) ([]domain.StudentWithUser, error) {
	const op = "student.FindAllWithUser"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	key := cache.Key("withuser",
		fmt.Sprintf("status=%s:career=%s:risk=%s", f.Status, f.Career, f.RiskLevel),
		pageKey(limit, offset))
	return cache.GetOrLoadJSON(r.c, ctx, key, r.opts.TTL, func(ctx context.Context) ([]domain.StudentWithUser, error) {
		q := r.db.WithContext(ctx).Model(&domain.Student{}).
			Select("students.*, users.name AS user_name, users.email AS user_email").
			Joins("JOIN users ON users.id = students.user_id")
		if f.Status != "" {
			q = q.Where("students.status = ?", f.Status)
		}
		if f.Career != "" {
			q = q.Where("students.career = ?", f.Career)
		}
		if f.RiskLevel != "" {
			q = q.Where("students.risk_level = ?", f.RiskLevel)
		}
		var rows []domain.StudentWithUser
		if err := q.Order("students.student_code").Limit(limit).Offset(offset).Scan(&rows).Error; err != nil {
			return nil, storeErr(op, "list students with users", err)
		}
		return rows, nil
	})
}

// Search matches a substring against the code, career and account
// name of each student.
func (r *StudentRepo) Search(ctx context.Context, query string, limit, offset int) ([]domain.StudentWithUser, error) {
	const op = "student.Search"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	limit = clampLimit(limit)
	key := cache.Key("search", query, pageKey(limit, offset))
	return cache.GetOrLoadJSON(r.c, ctx, key, r.opts.TTL, func(ctx context.Context) ([]domain.StudentWithUser, error) {
		like := "%" + strings.TrimSpace(query) + "%"
		var rows []domain.StudentWithUser
		err := r.db.WithContext(ctx).Model(&domain.Student{}).
			Select("students.*, users.name AS user_name, users.email AS user_email").
			Joins("JOIN users ON users.id = students.user_id").
			Where("students.student_code LIKE ? OR students.career LIKE ? OR users.name LIKE ?", like, like, like).
			Order("students.student_code").Limit(limit).Offset(offset).Scan(&rows).Error
		if err != nil {
			return nil, storeErr(op, "search students", err)
		}
		return rows, nil
	})
}

// Update applies a merge patch. When the patch touches gpa,
// failed_subjects or absences the recomputed risk level is folded into
// the same UPDATE, so no reader observes attributes and level out of
// step across calls.
func (r *StudentRepo) Update(ctx context.Context, id uint, p domain.StudentPatch) (*domain.Student, error) {
	const op = "student.Update"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	if err := validateStudentAttrs(op, p.GPA, p.Semester, p.AcademicCredits, p.FailedSubjects, p.Absences); err != nil {
		return nil, err
	}
	if p.Status != nil && *p.Status != domain.StudentActive && *p.Status != domain.StudentInactive {
		return nil, domain.NewValidation(op, fmt.Sprintf("unknown status %q", *p.Status))
	}

	current, err := r.load(ctx, op, "id = ?", id)
	if err != nil {
		return nil, err
	}

	changes := p.Changes()
	if p.TouchesRisk() {
		next := current
		if p.GPA != nil {
			next.GPA = *p.GPA
		}
		if p.FailedSubjects != nil {
			next.FailedSubjects = *p.FailedSubjects
		}
		if p.Absences != nil {
			next.Absences = *p.Absences
		}
		if level := risk.ClassifyStudent(&next); level != current.RiskLevel {
			changes["risk_level"] = level
		}
	}

	if len(changes) > 0 {
		res := r.db.WithContext(ctx).Model(&domain.Student{}).Where("id = ?", id).Updates(changes)
		if res.Error != nil {
			return nil, storeErr(op, "update student", res.Error)
		}
		if res.RowsAffected == 0 {
			return nil, domain.NewNotFound(op, fmt.Sprintf("student %d does not exist", id))
		}
	}

	updated, err := r.load(ctx, op, "id = ?", id)
	if err != nil {
		return nil, err
	}
	if err := r.invalidateStudent(ctx, &updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// SetRiskLevel writes the classification back for the risk engine's
// explicit recompute path.
func (r *StudentRepo) SetRiskLevel(ctx context.Context, id uint, level domain.RiskLevel) error {
	const op = "student.SetRiskLevel"
	if err := r.ensureReady(ctx); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&domain.Student{}).Where("id = ?", id).
		Update("risk_level", level)
	if res.Error != nil {
		return storeErr(op, "update risk level", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.NewNotFound(op, fmt.Sprintf("student %d does not exist", id))
	}
	s, err := r.load(ctx, op, "id = ?", id)
	if err != nil {
		return err
	}
	return r.invalidateStudent(ctx, &s)
}

// FindActive reads all active students straight from the store; the
// risk sweep wants current attributes, not cached ones.
func (r *StudentRepo) FindActive(ctx context.Context) ([]domain.Student, error) {
	const op = "student.FindActive"
	if err := r.ensureReady(ctx); err != nil {
		return nil, err
	}
	var students []domain.Student
	if err := r.db.WithContext(ctx).Where("status = ?", domain.StudentActive).Find(&students).Error; err != nil {
		return nil, storeErr(op, "list active students", err)
	}
	return students, nil
}

func (r *StudentRepo) Delete(ctx context.Context, id uint) error {
	const op = "student.Delete"
	if err := r.ensureReady(ctx); err != nil {
		return err
	}
	s, err := r.load(ctx, op, "id = ?", id)
	if err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Delete(&domain.Student{}, id)
	if res.Error != nil {
		return storeErr(op, "delete student", res.Error)
	}
	return r.invalidateStudent(ctx, &s)
}

// ClearCache drops every cached student entry.
func (r *StudentRepo) ClearCache(ctx context.Context) error { return r.c.Clear(ctx) }

// invalidateStudent evicts the entity's own keys and every aggregate
// that could include it.
func (r *StudentRepo) invalidateStudent(ctx context.Context, s *domain.Student) error {
	for _, prefix := range []string{
		idKey(s.ID),
		cache.Key("code", s.StudentCode),
		cache.Key("user", fmt.Sprint(s.UserID)),
		"all",
		"withuser",
		"search",
	} {
		if err := r.c.InvalidatePrefix(ctx, prefix); err != nil {
			return err
		}
	}
	return nil
}
