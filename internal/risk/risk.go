// Package risk derives the categorical risk level from a student's
// academic attributes.
package risk

import (
	"context"

	"go.uber.org/zap"

	"academic-records-core/internal/domain"
)

// Classify is pure and deterministic. Three independent thresholds
// accumulate a score; the score maps to a band with inclusive lower
// bounds.
func Classify(gpa float64, failedSubjects, absences int) domain.RiskLevel {
	score := 0

	switch {
	case gpa < 2.5:
		score += 3
	case gpa < 3.0:
		score += 2
	case gpa < 3.5:
		score++
	}

	switch {
	case failedSubjects > 3:
		score += 3
	case failedSubjects > 1:
		score += 2
	case failedSubjects > 0:
		score++
	}

	switch {
	case absences > 10:
		score += 2
	case absences > 5:
		score++
	}

	switch {
	case score >= 6:
		return domain.RiskCritical
	case score >= 4:
		return domain.RiskHigh
	case score >= 2:
		return domain.RiskMedium
	}
	return domain.RiskLow
}

// ClassifyStudent applies Classify to a student's stored attributes.
func ClassifyStudent(s *domain.Student) domain.RiskLevel {
	return Classify(s.GPA, s.FailedSubjects, s.Absences)
}

// StudentStore is the slice of the student repository the engine
// needs for write-back.
type StudentStore interface {
	FindByID(ctx context.Context, id uint) (*domain.Student, error)
	SetRiskLevel(ctx context.Context, id uint, level domain.RiskLevel) error
	FindActive(ctx context.Context) ([]domain.Student, error)
}

type Engine struct {
	students StudentStore
	log      *zap.Logger
}

func NewEngine(students StudentStore, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{students: students, log: log}
}

// Recompute re-reads the student, classifies, and writes the level
// back only when it changed. Calling it twice with no intervening
// attribute change performs no second write.
func (e *Engine) Recompute(ctx context.Context, studentID uint) (domain.RiskLevel, error) {
	s, err := e.students.FindByID(ctx, studentID)
	if err != nil {
		return "", err
	}
	level := ClassifyStudent(s)
	if level == s.RiskLevel {
		return level, nil
	}
	if err := e.students.SetRiskLevel(ctx, studentID, level); err != nil {
		return "", err
	}
	e.log.Info("risk level updated",
		zap.Uint("student_id", studentID),
		zap.String("from", string(s.RiskLevel)),
		zap.String("to", string(level)))
	return level, nil
}

// RecomputeActive sweeps every active student and reports how many
// levels changed.
func (e *Engine) RecomputeActive(ctx context.Context) (int, error) {
	students, err := e.students.FindActive(ctx)
	if err != nil {
		return 0, err
	}
	changed := 0
	for i := range students {
		s := &students[i]
		level := ClassifyStudent(s)
		if level == s.RiskLevel {
			continue
		}
		if err := e.students.SetRiskLevel(ctx, s.ID, level); err != nil {
			return changed, err
		}
		changed++
	}
	if changed > 0 {
		e.log.Info("risk sweep finished", zap.Int("changed", changed), zap.Int("scanned", len(students)))
	}
	return changed, nil
}
