package domain

import "time"

type RiskLevel string

const (
	RiskLow      RiskLevel = "low"
	RiskMedium   RiskLevel = "medium"
	RiskHigh     RiskLevel = "high"
	RiskCritical RiskLevel = "critical"
)

type StudentStatus string

const (
	StudentActive   StudentStatus = "active"
	StudentInactive StudentStatus = "inactive"
)

// Student holds the academic attributes the risk classifier reads.
// RiskLevel is derived state: after any write that touches GPA,
// FailedSubjects or Absences settles, it equals the classifier output
// for the stored attributes.
type Student struct {
	ID              uint          `gorm:"primaryKey" json:"id"`
	UserID          uint          `gorm:"uniqueIndex;not null" json:"userId"`
	User            *User         `gorm:"foreignKey:UserID" json:"-"`
	StudentCode     string        `gorm:"uniqueIndex;size:32;not null" json:"studentCode"`
	Career          string        `gorm:"size:128" json:"career"`
	Semester        int           `gorm:"not null;default:1" json:"semester"`
	GPA             float64       `gorm:"column:gpa;not null;default:0" json:"gpa"`
	RiskLevel       RiskLevel     `gorm:"size:16;not null;default:low" json:"riskLevel"`
	EnrollmentDate  time.Time     `json:"enrollmentDate"`
	Status          StudentStatus `gorm:"size:16;not null;default:active" json:"status"`
	AcademicCredits int           `gorm:"not null;default:0" json:"academicCredits"`
	FailedSubjects  int           `gorm:"not null;default:0" json:"failedSubjects"`
	Absences        int           `gorm:"not null;default:0" json:"absences"`
	CreatedAt       time.Time     `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time     `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Student) TableName() string { return "students" }

// StudentWithUser embeds the display fields of the owning account so
// list views need no second round trip.
type StudentWithUser struct {
	Student
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
}

type StudentPatch struct {
	Career          *string        `json:"career,omitempty"`
	Semester        *int           `json:"semester,omitempty"`
	GPA             *float64       `json:"gpa,omitempty"`
	EnrollmentDate  *time.Time     `json:"enrollmentDate,omitempty"`
	Status          *StudentStatus `json:"status,omitempty"`
	AcademicCredits *int           `json:"academicCredits,omitempty"`
	FailedSubjects  *int           `json:"failedSubjects,omitempty"`
	Absences        *int           `json:"absences,omitempty"`
}

func (p StudentPatch) Changes() map[string]any {
	m := map[string]any{}
	if p.Career != nil {
		m["career"] = *p.Career
	}
	if p.Semester != nil {
		m["semester"] = *p.Semester
	}
	if p.GPA != nil {
		m["gpa"] = *p.GPA
	}
	if p.EnrollmentDate != nil {
		m["enrollment_date"] = *p.EnrollmentDate
	}
	if p.Status != nil {
		m["status"] = *p.Status
	}
	if p.AcademicCredits != nil {
		m["academic_credits"] = *p.AcademicCredits
	}
	if p.FailedSubjects != nil {
		m["failed_subjects"] = *p.FailedSubjects
	}
	if p.Absences != nil {
		m["absences"] = *p.Absences
	}
	return m
}

// TouchesRisk reports whether applying the patch can change the
// classifier inputs.
func (p StudentPatch) TouchesRisk() bool {
	return p.GPA != nil || p.FailedSubjects != nil || p.Absences != nil
}
