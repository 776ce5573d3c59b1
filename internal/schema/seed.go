package schema

import (
	"time"

	"gorm.io/gorm"

	"academic-records-core/internal/domain"
	"academic-records-core/internal/risk"
	"academic-records-core/pkg/utils"
)

// seed inserts the demonstration dataset in one transaction. Student
// risk levels are classified from their attributes so the stored
// state starts consistent.
func (m *Manager) seed(tx *gorm.DB) error {
	demoPass := utils.HashPassword("demo1234")

	users := []domain.User{
		{Name: "Alicia Vargas", Email: "alicia.vargas@demo.edu", Password: demoPass, Role: domain.RoleAdmin},
		{Name: "Marco Jimenez", Email: "marco.jimenez@demo.edu", Password: demoPass, Role: domain.RoleTeacher, Phone: "+52 55 1200 4411"},
		{Name: "Sofia Herrera", Email: "sofia.herrera@demo.edu", Password: demoPass, Role: domain.RoleStudent},
		{Name: "Diego Castillo", Email: "diego.castillo@demo.edu", Password: demoPass, Role: domain.RoleStudent},
		{Name: "Valentina Ruiz", Email: "valentina.ruiz@demo.edu", Password: demoPass, Role: domain.RoleStudent, RecoveryEmail: "vruiz.backup@mail.com"},
		{Name: "Emilio Torres", Email: "emilio.torres@demo.edu", Password: demoPass, Role: domain.RoleStudent},
	}
	if err := tx.Create(&users).Error; err != nil {
		return err
	}

	enrolled := time.Date(2023, 8, 14, 0, 0, 0, 0, time.UTC)
	students := []domain.Student{
		{UserID: users[2].ID, StudentCode: "ST-2023-0101", Career: "Systems Engineering", Semester: 5,
			GPA: 4.3, EnrollmentDate: enrolled, Status: domain.StudentActive, AcademicCredits: 142},
		{UserID: users[3].ID, StudentCode: "ST-2023-0102", Career: "Industrial Engineering", Semester: 4,
			GPA: 3.1, EnrollmentDate: enrolled, Status: domain.StudentActive, AcademicCredits: 104,
			FailedSubjects: 1, Absences: 4},
		{UserID: users[4].ID, StudentCode: "ST-2023-0103", Career: "Systems Engineering", Semester: 6,
			GPA: 2.8, EnrollmentDate: enrolled, Status: domain.StudentActive, AcademicCredits: 150,
			FailedSubjects: 2, Absences: 6},
		{UserID: users[5].ID, StudentCode: "ST-2023-0104", Career: "Business Administration", Semester: 3,
			GPA: 2.1, EnrollmentDate: enrolled, Status: domain.StudentActive, AcademicCredits: 61,
			FailedSubjects: 4, Absences: 12},
	}
	for i := range students {
		students[i].RiskLevel = risk.ClassifyStudent(&students[i])
	}
	if err := tx.Create(&students).Error; err != nil {
		return err
	}

	now := time.Now()
	alerts := []domain.Alert{
		{StudentID: students[3].ID, Type: "academic", Title: "Critical GPA",
			Message: "GPA fell below 2.5 with four failed subjects.", Severity: domain.SeverityCritical, Status: domain.AlertActive},
		{StudentID: students[3].ID, Type: "attendance", Title: "Repeated absences",
			Message: "Twelve absences registered this semester.", Severity: domain.SeverityHigh, Status: domain.AlertActive},
		{StudentID: students[2].ID, Type: "academic", Title: "GPA trending down",
			Message: "GPA dropped under 3.0 across the last two terms.", Severity: domain.SeverityMedium, Status: domain.AlertActive},
		{StudentID: students[1].ID, Type: "attendance", Title: "Absence warning",
			Message: "Four absences this term; follow-up done.", Severity: domain.SeverityLow, Status: domain.AlertResolved, ResolvedAt: &now},
	}
	if err := tx.Create(&alerts).Error; err != nil {
		return err
	}

	resources := []domain.Resource{
		{Title: "Study habits guide", Description: "Planning techniques for heavy course loads.",
			Type: "guide", URL: "https://resources.demo.edu/guides/study-habits.pdf",
			Category: "study-skills", CareerSpecific: domain.CareerGeneral, FileSize: 482_133, IsActive: true},
		{Title: "Algorithms workbook", Description: "Exercises for data structures and algorithms courses.",
			Type: "workbook", URL: "https://resources.demo.edu/se/algorithms-workbook.pdf",
			Category: "coursework", CareerSpecific: "Systems Engineering", FileSize: 1_204_560, IsActive: true},
		{Title: "Tutoring schedule", Description: "Weekly peer tutoring sessions, all careers.",
			Type: "schedule", Category: "support", CareerSpecific: domain.CareerGeneral, IsActive: true},
		{Title: "Operations research primer", Description: "Introductory notes on linear programming.",
			Type: "notes", URL: "https://resources.demo.edu/ie/or-primer.pdf",
			Category: "coursework", CareerSpecific: "Industrial Engineering", FileSize: 734_201, IsActive: true},
	}
	return tx.Create(&resources).Error
}
