package domain

import "time"

type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

type AlertStatus string

const (
	AlertActive   AlertStatus = "active"
	AlertResolved AlertStatus = "resolved"
)

// Alert is a notification row attached to a student. ResolvedAt is
// non-nil exactly when Status is resolved.
type Alert struct {
	ID         uint        `gorm:"primaryKey" json:"id"`
	StudentID  uint        `gorm:"index;not null" json:"studentId"`
	Student    *Student    `gorm:"foreignKey:StudentID" json:"-"`
	Type       string      `gorm:"size:32;not null" json:"type"`
	Title      string      `gorm:"size:191;not null" json:"title"`
	Message    string      `gorm:"type:text" json:"message"`
	Severity   Severity    `gorm:"size:16;not null;default:low" json:"severity"`
	Status     AlertStatus `gorm:"size:16;not null;default:active" json:"status"`
	CreatedAt  time.Time   `gorm:"autoCreateTime" json:"createdAt"`
	ResolvedAt *time.Time  `json:"resolvedAt,omitempty"`
}

func (Alert) TableName() string { return "alerts" }

// AlertWithStudent embeds student display fields for list views.
type AlertWithStudent struct {
	Alert
	StudentCode string `json:"studentCode"`
	StudentName string `json:"studentName"`
}

type AlertPatch struct {
	Type     *string      `json:"type,omitempty"`
	Title    *string      `json:"title,omitempty"`
	Message  *string      `json:"message,omitempty"`
	Severity *Severity    `json:"severity,omitempty"`
	Status   *AlertStatus `json:"status,omitempty"`
}

func (p AlertPatch) Changes() map[string]any {
	m := map[string]any{}
	if p.Type != nil {
		m["type"] = *p.Type
	}
	if p.Title != nil {
		m["title"] = *p.Title
	}
	if p.Message != nil {
		m["message"] = *p.Message
	}
	if p.Severity != nil {
		m["severity"] = *p.Severity
	}
	if p.Status != nil {
		m["status"] = *p.Status
	}
	return m
}
