package domain

import "time"

// CareerGeneral marks a resource as relevant to every career.
const CareerGeneral = "general"

// Resource is a standalone study material row.
type Resource struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Title          string    `gorm:"size:191;not null" json:"title"`
	Description    string    `gorm:"type:text" json:"description"`
	Type           string    `gorm:"size:32;not null" json:"type"`
	URL            string    `gorm:"size:512" json:"url,omitempty"`
	Category       string    `gorm:"size:64;index" json:"category"`
	CareerSpecific string    `gorm:"size:128;not null;default:general" json:"careerSpecific"`
	FileSize       int64     `gorm:"not null;default:0" json:"fileSize"`
	IsActive       bool      `gorm:"not null;default:true" json:"isActive"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Resource) TableName() string { return "resources" }

type ResourcePatch struct {
	Title          *string `json:"title,omitempty"`
	Description    *string `json:"description,omitempty"`
	Type           *string `json:"type,omitempty"`
	URL            *string `json:"url,omitempty"`
	Category       *string `json:"category,omitempty"`
	CareerSpecific *string `json:"careerSpecific,omitempty"`
	FileSize       *int64  `json:"fileSize,omitempty"`
	IsActive       *bool   `json:"isActive,omitempty"`
}

func (p ResourcePatch) Changes() map[string]any {
	m := map[string]any{}
	if p.Title != nil {
		m["title"] = *p.Title
	}
	if p.Description != nil {
		m["description"] = *p.Description
	}
	if p.Type != nil {
		m["type"] = *p.Type
	}
	if p.URL != nil {
		m["url"] = *p.URL
	}
	if p.Category != nil {
		m["category"] = *p.Category
	}
	if p.CareerSpecific != nil {
		m["career_specific"] = *p.CareerSpecific
	}
	if p.FileSize != nil {
		m["file_size"] = *p.FileSize
	}
	if p.IsActive != nil {
		m["is_active"] = *p.IsActive
	}
	return m
}
