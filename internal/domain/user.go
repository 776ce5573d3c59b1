package domain

import "time"

type Role string

const (
	RoleStudent Role = "student"
	RoleTeacher Role = "teacher"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin:
		return true
	}
	return false
}

// User is an account row. Password is an opaque string to this layer;
// hashing (or not) is the caller's concern.
type User struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	Name           string    `gorm:"size:128;not null" json:"name"`
	Email          string    `gorm:"uniqueIndex;size:191;not null" json:"email"`
	Password       string    `gorm:"size:191;not null" json:"-"`
	Role           Role      `gorm:"size:16;not null;default:student" json:"role"`
	ProfilePicture string    `gorm:"size:255" json:"profilePicture,omitempty"`
	Phone          string    `gorm:"size:32" json:"phone,omitempty"`
	RecoveryEmail  string    `gorm:"size:191" json:"recoveryEmail,omitempty"`
	CreatedAt      time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// UserPatch is a merge patch: nil means "leave the field alone",
// a non-nil pointer applies the pointed-to value even when it is the
// zero value. Truthiness never decides presence.
type UserPatch struct {
	Name           *string `json:"name,omitempty"`
	Email          *string `json:"email,omitempty"`
	Password       *string `json:"password,omitempty"`
	Role           *Role   `json:"role,omitempty"`
	ProfilePicture *string `json:"profilePicture,omitempty"`
	Phone          *string `json:"phone,omitempty"`
	RecoveryEmail  *string `json:"recoveryEmail,omitempty"`
}

// Changes returns the column assignments present in the patch.
func (p UserPatch) Changes() map[string]any {
	m := map[string]any{}
	if p.Name != nil {
		m["name"] = *p.Name
	}
	if p.Email != nil {
		m["email"] = *p.Email
	}
	if p.Password != nil {
		m["password"] = *p.Password
	}
	if p.Role != nil {
		m["role"] = *p.Role
	}
	if p.ProfilePicture != nil {
		m["profile_picture"] = *p.ProfilePicture
	}
	if p.Phone != nil {
		m["phone"] = *p.Phone
	}
	if p.RecoveryEmail != nil {
		m["recovery_email"] = *p.RecoveryEmail
	}
	return m
}
