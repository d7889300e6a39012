package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// Role enum
type Role string

const (
	RoleOrganization Role = "organization"
	RoleDoctor       Role = "doctor"
	RolePatient      Role = "patient"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleOrganization, RoleDoctor, RolePatient:
		return true
	}
	return false
}

// User represents an account. Doctors are users with RoleDoctor; their id is
// the doctor reference carried by appointments.
type User struct {
	BaseModel
	Email          string         `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password       string         `gorm:"size:255;not null" json:"-"` // Never send password in JSON
	FullName       string         `gorm:"size:200;not null" json:"full_name"`
	Role           Role           `gorm:"size:20;not null;index" json:"role"`
	OrganizationID string         `gorm:"size:36;index" json:"organization_id,omitempty"`
	Specialization string         `gorm:"size:255" json:"specialization,omitempty"`
	Availability   string         `gorm:"type:text" json:"availability,omitempty"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`

	RefreshTokens []RefreshToken `gorm:"foreignKey:UserID" json:"-"`
}

// UserSanitized represents the user data that is safe to send in API responses.
type UserSanitized struct {
	ID             string    `json:"id"`
	Email          string    `json:"email"`
	FullName       string    `json:"full_name"`
	Role           Role      `json:"role"`
	OrganizationID string    `json:"organization_id,omitempty"`
	Specialization string    `json:"specialization,omitempty"`
	Availability   string    `json:"availability,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SetPassword hashes a password and sets it on the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

// CheckPassword compares a password with the user's hashed password
func (u *User) CheckPassword(password string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
	return err == nil
}

// Sanitize creates a UserSanitized struct from a User model, excluding sensitive data.
func (u *User) Sanitize() UserSanitized {
	return UserSanitized{
		ID:             u.ID,
		Email:          u.Email,
		FullName:       u.FullName,
		Role:           u.Role,
		OrganizationID: u.OrganizationID,
		Specialization: u.Specialization,
		Availability:   u.Availability,
		CreatedAt:      u.CreatedAt,
		UpdatedAt:      u.UpdatedAt,
	}
}

// SanitizeAll sanitizes a slice of users, never returning nil.
func SanitizeAll(users []User) []UserSanitized {
	out := make([]UserSanitized, len(users))
	for i := range users {
		out[i] = users[i].Sanitize()
	}
	return out
}
