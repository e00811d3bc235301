package models

import "time"

// User represents an account of the recipe API. Users log in with their email.
type User struct {
	ID          uint       `json:"id" gorm:"primaryKey"`
	Email       string     `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Name        string     `json:"name" gorm:"type:varchar(255)"`
	Password    string     `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash, never serialized
	IsActive    bool       `json:"is_active"`
	IsStaff     bool       `json:"is_staff"`
	IsSuperuser bool       `json:"is_superuser"`
	LastLogin   *time.Time `json:"last_login"`
	CreatedAt   time.Time  `json:"-"`
	UpdatedAt   time.Time  `json:"-"`
}

// String returns the user's email.
func (u User) String() string {
	return u.Email
}
