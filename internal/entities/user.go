package entities

import "time"

// User is an account that can hold a browser session or mobile API tokens.
type User struct {
	ID              uint       `gorm:"primaryKey" json:"id"`
	Name            string     `gorm:"size:255" json:"name"`
	Email           string     `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash    string     `gorm:"size:255" json:"-"`
	EmailVerifiedAt *time.Time `json:"email_verified_at"`
	LastLoginAt     *time.Time `json:"-"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}
