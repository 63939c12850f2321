package entities

import "time"

// APIToken is a bearer token issued by one mobile login. A user holds one row
// per signed-in device; only the SHA-256 of the plaintext is stored.
type APIToken struct {
	ID        uint      `gorm:"primaryKey"`
	UserID    uint      `gorm:"index;not null"`
	TokenHash string    `gorm:"uniqueIndex;size:64;not null"`
	CreatedAt time.Time `gorm:"index"`
}
