// Package tokens stores the hashed bearer tokens issued to mobile clients.
//
// Every mobile login adds a row, so a user signed in on two devices holds two
// independent tokens. Revoking one leaves the other untouched.
package tokens

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/entities"
)

// ErrNotFound is returned when no token matches the hash.
var ErrNotFound = errors.New("token not found")

// Repository handles API token database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new tokens repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a token hash for the user.
func (r *Repository) Create(userID uint, tokenHash string, createdAt time.Time) (*entities.APIToken, error) {
	token := &entities.APIToken{
		UserID:    userID,
		TokenHash: tokenHash,
		CreatedAt: createdAt,
	}
	if err := r.db.Create(token).Error; err != nil {
		return nil, err
	}
	return token, nil
}

// GetByHash looks up a token by its hash.
func (r *Repository) GetByHash(tokenHash string) (*entities.APIToken, error) {
	if tokenHash == "" {
		return nil, ErrNotFound
	}

	var tokens []entities.APIToken
	if err := r.db.Where("token_hash = ?", tokenHash).Limit(1).Find(&tokens).Error; err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, ErrNotFound
	}
	return &tokens[0], nil
}

// DeleteByHash revokes a single token.
func (r *Repository) DeleteByHash(tokenHash string) error {
	result := r.db.Where("token_hash = ?", tokenHash).Delete(&entities.APIToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteIssuedBefore revokes every token created before cutoff and returns
// how many were removed.
func (r *Repository) DeleteIssuedBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("created_at < ?", cutoff).Delete(&entities.APIToken{})
	return result.RowsAffected, result.Error
}

// CountForUser returns how many live tokens the user holds.
func (r *Repository) CountForUser(userID uint) (int64, error) {
	var count int64
	err := r.db.Model(&entities.APIToken{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}
