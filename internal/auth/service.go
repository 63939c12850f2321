package auth

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/NicholasWachira-OSN/OSN-V2/internal/config"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/database/tokens"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/database/users"
	"github.com/NicholasWachira-OSN/OSN-V2/internal/entities"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrEmailTaken         = errors.New("the email has already been taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
)

// Service handles authentication and user management.
type Service struct {
	users  *users.Repository
	tokens *tokens.Repository
	config config.Auth
	now    func() time.Time
}

// NewService creates a new authentication service.
func NewService(db *gorm.DB, cfg config.Auth) *Service {
	return &Service{
		users:  users.NewRepository(db),
		tokens: tokens.NewRepository(db),
		config: cfg,
		now:    time.Now,
	}
}

// Register creates an account from already validated input.
func (s *Service) Register(name, email, password string) (*entities.User, error) {
	exists, err := s.users.EmailExists(email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, ErrEmailTaken
	}

	passwordHash, err := HashPassword(password, s.config.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.users.CreateUser(name, email, passwordHash)
	if err != nil {
		if errors.Is(err, users.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// EmailTaken reports whether an account already uses the email.
func (s *Service) EmailTaken(email string) (bool, error) {
	return s.users.EmailExists(email)
}

// Authenticate validates credentials and returns the user.
// Unknown emails and wrong passwords both yield ErrInvalidCredentials.
func (s *Service) Authenticate(email, password string) (*entities.User, error) {
	user, err := s.users.GetUserByEmail(email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if err := CheckPassword(password, user.PasswordHash); err != nil {
		if errors.Is(err, ErrInvalidPassword) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	now := s.now()
	if err := s.users.TouchLastLogin(user.ID, now); err == nil {
		user.LastLoginAt = &now
	}

	return user, nil
}

// GetUserByID retrieves a user by their ID.
func (s *Service) GetUserByID(id uint) (*entities.User, error) {
	user, err := s.users.GetUserByID(id)
	if errors.Is(err, users.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// ValidateToken checks a plaintext token and returns the associated user.
// Returns ErrTokenExpired if the token is past its expiry time.
func (s *Service) ValidateToken(token string) (*entities.User, error) {
	if token == "" {
		return nil, ErrInvalidToken
	}

	issued, err := s.tokens.GetByHash(HashToken(token))
	if err != nil {
		if errors.Is(err, tokens.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	if s.config.TokenExpiry > 0 && s.now().Sub(issued.CreatedAt) > s.config.TokenExpiry {
		return nil, ErrTokenExpired
	}

	user, err := s.users.GetUserByID(issued.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, err
	}

	return user, nil
}

// GenerateToken issues an additional API token for a user. Tokens from
// earlier logins stay valid. Returns the plaintext token; only its hash is
// stored.
func (s *Service) GenerateToken(userID uint) (string, error) {
	if _, err := s.GetUserByID(userID); err != nil {
		return "", err
	}

	plaintext, hash, err := GenerateAPIToken()
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	if _, err := s.tokens.Create(userID, hash, s.now()); err != nil {
		return "", fmt.Errorf("failed to save token: %w", err)
	}

	return plaintext, nil
}

// RevokeToken deletes the token presented by the caller. Other tokens of the
// same user are kept. Returns ErrInvalidToken if it was already gone.
func (s *Service) RevokeToken(token string) error {
	err := s.tokens.DeleteByHash(HashToken(token))
	if errors.Is(err, tokens.ErrNotFound) {
		return ErrInvalidToken
	}
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// PurgeExpiredTokens revokes every token older than the configured expiry.
func (s *Service) PurgeExpiredTokens() (int64, error) {
	if s.config.TokenExpiry <= 0 {
		return 0, nil
	}
	return s.tokens.DeleteIssuedBefore(s.now().Add(-s.config.TokenExpiry))
}

// TokenCount returns how many live API tokens a user holds.
func (s *Service) TokenCount(userID uint) (int64, error) {
	return s.tokens.CountForUser(userID)
}

// GetUserCount returns the number of registered users.
func (s *Service) GetUserCount() (int64, error) {
	return s.users.CountUsers()
}
