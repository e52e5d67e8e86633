// Package auth resolves request principals: password login issuing signed
// tokens, and token verification for the HTTP middleware.
package auth

import (
	"context"

	"github.com/LuisEmilioVP/NexuViaticos/internal/domain"
	"github.com/LuisEmilioVP/NexuViaticos/internal/models"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// UserStore resolves users by login name.
type UserStore interface {
	GetByUsername(ctx context.Context, username string) (*models.User, error)
}

// Service authenticates users against stored bcrypt hashes.
type Service struct {
	users  UserStore
	tokens TokenConfig
	logger *zap.Logger
}

// NewService creates an auth service.
func NewService(users UserStore, tokens TokenConfig, logger *zap.Logger) *Service {
	return &Service{users: users, tokens: tokens, logger: logger}
}

// Login verifies the credentials and issues a token. Wrong username and
// wrong password are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, username, password string) (string, *models.User, error) {
	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		s.logger.Error("User lookup failed", zap.String("username", username), zap.Error(err))
		return "", nil, domain.ErrPersistence
	}
	if user == nil || !user.Active {
		return "", nil, domain.ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := GenerateToken(s.tokens, Principal{
		UserID:   user.ID,
		Username: user.Username,
		Role:     user.Role,
	})
	if err != nil {
		s.logger.Error("Token generation failed", zap.Int64("user_id", user.ID), zap.Error(err))
		return "", nil, err
	}

	s.logger.Info("User logged in", zap.Int64("user_id", user.ID), zap.String("role", user.Role))
	return token, user, nil
}

// HashPassword hashes a plaintext password for storage.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Verify parses a bearer token into a request principal.
func (s *Service) Verify(tokenString string) (Principal, error) {
	return ParseToken(s.tokens.Secret, tokenString)
}
