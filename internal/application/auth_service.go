package application

import (
	"context"
	"errors"

	"github.com/manorfm/cpa-auth/internal/domain"
	"github.com/manorfm/cpa-auth/internal/infrastructure/password"
	"go.uber.org/zap"
)

// SessionIssuer signs resource owner sessions
type SessionIssuer interface {
	GenerateSessionToken(userID, name string) (string, error)
}

// AuthService authenticates resource owners for the interactive pages
type AuthService struct {
	userRepo domain.UserRepository
	sessions SessionIssuer
	logger   *zap.Logger
}

func NewAuthService(userRepo domain.UserRepository, sessions SessionIssuer, logger *zap.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		sessions: sessions,
		logger:   logger,
	}
}

// Register creates a new user
func (s *AuthService) Register(ctx context.Context, username, displayName, passwordStr string) (*domain.User, error) {
	if username == "" || passwordStr == "" {
		return nil, domain.ErrInvalidCredentials
	}

	hashedPassword, err := password.HashPassword(passwordStr)
	if err != nil {
		s.logger.Error("failed to hash password", zap.Error(err))
		return nil, err
	}

	user := domain.NewUser(username, displayName, hashedPassword)
	if err := s.userRepo.Create(ctx, user); err != nil {
		if !errors.Is(err, domain.ErrConflict) {
			s.logger.Error("failed to create user", zap.Error(err))
		}
		return nil, err
	}

	return user, nil
}

// Login checks the user's password and returns a signed session token
func (s *AuthService) Login(ctx context.Context, username, passwordStr string) (string, *domain.User, error) {
	user, err := s.userRepo.FindByProviderUID(ctx, username)
	if errors.Is(err, domain.ErrNotFound) {
		s.logger.Debug("login for unknown user", zap.String("username", username))
		return "", nil, domain.ErrInvalidCredentials
	}
	if err != nil {
		s.logger.Error("failed to find user", zap.Error(err))
		return "", nil, err
	}

	if err := password.CheckPassword(passwordStr, user.PasswordHash); err != nil {
		s.logger.Debug("invalid password", zap.String("username", username))
		return "", nil, domain.ErrInvalidCredentials
	}

	name := user.DisplayName
	if name == "" {
		name = user.ProviderUID
	}
	token, err := s.sessions.GenerateSessionToken(user.ID, name)
	if err != nil {
		s.logger.Error("failed to generate session token", zap.Error(err))
		return "", nil, err
	}

	return token, user, nil
}
