package repository

import (
	"context"

	"github.com/manorfm/cpa-auth/internal/domain"
	"github.com/manorfm/cpa-auth/internal/infrastructure/database"
	"go.uber.org/zap"
)

type UserRepository struct {
	logger *zap.Logger
	db     database.DBTX
}

func NewUserRepository(db database.DBTX, logger *zap.Logger) *UserRepository {
	return &UserRepository{db: db, logger: logger}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, provider_uid, display_name, password_hash, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, user.ID, user.ProviderUID, user.DisplayName, user.PasswordHash, user.CreatedAt)
	return conflict(err, "create user")
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRow(ctx, `
		SELECT id, provider_uid, display_name, password_hash, created_at
		FROM users WHERE id = $1
	`, id).Scan(&user.ID, &user.ProviderUID, &user.DisplayName, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		r.logger.Debug("failed to find user by id", zap.String("id", id), zap.Error(err))
		return nil, notFound(err, "find user by id")
	}
	return user, nil
}

func (r *UserRepository) FindByProviderUID(ctx context.Context, providerUID string) (*domain.User, error) {
	user := &domain.User{}
	err := r.db.QueryRow(ctx, `
		SELECT id, provider_uid, display_name, password_hash, created_at
		FROM users WHERE provider_uid = $1
	`, providerUID).Scan(&user.ID, &user.ProviderUID, &user.DisplayName, &user.PasswordHash, &user.CreatedAt)
	if err != nil {
		r.logger.Debug("failed to find user by provider uid", zap.String("provider_uid", providerUID), zap.Error(err))
		return nil, notFound(err, "find user by provider uid")
	}
	return user, nil
}
