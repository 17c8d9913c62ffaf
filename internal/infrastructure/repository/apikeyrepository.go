package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/keygate-io/keygate/internal/infrastructure/persistence/models"
	"github.com/keygate-io/keygate/internal/shared/biztime"
	apperrors "github.com/keygate-io/keygate/internal/shared/errors"
	"github.com/keygate-io/keygate/internal/shared/logger"
)

// API key kinds. Public keys identify an integration; secret keys guard
// the dev API.
const (
	APIKeyKindPublic = "public"
	APIKeyKindSecret = "secret"
)

// APIKey is a stored dev API key hash.
type APIKey struct {
	ID      uint
	Name    string
	Kind    string
	KeyHash string
}

// APIKeyRepository persists dev API key hashes.
type APIKeyRepository interface {
	Create(ctx context.Context, name, kind, keyHash string) error
	ListByKind(ctx context.Context, kind string) ([]APIKey, error)
	Count(ctx context.Context) (int64, error)
	TouchLastUsed(ctx context.Context, id uint) error
}

// APIKeyRepositoryImpl implements APIKeyRepository on gorm
type APIKeyRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewAPIKeyRepository creates a new API key repository instance
func NewAPIKeyRepository(db *gorm.DB, logger logger.Interface) APIKeyRepository {
	return &APIKeyRepositoryImpl{db: db, logger: logger}
}

// Create stores a new API key hash
func (r *APIKeyRepositoryImpl) Create(ctx context.Context, name, kind, keyHash string) error {
	model := &models.APIKeyModel{
		Name:      name,
		Kind:      kind,
		KeyHash:   keyHash,
		CreatedAt: biztime.NowUTC(),
	}
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("API key name already exists")
		}
		r.logger.Errorw("failed to create API key", "name", name, "error", err)
		return fmt.Errorf("failed to create API key: %w", err)
	}

	r.logger.Infow("API key created", "id", model.ID, "name", name, "kind", kind)
	return nil
}

// ListByKind retrieves all stored keys of a kind
func (r *APIKeyRepositoryImpl) ListByKind(ctx context.Context, kind string) ([]APIKey, error) {
	var keyModels []models.APIKeyModel
	err := r.db.WithContext(ctx).Where("kind = ?", kind).Find(&keyModels).Error
	if err != nil {
		r.logger.Errorw("failed to list API keys", "kind", kind, "error", err)
		return nil, fmt.Errorf("failed to list API keys: %w", err)
	}

	keys := make([]APIKey, 0, len(keyModels))
	for _, m := range keyModels {
		keys = append(keys, APIKey{ID: m.ID, Name: m.Name, Kind: m.Kind, KeyHash: m.KeyHash})
	}
	return keys, nil
}

// Count returns the number of stored API keys
func (r *APIKeyRepositoryImpl) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.APIKeyModel{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count API keys: %w", err)
	}
	return count, nil
}

// TouchLastUsed records that the key just authenticated a request
func (r *APIKeyRepositoryImpl) TouchLastUsed(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Model(&models.APIKeyModel{}).
		Where("id = ?", id).
		UpdateColumn("last_used_at", biztime.NowUTC()).Error
	if err != nil {
		return fmt.Errorf("failed to touch API key: %w", err)
	}
	return nil
}
