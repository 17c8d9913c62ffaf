package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/keygate-io/keygate/internal/domain/blacklist"
	"github.com/keygate-io/keygate/internal/infrastructure/persistence/mappers"
	"github.com/keygate-io/keygate/internal/infrastructure/persistence/models"
	apperrors "github.com/keygate-io/keygate/internal/shared/errors"
	"github.com/keygate-io/keygate/internal/shared/logger"
)

// BlacklistRepositoryImpl implements the blacklist.Repository interface
type BlacklistRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.BlacklistMapper
	logger logger.Interface
}

// NewBlacklistRepository creates a new blacklist repository instance
func NewBlacklistRepository(db *gorm.DB, logger logger.Interface) blacklist.Repository {
	return &BlacklistRepositoryImpl{
		db:     db,
		mapper: mappers.NewBlacklistMapper(),
		logger: logger,
	}
}

// Create creates a new blacklist entry
func (r *BlacklistRepositoryImpl) Create(ctx context.Context, e *blacklist.Entry) error {
	model, err := r.mapper.ToModel(e)
	if err != nil {
		return fmt.Errorf("failed to map blacklist entry: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("value is already blacklisted")
		}
		r.logger.Errorw("failed to create blacklist entry", "value", e.Value(), "error", err)
		return fmt.Errorf("failed to create blacklist entry: %w", err)
	}

	if err := e.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set blacklist entry ID", "error", err)
		return fmt.Errorf("failed to set blacklist entry ID: %w", err)
	}

	r.logger.Infow("blacklist entry created", "id", model.ID, "kind", model.Kind)
	return nil
}

// Delete removes a blacklist entry by ID
func (r *BlacklistRepositoryImpl) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.BlacklistEntryModel{}, id)
	if result.Error != nil {
		r.logger.Errorw("failed to delete blacklist entry", "id", id, "error", result.Error)
		return fmt.Errorf("failed to delete blacklist entry: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.NewNotFoundError("blacklist entry not found")
	}

	r.logger.Infow("blacklist entry deleted", "id", id)
	return nil
}

// List retrieves all blacklist entries
func (r *BlacklistRepositoryImpl) List(ctx context.Context) ([]*blacklist.Entry, error) {
	var entryModels []*models.BlacklistEntryModel
	if err := r.db.WithContext(ctx).Find(&entryModels).Error; err != nil {
		r.logger.Errorw("failed to list blacklist entries", "error", err)
		return nil, fmt.Errorf("failed to list blacklist entries: %w", err)
	}
	return r.mapper.ToEntities(entryModels)
}

// IsBlocked reports whether the IP or HWID appears on the blacklist
func (r *BlacklistRepositoryImpl) IsBlocked(ctx context.Context, ip, hwid string) (bool, error) {
	query := r.db.WithContext(ctx).Model(&models.BlacklistEntryModel{})
	if hwid != "" {
		query = query.Where(
			"(kind = ? AND value = ?) OR (kind = ? AND value = ?)",
			string(blacklist.KindIP), ip, string(blacklist.KindHWID), hwid,
		)
	} else {
		query = query.Where("kind = ? AND value = ?", string(blacklist.KindIP), ip)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		r.logger.Errorw("failed to check blacklist", "error", err)
		return false, fmt.Errorf("failed to check blacklist: %w", err)
	}
	return count > 0, nil
}
