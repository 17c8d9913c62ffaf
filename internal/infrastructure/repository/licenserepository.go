package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/keygate-io/keygate/internal/domain/license"
	"github.com/keygate-io/keygate/internal/infrastructure/persistence/mappers"
	"github.com/keygate-io/keygate/internal/infrastructure/persistence/models"
	apperrors "github.com/keygate-io/keygate/internal/shared/errors"
	"github.com/keygate-io/keygate/internal/shared/logger"
)

const licenseSequenceCounter = "license_sequence"

// LicenseRepositoryImpl implements the license.Repository interface
type LicenseRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.LicenseMapper
	logger logger.Interface
}

// NewLicenseRepository creates a new license repository instance
func NewLicenseRepository(db *gorm.DB, logger logger.Interface) license.Repository {
	return &LicenseRepositoryImpl{
		db:     db,
		mapper: mappers.NewLicenseMapper(),
		logger: logger,
	}
}

// Create creates a new license with its usage entries
func (r *LicenseRepositoryImpl) Create(ctx context.Context, l *license.License) error {
	model, err := r.mapper.ToModel(l)
	if err != nil {
		return fmt.Errorf("failed to map license: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("license already exists")
		}
		r.logger.Errorw("failed to create license", "sid", l.SID(), "error", err)
		return fmt.Errorf("failed to create license: %w", err)
	}

	if err := l.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set license ID", "error", err)
		return fmt.Errorf("failed to set license ID: %w", err)
	}

	r.logger.Infow("license created", "id", model.ID, "sid", model.SID)
	return nil
}

// Delete removes a license and its usage entries
func (r *LicenseRepositoryImpl) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("license_id = ?", id).Delete(&models.LicenseUsageEntryModel{}).Error; err != nil {
			return fmt.Errorf("failed to delete license usage entries: %w", err)
		}
		result := tx.Delete(&models.LicenseModel{}, id)
		if result.Error != nil {
			return fmt.Errorf("failed to delete license: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return license.ErrNotFound
		}
		return nil
	})
	if err != nil {
		if !errors.Is(err, license.ErrNotFound) {
			r.logger.Errorw("failed to delete license", "id", id, "error", err)
		}
		return err
	}

	r.logger.Infow("license deleted", "id", id)
	return nil
}

// GetByID retrieves a license by ID
func (r *LicenseRepositoryImpl) GetByID(ctx context.Context, id uint) (*license.License, error) {
	var model models.LicenseModel
	err := r.db.WithContext(ctx).Preload("UsageEntries").First(&model, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, license.ErrNotFound
		}
		r.logger.Errorw("failed to get license", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get license: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// GetByDigest retrieves a license by its indexed secret lookup digest
func (r *LicenseRepositoryImpl) GetByDigest(ctx context.Context, digest string) (*license.License, error) {
	var model models.LicenseModel
	err := r.db.WithContext(ctx).
		Preload("UsageEntries").
		Where("secret_digest = ?", digest).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, license.ErrNotFound
		}
		r.logger.Errorw("failed to get license by digest", "error", err)
		return nil, fmt.Errorf("failed to get license by digest: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// List retrieves licenses matching the filter
func (r *LicenseRepositoryImpl) List(ctx context.Context, filter license.ListFilter) ([]*license.License, error) {
	query := r.db.WithContext(ctx).Preload("UsageEntries")
	if filter.Clientname != "" {
		query = query.Where("clientname = ?", filter.Clientname)
	}
	if filter.ProductName != "" {
		query = query.Where("product_name = ?", filter.ProductName)
	}

	var licenseModels []*models.LicenseModel
	if err := query.Find(&licenseModels).Error; err != nil {
		r.logger.Errorw("failed to list licenses", "error", err)
		return nil, fmt.Errorf("failed to list licenses: %w", err)
	}
	return r.mapper.ToEntities(licenseModels)
}

// Admit runs fn against the license under a SELECT ... FOR UPDATE row lock
// and persists the result in the same transaction. Concurrent admissions on
// the same license serialize on the lock, so fn always sees current state.
func (r *LicenseRepositoryImpl) Admit(ctx context.Context, id uint, fn func(l *license.License) error) (*license.License, error) {
	var admitted *license.License

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var model models.LicenseModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&model, id).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return license.ErrNotFound
			}
			return fmt.Errorf("failed to lock license: %w", err)
		}

		// Usage entries are only written under this lock, so reading them
		// after acquiring it is consistent.
		if err := tx.Where("license_id = ?", id).Find(&model.UsageEntries).Error; err != nil {
			return fmt.Errorf("failed to load usage entries: %w", err)
		}

		entity, err := r.mapper.ToEntity(&model)
		if err != nil {
			return err
		}

		if err := fn(entity); err != nil {
			// Domain rejections roll back untouched and propagate unchanged
			return err
		}

		updated, err := r.mapper.ToModel(entity)
		if err != nil {
			return err
		}

		err = tx.Model(&models.LicenseModel{}).Where("id = ?", id).
			Updates(map[string]interface{}{
				"total_requests": updated.TotalRequests,
				"latest_ip":      updated.LatestIP,
				"latest_hwid":    updated.LatestHWID,
				"latest_request": updated.LatestRequest,
				"expires_date":   updated.ExpiresDate,
				"updated_at":     updated.UpdatedAt,
				"version":        updated.Version,
			}).Error
		if err != nil {
			return fmt.Errorf("failed to persist admission: %w", err)
		}

		if err := tx.Where("license_id = ?", id).Delete(&models.LicenseUsageEntryModel{}).Error; err != nil {
			return fmt.Errorf("failed to clear usage entries: %w", err)
		}
		if len(updated.UsageEntries) > 0 {
			if err := tx.Create(&updated.UsageEntries).Error; err != nil {
				return fmt.Errorf("failed to persist usage entries: %w", err)
			}
		}

		admitted = entity
		return nil
	})
	if err != nil {
		return nil, err
	}

	return admitted, nil
}

// NextSequence atomically advances the sequential license-number counter
func (r *LicenseRepositoryImpl) NextSequence(ctx context.Context) (uint64, error) {
	var value uint64

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var counter models.CounterModel
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("name = ?", licenseSequenceCounter).
			First(&counter).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				counter = models.CounterModel{Name: licenseSequenceCounter, Value: 1}
				if err := tx.Create(&counter).Error; err != nil {
					return fmt.Errorf("failed to create sequence counter: %w", err)
				}
				value = counter.Value
				return nil
			}
			return fmt.Errorf("failed to lock sequence counter: %w", err)
		}

		counter.Value++
		if err := tx.Model(&counter).Update("value", counter.Value).Error; err != nil {
			return fmt.Errorf("failed to advance sequence counter: %w", err)
		}
		value = counter.Value
		return nil
	})
	if err != nil {
		r.logger.Errorw("failed to advance license sequence", "error", err)
		return 0, err
	}

	return value, nil
}
