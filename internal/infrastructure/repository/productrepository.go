package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/keygate-io/keygate/internal/domain/product"
	"github.com/keygate-io/keygate/internal/infrastructure/persistence/mappers"
	"github.com/keygate-io/keygate/internal/infrastructure/persistence/models"
	apperrors "github.com/keygate-io/keygate/internal/shared/errors"
	"github.com/keygate-io/keygate/internal/shared/logger"
)

// ProductRepositoryImpl implements the product.Repository interface
type ProductRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ProductMapper
	logger logger.Interface
}

// NewProductRepository creates a new product repository instance
func NewProductRepository(db *gorm.DB, logger logger.Interface) product.Repository {
	return &ProductRepositoryImpl{
		db:     db,
		mapper: mappers.NewProductMapper(),
		logger: logger,
	}
}

// Create creates a new product
func (r *ProductRepositoryImpl) Create(ctx context.Context, p *product.Product) error {
	model, err := r.mapper.ToModel(p)
	if err != nil {
		return fmt.Errorf("failed to map product: %w", err)
	}

	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		if apperrors.IsDuplicateError(err) {
			return apperrors.NewConflictError("product name already exists")
		}
		r.logger.Errorw("failed to create product", "name", p.Name(), "error", err)
		return fmt.Errorf("failed to create product: %w", err)
	}

	if err := p.SetID(model.ID); err != nil {
		r.logger.Errorw("failed to set product ID", "error", err)
		return fmt.Errorf("failed to set product ID: %w", err)
	}

	r.logger.Infow("product created", "id", model.ID, "name", model.Name)
	return nil
}

// GetByID retrieves a product by ID
func (r *ProductRepositoryImpl) GetByID(ctx context.Context, id uint) (*product.Product, error) {
	var model models.ProductModel
	if err := r.db.WithContext(ctx).First(&model, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrNotFound
		}
		r.logger.Errorw("failed to get product", "id", id, "error", err)
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// GetByName retrieves a product by its unique name
func (r *ProductRepositoryImpl) GetByName(ctx context.Context, name string) (*product.Product, error) {
	var model models.ProductModel
	err := r.db.WithContext(ctx).Where("name = ?", name).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, product.ErrNotFound
		}
		r.logger.Errorw("failed to get product by name", "name", name, "error", err)
		return nil, fmt.Errorf("failed to get product by name: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// List retrieves all products
func (r *ProductRepositoryImpl) List(ctx context.Context) ([]*product.Product, error) {
	var productModels []*models.ProductModel
	if err := r.db.WithContext(ctx).Find(&productModels).Error; err != nil {
		r.logger.Errorw("failed to list products", "error", err)
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	return r.mapper.ToEntities(productModels)
}

// RecordSale atomically adds one purchase and the gross amount
func (r *ProductRepositoryImpl) RecordSale(ctx context.Context, id uint, gross float64) error {
	result := r.db.WithContext(ctx).Model(&models.ProductModel{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"total_purchases": gorm.Expr("total_purchases + 1"),
			"total_gross":     gorm.Expr("total_gross + ?", gross),
		})
	if result.Error != nil {
		r.logger.Errorw("failed to record product sale", "id", id, "error", result.Error)
		return fmt.Errorf("failed to record product sale: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return product.ErrNotFound
	}
	return nil
}
