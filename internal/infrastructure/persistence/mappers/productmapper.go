package mappers

import (
	"fmt"

	"github.com/keygate-io/keygate/internal/domain/product"
	"github.com/keygate-io/keygate/internal/infrastructure/persistence/models"
)

// ProductMapper handles the conversion between domain entities and persistence models
type ProductMapper interface {
	ToEntity(model *models.ProductModel) (*product.Product, error)
	ToModel(entity *product.Product) (*models.ProductModel, error)
	ToEntities(models []*models.ProductModel) ([]*product.Product, error)
}

type productMapper struct{}

// NewProductMapper creates a new product mapper
func NewProductMapper() ProductMapper {
	return &productMapper{}
}

func (m *productMapper) ToEntity(model *models.ProductModel) (*product.Product, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := product.ReconstructProduct(
		model.ID,
		model.Name,
		model.Version,
		model.Price,
		model.Discount,
		model.TotalPurchases,
		model.TotalGross,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct product entity: %w", err)
	}

	return entity, nil
}

func (m *productMapper) ToModel(entity *product.Product) (*models.ProductModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.ProductModel{
		ID:             entity.ID(),
		Name:           entity.Name(),
		Version:        entity.Version(),
		Price:          entity.Price(),
		Discount:       entity.Discount(),
		TotalPurchases: entity.TotalPurchases(),
		TotalGross:     entity.TotalGross(),
		CreatedAt:      entity.CreatedAt(),
		UpdatedAt:      entity.UpdatedAt(),
	}, nil
}

func (m *productMapper) ToEntities(productModels []*models.ProductModel) ([]*product.Product, error) {
	entities := make([]*product.Product, 0, len(productModels))

	for i, model := range productModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map model at index %d (ID %d): %w", i, model.ID, err)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}

	return entities, nil
}
