package mappers

import (
	"fmt"

	"github.com/keygate-io/keygate/internal/domain/blacklist"
	"github.com/keygate-io/keygate/internal/infrastructure/persistence/models"
)

// BlacklistMapper handles the conversion between domain entities and persistence models
type BlacklistMapper interface {
	ToEntity(model *models.BlacklistEntryModel) (*blacklist.Entry, error)
	ToModel(entity *blacklist.Entry) (*models.BlacklistEntryModel, error)
	ToEntities(models []*models.BlacklistEntryModel) ([]*blacklist.Entry, error)
}

type blacklistMapper struct{}

// NewBlacklistMapper creates a new blacklist mapper
func NewBlacklistMapper() BlacklistMapper {
	return &blacklistMapper{}
}

func (m *blacklistMapper) ToEntity(model *models.BlacklistEntryModel) (*blacklist.Entry, error) {
	if model == nil {
		return nil, nil
	}

	entity, err := blacklist.ReconstructEntry(
		model.ID,
		model.Value,
		blacklist.Kind(model.Kind),
		model.CreatedBy,
		model.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct blacklist entry: %w", err)
	}

	return entity, nil
}

func (m *blacklistMapper) ToModel(entity *blacklist.Entry) (*models.BlacklistEntryModel, error) {
	if entity == nil {
		return nil, nil
	}

	return &models.BlacklistEntryModel{
		ID:        entity.ID(),
		Value:     entity.Value(),
		Kind:      string(entity.Kind()),
		CreatedBy: entity.CreatedBy(),
		CreatedAt: entity.CreatedAt(),
	}, nil
}

func (m *blacklistMapper) ToEntities(entryModels []*models.BlacklistEntryModel) ([]*blacklist.Entry, error) {
	entities := make([]*blacklist.Entry, 0, len(entryModels))

	for i, model := range entryModels {
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
