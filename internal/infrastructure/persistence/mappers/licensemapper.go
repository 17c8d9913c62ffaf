package mappers

import (
	"fmt"
	"time"

	"github.com/keygate-io/keygate/internal/domain/license"
	"github.com/keygate-io/keygate/internal/infrastructure/persistence/models"
)

// LicenseMapper handles the conversion between domain entities and persistence models
type LicenseMapper interface {
	// ToEntity converts a persistence model to a domain entity
	ToEntity(model *models.LicenseModel) (*license.License, error)

	// ToModel converts a domain entity to a persistence model
	ToModel(entity *license.License) (*models.LicenseModel, error)

	// ToEntities converts multiple persistence models to domain entities
	ToEntities(models []*models.LicenseModel) ([]*license.License, error)
}

// licenseMapper is the concrete implementation of LicenseMapper
type licenseMapper struct{}

// NewLicenseMapper creates a new license mapper
func NewLicenseMapper() LicenseMapper {
	return &licenseMapper{}
}

// ToEntity converts a persistence model to a domain entity
func (m *licenseMapper) ToEntity(model *models.LicenseModel) (*license.License, error) {
	if model == nil {
		return nil, nil
	}

	expiryType := license.ExpiryType("")
	if model.ExpiresType != nil {
		expiryType = license.ExpiryType(*model.ExpiresType)
	}
	policy, err := license.ReconstructExpiryPolicy(
		model.Expires,
		expiryType,
		model.ExpiresDate,
		model.ExpiresDays,
		model.ExpiresStartOnFirst,
		model.ExpiresTimes,
		model.ExpiresDeleteAfter,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct expiry policy: %w", err)
	}

	var ipList, hwidList []license.UsageEntry
	for _, e := range model.UsageEntries {
		entry := license.ReconstructUsageEntry(e.Value, e.FirstSeen, e.Deadline)
		switch license.UsageKind(e.Kind) {
		case license.UsageKindIP:
			ipList = append(ipList, entry)
		case license.UsageKindHWID:
			hwidList = append(hwidList, entry)
		default:
			return nil, fmt.Errorf("unknown usage entry kind %q", e.Kind)
		}
	}

	entity, err := license.ReconstructLicense(license.ReconstructParams{
		ID:               model.ID,
		SID:              model.SID,
		SecretCiphertext: model.SecretCiphertext,
		SecretDigest:     model.SecretDigest,
		ProductID:        model.ProductID,
		ProductName:      model.ProductName,
		Clientname:       model.Clientname,
		DiscordID:        model.DiscordID,
		DiscordUsername:  model.DiscordUsername,
		Description:      model.Description,
		Expiry:           policy,
		IPCap:            model.IPCap,
		IPRetention:      durationFromSeconds(model.IPRetentionSeconds),
		HWIDCap:          model.HWIDCap,
		HWIDRetention:    durationFromSeconds(model.HWIDRetentionSeconds),
		GeoLock:          model.GeoLock,
		IPList:           ipList,
		HWIDList:         hwidList,
		TotalRequests:    model.TotalRequests,
		LatestIP:         model.LatestIP,
		LatestHWID:       model.LatestHWID,
		LatestRequest:    model.LatestRequest,
		CreatedBy:        model.CreatedBy,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
		Version:          model.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct license entity: %w", err)
	}

	return entity, nil
}

// ToModel converts a domain entity to a persistence model
func (m *licenseMapper) ToModel(entity *license.License) (*models.LicenseModel, error) {
	if entity == nil {
		return nil, nil
	}

	exp := entity.Expiry()
	var expiresType *string
	if exp.Enabled() {
		t := string(exp.Type())
		expiresType = &t
	}

	model := &models.LicenseModel{
		ID:               entity.ID(),
		SID:              entity.SID(),
		SecretCiphertext: entity.SecretCiphertext(),
		SecretDigest:     entity.SecretDigest(),
		ProductID:        entity.ProductID(),
		ProductName:      entity.ProductName(),
		Clientname:       entity.Clientname(),
		DiscordID:        entity.DiscordID(),
		DiscordUsername:  entity.DiscordUsername(),
		Description:      entity.Description(),

		Expires:             exp.Enabled(),
		ExpiresType:         expiresType,
		ExpiresDate:         exp.Date(),
		ExpiresDays:         exp.Days(),
		ExpiresStartOnFirst: exp.StartOnFirstUse(),
		ExpiresTimes:        exp.MaxUses(),
		ExpiresDeleteAfter:  exp.DeleteAfterExpiry(),

		IPCap:                entity.IPCap(),
		IPRetentionSeconds:   secondsFromDuration(entity.IPRetention()),
		HWIDCap:              entity.HWIDCap(),
		HWIDRetentionSeconds: secondsFromDuration(entity.HWIDRetention()),
		GeoLock:              entity.GeoLock(),

		TotalRequests: entity.TotalRequests(),
		LatestIP:      entity.LatestIP(),
		LatestHWID:    entity.LatestHWID(),
		LatestRequest: entity.LatestRequest(),

		CreatedBy: entity.CreatedBy(),
		CreatedAt: entity.CreatedAt(),
		UpdatedAt: entity.UpdatedAt(),
		Version:   entity.Version(),
	}

	for _, e := range entity.IPList() {
		model.UsageEntries = append(model.UsageEntries, usageEntryModel(entity.ID(), license.UsageKindIP, e))
	}
	for _, e := range entity.HWIDList() {
		model.UsageEntries = append(model.UsageEntries, usageEntryModel(entity.ID(), license.UsageKindHWID, e))
	}

	return model, nil
}

// ToEntities converts multiple persistence models to domain entities
func (m *licenseMapper) ToEntities(licenseModels []*models.LicenseModel) ([]*license.License, error) {
	entities := make([]*license.License, 0, len(licenseModels))

	for i, model := range licenseModels {
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

func usageEntryModel(licenseID uint, kind license.UsageKind, e license.UsageEntry) models.LicenseUsageEntryModel {
	return models.LicenseUsageEntryModel{
		LicenseID: licenseID,
		Kind:      string(kind),
		Value:     e.Value(),
		FirstSeen: e.FirstSeen(),
		Deadline:  e.Deadline(),
	}
}

func durationFromSeconds(seconds *int64) *time.Duration {
	if seconds == nil {
		return nil
	}
	d := time.Duration(*seconds) * time.Second
	return &d
}

func secondsFromDuration(d *time.Duration) *int64 {
	if d == nil {
		return nil
	}
	s := int64(d.Seconds())
	return &s
}
