package models

import (
	"time"

	"github.com/keygate-io/keygate/internal/shared/constants"
)

// APIKeyModel stores the bcrypt hashes of dev API keys. Plaintext keys are
// shown once at creation and never persisted.
type APIKeyModel struct {
	ID         uint   `gorm:"primarykey"`
	Name       string `gorm:"not null;size:100;uniqueIndex"`
	Kind       string `gorm:"not null;size:10"`
	KeyHash    string `gorm:"not null;size:100"`
	CreatedAt  time.Time
	LastUsedAt *time.Time
}

// TableName specifies the table name for GORM
func (APIKeyModel) TableName() string {
	return constants.TableAPIKeys
}
