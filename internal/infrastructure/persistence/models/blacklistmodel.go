package models

import (
	"time"

	"github.com/keygate-io/keygate/internal/shared/constants"
)

// BlacklistEntryModel represents the database persistence model for
// blacklisted IPs and HWIDs
type BlacklistEntryModel struct {
	ID        uint   `gorm:"primarykey"`
	Value     string `gorm:"not null;size:128;uniqueIndex:idx_blacklist_value,priority:2"`
	Kind      string `gorm:"not null;size:10;uniqueIndex:idx_blacklist_value,priority:1"`
	CreatedBy string `gorm:"size:100"`
	CreatedAt time.Time
}

// TableName specifies the table name for GORM
func (BlacklistEntryModel) TableName() string {
	return constants.TableBlacklist
}
