package models

import (
	"time"

	"github.com/keygate-io/keygate/internal/shared/constants"
)

// LicenseModel represents the database persistence model for licenses
// This is the anti-corruption layer between domain and database
type LicenseModel struct {
	ID               uint    `gorm:"primarykey"`
	SID              string  `gorm:"not null;size:16;uniqueIndex"`
	SecretCiphertext string  `gorm:"not null;size:512"`
	SecretDigest     string  `gorm:"not null;size:64;uniqueIndex"`
	ProductID        uint    `gorm:"not null;index"`
	ProductName      string  `gorm:"not null;size:100;index"`
	Clientname       string  `gorm:"not null;size:100;index"`
	DiscordID        *string `gorm:"size:22"`
	DiscordUsername  *string `gorm:"size:100"`
	Description      *string `gorm:"size:400"`

	Expires             bool    `gorm:"not null;default:false"`
	ExpiresType         *string `gorm:"size:10"`
	ExpiresDate         *time.Time
	ExpiresDays         int    `gorm:"not null;default:0"`
	ExpiresStartOnFirst bool   `gorm:"not null;default:false"`
	ExpiresTimes        uint64 `gorm:"not null;default:0"`
	ExpiresDeleteAfter  bool   `gorm:"not null;default:false"`

	IPCap                *int
	IPRetentionSeconds   *int64
	HWIDCap              *int
	HWIDRetentionSeconds *int64
	GeoLock              *string `gorm:"size:2"`

	TotalRequests uint64  `gorm:"not null;default:0"`
	LatestIP      *string `gorm:"size:45"`
	LatestHWID    *string `gorm:"size:128"`
	LatestRequest *time.Time

	CreatedBy string `gorm:"size:100"`
	CreatedAt time.Time
	UpdatedAt time.Time
	Version   int `gorm:"not null;default:1"`

	UsageEntries []LicenseUsageEntryModel `gorm:"foreignKey:LicenseID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for GORM
func (LicenseModel) TableName() string {
	return constants.TableLicenses
}

// LicenseUsageEntryModel is one admitted IP or HWID of a license with its
// retention deadline. A NULL deadline never expires.
type LicenseUsageEntryModel struct {
	ID        uint       `gorm:"primarykey"`
	LicenseID uint       `gorm:"not null;uniqueIndex:idx_license_usage,priority:1"`
	Kind      string     `gorm:"not null;size:10;uniqueIndex:idx_license_usage,priority:2"`
	Value     string     `gorm:"not null;size:128;uniqueIndex:idx_license_usage,priority:3"`
	FirstSeen time.Time  `gorm:"not null"`
	Deadline  *time.Time `gorm:"index"`
}

// TableName specifies the table name for GORM
func (LicenseUsageEntryModel) TableName() string {
	return constants.TableUsageEntries
}
