package models

import (
	"time"

	"github.com/keygate-io/keygate/internal/shared/constants"
)

// RequestStatsModel is the single-row aggregate of verification outcomes.
type RequestStatsModel struct {
	ID              uint   `gorm:"primarykey"`
	TotalSuccessful uint64 `gorm:"not null;default:0"`
	TotalRejected   uint64 `gorm:"not null;default:0"`
	UpdatedAt       time.Time
}

// TableName specifies the table name for GORM
func (RequestStatsModel) TableName() string {
	return constants.TableRequestStats
}

// CounterModel holds named monotonic counters, advanced atomically.
type CounterModel struct {
	ID    uint   `gorm:"primarykey"`
	Name  string `gorm:"not null;size:50;uniqueIndex"`
	Value uint64 `gorm:"not null;default:0"`
}

// TableName specifies the table name for GORM
func (CounterModel) TableName() string {
	return constants.TableCounters
}
