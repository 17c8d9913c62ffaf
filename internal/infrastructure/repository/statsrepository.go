package repository

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/keygate-io/keygate/internal/infrastructure/persistence/models"
	"github.com/keygate-io/keygate/internal/shared/logger"
)

// RequestStats is the aggregate of verification outcomes.
type RequestStats struct {
	TotalSuccessful uint64
	TotalRejected   uint64
}

// StatsRepositoryImpl records verification outcomes against the single
// request_stats row. It implements verification.StatsRecorder.
type StatsRepositoryImpl struct {
	db     *gorm.DB
	logger logger.Interface
}

// NewStatsRepository creates a new stats repository instance
func NewStatsRepository(db *gorm.DB, logger logger.Interface) *StatsRepositoryImpl {
	return &StatsRepositoryImpl{db: db, logger: logger}
}

// RecordSuccess atomically increments the successful request counter
func (r *StatsRepositoryImpl) RecordSuccess(ctx context.Context) error {
	return r.increment(ctx, "total_successful")
}

// RecordRejection atomically increments the rejected request counter
func (r *StatsRepositoryImpl) RecordRejection(ctx context.Context) error {
	return r.increment(ctx, "total_rejected")
}

func (r *StatsRepositoryImpl) increment(ctx context.Context, column string) error {
	result := r.db.WithContext(ctx).Model(&models.RequestStatsModel{}).
		Where("id = ?", 1).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if result.Error != nil {
		return fmt.Errorf("failed to update request stats: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		// First write on a fresh database; races resolve on the next update
		row := &models.RequestStatsModel{ID: 1}
		if column == "total_successful" {
			row.TotalSuccessful = 1
		} else {
			row.TotalRejected = 1
		}
		if err := r.db.WithContext(ctx).Create(row).Error; err != nil {
			return fmt.Errorf("failed to initialize request stats: %w", err)
		}
	}
	return nil
}

// Get returns the current aggregate counters
func (r *StatsRepositoryImpl) Get(ctx context.Context) (*RequestStats, error) {
	var model models.RequestStatsModel
	err := r.db.WithContext(ctx).Where("id = ?", 1).First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &RequestStats{}, nil
		}
		r.logger.Errorw("failed to get request stats", "error", err)
		return nil, fmt.Errorf("failed to get request stats: %w", err)
	}
	return &RequestStats{
		TotalSuccessful: model.TotalSuccessful,
		TotalRejected:   model.TotalRejected,
	}, nil
}
