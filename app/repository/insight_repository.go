package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/urlinsta/urlinsta/app/models"
)

// insightRepository implements the InsightRepository interface
type insightRepository struct {
	db *gorm.DB
}

// NewInsightRepository creates a new insight repository instance
func NewInsightRepository(db *gorm.DB) InsightRepository {
	return &insightRepository{db: db}
}

// Append adds samples to the time series. Samples are never updated in place.
func (r *insightRepository) Append(samples []models.InsightSample) error {
	if len(samples) == 0 {
		return nil
	}
	return r.db.Create(&samples).Error
}

// ListSince returns samples collected after the given time, newest first,
// optionally filtered to one metric.
func (r *insightRepository) ListSince(accountID uint, since time.Time, metric string) ([]models.InsightSample, error) {
	query := r.db.
		Where("account_id = ? AND collected_at > ?", accountID, since).
		Order("collected_at DESC")
	if metric != "" {
		query = query.Where("metric_name = ?", metric)
	}

	var samples []models.InsightSample
	err := query.Find(&samples).Error
	return samples, err
}

// LatestByMetric returns the newest sample per metric name for an account.
func (r *insightRepository) LatestByMetric(accountID uint) ([]models.InsightSample, error) {
	var samples []models.InsightSample
	err := r.db.
		Where("account_id = ?", accountID).
		Where("id IN (?)", r.db.Model(&models.InsightSample{}).
			Select("MAX(id)").
			Where("account_id = ?", accountID).
			Group("metric_name")).
		Find(&samples).Error
	return samples, err
}
