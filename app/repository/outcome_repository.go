package repository

import (
	"gorm.io/gorm"

	"github.com/urlinsta/urlinsta/app/models"
)

// outcomeRepository implements the OutcomeRepository interface
type outcomeRepository struct {
	db *gorm.DB
}

// NewOutcomeRepository creates a new outcome repository instance
func NewOutcomeRepository(db *gorm.DB) OutcomeRepository {
	return &outcomeRepository{db: db}
}

// Append adds one audit entry
func (r *outcomeRepository) Append(outcome *models.CollectionOutcome) error {
	return r.db.Create(outcome).Error
}

// ListRecent returns the newest audit entries for an account
func (r *outcomeRepository) ListRecent(accountID uint, limit int) ([]models.CollectionOutcome, error) {
	if limit <= 0 {
		limit = 50
	}
	var outcomes []models.CollectionOutcome
	err := r.db.
		Where("account_id = ?", accountID).
		Order("id DESC").
		Limit(limit).
		Find(&outcomes).Error
	return outcomes, err
}
