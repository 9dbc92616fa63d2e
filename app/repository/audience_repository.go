package repository

import (
	"gorm.io/gorm"

	"github.com/urlinsta/urlinsta/app/models"
)

// audienceRepository implements the AudienceRepository interface
type audienceRepository struct {
	db *gorm.DB
}

// NewAudienceRepository creates a new audience repository instance
func NewAudienceRepository(db *gorm.DB) AudienceRepository {
	return &audienceRepository{db: db}
}

// Append adds a snapshot. Snapshots are never updated in place.
func (r *audienceRepository) Append(snapshot *models.AudienceSnapshot) error {
	return r.db.Create(snapshot).Error
}

// Latest returns the newest snapshot per breakdown type for an account.
func (r *audienceRepository) Latest(accountID uint) ([]models.AudienceSnapshot, error) {
	var snapshots []models.AudienceSnapshot
	err := r.db.
		Where("account_id = ?", accountID).
		Where("id IN (?)", r.db.Model(&models.AudienceSnapshot{}).
			Select("MAX(id)").
			Where("account_id = ?", accountID).
			Group("breakdown_type")).
		Find(&snapshots).Error
	return snapshots, err
}
