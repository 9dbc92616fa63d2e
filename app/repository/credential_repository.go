package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/urlinsta/urlinsta/app/models"
)

// credentialRepository implements the CredentialRepository interface
type credentialRepository struct {
	db *gorm.DB
}

// NewCredentialRepository creates a new credential repository instance
func NewCredentialRepository(db *gorm.DB) CredentialRepository {
	return &credentialRepository{db: db}
}

// Get retrieves the live credential of one kind for an account
func (r *credentialRepository) Get(accountID uint, kind string) (*models.Credential, error) {
	var credential models.Credential
	err := r.db.
		Where("account_id = ? AND kind = ?", accountID, kind).
		Order("id DESC").
		First(&credential).Error
	if err != nil {
		return nil, err
	}
	return &credential, nil
}

// Replace atomically swaps the live credential for (accountID, kind).
// Delete-then-insert inside one transaction: a partially applied renewal can
// never leave two live credentials of the same kind behind.
func (r *credentialRepository) Replace(accountID uint, kind, accessToken string, expiresAt *time.Time) error {
	credential := models.Credential{
		AccountID:   accountID,
		Kind:        kind,
		AccessToken: accessToken,
		ExpiresAt:   expiresAt,
	}
	if err := credential.Validate(); err != nil {
		return err
	}

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ? AND kind = ?", accountID, kind).
			Delete(&models.Credential{}).Error; err != nil {
			return err
		}
		return tx.Create(&credential).Error
	})
}
