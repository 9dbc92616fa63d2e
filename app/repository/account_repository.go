package repository

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/urlinsta/urlinsta/app/models"
)

// accountRepository implements the AccountRepository interface
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository instance
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// CreateOrUpdate inserts the account on first authorization and refreshes
// username and linked page on every later one. Uniqueness is on InstagramID.
func (r *accountRepository) CreateOrUpdate(instagramID, username, facebookPageID string) (*models.Account, error) {
	var account models.Account
	err := r.db.Where("instagram_id = ?", instagramID).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		account = models.Account{
			InstagramID:    instagramID,
			Username:       username,
			FacebookPageID: facebookPageID,
		}
		if err := account.Validate(); err != nil {
			return nil, err
		}
		if err := r.db.Create(&account).Error; err != nil {
			return nil, err
		}
		return &account, nil
	}
	if err != nil {
		return nil, err
	}

	account.Username = username
	account.FacebookPageID = facebookPageID
	if err := account.Validate(); err != nil {
		return nil, err
	}
	if err := r.db.Save(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByID retrieves an account by its internal ID
func (r *accountRepository) GetByID(id uint) (*models.Account, error) {
	var account models.Account
	err := r.db.First(&account, id).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// GetByInstagramID retrieves an account by its external Instagram ID
func (r *accountRepository) GetByInstagramID(instagramID string) (*models.Account, error) {
	var account models.Account
	err := r.db.Where("instagram_id = ?", instagramID).First(&account).Error
	if err != nil {
		return nil, err
	}
	return &account, nil
}

// List returns all connected accounts
func (r *accountRepository) List() ([]models.Account, error) {
	var accounts []models.Account
	err := r.db.Order("id").Find(&accounts).Error
	return accounts, err
}

// Count returns the number of connected accounts
func (r *accountRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Account{}).Count(&count).Error
	return count, err
}

// ListWithExpiringUserCredentials pairs accounts with their user credential
// when that credential expires inside the horizon.
func (r *accountRepository) ListWithExpiringUserCredentials(days int) ([]AccountCredential, error) {
	cutoff := time.Now().Add(time.Duration(days) * 24 * time.Hour)

	var credentials []models.Credential
	err := r.db.
		Where("kind = ? AND expires_at IS NOT NULL AND expires_at < ?", models.CREDENTIAL_KIND_USER, cutoff).
		Order("expires_at").
		Find(&credentials).Error
	if err != nil {
		return nil, err
	}

	pairs := make([]AccountCredential, 0, len(credentials))
	for _, credential := range credentials {
		var account models.Account
		if err := r.db.First(&account, credential.AccountID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				continue
			}
			return nil, err
		}
		pairs = append(pairs, AccountCredential{Account: account, Credential: credential})
	}
	return pairs, nil
}
