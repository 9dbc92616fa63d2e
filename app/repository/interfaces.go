package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/urlinsta/urlinsta/app/models"
)

// AccountRepository defines the interface for account-related database operations
type AccountRepository interface {
	CreateOrUpdate(instagramID, username, facebookPageID string) (*models.Account, error)
	GetByID(id uint) (*models.Account, error)
	GetByInstagramID(instagramID string) (*models.Account, error)
	List() ([]models.Account, error)
	Count() (int64, error)
	// ListWithExpiringUserCredentials returns every account whose user
	// credential expires within the given number of days, paired with it.
	ListWithExpiringUserCredentials(days int) ([]AccountCredential, error)
}

// CredentialRepository defines the interface for credential storage. Replace
// is the only write path and keeps the at-most-one-live-credential-per-kind
// invariant by deleting and inserting inside one transaction.
type CredentialRepository interface {
	Get(accountID uint, kind string) (*models.Credential, error)
	Replace(accountID uint, kind, accessToken string, expiresAt *time.Time) error
}

// InsightRepository defines the interface for the append-only insight series
type InsightRepository interface {
	Append(samples []models.InsightSample) error
	ListSince(accountID uint, since time.Time, metric string) ([]models.InsightSample, error)
	// LatestByMetric returns the newest sample per metric name.
	LatestByMetric(accountID uint) ([]models.InsightSample, error)
}

// AudienceRepository defines the interface for append-only audience snapshots
type AudienceRepository interface {
	Append(snapshot *models.AudienceSnapshot) error
	// Latest returns the newest snapshot per breakdown type.
	Latest(accountID uint) ([]models.AudienceSnapshot, error)
}

// OutcomeRepository defines the interface for the collection audit log
type OutcomeRepository interface {
	Append(outcome *models.CollectionOutcome) error
	ListRecent(accountID uint, limit int) ([]models.CollectionOutcome, error)
}

// AccountCredential pairs an account with one of its credentials.
type AccountCredential struct {
	Account    models.Account
	Credential models.Credential
}

// Repositories struct holds all repository instances
type Repositories struct {
	Account    AccountRepository
	Credential CredentialRepository
	Insight    InsightRepository
	Audience   AudienceRepository
	Outcome    OutcomeRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Account:    NewAccountRepository(db),
		Credential: NewCredentialRepository(db),
		Insight:    NewInsightRepository(db),
		Audience:   NewAudienceRepository(db),
		Outcome:    NewOutcomeRepository(db),
	}
}
