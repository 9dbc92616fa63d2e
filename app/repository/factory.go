package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{
		db: db,
	}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

// GetAccountRepository returns the account repository instance
func (f *Factory) GetAccountRepository() AccountRepository {
	return f.GetRepositories().Account
}

// GetCredentialRepository returns the credential repository instance
func (f *Factory) GetCredentialRepository() CredentialRepository {
	return f.GetRepositories().Credential
}

// GetInsightRepository returns the insight repository instance
func (f *Factory) GetInsightRepository() InsightRepository {
	return f.GetRepositories().Insight
}

// GetAudienceRepository returns the audience repository instance
func (f *Factory) GetAudienceRepository() AudienceRepository {
	return f.GetRepositories().Audience
}

// GetOutcomeRepository returns the outcome repository instance
func (f *Factory) GetOutcomeRepository() OutcomeRepository {
	return f.GetRepositories().Outcome
}

// Global factory instance
var globalFactory *Factory
var factoryOnce sync.Once

// InitializeFactory initializes the global repository factory
func InitializeFactory(db *gorm.DB) {
	factoryOnce.Do(func() {
		globalFactory = NewFactory(db)
	})
}

// GetGlobalFactory returns the global repository factory instance
func GetGlobalFactory() *Factory {
	if globalFactory == nil {
		panic("Repository factory not initialized. Call InitializeFactory first.")
	}
	return globalFactory
}

// GetGlobalRepositories returns the global repositories instance
func GetGlobalRepositories() *Repositories {
	return GetGlobalFactory().GetRepositories()
}
