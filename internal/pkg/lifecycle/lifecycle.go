package lifecycle

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/urlinsta/urlinsta/app/models"
	"github.com/urlinsta/urlinsta/app/repository"
	"github.com/urlinsta/urlinsta/internal/pkg/authflow"
	"github.com/urlinsta/urlinsta/internal/pkg/graphapi"
)

// DefaultRenewalHorizonDays is how far ahead of expiry user credentials are
// renewed.
const DefaultRenewalHorizonDays = 7

// Manager renews user credentials nearing expiry and propagates each renewal
// into the dependent page credential.
type Manager struct {
	oauth       *graphapi.OAuthClient
	flow        *authflow.Flow
	accounts    repository.AccountRepository
	credentials repository.CredentialRepository
}

// New creates a lifecycle manager.
func New(oauth *graphapi.OAuthClient, flow *authflow.Flow, accounts repository.AccountRepository, credentials repository.CredentialRepository) *Manager {
	return &Manager{
		oauth:       oauth,
		flow:        flow,
		accounts:    accounts,
		credentials: credentials,
	}
}

// Summary aggregates one renewal batch. Failures never abort the batch; they
// accumulate here.
type Summary struct {
	Checked       int      `json:"checked"`
	Refreshed     int      `json:"refreshed"`
	Failed        int      `json:"failed"`
	PageSyncSkips int      `json:"page_sync_skips"`
	Errors        []string `json:"errors"`
}

// DueForRenewal lists the accounts whose user credential expires within the
// horizon, paired with that credential.
func (m *Manager) DueForRenewal(horizonDays int) ([]repository.AccountCredential, error) {
	if horizonDays <= 0 {
		horizonDays = DefaultRenewalHorizonDays
	}
	return m.accounts.ListWithExpiringUserCredentials(horizonDays)
}

// RenewExpiring renews every due user credential and re-derives the matching
// page credential. One account's failure is recorded and the batch moves on.
func (m *Manager) RenewExpiring(ctx context.Context, horizonDays int) Summary {
	summary := Summary{Errors: []string{}}

	due, err := m.DueForRenewal(horizonDays)
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("listing expiring credentials failed: %v", err))
		return summary
	}
	summary.Checked = len(due)
	if len(due) == 0 {
		log.Info("[Lifecycle] no credentials due for renewal")
		return summary
	}

	for _, pair := range due {
		if err := m.renewOne(ctx, pair, &summary); err != nil {
			summary.Failed++
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("renewal failed for @%s: %v", pair.Account.Username, err))
			log.Errorf("[Lifecycle] renewal failed for @%s: %v", pair.Account.Username, err)
			continue
		}
		summary.Refreshed++
	}

	log.Infof("[Lifecycle] renewal batch done: %d refreshed, %d failed", summary.Refreshed, summary.Failed)
	return summary
}

func (m *Manager) renewOne(ctx context.Context, pair repository.AccountCredential, summary *Summary) error {
	account := pair.Account

	renewed, err := m.oauth.ExchangeLongLived(ctx, pair.Credential.AccessToken)
	if err != nil {
		return err
	}

	expiresAt := renewed.ExpiresAt
	if err := m.credentials.Replace(account.ID, models.CREDENTIAL_KIND_USER, renewed.AccessToken, &expiresAt); err != nil {
		return fmt.Errorf("persisting renewed user credential: %w", err)
	}
	log.Infof("[Lifecycle] user credential renewed for @%s, expires %s", account.Username, expiresAt.Format("2006-01-02"))

	m.syncPageCredential(ctx, account, renewed.AccessToken, summary)
	return nil
}

// syncPageCredential re-derives the page credential under the renewed user
// token. A missing match is a non-fatal skip: the account keeps its last
// known page credential.
func (m *Manager) syncPageCredential(ctx context.Context, account models.Account, userToken string, summary *Summary) {
	pages, _, err := m.flow.DiscoverPages(ctx, userToken)
	if err != nil {
		summary.PageSyncSkips++
		log.Warnf("[Lifecycle] page credential sync failed for @%s: %v", account.Username, err)
		return
	}

	for _, page := range pages {
		if page.ID != account.FacebookPageID || page.AccessToken == "" {
			continue
		}
		if err := m.credentials.Replace(account.ID, models.CREDENTIAL_KIND_PAGE, page.AccessToken, nil); err != nil {
			summary.PageSyncSkips++
			log.Warnf("[Lifecycle] persisting page credential failed for @%s: %v", account.Username, err)
			return
		}
		log.Infof("[Lifecycle] page credential synced for page %s", page.ID)
		return
	}

	summary.PageSyncSkips++
	log.Warnf("[Lifecycle] page credential sync skipped for @%s: linked page %s not found", account.Username, account.FacebookPageID)
}
