package collector

import (
	"context"
	"fmt"

	"github.com/gofiber/fiber/v2/log"

	"github.com/urlinsta/urlinsta/app/models"
	"github.com/urlinsta/urlinsta/app/repository"
	"github.com/urlinsta/urlinsta/internal/pkg/graphapi"
)

// Pipeline fetches insights and audience data for every connected account and
// persists both the results and a structured outcome log per fetch.
type Pipeline struct {
	transport   *graphapi.Transport
	accounts    repository.AccountRepository
	credentials repository.CredentialRepository
	insights    repository.InsightRepository
	audience    repository.AudienceRepository
	outcomes    repository.OutcomeRepository
}

// New creates a collection pipeline.
func New(transport *graphapi.Transport, repos *repository.Repositories) *Pipeline {
	return &Pipeline{
		transport:   transport,
		accounts:    repos.Account,
		credentials: repos.Credential,
		insights:    repos.Insight,
		audience:    repos.Audience,
		outcomes:    repos.Outcome,
	}
}

// Summary aggregates one batch run. Partial failure is the expected
// steady state, not an abort condition.
type Summary struct {
	TotalAccounts   int      `json:"total_accounts"`
	InsightsSuccess int      `json:"insights_success"`
	InsightsFailed  int      `json:"insights_failed"`
	AudienceSuccess int      `json:"audience_success"`
	AudienceFailed  int      `json:"audience_failed"`
	Errors          []string `json:"errors"`
}

// Run collects for every account. With audienceOnly set, the insights
// category is skipped entirely (used by the daily audience trigger). The two
// categories are independent per account, and accounts are independent of
// each other.
func (p *Pipeline) Run(ctx context.Context, audienceOnly bool) Summary {
	summary := Summary{Errors: []string{}}

	accounts, err := p.accounts.List()
	if err != nil {
		summary.Errors = append(summary.Errors, fmt.Sprintf("listing accounts failed: %v", err))
		return summary
	}
	summary.TotalAccounts = len(accounts)

	for _, account := range accounts {
		credential, err := p.credentials.Get(account.ID, models.CREDENTIAL_KIND_PAGE)
		if err != nil || credential.AccessToken == "" {
			summary.Errors = append(summary.Errors, fmt.Sprintf("no page credential for @%s", account.Username))
			if !audienceOnly {
				summary.InsightsFailed++
			}
			summary.AudienceFailed++
			continue
		}

		client := graphapi.NewClient(p.transport, credential.AccessToken, account.InstagramID)

		if !audienceOnly {
			if err := p.collectInsights(ctx, client, account); err != nil {
				summary.InsightsFailed++
				summary.Errors = append(summary.Errors, fmt.Sprintf("insights error for @%s: %v", account.Username, err))
			} else {
				summary.InsightsSuccess++
			}
		}

		if err := p.collectAudience(ctx, client, account); err != nil {
			summary.AudienceFailed++
			summary.Errors = append(summary.Errors, fmt.Sprintf("audience error for @%s: %v", account.Username, err))
		} else {
			summary.AudienceSuccess++
		}
	}

	log.Infof("[Collector] batch done: %d accounts, insights %d/%d, audience %d/%d",
		summary.TotalAccounts,
		summary.InsightsSuccess, summary.InsightsSuccess+summary.InsightsFailed,
		summary.AudienceSuccess, summary.AudienceSuccess+summary.AudienceFailed)
	return summary
}

func (p *Pipeline) collectInsights(ctx context.Context, client *graphapi.Client, account models.Account) error {
	insights, err := client.GetInsights(ctx, nil, models.PERIOD_DAY)
	if err != nil {
		p.logOutcome(account.ID, models.COLLECTION_KIND_INSIGHTS, statusFor(err), err.Error())
		return err
	}

	if len(insights) == 0 {
		p.logOutcome(account.ID, models.COLLECTION_KIND_INSIGHTS, models.COLLECTION_STATUS_SUCCESS, "no insights data available")
		return nil
	}

	samples := make([]models.InsightSample, 0, len(insights))
	for _, insight := range insights {
		samples = append(samples, models.InsightSample{
			AccountID:   account.ID,
			MetricName:  insight.MetricName,
			MetricValue: insight.MetricValue,
			Period:      insight.Period,
		})
	}
	if err := p.insights.Append(samples); err != nil {
		p.logOutcome(account.ID, models.COLLECTION_KIND_INSIGHTS, models.COLLECTION_STATUS_ERROR, err.Error())
		return fmt.Errorf("persisting insight samples: %w", err)
	}

	p.logOutcome(account.ID, models.COLLECTION_KIND_INSIGHTS, models.COLLECTION_STATUS_SUCCESS, "")
	return nil
}

func (p *Pipeline) collectAudience(ctx context.Context, client *graphapi.Client, account models.Account) error {
	audience, err := client.GetAudienceData(ctx)
	if err != nil {
		p.logOutcome(account.ID, models.COLLECTION_KIND_AUDIENCE, statusFor(err), err.Error())
		return err
	}

	if len(audience) == 0 {
		p.logOutcome(account.ID, models.COLLECTION_KIND_AUDIENCE, models.COLLECTION_STATUS_SUCCESS, "no audience data available")
		return nil
	}

	for breakdownType, breakdown := range audience {
		snapshot := models.AudienceSnapshot{
			AccountID:     account.ID,
			BreakdownType: breakdownType,
		}
		if err := snapshot.SetBreakdown(breakdown); err != nil {
			p.logOutcome(account.ID, models.COLLECTION_KIND_AUDIENCE, models.COLLECTION_STATUS_ERROR, err.Error())
			return fmt.Errorf("serializing %s breakdown: %w", breakdownType, err)
		}
		if err := p.audience.Append(&snapshot); err != nil {
			p.logOutcome(account.ID, models.COLLECTION_KIND_AUDIENCE, models.COLLECTION_STATUS_ERROR, err.Error())
			return fmt.Errorf("persisting %s snapshot: %w", breakdownType, err)
		}
	}

	p.logOutcome(account.ID, models.COLLECTION_KIND_AUDIENCE, models.COLLECTION_STATUS_SUCCESS, "")
	return nil
}

func (p *Pipeline) logOutcome(accountID uint, kind, status, detail string) {
	outcome := models.CollectionOutcome{
		AccountID: accountID,
		Kind:      kind,
		Status:    status,
		Detail:    detail,
	}
	if err := p.outcomes.Append(&outcome); err != nil {
		// The audit log must never take the collection down with it.
		log.Errorf("[Collector] recording %s outcome for account %d failed: %v", kind, accountID, err)
	}
}

func statusFor(err error) string {
	if graphapi.IsRateLimited(err) {
		return models.COLLECTION_STATUS_RATE_LIMITED
	}
	return models.COLLECTION_STATUS_ERROR
}
