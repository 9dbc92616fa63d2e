package collector

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/urlinsta/urlinsta/app/models"
	"github.com/urlinsta/urlinsta/app/repository"
	"github.com/urlinsta/urlinsta/internal/pkg/graphapi"
	"github.com/urlinsta/urlinsta/internal/pkg/ratelimit"
)

type fakeAccountRepo struct {
	repository.AccountRepository
	list []models.Account
}

func (f *fakeAccountRepo) List() ([]models.Account, error) {
	return f.list, nil
}

type fakeCredentialRepo struct {
	repository.CredentialRepository
	// page tokens by account id; missing ids have no page credential
	pageTokens map[uint]string
}

func (f *fakeCredentialRepo) Get(accountID uint, kind string) (*models.Credential, error) {
	token, ok := f.pageTokens[accountID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &models.Credential{AccountID: accountID, Kind: kind, AccessToken: token}, nil
}

type fakeInsightRepo struct {
	repository.InsightRepository
	appended []models.InsightSample
}

func (f *fakeInsightRepo) Append(samples []models.InsightSample) error {
	f.appended = append(f.appended, samples...)
	return nil
}

type fakeAudienceRepo struct {
	repository.AudienceRepository
	appended []models.AudienceSnapshot
}

func (f *fakeAudienceRepo) Append(snapshot *models.AudienceSnapshot) error {
	f.appended = append(f.appended, *snapshot)
	return nil
}

type fakeOutcomeRepo struct {
	repository.OutcomeRepository
	appended []models.CollectionOutcome
}

func (f *fakeOutcomeRepo) Append(outcome *models.CollectionOutcome) error {
	f.appended = append(f.appended, *outcome)
	return nil
}

func (f *fakeOutcomeRepo) statuses(accountID uint, kind string) []string {
	var out []string
	for _, o := range f.appended {
		if o.AccountID == accountID && o.Kind == kind {
			out = append(out, o.Status)
		}
	}
	return out
}

type pipelineFixture struct {
	pipeline *Pipeline
	insights *fakeInsightRepo
	audience *fakeAudienceRepo
	outcomes *fakeOutcomeRepo
}

// newTestPipeline serves insights and audience data per page token. Tokens
// prefixed "broken" get API errors on the insights endpoint.
func newTestPipeline(t *testing.T, accounts []models.Account, pageTokens map[uint]string) *pipelineFixture {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("access_token")
		metric := r.URL.Query().Get("metric")

		if strings.HasPrefix(token, "broken") && strings.Contains(metric, "impressions") {
			w.WriteHeader(http.StatusInternalServerError)
			fmt.Fprint(w, `{"error":{"message":"insights backend unavailable","code":2}}`)
			return
		}

		if strings.Contains(metric, "demographics") {
			if metric == "follower_demographics" {
				fmt.Fprint(w, `{"data":[{"name":"follower_demographics","total_value":{"breakdowns":[
					{"dimension_keys":["city"],"results":[{"dimension_values":["Berlin"],"value":7}]}
				]}}]}`)
				return
			}
			fmt.Fprint(w, `{"data":[]}`)
			return
		}

		fmt.Fprint(w, `{"data":[{"name":"reach","period":"day","total_value":{"value":5}}]}`)
	}))
	t.Cleanup(server.Close)

	transport := graphapi.NewTransport(ratelimit.New(10000, 3600))
	transport.BaseURL = server.URL
	transport.MaxAttempts = 1

	insights := &fakeInsightRepo{}
	audience := &fakeAudienceRepo{}
	outcomes := &fakeOutcomeRepo{}
	repos := &repository.Repositories{
		Account:    &fakeAccountRepo{list: accounts},
		Credential: &fakeCredentialRepo{pageTokens: pageTokens},
		Insight:    insights,
		Audience:   audience,
		Outcome:    outcomes,
	}
	return &pipelineFixture{
		pipeline: New(transport, repos),
		insights: insights,
		audience: audience,
		outcomes: outcomes,
	}
}

func account(id uint, username string) models.Account {
	return models.Account{ID: id, InstagramID: fmt.Sprintf("ig-%d", id), Username: username, FacebookPageID: fmt.Sprintf("page-%d", id)}
}

func TestRunCollectsBothCategories(t *testing.T) {
	f := newTestPipeline(t,
		[]models.Account{account(1, "acme")},
		map[uint]string{1: "page-token"})

	summary := f.pipeline.Run(context.Background(), false)

	assert.Equal(t, 1, summary.TotalAccounts)
	assert.Equal(t, 1, summary.InsightsSuccess)
	assert.Equal(t, 1, summary.AudienceSuccess)
	assert.Empty(t, summary.Errors)

	require.Len(t, f.insights.appended, 1)
	assert.Equal(t, "reach", f.insights.appended[0].MetricName)
	assert.Equal(t, 5.0, f.insights.appended[0].MetricValue)

	require.Len(t, f.audience.appended, 1)
	assert.Equal(t, "follower_demographics_city", f.audience.appended[0].BreakdownType)
	assert.Equal(t, int64(7), f.audience.appended[0].Breakdown()["Berlin"])

	assert.Equal(t, []string{models.COLLECTION_STATUS_SUCCESS}, f.outcomes.statuses(1, models.COLLECTION_KIND_INSIGHTS))
	assert.Equal(t, []string{models.COLLECTION_STATUS_SUCCESS}, f.outcomes.statuses(1, models.COLLECTION_KIND_AUDIENCE))
}

func TestRunMissingPageCredentialFailsBothCategories(t *testing.T) {
	f := newTestPipeline(t,
		[]models.Account{account(1, "orphan"), account(2, "healthy")},
		map[uint]string{2: "page-token"})

	summary := f.pipeline.Run(context.Background(), false)

	assert.Equal(t, 2, summary.TotalAccounts)
	assert.Equal(t, 1, summary.InsightsFailed)
	assert.Equal(t, 1, summary.AudienceFailed)
	assert.Equal(t, 1, summary.InsightsSuccess)
	assert.Equal(t, 1, summary.AudienceSuccess)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "@orphan")

	// The skipped account produced no data and no outcome rows.
	assert.Empty(t, f.outcomes.statuses(1, models.COLLECTION_KIND_INSIGHTS))
	// The healthy account is unaffected.
	require.Len(t, f.insights.appended, 1)
	assert.Equal(t, uint(2), f.insights.appended[0].AccountID)
}

func TestRunInsightsFailureDoesNotBlockAudience(t *testing.T) {
	f := newTestPipeline(t,
		[]models.Account{account(1, "flaky")},
		map[uint]string{1: "broken-token"})

	summary := f.pipeline.Run(context.Background(), false)

	assert.Equal(t, 1, summary.InsightsFailed)
	assert.Equal(t, 1, summary.AudienceSuccess)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "insights error for @flaky")

	assert.Equal(t, []string{models.COLLECTION_STATUS_ERROR}, f.outcomes.statuses(1, models.COLLECTION_KIND_INSIGHTS))
	assert.Equal(t, []string{models.COLLECTION_STATUS_SUCCESS}, f.outcomes.statuses(1, models.COLLECTION_KIND_AUDIENCE))
	require.Len(t, f.audience.appended, 1)
}

func TestRunAudienceOnlySkipsInsights(t *testing.T) {
	f := newTestPipeline(t,
		[]models.Account{account(1, "acme")},
		map[uint]string{1: "page-token"})

	summary := f.pipeline.Run(context.Background(), true)

	assert.Equal(t, 0, summary.InsightsSuccess)
	assert.Equal(t, 0, summary.InsightsFailed)
	assert.Equal(t, 1, summary.AudienceSuccess)
	assert.Empty(t, f.insights.appended)
	assert.Empty(t, f.outcomes.statuses(1, models.COLLECTION_KIND_INSIGHTS))
}

func TestRunRateLimitedOutcome(t *testing.T) {
	f := newTestPipeline(t,
		[]models.Account{account(1, "acme")},
		map[uint]string{1: "page-token"})

	// Exhaust the shared limiter so the first admission is denied with a
	// wait far beyond the 60s budget.
	limiter := ratelimit.New(1, 7200)
	limiter.Record()
	f.pipeline.transport.Limiter = limiter

	summary := f.pipeline.Run(context.Background(), false)

	assert.Equal(t, 1, summary.InsightsFailed)
	assert.Equal(t, 1, summary.AudienceFailed)
	assert.Equal(t, []string{models.COLLECTION_STATUS_RATE_LIMITED}, f.outcomes.statuses(1, models.COLLECTION_KIND_INSIGHTS))
	assert.Equal(t, []string{models.COLLECTION_STATUS_RATE_LIMITED}, f.outcomes.statuses(1, models.COLLECTION_KIND_AUDIENCE))
}

func TestRunEmptyInsightsIsSuccess(t *testing.T) {
	accounts := []models.Account{account(1, "quiet")}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer server.Close()

	transport := graphapi.NewTransport(ratelimit.New(1000, 3600))
	transport.BaseURL = server.URL
	transport.MaxAttempts = 1

	insights := &fakeInsightRepo{}
	outcomes := &fakeOutcomeRepo{}
	repos := &repository.Repositories{
		Account:    &fakeAccountRepo{list: accounts},
		Credential: &fakeCredentialRepo{pageTokens: map[uint]string{1: "page-token"}},
		Insight:    insights,
		Audience:   &fakeAudienceRepo{},
		Outcome:    outcomes,
	}
	pipeline := New(transport, repos)

	summary := pipeline.Run(context.Background(), false)

	assert.Equal(t, 1, summary.InsightsSuccess)
	assert.Empty(t, insights.appended)

	statuses := outcomes.statuses(1, models.COLLECTION_KIND_INSIGHTS)
	require.Len(t, statuses, 1)
	assert.Equal(t, models.COLLECTION_STATUS_SUCCESS, statuses[0])

	var detail string
	for _, o := range outcomes.appended {
		if o.Kind == models.COLLECTION_KIND_INSIGHTS {
			detail = o.Detail
		}
	}
	assert.Equal(t, "no insights data available", detail)
}
