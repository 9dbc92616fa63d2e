package statistics

import (
	"fmt"
	"log"
	"time"

	"github.com/urlinsta/urlinsta/app/repository"
	"github.com/urlinsta/urlinsta/internal/pkg/cache"
)

const (
	CacheKeyAccountSummary = "statistics:summary:%d" // Format with account ID
	CacheKeyAccountsTotal  = "statistics:accounts:total"
	CacheExpiration        = 5 * time.Minute
)

// MetricValue is the newest collected value of one metric.
type MetricValue struct {
	Metric      string    `json:"metric"`
	Value       float64   `json:"value"`
	Period      string    `json:"period"`
	CollectedAt time.Time `json:"collected_at"`
}

// AccountSummary is the latest value per metric for one account. It is what
// the dashboard renders first, so reads go through the cache.
type AccountSummary struct {
	AccountID   uint          `json:"account_id"`
	Metrics     []MetricValue `json:"metrics"`
	GeneratedAt time.Time     `json:"generated_at"`
}

// GetAccountSummary returns the cached summary for an account, rebuilding it
// from the database when the cache has no fresh copy.
func GetAccountSummary(accountID uint) (*AccountSummary, error) {
	key := fmt.Sprintf(CacheKeyAccountSummary, accountID)

	var cached AccountSummary
	if err := cache.GetJSON(key, &cached); err == nil {
		return &cached, nil
	}

	summary, err := buildAccountSummary(accountID)
	if err != nil {
		return nil, err
	}

	if err := cache.SetJSON(key, summary, CacheExpiration); err != nil {
		// Cache failures never block the read path.
		log.Printf("failed to cache summary for account %d: %v", accountID, err)
	}

	return summary, nil
}

// InvalidateAccountSummary drops the cached summary so the next read rebuilds
// it. Called after a collection run stores new samples.
func InvalidateAccountSummary(accountID uint) {
	key := fmt.Sprintf(CacheKeyAccountSummary, accountID)
	if err := cache.Delete(key); err != nil {
		log.Printf("failed to invalidate summary for account %d: %v", accountID, err)
	}
}

// TotalAccounts returns the connected account count, cached briefly since it
// only changes on new authorizations.
func TotalAccounts() (int64, error) {
	var cached int64
	if err := cache.GetJSON(CacheKeyAccountsTotal, &cached); err == nil {
		return cached, nil
	}

	total, err := repository.GetGlobalFactory().GetAccountRepository().Count()
	if err != nil {
		return 0, err
	}

	if err := cache.SetJSON(CacheKeyAccountsTotal, total, CacheExpiration); err != nil {
		log.Printf("failed to cache account total: %v", err)
	}

	return total, nil
}

func buildAccountSummary(accountID uint) (*AccountSummary, error) {
	samples, err := repository.GetGlobalFactory().GetInsightRepository().LatestByMetric(accountID)
	if err != nil {
		return nil, err
	}

	summary := &AccountSummary{
		AccountID:   accountID,
		Metrics:     make([]MetricValue, 0, len(samples)),
		GeneratedAt: time.Now(),
	}
	for _, s := range samples {
		summary.Metrics = append(summary.Metrics, MetricValue{
			Metric:      s.MetricName,
			Value:       s.MetricValue,
			Period:      s.Period,
			CollectedAt: s.CollectedAt,
		})
	}

	return summary, nil
}
