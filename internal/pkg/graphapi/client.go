package graphapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2/log"
)

// InsightMetrics is the allow-list of metrics the insights endpoint accepts
// for business accounts. Unknown names are filtered out before querying since
// the API rejects the whole request on a single bad metric.
var InsightMetrics = []string{
	"impressions",
	"reach",
	"profile_views",
	"accounts_engaged",
	"total_interactions",
	"likes",
	"comments",
	"shares",
	"saves",
	"replies",
	"follows_and_unfollows",
	"follower_count",
}

// DefaultInsightMetrics is the subset collected when the caller does not ask
// for specific metrics.
var DefaultInsightMetrics = []string{"impressions", "reach", "profile_views", "follower_count"}

// AudienceMetrics are the demographic metrics queried for audience snapshots.
// Each is fetched independently so one unavailable metric does not block the
// others.
var AudienceMetrics = []string{
	"engaged_audience_demographics",
	"reached_audience_demographics",
	"follower_demographics",
}

// Client issues typed queries for one connected business account.
type Client struct {
	transport   *Transport
	accessToken string
	instagramID string
}

// NewClient binds a transport to one account's page token and business id.
func NewClient(transport *Transport, accessToken, instagramID string) *Client {
	return &Client{
		transport:   transport,
		accessToken: accessToken,
		instagramID: instagramID,
	}
}

func (c *Client) params() url.Values {
	params := url.Values{}
	params.Set("access_token", c.accessToken)
	return params
}

// GetAccountInfo fetches the basic profile fields of the account.
func (c *Client) GetAccountInfo(ctx context.Context) (*AccountInfo, error) {
	params := c.params()
	params.Set("fields", "id,username,name,profile_picture_url,followers_count,follows_count,media_count,biography")

	body, err := c.transport.Get(ctx, c.instagramID, params)
	if err != nil {
		return nil, err
	}
	var info AccountInfo
	if err := decodeInto(body, &info); err != nil {
		return nil, fmt.Errorf("decode account info: %w", err)
	}
	return &info, nil
}

// GetInsights fetches metric values for the given period. Nil metrics selects
// the default set. Metrics outside the allow-list are dropped; if nothing
// survives the filter the call returns an empty result without touching the
// network. A metric incompatible with the period counts as "no data", not as
// a failure.
func (c *Client) GetInsights(ctx context.Context, metrics []string, period string) ([]Insight, error) {
	if metrics == nil {
		metrics = DefaultInsightMetrics
	}
	if period == "" {
		period = "day"
	}

	valid := filterMetrics(metrics)
	if len(valid) == 0 {
		return []Insight{}, nil
	}

	params := c.params()
	params.Set("metric", strings.Join(valid, ","))
	params.Set("period", period)
	params.Set("metric_type", "total_value")

	body, err := c.transport.Get(ctx, c.instagramID+"/insights", params)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == CodeInvalidParameter && strings.Contains(strings.ToLower(apiErr.Message), "not compatible") {
			log.Infof("[GraphAPI] metrics %v not compatible with period %s, skipping", valid, period)
			return []Insight{}, nil
		}
		return nil, err
	}

	items, _ := body["data"].([]any)
	results := make([]Insight, 0, len(items))
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		name, _ := item["name"].(string)
		value := 0.0
		if tv, ok := item["total_value"].(map[string]any); ok {
			if v, ok := tv["value"].(float64); ok {
				value = v
			}
		}
		results = append(results, Insight{
			MetricName:  name,
			MetricValue: value,
			Period:      period,
		})
	}
	return results, nil
}

// GetAudienceData fetches each demographic metric independently and flattens
// its dimensional breakdowns into "{metric}_{dimension}" keyed category
// counts. Metrics the account cannot provide are skipped.
func (c *Client) GetAudienceData(ctx context.Context) (map[string]map[string]int64, error) {
	results := map[string]map[string]int64{}

	for _, metric := range AudienceMetrics {
		params := c.params()
		params.Set("metric", metric)
		params.Set("period", "lifetime")
		params.Set("metric_type", "total_value")

		body, err := c.transport.Get(ctx, c.instagramID+"/insights", params)
		if err != nil {
			if IsRateLimited(err) {
				return nil, err
			}
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				log.Infof("[GraphAPI] audience metric %s unavailable: %v", metric, apiErr)
				continue
			}
			return nil, err
		}

		mergeAudienceBreakdowns(results, metric, body)
	}
	return results, nil
}

func mergeAudienceBreakdowns(results map[string]map[string]int64, metric string, body map[string]any) {
	items, _ := body["data"].([]any)
	for _, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		tv, _ := item["total_value"].(map[string]any)
		breakdowns, _ := tv["breakdowns"].([]any)
		for _, rawBd := range breakdowns {
			bd, ok := rawBd.(map[string]any)
			if !ok {
				continue
			}
			dimension := "unknown"
			if keys, ok := bd["dimension_keys"].([]any); ok && len(keys) > 0 {
				if k, ok := keys[0].(string); ok {
					dimension = k
				}
			}
			values := map[string]int64{}
			if rows, ok := bd["results"].([]any); ok {
				for _, rawRow := range rows {
					row, ok := rawRow.(map[string]any)
					if !ok {
						continue
					}
					category := "unknown"
					if dv, ok := row["dimension_values"].([]any); ok && len(dv) > 0 {
						if s, ok := dv[0].(string); ok {
							category = s
						}
					}
					if v, ok := row["value"].(float64); ok {
						values[category] = int64(v)
					}
				}
			}
			if len(values) > 0 {
				results[metric+"_"+dimension] = values
			}
		}
	}
}

func filterMetrics(metrics []string) []string {
	allowed := make(map[string]bool, len(InsightMetrics))
	for _, m := range InsightMetrics {
		allowed[m] = true
	}
	valid := make([]string, 0, len(metrics))
	for _, m := range metrics {
		if allowed[m] {
			valid = append(valid, m)
		}
	}
	return valid
}
