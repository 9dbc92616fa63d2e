package graphapi

import (
	"encoding/json"
	"time"
)

// Page is a Facebook Page resource as returned by page listings.
type Page struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	AccessToken string `json:"access_token"`
	// Embedded linkage hint. The field is sometimes absent even when a
	// valid link exists, so discovery never trusts it alone.
	InstagramBusinessAccount *InstagramAccount `json:"instagram_business_account"`
}

// Business is one Business Manager organization owned by the caller.
type Business struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// InstagramAccount is the business profile linked to a page.
type InstagramAccount struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Name              string `json:"name"`
	ProfilePictureURL string `json:"profile_picture_url"`
	FollowersCount    int64  `json:"followers_count"`
	MediaCount        int64  `json:"media_count"`
}

// AccountInfo is the field set returned by the account-info query.
type AccountInfo struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Name              string `json:"name"`
	ProfilePictureURL string `json:"profile_picture_url"`
	FollowersCount    int64  `json:"followers_count"`
	FollowsCount      int64  `json:"follows_count"`
	MediaCount        int64  `json:"media_count"`
	Biography         string `json:"biography"`
}

// TokenResponse is the result of a code or long-lived token exchange.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	// ExpiresAt is the absolute expiry derived from ExpiresIn at exchange
	// time. Zero for short-lived responses that carry no expires_in.
	ExpiresAt time.Time `json:"-"`
}

// Insight is one metric value for one period.
type Insight struct {
	MetricName  string  `json:"metric_name"`
	MetricValue float64 `json:"metric_value"`
	Period      string  `json:"period"`
}

// decodeInto converts a dynamic response body into a typed struct by
// round-tripping through JSON. Untyped maps stop at this boundary.
func decodeInto(data any, v any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, v)
}

// decodeList converts the "data" list of a response body into typed values,
// skipping entries that do not decode.
func decodeList[T any](body map[string]any, key string) []T {
	items, _ := body[key].([]any)
	out := make([]T, 0, len(items))
	for _, item := range items {
		var v T
		if err := decodeInto(item, &v); err != nil {
			continue
		}
		out = append(out, v)
	}
	return out
}
