package graphapi

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

const (
	// Long-lived user tokens default to 60 days when the exchange response
	// omits expires_in.
	defaultLongLivedExpirySeconds = 5184000

	pageFields      = "id,name,access_token,instagram_business_account"
	igAccountFields = "instagram_business_account{id,username,name,profile_picture_url,followers_count,media_count}"
)

// OAuthScopes are the permissions requested during login. business_management
// is required for the Business Manager page-discovery fallback.
var OAuthScopes = []string{
	"instagram_basic",
	"instagram_manage_insights",
	"pages_show_list",
	"pages_read_engagement",
	"business_management",
}

// OAuthClient performs the token-exchange and page-discovery calls of the
// authorization flow. It carries the app registration, not a user identity.
type OAuthClient struct {
	Transport   *Transport
	AppID       string
	AppSecret   string
	RedirectURI string
	// DialogBaseURL hosts the interactive authorization dialog, which
	// lives on www.facebook.com rather than the graph host.
	DialogBaseURL string

	// now is swapped out by tests pinning the expiry math.
	now func() time.Time
}

// NewOAuthClient builds an OAuth client for the given app registration.
func NewOAuthClient(transport *Transport, appID, appSecret, redirectURI string) *OAuthClient {
	return &OAuthClient{
		Transport:     transport,
		AppID:         appID,
		AppSecret:     appSecret,
		RedirectURI:   redirectURI,
		DialogBaseURL: "https://www.facebook.com/" + GraphAPIVersion,
		now:           time.Now,
	}
}

// AuthURL builds the provider authorization redirect URL for the given
// anti-forgery state token.
func (o *OAuthClient) AuthURL(state string) string {
	params := url.Values{}
	params.Set("client_id", o.AppID)
	params.Set("redirect_uri", o.RedirectURI)
	params.Set("state", state)
	params.Set("scope", strings.Join(OAuthScopes, ","))
	params.Set("response_type", "code")
	return fmt.Sprintf("%s/dialog/oauth?%s", o.DialogBaseURL, params.Encode())
}

// ExchangeCode trades an authorization code for a short-lived user token.
func (o *OAuthClient) ExchangeCode(ctx context.Context, code string) (*TokenResponse, error) {
	params := url.Values{}
	params.Set("client_id", o.AppID)
	params.Set("client_secret", o.AppSecret)
	params.Set("redirect_uri", o.RedirectURI)
	params.Set("code", code)

	body, err := o.Transport.Get(ctx, "oauth/access_token", params)
	if err != nil {
		return nil, fmt.Errorf("exchange authorization code: %w", err)
	}
	return o.parseTokenResponse(body, false)
}

// ExchangeLongLived trades a user token for a long-lived one (~60 days) and
// records the absolute expiry. The same exchange renews an existing
// long-lived token.
func (o *OAuthClient) ExchangeLongLived(ctx context.Context, userToken string) (*TokenResponse, error) {
	params := url.Values{}
	params.Set("grant_type", "fb_exchange_token")
	params.Set("client_id", o.AppID)
	params.Set("client_secret", o.AppSecret)
	params.Set("fb_exchange_token", userToken)

	body, err := o.Transport.Get(ctx, "oauth/access_token", params)
	if err != nil {
		return nil, fmt.Errorf("exchange long-lived token: %w", err)
	}
	return o.parseTokenResponse(body, true)
}

func (o *OAuthClient) parseTokenResponse(body map[string]any, longLived bool) (*TokenResponse, error) {
	var tok TokenResponse
	if err := decodeInto(body, &tok); err != nil {
		return nil, fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, errors.New("token response carries no access_token")
	}
	if longLived {
		expiresIn := tok.ExpiresIn
		if expiresIn <= 0 {
			expiresIn = defaultLongLivedExpirySeconds
		}
		tok.ExpiresAt = o.now().UTC().Add(time.Duration(expiresIn) * time.Second)
	}
	return &tok, nil
}

// ListPages returns the pages the user administers directly (me/accounts).
// A zero-page result is not an error; the Business Manager fallback handles
// that case at the flow level.
func (o *OAuthClient) ListPages(ctx context.Context, userToken string) ([]Page, error) {
	params := url.Values{}
	params.Set("access_token", userToken)
	params.Set("fields", pageFields)

	body, err := o.Transport.Get(ctx, "me/accounts", params)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	return decodeList[Page](body, "data"), nil
}

// ListBusinesses returns the Business Manager organizations the user owns.
func (o *OAuthClient) ListBusinesses(ctx context.Context, userToken string) ([]Business, error) {
	params := url.Values{}
	params.Set("access_token", userToken)

	body, err := o.Transport.Get(ctx, "me/businesses", params)
	if err != nil {
		return nil, fmt.Errorf("list businesses: %w", err)
	}
	return decodeList[Business](body, "data"), nil
}

// ListOwnedPages returns the pages owned by one Business Manager organization.
func (o *OAuthClient) ListOwnedPages(ctx context.Context, userToken, businessID string) ([]Page, error) {
	params := url.Values{}
	params.Set("access_token", userToken)
	params.Set("fields", pageFields)

	body, err := o.Transport.Get(ctx, businessID+"/owned_pages", params)
	if err != nil {
		return nil, fmt.Errorf("list owned pages of business %s: %w", businessID, err)
	}
	return decodeList[Page](body, "data"), nil
}

// GetInstagramBusinessAccount resolves the business account linked to a page
// by direct lookup. The embedded field on page listings is not reliable, so
// the flow always asks the page itself.
func (o *OAuthClient) GetInstagramBusinessAccount(ctx context.Context, pageToken, pageID string) (*InstagramAccount, error) {
	params := url.Values{}
	params.Set("access_token", pageToken)
	params.Set("fields", igAccountFields)

	body, err := o.Transport.Get(ctx, pageID, params)
	if err != nil {
		return nil, fmt.Errorf("resolve business account of page %s: %w", pageID, err)
	}

	raw, ok := body["instagram_business_account"]
	if !ok || raw == nil {
		return nil, nil
	}
	var account InstagramAccount
	if err := decodeInto(raw, &account); err != nil {
		return nil, fmt.Errorf("decode business account of page %s: %w", pageID, err)
	}
	if account.ID == "" {
		return nil, nil
	}
	return &account, nil
}
