package graphapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOAuthClient(serverURL string) *OAuthClient {
	o := NewOAuthClient(newTestTransport(serverURL, nil), "app-id", "app-secret", "https://dash.example.com/auth/callback")
	o.DialogBaseURL = serverURL
	return o
}

func TestAuthURL(t *testing.T) {
	o := NewOAuthClient(nil, "app-id", "app-secret", "https://dash.example.com/auth/callback")

	raw := o.AuthURL("state-token")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	assert.Equal(t, "/"+GraphAPIVersion+"/dialog/oauth", parsed.Path)
	q := parsed.Query()
	assert.Equal(t, "app-id", q.Get("client_id"))
	assert.Equal(t, "https://dash.example.com/auth/callback", q.Get("redirect_uri"))
	assert.Equal(t, "state-token", q.Get("state"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Contains(t, q.Get("scope"), "instagram_manage_insights")
	assert.Contains(t, q.Get("scope"), "business_management")
}

func TestExchangeCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/oauth/access_token", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "app-id", q.Get("client_id"))
		assert.Equal(t, "app-secret", q.Get("client_secret"))
		assert.Equal(t, "the-code", q.Get("code"))
		w.Write([]byte(`{"access_token":"short-token","token_type":"bearer"}`))
	}))
	defer server.Close()

	o := newTestOAuthClient(server.URL)
	tok, err := o.ExchangeCode(context.Background(), "the-code")
	require.NoError(t, err)

	assert.Equal(t, "short-token", tok.AccessToken)
	assert.True(t, tok.ExpiresAt.IsZero())
}

func TestExchangeLongLived(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "fb_exchange_token", q.Get("grant_type"))
		assert.Equal(t, "short-token", q.Get("fb_exchange_token"))
		w.Write([]byte(`{"access_token":"long-token","expires_in":5184000}`))
	}))
	defer server.Close()

	o := newTestOAuthClient(server.URL)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return issued }
	tok, err := o.ExchangeLongLived(context.Background(), "short-token")
	require.NoError(t, err)

	assert.Equal(t, "long-token", tok.AccessToken)
	assert.Equal(t, issued.Add(5184000*time.Second), tok.ExpiresAt)
}

func TestExchangeLongLivedDefaultsExpiry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"access_token":"long-token"}`))
	}))
	defer server.Close()

	o := newTestOAuthClient(server.URL)
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	o.now = func() time.Time { return issued }
	tok, err := o.ExchangeLongLived(context.Background(), "short-token")
	require.NoError(t, err)

	// Missing expires_in falls back to 60 days.
	assert.Equal(t, issued.Add(defaultLongLivedExpirySeconds*time.Second), tok.ExpiresAt)
}

func TestExchangeRejectsEmptyToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"token_type":"bearer"}`))
	}))
	defer server.Close()

	o := newTestOAuthClient(server.URL)
	_, err := o.ExchangeCode(context.Background(), "the-code")
	assert.Error(t, err)
}

func TestListPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/me/accounts", r.URL.Path)
		assert.Equal(t, pageFields, r.URL.Query().Get("fields"))
		w.Write([]byte(`{"data":[
			{"id":"page-1","name":"Page One","access_token":"pt-1","instagram_business_account":{"id":"ig-1","username":"one"}},
			{"id":"page-2","name":"Page Two"}
		]}`))
	}))
	defer server.Close()

	o := newTestOAuthClient(server.URL)
	pages, err := o.ListPages(context.Background(), "user-token")
	require.NoError(t, err)

	require.Len(t, pages, 2)
	assert.Equal(t, "page-1", pages[0].ID)
	assert.Equal(t, "pt-1", pages[0].AccessToken)
	require.NotNil(t, pages[0].InstagramBusinessAccount)
	assert.Equal(t, "ig-1", pages[0].InstagramBusinessAccount.ID)
	assert.Nil(t, pages[1].InstagramBusinessAccount)
}

func TestListOwnedPages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/biz-1/owned_pages", r.URL.Path)
		w.Write([]byte(`{"data":[{"id":"page-9","name":"Managed Page","access_token":"pt-9"}]}`))
	}))
	defer server.Close()

	o := newTestOAuthClient(server.URL)
	pages, err := o.ListOwnedPages(context.Background(), "user-token", "biz-1")
	require.NoError(t, err)

	require.Len(t, pages, 1)
	assert.Equal(t, "page-9", pages[0].ID)
}

func TestGetInstagramBusinessAccount(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected *InstagramAccount
	}{
		{
			"Linked account",
			`{"id":"page-1","instagram_business_account":{"id":"ig-1","username":"acme","followers_count":10}}`,
			&InstagramAccount{ID: "ig-1", Username: "acme", FollowersCount: 10},
		},
		{
			"No linkage",
			`{"id":"page-1"}`,
			nil,
		},
		{
			"Empty linkage object",
			`{"id":"page-1","instagram_business_account":{}}`,
			nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/page-1", r.URL.Path)
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			o := newTestOAuthClient(server.URL)
			account, err := o.GetInstagramBusinessAccount(context.Background(), "page-token", "page-1")
			require.NoError(t, err)
			assert.Equal(t, tt.expected, account)
		})
	}
}
