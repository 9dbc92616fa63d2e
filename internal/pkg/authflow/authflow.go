package authflow

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/urlinsta/urlinsta/internal/pkg/graphapi"
)

// Flow orchestrates the code -> user token -> page -> business account
// resolution of a login callback.
type Flow struct {
	oauth *graphapi.OAuthClient
}

// New creates an authorization flow on top of the given OAuth client.
func New(oauth *graphapi.OAuthClient) *Flow {
	return &Flow{oauth: oauth}
}

// Result is the terminal success of a completed authorization: the resolved
// business account bound to both levels of the credential chain.
type Result struct {
	Account            graphapi.InstagramAccount
	PageID             string
	PageToken          string
	UserToken          string
	UserTokenExpiresAt time.Time
	// FallbackUsed reports that pages were discovered through the
	// Business Manager hierarchy rather than the direct listing.
	FallbackUsed bool
}

// Diagnostics describes what page discovery actually saw, so a failed login
// can tell the user which permission to fix instead of a generic error.
type Diagnostics struct {
	PagesFound      int
	FallbackUsed    bool
	BusinessesFound int
}

// AuthError is the terminal failure of an authorization attempt.
type AuthError struct {
	Reason      string
	Diagnostics Diagnostics
}

func (e *AuthError) Error() string {
	msg := e.Reason
	if e.Diagnostics.FallbackUsed {
		msg += fmt.Sprintf(
			" (Business Manager fallback used, %d organizations found; if this page is managed via Business Manager, grant business_management and confirm page access)",
			e.Diagnostics.BusinessesFound,
		)
	}
	return msg
}

// AuthURL builds the provider authorization URL for a signed state token.
func (f *Flow) AuthURL(state string) string {
	return f.oauth.AuthURL(state)
}

// Complete runs the full flow for a callback code: short-lived exchange,
// long-lived exchange, page discovery (with Business Manager fallback) and
// business-account resolution. The first page with a resolvable business
// account wins; its token becomes the page credential, falling back to the
// user token when the listing carried none.
func (f *Flow) Complete(ctx context.Context, code string) (*Result, error) {
	shortToken, err := f.oauth.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("authorization code rejected: %w", err)
	}

	longToken, err := f.oauth.ExchangeLongLived(ctx, shortToken.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("long-lived exchange failed: %w", err)
	}

	pages, diag, err := f.DiscoverPages(ctx, longToken.AccessToken)
	if err != nil {
		return nil, err
	}

	for _, page := range pages {
		pageToken := page.AccessToken
		if pageToken == "" {
			pageToken = longToken.AccessToken
		}

		// The embedded instagram_business_account field is sometimes
		// missing even when a valid link exists, so always resolve by
		// direct lookup.
		account, err := f.oauth.GetInstagramBusinessAccount(ctx, pageToken, page.ID)
		if err != nil {
			// One inaccessible page must not hide a resolvable one.
			log.Warnf("[AuthFlow] business account lookup for page %s failed: %v", page.ID, err)
			continue
		}
		if account == nil {
			continue
		}

		log.Infof("[AuthFlow] linked business account %s (@%s) via page %s", account.ID, account.Username, page.ID)
		return &Result{
			Account:            *account,
			PageID:             page.ID,
			PageToken:          pageToken,
			UserToken:          longToken.AccessToken,
			UserTokenExpiresAt: longToken.ExpiresAt,
			FallbackUsed:       diag.FallbackUsed,
		}, nil
	}

	return nil, &AuthError{
		Reason: "no Instagram business account found; ensure your Instagram professional account " +
			"is connected to a Facebook page",
		Diagnostics: *diag,
	}
}

// DiscoverPages lists the pages the user administers. When the direct listing
// comes back empty - a known gap for pages managed under a Business Manager
// organization - it descends into the hierarchy: owned organizations, then
// each organization's owned pages, merged and de-duplicated by page id.
func (f *Flow) DiscoverPages(ctx context.Context, userToken string) ([]graphapi.Page, *Diagnostics, error) {
	diag := &Diagnostics{}

	pages, err := f.oauth.ListPages(ctx, userToken)
	if err != nil {
		return nil, diag, err
	}
	if len(pages) > 0 {
		pages = dedupePages(pages)
		diag.PagesFound = len(pages)
		return pages, diag, nil
	}

	diag.FallbackUsed = true
	businesses, err := f.oauth.ListBusinesses(ctx, userToken)
	if err != nil {
		return nil, diag, err
	}
	diag.BusinessesFound = len(businesses)

	var owned []graphapi.Page
	for _, business := range businesses {
		businessPages, err := f.oauth.ListOwnedPages(ctx, userToken, business.ID)
		if err != nil {
			// One unreadable organization must not hide the others.
			log.Warnf("[AuthFlow] listing pages of business %s failed: %v", business.ID, err)
			continue
		}
		owned = append(owned, businessPages...)
	}

	owned = dedupePages(owned)
	diag.PagesFound = len(owned)
	return owned, diag, nil
}

// dedupePages drops later duplicates of the same page id (keep-first).
func dedupePages(pages []graphapi.Page) []graphapi.Page {
	seen := make(map[string]bool, len(pages))
	deduped := make([]graphapi.Page, 0, len(pages))
	for _, page := range pages {
		if page.ID != "" && seen[page.ID] {
			continue
		}
		if page.ID != "" {
			seen[page.ID] = true
		}
		deduped = append(deduped, page)
	}
	return deduped
}
