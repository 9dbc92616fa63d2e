package controllers

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/urlinsta/urlinsta/app/models"
	"github.com/urlinsta/urlinsta/app/repository"
	"github.com/urlinsta/urlinsta/internal/pkg/authflow"
	"github.com/urlinsta/urlinsta/internal/pkg/env"
	"github.com/urlinsta/urlinsta/internal/pkg/security"
	"github.com/urlinsta/urlinsta/internal/pkg/statistics"
)

// HandleAuthLogin issues a signed anti-forgery state token and redirects the
// browser to the provider authorization dialog.
func HandleAuthLogin(c *fiber.Ctx) error {
	state, err := security.GenerateStateToken(stateSecret())
	if err != nil {
		log.Errorf("failed to generate state token: %v", err)
		return redirectWithError(c, "state_generation_failed")
	}

	return c.Redirect(flow.AuthURL(state), fiber.StatusFound)
}

// HandleAuthCallback completes the provider flow: it validates the signed
// state, exchanges the code for the long-lived credential chain, resolves the
// Instagram business account and persists account plus both credentials.
func HandleAuthCallback(c *fiber.Ctx) error {
	// Provider-side denial arrives as error query params instead of a code.
	if reason := c.Query("error"); reason != "" {
		if r := c.Query("error_reason"); r != "" {
			reason = r
		}
		log.Warnf("authorization denied by provider: %s (%s)", reason, c.Query("error_description"))
		return redirectWithError(c, reason)
	}

	if !security.ValidateStateToken(c.Query("state"), stateSecret()) {
		return redirectWithError(c, "invalid_state")
	}

	code := c.Query("code")
	if code == "" {
		return redirectWithError(c, "missing_code")
	}

	result, err := flow.Complete(c.Context(), code)
	if err != nil {
		log.Errorf("authorization flow failed: %v", err)
		return redirectWithError(c, authFailureReason(err))
	}

	account, err := repository.GetGlobalFactory().GetAccountRepository().
		CreateOrUpdate(result.Account.ID, result.Account.Username, result.PageID)
	if err != nil {
		log.Errorf("failed to persist account @%s: %v", result.Account.Username, err)
		return redirectWithError(c, "persistence_failed")
	}

	credentials := repository.GetGlobalFactory().GetCredentialRepository()
	expires := result.UserTokenExpiresAt
	if err := credentials.Replace(account.ID, models.CREDENTIAL_KIND_USER, result.UserToken, &expires); err != nil {
		log.Errorf("failed to store user credential for account %d: %v", account.ID, err)
		return redirectWithError(c, "persistence_failed")
	}
	// Page tokens carry no expiry of their own.
	if err := credentials.Replace(account.ID, models.CREDENTIAL_KIND_PAGE, result.PageToken, nil); err != nil {
		log.Errorf("failed to store page credential for account %d: %v", account.ID, err)
		return redirectWithError(c, "persistence_failed")
	}

	statistics.InvalidateAccountSummary(account.ID)

	log.Infof("connected @%s (instagram id %s, fallback=%v)", account.Username, account.InstagramID, result.FallbackUsed)
	return redirectWithSuccess(c, account.Username)
}

// authFailureReason maps a flow error to a stable redirect reason the
// frontend can translate into a help text.
func authFailureReason(err error) string {
	var authErr *authflow.AuthError
	if errors.As(err, &authErr) {
		if authErr.Diagnostics.PagesFound == 0 {
			return "no_pages"
		}
		return "no_business_account"
	}
	return "authorization_failed"
}

func redirectWithSuccess(c *fiber.Ctx, username string) error {
	target := fmt.Sprintf("%s/?connected=%s", frontendBase(), url.QueryEscape(username))
	return c.Redirect(target, fiber.StatusFound)
}

func redirectWithError(c *fiber.Ctx, reason string) error {
	target := fmt.Sprintf("%s/?auth_error=%s", frontendBase(), url.QueryEscape(reason))
	return c.Redirect(target, fiber.StatusFound)
}

func frontendBase() string {
	base := strings.TrimRight(env.GetEnv("PUBLIC_DOMAIN", ""), "/")
	if base == "" {
		base = "http://localhost:" + env.GetEnv("APP_PORT", "4000")
	}
	return base
}
