package controllers

import (
	"fmt"

	"github.com/urlinsta/urlinsta/internal/pkg/authflow"
	"github.com/urlinsta/urlinsta/internal/pkg/collector"
	"github.com/urlinsta/urlinsta/internal/pkg/env"
	"github.com/urlinsta/urlinsta/internal/pkg/graphapi"
	"github.com/urlinsta/urlinsta/internal/pkg/lifecycle"
	"github.com/urlinsta/urlinsta/internal/pkg/ratelimit"

	"github.com/urlinsta/urlinsta/app/repository"
)

// Shared service instances wired once at startup. The transport (and with it
// the outbound rate limiter) is deliberately a single instance so every Graph
// API call in the process counts against the same window.
var (
	graphLimiter   *ratelimit.Limiter
	graphTransport *graphapi.Transport
	oauthClient    *graphapi.OAuthClient
	flow           *authflow.Flow
	tokenManager   *lifecycle.Manager
	pipeline       *collector.Pipeline
)

// InitializeControllers builds the Graph API stack from the environment and
// hands it to the route handlers. Must run after the repository factory is
// initialized.
func InitializeControllers() {
	graphLimiter = ratelimit.New(
		env.GetEnvInt("RATE_LIMIT_REQUESTS", 0),
		env.GetEnvInt("RATE_LIMIT_WINDOW", 0),
	)

	graphTransport = graphapi.NewTransport(graphLimiter)
	if v := env.GetEnv("GRAPH_API_VERSION", ""); v != "" {
		graphTransport.BaseURL = fmt.Sprintf("https://graph.facebook.com/%s", v)
	}

	oauthClient = graphapi.NewOAuthClient(
		graphTransport,
		env.GetEnv("FB_APP_ID", ""),
		env.GetEnv("FB_APP_SECRET", ""),
		env.GetEnv("OAUTH_REDIRECT_URI", ""),
	)

	repos := repository.GetGlobalRepositories()
	flow = authflow.New(oauthClient)
	tokenManager = lifecycle.New(oauthClient, flow, repos.Account, repos.Credential)
	pipeline = collector.New(graphTransport, repos)
}

func stateSecret() string {
	return env.GetEnv("FB_APP_SECRET", "")
}
