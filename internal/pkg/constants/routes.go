package constants

// Static route constants
const (
	AuthLoginRoute    = "/auth/login"
	AuthCallbackRoute = "/auth/callback"
	APIRoute          = "/api"
	// Cron route group behind the shared-secret middleware
	CronRoute = "/api/cron"
)
