// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dalemusser/eventhub/internal/app/system/auditlog"
	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// minProdSessionKey is the shortest session key accepted in production.
const minProdSessionKey = 32

// appConfigKeys defines the configuration keys for EventHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, session_name, etc.
//   - Environment variables: EVENTHUB_MONGO_URI, EVENTHUB_SESSION_NAME, etc.
//   - Command-line flags: --mongo_uri, --session_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "eventhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size (default: 100)"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size (default: 10)"},
	{Name: "session_key", Default: "dev-only-change-me-please-0123456789ABCDEF", Desc: "Session signing key (must be strong in production)"},
	{Name: "session_name", Default: "eventhub-session", Desc: "Session cookie name"},
	{Name: "session_domain", Default: "", Desc: "Session cookie domain (blank means current host)"},
	{Name: "session_max_age", Default: "720h", Desc: "Session cookie lifetime (e.g., 24h, 720h)"},

	// Bootstrap administrator
	{Name: "admin_email", Default: "", Desc: "Email of the administrator created or promoted on startup"},
	{Name: "admin_password", Default: "", Desc: "Initial password for a newly created administrator"},

	// Audit logging settings
	{Name: "audit_log_auth", Default: "all", Desc: "Auth event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_admin", Default: "all", Desc: "Admin event logging: 'all' (db+log), 'db', 'log', or 'off'"},
	{Name: "audit_log_registration", Default: "all", Desc: "Registration event logging: 'all' (db+log), 'db', 'log', or 'off'"},

	// Form sessions
	{Name: "form_session_ttl", Default: "30m", Desc: "Idle registration/edit forms are discarded after this"},
	{Name: "form_sweep_interval", Default: "1m", Desc: "How often idle forms are swept"},

	// Geo conventions
	{Name: "special_country", Default: "Colombia", Desc: "Country whose department and city fields are required"},
	{Name: "sentinel_value", Default: "No aplica", Desc: "Stored in department/city when they do not apply"},

	// Password recovery
	{Name: "site_name", Default: "EventHub", Desc: "Site name used in recovery messages"},
	{Name: "recovery_code_expiry", Default: "10m", Desc: "Recovery code expiry (e.g., 10m, 1h, 90s)"},

	// Email delivery
	{Name: "mail_provider", Default: "console", Desc: "Email delivery: 'console' or 'sendgrid'"},
	{Name: "sendgrid_api_key", Default: "", Desc: "SendGrid API key"},
	{Name: "mail_from", Default: "no-reply@eventhub.local", Desc: "From email address"},
	{Name: "mail_from_name", Default: "EventHub", Desc: "From display name"},

	// SMS delivery
	{Name: "sms_provider", Default: "console", Desc: "SMS delivery: 'console' or 'twilio'"},
	{Name: "twilio_account_sid", Default: "", Desc: "Twilio account SID"},
	{Name: "twilio_auth_token", Default: "", Desc: "Twilio auth token"},
	{Name: "twilio_sender", Default: "", Desc: "Twilio sending number or messaging service SID"},

	// Video progress
	{Name: "progress_min_interval", Default: "15s", Desc: "Minimum time between stored progress reports"},
	{Name: "progress_min_delta", Default: "5", Desc: "Minimum percent change that forces a store"},
	{Name: "progress_complete_at", Default: "95", Desc: "Percent at which an activity counts as completed"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// WAFFLE's config.LoadWithAppConfig handles:
//   - Loading from .env files
//   - Loading from config.yaml/json/toml files
//   - Reading environment variables (WAFFLE_* for core, EVENTHUB_* for app)
//   - Parsing command-line flags
//   - Merging with precedence: flags > env > files > defaults
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "EVENTHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	minDelta, err := parsePercent(appValues.String("progress_min_delta"))
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("progress_min_delta: %w", err)
	}
	completeAt, err := parsePercent(appValues.String("progress_complete_at"))
	if err != nil {
		return nil, AppConfig{}, fmt.Errorf("progress_complete_at: %w", err)
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),
		SessionKey:       appValues.String("session_key"),
		SessionName:      appValues.String("session_name"),
		SessionDomain:    appValues.String("session_domain"),
		SessionMaxAge:    appValues.Duration("session_max_age", 30*24*time.Hour),

		AdminEmail:    appValues.String("admin_email"),
		AdminPassword: appValues.String("admin_password"),

		AuditLogAuth:         appValues.String("audit_log_auth"),
		AuditLogAdmin:        appValues.String("audit_log_admin"),
		AuditLogRegistration: appValues.String("audit_log_registration"),

		FormSessionTTL:    appValues.Duration("form_session_ttl", 30*time.Minute),
		FormSweepInterval: appValues.Duration("form_sweep_interval", time.Minute),

		SpecialCountry: appValues.String("special_country"),
		SentinelValue:  appValues.String("sentinel_value"),

		SiteName:           appValues.String("site_name"),
		RecoveryCodeExpiry: appValues.Duration("recovery_code_expiry", 10*time.Minute),

		MailProvider:   appValues.String("mail_provider"),
		SendGridAPIKey: appValues.String("sendgrid_api_key"),
		MailFrom:       appValues.String("mail_from"),
		MailFromName:   appValues.String("mail_from_name"),

		SMSProvider:      appValues.String("sms_provider"),
		TwilioAccountSID: appValues.String("twilio_account_sid"),
		TwilioAuthToken:  appValues.String("twilio_auth_token"),
		TwilioSender:     appValues.String("twilio_sender"),

		ProgressMinInterval: appValues.Duration("progress_min_interval", 15*time.Second),
		ProgressMinDelta:    minDelta,
		ProgressCompleteAt:  completeAt,
	}

	return coreCfg, appCfg, nil
}

func parsePercent(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("%v is outside 0..100", v)
	}
	return v, nil
}

// ValidateConfig performs app-specific config validation.
//
// It rejects a malformed MongoDB URI, unknown audit/provider settings,
// missing provider credentials and, in production, a short session key.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	return validateApp(coreCfg.Env, appCfg)
}

// validateApp holds the checks that do not need a logger.
func validateApp(env string, appCfg AppConfig) error {
	if env == "prod" && len(appCfg.SessionKey) < minProdSessionKey {
		return fmt.Errorf("session_key must be at least %d characters in prod", minProdSessionKey)
	}

	for key, v := range map[string]string{
		"audit_log_auth":         appCfg.AuditLogAuth,
		"audit_log_admin":        appCfg.AuditLogAdmin,
		"audit_log_registration": appCfg.AuditLogRegistration,
	} {
		if v != "" && !auditlog.ValidSetting(v) {
			return fmt.Errorf("%s must be one of all, db, log, off (got %q)", key, v)
		}
	}

	switch appCfg.MailProvider {
	case "console":
	case "sendgrid":
		if appCfg.SendGridAPIKey == "" {
			return fmt.Errorf("mail_provider sendgrid requires sendgrid_api_key")
		}
	default:
		return fmt.Errorf("mail_provider must be console or sendgrid (got %q)", appCfg.MailProvider)
	}

	switch appCfg.SMSProvider {
	case "console":
	case "twilio":
		if appCfg.TwilioAccountSID == "" || appCfg.TwilioAuthToken == "" || appCfg.TwilioSender == "" {
			return fmt.Errorf("sms_provider twilio requires twilio_account_sid, twilio_auth_token and twilio_sender")
		}
	default:
		return fmt.Errorf("sms_provider must be console or twilio (got %q)", appCfg.SMSProvider)
	}

	if appCfg.AdminEmail != "" && appCfg.AdminPassword != "" && len(appCfg.AdminPassword) < 6 {
		return fmt.Errorf("admin_password must be at least 6 characters")
	}
	if appCfg.ProgressCompleteAt <= appCfg.ProgressMinDelta {
		return fmt.Errorf("progress_complete_at must be greater than progress_min_delta")
	}
	return nil
}
