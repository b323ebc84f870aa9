// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// These values come from environment variables, configuration files, or
// command-line flags (loaded in LoadConfig). WAFFLE's CoreConfig covers the
// framework side (ports, TLS, logging, CORS); everything here belongs to
// EventHub.
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string // MongoDB connection string (e.g., mongodb://localhost:27017)
	MongoDatabase    string // Database name within MongoDB
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Session management configuration
	SessionKey    string        // Secret key for signing session cookies (must be strong in production)
	SessionName   string        // Cookie name for sessions (default: eventhub-session)
	SessionDomain string        // Cookie domain (blank means current host)
	SessionMaxAge time.Duration // Cookie lifetime

	// Bootstrap administrator (created or promoted on startup when set)
	AdminEmail    string
	AdminPassword string

	// Audit logging: all | db | log | off per category
	AuditLogAuth         string
	AuditLogAdmin        string
	AuditLogRegistration string

	// Server-held registration and edit forms
	FormSessionTTL    time.Duration // idle forms are discarded after this
	FormSweepInterval time.Duration

	// Geo conventions
	SpecialCountry string // country whose department and city are required
	SentinelValue  string // value stored when department/city do not apply

	// Password recovery
	SiteName           string // used in recovery messages
	RecoveryCodeExpiry time.Duration

	// Email delivery
	MailProvider   string // console | sendgrid
	SendGridAPIKey string
	MailFrom       string // From email address (e.g., no-reply@eventhub.co)
	MailFromName   string // From display name

	// SMS delivery
	SMSProvider      string // console | twilio
	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioSender     string // sending number or messaging service SID

	// Video progress throttling
	ProgressMinInterval time.Duration
	ProgressMinDelta    float64
	ProgressCompleteAt  float64
}
