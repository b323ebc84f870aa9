package bootstrap

import (
	"strings"
	"testing"

	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/dalemusser/eventhub/internal/testutil"
	"go.uber.org/zap"
)

func testLogger() *zap.Logger {
	return zap.NewNop()
}

func validConfig() AppConfig {
	return AppConfig{
		SessionKey:         strings.Repeat("k", 40),
		AuditLogAuth:       "all",
		AuditLogAdmin:      "db",
		MailProvider:       "console",
		SMSProvider:        "console",
		ProgressMinDelta:   5,
		ProgressCompleteAt: 95,
	}
}

func TestValidateApp(t *testing.T) {
	tests := []struct {
		name    string
		env     string
		mutate  func(*AppConfig)
		wantErr string
	}{
		{"valid", "prod", func(*AppConfig) {}, ""},
		{"short key in dev", "dev", func(c *AppConfig) { c.SessionKey = "short" }, ""},
		{"short key in prod", "prod", func(c *AppConfig) { c.SessionKey = "short" }, "session_key"},
		{"bad audit setting", "dev", func(c *AppConfig) { c.AuditLogAdmin = "everything" }, "audit_log_admin"},
		{"empty audit setting", "dev", func(c *AppConfig) { c.AuditLogRegistration = "" }, ""},
		{"unknown mail provider", "dev", func(c *AppConfig) { c.MailProvider = "smtp" }, "mail_provider"},
		{"sendgrid without key", "dev", func(c *AppConfig) { c.MailProvider = "sendgrid" }, "sendgrid_api_key"},
		{"sendgrid with key", "dev", func(c *AppConfig) { c.MailProvider, c.SendGridAPIKey = "sendgrid", "SG.x" }, ""},
		{"twilio without creds", "dev", func(c *AppConfig) { c.SMSProvider = "twilio" }, "twilio_account_sid"},
		{"unknown sms provider", "dev", func(c *AppConfig) { c.SMSProvider = "carrier-pigeon" }, "sms_provider"},
		{"short admin password", "dev", func(c *AppConfig) { c.AdminEmail, c.AdminPassword = "a@b.co", "123" }, "admin_password"},
		{"completion below delta", "dev", func(c *AppConfig) { c.ProgressCompleteAt = 4 }, "progress_complete_at"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := validateApp(tt.env, cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("validateApp() = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("validateApp() = %v, want error mentioning %q", err, tt.wantErr)
			}
		})
	}
}

func TestParsePercent(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"5", 5, false},
		{"97.5", 97.5, false},
		{"0", 0, false},
		{"101", 0, true},
		{"-1", 0, true},
		{"five", 0, true},
	}
	for _, tt := range tests {
		got, err := parsePercent(tt.in)
		if (err != nil) != tt.wantErr || got != tt.want {
			t.Errorf("parsePercent(%q) = %v, %v; want %v, err=%v", tt.in, got, err, tt.want, tt.wantErr)
		}
	}
}

func TestEnsureAdmin_CreatesNew(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmin(ctx, deps, "Admin@Example.com", "secret123", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	u, err := userstore.New(db).GetByEmail(ctx, "admin@example.com")
	if err != nil {
		t.Fatalf("admin not created: %v", err)
	}
	if u.Role != "admin" || u.Status != models.StatusActive {
		t.Errorf("role/status = %q/%q, want admin/active", u.Role, u.Status)
	}
	if !userstore.CheckPassword(u, "secret123") {
		t.Error("configured password does not match")
	}
}

func TestEnsureAdmin_PromotesExisting(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	fx := testutil.NewFixtures(t, db)
	member := fx.CreateMember(ctx, "ana@example.com", "original")
	users := userstore.New(db)
	if err := users.SetStatus(ctx, member.ID, models.StatusDisabled); err != nil {
		t.Fatalf("disable: %v", err)
	}

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmin(ctx, deps, "ana@example.com", "ignored-password", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}

	u, err := users.GetByID(ctx, member.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if u.Role != "admin" || u.Status != models.StatusActive {
		t.Errorf("role/status = %q/%q, want admin/active", u.Role, u.Status)
	}
	if !userstore.CheckPassword(u, "original") {
		t.Error("existing password was replaced")
	}
}

func TestEnsureAdmin_SkipsWithoutPassword(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	deps := DBDeps{MongoDatabase: db}
	if err := ensureAdmin(ctx, deps, "nobody@example.com", "", testLogger()); err != nil {
		t.Fatalf("ensureAdmin failed: %v", err)
	}
	if _, err := userstore.New(db).GetByEmail(ctx, "nobody@example.com"); err != userstore.ErrNotFound {
		t.Errorf("GetByEmail err = %v, want ErrNotFound", err)
	}
}
