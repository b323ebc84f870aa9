package auditlog_test

import (
	"net/http/httptest"
	"testing"

	"github.com/dalemusser/eventhub/internal/app/store/audit"
	"github.com/dalemusser/eventhub/internal/app/system/auditlog"
	"github.com/dalemusser/eventhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestLogger_NilLogger(t *testing.T) {
	var logger *auditlog.Logger
	ctx, cancel := testutil.TestContext()
	defer cancel()
	req := httptest.NewRequest("GET", "/", nil)

	logger.Log(ctx, audit.Event{EventType: "test"})
	logger.LoginSuccess(ctx, req, primitive.NewObjectID(), nil, "a@b.co")
	logger.Logout(ctx, req, "", "")
}

func TestLogger_LogSettingGoesToZapOnly(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// nil store: a "log" setting must never touch it.
	logger := auditlog.New(nil, zap.New(core), auditlog.Config{Auth: auditlog.Log, Admin: auditlog.Off})

	req := httptest.NewRequest("POST", "/login", nil)
	req.RemoteAddr = "192.0.2.1:5000"
	logger.LoginFailedUserNotFound(ctx, req, "ghost@example.com")
	logger.PropertyChanged(ctx, req, "", primitive.NewObjectID(), audit.EventPropertyCreated, "pais")

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("got %d log entries, want 1", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["event_type"] != audit.EventLoginFailedUserNotFound {
		t.Errorf("event_type = %v", fields["event_type"])
	}
	if fields["ip"] != "192.0.2.1" {
		t.Errorf("ip = %v, want 192.0.2.1", fields["ip"])
	}
	if fields["failure_reason"] != "user not found" {
		t.Errorf("failure_reason = %v", fields["failure_reason"])
	}
}

func TestLogger_EmptyConfigDefaultsToAll(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{})
	userID, orgID := primitive.NewObjectID(), primitive.NewObjectID()
	logger.UserRegistered(ctx, httptest.NewRequest("POST", "/", nil), userID, orgID, "ana@example.com")

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].Category != audit.CategoryRegistration || events[0].Details["email"] != "ana@example.com" {
		t.Errorf("event = %+v", events[0])
	}
}

func TestLogger_OffSkipsStore(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	logger := auditlog.New(store, zap.NewNop(), auditlog.Config{Auth: auditlog.Off})
	userID := primitive.NewObjectID()
	logger.PasswordReset(ctx, httptest.NewRequest("POST", "/", nil), userID)

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID})
	if err != nil {
		t.Fatalf("Query: %v", err)
	}
	if len(events) != 0 {
		t.Errorf("got %d events, want 0", len(events))
	}
}

func TestValidSetting(t *testing.T) {
	for _, s := range []string{"all", "db", "log", "off"} {
		if !auditlog.ValidSetting(s) {
			t.Errorf("ValidSetting(%q) = false", s)
		}
	}
	if auditlog.ValidSetting("verbose") {
		t.Error("ValidSetting(verbose) = true")
	}
}
