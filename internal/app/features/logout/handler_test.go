package logout_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/eventhub/internal/app/features/logout"
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/dalemusser/eventhub/internal/testutil"
	"go.uber.org/zap"
)

func newHandler(t *testing.T) (*logout.Handler, *auth.SessionManager) {
	t.Helper()
	sm, err := auth.NewSessionManager("test-session-key-for-testing-only-0123", "test-session", "", time.Hour, false, zap.NewNop())
	if err != nil {
		t.Fatalf("NewSessionManager failed: %v", err)
	}
	return logout.NewHandler(sm, nil, zap.NewNop()), sm
}

func TestServeLogout_ExpiresCookie(t *testing.T) {
	h, _ := newHandler(t)

	req := testutil.WithUser(httptest.NewRequest("POST", "/logout", nil), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeLogout(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	var expired bool
	for _, c := range rec.Result().Cookies() {
		if c.Name == "test-session" && c.MaxAge < 0 {
			expired = true
		}
	}
	if !expired {
		t.Error("expected session cookie to be expired")
	}
}

func TestServeLogout_Body(t *testing.T) {
	h, _ := newHandler(t)

	req := testutil.WithUser(httptest.NewRequest("POST", "/logout", nil), testutil.AdminUser())
	rec := httptest.NewRecorder()
	h.ServeLogout(rec, req)

	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type: got %q, want application/json", ct)
	}
	if !strings.Contains(rec.Body.String(), `"signed_out"`) {
		t.Errorf("body: got %q", rec.Body.String())
	}
}

func TestRoutes_RequiresSignIn(t *testing.T) {
	h, sm := newHandler(t)
	router := logout.Routes(h, sm)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("POST", "/", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
	}
}
