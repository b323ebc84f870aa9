package recovery_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dalemusser/eventhub/internal/app/features/recovery"
	userstore "github.com/dalemusser/eventhub/internal/app/store/users"
	"github.com/dalemusser/eventhub/internal/app/system/notify"
	"github.com/dalemusser/eventhub/internal/testutil"
	"go.uber.org/zap"
)

type outbox struct {
	mu     sync.Mutex
	emails []notify.Email
	texts  []notify.SMS
}

func (o *outbox) SendEmail(_ context.Context, m notify.Email) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.emails = append(o.emails, m)
	return nil
}

func (o *outbox) SendSMS(_ context.Context, m notify.SMS) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.texts = append(o.texts, m)
	return nil
}

var codeRe = regexp.MustCompile(`\b(\d{6})\b`)

func (o *outbox) lastCode(t *testing.T) string {
	t.Helper()
	o.mu.Lock()
	defer o.mu.Unlock()
	var body string
	switch {
	case len(o.texts) > 0:
		body = o.texts[len(o.texts)-1].Body
	case len(o.emails) > 0:
		body = o.emails[len(o.emails)-1].TextBody
	default:
		t.Fatal("no message sent")
	}
	m := codeRe.FindStringSubmatch(body)
	if m == nil {
		t.Fatalf("no code in %q", body)
	}
	return m[1]
}

func post(t *testing.T, router http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid JSON %q: %v", rec.Body.String(), err)
	}
}

func TestRecovery_FullFlow(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	fx := testutil.NewFixtures(t, db)
	u := fx.CreateMember(ctx, "ana@example.com", "old-password")

	box := &outbox{}
	h := recovery.NewHandler(db, 10*time.Minute, box, box, nil, nil, "EventHub", "+57", zap.NewNop())
	router := recovery.Routes(h)

	rec := post(t, router, "/start", `{"email":"ANA@example.com"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start: status %d: %s", rec.Code, rec.Body.String())
	}
	var started struct {
		RecoveryID string `json:"recovery_id"`
	}
	decode(t, rec, &started)
	if strings.Contains(rec.Body.String(), "ana@") {
		t.Errorf("response leaks the destination: %s", rec.Body.String())
	}

	rec = post(t, router, "/"+started.RecoveryID+"/verify", `{"code":"000000"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("wrong code: status %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = post(t, router, "/"+started.RecoveryID+"/verify", `{"code":"`+box.lastCode(t)+`"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("verify: status %d: %s", rec.Code, rec.Body.String())
	}
	var verified struct {
		ResetToken string `json:"reset_token"`
	}
	decode(t, rec, &verified)

	rec = post(t, router, "/"+started.RecoveryID+"/reset", `{"token":"wrong","password":"new-password"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad token: status %d, want %d", rec.Code, http.StatusBadRequest)
	}

	rec = post(t, router, "/"+started.RecoveryID+"/reset", `{"token":"`+verified.ResetToken+`","password":"new-password"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("reset: status %d: %s", rec.Code, rec.Body.String())
	}

	got, err := userstore.New(db).GetByID(ctx, u.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !userstore.CheckPassword(got, "new-password") {
		t.Error("password was not changed")
	}

	// The challenge is gone after use.
	rec = post(t, router, "/"+started.RecoveryID+"/reset", `{"token":"`+verified.ResetToken+`","password":"again-password"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("reuse: status %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRecovery_SMSAndAbort(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := testutil.NewFixtures(t, db).CreateMember(ctx, "luis@example.com", "old-password")
	if err := userstore.New(db).SetContact(ctx, u.ID, "", "3001234567"); err != nil {
		t.Fatal(err)
	}

	box := &outbox{}
	h := recovery.NewHandler(db, 10*time.Minute, box, box, nil, nil, "EventHub", "+57", zap.NewNop())
	router := recovery.Routes(h)

	rec := post(t, router, "/start", `{"phone":"300 123 4567","channel":"sms"}`)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("start: status %d: %s", rec.Code, rec.Body.String())
	}
	if len(box.texts) != 1 || box.texts[0].To != "+573001234567" {
		t.Fatalf("texts = %+v", box.texts)
	}
	var started struct {
		RecoveryID string `json:"recovery_id"`
	}
	decode(t, rec, &started)

	req := httptest.NewRequest("DELETE", "/"+started.RecoveryID, nil)
	del := httptest.NewRecorder()
	router.ServeHTTP(del, req)
	if del.Code != http.StatusNoContent {
		t.Fatalf("abort: status %d", del.Code)
	}

	rec = post(t, router, "/"+started.RecoveryID+"/verify", `{"code":"`+box.lastCode(t)+`"}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("verify after abort: status %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRecovery_UnknownAccountLooksTheSame(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	testutil.NewFixtures(t, db).CreateMember(ctx, "ana@example.com", "old-password")

	box := &outbox{}
	h := recovery.NewHandler(db, 10*time.Minute, box, box, nil, nil, "EventHub", "+57", zap.NewNop())
	router := recovery.Routes(h)

	known := post(t, router, "/start", `{"email":"ana@example.com"}`)
	unknown := post(t, router, "/start", `{"email":"nobody@example.com"}`)
	if known.Code != http.StatusAccepted || unknown.Code != http.StatusAccepted {
		t.Fatalf("status known=%d unknown=%d", known.Code, unknown.Code)
	}

	var a, b map[string]any
	decode(t, known, &a)
	decode(t, unknown, &b)
	if len(a) != len(b) {
		t.Fatalf("response keys differ: %v vs %v", a, b)
	}
	for k, v := range a {
		other, ok := b[k]
		if !ok {
			t.Errorf("key %q missing from the unknown-account response", k)
			continue
		}
		if k != "recovery_id" && other != v {
			t.Errorf("%s: %v vs %v", k, v, other)
		}
	}
	if id, _ := b["recovery_id"].(string); id == "" {
		t.Error("expected a recovery id")
	}
	if len(box.emails) != 1 {
		t.Errorf("expected one email for the known account, got %d", len(box.emails))
	}
}

func TestHandleStart_Validation(t *testing.T) {
	h := &recovery.Handler{Log: zap.NewNop()}
	router := recovery.Routes(h)

	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"malformed", `{`, http.StatusBadRequest},
		{"no identifier", `{"channel":"email"}`, http.StatusBadRequest},
		{"bad channel", `{"email":"a@b.co","channel":"fax"}`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if rec := post(t, router, "/start", tt.body); rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
		})
	}
}
