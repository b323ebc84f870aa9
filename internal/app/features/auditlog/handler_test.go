package auditlog_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/eventhub/internal/app/features/auditlog"
	"github.com/dalemusser/eventhub/internal/app/store/audit"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type fakeEvents struct {
	events []audit.Event
	got    audit.QueryFilter
	err    error
}

func (f *fakeEvents) Query(_ context.Context, q audit.QueryFilter) ([]audit.Event, error) {
	f.got = q
	return f.events, f.err
}

type fakeUsers struct {
	users []models.User
	err   error
}

func (f fakeUsers) GetByIDs(context.Context, []primitive.ObjectID) ([]models.User, error) {
	return f.users, f.err
}

type listBody struct {
	Events []struct {
		EventType string `json:"event_type"`
		Actor     string `json:"actor"`
		User      string `json:"user"`
		UserID    string `json:"user_id"`
	} `json:"events"`
}

func TestServeList_ResolvesUsers(t *testing.T) {
	adminID, memberID := primitive.NewObjectID(), primitive.NewObjectID()
	orgID := primitive.NewObjectID()
	events := &fakeEvents{events: []audit.Event{
		{ID: primitive.NewObjectID(), Category: audit.CategoryAdmin, EventType: audit.EventMemberUpdated,
			ActorID: &adminID, UserID: &memberID, OrganizationID: &orgID, Success: true},
		{ID: primitive.NewObjectID(), Category: audit.CategoryAuth, EventType: audit.EventLoginFailedUserNotFound},
	}}
	h := &auditlog.Handler{
		Events: events,
		Users: fakeUsers{users: []models.User{
			{ID: adminID, Email: "admin@example.com"},
			{ID: memberID, Email: "ana@example.com"},
		}},
		Log: zap.NewNop(),
	}

	req := httptest.NewRequest(http.MethodGet, "/audit?organization_id="+orgID.Hex()+"&category=admin&limit=9999", nil)
	rec := httptest.NewRecorder()
	h.ServeList(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	if events.got.OrganizationID == nil || *events.got.OrganizationID != orgID {
		t.Errorf("organization filter not applied: %+v", events.got)
	}
	if events.got.Category != audit.CategoryAdmin || events.got.Limit != 500 {
		t.Errorf("filter = %+v", events.got)
	}

	var body listBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Events) != 2 {
		t.Fatalf("got %d events, want 2", len(body.Events))
	}
	if body.Events[0].Actor != "admin@example.com" || body.Events[0].User != "ana@example.com" {
		t.Errorf("names not resolved: %+v", body.Events[0])
	}
	if body.Events[1].UserID != "" {
		t.Errorf("anonymous event carries user_id %q", body.Events[1].UserID)
	}
}

func TestServeList_UserLookupFailureKeepsEvents(t *testing.T) {
	id := primitive.NewObjectID()
	h := &auditlog.Handler{
		Events: &fakeEvents{events: []audit.Event{{ID: primitive.NewObjectID(), UserID: &id}}},
		Users:  fakeUsers{err: errors.New("boom")},
		Log:    zap.NewNop(),
	}
	rec := httptest.NewRecorder()
	h.ServeList(rec, httptest.NewRequest(http.MethodGet, "/audit", nil))

	var body listBody
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.Code != http.StatusOK || len(body.Events) != 1 || body.Events[0].UserID != id.Hex() {
		t.Errorf("status = %d body = %s", rec.Code, rec.Body.String())
	}
}

func TestServeList_Filters(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  int
	}{
		{"bad org id", "organization_id=nope", http.StatusBadRequest},
		{"bad user id", "user_id=nope", http.StatusBadRequest},
		{"bad since", "since=yesterday", http.StatusBadRequest},
		{"bad limit", "limit=-3", http.StatusBadRequest},
		{"date since", "since=2026-01-02", http.StatusOK},
		{"rfc3339 since", "since=2026-01-02T10:00:00Z", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			events := &fakeEvents{}
			h := &auditlog.Handler{Events: events, Log: zap.NewNop()}
			rec := httptest.NewRecorder()
			h.ServeList(rec, httptest.NewRequest(http.MethodGet, "/audit?"+tt.query, nil))
			if rec.Code != tt.want {
				t.Fatalf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.name == "date since" {
				want := time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC)
				if events.got.Since == nil || !events.got.Since.Equal(want) {
					t.Errorf("since = %v, want %v", events.got.Since, want)
				}
			}
		})
	}
}

func TestServeList_StoreError(t *testing.T) {
	h := &auditlog.Handler{Events: &fakeEvents{err: errors.New("down")}, Log: zap.NewNop()}
	rec := httptest.NewRecorder()
	h.ServeList(rec, httptest.NewRequest(http.MethodGet, "/audit", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}
