package progress

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"
	"time"

	progressstore "github.com/dalemusser/eventhub/internal/app/store/progress"
	"github.com/dalemusser/eventhub/internal/app/system/progresstrack"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"github.com/dalemusser/eventhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// memRecorder mimics the store's merge: percent and seconds only grow.
type memRecorder struct {
	rows   map[string]models.ActivityProgress
	writes int
	now    func() time.Time
}

func (m *memRecorder) Get(_ context.Context, userID primitive.ObjectID, activityID string) (models.ActivityProgress, error) {
	p, ok := m.rows[userID.Hex()+activityID]
	if !ok {
		return models.ActivityProgress{}, progressstore.ErrNotFound
	}
	return p, nil
}

func (m *memRecorder) Record(_ context.Context, p models.ActivityProgress) (models.ActivityProgress, error) {
	m.writes++
	key := p.UserID.Hex() + p.ActivityID
	cur := m.rows[key]
	if p.Percent > cur.Percent {
		cur.Percent = p.Percent
	}
	if p.Seconds > cur.Seconds {
		cur.Seconds = p.Seconds
	}
	cur.Completed = cur.Completed || p.Completed
	cur.UserID, cur.ActivityID, cur.UpdatedAt = p.UserID, p.ActivityID, m.now()
	m.rows[key] = cur
	return cur, nil
}

func (m *memRecorder) ListByUser(_ context.Context, userID primitive.ObjectID) ([]models.ActivityProgress, error) {
	var out []models.ActivityProgress
	for _, p := range m.rows {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}

func TestHandleReport_Throttles(t *testing.T) {
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }
	rec := &memRecorder{rows: map[string]models.ActivityProgress{}, now: now}
	h := &Handler{
		Progress: rec,
		Throttle: progresstrack.Throttle{MinInterval: 15 * time.Second, MinDelta: 5, CompleteAt: 95},
		Log:      zap.NewNop(),
		now:      now,
	}
	user := testutil.MemberUser(primitive.NewObjectID())

	report := func(body string) progressResponse {
		t.Helper()
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))
		req = testutil.WithUser(req, user)
		req = testutil.WithChiURLParam(req, "activityID", "intro-video")
		w := httptest.NewRecorder()
		h.HandleReport(w, req)
		if w.Code != http.StatusOK {
			t.Fatalf("status %d: %s", w.Code, w.Body.String())
		}
		var resp progressResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		return resp
	}

	steps := []struct {
		name      string
		advance   time.Duration
		body      string
		persisted bool
		percent   float64
	}{
		{"first report", 0, `{"seconds":16,"duration":256}`, true, 6.25},
		{"small step soon after", 2 * time.Second, `{"seconds":20,"duration":256}`, false, 6.25},
		{"big step", time.Second, `{"seconds":48,"duration":256}`, true, 18.75},
		{"small step after interval", 20 * time.Second, `{"seconds":56,"duration":256}`, true, 21.875},
		{"seek backwards", 30 * time.Second, `{"seconds":8,"duration":256}`, false, 21.875},
		{"completion", time.Second, `{"seconds":248,"duration":256}`, true, 96.875},
	}
	for _, s := range steps {
		clock = clock.Add(s.advance)
		got := report(s.body)
		if got.Persisted != s.persisted || got.Percent != s.percent {
			t.Errorf("%s: persisted=%v percent=%v, want %v %v", s.name, got.Persisted, got.Percent, s.persisted, s.percent)
		}
	}
	if rec.writes != 4 {
		t.Errorf("writes = %d, want 4", rec.writes)
	}
	for _, p := range rec.rows {
		if !p.Completed {
			t.Error("activity should be completed")
		}
	}
}

func TestHandleReport_Rejects(t *testing.T) {
	h := &Handler{Progress: &memRecorder{rows: map[string]models.ActivityProgress{}}, Log: zap.NewNop()}

	tests := []struct {
		name   string
		user   bool
		body   string
		status int
	}{
		{"anonymous", false, `{"seconds":1,"duration":10}`, http.StatusUnauthorized},
		{"malformed", true, `{"seconds":`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.body))
			if tt.user {
				req = testutil.WithUser(req, testutil.MemberUser(primitive.NewObjectID()))
			}
			req = testutil.WithChiURLParam(req, "activityID", "intro-video")
			w := httptest.NewRecorder()
			h.HandleReport(w, req)
			if w.Code != tt.status {
				t.Errorf("status = %d, want %d", w.Code, tt.status)
			}
		})
	}
}

func TestServeList(t *testing.T) {
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	user := testutil.MemberUser(primitive.NewObjectID())
	userID, _ := primitive.ObjectIDFromHex(user.ID)
	rec := &memRecorder{rows: map[string]models.ActivityProgress{
		userID.Hex() + "intro":  {UserID: userID, ActivityID: "intro", Percent: 100, Completed: true, UpdatedAt: clock},
		userID.Hex() + "taller": {UserID: userID, ActivityID: "taller", Percent: 35, Seconds: 70, UpdatedAt: clock.Add(time.Hour)},
		"otherintro":            {UserID: primitive.NewObjectID(), ActivityID: "intro", Percent: 5},
	}}
	h := &Handler{Progress: rec, Log: zap.NewNop()}

	req := testutil.WithUser(httptest.NewRequest("GET", "/", nil), user)
	w := httptest.NewRecorder()
	h.ServeList(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d: %s", w.Code, w.Body.String())
	}
	var resp listResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(resp.Activities) != 2 {
		t.Fatalf("activities = %+v", resp.Activities)
	}
	if resp.Activities[0].ActivityID != "taller" || resp.Activities[1].ActivityID != "intro" || !resp.Activities[1].Completed {
		t.Errorf("unexpected order or values: %+v", resp.Activities)
	}

	w = httptest.NewRecorder()
	h.ServeList(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous: status %d, want 401", w.Code)
	}
}
