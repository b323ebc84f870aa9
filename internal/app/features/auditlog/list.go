// internal/app/features/auditlog/list.go
package auditlog

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	apierrors "github.com/dalemusser/eventhub/internal/app/features/errors"
	"github.com/dalemusser/eventhub/internal/app/store/audit"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /audit. Supported query parameters are
// organization_id, user_id, category, event_type, since (RFC 3339 or
// YYYY-MM-DD) and limit.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	filter, msg := parseFilter(r)
	if msg != "" {
		apierrors.Error(w, http.StatusBadRequest, msg)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	events, err := h.Events.Query(ctx, filter)
	if err != nil {
		h.Log.Error("failed to query audit events", zap.Error(err))
		apierrors.Error(w, http.StatusInternalServerError, "A database error occurred.")
		return
	}

	emails := h.resolveUsers(ctx, events)
	out := listResponse{Events: make([]listItem, 0, len(events))}
	for _, e := range events {
		item := listItem{
			ID:            e.ID.Hex(),
			Timestamp:     e.Timestamp,
			Category:      e.Category,
			EventType:     e.EventType,
			IP:            e.IP,
			Success:       e.Success,
			FailureReason: e.FailureReason,
			Details:       e.Details,
		}
		if e.OrganizationID != nil {
			item.OrganizationID = e.OrganizationID.Hex()
		}
		if e.ActorID != nil {
			item.ActorID, item.Actor = e.ActorID.Hex(), emails[*e.ActorID]
		}
		if e.UserID != nil {
			item.UserID, item.User = e.UserID.Hex(), emails[*e.UserID]
		}
		out.Events = append(out.Events, item)
	}
	apierrors.JSON(w, http.StatusOK, out)
}

// resolveUsers batch-fetches the accounts referenced by events. A lookup
// failure only costs the display names.
func (h *Handler) resolveUsers(ctx context.Context, events []audit.Event) map[primitive.ObjectID]string {
	seen := make(map[primitive.ObjectID]struct{})
	var ids []primitive.ObjectID
	add := func(id *primitive.ObjectID) {
		if id == nil {
			return
		}
		if _, ok := seen[*id]; ok {
			return
		}
		seen[*id] = struct{}{}
		ids = append(ids, *id)
	}
	for _, e := range events {
		add(e.ActorID)
		add(e.UserID)
	}

	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 || h.Users == nil {
		return out
	}
	users, err := h.Users.GetByIDs(ctx, ids)
	if err != nil {
		h.Log.Warn("failed to fetch user names for audit log", zap.Error(err))
		return out
	}
	for _, u := range users {
		out[u.ID] = u.Email
	}
	return out
}

func parseFilter(r *http.Request) (audit.QueryFilter, string) {
	q := r.URL.Query()
	f := audit.QueryFilter{
		Category:  strings.TrimSpace(q.Get("category")),
		EventType: strings.TrimSpace(q.Get("event_type")),
	}

	if s := strings.TrimSpace(q.Get("organization_id")); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return f, "Invalid organization_id."
		}
		f.OrganizationID = &id
	}
	if s := strings.TrimSpace(q.Get("user_id")); s != "" {
		id, err := primitive.ObjectIDFromHex(s)
		if err != nil {
			return f, "Invalid user_id."
		}
		f.UserID = &id
	}
	if s := strings.TrimSpace(q.Get("since")); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			t, err = time.Parse("2006-01-02", s)
		}
		if err != nil {
			return f, "Invalid since; use RFC 3339 or YYYY-MM-DD."
		}
		f.Since = &t
	}
	if s := strings.TrimSpace(q.Get("limit")); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 {
			return f, "Invalid limit."
		}
		if n > maxLimit {
			n = maxLimit
		}
		f.Limit = int64(n)
	}
	return f, ""
}
