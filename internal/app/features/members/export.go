// internal/app/features/members/export.go
package members

import (
	"bytes"
	"context"
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/eventhub/internal/app/features/errors"
	organizationstore "github.com/dalemusser/eventhub/internal/app/store/organizations"
	"github.com/dalemusser/eventhub/internal/app/system/csvutil"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeExport handles GET /members/{orgID}/export.csv.
func (h *Handler) ServeExport(w http.ResponseWriter, r *http.Request) {
	orgID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orgID"))
	if err != nil {
		apierrors.Error(w, http.StatusNotFound, "Organization not found.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
	defer cancel()

	org, err := h.Orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, organizationstore.ErrNotFound) {
			apierrors.Error(w, http.StatusNotFound, "Organization not found.")
			return
		}
		h.Log.Error("members export: load org failed", zap.Error(err), zap.String("org_id", orgID.Hex()))
		apierrors.Error(w, http.StatusInternalServerError, "Could not export members.")
		return
	}

	links, err := h.OrgUsers.ListByOrg(ctx, orgID)
	if err != nil {
		h.Log.Error("members export: list links failed", zap.Error(err), zap.String("org_id", orgID.Hex()))
		apierrors.Error(w, http.StatusInternalServerError, "Could not export members.")
		return
	}
	ids := make([]primitive.ObjectID, 0, len(links))
	for _, l := range links {
		ids = append(ids, l.UserID)
	}
	users, err := h.Users.GetByIDs(ctx, ids)
	if err != nil {
		h.Log.Error("members export: load users failed", zap.Error(err), zap.String("org_id", orgID.Hex()))
		apierrors.Error(w, http.StatusInternalServerError, "Could not export members.")
		return
	}
	emails := make(map[primitive.ObjectID]string, len(users))
	for _, u := range users {
		emails[u.ID] = u.Email
	}

	rows := make([]csvutil.MemberExportRow, 0, len(links))
	for _, l := range links {
		email, ok := emails[l.UserID]
		if !ok {
			continue
		}
		rows = append(rows, csvutil.MemberExportRow{Email: email, Properties: l.Properties})
	}

	var buf bytes.Buffer
	if err := csvutil.WriteMembersCSV(&buf, org.UserProperties, rows); err != nil {
		h.Log.Error("members export: write csv failed", zap.Error(err), zap.String("org_id", orgID.Hex()))
		apierrors.Error(w, http.StatusInternalServerError, "Could not export members.")
		return
	}

	h.AuditLog.MembersExported(ctx, r, actorID(r), orgID, len(rows))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="members-`+orgID.Hex()+`.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
