// internal/app/features/organizations/manage.go
package organizations

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/dalemusser/eventhub/internal/app/features/errors"
	"github.com/dalemusser/eventhub/internal/app/store/audit"
	"github.com/dalemusser/eventhub/internal/app/system/auth"
	"github.com/dalemusser/eventhub/internal/app/system/inputval"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/dalemusser/eventhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleCreate handles POST /organizations. New organizations start active
// with an empty property schema.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if !decode(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	org, err := h.Orgs.Create(ctx, models.Organization{Name: strings.TrimSpace(in.Name)})
	if err != nil {
		h.writeStoreError(w, err, "organizations: create failed", primitive.NilObjectID)
		return
	}

	h.AuditLog.OrganizationChanged(ctx, r, actorID(r), org.ID, audit.EventOrgCreated,
		map[string]string{"name": org.Name})
	apierrors.JSON(w, http.StatusCreated, summarize(org))
}

// HandleRename handles PUT /organizations/{orgID}/name.
func (h *Handler) HandleRename(w http.ResponseWriter, r *http.Request) {
	orgID, ok := parseOrgID(w, r)
	if !ok {
		return
	}
	var in renameInput
	if !decode(w, r, &in) {
		return
	}
	name := strings.TrimSpace(in.Name)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Orgs.Rename(ctx, orgID, name); err != nil {
		h.writeStoreError(w, err, "organizations: rename failed", orgID)
		return
	}

	h.AuditLog.OrganizationChanged(ctx, r, actorID(r), orgID, audit.EventOrgUpdated,
		map[string]string{"name": name})
	h.respondOne(ctx, w, orgID)
}

// HandleStatus handles PUT /organizations/{orgID}/status.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	orgID, ok := parseOrgID(w, r)
	if !ok {
		return
	}
	var in statusInput
	if !decode(w, r, &in) {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Orgs.SetStatus(ctx, orgID, in.Status); err != nil {
		h.writeStoreError(w, err, "organizations: set status failed", orgID)
		return
	}

	h.AuditLog.OrganizationChanged(ctx, r, actorID(r), orgID, audit.EventOrgUpdated,
		map[string]string{"status": in.Status})
	h.respondOne(ctx, w, orgID)
}

// HandleAssignments handles PUT /organizations/{orgID}/assignments. The
// lists replace the stored ones; registration links naming any other id
// are refused.
func (h *Handler) HandleAssignments(w http.ResponseWriter, r *http.Request) {
	orgID, ok := parseOrgID(w, r)
	if !ok {
		return
	}
	var in assignmentsInput
	if !decode(w, r, &in) {
		return
	}
	positions, roles := uniq(in.Positions), uniq(in.Roles)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.Orgs.SetAssignments(ctx, orgID, positions, roles); err != nil {
		h.writeStoreError(w, err, "organizations: set assignments failed", orgID)
		return
	}

	h.AuditLog.OrganizationChanged(ctx, r, actorID(r), orgID, audit.EventOrgUpdated, map[string]string{
		"positions": strings.Join(positions, ","),
		"roles":     strings.Join(roles, ","),
	})
	h.respondOne(ctx, w, orgID)
}

func (h *Handler) respondOne(ctx context.Context, w http.ResponseWriter, orgID primitive.ObjectID) {
	org, err := h.Orgs.GetByID(ctx, orgID)
	if err != nil {
		h.writeStoreError(w, err, "organizations: reload failed", orgID)
		return
	}
	apierrors.JSON(w, http.StatusOK, summarize(org))
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := apierrors.Decode(r, v); err != nil {
		apierrors.Error(w, http.StatusBadRequest, "Malformed request body.")
		return false
	}
	if res := inputval.Validate(v); res.HasErrors() {
		fields := make([]apierrors.FieldError, 0, len(res.Errors))
		for _, fe := range res.Errors {
			fields = append(fields, apierrors.FieldError{Field: fe.Field, Message: fe.Message})
		}
		apierrors.Fields(w, http.StatusUnprocessableEntity, res.First(), fields)
		return false
	}
	return true
}

func actorID(r *http.Request) string {
	if u, ok := auth.CurrentUser(r); ok {
		return u.ID
	}
	return ""
}
