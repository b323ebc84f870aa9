// internal/app/features/organizations/list.go
package organizations

import (
	"context"
	"errors"
	"net/http"

	apierrors "github.com/dalemusser/eventhub/internal/app/features/errors"
	organizationstore "github.com/dalemusser/eventhub/internal/app/store/organizations"
	"github.com/dalemusser/eventhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// ServeList handles GET /organizations.
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	orgs, err := h.Orgs.List(ctx)
	if err != nil {
		h.Log.Error("organizations: list failed", zap.Error(err))
		apierrors.Error(w, http.StatusInternalServerError, "Could not load organizations.")
		return
	}

	out := make([]orgSummary, 0, len(orgs))
	for _, o := range orgs {
		out = append(out, summarize(o))
	}
	apierrors.JSON(w, http.StatusOK, map[string]any{"organizations": out})
}

// ServeOne handles GET /organizations/{orgID}.
func (h *Handler) ServeOne(w http.ResponseWriter, r *http.Request) {
	orgID, ok := parseOrgID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	org, err := h.Orgs.GetByID(ctx, orgID)
	if err != nil {
		h.writeStoreError(w, err, "organizations: get failed", orgID)
		return
	}
	apierrors.JSON(w, http.StatusOK, summarize(org))
}

func parseOrgID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "orgID"))
	if err != nil {
		apierrors.Error(w, http.StatusNotFound, "Organization not found.")
		return primitive.NilObjectID, false
	}
	return id, true
}

func (h *Handler) writeStoreError(w http.ResponseWriter, err error, logMsg string, orgID primitive.ObjectID) {
	switch {
	case errors.Is(err, organizationstore.ErrNotFound):
		apierrors.Error(w, http.StatusNotFound, "Organization not found.")
	case errors.Is(err, organizationstore.ErrDuplicateOrganization):
		apierrors.Fields(w, http.StatusConflict, "An organization with this name already exists.",
			[]apierrors.FieldError{{Field: "name", Message: "An organization with this name already exists."}})
	default:
		h.Log.Error(logMsg, zap.Error(err), zap.String("org_id", orgID.Hex()))
		apierrors.Error(w, http.StatusInternalServerError, "A database error occurred.")
	}
}
